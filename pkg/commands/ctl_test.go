// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/drivecheck/pkg/config"
	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
	"github.com/cobaltcore-dev/drivecheck/pkg/publish"
	"github.com/cobaltcore-dev/drivecheck/pkg/report"
	"github.com/cobaltcore-dev/drivecheck/pkg/smartctl"
)

func TestGetEnv(t *testing.T) {
	key := "TEST_KEY"
	fallback := "default_value"

	// Test when the environment variable is not set
	os.Unsetenv(key)
	value := getEnv(key, fallback)
	assert.Equal(t, fallback, value)

	// Test when the environment variable is set
	t.Setenv(key, "expected_value")
	value = getEnv(key, fallback)
	assert.Equal(t, "expected_value", value)
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty-two")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_DURATION", "90s")

	assert.Equal(t, 42, getEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TEST_BAD_INT", 1))
	assert.True(t, getEnvBool("TEST_BOOL", false))
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))
	assert.Equal(t, time.Second, getEnvDuration("TEST_UNSET_DURATION", time.Second))
}

func TestSplitDisks(t *testing.T) {
	assert.Equal(t, []string{"/dev/sda", "/dev/sdb -d sat"}, splitDisks(" /dev/sda, ,/dev/sdb -d sat,"))
	assert.Nil(t, splitDisks(""))
}

func TestMergeConfigWithEnv(t *testing.T) {
	t.Setenv("DISKS", "/dev/nvme0n1,/dev/sda")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("NODE_NAME", "storage-07")
	t.Setenv("PROMETHEUS_PORT", "9633")
	t.Setenv("INTERVAL", "300")
	t.Setenv("NO_COLOR", "")

	cfg := mergeConfigWithEnv(config.Default())
	assert.Equal(t, []string{"/dev/nvme0n1", "/dev/sda"}, cfg.Disks)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, "drive.health", cfg.NATS.Subject)
	assert.Equal(t, "storage-07", cfg.NodeName)
	assert.Equal(t, 9633, cfg.Prometheus.Port)
	assert.Equal(t, 300, cfg.Interval)
	assert.True(t, cfg.NoColor)
}

// flagCommand binds a subset of the package flags to a fresh flag set so
// tests do not touch rootCmd.
func flagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&disksFlag, "disks", "", "")
	cmd.Flags().StringVar(&outputFlag, "output", "table", "")
	cmd.Flags().StringVar(&nodeNameFlag, "node-name", "", "")
	cmd.Flags().IntVar(&intervalFlag, "interval", 60, "")
	return cmd
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	cmd := flagCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--output", "json", "--interval", "5"}))

	cfg := config.Default()
	cfg.NodeName = "from-file"
	cfg.Disks = []string{"/dev/sdz"}
	applyFlags(cmd, &cfg)

	assert.Equal(t, "json", cfg.Output)
	assert.Equal(t, 5, cfg.Interval)
	assert.Equal(t, "from-file", cfg.NodeName, "unset flags keep file values")
	assert.Equal(t, []string{"/dev/sdz"}, cfg.Disks)
}

func TestFinishConfigPrecedence(t *testing.T) {
	t.Setenv("NODE_NAME", "from-env")
	t.Setenv("DISKS", "/dev/sda")

	cmd := flagCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--disks", "/dev/nvme0n1"}))

	cfg := config.Default()
	cfg.NodeName = "from-file"
	cfg, err := finishConfig(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.NodeName)
	assert.Equal(t, []string{"/dev/nvme0n1"}, cfg.Disks)

	cmd = flagCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--interval", "0"}))
	_, err = finishConfig(cmd, config.Default())
	assert.Error(t, err)
}

func TestReportLanguage(t *testing.T) {
	t.Setenv("LC_ALL", "de_DE.UTF-8")

	assert.Equal(t, locale.German, reportLanguage(config.Config{}))
	assert.Equal(t, locale.English, reportLanguage(config.Config{Lang: "en"}))
}

func TestNewDiscoverer(t *testing.T) {
	sc := smartctl.Runner{}

	cfg := config.Default()
	assert.IsType(t, discovery.GlobDiscoverer{}, newDiscoverer(cfg, sc))

	cfg.Discovery = config.DiscoveryScan
	assert.IsType(t, smartctl.ScanDiscoverer{}, newDiscoverer(cfg, sc))

	cfg.Disks = []string{"/dev/sda"}
	assert.IsType(t, discovery.StaticDiscoverer{}, newDiscoverer(cfg, sc))
}

func TestNewRenderer(t *testing.T) {
	s := locale.New(locale.English)

	r, err := newRenderer(config.Config{Output: "json"}, s)
	require.NoError(t, err)
	assert.IsType(t, &report.JSONRenderer{}, r)

	r, err = newRenderer(config.Config{Output: "table"}, s)
	require.NoError(t, err)
	assert.IsType(t, &report.TableRenderer{}, r)

	_, err = newRenderer(config.Config{Output: "xml"}, s)
	assert.Error(t, err)
}

func TestServeLoopReload(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	cycle := func(_ context.Context, cfg config.Config) {
		mu.Lock()
		seen = append(seen, cfg.Interval)
		mu.Unlock()
	}
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(seen)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads := make(chan config.Config, 1)
	done := make(chan error, 1)
	cfg := config.Default()
	cfg.Interval = 3600
	go func() { done <- serveLoop(ctx, cfg, reloads, cycle) }()

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 5*time.Millisecond, "first cycle runs immediately")

	next := cfg
	next.Interval = 1800
	reloads <- next
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 5*time.Millisecond, "a reload runs a cycle")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("serve loop did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3600, 1800}, seen)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	t.Cleanup(func() { versionCmd.SetOut(nil) })

	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "drivecheck dev\n", out.String())
}

func TestSetUpLogs(t *testing.T) {
	assert.NoError(t, setUpLogs("debug"))
	assert.Error(t, setUpLogs("loud"))
	require.NoError(t, setUpLogs("warn"))
}

// fakeSmartctl writes a smartctl stand-in that prints the NVMe fixture.
func fakeSmartctl(t *testing.T) string {
	t.Helper()
	fixture, err := filepath.Abs(filepath.Join("..", "devicehealth", "testdata", "nvme.json"))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "smartctl")
	script := fmt.Sprintf("#!/bin/sh\ncat '%s'\n", fixture)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunOnceWithUnreachableNATS(t *testing.T) {
	for _, url := range []string{"nats://127.0.0.1:1", "nats://[bad"} {
		t.Run(url, func(t *testing.T) {
			cfg := config.Default()
			cfg.Smartctl = fakeSmartctl(t)
			cfg.Disks = []string{"/dev/nvme0n1"}
			cfg.SysfsRoot = t.TempDir()
			cfg.NoColor = true
			cfg.Lang = "en"
			cfg.NodeName = "node-1"
			cfg.NATS.URL = url

			var stdout, stderr bytes.Buffer
			err := runOnce(context.Background(), cfg, &stdout, &stderr)
			require.NoError(t, err)
			assert.Contains(t, stdout.String(), "✓ /dev/nvme0n1 (NVMe)")
			assert.Empty(t, stderr.String())
		})
	}
}

func TestSinksPublisher(t *testing.T) {
	out := openSinks(config.Default())
	defer out.Close()
	assert.Nil(t, out.publisher(config.Default()), "nothing configured")

	cfg := config.Default()
	cfg.Prometheus.Textfile = filepath.Join(t.TempDir(), "drivecheck.prom")
	pub := out.publisher(cfg)
	require.IsType(t, publish.Multi{}, pub)
	require.Len(t, pub.(publish.Multi), 1)
	metrics := out.metrics
	require.NotNil(t, metrics)

	out.publisher(cfg)
	assert.Same(t, metrics, out.metrics, "gauges are reused across cycles")

	served := &sinks{metrics: publish.NewMetrics(), serving: true}
	pub = served.publisher(config.Default())
	require.Len(t, pub.(publish.Multi), 1)
	assert.Same(t, served.metrics, pub.(publish.Multi)[0])
}

func TestOfferReloadNeverBlocks(t *testing.T) {
	reloads := make(chan config.Config, 1)

	first := config.Default()
	first.Interval = 10
	offerReload(reloads, first)

	second := config.Default()
	second.Interval = 20
	offerReload(reloads, second)

	got := <-reloads
	assert.Equal(t, 20, got.Interval, "a pending reload is replaced")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			case <-reloads:
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			offerReload(reloads, config.Default())
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("offerReload blocked while the loop was draining")
	}
	close(stop)
	wg.Wait()
}

func TestRestartRequired(t *testing.T) {
	running := config.Default()
	next := running
	next.Interval = 5
	next.NATS.Subject = "other"
	assert.Empty(t, restartRequired(running, next))

	next.Prometheus.Port = 9000
	next.NATS.URL = "nats://nats:4222"
	assert.Equal(t, []string{"prometheus.port", "nats.url"}, restartRequired(running, next))
}
