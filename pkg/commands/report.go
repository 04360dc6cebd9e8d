// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/drivecheck/pkg/config"
	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
	"github.com/cobaltcore-dev/drivecheck/pkg/diskreport"
	"github.com/cobaltcore-dev/drivecheck/pkg/linkinfo"
	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
	"github.com/cobaltcore-dev/drivecheck/pkg/publish"
	"github.com/cobaltcore-dev/drivecheck/pkg/report"
	"github.com/cobaltcore-dev/drivecheck/pkg/smartctl"
)

// resolveConfig layers defaults, the config file, the environment and the
// flags set on the command line, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Loader, config.Config, error) {
	loader := config.NewLoader(configFilePath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, config.Config{}, err
	}
	cfg, err = finishConfig(cmd, cfg)
	if err != nil {
		return nil, config.Config{}, err
	}
	return loader, cfg, nil
}

func finishConfig(cmd *cobra.Command, cfg config.Config) (config.Config, error) {
	cfg = mergeConfigWithEnv(cfg)
	applyFlags(cmd, &cfg)
	if cfg.NodeName == "" {
		cfg.NodeName = diskreport.Hostname()
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	event := log.Info()
	event.Strs("disks", cfg.Disks).
		Str("discovery", cfg.Discovery).
		Str("smartctl", cfg.Smartctl).
		Dur("timeout", cfg.Timeout).
		Str("output", cfg.Output).
		Str("node_name", cfg.NodeName).
		Str("instance_id", cfg.InstanceID)
	event.Bool("use_nats", cfg.NATS.URL != "")
	if cfg.NATS.URL != "" {
		event.Str("nats_url", cfg.NATS.URL)
		event.Str("nats_subject", cfg.NATS.Subject)
	}
	if cfg.Prometheus.Textfile != "" {
		event.Str("prometheus_textfile", cfg.Prometheus.Textfile)
	}
	event.Msg("configuration_loaded")

	return cfg, nil
}

func mergeConfigWithEnv(cfg config.Config) config.Config {
	cfg.NATS.URL = getEnv("NATS_URL", cfg.NATS.URL)
	cfg.NATS.Subject = getEnv("NATS_SUBJECT", cfg.NATS.Subject)
	disksEnv := getEnv("DISKS", "")
	if disksEnv != "" {
		cfg.Disks = splitDisks(disksEnv)
	}
	cfg.NodeName = getEnv("NODE_NAME", cfg.NodeName)
	cfg.InstanceID = getEnv("INSTANCE_ID", cfg.InstanceID)
	cfg.Smartctl = getEnv("SMARTCTL_PATH", cfg.Smartctl)
	cfg.Timeout = getEnvDuration("SMARTCTL_TIMEOUT", cfg.Timeout)
	cfg.Prometheus.Port = getEnvInt("PROMETHEUS_PORT", cfg.Prometheus.Port)
	cfg.Prometheus.Textfile = getEnv("PROMETHEUS_TEXTFILE", cfg.Prometheus.Textfile)
	cfg.Interval = getEnvInt("INTERVAL", cfg.Interval)
	if _, set := os.LookupEnv("NO_COLOR"); set {
		cfg.NoColor = true
	}
	cfg.NoColor = getEnvBool("DRIVECHECK_NO_COLOR", cfg.NoColor)

	return cfg
}

// applyFlags copies the flags the user actually set onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("disks") {
		cfg.Disks = splitDisks(disksFlag)
	}
	if flags.Changed("discovery") {
		cfg.Discovery = discoveryFlag
	}
	if flags.Changed("smartctl") {
		cfg.Smartctl = smartctlPath
	}
	if flags.Changed("timeout") {
		cfg.Timeout = timeoutFlag
	}
	if flags.Changed("output") {
		cfg.Output = outputFlag
	}
	if flags.Changed("no-color") {
		cfg.NoColor = noColorFlag
	}
	if flags.Changed("sysfs-root") {
		cfg.SysfsRoot = sysfsRootFlag
	}
	if flags.Changed("nats-url") {
		cfg.NATS.URL = natsURLFlag
	}
	if flags.Changed("nats-subject") {
		cfg.NATS.Subject = natsSubject
	}
	if flags.Changed("prometheus-textfile") {
		cfg.Prometheus.Textfile = textfileFlag
	}
	if flags.Changed("node-name") {
		cfg.NodeName = nodeNameFlag
	}
	if flags.Changed("instance-id") {
		cfg.InstanceID = instanceIDFlag
	}
	if flags.Changed("lang") {
		cfg.Lang = langFlag
	}
	if flags.Changed("interval") {
		cfg.Interval = intervalFlag
	}
	if flags.Changed("prometheus-port") {
		cfg.Prometheus.Port = promPortFlag
	}
}

func reportLanguage(cfg config.Config) locale.Language {
	if cfg.Lang != "" {
		return locale.ParseLanguage(cfg.Lang)
	}
	return locale.Detect(os.LookupEnv)
}

func newDiscoverer(cfg config.Config, runner smartctl.Runner) discovery.Discoverer {
	switch {
	case len(cfg.Disks) > 0:
		return discovery.StaticDiscoverer{Specs: cfg.Disks}
	case cfg.Discovery == config.DiscoveryScan:
		return smartctl.ScanDiscoverer{Runner: runner}
	default:
		return discovery.GlobDiscoverer{Patterns: discovery.DefaultPatterns}
	}
}

func newRenderer(cfg config.Config, s *locale.Strings) (report.Renderer, error) {
	format, err := report.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}
	if format == report.FormatJSON {
		return report.NewJSONRenderer(), nil
	}
	return report.NewTableRenderer(s, cfg.NoColor), nil
}

// sinks are the publishers that outlive a single cycle. The NATS
// connection is opened once per command run.
type sinks struct {
	natsURL string
	nc      *nats.Conn
	metrics *publish.Metrics
	serving bool // metrics are exposed on /metrics
}

// openSinks connects to NATS when cfg asks for it. A failed connection is
// logged and reporting continues without NATS.
func openSinks(cfg config.Config) *sinks {
	s := &sinks{natsURL: cfg.NATS.URL}
	if cfg.NATS.URL == "" {
		return s
	}
	nc, err := publish.ConnectNATS(cfg.NATS.URL)
	if err != nil {
		log.Error().Err(err).Str("nats_url", cfg.NATS.URL).Msg("error connecting to nats, continuing without it")
		return s
	}
	s.nc = nc
	return s
}

// publisher builds the publisher of one cycle. The subject and the textfile
// path follow cfg; the connection and the gauges are reused.
func (s *sinks) publisher(cfg config.Config) publish.Publisher {
	var publishers publish.Multi
	if s.nc != nil {
		publishers = append(publishers, &publish.NATSPublisher{Conn: s.nc, Subject: cfg.NATS.Subject})
	}
	switch {
	case cfg.Prometheus.Textfile != "":
		if s.metrics == nil {
			s.metrics = publish.NewMetrics()
		}
		publishers = append(publishers, publish.Textfile{Metrics: s.metrics, Path: cfg.Prometheus.Textfile})
	case s.serving:
		publishers = append(publishers, s.metrics)
	}
	if len(publishers) == 0 {
		return nil
	}
	return publishers
}

func (s *sinks) Close() {
	if s.nc == nil {
		return
	}
	if !s.nc.IsConnected() {
		log.Warn().Str("nats_url", s.natsURL).Msg("nats is not connected, buffered events are dropped")
	}
	s.nc.Close()
}

// newPipeline wires a Runner for cfg on top of the long lived sinks.
func newPipeline(cfg config.Config, stdout, stderr io.Writer, out *sinks) (*diskreport.Runner, error) {
	lang := reportLanguage(cfg)
	s := locale.New(lang)

	sc := smartctl.Runner{Path: cfg.Smartctl, Timeout: cfg.Timeout}
	if err := sc.CheckInstalled(); err != nil {
		fmt.Fprintln(stderr, s.SmartctlStartError())
		return nil, err
	}

	renderer, err := newRenderer(cfg, s)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("lang", lang.String()).Str("output", cfg.Output).Msg("pipeline_ready")

	runner := &diskreport.Runner{
		Discoverer: newDiscoverer(cfg, sc),
		Collector:  sc,
		Links:      linkinfo.Reader{Root: cfg.SysfsRoot},
		Renderer:   renderer,
		Strings:    s,
		Stdout:     stdout,
		Stderr:     stderr,
		NodeName:   cfg.NodeName,
		InstanceID: cfg.InstanceID,
	}
	if pub := out.publisher(cfg); pub != nil {
		runner.Publisher = pub
	}
	return runner, nil
}

func runOnce(ctx context.Context, cfg config.Config, stdout, stderr io.Writer) error {
	out := openSinks(cfg)
	defer out.Close()

	runner, err := newPipeline(cfg, stdout, stderr, out)
	if err != nil {
		return err
	}
	_, err = runner.Run(ctx)
	return err
}
