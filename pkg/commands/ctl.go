// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
)

var (
	v              string
	configFilePath string
	disksFlag      string
	discoveryFlag  string
	smartctlPath   string
	timeoutFlag    time.Duration
	outputFlag     string
	noColorFlag    bool
	sysfsRootFlag  string
	natsURLFlag    string
	natsSubject    string
	textfileFlag   string
	nodeNameFlag   string
	instanceIDFlag string
	langFlag       string
)

var rootCmd = &cobra.Command{
	Use:   "drivecheck",
	Short: "SMART health report for local NVMe and SATA drives",
	Long: "drivecheck runs smartctl against the local storage devices, classifies the " +
		"health attributes and prints a table per device. Results can also be exported " +
		"to Prometheus and NATS.",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setUpLogs(v); err != nil {
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		return runOnce(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&v, "verbosity", "v", zerolog.WarnLevel.String(), "Log level (debug, info, warn, error, fatal, panic")
	flags.StringVar(&configFilePath, "config", "", "Path to configuration file")
	flags.StringVar(&disksFlag, "disks", "", "Comma separated list of disks, each optionally followed by smartctl arguments (e.g. \"/dev/sdb -d sat\")")
	flags.StringVar(&discoveryFlag, "discovery", "glob", "Device discovery when --disks is empty (glob or scan)")
	flags.StringVar(&smartctlPath, "smartctl", "smartctl", "Path to the smartctl binary")
	flags.DurationVar(&timeoutFlag, "timeout", 30*time.Second, "Timeout for a single smartctl invocation")
	flags.StringVar(&outputFlag, "output", "table", "Output format (table or json)")
	flags.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
	flags.StringVar(&sysfsRootFlag, "sysfs-root", "/", "Root directory containing sys/ for PCIe link lookups")
	flags.StringVar(&natsURLFlag, "nats-url", "", "NATS server URL")
	flags.StringVar(&natsSubject, "nats-subject", "drive.health", "NATS subject to publish device events")
	flags.StringVar(&textfileFlag, "prometheus-textfile", "", "Write metrics to this file for the node exporter textfile collector")
	flags.StringVar(&nodeNameFlag, "node-name", "", "Node name attached to metrics and events (default: host name)")
	flags.StringVar(&instanceIDFlag, "instance-id", "", "Instance ID attached to metrics and events")
	flags.StringVar(&langFlag, "lang", "", "Report language (en or de); default from LC_ALL, LC_MESSAGES, LANG")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		if errors.Is(err, discovery.ErrNoDevices) {
			// already reported in the user's language
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI '%s'\n", err)
		os.Exit(1)
	}
}

// setUpLogs sets the log output and the log level
func setUpLogs(level string) error {
	zerolog.SetGlobalLevel(zerolog.WarnLevel) // Default level
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	// stdout carries the report
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// splitDisks splits a comma separated disk list, dropping empty entries.
func splitDisks(value string) []string {
	var disks []string
	for _, disk := range strings.Split(value, ",") {
		if disk = strings.TrimSpace(disk); disk != "" {
			disks = append(disks, disk)
		}
	}
	return disks
}
