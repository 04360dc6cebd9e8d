// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/drivecheck/pkg/config"
	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
	"github.com/cobaltcore-dev/drivecheck/pkg/publish"
)

var (
	intervalFlag int
	promPortFlag int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Report periodically and expose the latest results on /metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		out := openSinks(cfg)
		defer out.Close()
		out.metrics = publish.NewMetrics()
		out.serving = true

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- out.metrics.Serve(ctx, cfg.Prometheus.Port)
		}()

		reloads := make(chan config.Config, 1)
		loader.Watch(func(fileCfg config.Config, err error) {
			if err != nil {
				log.Error().Err(err).Msg("error reloading config file")
				return
			}
			next, err := finishConfig(cmd, fileCfg)
			if err != nil {
				log.Error().Err(err).Msg("reloaded config is invalid, keeping the previous one")
				return
			}
			for _, key := range restartRequired(cfg, next) {
				log.Warn().Str("key", key).Msg("changing this key requires a restart, keeping the running value")
			}
			offerReload(reloads, next)
		})

		cycle := func(ctx context.Context, cfg config.Config) {
			runner, err := newPipeline(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), out)
			if err != nil {
				log.Error().Err(err).Msg("error preparing report cycle")
				return
			}
			if _, err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				if errors.Is(err, discovery.ErrNoDevices) {
					log.Warn().Msg("no devices found for monitoring")
					return
				}
				log.Error().Err(err).Msg("error running report cycle")
			}
		}

		loopErr := make(chan error, 1)
		go func() {
			loopErr <- serveLoop(ctx, cfg, reloads, cycle)
		}()

		select {
		case err := <-serverErr:
			if err != nil {
				return err
			}
			return <-loopErr
		case err := <-loopErr:
			return err
		}
	},
}

// offerReload queues next for the serve loop. A reload still waiting in the
// channel is replaced by next; the call never blocks.
func offerReload(reloads chan config.Config, next config.Config) {
	for {
		select {
		case reloads <- next:
			return
		default:
		}
		select {
		case <-reloads:
		default:
		}
	}
}

// restartRequired names the keys that differ between running and next but
// are only read at startup.
func restartRequired(running, next config.Config) []string {
	var keys []string
	if running.Prometheus.Port != next.Prometheus.Port {
		keys = append(keys, "prometheus.port")
	}
	if running.NATS.URL != next.NATS.URL {
		keys = append(keys, "nats.url")
	}
	return keys
}

// serveLoop runs cycle right away and then every cfg.Interval seconds until
// ctx is done. A config received on reloads replaces cfg and restarts the
// ticker.
func serveLoop(ctx context.Context, cfg config.Config, reloads <-chan config.Config, cycle func(context.Context, config.Config)) error {
	cycle(ctx, cfg)

	ticker := time.NewTicker(time.Duration(cfg.Interval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case next := <-reloads:
			log.Info().Int("interval_seconds", next.Interval).Msg("configuration_reloaded")
			cfg = next
			ticker.Reset(time.Duration(cfg.Interval) * time.Second)
			cycle(ctx, cfg)
		case <-ticker.C:
			cycle(ctx, cfg)
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&intervalFlag, "interval", 60, "Interval in seconds between report cycles")
	serveCmd.Flags().IntVar(&promPortFlag, "prometheus-port", 8080, "Prometheus metrics port")
}
