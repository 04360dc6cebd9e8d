// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
)

// Metrics holds the gauges of the latest cycle in a private registry.
type Metrics struct {
	registry *prometheus.Registry

	attributeValue    *prometheus.GaugeVec
	attributeSeverity *prometheus.GaugeVec
	deviceSeverity    *prometheus.GaugeVec
	criticalWarning   *prometheus.GaugeVec
	deviceInfo        *prometheus.GaugeVec
	pcieLinkWidth     *prometheus.GaugeVec
	pcieLinkGen       *prometheus.GaugeVec
	skippedDevices    prometheus.Gauge
	lastRun           prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attributeValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_attribute_value",
				Help: "Raw value a health record was derived from",
			},
			[]string{"disk", "attribute", "node", "instance"},
		),
		attributeSeverity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_attribute_severity",
				Help: "Severity of a health record (0 ok, 1 warning, 2 critical)",
			},
			[]string{"disk", "attribute", "node", "instance"},
		),
		deviceSeverity: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_device_severity",
				Help: "Worst severity of a device (0 ok, 1 warning, 2 critical)",
			},
			[]string{"disk", "interface", "node", "instance"},
		),
		criticalWarning: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_nvme_critical_warning",
				Help: "NVMe critical warning bit field",
			},
			[]string{"disk", "node", "instance"},
		),
		deviceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_device_info",
				Help: "Identity of a reported device",
			},
			[]string{"disk", "interface", "model", "vendor", "firmware", "node", "instance"},
		),
		pcieLinkWidth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_pcie_link_width",
				Help: "PCIe link width in lanes",
			},
			[]string{"disk", "link", "node", "instance"},
		),
		pcieLinkGen: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "drivecheck_pcie_link_generation",
				Help: "PCIe link generation",
			},
			[]string{"disk", "link", "node", "instance"},
		),
		skippedDevices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drivecheck_skipped_devices",
			Help: "Devices that could not be classified in the last cycle",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "drivecheck_last_run_timestamp_seconds",
			Help: "Start time of the last cycle",
		}),
	}

	m.registry.MustRegister(
		m.attributeValue,
		m.attributeSeverity,
		m.deviceSeverity,
		m.criticalWarning,
		m.deviceInfo,
		m.pcieLinkWidth,
		m.pcieLinkGen,
		m.skippedDevices,
		m.lastRun,
	)
	return m
}

// Publish replaces all gauges with the values of cycle. Devices that vanished
// since the previous cycle disappear from the output.
func (m *Metrics) Publish(_ context.Context, cycle Cycle) error {
	m.reset()

	node, instance := cycle.Run.NodeName, cycle.Run.InstanceID
	for _, rep := range cycle.Devices {
		disk := rep.Device.Path
		kind := rep.Device.Interface.String()

		m.deviceSeverity.With(prometheus.Labels{
			"disk":      disk,
			"interface": kind,
			"node":      node,
			"instance":  instance,
		}).Set(float64(rep.Result.Worst()))

		m.deviceInfo.With(prometheus.Labels{
			"disk":      disk,
			"interface": kind,
			"model":     rep.Identity.Model,
			"vendor":    rep.Identity.Vendor,
			"firmware":  rep.Identity.Firmware,
			"node":      node,
			"instance":  instance,
		}).Set(1)

		if rep.Device.Interface == devicehealth.InterfaceNVMe {
			var warning int64
			if rep.Result.Alert != nil {
				warning = rep.Result.Alert.Value
			}
			m.criticalWarning.With(prometheus.Labels{
				"disk":     disk,
				"node":     node,
				"instance": instance,
			}).Set(float64(warning))
		}

		for _, rec := range rep.Result.Records {
			labels := prometheus.Labels{
				"disk":      disk,
				"attribute": string(rec.Key),
				"node":      node,
				"instance":  instance,
			}
			m.attributeValue.With(labels).Set(float64(rec.Raw))
			m.attributeSeverity.With(labels).Set(float64(rec.Severity))
		}

		if link := rep.Link; link != nil {
			for name, values := range map[string][2]int{
				"current": {link.CurrentWidth, link.CurrentGen()},
				"max":     {link.MaxWidth, link.MaxGen()},
			} {
				labels := prometheus.Labels{"disk": disk, "link": name, "node": node, "instance": instance}
				if values[0] > 0 {
					m.pcieLinkWidth.With(labels).Set(float64(values[0]))
				}
				if values[1] > 0 {
					m.pcieLinkGen.With(labels).Set(float64(values[1]))
				}
			}
		}
	}

	m.skippedDevices.Set(float64(len(cycle.Run.Skipped)))
	if !cycle.Run.Started.IsZero() {
		m.lastRun.Set(float64(cycle.Run.Started.Unix()))
	}
	return nil
}

func (m *Metrics) reset() {
	m.attributeValue.Reset()
	m.attributeSeverity.Reset()
	m.deviceSeverity.Reset()
	m.criticalWarning.Reset()
	m.deviceInfo.Reset()
	m.pcieLinkWidth.Reset()
	m.pcieLinkGen.Reset()
}

// Textfile writes the gauges for the node exporter textfile collector after
// every cycle.
type Textfile struct {
	Metrics *Metrics
	Path    string
}

func (t Textfile) Publish(ctx context.Context, cycle Cycle) error {
	if err := t.Metrics.Publish(ctx, cycle); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(t.Path, t.Metrics.registry); err != nil {
		return fmt.Errorf("write prometheus textfile %s: %w", t.Path, err)
	}
	return nil
}

// Serve exposes /metrics on port until ctx is done.
func (m *Metrics) Serve(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("error stopping prometheus metrics server")
		}
	}()

	log.Info().Msgf("starting prometheus metrics server on :%d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("prometheus metrics server: %w", err)
	}
	return nil
}
