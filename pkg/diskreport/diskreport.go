// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package diskreport runs one reporting cycle: discover devices, acquire and
// classify their telemetry, render it and hand it to the publishers.
package diskreport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/host"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
	"github.com/cobaltcore-dev/drivecheck/pkg/linkinfo"
	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
	"github.com/cobaltcore-dev/drivecheck/pkg/publish"
	"github.com/cobaltcore-dev/drivecheck/pkg/report"
	"github.com/cobaltcore-dev/drivecheck/pkg/smartctl"
)

// Collector returns the raw telemetry document of a device.
type Collector interface {
	Collect(ctx context.Context, dev discovery.StorageDevice) ([]byte, error)
}

type LinkReader interface {
	Read(name string) (linkinfo.Link, bool)
}

type Runner struct {
	Discoverer discovery.Discoverer
	Collector  Collector
	Links      LinkReader        // optional
	Renderer   report.Renderer
	Publisher  publish.Publisher // optional
	Strings    *locale.Strings

	Stdout io.Writer
	Stderr io.Writer

	NodeName   string
	InstanceID string

	NewID func() string    // defaults to a random UUID
	Now   func() time.Time // defaults to time.Now
}

// Run executes one cycle. It fails only when no device could be discovered
// or ctx is cancelled; devices that cannot be read or parsed are reported on
// Stderr and skipped. A cycle without devices is still published.
func (r *Runner) Run(ctx context.Context) (publish.Cycle, error) {
	devices, err := r.Discoverer.Discover(ctx)
	if err != nil {
		return publish.Cycle{}, fmt.Errorf("discover devices: %w", err)
	}

	cycle := publish.Cycle{Run: report.Run{
		ID:         r.newID(),
		NodeName:   r.NodeName,
		InstanceID: r.InstanceID,
		Started:    r.now(),
	}}

	if len(devices) == 0 {
		fmt.Fprintln(r.Stderr, r.Strings.NoDevices())
		// an empty cycle clears what the publishers hold from the last one
		r.publish(ctx, cycle)
		return cycle, discovery.ErrNoDevices
	}

	log.Info().Int("devices", len(devices)).Msg("devices_discovered")

	if err := r.Renderer.Header(r.Stdout, cycle.Run); err != nil {
		return cycle, fmt.Errorf("render header: %w", err)
	}

	for _, dev := range devices {
		if err := ctx.Err(); err != nil {
			return cycle, err
		}

		rep, skipMsg := r.inspect(ctx, dev)
		if skipMsg != "" {
			fmt.Fprintln(r.Stderr, skipMsg)
			cycle.Run.Skipped = append(cycle.Run.Skipped, report.Skipped{Device: dev.Path, Message: skipMsg})
			continue
		}

		if err := r.Renderer.Device(r.Stdout, rep); err != nil {
			return cycle, fmt.Errorf("render %s: %w", dev.Path, err)
		}
		cycle.Devices = append(cycle.Devices, rep)
	}

	if err := r.Renderer.Footer(r.Stdout, cycle.Run); err != nil {
		return cycle, fmt.Errorf("render footer: %w", err)
	}

	r.publish(ctx, cycle)
	return cycle, nil
}

// publish hands cycle to the publisher. Failures are logged only.
func (r *Runner) publish(ctx context.Context, cycle publish.Cycle) {
	if r.Publisher == nil {
		return
	}
	if err := r.Publisher.Publish(ctx, cycle); err != nil {
		log.Error().Err(err).Str("run_id", cycle.Run.ID).Msg("error publishing cycle")
	}
}

// inspect classifies one device. A non-empty message means the device is
// skipped.
func (r *Runner) inspect(ctx context.Context, dev discovery.StorageDevice) (report.DeviceReport, string) {
	raw, err := r.Collector.Collect(ctx, dev)
	if err != nil {
		log.Error().Err(err).Str("disk", dev.Path).Msg("error running smartctl")
		if errors.Is(err, smartctl.ErrNotInstalled) {
			return report.DeviceReport{}, r.Strings.SmartctlStartError()
		}
		return report.DeviceReport{}, r.Strings.SmartDataError(dev.Path)
	}

	doc, err := devicehealth.ParseDocument(raw)
	if err != nil {
		log.Error().Err(err).Str("disk", dev.Path).Msg("error parsing smartctl output")
		return report.DeviceReport{}, r.Strings.ParseError(dev.Path)
	}

	rep := report.DeviceReport{
		Device:   dev,
		Identity: devicehealth.ReadIdentity(doc, dev.Interface),
		Result:   devicehealth.NewExtractor(dev.Interface, r.Strings).Extract(doc),
	}

	if r.Links != nil && dev.Interface == devicehealth.InterfaceNVMe {
		if link, ok := r.Links.Read(dev.Name); ok {
			rep.Link = &link
		}
	}

	log.Debug().
		Str("disk", dev.Path).
		Str("interface", dev.Interface.String()).
		Int("records", len(rep.Result.Records)).
		Str("severity", rep.Result.Worst().String()).
		Msg("device_classified")

	return rep, ""
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Hostname is the default node name.
func Hostname() string {
	info, err := host.Info()
	if err != nil {
		log.Warn().Err(err).Msg("error reading host info")
		return ""
	}
	return info.Hostname
}
