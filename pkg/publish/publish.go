// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package publish exports the devices of a finished cycle to Prometheus and
// NATS.
package publish

import (
	"context"
	"errors"

	"github.com/cobaltcore-dev/drivecheck/pkg/report"
)

// Cycle is the outcome of one reporting run.
type Cycle struct {
	Run     report.Run
	Devices []report.DeviceReport
}

// Publisher receives every finished cycle.
type Publisher interface {
	Publish(ctx context.Context, cycle Cycle) error
}

// Multi fans a cycle out to several publishers and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, cycle Cycle) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, cycle); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
