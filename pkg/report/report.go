// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package report renders classified device health as a terminal table or as
// a JSON document.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
	"github.com/cobaltcore-dev/drivecheck/pkg/linkinfo"
)

// DeviceReport is everything known about one device after a cycle.
type DeviceReport struct {
	Device   discovery.StorageDevice
	Identity devicehealth.Identity
	Result   devicehealth.Result
	Link     *linkinfo.Link // nil when sysfs had no link
}

// Skipped is a device that could not be classified in this cycle.
type Skipped struct {
	Device  string `json:"device"`
	Message string `json:"message"`
}

// Run identifies one reporting cycle.
type Run struct {
	ID         string
	NodeName   string
	InstanceID string
	Started    time.Time
	Skipped    []Skipped
}

// Renderer writes a cycle. Header is called once before the devices, Footer
// once after them.
type Renderer interface {
	Header(w io.Writer, run Run) error
	Device(w io.Writer, rep DeviceReport) error
	Footer(w io.Writer, run Run) error
}

// Format selects a Renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table or json)", value)
	}
}
