// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartctl

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
	"github.com/cobaltcore-dev/drivecheck/pkg/discovery"
)

// ScanOutput represents the JSON output of smartctl --scan-open -j
type ScanOutput struct {
	JSONFormatVersion []int64      `json:"json_format_version"`
	Devices           []ScanDevice `json:"devices"`
}

// ScanDevice is one entry of the scan output
type ScanDevice struct {
	Name      string `json:"name"`
	InfoName  string `json:"info_name"`
	Type      string `json:"type"`
	Protocol  string `json:"protocol"`
	OpenError string `json:"open_error,omitempty"`
}

// Scan runs smartctl --scan-open -j
func (r Runner) Scan(ctx context.Context) (*ScanOutput, error) {
	out, status, err := r.exec(ctx, "--scan-open", "-j")
	if err != nil {
		return nil, fmt.Errorf("error running smartctl --scan-open: %w", err)
	}
	if status&fatalExitBits != 0 {
		return nil, fmt.Errorf("smartctl --scan-open failed with exit status %d", status)
	}

	var scan ScanOutput
	if err := json.Unmarshal(out, &scan); err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return &scan, nil
}

// ScanDiscoverer discovers devices through smartctl's own device scan.
type ScanDiscoverer struct {
	Runner Runner
}

func (s ScanDiscoverer) Discover(ctx context.Context) ([]discovery.StorageDevice, error) {
	scan, err := s.Runner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var devices []discovery.StorageDevice
	for _, d := range scan.Devices {
		if d.Name == "" || d.OpenError != "" {
			continue
		}
		var args []string
		if d.Type != "" {
			args = []string{"-d", d.Type}
		}
		dev := discovery.NewStorageDevice(d.Name, args...)
		switch {
		case d.Protocol != "":
			dev.Interface = devicehealth.ParseInterface(d.Protocol)
		case d.Type != "":
			dev.Interface = devicehealth.ParseInterface(d.Type)
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
