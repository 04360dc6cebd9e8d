// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
)

// ErrNoDevices is returned when discovery finds nothing to report on.
var ErrNoDevices = errors.New("no storage devices found")

// StorageDevice identifies one block device. It is never mutated after
// discovery.
type StorageDevice struct {
	Path      string                 `json:"path"`      // e.g. "/dev/nvme0n1"
	Name      string                 `json:"name"`      // e.g. "nvme0n1"
	Interface devicehealth.Interface `json:"interface"` // NVMe or ATA
	Args      []string               `json:"-"`         // extra smartctl arguments, e.g. ["-d", "sat"]
}

// NewStorageDevice builds a device from a path, guessing the interface from
// the kernel name.
func NewStorageDevice(path string, args ...string) StorageDevice {
	name := filepath.Base(path)
	kind := devicehealth.InterfaceATA
	if strings.HasPrefix(name, "nvme") {
		kind = devicehealth.InterfaceNVMe
	}
	return StorageDevice{Path: path, Name: name, Interface: kind, Args: args}
}

// ParseSpec parses a device entry of the form "/dev/sdb" or "/dev/sdb -d sat".
// An explicit "-d nvme" forces the NVMe interface.
func ParseSpec(spec string) (StorageDevice, error) {
	parts := strings.Fields(spec)
	if len(parts) == 0 {
		return StorageDevice{}, fmt.Errorf("empty device entry")
	}
	if !strings.HasPrefix(parts[0], "/dev/") {
		return StorageDevice{}, fmt.Errorf("invalid device %q: expected a /dev path", parts[0])
	}

	dev := NewStorageDevice(parts[0], parts[1:]...)
	for i := 1; i < len(parts)-1; i++ {
		if parts[i] == "-d" || parts[i] == "--device" {
			dev.Interface = devicehealth.ParseInterface(parts[i+1])
		}
	}
	return dev, nil
}

// Discoverer enumerates candidate devices.
type Discoverer interface {
	Discover(ctx context.Context) ([]StorageDevice, error)
}

// DefaultPatterns cover the first namespace of every NVMe controller and
// the SCSI/SATA disks.
var DefaultPatterns = []string{"/dev/nvme*n1", "/dev/sd[a-z]"}

// GlobDiscoverer matches device nodes against file name patterns.
type GlobDiscoverer struct {
	Patterns []string
	// Glob defaults to filepath.Glob.
	Glob func(pattern string) ([]string, error)
}

func (g GlobDiscoverer) Discover(_ context.Context) ([]StorageDevice, error) {
	glob := g.Glob
	if glob == nil {
		glob = filepath.Glob
	}
	patterns := g.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var devices []StorageDevice
	for _, pattern := range patterns {
		matches, err := glob(pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("invalid device pattern")
			continue
		}
		sort.Strings(matches)
		for _, path := range matches {
			devices = append(devices, NewStorageDevice(path))
		}
	}
	return devices, nil
}

// StaticDiscoverer returns a fixed device list, e.g. from --disks.
type StaticDiscoverer struct {
	Specs []string
}

func (s StaticDiscoverer) Discover(_ context.Context) ([]StorageDevice, error) {
	var devices []StorageDevice
	for _, spec := range s.Specs {
		if strings.TrimSpace(spec) == "" {
			continue
		}
		dev, err := ParseSpec(spec)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}
	return devices, nil
}
