// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
)

func TestNewStorageDevice(t *testing.T) {
	dev := NewStorageDevice("/dev/nvme0n1")
	assert.Equal(t, "nvme0n1", dev.Name)
	assert.Equal(t, devicehealth.InterfaceNVMe, dev.Interface)

	dev = NewStorageDevice("/dev/sda")
	assert.Equal(t, "sda", dev.Name)
	assert.Equal(t, devicehealth.InterfaceATA, dev.Interface)
}

func TestParseSpec(t *testing.T) {
	dev, err := ParseSpec("/dev/sdb -d sat")
	require.NoError(t, err)
	assert.Equal(t, "/dev/sdb", dev.Path)
	assert.Equal(t, []string{"-d", "sat"}, dev.Args)
	assert.Equal(t, devicehealth.InterfaceATA, dev.Interface)

	dev, err = ParseSpec("  /dev/sdc   -d nvme ")
	require.NoError(t, err)
	assert.Equal(t, devicehealth.InterfaceNVMe, dev.Interface)

	_, err = ParseSpec("   ")
	assert.Error(t, err)

	_, err = ParseSpec("sda")
	assert.Error(t, err)
}

func TestGlobDiscoverer(t *testing.T) {
	fake := map[string][]string{
		"/dev/nvme*n1": {"/dev/nvme1n1", "/dev/nvme0n1"},
		"/dev/sd[a-z]": {"/dev/sda"},
	}
	g := GlobDiscoverer{Glob: func(pattern string) ([]string, error) {
		return fake[pattern], nil
	}}

	devices, err := g.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, "/dev/nvme0n1", devices[0].Path)
	assert.Equal(t, "/dev/nvme1n1", devices[1].Path)
	assert.Equal(t, "/dev/sda", devices[2].Path)
	assert.Equal(t, devicehealth.InterfaceATA, devices[2].Interface)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestGlobDiscovererRealFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nvme0n1", "nvme0n1p1", "sda", "sda1", "sdb"} {
		touch(t, filepath.Join(dir, name))
	}

	g := GlobDiscoverer{Patterns: []string{filepath.Join(dir, "nvme*n1"), filepath.Join(dir, "sd[a-z]")}}
	devices, err := g.Discover(context.Background())
	require.NoError(t, err)

	var names []string
	for _, d := range devices {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"nvme0n1", "sda", "sdb"}, names)
}

func TestGlobDiscovererNothingFound(t *testing.T) {
	g := GlobDiscoverer{Patterns: []string{filepath.Join(t.TempDir(), "sd[a-z]")}}
	devices, err := g.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestStaticDiscoverer(t *testing.T) {
	s := StaticDiscoverer{Specs: []string{"/dev/sda", "", "/dev/nvme0n1"}}
	devices, err := s.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, devicehealth.InterfaceNVMe, devices[1].Interface)

	_, err = StaticDiscoverer{Specs: []string{"bogus"}}.Discover(context.Background())
	assert.Error(t, err)
}
