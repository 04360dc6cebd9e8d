// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package linkinfo reads the negotiated PCIe link of an NVMe device from
// sysfs. Missing files are not errors: the link is simply unknown.
package linkinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Link is the current and maximum PCIe link of a device.
type Link struct {
	CurrentSpeed string `json:"current_speed"` // e.g. "8.0 GT/s PCIe"
	CurrentWidth int    `json:"current_width"`
	MaxSpeed     string `json:"max_speed"`
	MaxWidth     int    `json:"max_width"`
}

// CurrentGen returns the PCIe generation of the current link speed, 0 when
// unknown.
func (l Link) CurrentGen() int {
	return generation(l.CurrentSpeed)
}

func (l Link) MaxGen() int {
	return generation(l.MaxSpeed)
}

// String formats the link as "PCIe Gen3 x4 (max Gen4 x4)".
func (l Link) String() string {
	current := describe(l.CurrentSpeed, l.CurrentWidth)
	if l.MaxSpeed == "" && l.MaxWidth == 0 {
		return "PCIe " + current
	}
	return fmt.Sprintf("PCIe %s (max %s)", current, describe(l.MaxSpeed, l.MaxWidth))
}

func describe(speed string, width int) string {
	var parts []string
	if gen := generation(speed); gen > 0 {
		parts = append(parts, fmt.Sprintf("Gen%d", gen))
	} else if speed != "" {
		parts = append(parts, speed)
	}
	if width > 0 {
		parts = append(parts, fmt.Sprintf("x%d", width))
	}
	if len(parts) == 0 {
		return "?"
	}
	return strings.Join(parts, " ")
}

// transfer rate in GT/s per generation
var gigaTransfers = map[string]int{
	"2.5":  1,
	"5.0":  2,
	"5":    2,
	"8.0":  3,
	"8":    3,
	"16.0": 4,
	"16":   4,
	"32.0": 5,
	"32":   5,
	"64.0": 6,
	"64":   6,
}

func generation(speed string) int {
	fields := strings.Fields(speed)
	if len(fields) == 0 {
		return 0
	}
	return gigaTransfers[fields[0]]
}

// Reader resolves links below a sysfs root. Root is "/" in production and a
// temp directory in tests.
type Reader struct {
	Root string
}

var namespaceRe = regexp.MustCompile(`^(nvme\d+)(?:c\d+)?n\d+`)

// candidates lists the PCI function directories that may describe name.
func (r Reader) candidates(name string) []string {
	root := r.Root
	if root == "" {
		root = "/"
	}
	dirs := []string{
		// /sys/block/nvme0n1/device is the controller, its device link the PCI function
		filepath.Join(root, "sys", "block", name, "device", "device"),
	}
	if m := namespaceRe.FindStringSubmatch(name); m != nil {
		dirs = append(dirs, filepath.Join(root, "sys", "class", "nvme", m[1], "device"))
	} else if strings.HasPrefix(name, "nvme") {
		dirs = append(dirs, filepath.Join(root, "sys", "class", "nvme", name, "device"))
	}
	return dirs
}

// Read returns the link for the device with short name (e.g. "nvme0n1").
// The boolean is false when sysfs has no link information.
func (r Reader) Read(name string) (Link, bool) {
	for _, dir := range r.candidates(name) {
		link := Link{
			CurrentSpeed: readSysfsString(filepath.Join(dir, "current_link_speed")),
			CurrentWidth: readSysfsInt(filepath.Join(dir, "current_link_width")),
			MaxSpeed:     readSysfsString(filepath.Join(dir, "max_link_speed")),
			MaxWidth:     readSysfsInt(filepath.Join(dir, "max_link_width")),
		}
		if link.CurrentSpeed != "" || link.CurrentWidth > 0 {
			return link, true
		}
	}
	return Link{}, false
}

func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	value := strings.TrimSpace(string(data))
	if value == "Unknown" || strings.HasPrefix(value, "Unknown ") {
		return ""
	}
	return value
}

// readSysfsInt reads an integer from a sysfs file. Returns 0 on error.
func readSysfsInt(path string) int {
	value := readSysfsString(path)
	if value == "" {
		return 0
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}
