// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"fmt"
	"regexp"
)

// Identity is the descriptive part of a telemetry document shown above the
// metric table. Empty fields were absent.
type Identity struct {
	Model       string `json:"model,omitempty"`
	Family      string `json:"family,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
	Serial      string `json:"serial,omitempty"`
	Firmware    string `json:"firmware,omitempty"`
	NVMeVersion string `json:"nvme_version,omitempty"`
	LBASize     int64  `json:"formatted_lba_size,omitempty"`
	SectorSize  string `json:"sector_size,omitempty"`
	SATAVersion string `json:"sata_version,omitempty"`
	SmartPassed *bool  `json:"smart_passed,omitempty"`
}

// ReadIdentity collects the identity fields for the given interface kind.
func ReadIdentity(doc *Document, kind Interface) Identity {
	var id Identity

	id.Model, _ = doc.Get("model_name").Text()
	if id.Model == "" {
		id.Model, _ = doc.Get("device_model").Text()
	}
	id.Family, _ = doc.Get("model_family").Text()
	id.Serial, _ = doc.Get("serial_number").Text()
	id.Firmware, _ = doc.Get("firmware_version").Text()
	id.Vendor = FindVendor(id.Model, id.Family)

	if passed, ok := doc.Path("smart_status", "passed").Bool(); ok {
		id.SmartPassed = &passed
	}

	switch kind {
	case InterfaceNVMe:
		id.NVMeVersion, _ = doc.Path("nvme_version", "string").Text()
		if namespaces := doc.Get("nvme_namespaces").Array(); len(namespaces) > 0 {
			id.LBASize, _ = namespaces[0].Get("formatted_lba_size").Int()
		}
	default:
		id.SATAVersion, _ = doc.Path("sata_version", "string").Text()
		logical, hasLogical := doc.Get("logical_block_size").Int()
		physical, hasPhysical := doc.Get("physical_block_size").Int()
		switch {
		case hasLogical && hasPhysical && logical != physical:
			id.SectorSize = fmt.Sprintf("%d bytes logical, %d bytes physical", logical, physical)
		case hasLogical:
			id.SectorSize = fmt.Sprintf("%d bytes", logical)
		}
	}

	return id
}

var vendorPatterns = []struct {
	pattern *regexp.Regexp
	vendor  string
}{
	{regexp.MustCompile(`(?i)^DL2400`), "Seagate"},
	{regexp.MustCompile(`(?i)TOSHIBA`), "Toshiba"},
	{regexp.MustCompile(`(?i)^MG0[345678]`), "Toshiba"},
	{regexp.MustCompile(`(?i)INTEL`), "Intel"},
	{regexp.MustCompile(`(?i)KIOXIA`), "Kioxia"},
	{regexp.MustCompile(`(?i)WESTERN|WDC|^WD[0-9]`), "WesternDigital"},
	{regexp.MustCompile(`(?i)SEAGATE`), "Seagate"},
	{regexp.MustCompile(`(?i)^ST[12][0-9]`), "Seagate"},
	{regexp.MustCompile(`(?i)HGST|^HU[HS]`), "HGST"},
	{regexp.MustCompile(`(?i)MICRON|MTFDD|^CT[0-9]`), "Micron"},
	{regexp.MustCompile(`(?i)SANDISK`), "SanDisk"},
	{regexp.MustCompile(`(?i)SAMSUNG|^MZ[7VQ]`), "Samsung"},
	{regexp.MustCompile(`(?i)^SK ?HYNIX|^HFS`), "SK hynix"},
}

// FindVendor guesses the manufacturer from model strings smartctl reports.
func FindVendor(model, family string) string {
	for _, entry := range vendorPatterns {
		if entry.pattern.MatchString(model) || entry.pattern.MatchString(family) {
			return entry.vendor
		}
	}
	return ""
}
