// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"fmt"
	"strings"
)

// Severity of a classified metric. The zero value is Ok.
type Severity int

const (
	Ok Severity = iota
	Warning
	Critical
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return "ok"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "ok":
		*s = Ok
	case "warning":
		*s = Warning
	case "critical":
		*s = Critical
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// AttributeKey names the source of a metric record independent of the
// display language.
type AttributeKey string

// NVMe health log keys.
const (
	NVMeCriticalWarning         AttributeKey = "critical_warning"
	NVMeAvailableSpare          AttributeKey = "available_spare"
	NVMeAvailableSpareThreshold AttributeKey = "available_spare_threshold"
	NVMePercentageUsed          AttributeKey = "percentage_used"
	NVMeDataUnitsRead           AttributeKey = "data_units_read"
	NVMeDataUnitsWritten        AttributeKey = "data_units_written"
	NVMePowerOnHours            AttributeKey = "power_on_hours"
	NVMePowerCycles             AttributeKey = "power_cycles"
	NVMeMediaErrors             AttributeKey = "media_errors"
	NVMeUnsafeShutdowns         AttributeKey = "unsafe_shutdowns"
)

// ATA SMART attribute IDs read by the ATA extractor.
const (
	ATAReallocatedSectors = 5
	ATAPowerOnHours       = 9
	ATASpinRetryCount     = 10
	ATAPowerCycles        = 12
	ATAWearLevel          = 177
	ATATotalLBAsWritten   = 241
)

// ATA attribute keys.
const (
	ATAKeyReallocatedSectors AttributeKey = "reallocated_sector_ct"
	ATAKeyPowerOnHours       AttributeKey = "power_on_hours"
	ATAKeySpinRetryCount     AttributeKey = "spin_retry_count"
	ATAKeyPowerCycles        AttributeKey = "power_cycle_count"
	ATAKeyWearLevel          AttributeKey = "wear_leveling_count"
	ATAKeyTotalLBAsWritten   AttributeKey = "total_lbas_written"
)

// MetricRecord is one display row.
type MetricRecord struct {
	Key      AttributeKey `json:"key"`
	Label    string       `json:"label"`
	Value    string       `json:"value"`
	Severity Severity     `json:"severity"`
	Raw      int64        `json:"raw"` // numeric source value the row was derived from
}

// Alert is the out-of-band NVMe critical warning.
type Alert struct {
	Value   int64    `json:"value"`
	Message string   `json:"message"`
	Flags   []string `json:"flags,omitempty"`
}

// Result is the output of one extraction.
type Result struct {
	Records []MetricRecord `json:"records"`
	Alert   *Alert         `json:"alert,omitempty"`
}

// Worst returns the most severe record severity, or Critical when an alert
// is present.
func (r Result) Worst() Severity {
	if r.Alert != nil {
		return Critical
	}
	worst := Ok
	for _, rec := range r.Records {
		if rec.Severity > worst {
			worst = rec.Severity
		}
	}
	return worst
}
