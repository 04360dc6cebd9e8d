// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import "fmt"

// Endurance bands on the NVMe percentage-used scale.
const (
	EnduranceWarn = 70
	EnduranceCrit = 90
)

// Fixed per-metric thresholds.
const (
	// SpareMargin is how many points above the vendor spare threshold still
	// count as a warning.
	SpareMargin = 10

	ReallocatedTrip     = 1
	SpinRetryTrip       = 1
	MediaErrorsTrip     = 1
	UnsafeShutdownsTrip = 10

	// Wear bands on the ATA normalized (remaining) scale.
	WearCrit = 10
	WearWarn = 30
)

// Unit conversions.
const (
	NVMeDataUnitBytes = 512000
	ATASectorBytes    = 512
	BytesPerTB        = 1e12
)

// missingSpareThreshold is compared against when the device reports a spare
// percentage but no threshold.
const missingSpareThreshold = -1

func classifySpare(spare, threshold int64) Severity {
	switch {
	case spare <= threshold:
		return Critical
	case spare <= threshold+SpareMargin:
		return Warning
	default:
		return Ok
	}
}

func classifyPercentageUsed(used int64) Severity {
	switch {
	case used >= EnduranceCrit:
		return Critical
	case used >= EnduranceWarn:
		return Warning
	default:
		return Ok
	}
}

func classifyWear(remaining int64) Severity {
	switch {
	case remaining <= WearCrit:
		return Critical
	case remaining <= WearWarn:
		return Warning
	default:
		return Ok
	}
}

// atLeast returns Warning once value reaches trip.
func atLeast(value, trip int64) Severity {
	if value >= trip {
		return Warning
	}
	return Ok
}

func formatPercent(v int64) string {
	return fmt.Sprintf("%d%%", v)
}

func formatHours(hours int64, days string) string {
	return fmt.Sprintf("%d h (%d %s)", hours, hours/24, days)
}

func formatDataUnits(units int64) string {
	tb := float64(units) * NVMeDataUnitBytes / BytesPerTB
	return fmt.Sprintf("%.1f TB", tb)
}

func formatLBAs(lbas int64) string {
	tb := float64(lbas) * ATASectorBytes / BytesPerTB
	return fmt.Sprintf("%.2f TB", tb)
}
