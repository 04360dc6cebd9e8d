// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"fmt"
	"strconv"

	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
)

// criticalWarningBits names the bits of the NVMe critical warning field.
var criticalWarningBits = []string{
	"spare_below_threshold",
	"temperature",
	"reliability_degraded",
	"read_only",
	"volatile_backup_failed",
	"pmr_read_only",
}

// NVMeExtractor reads nvme_smart_health_information_log.
type NVMeExtractor struct {
	strings *locale.Strings
}

func (NVMeExtractor) Interface() Interface {
	return InterfaceNVMe
}

func (e NVMeExtractor) Extract(doc *Document) Result {
	health := doc.Get("nvme_smart_health_information_log")
	var res Result

	if warn, ok := health.Get(string(NVMeCriticalWarning)).Int(); ok && warn != 0 {
		res.Alert = &Alert{
			Value:   warn,
			Message: e.strings.CriticalWarning(warn),
			Flags:   decodeCriticalWarning(warn),
		}
	}

	if spare, ok := health.Get(string(NVMeAvailableSpare)).Int(); ok && spare >= 0 {
		label := e.strings.SpareBlocks()
		threshold, hasThreshold := health.Get(string(NVMeAvailableSpareThreshold)).Int()
		if hasThreshold {
			label = fmt.Sprintf("%s (%d%%)", label, threshold)
		} else {
			threshold = missingSpareThreshold
		}
		res.add(NVMeAvailableSpare, label, formatPercent(spare), classifySpare(spare, threshold), spare)
	}

	if used, ok := health.Get(string(NVMePercentageUsed)).Int(); ok {
		remaining := 100 - used
		value := fmt.Sprintf("%d %s", remaining, e.strings.Remaining())
		res.add(NVMePercentageUsed, e.strings.DriveHealth(), value, classifyPercentageUsed(used), used)
	}

	if read, ok := health.Get(string(NVMeDataUnitsRead)).Int(); ok {
		res.add(NVMeDataUnitsRead, e.strings.DataRead(), formatDataUnits(read), Ok, read)
	}
	if written, ok := health.Get(string(NVMeDataUnitsWritten)).Int(); ok {
		res.add(NVMeDataUnitsWritten, e.strings.DataWritten(), formatDataUnits(written), Ok, written)
	}

	if hours, ok := health.Get(string(NVMePowerOnHours)).Int(); ok {
		res.add(NVMePowerOnHours, e.strings.OperatingHours(), formatHours(hours, e.strings.Days()), Ok, hours)
	}

	if cycles, ok := health.Get(string(NVMePowerCycles)).Int(); ok {
		res.add(NVMePowerCycles, e.strings.PowerCycles(), strconv.FormatInt(cycles, 10), Ok, cycles)
	}

	if mediaErrors, ok := health.Get(string(NVMeMediaErrors)).Int(); ok {
		res.add(NVMeMediaErrors, e.strings.MediaErrors(), strconv.FormatInt(mediaErrors, 10), atLeast(mediaErrors, MediaErrorsTrip), mediaErrors)
	}

	if shutdowns, ok := health.Get(string(NVMeUnsafeShutdowns)).Int(); ok {
		res.add(NVMeUnsafeShutdowns, e.strings.UnsafeShutdowns(), strconv.FormatInt(shutdowns, 10), atLeast(shutdowns, UnsafeShutdownsTrip), shutdowns)
	}

	return res
}

func (r *Result) add(key AttributeKey, label, value string, severity Severity, raw int64) {
	r.Records = append(r.Records, MetricRecord{
		Key:      key,
		Label:    label,
		Value:    value,
		Severity: severity,
		Raw:      raw,
	})
}

// decodeCriticalWarning lists the set bits by name. Reserved bits are
// reported as bit_N.
func decodeCriticalWarning(value int64) []string {
	var flags []string
	for bit := 0; bit < 8; bit++ {
		if value&(1<<bit) == 0 {
			continue
		}
		if bit < len(criticalWarningBits) {
			flags = append(flags, criticalWarningBits[bit])
		} else {
			flags = append(flags, fmt.Sprintf("bit_%d", bit))
		}
	}
	return flags
}
