// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package devicehealth

import (
	"strconv"

	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
)

// ATAExtractor reads ata_smart_attributes.table.
type ATAExtractor struct {
	strings *locale.Strings
}

func (ATAExtractor) Interface() Interface {
	return InterfaceATA
}

func (e ATAExtractor) Extract(doc *Document) Result {
	table := attributeTable(doc.Path("ata_smart_attributes", "table").Array())
	var res Result

	if realloc, ok := table.raw(ATAReallocatedSectors); ok {
		res.add(ATAKeyReallocatedSectors, e.strings.ReallocatedSectors(), strconv.FormatInt(realloc, 10), atLeast(realloc, ReallocatedTrip), realloc)
	}

	if spinRetry, ok := table.raw(ATASpinRetryCount); ok {
		res.add(ATAKeySpinRetryCount, e.strings.SpinRetryCount(), strconv.FormatInt(spinRetry, 10), atLeast(spinRetry, SpinRetryTrip), spinRetry)
	}

	if hours, ok := table.raw(ATAPowerOnHours); ok {
		res.add(ATAKeyPowerOnHours, e.strings.OperatingHours(), formatHours(hours, e.strings.Days()), Ok, hours)
	}

	if cycles, ok := table.raw(ATAPowerCycles); ok {
		res.add(ATAKeyPowerCycles, e.strings.PowerCycles(), strconv.FormatInt(cycles, 10), Ok, cycles)
	}

	if wear, ok := table.normalized(ATAWearLevel); ok {
		res.add(ATAKeyWearLevel, e.strings.DriveHealthRemaining(), formatPercent(wear), classifyWear(wear), wear)
	}

	if lbas, ok := table.raw(ATATotalLBAsWritten); ok {
		res.add(ATAKeyTotalLBAsWritten, e.strings.DataWrittenApprox(), formatLBAs(lbas), Ok, lbas)
	}

	return res
}

// attributeTable is the entry list of ata_smart_attributes.table.
type attributeTable []Node

// find returns the first entry carrying id.
func (t attributeTable) find(id int64) (Node, bool) {
	for _, entry := range t {
		if v, ok := entry.Get("id").Int(); ok && v == id {
			return entry, true
		}
	}
	return Node{}, false
}

func (t attributeTable) raw(id int64) (int64, bool) {
	entry, ok := t.find(id)
	if !ok {
		return 0, false
	}
	return entry.Path("raw", "value").Int()
}

func (t attributeTable) normalized(id int64) (int64, bool) {
	entry, ok := t.find(id)
	if !ok {
		return 0, false
	}
	return entry.Get("value").Int()
}
