// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package devicehealth turns smartctl telemetry documents into ordered,
// classified metric records.
//
// Extraction is a pure function of the document: the extractors hold only
// their read-only string table and never report errors. A field that is
// missing or has an unexpected type simply produces no record.
package devicehealth

import (
	"fmt"
	"strings"

	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
)

// Interface is the transport kind of a storage device.
type Interface int

const (
	InterfaceATA Interface = iota
	InterfaceNVMe
)

func (i Interface) String() string {
	if i == InterfaceNVMe {
		return "NVMe"
	}
	return "ATA"
}

func (i Interface) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Interface) UnmarshalText(text []byte) error {
	*i = ParseInterface(string(text))
	return nil
}

// ParseInterface accepts smartctl protocol and device type names. Everything
// that is not NVMe is handled as ATA, SCSI included.
func ParseInterface(name string) Interface {
	if strings.EqualFold(name, "nvme") {
		return InterfaceNVMe
	}
	return InterfaceATA
}

// Extractor classifies the telemetry of one interface kind.
type Extractor interface {
	Interface() Interface
	Extract(doc *Document) Result
}

// NewExtractor returns the extractor for kind.
func NewExtractor(kind Interface, s *locale.Strings) Extractor {
	switch kind {
	case InterfaceNVMe:
		return NVMeExtractor{strings: s}
	case InterfaceATA:
		return ATAExtractor{strings: s}
	default:
		panic(fmt.Sprintf("devicehealth: unknown interface %d", kind))
	}
}
