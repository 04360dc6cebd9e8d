// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package locale holds the display strings of drivecheck in every supported
// language. A Strings value is read-only once constructed and is passed
// explicitly to the extractors and the reporter.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

type Language int

const (
	English Language = iota
	German
)

func (l Language) String() string {
	switch l {
	case German:
		return "de"
	default:
		return "en"
	}
}

// supported must stay in the same order as the Language constants.
var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

// ParseLanguage maps a POSIX locale value ("de_DE.UTF-8", "en_US", "C") or a
// BCP 47 tag ("de-AT") to a supported language. Unknown values map to English.
func ParseLanguage(value string) Language {
	value = strings.TrimSpace(value)
	if i := strings.IndexAny(value, ".@"); i >= 0 {
		value = value[:i]
	}
	value = strings.ReplaceAll(value, "_", "-")
	if value == "" || value == "C" || value == "POSIX" {
		return English
	}

	tag, err := language.Parse(value)
	if err != nil {
		return English
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return English
	}
	return Language(index)
}

// localeEnvKeys are consulted in POSIX precedence order.
var localeEnvKeys = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// Detect picks the display language from the process locale variables. The
// first non-empty variable decides.
func Detect(lookup func(string) (string, bool)) Language {
	for _, key := range localeEnvKeys {
		if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
			return ParseLanguage(value)
		}
	}
	return English
}

// Strings returns localized display text.
type Strings struct {
	lang Language
}

func New(lang Language) *Strings {
	return &Strings{lang: lang}
}

func (s *Strings) pick(en, de string) string {
	if s.lang == German {
		return de
	}
	return en
}

func (s *Strings) HeaderTitle() string {
	return s.pick("Storage Media Diagnostics", "Speichermedien-Diagnose")
}

func (s *Strings) NoDevices() string {
	return s.pick("No drives found", "Keine Laufwerke gefunden")
}

func (s *Strings) SmartctlStartError() string {
	return s.pick("smartctl could not be started", "smartctl konnte nicht gestartet werden")
}

func (s *Strings) SmartDataError(device string) string {
	return s.pick(
		fmt.Sprintf("✗ %s - SMART data could not be retrieved", device),
		fmt.Sprintf("✗ %s - SMART-Daten konnten nicht abgerufen werden", device),
	)
}

func (s *Strings) ParseError(device string) string {
	return s.pick(
		fmt.Sprintf("✗ %s - JSON parsing failed", device),
		fmt.Sprintf("✗ %s - JSON-Parsing fehlgeschlagen", device),
	)
}

func (s *Strings) CriticalWarning(value int64) string {
	return s.pick(
		fmt.Sprintf("⚠️ CRITICAL WARNING: %d", value),
		fmt.Sprintf("⚠️ KRITISCHE WARNUNG: %d", value),
	)
}

func (s *Strings) TableProperty() string {
	return s.pick("Property", "Eigenschaft")
}

func (s *Strings) TableValue() string {
	return s.pick("Current Value", "Aktueller Wert")
}

func (s *Strings) TableStatus() string {
	return "Status"
}

func (s *Strings) StatusOK() string {
	return "✓ OK"
}

func (s *Strings) StatusWarning() string {
	return s.pick("⚠️ WARNING", "⚠️ WARNUNG")
}

func (s *Strings) StatusCritical() string {
	return s.pick("❌ CRITICAL", "❌ KRITISCH")
}

func (s *Strings) SpareBlocks() string {
	return s.pick("Available Spare Blocks", "Verfügbare Ersatzblöcke")
}

func (s *Strings) DriveHealth() string {
	return s.pick("Drive Health", "Laufwerk-Gesundheit")
}

// Remaining is the suffix appended to a remaining-endurance number.
func (s *Strings) Remaining() string {
	return s.pick("% remaining", "% verbleibend")
}

func (s *Strings) Days() string {
	return s.pick("days", "Tage")
}

func (s *Strings) TransmissionMode() string {
	return s.pick("Transmission mode:", "Übertragungsmodus:")
}

func (s *Strings) DataRead() string {
	return s.pick("Data read", "Daten gelesen")
}

func (s *Strings) DataWritten() string {
	return s.pick("Data written", "Daten geschrieben")
}

func (s *Strings) DataWrittenApprox() string {
	return s.pick("Data written (approx.)", "Daten geschrieben (ca.)")
}

func (s *Strings) OperatingHours() string {
	return s.pick("Operating hours", "Betriebsstunden")
}

func (s *Strings) PowerCycles() string {
	return s.pick("Power cycles", "Einschaltzyklen")
}

func (s *Strings) UnsafeShutdowns() string {
	return s.pick("Unsafe Shutdowns", "Unsichere Abschaltungen")
}

func (s *Strings) MediaErrors() string {
	return s.pick("Media Errors", "Medienfehler")
}

func (s *Strings) ReallocatedSectors() string {
	return "Reallocated Sectors"
}

func (s *Strings) SpinRetryCount() string {
	return "Spin Retry Count"
}

func (s *Strings) DriveHealthRemaining() string {
	return s.pick("Drive Health (remaining)", "Drive Health (verbleibend)")
}

// Identity labels used in the device header.

func (s *Strings) ModelNumber() string {
	return s.pick("Model Number", "Modellnummer")
}

func (s *Strings) DeviceModel() string {
	return s.pick("Device Model", "Gerätemodell")
}

func (s *Strings) Vendor() string {
	return s.pick("Vendor", "Hersteller")
}

func (s *Strings) Firmware() string {
	return "Firmware"
}

func (s *Strings) NVMeVersion() string {
	return s.pick("NVMe Version", "NVMe-Version")
}

func (s *Strings) FormattedLBASize() string {
	return s.pick("Formatted LBA Size", "Formatierte LBA-Größe")
}

func (s *Strings) SectorSize() string {
	return s.pick("Sector Size", "Sektorgröße")
}

func (s *Strings) SATAVersion() string {
	return s.pick("SATA Version", "SATA-Version")
}

func (s *Strings) SmartOverall(passed bool) string {
	if passed {
		return s.pick("SMART overall-health: PASSED", "SMART-Gesamtzustand: BESTANDEN")
	}
	return s.pick("SMART overall-health: FAILED", "SMART-Gesamtzustand: FEHLGESCHLAGEN")
}
