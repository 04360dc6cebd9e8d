// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
	"github.com/cobaltcore-dev/drivecheck/pkg/locale"
)

const bannerWidth = 70

var (
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorGray   = lipgloss.Color("#6272A4")
)

type styles struct {
	title  lipgloss.Style
	accent lipgloss.Style
	dim    lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	crit   lipgloss.Style
	border lipgloss.Style
	cell   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:  r.NewStyle().Foreground(colorCyan).Bold(true),
		accent: r.NewStyle().Foreground(colorCyan),
		dim:    r.NewStyle().Foreground(colorGray),
		ok:     r.NewStyle().Foreground(colorGreen),
		warn:   r.NewStyle().Foreground(colorYellow),
		crit:   r.NewStyle().Foreground(colorRed).Bold(true),
		border: r.NewStyle().Foreground(colorGray),
		cell:   r.NewStyle().Padding(0, 1),
	}
}

func (s styles) severity(sev devicehealth.Severity) lipgloss.Style {
	switch sev {
	case devicehealth.Critical:
		return s.crit
	case devicehealth.Warning:
		return s.warn
	default:
		return s.ok
	}
}

// TableRenderer writes the human readable report: a title banner, then per
// device a header, the alert line and a rounded table.
type TableRenderer struct {
	Strings *locale.Strings
	NoColor bool
}

func NewTableRenderer(s *locale.Strings, noColor bool) *TableRenderer {
	return &TableRenderer{Strings: s, NoColor: noColor}
}

func (t *TableRenderer) styles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	if t.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return newStyles(r)
}

func (t *TableRenderer) Header(w io.Writer, _ Run) error {
	st := t.styles(w)
	banner := st.accent.Render(strings.Repeat("═", bannerWidth))
	title := st.title.Width(bannerWidth).Align(lipgloss.Center).Render(t.Strings.HeaderTitle())
	_, err := fmt.Fprintf(w, "%s\n%s\n", banner, title)
	return err
}

func (t *TableRenderer) Device(w io.Writer, rep DeviceReport) error {
	st := t.styles(w)
	s := t.Strings

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s (%s)\n", st.ok.Render("✓ "+rep.Device.Path), st.accent.Render(rep.Device.Interface.String()))
	for _, line := range t.identityLines(rep) {
		b.WriteString(st.dim.Render(line))
		b.WriteString("\n")
	}
	if rep.Link != nil {
		fmt.Fprintf(&b, "%s %s\n", s.TransmissionMode(), rep.Link.String())
	}
	if alert := rep.Result.Alert; alert != nil {
		line := alert.Message
		if len(alert.Flags) > 0 {
			line += " (" + strings.Join(alert.Flags, ", ") + ")"
		}
		b.WriteString(st.crit.Render(line))
		b.WriteString("\n")
	}

	records := rep.Result.Records
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(st.border).
		Headers(s.TableProperty(), s.TableValue(), s.TableStatus()).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := st.cell
			if row == table.HeaderRow {
				return style.Inherit(st.accent)
			}
			if col == 2 {
				style = style.Align(lipgloss.Center)
			}
			if col > 0 && row >= 0 && row < len(records) {
				style = style.Inherit(st.severity(records[row].Severity))
			}
			return style
		})
	for _, rec := range records {
		tbl.Row(rec.Label, rec.Value, t.statusText(rec.Severity))
	}
	b.WriteString(tbl.String())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (t *TableRenderer) Footer(w io.Writer, _ Run) error {
	return nil
}

func (t *TableRenderer) statusText(sev devicehealth.Severity) string {
	switch sev {
	case devicehealth.Critical:
		return t.Strings.StatusCritical()
	case devicehealth.Warning:
		return t.Strings.StatusWarning()
	default:
		return t.Strings.StatusOK()
	}
}

func (t *TableRenderer) identityLines(rep DeviceReport) []string {
	s := t.Strings
	id := rep.Identity
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	if rep.Device.Interface == devicehealth.InterfaceNVMe {
		add(s.ModelNumber(), id.Model)
		add(s.NVMeVersion(), id.NVMeVersion)
		if id.LBASize > 0 {
			add(s.FormattedLBASize(), fmt.Sprintf("%d", id.LBASize))
		}
	} else {
		add(s.DeviceModel(), id.Model)
		add(s.SectorSize(), id.SectorSize)
		add(s.SATAVersion(), id.SATAVersion)
	}
	add(s.Vendor(), id.Vendor)
	add(s.Firmware(), id.Firmware)
	if id.SmartPassed != nil {
		lines = append(lines, s.SmartOverall(*id.SmartPassed))
	}
	return lines
}
