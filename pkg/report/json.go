// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
	"github.com/cobaltcore-dev/drivecheck/pkg/linkinfo"
)

// Document is the JSON form of one cycle.
type Document struct {
	RunID       string    `json:"run_id"`
	NodeName    string    `json:"node_name,omitempty"`
	InstanceID  string    `json:"instance_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Devices     []Device  `json:"devices"`
	Skipped     []Skipped `json:"skipped,omitempty"`
}

type Device struct {
	Path      string                      `json:"path"`
	Name      string                      `json:"name"`
	Interface devicehealth.Interface      `json:"interface"`
	Identity  devicehealth.Identity       `json:"identity"`
	Severity  devicehealth.Severity       `json:"severity"`
	Records   []devicehealth.MetricRecord `json:"records"`
	Alert     *devicehealth.Alert         `json:"alert,omitempty"`
	Link      *linkinfo.Link              `json:"pcie_link,omitempty"`
}

// NewDevice flattens a DeviceReport into its JSON form.
func NewDevice(rep DeviceReport) Device {
	records := rep.Result.Records
	if records == nil {
		records = []devicehealth.MetricRecord{}
	}
	return Device{
		Path:      rep.Device.Path,
		Name:      rep.Device.Name,
		Interface: rep.Device.Interface,
		Identity:  rep.Identity,
		Severity:  rep.Result.Worst(),
		Records:   records,
		Alert:     rep.Result.Alert,
		Link:      rep.Link,
	}
}

// JSONRenderer buffers the devices of a cycle and writes a single Document
// in Footer. It is not safe for concurrent cycles.
type JSONRenderer struct {
	devices []Device
}

func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (j *JSONRenderer) Header(io.Writer, Run) error {
	j.devices = []Device{}
	return nil
}

func (j *JSONRenderer) Device(_ io.Writer, rep DeviceReport) error {
	j.devices = append(j.devices, NewDevice(rep))
	return nil
}

func (j *JSONRenderer) Footer(w io.Writer, run Run) error {
	doc := Document{
		RunID:       run.ID,
		NodeName:    run.NodeName,
		InstanceID:  run.InstanceID,
		GeneratedAt: run.Started.UTC(),
		Devices:     j.devices,
		Skipped:     run.Skipped,
	}
	if doc.Devices == nil {
		doc.Devices = []Device{}
	}
	j.devices = nil

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
