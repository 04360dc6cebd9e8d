// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/drivecheck/pkg/devicehealth"
	"github.com/cobaltcore-dev/drivecheck/pkg/report"
)

// Event is published once per device and cycle.
type Event struct {
	RunID      string            `json:"run_id"`
	NodeName   string            `json:"node_name"`
	InstanceID string            `json:"instance_id"`
	Device     string            `json:"device"`
	Interface  string            `json:"interface"`
	EventType  string            `json:"event_type"` // health, health_alert or critical_warning
	Severity   string            `json:"severity"`   // info, warning or critical
	Message    string            `json:"message"`
	Details    map[string]string `json:"details"`
	Flags      []string          `json:"flags,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

type NATSPublisher struct {
	Conn    Conn
	Subject string
}

// ConnectNATS dials url. An unreachable server is not an error: the
// connection keeps retrying in the background and buffers events meanwhile.
// Callers close the returned connection.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("drivecheck"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Str("nats_url", url).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("nats_url", nc.ConnectedUrl()).Msg("nats connected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return nc, nil
}

func (p *NATSPublisher) Publish(_ context.Context, cycle Cycle) error {
	for _, rep := range cycle.Devices {
		event := convertToEvent(rep, cycle.Run)

		eventJSON, err := json.Marshal(event)
		if err != nil {
			return err
		}

		if err := p.Conn.Publish(p.Subject, eventJSON); err != nil {
			return fmt.Errorf("publish %s to %s: %w", rep.Device.Path, p.Subject, err)
		}
	}
	return nil
}

func convertToEvent(rep report.DeviceReport, run report.Run) Event {
	details := make(map[string]string, len(rep.Result.Records))
	var flagged []string
	for _, rec := range rep.Result.Records {
		details[string(rec.Key)] = rec.Value
		if rec.Severity > devicehealth.Ok {
			flagged = append(flagged, rec.Label)
		}
	}
	if id := rep.Identity; id.Model != "" {
		details["model"] = id.Model
	}
	if rep.Link != nil {
		details["pcie_link"] = rep.Link.String()
	}

	event := Event{
		RunID:      run.ID,
		NodeName:   run.NodeName,
		InstanceID: run.InstanceID,
		Device:     rep.Device.Path,
		Interface:  rep.Device.Interface.String(),
		EventType:  "health",
		Severity:   "info",
		Message:    "SMART data collected successfully.",
		Details:    details,
		Timestamp:  run.Started.UTC(),
	}

	if worst := rep.Result.Worst(); worst > devicehealth.Ok {
		event.Severity = worst.String()
		event.EventType = "health_alert"
	}
	if len(flagged) > 0 {
		event.Message = fmt.Sprintf("SMART data indicates potential drive issues (%s).", strings.Join(flagged, ", "))
	}
	if alert := rep.Result.Alert; alert != nil {
		event.EventType = "critical_warning"
		event.Message = alert.Message
		event.Flags = alert.Flags
		details[string(devicehealth.NVMeCriticalWarning)] = fmt.Sprintf("%d", alert.Value)
	}
	return event
}
