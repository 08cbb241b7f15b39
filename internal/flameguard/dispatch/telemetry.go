package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/flameguard/internal/flameguard/aggregator"
	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/pkg/metrics"
)

// telemetryMessage is the sensor payload, e.g. {"temperature":21.5,"id":"s1","flame":false}.
type telemetryMessage struct {
	Temperature *float64 `json:"temperature"`
	ID          string   `json:"id"`
	Flame       bool     `json:"flame"`
}

func decodeTelemetry(payload []byte, now time.Time) (core.TelemetrySample, error) {
	if !isObject(payload) {
		return core.TelemetrySample{}, fmt.Errorf("%w: telemetry is not a JSON object", core.ErrMalformedPayload)
	}

	var msg telemetryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return core.TelemetrySample{}, fmt.Errorf("%w: telemetry: %w", core.ErrMalformedPayload, err)
	}

	return core.TelemetrySample{
		Temperature:   msg.Temperature,
		FlameDetected: msg.Flame,
		DeviceID:      msg.ID,
		ReceivedAt:    now,
	}, nil
}

// handleTelemetry feeds a reading to the aggregator and acts on the events.
// Readings are dropped while no rental is active.
func (d *Dispatcher) handleTelemetry(ctx context.Context, payload []byte, now time.Time) ([]core.Outbound, bool, error) {
	if d.rental.State() != core.StateActive {
		d.logger.Debug("Telemetry dropped, system inactive")
		return nil, true, nil
	}

	sample, err := decodeTelemetry(payload, now)
	if err != nil {
		return nil, false, err
	}

	session := d.rental.Session()

	var (
		out  []core.Outbound
		errs []error
	)
	for _, ev := range d.agg.Ingest(sample) {
		var record any

		switch ev.Type {
		case aggregator.EventFlameStatus:
			record = FlameStatus{
				FlameDetected: ev.FlameDetected,
				PowerCutoff:   d.safety.PowerCutoff(),
				RentalInfo:    session,
			}

		case aggregator.EventFlameAlert:
			metrics.FlameAlertsTotal.Inc()
			d.logger.Warn("Flame alert", "temperature", ev.Temperature, "deviceID", sample.DeviceID)

			if ferr := d.forwarder.SendFlameAlert(ctx); ferr != nil {
				d.logger.Error(ferr, "Failed to forward flame alert")
			}

			st := ActuatorStatus{AverageTemperature: ev.Temperature, FlameAlert: true, RentalInfo: session}
			if herr := d.safety.OnFlameAlert(ctx); herr != nil {
				metrics.HazardUnmitigatedTotal.Inc()
				st.HazardUnmitigated = true
				errs = append(errs, herr)
			}
			st.PowerCutoff = d.safety.PowerCutoff()
			record = st

		case aggregator.EventTemperatureAverage:
			if ferr := d.forwarder.SendTemperature(ctx, *ev.Temperature); ferr != nil {
				d.logger.Error(ferr, "Failed to forward temperature", "temperature", *ev.Temperature)
			}
			record = ActuatorStatus{
				AverageTemperature: ev.Temperature,
				FlameAlert:         ev.FlameAlert,
				PowerCutoff:        d.safety.PowerCutoff(),
				RentalInfo:         session,
			}
		}

		if msg, ok := d.outbound(record); ok {
			out = append(out, msg)
		}
	}

	return out, false, errors.Join(errs...)
}

func isObject(payload []byte) bool {
	p := bytes.TrimSpace(payload)
	return len(p) > 0 && p[0] == '{'
}
