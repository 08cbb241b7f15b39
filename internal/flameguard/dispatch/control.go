package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

// controlMessage is an operator command, e.g. {"power":"off"} or
// {"reset_flame_alert":true,"deactivate_system":true}. Unknown fields are ignored.
type controlMessage struct {
	Power            *string `json:"power"`
	ResetFlameAlert  bool    `json:"reset_flame_alert"`
	DeactivateSystem bool    `json:"deactivate_system"`
}

// handleControl applies power, then reset, then deactivate. A failing part
// does not prevent the following ones.
func (d *Dispatcher) handleControl(ctx context.Context, payload []byte) error {
	if !isObject(payload) {
		return fmt.Errorf("%w: control is not a JSON object", core.ErrMalformedPayload)
	}

	var msg controlMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: control: %w", core.ErrMalformedPayload, err)
	}

	var errs []error

	if msg.Power != nil {
		switch strings.ToLower(strings.TrimSpace(*msg.Power)) {
		case "off":
			if err := d.safety.ManualPowerOff(ctx); err != nil {
				errs = append(errs, err)
			}
		case "on":
			// Rejected with core.ErrInactive, without touching the plug, unless a rental is active.
			if err := d.safety.RestorePower(ctx, d.rental.State()); err != nil {
				errs = append(errs, err)
			}
		default:
			errs = append(errs, fmt.Errorf("%w: unknown power command %q", core.ErrMalformedPayload, *msg.Power))
		}
	}

	if msg.ResetFlameAlert {
		d.agg.ResetFlame()
		d.logger.Info("Flame window reset by operator")
	}

	if msg.DeactivateSystem {
		if err := d.rental.End(ctx, "deactivated by operator"); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
