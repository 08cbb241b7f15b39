// Package safety owns the power cutoff flag and decides when the plug may be
// switched off for a hazard and switched back on.
package safety

import (
	"context"
	"fmt"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/log"
)

// Controller is the only writer of the power cutoff flag. It is not safe for
// concurrent use.
type Controller struct {
	actuator core.Actuator
	logger   log.Logger

	cutoff bool
}

// NewController creates a Controller driving the given actuator.
func NewController(actuator core.Actuator, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.Std()
	}
	return &Controller{
		actuator: actuator,
		logger:   logger.WithName("safety"),
	}
}

// PowerCutoff reports whether power is currently cut because of a hazard.
func (c *Controller) PowerCutoff() bool {
	return c.cutoff
}

// OnFlameAlert cuts power unless it is already cut. A failed power-off leaves
// the flag unset and returns an error matching core.ErrHazardPersists.
func (c *Controller) OnFlameAlert(ctx context.Context) error {
	if c.cutoff {
		c.logger.Debug("Flame alert while power is already cut")
		return nil
	}

	if err := c.actuator.PowerOff(ctx); err != nil {
		c.logger.Error(err, "Power cutoff failed, hazard persists", "hazard", true)
		return fmt.Errorf("%w: %w", core.ErrHazardPersists, err)
	}

	c.cutoff = true
	c.logger.Warn("Power cut off due to flame alert")
	return nil
}

// RestorePower switches power back on after a cutoff. It is rejected unless
// state is active, and does nothing when no cutoff is in effect.
func (c *Controller) RestorePower(ctx context.Context, state core.ActivationState) error {
	if state != core.StateActive {
		return fmt.Errorf("restore power: %w", core.ErrInactive)
	}

	if !c.cutoff {
		c.logger.Debug("Restore requested without an active cutoff")
		return nil
	}

	if err := c.actuator.PowerOn(ctx); err != nil {
		return fmt.Errorf("restore power: %w", err)
	}

	c.cutoff = false
	c.logger.Info("Power restored")
	return nil
}

// ManualPowerOff switches the plug off on operator request. The cutoff flag
// is left untouched.
func (c *Controller) ManualPowerOff(ctx context.Context) error {
	if err := c.actuator.PowerOff(ctx); err != nil {
		return fmt.Errorf("manual power off: %w", err)
	}
	c.logger.Info("Power switched off manually")
	return nil
}

// Reset clears the cutoff flag without touching the device. Only the rental
// lifecycle calls it, together with its own power command.
func (c *Controller) Reset() {
	c.cutoff = false
}
