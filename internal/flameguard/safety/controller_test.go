package safety

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/flameguard/internal/flameguard/actuator"
	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/log"
)

func newController() (*Controller, *actuator.Fake) {
	act := actuator.NewFake()
	return NewController(act, log.NewNopLogger()), act
}

func TestOnFlameAlert(t *testing.T) {
	c, act := newController()
	ctx := context.Background()

	require.NoError(t, c.OnFlameAlert(ctx))
	assert.True(t, c.PowerCutoff())
	assert.Equal(t, []string{"off"}, act.Calls())

	// Already cut, the plug is left alone.
	require.NoError(t, c.OnFlameAlert(ctx))
	assert.Equal(t, []string{"off"}, act.Calls())
}

func TestOnFlameAlertFailure(t *testing.T) {
	c, act := newController()
	act.PowerOffErr = errors.New("no route to host")

	err := c.OnFlameAlert(context.Background())
	require.ErrorIs(t, err, core.ErrHazardPersists)
	assert.ErrorContains(t, err, "no route to host")
	assert.False(t, c.PowerCutoff())

	act.PowerOffErr = nil
	require.NoError(t, c.OnFlameAlert(context.Background()))
	assert.True(t, c.PowerCutoff())
	assert.Equal(t, []string{"off", "off"}, act.Calls())
}

func TestRestorePower(t *testing.T) {
	tests := []struct {
		name       string
		state      core.ActivationState
		cutoff     bool
		powerOnErr error
		wantErr    error
		wantCalls  []string
		wantCutoff bool
	}{
		{
			name:       "inactive is rejected",
			state:      core.StateInactive,
			cutoff:     true,
			wantErr:    core.ErrInactive,
			wantCutoff: true,
		},
		{
			name:  "no cutoff is a no-op",
			state: core.StateActive,
		},
		{
			name:      "cutoff is cleared",
			state:     core.StateActive,
			cutoff:    true,
			wantCalls: []string{"on"},
		},
		{
			name:       "failed power on keeps the cutoff",
			state:      core.StateActive,
			cutoff:     true,
			powerOnErr: errors.New("timeout"),
			wantCalls:  []string{"on"},
			wantCutoff: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, act := newController()
			c.cutoff = tt.cutoff
			act.PowerOnErr = tt.powerOnErr

			err := c.RestorePower(context.Background(), tt.state)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.powerOnErr != nil:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, act.Calls())
			assert.Equal(t, tt.wantCutoff, c.PowerCutoff())
		})
	}
}

func TestManualPowerOffLeavesFlag(t *testing.T) {
	c, act := newController()

	require.NoError(t, c.ManualPowerOff(context.Background()))
	assert.False(t, c.PowerCutoff())

	c.cutoff = true
	act.PowerOffErr = errors.New("refused")
	assert.Error(t, c.ManualPowerOff(context.Background()))
	assert.True(t, c.PowerCutoff())
}

func TestReset(t *testing.T) {
	c, act := newController()
	require.NoError(t, c.OnFlameAlert(context.Background()))

	c.Reset()
	assert.False(t, c.PowerCutoff())
	assert.Equal(t, []string{"off"}, act.Calls())
}
