package actuator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/pkg/metrics"
	"github.com/autopeer-io/flameguard/pkg/log"
)

// DefaultTimeout bounds a single plug command when no timeout is configured.
const DefaultTimeout = 20 * time.Second

// Guard wraps an actuator so that every command finishes within a fixed
// timeout and at most one command runs at a time. A command that overruns its
// timeout keeps the guard busy until it really returns; commands issued in
// the meantime fail with core.ErrActuatorBusy.
type Guard struct {
	next    core.Actuator
	timeout time.Duration
	sem     chan struct{}
	logger  log.Logger
}

var _ core.Actuator = (*Guard)(nil)

// NewGuard wraps next. A non-positive timeout selects DefaultTimeout.
func NewGuard(next core.Actuator, timeout time.Duration, logger log.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = log.Std()
	}
	return &Guard{
		next:    next,
		timeout: timeout,
		sem:     make(chan struct{}, 1),
		logger:  logger.WithName("actuator"),
	}
}

func (g *Guard) PowerOn(ctx context.Context) error {
	_, err := guarded(ctx, g, "on", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.PowerOn(ctx)
	})
	return err
}

func (g *Guard) PowerOff(ctx context.Context) error {
	_, err := guarded(ctx, g, "off", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.next.PowerOff(ctx)
	})
	return err
}

func (g *Guard) Status(ctx context.Context) (core.PlugStatus, error) {
	return guarded(ctx, g, "status", g.next.Status)
}

type result[T any] struct {
	val T
	err error
}

func guarded[T any](ctx context.Context, g *Guard, command string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	select {
	case g.sem <- struct{}{}:
	default:
		metrics.ActuatorCommandsTotal.WithLabelValues(command, "busy").Inc()
		g.logger.Warn("Plug command refused, previous command still running", "command", command)
		return zero, fmt.Errorf("plug %s: %w", command, core.ErrActuatorBusy)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan result[T], 1)
	go func() {
		defer func() { <-g.sem }()
		v, err := fn(ctx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		elapsed := time.Since(start)
		metrics.ActuatorLatency.WithLabelValues(command).Observe(elapsed.Seconds())
		if r.err != nil {
			status := "failed"
			if errors.Is(r.err, context.DeadlineExceeded) {
				status = "timeout"
			}
			metrics.ActuatorCommandsTotal.WithLabelValues(command, status).Inc()
			g.logger.Error(r.err, "Plug command failed", "command", command, "elapsed", elapsed)
			return zero, fmt.Errorf("%w: plug %s: %w", core.ErrActuation, command, r.err)
		}
		metrics.ActuatorCommandsTotal.WithLabelValues(command, "success").Inc()
		g.logger.Debug("Plug command succeeded", "command", command, "elapsed", elapsed)
		return r.val, nil

	case <-ctx.Done():
		metrics.ActuatorCommandsTotal.WithLabelValues(command, "timeout").Inc()
		g.logger.Error(ctx.Err(), "Plug command did not finish in time", "command", command, "timeout", g.timeout)
		return zero, fmt.Errorf("%w: plug %s: %w", core.ErrActuation, command, ctx.Err())
	}
}
