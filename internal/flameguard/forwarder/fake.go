package forwarder

import (
	"context"
	"sync"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

// Fake records forwarded values for tests.
type Fake struct {
	mu           sync.Mutex
	temperatures []float64
	alerts       int

	Err error
}

var _ core.Forwarder = (*Fake)(nil)

func (f *Fake) SendTemperature(_ context.Context, value float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.temperatures = append(f.temperatures, value)
	return f.Err
}

func (f *Fake) SendFlameAlert(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts++
	return f.Err
}

// Temperatures returns every forwarded temperature, including failed ones.
func (f *Fake) Temperatures() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.temperatures...)
}

// Alerts returns the number of forwarded flame alerts.
func (f *Fake) Alerts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alerts
}
