package actuator

import (
	"context"
	"sync"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

// Fake is an in-memory actuator for tests. It records every call and can be
// told to fail or to hang.
type Fake struct {
	mu    sync.Mutex
	calls []string
	on    bool

	PowerOnErr  error
	PowerOffErr error
	StatusErr   error

	// Hang, when non-nil, blocks every call until it is closed, ignoring ctx.
	Hang chan struct{}
}

var _ core.Actuator = (*Fake)(nil)

// NewFake returns a Fake with the plug switched off.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) PowerOn(ctx context.Context) error {
	return f.do("on", f.PowerOnErr, func() { f.on = true })
}

func (f *Fake) PowerOff(ctx context.Context) error {
	return f.do("off", f.PowerOffErr, func() { f.on = false })
}

func (f *Fake) Status(ctx context.Context) (core.PlugStatus, error) {
	if err := f.do("status", f.StatusErr, nil); err != nil {
		return core.PlugStatus{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return core.PlugStatus{On: f.on}, nil
}

func (f *Fake) do(name string, err error, apply func()) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	hang := f.Hang
	f.mu.Unlock()

	if hang != nil {
		<-hang
	}
	if err != nil {
		return err
	}

	if apply != nil {
		f.mu.Lock()
		apply()
		f.mu.Unlock()
	}
	return nil
}

// Calls returns the recorded commands in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// IsOn reports the simulated plug state.
func (f *Fake) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Reset forgets recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
