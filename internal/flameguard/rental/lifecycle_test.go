package rental

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/flameguard/internal/flameguard/actuator"
	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

type counter struct{ n int }

func (c *counter) Reset() { c.n++ }

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newManager(policy string) (*Manager, *actuator.Fake, *counter) {
	fake := actuator.NewFake()
	resets := &counter{}
	m := NewManager(Config{
		Actuator:  fake,
		Resetters: []Resetter{resets},
		Policy:    policy,
		Clock:     clocktesting.NewFakePassiveClock(epoch),
		Logger:    log.NewNopLogger(),
	})
	return m, fake, resets
}

func TestStartActivatesAfterPowerOn(t *testing.T) {
	m, fake, resets := newManager("")
	assert.Equal(t, core.StateInactive, m.State())

	require.NoError(t, m.Start(context.Background(), "alice", "BOX-7"))

	assert.Equal(t, core.StateActive, m.State())
	assert.Equal(t, []string{"on"}, fake.Calls())
	assert.Equal(t, 1, resets.n)

	s := m.Session()
	require.NotNil(t, s)
	assert.Equal(t, "alice", s.User)
	assert.Equal(t, "BOX-7", s.BoxID)
	assert.Equal(t, epoch, s.StartTime)
	assert.NotEmpty(t, s.ID)
}

func TestStartStaysInactiveWhenPowerOnFails(t *testing.T) {
	m, fake, _ := newManager("")
	boom := errors.New("plug offline")
	fake.PowerOnErr = boom

	err := m.Start(context.Background(), "alice", "BOX-7")
	require.ErrorIs(t, err, boom)

	assert.Equal(t, core.StateInactive, m.State())
	assert.Nil(t, m.Session())
}

func TestEndIsBestEffort(t *testing.T) {
	m, fake, resets := newManager("")
	ctx := context.Background()
	require.NoError(t, m.Start(ctx, "alice", "BOX-7"))

	fake.PowerOffErr = errors.New("plug offline")
	require.NoError(t, m.End(ctx, "rental ended"))

	assert.Equal(t, core.StateInactive, m.State())
	assert.Nil(t, m.Session())
	assert.Equal(t, []string{"on", "off"}, fake.Calls())
	assert.Equal(t, 2, resets.n)
}

func TestEndWhileInactiveIsNoop(t *testing.T) {
	m, fake, resets := newManager("")

	require.NoError(t, m.End(context.Background(), "stop"))
	assert.Empty(t, fake.Calls())
	assert.Zero(t, resets.n)
}

func TestSecondStartReplacesSession(t *testing.T) {
	m, fake, resets := newManager(options.RentalPolicyReplace)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "alice", "BOX-7"))
	first := m.Session().ID
	require.NoError(t, m.Start(ctx, "bob", "BOX-7"))

	assert.Equal(t, core.StateActive, m.State())
	assert.Equal(t, "bob", m.Session().User)
	assert.NotEqual(t, first, m.Session().ID)
	assert.Equal(t, []string{"on", "on"}, fake.Calls())
	assert.Equal(t, 2, resets.n)
}

func TestFailedReplacementDeactivates(t *testing.T) {
	m, fake, _ := newManager(options.RentalPolicyReplace)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "alice", "BOX-7"))
	fake.PowerOnErr = errors.New("plug offline")

	require.Error(t, m.Start(ctx, "bob", "BOX-7"))
	assert.Equal(t, core.StateInactive, m.State())
	assert.Nil(t, m.Session())
	assert.Equal(t, []string{"on", "on", "off"}, fake.Calls())
}

func TestSecondStartRejected(t *testing.T) {
	m, fake, resets := newManager(options.RentalPolicyReject)
	ctx := context.Background()

	require.NoError(t, m.Start(ctx, "alice", "BOX-7"))
	err := m.Start(ctx, "bob", "BOX-8")

	require.ErrorIs(t, err, core.ErrRentalActive)
	assert.Equal(t, "alice", m.Session().User)
	assert.Equal(t, []string{"on"}, fake.Calls())
	assert.Equal(t, 1, resets.n)
}

func TestHandleNotification(t *testing.T) {
	m, _, _ := newManager("")
	ctx := context.Background()

	n, err := ParseNotification("carol rented Box 12")
	require.NoError(t, err)
	require.NoError(t, m.Handle(ctx, n))
	assert.Equal(t, "Box 12", m.Session().BoxID)

	n, err = ParseNotification("rental completed")
	require.NoError(t, err)
	require.NoError(t, m.Handle(ctx, n))
	assert.Equal(t, core.StateInactive, m.State())

	assert.ErrorIs(t, m.Handle(ctx, Notification{}), core.ErrUnrecognizedNotification)
}

func TestSessionIsACopy(t *testing.T) {
	m, _, _ := newManager("")
	require.NoError(t, m.Start(context.Background(), "alice", "BOX-7"))

	s := m.Session()
	s.User = "mallory"
	assert.Equal(t, "alice", m.Session().User)
}
