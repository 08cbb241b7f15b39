package actuator

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/flameguard/pkg/options"
)

// TestHelperProcess is not a real test; it stands in for the plug helper
// when re-executed by newTestHelper.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for len(args) > 0 && args[0] != "--" {
		args = args[1:]
	}
	if len(args) != 5 {
		fmt.Fprintln(os.Stderr, "usage: <action> <ip> <username> <password>")
		os.Exit(1)
	}

	action, address := args[1], args[2]
	switch address {
	case "unreachable":
		fmt.Fprintln(os.Stderr, "Error controlling smart plug: host unreachable")
		os.Exit(1)
	case "slow":
		time.Sleep(10 * time.Second)
	}

	switch action {
	case "on":
		fmt.Println("Smart plug turned ON. Current state: True")
	case "off":
		fmt.Println("Smart plug turned OFF. Current state: False")
	case "status":
		fmt.Println("Smart plug status: Power is ON")
		fmt.Println("Realtime data: {'current': 0.12, 'power': 9.8}")
	default:
		fmt.Printf("Unknown action: %s\n", action)
		os.Exit(1)
	}
	os.Exit(0)
}

func newTestHelper(t *testing.T, address string) *Helper {
	t.Setenv("GO_WANT_HELPER_PROCESS", "1")
	return NewHelper(&options.PlugOptions{
		Command:  []string{os.Args[0], "-test.run=TestHelperProcess", "--"},
		Address:  address,
		Username: "user",
		Password: "secret",
	})
}

func TestHelperCommands(t *testing.T) {
	h := newTestHelper(t, "10.0.0.9")
	ctx := context.Background()

	require.NoError(t, h.PowerOn(ctx))
	require.NoError(t, h.PowerOff(ctx))

	st, err := h.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.On)
	assert.Equal(t, "{'current': 0.12, 'power': 9.8}", st.Realtime)
}

func TestHelperFailureCarriesStderr(t *testing.T) {
	h := newTestHelper(t, "unreachable")

	err := h.PowerOff(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host unreachable")
}

func TestHelperHonoursContext(t *testing.T) {
	h := newTestHelper(t, "slow")

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := h.PowerOn(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHelperWithoutCommand(t *testing.T) {
	h := NewHelper(&options.PlugOptions{})
	assert.Error(t, h.PowerOn(context.Background()))
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		wantOn  bool
		wantErr bool
	}{
		{"on", "Smart plug status: Power is ON\n", true, false},
		{"off with meter", "Smart plug status: Power is OFF\nRealtime data: {}\n", false, false},
		{"garbage", "Unknown action: foo\n", false, true},
		{"empty", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := parseStatus(tt.out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOn, st.On)
		})
	}
}
