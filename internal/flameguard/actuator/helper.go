package actuator

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/options"
)

// Helper drives the smart plug through an external helper program invoked as
//
//	<command...> <on|off|status> <address> <username> <password>
//
// The helper exits 0 on success. For "status" it prints "Power is ON" or
// "Power is OFF", optionally followed by a "Realtime data:" line.
type Helper struct {
	command  []string
	address  string
	username string
	password string
}

var _ core.Actuator = (*Helper)(nil)

// NewHelper creates a Helper from the plug options.
func NewHelper(opts *options.PlugOptions) *Helper {
	return &Helper{
		command:  append([]string(nil), opts.Command...),
		address:  opts.Address,
		username: opts.Username,
		password: opts.Password,
	}
}

func (h *Helper) PowerOn(ctx context.Context) error {
	_, err := h.run(ctx, "on")
	return err
}

func (h *Helper) PowerOff(ctx context.Context) error {
	_, err := h.run(ctx, "off")
	return err
}

func (h *Helper) Status(ctx context.Context) (core.PlugStatus, error) {
	out, err := h.run(ctx, "status")
	if err != nil {
		return core.PlugStatus{}, err
	}
	return parseStatus(out)
}

func (h *Helper) run(ctx context.Context, action string) (string, error) {
	if len(h.command) == 0 {
		return "", fmt.Errorf("plug helper command is not configured")
	}

	args := append(append([]string(nil), h.command[1:]...), action, h.address, h.username, h.password)
	cmd := exec.CommandContext(ctx, h.command[0], args...)
	// Do not wait forever for grandchildren holding the pipes after a kill.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("plug helper %q: %w", action, ctx.Err())
		}
		return "", fmt.Errorf("plug helper %q: %w: %s", action, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func parseStatus(out string) (core.PlugStatus, error) {
	var (
		st    core.PlugStatus
		found bool
	)

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.Contains(line, "Power is ON"):
			st.On, found = true, true
		case strings.Contains(line, "Power is OFF"):
			st.On, found = false, true
		case strings.HasPrefix(line, "Realtime data:"):
			st.Realtime = strings.TrimSpace(strings.TrimPrefix(line, "Realtime data:"))
		}
	}

	if !found {
		return core.PlugStatus{}, fmt.Errorf("unrecognized plug status output %q", strings.TrimSpace(out))
	}
	return st, nil
}
