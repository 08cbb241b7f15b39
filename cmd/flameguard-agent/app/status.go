package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/flameguard/internal/flameguard/server"
)

type statusOptions struct {
	addr    string
	timeout time.Duration
	json    bool
}

func newStatusCommand() *cobra.Command {
	o := &statusOptions{
		addr:    "http://127.0.0.1:9100",
		timeout: 5 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := fetchStatus(cmd.Context(), o.addr, o.timeout)
			if err != nil {
				return err
			}
			if o.json {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), statusTable(resp))
			return err
		},
	}

	cmd.Flags().StringVar(&o.addr, "server", o.addr, "Base URL of the agent's HTTP server.")
	cmd.Flags().DurationVar(&o.timeout, "timeout", o.timeout, "Request timeout.")
	cmd.Flags().BoolVar(&o.json, "json", o.json, "Print the raw JSON status.")

	return cmd
}

func fetchStatus(ctx context.Context, addr string, timeout time.Duration) (*server.StatusResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent returned %s: %s", resp.Status, string(body))
	}

	var status server.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &status, nil
}

func statusTable(s *server.StatusResponse) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 80

	table.AddRow("STATE:", string(s.State))
	table.AddRow("MQTT CONNECTED:", strconv.FormatBool(s.MQTTConnected))
	table.AddRow("POWER CUTOFF:", strconv.FormatBool(s.PowerCutoff))
	if s.Session != nil {
		table.AddRow("RENTAL:", fmt.Sprintf("%s on %s since %s", s.Session.User, s.Session.BoxID, s.Session.StartTime.Format(time.RFC3339)))
	} else {
		table.AddRow("RENTAL:", "-")
	}
	table.AddRow("BUFFERED TEMPERATURES:", strconv.Itoa(s.Aggregator.BufferedTemperatures))
	table.AddRow("FLAME WINDOW:", fmt.Sprintf("%d/%d positive", s.Aggregator.FlameWindowPositives, s.Aggregator.FlameWindowSize))
	table.AddRow("MESSAGES:", strconv.FormatUint(s.Processed, 10))
	if s.LastMessageAt != nil {
		table.AddRow("LAST MESSAGE:", s.LastMessageAt.Format(time.RFC3339))
	}
	if s.LastError != "" {
		table.AddRow("LAST ERROR:", fmt.Sprintf("[%s] %s", s.LastErrorKind, s.LastError))
	}

	return table
}
