// Package forwarder pushes temperature averages and flame alerts to the
// backend over HTTP.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/internal/pkg/metrics"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

const (
	temperaturePath = "/sendtemperature"
	flamePath       = "/flame"

	// alertFlameUp is the alert value the backend expects for a flame.
	alertFlameUp = "flame_up"
)

type TemperaturePayload struct {
	Code        string  `json:"code"`
	Temperature float64 `json:"temperature"`
}

type FlamePayload struct {
	Code  string `json:"code"`
	Alert string `json:"alert"`
}

// HTTP is a core.Forwarder posting JSON records to the backend.
type HTTP struct {
	endpoint string
	code     string
	client   *http.Client
	logger   log.Logger
}

var _ core.Forwarder = (*HTTP)(nil)

// NewHTTP creates a forwarder from the options.
func NewHTTP(opts *options.ForwarderOptions, logger log.Logger) *HTTP {
	if logger == nil {
		logger = log.Std()
	}
	return &HTTP{
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		code:     opts.BoxCode,
		client:   &http.Client{Timeout: opts.Timeout},
		logger:   logger.WithName("forwarder"),
	}
}

func (f *HTTP) SendTemperature(ctx context.Context, value float64) error {
	err := f.post(ctx, temperaturePath, TemperaturePayload{Code: f.code, Temperature: value})
	observe("temperature", err)
	if err != nil {
		return err
	}
	f.logger.Info("Temperature sent", "temperature", value)
	return nil
}

func (f *HTTP) SendFlameAlert(ctx context.Context) error {
	err := f.post(ctx, flamePath, FlamePayload{Code: f.code, Alert: alertFlameUp})
	observe("flame", err)
	if err != nil {
		return err
	}
	f.logger.Info("Flame alert sent")
	return nil
}

func (f *HTTP) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", core.ErrForward, path, err)
	}

	url := f.endpoint + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build request: %w", core.ErrForward, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post %s: %w", core.ErrForward, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: post %s: status %s: %s", core.ErrForward, url, resp.Status, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func observe(kind string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.ForwardTotal.WithLabelValues(kind, status).Inc()
}
