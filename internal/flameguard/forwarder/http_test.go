package forwarder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
	"github.com/autopeer-io/flameguard/pkg/log"
	"github.com/autopeer-io/flameguard/pkg/options"
)

type received struct {
	path string
	body map[string]any
}

func newBackend(t *testing.T, status int) (*httptest.Server, <-chan received) {
	t.Helper()
	ch := make(chan received, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		ch <- received{path: r.URL.Path, body: body}

		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func newForwarder(endpoint string) *HTTP {
	return NewHTTP(&options.ForwarderOptions{
		Endpoint: endpoint + "/",
		BoxCode:  "AAs12",
		Timeout:  2 * time.Second,
	}, log.NewNopLogger())
}

func TestSendTemperature(t *testing.T) {
	srv, ch := newBackend(t, http.StatusOK)

	require.NoError(t, newForwarder(srv.URL).SendTemperature(context.Background(), 72.35))

	got := <-ch
	assert.Equal(t, "/sendtemperature", got.path)
	assert.Equal(t, map[string]any{"code": "AAs12", "temperature": 72.35}, got.body)
}

func TestSendFlameAlert(t *testing.T) {
	srv, ch := newBackend(t, http.StatusOK)

	require.NoError(t, newForwarder(srv.URL).SendFlameAlert(context.Background()))

	got := <-ch
	assert.Equal(t, "/flame", got.path)
	assert.Equal(t, map[string]any{"code": "AAs12", "alert": "flame_up"}, got.body)
}

func TestNon200IsAnError(t *testing.T) {
	srv, _ := newBackend(t, http.StatusCreated)

	err := newForwarder(srv.URL).SendFlameAlert(context.Background())
	require.ErrorIs(t, err, core.ErrForward)
	assert.Contains(t, err.Error(), "201")
	assert.Contains(t, err.Error(), "nope")
}

func TestUnreachableBackend(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	err := newForwarder(url).SendTemperature(context.Background(), 20)
	assert.ErrorIs(t, err, core.ErrForward)
}
