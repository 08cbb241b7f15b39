package rental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    Notification
		wantErr error
	}{
		{
			name: "simple start",
			body: "alice rented BOX-7",
			want: Notification{Kind: NotificationStarted, User: "alice", BoxID: "BOX-7"},
		},
		{
			name: "box id with spaces",
			body: "  bob   rented  Locker 3  North ",
			want: Notification{Kind: NotificationStarted, User: "bob", BoxID: "Locker 3 North"},
		},
		{
			name:    "start without box",
			body:    "alice rented",
			wantErr: core.ErrMalformedPayload,
		},
		{
			name:    "rented in the wrong position",
			body:    "rented by alice",
			wantErr: core.ErrMalformedPayload,
		},
		{name: "end", body: "Rental END for alice", want: Notification{Kind: NotificationEnded}},
		{name: "stop", body: "stop", want: Notification{Kind: NotificationEnded}},
		{name: "completed", body: "Session Completed", want: Notification{Kind: NotificationEnded}},
		{
			name: "start wins over end keywords",
			body: "brendan rented box-1",
			want: Notification{Kind: NotificationStarted, User: "brendan", BoxID: "box-1"},
		},
		{name: "rentedx is not a start", body: "alice rentedx box", wantErr: core.ErrUnrecognizedNotification},
		{name: "unrelated", body: "hello", wantErr: core.ErrUnrecognizedNotification},
		{name: "empty", body: "", wantErr: core.ErrUnrecognizedNotification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNotification(tt.body)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
