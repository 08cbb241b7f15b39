package rental

import (
	"fmt"
	"slices"
	"strings"

	"github.com/autopeer-io/flameguard/internal/flameguard/core"
)

// NotificationKind tells a rental start from a rental end.
type NotificationKind string

const (
	NotificationStarted NotificationKind = "started"
	NotificationEnded   NotificationKind = "ended"
)

const startedToken = "rented"

var endedKeywords = []string{"end", "stop", "complete"}

// Notification is a parsed rental message.
type Notification struct {
	Kind  NotificationKind
	User  string
	BoxID string
}

// ParseNotification classifies a rental message body.
//
// A start looks like "<user> rented <box id...>"; the box id may contain
// spaces. Any body mentioning "end", "stop" or "complete" (case-insensitive)
// is an end. Starts are recognised first.
func ParseNotification(body string) (Notification, error) {
	tokens := strings.Fields(body)

	if slices.Contains(tokens, startedToken) {
		if len(tokens) < 3 || tokens[1] != startedToken {
			return Notification{}, fmt.Errorf("%w: rental start %q, expected '<user> rented <box>'", core.ErrMalformedPayload, body)
		}
		return Notification{
			Kind:  NotificationStarted,
			User:  tokens[0],
			BoxID: strings.Join(tokens[2:], " "),
		}, nil
	}

	lower := strings.ToLower(body)
	for _, kw := range endedKeywords {
		if strings.Contains(lower, kw) {
			return Notification{Kind: NotificationEnded}, nil
		}
	}

	return Notification{}, fmt.Errorf("%w: %q", core.ErrUnrecognizedNotification, body)
}
