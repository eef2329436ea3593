// Package events routes fire-and-forget events to addressable rooms.
// Delivery is best effort: publishing never blocks the caller on
// acknowledgement, and receipts are only used for logging.
package events

import (
	"context"
	"time"
)

// AdminRoom is the shared dashboard room every admin client joins.
const AdminRoom = "admin:dashboard"

// UserRoom addresses a single user's room.
func UserRoom(userID string) string { return "user:" + userID }

// Event names emitted by the orchestration pipeline.
const (
	EventStatus         = "ai:status"
	EventStream         = "ai:stream"
	EventMessage        = "ai:message"
	EventAdmin          = "ai:adminEvent"
	EventRetry          = "ai:retry"
	EventActionComplete = "ai:actionComplete"
	EventActionError    = "ai:actionError"
	EventPartialUpdate  = "ai:partialUpdate"
	EventFinalUpdate    = "ai:finalUpdate"
	EventCartUpdated    = "cart:updated"
)

// Receipt reports the delivery attempt. Receivers is how many subscribers
// the transport saw at publish time; zero means the event went nowhere.
type Receipt struct {
	Room      string
	Event     string
	Receivers int64
	At        time.Time
}

// Sink publishes an event to a room. Implementations log delivery outcomes
// but must not retry or queue; ordering within one publisher is preserved.
type Sink interface {
	Publish(ctx context.Context, room, event string, payload any) (Receipt, error)
}
