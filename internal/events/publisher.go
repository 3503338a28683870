// Package events publishes availability domain events for downstream
// consumers (notification fan-out, analytics).
package events

import (
	"context"
	"time"
)

const (
	TypeSlotReserved    = "slot.reserved"
	TypeSlotReleased    = "slot.released"
	TypeBlackoutCreated = "blackout.created"
	TypeTemplateApplied = "template.applied"
)

// Event is the envelope written to the bus.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ArtistID   int64     `json:"artist_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.Events = append(r.Events, e)
	return nil
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	out := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}
