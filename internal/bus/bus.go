// Package bus carries change notifications between sessions. Every mutation
// of the daily cycle or the shared pool publishes an event; the evaluation
// driver subscribes and re-runs the phase transition engine on each one.
package bus

import "context"

// Event kinds published on the cycle channel.
const (
	KindDecision   = "decision"
	KindNomination = "nomination"
	KindVote       = "vote"
	KindStatus     = "status"
	KindReset      = "reset"
	KindShare      = "share"
)

// ChangeEvent is one observed mutation of shared state. EventID is stamped
// by the publisher and lets subscribers deduplicate redelivered messages.
type ChangeEvent struct {
	EventID string `json:"event_id"`
	CycleID string `json:"cycle_id"`
	Kind    string `json:"kind"`
	UserID  string `json:"user_id,omitempty"`
}

// Bus publishes and subscribes to change events.
type Bus interface {
	// Publish broadcasts the event to every subscriber. Publish failures
	// are surfaced to the caller; the underlying write has already
	// committed by then, so callers log and move on.
	Publish(ctx context.Context, event ChangeEvent) error

	// Subscribe delivers events on the returned channel until the context
	// is cancelled. The channel is closed on teardown.
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}
