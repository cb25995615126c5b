package models

import "time"

// Change event types, one per proposal transition.
const (
	EventSubmitted    = "submitted"
	EventAutoAccepted = "auto_accepted"
	EventAccepted     = "accepted"
	EventDeclined     = "declined"
	EventReported     = "reported"
)

// EventForDecision maps a review decision onto its event type.
func EventForDecision(decision ProposalStatus) string {
	switch decision {
	case StatusAccepted:
		return EventAccepted
	case StatusDeclined:
		return EventDeclined
	case StatusReported:
		return EventReported
	default:
		return EventSubmitted
	}
}

// ChangeEvent is one append-only audit trail entry for a proposal. Rows are
// never mutated or deleted; insert order within a transaction defines their
// audit order.
type ChangeEvent struct {
	ID         int64          `json:"id"`
	ProposalID int64          `json:"proposal_id"`
	EventType  string         `json:"event_type"`
	ActorID    *int64         `json:"actor_id,omitempty"`
	Notes      string         `json:"notes,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
