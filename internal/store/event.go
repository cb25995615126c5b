package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardledger/cardledger/internal/models"
)

// EventStore reads the append-only proposal audit trail. Writes always happen
// through AppendEventTx inside the transaction that caused the transition.
type EventStore struct {
	Base
}

// NewEventStore creates a new EventStore.
func NewEventStore(base Base) *EventStore {
	return &EventStore{Base: base}
}

// AppendEventTx appends one audit trail entry inside an open transaction.
func AppendEventTx(ctx context.Context, tx pgx.Tx, e models.ChangeEvent) error {
	payload := e.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event payload: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO change_events (proposal_id, event_type, actor_id, notes, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ProposalID, e.EventType, e.ActorID, e.Notes, payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("appending %s event: %w", e.EventType, err)
	}

	return nil
}

// ListForProposal returns a proposal's events in audit order.
func (s *EventStore) ListForProposal(ctx context.Context, proposalID int64) ([]models.ChangeEvent, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT id, proposal_id, event_type, actor_id, notes, payload, created_at
		 FROM change_events WHERE proposal_id = $1 ORDER BY id`,
		proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing proposal events: %w", err)
	}
	defer rows.Close()

	var events []models.ChangeEvent

	for rows.Next() {
		var (
			e           models.ChangeEvent
			payloadJSON []byte
		)

		err := rows.Scan(&e.ID, &e.ProposalID, &e.EventType, &e.ActorID, &e.Notes, &payloadJSON, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		if len(payloadJSON) > 0 {
			if err := json.Unmarshal(payloadJSON, &e.Payload); err != nil {
				return nil, fmt.Errorf("decoding event payload: %w", err)
			}
		}

		events = append(events, e)
	}

	return events, rows.Err()
}
