package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardledger/cardledger/internal/models"
)

const proposalColumns = `id, record_id, record_slug, scope, proposer_id, base_payload, proposed_payload,
	note, status, reviewer_id, review_note, created_at, reviewed_at`

func scanProposal(scan func(dest ...any) error) (*models.ChangeProposal, error) {
	var p models.ChangeProposal

	err := scan(
		&p.ID, &p.RecordID, &p.RecordSlug, &p.Scope, &p.ProposerID,
		&p.BasePayload, &p.ProposedPayload, &p.Note, &p.Status,
		&p.ReviewerID, &p.ReviewNote, &p.CreatedAt, &p.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ProposalStore handles the change proposal ledger.
type ProposalStore struct {
	Base
}

// NewProposalStore creates a new ProposalStore.
func NewProposalStore(base Base) *ProposalStore {
	return &ProposalStore{Base: base}
}

// SubmitTx inserts a pending proposal and its submitted event inside an open
// transaction.
func SubmitTx(ctx context.Context, tx pgx.Tx, p models.ChangeProposal) (*models.ChangeProposal, error) {
	query := `INSERT INTO change_proposals
		(record_id, record_slug, scope, proposer_id, base_payload, proposed_payload, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + proposalColumns

	row := tx.QueryRow(ctx, query,
		p.RecordID, p.RecordSlug, p.Scope, p.ProposerID, p.BasePayload, p.ProposedPayload, p.Note,
	)

	created, err := scanProposal(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning created proposal: %w", err)
	}

	err = AppendEventTx(ctx, tx, models.ChangeEvent{
		ProposalID: created.ID,
		EventType:  models.EventSubmitted,
		ActorID:    &p.ProposerID,
		Notes:      p.Note,
		Payload: map[string]any{
			"slug":  p.RecordSlug,
			"scope": string(p.Scope),
		},
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// AutoAcceptTx marks a freshly submitted proposal accepted in the same
// transaction, with the proposer as reviewer, and appends the auto_accepted
// event after the submitted one.
func AutoAcceptTx(ctx context.Context, tx pgx.Tx, p *models.ChangeProposal) error {
	tag, err := tx.Exec(ctx,
		`UPDATE change_proposals
		 SET status = $1, reviewer_id = $2, reviewed_at = now()
		 WHERE id = $3 AND status = $4`,
		models.StatusAccepted, p.ProposerID, p.ID, models.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("auto-accepting proposal: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrProposalNotFound
	}

	return AppendEventTx(ctx, tx, models.ChangeEvent{
		ProposalID: p.ID,
		EventType:  models.EventAutoAccepted,
		ActorID:    &p.ProposerID,
		Notes:      "auto-accepted on submit via editor privilege",
		Payload: map[string]any{
			"slug":          p.RecordSlug,
			"scope":         string(p.Scope),
			"auto_accepted": true,
		},
	})
}

// Get returns a proposal by ID.
func (s *ProposalStore) Get(ctx context.Context, id int64) (*models.ChangeProposal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+proposalColumns+" FROM change_proposals WHERE id = $1", id)

	p, err := scanProposal(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProposalNotFound
		}

		return nil, fmt.Errorf("scanning proposal: %w", err)
	}

	return p, nil
}

// Transition moves a pending proposal to the given terminal state, recording
// reviewer and note, and appends the matching event. The current row is
// locked first so concurrent reviews race on the lock, not the state: the
// loser observes a terminal status and gets InvalidTransitionError.
func (s *ProposalStore) Transition(
	ctx context.Context,
	proposalID int64,
	to models.ProposalStatus,
	reviewerID int64,
	reviewNote string,
) (*models.ChangeProposal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if !to.Terminal() {
		return nil, models.ErrInvalidDecision
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("transitioning proposal: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var current models.ProposalStatus

	err = tx.QueryRow(ctx,
		"SELECT status FROM change_proposals WHERE id = $1 FOR UPDATE",
		proposalID,
	).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProposalNotFound
		}

		return nil, fmt.Errorf("locking proposal: %w", err)
	}

	if current != models.StatusPending {
		return nil, &models.InvalidTransitionError{ProposalID: proposalID, From: current, To: to}
	}

	row := tx.QueryRow(ctx,
		`UPDATE change_proposals
		 SET status = $1, reviewer_id = $2, review_note = $3, reviewed_at = now()
		 WHERE id = $4
		 RETURNING `+proposalColumns,
		to, reviewerID, reviewNote, proposalID,
	)

	p, err := scanProposal(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning transitioned proposal: %w", err)
	}

	err = AppendEventTx(ctx, tx, models.ChangeEvent{
		ProposalID: proposalID,
		EventType:  models.EventForDecision(to),
		ActorID:    &reviewerID,
		Notes:      reviewNote,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing proposal transition: %w", err)
	}

	return p, nil
}

// ListForRecord returns a record's proposals, newest first.
func (s *ProposalStore) ListForRecord(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+proposalColumns+" FROM change_proposals WHERE record_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		recordID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing record proposals: %w", err)
	}
	defer rows.Close()

	return collectProposals(rows)
}

// ListPending returns the review queue, oldest first, optionally filtered to
// record slugs matching the filter substring. hasMore reports whether another
// page exists past limit.
func (s *ProposalStore) ListPending(ctx context.Context, slugFilter string, limit, offset int) (proposals []*models.ChangeProposal, hasMore bool, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + proposalColumns + " FROM change_proposals WHERE status = $1"
	args := []any{models.StatusPending}

	if slugFilter != "" {
		query += fmt.Sprintf(" AND record_slug LIKE $%d", len(args)+1)
		args = append(args, "%"+slugFilter+"%")
	}

	// Fetch one extra row to detect a following page.
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit+1, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("listing pending proposals: %w", err)
	}
	defer rows.Close()

	proposals, err = collectProposals(rows)
	if err != nil {
		return nil, false, err
	}

	if len(proposals) > limit {
		return proposals[:limit], true, nil
	}

	return proposals, false, nil
}

// CountPending returns the number of proposals awaiting review.
func (s *ProposalStore) CountPending(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int64

	err := s.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM change_proposals WHERE status = $1",
		models.StatusPending,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting pending proposals: %w", err)
	}

	return count, nil
}

func collectProposals(rows pgx.Rows) ([]*models.ChangeProposal, error) {
	var proposals []*models.ChangeProposal

	for rows.Next() {
		p, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning proposal row: %w", err)
		}

		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}
