package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardledger/cardledger/internal/models"
)

// LabelStore handles the shared label catalog and per-record label links.
type LabelStore struct {
	Base
}

// NewLabelStore creates a new LabelStore.
func NewLabelStore(base Base) *LabelStore {
	return &LabelStore{Base: base}
}

// SyncTx replaces a record's label set with exactly the given normalized
// labels. Existing links are dropped first, then each label is upserted into
// the shared catalog by its unique text and re-linked. Syncing the same set
// twice is a no-op; an empty set clears all links.
func SyncTx(ctx context.Context, tx pgx.Tx, recordID int64, labels []string) error {
	if _, err := tx.Exec(ctx, "DELETE FROM record_labels WHERE record_id = $1", recordID); err != nil {
		return fmt.Errorf("clearing record labels: %w", err)
	}

	for _, label := range labels {
		var labelID int64

		err := tx.QueryRow(ctx,
			`INSERT INTO labels (code, label) VALUES ($1, $2)
			 ON CONFLICT (label) DO UPDATE SET label = EXCLUDED.label
			 RETURNING id`,
			models.Slugify(label, label), label,
		).Scan(&labelID)
		if err != nil {
			return fmt.Errorf("upserting label %q: %w", label, err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO record_labels (record_id, label_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			recordID, labelID,
		)
		if err != nil {
			return fmt.Errorf("linking label %q: %w", label, err)
		}
	}

	return nil
}

// LabelsForRecordTx returns a record's labels ordered by text, inside an
// open transaction.
func LabelsForRecordTx(ctx context.Context, tx pgx.Tx, recordID int64) ([]string, error) {
	rows, err := tx.Query(ctx,
		`SELECT l.label FROM labels l
		 JOIN record_labels rl ON rl.label_id = l.id
		 WHERE rl.record_id = $1
		 ORDER BY l.label`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing record labels: %w", err)
	}
	defer rows.Close()

	return collectLabels(rows)
}

// ListForRecord returns a record's labels ordered by text.
func (s *LabelStore) ListForRecord(ctx context.Context, recordID int64) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT l.label FROM labels l
		 JOIN record_labels rl ON rl.label_id = l.id
		 WHERE rl.record_id = $1
		 ORDER BY l.label`,
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing record labels: %w", err)
	}
	defer rows.Close()

	return collectLabels(rows)
}

// Catalog returns every label in the shared catalog ordered by text.
func (s *LabelStore) Catalog(ctx context.Context) ([]models.Label, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, "SELECT id, code, label FROM labels ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("listing label catalog: %w", err)
	}
	defer rows.Close()

	var labels []models.Label

	for rows.Next() {
		var l models.Label
		if err := rows.Scan(&l.ID, &l.Code, &l.Label); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}

		labels = append(labels, l)
	}

	return labels, rows.Err()
}

func collectLabels(rows pgx.Rows) ([]string, error) {
	var labels []string

	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("scanning label: %w", err)
		}

		labels = append(labels, label)
	}

	return labels, rows.Err()
}
