package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cardledger/cardledger/internal/models"
)

const recordColumns = "id, slug, kind, name, article_markdown, cover_key, folder_prefix, max_bytes, created_at, updated_at"

func scanRecord(scan func(dest ...any) error) (*models.Record, error) {
	var r models.Record

	err := scan(
		&r.ID, &r.Slug, &r.Kind, &r.Name, &r.ArticleMarkdown,
		&r.CoverKey, &r.FolderPrefix, &r.MaxBytes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// RecordStore handles catalog record CRUD operations. folderPrefix roots the
// object-store key space for new records.
type RecordStore struct {
	Base
	folderPrefix string
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(base Base, folderPrefix string) *RecordStore {
	if folderPrefix == "" {
		folderPrefix = "records"
	}

	return &RecordStore{Base: base, folderPrefix: folderPrefix}
}

// CreateRecord inserts a new record and returns the created row.
func (s *RecordStore) CreateRecord(ctx context.Context, req models.CreateRecordRequest) (*models.Record, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO records (slug, kind, name, folder_prefix, max_bytes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + recordColumns

	folderPrefix := s.folderPrefix + "/" + req.Slug

	row := s.Pool.QueryRow(ctx, query, req.Slug, req.Kind, req.Name, folderPrefix, req.MaxBytes)

	r, err := scanRecord(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("scanning created record: %w", err)
	}

	return r, nil
}

// GetBySlug returns the record with the given slug.
func (s *RecordStore) GetBySlug(ctx context.Context, slug string) (*models.Record, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE slug = $1", slug)

	r, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRecordNotFound
		}

		return nil, fmt.Errorf("scanning record: %w", err)
	}

	return r, nil
}

// List returns records ordered by name, optionally filtered by kind.
func (s *RecordStore) List(ctx context.Context, kind string, limit, offset int) ([]*models.Record, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := "SELECT " + recordColumns + " FROM records"
	args := []any{}

	if kind != "" {
		query += " WHERE kind = $1"
		args = append(args, kind)
	}

	query += fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record

	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning record row: %w", err)
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// LockForEditTx loads the record by slug with an exclusive row lock.
// Concurrent edits to the same record serialize on this lock until the
// surrounding transaction commits or rolls back.
func LockForEditTx(ctx context.Context, tx pgx.Tx, slug string) (*models.Record, error) {
	row := tx.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE slug = $1 FOR UPDATE", slug)

	r, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRecordNotFound
		}

		return nil, fmt.Errorf("locking record: %w", err)
	}

	return r, nil
}

// UpdateFieldsTx writes the editable record fields inside an open transaction.
func UpdateFieldsTx(ctx context.Context, tx pgx.Tx, recordID int64, name, articleMarkdown, coverKey string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE records SET name = $1, article_markdown = $2, cover_key = $3, updated_at = now() WHERE id = $4`,
		name, articleMarkdown, coverKey, recordID,
	)
	if err != nil {
		return fmt.Errorf("updating record fields: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrRecordNotFound
	}

	return nil
}
