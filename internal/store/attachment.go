package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardledger/cardledger/internal/metrics"
	"github.com/cardledger/cardledger/internal/models"
)

const attachmentColumns = "id, record_id, storage_key, file_name, origin, mime_type, size_bytes, uploaded_by, created_at"

func scanAttachment(scan func(dest ...any) error) (*models.Attachment, error) {
	var a models.Attachment

	err := scan(
		&a.ID, &a.RecordID, &a.StorageKey, &a.FileName,
		&a.Origin, &a.MimeType, &a.SizeBytes, &a.UploadedBy, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

// AttachmentStore handles attachment metadata rows. The bytes themselves live
// in the object store; rows here only record keys and sizes.
type AttachmentStore struct {
	Base
}

// NewAttachmentStore creates a new AttachmentStore.
func NewAttachmentStore(base Base) *AttachmentStore {
	return &AttachmentStore{Base: base}
}

// UsedBytesTx sums a record's attachment sizes inside an open transaction.
// The caller must already hold the record's edit lock for the figure to stay
// accurate through the transaction.
func UsedBytesTx(ctx context.Context, tx pgx.Tx, recordID int64) (int64, error) {
	var used int64

	err := tx.QueryRow(ctx,
		"SELECT COALESCE(SUM(size_bytes), 0) FROM attachments WHERE record_id = $1",
		recordID,
	).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("summing attachment bytes: %w", err)
	}

	return used, nil
}

// ReserveTx checks that incoming bytes fit the record's budget given current
// usage. It performs no writes: the caller holds the record's edit lock, so
// the returned headroom stays valid until commit. The current usage is always
// returned, even for edits bringing no new bytes.
func ReserveTx(ctx context.Context, tx pgx.Tx, record *models.Record, incoming int64) (used int64, err error) {
	used, err = UsedBytesTx(ctx, tx, record.ID)
	if err != nil {
		return 0, err
	}

	if incoming <= 0 {
		return used, nil
	}

	if used+incoming > record.MaxBytes {
		metrics.QuotaRejections.Inc()

		return used, &models.QuotaExceededError{
			Used:      used,
			Incoming:  incoming,
			Available: record.MaxBytes - used,
			Limit:     record.MaxBytes,
		}
	}

	return used, nil
}

// AddTx inserts an attachment row inside an open transaction and returns it.
func AddTx(ctx context.Context, tx pgx.Tx, a models.Attachment) (*models.Attachment, error) {
	query := `INSERT INTO attachments (record_id, storage_key, file_name, origin, mime_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + attachmentColumns

	row := tx.QueryRow(ctx, query,
		a.RecordID, a.StorageKey, a.FileName, a.Origin, a.MimeType, a.SizeBytes, a.UploadedBy,
	)

	created, err := scanAttachment(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning created attachment: %w", err)
	}

	return created, nil
}

// DeleteTx removes the given attachment rows from a record inside an open
// transaction and returns the storage keys of the deleted rows so the caller
// can release the blobs after commit. Duplicate IDs count once; IDs belonging
// to other records are rejected.
func DeleteTx(ctx context.Context, tx pgx.Tx, recordID int64, ids []int64) (removedKeys []string, err error) {
	if len(ids) == 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{}, len(ids))
	unique := make([]int64, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	rows, err := tx.Query(ctx,
		"DELETE FROM attachments WHERE record_id = $1 AND id = ANY($2) RETURNING storage_key",
		recordID, unique,
	)
	if err != nil {
		return nil, fmt.Errorf("deleting attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning deleted attachment key: %w", err)
		}

		removedKeys = append(removedKeys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(removedKeys) != len(unique) {
		return nil, models.ErrAttachmentNotFound
	}

	return removedKeys, nil
}

// AttachmentsForRecordTx returns a record's attachments ordered by file
// name, inside an open transaction.
func AttachmentsForRecordTx(ctx context.Context, tx pgx.Tx, recordID int64) ([]models.Attachment, error) {
	rows, err := tx.Query(ctx,
		"SELECT "+attachmentColumns+" FROM attachments WHERE record_id = $1 ORDER BY file_name, storage_key",
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	defer rows.Close()

	return collectAttachments(rows)
}

// ListForRecord returns a record's attachments ordered by file name.
func (s *AttachmentStore) ListForRecord(ctx context.Context, recordID int64) ([]models.Attachment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		"SELECT "+attachmentColumns+" FROM attachments WHERE record_id = $1 ORDER BY file_name, storage_key",
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attachments: %w", err)
	}
	defer rows.Close()

	return collectAttachments(rows)
}

// Get returns a single attachment by ID.
func (s *AttachmentStore) Get(ctx context.Context, id int64) (*models.Attachment, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx, "SELECT "+attachmentColumns+" FROM attachments WHERE id = $1", id)

	a, err := scanAttachment(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrAttachmentNotFound
		}

		return nil, fmt.Errorf("scanning attachment: %w", err)
	}

	return a, nil
}

// Usage returns the quota report for a record.
func (s *AttachmentStore) Usage(ctx context.Context, record *models.Record) (*models.RecordUsage, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var used int64

	err := s.Pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(size_bytes), 0) FROM attachments WHERE record_id = $1",
		record.ID,
	).Scan(&used)
	if err != nil {
		return nil, fmt.Errorf("summing attachment bytes: %w", err)
	}

	usage := models.NewRecordUsage(used, record.MaxBytes)

	return &usage, nil
}

func collectAttachments(rows pgx.Rows) ([]models.Attachment, error) {
	var attachments []models.Attachment

	for rows.Next() {
		a, err := scanAttachment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}

		attachments = append(attachments, *a)
	}

	return attachments, rows.Err()
}
