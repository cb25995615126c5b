package service

import (
	"context"

	"github.com/cardledger/cardledger/internal/models"
)

// RecordStore is the record data-access interface RecordService depends on.
type RecordStore interface {
	CreateRecord(ctx context.Context, req models.CreateRecordRequest) (*models.Record, error)
	GetBySlug(ctx context.Context, slug string) (*models.Record, error)
	List(ctx context.Context, kind string, limit, offset int) ([]*models.Record, error)
}

// LabelReader reads per-record labels and the shared catalog.
type LabelReader interface {
	ListForRecord(ctx context.Context, recordID int64) ([]string, error)
	Catalog(ctx context.Context) ([]models.Label, error)
}

// AttachmentReader reads attachment metadata and usage.
type AttachmentReader interface {
	ListForRecord(ctx context.Context, recordID int64) ([]models.Attachment, error)
	Usage(ctx context.Context, record *models.Record) (*models.RecordUsage, error)
}

// RecordDetail is a record with its labels, attachments, and quota report.
type RecordDetail struct {
	Record      *models.Record      `json:"record"`
	Labels      []string            `json:"labels"`
	Attachments []models.Attachment `json:"attachments"`
	Usage       models.RecordUsage  `json:"usage"`
}

// RecordService wraps record stores with privilege checks and detail
// assembly.
type RecordService struct {
	records      RecordStore
	labels       LabelReader
	attachments  AttachmentReader
	defaultQuota int64
}

// NewRecordService creates a RecordService. defaultQuota is the byte budget
// applied to records created without an explicit one.
func NewRecordService(records RecordStore, labels LabelReader, attachments AttachmentReader, defaultQuota int64) *RecordService {
	if defaultQuota <= 0 {
		defaultQuota = models.DefaultQuotaBytes
	}

	return &RecordService{records: records, labels: labels, attachments: attachments, defaultQuota: defaultQuota}
}

// Create validates and creates a record. Requires administrative privilege.
func (s *RecordService) Create(ctx context.Context, actor models.Actor, req models.CreateRecordRequest) (*models.Record, error) {
	if !actor.CanAdminister() {
		return nil, models.ErrPermission
	}

	if req.MaxBytes == 0 {
		req.MaxBytes = s.defaultQuota
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.records.CreateRecord(ctx, req)
}

// List returns records, optionally filtered by kind (pass-through).
func (s *RecordService) List(ctx context.Context, kind string, limit, offset int) ([]*models.Record, error) {
	return s.records.List(ctx, kind, limit, offset)
}

// Get assembles the full record detail by slug.
func (s *RecordService) Get(ctx context.Context, slug string) (*RecordDetail, error) {
	rec, err := s.records.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	labels, err := s.labels.ListForRecord(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachments.ListForRecord(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	usage, err := s.attachments.Usage(ctx, rec)
	if err != nil {
		return nil, err
	}

	return &RecordDetail{
		Record:      rec,
		Labels:      labels,
		Attachments: attachments,
		Usage:       *usage,
	}, nil
}

// LabelCatalog returns every known label (pass-through).
func (s *RecordService) LabelCatalog(ctx context.Context) ([]models.Label, error) {
	return s.labels.Catalog(ctx)
}
