// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/blobstore"
	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/store"
)

// EditApplier is the transactional edit pipeline EditService depends on.
type EditApplier interface {
	ApplyEdit(ctx context.Context, req store.ApplyEditRequest) (*store.EditResult, error)
}

// RecordGetter resolves records by slug.
type RecordGetter interface {
	GetBySlug(ctx context.Context, slug string) (*models.Record, error)
}

// SweepEnqueuer queues orphaned blobs for deletion retries.
type SweepEnqueuer interface {
	Enqueue(job SweepJob)
}

// EditRequest is one proposed edit as received from the edge, before
// normalization.
type EditRequest struct {
	Slug  string
	Scope string
	Note  string

	Name            string
	CoverKey        string
	ArticleMarkdown string
	Labels          []string

	Uploads             []models.UploadedFile
	Promotions          []models.PromoteFile
	DeleteAttachmentIDs []int64
}

// EditService validates edits, stages their blob uploads, and hands the
// assembled request to the transactional pipeline. Blob writes are tracked in
// a per-request ledger and compensated when the transaction fails.
type EditService struct {
	edits   EditApplier
	records RecordGetter
	objects blobstore.ObjectStore
	sweeper SweepEnqueuer
	log     *logrus.Logger

	mediaBucket   string
	stagingBucket string
}

// NewEditService creates an EditService.
func NewEditService(
	edits EditApplier,
	records RecordGetter,
	objects blobstore.ObjectStore,
	sweeper SweepEnqueuer,
	log *logrus.Logger,
	mediaBucket, stagingBucket string,
) *EditService {
	return &EditService{
		edits:         edits,
		records:       records,
		objects:       objects,
		sweeper:       sweeper,
		log:           log,
		mediaBucket:   mediaBucket,
		stagingBucket: stagingBucket,
	}
}

// Apply runs one edit end to end: privilege and scope checks, label
// normalization, storage key generation, tracked blob uploads, and the
// all-or-nothing metadata transaction. After a successful commit, blobs of
// deleted attachments are released best-effort.
func (s *EditService) Apply(ctx context.Context, actor models.Actor, req EditRequest) (*store.EditResult, error) {
	if !actor.CanSubmit() {
		return nil, models.ErrPermission
	}

	scope := models.NormalizeScope(req.Scope)

	cardChanges := len(req.Labels) > 0 || len(req.Uploads) > 0 || len(req.Promotions) > 0 || len(req.DeleteAttachmentIDs) > 0
	if cardChanges && !scope.IncludesCard() {
		return nil, models.ErrScopeMismatch
	}

	name := strings.TrimSpace(req.Name)
	if scope.IncludesCard() && name == "" {
		return nil, models.ErrMissingName
	}

	labels, err := models.NormalizeLabels(req.Labels)
	if err != nil {
		return nil, err
	}

	rec, err := s.records.GetBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}

	plan, err := s.planAttachments(ctx, rec, actor.ID, req)
	if err != nil {
		return nil, err
	}

	ledger := blobstore.NewLedger(s.objects, s.log, s.enqueueSweep)

	result, err := s.edits.ApplyEdit(ctx, store.ApplyEditRequest{
		Slug:                req.Slug,
		Scope:               scope,
		ProposerID:          actor.ID,
		AutoAccept:          actor.CanBypassReview(),
		Note:                req.Note,
		Name:                name,
		CoverKey:            req.CoverKey,
		ArticleMarkdown:     req.ArticleMarkdown,
		Labels:              labels,
		NewAttachments:      plan.attachments,
		DeleteAttachmentIDs: req.DeleteAttachmentIDs,
		IncomingBytes:       plan.incoming,
		Persist: func(ctx context.Context) error {
			return s.persistBlobs(ctx, ledger, plan)
		},
	})
	if err != nil {
		ledger.Rollback(ctx)

		return nil, err
	}

	s.releaseRemoved(ctx, result.RemovedKeys)

	return result, nil
}

// attachmentPlan pairs planned attachment rows with the blob sources backing
// their storage keys.
type attachmentPlan struct {
	attachments []models.Attachment
	incoming    int64
	uploadFor   map[string]models.UploadedFile
	promoteFor  map[string]models.PromoteFile
}

// planAttachments validates incoming files and assigns each its final
// storage key under the record's folder. Promotion sizes are read from the
// staged objects themselves so the quota charge matches the bytes actually
// copied.
func (s *EditService) planAttachments(ctx context.Context, rec *models.Record, uploaderID int64, req EditRequest) (*attachmentPlan, error) {
	plan := &attachmentPlan{
		uploadFor:  make(map[string]models.UploadedFile, len(req.Uploads)),
		promoteFor: make(map[string]models.PromoteFile, len(req.Promotions)),
	}

	for _, f := range req.Uploads {
		if err := f.Validate(); err != nil {
			return nil, err
		}

		key := storageKey(rec.FolderPrefix, f.OriginalName)
		plan.uploadFor[key] = f

		plan.attachments = append(plan.attachments, models.Attachment{
			RecordID:   rec.ID,
			StorageKey: key,
			FileName:   f.OriginalName,
			Origin:     f.Origin,
			MimeType:   mimeTypeFor(f.OriginalName),
			SizeBytes:  int64(len(f.Content)),
			UploadedBy: uploaderID,
		})
		plan.incoming += int64(len(f.Content))
	}

	for _, p := range req.Promotions {
		if err := p.Validate(); err != nil {
			return nil, err
		}

		info, err := s.objects.Attrs(ctx, s.stagingBucket, p.SourceKey)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return nil, models.ErrAttachmentNotFound
			}

			return nil, err
		}
		if info.Size == 0 {
			return nil, models.ErrEmptyUpload
		}

		key := storageKey(rec.FolderPrefix, p.FileName)
		plan.promoteFor[key] = p

		mimeType := p.MimeType
		if mimeType == "" {
			mimeType = info.ContentType
		}
		if mimeType == "" {
			mimeType = mimeTypeFor(p.FileName)
		}

		plan.attachments = append(plan.attachments, models.Attachment{
			RecordID:   rec.ID,
			StorageKey: key,
			FileName:   p.FileName,
			Origin:     p.Origin,
			MimeType:   mimeType,
			SizeBytes:  info.Size,
			UploadedBy: uploaderID,
		})
		plan.incoming += info.Size
	}

	return plan, nil
}

// persistBlobs writes every planned blob through the ledger, uploads from
// request content and promotions as tracked copies out of staging.
func (s *EditService) persistBlobs(ctx context.Context, ledger *blobstore.Ledger, plan *attachmentPlan) error {
	for _, a := range plan.attachments {
		if f, ok := plan.uploadFor[a.StorageKey]; ok {
			if err := ledger.Put(ctx, s.mediaBucket, a.StorageKey, f.Content, a.MimeType); err != nil {
				return err
			}

			continue
		}

		p := plan.promoteFor[a.StorageKey]
		if err := ledger.Copy(ctx, s.stagingBucket, p.SourceKey, s.mediaBucket, a.StorageKey); err != nil {
			return err
		}
	}

	return nil
}

// releaseRemoved deletes blobs whose metadata rows were removed by a
// committed edit. Failures go to the sweeper.
func (s *EditService) releaseRemoved(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.objects.Delete(ctx, s.mediaBucket, key); err != nil {
			s.log.WithError(err).WithField("key", key).Warn("releasing removed attachment failed")
			s.enqueueSweep(s.mediaBucket, key)
		}
	}
}

func (s *EditService) enqueueSweep(bucket, key string) {
	if s.sweeper != nil {
		s.sweeper.Enqueue(SweepJob{Bucket: bucket, Key: key})
	}
}

// storageKey builds a collision-free object key under the record's folder.
func storageKey(folderPrefix, fileName string) string {
	return fmt.Sprintf("%s/%s-%s", folderPrefix, uuid.New().String()[:8], sanitizeFileName(fileName))
}

// sanitizeFileName keeps object keys portable: path separators and control
// characters collapse to dashes, the extension survives.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" {
		return "file"
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	if b.Len() == 0 {
		return "file"
	}

	return b.String()
}

func mimeTypeFor(fileName string) string {
	if t := mime.TypeByExtension(filepath.Ext(fileName)); t != "" {
		return t
	}

	return "application/octet-stream"
}
