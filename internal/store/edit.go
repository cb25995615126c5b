package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/snapshot"
)

// Edits upload blobs mid-transaction, so they get more headroom than the
// default query timeout.
const editTimeout = 5 * time.Minute

// ApplyEditRequest carries one fully validated edit. Labels are normalized,
// attachment rows carry their final storage keys, and Persist uploads the
// blobs for those keys. Values outside the scope are ignored.
type ApplyEditRequest struct {
	Slug       string
	Scope      models.Scope
	ProposerID int64
	AutoAccept bool
	Note       string

	Name            string
	CoverKey        string
	ArticleMarkdown string
	Labels          []string

	NewAttachments      []models.Attachment
	DeleteAttachmentIDs []int64
	IncomingBytes       int64

	// Persist runs inside the transaction, after the quota check and before
	// any metadata rows are written. It uploads the new blobs; on error the
	// whole edit rolls back and the caller compensates the uploads.
	Persist func(ctx context.Context) error
}

// EditResult reports what an edit did.
type EditResult struct {
	ProposalID   int64
	NoOp         bool
	AutoAccepted bool

	// RemovedKeys are storage keys whose rows were deleted; the blobs are
	// still present and must be released after commit.
	RemovedKeys []string

	UsedBytes int64
}

// EditStore applies whole edits: it composes the record, label, attachment,
// proposal, and event writes into one transaction under the record's
// exclusive edit lock.
type EditStore struct {
	Base
}

// NewEditStore creates a new EditStore.
func NewEditStore(base Base) *EditStore {
	return &EditStore{Base: base}
}

// ApplyEdit runs the full edit pipeline. It locks the record, canonicalizes
// the current and proposed states, and returns a NoOp result without
// persisting anything when they are byte-identical. Otherwise it deletes and
// adds attachments under the quota check, syncs labels, updates the record
// fields, and files the change proposal with its audit events, all or
// nothing.
func (s *EditStore) ApplyEdit(ctx context.Context, req ApplyEditRequest) (*EditResult, error) {
	ctx, cancel := context.WithTimeout(ctx, editTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("applying edit: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rec, err := LockForEditTx(ctx, tx, req.Slug)
	if err != nil {
		return nil, err
	}

	currentLabels, err := LabelsForRecordTx(ctx, tx, rec.ID)
	if err != nil {
		return nil, err
	}

	currentAtts, err := AttachmentsForRecordTx(ctx, tx, rec.ID)
	if err != nil {
		return nil, err
	}

	base := snapshot.ForScope(req.Scope, snapshot.Input{
		Record:      *rec,
		Labels:      currentLabels,
		Attachments: currentAtts,
	})

	proposedRec, proposedLabels, proposedAtts := s.propose(rec, currentLabels, currentAtts, req)

	proposed := snapshot.ForScope(req.Scope, snapshot.Input{
		Record:      proposedRec,
		Labels:      proposedLabels,
		Attachments: proposedAtts,
	})

	if snapshot.Equal(base, proposed) {
		return &EditResult{NoOp: true}, nil
	}

	removedKeys, err := DeleteTx(ctx, tx, rec.ID, req.DeleteAttachmentIDs)
	if err != nil {
		return nil, err
	}

	used, err := ReserveTx(ctx, tx, rec, req.IncomingBytes)
	if err != nil {
		return nil, err
	}

	if req.Persist != nil {
		if err := req.Persist(ctx); err != nil {
			return nil, err
		}
	}

	for _, a := range req.NewAttachments {
		a.RecordID = rec.ID
		if a.UploadedBy == 0 {
			a.UploadedBy = req.ProposerID
		}
		if _, err := AddTx(ctx, tx, a); err != nil {
			return nil, err
		}
	}

	if req.Scope.IncludesCard() {
		if err := SyncTx(ctx, tx, rec.ID, proposedLabels); err != nil {
			return nil, err
		}
	}

	err = UpdateFieldsTx(ctx, tx, rec.ID, proposedRec.Name, proposedRec.ArticleMarkdown, proposedRec.CoverKey)
	if err != nil {
		return nil, err
	}

	p, err := SubmitTx(ctx, tx, models.ChangeProposal{
		RecordID:        rec.ID,
		RecordSlug:      rec.Slug,
		Scope:           req.Scope,
		ProposerID:      req.ProposerID,
		BasePayload:     base,
		ProposedPayload: proposed,
		Note:            req.Note,
	})
	if err != nil {
		return nil, err
	}

	if req.AutoAccept {
		if err := AutoAcceptTx(ctx, tx, p); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing edit: %w", err)
	}

	s.Log.WithFields(logrus.Fields{
		"slug":        req.Slug,
		"proposal_id": p.ID,
		"scope":       req.Scope,
		"auto_accept": req.AutoAccept,
	}).Info("edit applied")

	return &EditResult{
		ProposalID:   p.ID,
		AutoAccepted: req.AutoAccept,
		RemovedKeys:  removedKeys,
		UsedBytes:    used + req.IncomingBytes,
	}, nil
}

// propose builds the post-edit record state from the current state and the
// request, honoring the scope.
func (s *EditStore) propose(
	rec *models.Record,
	currentLabels []string,
	currentAtts []models.Attachment,
	req ApplyEditRequest,
) (models.Record, []string, []models.Attachment) {
	proposedRec := *rec
	proposedLabels := currentLabels
	proposedAtts := currentAtts

	if req.Scope.IncludesCard() {
		proposedRec.Name = req.Name
		proposedRec.CoverKey = req.CoverKey
		proposedLabels = req.Labels

		deleted := make(map[int64]struct{}, len(req.DeleteAttachmentIDs))
		for _, id := range req.DeleteAttachmentIDs {
			deleted[id] = struct{}{}
		}

		proposedAtts = make([]models.Attachment, 0, len(currentAtts)+len(req.NewAttachments))
		for _, a := range currentAtts {
			if _, ok := deleted[a.ID]; !ok {
				proposedAtts = append(proposedAtts, a)
			}
		}

		for _, a := range req.NewAttachments {
			a.RecordID = rec.ID
			proposedAtts = append(proposedAtts, a)
		}
	}

	if req.Scope.IncludesArticle() {
		proposedRec.ArticleMarkdown = snapshot.Article(req.ArticleMarkdown)
	}

	return proposedRec, proposedLabels, proposedAtts
}
