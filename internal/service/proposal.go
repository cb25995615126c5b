package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/metrics"
	"github.com/cardledger/cardledger/internal/models"
)

// ProposalLedger is the proposal data-access interface ProposalService
// depends on.
type ProposalLedger interface {
	Get(ctx context.Context, id int64) (*models.ChangeProposal, error)
	Transition(ctx context.Context, proposalID int64, to models.ProposalStatus, reviewerID int64, reviewNote string) (*models.ChangeProposal, error)
	ListForRecord(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error)
	ListPending(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error)
	CountPending(ctx context.Context) (int64, error)
}

// EventTrail reads proposal audit trails.
type EventTrail interface {
	ListForProposal(ctx context.Context, proposalID int64) ([]models.ChangeEvent, error)
}

// IdentityProvider mutates contributor privileges.
type IdentityProvider interface {
	RevokeBase(ctx context.Context, userID int64) error
}

// ProposalService wraps the proposal ledger with review business logic.
type ProposalService struct {
	proposals ProposalLedger
	events    EventTrail
	identity  IdentityProvider
	log       *logrus.Logger
}

// NewProposalService creates a ProposalService.
func NewProposalService(proposals ProposalLedger, events EventTrail, identity IdentityProvider, log *logrus.Logger) *ProposalService {
	return &ProposalService{proposals: proposals, events: events, identity: identity, log: log}
}

// Review resolves a pending proposal with the given decision. Reporting a
// proposal additionally revokes the proposer's contribution privilege; that
// revocation is best-effort once the review itself has committed.
func (s *ProposalService) Review(
	ctx context.Context,
	actor models.Actor,
	proposalID int64,
	decision, note string,
) (*models.ChangeProposal, error) {
	if !actor.CanReview() {
		return nil, models.ErrPermission
	}

	to, err := models.ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	p, err := s.proposals.Transition(ctx, proposalID, to, actor.ID, note)
	if err != nil {
		return nil, err
	}

	if to == models.StatusReported {
		if err := s.identity.RevokeBase(ctx, p.ProposerID); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"proposal_id": proposalID,
				"proposer_id": p.ProposerID,
			}).Error("revoking proposer privilege failed")
		}
	}

	s.refreshPendingGauge(ctx)

	return p, nil
}

// Get returns a proposal by ID (pass-through).
func (s *ProposalService) Get(ctx context.Context, id int64) (*models.ChangeProposal, error) {
	return s.proposals.Get(ctx, id)
}

// ListForRecord returns a record's proposals, newest first (pass-through).
func (s *ProposalService) ListForRecord(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error) {
	return s.proposals.ListForRecord(ctx, recordID, limit, offset)
}

// ListPending returns the review queue (pass-through).
func (s *ProposalService) ListPending(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error) {
	return s.proposals.ListPending(ctx, slugFilter, limit, offset)
}

// Events returns a proposal's audit trail, confirming it exists first.
func (s *ProposalService) Events(ctx context.Context, proposalID int64) ([]models.ChangeEvent, error) {
	if _, err := s.proposals.Get(ctx, proposalID); err != nil {
		return nil, err
	}

	return s.events.ListForProposal(ctx, proposalID)
}

func (s *ProposalService) refreshPendingGauge(ctx context.Context) {
	count, err := s.proposals.CountPending(ctx)
	if err != nil {
		s.log.WithError(err).Debug("refreshing pending proposal gauge failed")

		return
	}

	metrics.PendingProposals.Set(float64(count))
}
