package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cardledger/cardledger/internal/models"
)

func reviewerActor() models.Actor {
	return models.Actor{ID: 9, Email: "reviewer@example.org", Privileges: models.Privileges{BaseUser: true, Reviewer: true}}
}

func pendingProposal(id, proposerID int64) *models.ChangeProposal {
	return &models.ChangeProposal{ID: id, RecordID: 1, ProposerID: proposerID, Status: models.StatusPending}
}

func TestProposalService_ReviewRequiresPrivilege(t *testing.T) {
	svc := NewProposalService(&mockProposalLedger{}, &mockEventTrail{}, &mockIdentity{}, testLogger())

	_, err := svc.Review(context.Background(), baseActor(), 1, "accepted", "")
	if !errors.Is(err, models.ErrPermission) {
		t.Errorf("got %v, want ErrPermission", err)
	}
}

func TestProposalService_ReviewRejectsUnknownDecision(t *testing.T) {
	svc := NewProposalService(&mockProposalLedger{}, &mockEventTrail{}, &mockIdentity{}, testLogger())

	for _, decision := range []string{"pending", "approve", ""} {
		_, err := svc.Review(context.Background(), reviewerActor(), 1, decision, "")
		if !errors.Is(err, models.ErrInvalidDecision) {
			t.Errorf("decision %q: got %v, want ErrInvalidDecision", decision, err)
		}
	}
}

func TestProposalService_AcceptDoesNotTouchIdentity(t *testing.T) {
	identity := &mockIdentity{}
	ledger := &mockProposalLedger{
		transition: func(_ context.Context, id int64, to models.ProposalStatus, reviewerID int64, note string) (*models.ChangeProposal, error) {
			p := pendingProposal(id, 7)
			p.Status = to
			p.ReviewerID = &reviewerID
			p.ReviewNote = note

			return p, nil
		},
	}
	svc := NewProposalService(ledger, &mockEventTrail{}, identity, testLogger())

	p, err := svc.Review(context.Background(), reviewerActor(), 1, "accepted", "fine")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.StatusAccepted {
		t.Errorf("status = %s, want accepted", p.Status)
	}
	if len(identity.revoked) != 0 {
		t.Errorf("accept revoked privileges for %v", identity.revoked)
	}
}

func TestProposalService_ReportRevokesProposer(t *testing.T) {
	identity := &mockIdentity{}
	ledger := &mockProposalLedger{
		transition: func(_ context.Context, id int64, to models.ProposalStatus, reviewerID int64, note string) (*models.ChangeProposal, error) {
			p := pendingProposal(id, 42)
			p.Status = to

			return p, nil
		},
	}
	svc := NewProposalService(ledger, &mockEventTrail{}, identity, testLogger())

	if _, err := svc.Review(context.Background(), reviewerActor(), 1, "reported", "vandalism"); err != nil {
		t.Fatal(err)
	}

	if len(identity.revoked) != 1 || identity.revoked[0] != 42 {
		t.Errorf("revoked = %v, want [42]", identity.revoked)
	}
}

func TestProposalService_RevocationFailureDoesNotFailReview(t *testing.T) {
	identity := &mockIdentity{err: errors.New("identity provider down")}
	ledger := &mockProposalLedger{
		transition: func(_ context.Context, id int64, to models.ProposalStatus, _ int64, _ string) (*models.ChangeProposal, error) {
			p := pendingProposal(id, 42)
			p.Status = to

			return p, nil
		},
	}
	svc := NewProposalService(ledger, &mockEventTrail{}, identity, testLogger())

	p, err := svc.Review(context.Background(), reviewerActor(), 1, "reported", "")
	if err != nil {
		t.Fatalf("committed review surfaced revocation failure: %v", err)
	}
	if p.Status != models.StatusReported {
		t.Errorf("status = %s, want reported", p.Status)
	}
}

func TestProposalService_TransitionErrorPassesThrough(t *testing.T) {
	ledger := &mockProposalLedger{
		transition: func(_ context.Context, id int64, to models.ProposalStatus, _ int64, _ string) (*models.ChangeProposal, error) {
			return nil, &models.InvalidTransitionError{ProposalID: id, From: models.StatusAccepted, To: to}
		},
	}
	svc := NewProposalService(ledger, &mockEventTrail{}, &mockIdentity{}, testLogger())

	_, err := svc.Review(context.Background(), reviewerActor(), 1, "declined", "")

	var transErr *models.InvalidTransitionError
	if !errors.As(err, &transErr) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}
	if transErr.From != models.StatusAccepted || transErr.To != models.StatusDeclined {
		t.Errorf("transition error = %+v", transErr)
	}
}

func TestProposalService_EventsRequireExistingProposal(t *testing.T) {
	ledger := &mockProposalLedger{
		get: func(context.Context, int64) (*models.ChangeProposal, error) {
			return nil, models.ErrProposalNotFound
		},
	}
	svc := NewProposalService(ledger, &mockEventTrail{}, &mockIdentity{}, testLogger())

	_, err := svc.Events(context.Background(), 404)
	if !errors.Is(err, models.ErrProposalNotFound) {
		t.Errorf("got %v, want ErrProposalNotFound", err)
	}
}

func TestProposalService_EventsReturnTrail(t *testing.T) {
	trail := []models.ChangeEvent{
		{ID: 1, ProposalID: 1, EventType: models.EventSubmitted},
		{ID: 2, ProposalID: 1, EventType: models.EventAccepted},
	}
	ledger := &mockProposalLedger{
		get: func(_ context.Context, id int64) (*models.ChangeProposal, error) {
			return pendingProposal(id, 7), nil
		},
	}
	svc := NewProposalService(ledger, &mockEventTrail{events: trail}, &mockIdentity{}, testLogger())

	events, err := svc.Events(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].EventType != models.EventSubmitted {
		t.Errorf("unexpected trail: %+v", events)
	}
}
