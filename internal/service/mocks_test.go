package service

import (
	"context"
	"sync"

	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/store"
)

// mockEditApplier records calls and returns configured responses.
type mockEditApplier struct {
	mu    sync.Mutex
	calls []store.ApplyEditRequest

	applyEdit func(ctx context.Context, req store.ApplyEditRequest) (*store.EditResult, error)
}

func (m *mockEditApplier) ApplyEdit(ctx context.Context, req store.ApplyEditRequest) (*store.EditResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	return m.applyEdit(ctx, req)
}

// mockRecordGetter resolves slugs from a fixed map.
type mockRecordGetter struct {
	records map[string]*models.Record
}

func (m *mockRecordGetter) GetBySlug(_ context.Context, slug string) (*models.Record, error) {
	if rec, ok := m.records[slug]; ok {
		return rec, nil
	}

	return nil, models.ErrRecordNotFound
}

// mockProposalLedger records calls and returns configured responses.
type mockProposalLedger struct {
	mu    sync.Mutex
	calls []string

	get          func(ctx context.Context, id int64) (*models.ChangeProposal, error)
	transition   func(ctx context.Context, proposalID int64, to models.ProposalStatus, reviewerID int64, reviewNote string) (*models.ChangeProposal, error)
	listPending  func(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error)
	listForRec   func(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error)
	countPending func(ctx context.Context) (int64, error)
}

func (m *mockProposalLedger) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockProposalLedger) Get(ctx context.Context, id int64) (*models.ChangeProposal, error) {
	m.record("Get")
	return m.get(ctx, id)
}

func (m *mockProposalLedger) Transition(ctx context.Context, proposalID int64, to models.ProposalStatus, reviewerID int64, reviewNote string) (*models.ChangeProposal, error) {
	m.record("Transition")
	return m.transition(ctx, proposalID, to, reviewerID, reviewNote)
}

func (m *mockProposalLedger) ListForRecord(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error) {
	m.record("ListForRecord")
	return m.listForRec(ctx, recordID, limit, offset)
}

func (m *mockProposalLedger) ListPending(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error) {
	m.record("ListPending")
	return m.listPending(ctx, slugFilter, limit, offset)
}

func (m *mockProposalLedger) CountPending(ctx context.Context) (int64, error) {
	m.record("CountPending")
	if m.countPending != nil {
		return m.countPending(ctx)
	}

	return 0, nil
}

// mockEventTrail returns configured events.
type mockEventTrail struct {
	events []models.ChangeEvent
	err    error
}

func (m *mockEventTrail) ListForProposal(context.Context, int64) ([]models.ChangeEvent, error) {
	return m.events, m.err
}

// mockIdentity records privilege revocations.
type mockIdentity struct {
	mu      sync.Mutex
	revoked []int64
	err     error
}

func (m *mockIdentity) RevokeBase(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked = append(m.revoked, userID)

	return m.err
}

// mockSweeper collects enqueued jobs.
type mockSweeper struct {
	mu   sync.Mutex
	jobs []SweepJob
}

func (m *mockSweeper) Enqueue(job SweepJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}
