package api_test

import (
	"context"

	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/service"
	"github.com/cardledger/cardledger/internal/store"
)

// mockRecordProvider returns configured responses.
type mockRecordProvider struct {
	createFn func(ctx context.Context, actor models.Actor, req models.CreateRecordRequest) (*models.Record, error)
	listFn   func(ctx context.Context, kind string, limit, offset int) ([]*models.Record, error)
	getFn    func(ctx context.Context, slug string) (*service.RecordDetail, error)
	labelsFn func(ctx context.Context) ([]models.Label, error)
}

func (m *mockRecordProvider) Create(ctx context.Context, actor models.Actor, req models.CreateRecordRequest) (*models.Record, error) {
	return m.createFn(ctx, actor, req)
}

func (m *mockRecordProvider) List(ctx context.Context, kind string, limit, offset int) ([]*models.Record, error) {
	return m.listFn(ctx, kind, limit, offset)
}

func (m *mockRecordProvider) Get(ctx context.Context, slug string) (*service.RecordDetail, error) {
	return m.getFn(ctx, slug)
}

func (m *mockRecordProvider) LabelCatalog(ctx context.Context) ([]models.Label, error) {
	return m.labelsFn(ctx)
}

// mockEditProvider returns configured responses.
type mockEditProvider struct {
	applyFn func(ctx context.Context, actor models.Actor, req service.EditRequest) (*store.EditResult, error)
}

func (m *mockEditProvider) Apply(ctx context.Context, actor models.Actor, req service.EditRequest) (*store.EditResult, error) {
	return m.applyFn(ctx, actor, req)
}

// mockProposalProvider returns configured responses.
type mockProposalProvider struct {
	reviewFn      func(ctx context.Context, actor models.Actor, proposalID int64, decision, note string) (*models.ChangeProposal, error)
	getFn         func(ctx context.Context, id int64) (*models.ChangeProposal, error)
	listForRecFn  func(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error)
	listPendingFn func(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error)
	eventsFn      func(ctx context.Context, proposalID int64) ([]models.ChangeEvent, error)
}

func (m *mockProposalProvider) Review(ctx context.Context, actor models.Actor, proposalID int64, decision, note string) (*models.ChangeProposal, error) {
	return m.reviewFn(ctx, actor, proposalID, decision, note)
}

func (m *mockProposalProvider) Get(ctx context.Context, id int64) (*models.ChangeProposal, error) {
	return m.getFn(ctx, id)
}

func (m *mockProposalProvider) ListForRecord(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error) {
	return m.listForRecFn(ctx, recordID, limit, offset)
}

func (m *mockProposalProvider) ListPending(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error) {
	return m.listPendingFn(ctx, slugFilter, limit, offset)
}

func (m *mockProposalProvider) Events(ctx context.Context, proposalID int64) ([]models.ChangeEvent, error) {
	return m.eventsFn(ctx, proposalID)
}

// mockUserProvider returns configured responses.
type mockUserProvider struct {
	createFn func(ctx context.Context, email, apiKeySHA string, priv models.Privileges) (*models.Actor, error)
}

func (m *mockUserProvider) Create(ctx context.Context, email, apiKeySHA string, priv models.Privileges) (*models.Actor, error) {
	return m.createFn(ctx, email, apiKeySHA, priv)
}
