package api

import (
	"context"

	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/service"
	"github.com/cardledger/cardledger/internal/store"
)

// RecordProvider defines record operations used by RecordHandler.
type RecordProvider interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateRecordRequest) (*models.Record, error)
	List(ctx context.Context, kind string, limit, offset int) ([]*models.Record, error)
	Get(ctx context.Context, slug string) (*service.RecordDetail, error)
	LabelCatalog(ctx context.Context) ([]models.Label, error)
}

// EditProvider defines the edit pipeline used by EditHandler.
type EditProvider interface {
	Apply(ctx context.Context, actor models.Actor, req service.EditRequest) (*store.EditResult, error)
}

// ProposalProvider defines review operations used by ProposalHandler.
type ProposalProvider interface {
	Review(ctx context.Context, actor models.Actor, proposalID int64, decision, note string) (*models.ChangeProposal, error)
	Get(ctx context.Context, id int64) (*models.ChangeProposal, error)
	ListForRecord(ctx context.Context, recordID int64, limit, offset int) ([]*models.ChangeProposal, error)
	ListPending(ctx context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error)
	Events(ctx context.Context, proposalID int64) ([]models.ChangeEvent, error)
}

// UserProvider defines identity operations used by UserHandler.
type UserProvider interface {
	Create(ctx context.Context, email, apiKeySHA string, priv models.Privileges) (*models.Actor, error)
}
