package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cardledger/cardledger/internal/api"
	"github.com/cardledger/cardledger/internal/models"
)

func proposalRouter(provider *mockProposalProvider, actor models.Actor) *gin.Engine {
	r := newTestRouter(actor)
	h := api.NewProposalHandler(provider, &mockRecordProvider{}, testLogger())
	r.GET("/proposals", h.ListPending)
	r.GET("/proposals/:id", h.Get)
	r.POST("/proposals/:id/review", h.Review)
	r.GET("/proposals/:id/events", h.Events)

	return r
}

func TestProposalReview_Accepted(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{
		reviewFn: func(_ context.Context, _ models.Actor, id int64, decision, note string) (*models.ChangeProposal, error) {
			return &models.ChangeProposal{ID: id, Status: models.ProposalStatus(decision), ReviewNote: note}, nil
		},
	}

	w := doRequest(proposalRouter(provider, adminActor()), http.MethodPost, "/proposals/9/review", `{"decision":"accepted","note":"lgtm"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var p models.ChangeProposal
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if p.Status != models.StatusAccepted {
		t.Errorf("expected accepted, got %q", p.Status)
	}
}

func TestProposalReview_AlreadyTerminal(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{
		reviewFn: func(context.Context, models.Actor, int64, string, string) (*models.ChangeProposal, error) {
			return nil, &models.InvalidTransitionError{ProposalID: 9, From: models.StatusAccepted, To: models.StatusDeclined}
		},
	}

	w := doRequest(proposalRouter(provider, adminActor()), http.MethodPost, "/proposals/9/review", `{"decision":"declined"}`)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProposalReview_UnknownDecision(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{
		reviewFn: func(context.Context, models.Actor, int64, string, string) (*models.ChangeProposal, error) {
			return nil, models.ErrInvalidDecision
		},
	}

	w := doRequest(proposalRouter(provider, adminActor()), http.MethodPost, "/proposals/9/review", `{"decision":"approve"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProposalGet_NotFound(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{
		getFn: func(context.Context, int64) (*models.ChangeProposal, error) {
			return nil, models.ErrProposalNotFound
		},
	}

	w := doRequest(proposalRouter(provider, testActor()), http.MethodGet, "/proposals/404", "")

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProposalGet_BadID(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{}

	w := doRequest(proposalRouter(provider, testActor()), http.MethodGet, "/proposals/zero", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProposalListPending_HasMore(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{
		listPendingFn: func(_ context.Context, slugFilter string, limit, offset int) ([]*models.ChangeProposal, bool, error) {
			if slugFilter != "ada" {
				t.Errorf("expected slug filter 'ada', got %q", slugFilter)
			}

			return []*models.ChangeProposal{{ID: 1, Status: models.StatusPending}}, true, nil
		},
	}

	w := doRequest(proposalRouter(provider, adminActor()), http.MethodGet, "/proposals?slug=ada&limit=1", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Proposals []models.ChangeProposal `json:"proposals"`
		HasMore   bool                    `json:"has_more"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(resp.Proposals) != 1 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
}

func TestProposalEvents_ReturnsTrail(t *testing.T) {
	t.Parallel()

	provider := &mockProposalProvider{
		eventsFn: func(_ context.Context, id int64) ([]models.ChangeEvent, error) {
			return []models.ChangeEvent{
				{ID: 1, ProposalID: id, EventType: models.EventSubmitted},
				{ID: 2, ProposalID: id, EventType: models.EventAccepted},
			}, nil
		},
	}

	w := doRequest(proposalRouter(provider, testActor()), http.MethodGet, "/proposals/9/events", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Events []models.ChangeEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if len(resp.Events) != 2 || resp.Events[1].EventType != models.EventAccepted {
		t.Errorf("unexpected trail: %+v", resp.Events)
	}
}
