package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/cardledger/cardledger/internal/api"
	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/service"
	"github.com/cardledger/cardledger/internal/store"
)

// doMultipart posts a multipart form built by build to the router.
func doMultipart(r *gin.Engine, path string, build func(w *multipart.Writer)) *httptest.ResponseRecorder {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	build(mw)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func editRouter(provider *mockEditProvider, actor models.Actor) *gin.Engine {
	r := newTestRouter(actor)
	h := api.NewEditHandler(provider, testLogger())
	r.POST("/records/:slug/edits", h.Apply)

	return r
}

func TestEditApply_SubmitsProposal(t *testing.T) {
	t.Parallel()

	var got service.EditRequest

	provider := &mockEditProvider{
		applyFn: func(_ context.Context, _ models.Actor, req service.EditRequest) (*store.EditResult, error) {
			got = req

			return &store.EditResult{ProposalID: 12}, nil
		},
	}

	w := doMultipart(editRouter(provider, testActor()), "/records/ada-lovelace/edits", func(mw *multipart.Writer) {
		mw.WriteField("scope", "card")
		mw.WriteField("name", "Ada Lovelace")
		mw.WriteField("labels", "math")
		mw.WriteField("labels", "pioneer")

		fw, _ := mw.CreateFormFile("files", "notes.txt")
		fw.Write([]byte("hello"))
		mw.WriteField("origins", "https://example.org/notes")
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if got.Slug != "ada-lovelace" || len(got.Labels) != 2 || len(got.Uploads) != 1 {
		t.Errorf("unexpected request passed to service: %+v", got)
	}
	if got.Uploads[0].Origin != "https://example.org/notes" {
		t.Errorf("origin not paired with file: %q", got.Uploads[0].Origin)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["proposal_id"].(float64) != 12 {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestEditApply_NoOpReturns200(t *testing.T) {
	t.Parallel()

	provider := &mockEditProvider{
		applyFn: func(context.Context, models.Actor, service.EditRequest) (*store.EditResult, error) {
			return &store.EditResult{NoOp: true}, nil
		},
	}

	w := doMultipart(editRouter(provider, testActor()), "/records/ada-lovelace/edits", func(mw *multipart.Writer) {
		mw.WriteField("scope", "article")
		mw.WriteField("article_markdown", "# Same")
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["no_op"] != true {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestEditApply_QuotaExceededReturns413(t *testing.T) {
	t.Parallel()

	provider := &mockEditProvider{
		applyFn: func(context.Context, models.Actor, service.EditRequest) (*store.EditResult, error) {
			return nil, &models.QuotaExceededError{Used: 600, Incoming: 500, Available: 400, Limit: 1000}
		},
	}

	w := doMultipart(editRouter(provider, testActor()), "/records/ada-lovelace/edits", func(mw *multipart.Writer) {
		mw.WriteField("scope", "card")
	})

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["available_bytes"].(float64) != 400 || resp["limit_bytes"].(float64) != 1000 {
		t.Errorf("quota figures missing from response: %v", resp)
	}
}

func TestEditApply_StorageFailureReturns502(t *testing.T) {
	t.Parallel()

	provider := &mockEditProvider{
		applyFn: func(context.Context, models.Actor, service.EditRequest) (*store.EditResult, error) {
			return nil, models.ErrStorageIO
		},
	}

	w := doMultipart(editRouter(provider, testActor()), "/records/ada-lovelace/edits", func(mw *multipart.Writer) {
		mw.WriteField("scope", "card")
	})

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestEditApply_BadDeleteID(t *testing.T) {
	t.Parallel()

	provider := &mockEditProvider{}

	w := doMultipart(editRouter(provider, testActor()), "/records/ada-lovelace/edits", func(mw *multipart.Writer) {
		mw.WriteField("scope", "card")
		mw.WriteField("delete_attachment_ids", "not-a-number")
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
