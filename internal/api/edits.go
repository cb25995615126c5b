package api

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/service"
)

// EditHandler serves the edit submission endpoint.
type EditHandler struct {
	edits EditProvider
	log   *logrus.Logger
}

// NewEditHandler creates an EditHandler with the given service and logger.
func NewEditHandler(edits EditProvider, log *logrus.Logger) *EditHandler {
	return &EditHandler{edits: edits, log: log}
}

// editResponse is the JSON payload returned after an edit submission.
type editResponse struct {
	NoOp         bool   `json:"no_op"`
	ProposalID   int64  `json:"proposal_id,omitempty"`
	AutoAccepted bool   `json:"auto_accepted,omitempty"`
	UsedBytes    int64  `json:"used_bytes,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Apply handles POST /api/v1/records/:slug/edits. The body is multipart form
// data: scalar fields plus repeated "labels", repeated "delete_attachment_ids",
// file parts under "files" with a parallel repeated "origins" field, and an
// optional JSON-encoded "promotions" field for staged blobs.
func (h *EditHandler) Apply(c *gin.Context) {
	slug := c.Param("slug")
	if err := validateSlug(slug); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor, ok := getActor(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid multipart body")

		return
	}

	req := service.EditRequest{
		Slug:            slug,
		Scope:           c.PostForm("scope"),
		Note:            c.PostForm("note"),
		Name:            c.PostForm("name"),
		CoverKey:        c.PostForm("cover_key"),
		ArticleMarkdown: c.PostForm("article_markdown"),
		Labels:          form.Value["labels"],
	}

	for _, raw := range form.Value["delete_attachment_ids"] {
		id, err := parseID(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

			return
		}

		req.DeleteAttachmentIDs = append(req.DeleteAttachmentIDs, id)
	}

	uploads, err := readUploads(form.File["files"], form.Value["origins"])
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}
	req.Uploads = uploads

	if raw := c.PostForm("promotions"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Promotions); err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid promotions payload")

			return
		}
	}

	result, err := h.edits.Apply(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	if result.NoOp {
		c.JSON(http.StatusOK, editResponse{NoOp: true, Message: "no changes detected"})

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":      "edit.apply",
		"slug":        slug,
		"actor_id":    actor.ID,
		"proposal_id": result.ProposalID,
	}).Info("audit")

	c.JSON(http.StatusCreated, editResponse{
		ProposalID:   result.ProposalID,
		AutoAccepted: result.AutoAccepted,
		UsedBytes:    result.UsedBytes,
	})
}

// readUploads pairs each file part with its origin by position.
func readUploads(files []*multipart.FileHeader, origins []string) ([]models.UploadedFile, error) {
	uploads := make([]models.UploadedFile, 0, len(files))

	for i, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}

		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}

		var origin string
		if i < len(origins) {
			origin = origins[i]
		}

		uploads = append(uploads, models.UploadedFile{
			OriginalName: fh.Filename,
			Content:      content,
			Origin:       origin,
		})
	}

	return uploads, nil
}
