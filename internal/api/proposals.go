package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ProposalHandler serves the review queue endpoints.
type ProposalHandler struct {
	proposals ProposalProvider
	records   RecordProvider
	log       *logrus.Logger
}

// NewProposalHandler creates a ProposalHandler with the given services and logger.
func NewProposalHandler(proposals ProposalProvider, records RecordProvider, log *logrus.Logger) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, records: records, log: log}
}

// ListForRecord handles GET /api/v1/records/:slug/proposals.
func (h *ProposalHandler) ListForRecord(c *gin.Context) {
	slug := c.Param("slug")
	if err := validateSlug(slug); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	detail, err := h.records.Get(c.Request.Context(), slug)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	proposals, err := h.proposals.ListForRecord(c.Request.Context(), detail.Record.ID, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// ListPending handles GET /api/v1/proposals.
func (h *ProposalHandler) ListPending(c *gin.Context) {
	slugFilter := c.Query("slug")
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	proposals, hasMore, err := h.proposals.ListPending(c.Request.Context(), slugFilter, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals, "has_more": hasMore})
}

// Get handles GET /api/v1/proposals/:id.
func (h *ProposalHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	p, err := h.proposals.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, p)
}

// reviewRequest is the JSON payload for resolving a proposal.
type reviewRequest struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

// Review handles POST /api/v1/proposals/:id/review.
func (h *ProposalHandler) Review(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	p, err := h.proposals.Review(c.Request.Context(), actor, id, req.Decision, req.Note)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":      "proposal.review",
		"proposal_id": id,
		"decision":    req.Decision,
		"actor_id":    actor.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, p)
}

// Events handles GET /api/v1/proposals/:id/events.
func (h *ProposalHandler) Events(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	events, err := h.proposals.Events(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
