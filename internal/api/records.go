package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/models"
)

// RecordHandler serves catalog record endpoints.
type RecordHandler struct {
	records RecordProvider
	log     *logrus.Logger
}

// NewRecordHandler creates a RecordHandler with the given service and logger.
func NewRecordHandler(records RecordProvider, log *logrus.Logger) *RecordHandler {
	return &RecordHandler{records: records, log: log}
}

// List handles GET /api/v1/records.
func (h *RecordHandler) List(c *gin.Context) {
	kind := c.Query("kind")
	limit := parseInt(c.DefaultQuery("limit", "50"), 50)
	offset := parseOffset(c.DefaultQuery("offset", "0"))

	records, err := h.records.List(c.Request.Context(), kind, limit, offset)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Get handles GET /api/v1/records/:slug.
func (h *RecordHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	if err := validateSlug(slug); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	detail, err := h.records.Get(c.Request.Context(), slug)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, detail)
}

// Usage handles GET /api/v1/records/:slug/usage.
func (h *RecordHandler) Usage(c *gin.Context) {
	slug := c.Param("slug")
	if err := validateSlug(slug); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}

	detail, err := h.records.Get(c.Request.Context(), slug)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, detail.Usage)
}

// Create handles POST /api/v1/records.
func (h *RecordHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	var req models.CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	rec, err := h.records.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{"action": "record.create", "slug": rec.Slug, "actor_id": actor.ID}).Info("audit")

	c.JSON(http.StatusCreated, rec)
}

// Labels handles GET /api/v1/labels.
func (h *RecordHandler) Labels(c *gin.Context) {
	labels, err := h.records.LabelCatalog(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"labels": labels})
}
