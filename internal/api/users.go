package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/models"
	"github.com/cardledger/cardledger/internal/store"
)

// UserHandler serves the administrative identity endpoints.
type UserHandler struct {
	users UserProvider
	log   *logrus.Logger
}

// NewUserHandler creates a UserHandler with the given store and logger.
func NewUserHandler(users UserProvider, log *logrus.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// createUserRequest is the JSON payload for creating a contributor.
type createUserRequest struct {
	Email      string            `json:"email"`
	Privileges models.Privileges `json:"privileges"`
}

// createUserResponse returns the fresh API key exactly once; only its hash is
// stored.
type createUserResponse struct {
	Actor  *models.Actor `json:"actor"`
	APIKey string        `json:"api_key"`
}

// Create handles POST /api/v1/admin/users.
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}

	if !actor.CanAdminister() {
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "insufficient privileges")

		return
	}

	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "email is required")

		return
	}

	apiKey := uuid.New().String() + uuid.New().String()

	created, err := h.users.Create(c.Request.Context(), req.Email, store.HashAPIKey(apiKey), req.Privileges)
	if err != nil {
		respondServiceError(c, h.log, err)

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "user.create",
		"email":    req.Email,
		"actor_id": actor.ID,
	}).Info("audit")

	c.JSON(http.StatusCreated, createUserResponse{Actor: created, APIKey: apiKey})
}
