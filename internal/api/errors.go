package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/httputil"
	"github.com/cardledger/cardledger/internal/metrics"
	"github.com/cardledger/cardledger/internal/models"
)

// Error code constants for standardized API responses.
const (
	ErrCodeInvalidRequest    = "invalid_request"
	ErrCodeValidationError   = "validation_error"
	ErrCodeNotFound          = "not_found"
	ErrCodeForbidden         = "forbidden"
	ErrCodeConflict          = "conflict"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeQuotaExceeded     = "quota_exceeded"
	ErrCodeStorageFailure    = "storage_failure"
	ErrCodeInternalError     = "internal_error"
	ErrCodeUnauthorized      = "unauthorized"
)

// respondError writes a standardized JSON error response, pulling the request
// ID from the Gin context (set by the request ID middleware).
func respondError(c *gin.Context, status int, code, message string) {
	metrics.ErrorsTotal.WithLabelValues(code).Inc()
	httputil.RespondError(c, status, code, message)
}

// respondServiceError maps domain errors onto HTTP responses. Unrecognized
// errors are logged and surfaced as opaque 500s.
func respondServiceError(c *gin.Context, log *logrus.Logger, err error) {
	var (
		quotaErr *models.QuotaExceededError
		transErr *models.InvalidTransitionError
	)

	switch {
	case errors.As(err, &quotaErr):
		metrics.ErrorsTotal.WithLabelValues(ErrCodeQuotaExceeded).Inc()
		httputil.RespondQuotaError(c, http.StatusRequestEntityTooLarge, quotaErr.Error(),
			quotaErr.Used, quotaErr.Incoming, quotaErr.Available, quotaErr.Limit)

	case errors.As(err, &transErr):
		respondError(c, http.StatusConflict, ErrCodeInvalidTransition, transErr.Error())

	case errors.Is(err, models.ErrRecordNotFound),
		errors.Is(err, models.ErrProposalNotFound),
		errors.Is(err, models.ErrAttachmentNotFound),
		errors.Is(err, models.ErrActorNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, models.ErrPermission):
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "insufficient privileges")

	case errors.Is(err, models.ErrDuplicateKey):
		respondError(c, http.StatusConflict, ErrCodeConflict, "resource already exists")

	case errors.Is(err, models.ErrStorageIO):
		log.WithError(err).Error("object store failure")
		respondError(c, http.StatusBadGateway, ErrCodeStorageFailure, "object store unavailable, retry the request")

	case isValidationError(err):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

	default:
		log.WithError(err).Error("unhandled service error")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		models.ErrMissingSlug, models.ErrMissingName, models.ErrInvalidKind,
		models.ErrEmptyLabel, models.ErrMissingOrigin, models.ErrEmptyUpload,
		models.ErrInvalidDecision, models.ErrScopeMismatch,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}
