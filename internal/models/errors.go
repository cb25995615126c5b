package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingSlug     = errors.New("slug is required")
	ErrMissingName     = errors.New("name is required")
	ErrInvalidKind     = errors.New("kind must be person or source")
	ErrEmptyLabel      = errors.New("label normalizes to empty")
	ErrMissingOrigin   = errors.New("every attachment requires an origin")
	ErrEmptyUpload     = errors.New("uploaded file is empty")
	ErrInvalidDecision = errors.New("decision must be accepted, declined, or reported")
	ErrScopeMismatch   = errors.New("label or attachment changes require card scope")
)

// Sentinel errors for entity lookups.
var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrProposalNotFound   = errors.New("proposal not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrActorNotFound      = errors.New("actor not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrPermission indicates the actor lacks the privilege the operation requires.
var ErrPermission = errors.New("permission denied")

// ErrStorageIO marks object-store failures. Wrap the underlying error so the
// edge can distinguish "retry the whole request" from business failures.
var ErrStorageIO = errors.New("object store failure")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}

// QuotaExceededError reports that an attachment write would push a record
// past its byte budget. It carries the numeric figures so callers can render
// "need N more bytes of M available".
type QuotaExceededError struct {
	Used      int64 `json:"used"`
	Incoming  int64 `json:"incoming"`
	Available int64 `json:"available"`
	Limit     int64 `json:"limit"`
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf(
		"attachment quota exceeded: current %s, incoming %s, available %s, limit %s",
		FormatBytes(e.Used), FormatBytes(e.Incoming), FormatBytes(max64(0, e.Available)), FormatBytes(e.Limit),
	)
}

// InvalidTransitionError reports a change-proposal state machine misuse:
// every terminal state rejects further transitions.
type InvalidTransitionError struct {
	ProposalID int64
	From       ProposalStatus
	To         ProposalStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("proposal %d is %s, cannot transition to %s", e.ProposalID, e.From, e.To)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
