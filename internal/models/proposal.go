package models

import (
	"strings"
	"time"
)

// ProposalStatus is the review state of a change proposal.
type ProposalStatus string

// Proposal lifecycle states. pending is the only non-terminal state.
const (
	StatusPending  ProposalStatus = "pending"
	StatusAccepted ProposalStatus = "accepted"
	StatusDeclined ProposalStatus = "declined"
	StatusReported ProposalStatus = "reported"
)

// Terminal reports whether the status permits no further transitions.
func (s ProposalStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusDeclined || s == StatusReported
}

// ParseDecision validates a review decision string. Only terminal states are
// valid decisions.
func ParseDecision(raw string) (ProposalStatus, error) {
	switch ProposalStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusAccepted:
		return StatusAccepted, nil
	case StatusDeclined:
		return StatusDeclined, nil
	case StatusReported:
		return StatusReported, nil
	default:
		return "", ErrInvalidDecision
	}
}

// Scope identifies which logical sub-part of a record a proposal changes.
type Scope string

// Proposal scopes. The legacy "description" input normalizes to article.
const (
	ScopeCard        Scope = "card"
	ScopeArticle     Scope = "article"
	ScopeCardArticle Scope = "card_article"

	legacyScopeDescription = "description"
)

// NormalizeScope maps free-form scope input onto a canonical Scope value.
// Unknown input falls back to article, matching historical payloads.
func NormalizeScope(raw string) Scope {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ScopeCard):
		return ScopeCard
	case string(ScopeCardArticle):
		return ScopeCardArticle
	case string(ScopeArticle), legacyScopeDescription:
		return ScopeArticle
	default:
		return ScopeArticle
	}
}

// IncludesCard reports whether the scope covers card metadata (name, cover,
// labels, attachments).
func (s Scope) IncludesCard() bool {
	return s == ScopeCard || s == ScopeCardArticle
}

// IncludesArticle reports whether the scope covers the markdown article body.
func (s Scope) IncludesArticle() bool {
	return s == ScopeArticle || s == ScopeCardArticle
}

// ChangeProposal threads one proposed edit through the review state machine.
// Immutable once terminal except for the review metadata written at that
// transition; never deleted, only superseded by newer proposals.
type ChangeProposal struct {
	ID              int64          `json:"id"`
	RecordID        int64          `json:"record_id"`
	RecordSlug      string         `json:"record_slug,omitempty"`
	Scope           Scope          `json:"scope"`
	ProposerID      int64          `json:"proposer_id"`
	BasePayload     string         `json:"base_payload"`
	ProposedPayload string         `json:"proposed_payload"`
	Note            string         `json:"note,omitempty"`
	Status          ProposalStatus `json:"status"`
	ReviewerID      *int64         `json:"reviewer_id,omitempty"`
	ReviewNote      string         `json:"review_note,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
}
