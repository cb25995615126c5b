// Package models defines data types for the cardledger moderation core.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Record kinds.
const (
	KindPerson = "person"
	KindSource = "source"
)

// DefaultQuotaBytes is the attachment byte budget a record gets when none is
// specified at creation time (1 GiB).
const DefaultQuotaBytes int64 = 1 << 30

// Record is a person-card or source-card, the unit a proposal edits.
type Record struct {
	ID              int64     `json:"id"`
	Slug            string    `json:"slug"`
	Kind            string    `json:"kind"`
	Name            string    `json:"name"`
	ArticleMarkdown string    `json:"article_markdown"`
	CoverKey        string    `json:"cover_key,omitempty"`
	FolderPrefix    string    `json:"-"`
	MaxBytes        int64     `json:"max_bytes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RecordUsage pairs a record's consumed attachment bytes with its ceiling.
type RecordUsage struct {
	UsedBytes  int64  `json:"used_bytes"`
	MaxBytes   int64  `json:"max_bytes"`
	UsageLabel string `json:"usage_label"`
}

// NewRecordUsage builds a RecordUsage with the rendered "used / limit" label.
func NewRecordUsage(used, limit int64) RecordUsage {
	return RecordUsage{
		UsedBytes:  used,
		MaxBytes:   limit,
		UsageLabel: FormatBytes(used) + " / " + FormatBytes(limit),
	}
}

// CreateRecordRequest is the payload for creating a new record.
type CreateRecordRequest struct {
	Slug            string `json:"slug"`
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	ArticleMarkdown string `json:"article_markdown"`
	MaxBytes        int64  `json:"max_bytes"`
}

// Validate checks required fields, normalizes the slug, and applies the
// default quota ceiling. A non-positive explicit quota is a validation error.
func (r *CreateRecordRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrMissingName
	}

	if len(r.Name) > 500 {
		return ErrFieldTooLong("name", 500)
	}

	if r.Kind != KindPerson && r.Kind != KindSource {
		return ErrInvalidKind
	}

	if r.Slug == "" {
		r.Slug = Slugify(r.Name, "record")
	} else {
		r.Slug = Slugify(r.Slug, "")
		if r.Slug == "" {
			return ErrMissingSlug
		}
	}

	if len(r.Slug) > 200 {
		return ErrFieldTooLong("slug", 200)
	}

	switch {
	case r.MaxBytes == 0:
		r.MaxBytes = DefaultQuotaBytes
	case r.MaxBytes < 0:
		return fmt.Errorf("max_bytes must be positive")
	}

	return nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value and collapses every non-alphanumeric run into a
// single dash. Returns fallback when nothing survives.
func Slugify(value, fallback string) string {
	normalized := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return fallback
	}
	return normalized
}

// NormalizeLabel lowercases and trims a label. Empty output means the input
// was not a usable label.
func NormalizeLabel(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// NormalizeLabels normalizes and dedupes a requested label set, preserving
// first-seen order. Returns ErrEmptyLabel if any input normalizes to empty.
func NormalizeLabels(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, value := range raw {
		normalized := NormalizeLabel(value)
		if normalized == "" {
			return nil, ErrEmptyLabel
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}

	return out, nil
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count for user-facing quota messages.
func FormatBytes(n int64) string {
	value := float64(max64(0, n))

	unit := byteUnits[0]
	for _, u := range byteUnits[1:] {
		if value < 1024 {
			break
		}
		value /= 1024
		unit = u
	}

	if unit == "B" {
		return fmt.Sprintf("%d B", int64(value))
	}
	return fmt.Sprintf("%.1f %s", value, unit)
}
