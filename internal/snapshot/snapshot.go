// Package snapshot canonicalizes a record and its children into a stable
// string used both as a diff input and as an equality test. The encoding is
// compact JSON with fields in key order, so the same logical inputs always
// yield the same bytes regardless of label or attachment insertion order.
// Two snapshots are equal iff their strings are byte-identical; that equality
// is the gate deciding whether a change proposal is created at all.
package snapshot

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/cardledger/cardledger/internal/models"
)

// Input bundles everything a snapshot covers.
type Input struct {
	Record      models.Record
	Labels      []string
	Attachments []models.Attachment
}

// Struct fields below are declared in key order; encoding/json preserves
// declaration order, which keeps the output equivalent to a sorted-key
// encoding.

type canonicalAttachment struct {
	FileName   string `json:"file_name"`
	ID         int64  `json:"id"`
	MimeType   string `json:"mime_type"`
	Origin     string `json:"origin"`
	SizeBytes  int64  `json:"size_bytes"`
	StorageKey string `json:"storage_key"`
}

type canonicalCard struct {
	Attachments []canonicalAttachment `json:"attachments"`
	Cover       string                `json:"cover"`
	Kind        string                `json:"kind"`
	Labels      []string              `json:"labels"`
	Name        string                `json:"name"`
	Slug        string                `json:"slug"`
}

type canonicalFull struct {
	Article string `json:"article"`
	canonicalCard
}

// ForScope renders the canonical snapshot string for the given proposal
// scope: card metadata, the article body, or both.
func ForScope(scope models.Scope, in Input) string {
	switch scope {
	case models.ScopeCard:
		return marshal(card(in))
	case models.ScopeArticle:
		return marshal(struct {
			Article string `json:"article"`
		}{Article: Article(in.Record.ArticleMarkdown)})
	default:
		return marshal(canonicalFull{
			Article:       Article(in.Record.ArticleMarkdown),
			canonicalCard: card(in),
		})
	}
}

// Article normalizes a markdown body: unified line endings, no trailing
// whitespace. An incidental re-save without real edits must produce an
// identical snapshot.
func Article(markdown string) string {
	return strings.TrimSpace(strings.ReplaceAll(markdown, "\r\n", "\n"))
}

// Equal reports whether two snapshot strings denote the same record state.
func Equal(a, b string) bool { return a == b }

func card(in Input) canonicalCard {
	labels := make([]string, 0, len(in.Labels))
	seen := make(map[string]struct{}, len(in.Labels))
	for _, raw := range in.Labels {
		normalized := models.NormalizeLabel(raw)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		labels = append(labels, normalized)
	}
	sort.Strings(labels)

	attachments := make([]canonicalAttachment, 0, len(in.Attachments))
	for _, a := range in.Attachments {
		attachments = append(attachments, canonicalAttachment{
			FileName:   a.FileName,
			ID:         a.ID,
			MimeType:   a.MimeType,
			Origin:     a.Origin,
			SizeBytes:  a.SizeBytes,
			StorageKey: a.StorageKey,
		})
	}
	sort.Slice(attachments, func(i, j int) bool {
		if attachments[i].FileName != attachments[j].FileName {
			return attachments[i].FileName < attachments[j].FileName
		}
		if attachments[i].StorageKey != attachments[j].StorageKey {
			return attachments[i].StorageKey < attachments[j].StorageKey
		}
		return attachments[i].ID < attachments[j].ID
	})

	return canonicalCard{
		Attachments: attachments,
		Cover:       strings.TrimSpace(in.Record.CoverKey),
		Kind:        in.Record.Kind,
		Labels:      labels,
		Name:        strings.TrimSpace(in.Record.Name),
		Slug:        in.Record.Slug,
	}
}

func marshal(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Inputs are plain strings and integers; Marshal cannot fail on them.
		return ""
	}
	return string(data)
}
