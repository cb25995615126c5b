package snapshot

import (
	"strings"
	"testing"

	"github.com/cardledger/cardledger/internal/models"
)

func testRecord() models.Record {
	return models.Record{
		ID:              1,
		Slug:            "ada-lovelace",
		Kind:            models.KindPerson,
		Name:            "Ada Lovelace",
		ArticleMarkdown: "# Ada Lovelace\n\nFirst programmer.\n",
		CoverKey:        "records/ada-lovelace/cover.png",
	}
}

func testAttachments() []models.Attachment {
	return []models.Attachment{
		{ID: 2, FileName: "notes.pdf", StorageKey: "records/ada/k2", MimeType: "application/pdf", Origin: "https://example.org/a", SizeBytes: 100},
		{ID: 1, FileName: "letter.txt", StorageKey: "records/ada/k1", MimeType: "text/plain", Origin: "https://example.org/b", SizeBytes: 50},
	}
}

func TestForScope_LabelOrderIndependence(t *testing.T) {
	rec := testRecord()

	a := ForScope(models.ScopeCard, Input{Record: rec, Labels: []string{"Math", "pioneer"}})
	b := ForScope(models.ScopeCard, Input{Record: rec, Labels: []string{"pioneer", "math"}})

	if !Equal(a, b) {
		t.Errorf("label order changed snapshot:\n%s\n%s", a, b)
	}
}

func TestForScope_AttachmentOrderIndependence(t *testing.T) {
	rec := testRecord()
	atts := testAttachments()

	a := ForScope(models.ScopeCard, Input{Record: rec, Attachments: atts})

	reversed := []models.Attachment{atts[1], atts[0]}
	b := ForScope(models.ScopeCard, Input{Record: rec, Attachments: reversed})

	if !Equal(a, b) {
		t.Errorf("attachment order changed snapshot:\n%s\n%s", a, b)
	}
}

func TestForScope_DetectsChanges(t *testing.T) {
	rec := testRecord()
	base := ForScope(models.ScopeCardArticle, Input{Record: rec, Labels: []string{"math"}})

	tests := []struct {
		name   string
		mutate func(in *Input)
	}{
		{"name change", func(in *Input) { in.Record.Name = "A. Lovelace" }},
		{"article change", func(in *Input) { in.Record.ArticleMarkdown = "# Ada\n\nRevised." }},
		{"label added", func(in *Input) { in.Labels = append(in.Labels, "computing") }},
		{"cover change", func(in *Input) { in.Record.CoverKey = "records/ada/new-cover.png" }},
		{"attachment added", func(in *Input) {
			in.Attachments = append(in.Attachments, models.Attachment{ID: 9, FileName: "x", StorageKey: "k9"})
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := Input{Record: testRecord(), Labels: []string{"math"}}
			tc.mutate(&in)

			if Equal(base, ForScope(models.ScopeCardArticle, in)) {
				t.Error("mutation did not change the snapshot")
			}
		})
	}
}

func TestForScope_ArticleScopeIgnoresCard(t *testing.T) {
	a := testRecord()
	b := testRecord()
	b.Name = "Completely Different"
	b.CoverKey = ""

	sa := ForScope(models.ScopeArticle, Input{Record: a})
	sb := ForScope(models.ScopeArticle, Input{Record: b, Labels: []string{"extra"}})

	if !Equal(sa, sb) {
		t.Errorf("article scope leaked card fields:\n%s\n%s", sa, sb)
	}
}

func TestArticle_NormalizesIncidentalResave(t *testing.T) {
	if Article("# Title\r\nBody\r\n") != Article("# Title\nBody") {
		t.Error("line endings or trailing whitespace changed the canonical article")
	}
}

func TestForScope_LabelsLowercasedAndDeduped(t *testing.T) {
	rec := testRecord()

	a := ForScope(models.ScopeCard, Input{Record: rec, Labels: []string{"Math", "MATH", " math "}})
	b := ForScope(models.ScopeCard, Input{Record: rec, Labels: []string{"math"}})

	if !Equal(a, b) {
		t.Errorf("normalization not applied:\n%s\n%s", a, b)
	}
	if !strings.Contains(a, `"labels":["math"]`) {
		t.Errorf("unexpected labels encoding: %s", a)
	}
}

func TestForScope_Deterministic(t *testing.T) {
	in := Input{Record: testRecord(), Labels: []string{"b", "a"}, Attachments: testAttachments()}

	first := ForScope(models.ScopeCardArticle, in)
	for i := 0; i < 10; i++ {
		if got := ForScope(models.ScopeCardArticle, in); got != first {
			t.Fatalf("run %d diverged:\n%s\n%s", i, first, got)
		}
	}
}
