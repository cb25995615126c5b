package models

import (
	"strings"
	"time"
)

// Label is a normalized lowercase tag with a generated machine code.
// Label text is unique across the catalog.
type Label struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Attachment is a binary file belonging to exactly one record. The storage
// key is unique across the whole object store; metadata rows exist only for
// bytes that are already durably stored.
type Attachment struct {
	ID         int64     `json:"id"`
	RecordID   int64     `json:"record_id"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	Origin     string    `json:"origin"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedBy int64     `json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadedFile is the one normalized upload shape the presentation adapter
// hands the core. The core never branches on what kind of handle the file
// came from.
type UploadedFile struct {
	OriginalName string
	Content      []byte
	Origin       string
}

// Validate checks that the upload carries bytes and an origin annotation.
func (f *UploadedFile) Validate() error {
	if len(f.Content) == 0 {
		return ErrEmptyUpload
	}

	f.Origin = strings.TrimSpace(f.Origin)
	if f.Origin == "" {
		return ErrMissingOrigin
	}

	return nil
}

// PromoteFile requests promoting a staged, unreferenced object into a
// record's attachment set. Size and content type come from the stored object
// itself, never from the request. The copy's destination key is ledgered
// exactly like a fresh upload.
type PromoteFile struct {
	SourceKey string `json:"source_key"`
	FileName  string `json:"file_name"`
	Origin    string `json:"origin"`
	MimeType  string `json:"mime_type,omitempty"`
}

// Validate checks the promote request's required fields.
func (p *PromoteFile) Validate() error {
	if p.SourceKey == "" {
		return ErrEmptyUpload
	}

	p.Origin = strings.TrimSpace(p.Origin)
	if p.Origin == "" {
		return ErrMissingOrigin
	}

	return nil
}
