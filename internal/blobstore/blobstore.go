// Package blobstore abstracts the external object store and provides the
// compensation ledger that keeps object-store side effects consistent with
// the relational transaction they belong to.
package blobstore

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested object does not exist.
var ErrNotFound = errors.New("blob not found")

// ObjectInfo is the stored metadata of one object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// ObjectStore is the opaque key→bytes service the core writes attachments
// to. Keys are opaque strings scoped by a folder-style prefix per record.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
	Get(ctx context.Context, bucket, key string) (data []byte, contentType string, err error)
	Delete(ctx context.Context, bucket, key string) error
	Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Attrs(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
