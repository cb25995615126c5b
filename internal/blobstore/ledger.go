package blobstore

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/metrics"
	"github.com/cardledger/cardledger/internal/models"
)

// Ledger records every object-store write performed during one edit request
// so the writes can be compensated if the enclosing relational transaction
// aborts. The ledger is in-memory only: a process crash mid-request can
// orphan blobs, but nothing in the relational store ever references an
// uncommitted key, so that is a space leak rather than a correctness hazard.
type Ledger struct {
	store ObjectStore
	log   *logrus.Logger

	// onFailedDelete is invoked for compensating deletes that fail, so the
	// caller can queue a retry. May be nil.
	onFailedDelete func(bucket, key string)

	refs []ref
}

type ref struct {
	bucket string
	key    string
}

// NewLedger creates a ledger over the given object store.
func NewLedger(store ObjectStore, log *logrus.Logger, onFailedDelete func(bucket, key string)) *Ledger {
	return &Ledger{store: store, log: log, onFailedDelete: onFailedDelete}
}

// Put performs a tracked write: the bytes are stored and the (bucket, key)
// pair is recorded for compensation. Failures are surfaced as storage errors.
func (l *Ledger) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := l.store.Put(ctx, bucket, key, data, contentType); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorageIO, err)
	}

	l.refs = append(l.refs, ref{bucket: bucket, key: key})

	return nil
}

// Copy performs a tracked copy: the destination key is ledgered exactly like
// a fresh upload.
func (l *Ledger) Copy(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	if err := l.store.Copy(ctx, srcBucket, srcKey, dstBucket, dstKey); err != nil {
		return fmt.Errorf("%w: %w", models.ErrStorageIO, err)
	}

	l.refs = append(l.refs, ref{bucket: dstBucket, key: dstKey})

	return nil
}

// Tracked returns the number of writes recorded so far.
func (l *Ledger) Tracked() int { return len(l.refs) }

// Rollback deletes every recorded write in reverse order. It never returns
// an error: individual delete failures are logged and handed to the failure
// hook so a sweeper can retry them later.
func (l *Ledger) Rollback(ctx context.Context) {
	if len(l.refs) == 0 {
		return
	}

	metrics.BlobRollbacks.Inc()

	for i := len(l.refs) - 1; i >= 0; i-- {
		r := l.refs[i]
		if err := l.store.Delete(ctx, r.bucket, r.key); err != nil {
			l.log.WithError(err).WithFields(logrus.Fields{
				"bucket": r.bucket,
				"key":    r.key,
			}).Warn("rollback delete failed, blob orphaned")

			if l.onFailedDelete != nil {
				l.onFailedDelete(r.bucket, r.key)
			}
		}
	}

	l.refs = l.refs[:0]
}
