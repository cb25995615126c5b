package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/blobstore"
	"github.com/cardledger/cardledger/internal/metrics"
)

const sweepDeleteTimeout = 30 * time.Second

// SweepJob identifies one orphaned blob to delete.
type SweepJob struct {
	Bucket string
	Key    string
}

// SweepWorker buffers orphaned-blob deletions and retires them via a single
// worker goroutine. Orphans come from compensating deletes that failed
// mid-rollback and from post-commit releases that failed.
type SweepWorker struct {
	objects blobstore.ObjectStore
	log     *logrus.Logger
	jobs    chan SweepJob
}

// NewSweepWorker creates a SweepWorker with the given queue capacity.
func NewSweepWorker(objects blobstore.ObjectStore, log *logrus.Logger, queueSize int) *SweepWorker {
	if queueSize <= 0 {
		queueSize = 1000
	}

	return &SweepWorker{
		objects: objects,
		log:     log,
		jobs:    make(chan SweepJob, queueSize),
	}
}

// Enqueue adds a sweep job. Non-blocking; drops the job if the queue is full.
func (w *SweepWorker) Enqueue(job SweepJob) {
	select {
	case w.jobs <- job:
		metrics.SweepQueueDepth.Set(float64(len(w.jobs)))
	default:
		w.log.WithField("key", job.Key).Warn("sweep queue full, dropping orphaned blob")
	}
}

// Run processes sweep jobs until the context is cancelled, then drains
// remaining jobs.
func (w *SweepWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return
		case job := <-w.jobs:
			w.process(job)
		}
	}
}

func (w *SweepWorker) drain() {
	for {
		select {
		case job := <-w.jobs:
			w.process(job)
		default:
			return
		}
	}
}

func (w *SweepWorker) process(job SweepJob) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepDeleteTimeout)
	defer cancel()

	err := w.objects.Delete(ctx, job.Bucket, job.Key)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		w.log.WithError(err).WithField("key", job.Key).Warn("sweeping orphaned blob failed")
	}

	metrics.SweepQueueDepth.Set(float64(len(w.jobs)))
}
