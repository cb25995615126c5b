// Command cardledger runs the catalog moderation server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cardledger/cardledger/internal/api"
	"github.com/cardledger/cardledger/internal/blobstore"
	"github.com/cardledger/cardledger/internal/config"
	"github.com/cardledger/cardledger/internal/db"
	"github.com/cardledger/cardledger/internal/db/migrations"
	"github.com/cardledger/cardledger/internal/dbpool"
	"github.com/cardledger/cardledger/internal/service"
	"github.com/cardledger/cardledger/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cardledger:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := dbpool.NewPool(ctx, cfg.DatabaseURL.Value())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
		return err
	}

	objects, closeObjects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeObjects()

	base := store.Base{Pool: pool, Log: log}
	records := store.NewRecordStore(base, cfg.MediaPrefix)
	labels := store.NewLabelStore(base)
	attachments := store.NewAttachmentStore(base)
	proposals := store.NewProposalStore(base)
	events := store.NewEventStore(base)
	users := store.NewUserStore(base)
	edits := store.NewEditStore(base)

	sweeper := service.NewSweepWorker(objects, log, cfg.SweepQueue)

	recordSvc := service.NewRecordService(records, labels, attachments, cfg.DefaultQuota)
	editSvc := service.NewEditService(edits, records, objects, sweeper, log, cfg.MediaBucket, cfg.StagingBucket)
	proposalSvc := service.NewProposalService(proposals, events, users, log)

	router := api.NewRouter(&api.RouterDeps{
		Log:         log,
		Pool:        pool,
		Records:     recordSvc,
		Edits:       editSvc,
		Proposals:   proposalSvc,
		Users:       users,
		ActorLookup: users,
		CORSOrigins: cfg.CORSOrigins,
		Version:     config.Version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.WithField("addr", cfg.Addr()).Info("server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newObjectStore picks the configured ObjectStore backend.
func newObjectStore(ctx context.Context, cfg *config.Config) (blobstore.ObjectStore, func(), error) {
	switch cfg.ObjectStore {
	case "memory":
		return blobstore.NewMemory(), func() {}, nil
	default:
		gcs, err := blobstore.NewGCS(ctx)
		if err != nil {
			return nil, nil, err
		}

		return gcs, func() { gcs.Close() }, nil //nolint:errcheck // close on shutdown.
	}
}
