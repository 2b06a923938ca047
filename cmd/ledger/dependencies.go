package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mteixeira/receipt-ledger/internal/domain/categorize"
	"github.com/mteixeira/receipt-ledger/internal/domain/extract"
	"github.com/mteixeira/receipt-ledger/internal/domain/ledger"
	"github.com/mteixeira/receipt-ledger/internal/domain/statement"
	syncsvc "github.com/mteixeira/receipt-ledger/internal/domain/sync"
	"github.com/mteixeira/receipt-ledger/internal/metrics"
	"github.com/mteixeira/receipt-ledger/internal/store"
	"github.com/mteixeira/receipt-ledger/pkg/config"
	"github.com/mteixeira/receipt-ledger/pkg/cron"
	"github.com/mteixeira/receipt-ledger/pkg/db"
	"github.com/mteixeira/receipt-ledger/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config  *config.Config
	DB      *db.DB
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Store store.Store
	Blobs storage.BlobStore

	Extractor   *extract.Extractor
	Batcher     *extract.Batcher
	Categorizer *categorize.Categorizer

	Ingestor      *statement.Ingestor
	LedgerService *ledger.Service
	Orchestrator  *syncsvc.Orchestrator
	Scheduler     *cron.Scheduler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase connects the pool, runs migrations, and builds the store.
func (d *Dependencies) initDatabase(ctx context.Context) error {
	database, err := db.New(ctx, &d.Config.Database, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database
	d.Store = store.NewPostgresStore(database.Pool)

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initStorage builds the blob store that holds invoice PDFs.
func (d *Dependencies) initStorage() error {
	blobs, err := storage.NewLocalStore(d.Config.Storage.LocalPath, d.Config.Storage.PublicBaseURL)
	if err != nil {
		return err
	}
	d.Blobs = blobs

	d.Logger.Info("blob storage initialized", slog.String("path", d.Config.Storage.LocalPath))
	return nil
}

// initServices wires the extraction pipeline, the upload service, the sync
// orchestrator, and its scheduler.
func (d *Dependencies) initServices() error {
	syncCfg := d.Config.Sync

	d.Extractor = extract.NewExtractor(nil, syncCfg.FetchTimeout, d.Logger)
	d.Batcher = extract.NewBatcher(d.Extractor, syncCfg.BatchWorkers, syncCfg.FetchRatePerSecond, d.Logger)
	d.Categorizer = categorize.New()

	d.Ingestor = statement.NewIngestor()
	d.LedgerService = ledger.NewService(d.Store, d.Logger)

	d.Orchestrator = syncsvc.NewOrchestrator(
		d.Store,
		d.Blobs,
		d.Batcher,
		d.Extractor,
		d.Categorizer,
		syncCfg.OnExtractionFailure,
		d.Metrics,
		d.Logger,
	)

	job := cron.JobFunc(func(ctx context.Context) error {
		_, err := d.Orchestrator.SyncPending(ctx)
		return err
	})
	d.Scheduler = cron.NewScheduler(syncCfg.Schedule, job, syncJobTimeout, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.Scheduler != nil && d.Scheduler.IsRunning() {
		<-d.Scheduler.Stop().Done()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
