package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mteixeira/receipt-ledger/internal/domain/email"
	"github.com/mteixeira/receipt-ledger/internal/domain/statement"
	"github.com/mteixeira/receipt-ledger/pkg/config"
)

// syncJobTimeout bounds one scheduled sync run end to end.
const syncJobTimeout = 10 * time.Minute

func main() {
	seedCount := flag.Int("seed", 0, "generate N synthetic inbox emails and exit")
	statementPath := flag.String("statement", "", "ingest a bank statement file (.csv or .xlsx) and exit")
	runOnce := flag.Bool("once", false, "run a single sync and exit instead of scheduling")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger, *seedCount, *statementPath, *runOnce); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, seedCount int, statementPath string, runOnce bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := InitDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	switch {
	case seedCount > 0:
		return seedInbox(ctx, deps, seedCount)
	case statementPath != "":
		return ingestStatement(ctx, deps, statementPath)
	case runOnce:
		report, err := deps.Orchestrator.SyncPending(ctx)
		if err != nil {
			return err
		}
		logger.Info("sync finished",
			slog.Int("total", report.Total),
			slog.Int("processed", report.Processed),
		)
		return nil
	}

	return serve(ctx, deps)
}

// serve runs the scheduler until the process is signalled.
func serve(ctx context.Context, deps *Dependencies) error {
	if err := deps.Scheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	var metricsSrv *http.Server
	if deps.Config.Observability.MetricsEnabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", deps.Metrics.Handler())
		metricsSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", deps.Config.Observability.MetricsPort),
			Handler: mux,
		}
		go func() {
			deps.Logger.Info("metrics listener started", slog.String("addr", metricsSrv.Addr))
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				deps.Logger.Error("metrics listener failed", slog.Any("error", err))
			}
		}()
	}

	<-ctx.Done()
	deps.Logger.Info("shutdown signal received")

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Warn("metrics listener shutdown failed", slog.Any("error", err))
		}
	}
	return nil
}

// seedInbox fills the inbox with synthetic emails for local runs. Each
// receipt email gets a rendered invoice PDF in the blob store so a following
// sync exercises real extraction.
func seedInbox(ctx context.Context, deps *Dependencies, n int) error {
	gen := email.NewGenerator(time.Now().UnixNano())
	receipts := 0
	for _, e := range gen.GenerateBatch(n) {
		if err := deps.Store.InsertEmail(ctx, &e); err != nil {
			return fmt.Errorf("inserting email %s: %w", e.ID, err)
		}
		if !e.HasAttachment {
			continue
		}

		inv := gen.Invoice(e)
		if _, err := deps.Blobs.Upload(ctx, e.PDFPath, inv.PDF(), "application/pdf"); err != nil {
			return fmt.Errorf("uploading invoice %s: %w", e.InvoiceNumber, err)
		}
		receipts++
	}
	deps.Logger.Info("inbox seeded", slog.Int("emails", n), slog.Int("invoices", receipts))
	return nil
}

// ingestStatement uploads one bank statement file into the ledger.
func ingestStatement(ctx context.Context, deps *Dependencies, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	var rows []statement.Row
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = deps.Ingestor.IngestExcel(f)
	} else {
		rows, err = deps.Ingestor.Ingest(f)
	}
	if err != nil {
		return fmt.Errorf("ingesting statement: %w", err)
	}

	summary, err := deps.LedgerService.UploadStatement(ctx, rows)
	if err != nil {
		return fmt.Errorf("uploading statement: %w", err)
	}

	deps.Logger.Info("statement uploaded",
		slog.Int("rows", len(rows)),
		slog.Int("matched", summary.Matched),
		slog.Int("unmatched", summary.Unmatched),
	)
	return nil
}
