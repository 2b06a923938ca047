// Package sync drives the receipt pipeline end to end: it pulls pending
// inbox records, extracts amounts from their PDF attachments, and writes
// ledger entries keyed by invoice number.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/mteixeira/receipt-ledger/internal/domain/categorize"
	"github.com/mteixeira/receipt-ledger/internal/domain/email"
	"github.com/mteixeira/receipt-ledger/internal/domain/extract"
	"github.com/mteixeira/receipt-ledger/internal/domain/ledger"
	"github.com/mteixeira/receipt-ledger/internal/metrics"
	"github.com/mteixeira/receipt-ledger/pkg/config"
)

// Placeholder amounts are drawn uniformly from [placeholderMin, placeholderMax].
const (
	placeholderMin = 75
	placeholderMax = 125
)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	ListPendingEmails(ctx context.Context) ([]email.Email, error)
	UpsertLedgerEntry(ctx context.Context, entry *ledger.Entry) (replaced bool, err error)
}

// BlobStore resolves and reads stored PDF attachments.
type BlobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	PublicURL(path string) string
}

// BatchExtractor extracts amounts from many PDF URLs concurrently.
type BatchExtractor interface {
	BatchExtract(ctx context.Context, urls []string) []extract.Result
}

// DocumentExtractor extracts an amount from raw PDF bytes.
type DocumentExtractor interface {
	Extract(data []byte) extract.Result
}

// ItemResult reports the outcome of one record in a sync run.
type ItemResult struct {
	InvoiceNumber string
	Outcome       string // "recorded", "placeholder", "flagged", "skipped", "failed"
	Error         string
}

// Report summarizes one sync run.
type Report struct {
	Total     int
	Processed int
	Results   []ItemResult
}

// Orchestrator runs the periodic sync. Records that are already in the ledger
// are never reprocessed; the store's pending query excludes them.
type Orchestrator struct {
	store       Store
	blobs       BlobStore
	batcher     BatchExtractor
	extractor   DocumentExtractor
	categorizer *categorize.Categorizer
	policy      config.FailurePolicy
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now func() time.Time
	rng *rand.Rand
}

// NewOrchestrator wires the sync pipeline together.
func NewOrchestrator(
	store Store,
	blobs BlobStore,
	batcher BatchExtractor,
	extractor DocumentExtractor,
	categorizer *categorize.Categorizer,
	policy config.FailurePolicy,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:       store,
		blobs:       blobs,
		batcher:     batcher,
		extractor:   extractor,
		categorizer: categorizer,
		policy:      policy,
		metrics:     m,
		logger:      logger,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SyncPending processes every inbox record whose invoice number is not yet in
// the ledger. One record's failure never aborts the run: it is recorded in
// the report and processing continues.
func (o *Orchestrator) SyncPending(ctx context.Context) (*Report, error) {
	start := o.now()

	pending, err := o.store.ListPendingEmails(ctx)
	if err != nil {
		o.metrics.SyncRuns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("listing pending emails: %w", err)
	}

	report := &Report{Total: len(pending)}
	if len(pending) == 0 {
		o.metrics.SyncRuns.WithLabelValues("success").Inc()
		o.logger.Info("sync complete, nothing pending")
		return report, nil
	}

	urls := make([]string, len(pending))
	for i, e := range pending {
		urls[i] = o.resolveURL(e)
	}

	results := o.batcher.BatchExtract(ctx, urls)

	for i, e := range pending {
		item := o.record(ctx, e, results[i])
		report.Results = append(report.Results, item)
		if item.Outcome != "failed" && item.Outcome != "skipped" {
			report.Processed++
		}
		o.metrics.RecordsProcessed.WithLabelValues(item.Outcome).Inc()
	}

	o.metrics.SyncRuns.WithLabelValues("success").Inc()
	o.metrics.SyncDuration.Observe(o.now().Sub(start).Seconds())

	o.logger.Info("sync complete",
		slog.Int("total", report.Total),
		slog.Int("processed", report.Processed),
	)
	return report, nil
}

// record turns one extraction result into a ledger entry according to the
// configured failure policy.
func (o *Orchestrator) record(ctx context.Context, e email.Email, res extract.Result) ItemResult {
	item := ItemResult{InvoiceNumber: e.InvoiceNumber}

	vendor := VendorFromSender(e.Sender)
	entry := &ledger.Entry{
		InvoiceNumber: e.InvoiceNumber,
		Date:          e.ReceivedAt.Format("2006-01-02"),
		Amount:        res.Amount,
		Description:   e.Subject,
		Category:      o.categorizer.Categorize(vendor, e.Subject),
		Vendor:        vendor,
		Source:        ledger.SourceEmail,
		PDFPath:       e.PDFPath,
	}

	switch {
	case res.Success:
		item.Outcome = "recorded"
	default:
		switch o.policy {
		case config.FailureSkip:
			item.Outcome = "skipped"
			item.Error = res.Error
			o.logger.Warn("extraction failed, skipping record",
				slog.String("invoice_number", e.InvoiceNumber),
				slog.String("error", res.Error),
			)
			return item
		case config.FailureFlag:
			item.Outcome = "flagged"
			item.Error = res.Error
			entry.Amount = 0
			entry.NeedsReview = true
		default: // FailurePlaceholder
			item.Outcome = "placeholder"
			item.Error = res.Error
			entry.Amount = float64(placeholderMin + o.rng.Intn(placeholderMax-placeholderMin+1))
			entry.NeedsReview = true
			o.logger.Warn("extraction failed, using placeholder amount, needs manual review",
				slog.String("invoice_number", e.InvoiceNumber),
				slog.Float64("amount", entry.Amount),
				slog.String("error", res.Error),
			)
		}
	}

	replaced, err := o.store.UpsertLedgerEntry(ctx, entry)
	if err != nil {
		item.Outcome = "failed"
		item.Error = err.Error()
		o.logger.Error("failed to write ledger entry",
			slog.String("invoice_number", e.InvoiceNumber),
			slog.Any("error", err),
		)
		return item
	}
	if replaced {
		o.logger.Debug("ledger entry overwritten, last writer wins",
			slog.String("invoice_number", e.InvoiceNumber),
		)
	}
	return item
}

// ProcessStored sweeps the blob store's invoice prefix and records a ledger
// entry for each stored PDF, keyed by the file's base name. It backfills
// documents that never arrived through the inbox.
func (o *Orchestrator) ProcessStored(ctx context.Context) (*Report, error) {
	paths, err := o.blobs.List(ctx, "invoices")
	if err != nil {
		return nil, fmt.Errorf("listing stored invoices: %w", err)
	}

	report := &Report{Total: len(paths)}
	for _, p := range paths {
		invoice := strings.TrimSuffix(path.Base(p), path.Ext(p))
		item := ItemResult{InvoiceNumber: invoice}

		data, err := o.blobs.Download(ctx, p)
		if err != nil {
			item.Outcome = "failed"
			item.Error = err.Error()
			report.Results = append(report.Results, item)
			o.logger.Error("failed to download stored invoice",
				slog.String("path", p),
				slog.Any("error", err),
			)
			continue
		}

		decodeStart := o.now()
		res := o.extractor.Extract(data)
		o.metrics.ExtractionDuration.Observe(o.now().Sub(decodeStart).Seconds())

		entry := &ledger.Entry{
			InvoiceNumber: invoice,
			Date:          o.now().Format("2006-01-02"),
			Amount:        res.Amount,
			Description:   fmt.Sprintf("Stored invoice %s", invoice),
			Category:      categorize.DefaultCategory,
			Vendor:        "Unknown",
			Source:        ledger.SourceEmail,
			PDFPath:       p,
			NeedsReview:   !res.Success,
		}
		if res.Success {
			item.Outcome = "recorded"
		} else {
			item.Outcome = "flagged"
			item.Error = res.Error
		}

		replaced, err := o.store.UpsertLedgerEntry(ctx, entry)
		switch {
		case err != nil:
			item.Outcome = "failed"
			item.Error = err.Error()
			o.logger.Error("failed to write ledger entry",
				slog.String("invoice_number", invoice),
				slog.Any("error", err),
			)
		default:
			if replaced {
				o.logger.Debug("ledger entry overwritten, last writer wins",
					slog.String("invoice_number", invoice),
				)
			}
			report.Processed++
		}
		report.Results = append(report.Results, item)
	}

	o.logger.Info("stored invoice sweep complete",
		slog.Int("total", report.Total),
		slog.Int("processed", report.Processed),
	)
	return report, nil
}

// resolveURL picks the fetchable location of a record's PDF: an explicit URL
// wins, otherwise the blob store's public URL for the stored path.
func (o *Orchestrator) resolveURL(e email.Email) string {
	if e.PDFURL != "" {
		return e.PDFURL
	}
	if e.PDFPath != "" {
		return o.blobs.PublicURL(e.PDFPath)
	}
	return ""
}

// VendorFromSender derives a display vendor from an email address: the sender
// domain with its TLD stripped and the first letter capitalized, so
// "receipts@shell.com" becomes "Shell".
func VendorFromSender(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return "Unknown"
	}
	domain := sender[at+1:]

	labels := strings.Split(domain, ".")
	name := labels[0]
	if name == "" {
		return "Unknown"
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}
