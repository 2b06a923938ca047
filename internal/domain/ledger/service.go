package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mteixeira/receipt-ledger/internal/domain/statement"
	"github.com/mteixeira/receipt-ledger/pkg/money"
)

// Store is the persistence the upload service needs. Matched bank rows are
// recorded in the uploaded set even though they create no new ledger row, so
// re-running ingestion against the same file is detectable and idempotent.
type Store interface {
	ListLedgerEntries(ctx context.Context) ([]Entry, error)
	InsertLedgerEntry(ctx context.Context, entry *Entry) error
	UpdateLedgerSource(ctx context.Context, invoiceNumber, source string) error
	UpsertUploadedRow(ctx context.Context, row UploadedRow) error
}

// UploadSummary reports the outcome of one statement upload.
type UploadSummary struct {
	Matched   int
	Unmatched int
	Result    ReconcileResult
}

// Service applies ingested bank statements to the persisted ledger.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates the statement upload service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// UploadStatement reconciles bank rows against the current ledger and
// persists the outcome. Store failures here are fatal for the whole upload;
// by the time rows reach this method they have already passed validation.
func (s *Service) UploadStatement(ctx context.Context, rows []statement.Row) (*UploadSummary, error) {
	existing, err := s.store.ListLedgerEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}

	result := Reconcile(existing, rows)

	for _, row := range result.Unmatched {
		if err := s.store.UpsertUploadedRow(ctx, UploadedRow{
			InvoiceNumber: row.InvoiceNumber,
			Date:          row.Date,
			Amount:        row.Amount,
		}); err != nil {
			return nil, fmt.Errorf("failed to record uploaded row %s: %w", row.InvoiceNumber, err)
		}

		entry := NewEntryFromRow(row)
		if err := s.store.InsertLedgerEntry(ctx, &entry); err != nil {
			return nil, fmt.Errorf("failed to insert ledger entry %s: %w", row.InvoiceNumber, err)
		}
	}

	for _, match := range result.Matched {
		if err := s.store.UpsertUploadedRow(ctx, UploadedRow{
			InvoiceNumber: match.Entry.InvoiceNumber,
			Date:          match.BankDate,
			Amount:        match.BankAmount,
		}); err != nil {
			return nil, fmt.Errorf("failed to record uploaded row %s: %w", match.Entry.InvoiceNumber, err)
		}

		if err := s.store.UpdateLedgerSource(ctx, match.Entry.InvoiceNumber, SourceCombined); err != nil {
			return nil, fmt.Errorf("failed to update ledger source for %s: %w", match.Entry.InvoiceNumber, err)
		}

		s.logger.Debug("bank row matched ledger entry",
			slog.String("invoice_number", match.Entry.InvoiceNumber),
			slog.String("bank_amount", money.FormatUSD(match.BankAmount)),
		)
	}

	s.logger.Info("statement upload applied",
		slog.Int("matched", len(result.Matched)),
		slog.Int("unmatched", len(result.Unmatched)),
	)

	return &UploadSummary{
		Matched:   len(result.Matched),
		Unmatched: len(result.Unmatched),
		Result:    result,
	}, nil
}
