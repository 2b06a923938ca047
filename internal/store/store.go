// Package store persists the ledger, the synthetic inbox, and the record of
// ingested bank-statement rows. PostgresStore is the production backend;
// MemoryStore backs tests and local experimentation.
package store

import (
	"context"
	"errors"

	"github.com/mteixeira/receipt-ledger/internal/domain/email"
	"github.com/mteixeira/receipt-ledger/internal/domain/ledger"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when an insert collides with an existing
	// invoice number. Callers that want last-writer-wins semantics use the
	// upsert operations instead.
	ErrDuplicateKey = errors.New("duplicate invoice number")
)

// TransactionRow is one row of the combined transaction ledger: the ledger
// entry plus the bank-statement evidence recorded for it, when any.
type TransactionRow struct {
	ledger.Entry
	BankAmount *float64
	BankDate   *string
}

// Store is the full persistence surface of the pipeline.
type Store interface {
	// Ledger
	ListLedgerEntries(ctx context.Context) ([]ledger.Entry, error)
	GetLedgerEntry(ctx context.Context, invoiceNumber string) (*ledger.Entry, error)
	InsertLedgerEntry(ctx context.Context, entry *ledger.Entry) error
	// UpsertLedgerEntry writes the entry for its invoice number, last writer
	// wins. It reports whether an existing entry was replaced so callers can
	// log the overwrite.
	UpsertLedgerEntry(ctx context.Context, entry *ledger.Entry) (replaced bool, err error)
	UpdateLedgerSource(ctx context.Context, invoiceNumber, source string) error
	ListTransactionLedger(ctx context.Context) ([]TransactionRow, error)

	// Inbox
	InsertEmail(ctx context.Context, e *email.Email) error
	ListPendingEmails(ctx context.Context) ([]email.Email, error)

	// Uploaded bank rows
	UpsertUploadedRow(ctx context.Context, row ledger.UploadedRow) error
}
