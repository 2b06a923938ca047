// Package ledger holds the reconciled transaction ledger: one entry per
// invoice number, merged from email-derived extractions and uploaded bank
// statements.
package ledger

import (
	"fmt"

	"github.com/mteixeira/receipt-ledger/pkg/money"
)

// Provenance tags for ledger entries.
const (
	SourceEmail         = "email"
	SourceBankStatement = "bank statement"
	SourceCombined      = "email, bank statement"
)

// DefaultBankCategory is assigned to entries created from unmatched bank rows.
const DefaultBankCategory = "Bank Statement"

// Entry is one reconciled transaction, keyed by invoice number. The ledger
// never contains two entries with the same invoice number.
type Entry struct {
	InvoiceNumber string
	Date          string // YYYY-MM-DD
	Amount        float64
	Description   string
	Category      string
	Vendor        string
	Source        string
	PDFPath       string
	NeedsReview   bool
}

// UploadedRow remembers a bank-statement row that has been ingested, keyed by
// invoice number. Re-ingesting the same invoice number overwrites the row
// rather than duplicating it.
type UploadedRow struct {
	InvoiceNumber string
	Date          string
	Amount        float64
}

// Key is the composite match key: two records describe the same transaction
// iff their invoice numbers are identical and their amounts agree after
// rounding to the nearest whole currency unit. The rounding tolerance absorbs
// small extraction noise between a parsed PDF total and a bank-reported one.
type Key struct {
	InvoiceNumber string
	AmountUnits   int64
}

// KeyOf computes the match key for an invoice number and amount.
func KeyOf(invoiceNumber string, amount float64) Key {
	return Key{InvoiceNumber: invoiceNumber, AmountUnits: money.RoundUnit(amount)}
}

// MatchKey returns the entry's match key.
func (e *Entry) MatchKey() Key {
	return KeyOf(e.InvoiceNumber, e.Amount)
}

// UpgradeSource marks the entry as corroborated by a bank statement. It is
// idempotent: re-upgrading a combined source is a no-op.
func (e *Entry) UpgradeSource() {
	e.Source = SourceCombined
}

// BankDescription synthesizes the description for an entry created from an
// unmatched bank row.
func BankDescription(invoiceNumber string) string {
	return fmt.Sprintf("Bank statement entry - %s", invoiceNumber)
}
