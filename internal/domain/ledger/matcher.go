package ledger

import (
	"github.com/mteixeira/receipt-ledger/internal/domain/statement"
)

// Match pairs a bank row with the existing ledger entry it corroborates. The
// entry keeps its email-derived date, amount, description and vendor; the bank
// row's raw figures ride along as supplementary evidence.
type Match struct {
	Entry      Entry // source already upgraded
	BankDate   string
	BankAmount float64
}

// ReconcileResult partitions bank rows into those matching an existing ledger
// entry and those that will become new entries.
type ReconcileResult struct {
	Matched   []Match
	Unmatched []statement.Row
}

// Reconcile merges bank-statement rows into the existing ledger by match key.
// It is the single source of truth for the match key and merge policy, and it
// is idempotent: reconciling the same inputs twice yields the same state.
func Reconcile(existing []Entry, rows []statement.Row) ReconcileResult {
	byKey := make(map[Key]Entry, len(existing))
	for _, e := range existing {
		byKey[e.MatchKey()] = e
	}

	var result ReconcileResult
	for _, row := range rows {
		entry, ok := byKey[KeyOf(row.InvoiceNumber, row.Amount)]
		if !ok {
			result.Unmatched = append(result.Unmatched, row)
			continue
		}

		entry.UpgradeSource()
		result.Matched = append(result.Matched, Match{
			Entry:      entry,
			BankDate:   row.Date,
			BankAmount: row.Amount,
		})
	}
	return result
}

// NewEntryFromRow creates a ledger entry for a bank row that matched nothing.
func NewEntryFromRow(row statement.Row) Entry {
	return Entry{
		InvoiceNumber: row.InvoiceNumber,
		Date:          row.Date,
		Amount:        row.Amount,
		Description:   BankDescription(row.InvoiceNumber),
		Category:      DefaultBankCategory,
		Vendor:        "Unknown",
		Source:        SourceBankStatement,
	}
}
