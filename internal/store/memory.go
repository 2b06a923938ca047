package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mteixeira/receipt-ledger/internal/domain/email"
	"github.com/mteixeira/receipt-ledger/internal/domain/ledger"
)

// MemoryStore is an in-memory Store for tests and local runs without a
// database. Insert-or-upgrade by invoice number is atomic under its lock,
// mirroring the upsert guarantee of the postgres backend.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]ledger.Entry
	emails   []email.Email
	uploaded map[string]ledger.UploadedRow
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]ledger.Entry),
		uploaded: make(map[string]ledger.UploadedRow),
	}
}

func (s *MemoryStore) ListLedgerEntries(ctx context.Context) ([]ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ledger.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *MemoryStore) GetLedgerEntry(ctx context.Context, invoiceNumber string) (*ledger.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[invoiceNumber]
	if !ok {
		return nil, fmt.Errorf("%w: ledger entry %s", ErrNotFound, invoiceNumber)
	}
	return &e, nil
}

func (s *MemoryStore) InsertLedgerEntry(ctx context.Context, entry *ledger.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.InvoiceNumber]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, entry.InvoiceNumber)
	}
	s.entries[entry.InvoiceNumber] = *entry
	return nil
}

func (s *MemoryStore) UpsertLedgerEntry(ctx context.Context, entry *ledger.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced := s.entries[entry.InvoiceNumber]
	s.entries[entry.InvoiceNumber] = *entry
	return replaced, nil
}

func (s *MemoryStore) UpdateLedgerSource(ctx context.Context, invoiceNumber, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[invoiceNumber]
	if !ok {
		return fmt.Errorf("%w: ledger entry %s", ErrNotFound, invoiceNumber)
	}
	e.Source = source
	s.entries[invoiceNumber] = e
	return nil
}

func (s *MemoryStore) ListTransactionLedger(ctx context.Context) ([]TransactionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TransactionRow, 0, len(s.entries))
	for _, e := range s.entries {
		row := TransactionRow{Entry: e}
		if up, ok := s.uploaded[e.InvoiceNumber]; ok {
			amount := up.Amount
			date := up.Date
			row.BankAmount = &amount
			row.BankDate = &date
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *MemoryStore) InsertEmail(ctx context.Context, e *email.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emails = append(s.emails, *e)
	return nil
}

func (s *MemoryStore) ListPendingEmails(ctx context.Context) ([]email.Email, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []email.Email
	for _, e := range s.emails {
		if !e.HasAttachment || e.InvoiceNumber == "" {
			continue
		}
		if _, ok := s.entries[e.InvoiceNumber]; ok {
			continue
		}
		pending = append(pending, e)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ReceivedAt.After(pending[j].ReceivedAt) })
	return pending, nil
}

func (s *MemoryStore) UpsertUploadedRow(ctx context.Context, row ledger.UploadedRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploaded[row.InvoiceNumber] = row
	return nil
}
