package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mteixeira/receipt-ledger/internal/domain/statement"
)

type fakeStore struct {
	entries    map[string]*Entry
	uploaded   map[string]UploadedRow
	insertErr  error
	updateErr  error
	upsertErr  error
	insertions int
}

func newFakeStore(entries ...Entry) *fakeStore {
	s := &fakeStore{
		entries:  make(map[string]*Entry),
		uploaded: make(map[string]UploadedRow),
	}
	for i := range entries {
		e := entries[i]
		s.entries[e.InvoiceNumber] = &e
	}
	return s
}

func (s *fakeStore) ListLedgerEntries(ctx context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out, nil
}

func (s *fakeStore) InsertLedgerEntry(ctx context.Context, entry *Entry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.insertions++
	s.entries[entry.InvoiceNumber] = entry
	return nil
}

func (s *fakeStore) UpdateLedgerSource(ctx context.Context, invoiceNumber, source string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if e, ok := s.entries[invoiceNumber]; ok {
		e.Source = source
	}
	return nil
}

func (s *fakeStore) UpsertUploadedRow(ctx context.Context, row UploadedRow) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.uploaded[row.InvoiceNumber] = row
	return nil
}

func TestService_UploadStatement(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	emailEntry := Entry{
		InvoiceNumber: "INV-001",
		Date:          "2024-01-15",
		Amount:        45.00,
		Vendor:        "Shell",
		Source:        SourceEmail,
	}

	t.Run("matched row upgrades source and creates no ledger row", func(t *testing.T) {
		store := newFakeStore(emailEntry)
		svc := NewService(store, logger)

		summary, err := svc.UploadStatement(ctx, []statement.Row{
			{InvoiceNumber: "INV-001", Date: "2024-02-01", Amount: 45.00, Source: statement.SourceTag},
		})
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Matched)
		assert.Equal(t, 0, summary.Unmatched)
		assert.Equal(t, 0, store.insertions)
		assert.Equal(t, SourceCombined, store.entries["INV-001"].Source)
		assert.Contains(t, store.uploaded, "INV-001")
	})

	t.Run("unmatched row becomes a new ledger entry", func(t *testing.T) {
		store := newFakeStore(emailEntry)
		svc := NewService(store, logger)

		summary, err := svc.UploadStatement(ctx, []statement.Row{
			{InvoiceNumber: "INV-777", Date: "2024-02-01", Amount: 12.00, Source: statement.SourceTag},
		})
		require.NoError(t, err)

		assert.Equal(t, 0, summary.Matched)
		assert.Equal(t, 1, summary.Unmatched)
		entry := store.entries["INV-777"]
		require.NotNil(t, entry)
		assert.Equal(t, SourceBankStatement, entry.Source)
		assert.Equal(t, "Unknown", entry.Vendor)
		assert.Contains(t, store.uploaded, "INV-777")
	})

	t.Run("re-uploading the same file is idempotent", func(t *testing.T) {
		store := newFakeStore(emailEntry)
		svc := NewService(store, logger)

		rows := []statement.Row{
			{InvoiceNumber: "INV-001", Date: "2024-02-01", Amount: 45.00},
			{InvoiceNumber: "INV-777", Date: "2024-02-01", Amount: 12.00},
		}

		_, err := svc.UploadStatement(ctx, rows)
		require.NoError(t, err)
		firstCount := len(store.entries)

		// Second upload: INV-777 now exists in the ledger, so it matches
		// instead of inserting again.
		_, err = svc.UploadStatement(ctx, rows)
		require.NoError(t, err)

		assert.Equal(t, firstCount, len(store.entries))
		assert.Equal(t, SourceCombined, store.entries["INV-001"].Source)
	})

	t.Run("store failure aborts the upload", func(t *testing.T) {
		store := newFakeStore()
		store.insertErr = errors.New("connection reset")
		svc := NewService(store, logger)

		_, err := svc.UploadStatement(ctx, []statement.Row{
			{InvoiceNumber: "INV-1", Date: "2024-02-01", Amount: 1},
		})
		assert.Error(t, err)
	})
}
