package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mteixeira/receipt-ledger/internal/domain/email"
	"github.com/mteixeira/receipt-ledger/internal/domain/ledger"
)

// anyArgs returns n pgxmock.AnyArg matchers; pgxmock always compares argument
// counts, so expectations that ignore argument values still need placeholders.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresStore) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresStore(mock)
}

func TestPostgresStore_ListLedgerEntries(t *testing.T) {
	mock, s := newMock(t)

	rows := pgxmock.NewRows([]string{
		"invoice_number", "date", "amount", "description", "category", "vendor", "source", "pdf_path", "needs_review",
	}).AddRow(
		"INV-001", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 45.0,
		"Your Shell fuel receipt", "Fuel", "Shell", ledger.SourceEmail, "invoices/INV-001.pdf", false,
	)

	mock.ExpectQuery(`SELECT invoice_number, date, .+, needs_review`).WillReturnRows(rows)

	entries, err := s.ListLedgerEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "INV-001", entries[0].InvoiceNumber)
	assert.Equal(t, "2024-01-15", entries[0].Date)
	assert.Equal(t, 45.0, entries[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertLedgerEntry(t *testing.T) {
	t.Run("insert succeeds", func(t *testing.T) {
		mock, s := newMock(t)
		mock.ExpectExec(`INSERT INTO ledger`).
			WithArgs("INV-001", "2024-01-15", 45.0, "desc", "Fuel", "Shell", ledger.SourceEmail, "invoices/INV-001.pdf", false).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := s.InsertLedgerEntry(context.Background(), &ledger.Entry{
			InvoiceNumber: "INV-001",
			Date:          "2024-01-15",
			Amount:        45.0,
			Description:   "desc",
			Category:      "Fuel",
			Vendor:        "Shell",
			Source:        ledger.SourceEmail,
			PDFPath:       "invoices/INV-001.pdf",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation surfaces as ErrDuplicateKey", func(t *testing.T) {
		mock, s := newMock(t)
		mock.ExpectExec(`INSERT INTO ledger`).
			WithArgs(anyArgs(9)...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := s.InsertLedgerEntry(context.Background(), &ledger.Entry{InvoiceNumber: "INV-001"})
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestPostgresStore_UpsertLedgerEntry(t *testing.T) {
	t.Run("fresh insert is not a replacement", func(t *testing.T) {
		mock, s := newMock(t)
		mock.ExpectQuery(`INSERT INTO ledger`).
			WithArgs(anyArgs(9)...).
			WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(false))

		replaced, err := s.UpsertLedgerEntry(context.Background(), &ledger.Entry{InvoiceNumber: "INV-001"})
		require.NoError(t, err)
		assert.False(t, replaced)
	})

	t.Run("conflict update reports replacement", func(t *testing.T) {
		mock, s := newMock(t)
		mock.ExpectQuery(`INSERT INTO ledger`).
			WithArgs(anyArgs(9)...).
			WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(true))

		replaced, err := s.UpsertLedgerEntry(context.Background(), &ledger.Entry{InvoiceNumber: "INV-001"})
		require.NoError(t, err)
		assert.True(t, replaced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_UpdateLedgerSource(t *testing.T) {
	t.Run("updates existing entry", func(t *testing.T) {
		mock, s := newMock(t)
		mock.ExpectExec(`UPDATE ledger SET source`).
			WithArgs("INV-001", ledger.SourceCombined).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := s.UpdateLedgerSource(context.Background(), "INV-001", ledger.SourceCombined)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing entry is ErrNotFound", func(t *testing.T) {
		mock, s := newMock(t)
		mock.ExpectExec(`UPDATE ledger SET source`).
			WithArgs("INV-404", ledger.SourceCombined).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := s.UpdateLedgerSource(context.Background(), "INV-404", ledger.SourceCombined)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPostgresStore_UpsertUploadedRow(t *testing.T) {
	mock, s := newMock(t)
	mock.ExpectExec(`INSERT INTO uploaded`).
		WithArgs("INV-001", "2024-02-01", 45.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.UpsertUploadedRow(context.Background(), ledger.UploadedRow{
		InvoiceNumber: "INV-001",
		Date:          "2024-02-01",
		Amount:        45.0,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPendingEmails(t *testing.T) {
	mock, s := newMock(t)

	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows([]string{
		"id", "subject", "sender", "received_at", "has_attachment", "body", "invoice_number", "pdf_url", "pdf_path", "created_at",
	}).AddRow(
		uuid.New(), "Your Shell fuel receipt", "receipts@shell.com",
		time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), true, "body",
		"INV-001", "", "invoices/INV-001.pdf", created,
	)

	mock.ExpectQuery(`SELECT e\.id, e\.subject, .+, e\.created_at`).WillReturnRows(rows)

	emails, err := s.ListPendingEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, emails, 1)
	assert.Equal(t, "INV-001", emails[0].InvoiceNumber)
	assert.Equal(t, created, emails[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertEmail(t *testing.T) {
	mock, s := newMock(t)

	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	e := &email.Email{
		ID:            uuid.New(),
		Subject:       "Your Shell fuel receipt",
		Sender:        "receipts@shell.com",
		ReceivedAt:    time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		HasAttachment: true,
		Body:          "body",
		InvoiceNumber: "INV-001",
		PDFPath:       "invoices/INV-001.pdf",
		CreatedAt:     created,
	}

	mock.ExpectExec(`INSERT INTO emails`).
		WithArgs(e.ID, e.Subject, e.Sender, e.ReceivedAt, e.HasAttachment, e.Body, e.InvoiceNumber, e.PDFURL, e.PDFPath, created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.InsertEmail(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}
