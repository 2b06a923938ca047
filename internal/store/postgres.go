package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mteixeira/receipt-ledger/internal/domain/email"
	"github.com/mteixeira/receipt-ledger/internal/domain/ledger"
)

const dateLayout = "2006-01-02"

// DB is the subset of pgxpool.Pool the store uses; pgxmock satisfies it in
// tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListLedgerEntries returns every ledger entry
func (s *PostgresStore) ListLedgerEntries(ctx context.Context) ([]ledger.Entry, error) {
	query := `
		SELECT invoice_number, date, amount, description, category, vendor, source, pdf_path, needs_review
		FROM ledger
		ORDER BY date DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return entries, nil
}

// GetLedgerEntry retrieves one entry by invoice number
func (s *PostgresStore) GetLedgerEntry(ctx context.Context, invoiceNumber string) (*ledger.Entry, error) {
	query := `
		SELECT invoice_number, date, amount, description, category, vendor, source, pdf_path, needs_review
		FROM ledger
		WHERE invoice_number = $1`

	entry, err := scanEntry(s.db.QueryRow(ctx, query, invoiceNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: ledger entry %s", ErrNotFound, invoiceNumber)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// InsertLedgerEntry inserts a new entry. A colliding invoice number surfaces
// as ErrDuplicateKey rather than a silent overwrite.
func (s *PostgresStore) InsertLedgerEntry(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger (invoice_number, date, amount, description, category, vendor, source, pdf_path, needs_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.Exec(ctx, query,
		entry.InvoiceNumber,
		entry.Date,
		entry.Amount,
		entry.Description,
		entry.Category,
		entry.Vendor,
		entry.Source,
		entry.PDFPath,
		entry.NeedsReview,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, entry.InvoiceNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return nil
}

// UpsertLedgerEntry inserts or replaces the entry for its invoice number.
// Last writer wins; the returned flag reports whether an existing entry was
// replaced. The xmax check distinguishes a conflict update from a fresh
// insert.
func (s *PostgresStore) UpsertLedgerEntry(ctx context.Context, entry *ledger.Entry) (bool, error) {
	query := `
		INSERT INTO ledger (invoice_number, date, amount, description, category, vendor, source, pdf_path, needs_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (invoice_number) DO UPDATE SET
			date = EXCLUDED.date,
			amount = EXCLUDED.amount,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			vendor = EXCLUDED.vendor,
			source = EXCLUDED.source,
			pdf_path = EXCLUDED.pdf_path,
			needs_review = EXCLUDED.needs_review,
			updated_at = now()
		RETURNING (xmax <> 0)`

	var replaced bool
	err := s.db.QueryRow(ctx, query,
		entry.InvoiceNumber,
		entry.Date,
		entry.Amount,
		entry.Description,
		entry.Category,
		entry.Vendor,
		entry.Source,
		entry.PDFPath,
		entry.NeedsReview,
	).Scan(&replaced)
	if err != nil {
		return false, fmt.Errorf("failed to upsert ledger entry: %w", err)
	}
	return replaced, nil
}

// UpdateLedgerSource updates the provenance tag for one entry
func (s *PostgresStore) UpdateLedgerSource(ctx context.Context, invoiceNumber, source string) error {
	query := `UPDATE ledger SET source = $2, updated_at = now() WHERE invoice_number = $1`

	tag, err := s.db.Exec(ctx, query, invoiceNumber, source)
	if err != nil {
		return fmt.Errorf("failed to update ledger source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %s", ErrNotFound, invoiceNumber)
	}
	return nil
}

// ListTransactionLedger returns ledger entries joined with their uploaded
// bank-statement evidence
func (s *PostgresStore) ListTransactionLedger(ctx context.Context) ([]TransactionRow, error) {
	query := `
		SELECT l.invoice_number, l.date, l.amount, l.description, l.category, l.vendor, l.source, l.pdf_path, l.needs_review,
		       u.amount, u.date
		FROM ledger l
		LEFT JOIN uploaded u USING (invoice_number)
		ORDER BY l.date DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction ledger: %w", err)
	}
	defer rows.Close()

	var out []TransactionRow
	for rows.Next() {
		var (
			row      TransactionRow
			date     time.Time
			bankDate *time.Time
		)
		err := rows.Scan(
			&row.InvoiceNumber,
			&date,
			&row.Amount,
			&row.Description,
			&row.Category,
			&row.Vendor,
			&row.Source,
			&row.PDFPath,
			&row.NeedsReview,
			&row.BankAmount,
			&bankDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		row.Date = date.Format(dateLayout)
		if bankDate != nil {
			formatted := bankDate.Format(dateLayout)
			row.BankDate = &formatted
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transaction ledger: %w", err)
	}
	return out, nil
}

// InsertEmail stores one inbox record
func (s *PostgresStore) InsertEmail(ctx context.Context, e *email.Email) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO emails (id, subject, sender, received_at, has_attachment, body, invoice_number, pdf_url, pdf_path, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.Exec(ctx, query,
		e.ID,
		e.Subject,
		e.Sender,
		e.ReceivedAt,
		e.HasAttachment,
		e.Body,
		e.InvoiceNumber,
		e.PDFURL,
		e.PDFPath,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert email: %w", err)
	}
	return nil
}

// ListPendingEmails returns emails with attachments whose invoice number has
// no ledger entry yet, newest first
func (s *PostgresStore) ListPendingEmails(ctx context.Context) ([]email.Email, error) {
	query := `
		SELECT e.id, e.subject, e.sender, e.received_at, e.has_attachment, e.body, e.invoice_number, e.pdf_url, e.pdf_path, e.created_at
		FROM emails e
		WHERE e.has_attachment
		  AND e.invoice_number <> ''
		  AND NOT EXISTS (
			SELECT 1 FROM ledger l WHERE l.invoice_number = e.invoice_number
		  )
		ORDER BY e.received_at DESC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending emails: %w", err)
	}
	defer rows.Close()

	var emails []email.Email
	for rows.Next() {
		var e email.Email
		err := rows.Scan(
			&e.ID,
			&e.Subject,
			&e.Sender,
			&e.ReceivedAt,
			&e.HasAttachment,
			&e.Body,
			&e.InvoiceNumber,
			&e.PDFURL,
			&e.PDFPath,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending emails: %w", err)
	}
	return emails, nil
}

// UpsertUploadedRow records an ingested bank row, overwriting any previous
// row with the same invoice number
func (s *PostgresStore) UpsertUploadedRow(ctx context.Context, row ledger.UploadedRow) error {
	query := `
		INSERT INTO uploaded (invoice_number, date, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (invoice_number) DO UPDATE SET
			date = EXCLUDED.date,
			amount = EXCLUDED.amount`

	_, err := s.db.Exec(ctx, query, row.InvoiceNumber, row.Date, row.Amount)
	if err != nil {
		return fmt.Errorf("failed to upsert uploaded row: %w", err)
	}
	return nil
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var (
		entry ledger.Entry
		date  time.Time
	)
	err := row.Scan(
		&entry.InvoiceNumber,
		&date,
		&entry.Amount,
		&entry.Description,
		&entry.Category,
		&entry.Vendor,
		&entry.Source,
		&entry.PDFPath,
		&entry.NeedsReview,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	entry.Date = date.Format(dateLayout)
	return &entry, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
