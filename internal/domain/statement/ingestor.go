// Package statement parses uploaded bank statements into normalized
// transaction rows. Ingestion is deliberately strict: the first invalid row
// aborts the whole file with a row-indexed error rather than skipping it, so
// a bad upload is rejected wholesale instead of silently partially applied.
package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/mteixeira/receipt-ledger/pkg/money"
)

// SourceTag marks every ingested row as bank-statement sourced.
const SourceTag = "bank statement"

// amountLimit bounds plausible statement amounts to ±$1,000,000.
var amountLimit = decimal.NewFromInt(1_000_000)

var requiredColumns = []string{"Invoice Number", "Date", "Amount"}

// plainDecimal matches an optionally signed decimal number after currency
// symbols and separators have been stripped.
var plainDecimal = regexp.MustCompile(`^-?\d*\.?\d+$`)

// dateFormats are the accepted input layouts; output is always ISO.
var dateFormats = []string{
	"2006-01-02", // YYYY-MM-DD
	"1/2/2006",   // M/D/YYYY
	"1-2-2006",   // M-D-YYYY
}

// Row is one normalized bank-statement transaction.
type Row struct {
	InvoiceNumber string
	Date          string // normalized YYYY-MM-DD
	Amount        float64
	Source        string
}

// ValidationError reports the first invalid row. Rows are numbered 1-based,
// excluding the header.
type ValidationError struct {
	Row     int
	Column  string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: invalid %s %q: %s", e.Row, e.Column, e.Value, e.Message)
}

// rawRow is the gocsv-unmarshaled shape of one CSV line. Extra columns in the
// file are ignored.
type rawRow struct {
	InvoiceNumber string `csv:"Invoice Number"`
	Date          string `csv:"Date"`
	Amount        string `csv:"Amount"`
}

// Ingestor parses bank statement files.
type Ingestor struct {
	now func() time.Time
}

// NewIngestor creates a statement ingestor.
func NewIngestor() *Ingestor {
	return &Ingestor{now: time.Now}
}

// Ingest parses a CSV bank statement. It fails before row processing when any
// required column is missing (naming all of them), and fails fast on the
// first invalid row.
func (ing *Ingestor) Ingest(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if err := checkHeader(data); err != nil {
		return nil, err
	}

	var raw []rawRow
	if err := gocsv.UnmarshalBytes(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("CSV file has no data rows")
	}

	rows := make([]Row, 0, len(raw))
	for i, rr := range raw {
		row, err := ing.validateRow(rr, i+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// checkHeader validates that every required column is present, reporting all
// missing columns at once.
func checkHeader(data []byte) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err == io.EOF {
		return fmt.Errorf("CSV file is empty")
	}
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.TrimSpace(col)] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// validateRow checks one raw row and normalizes it. rowNum is 1-based.
func (ing *Ingestor) validateRow(rr rawRow, rowNum int) (Row, error) {
	invoice := strings.TrimSpace(rr.InvoiceNumber)
	if invoice == "" {
		return Row{}, &ValidationError{Row: rowNum, Column: "Invoice Number", Value: rr.InvoiceNumber, Message: "must not be empty"}
	}

	date, err := ing.parseDate(rr.Date)
	if err != nil {
		return Row{}, &ValidationError{Row: rowNum, Column: "Date", Value: rr.Date, Message: err.Error()}
	}

	amount, err := parseAmount(rr.Amount)
	if err != nil {
		return Row{}, &ValidationError{Row: rowNum, Column: "Amount", Value: rr.Amount, Message: err.Error()}
	}

	return Row{
		InvoiceNumber: invoice,
		Date:          date.Format("2006-01-02"),
		Amount:        amount,
		Source:        SourceTag,
	}, nil
}

func (ing *Ingestor) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("must not be empty")
	}

	var parsed time.Time
	ok := false
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return time.Time{}, fmt.Errorf("expected formats: YYYY-MM-DD, M/D/YYYY, or M-D-YYYY")
	}

	currentYear := ing.now().Year()
	if year := parsed.Year(); year < 1900 || year > currentYear+5 {
		return time.Time{}, fmt.Errorf("year must be between 1900 and %d", currentYear+5)
	}
	return parsed, nil
}

func parseAmount(s string) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("must not be empty")
	}

	cleaned := money.Clean(s)
	if !plainDecimal.MatchString(cleaned) {
		return 0, fmt.Errorf("expected a number")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("expected a number")
	}

	if d.Abs().GreaterThan(amountLimit) {
		return 0, fmt.Errorf("must be between -$1,000,000 and $1,000,000")
	}

	f, _ := d.Round(2).Float64()
	return f, nil
}
