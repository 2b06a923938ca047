package statement

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedIngestor() *Ingestor {
	ing := NewIngestor()
	ing.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return ing
}

func TestIngestor_Ingest(t *testing.T) {
	t.Run("parses valid rows", func(t *testing.T) {
		csv := `Invoice Number,Date,Amount
INV-001,2024-02-01,$45
INV-002,2024-01-05,"$1,234.50"`

		rows, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, Row{InvoiceNumber: "INV-001", Date: "2024-02-01", Amount: 45, Source: SourceTag}, rows[0])
		assert.Equal(t, 1234.50, rows[1].Amount)
	})

	t.Run("normalizes all accepted date formats", func(t *testing.T) {
		for _, date := range []string{"2024-01-05", "1/5/2024", "01-05-2024"} {
			csv := "Invoice Number,Date,Amount\nINV-001," + date + ",10.00"
			rows, err := fixedIngestor().Ingest(strings.NewReader(csv))
			require.NoError(t, err, date)
			assert.Equal(t, "2024-01-05", rows[0].Date, date)
		}
	})

	t.Run("names every missing column", func(t *testing.T) {
		csv := "Date,Extra\n2024-01-05,x"
		_, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invoice Number")
		assert.Contains(t, err.Error(), "Amount")
		assert.NotContains(t, err.Error(), "Date,")
	})

	t.Run("extra columns are ignored", func(t *testing.T) {
		csv := `Invoice Number,Date,Amount,Notes
INV-001,2024-02-01,45,ignore me`
		rows, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := fixedIngestor().Ingest(strings.NewReader(""))
		assert.Error(t, err)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := fixedIngestor().Ingest(strings.NewReader("Invoice Number,Date,Amount\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no data rows")
	})

	t.Run("fail fast on first invalid row", func(t *testing.T) {
		csv := `Invoice Number,Date,Amount
INV-001,2024-02-01,45
,2024-02-02,50
INV-003,not-a-date,60`

		_, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.Error(t, err)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, 2, vErr.Row)
		assert.Equal(t, "Invoice Number", vErr.Column)
	})

	t.Run("row errors carry the offending value", func(t *testing.T) {
		csv := "Invoice Number,Date,Amount\nINV-001,2024-02-01,twelve"
		_, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 1")
		assert.Contains(t, err.Error(), "twelve")
	})

	t.Run("rejects out of range years", func(t *testing.T) {
		for _, date := range []string{"1899-12-31", "2031-01-01"} {
			csv := "Invoice Number,Date,Amount\nINV-001," + date + ",10"
			_, err := fixedIngestor().Ingest(strings.NewReader(csv))
			assert.Error(t, err, date)
		}
	})

	t.Run("rejects out of range amounts", func(t *testing.T) {
		csv := "Invoice Number,Date,Amount\nINV-001,2024-01-05,1000001"
		_, err := fixedIngestor().Ingest(strings.NewReader(csv))
		assert.Error(t, err)
	})

	t.Run("rounds amounts to two decimals", func(t *testing.T) {
		csv := "Invoice Number,Date,Amount\nINV-001,2024-01-05,10.005"
		rows, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 10.01, rows[0].Amount)
	})

	t.Run("accepts negative amounts", func(t *testing.T) {
		csv := "Invoice Number,Date,Amount\nINV-001,2024-01-05,-$12.30"
		rows, err := fixedIngestor().Ingest(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, -12.30, rows[0].Amount)
	})
}
