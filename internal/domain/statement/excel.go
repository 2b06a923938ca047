package statement

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// IngestExcel parses an XLSX bank statement. The first sheet is used; the
// first row must carry the same required headers as the CSV form, and rows
// flow through the same validator.
func (ing *Ingestor) IngestExcel(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("Excel file is empty")
	}

	colIndex := make(map[string]int, len(cells[0]))
	for i, name := range cells[0] {
		colIndex[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	cell := func(row []string, col string) string {
		idx := colIndex[col]
		if idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	dataRows := cells[1:]
	if len(dataRows) == 0 {
		return nil, fmt.Errorf("Excel file has no data rows")
	}

	rows := make([]Row, 0, len(dataRows))
	for i, rec := range dataRows {
		rr := rawRow{
			InvoiceNumber: cell(rec, "Invoice Number"),
			Date:          cell(rec, "Date"),
			Amount:        cell(rec, "Amount"),
		}
		row, err := ing.validateRow(rr, i+1)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
