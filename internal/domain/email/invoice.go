package email

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mteixeira/receipt-ledger/pkg/money"
)

// taxRate is applied to every synthetic invoice subtotal.
const taxRate = 0.0875

// InvoiceItem is one line item on a synthetic invoice.
type InvoiceItem struct {
	Description string
	Quantity    int
	UnitPrice   float64
	Total       float64
}

// Invoice is the synthetic receipt document attached to a generated email.
// Total is always the largest dollar figure on the rendered page, so the
// extraction heuristics recover it.
type Invoice struct {
	InvoiceNumber string
	Date          string
	Vendor        string
	Items         []InvoiceItem
	Subtotal      float64
	Tax           float64
	Total         float64
}

type itemTemplate struct {
	description string
	minPrice    float64
	maxPrice    float64
}

var itemTemplates = []itemTemplate{
	{"Office Supplies Bundle", 15, 89},
	{"Coffee & Pastry", 8, 25},
	{"Organic Groceries", 45, 180},
	{"Printer Paper (500 sheets)", 12, 35},
	{"Premium Gasoline", 35, 75},
	{"Wireless Mouse", 20, 60},
	{"Notebook Set", 10, 30},
	{"Lunch Combo", 12, 28},
}

// Invoice fabricates the receipt document for a generated email: one to four
// line items, 8.75% tax, amounts rounded to cents.
func (g *Generator) Invoice(e Email) Invoice {
	n := g.faker.IntRange(1, 4)
	items := make([]InvoiceItem, n)

	var subtotal float64
	for i := range items {
		tpl := itemTemplates[g.faker.IntRange(0, len(itemTemplates)-1)]
		qty := g.faker.IntRange(1, 3)
		unit := money.Round2(g.faker.Float64Range(tpl.minPrice, tpl.maxPrice))
		total := money.Round2(float64(qty) * unit)
		items[i] = InvoiceItem{
			Description: tpl.description,
			Quantity:    qty,
			UnitPrice:   unit,
			Total:       total,
		}
		subtotal += total
	}

	subtotal = money.Round2(subtotal)
	tax := money.Round2(subtotal * taxRate)

	return Invoice{
		InvoiceNumber: e.InvoiceNumber,
		Date:          e.ReceivedAt.Format("2006-01-02"),
		Vendor:        vendorName(e.Sender),
		Items:         items,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         money.Round2(subtotal + tax),
	}
}

// vendorName turns a sender address into a display name for the invoice
// header ("receipts@shell.com" becomes "Shell").
func vendorName(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return "Unknown"
	}
	label := strings.Split(sender[at+1:], ".")[0]
	if label == "" {
		return "Unknown"
	}
	return strings.ToUpper(label[:1]) + strings.ToLower(label[1:])
}

// PDF renders the invoice as a minimal single-page PDF document.
func (inv Invoice) PDF() []byte {
	lines := []string{
		"INVOICE",
		fmt.Sprintf("Invoice #: %s", inv.InvoiceNumber),
		fmt.Sprintf("Date: %s", inv.Date),
		fmt.Sprintf("From: %s", inv.Vendor),
		"",
	}
	for _, item := range inv.Items {
		lines = append(lines, fmt.Sprintf("%s  x%d  @ $%.2f  $%.2f",
			item.Description, item.Quantity, item.UnitPrice, item.Total))
	}
	lines = append(lines,
		"",
		fmt.Sprintf("Subtotal: $%.2f", inv.Subtotal),
		fmt.Sprintf("Tax: $%.2f", inv.Tax),
		fmt.Sprintf("Total: $%.2f", inv.Total),
		"",
		"Thank you for your business!",
		"Payment due within 30 days.",
	)
	return renderPDF(lines)
}

// renderPDF writes a one-page PDF with the given text lines. The document
// uses a classic cross-reference table and the built-in Helvetica font with
// WinAnsi encoding, which the extraction side decodes.
func renderPDF(lines []string) []byte {
	var content bytes.Buffer
	content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for _, line := range lines {
		fmt.Fprintf(&content, "(%s) Tj\nT*\n", escapePDFString(line))
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)

	return buf.Bytes()
}

// escapePDFString escapes the characters that delimit PDF literal strings.
func escapePDFString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
