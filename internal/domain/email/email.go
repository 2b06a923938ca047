// Package email models the synthetic inbox that feeds the receipt pipeline.
package email

import (
	"time"

	"github.com/google/uuid"
)

// Email is one inbox record. Receipt emails carry an invoice number and a PDF
// attachment reachable by URL or blob path; newsletter-style emails carry
// neither and are never picked up by the sync orchestrator.
type Email struct {
	ID            uuid.UUID
	Subject       string
	Sender        string
	ReceivedAt    time.Time
	HasAttachment bool
	Body          string
	InvoiceNumber string
	PDFURL        string
	PDFPath       string
	CreatedAt     time.Time
}
