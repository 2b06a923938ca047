package email

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator(t *testing.T) {
	t.Run("receipts carry invoice and attachment", func(t *testing.T) {
		g := NewGenerator(42)

		emails := g.GenerateBatch(200)
		require.Len(t, emails, 200)

		receipts := 0
		for _, e := range emails {
			assert.NotEmpty(t, e.Subject)
			assert.Contains(t, e.Sender, "@")
			if e.HasAttachment {
				receipts++
				assert.NotEmpty(t, e.InvoiceNumber)
				assert.True(t, strings.HasPrefix(e.InvoiceNumber, "INV-"))
				assert.Equal(t, "invoices/"+e.InvoiceNumber+".pdf", e.PDFPath)
			} else {
				assert.Empty(t, e.InvoiceNumber)
				assert.Empty(t, e.PDFPath)
			}
		}

		// Roughly 70% receipts; wide tolerance to keep the test stable.
		assert.Greater(t, receipts, 100)
		assert.Less(t, receipts, 190)
	})

	t.Run("seeded generation is reproducible", func(t *testing.T) {
		a := NewGenerator(7).Generate()
		b := NewGenerator(7).Generate()
		assert.Equal(t, a.Subject, b.Subject)
		assert.Equal(t, a.Sender, b.Sender)
	})
}
