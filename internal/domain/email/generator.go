package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// receiptRatio is the fraction of generated emails that are receipts with an
// invoice attachment; the rest are newsletter/notification noise.
const receiptRatio = 0.7

type vendorTemplate struct {
	senders  []string
	subjects []string
	bodies   []string
}

var vendorTemplates = []vendorTemplate{
	{
		senders: []string{"auto-confirm@amazon.com", "orders@amazon.com"},
		subjects: []string{
			"Your Amazon.com order has been shipped",
			"Receipt for Amazon Order #%s",
			"Amazon.com order confirmation",
		},
		bodies: []string{
			"Thank you for your recent purchase. Your receipt is attached.",
			"This email confirms that your order has been received.",
		},
	},
	{
		senders: []string{"receipt@starbucks.com", "store@starbucks.com"},
		subjects: []string{
			"Your Starbucks Receipt",
			"Thanks for visiting Starbucks!",
		},
		bodies: []string{
			"Thank you for choosing Starbucks! Your receipt is attached.",
		},
	},
	{
		senders: []string{"receipts@wholefoods.com", "store@wholefoods.com"},
		subjects: []string{
			"Whole Foods Market Receipt",
			"Your Whole Foods purchase receipt",
		},
		bodies: []string{
			"Thank you for shopping at Whole Foods Market. Your receipt is attached.",
		},
	},
	{
		senders: []string{"orders@officedepot.com", "store@officedepot.com"},
		subjects: []string{
			"Office Depot Order Confirmation",
			"Your Office Depot receipt - Order #%s",
		},
		bodies: []string{
			"Your office supplies order has been completed. Receipt attached.",
		},
	},
	{
		senders: []string{"receipts@shell.com", "fuel@shell.com"},
		subjects: []string{
			"Shell Gas Station Receipt",
			"Your Shell fuel receipt",
		},
		bodies: []string{
			"Thank you for fueling up at Shell. Your receipt is attached.",
		},
	},
	{
		senders: []string{"orders@ubereats.com", "receipts@doordash.com"},
		subjects: []string{
			"Your food delivery receipt",
			"Delivery completed - Receipt attached",
		},
		bodies: []string{
			"Your food order has been delivered. Receipt details attached.",
		},
	},
}

var noiseTemplate = vendorTemplate{
	senders: []string{"newsletter@company.com", "promotions@retail.com", "notifications@app.com"},
	subjects: []string{
		"Weekly Newsletter - Special Offers Inside",
		"Don't miss out on our latest deals!",
		"Your account summary is ready",
	},
	bodies: []string{
		"Check out our latest products and special offers this week.",
		"Exclusive deals for our valued customers. Limited time only!",
	},
}

// Generator produces synthetic inbox emails.
type Generator struct {
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewGenerator creates a generator seeded for reproducibility; seed 0 gives
// random output.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		now:   time.Now,
	}
}

// Generate produces one synthetic email. Roughly 70% are receipts carrying an
// invoice number and a PDF attachment path.
func (g *Generator) Generate() Email {
	if g.faker.Float64Range(0, 1) < receiptRatio {
		return g.receipt()
	}
	return g.noise()
}

// GenerateBatch produces n synthetic emails.
func (g *Generator) GenerateBatch(n int) []Email {
	emails := make([]Email, n)
	for i := range emails {
		emails[i] = g.Generate()
	}
	return emails
}

func (g *Generator) receipt() Email {
	tpl := vendorTemplates[g.faker.IntRange(0, len(vendorTemplates)-1)]
	invoice := g.invoiceNumber()

	subject := g.pick(tpl.subjects)
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, g.faker.DigitN(6))
	}

	received := g.faker.DateRange(g.now().AddDate(0, -1, 0), g.now())

	return Email{
		ID:            uuid.New(),
		Subject:       subject,
		Sender:        g.pick(tpl.senders),
		ReceivedAt:    received,
		HasAttachment: true,
		Body:          g.pick(tpl.bodies),
		InvoiceNumber: invoice,
		PDFPath:       fmt.Sprintf("invoices/%s.pdf", invoice),
		CreatedAt:     g.now(),
	}
}

func (g *Generator) noise() Email {
	return Email{
		ID:         uuid.New(),
		Subject:    g.pick(noiseTemplate.subjects),
		Sender:     g.pick(noiseTemplate.senders),
		ReceivedAt: g.faker.DateRange(g.now().AddDate(0, -1, 0), g.now()),
		Body:       g.pick(noiseTemplate.bodies),
		CreatedAt:  g.now(),
	}
}

func (g *Generator) invoiceNumber() string {
	return fmt.Sprintf("INV-%d-%d", g.now().UnixMilli(), g.faker.IntRange(0, 999))
}

func (g *Generator) pick(options []string) string {
	return options[g.faker.IntRange(0, len(options)-1)]
}
