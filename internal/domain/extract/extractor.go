// Package extract pulls plain text out of PDF receipts and finds the most
// likely monetary total. Extraction failure is a normal, reportable outcome:
// fetch and parse problems are folded into the returned Result rather than
// surfaced as errors, so one bad document never aborts a batch.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dslipak/pdf"
)

// fallbackCeiling bounds candidates found by the aggressive strategy so page
// numbers, phone numbers and dates are not mistaken for totals.
const fallbackCeiling = 10000

var (
	// Primary strategy: dollar-prefixed amounts with optional thousands
	// separators and a two-decimal fraction.
	dollarPattern = regexp.MustCompile(`\$\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`)

	// Fallback strategies, in priority order. Keyword-adjacent numbers
	// outrank bare numbers: if any keyword match exists, bare numbers are
	// not consulted.
	keywordPattern = regexp.MustCompile(`(?i)(?:total|amount|due|balance|payment)(?:\s*(?:due|is|of|:))?\s*\$?\s*(\d+(?:,\d{3})*\.?\d*)`)
	barePattern    = regexp.MustCompile(`\d+(?:,\d{3})*\.?\d*`)
)

// Result holds the outcome of a single extraction. Amount is 0 and Success
// false when no plausible total was found; Error carries the reason when the
// document could not be fetched or decoded.
type Result struct {
	RawText string
	Amount  float64
	Success bool
	Error   string
}

// Extractor downloads and decodes PDF receipts.
type Extractor struct {
	client       *http.Client
	fetchTimeout time.Duration
	logger       *slog.Logger
}

// NewExtractor creates an extractor. A nil client falls back to a default
// client; fetchTimeout bounds each URL download.
func NewExtractor(client *http.Client, fetchTimeout time.Duration, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{}
	}
	return &Extractor{
		client:       client,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// ExtractURL fetches a PDF over HTTP and extracts its most likely total.
// Unreachable URLs and non-success statuses produce a failed Result with the
// status in the error message.
func (e *Extractor) ExtractURL(ctx context.Context, url string) Result {
	if url == "" {
		return Result{Error: "no PDF URL provided"}
	}

	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}

	e.logger.Debug("extracting PDF", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Error: fmt.Sprintf("invalid PDF URL: %v", err)}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to fetch PDF: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Error: fmt.Sprintf("failed to fetch PDF: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to read PDF body: %v", err)}
	}

	return e.Extract(data)
}

// Extract decodes raw PDF bytes and scans the text for the most likely total.
func (e *Extractor) Extract(data []byte) Result {
	text, err := decodePlainText(data)
	if err != nil {
		return Result{Error: fmt.Sprintf("failed to parse PDF: %v", err)}
	}

	amount := ScanAmount(text)
	return Result{
		RawText: text,
		Amount:  amount,
		Success: amount > 0,
	}
}

// ScanAmount applies the amount heuristics to already-extracted text. The
// largest dollar-prefixed figure wins; an invoice "Total" is typically the
// largest dollar amount on the page. When no dollar pattern matches, the
// aggressive fallback strategies are consulted.
func ScanAmount(text string) float64 {
	var amounts []float64
	for _, m := range dollarPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok {
			amounts = append(amounts, v)
		}
	}
	if len(amounts) > 0 {
		return maxOf(amounts)
	}
	return scanFallback(text)
}

// scanFallback broadens the search to keyword-adjacent and bare numbers,
// bounded to (0, fallbackCeiling).
func scanFallback(text string) float64 {
	var keyword []float64
	for _, m := range keywordPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[1]); ok && v < fallbackCeiling {
			keyword = append(keyword, v)
		}
	}
	if len(keyword) > 0 {
		return maxOf(keyword)
	}

	var bare []float64
	for _, m := range barePattern.FindAllString(text, -1) {
		if v, ok := parseAmount(m); ok && v < fallbackCeiling {
			bare = append(bare, v)
		}
	}
	if len(bare) > 0 {
		return maxOf(bare)
	}
	return 0
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// decodePlainText converts PDF bytes to plain text. The pdf library panics on
// some malformed documents, so decoding recovers and reports a parse error
// instead.
func decodePlainText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
