// Package money provides precise monetary parsing and formatting for the
// receipt pipeline. Parsing goes through shopspring/decimal so that amounts
// like "$1,234.50" survive the round trip without float noise; display
// formatting uses go-money for proper currency symbols.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var currencySymbols = []string{"$", "€", "£", "R$", "¥"}

// Parse converts an amount string such as "$1,234.50" into a float rounded
// to two decimal places. It strips currency symbols, thousands separators
// and whitespace before parsing.
func Parse(s string) (float64, error) {
	cleaned := Clean(s)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	f, _ := d.Round(2).Float64()
	return f, nil
}

// Clean strips currency symbols, commas and whitespace from an amount string.
// The remainder should be a plain decimal number (optionally signed).
func Clean(s string) string {
	s = strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	return strings.Join(strings.Fields(s), "")
}

// Round2 rounds an amount to two decimal places, discarding float noise
// introduced upstream.
func Round2(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}

// RoundUnit rounds an amount to the nearest whole currency unit. Reconciliation
// keys on this to absorb small extraction noise between a parsed PDF total and
// a bank-reported total.
func RoundUnit(f float64) int64 {
	return int64(math.Round(f))
}

// FormatUSD renders an amount for logs and summaries, e.g. "$1,234.50".
func FormatUSD(f float64) string {
	cents := decimal.NewFromFloat(f).Mul(decimal.New(1, 2)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}
