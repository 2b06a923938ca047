// Package categorize assigns an expense category to ledger entries based on
// the vendor and email subject. Keyword matching uses the Aho-Corasick
// algorithm so the whole vendor table is scanned in a single pass; a fuzzy
// pass catches vendor-name variations the exact patterns miss.
package categorize

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultCategory is used when no vendor pattern matches.
const DefaultCategory = "Business Expense"

// minFuzzyRank bounds how far a fuzzy match may drift before it is ignored.
const minFuzzyRank = 3

type vendorRule struct {
	pattern  string
	category string
}

var vendorRules = []vendorRule{
	{"AMAZON", "Office Supplies"},
	{"OFFICE DEPOT", "Office Supplies"},
	{"OFFICEDEPOT", "Office Supplies"},
	{"STAPLES", "Office Supplies"},
	{"STARBUCKS", "Meals & Entertainment"},
	{"UBEREATS", "Meals & Entertainment"},
	{"UBER EATS", "Meals & Entertainment"},
	{"DOORDASH", "Meals & Entertainment"},
	{"RESTAURANT", "Meals & Entertainment"},
	{"WHOLE FOODS", "Groceries"},
	{"WHOLEFOODS", "Groceries"},
	{"SHELL", "Fuel"},
	{"CHEVRON", "Fuel"},
	{"EXXON", "Fuel"},
}

// Categorizer matches vendor names and subjects against the vendor table.
type Categorizer struct {
	matcher  *ahocorasick.Matcher
	patterns []vendorRule
}

// New builds a categorizer over the built-in vendor table.
func New() *Categorizer {
	patterns := make([][]byte, len(vendorRules))
	for i, r := range vendorRules {
		patterns[i] = []byte(r.pattern)
	}
	return &Categorizer{
		matcher:  ahocorasick.NewMatcher(patterns),
		patterns: vendorRules,
	}
}

// Categorize returns the expense category for a vendor/subject pair. Exact
// keyword hits win; otherwise the vendor name is fuzzy-matched against the
// table; otherwise DefaultCategory.
func (c *Categorizer) Categorize(vendor, subject string) string {
	text := strings.ToUpper(vendor + " " + subject)

	if hits := c.matcher.Match([]byte(text)); len(hits) > 0 {
		return c.patterns[hits[0]].category
	}

	if cat, ok := c.fuzzyVendor(vendor); ok {
		return cat
	}
	return DefaultCategory
}

// fuzzyVendor ranks the vendor name against every pattern and takes the
// closest within the distance bound.
func (c *Categorizer) fuzzyVendor(vendor string) (string, bool) {
	vendor = strings.ToUpper(strings.TrimSpace(vendor))
	if vendor == "" {
		return "", false
	}

	best := -1
	bestRank := minFuzzyRank + 1
	for i, r := range c.patterns {
		rank := fuzzy.LevenshteinDistance(vendor, r.pattern)
		if rank >= 0 && rank < bestRank {
			best = i
			bestRank = rank
		}
	}
	if best < 0 || bestRank > minFuzzyRank {
		return "", false
	}
	return c.patterns[best].category, true
}
