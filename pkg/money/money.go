// Package money parses and formats the monetary magnitudes that appear in
// bank and e-wallet statement exports. Amounts are decimal.Decimal values and
// are always non-negative: the direction of a transaction is carried by its
// type, never by the sign of the number.
package money

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// currencyGlyphs are stripped from raw amount strings before parsing.
// Statement exports mix full-width and half-width yen signs freely.
var currencyGlyphs = []string{"¥", "￥", "$", "元"}

// minusVariants maps the full-width and typographic minus characters that
// appear in spreadsheet exports to the ASCII sign.
var minusVariants = []string{"－", "—", "–"}

// Parse normalizes a raw amount string into a non-negative decimal.
//
// It strips thousands separators and currency glyphs, unquotes the value,
// folds full-width minus characters to '-', and treats a parenthesized value
// as negative (accounting notation). The absolute value is returned; callers
// reconstruct direction from the transaction type.
func Parse(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", "")
	for _, glyph := range currencyGlyphs {
		s = strings.ReplaceAll(s, glyph, "")
	}
	s = strings.Trim(s, "'\"")
	for _, m := range minusVariants {
		s = strings.ReplaceAll(s, m, "-")
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) >= 2 {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d.Abs(), nil
}

// IsNegative reports whether the raw string denotes a negative value, before
// Parse discards the sign. Bank statements encode direction either as an
// explicit minus or via accounting parentheses.
func IsNegative(raw string) bool {
	s := strings.TrimSpace(raw)
	for _, m := range minusVariants {
		s = strings.ReplaceAll(s, m, "-")
	}
	s = strings.Trim(s, "'\"")
	s = strings.TrimLeft(s, "¥￥$ ")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		return true
	}
	return strings.HasPrefix(s, "-")
}

// Format renders an amount with two decimal places, the canonical rendering
// used by the standard template and the export writers.
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatCNY renders an amount as a human-readable CNY string for report
// summaries, e.g. "¥1,234.50".
func FormatCNY(d decimal.Decimal) string {
	cents := d.Mul(decimal.New(1, 2)).Round(0).IntPart()
	return money.New(cents, money.CNY).Display()
}

// SignatureAmount renders the absolute amount the way the dedupe signature
// expects it: the canonical decimal form with no forced padding. The exact
// rendering matters only for equality between signatures produced here.
func SignatureAmount(d decimal.Decimal) string {
	return d.Abs().String()
}
