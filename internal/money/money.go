// =============================================================================
// RCDV Generator - Currency Formatting
// =============================================================================
//
// This module formats decimal amounts the way the RCDV form prints them.
// The default locale is pt_BR, which yields "1.234,56": "." groups thousands,
// "," separates the two fraction digits.
//
// ROUNDING:
//   Amounts are rounded to two places with round-half-even, which is what
//   spreadsheet-style number patterns ("#,##0.00") do.
//
// CUSTOMIZATION:
//   Add a locale to the separators table to support it.
//
// =============================================================================

package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "pt_BR"

// Formatter renders an amount as text.
type Formatter interface {
	Format(amount decimal.Decimal) string
}

// separators holds the grouping and decimal marks of one locale.
type separators struct {
	group   string
	decimal string
}

// Known languages, keyed by ISO 639 base.
var localeSeparators = map[string]separators{
	"pt": {group: ".", decimal: ","},
	"es": {group: ".", decimal: ","},
	"de": {group: ".", decimal: ","},
	"it": {group: ".", decimal: ","},
	"en": {group: ",", decimal: "."},
}

// NumberFormatter formats with a fixed pair of separators.
type NumberFormatter struct {
	tag  language.Tag
	seps separators
}

// NewFormatter returns the formatter for a locale such as "pt_BR" or "en-US".
// An empty locale selects DefaultLocale.
func NewFormatter(locale string) (*NumberFormatter, error) {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	base, _ := tag.Base()
	seps, ok := localeSeparators[base.String()]
	if !ok {
		return nil, fmt.Errorf("unsupported locale %q", locale)
	}

	return &NumberFormatter{tag: tag, seps: seps}, nil
}

// Locale returns the BCP 47 tag the formatter was built for.
func (f *NumberFormatter) Locale() string {
	return f.tag.String()
}

// Format renders the amount with two fraction digits and thousands grouping.
func (f *NumberFormatter) Format(amount decimal.Decimal) string {
	fixed := amount.StringFixedBank(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if negative && strings.Trim(intPart+fracPart, "0") != "" {
		b.WriteByte('-')
	}
	b.WriteString(group(intPart, f.seps.group))
	b.WriteString(f.seps.decimal)
	b.WriteString(fracPart)
	return b.String()
}

// group inserts sep every three digits from the right.
func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}

	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	var b strings.Builder
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
