// Package normalize holds the amount, date and text helpers shared by every
// bank parser. All money handling uses exact decimals.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// plainNumberPattern is what a cleaned amount must look like. It keeps
// exponent forms such as "1e5" away from the decimal parser.
var plainNumberPattern = regexp.MustCompile(`^-?(?:\d+(?:\.\d+)?|\.\d+)$`)

// stripMoney removes currency symbols, whitespace (including OCR gaps
// inside the number) and thousands separators.
func stripMoney(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseMoney converts strings such as "$1,234.56", "1 234.56" or "-50.00"
// into an exact decimal. Empty input, a lone "-", exponents and garbage are
// rejected.
func ParseMoney(s string) (decimal.Decimal, error) {
	cleaned := stripMoney(strings.TrimSpace(s))
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero, &models.ParseValueError{Value: s, Reason: "valor vacío"}
	}
	if !plainNumberPattern.MatchString(cleaned) {
		return decimal.Zero, &models.ParseValueError{Value: s, Reason: "no es un número"}
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &models.ParseValueError{Value: s, Reason: "no es un número"}
	}
	return v, nil
}

// ParseMoneySafe is ParseMoney returning zero instead of an error. Only use
// it for fields where zero is a legitimate default, never for totals.
func ParseMoneySafe(s string) decimal.Decimal {
	t := strings.TrimSpace(s)
	if t == "" || t == "-" || strings.EqualFold(t, "N/A") {
		return decimal.Zero
	}
	v, err := ParseMoney(t)
	if err != nil {
		return decimal.Zero
	}
	return v
}

// FormatMoney renders d as "$1,234.56", or "-$1,234.56" when negative.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + "$" + b.String() + "." + frac
}
