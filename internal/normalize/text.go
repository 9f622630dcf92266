package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanWhitespace collapses runs of whitespace into one space and trims.
func CleanWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// RemoveNonPrintable replaces control and other non-printable runes with a
// space, keeping newlines, carriage returns and tabs.
func RemoveNonPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if !unicode.IsPrint(r) {
			return ' '
		}
		return r
	}, s)
}

// NormalizeLineEndings converts CRLF and CR to LF.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CleanPDFText prepares raw extractor output for parsing.
func CleanPDFText(s string) string {
	return NormalizeLineEndings(RemoveNonPrintable(s))
}

// StripAccents removes combining marks: "DEPÓSITO" becomes "DEPOSITO".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
