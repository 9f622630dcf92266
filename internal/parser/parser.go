package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

// Parser defines the interface for bank statement parsers.
//
// A candidate line that cannot become a valid movement is omitted from the
// result without an error: its date does not parse, its amounts net to zero,
// or it carries both a withdrawal and a deposit.
type Parser interface {
	// Parse turns extracted pages into a complete parse result.
	Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error)
	// BankName returns the registry key of the bank, e.g. "BBVA".
	BankName() string
}

// New returns the parser registered for bankType in the default registry.
func New(bankType models.BankType) (Parser, error) {
	return DefaultRegistry().Get(string(bankType))
}

func newParseError(bank models.BankType, file, cause string) *models.ParseError {
	return &models.ParseError{Banco: string(bank), Archivo: file, Causa: cause}
}

var (
	// Holder RFC: three letters for companies, four for individuals, the
	// birth or incorporation date and a three character homoclave.
	rfcPattern   = regexp.MustCompile(`R\.?\s?F\.?\s?C\.?\s*:?\s*([A-ZÑ&]{3,4}\d{6}[A-Z\d]{3})\b`)
	clabePattern = regexp.MustCompile(`CLABE(?:\s+INTERBANCARIA)?\s*:?\s*(\d{18})\b`)
)

// holderIDs reads the holder RFC from the header lines of the first page and
// the CLABE from the first two pages. Movement details also print RFCs, of
// the counterparty, so the RFC search stays in the header.
func holderIDs(pages []models.PageText) (rfc, clabe string) {
	if len(pages) == 0 {
		return "", ""
	}
	lines := strings.Split(pages[0].Text, "\n")
	if len(lines) > headerLineCount {
		lines = lines[:headerLineCount]
	}
	if m := rfcPattern.FindStringSubmatch(strings.ToUpper(strings.Join(lines, "\n"))); m != nil {
		rfc = m[1]
	}
	if m := clabePattern.FindStringSubmatch(strings.ToUpper(models.JoinText(pageRange(pages, 2)))); m != nil {
		clabe = m[1]
	}
	return rfc, clabe
}

// buildResult assembles the validated result for a parser. pages are the
// (decoded) pages the parser read, searched for the holder RFC and CLABE.
func buildResult(bank models.BankType, file string, pages []models.PageText, cuenta, moneda string, movs []models.Movimiento, resumen models.Resumen, anio, mes int) (*models.ResultadoParseo, error) {
	info, err := models.NewInfoCuenta(string(bank), cuenta, moneda)
	if err != nil {
		return nil, newParseError(bank, file, err.Error())
	}
	rfc, clabe := holderIDs(pages)
	info = info.WithRFC(rfc).WithCLABE(clabe)
	res, err := models.NewResultadoParseo(info, movs, resumen, anio, mes, file)
	if err != nil {
		return nil, newParseError(bank, file, err.Error())
	}
	return res, nil
}

// firstSubmatch returns group 1 of the first pattern matching text.
func firstSubmatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// foldUpper upper-cases s and drops accents, so "Depósito" matches the
// keyword "DEPOSITO".
func foldUpper(s string) string {
	return strings.ToUpper(normalize.StripAccents(s))
}

// containsAnyFold matches ignoring case and accents.
func containsAnyFold(text string, needles []string) bool {
	folded := foldUpper(text)
	for _, needle := range needles {
		if strings.Contains(folded, foldUpper(needle)) {
			return true
		}
	}
	return false
}

func pageRange(pages []models.PageText, n int) []models.PageText {
	if len(pages) < n {
		return pages
	}
	return pages[:n]
}

func errNoPages(bank models.BankType, file string) error {
	return newParseError(bank, file, "No se recibieron páginas")
}

func errNoWords(bank models.BankType, file string) error {
	return newParseError(bank, file, fmt.Sprintf(
		"Las páginas no incluyen palabras con coordenadas; %s requiere un extractor con posiciones", bank))
}
