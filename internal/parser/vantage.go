package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

var (
	// Matched against the folded line.
	vantageSectionStart = regexp.MustCompile(`(OTROS\s+DEBITOS|DEPOSITOS|RETIROS|DEBITOS)`)
	// DESCRIPTION MM-DD AMOUNT, e.g. "INACTIVE ACCOUNT FEE 12-31 10.00".
	vantageMovement = regexp.MustCompile(`^(.+?)\s+(\d{1,2})-(\d{1,2})\s+([\d,]+\.\d{2})$`)
	vantageAccount  = regexp.MustCompile(`(?i)cuenta\s+(\d{9})`)
	vantageYear     = regexp.MustCompile(`\b(20\d{2})\b`)
	vantageMonth    = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)
)

var (
	vantageEndMarkers  = []string{"Total", "DESGLOCE", "www.", "PERIODO ACTUAL"}
	vantageHeaderLines = []string{"Descripción", "Descripcion", "Fecha"}
)

const (
	vantageHeaderLineCount = 30
	vantageHeaderChars     = 2000
)

// VantageBankParser parses Vantage Bank (Texas) statements. The movement
// type comes from the section a line appears in, dates are MM-DD and the
// default currency is USD. Statements are often scanned, so lines go through
// OCR repair before matching.
type VantageBankParser struct{}

func (p *VantageBankParser) BankName() string { return string(models.BankVantage) }

func (p *VantageBankParser) Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error) {
	if len(pages) == 0 {
		return nil, errNoPages(models.BankVantage, fileName)
	}

	text := repairOCRYears(models.JoinText(pages))
	header := text
	if len(header) > vantageHeaderChars {
		header = header[:vantageHeaderChars]
	}

	cuenta := models.SinCuenta
	if m := vantageAccount.FindStringSubmatch(text); m != nil {
		cuenta = m[1]
	}
	moneda := models.MonedaUSD
	if strings.Contains(strings.ToUpper(header), "MXN") {
		moneda = models.MonedaMXN
	}

	anio, ok := p.year(text)
	if !ok {
		return nil, newParseError(models.BankVantage, fileName,
			"No se pudo determinar el año del estado de cuenta")
	}
	mes := p.month(header, text)

	movs := p.movements(text, anio, mes)
	return buildResult(models.BankVantage, fileName, pages, cuenta, moneda, movs, models.CalcularResumen(movs), anio, mes)
}

func (p *VantageBankParser) year(text string) (int, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > vantageHeaderLineCount {
		lines = lines[:vantageHeaderLineCount]
	}
	for _, l := range lines {
		if m := vantageYear.FindStringSubmatch(l); m != nil {
			y, _ := strconv.Atoi(m[1])
			return y, true
		}
	}
	return 0, false
}

// month takes the first English month name in the header, then the month
// of the first movement line, then January.
func (p *VantageBankParser) month(header, text string) int {
	if m := vantageMonth.FindStringSubmatch(header); m != nil {
		if n, err := normalize.MonthNumber(m[1]); err == nil {
			return n
		}
	}
	for _, l := range strings.Split(text, "\n") {
		if m := vantageMovement.FindStringSubmatch(strings.TrimSpace(sanitizeOCRAmounts(l))); m != nil {
			if n, err := strconv.Atoi(m[2]); err == nil && n >= 1 && n <= 12 {
				return n
			}
		}
	}
	return 1
}

func (p *VantageBankParser) movements(text string, anio, mes int) []models.Movimiento {
	var (
		movs      []models.Movimiento
		inSection bool
		deposits  bool
	)
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		if m := vantageSectionStart.FindStringSubmatch(foldUpper(line)); m != nil {
			inSection = true
			deposits = m[1] == "DEPOSITOS"
			continue
		}
		if !inSection {
			continue
		}
		if hasAnyPrefix(line, vantageEndMarkers) {
			inSection = false
			continue
		}
		if line == "" || hasAnyPrefix(line, vantageHeaderLines) {
			continue
		}

		if mov, ok := vantageLine(sanitizeOCRAmounts(line), anio, mes, deposits); ok {
			movs = append(movs, mov)
		}
	}
	return movs
}

func vantageLine(line string, anio, mes int, deposit bool) (models.Movimiento, bool) {
	m := vantageMovement.FindStringSubmatch(line)
	if m == nil {
		return models.Movimiento{}, false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	month, day, ok := repairOCRMonthDay(anio, month, day, mes)
	if !ok {
		return models.Movimiento{}, false
	}
	fecha, err := normalize.ParseAmericanDate(fmt.Sprintf("%02d/%02d/%d", month, day, anio))
	if err != nil {
		return models.Movimiento{}, false
	}

	monto := normalize.ParseMoneySafe(m[4])
	if !monto.IsPositive() {
		return models.Movimiento{}, false
	}
	retiro, deposito := monto, decimal.Zero
	if deposit {
		retiro, deposito = decimal.Zero, monto
	}
	mov, err := models.NewMovimiento(fecha, strings.TrimSpace(m[1]), "", retiro, deposito)
	if err != nil {
		return models.Movimiento{}, false
	}
	return mov, true
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
