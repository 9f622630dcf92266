package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

// maxDuplicateCounter bounds the suffix used to tell apart identical
// movements (same date and amount) within one statement.
const maxDuplicateCounter = 500

var santanderDepositKeywords = []string{
	"ABONO",
	"DEPOSITO",
	"RECIBID",
	"DEVOLUCION",
}

var (
	santanderLinePattern  = regexp.MustCompile(`^(\d{1,2})-([A-Z]{3})-(\d{4})\s*(\d+)(.*)`)
	santanderMoneyPattern = regexp.MustCompile(`[\d,]+\.\d{2}`)
	// Go regexp has no lookaround; the digit guards are matched and discarded.
	santanderAccountPattern = regexp.MustCompile(`(?:^|\D)(\d{2}-\d{8}-\d)(?:\D|$)`)

	santanderPeriodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[Pp]eriodo.*?(\d{1,2})[/-]([A-Za-z]{3})[/-](\d{4})`),
		regexp.MustCompile(`[Ff]echa\s+de\s+[Cc]orte.*?(\d{1,2})[/-]([A-Za-z]{3})[/-](\d{4})`),
		regexp.MustCompile(`[Cc]orte.*?(\d{1,2})[/-]([A-Za-z]{3})[/-](\d{4})`),
	}
	santanderFirstMovement = regexp.MustCompile(`(?m)^(\d{1,2})-([A-Z]{3})-(\d{4})\s*(\d+)`)

	santanderNoisePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^[Pp][áa]gina\s*\d+`),
		regexp.MustCompile(`(?i)^Pgina\s*\d+`),
		regexp.MustCompile(`(?i)^P\s+gina\s*\d+`),
		regexp.MustCompile(`^\s*-{3,}\s*$`),
		regexp.MustCompile(`^\d+\s*$`),
		regexp.MustCompile(`P-P\s+\d+`),
		regexp.MustCompile(`^FECHA\s+FOLIO\s+DESCRIPCION`),
		regexp.MustCompile(`^ESTADO DE CUENTA`),
		regexp.MustCompile(`^Banco Santander`),
		regexp.MustCompile(`^Institucin|^Grupo Financiero`),
		regexp.MustCompile(`^PRADERAS|^PERIODO DEL|^CODIGO DE CLIENTE`),
		regexp.MustCompile(`(?i)^TOTAL\s`),
		regexp.MustCompile(`(?i)SALDO FINAL`),
		regexp.MustCompile(`(?i)Significado de abreviaturas`),
		regexp.MustCompile(`(?i)Detalles de movimientos`),
		regexp.MustCompile(`(?i)INVERSION CRECIENTE`),
	}
)

// SantanderParser parses Santander statements from plain text lines. Each
// movement starts with "DD-MMM-YYYY FOLIO" and may continue on following
// lines (sender, tracking key, RFC), which are appended to the concept.
// Works with any extractor, including OCR.
type SantanderParser struct{}

func (p *SantanderParser) BankName() string { return string(models.BankSantander) }

func (p *SantanderParser) Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error) {
	if len(pages) == 0 {
		return nil, errNoPages(models.BankSantander, fileName)
	}

	cuenta, moneda := p.accountInfo(pages[0].Text)

	anio, mes, ok := p.period(models.JoinText(pageRange(pages, 2)))
	if !ok {
		return nil, newParseError(models.BankSantander, fileName,
			"No se pudo determinar el año/mes del estado de cuenta")
	}

	seen := make(map[string]struct{})
	var movs []models.Movimiento
	for _, page := range pages {
		movs = append(movs, p.pageMovements(page, seen)...)
	}

	return buildResult(models.BankSantander, fileName, pages, cuenta, moneda, movs, models.CalcularResumen(movs), anio, mes)
}

func (p *SantanderParser) accountInfo(text string) (cuenta, moneda string) {
	cuenta = models.SinCuenta
	if m := santanderAccountPattern.FindStringSubmatch(text); m != nil {
		cuenta = m[1]
	}
	moneda = models.MonedaMXN
	if containsAny(foldUpper(text), []string{"USD", "DOLARES"}) {
		moneda = models.MonedaUSD
	}
	return cuenta, moneda
}

func (p *SantanderParser) period(text string) (anio, mes int, ok bool) {
	for _, pat := range santanderPeriodPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := normalize.MonthNumber(m[2])
		if err != nil {
			continue
		}
		anio, _ = strconv.Atoi(m[3])
		return anio, n, true
	}

	if m := santanderFirstMovement.FindStringSubmatch(text); m != nil {
		if n, err := normalize.MonthNumber(m[2]); err == nil {
			anio, _ = strconv.Atoi(m[3])
			return anio, n, true
		}
	}

	if m := anyYearPattern.FindStringSubmatch(text); m != nil {
		yy, _ := strconv.Atoi(m[1])
		return 2000 + yy, 1, true
	}
	return 0, 0, false
}

var santanderContinuationRules = ContinuationRules[string]{
	Guards: []Guard[string]{
		{Name: "next-transaction", Check: func(l string) (LineAction, bool) {
			return Stop, santanderLinePattern.MatchString(l)
		}},
		{Name: "noise", Check: func(l string) (LineAction, bool) {
			return Skip, santanderIsNoise(l)
		}},
	},
}

func (p *SantanderParser) pageMovements(page models.PageText, seen map[string]struct{}) []models.Movimiento {
	var lines []string
	for _, raw := range page.Lines() {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isDoubledText(line) {
			line = collapseDoubledText(line)
		}
		lines = append(lines, line)
	}

	cont := NewContinuation(santanderContinuationRules)
	var movs []models.Movimiento
	for i := 0; i < len(lines); i++ {
		m := santanderLinePattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		extra, next := cont.Collect(lines, i+1)
		if mov, ok := santanderMovement(m, extra, seen); ok {
			movs = append(movs, mov)
		}
		i = next - 1
	}
	return movs
}

// santanderMovement builds a movement from a matched start line and its
// continuation lines. Folio becomes the reference.
func santanderMovement(m []string, extra []string, seen map[string]struct{}) (models.Movimiento, bool) {
	folio := m[4]
	resto := strings.TrimSpace(m[5])

	fecha, err := normalize.ParseBankDate(m[1]+"-"+m[2]+"-"+m[3], 0, 0)
	if err != nil {
		return models.Movimiento{}, false
	}

	montos := santanderMoneyPattern.FindAllString(resto, -1)
	if len(montos) < 2 {
		return models.Movimiento{}, false
	}

	concepto := normalize.CleanWhitespace(santanderMoneyPattern.ReplaceAllString(resto, ""))
	if len(extra) > 0 {
		parts := make([]string, len(extra))
		for i, l := range extra {
			parts[i] = normalize.CleanWhitespace(l)
		}
		concepto += " | " + strings.Join(parts, " | ")
	}

	monto := normalize.ParseMoneySafe(montos[0])
	if monto.IsZero() && len(montos) >= 3 {
		monto = normalize.ParseMoneySafe(montos[1])
	}
	if !monto.IsPositive() {
		return models.Movimiento{}, false
	}

	if !claimMovementID(seen, fmt.Sprintf("%s_%s", fecha.Format("2006-01-02"), monto.String())) {
		return models.Movimiento{}, false
	}

	retiro, deposito := monto, decimal.Zero
	if containsAny(foldUpper(concepto), santanderDepositKeywords) {
		retiro, deposito = decimal.Zero, monto
	}
	mov, err := models.NewMovimiento(fecha, concepto, folio, retiro, deposito)
	if err != nil {
		return models.Movimiento{}, false
	}
	return mov, true
}

// claimMovementID records base with the first free counter suffix. It
// returns false once the counter passes maxDuplicateCounter.
func claimMovementID(seen map[string]struct{}, base string) bool {
	for n := 1; n <= maxDuplicateCounter; n++ {
		id := fmt.Sprintf("%s_%d", base, n)
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			return true
		}
	}
	return false
}

func santanderIsNoise(line string) bool {
	for _, p := range santanderNoisePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// isDoubledText detects lines where an overlaid text layer interleaved every
// character with itself ("RREECCIIBBIIDDOO"). It samples up to the first 20
// alphanumerics and flags the line when more than 70% of the pairs match.
func isDoubledText(s string) bool {
	var alnum []rune
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum = append(alnum, r)
		}
	}
	if len(alnum) < 6 {
		return false
	}
	if len(alnum) > 20 {
		alnum = alnum[:20]
	}
	pairs := len(alnum) / 2
	equal := 0
	for i := 0; i < pairs*2; i += 2 {
		if alnum[i] == alnum[i+1] {
			equal++
		}
	}
	return pairs > 0 && float64(equal)/float64(pairs) > 0.7
}

// collapseDoubledText reduces each pair of identical adjacent characters to
// one: "22--EENNEE--22002255" becomes "2-ENE-2025".
func collapseDoubledText(s string) string {
	rs := []rune(s)
	var b strings.Builder
	for i := 0; i < len(rs); {
		b.WriteRune(rs[i])
		if i+1 < len(rs) && rs[i] == rs[i+1] {
			i += 2
		} else {
			i++
		}
	}
	return b.String()
}
