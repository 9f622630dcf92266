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

// BBVA column boundaries, measured on the left edge of amounts.
const (
	bbvaCargoMaxX = 400.0
	bbvaAbonoMaxX = 470.0
)

var bbvaSkipPatterns = []string{
	"bbva bancomer, s.a.",
	"bbva méxico, s.a.",
	"bbva mexico, s.a.",
	"institucion de banca multiple",
	"paseo de la reforma",
	"estado de cuenta",
	"pagina",
	"no. cuenta",
	"no. cliente",
	"grupo financiero",
	"fecha de corte",
}

var (
	bbvaAccountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Cuenta|No\.\s*de\s*Cuenta)[:\s]+(\d+)`),
		regexp.MustCompile(`(?i)No\.\s*Cuenta\s+(\d+)`),
		regexp.MustCompile(`(?i)CUENTA\s+(\d{8,})`),
	}

	// Group 1 is the month (name or number), group 2 the year.
	bbvaPeriodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Periodo|Per[ií]odo)[:\s]+\d{1,2}\s*[/\s]\s*([A-Za-z]{3,})\s*[/\s]\s*(\d{4})`),
		regexp.MustCompile(`(?i)[Dd]el?\s+\d{1,2}\s+de\s+([A-Za-z]+)\s+.*?(\d{4})`),
		regexp.MustCompile(`(?i)[Ff]echa\s+de\s+[Cc]orte[:\s]+\d{1,2}[/\s]([A-Za-z]{3,})[/\s](\d{4})`),
		regexp.MustCompile(`(?i)[Cc]orte\s+[Aa]l?\s+\d{1,2}\s+[Dd]e\s+([A-Za-z]+)\s+[Dd]e\s+(\d{4})`),
		regexp.MustCompile(`(?i)(?:corte|periodo)[:\s]+\d{1,2}/(\d{2})/(\d{4})`),
	}

	anyYearPattern      = regexp.MustCompile(`20(\d{2})`)
	bbvaMonthNearDay    = regexp.MustCompile(`\d{1,2}[/\s]([A-Za-z]{3})`)
	bbvaStartPattern    = regexp.MustCompile(`^(\d{2}/[A-Z]{3})\s+(.+)`)
	bbvaDateLinePattern = regexp.MustCompile(`^\d{2}/[A-Z]{3}`)
	bbvaRefPattern      = regexp.MustCompile(`Ref\.\s*([A-Z]*:?\s*[\w-]+)`)
	bbvaWordAmount      = regexp.MustCompile(`^\d+\.\d{2}$`)
	groupedAmount       = regexp.MustCompile(`^\d{1,3}(,\d{3})*\.\d{2}$`)
	bbvaLeadingDate     = regexp.MustCompile(`^\d{2}/[A-Z]{3}\s+`)
	bbvaInlineAmount    = regexp.MustCompile(`\b\d{1,3}(,\d{3})*\.\d{2}\b`)
)

// BBVAParser parses BBVA México statements. Movement type is encoded by the
// column an amount sits in, so positioned words are required.
type BBVAParser struct{}

func (p *BBVAParser) BankName() string { return string(models.BankBBVA) }

func (p *BBVAParser) Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error) {
	if len(pages) == 0 {
		return nil, errNoPages(models.BankBBVA, fileName)
	}
	if !pages[0].HasWords() {
		return nil, errNoWords(models.BankBBVA, fileName)
	}

	cuenta, moneda := p.accountInfo(pages[0].Text)

	anio, mes, ok := p.period(models.JoinText(pageRange(pages, 2)))
	if !ok {
		return nil, newParseError(models.BankBBVA, fileName,
			"No se pudo determinar el año/mes del estado de cuenta")
	}

	var movs []models.Movimiento
	for _, page := range pages {
		if !page.HasWords() {
			continue
		}
		movs = append(movs, p.pageMovements(page, anio)...)
	}

	return buildResult(models.BankBBVA, fileName, pages, cuenta, moneda, movs, models.CalcularResumen(movs), anio, mes)
}

func (p *BBVAParser) accountInfo(text string) (cuenta, moneda string) {
	cuenta, ok := firstSubmatch(bbvaAccountPatterns, text)
	if !ok {
		cuenta = models.SinCuenta
	}
	moneda = models.MonedaMXN
	if containsAny(strings.ToUpper(text), []string{"USD", "DOLAR", "DOLLAR"}) {
		moneda = models.MonedaUSD
	}
	return cuenta, moneda
}

func (p *BBVAParser) period(text string) (anio, mes int, ok bool) {
	for _, pat := range bbvaPeriodPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		mes, err := monthFromToken(m[1])
		if err != nil {
			continue
		}
		anio, _ := strconv.Atoi(m[2])
		return anio, mes, true
	}

	if m := anyYearPattern.FindStringSubmatch(text); m != nil {
		yy, _ := strconv.Atoi(m[1])
		anio = 2000 + yy
		if mm := bbvaMonthNearDay.FindStringSubmatch(text); mm != nil {
			if n, err := normalize.MonthNumber(mm[1]); err == nil {
				return anio, n, true
			}
		}
		return anio, 1, true
	}
	return 0, 0, false
}

// monthFromToken accepts either a month number or a month name.
func monthFromToken(tok string) (int, error) {
	if n, err := strconv.Atoi(tok); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("mes fuera de rango: %d", n)
		}
		return n, nil
	}
	return normalize.MonthNumber(tok)
}

// bbvaCandidate is the in-progress state of one movement.
type bbvaCandidate struct {
	fecha      string
	concepto   []string
	referencia string
	cargo      decimal.Decimal
	abono      decimal.Decimal
}

func (p *BBVAParser) pageMovements(page models.PageText, anio int) []models.Movimiento {
	lines := groupWordsByKey(page.Words, func(top float64) float64 { return roundTo(top, 1) })
	cont := NewContinuation(bbvaContinuationRules)

	var movs []models.Movimiento
	for i, line := range lines {
		m := bbvaStartPattern.FindStringSubmatch(line.Text)
		if m == nil {
			continue
		}
		cargo, abono := bbvaClassifyAmounts(line.Words)
		if cargo.IsZero() && abono.IsZero() {
			continue
		}

		c := bbvaCandidate{fecha: m[1], cargo: cargo, abono: abono}
		c.concepto = append(c.concepto, bbvaCleanConcept(m[2]))

		following, _ := cont.Collect(lines, i+1)
		for _, fl := range following {
			text := strings.TrimSpace(fl.Text)
			if rm := bbvaRefPattern.FindStringSubmatch(text); rm != nil {
				c.referencia = strings.TrimSpace(rm[1])
				before, _, _ := strings.Cut(text, "Ref.")
				before = strings.TrimSpace(before)
				if before != "" && !strings.HasPrefix(before, "REF:") {
					c.concepto = append(c.concepto, before)
				}
				continue
			}
			c.concepto = append(c.concepto, text)
		}

		if mov, ok := c.build(anio); ok {
			movs = append(movs, mov)
		}
	}
	return movs
}

func (c bbvaCandidate) build(anio int) (models.Movimiento, bool) {
	fecha, err := normalize.ParseBankDate(c.fecha, anio, 0)
	if err != nil {
		return models.Movimiento{}, false
	}

	var parts []string
	for _, s := range c.concepto {
		if s != "" {
			parts = append(parts, s)
		}
	}
	mov, err := models.NewMovimiento(fecha, strings.Join(parts, " "), c.referencia, c.cargo, c.abono)
	if err != nil {
		return models.Movimiento{}, false
	}
	return mov, true
}

var bbvaContinuationRules = ContinuationRules[wordLine]{
	Guards: []Guard[wordLine]{
		{Name: "page-furniture", Check: func(l wordLine) (LineAction, bool) {
			return Skip, containsAny(strings.ToLower(l.Text), bbvaSkipPatterns)
		}},
		{Name: "next-transaction", Check: func(l wordLine) (LineAction, bool) {
			return Stop, bbvaDateLinePattern.MatchString(l.Text)
		}},
		{Name: "reference", Check: func(l wordLine) (LineAction, bool) {
			return AppendAndStop, bbvaRefPattern.MatchString(l.Text)
		}},
		{Name: "amount-line", Check: func(l wordLine) (LineAction, bool) {
			for _, w := range l.Words {
				if groupedAmount.MatchString(w.Text) {
					return Skip, true
				}
			}
			return Skip, false
		}},
		{Name: "blank", Check: func(l wordLine) (LineAction, bool) {
			return Skip, strings.TrimSpace(l.Text) == ""
		}},
	},
}

// bbvaClassifyAmounts assigns each non-zero amount on the line to the
// withdrawal or deposit column by its X position. Balance-column amounts are
// ignored. A later amount in the same column replaces an earlier one.
func bbvaClassifyAmounts(words []models.WordInfo) (cargo, abono decimal.Decimal) {
	for _, w := range words {
		if !bbvaWordAmount.MatchString(strings.ReplaceAll(w.Text, ",", "")) {
			continue
		}
		amt := normalize.ParseMoneySafe(w.Text)
		if amt.IsZero() {
			continue
		}
		switch {
		case w.X0 < bbvaCargoMaxX:
			cargo = amt
		case w.X0 < bbvaAbonoMaxX:
			abono = amt
		}
	}
	return cargo, abono
}

func bbvaCleanConcept(s string) string {
	s = bbvaLeadingDate.ReplaceAllString(s, "")
	s = bbvaInlineAmount.ReplaceAllString(s, "")
	return normalize.CleanWhitespace(s)
}
