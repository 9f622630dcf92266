package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

// Banorte column boundaries on the left edge of amounts.
const (
	banorteDepositoMinX = 370.0
	banorteDepositoMaxX = 445.0
	banorteRetiroMinX   = 445.0
	banorteRetiroMaxX   = 515.0
)

const banorteMovementsMarker = "DETALLE DE MOVIMIENTOS"

// Used only when an amount's column is inconclusive. "DEP." covers the
// DEP.EFECTIVO abbreviation.
var banorteDepositKeywords = []string{
	"DEPOSITO",
	"DEP.",
	"SPEI RECIBIDO",
	"ABONO",
	"INTERES",
	"LIQ.INT",
	"RENDIMIENTO",
	"COMPENSACION DESFASE",
}

// Page footers and trailing informative sections. Matched ignoring case and
// accents anywhere in the line.
var banorteStopMarkers = []string{
	"Línea Directa",
	"Ciudad de México",
	"www.banorte",
	"Banco Mercan",
	"800 DIRECTA",
	"Resto del pa",
	"Cargos Objetados",
	"Informe de Dep",
	"OTROS▼",
	"Folio Fecha Tipo",
}

var (
	banorteAccountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)CUENTA\s+PRODUCTIVA\s+ESPECIAL\s+II?\s*(\d{10})`),
		regexp.MustCompile(`(?i)No\.\s*de\s*Cuenta[:\s]+(\d{10,})`),
		regexp.MustCompile(`(?i)CUENTA[^\d]*(\d{10})`),
		regexp.MustCompile(`(?i)ENLACE\s+NEGOCIOS\s+BASICA\s+(\d{10})`),
	}
	banorteRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)REFERENCIA:\s*(\w+)`),
		regexp.MustCompile(`(?i)REF(?:\s+SERV\s+EMISOR)?:\s*(\w+)`),
		regexp.MustCompile(`(?i)CVE\s+RAST(?:REO)?:\s*(\w+)`),
	}

	banortePeriodYear     = regexp.MustCompile(`[Pp]eriodo\s+[Dd]el\s+\d{2}/\w+/(\d{4})`)
	banortePeriodMonth    = regexp.MustCompile(`[Pp]eriodo\s+[Dd]el\s+\d{2}/([A-Za-z]+)/\d{4}`)
	banortePeriodShort    = regexp.MustCompile(`[Pp]eriodo\s+[Dd]el\s+\d{2}-([A-Za-z]{3})-(\d{2})`)
	banorteAnyShortDate   = regexp.MustCompile(`\d{2}-([A-Za-z]{3})-\d{2}`)
	banorteStartPattern   = regexp.MustCompile(`^(\d{2}-[A-Z]{3}-\d{2}|\d{2}/\d{2}/\d{4})`)
	banorteNegativeAmount = regexp.MustCompile(`^(\d{1,3}(?:,\d{3})*\.\d{2})-$`)
	banortePlainAmount    = regexp.MustCompile(`^\d{1,3}(?:,\d{3})*\.\d{2}$`)
	banorteLeadingDate    = regexp.MustCompile(`^\d{2}-[A-Z]{3}-\d{2}`)
)

// BanorteParser parses Banorte statements. Only pages carrying the movement
// detail section are scanned. Amount columns decide the movement type, with
// concept keywords as a fallback.
//
// The printed opening balance ("SALDO ANTERIOR") and the balance column of
// the last movement are reported in the summary for reconciliation.
type BanorteParser struct{}

func (p *BanorteParser) BankName() string { return string(models.BankBanorte) }

func (p *BanorteParser) Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error) {
	if len(pages) == 0 {
		return nil, errNoPages(models.BankBanorte, fileName)
	}
	if !pages[0].HasWords() {
		return nil, errNoWords(models.BankBanorte, fileName)
	}

	cuenta, moneda := p.accountInfo(pages)

	anio, mes, ok := p.period(models.JoinText(pageRange(pages, 2)))
	if !ok {
		return nil, newParseError(models.BankBanorte, fileName,
			"No se pudo determinar el año/mes del estado de cuenta")
	}

	var (
		movs           []models.Movimiento
		inicial, final *decimal.Decimal
	)
	for _, page := range pages {
		if !page.HasWords() || !strings.Contains(strings.ToUpper(page.Text), banorteMovementsMarker) {
			continue
		}
		sc := banortePageScan{}
		sc.run(page)
		movs = append(movs, sc.movs...)
		if inicial == nil && sc.saldoAnterior != nil {
			inicial = sc.saldoAnterior
		}
		if sc.ultimoSaldo != nil {
			final = sc.ultimoSaldo
		}
	}

	resumen := models.CalcularResumen(movs)
	if inicial != nil && final != nil {
		resumen = resumen.WithSaldos(inicial, final)
	}
	return buildResult(models.BankBanorte, fileName, pages, cuenta, moneda, movs, resumen, anio, mes)
}

// accountInfo looks at up to three pages; the account sometimes appears on
// the second one.
func (p *BanorteParser) accountInfo(pages []models.PageText) (cuenta, moneda string) {
	moneda = models.MonedaMXN
	for _, page := range pageRange(pages, 3) {
		if containsAny(foldUpper(page.Text), []string{"DOLARES", "USD"}) {
			moneda = models.MonedaUSD
		}
		if c, ok := firstSubmatch(banorteAccountPatterns, page.Text); ok {
			return c, moneda
		}
	}
	return models.SinCuenta, moneda
}

func (p *BanorteParser) period(text string) (anio, mes int, ok bool) {
	if m := banortePeriodYear.FindStringSubmatch(text); m != nil {
		anio, _ = strconv.Atoi(m[1])
		if mm := banortePeriodMonth.FindStringSubmatch(text); mm != nil {
			if n, err := normalize.MonthNumber(mm[1]); err == nil {
				return anio, n, true
			}
		}
		return anio, 1, true
	}

	if m := banortePeriodShort.FindStringSubmatch(text); m != nil {
		if n, err := normalize.MonthNumber(m[1]); err == nil {
			yy, _ := strconv.Atoi(m[2])
			return normalize.ExpandYear(yy), n, true
		}
	}

	if m := anyYearPattern.FindStringSubmatch(text); m != nil {
		yy, _ := strconv.Atoi(m[1])
		anio = 2000 + yy
		if mm := banorteAnyShortDate.FindStringSubmatch(text); mm != nil {
			if n, err := normalize.MonthNumber(mm[1]); err == nil {
				return anio, n, true
			}
		}
		return anio, 1, true
	}
	return 0, 0, false
}

var banorteContinuationRules = ContinuationRules[wordLine]{
	Guards: []Guard[wordLine]{
		{Name: "next-transaction", Check: func(l wordLine) (LineAction, bool) {
			return Stop, banorteStartPattern.MatchString(l.Text)
		}},
		{Name: "footer", Check: func(l wordLine) (LineAction, bool) {
			return Stop, containsAnyFold(l.Text, banorteStopMarkers)
		}},
	},
}

// banorteAmount is a money word found on a movement line.
type banorteAmount struct {
	x     float64
	value decimal.Decimal
}

type banortePageScan struct {
	movs          []models.Movimiento
	saldoAnterior *decimal.Decimal
	ultimoSaldo   *decimal.Decimal
}

func (s *banortePageScan) run(page models.PageText) {
	lines := groupWordsByKey(page.Words, func(top float64) float64 {
		return math.RoundToEven(top/2) * 2
	})
	cont := NewContinuation(banorteContinuationRules)

	for i, line := range lines {
		m := banorteStartPattern.FindStringSubmatch(line.Text)
		if m == nil {
			continue
		}
		fechaStr := m[1]

		if strings.Contains(strings.ToUpper(line.Text), "SALDO ANTERIOR") {
			if amounts, _ := banorteSplitWords(line.Words, fechaStr); len(amounts) > 0 && s.saldoAnterior == nil {
				v := amounts[len(amounts)-1].value
				s.saldoAnterior = &v
			}
			continue
		}

		words := append([]models.WordInfo(nil), line.Words...)
		following, _ := cont.Collect(lines, i+1)
		for _, fl := range following {
			words = append(words, fl.Words...)
		}

		amounts, concepto := banorteSplitWords(words, fechaStr)
		deposito, retiro := banorteClassify(amounts, concepto)
		if !deposito.IsPositive() && !retiro.IsPositive() {
			continue
		}

		fecha, err := banorteDate(fechaStr)
		if err != nil {
			continue
		}

		mov, err := models.NewMovimiento(fecha, concepto, banorteReference(concepto),
			clampZero(retiro), clampZero(deposito))
		if err != nil {
			continue
		}
		s.movs = append(s.movs, mov)
		if len(amounts) >= 2 {
			v := amounts[len(amounts)-1].value
			s.ultimoSaldo = &v
		}
	}
}

// banorteSplitWords separates money words from concept words. Amounts with a
// trailing minus are negated. Concept words that are part of the date are
// dropped.
func banorteSplitWords(words []models.WordInfo, fechaStr string) ([]banorteAmount, string) {
	var (
		amounts []banorteAmount
		parts   []string
	)
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		neg := banorteNegativeAmount.MatchString(text)
		if neg || banortePlainAmount.MatchString(text) {
			v := normalize.ParseMoneySafe(strings.ReplaceAll(text, "-", ""))
			if v.IsPositive() {
				if neg {
					v = v.Neg()
				}
				amounts = append(amounts, banorteAmount{x: w.X0, value: v})
			}
			continue
		}
		if !strings.Contains(fechaStr, text) {
			parts = append(parts, text)
		}
	}
	concepto := strings.TrimSpace(strings.Join(parts, " "))
	concepto = strings.TrimSpace(banorteLeadingDate.ReplaceAllString(concepto, ""))
	return amounts, concepto
}

// banorteClassify maps the found amounts to (deposito, retiro). With two
// amounts the second is the balance; with three or more the last is.
func banorteClassify(amounts []banorteAmount, concepto string) (deposito, retiro decimal.Decimal) {
	switch {
	case len(amounts) == 2:
		a := amounts[0]
		switch {
		case a.x >= banorteDepositoMinX && a.x < banorteDepositoMaxX:
			deposito = a.value
		case a.x >= banorteRetiroMinX && a.x < banorteRetiroMaxX:
			retiro = a.value
		case banorteIsDeposit(concepto):
			deposito = a.value
		default:
			retiro = a.value
		}
	case len(amounts) >= 3:
		for _, a := range amounts[:len(amounts)-1] {
			switch {
			case a.x >= banorteDepositoMinX && a.x < banorteDepositoMaxX:
				if deposito.IsZero() {
					deposito = a.value
				}
			case a.x >= banorteRetiroMinX && a.x < banorteRetiroMaxX:
				if retiro.IsZero() {
					retiro = a.value
				}
			}
		}
	}
	return deposito, retiro
}

func banorteIsDeposit(concepto string) bool {
	upper := foldUpper(concepto)
	for _, kw := range banorteDepositKeywords {
		if strings.HasPrefix(upper, kw) {
			return true
		}
	}
	return strings.Contains(upper, "SPEI RECIBIDO")
}

func banorteReference(concepto string) string {
	ref, _ := firstSubmatch(banorteRefPatterns, concepto)
	return ref
}

// banorteDate reads DD-MMM-YY or DD/MM/YYYY; both carry their year.
func banorteDate(s string) (time.Time, error) {
	return normalize.ParseBankDate(s, 0, 0)
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
