package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

const scotiabankMaxConceptLines = 15

// Direction of an inter-account transfer is not printed; it is booked as a
// withdrawal.
const scotiabankAmbiguousTransfer = "SEL TRASPASO ENTRE CUENTAS"

// Withdrawal keywords are checked before deposit keywords. Both lists are
// unaccented and matched against the folded concept.
var scotiabankWithdrawalKeywords = []string{
	"SEL TRANSF. INTERBANCARIA SPEI",
	"TRASPASOS A OTROS BANCOS",
	"COBRO DE COMISION",
	"IVA POR COMISIONES",
	"IVA - COMISIONES",
	"IVA COMISION",
	"RETIRO",
	"PAGO",
	"APERTURA CONTRATO",
	"CARGO",
	"OPERACION MT101",
	"COMISION MT101",
}

var scotiabankDepositKeywords = []string{
	"CANCELACION DEPOSITO A PLAZO",
	"TRANSF INTERBANCARIA SPEI",
	"ABONO",
	"DEPOSITO",
	"TRANSFERENCIA RECIBIDA",
	"PAGO RECIBIDO",
	"CREDITO",
}

var scotiabankSectionMarkers = []string{
	"Detalledetusmovimientos",
	"Detalle de tus movimientos",
	"Fecha Concepto Origen",
}

var scotiabankIgnorable = []string{
	"Fecha Concepto Origen",
	"PAGINA",
	"Producto No.de",
	"Para los efectos",
	"Scotiabank Inverlat",
}

var (
	scotiabankDatePattern    = regexp.MustCompile(`^(\d{2})\s+([A-Z]{3})\b`)
	scotiabankMoneyPattern   = regexp.MustCompile(`\$([\d,]+\.\d{2})`)
	scotiabankAccountPattern = regexp.MustCompile(`[Cc][Uu][Ee][Nn][Tt][Aa]\s+(\d+)`)
	scotiabankRefPattern     = regexp.MustCompile(`\b(\d{10,})\b`)
	scotiabankPeriodPattern  = regexp.MustCompile(`(\d{2})-([A-Z]{3})-(\d{2})`)
	scotiabankLeadingDate    = regexp.MustCompile(`^\d{2}\s+[A-Z]{3}\s+`)
)

// ScotiabankParser parses Scotiabank statements. Movements carry only
// "DD MMM"; the year comes from the header. Only lines after the movement
// detail heading are considered.
type ScotiabankParser struct{}

func (p *ScotiabankParser) BankName() string { return string(models.BankScotiabank) }

func (p *ScotiabankParser) Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error) {
	if len(pages) == 0 {
		return nil, errNoPages(models.BankScotiabank, fileName)
	}

	cuenta, moneda := p.accountInfo(pages[0].Text)

	anio, mes, ok := p.period(pages[0].Text)
	if !ok {
		return nil, newParseError(models.BankScotiabank, fileName,
			"No se pudo determinar el año/mes del estado de cuenta")
	}

	var movs []models.Movimiento
	for _, page := range pages {
		movs = append(movs, p.pageMovements(page, anio)...)
	}

	return buildResult(models.BankScotiabank, fileName, pages, cuenta, moneda, movs, models.CalcularResumen(movs), anio, mes)
}

func (p *ScotiabankParser) accountInfo(text string) (cuenta, moneda string) {
	cuenta = models.SinCuenta
	if m := scotiabankAccountPattern.FindStringSubmatch(text); m != nil {
		cuenta = m[1]
		// Barcode-embedded account numbers carry a 4 digit prefix.
		if len(cuenta) > 15 {
			cuenta = cuenta[4:15]
		}
	}
	moneda = models.MonedaMXN
	if containsAny(foldUpper(text), []string{"USD", "DOLARES"}) {
		moneda = models.MonedaUSD
	}
	return cuenta, moneda
}

// period uses the last DD-MMM-YY on the first page, which is the cut date.
func (p *ScotiabankParser) period(text string) (anio, mes int, ok bool) {
	if all := scotiabankPeriodPattern.FindAllStringSubmatch(text, -1); len(all) > 0 {
		last := all[len(all)-1]
		if n, err := normalize.MonthNumber(last[2]); err == nil {
			yy, _ := strconv.Atoi(last[3])
			return 2000 + yy, n, true
		}
	}
	if m := anyYearPattern.FindStringSubmatch(text); m != nil {
		yy, _ := strconv.Atoi(m[1])
		return 2000 + yy, 1, true
	}
	return 0, 0, false
}

var scotiabankContinuationRules = ContinuationRules[string]{
	Guards: []Guard[string]{
		{Name: "next-transaction", Check: func(l string) (LineAction, bool) {
			return Stop, scotiabankDatePattern.MatchString(strings.TrimSpace(l))
		}},
		{Name: "blank", Check: func(l string) (LineAction, bool) {
			return Skip, strings.TrimSpace(l) == ""
		}},
		{Name: "page-header", Check: func(l string) (LineAction, bool) {
			return Stop, containsAny(l, scotiabankIgnorable)
		}},
	},
	MaxLines: scotiabankMaxConceptLines,
}

// scotiabankRules completes the shared rules for one movement: the block is
// full once it holds an amount and a balance, counting the start line.
func scotiabankRules(first string) ContinuationRules[string] {
	rules := scotiabankContinuationRules
	base := len(scotiabankMoneyPattern.FindAllString(first, -1))
	rules.Full = func(acc []string) bool {
		return base+len(scotiabankMoneyPattern.FindAllString(strings.Join(acc, " "), -1)) >= 2
	}
	return rules
}

func (p *ScotiabankParser) pageMovements(page models.PageText, anio int) []models.Movimiento {
	lines := strings.Split(page.Text, "\n")

	var (
		movs      []models.Movimiento
		inSection bool
	)
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if containsAny(line, scotiabankSectionMarkers) {
			inSection = true
			continue
		}
		if !inSection || line == "" || containsAny(line, scotiabankIgnorable) {
			continue
		}
		m := scotiabankDatePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fecha, err := normalize.ParseBankDate(m[1]+" "+m[2], anio, 0)
		if err != nil {
			continue
		}

		extra, next := NewContinuation(scotiabankRules(line)).Collect(lines, i+1)
		block := []string{line}
		for _, l := range extra {
			block = append(block, strings.TrimSpace(l))
		}
		if mov, ok := scotiabankMovement(fecha, block); ok {
			movs = append(movs, mov)
		}
		i = next - 1
	}
	return movs
}

func scotiabankMovement(fecha time.Time, block []string) (models.Movimiento, bool) {
	full := strings.Join(block, " ")
	concepto := strings.TrimSpace(scotiabankLeadingDate.ReplaceAllString(full, ""))

	var monto decimal.Decimal
	for _, m := range scotiabankMoneyPattern.FindAllStringSubmatch(full, -1) {
		if v := normalize.ParseMoneySafe(m[1]); v.IsPositive() {
			monto = v
			break
		}
	}
	if !monto.IsPositive() {
		return models.Movimiento{}, false
	}

	retiro, deposito := monto, decimal.Zero
	if scotiabankIsDeposit(concepto) {
		retiro, deposito = decimal.Zero, monto
	}

	var ref string
	if m := scotiabankRefPattern.FindStringSubmatch(concepto); m != nil {
		ref = m[1]
	}

	limpio := scotiabankMoneyPattern.ReplaceAllString(concepto, "")
	limpio = normalize.CleanWhitespace(strings.ReplaceAll(limpio, "$", ""))

	mov, err := models.NewMovimiento(fecha, limpio, ref, retiro, deposito)
	if err != nil {
		return models.Movimiento{}, false
	}
	return mov, true
}

// scotiabankIsDeposit applies withdrawal keywords first. A deposit phrase
// that extends the matched withdrawal keyword ("PAGO RECIBIDO" over "PAGO")
// still counts as a deposit.
func scotiabankIsDeposit(concepto string) bool {
	upper := foldUpper(concepto)
	if strings.Contains(upper, scotiabankAmbiguousTransfer) {
		return false
	}
	for _, w := range scotiabankWithdrawalKeywords {
		if !strings.Contains(upper, w) {
			continue
		}
		for _, d := range scotiabankDepositKeywords {
			if strings.Contains(d, w) && strings.Contains(upper, d) {
				return true
			}
		}
		return false
	}
	return containsAny(upper, scotiabankDepositKeywords)
}
