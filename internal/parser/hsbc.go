package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

const (
	hsbcTableMarker     = "DETALLE MOVIMIENTOS CUENTA INTEGRAL"
	hsbcLineTolerance   = 4.0
	hsbcHeaderBand      = 30.0
	hsbcDayColumnWidth  = 18.0
	hsbcDefaultRefWidth = 80.0
)

// hsbcColumn identifies one column of the movement table.
type hsbcColumn int

const (
	colDia hsbcColumn = iota
	colDescripcion
	colReferencia
	colRetiro
	colDeposito
	colSaldo
	numHSBCColumns
)

// hsbcHeaderKeywords is checked in column order; "DUa" is how the decoder
// renders "Día" on some statements.
var hsbcHeaderKeywords = [numHSBCColumns][]string{
	colDia:         {"Dia", "DUa", "Día"},
	colDescripcion: {"Descripcion", "Descripción"},
	colReferencia:  {"Referencia", "Serial"},
	colRetiro:      {"Retiro", "Cargo"},
	colDeposito:    {"Deposito", "Depósito", "Abono"},
	colSaldo:       {"Saldo"},
}

var hsbcTableEndMarkers = []string{
	"CoDi",
	"Informacion",
	"Información",
	"Aclaraciones",
	"Promociones",
	"Mensajes",
	"Emitido",
}

var (
	hsbcAccountIntegral = regexp.MustCompile(`CUENTA\s+INTEGRAL\s+No\.\s+(\d{10})`)
	hsbcAccountNumber   = regexp.MustCompile(`NUMERO\s+DE\s+CUENTA\s+.*?(\d{10})`)
	hsbcPeriod          = regexp.MustCompile(`(\d{2})/(\d{2})/(\d{4})\s+al\s+(\d{2})/(\d{2})/(\d{4})`)
	hsbcDay             = regexp.MustCompile(`^\d{1,2}$`)
)

// HSBCParser parses HSBC México statements. Column positions are read from
// the table header of every page, and glyph-encoded pages are decoded first.
type HSBCParser struct{}

func (p *HSBCParser) BankName() string { return string(models.BankHSBC) }

func (p *HSBCParser) Parse(pages []models.PageText, fileName string) (*models.ResultadoParseo, error) {
	if len(pages) == 0 {
		return nil, errNoPages(models.BankHSBC, fileName)
	}
	withWords := false
	for _, pg := range pages {
		if pg.HasWords() {
			withWords = true
			break
		}
	}
	if !withWords {
		return nil, errNoWords(models.BankHSBC, fileName)
	}

	decoded := make([]models.PageText, len(pages))
	for i, pg := range pages {
		decoded[i] = decodeHSBCPage(pg)
	}
	text := models.JoinText(decoded)

	cuenta := models.SinCuenta
	if m := hsbcAccountIntegral.FindStringSubmatch(text); m != nil {
		cuenta = m[1]
	} else if m := hsbcAccountNumber.FindStringSubmatch(text); m != nil {
		cuenta = m[1]
	}
	moneda := models.MonedaMXN
	head := text
	if len(head) > 3000 {
		head = head[:3000]
	}
	if containsAny(foldUpper(head), []string{"USD", "DOLARES"}) {
		moneda = models.MonedaUSD
	}

	// The closing date of the period sets year and month.
	m := hsbcPeriod.FindStringSubmatch(text)
	if m == nil {
		return nil, newParseError(models.BankHSBC, fileName,
			"No se encontró el periodo (DD/MM/YYYY al DD/MM/YYYY)")
	}
	anio, _ := strconv.Atoi(m[6])
	mes, _ := strconv.Atoi(m[5])

	var movs []models.Movimiento
	for _, pg := range decoded {
		movs = append(movs, hsbcPageMovements(pg, anio, mes)...)
	}
	return buildResult(models.BankHSBC, fileName, decoded, cuenta, moneda, movs, models.CalcularResumen(movs), anio, mes)
}

// hsbcColumns holds the left edge of every column. A column ends where the
// next one starts; the balance column is open-ended.
type hsbcColumns [numHSBCColumns]float64

func (c hsbcColumns) assign(words []models.WordInfo) [numHSBCColumns]string {
	var parts [numHSBCColumns][]string
	for _, w := range words {
		x := w.CenterX()
		for col := colDia; col < numHSBCColumns; col++ {
			end := math.Inf(1)
			if col+1 < numHSBCColumns {
				end = c[col+1]
			}
			if x >= c[col] && x < end {
				parts[col] = append(parts[col], w.Text)
				break
			}
		}
	}
	var out [numHSBCColumns]string
	for i, p := range parts {
		out[i] = strings.TrimSpace(strings.Join(p, " "))
	}
	return out
}

// detectHSBCColumns reads the header row below the table marker. Day,
// withdrawal, deposit and balance are required.
func detectHSBCColumns(words []models.WordInfo) (hsbcColumns, bool) {
	markerY, found := 0.0, false
	for _, w := range words {
		if strings.Contains(w.Text, "DETALLE") && strings.Contains(w.Text, "MOVIMIENTO") {
			markerY, found = w.Top, true
			break
		}
	}
	if !found {
		return hsbcColumns{}, false
	}

	var (
		xs   [numHSBCColumns]float64
		seen [numHSBCColumns]bool
	)
	for _, w := range words {
		if w.Top <= markerY || w.Top > markerY+hsbcHeaderBand {
			continue
		}
		text := strings.TrimSpace(w.Text)
		for col, kws := range hsbcHeaderKeywords {
			if seen[col] || !containsAny(text, kws) {
				continue
			}
			xs[col], seen[col] = w.X0, true
			break
		}
	}
	for _, col := range []hsbcColumn{colDia, colRetiro, colDeposito, colSaldo} {
		if !seen[col] {
			return hsbcColumns{}, false
		}
	}

	cols := hsbcColumns{
		colDia:         xs[colDia],
		colDescripcion: xs[colDia] + hsbcDayColumnWidth,
		colReferencia:  xs[colRetiro] - hsbcDefaultRefWidth,
		colRetiro:      xs[colRetiro],
		colDeposito:    xs[colDeposito],
		colSaldo:       xs[colSaldo],
	}
	if seen[colReferencia] {
		cols[colReferencia] = xs[colReferencia]
	}
	return cols, true
}

func hsbcHeaderY(words []models.WordInfo, cols hsbcColumns) (float64, bool) {
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "Saldo" && math.Abs(w.X0-cols[colSaldo]) < 20 {
			return w.Top, true
		}
	}
	return 0, false
}

// hsbcRow accumulates the cells of one movement across its lines.
type hsbcRow struct {
	dia, descripcion, referencia, retiro, deposito string
}

func (r *hsbcRow) extend(cells [numHSBCColumns]string) {
	if c := cells[colReferencia]; c != "" {
		r.referencia = strings.TrimSpace(r.referencia + " " + c)
	}
	if c := cells[colDescripcion]; c != "" {
		r.descripcion = strings.TrimSpace(r.descripcion + " " + c)
	}
	if r.retiro == "" {
		r.retiro = cells[colRetiro]
	}
	if r.deposito == "" {
		r.deposito = cells[colDeposito]
	}
}

func (r hsbcRow) movement(anio, mes int) (models.Movimiento, bool) {
	if r.dia == "" || r.descripcion == "" {
		return models.Movimiento{}, false
	}
	fecha, err := normalize.ParseBankDate(r.dia, anio, mes)
	if err != nil {
		return models.Movimiento{}, false
	}
	retiro := hsbcAmount(r.retiro)
	deposito := hsbcAmount(r.deposito)
	if !retiro.IsPositive() && !deposito.IsPositive() {
		return models.Movimiento{}, false
	}
	ref := strings.TrimSpace(strings.ReplaceAll(r.referencia, "  ", " "))
	mov, err := models.NewMovimiento(fecha, r.descripcion, ref, retiro, deposito)
	if err != nil {
		return models.Movimiento{}, false
	}
	return mov, true
}

func hsbcAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "$", ""), " ", "")
	if s == "" {
		return decimal.Zero
	}
	return normalize.ParseMoneySafe(s)
}

func hsbcPageMovements(page models.PageText, anio, mes int) []models.Movimiento {
	if !page.HasWords() || !strings.Contains(page.Text, hsbcTableMarker) {
		return nil
	}
	cols, ok := detectHSBCColumns(page.Words)
	if !ok {
		return nil
	}
	headerY, ok := hsbcHeaderY(page.Words, cols)
	if !ok {
		return nil
	}

	var (
		movs    []models.Movimiento
		current *hsbcRow
	)
	flush := func() {
		if current == nil {
			return
		}
		if mov, ok := current.movement(anio, mes); ok {
			movs = append(movs, mov)
		}
	}

	for _, line := range groupWordsByTolerance(page.Words, hsbcLineTolerance) {
		if line.Y <= headerY+5 {
			continue
		}
		if containsAny(line.Text, hsbcTableEndMarkers) {
			break
		}
		cells := cols.assign(line.Words)
		if isDayOfMonth(cells[colDia]) {
			flush()
			current = &hsbcRow{
				dia:         cells[colDia],
				descripcion: cells[colDescripcion],
				referencia:  cells[colReferencia],
				retiro:      cells[colRetiro],
				deposito:    cells[colDeposito],
			}
			continue
		}
		if current != nil {
			current.extend(cells)
		}
	}
	flush()
	return movs
}

func isDayOfMonth(s string) bool {
	if !hsbcDay.MatchString(s) {
		return false
	}
	n, _ := strconv.Atoi(s)
	return n >= 1 && n <= 31
}
