package writer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/bank-parser/internal/models"
)

const (
	sheetResumen     = "Resumen"
	sheetMovimientos = "Movimientos"

	moneyFormat = "#,##0.00"
)

var resumenHeader = []string{
	"Banco", "Cuenta", "Moneda", "Periodo", "Total Depósitos", "Num Depósitos",
	"Total Retiros", "Num Retiros", "Archivo",
}

type columnFormat struct {
	cols  string
	width float64
	style string // "", "text" or "money"
}

var resumenColumns = []columnFormat{
	{"A:A", 12, ""},
	{"B:B", 18, "text"},
	{"C:C", 8, ""},
	{"D:D", 10, ""},
	{"E:E", 18, "money"},
	{"F:F", 14, ""},
	{"G:G", 18, "money"},
	{"H:H", 14, ""},
	{"I:I", 30, ""},
}

var movimientosColumns = []columnFormat{
	{"A:A", 10, ""},
	{"B:B", 18, "text"},
	{"C:C", 8, ""},
	{"D:D", 12, ""},
	{"E:E", 50, ""},
	{"F:F", 15, "text"},
	{"G:H", 15, "money"},
}

// ExcelWriter writes the two-sheet workbook: a "Resumen" row per statement
// and every movement on "Movimientos".
type ExcelWriter struct{}

func (w *ExcelWriter) Extension() string { return ".xlsx" }

// WriteSingle writes one statement. A path without .xlsx gets it.
func (w *ExcelWriter) WriteSingle(res *models.ResultadoParseo, path string) (string, error) {
	return writeFile(path, w.Extension(), []*models.ResultadoParseo{res}, w.Write)
}

// WriteConsolidated writes every statement into one workbook.
func (w *ExcelWriter) WriteConsolidated(results []*models.ResultadoParseo, path string) (string, error) {
	if err := checkConsolidated(results, path); err != nil {
		return "", err
	}
	return writeFile(path, w.Extension(), results, w.Write)
}

// Write streams the workbook to out.
func (w *ExcelWriter) Write(out io.Writer, results []*models.ResultadoParseo) error {
	f, err := w.build(results)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func (w *ExcelWriter) build(results []*models.ResultadoParseo) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetResumen); err != nil {
		f.Close()
		return nil, fmt.Errorf("renaming sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetMovimientos); err != nil {
		f.Close()
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := writeRows(f, sheetResumen, resumenHeader, resumenRows(results)); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRows(f, sheetMovimientos, movementHeader, movimientosRows(results)); err != nil {
		f.Close()
		return nil, err
	}

	if err := applyColumns(f, sheetResumen, resumenColumns, styles); err != nil {
		f.Close()
		return nil, err
	}
	if err := applyColumns(f, sheetMovimientos, movimientosColumns, styles); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func newStyles(f *excelize.File) (map[string]int, error) {
	text, err := f.NewStyle(&excelize.Style{NumFmt: 49}) // "@"
	if err != nil {
		return nil, fmt.Errorf("creating text style: %w", err)
	}
	format := moneyFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return nil, fmt.Errorf("creating money style: %w", err)
	}
	return map[string]int{"text": text, "money": money}, nil
}

func applyColumns(f *excelize.File, sheet string, cols []columnFormat, styles map[string]int) error {
	for _, c := range cols {
		start, end := c.cols[:1], c.cols[2:]
		if err := f.SetColWidth(sheet, start, end, c.width); err != nil {
			return fmt.Errorf("setting width %s!%s: %w", sheet, c.cols, err)
		}
		if c.style == "" {
			continue
		}
		if err := f.SetColStyle(sheet, c.cols, styles[c.style]); err != nil {
			return fmt.Errorf("setting style %s!%s: %w", sheet, c.cols, err)
		}
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, header []string, rows [][]any) error {
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func resumenRows(results []*models.ResultadoParseo) [][]any {
	rows := make([][]any, 0, len(results))
	for _, r := range results {
		rows = append(rows, []any{
			r.InfoCuenta.Banco,
			r.InfoCuenta.Cuenta,
			r.InfoCuenta.Moneda,
			r.Periodo(),
			r.Resumen.TotalDepositos.InexactFloat64(),
			r.Resumen.NumDepositos,
			r.Resumen.TotalRetiros.InexactFloat64(),
			r.Resumen.NumRetiros,
			r.ArchivoOrigen,
		})
	}
	return rows
}

func movimientosRows(results []*models.ResultadoParseo) [][]any {
	var rows [][]any
	for _, r := range results {
		for _, m := range r.Movimientos {
			rows = append(rows, []any{
				r.InfoCuenta.Banco,
				r.InfoCuenta.Cuenta,
				r.InfoCuenta.Moneda,
				m.Fecha.Format(dateLayout),
				m.Concepto,
				m.Referencia,
				m.Retiro.InexactFloat64(),
				m.Deposito.InexactFloat64(),
			})
		}
	}
	return rows
}
