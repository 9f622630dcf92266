package writer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

// CSVWriter writes the movement detail as CSV.
type CSVWriter struct {
	// IncludeHeader prepends "# " metadata rows for a single statement,
	// totals included.
	IncludeHeader bool
}

func (w *CSVWriter) Extension() string { return ".csv" }

// WriteSingle writes one statement to path.
func (w *CSVWriter) WriteSingle(res *models.ResultadoParseo, path string) (string, error) {
	return writeFile(path, w.Extension(), []*models.ResultadoParseo{res}, w.Write)
}

// WriteConsolidated writes the movements of every statement to one file.
func (w *CSVWriter) WriteConsolidated(results []*models.ResultadoParseo, path string) (string, error) {
	if err := checkConsolidated(results, path); err != nil {
		return "", err
	}
	return writeFile(path, w.Extension(), results, w.Write)
}

// Write writes movements in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, results []*models.ResultadoParseo) error {
	writer := csv.NewWriter(out)

	if w.IncludeHeader && len(results) == 1 {
		r := results[0]
		meta := [][]string{
			{"# Banco", r.InfoCuenta.Banco},
			{"# Cuenta", r.InfoCuenta.Cuenta},
			{"# Moneda", r.InfoCuenta.Moneda},
			{"# Periodo", r.Periodo()},
			{"# Archivo", r.ArchivoOrigen},
			{"# Retiros", normalize.FormatMoney(r.Resumen.TotalRetiros)},
			{"# Depósitos", normalize.FormatMoney(r.Resumen.TotalDepositos)},
		}
		for _, row := range meta {
			if row[1] == "" {
				continue
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(movementHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		for _, m := range r.Movimientos {
			row := []string{
				r.InfoCuenta.Banco,
				r.InfoCuenta.Cuenta,
				r.InfoCuenta.Moneda,
				m.Fecha.Format(dateLayout),
				m.Concepto,
				m.Referencia,
				formatAmount(m.Retiro),
				formatAmount(m.Deposito),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatAmount(amount decimal.Decimal) string {
	if amount.IsZero() {
		return ""
	}
	return amount.StringFixed(2)
}
