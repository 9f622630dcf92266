// Package writer persists parse results as spreadsheets, CSV or JSON.
package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// OutputWriter persists one or many parse results. Every failure is a
// *models.OutputError. The returned path is the one actually written, which
// may differ from the requested one in its extension.
type OutputWriter interface {
	WriteSingle(res *models.ResultadoParseo, path string) (string, error)
	WriteConsolidated(results []*models.ResultadoParseo, path string) (string, error)
	Write(w io.Writer, results []*models.ResultadoParseo) error
	Extension() string
}

// Column headers of the movement detail, shared by every format.
var movementHeader = []string{"Banco", "Cuenta", "Moneda", "Fecha", "Concepto", "Referencia", "Retiros", "Depósitos"}

const dateLayout = "02/01/2006"

// New returns the writer for format: "xlsx", "csv" or "json".
func New(format string) (OutputWriter, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "xlsx", "excel", "":
		return &ExcelWriter{}, nil
	case "csv":
		return &CSVWriter{IncludeHeader: true}, nil
	case "json":
		return &JSONWriter{Indent: true}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// withExtension forces ext on path.
func withExtension(path, ext string) string {
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// writeFile creates the parent directories of path and streams results
// into it through write.
func writeFile(path, ext string, results []*models.ResultadoParseo, write func(io.Writer, []*models.ResultadoParseo) error) (string, error) {
	path = withExtension(path, ext)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", &models.OutputError{Ruta: path, Causa: "no se pudo crear el directorio", Err: err}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", &models.OutputError{Ruta: path, Causa: "no se pudo crear el archivo", Err: err}
	}
	if err := write(f, results); err != nil {
		f.Close()
		return "", &models.OutputError{Ruta: path, Causa: err.Error(), Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &models.OutputError{Ruta: path, Causa: "no se pudo cerrar el archivo", Err: err}
	}
	return path, nil
}

func checkConsolidated(results []*models.ResultadoParseo, path string) error {
	if len(results) == 0 {
		return &models.OutputError{Ruta: path, Causa: "No hay resultados para consolidar"}
	}
	return nil
}
