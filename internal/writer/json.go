package writer

import (
	"encoding/json"
	"io"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// JSONWriter writes results as a JSON array of ResultadoParseo.
type JSONWriter struct {
	Indent bool
}

func (w *JSONWriter) Extension() string { return ".json" }

func (w *JSONWriter) WriteSingle(res *models.ResultadoParseo, path string) (string, error) {
	return writeFile(path, w.Extension(), []*models.ResultadoParseo{res}, w.Write)
}

func (w *JSONWriter) WriteConsolidated(results []*models.ResultadoParseo, path string) (string, error) {
	if err := checkConsolidated(results, path); err != nil {
		return "", err
	}
	return writeFile(path, w.Extension(), results, w.Write)
}

func (w *JSONWriter) Write(out io.Writer, results []*models.ResultadoParseo) error {
	enc := json.NewEncoder(out)
	if w.Indent {
		enc.SetIndent("", "  ")
	}
	if results == nil {
		results = []*models.ResultadoParseo{}
	}
	return enc.Encode(results)
}
