// Package extractor turns PDF files into per-page text, with positioned
// words where the backend can provide them.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// Extractor is one text extraction backend. Backends are tried in priority
// order by the processor.
type Extractor interface {
	// Name identifies the backend in logs and events.
	Name() string
	// CanHandle reports whether the backend accepts the file type of path.
	CanHandle(path string) bool
	// Extract returns one PageText per page, in order. Pages without text
	// are kept with an empty Text so page numbers stay aligned.
	Extract(ctx context.Context, path string) ([]models.PageText, error)
}

// isPDF reports whether path has a .pdf extension, in any case.
func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// validatePDF checks that path names an existing regular PDF file.
func validatePDF(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &models.FormatoInvalidoError{Archivo: path, FormatoEsperado: "PDF", Detalle: "El archivo no existe"}
		}
		return &models.ExtractionError{Archivo: path, Causa: err.Error(), Err: err}
	}
	if info.IsDir() {
		return &models.FormatoInvalidoError{Archivo: path, FormatoEsperado: "PDF", Detalle: "Es un directorio"}
	}
	if !isPDF(path) {
		return &models.FormatoInvalidoError{
			Archivo:         path,
			FormatoEsperado: "PDF",
			Detalle:         fmt.Sprintf("Extensión inesperada: %s", filepath.Ext(path)),
		}
	}
	return nil
}

func extractionError(path, cause string, err error) error {
	return &models.ExtractionError{Archivo: path, Causa: cause, Err: err}
}
