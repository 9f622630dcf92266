// Package telemetry provides processing event loggers: a console reporter
// with an end-of-run summary, Prometheus counters and a fan-out.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/insightdelivered/bank-parser/internal/processor"
)

var _ processor.EventLogger = (*ConsoleLogger)(nil)

// FileError is one failed file in the summary.
type FileError struct {
	Archivo string `json:"archivo"`
	Error   string `json:"error"`
}

// Summary aggregates one run.
type Summary struct {
	ArchivosRecibidos   int         `json:"archivosRecibidos"`
	ArchivosProcesados  int         `json:"archivosProcesados"`
	ArchivosDescartados int         `json:"archivosDescartados"`
	ArchivosConError    int         `json:"archivosConError"`
	TotalMovimientos    int         `json:"totalMovimientos"`
	Errores             []FileError `json:"errores"`
}

// ConsoleLogger writes one progress line per event to out and mirrors every
// event to slog. It keeps the counters behind Summary.
type ConsoleLogger struct {
	out    io.Writer
	logger *slog.Logger

	mu      sync.Mutex
	summary Summary
}

// NewConsoleLogger returns a console logger. A nil logger disables the slog
// mirror.
func NewConsoleLogger(out io.Writer, logger *slog.Logger) *ConsoleLogger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ConsoleLogger{out: out, logger: logger}
}

func (c *ConsoleLogger) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *ConsoleLogger) FileReceived(path, fileType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.ArchivosRecibidos++
	c.printf("  📄 Recibido: %s (%s)", filepath.Base(path), fileType)
	c.logger.Info("file received", "file", path, "type", fileType)
}

func (c *ConsoleLogger) FileSkipped(path, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.ArchivosDescartados++
	c.printf("  ⏭️  Descartado: %s: %s", filepath.Base(path), reason)
	c.logger.Warn("file skipped", "file", path, "reason", reason)
}

func (c *ConsoleLogger) BankIdentified(path, bank string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("  🏦 Banco identificado: %s (%s)", bank, filepath.Base(path))
	c.logger.Info("bank identified", "file", path, "bank", bank)
}

func (c *ConsoleLogger) BankNotIdentified(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("  ❌ Banco NO identificado: %s", filepath.Base(path))
	c.logger.Warn("bank not identified", "file", path)
}

func (c *ConsoleLogger) ExtractionStart(path, extractor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("  🔍 Extrayendo texto (%s): %s", extractor, filepath.Base(path))
	c.logger.Debug("extraction start", "file", path, "extractor", extractor)
}

func (c *ConsoleLogger) ExtractionComplete(path string, pages, movimientos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.ArchivosProcesados++
	c.summary.TotalMovimientos += movimientos
	c.printf("  ✅ Completado: %s, %d páginas, %d movimientos", filepath.Base(path), pages, movimientos)
	c.logger.Info("extraction complete", "file", path, "pages", pages, "movimientos", movimientos)
}

func (c *ConsoleLogger) FileError(path string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Errores = append(c.summary.Errores, FileError{Archivo: filepath.Base(path), Error: err.Error()})
	c.summary.ArchivosConError = len(c.summary.Errores)
	c.printf("  ❌ Error: %s: %v", filepath.Base(path), err)
	c.logger.Error("file error", "file", path, "error", err)
}

func (c *ConsoleLogger) ConsolidationStart(files int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("\n📊 Consolidando %d archivos...", files)
	c.logger.Info("consolidation start", "files", files)
}

func (c *ConsoleLogger) ConsolidationComplete(outputPath string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("  ✅ Consolidado generado: %s", outputPath)
	c.logger.Info("consolidation complete", "output", outputPath)
}

func (c *ConsoleLogger) ValidationMismatch(path, field, expected, actual string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("  ⚠️  Discrepancia en %s: %s, esperado: %s, calculado: %s", filepath.Base(path), field, expected, actual)
	c.logger.Warn("validation mismatch", "file", path, "field", field, "expected", expected, "actual", actual)
}

// Summary returns a copy of the counters.
func (c *ConsoleLogger) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.summary
	s.Errores = append([]FileError(nil), c.summary.Errores...)
	return s
}

// PrintSummary writes the end-of-run report.
func (c *ConsoleLogger) PrintSummary() {
	s := c.Summary()
	rule := strings.Repeat("=", 60)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.printf("\n%s", rule)
	c.printf("RESUMEN DE PROCESAMIENTO")
	c.printf("%s", rule)
	c.printf("  Archivos recibidos:   %d", s.ArchivosRecibidos)
	c.printf("  Archivos procesados:  %d", s.ArchivosProcesados)
	c.printf("  Archivos descartados: %d", s.ArchivosDescartados)
	c.printf("  Archivos con error:   %d", s.ArchivosConError)
	c.printf("  Total movimientos:    %d", s.TotalMovimientos)
	if len(s.Errores) > 0 {
		c.printf("\n  ERRORES:")
		for _, e := range s.Errores {
			c.printf("    - %s: %s", e.Archivo, e.Error)
		}
	}
	c.printf("%s", rule)
}
