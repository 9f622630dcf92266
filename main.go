package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/bank-parser/internal/api"
	"github.com/insightdelivered/bank-parser/internal/config"
	"github.com/insightdelivered/bank-parser/internal/extractor"
	"github.com/insightdelivered/bank-parser/internal/logger"
	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/parser"
	"github.com/insightdelivered/bank-parser/internal/processor"
	"github.com/insightdelivered/bank-parser/internal/telemetry"
	"github.com/insightdelivered/bank-parser/internal/writer"
)

const version = "2.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v\n", err)
	}

	// CLI flags; defaults come from BANKPARSER_* / .env
	outputFlag := flag.String("o", "", "Output directory (defaults to the input's directory)")
	formatFlag := flag.String("format", cfg.Output.Format, "Output format: xlsx, csv or json")
	workersFlag := flag.Int("workers", cfg.Processing.Workers, "Files processed in parallel")
	ocrFlag := flag.Bool("ocr", cfg.OCR.Enabled, "Fall back to Tesseract OCR for scanned pages")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API instead of converting files")
	addrFlag := flag.String("addr", cfg.HTTP.Addr, "HTTP listen address for -serve")
	logLevelFlag := flag.String("log-level", cfg.Log.Level, "Log level: debug, info, warn, error")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Bank Statement Parser
by Insight Delivered

Converts Mexican and US bank statement PDFs into normalized
movement spreadsheets (Resumen + Movimientos).

Usage:
  bank-parser [flags] <file.pdf|directory> [...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Convert one statement next to the PDF
  bank-parser estado_enero.pdf

  # Convert a folder, 4 workers, output to ./salida
  bank-parser -workers=4 -o salida ./estados

  # CSV instead of Excel
  bank-parser -format=csv estado.pdf

  # Serve the HTTP API
  bank-parser -serve -addr=:8080

Supported Banks:
  %s
`, strings.Join(parser.DefaultRegistry().AvailableBanks(), ", "))
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("bank-parser v%s\n", version)
		os.Exit(0)
	}

	if *helpFlag || (flag.NArg() == 0 && !*serveFlag) {
		flag.Usage()
		os.Exit(0)
	}

	cfg.Output.Format = strings.ToLower(*formatFlag)
	cfg.Processing.Workers = *workersFlag
	cfg.OCR.Enabled = *ocrFlag
	cfg.HTTP.Addr = *addrFlag
	cfg.Log.Level = *logLevelFlag
	if err := cfg.Validate(); err != nil {
		fatalf("Configuration error: %v\n", err)
	}

	log := logger.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := telemetry.NewMetricsLogger(reg)
	if err != nil {
		fatalf("Metrics setup failed: %v\n", err)
	}
	console := telemetry.NewConsoleLogger(os.Stdout, log)

	registry := parser.DefaultRegistry()
	proc := processor.New(
		buildExtractors(cfg, log),
		parser.KeywordIdentifier{},
		registry,
		telemetry.Multi{console, metrics},
		processor.WithWorkers(cfg.Processing.Workers),
		processor.WithFileTimeout(cfg.Processing.FileTimeout),
		processor.WithLogger(log),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *serveFlag {
		if err := serve(ctx, cfg, proc, registry.AvailableBanks(), reg, log); err != nil {
			stop()
			fatalf("Server error: %v\n", err)
		}
		return
	}

	out, err := writer.New(cfg.Output.Format)
	if err != nil {
		fatalf("%v\n", err)
	}

	printBanner(registry.AvailableBanks())
	processed := convert(ctx, proc, out, flag.Args(), *outputFlag)
	console.PrintSummary()

	if processed == 0 {
		stop()
		os.Exit(1)
	}
}

func buildExtractors(cfg *config.Config, log *slog.Logger) []extractor.Extractor {
	extractors := []extractor.Extractor{extractor.NewPDFExtractor(log)}
	if !cfg.OCR.Enabled {
		return extractors
	}
	if !extractor.IsOCRAvailable() {
		log.Warn("OCR disabled: pdftoppm not found in PATH")
		return extractors
	}
	return append(extractors, extractor.NewOCRExtractor(cfg.OCR.Lang, cfg.OCR.DPI, log))
}

func printBanner(banks []string) {
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("  Bank Statement Parser v%s\n", version)
	fmt.Printf("  Bancos disponibles: %s\n", strings.Join(banks, ", "))
	fmt.Println(strings.Repeat("=", 60))
}

// convert processes every input and writes one artifact per statement plus a
// consolidated one when more than one statement was parsed. It returns the
// number of statements parsed.
func convert(ctx context.Context, proc *processor.Processor, out writer.OutputWriter, inputs []string, outputDir string) int {
	events := proc.Events()

	var files []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			events.FileError(input, &models.FormatoInvalidoError{Archivo: input, FormatoEsperado: "PDF", Detalle: "no existe"})
			continue
		}
		if !info.IsDir() {
			files = append(files, input)
			continue
		}
		found, err := processor.FindPDFs(input)
		if err != nil {
			events.FileError(input, err)
			continue
		}
		if len(found) == 0 {
			fmt.Printf("  ⚠️  No se encontraron PDFs en %s\n", input)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return 0
	}

	if outputDir == "" {
		outputDir = defaultOutputDir(inputs[0])
	}

	results, err := proc.ProcessFiles(ctx, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing interrupted: %v\n", err)
	}

	for _, res := range results {
		stem := strings.TrimSuffix(res.ArchivoOrigen, filepath.Ext(res.ArchivoOrigen))
		path, err := out.WriteSingle(res, filepath.Join(outputDir, "movimientos_"+stem+out.Extension()))
		if err != nil {
			events.FileError(res.ArchivoOrigen, err)
			continue
		}
		fmt.Printf("  📁 Salida: %s\n", path)
	}

	if len(results) > 1 {
		events.ConsolidationStart(len(results))
		path, err := out.WriteConsolidated(results, filepath.Join(outputDir, "consolidado"+out.Extension()))
		if err != nil {
			events.FileError("consolidado", err)
		} else {
			events.ConsolidationComplete(path)
		}
	}

	return len(results)
}

func defaultOutputDir(input string) string {
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		return input
	}
	return filepath.Dir(input)
}

func serve(ctx context.Context, cfg *config.Config, proc *processor.Processor, banks []string, gatherer prometheus.Gatherer, log *slog.Logger) error {
	h := &api.Handler{
		Converter: proc,
		Banks:     banks,
		Gatherer:  gatherer,
		Logger:    log,
		Version:   version,
	}
	if cfg.HTTP.RateLimit > 0 {
		h.Limiter = rate.NewLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst)
	}
	app := api.NewApp(h, cfg.HTTP.MaxUploadSize)

	errc := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTP.Addr)
		errc <- app.Listen(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
