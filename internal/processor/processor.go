// Package processor turns statement files into parse results: it picks the
// extraction backend, merges hybrid documents, identifies the bank and runs
// its parser.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/insightdelivered/bank-parser/internal/extractor"
	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/parser"
)

// identificationPages is how many leading pages carry the bank header.
const identificationPages = 2

// ErrNoText is returned when no backend produced any text for a file.
var ErrNoText = errors.New("PDF sin texto extraíble (ni nativo ni OCR)")

// ErrNoExtractor is returned when no backend accepts the file type.
var ErrNoExtractor = errors.New("ningún extractor puede manejar el archivo")

// Identifier names the bank of a document from its header text.
type Identifier interface {
	Identify(text string) (models.BankType, bool)
}

// Parsers resolves a bank name to its parser.
type Parsers interface {
	Get(bank string) (parser.Parser, error)
	AvailableBanks() []string
}

// Processor orchestrates one statement at a time. It is safe for concurrent
// use as long as its collaborators are.
type Processor struct {
	extractors  []extractor.Extractor
	identifier  Identifier
	parsers     Parsers
	events      EventLogger
	logger      *slog.Logger
	fileTimeout time.Duration
	workers     int
}

// Option configures a Processor.
type Option func(*Processor)

// WithFileTimeout bounds the extraction of a single file. Zero disables it.
func WithFileTimeout(d time.Duration) Option {
	return func(p *Processor) { p.fileTimeout = d }
}

// WithWorkers sets how many files ProcessFiles handles at once.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a processor trying extractors in the given priority order.
// A nil events logger discards events.
func New(extractors []extractor.Extractor, identifier Identifier, parsers Parsers, events EventLogger, opts ...Option) *Processor {
	if events == nil {
		events = NopLogger{}
	}
	p := &Processor{
		extractors: extractors,
		identifier: identifier,
		parsers:    parsers,
		events:     events,
		logger:     slog.Default(),
		workers:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Events returns the event logger the processor reports to.
func (p *Processor) Events() EventLogger { return p.events }

// ProcessFile extracts, identifies and parses one file. Every failure is
// reported to the event logger and also returned, typed, so callers such as
// the HTTP API can map it.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*models.ResultadoParseo, error) {
	p.events.FileReceived(path, strings.ToLower(filepath.Ext(path)))

	pages, err := p.extractWithFallback(ctx, path)
	if err != nil {
		return nil, err
	}

	text := models.JoinText(pages[:min(identificationPages, len(pages))])
	bank, ok := p.identifier.Identify(text)
	if !ok {
		p.events.BankNotIdentified(path)
		return nil, &models.BancoNoIdentificadoError{Archivo: path, Detalle: "ninguna palabra clave coincidió"}
	}
	p.events.BankIdentified(path, string(bank))

	bp, err := p.parsers.Get(string(bank))
	if err != nil {
		nerr := &models.BancoNoIdentificadoError{
			Archivo: path,
			Detalle: fmt.Sprintf("Banco '%s' identificado pero no tiene parser implementado. Bancos disponibles: %s",
				bank, strings.Join(p.parsers.AvailableBanks(), ", ")),
		}
		p.events.FileError(path, nerr)
		return nil, nerr
	}

	res, err := bp.Parse(pages, filepath.Base(path))
	if err != nil {
		p.events.FileError(path, err)
		return nil, err
	}

	p.validate(path, res)
	p.events.ExtractionComplete(path, len(pages), len(res.Movimientos))
	return res, nil
}

// validate compares the printed balances, when the parser found both, with
// the net of the movements.
func (p *Processor) validate(path string, res *models.ResultadoParseo) {
	diff, ok := res.Resumen.DiferenciaSaldos()
	if !ok {
		return
	}
	balance := res.Resumen.BalanceMovimientos()
	if !diff.Equal(balance) {
		p.events.ValidationMismatch(path, "saldo_final - saldo_inicial", diff.StringFixed(2), balance.StringFixed(2))
	}
}

// extractWithFallback tries the compatible backends in order. A result with
// some empty pages is kept and the empty pages are filled from the next
// backend, which handles documents mixing native and scanned pages.
func (p *Processor) extractWithFallback(ctx context.Context, path string) ([]models.PageText, error) {
	var compatible []extractor.Extractor
	for _, e := range p.extractors {
		if e.CanHandle(path) {
			compatible = append(compatible, e)
		}
	}
	if len(compatible) == 0 {
		p.events.FileSkipped(path, fmt.Sprintf("Ningún extractor puede manejar '%s'", filepath.Ext(path)))
		return nil, &models.FormatoInvalidoError{Archivo: path, FormatoEsperado: "PDF", Detalle: ErrNoExtractor.Error()}
	}

	if p.fileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.fileTimeout)
		defer cancel()
	}

	var (
		partial []models.PageText
		lastErr error
	)
	for _, e := range compatible {
		p.events.ExtractionStart(path, e.Name())

		pages, err := e.Extract(ctx, path)
		if err != nil {
			p.events.FileError(path, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, err
			}
			continue
		}

		if partial != nil && len(pages) > 0 {
			merged := MergeHybridPages(partial, pages)
			if !models.AllEmpty(merged) {
				p.logger.Debug("merged hybrid pages", "file", path, "extractor", e.Name(), "pages", len(merged))
				return merged, nil
			}
			partial = merged
			continue
		}

		switch empty := len(pages) - models.CountNonEmpty(pages); {
		case len(pages) > 0 && empty == 0:
			return pages, nil
		case len(pages) > 0 && empty < len(pages):
			partial = pages
			p.events.FileSkipped(path, fmt.Sprintf(
				"PDF híbrido: %d/%d páginas sin texto con %s, intentando OCR en páginas vacías...",
				empty, len(pages), e.Name()))
		default:
			p.events.FileSkipped(path, fmt.Sprintf("Sin texto con %s, intentando siguiente...", e.Name()))
		}
	}

	if partial != nil && !models.AllEmpty(partial) {
		return partial, nil
	}

	p.events.FileSkipped(path, ErrNoText.Error())
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoText, lastErr)
	}
	return nil, &models.ExtractionError{Archivo: path, Causa: ErrNoText.Error(), Err: ErrNoText}
}
