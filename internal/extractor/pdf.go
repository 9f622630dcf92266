package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

const (
	// Glyphs closer than these distances (in points) belong to the same
	// word and line.
	wordXTolerance = 3.0
	wordYTolerance = 3.0

	// US Letter, used when a page declares no MediaBox.
	defaultPageHeight = 792.0
)

// PDFExtractor reads the native text layer of a PDF with ledongthuc/pdf and
// reports every word with its bounding box. When the library output is not
// readable it falls back to the pdftotext command (poppler-utils) for the
// page text and keeps the library words.
type PDFExtractor struct {
	// IncludeWords controls whether positioned words are returned. The
	// coordinate-based parsers need them.
	IncludeWords bool

	logger *slog.Logger
}

// NewPDFExtractor returns a native extractor that includes words.
func NewPDFExtractor(logger *slog.Logger) *PDFExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFExtractor{IncludeWords: true, logger: logger}
}

func (e *PDFExtractor) Name() string { return "pdf-native" }

func (e *PDFExtractor) CanHandle(path string) bool { return isPDF(path) }

// Extract returns one page per PDF page. Image-only pages come back with
// empty text; the processor decides whether OCR should fill them.
func (e *PDFExtractor) Extract(ctx context.Context, path string) ([]models.PageText, error) {
	if err := validatePDF(path); err != nil {
		return nil, err
	}

	pages, err := e.extractWithLibrary(ctx, path)
	if err != nil {
		return nil, err
	}
	if models.AllEmpty(pages) || isReadableText(pages) {
		return pages, nil
	}

	// Library text is garbage, usually a custom font encoding. Try poppler.
	texts, popplerErr := extractWithPdftotext(ctx, path, len(pages))
	if popplerErr != nil {
		e.logger.Debug("pdftotext fallback unavailable", "file", path, "error", popplerErr)
		return pages, nil
	}
	candidate := make([]models.PageText, len(pages))
	for i, p := range pages {
		candidate[i] = p
		if i < len(texts) {
			candidate[i].Text = normalize.CleanPDFText(texts[i])
		}
	}
	if isReadableText(candidate) {
		e.logger.Debug("using pdftotext text", "file", path, "pages", len(candidate))
		return candidate, nil
	}
	return pages, nil
}

func (e *PDFExtractor) extractWithLibrary(ctx context.Context, path string) (pages []models.PageText, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = extractionError(path, fmt.Sprintf("la librería PDF falló: %v", r), nil)
		}
	}()

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		msg := strings.ToLower(openErr.Error())
		if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
			return nil, extractionError(path, "El PDF está protegido con contraseña", openErr)
		}
		return nil, extractionError(path, fmt.Sprintf("PDF corrupto o inválido: %v", openErr), openErr)
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, extractionError(path, "El PDF no tiene páginas", nil)
	}

	pages = make([]models.PageText, 0, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, extractionError(path, "extracción cancelada", err)
		}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, models.PageText{PageNum: i})
			continue
		}
		words := buildWords(page.Content().Text, pageHeight(page))
		pt := models.PageText{PageNum: i, Text: normalize.CleanPDFText(wordsToText(words))}
		if e.IncludeWords {
			pt.Words = words
		}
		pages = append(pages, pt)
	}
	return pages, nil
}

// pageHeight reads the MediaBox, walking up the page tree since it may be
// inherited.
func pageHeight(page pdf.Page) float64 {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return defaultPageHeight
}

// buildWords groups the glyph runs of a page into words. PDF space has its
// origin at the bottom left, so Y is flipped with the page height.
func buildWords(texts []pdf.Text, height float64) []models.WordInfo {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if t.S != "" {
			glyphs = append(glyphs, t)
		}
	}
	sort.SliceStable(glyphs, func(a, b int) bool {
		if glyphs[a].Y != glyphs[b].Y {
			return glyphs[a].Y > glyphs[b].Y
		}
		return glyphs[a].X < glyphs[b].X
	})

	var lines [][]pdf.Text
	for _, g := range glyphs {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Y-g.Y) <= wordYTolerance {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []pdf.Text{g})
	}

	var words []models.WordInfo
	for _, line := range lines {
		sort.SliceStable(line, func(a, b int) bool { return line[a].X < line[b].X })

		var (
			b       strings.Builder
			current models.WordInfo
			open    bool
		)
		flush := func() {
			if open && strings.TrimSpace(b.String()) != "" {
				current.Text = b.String()
				words = append(words, current)
			}
			b.Reset()
			open = false
		}
		for _, g := range line {
			if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
				flush()
				continue
			}
			if open && g.X-current.X1 > wordXTolerance {
				flush()
			}
			top := height - g.Y - g.FontSize
			bottom := height - g.Y
			if !open {
				current = models.WordInfo{X0: g.X, X1: g.X + g.W, Top: top, Bottom: bottom}
				open = true
			}
			b.WriteString(g.S)
			current.X1 = math.Max(current.X1, g.X+g.W)
			current.Top = math.Min(current.Top, top)
			current.Bottom = math.Max(current.Bottom, bottom)
		}
		flush()
	}
	return words
}

// wordsToText rebuilds the page text, one line per visual row.
func wordsToText(words []models.WordInfo) string {
	var (
		lines []string
		row   []string
		rowY  float64
	)
	for i, w := range words {
		if i > 0 && math.Abs(w.Bottom-rowY) > wordYTolerance {
			lines = append(lines, strings.Join(row, " "))
			row = nil
		}
		if len(row) == 0 {
			rowY = w.Bottom
		}
		row = append(row, w.Text)
	}
	if len(row) > 0 {
		lines = append(lines, strings.Join(row, " "))
	}
	return strings.Join(lines, "\n")
}

// readableRunes lists the non-ASCII letters and symbols Mexican statements use.
const readableRunes = "áéíóúÁÉÍÓÚñÑüÜ$€£%&@#!?+=*'\"()/.,;:-"

// textQuality returns the ratio of readable characters to all characters.
// unicode.IsLetter is too broad here: identity-encoded fonts produce runs of
// accented and symbol glyphs that would count as letters.
func textQuality(pages []models.PageText) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page.Text {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(readableRunes, r) {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// commonWords appear on virtually every statement page, in either language.
var commonWords = []string{
	"saldo", "cuenta", "fecha", "periodo", "movimientos", "deposito", "depósito",
	"retiro", "cargo", "abono", "total", "banco", "cliente",
	"balance", "account", "statement", "date", "bank", "deposits",
}

func containsCommonWords(pages []models.PageText) bool {
	combined := strings.ToLower(models.JoinText(pages))
	for _, w := range commonWords {
		if strings.Contains(combined, w) {
			return true
		}
	}
	return false
}

// isReadableText requires more than 50 characters, over 60% readable runes
// and at least one word expected on a bank statement.
func isReadableText(pages []models.PageText) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p.Text))
	}
	if n <= 50 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	return containsCommonWords(pages)
}

// extractWithPdftotext runs pdftotext once per page to keep page boundaries.
// numPages comes from the library; pdfinfo is asked when it is unknown.
func extractWithPdftotext(ctx context.Context, path string, numPages int) ([]string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available: %w", err)
	}
	if numPages <= 0 {
		numPages = pdfinfoPageCount(ctx, path)
	}
	if numPages <= 0 {
		numPages = 1
	}

	pages := make([]string, numPages)
	produced := false
	for i := 1; i <= numPages; i++ {
		n := strconv.Itoa(i)
		out, err := exec.CommandContext(ctx, "pdftotext", "-layout", "-f", n, "-l", n, path, "-").Output()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		pages[i-1] = strings.TrimSpace(string(out))
		if pages[i-1] != "" {
			produced = true
		}
	}
	if !produced {
		return nil, fmt.Errorf("pdftotext produced no output")
	}
	return pages, nil
}

// pdfinfoPageCount returns the page count reported by pdfinfo, or 0.
func pdfinfoPageCount(ctx context.Context, path string) int {
	out, err := exec.CommandContext(ctx, "pdfinfo", path).Output()
	if err != nil {
		return 0
	}
	for _, line := range strings.Split(string(out), "\n") {
		if rest, ok := strings.CutPrefix(line, "Pages:"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil {
				return n
			}
		}
	}
	return 0
}
