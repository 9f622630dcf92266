package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/normalize"
)

const (
	DefaultOCRLang = "spa+eng"
	DefaultOCRDPI  = 300

	// fallbackOCRLang is used when a requested language pack is missing.
	fallbackOCRLang = "eng"
)

// OCRExtractor renders every page with pdftoppm and runs Tesseract on the
// images through gosseract. It produces text only; OCR word positions are
// not reliable enough for the coordinate-based parsers.
type OCRExtractor struct {
	Lang string
	DPI  int

	logger *slog.Logger
}

// NewOCRExtractor returns an OCR backend. Empty lang and non-positive dpi
// select the defaults.
func NewOCRExtractor(lang string, dpi int, logger *slog.Logger) *OCRExtractor {
	if lang == "" {
		lang = DefaultOCRLang
	}
	if dpi <= 0 {
		dpi = DefaultOCRDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRExtractor{Lang: lang, DPI: dpi, logger: logger}
}

func (e *OCRExtractor) Name() string { return "ocr-tesseract" }

func (e *OCRExtractor) CanHandle(path string) bool { return isPDF(path) }

// IsOCRAvailable checks whether pdftoppm is installed. Tesseract itself is
// linked through gosseract.
func IsOCRAvailable() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}

// Extract OCRs every page. A page that fails OCR is kept with empty text.
func (e *OCRExtractor) Extract(ctx context.Context, path string) ([]models.PageText, error) {
	if !IsOCRAvailable() {
		return nil, extractionError(path, "pdftoppm no está disponible (instalar poppler-utils)", nil)
	}
	if err := validatePDF(path); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "ocr-pages-*")
	if err != nil {
		return nil, extractionError(path, "no se pudo crear el directorio temporal", err)
	}
	defer os.RemoveAll(tmpDir)

	images, err := e.renderPages(ctx, path, tmpDir)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	lang := resolveLang(e.Lang, availableLanguages())
	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return nil, extractionError(path, fmt.Sprintf("idioma OCR no válido %q", lang), err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_COLUMN); err != nil {
		return nil, extractionError(path, "no se pudo configurar Tesseract", err)
	}

	pages := make([]models.PageText, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, extractionError(path, "OCR cancelado", err)
		}
		pages = append(pages, models.PageText{PageNum: i + 1, Text: e.recognize(client, img)})
	}
	return pages, nil
}

// renderPages converts the PDF to one PNG per page and returns their paths
// in page order.
func (e *OCRExtractor) renderPages(ctx context.Context, path, dir string) ([]string, error) {
	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-r", strconv.Itoa(e.DPI), "-png", path, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, extractionError(path,
			fmt.Sprintf("error al convertir PDF a imágenes: %v (%s)", err, strings.TrimSpace(string(out))), err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, extractionError(path, "no se pudieron leer las imágenes", err)
	}
	var images []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".png") {
			images = append(images, filepath.Join(dir, entry.Name()))
		}
	}
	sortPageImages(images)
	if len(images) == 0 {
		return nil, extractionError(path, "pdftoppm no produjo ninguna imagen", nil)
	}
	return images, nil
}

func (e *OCRExtractor) recognize(client *gosseract.Client, image string) string {
	if err := client.SetImage(image); err != nil {
		e.logger.Warn("ocr image rejected", "image", filepath.Base(image), "error", err)
		return ""
	}
	text, err := client.Text()
	if err != nil {
		e.logger.Warn("ocr failed", "image", filepath.Base(image), "error", err)
		return ""
	}
	return normalize.CleanPDFText(text)
}

// sortPageImages orders pdftoppm output ("page-1.png", "page-10.png") by
// page number. Zero padding depends on the page count, so a plain string
// sort is not enough when padding is missing.
func sortPageImages(images []string) {
	num := func(p string) int {
		base := strings.TrimSuffix(filepath.Base(p), ".png")
		if i := strings.LastIndexByte(base, '-'); i >= 0 {
			if n, err := strconv.Atoi(base[i+1:]); err == nil {
				return n
			}
		}
		return 0
	}
	sort.SliceStable(images, func(a, b int) bool { return num(images[a]) < num(images[b]) })
}

func availableLanguages() []string {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil
	}
	return langs
}

// resolveLang keeps the requested languages when all are installed and falls
// back to English otherwise. With no English pack it uses whatever is
// installed except "osd". An unknown installation keeps the request.
func resolveLang(requested string, available []string) string {
	if len(available) == 0 {
		return requested
	}
	have := make(map[string]bool, len(available))
	for _, l := range available {
		have[l] = true
	}

	missing := false
	for _, l := range strings.Split(requested, "+") {
		if !have[l] {
			missing = true
			break
		}
	}
	if !missing {
		return requested
	}
	if have[fallbackOCRLang] {
		return fallbackOCRLang
	}

	var usable []string
	for _, l := range available {
		if l != "osd" {
			usable = append(usable, l)
		}
	}
	if len(usable) > 0 {
		return strings.Join(usable, "+")
	}
	return requested
}
