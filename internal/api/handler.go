// Package api exposes statement conversion over HTTP.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/bank-parser/internal/models"
	"github.com/insightdelivered/bank-parser/internal/writer"
)

// Converter turns one PDF on disk into a parse result.
type Converter interface {
	ProcessFile(ctx context.Context, path string) (*models.ResultadoParseo, error)
}

// ConvertResponse is the JSON response from the /api/convert endpoint.
type ConvertResponse struct {
	Success   bool                    `json:"success"`
	Error     string                  `json:"error,omitempty"`
	ID        string                  `json:"id,omitempty"`
	Bank      string                  `json:"bank,omitempty"`
	Resultado *models.ResultadoParseo `json:"resultado,omitempty"`
	Count     int                     `json:"count"`
	Version   string                  `json:"version,omitempty"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Converter Converter
	Banks     []string
	Gatherer  prometheus.Gatherer
	Limiter   *rate.Limiter // nil means unlimited
	Logger    *slog.Logger
	TempDir   string
	Version   string
}

// NewApp builds the fiber app with the handler's routes. maxUpload is the
// request body limit in bytes.
func NewApp(h *Handler, maxUpload int) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bank-parser",
		BodyLimit:             maxUpload,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", h.HandleHealth)
	app.Get("/api/banks", h.HandleBanks)
	app.Post("/api/convert", h.HandleConvert)

	if h.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{})))
	}
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.Version,
		"engine":  "fiber",
	})
}

func (h *Handler) HandleBanks(c *fiber.Ctx) error {
	banks := h.Banks
	if banks == nil {
		banks = []string{}
	}
	return c.JSON(fiber.Map{"banks": banks})
}

// HandleConvert accepts a multipart "file" upload and an optional "format"
// (json, csv or xlsx; json by default).
func (h *Handler) HandleConvert(c *fiber.Ctx) error {
	if h.Limiter != nil && !h.Limiter.Allow() {
		return writeError(c, fiber.StatusTooManyRequests, "Too many conversions, retry later.")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "Only PDF files are supported.")
	}

	format := strings.ToLower(c.FormValue("format", "json"))
	var out writer.OutputWriter
	if format != "json" {
		if format != "csv" && format != "xlsx" {
			return writeError(c, fiber.StatusBadRequest, fmt.Sprintf("Unknown format %q. Use json, csv or xlsx.", format))
		}
		if out, err = writer.New(format); err != nil {
			return writeError(c, fiber.StatusBadRequest, err.Error())
		}
	}

	id := uuid.NewString()
	tmp := filepath.Join(h.tempDir(), "bank-parser-"+id+".pdf")
	if err := c.SaveFile(fh, tmp); err != nil {
		h.logger().Error("saving upload", "id", id, "error", err)
		return writeError(c, fiber.StatusInternalServerError, "Failed to save uploaded file.")
	}
	defer os.Remove(tmp)

	res, err := h.Converter.ProcessFile(c.UserContext(), tmp)
	if err != nil {
		h.logger().Warn("conversion failed", "id", id, "file", fh.Filename, "error", err)
		return writeError(c, statusFor(err), err.Error())
	}
	res.ArchivoOrigen = fh.Filename
	h.logger().Info("conversion complete", "id", id, "file", fh.Filename,
		"bank", res.InfoCuenta.Banco, "movimientos", len(res.Movimientos))

	if out == nil {
		return c.JSON(ConvertResponse{
			Success:   true,
			ID:        id,
			Bank:      res.InfoCuenta.Banco,
			Resultado: res,
			Count:     len(res.Movimientos),
			Version:   h.Version,
		})
	}

	var buf bytes.Buffer
	if err := out.Write(&buf, []*models.ResultadoParseo{res}); err != nil {
		return writeError(c, fiber.StatusInternalServerError, fmt.Sprintf("%s generation failed: %v", format, err))
	}
	stem := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
	c.Set(fiber.HeaderContentType, contentType(format))
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="movimientos_%s%s"`, stem, out.Extension()))
	c.Set("X-Request-Id", id)
	return c.Send(buf.Bytes())
}

func (h *Handler) tempDir() string {
	if h.TempDir != "" {
		return h.TempDir
	}
	return os.TempDir()
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// statusFor maps processing errors to HTTP status codes.
func statusFor(err error) int {
	var (
		format     *models.FormatoInvalidoError
		bank       *models.BancoNoIdentificadoError
		parse      *models.ParseError
		extraction *models.ExtractionError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	case errors.As(err, &format):
		return fiber.StatusUnsupportedMediaType
	case errors.As(err, &bank), errors.As(err, &parse), errors.As(err, &extraction):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func contentType(format string) string {
	switch format {
	case "csv":
		return "text/csv; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ConvertResponse{
		Success: false,
		Error:   msg,
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return writeError(c, code, err.Error())
}
