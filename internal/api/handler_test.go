package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/bank-parser/internal/models"
)

type fakeConverter struct {
	res  *models.ResultadoParseo
	err  error
	seen string
	body string
}

func (f *fakeConverter) ProcessFile(_ context.Context, path string) (*models.ResultadoParseo, error) {
	f.seen = path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f.body = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func sampleResult(t *testing.T) *models.ResultadoParseo {
	t.Helper()
	info, err := models.NewInfoCuenta("BBVA", "0123456789", models.MonedaMXN)
	if err != nil {
		t.Fatal(err)
	}
	mov, err := models.NewMovimiento(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "SPEI RECIBIDO", "123",
		decimal.Zero, decimal.RequireFromString("1500.50"))
	if err != nil {
		t.Fatal(err)
	}
	movs := []models.Movimiento{mov}
	res, err := models.NewResultadoParseo(info, movs, models.CalcularResumen(movs), 2024, 3, "/tmp/upload.pdf")
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func setupTestApp(t *testing.T, conv Converter) *fiber.App {
	t.Helper()
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "bankparser_files_received_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	h := &Handler{
		Converter: conv,
		Banks:     []string{"BANORTE", "BBVA"},
		Gatherer:  reg,
		TempDir:   t.TempDir(),
		Version:   "test",
	}
	return NewApp(h, 4<<20)
}

func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		io.WriteString(fw, content)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, resp *http.Response) ConvertResponse {
	t.Helper()
	var out ConvertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, &fakeConverter{})

	req := httptest.NewRequest("GET", "/api/health", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result map[string]string
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if result["status"] != "ok" {
		t.Errorf("expected status=ok, got %q", result["status"])
	}
	if result["engine"] != "fiber" {
		t.Errorf("expected engine=fiber, got %q", result["engine"])
	}
}

func TestBanksEndpoint(t *testing.T) {
	app := setupTestApp(t, &fakeConverter{})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/banks", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	var result struct {
		Banks []string `json:"banks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got := strings.Join(result.Banks, ","); got != "BANORTE,BBVA" {
		t.Errorf("got %q, want %q", got, "BANORTE,BBVA")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(t, &fakeConverter{})

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "bankparser_files_received_total 1") {
		t.Errorf("metrics output missing counter:\n%s", body)
	}
}

func TestConvertEndpointRequiresFile(t *testing.T) {
	app := setupTestApp(t, &fakeConverter{})

	resp, err := app.Test(uploadRequest(t, "", "", map[string]string{"format": "json"}))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if out := decodeResponse(t, resp); out.Success || out.Error == "" {
		t.Errorf("expected error response, got %+v", out)
	}
}

func TestConvertEndpointValidation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		fields   map[string]string
	}{
		{"not a pdf", "statement.txt", nil},
		{"unknown format", "statement.pdf", map[string]string{"format": "ods"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{}
			app := setupTestApp(t, conv)

			resp, err := app.Test(uploadRequest(t, tt.filename, "%PDF-1.4", tt.fields))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != fiber.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
			if conv.seen != "" {
				t.Error("converter should not run for rejected uploads")
			}
		})
	}
}

func TestConvertEndpointJSON(t *testing.T) {
	conv := &fakeConverter{res: sampleResult(t)}
	app := setupTestApp(t, conv)

	resp, err := app.Test(uploadRequest(t, "marzo.pdf", "%PDF-1.4 body", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	out := decodeResponse(t, resp)
	if !out.Success || out.Bank != "BBVA" || out.Count != 1 {
		t.Errorf("unexpected response: %+v", out)
	}
	if out.ID == "" {
		t.Error("expected a request id")
	}
	if out.Resultado == nil || out.Resultado.ArchivoOrigen != "marzo.pdf" {
		t.Errorf("expected ArchivoOrigen to be the uploaded name, got %+v", out.Resultado)
	}
	if conv.body != "%PDF-1.4 body" {
		t.Errorf("converter saw %q", conv.body)
	}
	if _, err := os.Stat(conv.seen); !os.IsNotExist(err) {
		t.Errorf("temp upload %s should be removed", conv.seen)
	}
}

func TestConvertEndpointFiles(t *testing.T) {
	t.Run("csv", func(t *testing.T) {
		app := setupTestApp(t, &fakeConverter{res: sampleResult(t)})

		resp, err := app.Test(uploadRequest(t, "marzo.pdf", "%PDF", map[string]string{"format": "csv"}))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if got := resp.Header.Get("Content-Disposition"); !strings.Contains(got, "movimientos_marzo.csv") {
			t.Errorf("got Content-Disposition %q", got)
		}
		body, _ := io.ReadAll(resp.Body)
		if !strings.Contains(string(body), "BBVA,0123456789,MXN,05/03/2024,SPEI RECIBIDO,123,,1500.50") {
			t.Errorf("unexpected CSV:\n%s", body)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		app := setupTestApp(t, &fakeConverter{res: sampleResult(t)})

		resp, err := app.Test(uploadRequest(t, "marzo.pdf", "%PDF", map[string]string{"format": "xlsx"}))
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		f, err := excelize.OpenReader(resp.Body)
		if err != nil {
			t.Fatalf("response is not a workbook: %v", err)
		}
		defer f.Close()
		cell, _ := f.GetCellValue("Resumen", "I2")
		if cell != "marzo.pdf" {
			t.Errorf("got %q, want %q", cell, "marzo.pdf")
		}
	})
}

func TestConvertEndpointErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&models.BancoNoIdentificadoError{Archivo: "x.pdf"}, fiber.StatusUnprocessableEntity},
		{&models.ParseError{Banco: "BBVA", Archivo: "x.pdf", Causa: "sin periodo"}, fiber.StatusUnprocessableEntity},
		{&models.ExtractionError{Archivo: "x.pdf", Causa: "PDF corrupto o inválido"}, fiber.StatusUnprocessableEntity},
		{&models.FormatoInvalidoError{Archivo: "x.pdf"}, fiber.StatusUnsupportedMediaType},
		{fmt.Errorf("extracting: %w", context.DeadlineExceeded), fiber.StatusGatewayTimeout},
		{fmt.Errorf("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%T", tt.err), func(t *testing.T) {
			app := setupTestApp(t, &fakeConverter{err: tt.err})

			resp, err := app.Test(uploadRequest(t, "x.pdf", "%PDF", nil))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("got %d, want %d", resp.StatusCode, tt.want)
			}
			if out := decodeResponse(t, resp); out.Error != tt.err.Error() {
				t.Errorf("got error %q, want %q", out.Error, tt.err.Error())
			}
		})
	}
}

func TestConvertEndpointRateLimit(t *testing.T) {
	h := &Handler{
		Converter: &fakeConverter{res: sampleResult(t)},
		Limiter:   rate.NewLimiter(0, 1),
		TempDir:   t.TempDir(),
	}
	app := NewApp(h, 1<<20)

	resp, err := app.Test(uploadRequest(t, "a.pdf", "%PDF", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first request: got %d, want 200", resp.StatusCode)
	}

	resp, err = app.Test(uploadRequest(t, "b.pdf", "%PDF", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", resp.StatusCode)
	}
}
