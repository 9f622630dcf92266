package writer

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
)

func sampleResult(t *testing.T, banco, cuenta, archivo string) *models.ResultadoParseo {
	t.Helper()
	info, err := models.NewInfoCuenta(banco, cuenta, models.MonedaMXN)
	if err != nil {
		t.Fatalf("NewInfoCuenta: %v", err)
	}
	m1, err := models.NewMovimiento(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "PAGO TARJETA, OXXO", "REF123",
		decimal.RequireFromString("25.99"), decimal.Zero)
	if err != nil {
		t.Fatalf("NewMovimiento: %v", err)
	}
	m2, err := models.NewMovimiento(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), "DEPOSITO NOMINA", "",
		decimal.Zero, decimal.RequireFromString("2500"))
	if err != nil {
		t.Fatalf("NewMovimiento: %v", err)
	}
	movs := []models.Movimiento{m1, m2}
	res, err := models.NewResultadoParseo(info, movs, models.CalcularResumen(movs), 2024, 1, archivo)
	if err != nil {
		t.Fatalf("NewResultadoParseo: %v", err)
	}
	return res
}

func TestCSVWriter_Write(t *testing.T) {
	res := sampleResult(t, "BBVA", "0123456789", "enero.pdf")

	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: true}
	if err := w.Write(&buf, []*models.ResultadoParseo{res}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	for _, want := range []string{
		"# Banco,BBVA",
		"# Cuenta,0123456789",
		"# Periodo,2024-01",
		"# Retiros,$25.99",
		`# Depósitos,"$2,500.00"`,
		"Banco,Cuenta,Moneda,Fecha,Concepto,Referencia,Retiros,Depósitos",
		`BBVA,0123456789,MXN,15/01/2024,"PAGO TARJETA, OXXO",REF123,25.99,`,
		"BBVA,0123456789,MXN,16/01/2024,DEPOSITO NOMINA,,,2500.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 7 metadata lines + 1 header + 2 movements
	if len(lines) != 10 {
		t.Errorf("got %d lines, want 10", len(lines))
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	res := sampleResult(t, "BANORTE", "1111", "a.pdf")

	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, []*models.ResultadoParseo{res}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "# Banco") {
		t.Error("should not have bank metadata when header=false")
	}
	if !strings.HasPrefix(output, "Banco,Cuenta,Moneda") {
		t.Error("expected column headers even without metadata")
	}
}

func TestCSVWriter_WriteConsolidated(t *testing.T) {
	dir := t.TempDir()
	results := []*models.ResultadoParseo{
		sampleResult(t, "BBVA", "1", "a.pdf"),
		sampleResult(t, "SANTANDER", "2", "b.pdf"),
	}

	w := &CSVWriter{IncludeHeader: true}
	path, err := w.WriteConsolidated(results, filepath.Join(dir, "out", "consolidado.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := filepath.Base(path), "consolidado.csv"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	output := string(data)
	if strings.Contains(output, "# Banco") {
		t.Error("metadata rows are only written for a single statement")
	}
	if got := strings.Count(output, "\n"); got != 5 {
		t.Errorf("got %d lines, want 5", got)
	}
}

func TestWriteConsolidated_Empty(t *testing.T) {
	for _, w := range []OutputWriter{&ExcelWriter{}, &CSVWriter{}, &JSONWriter{}} {
		_, err := w.WriteConsolidated(nil, filepath.Join(t.TempDir(), "x"))
		var outErr *models.OutputError
		if !errors.As(err, &outErr) {
			t.Errorf("%T: got %v, want *models.OutputError", w, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25.99", "25.99"},
		{"1234.5", "1234.50"},
		{"0", ""},
		{"2500", "2500.00"},
	}

	for _, tt := range tests {
		got := formatAmount(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("formatAmount(%s): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestWithExtension(t *testing.T) {
	tests := []struct {
		path, ext, want string
	}{
		{"out/a.xlsx", ".xlsx", "out/a.xlsx"},
		{"out/a.XLSX", ".xlsx", "out/a.XLSX"},
		{"out/a.csv", ".xlsx", "out/a.xlsx"},
		{"out/a", ".json", "out/a.json"},
	}
	for _, tt := range tests {
		if got := withExtension(tt.path, tt.ext); got != tt.want {
			t.Errorf("withExtension(%q, %q): got %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"xlsx", ".xlsx", false},
		{"", ".xlsx", false},
		{".CSV", ".csv", false},
		{"json", ".json", false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := New(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := w.Extension(); got != tt.wantExt {
				t.Errorf("got %q, want %q", got, tt.wantExt)
			}
		})
	}
}
