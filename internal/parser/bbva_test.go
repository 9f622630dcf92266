package parser

import (
	"errors"
	"testing"

	"github.com/insightdelivered/bank-parser/internal/models"
)

func bbvaPage() models.PageText {
	return models.PageText{
		PageNum: 1,
		Text: "BBVA MEXICO, S.A.\n" +
			"No. Cuenta 0123456789\n" +
			"Periodo: 01/OCT/2024 al 31/OCT/2024\n",
		Words: []models.WordInfo{
			word("05/OCT", 20, 200), word("SPEI", 70, 200), word("RECIBIDO", 100, 200),
			word("1,500.00", 420, 200), word("10,500.00", 520, 200),
			word("EMPRESA", 70, 212), word("SA", 120, 212),
			word("Ref.", 70, 224), word("0012345", 100, 224),
			word("06/OCT", 20, 240), word("PAGO", 70, 240), word("TARJETA", 100, 240),
			word("250.00", 380, 240), word("10,250.00", 520, 240),
			word("BBVA", 20, 252), word("MEXICO,", 50, 252), word("S.A.", 90, 252),
			word("COMERCIO", 70, 264),
		},
	}
}

func TestBBVAParser_Parse(t *testing.T) {
	p := &BBVAParser{}

	res, err := p.Parse([]models.PageText{bbvaPage()}, "bbva.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.InfoCuenta.Cuenta != "0123456789" {
		t.Errorf("cuenta: got %q, want %q", res.InfoCuenta.Cuenta, "0123456789")
	}
	if res.InfoCuenta.Moneda != models.MonedaMXN {
		t.Errorf("moneda: got %q, want %q", res.InfoCuenta.Moneda, models.MonedaMXN)
	}
	if res.Anio != 2024 || res.Mes != 10 {
		t.Errorf("periodo: got %d-%d, want 2024-10", res.Anio, res.Mes)
	}

	checkMovements(t, res.Movimientos, []wantMov{
		{day(2024, 10, 5), "SPEI RECIBIDO EMPRESA SA", "0012345", "0", "1500.00"},
		{day(2024, 10, 6), "PAGO TARJETA COMERCIO", "", "250.00", "0"},
	})

	if res.Resumen.NumDepositos != 1 || res.Resumen.NumRetiros != 1 {
		t.Errorf("resumen counts: got %d/%d, want 1/1", res.Resumen.NumDepositos, res.Resumen.NumRetiros)
	}
}

func TestBBVAParser_RequiresWords(t *testing.T) {
	p := &BBVAParser{}
	_, err := p.Parse([]models.PageText{{PageNum: 1, Text: "BBVA\nPeriodo: 01/OCT/2024"}}, "bbva.pdf")
	var pe *models.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestBBVAParser_Period(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantYear int
		wantMon  int
		wantOK   bool
	}{
		{"periodo with month name", "Periodo: 01/OCT/2024 al 31/OCT/2024", 2024, 10, true},
		{"del ... de", "Del 1 de Marzo al 31 de Marzo de 2025", 2025, 3, true},
		{"fecha de corte", "Fecha de Corte: 30/NOV/2024", 2024, 11, true},
		{"numeric corte", "Corte: 30/06/2024", 2024, 6, true},
		{"bare year with month", "emitido 15 ENE 2023", 2023, 1, true},
		{"bare year defaults to january", "ejercicio 2022", 2022, 1, true},
		{"nothing", "sin fechas", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y, m, ok := (&BBVAParser{}).period(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if y != tt.wantYear || m != tt.wantMon {
				t.Errorf("got %d-%d, want %d-%d", y, m, tt.wantYear, tt.wantMon)
			}
		})
	}
}

func TestBBVAClassifyAmounts(t *testing.T) {
	cargo, abono := bbvaClassifyAmounts([]models.WordInfo{
		word("05/OCT", 20, 0),
		word("0.00", 380, 0),
		word("99.00", 390, 0),
		word("10,000.00", 520, 0),
	})
	if !cargo.Equal(dec("99")) {
		t.Errorf("cargo: got %s, want 99", cargo)
	}
	if !abono.IsZero() {
		t.Errorf("abono: got %s, want 0", abono)
	}
}

func TestBBVAParser_DropsInvalidLines(t *testing.T) {
	page := bbvaPage()
	page.Words = append(page.Words,
		// February has no 31st.
		word("31/FEB", 20, 280), word("AJUSTE", 70, 280),
		word("99.00", 380, 280), word("10,151.00", 520, 280),
		// A line cannot be both a withdrawal and a deposit.
		word("07/OCT", 20, 300), word("REVERSO", 70, 300),
		word("40.00", 380, 300), word("40.00", 420, 300), word("10,151.00", 520, 300),
	)

	res, err := (&BBVAParser{}).Parse([]models.PageText{page}, "bbva.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkMovements(t, res.Movimientos, []wantMov{
		{day(2024, 10, 5), "SPEI RECIBIDO EMPRESA SA", "0012345", "0", "1500.00"},
		{day(2024, 10, 6), "PAGO TARJETA COMERCIO", "", "250.00", "0"},
	})
}
