package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// word places a word at x/top. Width is derived from the text so CenterX
// behaves like real extraction output.
func word(text string, x, top float64) models.WordInfo {
	return models.WordInfo{Text: text, X0: x, X1: x + float64(len(text))*5, Top: top, Bottom: top + 8}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

type wantMov struct {
	fecha      time.Time
	concepto   string
	referencia string
	retiro     string
	deposito   string
}

func checkMovements(t *testing.T, got []models.Movimiento, want []wantMov) {
	t.Helper()
	if len(got) != len(want) {
		for _, m := range got {
			t.Logf("got movement: %s %q ref=%q retiro=%s deposito=%s",
				m.Fecha.Format("2006-01-02"), m.Concepto, m.Referencia, m.Retiro, m.Deposito)
		}
		t.Fatalf("got %d movements, want %d", len(got), len(want))
	}
	for i, w := range want {
		m := got[i]
		if !m.Fecha.Equal(w.fecha) {
			t.Errorf("movement %d fecha: got %s, want %s", i, m.Fecha.Format("2006-01-02"), w.fecha.Format("2006-01-02"))
		}
		if m.Concepto != w.concepto {
			t.Errorf("movement %d concepto: got %q, want %q", i, m.Concepto, w.concepto)
		}
		if m.Referencia != w.referencia {
			t.Errorf("movement %d referencia: got %q, want %q", i, m.Referencia, w.referencia)
		}
		if !m.Retiro.Equal(dec(w.retiro)) {
			t.Errorf("movement %d retiro: got %s, want %s", i, m.Retiro, w.retiro)
		}
		if !m.Deposito.Equal(dec(w.deposito)) {
			t.Errorf("movement %d deposito: got %s, want %s", i, m.Deposito, w.deposito)
		}
	}
}
