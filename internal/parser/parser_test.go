package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/insightdelivered/bank-parser/internal/models"
)

func TestKeywordIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected models.BankType
		wantOK   bool
	}{
		{"detects BBVA", "BBVA MEXICO, S.A.\nEstado de Cuenta\nPeriodo: 01/OCT/2024", models.BankBBVA, true},
		{"detects Banorte by legal name", "Banco Mercantil del Norte S.A.\nEnlace Negocios Basica", models.BankBanorte, true},
		{"citibanamex wins over citi", "CITIBANAMEX\nCuenta Perfiles", models.BankCitibanamex, true},
		{"detects Vantage", "Account Statement\nVANTAGE BANK TEXAS", models.BankVantage, true},
		{"detects HSBC", "HSBC MEXICO\nCUENTA INTEGRAL", models.BankHSBC, true},
		{"accented legal name", "Banco Nacional de México, S.A.", models.BankCitibanamex, true},
		{"accented and lowercase", "Banco Ve Por Más", models.BankBXPlus, true},
		{"unknown bank", "Some Unknown Bank\nStatement", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := KeywordIdentifier{}.Identify(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIdentifyPrefersHeader(t *testing.T) {
	body := strings.Repeat("movimiento\n", 30)
	text := "BANORTE\nEstado de cuenta\n" + body + "SPEI ENVIADO A BBVA BANCOMER"

	got, ok := KeywordIdentifier{}.Identify(text)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != models.BankBanorte {
		t.Errorf("got %q, want %q", got, models.BankBanorte)
	}
}

func TestIdentifyFallsBackToFullText(t *testing.T) {
	text := strings.Repeat("linea\n", 25) + "Scotiabank Inverlat"
	got, ok := KeywordIdentifier{}.Identify(text)
	if !ok || got != models.BankScotiabank {
		t.Errorf("got %q (ok=%v), want %q", got, ok, models.BankScotiabank)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		bankType models.BankType
		wantName string
		wantErr  bool
	}{
		{models.BankBBVA, "BBVA", false},
		{models.BankBanorte, "BANORTE", false},
		{models.BankSantander, "SANTANDER", false},
		{models.BankScotiabank, "SCOTIABANK", false},
		{models.BankVantage, "VANTAGE_BANK", false},
		{models.BankHSBC, "HSBC", false},
		{models.BankMonex, "", true},
		{"unknown", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.bankType), func(t *testing.T) {
			p, err := New(tt.bankType)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.BankName() != tt.wantName {
				t.Errorf("got %q, want %q", p.BankName(), tt.wantName)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&BBVAParser{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(&BBVAParser{}); err == nil {
		t.Error("expected duplicate registration to fail")
	}

	p, err := r.Get(" bbva ")
	if err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}
	if p.BankName() != "BBVA" {
		t.Errorf("got %q, want %q", p.BankName(), "BBVA")
	}
	if _, err := r.Get("HSBC"); err == nil {
		t.Error("HSBC should not be registered")
	}
}

func TestDefaultRegistryBanks(t *testing.T) {
	got := DefaultRegistry().AvailableBanks()
	want := []string{"BANORTE", "BBVA", "HSBC", "SANTANDER", "SCOTIABANK", "VANTAGE_BANK"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEveryParserRejectsNoPages(t *testing.T) {
	for _, name := range DefaultRegistry().AvailableBanks() {
		t.Run(name, func(t *testing.T) {
			p, _ := DefaultRegistry().Get(name)
			_, err := p.Parse(nil, "vacio.pdf")
			var pe *models.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Banco != name {
				t.Errorf("got bank %q, want %q", pe.Banco, name)
			}
		})
	}
}

func TestHolderIDs(t *testing.T) {
	header := "BANCO EJEMPLO\nR.F.C. ABC850101A12\nCLABE INTERBANCARIA: 014180655012345678\n"
	body := strings.Repeat("movimiento\n", 25) + "SPEI RECIBIDO RFC COR230419MX9\n"

	rfc, clabe := holderIDs([]models.PageText{{PageNum: 1, Text: header + body}})
	if rfc != "ABC850101A12" {
		t.Errorf("rfc: got %q, want %q", rfc, "ABC850101A12")
	}
	if clabe != "014180655012345678" {
		t.Errorf("clabe: got %q, want %q", clabe, "014180655012345678")
	}

	// A counterparty RFC past the header is not the holder's.
	rfc, clabe = holderIDs([]models.PageText{{PageNum: 1, Text: body}})
	if rfc != "" || clabe != "" {
		t.Errorf("got rfc %q clabe %q, want both empty", rfc, clabe)
	}

	if rfc, clabe := holderIDs(nil); rfc != "" || clabe != "" {
		t.Errorf("no pages: got rfc %q clabe %q", rfc, clabe)
	}
}

func TestFoldUpper(t *testing.T) {
	if got := foldUpper("Depósito en efectivo"); got != "DEPOSITO EN EFECTIVO" {
		t.Errorf("got %q, want %q", got, "DEPOSITO EN EFECTIVO")
	}
	if !containsAnyFold("LINEA DIRECTA 800", []string{"Línea Directa"}) {
		t.Error("containsAnyFold should ignore accents")
	}
}
