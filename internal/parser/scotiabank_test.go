package parser

import (
	"strings"
	"testing"

	"github.com/insightdelivered/bank-parser/internal/models"
)

const scotiabankStatement = `Scotiabank
Cuenta 12345678901
Periodo 01-OCT-24 al 31-OCT-24
01 OCT ESTO NO ES UN MOVIMIENTO $1.00 $2.00
Detalle de tus movimientos
01 OCT TRANSF INTERBANCARIA SPEI
REF 0123456789

$5,000.00 $15,000.00
02 OCT PAGO RECIBIDO CLIENTE $1,000.00 $16,000.00
03 OCT COBRO DE COMISION $100.00
$15,900.00
PAGINA 2`

func TestScotiabankParser_Parse(t *testing.T) {
	p := &ScotiabankParser{}

	res, err := p.Parse([]models.PageText{{PageNum: 1, Text: scotiabankStatement}}, "scotia.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.InfoCuenta.Cuenta != "12345678901" {
		t.Errorf("cuenta: got %q, want %q", res.InfoCuenta.Cuenta, "12345678901")
	}
	if res.Anio != 2024 || res.Mes != 10 {
		t.Errorf("periodo: got %d-%d, want 2024-10", res.Anio, res.Mes)
	}

	checkMovements(t, res.Movimientos, []wantMov{
		{day(2024, 10, 1), "TRANSF INTERBANCARIA SPEI REF 0123456789", "0123456789", "0", "5000.00"},
		{day(2024, 10, 2), "PAGO RECIBIDO CLIENTE", "", "0", "1000.00"},
		{day(2024, 10, 3), "COBRO DE COMISION", "", "100.00", "0"},
	})
}

func TestScotiabankAccountFromBarcode(t *testing.T) {
	got, _ := (&ScotiabankParser{}).accountInfo("CUENTA 0010000044158123456")
	if got != "00004415812" {
		t.Errorf("got %q, want %q", got, "00004415812")
	}
}

func TestScotiabankIsDeposit(t *testing.T) {
	tests := []struct {
		concepto string
		expected bool
	}{
		{"PAGO RECIBIDO DE CLIENTE", true},
		{"PAGO TARJETA DE CREDITO", false},
		{"SEL TRASPASO ENTRE CUENTAS ABONO", false},
		{"SEL TRANSF. INTERBANCARIA SPEI", false},
		{"TRANSF INTERBANCARIA SPEI", true},
		{"IVA COMISION", false},
		{"ABONO INTERESES", true},
		{"MOVIMIENTO SIN CLAVE", false},
		{"DEPÓSITO EN EFECTIVO", true},
		{"IVA COMISIÓN", false},
		{"Crédito nómina", true},
	}

	for _, tt := range tests {
		t.Run(tt.concepto, func(t *testing.T) {
			if got := scotiabankIsDeposit(tt.concepto); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestScotiabankParser_MaxConceptLines(t *testing.T) {
	text := "Periodo 01-OCT-24 al 31-OCT-24\nDetalle de tus movimientos\n01 OCT CARGO LARGO\n"
	for i := 0; i < 20; i++ {
		text += "linea de detalle\n"
	}
	text += "$10.00 $90.00\n"

	res, err := (&ScotiabankParser{}).Parse([]models.PageText{{PageNum: 1, Text: text}}, "largo.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Movimientos) != 0 {
		t.Errorf("amounts beyond the line limit must not be attached; got %d movements", len(res.Movimientos))
	}
}

func TestScotiabankParser_DropsInvalidLines(t *testing.T) {
	text := strings.Replace(scotiabankStatement,
		"03 OCT COBRO DE COMISION",
		"31 SEP TRANSFERENCIA RECIBIDA $10.00 $16,010.00\n03 OCT COBRO DE COMISION", 1)

	res, err := (&ScotiabankParser{}).Parse([]models.PageText{{PageNum: 1, Text: text}}, "scotia.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkMovements(t, res.Movimientos, []wantMov{
		{day(2024, 10, 1), "TRANSF INTERBANCARIA SPEI REF 0123456789", "0123456789", "0", "5000.00"},
		{day(2024, 10, 2), "PAGO RECIBIDO CLIENTE", "", "0", "1000.00"},
		{day(2024, 10, 3), "COBRO DE COMISION", "", "100.00", "0"},
	})
}
