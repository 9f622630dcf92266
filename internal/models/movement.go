package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Movement types reported by Movimiento.Tipo.
const (
	TipoRetiro   = "retiro"
	TipoDeposito = "deposito"
)

// Movimiento represents a single statement transaction. Exactly one of
// Retiro and Deposito is non-zero for every movement a parser emits.
type Movimiento struct {
	Fecha      time.Time       `json:"fecha"`
	Concepto   string          `json:"concepto"`
	Referencia string          `json:"referencia"`
	Retiro     decimal.Decimal `json:"retiro"`
	Deposito   decimal.Decimal `json:"deposito"`
}

// NewMovimiento validates amounts and returns the movement. Negative
// amounts and movements carrying both a withdrawal and a deposit are rejected.
func NewMovimiento(fecha time.Time, concepto, referencia string, retiro, deposito decimal.Decimal) (Movimiento, error) {
	if retiro.IsNegative() {
		return Movimiento{}, &ValidationError{Field: "retiro", Detail: fmt.Sprintf("no puede ser negativo: %s", retiro)}
	}
	if deposito.IsNegative() {
		return Movimiento{}, &ValidationError{Field: "deposito", Detail: fmt.Sprintf("no puede ser negativo: %s", deposito)}
	}
	if retiro.IsPositive() && deposito.IsPositive() {
		return Movimiento{}, &ValidationError{
			Field:  "retiro/deposito",
			Detail: fmt.Sprintf("un movimiento no puede ser retiro y deposito a la vez (retiro=%s, deposito=%s)", retiro, deposito),
		}
	}
	return Movimiento{
		Fecha:      DateOnly(fecha),
		Concepto:   concepto,
		Referencia: referencia,
		Retiro:     retiro,
		Deposito:   deposito,
	}, nil
}

// Tipo returns "retiro" when the movement is a withdrawal, "deposito" otherwise.
func (m Movimiento) Tipo() string {
	if m.Retiro.IsPositive() {
		return TipoRetiro
	}
	return TipoDeposito
}

// Monto returns the non-zero side of the movement.
func (m Movimiento) Monto() decimal.Decimal {
	if m.Retiro.IsPositive() {
		return m.Retiro
	}
	return m.Deposito
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
