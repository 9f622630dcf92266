package models

import "github.com/shopspring/decimal"

// Resumen aggregates a movement set. Printed balances are optional and only
// used for reconciliation.
type Resumen struct {
	TotalDepositos decimal.Decimal  `json:"totalDepositos"`
	TotalRetiros   decimal.Decimal  `json:"totalRetiros"`
	NumDepositos   int              `json:"numDepositos"`
	NumRetiros     int              `json:"numRetiros"`
	SaldoInicial   *decimal.Decimal `json:"saldoInicial,omitempty"`
	SaldoFinal     *decimal.Decimal `json:"saldoFinal,omitempty"`
}

// CalcularResumen recomputes totals from the movements.
func CalcularResumen(movs []Movimiento) Resumen {
	r := Resumen{TotalDepositos: decimal.Zero, TotalRetiros: decimal.Zero}
	for _, m := range movs {
		if m.Deposito.IsPositive() {
			r.TotalDepositos = r.TotalDepositos.Add(m.Deposito)
			r.NumDepositos++
		}
		if m.Retiro.IsPositive() {
			r.TotalRetiros = r.TotalRetiros.Add(m.Retiro)
			r.NumRetiros++
		}
	}
	return r
}

// WithSaldos returns a copy carrying printed opening and closing balances.
func (r Resumen) WithSaldos(inicial, final *decimal.Decimal) Resumen {
	r.SaldoInicial = inicial
	r.SaldoFinal = final
	return r
}

// DiferenciaSaldos is the closing minus the opening balance. ok is false
// when either balance is missing.
func (r Resumen) DiferenciaSaldos() (diff decimal.Decimal, ok bool) {
	if r.SaldoInicial == nil || r.SaldoFinal == nil {
		return decimal.Zero, false
	}
	return r.SaldoFinal.Sub(*r.SaldoInicial), true
}

// BalanceMovimientos is deposits minus withdrawals.
func (r Resumen) BalanceMovimientos() decimal.Decimal {
	return r.TotalDepositos.Sub(r.TotalRetiros)
}
