package models

import (
	"fmt"
	"strings"
)

// BankType identifies a bank. Values match the registry keys.
type BankType string

const (
	BankBBVA          BankType = "BBVA"
	BankBanorte       BankType = "BANORTE"
	BankCitibanamex   BankType = "CITIBANAMEX"
	BankCiti          BankType = "CITI"
	BankSantander     BankType = "SANTANDER"
	BankScotiabank    BankType = "SCOTIABANK"
	BankMonex         BankType = "MONEX"
	BankSabadell      BankType = "SABADELL"
	BankBanregio      BankType = "BANREGIO"
	BankInbursa       BankType = "INBURSA"
	BankIntercam      BankType = "INTERCAM"
	BankBankaool      BankType = "BANKAOOL"
	BankBankOfAmerica BankType = "BANK_OF_AMERICA"
	BankVantage       BankType = "VANTAGE_BANK"
	BankJPMorgan      BankType = "JP_MORGAN"
	BankBXPlus        BankType = "BX_PLUS"
	BankHSBC          BankType = "HSBC"
)

// Supported currencies.
const (
	MonedaMXN = "MXN"
	MonedaUSD = "USD"
	MonedaEUR = "EUR"
)

// SinCuenta is used when a parser cannot find the account number.
const SinCuenta = "SIN_CUENTA"

var monedasValidas = map[string]bool{MonedaMXN: true, MonedaUSD: true, MonedaEUR: true}

// InfoCuenta identifies the account a statement belongs to.
type InfoCuenta struct {
	Banco  string `json:"banco"`
	Cuenta string `json:"cuenta"`
	Moneda string `json:"moneda"`
	RFC    string `json:"rfc,omitempty"`
	CLABE  string `json:"clabe,omitempty"`
}

// NewInfoCuenta validates bank, account and currency.
func NewInfoCuenta(banco, cuenta, moneda string) (InfoCuenta, error) {
	if strings.TrimSpace(banco) == "" {
		return InfoCuenta{}, &ValidationError{Field: "banco", Detail: "no puede estar vacío"}
	}
	if strings.TrimSpace(cuenta) == "" {
		return InfoCuenta{}, &ValidationError{Field: "cuenta", Detail: "no puede estar vacía"}
	}
	if !monedasValidas[moneda] {
		return InfoCuenta{}, &ValidationError{Field: "moneda", Detail: fmt.Sprintf("moneda no soportada: %q", moneda)}
	}
	return InfoCuenta{Banco: banco, Cuenta: cuenta, Moneda: moneda}, nil
}

// WithRFC returns a copy carrying the given RFC.
func (i InfoCuenta) WithRFC(rfc string) InfoCuenta {
	i.RFC = rfc
	return i
}

// WithCLABE returns a copy carrying the given CLABE.
func (i InfoCuenta) WithCLABE(clabe string) InfoCuenta {
	i.CLABE = clabe
	return i
}
