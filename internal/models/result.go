package models

import "fmt"

// Year window accepted for a statement period.
const (
	MinAnio = 2000
	MaxAnio = 2100
)

// ResultadoParseo is the complete parse output of one statement.
type ResultadoParseo struct {
	InfoCuenta    InfoCuenta   `json:"infoCuenta"`
	Movimientos   []Movimiento `json:"movimientos"`
	Resumen       Resumen      `json:"resumen"`
	Anio          int          `json:"anio"`
	Mes           int          `json:"mes"`
	ArchivoOrigen string       `json:"archivoOrigen"`
}

// NewResultadoParseo validates the period and builds the result.
func NewResultadoParseo(info InfoCuenta, movs []Movimiento, resumen Resumen, anio, mes int, archivo string) (*ResultadoParseo, error) {
	if mes < 1 || mes > 12 {
		return nil, &ValidationError{Field: "mes", Detail: fmt.Sprintf("debe estar entre 1 y 12, se recibió %d", mes)}
	}
	if anio < MinAnio || anio > MaxAnio {
		return nil, &ValidationError{Field: "año", Detail: fmt.Sprintf("fuera de rango: %d", anio)}
	}
	if movs == nil {
		movs = []Movimiento{}
	}
	return &ResultadoParseo{
		InfoCuenta:    info,
		Movimientos:   movs,
		Resumen:       resumen,
		Anio:          anio,
		Mes:           mes,
		ArchivoOrigen: archivo,
	}, nil
}

// Periodo returns the "YYYY-MM" key of the statement.
func (r *ResultadoParseo) Periodo() string {
	return fmt.Sprintf("%04d-%02d", r.Anio, r.Mes)
}
