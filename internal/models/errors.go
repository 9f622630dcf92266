package models

import "fmt"

// BancoNoIdentificadoError is returned when no bank could be matched or no
// parser is registered for the matched bank.
type BancoNoIdentificadoError struct {
	Archivo string
	Detalle string
}

func (e *BancoNoIdentificadoError) Error() string {
	msg := fmt.Sprintf("banco no identificado en %s", e.Archivo)
	if e.Detalle != "" {
		msg += ": " + e.Detalle
	}
	return msg
}

// FormatoInvalidoError is returned for missing files, unsupported file types
// and documents lacking data a parser requires.
type FormatoInvalidoError struct {
	Archivo         string
	FormatoEsperado string
	Detalle         string
}

func (e *FormatoInvalidoError) Error() string {
	msg := fmt.Sprintf("formato inválido en %s (esperado: %s)", e.Archivo, e.FormatoEsperado)
	if e.Detalle != "" {
		msg += ": " + e.Detalle
	}
	return msg
}

// ExtractionError is returned when a backend cannot produce text.
type ExtractionError struct {
	Archivo string
	Causa   string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("error de extracción en %s: %s", e.Archivo, e.Causa)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ParseError is returned by bank parsers.
type ParseError struct {
	Banco   string
	Archivo string
	Causa   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error parseando %s (%s): %s", e.Archivo, e.Banco, e.Causa)
}

// OutputError is returned when a result cannot be persisted.
type OutputError struct {
	Ruta  string
	Causa string
	Err   error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("error escribiendo %s: %s", e.Ruta, e.Causa)
}

func (e *OutputError) Unwrap() error { return e.Err }

// ValidationError reports a violated model invariant.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s inválido: %s", e.Field, e.Detail)
}

// DateError carries the text that could not be turned into a date.
type DateError struct {
	Text   string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("fecha inválida %q: %s", e.Text, e.Reason)
}

// ParseValueError carries a value that could not be parsed as money.
type ParseValueError struct {
	Value  string
	Reason string
}

func (e *ParseValueError) Error() string {
	return fmt.Sprintf("monto inválido %q: %s", e.Value, e.Reason)
}
