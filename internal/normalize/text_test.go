package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanWhitespace(t *testing.T) {
	assert.Equal(t, "PAGO SERVICIO LUZ", CleanWhitespace("  PAGO \t SERVICIO\n\nLUZ "))
	assert.Equal(t, "", CleanWhitespace(" \n "))
}

func TestCleanPDFText(t *testing.T) {
	in := "linea\x00uno\r\nlinea\x07dos\rtres\tfin"
	assert.Equal(t, "linea uno\nlinea dos\ntres\tfin", CleanPDFText(in))
}

func TestStripAccents(t *testing.T) {
	assert.Equal(t, "DEPOSITO", StripAccents("DEPÓSITO"))
	assert.Equal(t, "Informacion Mexico", StripAccents("Información México"))
	assert.Equal(t, "NINO", StripAccents("NIÑO"))
}
