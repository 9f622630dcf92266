package normalize

import (
	"fmt"
	"strings"
)

// monthMap merges Spanish and English month names, abbreviated and full.
// English abbreviations identical to the Spanish ones are not repeated.
var monthMap = map[string]int{
	"ENE": 1, "FEB": 2, "MAR": 3, "ABR": 4, "MAY": 5, "JUN": 6,
	"JUL": 7, "AGO": 8, "SEP": 9, "OCT": 10, "NOV": 11, "DIC": 12,
	"SEPT": 9,

	"ENERO": 1, "FEBRERO": 2, "MARZO": 3, "ABRIL": 4, "MAYO": 5, "JUNIO": 6,
	"JULIO": 7, "AGOSTO": 8, "SEPTIEMBRE": 9, "OCTUBRE": 10, "NOVIEMBRE": 11, "DICIEMBRE": 12,

	"JAN": 1, "APR": 4, "AUG": 8, "DEC": 12,

	"JANUARY": 1, "FEBRUARY": 2, "MARCH": 3, "APRIL": 4, "JUNE": 6, "JULY": 7,
	"AUGUST": 8, "SEPTEMBER": 9, "OCTOBER": 10, "NOVEMBER": 11, "DECEMBER": 12,
}

// MonthNumber converts a month name in any supported form to 1-12.
func MonthNumber(name string) (int, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if n, ok := monthMap[key]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("mes no reconocido: %q", name)
}

