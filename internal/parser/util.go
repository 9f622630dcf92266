package parser

import (
	"regexp"
	"strings"

	"github.com/insightdelivered/bank-parser/internal/normalize"
)

// Tesseract misreadings seen in scanned statements.
var (
	ocrSemicolonDecimal = regexp.MustCompile(`(\d);(\s*)(\d)`)
	ocrColonDecimal     = regexp.MustCompile(`(\d):(\d)`)
	ocrTrailingColon    = regexp.MustCompile(`(\d):(\s|$)`)
	ocrSpacedThousands  = regexp.MustCompile(`(\d),\s+(\d{3})`)
	ocrSpacedDecimal    = regexp.MustCompile(`(\d)\s+\.(\d{2})\b`)
	ocrCommaDecimal     = regexp.MustCompile(`(\d),(\d{2})$`)
	ocrGarbledYear      = regexp.MustCompile(`\b2[0O][0-9OoIlSB]{2}\b`)
)

// sanitizeOCRAmounts fixes common OCR errors in amount strings.
// E.g. "19,720; 15" becomes "19,720.15" and "1, 234 .56" becomes "1,234.56".
func sanitizeOCRAmounts(line string) string {
	line = ocrSemicolonDecimal.ReplaceAllString(line, "$1.$3")
	line = ocrColonDecimal.ReplaceAllString(line, "$1.$2")
	line = ocrTrailingColon.ReplaceAllString(line, "$1$2")
	line = ocrSpacedThousands.ReplaceAllString(line, "$1,$2")
	line = ocrSpacedDecimal.ReplaceAllString(line, "$1.$2")
	// A trailing ",dd" is a decimal comma; thousands groups have three digits.
	line = ocrCommaDecimal.ReplaceAllString(line, "$1.$2")
	return line
}

var ocrDigitLookalikes = strings.NewReplacer("O", "0", "o", "0", "I", "1", "l", "1", "S", "5", "B", "8")

// repairOCRYears rewrites four character years with letter lookalikes
// ("2O24", "202S") to digits.
func repairOCRYears(text string) string {
	return ocrGarbledYear.ReplaceAllStringFunc(text, ocrDigitLookalikes.Replace)
}

// repairOCRMonthDay fixes a month/day pair read from a scanned line.
// A month that lost its leading "1" is recovered from the statement month,
// and a day past the end of the month is clamped. ok is false when the pair
// cannot be a date.
func repairOCRMonthDay(year, month, day, statementMonth int) (m, d int, ok bool) {
	if month != statementMonth && statementMonth >= 10 && statementMonth%10 == month {
		month = statementMonth
	}
	if month < 1 || month > 12 || day < 1 {
		return 0, 0, false
	}
	if last := normalize.DaysIn(year, month); day > last {
		day = last
	}
	return month, day, true
}
