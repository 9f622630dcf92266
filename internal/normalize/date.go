package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/bank-parser/internal/models"
)

// Supported bank date layouts, tried in order.
var (
	dayOnlyPattern     = regexp.MustCompile(`^\d{1,2}$`)
	compactDatePattern = regexp.MustCompile(`^(\d{2})([A-Za-z]{3})(\d{2})$`)
	textMonthPattern   = regexp.MustCompile(`^(\d{1,2})[/\-\s]+([A-Za-z]{3,})(?:[/\-\s]+(\d{2,4}))?$`)
	numericDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4})$`)
)

// ParseBankDate parses the date formats found across statements. year and
// month are used when the text omits them; pass 0 when unknown.
//
//	"05/OCT" (needs year)    "05OCT24"     "05-Oct-2024"
//	"05 OCT 24"              "5" (needs year and month)
//	"05/10/24" (DD/MM/YY)    "05/10/2024"
//
// Numeric dates are always read day first; see ParseAmericanDate.
func ParseBankDate(text string, year, month int) (time.Time, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return time.Time{}, &models.DateError{Text: text, Reason: "texto vacío"}
	}

	if dayOnlyPattern.MatchString(t) {
		if year == 0 || month == 0 {
			return time.Time{}, &models.DateError{Text: t, Reason: "solo contiene el día; se requieren año y mes"}
		}
		day, _ := strconv.Atoi(t)
		return BuildDate(year, month, day, t)
	}

	if m := compactDatePattern.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		mon, err := MonthNumber(m[2])
		if err != nil {
			return time.Time{}, &models.DateError{Text: t, Reason: err.Error()}
		}
		yy, _ := strconv.Atoi(m[3])
		return BuildDate(ExpandYear(yy), mon, day, t)
	}

	if m := textMonthPattern.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		mon, err := MonthNumber(m[2])
		if err != nil {
			return time.Time{}, &models.DateError{Text: t, Reason: err.Error()}
		}
		y := year
		if m[3] != "" {
			yy, _ := strconv.Atoi(m[3])
			y = ExpandYear(yy)
		}
		if y == 0 {
			return time.Time{}, &models.DateError{Text: t, Reason: "no incluye año y no se proporcionó uno"}
		}
		return BuildDate(y, mon, day, t)
	}

	if m := numericDatePattern.FindStringSubmatch(t); m != nil {
		day, _ := strconv.Atoi(m[1])
		mon, _ := strconv.Atoi(m[2])
		yy, _ := strconv.Atoi(m[3])
		if mon < 1 || mon > 12 {
			return time.Time{}, &models.DateError{Text: t, Reason: fmt.Sprintf("mes fuera de rango: %d", mon)}
		}
		return BuildDate(ExpandYear(yy), mon, day, t)
	}

	return time.Time{}, &models.DateError{Text: t, Reason: "formato no reconocido"}
}

// ParseAmericanDate parses MM/DD/YY or MM/DD/YYYY. ParseBankDate never
// tries this order; callers opt in for US statements.
func ParseAmericanDate(text string) (time.Time, error) {
	t := strings.TrimSpace(text)
	m := numericDatePattern.FindStringSubmatch(t)
	if m == nil {
		return time.Time{}, &models.DateError{Text: text, Reason: "formato MM/DD/AA no reconocido"}
	}
	mon, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	yy, _ := strconv.Atoi(m[3])
	return BuildDate(ExpandYear(yy), mon, day, t)
}

// ExpandYear expands two-digit years with a 50 year pivot: 00-49 map to
// 2000-2049, 50-99 to 1950-1999. Four-digit years are returned unchanged.
func ExpandYear(y int) int {
	switch {
	case y >= 100:
		return y
	case y < 50:
		return 2000 + y
	default:
		return 1900 + y
	}
}

// BuildDate validates the calendar date. original is carried in the error.
func BuildDate(year, month, day int, original string) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, &models.DateError{Text: original, Reason: fmt.Sprintf("mes fuera de rango: %d", month)}
	}
	if day < 1 || day > DaysIn(year, month) {
		return time.Time{}, &models.DateError{Text: original, Reason: fmt.Sprintf("día inválido %d para %04d-%02d", day, year, month)}
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
