// Package normalize turns raw cell text into typed values.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/LuisEduardoPedra/confrontoCorrispettivi/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrInvalidDate is returned by ParseDate for text that is not a date.
var ErrInvalidDate = errors.New("invalid date")

var (
	dayFirstRegex = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})(?:[ T].*)?$`)
	isoRegex      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T].*)?$`)
	serialRegex   = regexp.MustCompile(`^\d{5}(?:\.\d+)?$`)
)

// ParseDate reads a day-first date (05/03/2023, 5-3-23, 05.03.2023 10:30).
// Two-digit years are read as 20yy. ISO dates and Excel serial numbers are
// accepted as fallbacks.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}

	if m := dayFirstRegex.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return civilDate(year, m[2], m[1], raw)
	}
	if m := isoRegex.FindStringSubmatch(s); m != nil {
		return civilDate(m[1], m[2], m[3], raw)
	}
	if serialRegex.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				return domain.Day(t), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

func civilDate(year, month, day, raw string) (time.Time, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/02 into March; reject instead.
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return t, nil
}

// ParseDecimal reads a localized number. Comma and period are both accepted
// as decimal separator; when both appear the last one is the decimal
// separator. Blank or non-numeric text is zero.
func ParseDecimal(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	for _, junk := range []string{"€", "EUR", "%", " ", "\u00a0"} {
		s = strings.ReplaceAll(s, junk, "")
	}
	if s == "" {
		return decimal.Zero
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if negative {
		d = d.Neg()
	}
	return d
}

// ClassifyMethod recognizes exactly "contanti" and "pos".
func ClassifyMethod(raw string) domain.PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "contanti":
		return domain.MethodCash
	case "pos":
		return domain.MethodElectronic
	}
	return domain.MethodUnknown
}
