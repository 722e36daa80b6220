package insight

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// FormatNumber renders v with thousands separators and at most three
// fraction digits, e.g. 1234.5 → "1,234.5".
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1<<53 {
		return printer.Sprintf("%v", number.Decimal(int64(v)))
	}
	return printer.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(3)))
}

// FormatInt rounds v to the nearest integer and renders it with thousands
// separators.
func FormatInt(v float64) string {
	return FormatNumber(math.Round(v))
}

// FormatCurrency renders v as whole US dollars, e.g. "$1,235" or "-$5".
func FormatCurrency(v float64) string {
	r := math.Round(v)
	if r < 0 {
		return "-$" + FormatNumber(-r)
	}
	return "$" + FormatNumber(r)
}

// FormatPercent renders v with one decimal and a percent sign.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// FormatFixed1 renders v with exactly one decimal.
func FormatFixed1(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
