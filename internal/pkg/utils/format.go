package utils

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NotAvailable is displayed for missing dates and undefined ratios.
const NotAvailable = "N/A"

const nbsp = "\u00a0"

var printer = message.NewPrinter(language.AmericanEnglish)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatCurrency renders value as en-US currency with two fraction digits, e.g. "$1,234.56".
// NaN and Inf render as zero.
func FormatCurrency(value float64, currency string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	prefix, ok := currencySymbols[currency]
	if !ok {
		// Codes without a symbol are separated by a no-break space, as Intl renders them.
		prefix = currency + nbsp
	}
	sign := ""
	if value < 0 {
		sign = "-"
		value = -value
	}
	return sign + prefix + printer.Sprintf("%.2f", value)
}

// FormatTokenAmount renders value with up to four fraction digits and grouping, followed by
// the symbol, e.g. "1,234.5 ETH".
func FormatTokenAmount(value float64, symbol string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "0 " + symbol
	}
	s := printer.Sprintf("%.4f", value)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s + " " + symbol
}

// FormatDate renders t like "Jan 2, 2006"; the zero time renders as "N/A".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format("Jan 2, 2006")
}

// FormatDateTime renders t like "Jan 2, 2006, 03:04 PM"; the zero time renders as "N/A".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}
