package currency

import (
	"fmt"
	"strconv"
	"time"
)

// FormatAmount renders a decimal amount string with the currency's symbol and
// decimal places, e.g. "KSh 140.00". Unparseable amounts are returned as-is
// prefixed with the symbol.
func FormatAmount(amount string, code Code) string {
	meta := Get(code)
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return fmt.Sprintf("%s %s", meta.Symbol, amount)
	}
	return fmt.Sprintf("%s %.*f", meta.Symbol, meta.Decimals, f)
}

// FormatRate renders an exchange rate with six decimal places.
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', 6, 64)
}

// FormatDate renders a timestamp for display in history listings.
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006 15:04 MST")
}
