package services

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var indexValuePrinter = message.NewPrinter(language.English)

// FormatIndexValue renders an index level with thousands separators and
// exactly two decimal digits, e.g. 25012.5 -> "25,012.50".
func FormatIndexValue(value float64) string {
	return indexValuePrinter.Sprintf("%v", number.Decimal(value,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// FormatChangePercent renders a day change with an explicit sign and exactly
// two decimal digits, e.g. 0.0 -> "+0.00%", -0.8 -> "-0.80%".
func FormatChangePercent(changePercent float64) string {
	return fmt.Sprintf("%+.2f%%", changePercent)
}

// ChangePercent computes the percent change from the previous close to the
// current close.
func ChangePercent(previous, current float64) float64 {
	return (current - previous) / previous * 100
}
