package handlers

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	currencyPrinter = message.NewPrinter(language.English)
	titleCaser      = cases.Title(language.English)
)

// FormatCurrency renders price as "$1,234.56".
func FormatCurrency(price decimal.Decimal) string {
	sign := ""
	if price.IsNegative() {
		sign = "-"
		price = price.Neg()
	}
	return sign + currencyPrinter.Sprintf("$%.2f", price.Round(2).InexactFloat64())
}

// DisplayLabel title-cases an upper-case category for display. Mixed-case
// values such as "Model A" and values with digits are kept as they are.
func DisplayLabel(value string) string {
	if value != strings.ToUpper(value) || strings.ContainsAny(value, "0123456789") {
		return value
	}
	return titleCaser.String(value)
}
