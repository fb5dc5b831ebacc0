package analysis

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRNumber renders x with two decimals in Brazilian notation, e.g. 1.234,56.
func FormatBRNumber(x float64) string {
	return brPrinter.Sprintf("%.2f", x)
}

// FormatBRL renders x as Brazilian currency, e.g. R$ 1.234,56.
func FormatBRL(x float64) string {
	return "R$ " + FormatBRNumber(x)
}
