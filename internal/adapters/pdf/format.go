package pdf

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var argentina = language.MustParse("es-AR")

// formatMoney renders amount with es-AR separators, e.g. $ 1.234.567,50.
func formatMoney(amount decimal.Decimal) string {
	return "$ " + formatNumber(amount, 2)
}

func formatNumber(amount decimal.Decimal, places int32) string {
	f, _ := amount.Round(places).Float64()
	return message.NewPrinter(argentina).Sprintf(fmt.Sprintf("%%.%df", places), f)
}

// formatRate renders a VAT percentage without trailing zeros, e.g. 21 or 10,5.
func formatRate(rate decimal.Decimal) string {
	places := 0
	if s := rate.String(); strings.Contains(s, ".") {
		places = len(s) - strings.IndexByte(s, '.') - 1
	}
	return formatNumber(rate, int32(places))
}

// formatTaxID renders an 11-digit CUIT as XX-XXXXXXXX-X.
func formatTaxID(taxID string) string {
	if len(taxID) != 11 {
		return taxID
	}
	return taxID[:2] + "-" + taxID[2:10] + "-" + taxID[10:]
}
