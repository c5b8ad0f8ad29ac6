// Package render holds user-facing formatting helpers.
package render

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
)

var chileanPrinter = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP renders an amount as Chilean pesos with es-CL digit grouping,
// e.g. 12345 -> "$12.345". CLP has no fractional unit in circulation, so
// amounts are whole pesos.
func FormatCLP(amount domain.Money) string {
	return chileanPrinter.Sprintf("$%v", number.Decimal(int64(amount)))
}
