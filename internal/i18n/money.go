package i18n

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders a monetary amount for the given locale and ISO 4217
// currency code. Unknown locales fall back to English, unknown currencies to
// USD, so display formatting can never fail a request.
func FormatAmount(locale, currencyCode string, amount decimal.Decimal) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	value, _ := amount.Float64()
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.Symbol(unit.Amount(value)))
}
