package report

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a report does not name one
const DefaultCurrency = "USD"

// Money formats decimal amounts in a currency
type Money struct {
	code string
	cur  *money.Currency
}

// NewMoney returns a formatter for the ISO 4217 code.
// Unknown codes format as plain decimals followed by the code.
func NewMoney(code string) Money {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	return Money{code: code, cur: money.GetCurrency(code)}
}

// Code returns the currency code
func (m Money) Code() string { return m.code }

// Format renders value with the currency symbol and thousand separators
func (m Money) Format(value decimal.Decimal) string {
	if m.cur == nil {
		return value.StringFixed(2) + " " + m.code
	}
	minor := value.Shift(int32(m.cur.Fraction)).Round(0)
	return m.cur.Formatter().Format(minor.IntPart())
}

// Signed is Format with an explicit plus sign on gains
func (m Money) Signed(value decimal.Decimal) string {
	if value.IsPositive() {
		return "+" + m.Format(value)
	}
	return m.Format(value)
}
