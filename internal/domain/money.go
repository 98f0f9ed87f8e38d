package domain

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 style currency code.
type Currency string

const (
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

var currencies = map[Currency]bool{EUR: true, GBP: true}

// ParseCurrency upper-cases s and checks it against the allow-list.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !currencies[c] {
		return "", invalid("currency", "unsupported currency %q", s)
	}
	return c, nil
}

// Money is an exact decimal amount in a currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// String renders the amount with two decimal places, e.g. "1.00 EUR".
func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + string(m.Currency)
}

// RateProvider supplies exchange rates. Rate returns r such that an amount
// in from multiplied by r is the same value in to.
type RateProvider interface {
	Rate(ctx context.Context, from, to Currency) (decimal.Decimal, error)
}
