// Package rates provides currency exchange rates for the pricing service.
package rates

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

// Static serves a fixed table of exchange rates. The inverse of every
// configured pair is derived unless it is configured itself.
type Static struct {
	rates map[[2]domain.Currency]decimal.Decimal
}

var _ domain.RateProvider = (*Static)(nil)

// NewStatic builds a Static provider from pairs keyed "FROM_TO", e.g.
// "EUR_GBP": "0.86".
func NewStatic(pairs map[string]string) (*Static, error) {
	s := &Static{rates: make(map[[2]domain.Currency]decimal.Decimal)}
	explicit := make(map[[2]domain.Currency]bool)
	for key, value := range pairs {
		from, to, err := parsePair(key)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("rate %s: %w", key, err)
		}
		if !rate.IsPositive() {
			return nil, fmt.Errorf("rate %s: must be > 0", key)
		}
		s.rates[[2]domain.Currency{from, to}] = rate
		explicit[[2]domain.Currency{from, to}] = true
	}
	for pair := range explicit {
		inv := [2]domain.Currency{pair[1], pair[0]}
		if !explicit[inv] {
			s.rates[inv] = decimal.NewFromInt(1).Div(s.rates[pair])
		}
	}
	return s, nil
}

// Rate returns the factor converting an amount in from into to.
func (s *Static) Rate(_ context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if r, ok := s.rates[[2]domain.Currency{from, to}]; ok {
		return r, nil
	}
	return decimal.Zero, fmt.Errorf("%w: no rate from %s to %s", domain.ErrUnsupportedCurrency, from, to)
}

// Len returns the number of known directed pairs.
func (s *Static) Len() int {
	return len(s.rates)
}

func parsePair(key string) (domain.Currency, domain.Currency, error) {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '/' })
	if len(parts) != 2 {
		return "", "", fmt.Errorf("rate key %q: want FROM_TO", key)
	}
	from, err := domain.ParseCurrency(parts[0])
	if err != nil {
		return "", "", fmt.Errorf("rate key %q: %w", key, err)
	}
	to, err := domain.ParseCurrency(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("rate key %q: %w", key, err)
	}
	return from, to, nil
}
