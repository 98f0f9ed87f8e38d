package rates

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

func TestStatic(t *testing.T) {
	s, err := NewStatic(map[string]string{"EUR_GBP": "0.8"})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	ctx := context.Background()

	r, err := s.Rate(ctx, domain.EUR, domain.GBP)
	if err != nil || !r.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("EUR->GBP = %s, %v", r, err)
	}
	r, err = s.Rate(ctx, domain.GBP, domain.EUR)
	if err != nil || !r.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("derived GBP->EUR = %s, %v", r, err)
	}
	r, err = s.Rate(ctx, domain.EUR, domain.EUR)
	if err != nil || !r.Equal(decimal.NewFromInt(1)) {
		t.Errorf("EUR->EUR = %s, %v", r, err)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 pairs, got %d", s.Len())
	}
}

func TestStatic_ExplicitInverseWins(t *testing.T) {
	s, err := NewStatic(map[string]string{"EUR_GBP": "0.8", "gbp-eur": "1.3"})
	if err != nil {
		t.Fatalf("NewStatic: %v", err)
	}
	r, _ := s.Rate(context.Background(), domain.GBP, domain.EUR)
	if !r.Equal(decimal.RequireFromString("1.3")) {
		t.Errorf("expected configured 1.3, got %s", r)
	}
}

func TestStatic_Missing(t *testing.T) {
	s, _ := NewStatic(nil)
	if _, err := s.Rate(context.Background(), domain.EUR, domain.GBP); !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Errorf("expected ErrUnsupportedCurrency, got %v", err)
	}
}

func TestNewStatic_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"bad key":       {"EURGBP": "0.8"},
		"unknown code":  {"EUR_USD": "1.1"},
		"not a number":  {"EUR_GBP": "abc"},
		"zero rate":     {"EUR_GBP": "0"},
		"negative rate": {"EUR_GBP": "-1"},
	}
	for name, pairs := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewStatic(pairs); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
