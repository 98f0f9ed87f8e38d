package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func almostEqual(a, b decimal.Decimal, epsilon string) bool {
	return a.Sub(b).Abs().LessThan(dec(epsilon))
}

func TestFactor(t *testing.T) {
	table := domain.DefaultConversionTable()
	tests := []struct {
		name     string
		from, to domain.Unit
		want     string
	}{
		{"oz to lb", "oz", "lb", "0.0625"},
		{"oz to g", "oz", "g", "28.3495"},
		{"oz to kg", "oz", "kg", "0.0283495"},
		{"lb to oz", "lb", "oz", "16"},
		{"lb to g", "lb", "g", "453.592"},
		{"lb to kg", "lb", "kg", "0.453592"},
		{"g to oz", "g", "oz", "0.035274"},
		{"g to lb", "g", "lb", "0.00220462"},
		{"g to kg", "g", "kg", "0.001"},
		{"kg to oz", "kg", "oz", "35.274"},
		{"kg to lb", "kg", "lb", "2.20462"},
		{"kg to g", "kg", "g", "1000"},
		{"ml to l", "ml", "l", "0.001"},
		{"l to ml", "l", "ml", "1000"},
		{"upper case", "KG", "G", "1000"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := table.Factor(tc.from, tc.to)
			if err != nil {
				t.Fatalf("Factor(%q, %q): %v", tc.from, tc.to, err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Errorf("Factor(%q, %q) = %s; want %s", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestFactor_Identity(t *testing.T) {
	table := domain.DefaultConversionTable()
	for _, u := range domain.Units() {
		got, err := table.Factor(u, u)
		if err != nil {
			t.Fatalf("Factor(%q, %q): %v", u, u, err)
		}
		if !got.Equal(decimal.NewFromInt(1)) {
			t.Errorf("Factor(%q, %q) = %s; want 1", u, u, got)
		}
	}
}

func TestFactor_RoundTrip(t *testing.T) {
	table := domain.DefaultConversionTable()
	for _, c := range table.Pairs() {
		back, err := table.Factor(c.To, c.From)
		if err != nil {
			t.Fatalf("no inverse for %s -> %s: %v", c.From, c.To, err)
		}
		product := c.Factor.Mul(back)
		if !almostEqual(product, decimal.NewFromInt(1), "0.0001") {
			t.Errorf("%s -> %s -> %s gives %s; want ~1", c.From, c.To, c.From, product)
		}
	}
}

func TestFactor_Undefined(t *testing.T) {
	table := domain.DefaultConversionTable()
	tests := []struct {
		name     string
		from, to domain.Unit
	}{
		{"mass to volume", "g", "l"},
		{"volume to mass", "ml", "kg"},
		{"piece to gram", "pc", "g"},
		{"spoons", "tsp", "tbsp"},
		{"cup to ml", "cup", "ml"},
		{"unknown unit", "stone", "kg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := table.Factor(tc.from, tc.to)
			if !errors.Is(err, domain.ErrConversion) {
				t.Fatalf("expected ErrConversion, got %v", err)
			}
			var ce *domain.ConversionError
			if !errors.As(err, &ce) || ce.From != tc.from || ce.To != tc.to {
				t.Errorf("unexpected error detail: %#v", ce)
			}
		})
	}
}

func TestConvert(t *testing.T) {
	table := domain.DefaultConversionTable()
	got, err := table.Convert(dec("2.5"), "kg", "g")
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !got.Equal(dec("2500")) {
		t.Errorf("expected 2500, got %s", got)
	}
}

func TestCustomTable(t *testing.T) {
	table := domain.NewConversionTable(domain.Conversion{From: "Cup", To: "ml", Factor: dec("240")})
	got, err := table.Factor("cup", "ml")
	if err != nil {
		t.Fatalf("Factor: %v", err)
	}
	if !got.Equal(dec("240")) {
		t.Errorf("expected 240, got %s", got)
	}
	if _, err := table.Factor("kg", "g"); !errors.Is(err, domain.ErrConversion) {
		t.Errorf("expected ErrConversion for pair missing from custom table, got %v", err)
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Unit
		wantErr bool
	}{
		{"g", domain.Gram, false},
		{" KG ", domain.Kilogram, false},
		{"Tbsp", domain.Tablespoon, false},
		{"pc", domain.Piece, false},
		{"stone", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := domain.ParseUnit(tc.in)
		if tc.wantErr {
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("ParseUnit(%q): expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseUnit(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestUnitFamily(t *testing.T) {
	if domain.Gram.Family() != domain.FamilyMass {
		t.Errorf("g should be mass")
	}
	if domain.Litre.Family() != domain.FamilyVolume {
		t.Errorf("l should be volume")
	}
	if domain.Unit("stone").Family() != "" {
		t.Errorf("unknown unit should have no family")
	}

	// pc, cup, tsp and tbsp each stand alone.
	seen := map[domain.Family]domain.Unit{}
	for _, u := range []domain.Unit{domain.Piece, domain.Cup, domain.Teaspoon, domain.Tablespoon} {
		f := u.Family()
		if other, ok := seen[f]; ok {
			t.Errorf("%s and %s share family %q", other, u, f)
		}
		seen[f] = u
	}
	if domain.Cup.Family() == domain.Millilitre.Family() {
		t.Errorf("cup should not be a volume unit")
	}
}
