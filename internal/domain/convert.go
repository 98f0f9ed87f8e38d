package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// UnitPair is an ordered (from, to) pair of units.
type UnitPair struct {
	From Unit
	To   Unit
}

// Conversion is one entry of a ConversionTable: a quantity in From
// multiplied by Factor is the same quantity in To.
type Conversion struct {
	From   Unit            `json:"from"`
	To     Unit            `json:"to"`
	Factor decimal.Decimal `json:"factor"`
}

// ConversionTable is an immutable lookup of conversion factors.
type ConversionTable struct {
	factors map[UnitPair]decimal.Decimal
}

// NewConversionTable builds a table from the given conversions. Unit names
// are matched case-insensitively.
func NewConversionTable(conversions ...Conversion) *ConversionTable {
	t := &ConversionTable{factors: make(map[UnitPair]decimal.Decimal, len(conversions))}
	for _, c := range conversions {
		t.factors[UnitPair{From: c.From.normal(), To: c.To.normal()}] = c.Factor
	}
	return t
}

func conv(from, to Unit, factor string) Conversion {
	return Conversion{From: from, To: to, Factor: decimal.RequireFromString(factor)}
}

// DefaultConversionTable returns the standard mass and volume factors.
func DefaultConversionTable() *ConversionTable {
	return NewConversionTable(
		conv(Ounce, Pound, "0.0625"),
		conv(Ounce, Gram, "28.3495"),
		conv(Ounce, Kilogram, "0.0283495"),

		conv(Pound, Ounce, "16"),
		conv(Pound, Gram, "453.592"),
		conv(Pound, Kilogram, "0.453592"),

		conv(Gram, Ounce, "0.035274"),
		conv(Gram, Pound, "0.00220462"),
		conv(Gram, Kilogram, "0.001"),

		conv(Kilogram, Ounce, "35.274"),
		conv(Kilogram, Pound, "2.20462"),
		conv(Kilogram, Gram, "1000"),

		conv(Millilitre, Litre, "0.001"),
		conv(Litre, Millilitre, "1000"),
	)
}

// Factor returns the factor that converts a quantity in from into to.
// Identical units always give exactly 1; pairs missing from the table fail
// with a *ConversionError.
func (t *ConversionTable) Factor(from, to Unit) (decimal.Decimal, error) {
	f, n := from.normal(), to.normal()
	if f == n {
		return decimal.NewFromInt(1), nil
	}
	factor, ok := t.factors[UnitPair{From: f, To: n}]
	if !ok {
		return decimal.Decimal{}, &ConversionError{From: f, To: n}
	}
	return factor, nil
}

// Convert expresses qty, given in from, in the unit to.
func (t *ConversionTable) Convert(qty decimal.Decimal, from, to Unit) (decimal.Decimal, error) {
	factor, err := t.Factor(from, to)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return qty.Mul(factor), nil
}

// Pairs lists the table entries ordered by from, then to.
func (t *ConversionTable) Pairs() []Conversion {
	out := make([]Conversion, 0, len(t.factors))
	for p, f := range t.factors {
		out = append(out, Conversion{From: p.From, To: p.To, Factor: f})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
