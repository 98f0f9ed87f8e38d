package domain

import (
	"sort"
	"strings"
)

// Unit is a measurement unit drawn from a fixed set.
type Unit string

// Family groups units that can be converted into each other.
type Family string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Pound      Unit = "lb"
	Ounce      Unit = "oz"
	Millilitre Unit = "ml"
	Litre      Unit = "l"
	Piece      Unit = "pc"
	Cup        Unit = "cup"
	Teaspoon   Unit = "tsp"
	Tablespoon Unit = "tbsp"
)

const (
	FamilyMass       Family = "mass"
	FamilyVolume     Family = "volume"
	FamilyCount      Family = "count"
	FamilyCup        Family = "cup"
	FamilyTeaspoon   Family = "teaspoon"
	FamilyTablespoon Family = "tablespoon"
)

var unitFamilies = map[Unit]Family{
	Gram:       FamilyMass,
	Kilogram:   FamilyMass,
	Pound:      FamilyMass,
	Ounce:      FamilyMass,
	Millilitre: FamilyVolume,
	Litre:      FamilyVolume,
	Piece:      FamilyCount,
	Cup:        FamilyCup,
	Teaspoon:   FamilyTeaspoon,
	Tablespoon: FamilyTablespoon,
}

// ParseUnit normalises s and checks it against the known units.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := unitFamilies[u]; !ok {
		return "", invalid("unit", "unknown unit %q", s)
	}
	return u, nil
}

// Family returns the dimension family of u, or "" for an unknown unit.
func (u Unit) Family() Family {
	return unitFamilies[u.normal()]
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	_, ok := unitFamilies[u.normal()]
	return ok
}

func (u Unit) normal() Unit {
	return Unit(strings.ToLower(string(u)))
}

// Units returns all known units in a stable order.
func Units() []Unit {
	out := make([]Unit, 0, len(unitFamilies))
	for u := range unitFamilies {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := unitFamilies[out[i]], unitFamilies[out[j]]
		if fi != fj {
			return fi < fj
		}
		return out[i] < out[j]
	})
	return out
}
