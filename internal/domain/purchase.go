package domain

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxLocationLen is the longest accepted purchase location.
const MaxLocationLen = 100

// Stored precision of prices and quantities. Values with more decimal places
// or integer digits are rejected instead of being rounded by the store.
const (
	PriceScale    = 2
	QuantityScale = 3
)

var (
	maxPrice    = decimal.New(1, 10)
	maxQuantity = decimal.New(1, 9)
)

// checkDecimal fails when d has more than scale decimal places or is not
// below limit.
func checkDecimal(field string, d decimal.Decimal, scale int32, limit decimal.Decimal) error {
	if !d.Equal(d.Truncate(scale)) {
		return invalid(field, "must have at most %d decimal places, got %s", scale, d)
	}
	if d.Abs().GreaterThanOrEqual(limit) {
		return invalid(field, "must be less than %s", limit)
	}
	return nil
}

// Purchase is one historical buying event of a food item. Purchases are
// never updated; the current price is always derived from the newest one.
type Purchase struct {
	ID         int64           `json:"id"`
	FoodItemID int64           `json:"foodItemId"`
	Price      decimal.Decimal `json:"price"`
	Currency   Currency        `json:"currency"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       Unit            `json:"unit"`
	Location   string          `json:"location"`
	Date       time.Time       `json:"date"`
}

// Money returns the purchase price with its currency.
func (p Purchase) Money() Money {
	return Money{Amount: p.Price, Currency: p.Currency}
}

// Validate checks the purchase fields, normalising unit and currency.
func (p *Purchase) Validate() error {
	if p.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if err := checkDecimal("price", p.Price, PriceScale, maxPrice); err != nil {
		return err
	}
	if !p.Quantity.IsPositive() {
		return invalid("quantity", "must be > 0")
	}
	if err := checkDecimal("quantity", p.Quantity, QuantityScale, maxQuantity); err != nil {
		return err
	}
	u, err := ParseUnit(string(p.Unit))
	if err != nil {
		return err
	}
	p.Unit = u
	c, err := ParseCurrency(string(p.Currency))
	if err != nil {
		return err
	}
	p.Currency = c
	if utf8.RuneCountInString(p.Location) > MaxLocationLen {
		return invalid("location", "must be at most %d characters", MaxLocationLen)
	}
	if p.Date.IsZero() {
		return invalid("date", "is required")
	}
	p.Date = Day(p.Date)
	return nil
}

// NewestPurchase returns the purchase with the latest date. Purchases on the
// same day are ordered by ID, so the most recently recorded one wins. It
// returns nil when purchases is empty.
func NewestPurchase(purchases []Purchase) *Purchase {
	var newest *Purchase
	for i := range purchases {
		p := &purchases[i]
		if newest == nil || p.Date.After(newest.Date) || (p.Date.Equal(newest.Date) && p.ID > newest.ID) {
			newest = p
		}
	}
	if newest == nil {
		return nil
	}
	ret := *newest
	return &ret
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PurchaseRepository is the port for purchase persistence.
type PurchaseRepository interface {
	AddPurchase(ctx context.Context, p Purchase) (int64, error)
	GetPurchase(ctx context.Context, id int64) (*Purchase, error)
	ListPurchasesForFoodItem(ctx context.Context, foodItemID int64) ([]Purchase, error)
	// ListPurchasesForUser returns the user's purchases, newest date first.
	ListPurchasesForUser(ctx context.Context, userID int64) ([]Purchase, error)
	DeletePurchase(ctx context.Context, id int64) error
}
