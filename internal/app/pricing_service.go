package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

// PriceFormat selects how a Quote is rendered.
type PriceFormat string

const (
	// FormatAbsolute renders "{amount} {currency}".
	FormatAbsolute PriceFormat = "absolute"
	// FormatPerUnit renders "{amount} {currency} / {unit}".
	FormatPerUnit PriceFormat = "per-unit"
)

// NotAvailable is the rendering of an unknown price.
const NotAvailable = "N/A"

// ParsePriceFormat checks s against the known formats. An empty string
// selects FormatPerUnit.
func ParsePriceFormat(s string) (PriceFormat, error) {
	switch PriceFormat(s) {
	case "":
		return FormatPerUnit, nil
	case FormatAbsolute, FormatPerUnit:
		return PriceFormat(s), nil
	}
	return "", fmt.Errorf("%w: format must be one of [%s %s], got %q", domain.ErrInvalidArgument, FormatPerUnit, FormatAbsolute, s)
}

// PriceQuery describes the amount a price is wanted for. Zero values select
// the defaults: the purchase currency, a quantity of 1 and the purchase unit.
type PriceQuery struct {
	Currency domain.Currency
	Quantity decimal.Decimal
	Unit     domain.Unit
}

// Quote is the derived price of a quantity of a food item.
type Quote struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   domain.Currency `json:"currency"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       domain.Unit     `json:"unit"`
	PurchaseID int64           `json:"purchaseId"`
}

// Money returns the quoted amount with its currency.
func (q *Quote) Money() domain.Money {
	return domain.Money{Amount: q.Amount, Currency: q.Currency}
}

// Format renders the quote. Amounts always carry two decimal places.
func (q *Quote) Format(f PriceFormat) (string, error) {
	return FormatQuote(q, f)
}

// FormatQuote renders q, or NotAvailable when q is nil.
func FormatQuote(q *Quote, f PriceFormat) (string, error) {
	if f != FormatAbsolute && f != FormatPerUnit {
		return "", fmt.Errorf("%w: format must be one of [%s %s], got %q", domain.ErrInvalidArgument, FormatPerUnit, FormatAbsolute, f)
	}
	if q == nil {
		return NotAvailable, nil
	}
	s := q.Money().String()
	if f == FormatPerUnit {
		s += " / " + string(q.Unit)
	}
	return s, nil
}

// MealPriceLine is the contribution of one ingredient to a meal price. Quote
// is nil when the food item has never been purchased.
type MealPriceLine struct {
	Ingredient domain.StandardIngredient `json:"ingredient"`
	Quote      *Quote                    `json:"quote"`
}

// MealPrice is the aggregated cost of a meal.
type MealPrice struct {
	MealID   int64           `json:"mealId"`
	Total    domain.Money    `json:"total"`
	Lines    []MealPriceLine `json:"lines"`
	Unpriced int             `json:"unpriced"`
}

// String renders the total, e.g. "0.15 EUR". A total without any currency
// (nothing priced and none requested) renders as "0".
func (m *MealPrice) String() string {
	if m.Total.Currency == "" {
		return "0"
	}
	return m.Total.String()
}

// PricingService derives food item, ingredient and meal prices from the
// purchase history.
type PricingService struct {
	purchases domain.PurchaseRepository
	meals     domain.MealRepository
	table     *domain.ConversionTable
	rates     domain.RateProvider
}

// NewPricingService creates a PricingService. rates may be nil, in which case
// every cross-currency request fails with domain.ErrUnsupportedCurrency.
func NewPricingService(purchases domain.PurchaseRepository, meals domain.MealRepository, table *domain.ConversionTable, rates domain.RateProvider) *PricingService {
	if table == nil {
		table = domain.DefaultConversionTable()
	}
	return &PricingService{purchases: purchases, meals: meals, table: table, rates: rates}
}

// Table returns the conversion table used by the service.
func (s *PricingService) Table() *domain.ConversionTable {
	return s.table
}

// NewestPurchase returns the newest purchase of the food item, or nil when it
// has never been bought.
func (s *PricingService) NewestPurchase(ctx context.Context, foodItemID int64) (*domain.Purchase, error) {
	purchases, err := s.purchases.ListPurchasesForFoodItem(ctx, foodItemID)
	if err != nil {
		return nil, err
	}
	return domain.NewestPurchase(purchases), nil
}

// PriceInCurrency returns the purchase price expressed in target. An empty
// target, or the purchase's own currency, returns the stored amount.
func (s *PricingService) PriceInCurrency(ctx context.Context, p domain.Purchase, target domain.Currency) (domain.Money, error) {
	if target == "" || target == p.Currency {
		return p.Money(), nil
	}
	if s.rates == nil {
		return domain.Money{}, fmt.Errorf("%w: %s to %s", domain.ErrUnsupportedCurrency, p.Currency, target)
	}
	rate, err := s.rates.Rate(ctx, p.Currency, target)
	if err != nil {
		return domain.Money{}, err
	}
	return domain.Money{Amount: p.Price.Mul(rate), Currency: target}, nil
}

// FoodItemPrice quotes the price of a quantity of item based on its newest
// purchase. It returns a nil quote when the item has no purchases.
func (s *PricingService) FoodItemPrice(ctx context.Context, item *domain.FoodItem, q PriceQuery) (*Quote, error) {
	newest, err := s.NewestPurchase(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if newest == nil {
		return nil, nil
	}
	return s.quote(ctx, newest, q)
}

// IngredientPrice quotes the cost of satisfying ing. Quantity and unit default
// to the ingredient's own.
func (s *PricingService) IngredientPrice(ctx context.Context, ing domain.StandardIngredient, q PriceQuery) (*Quote, error) {
	if q.Quantity.IsZero() {
		q.Quantity = ing.Quantity
	}
	if q.Unit == "" {
		q.Unit = ing.Unit
	}
	newest, err := s.NewestPurchase(ctx, ing.FoodItemID)
	if err != nil {
		return nil, err
	}
	if newest == nil {
		return nil, nil
	}
	return s.quote(ctx, newest, q)
}

// MealPrice sums the ingredient prices of meal. Ingredients without a
// purchase are left out of the total. Without a target currency all priced
// ingredients must share one currency.
func (s *PricingService) MealPrice(ctx context.Context, meal *domain.Meal, currency domain.Currency) (*MealPrice, error) {
	ings, err := s.meals.ListIngredientsForMeal(ctx, meal.ID)
	if err != nil {
		return nil, err
	}

	out := &MealPrice{
		MealID: meal.ID,
		Total:  domain.Money{Amount: decimal.Zero, Currency: currency},
		Lines:  make([]MealPriceLine, 0, len(ings)),
	}
	for _, ing := range ings {
		q, err := s.IngredientPrice(ctx, ing, PriceQuery{Currency: currency})
		if err != nil {
			return nil, fmt.Errorf("ingredient %d: %w", ing.ID, err)
		}
		out.Lines = append(out.Lines, MealPriceLine{Ingredient: ing, Quote: q})
		if q == nil {
			out.Unpriced++
			continue
		}
		if out.Total.Currency == "" {
			out.Total.Currency = q.Currency
		} else if out.Total.Currency != q.Currency {
			return nil, fmt.Errorf("%w: meal %d has prices in %s and %s", domain.ErrMixedCurrency, meal.ID, out.Total.Currency, q.Currency)
		}
		out.Total.Amount = out.Total.Amount.Add(q.Amount)
	}
	out.Total.Amount = out.Total.Amount.Round(2)
	return out, nil
}

func (s *PricingService) quote(ctx context.Context, p *domain.Purchase, q PriceQuery) (*Quote, error) {
	price, err := s.PriceInCurrency(ctx, *p, q.Currency)
	if err != nil {
		return nil, err
	}
	unit := q.Unit
	if unit == "" {
		unit = p.Unit
	}
	qty := q.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}

	factor, err := s.table.Factor(p.Unit, unit)
	if err != nil {
		return nil, err
	}

	perPurchaseUnit := price.Amount.Div(p.Quantity)
	perOutputUnit := perPurchaseUnit.Div(factor)
	return &Quote{
		Amount:     perOutputUnit.Mul(qty).Round(2),
		Currency:   price.Currency,
		Quantity:   qty,
		Unit:       unit,
		PurchaseID: p.ID,
	}, nil
}
