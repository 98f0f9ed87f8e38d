package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"mealprice/internal/adapter/memory"
	"mealprice/internal/app"
	"mealprice/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixedRates map[[2]domain.Currency]string

func (r fixedRates) Rate(_ context.Context, from, to domain.Currency) (decimal.Decimal, error) {
	if s, ok := r[[2]domain.Currency{from, to}]; ok {
		return dec(s), nil
	}
	return decimal.Zero, domain.ErrUnsupportedCurrency
}

type pricingFixture struct {
	db      *memory.DB
	pricing *app.PricingService
}

func newPricingFixture(rates domain.RateProvider) *pricingFixture {
	db := memory.New()
	return &pricingFixture{db: db, pricing: app.NewPricingService(db, db, nil, rates)}
}

func (f *pricingFixture) item(t *testing.T, name string) *domain.FoodItem {
	t.Helper()
	item, err := f.db.CreateFoodItem(context.Background(), 1, name)
	if err != nil {
		t.Fatal(err)
	}
	return item
}

func (f *pricingFixture) buy(t *testing.T, item *domain.FoodItem, price string, cur domain.Currency, qty string, unit domain.Unit, date time.Time) {
	t.Helper()
	_, err := f.db.AddPurchase(context.Background(), domain.Purchase{
		FoodItemID: item.ID, Price: dec(price), Currency: cur,
		Quantity: dec(qty), Unit: unit, Location: "Lidl", Date: domain.Day(date),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func (f *pricingFixture) meal(t *testing.T, name string, ings ...domain.StandardIngredient) *domain.Meal {
	t.Helper()
	ctx := context.Background()
	meal, err := f.db.CreateMeal(ctx, 1, name)
	if err != nil {
		t.Fatal(err)
	}
	for _, ing := range ings {
		ing.MealID = meal.ID
		if _, err := f.db.AddIngredient(ctx, ing); err != nil {
			t.Fatal(err)
		}
	}
	return meal
}

func TestIngredientPrice_NoConversion(t *testing.T) {
	f := newPricingFixture(nil)
	oats := f.item(t, "Oats")
	f.buy(t, oats, "0.50", domain.EUR, "500", domain.Gram, time.Now())

	q, err := f.pricing.IngredientPrice(context.Background(),
		domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec("50"), Unit: domain.Gram}, app.PriceQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q == nil || !q.Amount.Equal(dec("0.05")) || q.Currency != domain.EUR {
		t.Fatalf("expected 0.05 EUR, got %+v", q)
	}
}

func TestIngredientPrice_WithConversion(t *testing.T) {
	f := newPricingFixture(nil)
	milk := f.item(t, "Milk")
	f.buy(t, milk, "1.00", domain.EUR, "1", domain.Litre, time.Now())

	q, err := f.pricing.IngredientPrice(context.Background(),
		domain.StandardIngredient{FoodItemID: milk.ID, Quantity: dec("100"), Unit: domain.Millilitre}, app.PriceQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q == nil || !q.Amount.Equal(dec("0.10")) {
		t.Fatalf("expected 0.10, got %+v", q)
	}
	if s, _ := q.Format(app.FormatAbsolute); s != "0.10 EUR" {
		t.Errorf("expected \"0.10 EUR\", got %q", s)
	}
}

func TestIngredientPrice_Scaling(t *testing.T) {
	tests := []struct {
		ingredientQty, buyQty, buyPrice, want string
	}{
		{"100", "100", "0.05", "0.05"},
		{"50", "100", "0.05", "0.03"},
		{"100", "50", "0.05", "0.10"},
		{"50", "100", "1.00", "0.50"},
	}
	for _, tc := range tests {
		f := newPricingFixture(nil)
		oats := f.item(t, "Oats")
		f.buy(t, oats, tc.buyPrice, domain.EUR, tc.buyQty, domain.Gram, time.Now())

		q, err := f.pricing.IngredientPrice(context.Background(),
			domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec(tc.ingredientQty), Unit: domain.Gram}, app.PriceQuery{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q == nil || !q.Amount.Equal(dec(tc.want)) {
			t.Errorf("%s g of %s g at %s: expected %s, got %+v", tc.ingredientQty, tc.buyQty, tc.buyPrice, tc.want, q)
		}
	}
}

func TestIngredientPrice_NoPurchase(t *testing.T) {
	f := newPricingFixture(nil)
	oats := f.item(t, "Oats")

	q, err := f.pricing.IngredientPrice(context.Background(),
		domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec("50"), Unit: domain.Gram}, app.PriceQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q != nil {
		t.Fatalf("expected no quote, got %+v", q)
	}
	if s, _ := app.FormatQuote(q, app.FormatPerUnit); s != app.NotAvailable {
		t.Errorf("expected %q, got %q", app.NotAvailable, s)
	}
}

func TestIngredientPrice_UndefinedConversion(t *testing.T) {
	f := newPricingFixture(nil)
	eggs := f.item(t, "Eggs")
	f.buy(t, eggs, "2.00", domain.EUR, "6", domain.Piece, time.Now())

	_, err := f.pricing.IngredientPrice(context.Background(),
		domain.StandardIngredient{FoodItemID: eggs.ID, Quantity: dec("100"), Unit: domain.Gram}, app.PriceQuery{})
	var ce *domain.ConversionError
	if !errors.As(err, &ce) || ce.From != domain.Piece || ce.To != domain.Gram {
		t.Fatalf("expected conversion error pc -> g, got %v", err)
	}
}

func TestFoodItemPrice_Formats(t *testing.T) {
	f := newPricingFixture(nil)
	flour := f.item(t, "Flour")
	f.buy(t, flour, "2.00", domain.EUR, "1", domain.Kilogram, time.Now())

	q, err := f.pricing.FoodItemPrice(context.Background(), flour, app.PriceQuery{Quantity: dec("500"), Unit: domain.Gram})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		format app.PriceFormat
		want   string
	}{
		{app.FormatAbsolute, "1.00 EUR"},
		{app.FormatPerUnit, "1.00 EUR / g"},
	}
	for _, tc := range tests {
		got, err := q.Format(tc.format)
		if err != nil || got != tc.want {
			t.Errorf("Format(%s) = %q, %v; want %q", tc.format, got, err, tc.want)
		}
	}

	if _, err := q.Format("fancy"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument for unknown format, got %v", err)
	}
}

func TestFoodItemPrice_DefaultsToPurchaseUnit(t *testing.T) {
	f := newPricingFixture(nil)
	flour := f.item(t, "Flour")
	f.buy(t, flour, "2.00", domain.EUR, "1", domain.Kilogram, time.Now())

	q, err := f.pricing.FoodItemPrice(context.Background(), flour, app.PriceQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s, _ := q.Format(app.FormatPerUnit); s != "2.00 EUR / kg" {
		t.Errorf("expected \"2.00 EUR / kg\", got %q", s)
	}
}

func TestFoodItemPrice_UsesNewestPurchase(t *testing.T) {
	f := newPricingFixture(nil)
	oats := f.item(t, "Oats")
	today := time.Now()
	f.buy(t, oats, "1.23", domain.EUR, "500", domain.Gram, today.AddDate(-1, 0, 0))
	f.buy(t, oats, "0.50", domain.EUR, "500", domain.Gram, today)
	f.buy(t, oats, "500", domain.EUR, "500", domain.Gram, today.AddDate(0, 0, -7))

	q, err := f.pricing.FoodItemPrice(context.Background(), oats, app.PriceQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Amount.Equal(dec("0.00")) {
		t.Errorf("expected per-gram 0.00 after rounding, got %s", q.Amount)
	}
	if q.PurchaseID != 2 {
		t.Errorf("expected purchase 2 to be used, got %d", q.PurchaseID)
	}
}

func TestFoodItemPrice_SameDayLatestRecorded(t *testing.T) {
	f := newPricingFixture(nil)
	milk := f.item(t, "Milk")
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	f.buy(t, milk, "1.00", domain.EUR, "1", domain.Litre, day)
	f.buy(t, milk, "1.20", domain.EUR, "1", domain.Litre, day)

	q, err := f.pricing.FoodItemPrice(context.Background(), milk, app.PriceQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Amount.Equal(dec("1.20")) {
		t.Errorf("expected 1.20 from the later record, got %s", q.Amount)
	}
}

func TestMealPrice_Porridge(t *testing.T) {
	f := newPricingFixture(nil)
	oats := f.item(t, "Oats")
	milk := f.item(t, "Milk")
	f.buy(t, oats, "0.50", domain.EUR, "500", domain.Gram, time.Now())
	f.buy(t, milk, "1.00", domain.EUR, "1", domain.Litre, time.Now())
	porridge := f.meal(t, "Porridge",
		domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec("50"), Unit: domain.Gram},
		domain.StandardIngredient{FoodItemID: milk.ID, Quantity: dec("100"), Unit: domain.Millilitre},
	)

	mp, err := f.pricing.MealPrice(context.Background(), porridge, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mp.String(); got != "0.15 EUR" {
		t.Errorf("expected \"0.15 EUR\", got %q", got)
	}
	if len(mp.Lines) != 2 || mp.Unpriced != 0 {
		t.Errorf("unexpected lines: %+v", mp)
	}
}

func TestMealPrice_Totals(t *testing.T) {
	tests := []struct {
		oatsPrice, oatsBuyQty, oatsQty string
		milkPrice, milkBuyQty, milkQty string
		want                           string
	}{
		{"1.00", "1000", "1000", "2.00", "500", "500", "3.00 EUR"},
		{"0.50", "1000", "1000", "2.00", "500", "500", "2.50 EUR"},
		{"1.00", "1000", "250", "2.00", "500", "500", "2.25 EUR"},
		{"1.00", "50", "1000", "2.00", "500", "500", "22.00 EUR"},
		{"1.00", "50", "1000", "50.00", "250", "500", "120.00 EUR"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			f := newPricingFixture(nil)
			today := time.Now()
			oats := f.item(t, "Oats")
			milk := f.item(t, "Milk")
			porridge := f.meal(t, "Porridge",
				domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec(tc.oatsQty), Unit: domain.Gram},
				domain.StandardIngredient{FoodItemID: milk.ID, Quantity: dec(tc.milkQty), Unit: domain.Millilitre},
			)

			f.buy(t, oats, tc.oatsPrice, domain.EUR, tc.oatsBuyQty, domain.Gram, today)
			f.buy(t, milk, tc.milkPrice, domain.EUR, tc.milkBuyQty, domain.Millilitre, today)

			// Older purchases must not affect the price.
			f.buy(t, oats, "1.23", domain.EUR, "500", domain.Gram, today.AddDate(-1, 0, 0))
			f.buy(t, oats, "500", domain.EUR, "500", domain.Gram, today.AddDate(0, 0, -7))
			f.buy(t, milk, "800", domain.EUR, "1", domain.Millilitre, today.AddDate(0, 0, -7))

			mp, err := f.pricing.MealPrice(context.Background(), porridge, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := mp.String(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMealPrice_Empty(t *testing.T) {
	f := newPricingFixture(nil)
	meal := f.meal(t, "Air")

	mp, err := f.pricing.MealPrice(context.Background(), meal, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mp.Total.Amount.IsZero() {
		t.Errorf("expected zero total, got %s", mp.Total.Amount)
	}
	if got := mp.String(); got != "0" {
		t.Errorf("expected \"0\", got %q", got)
	}
}

func TestMealPrice_SkipsUnpricedIngredients(t *testing.T) {
	f := newPricingFixture(nil)
	oats := f.item(t, "Oats")
	salt := f.item(t, "Salt")
	f.buy(t, oats, "0.50", domain.EUR, "500", domain.Gram, time.Now())
	meal := f.meal(t, "Porridge",
		domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec("50"), Unit: domain.Gram},
		domain.StandardIngredient{FoodItemID: salt.ID, Quantity: dec("1"), Unit: domain.Gram},
	)

	mp, err := f.pricing.MealPrice(context.Background(), meal, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mp.String() != "0.05 EUR" || mp.Unpriced != 1 {
		t.Errorf("expected 0.05 EUR with one unpriced line, got %s / %d", mp, mp.Unpriced)
	}
	if mp.Lines[1].Quote != nil {
		t.Errorf("expected nil quote for salt, got %+v", mp.Lines[1].Quote)
	}
}

func TestMealPrice_MixedCurrency(t *testing.T) {
	f := newPricingFixture(nil)
	oats := f.item(t, "Oats")
	tea := f.item(t, "Tea")
	f.buy(t, oats, "0.50", domain.EUR, "500", domain.Gram, time.Now())
	f.buy(t, tea, "3.00", domain.GBP, "100", domain.Gram, time.Now())
	meal := f.meal(t, "Breakfast",
		domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec("50"), Unit: domain.Gram},
		domain.StandardIngredient{FoodItemID: tea.ID, Quantity: dec("2"), Unit: domain.Gram},
	)

	if _, err := f.pricing.MealPrice(context.Background(), meal, ""); !errors.Is(err, domain.ErrMixedCurrency) {
		t.Fatalf("expected ErrMixedCurrency, got %v", err)
	}
	if _, err := f.pricing.MealPrice(context.Background(), meal, domain.EUR); !errors.Is(err, domain.ErrUnsupportedCurrency) {
		t.Fatalf("expected ErrUnsupportedCurrency without rates, got %v", err)
	}
}

func TestMealPrice_TargetCurrency(t *testing.T) {
	rates := fixedRates{{domain.GBP, domain.EUR}: "1.20"}
	f := newPricingFixture(rates)
	oats := f.item(t, "Oats")
	tea := f.item(t, "Tea")
	f.buy(t, oats, "0.50", domain.EUR, "500", domain.Gram, time.Now())
	f.buy(t, tea, "3.00", domain.GBP, "100", domain.Gram, time.Now())
	meal := f.meal(t, "Breakfast",
		domain.StandardIngredient{FoodItemID: oats.ID, Quantity: dec("50"), Unit: domain.Gram},
		domain.StandardIngredient{FoodItemID: tea.ID, Quantity: dec("10"), Unit: domain.Gram},
	)

	mp, err := f.pricing.MealPrice(context.Background(), meal, domain.EUR)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.05 EUR + 10 g of 3.60 EUR / 100 g
	if got := mp.String(); got != "0.41 EUR" {
		t.Errorf("expected \"0.41 EUR\", got %q", got)
	}
}

func TestPriceInCurrency(t *testing.T) {
	f := newPricingFixture(fixedRates{{domain.EUR, domain.GBP}: "0.86"})
	p := domain.Purchase{Price: dec("10"), Currency: domain.EUR}
	ctx := context.Background()

	same, err := f.pricing.PriceInCurrency(ctx, p, domain.EUR)
	if err != nil || !same.Amount.Equal(dec("10")) {
		t.Errorf("same currency: %v, %v", same, err)
	}
	gbp, err := f.pricing.PriceInCurrency(ctx, p, domain.GBP)
	if err != nil || !gbp.Amount.Equal(dec("8.6")) || gbp.Currency != domain.GBP {
		t.Errorf("EUR -> GBP: %v, %v", gbp, err)
	}
}

func TestParsePriceFormat(t *testing.T) {
	if f, err := app.ParsePriceFormat(""); err != nil || f != app.FormatPerUnit {
		t.Errorf("empty format: %q, %v", f, err)
	}
	if f, err := app.ParsePriceFormat("absolute"); err != nil || f != app.FormatAbsolute {
		t.Errorf("absolute: %q, %v", f, err)
	}
	if _, err := app.ParsePriceFormat("raw"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}
