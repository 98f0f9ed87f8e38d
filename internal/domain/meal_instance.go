package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

var (
	minRating  = decimal.RequireFromString("0.5")
	maxRating  = decimal.NewFromInt(5)
	ratingStep = decimal.RequireFromString("0.5")
)

// MealInstance records one occasion a meal was cooked.
type MealInstance struct {
	ID          int64           `json:"id"`
	MealID      int64           `json:"mealId"`
	Date        time.Time       `json:"date"`
	NumServings int             `json:"numServings"`
	Rating      decimal.Decimal `json:"rating"`
	CookTime    int             `json:"cookTime"`
}

// ValidateRating checks that r lies on the half-star scale 0.5..5.0.
func ValidateRating(r decimal.Decimal) error {
	if r.LessThan(minRating) || r.GreaterThan(maxRating) || !r.Mod(ratingStep).IsZero() {
		return invalid("rating", "must be between 0.5 and 5 in steps of 0.5, got %s", r)
	}
	return nil
}

// Validate checks the instance fields.
func (m *MealInstance) Validate() error {
	if m.Date.IsZero() {
		return invalid("date", "is required")
	}
	m.Date = Day(m.Date)
	if m.NumServings < 1 {
		return invalid("numServings", "must be >= 1")
	}
	if m.CookTime < 0 {
		return invalid("cookTime", "must be >= 0")
	}
	return ValidateRating(m.Rating)
}

// MealInstanceRepository is the port for meal instance persistence.
type MealInstanceRepository interface {
	AddMealInstance(ctx context.Context, mi MealInstance) (int64, error)
	GetMealInstance(ctx context.Context, id int64) (*MealInstance, error)
	ListMealInstancesForMeal(ctx context.Context, mealID int64) ([]MealInstance, error)
	// ListMealInstancesForUser returns the user's instances, newest date first.
	ListMealInstancesForUser(ctx context.Context, userID int64) ([]MealInstance, error)
	DeleteMealInstance(ctx context.Context, id int64) error
}
