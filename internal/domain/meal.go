package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxMealNameLen is the longest accepted meal name.
const MaxMealNameLen = 200

// Meal is a named recipe composed of standard ingredients.
type Meal struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// StandardIngredient is the required quantity of a food item in a meal. A
// meal may list the same food item more than once.
type StandardIngredient struct {
	ID         int64           `json:"id"`
	MealID     int64           `json:"mealId"`
	FoodItemID int64           `json:"foodItemId"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       Unit            `json:"unit"`
}

// NormalizeMealName trims name and checks its length.
func NormalizeMealName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "meal must have a name")
	}
	if utf8.RuneCountInString(name) > MaxMealNameLen {
		return "", invalid("name", "must be at most %d characters", MaxMealNameLen)
	}
	return name, nil
}

// Validate checks the quantity and unit of the ingredient.
func (i *StandardIngredient) Validate() error {
	if !i.Quantity.IsPositive() {
		return invalid("quantity", "must be > 0")
	}
	if err := checkDecimal("quantity", i.Quantity, QuantityScale, maxQuantity); err != nil {
		return err
	}
	u, err := ParseUnit(string(i.Unit))
	if err != nil {
		return err
	}
	i.Unit = u
	return nil
}

// CheckSameOwner fails when meal and food item belong to different users.
func CheckSameOwner(meal *Meal, item *FoodItem) error {
	if meal.UserID != item.UserID {
		return invalid("foodItem", "food item %d does not belong to the owner of meal %d", item.ID, meal.ID)
	}
	return nil
}

// MealRepository is the port for meal and standard ingredient persistence.
type MealRepository interface {
	CreateMeal(ctx context.Context, userID int64, name string) (*Meal, error)
	GetMeal(ctx context.Context, id int64) (*Meal, error)
	ListMeals(ctx context.Context, userID int64) ([]Meal, error)
	// ListMealsForFoodItem returns the meals that use the food item.
	ListMealsForFoodItem(ctx context.Context, foodItemID int64) ([]Meal, error)
	DeleteMeal(ctx context.Context, id int64) error

	AddIngredient(ctx context.Context, ing StandardIngredient) (int64, error)
	GetIngredient(ctx context.Context, id int64) (*StandardIngredient, error)
	ListIngredientsForMeal(ctx context.Context, mealID int64) ([]StandardIngredient, error)
	DeleteIngredient(ctx context.Context, id int64) error
}
