package domain

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxFoodItemNameLen is the longest accepted food item name, in characters.
const MaxFoodItemNameLen = 100

// FoodItem is a reusable ingredient or product owned by a user.
type FoodItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// FoodItemRef points at a food item either by ID or by name.
type FoodItemRef struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// NormalizeFoodItemName trims and title-cases name, failing for empty or
// over-long names.
func NormalizeFoodItemName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", invalid("name", "food item must have a name")
	}
	if utf8.RuneCountInString(name) > MaxFoodItemNameLen {
		return "", invalid("name", "must be at most %d characters", MaxFoodItemNameLen)
	}
	return cases.Title(language.Und).String(name), nil
}

// SameFoodItemName reports whether a and b name the same food item.
func SameFoodItemName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FoodItemRepository is the port for food item persistence.
//
// CreateFoodItem and RenameFoodItem must check name uniqueness and write in
// one atomic step, returning a *DuplicateFoodItemError when another item of
// the same user already has the name (case-insensitively).
type FoodItemRepository interface {
	CreateFoodItem(ctx context.Context, userID int64, name string) (*FoodItem, error)
	RenameFoodItem(ctx context.Context, id int64, name string) error
	GetFoodItem(ctx context.Context, id int64) (*FoodItem, error)
	FindFoodItemByName(ctx context.Context, userID int64, name string) (*FoodItem, error)
	ListFoodItems(ctx context.Context, userID int64, prefix string) ([]FoodItem, error)
	DeleteFoodItem(ctx context.Context, id int64) error
}
