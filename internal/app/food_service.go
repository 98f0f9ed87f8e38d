package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mealprice/internal/domain"
)

// FoodItemService encapsulates the food item use cases. It owns the
// per-user, case-insensitive name uniqueness rule.
type FoodItemService struct {
	repo  domain.FoodItemRepository
	meals domain.MealRepository
}

// NewFoodItemService creates a FoodItemService. meals is used to list the
// meals a food item appears in and may be nil.
func NewFoodItemService(repo domain.FoodItemRepository, meals domain.MealRepository) *FoodItemService {
	return &FoodItemService{repo: repo, meals: meals}
}

// Create stores a new food item for userID. The name is normalised first; a
// name already used by another of the user's items fails with a
// *domain.DuplicateFoodItemError and nothing is written.
func (s *FoodItemService) Create(ctx context.Context, userID int64, name string) (*domain.FoodItem, error) {
	normalized, err := domain.NormalizeFoodItemName(name)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateFoodItem(ctx, userID, normalized)
}

// Get returns the food item if it exists and belongs to userID.
func (s *FoodItemService) Get(ctx context.Context, userID, id int64) (*domain.FoodItem, error) {
	item, err := s.repo.GetFoodItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, fmt.Errorf("food item %d: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// Rename changes the name of a food item. Renaming an item to a case variant
// of its own name is allowed.
func (s *FoodItemService) Rename(ctx context.Context, userID, id int64, name string) (*domain.FoodItem, error) {
	item, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	normalized, err := domain.NormalizeFoodItemName(name)
	if err != nil {
		return nil, err
	}
	if normalized == item.Name {
		return item, nil
	}
	if err := s.repo.RenameFoodItem(ctx, id, normalized); err != nil {
		return nil, err
	}
	item.Name = normalized
	return item, nil
}

// List returns the user's food items ordered by name. A non-empty prefix
// restricts the result to names starting with it, ignoring case.
func (s *FoodItemService) List(ctx context.Context, userID int64, prefix string) ([]domain.FoodItem, error) {
	return s.repo.ListFoodItems(ctx, userID, strings.TrimSpace(prefix))
}

// Delete removes a food item together with its purchases and the ingredients
// that reference it.
func (s *FoodItemService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteFoodItem(ctx, id)
}

// Meals returns the meals that use the food item.
func (s *FoodItemService) Meals(ctx context.Context, userID, id int64) ([]domain.Meal, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if s.meals == nil {
		return nil, nil
	}
	return s.meals.ListMealsForFoodItem(ctx, id)
}

// Resolve turns a reference into a food item of userID. A reference by ID
// must point at one of the user's items. A reference by name returns the
// existing item with that name or creates it.
func (s *FoodItemService) Resolve(ctx context.Context, userID int64, ref domain.FoodItemRef) (*domain.FoodItem, error) {
	if ref.ID != 0 {
		item, err := s.repo.GetFoodItem(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		if item == nil || item.UserID != userID {
			return nil, &domain.ValidationError{Field: "foodItem", Reason: fmt.Sprintf("food item %d is not one of your food items", ref.ID)}
		}
		return item, nil
	}

	normalized, err := domain.NormalizeFoodItemName(ref.Name)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindFoodItemByName(ctx, userID, normalized)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	item, err = s.repo.CreateFoodItem(ctx, userID, normalized)
	if errors.Is(err, domain.ErrDuplicateFoodItem) {
		// Lost a race against a concurrent create of the same name.
		item, err = s.repo.FindFoodItemByName(ctx, userID, normalized)
		if err == nil && item == nil {
			return nil, fmt.Errorf("food item %q vanished after a duplicate create: %w", normalized, domain.ErrNotFound)
		}
	}
	return item, err
}

// CheckRef validates a reference without creating anything.
func (s *FoodItemService) CheckRef(ctx context.Context, userID int64, ref domain.FoodItemRef) error {
	if ref.ID != 0 {
		_, err := s.Resolve(ctx, userID, ref)
		return err
	}
	_, err := domain.NormalizeFoodItemName(ref.Name)
	return err
}
