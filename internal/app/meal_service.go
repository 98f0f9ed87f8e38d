package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

// IngredientInput is a standard ingredient as entered by a user.
type IngredientInput struct {
	FoodItem domain.FoodItemRef `json:"foodItem"`
	Quantity decimal.Decimal    `json:"quantity"`
	Unit     domain.Unit        `json:"unit"`
}

// MealDetail is a meal with its ingredients and their food items.
type MealDetail struct {
	Meal        domain.Meal           `json:"meal"`
	Ingredients []IngredientDetail    `json:"ingredients"`
	Instances   []domain.MealInstance `json:"instances"`
}

// IngredientDetail pairs an ingredient with the name of its food item.
type IngredientDetail struct {
	domain.StandardIngredient
	FoodItemName string `json:"foodItemName"`
}

// MealService encapsulates meal and standard ingredient use cases.
type MealService struct {
	repo      domain.MealRepository
	foods     *FoodItemService
	instances domain.MealInstanceRepository
}

// NewMealService creates a MealService. instances may be nil, in which case
// meal details carry no instances.
func NewMealService(repo domain.MealRepository, foods *FoodItemService, instances domain.MealInstanceRepository) *MealService {
	return &MealService{repo: repo, foods: foods, instances: instances}
}

// Create stores a meal with its ingredients. Every ingredient is validated
// before the meal is written.
func (s *MealService) Create(ctx context.Context, userID int64, name string, ingredients []IngredientInput) (*domain.Meal, []domain.StandardIngredient, error) {
	name, err := domain.NormalizeMealName(name)
	if err != nil {
		return nil, nil, err
	}
	for i := range ingredients {
		if err := s.checkIngredient(ctx, userID, &ingredients[i]); err != nil {
			return nil, nil, fmt.Errorf("ingredient %d: %w", i+1, err)
		}
	}

	meal, err := s.repo.CreateMeal(ctx, userID, name)
	if err != nil {
		return nil, nil, err
	}
	out := make([]domain.StandardIngredient, 0, len(ingredients))
	for _, in := range ingredients {
		ing, err := s.addIngredient(ctx, meal, in)
		if err != nil {
			// Deleting the meal cascades to the ingredients already added.
			if derr := s.repo.DeleteMeal(ctx, meal.ID); derr != nil {
				return nil, nil, errors.Join(err, fmt.Errorf("rollback meal %d: %w", meal.ID, derr))
			}
			return nil, nil, err
		}
		out = append(out, *ing)
	}
	return meal, out, nil
}

// Get returns the meal if it belongs to userID.
func (s *MealService) Get(ctx context.Context, userID, id int64) (*domain.Meal, error) {
	meal, err := s.repo.GetMeal(ctx, id)
	if err != nil {
		return nil, err
	}
	if meal == nil || meal.UserID != userID {
		return nil, fmt.Errorf("meal %d: %w", id, domain.ErrNotFound)
	}
	return meal, nil
}

// Detail returns the meal with its ingredients and cooked instances.
func (s *MealService) Detail(ctx context.Context, userID, id int64) (*MealDetail, error) {
	meal, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	ings, err := s.repo.ListIngredientsForMeal(ctx, id)
	if err != nil {
		return nil, err
	}
	d := &MealDetail{Meal: *meal, Ingredients: make([]IngredientDetail, 0, len(ings))}
	for _, ing := range ings {
		item, err := s.foods.Get(ctx, userID, ing.FoodItemID)
		if err != nil {
			return nil, err
		}
		d.Ingredients = append(d.Ingredients, IngredientDetail{StandardIngredient: ing, FoodItemName: item.Name})
	}
	if s.instances != nil {
		d.Instances, err = s.instances.ListMealInstancesForMeal(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// List returns the user's meals.
func (s *MealService) List(ctx context.Context, userID int64) ([]domain.Meal, error) {
	return s.repo.ListMeals(ctx, userID)
}

// Delete removes a meal with its ingredients and instances.
func (s *MealService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteMeal(ctx, id)
}

// Ingredients lists the standard ingredients of a meal.
func (s *MealService) Ingredients(ctx context.Context, userID, mealID int64) ([]domain.StandardIngredient, error) {
	if _, err := s.Get(ctx, userID, mealID); err != nil {
		return nil, err
	}
	return s.repo.ListIngredientsForMeal(ctx, mealID)
}

// AddIngredient adds one standard ingredient to an existing meal. The food
// item must belong to the meal's owner.
func (s *MealService) AddIngredient(ctx context.Context, userID, mealID int64, in IngredientInput) (*domain.StandardIngredient, error) {
	meal, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	if err := s.checkIngredient(ctx, userID, &in); err != nil {
		return nil, err
	}
	return s.addIngredient(ctx, meal, in)
}

// DeleteIngredient removes a standard ingredient from its meal.
func (s *MealService) DeleteIngredient(ctx context.Context, userID, id int64) error {
	ing, err := s.repo.GetIngredient(ctx, id)
	if err != nil {
		return err
	}
	if ing == nil {
		return fmt.Errorf("ingredient %d: %w", id, domain.ErrNotFound)
	}
	if _, err := s.Get(ctx, userID, ing.MealID); err != nil {
		return fmt.Errorf("ingredient %d: %w", id, domain.ErrNotFound)
	}
	return s.repo.DeleteIngredient(ctx, id)
}

func (s *MealService) checkIngredient(ctx context.Context, userID int64, in *IngredientInput) error {
	ing := domain.StandardIngredient{Quantity: in.Quantity, Unit: in.Unit}
	if err := ing.Validate(); err != nil {
		return err
	}
	in.Unit = ing.Unit
	return s.foods.CheckRef(ctx, userID, in.FoodItem)
}

func (s *MealService) addIngredient(ctx context.Context, meal *domain.Meal, in IngredientInput) (*domain.StandardIngredient, error) {
	item, err := s.foods.Resolve(ctx, meal.UserID, in.FoodItem)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckSameOwner(meal, item); err != nil {
		return nil, err
	}
	ing := domain.StandardIngredient{
		MealID:     meal.ID,
		FoodItemID: item.ID,
		Quantity:   in.Quantity,
		Unit:       in.Unit,
	}
	id, err := s.repo.AddIngredient(ctx, ing)
	if err != nil {
		return nil, err
	}
	ing.ID = id
	return &ing, nil
}
