package app

import (
	"context"
	"fmt"

	"mealprice/internal/domain"
)

// MealInstanceService records the occasions a meal was cooked.
type MealInstanceService struct {
	repo  domain.MealInstanceRepository
	meals *MealService
}

// NewMealInstanceService creates a MealInstanceService.
func NewMealInstanceService(repo domain.MealInstanceRepository, meals *MealService) *MealInstanceService {
	return &MealInstanceService{repo: repo, meals: meals}
}

// Record validates mi and stores it for one of the user's meals.
func (s *MealInstanceService) Record(ctx context.Context, userID int64, mi domain.MealInstance) (*domain.MealInstance, error) {
	if err := mi.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.meals.Get(ctx, userID, mi.MealID); err != nil {
		return nil, err
	}
	id, err := s.repo.AddMealInstance(ctx, mi)
	if err != nil {
		return nil, err
	}
	mi.ID = id
	return &mi, nil
}

// ListForUser returns the user's meal instances, newest first.
func (s *MealInstanceService) ListForUser(ctx context.Context, userID int64) ([]domain.MealInstance, error) {
	return s.repo.ListMealInstancesForUser(ctx, userID)
}

// ListForMeal returns the instances of one meal.
func (s *MealInstanceService) ListForMeal(ctx context.Context, userID, mealID int64) ([]domain.MealInstance, error) {
	if _, err := s.meals.Get(ctx, userID, mealID); err != nil {
		return nil, err
	}
	return s.repo.ListMealInstancesForMeal(ctx, mealID)
}

// Delete removes a meal instance.
func (s *MealInstanceService) Delete(ctx context.Context, userID, id int64) error {
	mi, err := s.repo.GetMealInstance(ctx, id)
	if err != nil {
		return err
	}
	if mi == nil {
		return fmt.Errorf("meal instance %d: %w", id, domain.ErrNotFound)
	}
	if _, err := s.meals.Get(ctx, userID, mi.MealID); err != nil {
		return fmt.Errorf("meal instance %d: %w", id, domain.ErrNotFound)
	}
	return s.repo.DeleteMealInstance(ctx, id)
}
