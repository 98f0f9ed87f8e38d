package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mealprice/internal/domain"
)

// PurchaseInput is a purchase as entered by a user. The food item is given
// by reference and created on the fly when referenced by an unknown name.
type PurchaseInput struct {
	FoodItem domain.FoodItemRef `json:"foodItem"`
	Price    decimal.Decimal    `json:"price"`
	Currency domain.Currency    `json:"currency"`
	Quantity decimal.Decimal    `json:"quantity"`
	Unit     domain.Unit        `json:"unit"`
	Location string             `json:"location"`
	Date     time.Time          `json:"date"`
}

// PurchaseService records and lists purchases.
type PurchaseService struct {
	repo  domain.PurchaseRepository
	foods *FoodItemService
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(repo domain.PurchaseRepository, foods *FoodItemService) *PurchaseService {
	return &PurchaseService{repo: repo, foods: foods}
}

// Record validates in and stores it as a new purchase. Validation happens
// before the food item is resolved, so invalid input never creates an item.
func (s *PurchaseService) Record(ctx context.Context, userID int64, in PurchaseInput) (*domain.Purchase, error) {
	p := domain.Purchase{
		Price:    in.Price,
		Currency: in.Currency,
		Quantity: in.Quantity,
		Unit:     in.Unit,
		Location: in.Location,
		Date:     in.Date,
	}
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.foods.CheckRef(ctx, userID, in.FoodItem); err != nil {
		return nil, err
	}

	item, err := s.foods.Resolve(ctx, userID, in.FoodItem)
	if err != nil {
		return nil, err
	}
	p.FoodItemID = item.ID

	id, err := s.repo.AddPurchase(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id
	return &p, nil
}

// ListForUser returns all purchases of the user, newest first.
func (s *PurchaseService) ListForUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	return s.repo.ListPurchasesForUser(ctx, userID)
}

// ListForFoodItem returns the purchases of one of the user's food items.
func (s *PurchaseService) ListForFoodItem(ctx context.Context, userID, foodItemID int64) ([]domain.Purchase, error) {
	if _, err := s.foods.Get(ctx, userID, foodItemID); err != nil {
		return nil, err
	}
	return s.repo.ListPurchasesForFoodItem(ctx, foodItemID)
}

// Get returns a purchase if its food item belongs to userID.
func (s *PurchaseService) Get(ctx context.Context, userID, id int64) (*domain.Purchase, error) {
	p, err := s.repo.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("purchase %d: %w", id, domain.ErrNotFound)
	}
	if _, err := s.foods.Get(ctx, userID, p.FoodItemID); err != nil {
		return nil, fmt.Errorf("purchase %d: %w", id, domain.ErrNotFound)
	}
	return p, nil
}

// Delete removes a purchase. The food item keeps its remaining history.
func (s *PurchaseService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeletePurchase(ctx, id)
}
