// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mealprice/internal/domain"
)

// DB implements an in-memory database storage. A single mutex guards all
// tables, so the food item uniqueness check and the write happen atomically.
type DB struct {
	mu          sync.Mutex
	foodItems   map[int64]domain.FoodItem
	purchases   map[int64]domain.Purchase
	meals       map[int64]domain.Meal
	ingredients map[int64]domain.StandardIngredient
	instances   map[int64]domain.MealInstance
	users       []*domain.User
	sessions    map[string]*domain.Session

	foodIDCounter       int64
	purchaseIDCounter   int64
	mealIDCounter       int64
	ingredientIDCounter int64
	instanceIDCounter   int64
	userIDCounter       int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		foodItems:   make(map[int64]domain.FoodItem),
		purchases:   make(map[int64]domain.Purchase),
		meals:       make(map[int64]domain.Meal),
		ingredients: make(map[int64]domain.StandardIngredient),
		instances:   make(map[int64]domain.MealInstance),
		sessions:    make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.FoodItemRepository = (*DB)(nil)
var _ domain.PurchaseRepository = (*DB)(nil)
var _ domain.MealRepository = (*DB)(nil)
var _ domain.MealInstanceRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- FoodItemRepository ---

// CreateFoodItem stores a food item unless the user already has one with the
// same name, ignoring case.
func (db *DB) CreateFoodItem(ctx context.Context, userID int64, name string) (*domain.FoodItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if dup := db.findFoodItemLocked(userID, name, 0); dup != nil {
		return nil, &domain.DuplicateFoodItemError{Name: name, UserID: userID, ExistingID: dup.ID}
	}

	db.foodIDCounter++
	item := domain.FoodItem{
		ID:        db.foodIDCounter,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	db.foodItems[item.ID] = item
	return &item, nil
}

// RenameFoodItem renames a food item, keeping names unique per user.
func (db *DB) RenameFoodItem(ctx context.Context, id int64, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	item, ok := db.foodItems[id]
	if !ok {
		return fmt.Errorf("food item %d: %w", id, domain.ErrNotFound)
	}
	if dup := db.findFoodItemLocked(item.UserID, name, id); dup != nil {
		return &domain.DuplicateFoodItemError{Name: name, UserID: item.UserID, ExistingID: dup.ID}
	}
	item.Name = name
	db.foodItems[id] = item
	return nil
}

// GetFoodItem returns the food item or nil when it does not exist.
func (db *DB) GetFoodItem(ctx context.Context, id int64) (*domain.FoodItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if item, ok := db.foodItems[id]; ok {
		return &item, nil
	}
	return nil, nil
}

// FindFoodItemByName returns the user's food item with the given name,
// ignoring case, or nil.
func (db *DB) FindFoodItemByName(ctx context.Context, userID int64, name string) (*domain.FoodItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if item := db.findFoodItemLocked(userID, name, 0); item != nil {
		ret := *item
		return &ret, nil
	}
	return nil, nil
}

// ListFoodItems lists the user's food items by name.
func (db *DB) ListFoodItems(ctx context.Context, userID int64, prefix string) ([]domain.FoodItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	prefix = strings.ToLower(prefix)
	result := []domain.FoodItem{}
	for _, item := range db.foodItems {
		if item.UserID != userID {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(item.Name), prefix) {
			continue
		}
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool {
		return strings.ToLower(result[i].Name) < strings.ToLower(result[j].Name)
	})
	return result, nil
}

// DeleteFoodItem deletes a food item with its purchases and ingredients.
func (db *DB) DeleteFoodItem(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.deleteFoodItemLocked(id)
	return nil
}

func (db *DB) findFoodItemLocked(userID int64, name string, exceptID int64) *domain.FoodItem {
	for _, item := range db.foodItems {
		if item.UserID == userID && item.ID != exceptID && domain.SameFoodItemName(item.Name, name) {
			return &item
		}
	}
	return nil
}

func (db *DB) deleteFoodItemLocked(id int64) {
	delete(db.foodItems, id)
	for pid, p := range db.purchases {
		if p.FoodItemID == id {
			delete(db.purchases, pid)
		}
	}
	for iid, ing := range db.ingredients {
		if ing.FoodItemID == id {
			delete(db.ingredients, iid)
		}
	}
}

// --- PurchaseRepository ---

// AddPurchase stores a purchase of an existing food item.
func (db *DB) AddPurchase(ctx context.Context, p domain.Purchase) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.foodItems[p.FoodItemID]; !ok {
		return 0, fmt.Errorf("food item %d: %w", p.FoodItemID, domain.ErrNotFound)
	}
	db.purchaseIDCounter++
	p.ID = db.purchaseIDCounter
	p.Date = p.Date.UTC()
	db.purchases[p.ID] = p
	return p.ID, nil
}

// GetPurchase returns the purchase or nil.
func (db *DB) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p, ok := db.purchases[id]; ok {
		return &p, nil
	}
	return nil, nil
}

// ListPurchasesForFoodItem lists the purchases of a food item, newest first.
func (db *DB) ListPurchasesForFoodItem(ctx context.Context, foodItemID int64) ([]domain.Purchase, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.purchasesLocked(func(p domain.Purchase) bool { return p.FoodItemID == foodItemID }), nil
}

// ListPurchasesForUser lists the purchases of all of the user's food items,
// newest first.
func (db *DB) ListPurchasesForUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.purchasesLocked(func(p domain.Purchase) bool {
		return db.foodItems[p.FoodItemID].UserID == userID
	}), nil
}

// DeletePurchase deletes a purchase by ID.
func (db *DB) DeletePurchase(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.purchases, id)
	return nil
}

func (db *DB) purchasesLocked(keep func(domain.Purchase) bool) []domain.Purchase {
	result := []domain.Purchase{}
	for _, p := range db.purchases {
		if keep(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// --- MealRepository ---

// CreateMeal stores a meal.
func (db *DB) CreateMeal(ctx context.Context, userID int64, name string) (*domain.Meal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.mealIDCounter++
	m := domain.Meal{
		ID:        db.mealIDCounter,
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	db.meals[m.ID] = m
	return &m, nil
}

// GetMeal returns the meal or nil.
func (db *DB) GetMeal(ctx context.Context, id int64) (*domain.Meal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if m, ok := db.meals[id]; ok {
		return &m, nil
	}
	return nil, nil
}

// ListMeals lists the user's meals by name.
func (db *DB) ListMeals(ctx context.Context, userID int64) ([]domain.Meal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.mealsLocked(func(m domain.Meal) bool { return m.UserID == userID }), nil
}

// ListMealsForFoodItem lists the meals with at least one ingredient of the
// food item.
func (db *DB) ListMealsForFoodItem(ctx context.Context, foodItemID int64) ([]domain.Meal, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	uses := make(map[int64]bool)
	for _, ing := range db.ingredients {
		if ing.FoodItemID == foodItemID {
			uses[ing.MealID] = true
		}
	}
	return db.mealsLocked(func(m domain.Meal) bool { return uses[m.ID] }), nil
}

// DeleteMeal deletes a meal with its ingredients and instances.
func (db *DB) DeleteMeal(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.deleteMealLocked(id)
	return nil
}

// AddIngredient stores a standard ingredient.
func (db *DB) AddIngredient(ctx context.Context, ing domain.StandardIngredient) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.meals[ing.MealID]; !ok {
		return 0, fmt.Errorf("meal %d: %w", ing.MealID, domain.ErrNotFound)
	}
	if _, ok := db.foodItems[ing.FoodItemID]; !ok {
		return 0, fmt.Errorf("food item %d: %w", ing.FoodItemID, domain.ErrNotFound)
	}
	db.ingredientIDCounter++
	ing.ID = db.ingredientIDCounter
	db.ingredients[ing.ID] = ing
	return ing.ID, nil
}

// GetIngredient returns the ingredient or nil.
func (db *DB) GetIngredient(ctx context.Context, id int64) (*domain.StandardIngredient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if ing, ok := db.ingredients[id]; ok {
		return &ing, nil
	}
	return nil, nil
}

// ListIngredientsForMeal lists the meal's ingredients in insertion order.
func (db *DB) ListIngredientsForMeal(ctx context.Context, mealID int64) ([]domain.StandardIngredient, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := []domain.StandardIngredient{}
	for _, ing := range db.ingredients {
		if ing.MealID == mealID {
			result = append(result, ing)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteIngredient deletes an ingredient by ID.
func (db *DB) DeleteIngredient(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.ingredients, id)
	return nil
}

func (db *DB) mealsLocked(keep func(domain.Meal) bool) []domain.Meal {
	result := []domain.Meal{}
	for _, m := range db.meals {
		if keep(m) {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (db *DB) deleteMealLocked(id int64) {
	delete(db.meals, id)
	for iid, ing := range db.ingredients {
		if ing.MealID == id {
			delete(db.ingredients, iid)
		}
	}
	for iid, mi := range db.instances {
		if mi.MealID == id {
			delete(db.instances, iid)
		}
	}
}

// --- MealInstanceRepository ---

// AddMealInstance stores a meal instance.
func (db *DB) AddMealInstance(ctx context.Context, mi domain.MealInstance) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.meals[mi.MealID]; !ok {
		return 0, fmt.Errorf("meal %d: %w", mi.MealID, domain.ErrNotFound)
	}
	db.instanceIDCounter++
	mi.ID = db.instanceIDCounter
	mi.Date = mi.Date.UTC()
	db.instances[mi.ID] = mi
	return mi.ID, nil
}

// GetMealInstance returns the instance or nil.
func (db *DB) GetMealInstance(ctx context.Context, id int64) (*domain.MealInstance, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if mi, ok := db.instances[id]; ok {
		return &mi, nil
	}
	return nil, nil
}

// ListMealInstancesForMeal lists a meal's instances, newest first.
func (db *DB) ListMealInstancesForMeal(ctx context.Context, mealID int64) ([]domain.MealInstance, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.instancesLocked(func(mi domain.MealInstance) bool { return mi.MealID == mealID }), nil
}

// ListMealInstancesForUser lists the instances of all of the user's meals,
// newest first.
func (db *DB) ListMealInstancesForUser(ctx context.Context, userID int64) ([]domain.MealInstance, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.instancesLocked(func(mi domain.MealInstance) bool {
		return db.meals[mi.MealID].UserID == userID
	}), nil
}

// DeleteMealInstance deletes a meal instance by ID.
func (db *DB) DeleteMealInstance(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.instances, id)
	return nil
}

func (db *DB) instancesLocked(keep func(domain.MealInstance) bool) []domain.MealInstance {
	result := []domain.MealInstance{}
	for _, mi := range db.instances {
		if keep(mi) {
			result = append(result, mi)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			ret := *u
			return &ret, nil
		}
	}
	// Return nil if not found
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			ret := *u
			return &ret, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	ret := *u
	return &ret, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// Delete removes a user with all food items, meals and sessions.
func (db *DB) Delete(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, u := range db.users {
		if u.ID == id {
			db.users = append(db.users[:i], db.users[i+1:]...)
			break
		}
	}
	for fid, item := range db.foodItems {
		if item.UserID == id {
			db.deleteFoodItemLocked(fid)
		}
	}
	for mid, m := range db.meals {
		if m.UserID == id {
			db.deleteMealLocked(mid)
		}
	}
	for tok, s := range db.sessions {
		if s.UserID == id {
			delete(db.sessions, tok)
		}
	}
	return nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		ret := *s
		return &ret, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
