package postgres

import (
	"context"
	"database/sql"
	"time"

	"mealprice/internal/domain"
)

// CreateMeal inserts a meal.
func (d *DB) CreateMeal(ctx context.Context, userID int64, name string) (*domain.Meal, error) {
	var m domain.Meal
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO meals(user_id, name, created_at) VALUES($1, $2, $3) RETURNING id, user_id, name, created_at;",
		userID, name, time.Now().UTC(),
	).Scan(&m.ID, &m.UserID, &m.Name, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMeal returns the meal or nil.
func (d *DB) GetMeal(ctx context.Context, id int64) (*domain.Meal, error) {
	var m domain.Meal
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM meals WHERE id=$1;",
		id,
	).Scan(&m.ID, &m.UserID, &m.Name, &m.CreatedAt)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMeals lists the user's meals by name.
func (d *DB) ListMeals(ctx context.Context, userID int64) ([]domain.Meal, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, name, created_at FROM meals WHERE user_id=$1 ORDER BY name, id;",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectMeals(rows)
}

// ListMealsForFoodItem lists the meals with at least one ingredient of the
// food item.
func (d *DB) ListMealsForFoodItem(ctx context.Context, foodItemID int64) ([]domain.Meal, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT m.id, m.user_id, m.name, m.created_at FROM meals m WHERE EXISTS (SELECT 1 FROM standard_ingredients i WHERE i.meal_id = m.id AND i.food_item_id = $1) ORDER BY m.name, m.id;",
		foodItemID,
	)
	if err != nil {
		return nil, err
	}
	return collectMeals(rows)
}

// DeleteMeal deletes a meal. Ingredients and instances are removed by
// ON DELETE CASCADE.
func (d *DB) DeleteMeal(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM meals WHERE id=$1;", id)
	return err
}

// AddIngredient inserts a standard ingredient.
func (d *DB) AddIngredient(ctx context.Context, ing domain.StandardIngredient) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO standard_ingredients(meal_id, food_item_id, quantity, unit) VALUES($1, $2, $3, $4) RETURNING id;",
		ing.MealID, ing.FoodItemID, ing.Quantity, string(ing.Unit),
	).Scan(&id)
	return id, err
}

// GetIngredient returns the ingredient or nil.
func (d *DB) GetIngredient(ctx context.Context, id int64) (*domain.StandardIngredient, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT id, meal_id, food_item_id, quantity, unit FROM standard_ingredients WHERE id=$1;",
		id,
	)
	ing, err := scanIngredient(row)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// ListIngredientsForMeal lists the meal's ingredients in insertion order.
func (d *DB) ListIngredientsForMeal(ctx context.Context, mealID int64) ([]domain.StandardIngredient, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, meal_id, food_item_id, quantity, unit FROM standard_ingredients WHERE meal_id=$1 ORDER BY id;",
		mealID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.StandardIngredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// DeleteIngredient deletes an ingredient by ID.
func (d *DB) DeleteIngredient(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM standard_ingredients WHERE id=$1;", id)
	return err
}

func scanIngredient(row rowScanner) (domain.StandardIngredient, error) {
	var ing domain.StandardIngredient
	var unit string
	err := row.Scan(&ing.ID, &ing.MealID, &ing.FoodItemID, &ing.Quantity, &unit)
	ing.Unit = domain.Unit(unit)
	return ing, err
}

func collectMeals(rows *sql.Rows) ([]domain.Meal, error) {
	defer func() { _ = rows.Close() }()

	out := []domain.Meal{}
	for rows.Next() {
		var m domain.Meal
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
