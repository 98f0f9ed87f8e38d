package postgres

import (
	"context"
	"database/sql"

	"mealprice/internal/domain"
)

const instanceColumns = "mi.id, mi.meal_id, mi.date, mi.num_servings, mi.rating, mi.cook_time"

// AddMealInstance inserts a meal instance.
func (d *DB) AddMealInstance(ctx context.Context, mi domain.MealInstance) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO meal_instances(meal_id, date, num_servings, rating, cook_time) VALUES($1, $2, $3, $4, $5) RETURNING id;",
		mi.MealID, mi.Date.UTC(), mi.NumServings, mi.Rating, mi.CookTime,
	).Scan(&id)
	return id, err
}

// GetMealInstance returns the instance or nil.
func (d *DB) GetMealInstance(ctx context.Context, id int64) (*domain.MealInstance, error) {
	var mi domain.MealInstance
	err := d.sql.QueryRowContext(ctx,
		"SELECT "+instanceColumns+" FROM meal_instances mi WHERE mi.id=$1;",
		id,
	).Scan(&mi.ID, &mi.MealID, &mi.Date, &mi.NumServings, &mi.Rating, &mi.CookTime)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mi, nil
}

// ListMealInstancesForMeal lists a meal's instances, newest first.
func (d *DB) ListMealInstancesForMeal(ctx context.Context, mealID int64) ([]domain.MealInstance, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+instanceColumns+" FROM meal_instances mi WHERE mi.meal_id=$1 ORDER BY mi.date DESC, mi.id DESC;",
		mealID,
	)
	if err != nil {
		return nil, err
	}
	return collectInstances(rows)
}

// ListMealInstancesForUser lists the instances of all of the user's meals,
// newest first.
func (d *DB) ListMealInstancesForUser(ctx context.Context, userID int64) ([]domain.MealInstance, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+instanceColumns+" FROM meal_instances mi JOIN meals m ON m.id = mi.meal_id WHERE m.user_id=$1 ORDER BY mi.date DESC, mi.id DESC;",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectInstances(rows)
}

// DeleteMealInstance deletes a meal instance by ID.
func (d *DB) DeleteMealInstance(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM meal_instances WHERE id=$1;", id)
	return err
}

func collectInstances(rows *sql.Rows) ([]domain.MealInstance, error) {
	defer func() { _ = rows.Close() }()

	out := []domain.MealInstance{}
	for rows.Next() {
		var mi domain.MealInstance
		if err := rows.Scan(&mi.ID, &mi.MealID, &mi.Date, &mi.NumServings, &mi.Rating, &mi.CookTime); err != nil {
			return nil, err
		}
		out = append(out, mi)
	}
	return out, rows.Err()
}
