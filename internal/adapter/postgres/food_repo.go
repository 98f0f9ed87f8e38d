package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mealprice/internal/domain"
)

// CreateFoodItem inserts a food item. The unique index on
// (user_id, lower(name)) makes the duplicate check and the insert one step.
func (d *DB) CreateFoodItem(ctx context.Context, userID int64, name string) (*domain.FoodItem, error) {
	var f domain.FoodItem
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO food_items(user_id, name, created_at) VALUES($1, $2, $3) RETURNING id, user_id, name, created_at;",
		userID, name, time.Now().UTC(),
	).Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, d.duplicate(ctx, userID, name)
		}
		return nil, err
	}
	return &f, nil
}

// RenameFoodItem renames a food item, keeping names unique per user.
func (d *DB) RenameFoodItem(ctx context.Context, id int64, name string) error {
	var userID int64
	err := d.sql.QueryRowContext(ctx,
		"UPDATE food_items SET name=$2 WHERE id=$1 RETURNING user_id;",
		id, name,
	).Scan(&userID)
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("food item %d: %w", id, domain.ErrNotFound)
		}
		if isUniqueViolation(err) {
			var owner int64
			_ = d.sql.QueryRowContext(ctx, "SELECT user_id FROM food_items WHERE id=$1;", id).Scan(&owner)
			return d.duplicate(ctx, owner, name)
		}
		return err
	}
	return nil
}

// GetFoodItem returns the food item or nil when it does not exist.
func (d *DB) GetFoodItem(ctx context.Context, id int64) (*domain.FoodItem, error) {
	var f domain.FoodItem
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM food_items WHERE id=$1;",
		id,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindFoodItemByName returns the user's food item with the given name,
// ignoring case, or nil.
func (d *DB) FindFoodItemByName(ctx context.Context, userID int64, name string) (*domain.FoodItem, error) {
	var f domain.FoodItem
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at FROM food_items WHERE user_id=$1 AND lower(name)=lower($2);",
		userID, name,
	).Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ListFoodItems lists the user's food items by name, optionally restricted
// to names starting with prefix.
func (d *DB) ListFoodItems(ctx context.Context, userID int64, prefix string) ([]domain.FoodItem, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, name, created_at FROM food_items WHERE user_id=$1 AND ($2 = '' OR lower(name) LIKE $3) ORDER BY lower(name), id;",
		userID, prefix, likePrefix(prefix),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.FoodItem{}
	for rows.Next() {
		var f domain.FoodItem
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteFoodItem deletes a food item. Purchases and ingredients go with it
// through ON DELETE CASCADE.
func (d *DB) DeleteFoodItem(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM food_items WHERE id=$1;", id)
	return err
}

func (d *DB) duplicate(ctx context.Context, userID int64, name string) error {
	dup := &domain.DuplicateFoodItemError{Name: name, UserID: userID}
	if existing, err := d.FindFoodItemByName(ctx, userID, name); err == nil && existing != nil {
		dup.ExistingID = existing.ID
	}
	return dup
}

// likePrefix escapes the LIKE wildcards in prefix and appends %.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(strings.ToLower(prefix)) + "%"
}
