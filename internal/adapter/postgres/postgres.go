// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"mealprice/internal/domain"
)

// uniqueViolation is the SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Ensure interfaces are met.
var _ domain.FoodItemRepository = (*DB)(nil)
var _ domain.PurchaseRepository = (*DB)(nil)
var _ domain.MealRepository = (*DB)(nil)
var _ domain.MealInstanceRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",

		"CREATE TABLE IF NOT EXISTS food_items (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name VARCHAR(100) NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_food_items_user_lower_name ON food_items(user_id, lower(name));",

		"CREATE TABLE IF NOT EXISTS purchases (id BIGSERIAL PRIMARY KEY, food_item_id BIGINT NOT NULL REFERENCES food_items(id) ON DELETE CASCADE, price NUMERIC(12,2) NOT NULL CHECK(price >= 0), currency CHAR(3) NOT NULL, quantity NUMERIC(12,3) NOT NULL CHECK(quantity > 0), unit TEXT NOT NULL, location VARCHAR(100) NOT NULL DEFAULT '', date DATE NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_purchases_food_item_date ON purchases(food_item_id, date DESC, id DESC);",

		"CREATE TABLE IF NOT EXISTS meals (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name VARCHAR(200) NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_meals_user_id ON meals(user_id);",

		"CREATE TABLE IF NOT EXISTS standard_ingredients (id BIGSERIAL PRIMARY KEY, meal_id BIGINT NOT NULL REFERENCES meals(id) ON DELETE CASCADE, food_item_id BIGINT NOT NULL REFERENCES food_items(id) ON DELETE CASCADE, quantity NUMERIC(12,3) NOT NULL CHECK(quantity > 0), unit TEXT NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_standard_ingredients_meal_id ON standard_ingredients(meal_id);",
		"CREATE INDEX IF NOT EXISTS idx_standard_ingredients_food_item_id ON standard_ingredients(food_item_id);",

		"CREATE TABLE IF NOT EXISTS meal_instances (id BIGSERIAL PRIMARY KEY, meal_id BIGINT NOT NULL REFERENCES meals(id) ON DELETE CASCADE, date DATE NOT NULL, num_servings INTEGER NOT NULL CHECK(num_servings >= 1), rating NUMERIC(2,1) NOT NULL CHECK(rating >= 0.5 AND rating <= 5), cook_time INTEGER NOT NULL DEFAULT 0 CHECK(cook_time >= 0));",
		"CREATE INDEX IF NOT EXISTS idx_meal_instances_meal_id ON meal_instances(meal_id);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	// Sessions are bound to the client that created them.
	alterStmts := []string{
		"ALTER TABLE sessions ADD COLUMN IF NOT EXISTS user_agent TEXT NOT NULL DEFAULT '';",
		"ALTER TABLE sessions ADD COLUMN IF NOT EXISTS ip TEXT NOT NULL DEFAULT '';",
	}
	for _, stmt := range alterStmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound reports whether err means "no such row".
func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
