package postgres

import (
	"context"
	"database/sql"

	"mealprice/internal/domain"
)

const purchaseColumns = "p.id, p.food_item_id, p.price, p.currency, p.quantity, p.unit, p.location, p.date"

// AddPurchase inserts a purchase.
func (d *DB) AddPurchase(ctx context.Context, p domain.Purchase) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO purchases(food_item_id, price, currency, quantity, unit, location, date) VALUES($1, $2, $3, $4, $5, $6, $7) RETURNING id;",
		p.FoodItemID, p.Price, string(p.Currency), p.Quantity, string(p.Unit), p.Location, p.Date.UTC(),
	).Scan(&id)
	return id, err
}

// GetPurchase returns the purchase or nil.
func (d *DB) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases p WHERE p.id=$1;",
		id,
	)
	p, err := scanPurchase(row)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPurchasesForFoodItem lists the purchases of a food item, newest first.
func (d *DB) ListPurchasesForFoodItem(ctx context.Context, foodItemID int64) ([]domain.Purchase, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases p WHERE p.food_item_id=$1 ORDER BY p.date DESC, p.id DESC;",
		foodItemID,
	)
	if err != nil {
		return nil, err
	}
	return collectPurchases(rows)
}

// ListPurchasesForUser lists the purchases of all of the user's food items,
// newest first.
func (d *DB) ListPurchasesForUser(ctx context.Context, userID int64) ([]domain.Purchase, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+purchaseColumns+" FROM purchases p JOIN food_items f ON f.id = p.food_item_id WHERE f.user_id=$1 ORDER BY p.date DESC, p.id DESC;",
		userID,
	)
	if err != nil {
		return nil, err
	}
	return collectPurchases(rows)
}

// DeletePurchase deletes a purchase by ID.
func (d *DB) DeletePurchase(ctx context.Context, id int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM purchases WHERE id=$1;", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner) (domain.Purchase, error) {
	var p domain.Purchase
	var currency, unit string
	err := row.Scan(&p.ID, &p.FoodItemID, &p.Price, &currency, &p.Quantity, &unit, &p.Location, &p.Date)
	p.Currency = domain.Currency(currency)
	p.Unit = domain.Unit(unit)
	return p, err
}

func collectPurchases(rows *sql.Rows) ([]domain.Purchase, error) {
	defer func() { _ = rows.Close() }()

	out := []domain.Purchase{}
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
