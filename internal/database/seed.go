package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kiosk_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

type seedItem struct {
	name     string
	price    string
	stock    int
	category string
}

var seedCategories = []string{"Meals", "Snacks", "Drinks", "Desserts", "Others"}

var seedItems = []seedItem{
	{"Cheeseburger", "120.00", 20, "Meals"},
	{"Fried Chicken Meal", "160.00", 15, "Meals"},
	{"Spaghetti", "95.00", 25, "Meals"},
	{"Chocolate Bar", "45.00", 40, "Snacks"},
	{"Banana Cue", "25.00", 30, "Snacks"},
	{"Piattos", "22.00", 50, "Snacks"},
	{"Nova", "22.00", 50, "Snacks"},
	{"Pic-A", "60.00", 50, "Snacks"},
	{"V-cut", "35.00", 50, "Snacks"},
	{"Bottled Water 500ml", "20.00", 80, "Drinks"},
	{"Iced Tea 500ml", "35.00", 60, "Drinks"},
	{"Coca-Cola 290ml", "25.00", 70, "Drinks"},
	{"Mountain Dew 290ml", "25.00", 70, "Drinks"},
	{"Royal 290ml", "25.00", 70, "Drinks"},
	{"Sprite 290ml", "25.00", 70, "Drinks"},
	{"Pepsi 290ml", "25.00", 70, "Drinks"},
	{"Ice Cream Cup", "50.00", 30, "Desserts"},
	{"Chocolate Sundae", "65.00", 25, "Desserts"},
	{"Siomai", "30.00", 40, "Others"},
	{"Hotdog Sandwich", "55.00", 20, "Others"},
	{"Egg Sandwich", "35.00", 20, "Others"},
}

// Seed loads the sample catalog when the items table is empty.
// It returns the number of items inserted.
func Seed(ctx context.Context, db *sql.DB) (int, error) {
	inserted := 0
	err := RunInTx(ctx, db, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		categoryIDs := make(map[string]int64, len(seedCategories))
		for _, name := range seedCategories {
			var id int64
			err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
			if err == sql.ErrNoRows {
				err = tx.QueryRowContext(ctx,
					`INSERT INTO categories (name, created_at) VALUES ($1, $2) RETURNING id`,
					name, now).Scan(&id)
			}
			if err != nil {
				return fmt.Errorf("seeding category %s: %w", name, err)
			}
			categoryIDs[name] = id
		}

		for _, it := range seedItems {
			price := decimal.RequireFromString(it.price)
			_, err := tx.ExecContext(ctx,
				`INSERT INTO items (name, price, stock, category_id, active, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
				it.name, price, it.stock, categoryIDs[it.category], true, now)
			if err != nil {
				return fmt.Errorf("seeding item %s: %w", it.name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	utils.LogInfo("Seed completed", map[string]interface{}{"items_inserted": inserted})
	return inserted, nil
}
