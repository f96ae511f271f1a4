package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiosk_pos_backend/internal/models"
)

// ItemRepository defines the catalog and stock-level operations.
type ItemRepository interface {
	// Category methods
	CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) (int64, error)
	GetCategoryByID(ctx context.Context, id int64) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, executor SQLExecutor, id int64) error

	// Item methods
	CreateItem(ctx context.Context, executor SQLExecutor, item *models.Item) (int64, error)
	GetItemByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Item, error)
	GetItems(ctx context.Context, filters models.ItemFilters) ([]models.Item, error)
	UpdateItem(ctx context.Context, executor SQLExecutor, item *models.Item) error
	GetLowStockItems(ctx context.Context) ([]models.Item, error)

	// Stock methods
	SetStock(ctx context.Context, executor SQLExecutor, itemID int64, stock int) error
	DecrementStock(ctx context.Context, executor SQLExecutor, itemID int64, quantity int) error
	IncrementStock(ctx context.Context, executor SQLExecutor, itemID int64, quantity int) error
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository.
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

// --- Category Methods ---

func (r *itemRepository) CreateCategory(ctx context.Context, executor SQLExecutor, category *models.Category) (int64, error) {
	query := `INSERT INTO categories (name, created_at) VALUES ($1, $2) RETURNING id`
	category.CreatedAt = time.Now().UTC()
	err := executor.QueryRowContext(ctx, query, category.Name, category.CreatedAt).Scan(&category.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating category '%s'", category.Name)
	}
	return category.ID, nil
}

func (r *itemRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, name, created_at FROM categories WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "getting category by ID %d", id)
	}
	return category, nil
}

func (r *itemRepository) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, wrapDBError(err, "getting categories")
	}
	defer rows.Close()

	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.ID, &category.Name, &category.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", ErrDatabaseError, err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating categories: %v", ErrDatabaseError, err)
	}
	return categories, nil
}

func (r *itemRepository) DeleteCategory(ctx context.Context, executor SQLExecutor, id int64) error {
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE category_id = $1`, id).Scan(&count)
	if err != nil {
		return wrapDBError(err, "checking if category %d is in use", id)
	}
	if count > 0 {
		return fmt.Errorf("%w: category ID %d is used by %d item(s)", ErrInUse, id, count)
	}

	result, err := executor.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, "deleting category ID %d", id)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Item Methods ---

const itemColumns = `i.id, i.name, i.price, i.stock, i.category_id, i.active, i.low_stock_threshold,
	i.created_at, i.updated_at, c.name`

const itemFrom = ` FROM items i LEFT JOIN categories c ON c.id = i.category_id`

func scanItem(s scanner) (*models.Item, error) {
	item := &models.Item{}
	err := s.Scan(&item.ID, &item.Name, &item.Price, &item.Stock, &item.CategoryID, &item.Active,
		&item.LowStockThreshold, &item.CreatedAt, &item.UpdatedAt, &item.CategoryName)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) CreateItem(ctx context.Context, executor SQLExecutor, item *models.Item) (int64, error) {
	query := `INSERT INTO items (name, price, stock, category_id, active, low_stock_threshold, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now

	err := executor.QueryRowContext(ctx, query,
		item.Name, item.Price, item.Stock, item.CategoryID, item.Active, item.LowStockThreshold,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating item '%s'", item.Name)
	}
	return item.ID, nil
}

func (r *itemRepository) GetItemByID(ctx context.Context, executor SQLExecutor, id int64) (*models.Item, error) {
	if executor == nil {
		executor = r.db
	}
	item, err := scanItem(executor.QueryRowContext(ctx, `SELECT `+itemColumns+itemFrom+` WHERE i.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "getting item by ID %d", id)
	}
	return item, nil
}

func (r *itemRepository) GetItems(ctx context.Context, filters models.ItemFilters) ([]models.Item, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + itemColumns + itemFrom)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", argCounter))
		args = append(args, *filters.CategoryID)
		argCounter++
	}
	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(i.name) LIKE $%d", argCounter))
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filters.Query))+"%")
		argCounter++
	}
	if filters.ActiveOnly {
		conditions = append(conditions, fmt.Sprintf("i.active = $%d", argCounter))
		args = append(args, true)
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY i.name")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, wrapDBError(err, "getting items")
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// UpdateItem writes item metadata. Stock is deliberately not part of this update.
func (r *itemRepository) UpdateItem(ctx context.Context, executor SQLExecutor, item *models.Item) error {
	query := `UPDATE items
	          SET name = $1, price = $2, category_id = $3, low_stock_threshold = $4, active = $5, updated_at = $6
	          WHERE id = $7`
	item.UpdatedAt = time.Now().UTC()
	result, err := executor.ExecContext(ctx, query,
		item.Name, item.Price, item.CategoryID, item.LowStockThreshold, item.Active, item.UpdatedAt, item.ID)
	if err != nil {
		return wrapDBError(err, "updating item ID %d", item.ID)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *itemRepository) GetLowStockItems(ctx context.Context) ([]models.Item, error) {
	query := `SELECT ` + itemColumns + itemFrom + `
	          WHERE i.active = $1 AND (i.stock = 0 OR (i.low_stock_threshold IS NOT NULL AND i.stock <= i.low_stock_threshold))
	          ORDER BY i.stock, i.name`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, wrapDBError(err, "getting low stock items")
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning low stock item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating low stock items: %v", ErrDatabaseError, err)
	}
	return items, nil
}

// --- Stock Methods ---

func (r *itemRepository) SetStock(ctx context.Context, executor SQLExecutor, itemID int64, stock int) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE items SET stock = $1, updated_at = $2 WHERE id = $3`, stock, time.Now().UTC(), itemID)
	if err != nil {
		return wrapDBError(err, "setting stock of item ID %d", itemID)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock removes quantity from stock only if the item is active and enough is on hand.
// It returns ErrItemInactive for a deactivated item and ErrInsufficientStock when the item
// holds less than quantity.
func (r *itemRepository) DecrementStock(ctx context.Context, executor SQLExecutor, itemID int64, quantity int) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE items SET stock = stock - $1, updated_at = $2 WHERE id = $3 AND stock >= $1 AND active = $4`,
		quantity, time.Now().UTC(), itemID, true)
	if err != nil {
		return wrapDBError(err, "decrementing stock of item ID %d", itemID)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		return nil
	}

	var (
		stock  int
		active bool
	)
	err = executor.QueryRowContext(ctx, `SELECT stock, active FROM items WHERE id = $1`, itemID).Scan(&stock, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return wrapDBError(err, "reading stock of item ID %d", itemID)
	}
	if !active {
		return fmt.Errorf("%w: item ID %d", ErrItemInactive, itemID)
	}
	return fmt.Errorf("%w: item ID %d has %d, needs %d", ErrInsufficientStock, itemID, stock, quantity)
}

func (r *itemRepository) IncrementStock(ctx context.Context, executor SQLExecutor, itemID int64, quantity int) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE items SET stock = stock + $1, updated_at = $2 WHERE id = $3`, quantity, time.Now().UTC(), itemID)
	if err != nil {
		return wrapDBError(err, "incrementing stock of item ID %d", itemID)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
