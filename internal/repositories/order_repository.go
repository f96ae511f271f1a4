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

// OrderRepository defines the interface for order-related database operations.
type OrderRepository interface {
	// Order methods
	CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error)
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	SetReceiptPath(ctx context.Context, executor SQLExecutor, orderID int64, path string) error
	MarkVoided(ctx context.Context, executor SQLExecutor, orderID int64, at time.Time) (bool, error)

	// OrderLine methods
	CreateOrderLine(ctx context.Context, executor SQLExecutor, line *models.OrderLine) (int64, error)
	GetOrderLinesByOrderID(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.OrderLine, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// --- Order Methods ---

const orderColumns = `o.id, o.order_number, o.created_at, o.subtotal, o.vat_amount, o.total_amount,
	o.payment_method, o.cash_given, o.change_amount, o.receipt_path, o.voided, o.voided_at`

func scanOrder(s scanner, extra ...interface{}) (*models.Order, error) {
	o := &models.Order{}
	dest := []interface{}{
		&o.ID, &o.OrderNumber, &o.CreatedAt, &o.Subtotal, &o.VATAmount, &o.TotalAmount,
		&o.PaymentMethod, &o.CashGiven, &o.ChangeAmount, &o.ReceiptPath, &o.Voided, &o.VoidedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrder inserts the order header. A colliding order number yields ErrDuplicateKey.
func (r *orderRepository) CreateOrder(ctx context.Context, executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (order_number, created_at, subtotal, vat_amount, total_amount, payment_method,
	             cash_given, change_amount, voided)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	err := executor.QueryRowContext(ctx, query,
		order.OrderNumber, order.CreatedAt, order.Subtotal, order.VATAmount, order.TotalAmount,
		order.PaymentMethod, order.CashGiven, order.ChangeAmount, false,
	).Scan(&order.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating order %s", order.OrderNumber)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, executor SQLExecutor, orderID int64) (*models.Order, error) {
	if executor == nil {
		executor = r.db
	}
	order, err := scanOrder(executor.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "getting order by ID %d", orderID)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + orderColumns + `, COUNT(*) OVER() AS total_count FROM orders o`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if !filters.IncludeVoided {
		conditions = append(conditions, fmt.Sprintf("o.voided = $%d", argCounter))
		args = append(args, false)
		argCounter++
	}
	if filters.PaymentMethod != nil && *filters.PaymentMethod != "" {
		conditions = append(conditions, fmt.Sprintf("o.payment_method = $%d", argCounter))
		args = append(args, *filters.PaymentMethod)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := parsedDate.UTC()
			endOfDay := startOfDay.AddDate(0, 0, 1)
			conditions = append(conditions, fmt.Sprintf("o.created_at >= $%d AND o.created_at < $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	page, pageSize := normalizePaging(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "querying orders")
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) SetReceiptPath(ctx context.Context, executor SQLExecutor, orderID int64, path string) error {
	result, err := executor.ExecContext(ctx, `UPDATE orders SET receipt_path = $1 WHERE id = $2`, path, orderID)
	if err != nil {
		return wrapDBError(err, "setting receipt path for order ID %d", orderID)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkVoided flips the void flag once. It reports false if the order was already voided.
func (r *orderRepository) MarkVoided(ctx context.Context, executor SQLExecutor, orderID int64, at time.Time) (bool, error) {
	result, err := executor.ExecContext(ctx,
		`UPDATE orders SET voided = $1, voided_at = $2 WHERE id = $3 AND voided = $4`, true, at, orderID, false)
	if err != nil {
		return false, wrapDBError(err, "voiding order ID %d", orderID)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// --- OrderLine Methods ---

func (r *orderRepository) CreateOrderLine(ctx context.Context, executor SQLExecutor, line *models.OrderLine) (int64, error) {
	query := `INSERT INTO order_items (order_id, item_id, item_name, quantity, unit_price, line_total)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		line.OrderID, line.ItemID, line.ItemName, line.Quantity, line.UnitPrice, line.LineTotal,
	).Scan(&line.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating order line for order ID %d", line.OrderID)
	}
	return line.ID, nil
}

func (r *orderRepository) GetOrderLinesByOrderID(ctx context.Context, executor SQLExecutor, orderID int64) ([]models.OrderLine, error) {
	if executor == nil {
		executor = r.db
	}
	query := `SELECT id, order_id, item_id, item_name, quantity, unit_price, line_total
	          FROM order_items
	          WHERE order_id = $1
	          ORDER BY id`
	rows, err := executor.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, wrapDBError(err, "querying order lines for order ID %d", orderID)
	}
	defer rows.Close()

	lines := []models.OrderLine{}
	for rows.Next() {
		var l models.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.ItemName, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("%w: scanning order line for order ID %d: %v", ErrDatabaseError, orderID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order lines for order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return lines, nil
}
