package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"kiosk_pos_backend/internal/models"
)

// StockMovementRepository is the append-only stock ledger.
type StockMovementRepository interface {
	CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(ctx context.Context, filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(ctx context.Context, executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements (item_id, delta, reason, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	err := executor.QueryRowContext(ctx, query,
		movement.ItemID, movement.Delta, movement.Reason, movement.CreatedAt,
	).Scan(&movement.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating stock movement for item ID %d", movement.ItemID)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(ctx context.Context, filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT m.id, m.item_id, m.delta, m.reason, m.created_at, i.name,
	                                 COUNT(*) OVER() AS total_count
	                          FROM stock_movements m
	                          LEFT JOIN items i ON i.id = m.item_id`)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.ItemID != nil {
		conditions = append(conditions, fmt.Sprintf("m.item_id = $%d", argCounter))
		args = append(args, *filters.ItemID)
		argCounter++
	}
	if filters.Reason != nil && *filters.Reason != "" {
		conditions = append(conditions, fmt.Sprintf("m.reason = $%d", argCounter))
		args = append(args, *filters.Reason)
		argCounter++
	}
	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	page, pageSize := normalizePaging(filters.Page, filters.PageSize)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d", argCounter, argCounter+1))
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, wrapDBError(err, "getting stock movements")
	}
	defer rows.Close()

	for rows.Next() {
		var m models.StockMovement
		if err := rows.Scan(&m.ID, &m.ItemID, &m.Delta, &m.Reason, &m.CreatedAt, &m.ItemName, &totalCount); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movements: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
