package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kiosk_pos_backend/internal/models"

	"github.com/shopspring/decimal"
)

// Ranking orders for GetTopItems.
const (
	RankByQuantity = "quantity"
	RankByRevenue  = "revenue"
)

// OrderTotal is the minimal order projection used for daily aggregation.
type OrderTotal struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

// ReportRepository runs the read-only aggregate queries behind the insights panel.
type ReportRepository interface {
	GetOrderTotals(ctx context.Context, start, end time.Time) ([]OrderTotal, error)
	GetTopItems(ctx context.Context, start, end time.Time, rankBy string, limit int) ([]models.TopItem, error)
}

type reportRepository struct {
	db *sql.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{db: db}
}

// GetOrderTotals returns non-voided orders created in [start, end).
func (r *reportRepository) GetOrderTotals(ctx context.Context, start, end time.Time) ([]OrderTotal, error) {
	query := `SELECT created_at, total_amount FROM orders
	          WHERE voided = $1 AND created_at >= $2 AND created_at < $3
	          ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, false, start.UTC(), end.UTC())
	if err != nil {
		return nil, wrapDBError(err, "getting order totals")
	}
	defer rows.Close()

	totals := []OrderTotal{}
	for rows.Next() {
		var t OrderTotal
		if err := rows.Scan(&t.CreatedAt, &t.Total); err != nil {
			return nil, fmt.Errorf("%w: scanning order total: %v", ErrDatabaseError, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order totals: %v", ErrDatabaseError, err)
	}
	return totals, nil
}

func (r *reportRepository) GetTopItems(ctx context.Context, start, end time.Time, rankBy string, limit int) ([]models.TopItem, error) {
	orderBy := "total_quantity DESC, total_revenue DESC"
	switch rankBy {
	case RankByQuantity:
	case RankByRevenue:
		orderBy = "total_revenue DESC, total_quantity DESC"
	default:
		return nil, fmt.Errorf("unknown ranking %q", rankBy)
	}

	query := `SELECT oi.item_id, MAX(oi.item_name) AS item_name,
	                 SUM(oi.quantity) AS total_quantity, SUM(oi.line_total) AS total_revenue
	          FROM order_items oi
	          JOIN orders o ON o.id = oi.order_id
	          WHERE o.voided = $1 AND o.created_at >= $2 AND o.created_at < $3
	          GROUP BY oi.item_id
	          ORDER BY ` + orderBy + `, oi.item_id
	          LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, false, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, wrapDBError(err, "getting top items by %s", rankBy)
	}
	defer rows.Close()

	items := []models.TopItem{}
	for rows.Next() {
		var it models.TopItem
		if err := rows.Scan(&it.ItemID, &it.ItemName, &it.TotalQuantity, &it.TotalRevenue); err != nil {
			return nil, fmt.Errorf("%w: scanning top item: %v", ErrDatabaseError, err)
		}
		it.TotalRevenue = it.TotalRevenue.Round(2)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating top items: %v", ErrDatabaseError, err)
	}
	return items, nil
}
