package services

import (
	"context"
	"fmt"
	"time"

	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	dateLayout       = "2006-01-02"
	topItemsLimit    = 10
	defaultRangeDays = 7
	maxRangeDays     = 366
)

// ReportService builds the admin insights for a date range.
type ReportService interface {
	GetInsights(ctx context.Context, params models.ReportRequestParams) (*models.Insights, error)
}

type reportService struct {
	reportRepo repositories.ReportRepository
	itemRepo   repositories.ItemRepository
	now        func() time.Time
}

// NewReportService creates a new instance of ReportService.
func NewReportService(reportRepo repositories.ReportRepository, itemRepo repositories.ItemRepository) ReportService {
	return &reportService{reportRepo: reportRepo, itemRepo: itemRepo, now: time.Now}
}

// GetInsights covers whole UTC days from start_date to end_date inclusive.
// Without dates it covers the last seven days including today.
func (s *reportService) GetInsights(ctx context.Context, params models.ReportRequestParams) (*models.Insights, error) {
	start, end, err := s.parseRange(params)
	if err != nil {
		return nil, err
	}
	endExclusive := end.AddDate(0, 0, 1)

	totals, err := s.reportRepo.GetOrderTotals(ctx, start, endExclusive)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily sales: %w", err)
	}
	byQuantity, err := s.reportRepo.GetTopItems(ctx, start, endExclusive, repositories.RankByQuantity, topItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top items by quantity: %w", err)
	}
	byRevenue, err := s.reportRepo.GetTopItems(ctx, start, endExclusive, repositories.RankByRevenue, topItemsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top items by revenue: %w", err)
	}
	lowStock, err := s.itemRepo.GetLowStockItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load low stock items: %w", err)
	}

	insights := &models.Insights{
		StartDate:     start.Format(dateLayout),
		EndDate:       end.Format(dateLayout),
		GrossSales:    decimal.Zero,
		DailySales:    dailySales(totals, start, end),
		TopByQuantity: byQuantity,
		TopByRevenue:  byRevenue,
		LowStock:      make([]models.InventoryReportItem, 0, len(lowStock)),
	}
	for _, t := range totals {
		insights.GrossSales = insights.GrossSales.Add(t.Total)
	}
	insights.GrossSales = insights.GrossSales.Round(2)
	insights.OrderCount = len(totals)

	for _, it := range lowStock {
		status := "Low Stock"
		if it.Stock == 0 {
			status = "Out of Stock"
		}
		insights.LowStock = append(insights.LowStock, models.InventoryReportItem{
			ItemID:            it.ID,
			ItemName:          it.Name,
			CurrentStock:      it.Stock,
			LowStockThreshold: it.LowStockThreshold,
			Status:            status,
		})
	}
	return insights, nil
}

func (s *reportService) parseRange(params models.ReportRequestParams) (time.Time, time.Time, error) {
	today := truncateDay(s.now())
	end := today
	start := today.AddDate(0, 0, -(defaultRangeDays - 1))

	var err error
	if params.EndDate != "" {
		if end, err = time.Parse(dateLayout, params.EndDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrValidation)
		}
		if params.StartDate == "" {
			start = end.AddDate(0, 0, -(defaultRangeDays - 1))
		}
	}
	if params.StartDate != "" {
		if start, err = time.Parse(dateLayout, params.StartDate); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrValidation)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}
	if end.Sub(start) > maxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: range exceeds %d days", ErrValidation, maxRangeDays)
	}
	return start, end, nil
}

// dailySales buckets totals per UTC day; days without orders are reported as zero.
func dailySales(totals []repositories.OrderTotal, start, end time.Time) []models.DailySales {
	index := make(map[string]int)
	days := []models.DailySales{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		index[key] = len(days)
		days = append(days, models.DailySales{Date: key, TotalSales: decimal.Zero})
	}
	for _, t := range totals {
		i, ok := index[t.CreatedAt.UTC().Format(dateLayout)]
		if !ok {
			continue
		}
		days[i].OrderCount++
		days[i].TotalSales = days[i].TotalSales.Add(t.Total)
	}
	for i := range days {
		days[i].TotalSales = days[i].TotalSales.Round(2)
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
