package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/metrics"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/pkg/utils"
)

const clampWarning = "negative stock value was clamped to 0"

// StockService applies operator stock edits and exposes the stock ledger.
type StockService interface {
	AdjustStock(ctx context.Context, actor *models.Actor, itemID int64, newStock int) (*models.StockAdjustment, error)
	ListMovements(ctx context.Context, filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockService struct {
	db            *sql.DB
	itemRepo      repositories.ItemRepository
	movementRepo  repositories.StockMovementRepository
	audit         AuditService
	metrics       *metrics.Metrics
	commitRetries uint64
}

// NewStockService creates a new instance of StockService.
func NewStockService(
	db *sql.DB,
	itemRepo repositories.ItemRepository,
	movementRepo repositories.StockMovementRepository,
	audit AuditService,
	m *metrics.Metrics,
	commitRetries uint64,
) StockService {
	return &stockService{
		db:            db,
		itemRepo:      itemRepo,
		movementRepo:  movementRepo,
		audit:         audit,
		metrics:       m,
		commitRetries: commitRetries,
	}
}

// AdjustStock sets an absolute stock value and logs the signed delta.
// A negative value is clamped to 0 and reported through Clamped and Warning.
func (s *stockService) AdjustStock(ctx context.Context, actor *models.Actor, itemID int64, newStock int) (*models.StockAdjustment, error) {
	adj := &models.StockAdjustment{ItemID: itemID, NewStock: newStock}
	if newStock < 0 {
		adj.NewStock = 0
		adj.Clamped = true
		adj.Warning = clampWarning
		utils.LogWarn("Stock adjustment clamped", map[string]interface{}{"item_id": itemID, "requested": newStock})
	}

	err := database.WithRetry(ctx, s.commitRetries, func() error {
		return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
			item, err := s.itemRepo.GetItemByID(ctx, tx, itemID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
				}
				return err
			}

			adj.PreviousStock = item.Stock
			adj.Delta = adj.NewStock - item.Stock
			if adj.Delta == 0 {
				return nil
			}

			if err := s.itemRepo.SetStock(ctx, tx, itemID, adj.NewStock); err != nil {
				return err
			}
			movement := &models.StockMovement{ItemID: itemID, Delta: adj.Delta, Reason: models.MovementReasonManualAdjust}
			if _, err := s.movementRepo.CreateMovement(ctx, tx, movement); err != nil {
				return err
			}
			return s.audit.Record(ctx, tx, actor, models.AuditStockAdjust,
				fmt.Sprintf("item %d %q stock %d -> %d (delta %+d)", itemID, item.Name, item.Stock, adj.NewStock, adj.Delta))
		})
	})
	if err != nil {
		return nil, err
	}

	if adj.Delta != 0 {
		s.metrics.StockAdjustments.Inc()
	}
	utils.LogInfo("Stock adjusted", map[string]interface{}{
		"item_id": itemID, "previous": adj.PreviousStock, "new": adj.NewStock, "delta": adj.Delta,
	})
	return adj, nil
}

func (s *stockService) ListMovements(ctx context.Context, filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	movements, total, err := s.movementRepo.GetMovements(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stock movements: %w", err)
	}
	return movements, total, nil
}
