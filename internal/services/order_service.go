package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/pkg/utils"
)

// OrderService reads order history and voids orders.
type OrderService interface {
	GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error)
	GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	VoidOrder(ctx context.Context, actor *models.Actor, orderID int64) (*models.Order, error)
}

type orderService struct {
	orderRepo    repositories.OrderRepository
	itemRepo     repositories.ItemRepository
	movementRepo repositories.StockMovementRepository
	audit        AuditService
	db           *sql.DB
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	itemRepo repositories.ItemRepository,
	movementRepo repositories.StockMovementRepository,
	audit AuditService,
	db *sql.DB,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		itemRepo:     itemRepo,
		movementRepo: movementRepo,
		audit:        audit,
		db:           db,
	}
}

func (s *orderService) GetOrders(ctx context.Context, filters models.OrderFilters) ([]models.Order, int, error) {
	if filters.Date != nil && *filters.Date != "" {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			return nil, 0, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
		}
	}
	orders, total, err := s.orderRepo.GetOrders(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, total, nil
}

func (s *orderService) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, nil, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}
	lines, err := s.orderRepo.GetOrderLinesByOrderID(ctx, nil, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines of order %d: %w", orderID, err)
	}
	order.Lines = lines
	return order, nil
}

// VoidOrder marks an order void once and returns its quantities to stock.
func (s *orderService) VoidOrder(ctx context.Context, actor *models.Actor, orderID int64) (*models.Order, error) {
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		order, err := s.orderRepo.GetOrderByID(ctx, tx, orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: ID %d", ErrOrderNotFound, orderID)
			}
			return err
		}

		now := time.Now().UTC()
		changed, err := s.orderRepo.MarkVoided(ctx, tx, orderID, now)
		if err != nil {
			return err
		}
		if !changed {
			return fmt.Errorf("%w: %s", ErrOrderAlreadyVoided, order.OrderNumber)
		}

		lines, err := s.orderRepo.GetOrderLinesByOrderID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := s.itemRepo.IncrementStock(ctx, tx, l.ItemID, l.Quantity); err != nil {
				return fmt.Errorf("restoring stock of item %d: %w", l.ItemID, err)
			}
			movement := &models.StockMovement{ItemID: l.ItemID, Delta: l.Quantity, Reason: models.MovementReasonVoidReturn, CreatedAt: now}
			if _, err := s.movementRepo.CreateMovement(ctx, tx, movement); err != nil {
				return err
			}
		}
		return s.audit.Record(ctx, tx, actor, models.AuditOrderVoid,
			fmt.Sprintf("order %s voided, %d line(s) returned to stock", order.OrderNumber, len(lines)))
	})
	if err != nil {
		return nil, err
	}

	utils.LogInfo("Order voided", map[string]interface{}{"order_id": orderID})
	return s.GetOrderByID(ctx, orderID)
}
