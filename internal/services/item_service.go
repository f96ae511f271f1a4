package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kiosk_pos_backend/internal/database"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
)

// CreateCategoryRequest is the admin payload for a new category.
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// ItemService manages the catalog: categories and item metadata.
type ItemService interface {
	CreateCategory(ctx context.Context, actor *models.Actor, req CreateCategoryRequest) (*models.Category, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, actor *models.Actor, categoryID int64) error

	CreateItem(ctx context.Context, actor *models.Actor, req models.CreateItemRequest) (*models.Item, error)
	GetItemByID(ctx context.Context, itemID int64) (*models.Item, error)
	GetItems(ctx context.Context, filters models.ItemFilters) ([]models.Item, error)
	UpdateItem(ctx context.Context, actor *models.Actor, itemID int64, req models.UpdateItemRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, actor *models.Actor, itemID int64) error
}

type itemService struct {
	itemRepo     repositories.ItemRepository
	movementRepo repositories.StockMovementRepository
	audit        AuditService
	db           *sql.DB
}

// NewItemService creates a new instance of ItemService.
func NewItemService(itemRepo repositories.ItemRepository, movementRepo repositories.StockMovementRepository, audit AuditService, db *sql.DB) ItemService {
	return &itemService{itemRepo: itemRepo, movementRepo: movementRepo, audit: audit, db: db}
}

// --- Categories ---

func (s *itemService) CreateCategory(ctx context.Context, actor *models.Actor, req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", ErrValidation)
	}

	category := &models.Category{Name: name}
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.itemRepo.CreateCategory(ctx, tx, category); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: %s", ErrCategoryConflict, name)
			}
			return err
		}
		return s.audit.Record(ctx, tx, actor, models.AuditCategoryAdd, fmt.Sprintf("category %d %q", category.ID, name))
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *itemService) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.itemRepo.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory refuses while any item still references the category.
func (s *itemService) DeleteCategory(ctx context.Context, actor *models.Actor, categoryID int64) error {
	return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.itemRepo.DeleteCategory(ctx, tx, categoryID); err != nil {
			switch {
			case errors.Is(err, repositories.ErrNotFound):
				return fmt.Errorf("%w: ID %d", ErrCategoryNotFound, categoryID)
			case errors.Is(err, repositories.ErrInUse):
				return fmt.Errorf("%w: ID %d", ErrCategoryInUse, categoryID)
			}
			return err
		}
		return s.audit.Record(ctx, tx, actor, models.AuditCategoryDel, fmt.Sprintf("category %d", categoryID))
	})
}

// --- Items ---

func (s *itemService) CreateItem(ctx context.Context, actor *models.Actor, req models.CreateItemRequest) (*models.Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name is required", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	stock := 0
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
		}
		stock = *req.Stock
	}

	item := &models.Item{
		Name:              name,
		Price:             req.Price.Round(2),
		Stock:             stock,
		CategoryID:        req.CategoryID,
		Active:            true,
		LowStockThreshold: req.LowStockThreshold,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := s.itemRepo.CreateItem(ctx, tx, item); err != nil {
			switch {
			case errors.Is(err, repositories.ErrDuplicateKey):
				return fmt.Errorf("%w: %s", ErrItemNameConflict, name)
			case errors.Is(err, repositories.ErrInUse):
				return fmt.Errorf("%w: category ID %v", ErrCategoryNotFound, derefID(req.CategoryID))
			}
			return err
		}
		if stock > 0 {
			opening := &models.StockMovement{ItemID: item.ID, Delta: stock, Reason: models.MovementReasonManualAdjust}
			if _, err := s.movementRepo.CreateMovement(ctx, tx, opening); err != nil {
				return err
			}
		}
		return s.audit.Record(ctx, tx, actor, models.AuditItemCreate,
			fmt.Sprintf("item %d %q price %s stock %d", item.ID, item.Name, item.Price.StringFixed(2), item.Stock))
	})
	if err != nil {
		return nil, err
	}
	return s.GetItemByID(ctx, item.ID)
}

func (s *itemService) GetItemByID(ctx context.Context, itemID int64) (*models.Item, error) {
	item, err := s.itemRepo.GetItemByID(ctx, nil, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
		}
		return nil, fmt.Errorf("failed to get item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *itemService) GetItems(ctx context.Context, filters models.ItemFilters) ([]models.Item, error) {
	items, err := s.itemRepo.GetItems(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	return items, nil
}

// UpdateItem changes metadata only; stock goes through StockService.
func (s *itemService) UpdateItem(ctx context.Context, actor *models.Actor, itemID int64, req models.UpdateItemRequest) (*models.Item, error) {
	var changes []string
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		item, err := s.itemRepo.GetItemByID(ctx, tx, itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
			}
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: item name must not be empty", ErrValidation)
			}
			item.Name = name
			changes = append(changes, "name="+name)
		}
		if req.Price != nil {
			if req.Price.IsNegative() {
				return fmt.Errorf("%w: price must not be negative", ErrValidation)
			}
			item.Price = req.Price.Round(2)
			changes = append(changes, "price="+item.Price.StringFixed(2))
		}
		if req.CategoryID != nil {
			item.CategoryID = req.CategoryID
			changes = append(changes, fmt.Sprintf("category_id=%d", *req.CategoryID))
		}
		if req.LowStockThreshold != nil {
			item.LowStockThreshold = req.LowStockThreshold
			changes = append(changes, fmt.Sprintf("low_stock_threshold=%d", *req.LowStockThreshold))
		}
		if req.Active != nil {
			item.Active = *req.Active
			changes = append(changes, fmt.Sprintf("active=%t", *req.Active))
		}

		if err := s.itemRepo.UpdateItem(ctx, tx, item); err != nil {
			switch {
			case errors.Is(err, repositories.ErrDuplicateKey):
				return fmt.Errorf("%w: %s", ErrItemNameConflict, item.Name)
			case errors.Is(err, repositories.ErrInUse):
				return fmt.Errorf("%w: category ID %v", ErrCategoryNotFound, derefID(req.CategoryID))
			}
			return err
		}
		return s.audit.Record(ctx, tx, actor, models.AuditItemUpdate,
			fmt.Sprintf("item %d: %s", itemID, strings.Join(changes, ", ")))
	})
	if err != nil {
		return nil, err
	}
	return s.GetItemByID(ctx, itemID)
}

// DeleteItem soft-deletes: the row stays for order history.
func (s *itemService) DeleteItem(ctx context.Context, actor *models.Actor, itemID int64) error {
	return database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		item, err := s.itemRepo.GetItemByID(ctx, tx, itemID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: item ID %d", ErrItemNotFound, itemID)
			}
			return err
		}
		item.Active = false
		if err := s.itemRepo.UpdateItem(ctx, tx, item); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, models.AuditItemDelete, fmt.Sprintf("item %d %q deactivated", itemID, item.Name))
	})
}

func derefID(id *int64) interface{} {
	if id == nil {
		return "none"
	}
	return *id
}
