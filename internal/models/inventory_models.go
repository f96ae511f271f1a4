package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups catalog items on the kiosk menu.
type Category struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Item is a sellable catalog entry. Stock is the authoritative on-hand count.
type Item struct {
	ID                int64           `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	Stock             int             `json:"stock" db:"stock"`
	CategoryID        *int64          `json:"category_id,omitempty" db:"category_id"`
	Active            bool            `json:"active" db:"active"`
	LowStockThreshold *int            `json:"low_stock_threshold,omitempty" db:"low_stock_threshold"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
	CategoryName      *string         `json:"category_name,omitempty"` // joined
}

// IsLowStock reports whether stock has reached the configured threshold.
func (i Item) IsLowStock() bool {
	return i.LowStockThreshold != nil && i.Stock <= *i.LowStockThreshold
}

// CreateItemRequest is the admin payload for a new catalog item.
type CreateItemRequest struct {
	Name              string          `json:"name" binding:"required"`
	Price             decimal.Decimal `json:"price"`
	Stock             *int            `json:"stock" binding:"omitempty,gte=0"`
	CategoryID        *int64          `json:"category_id"`
	LowStockThreshold *int            `json:"low_stock_threshold" binding:"omitempty,gte=0"`
}

// UpdateItemRequest changes item metadata. Stock is changed only through stock adjustment.
type UpdateItemRequest struct {
	Name              *string          `json:"name"`
	Price             *decimal.Decimal `json:"price"`
	CategoryID        *int64           `json:"category_id"`
	LowStockThreshold *int             `json:"low_stock_threshold" binding:"omitempty,gte=0"`
	Active            *bool            `json:"active"`
}

// ItemFilters narrows item listings.
type ItemFilters struct {
	CategoryID *int64  `form:"category_id"`
	Query      *string `form:"q"`
	ActiveOnly bool    `form:"active_only"`
}

// Stock movement reasons.
const (
	MovementReasonSale         = "sale"
	MovementReasonManualAdjust = "manual_adjust"
	MovementReasonVoidReturn   = "void_return"
)

// StockMovement is one append-only entry of the stock ledger.
type StockMovement struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	Delta     int       `json:"delta" db:"delta"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ItemName  *string   `json:"item_name,omitempty"` // joined
}

// StockMovementFilters narrows stock ledger listings.
type StockMovementFilters struct {
	ItemID   *int64  `form:"item_id"`
	Reason   *string `form:"reason"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// AdjustStockRequest sets an absolute stock value. A pointer so a missing
// value is distinguishable from zero.
type AdjustStockRequest struct {
	Stock *int `json:"stock" binding:"required"`
}

// StockAdjustment is the outcome of an admin stock edit.
type StockAdjustment struct {
	ItemID        int64  `json:"item_id"`
	PreviousStock int    `json:"previous_stock"`
	NewStock      int    `json:"new_stock"`
	Delta         int    `json:"delta"`
	Clamped       bool   `json:"clamped"`
	Warning       string `json:"warning,omitempty"`
}
