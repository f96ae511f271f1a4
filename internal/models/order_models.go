package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment methods accepted at the kiosk.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCashless = "cashless"
)

// Order is written once per successful checkout. Only the void flag changes afterwards.
type Order struct {
	ID            int64               `json:"id" db:"id"`
	OrderNumber   string              `json:"order_number" db:"order_number"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	Subtotal      decimal.Decimal     `json:"subtotal" db:"subtotal"`
	VATAmount     decimal.Decimal     `json:"vat_amount" db:"vat_amount"`
	TotalAmount   decimal.Decimal     `json:"total_amount" db:"total_amount"`
	PaymentMethod string              `json:"payment_method" db:"payment_method"`
	CashGiven     decimal.NullDecimal `json:"cash_given" db:"cash_given"`
	ChangeAmount  decimal.NullDecimal `json:"change_amount" db:"change_amount"`
	ReceiptPath   *string             `json:"receipt_path,omitempty" db:"receipt_path"`
	Voided        bool                `json:"voided" db:"voided"`
	VoidedAt      *time.Time          `json:"voided_at,omitempty" db:"voided_at"`
	Lines         []OrderLine         `json:"lines,omitempty"`
}

// OrderLine is one cart line frozen at commit time.
type OrderLine struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	ItemID    int64           `json:"item_id" db:"item_id"`
	ItemName  string          `json:"item_name" db:"item_name"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total" db:"line_total"`
}

// OrderFilters defines the available filters for querying orders.
type OrderFilters struct {
	Date          *string `form:"date"` // YYYY-MM-DD, UTC
	PaymentMethod *string `form:"payment_method"`
	IncludeVoided bool    `form:"include_voided"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}
