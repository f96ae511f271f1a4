package models

import "time"

// Operator roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User is an admin operator of the kiosk back office.
type User struct {
	ID             int64      `json:"id"`
	Username       string     `json:"username" db:"username"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Role           string     `json:"role" db:"role"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	FailedAttempts int        `json:"-" db:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty" db:"locked_until"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Credentials for login request
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}

// Actor identifies who performed an admin action.
type Actor struct {
	UserID   int64
	Username string
	Role     string
}

// Audit event types.
const (
	AuditLoginSuccess  = "login_success"
	AuditLoginFailed   = "login_failed"
	AuditLoginLocked   = "login_locked"
	AuditStockAdjust   = "stock_adjust"
	AuditItemCreate    = "item_create"
	AuditItemUpdate    = "item_update"
	AuditItemDelete    = "item_delete"
	AuditCategoryAdd   = "category_create"
	AuditCategoryDel   = "category_delete"
	AuditOrderVoid     = "order_void"
	AuditUserBootstrap = "user_create"
)

// AuditLog is one entry of the admin audit trail.
type AuditLog struct {
	ID        int64     `json:"id"`
	Username  *string   `json:"username,omitempty"`
	Role      *string   `json:"role,omitempty"`
	EventType string    `json:"event_type"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogFilters narrows audit log listings.
type AuditLogFilters struct {
	EventType *string `form:"event_type"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
