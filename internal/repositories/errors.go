package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kiosk_pos_backend/internal/database"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrInUse is returned when a row cannot be removed while other rows reference it.
	ErrInUse = errors.New("record is still referenced")

	// ErrInsufficientStock is returned by a conditional stock decrement that matched no row.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrItemInactive is returned when stock is taken from a deactivated item.
	ErrItemInactive = errors.New("item is inactive")

	// ErrBusy is the store's transient lock conflict; database.WithRetry retries it.
	ErrBusy = database.ErrBusy
)

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// wrapDBError classifies a driver error into one of the repository sentinels.
func wrapDBError(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s: %v", ErrDuplicateKey, msg, err)
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s: %v", ErrInUse, msg, err)
	case database.IsBusy(err):
		return fmt.Errorf("%w: %s: %v", ErrBusy, msg, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrDatabaseError, msg, err)
}

func normalizePaging(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	return page, pageSize
}
