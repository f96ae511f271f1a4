package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kiosk_pos_backend/pkg/utils"

	"github.com/cenkalti/backoff/v4"
)

// RunInTx runs fn inside one transaction. The transaction is rolled back on
// any error or panic from fn and committed otherwise.
func RunInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return b
}

// WithRetry runs op until it succeeds, fails with a non-busy error, or
// maxRetries busy failures have been retried.
func WithRetry(ctx context.Context, maxRetries uint64, op func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), maxRetries), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if IsBusy(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, func(err error, wait time.Duration) {
		utils.LogWarn("Database busy, retrying", map[string]interface{}{
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		})
	})
}
