package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"kiosk_pos_backend/internal/models"
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, userID int64) (*models.User, error)
	// UpdateLoginState persists the failed-attempt counter and lockout deadline.
	UpdateLoginState(ctx context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

const userColumns = `id, username, password_hash, role, is_active, failed_attempts, locked_until, created_at, updated_at`

func scanUser(s scanner) (*models.User, error) {
	user := &models.User{}
	err := s.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.IsActive,
		&user.FailedAttempts, &user.LockedUntil, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser inserts a new operator. The user's PasswordHash must already be hashed.
func (r *authRepository) CreateUser(ctx context.Context, executor SQLExecutor, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, password_hash, role, is_active, failed_attempts, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, 0, $5, $6)
	          RETURNING id`

	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	user.IsActive = true

	err := executor.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating user '%s'", user.Username)
	}
	return user.ID, nil
}

// FindUserByUsername retrieves a user, including the password hash, by username.
func (r *authRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "finding user by username %s", username)
	}
	return user, nil
}

func (r *authRepository) FindUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapDBError(err, "finding user by ID %d", userID)
	}
	return user, nil
}

func (r *authRepository) UpdateLoginState(ctx context.Context, userID int64, failedAttempts int, lockedUntil *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET failed_attempts = $1, locked_until = $2, updated_at = $3 WHERE id = $4`,
		failedAttempts, lockedUntil, time.Now().UTC(), userID)
	if err != nil {
		return wrapDBError(err, "updating login state for user ID %d", userID)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
