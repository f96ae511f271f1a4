package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kiosk_pos_backend/internal/config"
	"kiosk_pos_backend/internal/models"
	"kiosk_pos_backend/internal/repositories"
	"kiosk_pos_backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// CreateUserRequest bootstraps an operator account.
type CreateUserRequest struct {
	Username string
	Password string
	Role     string
}

// AuthService authenticates back-office operators.
type AuthService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	GetUserProfile(ctx context.Context, userID int64) (*models.User, error)
}

type authService struct {
	authRepo repositories.AuthRepository
	audit    AuditService
	db       *sql.DB
	cfg      config.AuthConfig
	now      func() time.Time
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, audit AuditService, db *sql.DB, cfg config.AuthConfig) AuthService {
	return &authService{authRepo: authRepo, audit: audit, db: db, cfg: cfg, now: time.Now}
}

func (s *authService) CreateUser(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}
	if role != models.RoleAdmin && role != models.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash), Role: role}
	if _, err := s.authRepo.CreateUser(ctx, s.db, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.recordAudit(ctx, &models.Actor{UserID: user.ID, Username: username, Role: role}, models.AuditUserBootstrap, "operator account created")

	user.PasswordHash = ""
	return user, nil
}

// Login verifies credentials. After MaxLoginAttempts consecutive failures the
// account is locked for LockoutDuration.
func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error) {
	user, err := s.authRepo.FindUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.recordAudit(ctx, &models.Actor{Username: creds.Username}, models.AuditLoginFailed, "unknown username")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	actor := &models.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}

	needsReset := user.FailedAttempts != 0 || user.LockedUntil != nil
	if user.LockedUntil != nil {
		if now.Before(*user.LockedUntil) {
			s.recordAudit(ctx, actor, models.AuditLoginLocked, "login refused while locked")
			return nil, fmt.Errorf("%w: try again after %s", ErrAccountLocked, user.LockedUntil.Format(time.RFC3339))
		}
		user.FailedAttempts = 0
		user.LockedUntil = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, s.registerFailure(ctx, user, actor, now)
	}

	if needsReset {
		if err := s.authRepo.UpdateLoginState(ctx, user.ID, 0, nil); err != nil {
			return nil, fmt.Errorf("failed to reset login state: %w", err)
		}
	}

	token, expiresAt, err := utils.GenerateAccessToken([]byte(s.cfg.JWTSecret), s.cfg.AccessTokenTTL, user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	s.recordAudit(ctx, actor, models.AuditLoginSuccess, "login")

	user.PasswordHash = ""
	user.FailedAttempts = 0
	user.LockedUntil = nil
	return &models.LoginResponse{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) registerFailure(ctx context.Context, user *models.User, actor *models.Actor, now time.Time) error {
	attempts := user.FailedAttempts + 1
	var lockedUntil *time.Time
	if s.cfg.MaxLoginAttempts > 0 && attempts >= s.cfg.MaxLoginAttempts {
		until := now.Add(s.cfg.LockoutDuration)
		lockedUntil = &until
		attempts = 0
	}
	if err := s.authRepo.UpdateLoginState(ctx, user.ID, attempts, lockedUntil); err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}

	if lockedUntil != nil {
		utils.LogWarn("Operator account locked", map[string]interface{}{"username": user.Username, "until": lockedUntil.Format(time.RFC3339)})
		s.recordAudit(ctx, actor, models.AuditLoginLocked, fmt.Sprintf("locked until %s", lockedUntil.Format(time.RFC3339)))
		return fmt.Errorf("%w: try again after %s", ErrAccountLocked, lockedUntil.Format(time.RFC3339))
	}
	s.recordAudit(ctx, actor, models.AuditLoginFailed, fmt.Sprintf("wrong password, attempt %d", attempts))
	return ErrInvalidCredentials
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user ID %d", ErrInvalidCredentials, userID)
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// recordAudit never fails the login flow; a lost audit row is only logged.
func (s *authService) recordAudit(ctx context.Context, actor *models.Actor, eventType, detail string) {
	if err := s.audit.Record(ctx, nil, actor, eventType, detail); err != nil {
		utils.LogError(err, "Failed to record auth audit event", map[string]interface{}{"event_type": eventType})
	}
}
