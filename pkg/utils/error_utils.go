package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Standardized APIError response
type APIError struct {
	StatusCode int    `json:"-"`              // HTTP status code, not part of the body
	Code       string `json:"code,omitempty"` // Application-specific error code
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// NewAPIError creates a new APIError instance
func NewAPIError(statusCode int, code string, message string, details string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// RespondWithError sends a standardized JSON error response
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"

	// Kiosk error kinds surfaced to the touchscreen.
	ErrCodeStockExceeded       = "STOCK_EXCEEDED"
	ErrCodeEmptyCart           = "EMPTY_CART"
	ErrCodeCartAlreadyEmpty    = "CART_ALREADY_EMPTY"
	ErrCodeInsufficientPayment = "INSUFFICIENT_PAYMENT"
	ErrCodeCommitFailure       = "COMMIT_FAILURE"
	ErrCodeNothingToUndo       = "NOTHING_TO_UNDO"
	ErrCodeCheckoutState       = "CHECKOUT_STATE"
	ErrCodeAccountLocked       = "ACCOUNT_LOCKED"
	ErrCodeSessionNotFound     = "SESSION_NOT_FOUND"
)

// IsEmpty checks if a string is empty after trimming whitespace.
func IsEmpty(s string) bool {
	return strings.TrimSpace(s) == ""
}

// RespondValidationFailed returns a standard 400 validation error.
func RespondValidationFailed(c *gin.Context, details string) {
	RespondWithError(c, NewAPIError(http.StatusBadRequest, ErrCodeValidationFailed, "Input validation failed", details))
}
