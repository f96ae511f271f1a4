package services

import "errors"

// Cart and checkout errors. All are recoverable; none end the session.
var (
	ErrItemNotFound         = errors.New("item not found or not available")
	ErrStockExceeded        = errors.New("requested quantity exceeds available stock")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrCartAlreadyEmpty     = errors.New("cart is already empty")
	ErrNothingToUndo        = errors.New("nothing to undo")
	ErrInsufficientPayment  = errors.New("amount given is less than the total")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCommitFailure        = errors.New("order could not be saved")
	ErrCheckoutInProgress   = errors.New("cart cannot change while payment is in progress")
	ErrInvalidCheckoutState = errors.New("action not allowed in the current checkout state")
	ErrSessionNotFound      = errors.New("kiosk session not found")
)

// Admin errors.
var (
	ErrValidation         = errors.New("validation failed")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategoryInUse      = errors.New("category is still used by items")
	ErrCategoryConflict   = errors.New("category name already exists")
	ErrItemNameConflict   = errors.New("item name already exists")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyVoided = errors.New("order is already voided")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
	ErrUserExists         = errors.New("username already exists")
)
