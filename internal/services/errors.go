package services

import "errors"

// Not-found errors. Handlers translate these to 404.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found or not available")
	ErrWaiterNotFound       = errors.New("waiter not found or not active")
	ErrTableNotFound        = errors.New("table not found")
	ErrStoreProductNotFound = errors.New("store product not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Business-rule errors. Handlers translate these to 400 (409 for stock conflicts).
var (
	ErrValidation                  = errors.New("validation failed")
	ErrInsufficientStock           = errors.New("insufficient stock for item")
	ErrInsufficientIngredientStock = errors.New("insufficient ingredient stock")
	ErrProductUnavailable          = errors.New("product is not available")
	ErrInvalidOrderStatus          = errors.New("invalid order status")
	ErrInvalidStatusTransition     = errors.New("invalid order status transition")
	ErrOrderNotModifiable          = errors.New("order can no longer be modified")
	ErrCancelCompletedOrder        = errors.New("cannot cancel a completed order")
	ErrAccompanimentSelection      = errors.New("invalid accompaniment selection")
	ErrTableRequired               = errors.New("dine-in orders require a table")
)

// Auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUserInactive       = errors.New("user account is deactivated")
)
