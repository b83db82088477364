package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrTokenMissing = errors.New("token missing")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Catalog related errors
	ErrProductNotFound = errors.New("product not found")

	// Coupon related errors
	ErrCouponNotFound = errors.New("coupon not found")

	// Checkout related errors
	ErrEmptyCart           = errors.New("cart is empty")
	ErrOrderNotFound       = errors.New("order not found")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrStoreUnavailable    = errors.New("credential store unavailable")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
