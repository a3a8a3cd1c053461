package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotVerified        = errors.New("account not verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrEmptyCart          = errors.New("empty cart")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrCartChanged        = errors.New("cart changed during checkout")
	ErrInvalidSignature   = errors.New("invalid notification signature")
)

// StockError names the product that ran out.
type StockError struct {
	Product string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q", e.Product)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
