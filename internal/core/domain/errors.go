package domain

import (
	"errors"
	"fmt"
	"time"
)

// Common domain errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrDuplicateEntry   = errors.New("duplicate entry")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)

// Ledger errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrUnknownCurrency   = errors.New("unknown currency")
)

// Membership errors
var (
	ErrProductInactive = errors.New("product is not available")
	ErrAlreadyOwned    = errors.New("product already owned and still active")
)

// Transaction workflow errors
var (
	ErrNotPending             = errors.New("transaction is not pending")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
)

// Rate converter errors
var (
	ErrCurrencyNotFound = errors.New("currency not found or disabled")
	ErrNoFeedRate       = errors.New("no feed rate recorded for currency")
)

// Account errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountFrozen   = errors.New("account is frozen")
)

// AlreadyOwnedError carries the expiry of the blocking membership so callers
// can report it without a second read.
type AlreadyOwnedError struct {
	ExpiresAt time.Time
}

func (e *AlreadyOwnedError) Error() string {
	return fmt.Sprintf("product already owned, active until %s", e.ExpiresAt.Format(time.RFC3339))
}

func (e *AlreadyOwnedError) Is(target error) bool {
	return target == ErrAlreadyOwned
}
