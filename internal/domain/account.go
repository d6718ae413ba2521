// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountAlreadyExists indicates that the owner already has an account.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrOwnerNotFound indicates that the owner for the account is not found.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrInsufficientFunds indicates that the account balance cannot cover the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAccountOwnerMismatch indicates that the account does not belong to the authenticated user.
	ErrAccountOwnerMismatch = errors.New("account does not belong to the user")
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates negative amount.
	ErrNegativeAmount = errors.New("negative amount")
)

// Account holds a user's balance. The balance is mutated only through
// signed entries so that it always equals the sum of its history.
type Account struct {
	ID        int32     `json:"id"`
	Owner     string    `json:"owner"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}
