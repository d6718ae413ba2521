package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entry holds one signed balance change for an account. Entries are
// append-only; a purchase produces two of them under one purchase id,
// a deposit produces a single entry with no purchase reference.
type Entry struct {
	ID         int64         `json:"id"`
	AccountID  int32         `json:"account_id"`
	PurchaseID uuid.NullUUID `json:"purchase_id"`
	Amount     string        `json:"amount"` // can be negative or positive
	CreatedAt  time.Time     `json:"created_at"`
}
