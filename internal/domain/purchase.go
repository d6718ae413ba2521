package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrSelfPurchaseNotAllowed indicates an attempt to buy one's own product.
	ErrSelfPurchaseNotAllowed = errors.New("cannot purchase own product")
	// ErrConcurrentModification indicates that the purchase lost the race for
	// the product or an account and exhausted its retries.
	ErrConcurrentModification = errors.New("concurrent modification, retry later")
	// ErrPurchaseNotFound indicates that the purchase is not found.
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// Purchase statuses. Purchases commit directly in StatusCompleted;
// StatusCancelled is reserved for refund and dispute flows.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Purchase is the immutable audit record of one buy event. Title and unit
// price are snapshots taken at purchase time and never recomputed from the
// product.
type Purchase struct {
	ID           uuid.UUID `json:"id"`
	BuyerID      int32     `json:"buyer_id"`
	SellerID     int32     `json:"seller_id"`
	ProductID    uuid.UUID `json:"product_id"`
	ProductTitle string    `json:"product_title"`
	UnitPrice    string    `json:"unit_price"`
	Quantity     int32     `json:"quantity"`
	Total        string    `json:"total"` // unit price * quantity, fixed forever
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatePurchaseParams is the input data for the purchase transaction.
type CreatePurchaseParams struct {
	BuyerID   int32     `json:"buyer_id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int32     `json:"quantity"`
}

// Receipt is the result of a committed purchase transaction.
type Receipt struct {
	Purchase          Purchase `json:"purchase"`
	BuyerBalance      string   `json:"buyer_balance"`
	SellerBalance     string   `json:"seller_balance"`
	RemainingQuantity int32    `json:"remaining_quantity"`
	BuyerEntry        Entry    `json:"buyer_entry"`
	SellerEntry       Entry    `json:"seller_entry"`
}
