package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProductNotFound indicates that the product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductUnavailable indicates that the product is missing or no longer active.
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrInsufficientInventory indicates that the requested quantity exceeds the available one.
	ErrInsufficientInventory = errors.New("insufficient inventory")
	// ErrInvalidPrice indicates non-positive or malformed price.
	ErrInvalidPrice = errors.New("invalid price")
	// ErrInvalidQuantity indicates non-positive quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrProductOwnerMismatch indicates that the product does not belong to the authenticated user.
	ErrProductOwnerMismatch = errors.New("product does not belong to the user")
)

// Product holds a marketplace listing. Price is fixed at listing time;
// quantity is decremented only by successful purchases.
type Product struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   int32     `json:"owner_id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Price     string    `json:"price"`
	Quantity  int32     `json:"quantity"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProductParams is the input data to list a product.
type CreateProductParams struct {
	OwnerID  int32  `json:"owner_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Price    string `json:"price"`
	Quantity int32  `json:"quantity"`
}

// ListProductsParams holds marketplace browse filters. Zero values mean
// the corresponding filter is not applied; only active products are listed.
type ListProductsParams struct {
	TitleQuery string `json:"title_query"`
	Category   string `json:"category"`
	MinPrice   string `json:"min_price"`
	MaxPrice   string `json:"max_price"`
	Limit      int32  `json:"limit"`
	Offset     int32  `json:"offset"`
}
