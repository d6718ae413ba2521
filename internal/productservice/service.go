// Package productservice manages business logic layer of product listings.
package productservice

import (
	"context"

	"github.com/agromart/ledger/internal/accountdelivery"
	"github.com/agromart/ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by product service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package productservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateProductParams) (domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)
	List(ctx context.Context, arg domain.ListProductsParams) ([]domain.Product, error)
	Deactivate(ctx context.Context, id uuid.UUID) (domain.Product, error)
}

// Service facilitates product service layer logic.
type Service struct {
	repo           Repo
	accountService accountdelivery.Service
}

// New returns product service struct to manage product bussines logic.
func New(pr Repo, as accountdelivery.Service) *Service {
	return &Service{repo: pr, accountService: as}
}

// CreateParams is the owner facing input to list a product.
type CreateParams struct {
	Title    string
	Category string
	Price    string
	Quantity int32
}

// Create lists a product for sale on behalf of the given owner.
func (s *Service) Create(ctx context.Context, ownerUsername string, arg CreateParams) (domain.Product, error) {
	l := zerolog.Ctx(ctx)

	price, err := decimal.NewFromString(arg.Price)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Product{}, domain.ErrInvalidPrice
	}

	if price.LessThanOrEqual(decimal.Zero) {
		return domain.Product{}, domain.ErrInvalidPrice
	}

	if arg.Quantity <= 0 {
		return domain.Product{}, domain.ErrInvalidQuantity
	}

	owner, err := s.accountService.GetByOwner(ctx, ownerUsername)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Product{}, err
	}

	return s.repo.Create(ctx, domain.CreateProductParams{
		OwnerID:  owner.ID,
		Title:    arg.Title,
		Category: arg.Category,
		Price:    arg.Price,
		Quantity: arg.Quantity,
	})
}

// Get returns the product with the given id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return product, err
	}

	return product, nil
}

// List returns a page of active products matching the browse filters.
func (s *Service) List(ctx context.Context, filter domain.ListProductsParams, pageSize, pageID int32) ([]domain.Product, error) {
	filter.Limit = pageSize
	filter.Offset = (pageID - 1) * pageSize

	return s.repo.List(ctx, filter)
}

// Deactivate takes the caller's product off the marketplace.
func (s *Service) Deactivate(ctx context.Context, ownerUsername string, id uuid.UUID) (domain.Product, error) {
	product, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	owner, err := s.accountService.GetByOwner(ctx, ownerUsername)
	if err != nil {
		return domain.Product{}, err
	}

	if product.OwnerID != owner.ID {
		return domain.Product{}, domain.ErrProductOwnerMismatch
	}

	return s.repo.Deactivate(ctx, id)
}
