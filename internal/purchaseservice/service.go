// Package purchaseservice manages business logic layer of purchases.
package purchaseservice

import (
	"context"

	"github.com/agromart/ledger/internal/accountdelivery"
	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/productdelivery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// defaultMaxRetries bounds how often a purchase is replayed after losing
// the race for the product or an account.
const defaultMaxRetries = 3

// Repo provides data access layer interface needed by purchase service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package purchaseservice
type Repo interface {
	Purchase(ctx context.Context, arg domain.CreatePurchaseParams) (domain.Receipt, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Purchase, error)
	ListForAccount(ctx context.Context, accountID, limit, offset int32) ([]domain.Purchase, error)
}

// Service facilitates purchase service layer logic.
type Service struct {
	repo           Repo
	accountService accountdelivery.Service
	productService productdelivery.Service
	maxRetries     int
}

// New returns purchase service struct to manage purchase bussines logic.
func New(pr Repo, as accountdelivery.Service, ps productdelivery.Service, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Service{
		repo:           pr,
		accountService: as,
		productService: ps,
		maxRetries:     maxRetries,
	}
}

// validRequest checks every purchase precondition in a fixed order so the
// caller always sees the same failure for the same state. The checks are
// advisory only; the repository transaction re-enforces each of them
// atomically.
func (s *Service) validRequest(ctx context.Context, buyer domain.Account, productID uuid.UUID, quantity int32) error {
	l := zerolog.Ctx(ctx)

	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	product, err := s.productService.Get(ctx, productID)
	if err != nil {
		if err == domain.ErrProductNotFound {
			return domain.ErrProductUnavailable
		}

		l.Error().Err(err).Send()

		return err
	}

	if !product.Active {
		return domain.ErrProductUnavailable
	}

	if quantity > product.Quantity {
		return domain.ErrInsufficientInventory
	}

	if product.OwnerID == buyer.ID {
		return domain.ErrSelfPurchaseNotAllowed
	}

	unitPrice, err := decimal.NewFromString(product.Price)
	if err != nil {
		l.Error().Err(err).Send()
		return err
	}

	balance, err := decimal.NewFromString(buyer.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return err
	}

	total := unitPrice.Mul(decimal.NewFromInt32(quantity))
	if balance.LessThan(total) {
		return domain.ErrInsufficientFunds
	}

	return nil
}

// Purchase validates the request and executes the buy event atomically on
// behalf of the authenticated buyer. A purchase that loses the race for the
// product or an account is replayed a bounded number of times before
// surfacing domain.ErrConcurrentModification.
func (s *Service) Purchase(ctx context.Context, buyerUsername string, productID uuid.UUID, quantity int32) (domain.Receipt, error) {
	l := zerolog.Ctx(ctx)

	buyer, err := s.accountService.GetByOwner(ctx, buyerUsername)
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Receipt{}, err
	}

	if err := s.validRequest(ctx, buyer, productID, quantity); err != nil {
		return domain.Receipt{}, err
	}

	arg := domain.CreatePurchaseParams{
		BuyerID:   buyer.ID,
		ProductID: productID,
		Quantity:  quantity,
	}

	var receipt domain.Receipt

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		receipt, err = s.repo.Purchase(ctx, arg)
		if err != domain.ErrConcurrentModification {
			return receipt, err
		}

		l.Info().Int("attempt", attempt+1).Msg("purchase lost the race, retrying")
	}

	return domain.Receipt{}, domain.ErrConcurrentModification
}

// Get returns the purchase with the given id if the account took part in it.
func (s *Service) Get(ctx context.Context, username string, id uuid.UUID) (domain.Purchase, error) {
	account, err := s.accountService.GetByOwner(ctx, username)
	if err != nil {
		return domain.Purchase{}, err
	}

	purchase, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Purchase{}, err
	}

	if purchase.BuyerID != account.ID && purchase.SellerID != account.ID {
		return domain.Purchase{}, domain.ErrPurchaseNotFound
	}

	return purchase, nil
}

// List returns the account's purchase history page, newest first.
func (s *Service) List(ctx context.Context, username string, pageSize, pageID int32) ([]domain.Purchase, error) {
	account, err := s.accountService.GetByOwner(ctx, username)
	if err != nil {
		return nil, err
	}

	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.repo.ListForAccount(ctx, account.ID, limit, offset)
}
