// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/agromart/ledger/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Repo provides data access layer interface needed by account service layer.
type Repo interface {
	Create(ctx context.Context, owner, balance string) (domain.Account, error)
	Get(ctx context.Context, id int32) (domain.Account, error)
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
	Deposit(ctx context.Context, amount string, id int32) (domain.Account, domain.Entry, error)
}

// EntryRepo provides entry access needed by account service layer.
type EntryRepo interface {
	List(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Entry, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo      Repo
	entryRepo EntryRepo
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo, er EntryRepo) *Service {
	return &Service{repo: ar, entryRepo: er}
}

// Create creates and returns a zero balance account for the given owner.
func (s *Service) Create(ctx context.Context, owner string) (domain.Account, error) {
	account, err := s.repo.Create(ctx, owner, "0")
	if err != nil {
		return account, err
	}

	return account, nil
}

// Get returns account for the given account ID.
func (s *Service) Get(ctx context.Context, id int32) (domain.Account, error) {
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return account, err
	}

	return account, nil
}

// GetByOwner returns the account that belongs to the given username.
func (s *Service) GetByOwner(ctx context.Context, owner string) (domain.Account, error) {
	account, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return account, err
	}

	return account, nil
}

// Deposit credits the owner's account with the given positive amount.
func (s *Service) Deposit(ctx context.Context, owner, amount string) (domain.Account, domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.Account{}, domain.Entry{}, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		return domain.Account{}, domain.Entry{}, domain.ErrNegativeAmount
	}

	account, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return domain.Account{}, domain.Entry{}, err
	}

	return s.repo.Deposit(ctx, amount, account.ID)
}

// ListEntries returns the owner's balance history page, newest first.
func (s *Service) ListEntries(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Entry, error) {
	account, err := s.repo.GetByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	limit := pageSize
	offset := (pageID - 1) * pageSize

	return s.entryRepo.List(ctx, account.ID, limit, offset)
}
