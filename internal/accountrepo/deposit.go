package accountrepo

import (
	"context"
	"database/sql"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/entryrepo"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Deposit credits the account and appends the matching entry within a
// single database transaction so the balance always equals the entry sum.
func (r *RepoPGS) Deposit(ctx context.Context, amount string, id int32) (domain.Account, domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	var (
		account domain.Account
		entry   domain.Entry
	)

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return account, entry, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	account, err = NewRepoPGS(tx).AddBalance(ctx, amount, id)
	if err != nil {
		return account, entry, err
	}

	entry, err = entryrepo.NewRepoPGS(tx).Create(ctx, amount, id, uuid.NullUUID{})
	if err != nil {
		return account, entry, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return account, entry, errorspkg.ErrInternal
	}

	return account, entry, nil
}
