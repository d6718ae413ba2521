// Package entryrepo manages repository layer of balance entries.
package entryrepo

import (
	"context"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/pkg/dbpkg"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates entry repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns entry RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    entries (account_id, purchase_id, amount)
VALUES
    ($1, $2, $3)
RETURNING id, account_id, purchase_id, amount, created_at
`

// Create appends a signed entry to the account's history and returns it.
func (r *RepoPGS) Create(ctx context.Context, amount string, accountID int32, purchaseID uuid.NullUUID) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery, accountID, purchaseID, amount)

	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.PurchaseID,
		&e.Amount,
		&e.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()
		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const getQuery = `
SELECT id, account_id, purchase_id, amount, created_at FROM entries
WHERE id = $1 LIMIT 1
`

// Get returns the entry with the given id.
func (r *RepoPGS) Get(ctx context.Context, id int64) (domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var e domain.Entry

	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.PurchaseID,
		&e.Amount,
		&e.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()
		return e, errorspkg.ErrInternal
	}

	return e, nil
}

const listQuery = `
SELECT id, account_id, purchase_id, amount, created_at FROM entries
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`

// List returns the specified number of entries for the given accountID,
// newest first. Ordering by id keeps pages stable while new entries arrive.
func (r *RepoPGS) List(ctx context.Context, accountID int32, limit, offset int32) ([]domain.Entry, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Entry{}

	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(
			&e.ID,
			&e.AccountID,
			&e.PurchaseID,
			&e.Amount,
			&e.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, e)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
