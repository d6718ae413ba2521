// Package productrepo manages repository layer of product listings.
package productrepo

import (
	"context"
	"database/sql"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/pkg/dbpkg"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates product repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns product RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const createQuery = `
INSERT INTO
    products (id, owner_id, title, category, price, quantity, active)
VALUES
    ($1, $2, $3, $4, $5, $6, $6 > 0)
RETURNING id, owner_id, title, category, price, quantity, active, created_at
`

// Create creates the product listing and then returns it.
func (r *RepoPGS) Create(ctx context.Context, arg domain.CreateProductParams) (domain.Product, error) {
	l := zerolog.Ctx(ctx)

	id, err := uuid.NewRandom()
	if err != nil {
		l.Error().Err(err).Send()
		return domain.Product{}, errorspkg.ErrInternal
	}

	row := r.db.QueryRowContext(ctx, createQuery,
		id, arg.OwnerID, arg.Title, arg.Category, arg.Price, arg.Quantity)

	var p domain.Product

	err = row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Category,
		&p.Price,
		&p.Quantity,
		&p.Active,
		&p.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "products_owner_id_fkey":
				return p, domain.ErrOwnerNotFound
			case "products_price_check":
				return p, domain.ErrInvalidPrice
			case "products_quantity_check":
				return p, domain.ErrInvalidQuantity
			}
		}

		return p, errorspkg.ErrInternal
	}

	return p, nil
}

const getQuery = `
SELECT
	id, owner_id, title, category, price, quantity, active, created_at
FROM products
WHERE id = $1
`

// Get returns the product with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var p domain.Product

	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Category,
		&p.Price,
		&p.Quantity,
		&p.Active,
		&p.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return p, domain.ErrProductNotFound
		}

		return p, errorspkg.ErrInternal
	}

	return p, nil
}

const reserveAndDecrementQuery = `
UPDATE products
SET quantity = quantity - $1,
    active = quantity - $1 > 0
WHERE id = $2 AND active AND quantity >= $1
RETURNING id, owner_id, title, category, price, quantity, active, created_at
`

// ReserveAndDecrement atomically takes the requested quantity off the
// product and deactivates it when it hits zero. The quantity guard lives in
// the statement itself so two concurrent purchases can never both take the
// last unit. Zero updated rows are disambiguated with a follow-up read.
func (r *RepoPGS) ReserveAndDecrement(ctx context.Context, id uuid.UUID, quantity int32) (domain.Product, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, reserveAndDecrementQuery, quantity, id)

	var p domain.Product

	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Category,
		&p.Price,
		&p.Quantity,
		&p.Active,
		&p.CreatedAt,
	)

	if err == nil {
		return p, nil
	}

	if err != sql.ErrNoRows {
		l.Error().Err(err).Send()

		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "40001" || pqErr.Code == "40P01" {
				return p, domain.ErrConcurrentModification
			}
		}

		return p, errorspkg.ErrInternal
	}

	current, err := r.Get(ctx, id)
	if err != nil {
		if err == domain.ErrProductNotFound {
			return p, domain.ErrProductUnavailable
		}

		return p, err
	}

	if !current.Active {
		return p, domain.ErrProductUnavailable
	}

	return p, domain.ErrInsufficientInventory
}

const deactivateQuery = `
UPDATE products
SET active = FALSE
WHERE id = $1
RETURNING id, owner_id, title, category, price, quantity, active, created_at
`

// Deactivate takes the product off the marketplace.
func (r *RepoPGS) Deactivate(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, deactivateQuery, id)

	var p domain.Product

	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Category,
		&p.Price,
		&p.Quantity,
		&p.Active,
		&p.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return p, domain.ErrProductNotFound
		}

		return p, errorspkg.ErrInternal
	}

	return p, nil
}

const listQuery = `
SELECT
	id, owner_id, title, category, price, quantity, active, created_at
FROM products
WHERE active
	AND ($1 = '' OR title ILIKE '%' || $1 || '%')
	AND ($2 = '' OR category = $2)
	AND (NULLIF($3, '') IS NULL OR price >= NULLIF($3, '')::numeric)
	AND (NULLIF($4, '') IS NULL OR price <= NULLIF($4, '')::numeric)
ORDER BY created_at DESC, id
LIMIT $5 OFFSET $6
`

// List returns a page of active products matching the browse filters.
func (r *RepoPGS) List(ctx context.Context, arg domain.ListProductsParams) ([]domain.Product, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery,
		arg.TitleQuery,
		arg.Category,
		arg.MinPrice,
		arg.MaxPrice,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Product{}

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.OwnerID,
			&p.Title,
			&p.Category,
			&p.Price,
			&p.Quantity,
			&p.Active,
			&p.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
