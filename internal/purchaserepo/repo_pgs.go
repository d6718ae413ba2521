// Package purchaserepo manages repository layer of purchases.
package purchaserepo

import (
	"context"
	"database/sql"

	"github.com/agromart/ledger/internal/accountrepo"
	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/entryrepo"
	"github.com/agromart/ledger/internal/productrepo"
	"github.com/agromart/ledger/pkg/dbpkg"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RepoPGS facilitates purchase repository layer logic.
type RepoPGS struct {
	db   dbpkg.SQLInterface
	conn *sql.DB
}

// NewTxRepoPGS returns purchase RepoPGS bound to an already open transaction.
func NewTxRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{
		db: db,
	}
}

// NewRepoPGS returns purchase RepoPGS with connection to start transactions.
func NewRepoPGS(db *sql.DB) *RepoPGS {
	return &RepoPGS{
		db:   db,
		conn: db,
	}
}

const createQuery = `
INSERT INTO
    purchases (id, buyer_id, seller_id, product_id, product_title, unit_price, quantity, total, status)
VALUES
    ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, buyer_id, seller_id, product_id, product_title, unit_price, quantity, total, status, created_at
`

// Create inserts the purchase record and then returns it.
func (r *RepoPGS) Create(ctx context.Context, p domain.Purchase) (domain.Purchase, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, createQuery,
		p.ID, p.BuyerID, p.SellerID, p.ProductID,
		p.ProductTitle, p.UnitPrice, p.Quantity, p.Total, p.Status)

	var out domain.Purchase
	err := row.Scan(
		&out.ID,
		&out.BuyerID,
		&out.SellerID,
		&out.ProductID,
		&out.ProductTitle,
		&out.UnitPrice,
		&out.Quantity,
		&out.Total,
		&out.Status,
		&out.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Create(ctx context.Context, %+v)", p)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "purchases_buyer_id_fkey", "purchases_seller_id_fkey":
				return out, domain.ErrAccountNotFound
			case "purchases_product_id_fkey":
				return out, domain.ErrProductNotFound
			case "purchases_quantity_check":
				return out, domain.ErrInvalidQuantity
			}

			if pqErr.Code == "40001" || pqErr.Code == "40P01" {
				return out, domain.ErrConcurrentModification
			}
		}

		return out, errorspkg.ErrInternal
	}

	return out, nil
}

const getQuery = `
SELECT
	id, buyer_id, seller_id, product_id, product_title, unit_price, quantity, total, status, created_at
FROM purchases
WHERE id = $1
`

// Get returns the purchase with the given id.
func (r *RepoPGS) Get(ctx context.Context, id uuid.UUID) (domain.Purchase, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, getQuery, id)

	var p domain.Purchase

	err := row.Scan(
		&p.ID,
		&p.BuyerID,
		&p.SellerID,
		&p.ProductID,
		&p.ProductTitle,
		&p.UnitPrice,
		&p.Quantity,
		&p.Total,
		&p.Status,
		&p.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()

		if err == sql.ErrNoRows {
			return p, domain.ErrPurchaseNotFound
		}

		return p, errorspkg.ErrInternal
	}

	return p, nil
}

const listForAccountQuery = `
SELECT
	id, buyer_id, seller_id, product_id, product_title, unit_price, quantity, total, status, created_at
FROM purchases
WHERE
    buyer_id = $1 OR seller_id = $1
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3
`

// ListForAccount returns purchases where the account is buyer or seller,
// newest first.
func (r *RepoPGS) ListForAccount(ctx context.Context, accountID, limit, offset int32) ([]domain.Purchase, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listForAccountQuery, accountID, limit, offset)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Purchase{}

	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(
			&p.ID,
			&p.BuyerID,
			&p.SellerID,
			&p.ProductID,
			&p.ProductTitle,
			&p.UnitPrice,
			&p.Quantity,
			&p.Total,
			&p.Status,
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

// Purchase executes one buy event as a single database transaction.
//
// It takes the requested quantity off the product, inserts the purchase
// record with price and title snapshots, appends the debit and credit
// entries, and moves the total between the buyer and seller balances.
// Any failure rolls the whole transaction back.
func (r *RepoPGS) Purchase(ctx context.Context, arg domain.CreatePurchaseParams) (domain.Receipt, error) {
	l := zerolog.Ctx(ctx)

	var result domain.Receipt

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	txRepo := NewTxRepoPGS(tx)
	entryRepo := entryrepo.NewRepoPGS(tx)
	accountRepo := accountrepo.NewRepoPGS(tx)
	productRepo := productrepo.NewRepoPGS(tx)

	product, err := productRepo.ReserveAndDecrement(ctx, arg.ProductID, arg.Quantity)
	if err != nil {
		return result, raceOr(err)
	}

	if product.OwnerID == arg.BuyerID {
		return result, domain.ErrSelfPurchaseNotAllowed
	}

	unitPrice, err := decimal.NewFromString(product.Price)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	total := unitPrice.Mul(decimal.NewFromInt32(arg.Quantity)).String()

	purchaseID, err := uuid.NewRandom()
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	result.Purchase, err = txRepo.Create(ctx, domain.Purchase{
		ID:           purchaseID,
		BuyerID:      arg.BuyerID,
		SellerID:     product.OwnerID,
		ProductID:    product.ID,
		ProductTitle: product.Title,
		UnitPrice:    product.Price,
		Quantity:     arg.Quantity,
		Total:        total,
		Status:       domain.StatusCompleted,
	})
	if err != nil {
		return result, raceOr(err)
	}

	ref := uuid.NullUUID{UUID: purchaseID, Valid: true}

	result.BuyerEntry, err = entryRepo.Create(ctx, "-"+total, arg.BuyerID, ref)
	if err != nil {
		return result, raceOr(err)
	}

	result.SellerEntry, err = entryRepo.Create(ctx, total, product.OwnerID, ref)
	if err != nil {
		return result, raceOr(err)
	}

	var buyerAccount, sellerAccount domain.Account
	// To avoid deadlocks execute statements in consistent id order
	if arg.BuyerID < product.OwnerID {
		buyerAccount, sellerAccount, err = addBalances(ctx, accountRepo,
			arg.BuyerID, "-"+total, product.OwnerID, total)
	} else {
		sellerAccount, buyerAccount, err = addBalances(ctx, accountRepo,
			product.OwnerID, total, arg.BuyerID, "-"+total)
	}

	if err != nil {
		return result, raceOr(err)
	}

	result.BuyerBalance = buyerAccount.Balance
	result.SellerBalance = sellerAccount.Balance
	result.RemainingQuantity = product.Quantity

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return result, raceOr(err)
	}

	return result, nil
}

func addBalances(ctx context.Context, r *accountrepo.RepoPGS,
	account1ID int32, amount1 string, account2ID int32, amount2 string,
) (domain.Account, domain.Account, error) {
	account1, err := r.AddBalance(ctx, amount1, account1ID)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	account2, err := r.AddBalance(ctx, amount2, account2ID)
	if err != nil {
		return domain.Account{}, domain.Account{}, err
	}

	return account1, account2, nil
}

// raceOr maps serialization and deadlock failures to
// domain.ErrConcurrentModification and passes every other error through.
func raceOr(err error) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "40001", "40P01":
			return domain.ErrConcurrentModification
		}
	}

	return err
}
