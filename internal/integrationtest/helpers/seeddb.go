// Package helpers provides shared db seed helpers for integration tests.
package helpers

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/agromart/ledger/internal/accountrepo"
	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/entryrepo"
	"github.com/agromart/ledger/internal/productrepo"
	"github.com/agromart/ledger/internal/userrepo"
	"github.com/agromart/ledger/pkg/dbpkg"
	"github.com/agromart/ledger/pkg/passpkg"
	"github.com/agromart/ledger/pkg/randompkg"
)

// SeedUser creates random User inside a test transaction.
func SeedUser(t *testing.T, tx dbpkg.SQLInterface) domain.User {
	t.Helper()

	hashedPassword, err := passpkg.Hash(randompkg.String(32))
	if err != nil {
		t.Fatalf("passpkg.Hash(randompkg.String(32)) returned error: %v", err)
	}

	arg := domain.CreateUserParams{
		Username:       randompkg.Owner(),
		HashedPassword: hashedPassword,
		FullName:       randompkg.String(10),
		Email:          randompkg.Email(),
	}

	userRepo := userrepo.NewRepoPGS(tx)
	user, err := userRepo.Create(context.Background(), arg)

	if err != nil {
		t.Fatalf("userRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return user
}

// SeedAccount creates an Account with the given balance inside a test transaction.
func SeedAccount(t *testing.T, tx dbpkg.SQLInterface, username, balance string) domain.Account {
	t.Helper()

	accountRepo := accountrepo.NewRepoPGS(tx)

	account, err := accountRepo.Create(context.Background(), username, balance)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %v, %v) returned error: %v",
			username, balance, err)
	}

	return account
}

// SeedAccountWith1000Balance creates a random user's Account holding 1000 inside a test transaction.
func SeedAccountWith1000Balance(t *testing.T, tx dbpkg.SQLInterface) domain.Account {
	t.Helper()

	user := SeedUser(t, tx)

	return SeedAccount(t, tx, user.Username, "1000")
}

// SeedProduct creates a Product listing owned by the given account inside a test transaction.
func SeedProduct(t *testing.T, tx dbpkg.SQLInterface, ownerID int32, price string, quantity int32) domain.Product {
	t.Helper()

	arg := domain.CreateProductParams{
		OwnerID:  ownerID,
		Title:    randompkg.String(12),
		Category: randompkg.Category(),
		Price:    price,
		Quantity: quantity,
	}

	productRepo := productrepo.NewRepoPGS(tx)

	product, err := productRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("productRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return product
}

// SeedEntry creates an Entry unlinked to any purchase inside a test transaction.
func SeedEntry(t *testing.T, tx dbpkg.SQLInterface, amount string, accountID int32) domain.Entry {
	t.Helper()

	entryRepo := entryrepo.NewRepoPGS(tx)

	entry, err := entryRepo.Create(context.Background(), amount, accountID, uuid.NullUUID{})
	if err != nil {
		t.Fatalf("entryRepo.Create(context.Background(), %v, %v) returned error: %v",
			amount, accountID, err)
	}

	return entry
}

// SeedEntries creates Entries with random amounts inside a test transaction.
func SeedEntries(t *testing.T, tx dbpkg.SQLInterface, count, accountID int32) []domain.Entry {
	t.Helper()

	entries := make([]domain.Entry, count)

	for i := range entries {
		entries[i] = SeedEntry(t, tx, randompkg.MoneyAmountBetween(1, 1000), accountID)
	}

	return entries
}
