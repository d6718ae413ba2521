//go:build integration

package purchaserepo_test

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agromart/ledger/internal/accountrepo"
	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/entryrepo"
	"github.com/agromart/ledger/internal/integrationtest"
	"github.com/agromart/ledger/internal/integrationtest/helpers"
	"github.com/agromart/ledger/internal/middleware"
	"github.com/agromart/ledger/internal/productrepo"
	"github.com/agromart/ledger/internal/purchaserepo"
	"github.com/agromart/ledger/pkg/configpkg"
)

var (
	dbDriver string
	dbSource string
	ctx      context.Context
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	dbDriver = config.DBDriver
	dbSource = config.DBSource

	logger := middleware.CreateLogger(config)
	ctx = logger.WithContext(context.Background())

	os.Exit(m.Run())
}

func TestCreate(t *testing.T) {
	testCases := []struct {
		name         string
		wantPurchase func(tx *sql.Tx) domain.Purchase
		wantErr      error
	}{
		{
			name: "OK",
			wantPurchase: func(tx *sql.Tx) domain.Purchase {
				buyer := helpers.SeedAccountWith1000Balance(t, tx)
				seller := helpers.SeedAccountWith1000Balance(t, tx)
				product := helpers.SeedProduct(t, tx, seller.ID, "12.5", 10)

				return domain.Purchase{
					ID:           uuid.New(),
					BuyerID:      buyer.ID,
					SellerID:     seller.ID,
					ProductID:    product.ID,
					ProductTitle: product.Title,
					UnitPrice:    product.Price,
					Quantity:     2,
					Total:        "25",
					Status:       domain.StatusCompleted,
					CreatedAt:    time.Now().UTC().Truncate(time.Second),
				}
			},
		},
		{
			name: "ErrAccountNotFound",
			wantPurchase: func(tx *sql.Tx) domain.Purchase {
				seller := helpers.SeedAccountWith1000Balance(t, tx)
				product := helpers.SeedProduct(t, tx, seller.ID, "12.5", 10)

				return domain.Purchase{
					ID:           uuid.New(),
					BuyerID:      0,
					SellerID:     seller.ID,
					ProductID:    product.ID,
					ProductTitle: product.Title,
					UnitPrice:    product.Price,
					Quantity:     2,
					Total:        "25",
					Status:       domain.StatusCompleted,
				}
			},
			wantErr: domain.ErrAccountNotFound,
		},
		{
			name: "ErrProductNotFound",
			wantPurchase: func(tx *sql.Tx) domain.Purchase {
				buyer := helpers.SeedAccountWith1000Balance(t, tx)
				seller := helpers.SeedAccountWith1000Balance(t, tx)

				return domain.Purchase{
					ID:           uuid.New(),
					BuyerID:      buyer.ID,
					SellerID:     seller.ID,
					ProductID:    uuid.New(),
					ProductTitle: "ghost",
					UnitPrice:    "1",
					Quantity:     1,
					Total:        "1",
					Status:       domain.StatusCompleted,
				}
			},
			wantErr: domain.ErrProductNotFound,
		},
		{
			name: "ErrInvalidQuantity",
			wantPurchase: func(tx *sql.Tx) domain.Purchase {
				buyer := helpers.SeedAccountWith1000Balance(t, tx)
				seller := helpers.SeedAccountWith1000Balance(t, tx)
				product := helpers.SeedProduct(t, tx, seller.ID, "12.5", 10)

				return domain.Purchase{
					ID:           uuid.New(),
					BuyerID:      buyer.ID,
					SellerID:     seller.ID,
					ProductID:    product.ID,
					ProductTitle: product.Title,
					UnitPrice:    product.Price,
					Quantity:     0,
					Total:        "0",
					Status:       domain.StatusCompleted,
				}
			},
			wantErr: domain.ErrInvalidQuantity,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			want := tc.wantPurchase(tx)
			purchaseRepo := purchaserepo.NewTxRepoPGS(tx)

			got, err := purchaseRepo.Create(context.Background(), want)
			if err != nil {
				if err == tc.wantErr {
					return
				}
				t.Fatalf(`purchaseRepo.Create(context.Background(), %+v) returned error: %v`,
					want, err.Error())
			}

			compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
			if diff := cmp.Diff(want, got, compareCreatedAt); diff != "" {
				t.Errorf(`purchaseRepo.Create(context.Background(), %+v) returned unexpected difference (-want +got):\n%s"`,
					want, diff)
			}
		})
	}
}

func SeedPurchase(t *testing.T, tx *sql.Tx, buyerID int32, product domain.Product, quantity int32) domain.Purchase {
	t.Helper()

	purchaseRepo := purchaserepo.NewTxRepoPGS(tx)

	unitPrice, err := decimal.NewFromString(product.Price)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%v) returned error: %v", product.Price, err)
	}

	arg := domain.Purchase{
		ID:           uuid.New(),
		BuyerID:      buyerID,
		SellerID:     product.OwnerID,
		ProductID:    product.ID,
		ProductTitle: product.Title,
		UnitPrice:    product.Price,
		Quantity:     quantity,
		Total:        unitPrice.Mul(decimal.NewFromInt32(quantity)).String(),
		Status:       domain.StatusCompleted,
	}

	purchase, err := purchaseRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf(`purchaseRepo.Create(context.Background(), %+v) returned error: %v`,
			arg, err.Error())
	}

	return purchase
}

func TestGet(t *testing.T) {
	testCases := []struct {
		name         string
		wantPurchase func(tx *sql.Tx) domain.Purchase
		wantErr      error
	}{
		{
			name: "OK",
			wantPurchase: func(tx *sql.Tx) domain.Purchase {
				buyer := helpers.SeedAccountWith1000Balance(t, tx)
				seller := helpers.SeedAccountWith1000Balance(t, tx)
				product := helpers.SeedProduct(t, tx, seller.ID, "3", 10)

				return SeedPurchase(t, tx, buyer.ID, product, 2)
			},
		},
		{
			name: "ErrPurchaseNotFound",
			wantPurchase: func(tx *sql.Tx) domain.Purchase {
				return domain.Purchase{ID: uuid.New()}
			},
			wantErr: domain.ErrPurchaseNotFound,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)
			want := tc.wantPurchase(tx)
			purchaseRepo := purchaserepo.NewTxRepoPGS(tx)

			got, err := purchaseRepo.Get(context.Background(), want.ID)
			if err != nil {
				if err == tc.wantErr {
					return
				}
				t.Fatalf(`purchaseRepo.Get(context.Background(), %v) returned error: %v`,
					want.ID, err.Error())
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf(`purchaseRepo.Get(context.Background(), %v) returned unexpected difference (-want +got):\n%s"`,
					want.ID, diff)
			}
		})
	}
}

func TestListForAccount(t *testing.T) {
	const purchasesCount = 7

	testCases := []struct {
		name      string
		limit     int32
		offset    int32
		wantCount int
	}{
		{name: "ListAll", limit: 100, offset: 0, wantCount: purchasesCount},
		{name: "Limit3", limit: 3, offset: 0, wantCount: 3},
		{name: "Limit5Offset5", limit: 5, offset: 5, wantCount: purchasesCount - 5},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := integrationtest.SetupTX(t, dbDriver, dbSource)

			buyer := helpers.SeedAccountWith1000Balance(t, tx)
			seller := helpers.SeedAccountWith1000Balance(t, tx)
			product := helpers.SeedProduct(t, tx, seller.ID, "2", 100)

			want := make([]domain.Purchase, purchasesCount)
			for i := range want {
				want[i] = SeedPurchase(t, tx, buyer.ID, product, 1)
			}

			purchaseRepo := purchaserepo.NewTxRepoPGS(tx)

			got, err := purchaseRepo.ListForAccount(context.Background(), buyer.ID, tc.limit, tc.offset)
			if err != nil {
				t.Fatalf(`purchaseRepo.ListForAccount(context.Background(), %v, %v, %v) returned error: %v`,
					buyer.ID, tc.limit, tc.offset, err)
			}

			if len(got) != tc.wantCount {
				t.Errorf("len(got) = %v, want %v", len(got), tc.wantCount)
			}

			// The seller sees the same history.
			gotSeller, err := purchaseRepo.ListForAccount(context.Background(), seller.ID, 100, 0)
			if err != nil {
				t.Fatalf(`purchaseRepo.ListForAccount(context.Background(), %v, 100, 0) returned error: %v`,
					seller.ID, err)
			}

			sortByID := cmpopts.SortSlices(func(a, b domain.Purchase) bool {
				return a.ID.String() < b.ID.String()
			})
			if diff := cmp.Diff(want, gotSeller, sortByID); diff != "" {
				t.Errorf(`purchaseRepo.ListForAccount(context.Background(), %v, 100, 0) returned unexpected difference (-want +got):\n%s"`,
					seller.ID, diff)
			}
		})
	}
}

func TestPurchaseInventoryRace(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)

	buyer := helpers.SeedAccountWith1000Balance(t, db)
	seller := helpers.SeedAccountWith1000Balance(t, db)
	product := helpers.SeedProduct(t, db, seller.ID, "10", 1)

	purchaseRepo := purchaserepo.NewRepoPGS(db)

	// Only one unit exists so only one of the contenders may win it.
	n := 10
	arg := domain.CreatePurchaseParams{
		BuyerID:   buyer.ID,
		ProductID: product.ID,
		Quantity:  1,
	}

	type outcome struct {
		receipt domain.Receipt
		err     error
	}

	results := make(chan outcome)

	for i := 0; i < n; i++ {
		go func() {
			receipt, err := purchaseRepo.Purchase(ctx, arg)
			results <- outcome{receipt, err}
		}()
	}

	var wins, losses int

	var winner domain.Receipt

	for i := 0; i < n; i++ {
		res := <-results

		switch res.err {
		case nil:
			wins++
			winner = res.receipt
		case domain.ErrProductUnavailable, domain.ErrInsufficientInventory:
			losses++
		default:
			t.Fatalf("purchaseRepo.Purchase(ctx, %+v) returned unexpected error: %v", arg, res.err)
		}
	}

	if wins != 1 {
		t.Fatalf("wins = %v, want exactly 1", wins)
	}

	if losses != n-1 {
		t.Fatalf("losses = %v, want %v", losses, n-1)
	}

	if winner.RemainingQuantity != 0 {
		t.Errorf("winner.RemainingQuantity = %v, want 0", winner.RemainingQuantity)
	}

	if winner.BuyerBalance != "990" {
		t.Errorf("winner.BuyerBalance = %v, want 990", winner.BuyerBalance)
	}

	if winner.SellerBalance != "1010" {
		t.Errorf("winner.SellerBalance = %v, want 1010", winner.SellerBalance)
	}

	// The sold out listing leaves the marketplace.
	productRepo := productrepo.NewRepoPGS(db)

	soldOut, err := productRepo.Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("productRepo.Get(ctx, %v) returned error: %v", product.ID, err)
	}

	if soldOut.Active {
		t.Error("soldOut.Active = true, want false")
	}

	if soldOut.Quantity != 0 {
		t.Errorf("soldOut.Quantity = %v, want 0", soldOut.Quantity)
	}

	// Losing attempts must leave no partial state behind.
	checkLedger(t, db, buyer.ID, "990", 1)
	checkLedger(t, db, seller.ID, "1010", 1)
}

func TestPurchaseFundsRace(t *testing.T) {
	db := integrationtest.SetupDB(t, dbDriver, dbSource)

	buyer := helpers.SeedAccountWith1000Balance(t, db)
	seller := helpers.SeedAccountWith1000Balance(t, db)
	product := helpers.SeedProduct(t, db, seller.ID, "400", 100)

	purchaseRepo := purchaserepo.NewRepoPGS(db)

	// The buyer can afford exactly two units.
	n := 5
	arg := domain.CreatePurchaseParams{
		BuyerID:   buyer.ID,
		ProductID: product.ID,
		Quantity:  1,
	}

	errs := make(chan error)

	for i := 0; i < n; i++ {
		go func() {
			_, err := purchaseRepo.Purchase(ctx, arg)
			errs <- err
		}()
	}

	var wins, losses int

	for i := 0; i < n; i++ {
		switch err := <-errs; err {
		case nil:
			wins++
		case domain.ErrInsufficientFunds:
			losses++
		default:
			t.Fatalf("purchaseRepo.Purchase(ctx, %+v) returned unexpected error: %v", arg, err)
		}
	}

	if wins != 2 {
		t.Fatalf("wins = %v, want exactly 2", wins)
	}

	if losses != n-2 {
		t.Fatalf("losses = %v, want %v", losses, n-2)
	}

	productRepo := productrepo.NewRepoPGS(db)

	updatedProduct, err := productRepo.Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("productRepo.Get(ctx, %v) returned error: %v", product.ID, err)
	}

	if updatedProduct.Quantity != 98 {
		t.Errorf("updatedProduct.Quantity = %v, want 98", updatedProduct.Quantity)
	}

	checkLedger(t, db, buyer.ID, "200", 2)
	checkLedger(t, db, seller.ID, "1800", 2)
}

// checkLedger verifies that the account balance moved in lockstep with its
// entry history: balance = 1000 seed + sum of entry amounts.
func checkLedger(t *testing.T, db *sql.DB, accountID int32, wantBalance string, wantEntries int) {
	t.Helper()

	accountRepo := accountrepo.NewConnRepoPGS(db)

	account, err := accountRepo.Get(ctx, accountID)
	if err != nil {
		t.Fatalf("accountRepo.Get(ctx, %v) returned error: %v", accountID, err)
	}

	gotBalance, err := decimal.NewFromString(account.Balance)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%v) returned error: %v", account.Balance, err)
	}

	if !gotBalance.Equal(decimal.RequireFromString(wantBalance)) {
		t.Errorf("account %v balance = %v, want %v", accountID, account.Balance, wantBalance)
	}

	entryRepo := entryrepo.NewRepoPGS(db)

	entries, err := entryRepo.List(ctx, accountID, 100, 0)
	if err != nil {
		t.Fatalf("entryRepo.List(ctx, %v, 100, 0) returned error: %v", accountID, err)
	}

	if len(entries) != wantEntries {
		t.Fatalf("len(entries) = %v, want %v", len(entries), wantEntries)
	}

	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.RequireFromString(e.Amount))

		if !e.PurchaseID.Valid {
			t.Errorf("entry %v has no purchase reference, want one", e.ID)
		}
	}

	wantSum := decimal.RequireFromString(wantBalance).Sub(decimal.NewFromInt(1000))
	if !sum.Equal(wantSum) {
		t.Errorf("sum of entries = %v, want %v", sum, wantSum)
	}
}
