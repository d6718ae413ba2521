package purchasedelivery

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/middleware"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/agromart/ledger/pkg/metricspkg"
	"github.com/agromart/ledger/pkg/randompkg"
	"github.com/agromart/ledger/pkg/tokenpkg"
	"github.com/agromart/ledger/pkg/web"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func randomPurchase(buyerID, sellerID int32) domain.Purchase {
	return domain.Purchase{
		ID:           uuid.New(),
		BuyerID:      buyerID,
		SellerID:     sellerID,
		ProductID:    uuid.New(),
		ProductTitle: randompkg.String(12),
		UnitPrice:    "25.5",
		Quantity:     4,
		Total:        "102",
		Status:       domain.StatusCompleted,
		CreatedAt:    time.Now().Truncate(time.Second).UTC(),
	}
}

func TestCreate(t *testing.T) {
	username := randompkg.Owner()
	purchase := randomPurchase(1, 2)
	receipt := domain.Receipt{
		Purchase:          purchase,
		BuyerBalance:      "898",
		SellerBalance:     "1102",
		RemainingQuantity: 6,
	}
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	authType := middleware.AuthorizationTypeBearer
	duration := time.Minute

	type requestBody struct {
		ProductID string `json:"product_id"`
		Quantity  int32  `json:"quantity"`
	}

	validBody := requestBody{
		ProductID: purchase.ProductID.String(),
		Quantity:  purchase.Quantity,
	}

	testCases := []struct {
		name           string
		requestBody    requestBody
		setupAuth      func(t *testing.T, r *http.Request)
		buildStubs     func(purchaseService *MockService)
		wantStatusCode int
		wantError      string
		checkData      func(data any)
	}{
		{
			name:        "OK",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(receipt, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(data any) {
				got, ok := data.(*struct {
					Receipt domain.Receipt `json:"receipt"`
				})
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(receipt, got.Receipt, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:        "NoAuthorization",
			requestBody: validBody,
			setupAuth:   func(t *testing.T, r *http.Request) {},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "authorization header is not provided",
		},
		{
			name: "InvalidProductID",
			requestBody: requestBody{
				ProductID: "not-a-uuid",
				Quantity:  1,
			},
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "ZeroQuantity",
			requestBody: requestBody{
				ProductID: purchase.ProductID.String(),
			},
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:        "ErrProductUnavailable",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, domain.ErrProductUnavailable)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrProductUnavailable.Error(),
		},
		{
			name:        "ErrInsufficientInventory",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, domain.ErrInsufficientInventory)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInsufficientInventory.Error(),
		},
		{
			name:        "ErrInsufficientFunds",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, domain.ErrInsufficientFunds)
			},
			wantStatusCode: http.StatusBadRequest,
			wantError:      domain.ErrInsufficientFunds.Error(),
		},
		{
			name:        "ErrSelfPurchaseNotAllowed",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, domain.ErrSelfPurchaseNotAllowed)
			},
			wantStatusCode: http.StatusForbidden,
			wantError:      domain.ErrSelfPurchaseNotAllowed.Error(),
		},
		{
			name:        "ErrConcurrentModification",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, domain.ErrConcurrentModification)
			},
			wantStatusCode: http.StatusConflict,
			wantError:      domain.ErrConcurrentModification.Error(),
		},
		{
			name:        "ErrAccountNotFound",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name:        "InternalError",
			requestBody: validBody,
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Purchase(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ProductID), gomock.Eq(purchase.Quantity)).
					Times(1).
					Return(domain.Receipt{}, sql.ErrConnDone)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			purchaseService := NewMockService(ctrl)
			purchaseHandler := NewHandler(purchaseService, metricspkg.NewCollector())

			server := gin.New()
			server.Use(middleware.AuthMiddleware(tokenMaker))
			server.POST("/purchases", purchaseHandler.Create)

			tc.buildStubs(purchaseService)

			body, err := json.Marshal(tc.requestBody)
			if err != nil {
				t.Fatalf("Encoding request body error: %v", err)
			}

			req, err := http.NewRequest(http.MethodPost, "/purchases", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			tc.setupAuth(t, req)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{
				Data: &struct {
					Receipt domain.Receipt `json:"receipt"`
				}{},
			}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if tc.wantError != "" && res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(res.Data)
			}
		})
	}
}

func TestGet(t *testing.T) {
	username := randompkg.Owner()
	purchase := randomPurchase(1, 2)
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	authType := middleware.AuthorizationTypeBearer
	duration := time.Minute

	testCases := []struct {
		name           string
		id             string
		setupAuth      func(t *testing.T, r *http.Request)
		buildStubs     func(purchaseService *MockService)
		wantStatusCode int
		wantError      string
		checkData      func(data any)
	}{
		{
			name: "OK",
			id:   purchase.ID.String(),
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Get(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ID)).
					Times(1).
					Return(purchase, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(data any) {
				got, ok := data.(*struct {
					Purchase domain.Purchase `json:"purchase"`
				})
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(purchase, got.Purchase, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:      "NoAuthorization",
			id:        purchase.ID.String(),
			setupAuth: func(t *testing.T, r *http.Request) {},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "authorization header is not provided",
		},
		{
			name: "InvalidID",
			id:   "not-a-uuid",
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "ErrPurchaseNotFound",
			id:   purchase.ID.String(),
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Get(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ID)).
					Times(1).
					Return(domain.Purchase{}, domain.ErrPurchaseNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrPurchaseNotFound.Error(),
		},
		{
			name: "InternalError",
			id:   purchase.ID.String(),
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					Get(gomock.Any(), gomock.Eq(username), gomock.Eq(purchase.ID)).
					Times(1).
					Return(domain.Purchase{}, sql.ErrConnDone)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			purchaseService := NewMockService(ctrl)
			purchaseHandler := NewHandler(purchaseService, metricspkg.NewCollector())

			server := gin.New()
			server.Use(middleware.AuthMiddleware(tokenMaker))
			server.GET("/purchases/:id", purchaseHandler.Get)

			tc.buildStubs(purchaseService)

			req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("/purchases/%v", tc.id), nil)
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			tc.setupAuth(t, req)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{
				Data: &struct {
					Purchase domain.Purchase `json:"purchase"`
				}{},
			}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if tc.wantError != "" && res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(res.Data)
			}
		})
	}
}

func TestList(t *testing.T) {
	username := randompkg.Owner()
	tokenSymmetricKey := randompkg.String(32)

	tokenMaker, err := tokenpkg.NewPasetoMaker(tokenSymmetricKey)
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker(%v) returned error: %v", tokenSymmetricKey, err)
	}

	authType := middleware.AuthorizationTypeBearer
	duration := time.Minute

	n := 5
	purchases := make([]domain.Purchase, n)

	for i := 0; i < n; i++ {
		purchases[i] = randomPurchase(1, int32(i+2))
	}

	testCases := []struct {
		name           string
		query          string
		setupAuth      func(t *testing.T, r *http.Request)
		buildStubs     func(purchaseService *MockService)
		wantStatusCode int
		wantError      string
		checkData      func(data any)
	}{
		{
			name:  "OK",
			query: "?page_id=1&page_size=5",
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					List(gomock.Any(), gomock.Eq(username), gomock.Eq(int32(5)), gomock.Eq(int32(1))).
					Times(1).
					Return(purchases, nil)
			},
			wantStatusCode: http.StatusOK,
			checkData: func(data any) {
				got, ok := data.(*struct {
					Purchases []domain.Purchase `json:"purchases"`
				})
				if !ok {
					t.Errorf(`res.Data=%v, failed type conversion`, data)
				}

				compareCreatedAt := cmpopts.EquateApproxTime(time.Second)
				if diff := cmp.Diff(purchases, got.Purchases, compareCreatedAt); diff != "" {
					t.Errorf("res.Data mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name:      "NoAuthorization",
			query:     "?page_id=1&page_size=5",
			setupAuth: func(t *testing.T, r *http.Request) {},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "authorization header is not provided",
		},
		{
			name:  "InvalidPageSize",
			query: "?page_id=1&page_size=0",
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					List(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Times(0)
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:  "ErrAccountNotFound",
			query: "?page_id=1&page_size=5",
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					List(gomock.Any(), gomock.Eq(username), gomock.Eq(int32(5)), gomock.Eq(int32(1))).
					Times(1).
					Return(nil, domain.ErrAccountNotFound)
			},
			wantStatusCode: http.StatusNotFound,
			wantError:      domain.ErrAccountNotFound.Error(),
		},
		{
			name:  "InternalError",
			query: "?page_id=1&page_size=5",
			setupAuth: func(t *testing.T, r *http.Request) {
				middleware.AddAuthorization(t, r, tokenMaker, authType, username, duration)
			},
			buildStubs: func(purchaseService *MockService) {
				purchaseService.EXPECT().
					List(gomock.Any(), gomock.Eq(username), gomock.Eq(int32(5)), gomock.Eq(int32(1))).
					Times(1).
					Return(nil, sql.ErrConnDone)
			},
			wantStatusCode: http.StatusInternalServerError,
			wantError:      errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			purchaseService := NewMockService(ctrl)
			purchaseHandler := NewHandler(purchaseService, metricspkg.NewCollector())

			server := gin.New()
			server.Use(middleware.AuthMiddleware(tokenMaker))
			server.GET("/purchases", purchaseHandler.List)

			tc.buildStubs(purchaseService)

			req, err := http.NewRequest(http.MethodGet, "/purchases"+tc.query, nil)
			if err != nil {
				t.Fatalf("Creating request error: %v", err)
			}

			tc.setupAuth(t, req)

			recorder := httptest.NewRecorder()
			server.ServeHTTP(recorder, req)

			if got := recorder.Code; got != tc.wantStatusCode {
				t.Errorf("Status code: got %v, want %v", got, tc.wantStatusCode)
			}

			res := web.Response{
				Data: &struct {
					Purchases []domain.Purchase `json:"purchases"`
				}{},
			}

			if err := json.NewDecoder(recorder.Body).Decode(&res); err != nil {
				t.Fatalf("Decoding response body error: %v", err)
			}

			if tc.wantStatusCode != http.StatusOK {
				if tc.wantError != "" && res.Error != tc.wantError {
					t.Errorf(`resp.Error=%q, want %q`, res.Error, tc.wantError)
				}
			} else {
				tc.checkData(res.Data)
			}
		})
	}
}
