// Package purchasedelivery manages delivery layer of purchases.
package purchasedelivery

import (
	"context"
	"net/http"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/middleware"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/agromart/ledger/pkg/jsonresponse"
	"github.com/agromart/ledger/pkg/metricspkg"
	"github.com/agromart/ledger/pkg/tokenpkg"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by purchase delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package purchasedelivery
type Service interface {
	Purchase(ctx context.Context, buyerUsername string, productID uuid.UUID, quantity int32) (domain.Receipt, error)
	Get(ctx context.Context, username string, id uuid.UUID) (domain.Purchase, error)
	List(ctx context.Context, username string, pageSize, pageID int32) ([]domain.Purchase, error)
}

// Handler facilitates purchase delivery layer logic.
type Handler struct {
	service   Service
	collector *metricspkg.Collector
}

// NewHandler returns purchase handler.
func NewHandler(ps Service, collector *metricspkg.Collector) *Handler {
	return &Handler{
		service:   ps,
		collector: collector,
	}
}

type request struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int32  `json:"quantity" binding:"required,min=1"`
}

type data struct {
	Receipt domain.Receipt `json:"receipt"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// Create handles http request to purchase a product.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req request
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	receipt, err := h.service.Purchase(ctx, authPayload.Username, uuid.MustParse(req.ProductID), req.Quantity)
	if err != nil {
		l.Info().Err(err).Send()
		h.collector.PurchaseRejected(err.Error())

		switch err {
		case domain.ErrProductUnavailable:
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		case
			domain.ErrInvalidQuantity,
			domain.ErrInsufficientInventory,
			domain.ErrInsufficientFunds:
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

			return
		case domain.ErrSelfPurchaseNotAllowed:
			gctx.JSON(http.StatusForbidden, jsonresponse.Error(err))

			return
		case domain.ErrConcurrentModification:
			gctx.JSON(http.StatusConflict, jsonresponse.Error(err))

			return
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	h.collector.PurchaseCompleted()

	gctx.JSON(http.StatusOK, response{Data: data{receipt}})
}

type getRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type purchaseData struct {
	Purchase domain.Purchase `json:"purchase"`
}

type purchaseResponse struct {
	Data purchaseData `json:"data,omitempty"`
}

// Get handles http request to fetch one purchase the caller took part in.
// Lets a client that lost the response discover whether its purchase
// committed.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	purchase, err := h.service.Get(ctx, authPayload.Username, uuid.MustParse(req.ID))
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrPurchaseNotFound, domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, purchaseResponse{Data: purchaseData{purchase}})
}

type listRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type purchasesData struct {
	Purchases []domain.Purchase `json:"purchases"`
}

type purchasesResponse struct {
	Data purchasesData `json:"data,omitempty"`
}

// List handles http request to list the caller's purchase history.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	purchases, err := h.service.List(ctx, authPayload.Username, req.PageSize, req.PageID)
	if err != nil {
		l.Info().Err(err).Send()

		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, purchasesResponse{Data: purchasesData{purchases}})
}
