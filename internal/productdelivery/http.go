// Package productdelivery manages delivery layer of product listings.
package productdelivery

import (
	"context"
	"net/http"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/middleware"
	"github.com/agromart/ledger/internal/productservice"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/agromart/ledger/pkg/jsonresponse"
	"github.com/agromart/ledger/pkg/tokenpkg"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by product delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package productdelivery
type Service interface {
	Create(ctx context.Context, ownerUsername string, arg productservice.CreateParams) (domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Product, error)
	List(ctx context.Context, filter domain.ListProductsParams, pageSize, pageID int32) ([]domain.Product, error)
	Deactivate(ctx context.Context, ownerUsername string, id uuid.UUID) (domain.Product, error)
}

// Handler facilitates product delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns product handler.
func NewHandler(ps Service) *Handler {
	return &Handler{service: ps}
}

type data struct {
	Product domain.Product `json:"product"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

type createRequest struct {
	Title    string `json:"title" binding:"required"`
	Category string `json:"category" binding:"required"`
	Price    string `json:"price" binding:"required"`
	Quantity int32  `json:"quantity" binding:"required,min=1"`
}

// Create handles http request to list a product for sale.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	product, err := h.service.Create(ctx, authPayload.Username, productservice.CreateParams{
		Title:    req.Title,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrInvalidPrice, domain.ErrInvalidQuantity:
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

			return
		case domain.ErrAccountNotFound, domain.ErrOwnerNotFound:
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusCreated, response{Data: data{product}})
}

type getRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Get handles http request to get a single product.
func (h *Handler) Get(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	product, err := h.service.Get(ctx, uuid.MustParse(req.ID))
	if err != nil {
		l.Info().Err(err).Send()

		if err == domain.ErrProductNotFound {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{product}})
}

type listRequest struct {
	TitleQuery string `form:"q"`
	Category   string `form:"category"`
	MinPrice   string `form:"min_price"`
	MaxPrice   string `form:"max_price"`
	PageID     int32  `form:"page_id" binding:"required,min=1"`
	PageSize   int32  `form:"page_size" binding:"required,min=1,max=100"`
}

type productsData struct {
	Products []domain.Product `json:"products"`
}

type productsResponse struct {
	Data productsData `json:"data,omitempty"`
}

// List handles http request to browse active products.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	filter := domain.ListProductsParams{
		TitleQuery: req.TitleQuery,
		Category:   req.Category,
		MinPrice:   req.MinPrice,
		MaxPrice:   req.MaxPrice,
	}

	products, err := h.service.List(ctx, filter, req.PageSize, req.PageID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, productsResponse{Data: productsData{products}})
}

// Deactivate handles http request to take the caller's product off the marketplace.
func (h *Handler) Deactivate(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req getRequest
	if err := gctx.ShouldBindUri(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	product, err := h.service.Deactivate(ctx, authPayload.Username, uuid.MustParse(req.ID))
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrProductNotFound, domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		case domain.ErrProductOwnerMismatch:
			gctx.JSON(http.StatusUnauthorized, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{product}})
}
