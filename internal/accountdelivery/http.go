// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"net/http"

	"github.com/agromart/ledger/internal/domain"
	"github.com/agromart/ledger/internal/middleware"
	"github.com/agromart/ledger/pkg/errorspkg"
	"github.com/agromart/ledger/pkg/jsonresponse"
	"github.com/agromart/ledger/pkg/tokenpkg"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	GetByOwner(ctx context.Context, owner string) (domain.Account, error)
	Deposit(ctx context.Context, owner, amount string) (domain.Account, domain.Entry, error)
	ListEntries(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Entry, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns account handler.
func NewHandler(as Service) *Handler {
	return &Handler{service: as}
}

type data struct {
	Account domain.Account `json:"account"`
}

type response struct {
	Data data `json:"data,omitempty"`
}

// GetMe handles http request to get the caller's account.
func (h *Handler) GetMe(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	acc, err := h.service.GetByOwner(ctx, authPayload.Username)
	if err != nil {
		l.Info().Err(err).Send()

		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, response{Data: data{acc}})
}

type depositRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type depositData struct {
	Account domain.Account `json:"account"`
	Entry   domain.Entry   `json:"entry"`
}

type depositResponse struct {
	Data depositData `json:"data,omitempty"`
}

// Deposit handles http request to credit the caller's account.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req depositRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	account, entry, err := h.service.Deposit(ctx, authPayload.Username, req.Amount)
	if err != nil {
		l.Info().Err(err).Send()

		switch err {
		case domain.ErrInvalidAmount, domain.ErrNegativeAmount:
			gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

			return
		case domain.ErrAccountNotFound:
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))

			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, depositResponse{Data: depositData{account, entry}})
}

type listEntriesRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type entriesData struct {
	Entries []domain.Entry `json:"entries"`
}

type entriesResponse struct {
	Data entriesData `json:"data,omitempty"`
}

// ListEntries handles http request to list the caller's balance history.
func (h *Handler) ListEntries(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	var req listEntriesRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, jsonresponse.Error(err))

		return
	}

	authPayload := gctx.MustGet(middleware.AuthPayloadKey).(*tokenpkg.Payload)

	entries, err := h.service.ListEntries(ctx, authPayload.Username, req.PageSize, req.PageID)
	if err != nil {
		l.Info().Err(err).Send()

		if err == domain.ErrAccountNotFound {
			gctx.JSON(http.StatusNotFound, jsonresponse.Error(err))
			return
		}

		gctx.JSON(http.StatusInternalServerError, jsonresponse.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, entriesResponse{Data: entriesData{entries}})
}
