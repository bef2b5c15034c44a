package handler

import (
	"errors"
	"net/http"

	"wallet-service/internal/adapter/http/dto"
	"wallet-service/internal/adapter/http/middleware"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DefaultPageSize applies when a paged request omits size.
const DefaultPageSize = 20

// WalletHandler handles wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	wallet, err := h.walletSvc.Create(c.Request.Context(), req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Set(middleware.CtxCreatedUserID, wallet.UserID)
	response.Created(c, dto.NewWalletResponse(wallet))
}

// List handles GET /api/v1/wallets. Supplying page or size switches to the paged response.
func (h *WalletHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation("page and size must be integers"))
		return
	}

	if !q.Paged() {
		wallets, err := h.walletSvc.List(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, dto.NewWalletList(wallets))
		return
	}

	page, size := q.Resolve(DefaultPageSize)
	result, err := h.walletSvc.ListPaged(c.Request.Context(), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletPage(result))
}

// Get handles GET /api/v1/wallets/:userId.
func (h *WalletHandler) Get(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	wallet, err := h.walletSvc.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Deposit handles POST /api/v1/wallets/:userId/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	amount, ok := amountBody(c)
	if !ok {
		return
	}

	wallet, err := h.walletSvc.Deposit(c.Request.Context(), userID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Withdraw handles POST /api/v1/wallets/:userId/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}
	amount, ok := amountBody(c)
	if !ok {
		return
	}

	wallet, err := h.walletSvc.Withdraw(c.Request.Context(), userID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewWalletResponse(wallet))
}

// Delete handles DELETE /api/v1/wallets/:userId.
func (h *WalletHandler) Delete(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if err := h.walletSvc.Delete(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTransactions handles GET /api/v1/wallets/:userId/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, apperror.Validation("page and size must be integers"))
		return
	}
	page, size := q.Resolve(DefaultPageSize)

	result, err := h.walletSvc.ListTransactions(c.Request.Context(), userID, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewTransactionPage(result))
}

func userIDParam(c *gin.Context) (string, bool) {
	userID := c.Param("userId")
	if !dto.ValidUserID(userID) {
		response.Error(c, apperror.Validation("invalid user id"))
		return "", false
	}
	return userID, true
}

func amountBody(c *gin.Context) (decimal.Decimal, bool) {
	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return decimal.Zero, false
	}
	if !req.Amount.IsPositive() {
		response.Error(c, apperror.ErrInvalidAmount())
		return decimal.Zero, false
	}
	return *req.Amount, true
}

func bindError(err error) *apperror.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrBodyTooLarge(tooLarge.Limit)
	}
	return apperror.Validation(err.Error())
}
