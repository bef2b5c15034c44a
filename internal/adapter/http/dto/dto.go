package dto

import (
	"time"

	"wallet-service/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	UserID string `json:"user_id" binding:"required,max=64,safe_id"`
}

// AmountRequest is the request body for deposits and withdrawals.
// Amount accepts a JSON string ("12.50") or number; strings keep full precision.
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount" binding:"required"`
}

// PageQuery holds the optional paging query parameters.
type PageQuery struct {
	Page *int `form:"page"`
	Size *int `form:"size"`
}

// Paged reports whether either paging parameter was supplied.
func (q PageQuery) Paged() bool {
	return q.Page != nil || q.Size != nil
}

// Resolve returns page and size, falling back to defaultSize when size is absent.
func (q PageQuery) Resolve(defaultSize int) (int, int) {
	page, size := 1, defaultSize
	if q.Page != nil {
		page = *q.Page
	}
	if q.Size != nil {
		size = *q.Size
	}
	return page, size
}

// WalletResponse is the response body for a wallet.
type WalletResponse struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	Balance           string  `json:"balance"`
	DailyDepositLimit string  `json:"daily_deposit_limit"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
	CreatedBy         *string `json:"created_by,omitempty"`
	CreatedByUsername string  `json:"created_by_username,omitempty"`
	UpdatedBy         *string `json:"updated_by,omitempty"`
	UpdatedByUsername string  `json:"updated_by_username,omitempty"`
}

// TransactionResponse is the response body for a ledger entry.
type TransactionResponse struct {
	ID        string `json:"id"`
	WalletID  string `json:"wallet_id"`
	Kind      string `json:"kind"`
	Amount    string `json:"amount"`
	Timestamp string `json:"timestamp"`
}

// PageResponse is the paged list envelope.
type PageResponse[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// NewWalletResponse converts a domain wallet.
func NewWalletResponse(w *domain.Wallet) WalletResponse {
	resp := WalletResponse{
		ID:                w.ID.String(),
		UserID:            w.UserID,
		Balance:           w.Balance.String(),
		DailyDepositLimit: w.DailyDepositLimit.String(),
		CreatedAt:         w.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:         w.UpdatedAt.UTC().Format(time.RFC3339Nano),
		CreatedByUsername: w.CreatedByUsername,
		UpdatedByUsername: w.UpdatedByUsername,
	}
	if w.CreatedBy != nil {
		s := w.CreatedBy.String()
		resp.CreatedBy = &s
	}
	if w.UpdatedBy != nil {
		s := w.UpdatedBy.String()
		resp.UpdatedBy = &s
	}
	return resp
}

// NewWalletList converts a slice of wallets; the result is never nil.
func NewWalletList(wallets []domain.Wallet) []WalletResponse {
	out := make([]WalletResponse, 0, len(wallets))
	for i := range wallets {
		out = append(out, NewWalletResponse(&wallets[i]))
	}
	return out
}

// NewTransactionResponse converts a ledger entry.
func NewTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:        t.ID.String(),
		WalletID:  t.WalletID.String(),
		Kind:      string(t.Kind),
		Amount:    t.Amount.String(),
		Timestamp: t.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// NewWalletPage converts a page of wallets.
func NewWalletPage(p *domain.Page[domain.Wallet]) PageResponse[WalletResponse] {
	return PageResponse[WalletResponse]{
		Data:        NewWalletList(p.Items),
		CurrentPage: p.CurrentPage,
		PageSize:    p.PageSize,
		TotalItems:  p.TotalItems,
		TotalPages:  p.TotalPages,
	}
}

// NewTransactionPage converts a page of ledger entries.
func NewTransactionPage(p *domain.Page[domain.Transaction]) PageResponse[TransactionResponse] {
	data := make([]TransactionResponse, 0, len(p.Items))
	for i := range p.Items {
		data = append(data, NewTransactionResponse(&p.Items[i]))
	}
	return PageResponse[TransactionResponse]{
		Data:        data,
		CurrentPage: p.CurrentPage,
		PageSize:    p.PageSize,
		TotalItems:  p.TotalItems,
		TotalPages:  p.TotalPages,
	}
}
