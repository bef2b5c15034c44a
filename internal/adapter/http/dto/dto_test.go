package dto

import (
	"testing"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWalletResponse(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	w := domain.NewWallet("u1", decimal.RequireFromString("1000"), domain.Actor{ID: &actorID, Username: "ops"}, now)
	w.Balance = decimal.RequireFromString("12.50")

	resp := NewWalletResponse(w)

	assert.Equal(t, w.ID.String(), resp.ID)
	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "12.5", resp.Balance)
	assert.Equal(t, "1000", resp.DailyDepositLimit)
	assert.Equal(t, "2026-03-01T12:00:00Z", resp.CreatedAt)
	require.NotNil(t, resp.CreatedBy)
	assert.Equal(t, actorID.String(), *resp.CreatedBy)
	assert.Equal(t, "ops", resp.UpdatedByUsername)
}

func TestNewWalletResponse_Anonymous(t *testing.T) {
	w := domain.NewWallet("u1", decimal.Zero, domain.Actor{}, time.Now())

	resp := NewWalletResponse(w)

	assert.Nil(t, resp.CreatedBy)
	assert.Nil(t, resp.UpdatedBy)
	assert.Empty(t, resp.CreatedByUsername)
}

func TestNewWalletList_NeverNil(t *testing.T) {
	list := NewWalletList(nil)
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestNewTransactionPage(t *testing.T) {
	w := domain.NewWallet("u1", decimal.Zero, domain.Actor{}, time.Now())
	tx := domain.NewTransaction(w, domain.TransactionKindWithdrawal, decimal.RequireFromString("40"), time.Now())
	page := domain.NewPage([]domain.Transaction{*tx}, 1, 10, 1)

	resp := NewTransactionPage(&page)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "WITHDRAWAL", resp.Data[0].Kind)
	assert.Equal(t, "40", resp.Data[0].Amount)
	assert.Equal(t, w.ID.String(), resp.Data[0].WalletID)
	assert.Equal(t, 1, resp.TotalPages)
}
