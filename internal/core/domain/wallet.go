package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a per-user monetary balance with a fixed daily deposit cap.
// Balance never goes below zero; UserID is unique across all wallets.
type Wallet struct {
	ID                uuid.UUID       `json:"id"`
	UserID            string          `json:"user_id"`
	Balance           decimal.Decimal `json:"balance"`
	DailyDepositLimit decimal.Decimal `json:"daily_deposit_limit"`
	Version           int64           `json:"version"` // Optimistic concurrency token
	Audit
}

// NewWallet returns an empty wallet for userID created at now.
func NewWallet(userID string, dailyLimit decimal.Decimal, actor Actor, now time.Time) *Wallet {
	w := &Wallet{
		ID:                uuid.New(),
		UserID:            userID,
		Balance:           decimal.Zero,
		DailyDepositLimit: dailyLimit,
	}
	w.Audit.Created(actor, now)
	return w
}

// CanWithdraw reports whether balance - amount stays non-negative.
func (w *Wallet) CanWithdraw(amount decimal.Decimal) bool {
	return !w.Balance.Sub(amount).IsNegative()
}

// Credit adds amount to the balance.
func (w *Wallet) Credit(amount decimal.Decimal, actor Actor, now time.Time) {
	w.Balance = w.Balance.Add(amount)
	w.Audit.Updated(actor, now)
}

// Debit subtracts amount from the balance. Callers check CanWithdraw first.
func (w *Wallet) Debit(amount decimal.Decimal, actor Actor, now time.Time) {
	w.Balance = w.Balance.Sub(amount)
	w.Audit.Updated(actor, now)
}
