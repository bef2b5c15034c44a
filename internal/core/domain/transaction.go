package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a balance change.
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "DEPOSIT"
	TransactionKindWithdrawal TransactionKind = "WITHDRAWAL"
)

// Valid reports whether k is a known kind.
func (k TransactionKind) Valid() bool {
	return k == TransactionKindDeposit || k == TransactionKindWithdrawal
}

// Transaction is an immutable ledger entry recording one successful mutation.
// WalletID is a lookup reference only; rows outlive the wallet they point to.
type Transaction struct {
	ID        uuid.UUID       `json:"id"`
	WalletID  uuid.UUID       `json:"wallet_id"`
	Kind      TransactionKind `json:"kind"`
	Amount    decimal.Decimal `json:"amount"` // Always > 0
	Timestamp time.Time       `json:"timestamp"`
}

// NewTransaction builds the ledger entry for a mutation of wallet.
func NewTransaction(wallet *Wallet, kind TransactionKind, amount decimal.Decimal, now time.Time) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		WalletID:  wallet.ID,
		Kind:      kind,
		Amount:    amount,
		Timestamp: now,
	}
}
