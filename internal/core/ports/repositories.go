package ports

import (
	"context"
	"errors"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/repositories.go -package=mocks wallet-service/internal/core/ports WalletRepository,TransactionRepository,AuditRepository,DBTransactor

var (
	// ErrDuplicateWallet is returned when the unique user_id constraint rejects an insert.
	ErrDuplicateWallet = errors.New("wallet already exists for user")
	// ErrStaleVersion is returned when an optimistic update lost the race against another writer,
	// or the row disappeared underneath it.
	ErrStaleVersion = errors.New("wallet version is stale")
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx participate in the caller's unit of work.
type WalletRepository interface {
	// Create inserts a wallet. Returns ErrDuplicateWallet on a user_id collision.
	Create(ctx context.Context, wallet *domain.Wallet) error
	// GetByUserID returns nil, nil when no wallet exists.
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error)
	// UpdateBalance persists balance and audit fields if the stored version still equals
	// wallet.Version, then increments wallet.Version. Returns ErrStaleVersion otherwise.
	UpdateBalance(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	// DeleteByUserID removes the wallet row and reports the number of rows affected.
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
	Count(ctx context.Context) (int64, error)
	// List returns wallets in insertion order.
	List(ctx context.Context, limit, offset int) ([]domain.Wallet, error)
	ListAll(ctx context.Context) ([]domain.Wallet, error)
}

// TransactionRepository defines persistence operations for the append-only ledger.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	// SumAmounts totals the amounts of kind for walletID with timestamp strictly after `after`.
	SumAmounts(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind domain.TransactionKind, after time.Time) (decimal.Decimal, error)
	// ListByWallet returns the newest-first page and the total row count.
	ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error)
}

// AuditRepository persists audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
