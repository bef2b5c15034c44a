package postgres

import (
	"context"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository over the append-only transactions table.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, kind, amount, timestamp)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := on(r.pool, tx).Exec(ctx, query, t.ID, t.WalletID, string(t.Kind), t.Amount.String(), t.Timestamp)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// SumAmounts is served by the (wallet_id, kind, timestamp) index.
func (r *TransactionRepo) SumAmounts(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind domain.TransactionKind, after time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0)::text FROM transactions
		WHERE wallet_id = $1 AND kind = $2 AND timestamp > $3`

	var raw string
	if err := on(r.pool, tx).QueryRow(ctx, query, walletID, string(kind), after).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse sum %q: %w", raw, err)
	}
	return sum, nil
}

// ListByWallet returns one newest-first window of the wallet's ledger and its total size.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE wallet_id = $1`, walletID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	query := `SELECT id, wallet_id, kind, amount::text, timestamp FROM transactions
		WHERE wallet_id = $1 ORDER BY timestamp DESC, id DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txns := []domain.Transaction{}
	for rows.Next() {
		var (
			t      domain.Transaction
			kind   string
			amount string
		)
		if err := rows.Scan(&t.ID, &t.WalletID, &kind, &amount, &t.Timestamp); err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		t.Kind = domain.TransactionKind(kind)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, 0, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

var _ ports.TransactionRepository = (*TransactionRepo)(nil)
