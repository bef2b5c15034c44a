package memory

import (
	"context"
	"sort"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	store *Store
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(store *Store) *TransactionRepo {
	return &TransactionRepo{store: store}
}

// Create appends to tx; the row becomes visible to others on commit.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mt, err := asTx(r.store, tx)
	if err != nil {
		return err
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if err := mt.checkOpen(); err != nil {
		return err
	}
	mt.transactions = append(mt.transactions, *transaction)
	return nil
}

// SumAmounts includes rows appended earlier in the same tx.
func (r *TransactionRepo) SumAmounts(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, kind domain.TransactionKind, after time.Time) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	match := func(t domain.Transaction) {
		if t.WalletID == walletID && t.Kind == kind && t.Timestamp.After(after) {
			sum = sum.Add(t.Amount)
		}
	}

	if tx != nil {
		mt, err := asTx(r.store, tx)
		if err != nil {
			return decimal.Zero, err
		}
		mt.mu.Lock()
		for _, t := range mt.transactions {
			match(t)
		}
		mt.mu.Unlock()
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, row := range r.store.transactions {
		match(row.txn)
	}
	return sum, nil
}

// ListByWallet returns committed rows newest first.
func (r *TransactionRepo) ListByWallet(ctx context.Context, walletID uuid.UUID, limit, offset int) ([]domain.Transaction, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.store.mu.RLock()
	var rows []transactionRow
	for _, row := range r.store.transactions {
		if row.txn.WalletID == walletID {
			rows = append(rows, row)
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].txn.Timestamp.Equal(rows[j].txn.Timestamp) {
			return rows[i].txn.Timestamp.After(rows[j].txn.Timestamp)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]domain.Transaction, len(rows))
	for i, row := range rows {
		out[i] = row.txn
	}
	return window(out, limit, offset), int64(len(out)), nil
}
