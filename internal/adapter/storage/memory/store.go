// Package memory is an in-process Ledger Store. It honours the same contracts as the
// PostgreSQL adapter, including optimistic versioning and atomic commit, so it can back
// local runs and concurrency tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// ErrForeignTx is returned when a repository receives a pgx.Tx it did not create.
var ErrForeignTx = errors.New("memory: transaction was not started by this store")

type walletRow struct {
	wallet domain.Wallet
	seq    int64
}

type transactionRow struct {
	txn domain.Transaction
	seq int64
}

// Store holds all rows behind a single RW mutex.
type Store struct {
	mu           sync.RWMutex
	seq          int64
	wallets      map[string]*walletRow // keyed by user id
	transactions []transactionRow
	audits       []domain.AuditLog
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{wallets: make(map[string]*walletRow)}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// sortedWallets returns copies ordered by insertion. Caller holds s.mu.
func (s *Store) sortedWallets() []domain.Wallet {
	rows := make([]*walletRow, 0, len(s.wallets))
	for _, r := range s.wallets {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]domain.Wallet, len(rows))
	for i, r := range rows {
		out[i] = r.wallet
	}
	return out
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Name implements ports.HealthChecker.
func (s *Store) Name() string {
	return "memory"
}

// AuditLogs returns a snapshot of persisted audit entries.
func (s *Store) AuditLogs() []domain.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditLog(nil), s.audits...)
}

// Transactor implements ports.DBTransactor.
type Transactor struct {
	store *Store
}

// NewTransactor creates a transactor over store.
func NewTransactor(store *Store) *Transactor {
	return &Transactor{store: store}
}

// Begin starts a unit of work. Writes stay private to the Tx until Commit.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: t.store, wallets: make(map[string]*pendingWallet)}, nil
}

func asTx(store *Store, tx pgx.Tx) (*Tx, error) {
	mt, ok := tx.(*Tx)
	if !ok || mt.store != store {
		return nil, ErrForeignTx
	}
	return mt, nil
}

var (
	_ ports.WalletRepository      = (*WalletRepo)(nil)
	_ ports.TransactionRepository = (*TransactionRepo)(nil)
	_ ports.AuditRepository       = (*AuditRepo)(nil)
	_ ports.DBTransactor          = (*Transactor)(nil)
	_ ports.HealthChecker         = (*Store)(nil)
)
