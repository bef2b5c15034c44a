package memory

import (
	"context"
	"sync"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

type pendingWallet struct {
	wallet      domain.Wallet
	baseVersion int64 // version the store must still hold at commit
}

// Tx buffers wallet updates and ledger appends. Commit validates every buffered update
// against the current row version and applies all of them or none.
//
// Only Commit and Rollback are implemented; the remaining pgx.Tx methods are not
// used by the repositories and panic through the nil embedded interface.
type Tx struct {
	pgx.Tx

	store *Store

	mu           sync.Mutex
	wallets      map[string]*pendingWallet
	transactions []domain.Transaction
	closed       bool
}

// Commit applies the buffered writes atomically or returns ports.ErrStaleVersion.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for userID, p := range t.wallets {
		row, ok := s.wallets[userID]
		if !ok || row.wallet.ID != p.wallet.ID || row.wallet.Version != p.baseVersion {
			return ports.ErrStaleVersion
		}
	}

	for userID, p := range t.wallets {
		s.wallets[userID].wallet = p.wallet
	}
	for _, txn := range t.transactions {
		s.transactions = append(s.transactions, transactionRow{txn: txn, seq: s.nextSeq()})
	}
	return nil
}

// Rollback discards buffered writes. Like pgx, it reports ErrTxClosed after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return pgx.ErrTxClosed
	}
	t.closed = true
	t.wallets = nil
	t.transactions = nil
	return nil
}

func (t *Tx) checkOpen() error {
	if t.closed {
		return pgx.ErrTxClosed
	}
	return nil
}
