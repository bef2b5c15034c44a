package memory

import (
	"context"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	store *Store
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(store *Store) *WalletRepo {
	return &WalletRepo{store: store}
}

func (r *WalletRepo) Create(ctx context.Context, wallet *domain.Wallet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[wallet.UserID]; exists {
		return ports.ErrDuplicateWallet
	}
	s.wallets[wallet.UserID] = &walletRow{wallet: *wallet, seq: s.nextSeq()}
	return nil
}

func (r *WalletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.wallets[userID]
	if !ok {
		return nil, nil
	}
	w := row.wallet
	return &w, nil
}

// GetByUserIDTx sees the transaction's own pending update before the committed row.
func (r *WalletRepo) GetByUserIDTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	mt, err := asTx(r.store, tx)
	if err != nil {
		return nil, err
	}
	mt.mu.Lock()
	if err := mt.checkOpen(); err != nil {
		mt.mu.Unlock()
		return nil, err
	}
	if p, ok := mt.wallets[userID]; ok {
		w := p.wallet
		mt.mu.Unlock()
		return &w, nil
	}
	mt.mu.Unlock()

	return r.GetByUserID(ctx, userID)
}

// UpdateBalance buffers the update in tx. A version already behind the committed row
// fails fast; otherwise the check is repeated at commit.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error {
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

	base := wallet.Version
	if p, ok := mt.wallets[wallet.UserID]; ok {
		if p.wallet.Version != wallet.Version {
			return ports.ErrStaleVersion
		}
		base = p.baseVersion
	} else {
		r.store.mu.RLock()
		row, ok := r.store.wallets[wallet.UserID]
		stale := !ok || row.wallet.ID != wallet.ID || row.wallet.Version != wallet.Version
		r.store.mu.RUnlock()
		if stale {
			return ports.ErrStaleVersion
		}
	}

	wallet.Version++
	mt.wallets[wallet.UserID] = &pendingWallet{wallet: *wallet, baseVersion: base}
	return nil
}

func (r *WalletRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[userID]; !ok {
		return 0, nil
	}
	delete(s.wallets, userID)
	return 1, nil
}

func (r *WalletRepo) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.wallets)), nil
}

func (r *WalletRepo) List(ctx context.Context, limit, offset int) ([]domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	all := r.store.sortedWallets()
	r.store.mu.RUnlock()

	return window(all, limit, offset), nil
}

func (r *WalletRepo) ListAll(ctx context.Context) ([]domain.Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.sortedWallets(), nil
}

func window[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}
	return items[offset:end]
}
