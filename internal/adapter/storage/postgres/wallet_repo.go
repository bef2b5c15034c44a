package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// Decimal columns are read as text so no precision is lost between NUMERIC and decimal.Decimal.
const walletColumns = `id, user_id, balance::text, daily_deposit_limit::text, version,
	created_at, created_by, created_by_username, updated_at, updated_by, updated_by_username`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. A user_id collision yields ports.ErrDuplicateWallet.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance, daily_deposit_limit, version,
		created_at, created_by, created_by_username, updated_at, updated_by, updated_by_username)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.UserID, w.Balance.String(), w.DailyDepositLimit.String(), w.Version,
		w.CreatedAt, w.CreatedBy, w.CreatedByUsername, w.UpdatedAt, w.UpdatedBy, w.UpdatedByUsername,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrDuplicateWallet
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByUserID fetches a wallet by its owner (non-locking read).
func (r *WalletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return scanWallet(r.pool.QueryRow(ctx, query, userID))
}

// GetByUserIDTx fetches a wallet inside tx. No row lock is taken; UpdateBalance detects conflicts.
func (r *WalletRepo) GetByUserIDTx(ctx context.Context, tx pgx.Tx, userID string) (*domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`
	return scanWallet(on(r.pool, tx).QueryRow(ctx, query, userID))
}

// UpdateBalance writes balance and updater fields if the row still carries w.Version.
// On success w.Version is advanced to match the stored row.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets
		SET balance = $1, updated_at = $2, updated_by = $3, updated_by_username = $4, version = version + 1
		WHERE id = $5 AND version = $6`

	tag, err := on(r.pool, tx).Exec(ctx, query,
		w.Balance.String(), w.UpdatedAt, w.UpdatedBy, w.UpdatedByUsername, w.ID, w.Version,
	)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrStaleVersion
	}
	w.Version++
	return nil
}

// DeleteByUserID removes the wallet row. Transactions reference wallets without a foreign key and stay.
func (r *WalletRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wallets WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete wallet: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of wallets.
func (r *WalletRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallets`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count wallets: %w", err)
	}
	return total, nil
}

// List returns one window of wallets in insertion order.
func (r *WalletRepo) List(ctx context.Context, limit, offset int) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY seq LIMIT $1 OFFSET $2`
	return r.list(ctx, query, limit, offset)
}

// ListAll returns every wallet in insertion order.
func (r *WalletRepo) ListAll(ctx context.Context) ([]domain.Wallet, error) {
	query := `SELECT ` + walletColumns + ` FROM wallets ORDER BY seq`
	return r.list(ctx, query)
}

func (r *WalletRepo) list(ctx context.Context, query string, args ...any) ([]domain.Wallet, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	wallets := []domain.Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// scanWallet scans walletColumns. Returns nil, nil on pgx.ErrNoRows.
func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	var (
		w              domain.Wallet
		balance, limit string
	)
	err := row.Scan(
		&w.ID, &w.UserID, &balance, &limit, &w.Version,
		&w.CreatedAt, &w.CreatedBy, &w.CreatedByUsername,
		&w.UpdatedAt, &w.UpdatedBy, &w.UpdatedByUsername,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}

	if w.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("parse balance %q: %w", balance, err)
	}
	if w.DailyDepositLimit, err = decimal.NewFromString(limit); err != nil {
		return nil, fmt.Errorf("parse daily_deposit_limit %q: %w", limit, err)
	}
	return &w, nil
}

var _ ports.WalletRepository = (*WalletRepo)(nil)
