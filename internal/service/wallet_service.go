package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// WalletPolicy holds the tunables of the wallet core.
type WalletPolicy struct {
	DailyLimit        decimal.Decimal // assigned to new wallets
	DepositWindow     time.Duration
	MaxUpdateAttempts int
	RetryBackoff      time.Duration
	CacheTTL          time.Duration
	CacheTimeout      time.Duration
}

// WalletServiceImpl implements ports.WalletService.
//
// Balance mutations use optimistic concurrency: the wallet row carries a version that
// UpdateBalance checks and increments. The balance update and the ledger insert share
// one store transaction; a version conflict restarts the whole unit of work.
type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	transactor ports.DBTransactor
	limits     *DepositLimitEvaluator
	cache      *softCache
	policy     WalletPolicy
	loads      singleflight.Group
	now        func() time.Time
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl. cache may be nil.
func NewWalletService(
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	transactor ports.DBTransactor,
	cache ports.WalletCache,
	policy WalletPolicy,
	log zerolog.Logger,
) *WalletServiceImpl {
	if policy.MaxUpdateAttempts < 1 {
		policy.MaxUpdateAttempts = 1
	}
	return &WalletServiceImpl{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		transactor: transactor,
		limits:     NewDepositLimitEvaluator(txRepo, policy.DepositWindow),
		cache:      newSoftCache(cache, policy.CacheTTL, policy.CacheTimeout, log),
		policy:     policy,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// ==================== Lifecycle ====================

// Create opens an empty wallet for userID. The unique constraint on user_id decides
// concurrent creates; the lookup beforehand only avoids a failed insert in the common case.
func (s *WalletServiceImpl) Create(ctx context.Context, userID string) (*domain.Wallet, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.Validation("user_id must not be blank")
	}

	existing, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lookup wallet: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrWalletExists(userID)
	}

	wallet := domain.NewWallet(userID, s.policy.DailyLimit, domain.ActorFromContext(ctx), s.now())
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		if errors.Is(err, ports.ErrDuplicateWallet) {
			return nil, apperror.ErrWalletExists(userID)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	// A lookup racing an earlier delete of the same user may have cached the old row.
	s.cache.invalidate(ctx, userID)

	s.log.Info().
		Str("user_id", userID).
		Str("wallet_id", wallet.ID.String()).
		Str("daily_limit", wallet.DailyDepositLimit.String()).
		Msg("wallet created")

	return wallet, nil
}

// Delete removes the wallet row for userID. Its transactions are kept as history.
func (s *WalletServiceImpl) Delete(ctx context.Context, userID string) error {
	rows, err := s.walletRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("delete wallet: %w", err))
	}
	if rows == 0 {
		return apperror.ErrWalletNotFound(userID)
	}

	s.cache.invalidate(ctx, userID)

	s.log.Info().Str("user_id", userID).Msg("wallet deleted")
	return nil
}

// ==================== Balance mutations ====================

// Deposit credits amount to the wallet of userID, subject to the trailing deposit limit.
func (s *WalletServiceImpl) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	return s.mutate(ctx, userID, domain.TransactionKindDeposit, amount)
}

// Withdraw debits amount from the wallet of userID. The balance never goes negative.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Wallet, error) {
	if !amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	return s.mutate(ctx, userID, domain.TransactionKindWithdrawal, amount)
}

// mutate runs applyOnce until it commits, fails for a reason other than a version
// conflict, or exhausts MaxUpdateAttempts.
func (s *WalletServiceImpl) mutate(ctx context.Context, userID string, kind domain.TransactionKind, amount decimal.Decimal) (*domain.Wallet, error) {
	var lastErr error
	for attempt := 1; attempt <= s.policy.MaxUpdateAttempts; attempt++ {
		wallet, err := s.applyOnce(ctx, userID, kind, amount)
		if err == nil {
			s.cache.invalidate(ctx, userID)

			s.log.Info().
				Str("user_id", userID).
				Str("wallet_id", wallet.ID.String()).
				Str("kind", string(kind)).
				Str("amount", amount.String()).
				Str("balance", wallet.Balance.String()).
				Int("attempt", attempt).
				Msg("wallet balance updated")
			return wallet, nil
		}
		if !errors.Is(err, ports.ErrStaleVersion) {
			return nil, err
		}

		lastErr = err
		s.log.Warn().
			Str("user_id", userID).
			Str("kind", string(kind)).
			Int("attempt", attempt).
			Msg("wallet version conflict")

		if attempt < s.policy.MaxUpdateAttempts {
			if err := sleepCtx(ctx, s.policy.RetryBackoff*time.Duration(attempt)); err != nil {
				return nil, apperror.InternalError(fmt.Errorf("retry wait: %w", err))
			}
		}
	}
	return nil, apperror.ErrConcurrentUpdate(lastErr)
}

// applyOnce performs one read-validate-write cycle inside a single store transaction.
// It returns ports.ErrStaleVersion unwrapped when another writer got there first.
func (s *WalletServiceImpl) applyOnce(ctx context.Context, userID string, kind domain.TransactionKind, amount decimal.Decimal) (*domain.Wallet, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByUserIDTx(ctx, dbTx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound(userID)
	}

	now := s.now()
	actor := domain.ActorFromContext(ctx)

	switch kind {
	case domain.TransactionKindDeposit:
		current, err := s.limits.SumDeposits(ctx, dbTx, wallet.ID, s.limits.Since(now))
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if err := s.limits.CheckLimit(current, wallet.DailyDepositLimit, amount); err != nil {
			return nil, err
		}
		wallet.Credit(amount, actor, now)
	case domain.TransactionKindWithdrawal:
		if !wallet.CanWithdraw(amount) {
			return nil, apperror.ErrInsufficientFunds()
		}
		wallet.Debit(amount, actor, now)
	default:
		return nil, apperror.InternalError(fmt.Errorf("unknown transaction kind %q", kind))
	}

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, wallet); err != nil {
		return nil, storeWriteError("update wallet", err)
	}

	if err := s.txRepo.Create(ctx, dbTx, domain.NewTransaction(wallet, kind, amount, now)); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("append transaction: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, storeWriteError("commit tx", err)
	}

	return wallet, nil
}

func storeWriteError(op string, err error) error {
	if errors.Is(err, ports.ErrStaleVersion) {
		return ports.ErrStaleVersion
	}
	return apperror.ErrDatabaseError(fmt.Errorf("%s: %w", op, err))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ==================== Queries ====================

// sharedLoadTimeout bounds a store read that several Get calls may be waiting on.
const sharedLoadTimeout = 5 * time.Second

// Get returns the wallet of userID, preferring the read cache.
//
// Concurrent misses that saw the same cache generation share one store read, and only
// that read may fill the cache. The shared read is detached from every caller's
// context; each caller stops waiting when its own context ends.
func (s *WalletServiceImpl) Get(ctx context.Context, userID string) (*domain.Wallet, error) {
	if cached := s.cache.get(ctx, userID); cached != nil {
		return cached, nil
	}

	gen, ok := s.cache.generation(ctx, userID)
	if !ok {
		return s.load(ctx, userID)
	}

	flight := s.loads.DoChan(userID+"@"+strconv.FormatInt(gen, 10), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		wallet, err := s.load(loadCtx, userID)
		if err != nil {
			return nil, err
		}
		s.cache.put(loadCtx, wallet, gen)
		return wallet, nil
	})

	select {
	case <-ctx.Done():
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", ctx.Err()))
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		// Callers sharing a flight must not share the pointer.
		wallet := *res.Val.(*domain.Wallet)
		return &wallet, nil
	}
}

func (s *WalletServiceImpl) load(ctx context.Context, userID string) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound(userID)
	}
	return wallet, nil
}

// List returns every wallet in insertion order. It bypasses the cache.
func (s *WalletServiceImpl) List(ctx context.Context) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.ListAll(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}
	if wallets == nil {
		wallets = []domain.Wallet{}
	}
	return wallets, nil
}

// ListPaged returns the 1-indexed page of wallets in insertion order.
func (s *WalletServiceImpl) ListPaged(ctx context.Context, page, size int) (*domain.Page[domain.Wallet], error) {
	if err := validatePage(page, size); err != nil {
		return nil, err
	}

	total, err := s.walletRepo.Count(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count wallets: %w", err))
	}

	offset, ok := domain.Offset(page, size)
	if !ok {
		result := domain.NewPage[domain.Wallet](nil, page, size, total)
		return &result, nil
	}

	wallets, err := s.walletRepo.List(ctx, size, offset)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list wallets: %w", err))
	}

	result := domain.NewPage(wallets, page, size, total)
	return &result, nil
}

// ListTransactions returns the wallet's ledger newest first.
func (s *WalletServiceImpl) ListTransactions(ctx context.Context, userID string, page, size int) (*domain.Page[domain.Transaction], error) {
	if err := validatePage(page, size); err != nil {
		return nil, err
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound(userID)
	}

	// A page past the int range only needs the total, which a zero-row window still reports.
	limit, offset := size, 0
	if off, ok := domain.Offset(page, size); ok {
		offset = off
	} else {
		limit = 0
	}

	txns, total, err := s.txRepo.ListByWallet(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list transactions: %w", err))
	}

	result := domain.NewPage(txns, page, size, total)
	return &result, nil
}

func validatePage(page, size int) error {
	if page < 1 {
		return apperror.Validation("page must be >= 1")
	}
	if size < 1 {
		return apperror.Validation("size must be >= 1")
	}
	return nil
}

var _ ports.WalletService = (*WalletServiceImpl)(nil)
