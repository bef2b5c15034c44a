package service

import (
	"context"
	"fmt"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// DepositLimitEvaluator derives a wallet's trailing deposit total from its transaction history.
// The total is never stored; every call recomputes it.
type DepositLimitEvaluator struct {
	txRepo ports.TransactionRepository
	window time.Duration
}

// NewDepositLimitEvaluator creates an evaluator over a trailing window (24h in production).
func NewDepositLimitEvaluator(txRepo ports.TransactionRepository, window time.Duration) *DepositLimitEvaluator {
	return &DepositLimitEvaluator{txRepo: txRepo, window: window}
}

// Since returns the exclusive lower bound of the window ending at now.
func (e *DepositLimitEvaluator) Since(now time.Time) time.Time {
	return now.Add(-e.window)
}

// SumDeposits totals DEPOSIT amounts for walletID with timestamp strictly after since.
// It reads through tx so the sum is consistent with the mutation being validated.
func (e *DepositLimitEvaluator) SumDeposits(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	sum, err := e.txRepo.SumAmounts(ctx, tx, walletID, domain.TransactionKindDeposit, since)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum deposits: %w", err)
	}
	return sum, nil
}

// CheckLimit fails with WLT_004 when current + amount > limit. Reaching the limit exactly is allowed.
func (e *DepositLimitEvaluator) CheckLimit(current, limit, amount decimal.Decimal) error {
	if current.Add(amount).GreaterThan(limit) {
		return apperror.ErrDepositLimitExceeded(limit.String(), current.String(), amount.String())
	}
	return nil
}
