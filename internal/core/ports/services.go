package ports

import (
	"context"
	"time"

	"wallet-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mocks/services.go -package=mocks wallet-service/internal/core/ports WalletCache,WalletService,TokenService,AuditService

// WalletCache is the short-lived read cache keyed by user id.
//
// Every Invalidate advances a per-user generation. A reader captures the generation
// before loading from the store and passes it to Set, which stores nothing if an
// invalidation happened in between.
type WalletCache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, userID string) (*domain.Wallet, error)
	Generation(ctx context.Context, userID string) (int64, error)
	// Set is a no-op, not an error, when generation is no longer current.
	Set(ctx context.Context, wallet *domain.Wallet, generation int64, ttl time.Duration) error
	Invalidate(ctx context.Context, userID string) error
}

// TokenService handles operator bearer tokens.
type TokenService interface {
	Generate(actorID uuid.UUID, username string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	ActorID  uuid.UUID
	Username string
}

// --- Service Ports (Business Logic) ---

// WalletService is the inbound surface of the wallet core.
type WalletService interface {
	Create(ctx context.Context, userID string) (*domain.Wallet, error)
	Delete(ctx context.Context, userID string) error
	Get(ctx context.Context, userID string) (*domain.Wallet, error)
	List(ctx context.Context) ([]domain.Wallet, error)
	ListPaged(ctx context.Context, page, size int) (*domain.Page[domain.Wallet], error)
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Wallet, error)
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*domain.Wallet, error)
	ListTransactions(ctx context.Context, userID string, page, size int) (*domain.Page[domain.Transaction], error)
}

// AuditService records audited actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// HealthChecker is a backing dependency reported by GET /health.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Name() string
}
