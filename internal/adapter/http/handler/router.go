package handler

import (
	"wallet-service/internal/adapter/http/middleware"
	"wallet-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxRequestBodyBytes = 1 << 20

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	TokenSvc       ports.TokenService // nil = bearer authentication disabled
	RateLimitStore middleware.Limiter // nil = rate limiting disabled
	RateLimitRules map[string]middleware.RateLimitRule
	HealthCheckers []ports.HealthChecker
	AuditSvc       ports.AuditService // nil = audit logging disabled
	OpenAPISpec    []byte
	CORSOrigins    []string // empty = CORS disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	if len(deps.CORSOrigins) > 0 {
		r.Use(middleware.CORS(deps.CORSOrigins))
	}
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(maxRequestBodyBytes))

	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	docs := NewDocsHandler(deps.OpenAPISpec)
	swagger := r.Group("/swagger")
	{
		swagger.GET("", docs.UI)
		swagger.GET("/spec", docs.Spec)
	}

	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := deps.RateLimitRules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	if deps.TokenSvc != nil {
		v1.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl(middleware.GroupMutations), walletHandler.Create)
		wallets.GET("", rl(middleware.GroupReads), walletHandler.List)
		wallets.GET("/:userId", rl(middleware.GroupReads), walletHandler.Get)
		wallets.DELETE("/:userId", rl(middleware.GroupMutations), walletHandler.Delete)
		wallets.POST("/:userId/deposit", rl(middleware.GroupMutations), walletHandler.Deposit)
		wallets.POST("/:userId/withdraw", rl(middleware.GroupMutations), walletHandler.Withdraw)
		wallets.GET("/:userId/transactions", rl(middleware.GroupReads), walletHandler.ListTransactions)
	}

	return r
}
