package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	httpHandler "wallet-service/internal/adapter/http/handler"
	"wallet-service/internal/adapter/http/middleware"
	"wallet-service/internal/adapter/storage/memory"
	redisStorage "wallet-service/internal/adapter/storage/redis"
	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires the real HTTP layer, services, memory ledger store and a
// miniredis-backed cache and rate limiter.
type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	store    *memory.Store
	tokenSvc *service.JWTTokenService
}

type appOptions struct {
	mutationsPerMinute int64
}

func newTestApp(t *testing.T, opts appOptions) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := zerolog.Nop()
	store := memory.NewStore()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", time.Hour, "test-issuer")

	walletSvc := service.NewWalletService(
		memory.NewWalletRepo(store),
		memory.NewTransactionRepo(store),
		memory.NewTransactor(store),
		redisStorage.NewWalletCache(rdb, redisStorage.DefaultWalletKeyPrefix),
		service.WalletPolicy{
			DailyLimit:        decimal.NewFromInt(1000),
			DepositWindow:     24 * time.Hour,
			MaxUpdateAttempts: 50,
			RetryBackoff:      time.Millisecond,
			CacheTTL:          30 * time.Second,
			CacheTimeout:      time.Second,
		},
		log,
	)

	mutations := opts.mutationsPerMinute
	if mutations == 0 {
		mutations = 10000
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: redisStorage.NewRateLimitStore(rdb),
		RateLimitRules: middleware.RateLimitRules(mutations, 10000),
		HealthCheckers: []ports.HealthChecker{store, redisStorage.NewHealthCheck(rdb)},
		AuditSvc:       service.NewAuditService(memory.NewAuditRepo(store), log),
		Logger:         log,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testApp{server: srv, redis: mr, store: store, tokenSvc: tokenSvc}
}

type apiResponse struct {
	status    int
	Data      json.RawMessage `json:"data"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
}

func (a *testApp) do(t *testing.T, method, path, body, token string) apiResponse {
	t.Helper()
	req, err := http.NewRequest(method, a.server.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{status: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

func walletBalance(t *testing.T, r apiResponse) string {
	t.Helper()
	var w struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &w))
	return w.Balance
}

func TestAPI_WalletLifecycle(t *testing.T) {
	app := newTestApp(t, appOptions{})

	r := app.do(t, http.MethodPost, "/api/v1/wallets", `{"user_id":"u1"}`, "")
	require.Equal(t, http.StatusCreated, r.status)
	assert.Equal(t, "0", walletBalance(t, r))

	r = app.do(t, http.MethodPost, "/api/v1/wallets", `{"user_id":"u1"}`, "")
	assert.Equal(t, http.StatusConflict, r.status)
	assert.Equal(t, "WLT_002", r.ErrorCode)

	r = app.do(t, http.MethodPost, "/api/v1/wallets/u1/deposit", `{"amount":"100"}`, "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "100", walletBalance(t, r))

	r = app.do(t, http.MethodPost, "/api/v1/wallets/u1/withdraw", `{"amount":"40"}`, "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "60", walletBalance(t, r))

	// 100 already deposited in the window; 100 + 950 > 1000.
	r = app.do(t, http.MethodPost, "/api/v1/wallets/u1/deposit", `{"amount":"950"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, "WLT_004", r.ErrorCode)
	assert.Equal(t, "Deposit limit exceeded. Limit: 1000, Current: 100, Attempted: 950", r.Message)

	// Reaching the limit exactly is allowed.
	r = app.do(t, http.MethodPost, "/api/v1/wallets/u1/deposit", `{"amount":"900"}`, "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "960", walletBalance(t, r))

	r = app.do(t, http.MethodPost, "/api/v1/wallets/u1/withdraw", `{"amount":"960.01"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, r.status)
	assert.Equal(t, "WLT_005", r.ErrorCode)

	r = app.do(t, http.MethodGet, "/api/v1/wallets/u1", "", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "960", walletBalance(t, r))

	r = app.do(t, http.MethodGet, "/api/v1/wallets/u1/transactions?page=1&size=10", "", "")
	require.Equal(t, http.StatusOK, r.status)
	var txPage struct {
		Data []struct {
			Kind   string `json:"kind"`
			Amount string `json:"amount"`
		} `json:"data"`
		TotalItems int64 `json:"total_items"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &txPage))
	assert.Equal(t, int64(3), txPage.TotalItems)
	require.Len(t, txPage.Data, 3)
	assert.Equal(t, "DEPOSIT", txPage.Data[0].Kind)
	assert.Equal(t, "900", txPage.Data[0].Amount)

	r = app.do(t, http.MethodDelete, "/api/v1/wallets/u1", "", "")
	assert.Equal(t, http.StatusNoContent, r.status)

	r = app.do(t, http.MethodGet, "/api/v1/wallets/u1", "", "")
	assert.Equal(t, http.StatusNotFound, r.status)
	assert.Equal(t, "WLT_001", r.ErrorCode)

	r = app.do(t, http.MethodDelete, "/api/v1/wallets/u1", "", "")
	assert.Equal(t, http.StatusNotFound, r.status)
}

func TestAPI_GetReflectsWritesThroughCache(t *testing.T) {
	app := newTestApp(t, appOptions{})

	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/wallets", `{"user_id":"cached"}`, "").status)

	// Warm the cache, then mutate and read again.
	r := app.do(t, http.MethodGet, "/api/v1/wallets/cached", "", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.True(t, app.redis.Exists("wallet:cached"))

	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/v1/wallets/cached/deposit", `{"amount":"12.50"}`, "").status)
	assert.False(t, app.redis.Exists("wallet:cached"))

	r = app.do(t, http.MethodGet, "/api/v1/wallets/cached", "", "")
	require.Equal(t, http.StatusOK, r.status)
	assert.Equal(t, "12.5", walletBalance(t, r))
}

func TestAPI_ListPaged(t *testing.T) {
	app := newTestApp(t, appOptions{})

	for i := 0; i < 25; i++ {
		body := fmt.Sprintf(`{"user_id":"user-%02d"}`, i)
		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/wallets", body, "").status)
	}

	type page struct {
		Data []struct {
			UserID string `json:"user_id"`
		} `json:"data"`
		CurrentPage int   `json:"current_page"`
		TotalItems  int64 `json:"total_items"`
		TotalPages  int   `json:"total_pages"`
	}

	var last page
	r := app.do(t, http.MethodGet, "/api/v1/wallets?page=3&size=10", "", "")
	require.Equal(t, http.StatusOK, r.status)
	require.NoError(t, json.Unmarshal(r.Data, &last))
	assert.Len(t, last.Data, 5)
	assert.Equal(t, "user-20", last.Data[0].UserID)
	assert.Equal(t, int64(25), last.TotalItems)
	assert.Equal(t, 3, last.TotalPages)

	var beyond page
	r = app.do(t, http.MethodGet, "/api/v1/wallets?page=4&size=10", "", "")
	require.Equal(t, http.StatusOK, r.status)
	require.NoError(t, json.Unmarshal(r.Data, &beyond))
	assert.Empty(t, beyond.Data)

	r = app.do(t, http.MethodGet, "/api/v1/wallets?page=0&size=10", "", "")
	assert.Equal(t, http.StatusBadRequest, r.status)
	assert.Equal(t, "VAL_001", r.ErrorCode)

	var all []json.RawMessage
	r = app.do(t, http.MethodGet, "/api/v1/wallets", "", "")
	require.Equal(t, http.StatusOK, r.status)
	require.NoError(t, json.Unmarshal(r.Data, &all))
	assert.Len(t, all, 25)
}

func TestAPI_ConcurrentDeposits(t *testing.T) {
	app := newTestApp(t, appOptions{})
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/wallets", `{"user_id":"hot"}`, "").status)

	const workers = 30
	var wg sync.WaitGroup
	var ok, conflicted atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/wallets/hot/deposit", bytes.NewBufferString(`{"amount":"10"}`))
			req.Header.Set("Content-Type", "application/json")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)
			switch resp.StatusCode {
			case http.StatusOK:
				ok.Add(1)
			case http.StatusConflict:
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(workers), ok.Load()+conflicted.Load())

	r := app.do(t, http.MethodGet, "/api/v1/wallets/hot", "", "")
	require.Equal(t, http.StatusOK, r.status)
	want := decimal.NewFromInt(10 * ok.Load())
	assert.Equal(t, want.String(), walletBalance(t, r))

	r = app.do(t, http.MethodGet, "/api/v1/wallets/hot/transactions?page=1&size=100", "", "")
	require.Equal(t, http.StatusOK, r.status)
	var txPage struct {
		TotalItems int64 `json:"total_items"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &txPage))
	assert.Equal(t, ok.Load(), txPage.TotalItems)
}

func TestAPI_BearerTokenStampsActor(t *testing.T) {
	app := newTestApp(t, appOptions{})
	actorID := uuid.New()
	token, _, err := app.tokenSvc.Generate(actorID, "ops")
	require.NoError(t, err)

	r := app.do(t, http.MethodPost, "/api/v1/wallets", `{"user_id":"stamped"}`, token)
	require.Equal(t, http.StatusCreated, r.status)
	var w struct {
		CreatedBy         string `json:"created_by"`
		CreatedByUsername string `json:"created_by_username"`
	}
	require.NoError(t, json.Unmarshal(r.Data, &w))
	assert.Equal(t, actorID.String(), w.CreatedBy)
	assert.Equal(t, "ops", w.CreatedByUsername)

	r = app.do(t, http.MethodGet, "/api/v1/wallets/stamped", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, r.status)
	assert.Equal(t, "AUTH_001", r.ErrorCode)

	assert.Eventually(t, func() bool {
		for _, entry := range app.store.AuditLogs() {
			if entry.Action == domain.AuditActionCreateWallet && entry.ActorID != nil && *entry.ActorID == actorID {
				return entry.ResourceID == "stamped"
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestAPI_MutationRateLimit(t *testing.T) {
	app := newTestApp(t, appOptions{mutationsPerMinute: 2})
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, "/api/v1/wallets", `{"user_id":"busy"}`, "").status)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, "/api/v1/wallets/busy/deposit", `{"amount":"1"}`, "").status)
	}
	r := app.do(t, http.MethodPost, "/api/v1/wallets/busy/deposit", `{"amount":"1"}`, "")
	assert.Equal(t, http.StatusTooManyRequests, r.status)
	assert.Equal(t, "RATE_001", r.ErrorCode)

	// Reads use a separate budget.
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/v1/wallets/busy", "", "").status)
}

func TestAPI_Health(t *testing.T) {
	app := newTestApp(t, appOptions{})

	r := app.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, r.status)

	app.redis.Close()
	r = app.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, r.status)
}
