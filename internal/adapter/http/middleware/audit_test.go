package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports/mocks"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuditLog_DepositSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)
	actorID := uuid.New()

	var got *domain.AuditLog
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, entry *domain.AuditLog) {
			got = entry
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/wallets/:userId/deposit", func(c *gin.Context) {
		c.Request = c.Request.WithContext(domain.WithActor(c.Request.Context(), domain.Actor{ID: &actorID, Username: "ops"}))
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallets/u1/deposit", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, domain.AuditActionDeposit, got.Action)
	assert.Equal(t, "wallet", got.ResourceType)
	assert.Equal(t, "u1", got.ResourceID)
	assert.Equal(t, &actorID, got.ActorID)
	assert.Contains(t, got.Details, `"status":200`)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
}

func TestAuditLog_CreateUsesCreatedUserID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	var got *domain.AuditLog
	mockAudit.EXPECT().Log(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, entry *domain.AuditLog) {
			got = entry
		},
	)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/wallets", func(c *gin.Context) {
		c.Set(CtxCreatedUserID, "alice")
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallets", nil))

	require.NotNil(t, got)
	assert.Equal(t, domain.AuditActionCreateWallet, got.Action)
	assert.Equal(t, "alice", got.ResourceID)
	assert.Nil(t, got.ActorID)
}

func TestAuditLog_SkipsGET(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.GET("/api/v1/wallets/:userId", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallets/u1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditLog_SkipsFailedRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditService(ctrl)

	r := gin.New()
	r.Use(AuditLog(mockAudit))
	r.POST("/api/v1/wallets/:userId/withdraw", func(c *gin.Context) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "insufficient"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallets/u1/withdraw", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestMapRouteToAction(t *testing.T) {
	tests := []struct {
		route  string
		method string
		want   domain.AuditAction
	}{
		{"/api/v1/wallets", http.MethodPost, domain.AuditActionCreateWallet},
		{"/api/v1/wallets/:userId/deposit", http.MethodPost, domain.AuditActionDeposit},
		{"/api/v1/wallets/:userId/withdraw", http.MethodPost, domain.AuditActionWithdraw},
		{"/api/v1/wallets/:userId", http.MethodDelete, domain.AuditActionDeleteWallet},
		{"/api/v1/wallets", http.MethodGet, ""},
		{"/api/v1/wallets/:userId/transactions", http.MethodGet, ""},
		{"/health", http.MethodGet, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			assert.Equal(t, tt.want, mapRouteToAction(tt.route, tt.method))
		})
	}
}
