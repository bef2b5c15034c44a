package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"wallet-service/internal/core/domain"
	"wallet-service/internal/core/ports"
	"wallet-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	routeWallets  = "/api/v1/wallets"
	routeWallet   = "/api/v1/wallets/:userId"
	routeDeposit  = "/api/v1/wallets/:userId/deposit"
	routeWithdraw = "/api/v1/wallets/:userId/withdraw"

	resourceWallet = "wallet"

	// CtxCreatedUserID is set by the create handler so the audit entry can name the new wallet.
	CtxCreatedUserID = "created_user_id"
)

// AuditLog creates an audit middleware that records successful wallet writes.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		action := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		resourceID := c.Param("userId")
		if resourceID == "" {
			if id, ok := c.Get(CtxCreatedUserID); ok {
				resourceID, _ = id.(string)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"request_id": c.GetString(response.CtxRequestID),
		})

		actor := domain.ActorFromContext(c.Request.Context())
		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			ActorID:      actor.ID,
			Action:       action,
			ResourceType: resourceWallet,
			ResourceID:   resourceID,
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now().UTC(),
		})
	}
}

func mapRouteToAction(route, method string) domain.AuditAction {
	switch {
	case route == routeWallets && method == http.MethodPost:
		return domain.AuditActionCreateWallet
	case route == routeDeposit && method == http.MethodPost:
		return domain.AuditActionDeposit
	case route == routeWithdraw && method == http.MethodPost:
		return domain.AuditActionWithdraw
	case route == routeWallet && method == http.MethodDelete:
		return domain.AuditActionDeleteWallet
	}
	return ""
}
