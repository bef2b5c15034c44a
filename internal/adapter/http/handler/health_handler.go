package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wallet-service/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// DependencyHealth is one entry of the /health body.
type DependencyHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyHealth `json:"dependencies"`
}

// HealthCheck handles GET /health. Checkers are pinged in parallel under a shared
// deadline; any failure turns the response into 503 "degraded".
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		results := make([]DependencyHealth, len(checkers))
		var wg sync.WaitGroup
		for i, checker := range checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				start := time.Now()
				err := checker.Ping(ctx)
				results[i] = DependencyHealth{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
				if err != nil {
					results[i].Status = "unhealthy"
					results[i].Error = err.Error()
				}
			}()
		}
		wg.Wait()

		resp := HealthResponse{Status: "healthy", Dependencies: make(map[string]DependencyHealth, len(checkers))}
		code := http.StatusOK
		for i, checker := range checkers {
			resp.Dependencies[checker.Name()] = results[i]
			if results[i].Error != "" {
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
			}
		}
		c.JSON(code, resp)
	}
}
