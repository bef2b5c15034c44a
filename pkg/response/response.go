package response

import (
	"errors"
	"net/http"
	"time"

	"wallet-service/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CtxRequestID is the gin context key holding the request id.
const CtxRequestID = "request_id"

// SuccessResponse wraps every 2xx body that carries data.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func OK(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data)
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error writes the error envelope and aborts the handler chain. AppErrors keep
// their code and status; anything else is SYS_000/500 with a generic message.
// Server-side failures are attached to c.Errors for the request logger; the
// wrapped cause never reaches the client.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := ErrorResponse{
		ErrorCode: apperror.CodeInternalUnclassified,
		Message:   "Internal server error",
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status = appErr.HTTPStatus
		body.ErrorCode = appErr.Code
		body.Message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	body.RequestID = requestID(c)
	body.Timestamp = timestamp()
	c.AbortWithStatusJSON(status, body)
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: requestID(c),
		Timestamp: timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// requestID falls back to a fresh id for contexts that skipped the RequestID middleware.
func requestID(c *gin.Context) string {
	if id := c.GetString(CtxRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
