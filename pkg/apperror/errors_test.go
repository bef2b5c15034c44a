package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("WLT_005", "Insufficient funds", http.StatusUnprocessableEntity),
			expected: "[WLT_005] Insufficient funds",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap("SYS_001", "wrapped", http.StatusInternalServerError, inner)

	assert.True(t, errors.Is(appErr, inner))
}

func TestAppError_IsNilUnwrap(t *testing.T) {
	appErr := New("WLT_001", "test", http.StatusNotFound)
	assert.Nil(t, appErr.Unwrap())
}

func TestHasCode(t *testing.T) {
	wrapped := fmt.Errorf("deposit: %w", ErrInsufficientFunds())

	assert.True(t, HasCode(wrapped, CodeInsufficientFunds))
	assert.False(t, HasCode(wrapped, CodeDepositLimitExceeded))
	assert.False(t, HasCode(errors.New("plain"), CodeInsufficientFunds))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestWalletErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		httpStatus int
	}{
		{"WalletNotFound", ErrWalletNotFound("u1"), "WLT_001", 404},
		{"WalletExists", ErrWalletExists("u1"), "WLT_002", 409},
		{"ConcurrentUpdate", ErrConcurrentUpdate(errors.New("stale")), "WLT_003", 409},
		{"DepositLimitExceeded", ErrDepositLimitExceeded("1000", "500", "600"), "WLT_004", 422},
		{"InsufficientFunds", ErrInsufficientFunds(), "WLT_005", 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestDepositLimitExceeded_Message(t *testing.T) {
	err := ErrDepositLimitExceeded("1000", "500", "600")
	assert.Equal(t, "Deposit limit exceeded. Limit: 1000, Current: 500, Attempted: 600", err.Message)
}

func TestWalletNotFound_MentionsUser(t *testing.T) {
	err := ErrWalletNotFound("alice")
	assert.Contains(t, err.Message, "alice")
}

func TestValidationErrors(t *testing.T) {
	assert.Equal(t, "VAL_001", ErrInvalidAmount().Code)
	assert.Equal(t, 400, ErrInvalidAmount().HTTPStatus)

	big := ErrBodyTooLarge(1024)
	assert.Equal(t, "VAL_001", big.Code)
	assert.Equal(t, 413, big.HTTPStatus)
	assert.Contains(t, big.Message, "1024")

	v := Validation("page must be >= 1")
	assert.Equal(t, "VAL_001", v.Code)
	assert.Equal(t, "page must be >= 1", v.Message)
}

func TestAuthError(t *testing.T) {
	err := ErrInvalidToken()
	assert.Equal(t, "AUTH_001", err.Code)
	assert.Equal(t, 401, err.HTTPStatus)
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	dbErr := ErrDatabaseError(inner)
	assert.Equal(t, "SYS_001", dbErr.Code)
	assert.Equal(t, 500, dbErr.HTTPStatus)
	assert.True(t, errors.Is(dbErr, inner))

	internal := InternalError(inner)
	assert.Equal(t, "SYS_001", internal.Code)
	assert.True(t, errors.Is(internal, inner))
}

func TestRateLimitError(t *testing.T) {
	err := ErrRateLimitExceeded()
	assert.Equal(t, "RATE_001", err.Code)
	assert.Equal(t, 429, err.HTTPStatus)
}
