package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. Callers match on these rather than on messages.
const (
	CodeWalletNotFound       = "WLT_001"
	CodeWalletExists         = "WLT_002"
	CodeConcurrentUpdate     = "WLT_003"
	CodeDepositLimitExceeded = "WLT_004"
	CodeInsufficientFunds    = "WLT_005"
	CodeInvalidArgument      = "VAL_001"
	CodeInvalidToken         = "AUTH_001"
	CodeRateLimitExceeded    = "RATE_001"
	CodeInternal             = "SYS_001"
	CodeInternalUnclassified = "SYS_000"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ---- Wallet Business Logic (WLT) ----

func ErrWalletNotFound(userID string) *AppError {
	return New(CodeWalletNotFound, fmt.Sprintf("No wallet found for userId: %s", userID), http.StatusNotFound)
}

func ErrWalletExists(userID string) *AppError {
	return New(CodeWalletExists, fmt.Sprintf("Wallet already exists for user: %s", userID), http.StatusConflict)
}

func ErrConcurrentUpdate(err error) *AppError {
	return Wrap(CodeConcurrentUpdate, "Wallet was modified concurrently, please retry", http.StatusConflict, err)
}

// ErrDepositLimitExceeded carries the limit, the trailing sum and the attempted amount for diagnostics.
func ErrDepositLimitExceeded(limit, current, attempted string) *AppError {
	return New(CodeDepositLimitExceeded,
		fmt.Sprintf("Deposit limit exceeded. Limit: %s, Current: %s, Attempted: %s", limit, current, attempted),
		http.StatusUnprocessableEntity)
}

func ErrInsufficientFunds() *AppError {
	return New(CodeInsufficientFunds, "Insufficient balance in wallet", http.StatusUnprocessableEntity)
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New(CodeInvalidArgument, "Amount must be greater than 0", http.StatusBadRequest)
}

// ErrBodyTooLarge rejects a request body over limit bytes.
func ErrBodyTooLarge(limit int64) *AppError {
	return New(CodeInvalidArgument, fmt.Sprintf("Request body exceeds %d bytes", limit), http.StatusRequestEntityTooLarge)
}

// Validation returns a VAL_001 error with a custom message.
func Validation(message string) *AppError {
	return New(CodeInvalidArgument, message, http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrDatabaseError(err error) *AppError {
	return Wrap(CodeInternal, "Internal database error", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(CodeInternal, "Internal server error", http.StatusInternalServerError, err)
}
