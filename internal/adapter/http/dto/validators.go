package dto

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const maxUserIDLength = 64

var safeIDRe = regexp.MustCompile(`^[a-zA-Z0-9_\-\.@]+$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("safe_id", validateSafeID)
	}
}

// validateSafeID allows alphanumeric, underscore, dash, dot and at-sign.
func validateSafeID(fl validator.FieldLevel) bool {
	return safeIDRe.MatchString(fl.Field().String())
}

// ValidUserID applies the user_id body rules to a path parameter.
func ValidUserID(userID string) bool {
	if strings.TrimSpace(userID) == "" || len(userID) > maxUserIDLength {
		return false
	}
	return safeIDRe.MatchString(userID)
}
