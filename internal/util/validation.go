package util

import (
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateEmail 返回空串表示通过
func ValidateEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return "Email is required"
	}
	if err := validate.Var(email, "email"); err != nil {
		return "Please enter a valid email address"
	}
	return ""
}

func ValidatePassword(password string) string {
	if password == "" {
		return "Password is required"
	}
	if err := validate.Var(password, "min=6"); err != nil {
		return "Password must be at least 6 characters"
	}
	return ""
}

func ValidateName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "Name is required"
	}
	return ""
}

// FieldErrors 收集非空的字段错误
func FieldErrors(fields map[string]string) ValidationErrors {
	errs := make(ValidationErrors)
	for field, msg := range fields {
		if msg != "" {
			errs[field] = msg
		}
	}
	return errs
}

// ValidationErrors 字段名 -> 错误文案
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}
