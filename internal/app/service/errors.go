package service

import (
	"sort"
	"strings"

	apperrors "github.com/ikkim/storefront-backend/internal/errors"
)

var (
	ErrOwnerNotFound     = apperrors.NotFound(apperrors.OwnerNotFound, "user not found")
	ErrProductNotFound   = apperrors.NotFound(apperrors.ProductNotFound, "product not found")
	ErrCategoryNotFound  = apperrors.NotFound(apperrors.CategoryNotFound, "category not found")
	ErrAttributeNotFound = apperrors.NotFound(apperrors.AttributeNotFound, "one or more attributes do not exist")
	ErrDefaultInvariant  = apperrors.Conflict(apperrors.DefaultFlagInvariant, "default flag invariant violated")
)

// FieldErrors maps a request field to what is wrong with it
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return strings.Join(parts, "; ")
}

// asError returns nil when there are no field errors
func (f FieldErrors) asError() error {
	if len(f) == 0 {
		return nil
	}
	return &apperrors.Error{
		Kind:    apperrors.KindValidation,
		Code:    apperrors.ValidationRequired,
		Message: "invalid input",
		Err:     f,
	}
}

func requireNonBlank(fields FieldErrors, name, value string) {
	if strings.TrimSpace(value) == "" {
		fields[name] = "is required"
	}
}
