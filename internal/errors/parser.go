package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ParseError classifies a raw persistence error into an *Error.
// Driver detail is never exposed; the message tells the caller what to fix when possible.
func ParseError(err error, context string) *Error {
	if err == nil {
		return &Error{Kind: KindInternal, Code: InternalServerError, Message: "internal server error"}
	}

	if appErr, ok := As(err); ok {
		return appErr
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Code: ResourceNotFound, Message: notFoundMessage(context), Err: err}
	}

	errLower := strings.ToLower(err.Error())

	// 23505 unique violation
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errLower, "duplicate key") ||
		strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower, err)
	}

	// 23503 foreign key violation
	if errors.Is(err, gorm.ErrForeignKeyViolated) || strings.Contains(errLower, "foreign key constraint") {
		return &Error{Kind: KindNotFound, Code: ResourceNotFound, Message: "referenced data does not exist", Err: err}
	}

	// 23502 not-null violation
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return &Error{Kind: KindValidation, Code: ValidationRequired, Message: "a required field is missing", Err: err}
	}

	// 23514 check violation
	if strings.Contains(errLower, "check constraint") {
		return &Error{Kind: KindValidation, Code: ValidationInvalidInput, Message: "input value is not valid", Err: err}
	}

	return &Error{
		Kind:    KindInternal,
		Code:    InternalTransactionFailed,
		Message: defaultErrorMessage(context),
		Err:     err,
	}
}

func parseDuplicateKeyError(errLower string, err error) *Error {
	switch {
	case strings.Contains(errLower, "slug"):
		return &Error{Kind: KindConflict, Code: CategorySlugAlreadyTaken, Message: "category slug is already in use", Err: err}
	case strings.Contains(errLower, "is_default") || strings.Contains(errLower, "single_default"):
		return &Error{Kind: KindConflict, Code: DefaultFlagInvariant, Message: "another item is already the default", Err: err}
	case strings.Contains(errLower, "email"):
		return &Error{Kind: KindConflict, Code: ResourceAlreadyExists, Message: "email is already in use", Err: err}
	}
	return &Error{Kind: KindConflict, Code: ResourceAlreadyExists, Message: "data already exists", Err: err}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "cart"):
		return "cart item not found"
	case strings.Contains(contextLower, "address"):
		return "address not found"
	case strings.Contains(contextLower, "payment"):
		return "payment method not found"
	case strings.Contains(contextLower, "product"):
		return "product not found"
	case strings.Contains(contextLower, "order"):
		return "order not found"
	}
	return "requested data not found"
}

func defaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)
	switch {
	case strings.Contains(contextLower, "create"):
		return "create failed; no changes were applied"
	case strings.Contains(contextLower, "update"), strings.Contains(contextLower, "replace"):
		return "update failed; no changes were applied"
	case strings.Contains(contextLower, "delete"):
		return "delete failed; no changes were applied"
	}
	return "operation failed; no changes were applied"
}
