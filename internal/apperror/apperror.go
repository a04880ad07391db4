// Package apperror defines the error taxonomy shared by every usecase.
package apperror

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound              Code = "NOT_FOUND"
	CodeValidation            Code = "VALIDATION_FAILED"
	CodeConflict              Code = "CONFLICT"
	CodeInsufficientStock     Code = "INSUFFICIENT_STOCK"
	CodePaymentExceedsBalance Code = "PAYMENT_EXCEEDS_BALANCE"
	CodeProviderUnavailable   Code = "PROVIDER_UNAVAILABLE"
	CodeInvalidTransition     Code = "INVALID_STATE_TRANSITION"
	CodeInternal              Code = "INTERNAL"
)

// Error carries a stable code, an i18n message id with template data and
// an English fallback message.
type Error struct {
	Code      Code
	MessageID string
	Data      map[string]any
	Message   string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code so callers can compare against the sentinel values below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.MessageID == ""
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound              = &Error{Code: CodeNotFound}
	ErrValidation            = &Error{Code: CodeValidation}
	ErrConflict              = &Error{Code: CodeConflict}
	ErrInsufficientStock     = &Error{Code: CodeInsufficientStock}
	ErrPaymentExceedsBalance = &Error{Code: CodePaymentExceedsBalance}
	ErrProviderUnavailable   = &Error{Code: CodeProviderUnavailable}
	ErrInvalidTransition     = &Error{Code: CodeInvalidTransition}
	ErrInternal              = &Error{Code: CodeInternal}
)

func newError(code Code, id string, data map[string]any, format string, args ...any) *Error {
	return &Error{Code: code, MessageID: id, Data: data, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string, id any) *Error {
	return newError(CodeNotFound, "error.not_found",
		map[string]any{"Entity": entity, "ID": id}, "%s %v not found", entity, id)
}

func Validation(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return newError(CodeValidation, "error.validation", map[string]any{"Detail": msg}, "%s", msg)
}

func Conflict(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return newError(CodeConflict, "error.conflict", map[string]any{"Detail": msg}, "%s", msg)
}

func InsufficientStock(itemName string, available, requested int64) *Error {
	return newError(CodeInsufficientStock, "error.insufficient_stock",
		map[string]any{"Item": itemName, "Available": available, "Requested": requested},
		"insufficient stock for %s: available %d, requested %d", itemName, available, requested)
}

func PaymentExceedsBalance(amount, balance int64) *Error {
	return newError(CodePaymentExceedsBalance, "error.payment_exceeds_balance",
		map[string]any{"Amount": amount, "Balance": balance},
		"payment amount %d exceeds outstanding balance %d", amount, balance)
}

func ProviderUnavailable(provider string) *Error {
	return newError(CodeProviderUnavailable, "error.provider_unavailable",
		map[string]any{"Provider": provider}, "payment provider %q is not available", provider)
}

func InvalidTransition(entity string, from, to any) *Error {
	return newError(CodeInvalidTransition, "error.invalid_transition",
		map[string]any{"Entity": entity, "From": from, "To": to},
		"cannot move %s from %v to %v", entity, from, to)
}

func Internal(err error) *Error {
	e := newError(CodeInternal, "error.internal", nil, "internal error")
	e.Err = err
	return e
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
