package apperrors

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Kind is the stable, client-visible failure category.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindValidation          Kind = "validation"
	KindPaymentVerification Kind = "payment_verification"
	KindConflict            Kind = "conflict"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindInternal            Kind = "internal"
)

// Error carries a Kind plus a human-readable message. Cause is never sent to
// clients outside development mode.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind Kind, op, message string, cause error) error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

func NotFound(op, message string) error  { return New(KindNotFound, op, message, nil) }
func Forbidden(op, message string) error { return New(KindForbidden, op, message, nil) }
func Validation(op, message string) error {
	return New(KindValidation, op, message, nil)
}
func PaymentVerification(op, message string) error {
	return New(KindPaymentVerification, op, message, nil)
}
func Conflict(op, message string) error { return New(KindConflict, op, message, nil) }
func Upstream(op, message string, cause error) error {
	return New(KindUpstreamUnavailable, op, message, cause)
}
func Internal(op string, cause error) error {
	return New(KindInternal, op, "internal error", cause)
}

// KindOf returns the kind carried by err, KindInternal for untyped errors and
// "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return "Something went wrong!"
}

// Classify maps infrastructure failures onto a Kind, leaving typed errors as-is.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return New(KindNotFound, op, "record not found", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return New(KindUpstreamUnavailable, op, "operation timed out", err)
	default:
		return New(KindInternal, op, "internal error", err)
	}
}
