package errors

import (
	"context"
	"errors"
	"fmt"
)

// Wrap adds context to err. A coded error keeps its code and identifying
// fields; context cancellation becomes CANCELED; anything else INTERNAL.
// Wrap(nil, ...) is nil.
func Wrap(err error, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	var coded *Error
	switch {
	case errors.As(err, &coded):
		w := &Error{
			code:    coded.code,
			message: message,
			cause:   err,
			taskID:  coded.taskID,
			hasTask: coded.hasTask,
			view:    coded.view,
			peer:    coded.peer,
			meta:    coded.Metadata(),
		}
		for _, opt := range opts {
			opt(w)
		}
		return w
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return New(ErrCodeCanceled, message, append(opts, WithCause(err))...)
	default:
		return New(ErrCodeInternal, message, append(opts, WithCause(err))...)
	}
}

// WrapWithCode wraps err under an explicit code.
func WrapWithCode(err error, code ErrorCode, message string, opts ...Option) *Error {
	if err == nil {
		return nil
	}
	return New(code, message, append(opts, WithCause(err))...)
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var coded *Error
	ok := errors.As(err, &coded)
	return coded, ok
}

// Is reports whether any error in the chain carries code. Joined errors are
// searched branch by branch.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if coded, ok := err.(*Error); ok && coded.code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return Is(x.Unwrap(), code)
	}
	return false
}

// IsRetryable reports whether the outermost coded error is transient.
func IsRetryable(err error) bool {
	coded, ok := As(err)
	return ok && coded.Retryable()
}

// Code returns the outermost code in err's chain, or "".
func Code(err error) ErrorCode {
	if coded, ok := As(err); ok {
		return coded.code
	}
	return ""
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// RecoverPanic converts a recovered value into a PANIC error.
func RecoverPanic(recovered interface{}) *Error {
	if recovered == nil {
		return nil
	}
	var message string
	switch v := recovered.(type) {
	case error:
		message = v.Error()
	case string:
		message = v
	default:
		message = fmt.Sprint(v)
	}
	return New(ErrCodePanic, message, WithMetadata("panic_value", fmt.Sprintf("%T", recovered)))
}
