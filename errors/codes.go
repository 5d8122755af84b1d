package errors

// ErrorCategory says whether retrying a failed call can help.
type ErrorCategory string

const (
	// CategoryTransient covers relay transports and peers that may come back.
	CategoryTransient ErrorCategory = "transient"
	// CategoryPermanent covers bad input and calls that are invalid for the
	// current model state.
	CategoryPermanent ErrorCategory = "permanent"
	// CategoryInternal covers invariant violations and recovered panics.
	CategoryInternal ErrorCategory = "internal"
)

func (c ErrorCategory) String() string { return string(c) }

// IsRetryable reports whether errors in c may succeed on retry.
func (c ErrorCategory) IsRetryable() bool { return c == CategoryTransient }

// ErrorCode identifies one failure kind.
type ErrorCode string

const (
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE" // relay transport down
	ErrCodePeerGone    ErrorCode = "PEER_GONE"   // remote callback disconnected

	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeConflict       ErrorCode = "CONFLICT"
	ErrCodePrecondition   ErrorCode = "PRECONDITION"
	ErrCodeCanceled       ErrorCode = "CANCELED"         // context done or relay service already dead
	ErrCodeDuplicateTask  ErrorCode = "DUPLICATE_TASK"   // two tasks share one identity
	ErrCodeTaskNotVisible ErrorCode = "TASK_NOT_VISIBLE" // task hidden by the projection it was addressed through

	ErrCodeInternal  ErrorCode = "INTERNAL"
	ErrCodeAssertion ErrorCode = "ASSERTION"
	ErrCodePanic     ErrorCode = "PANIC" // recovered from a panicking callback
)

func (c ErrorCode) String() string { return string(c) }

// DefaultCategory maps a code to its category. Unknown codes are internal.
func (c ErrorCode) DefaultCategory() ErrorCategory {
	switch c {
	case ErrCodeUnavailable, ErrCodePeerGone:
		return CategoryTransient
	case ErrCodeNotFound, ErrCodeInvalidInput, ErrCodeConflict, ErrCodePrecondition,
		ErrCodeCanceled, ErrCodeDuplicateTask, ErrCodeTaskNotVisible:
		return CategoryPermanent
	default:
		return CategoryInternal
	}
}
