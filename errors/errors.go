package errors

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Error is a coded failure from the recents model or its relay. Besides the
// code it can name the task, the view and the relay peer involved.
type Error struct {
	code    ErrorCode
	message string
	cause   error
	taskID  int
	hasTask bool
	view    string
	peer    string
	meta    map[string]string
}

var (
	_ error            = (*Error)(nil)
	_ json.Marshaler   = (*Error)(nil)
	_ json.Unmarshaler = (*Error)(nil)
)

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Code() ErrorCode { return e.code }

func (e *Error) Category() ErrorCategory { return e.code.DefaultCategory() }

// Retryable reports whether the same call may succeed later.
func (e *Error) Retryable() bool { return e.Category().IsRetryable() }

func (e *Error) Unwrap() error { return e.cause }

// TaskID returns the task the error is about, if any.
func (e *Error) TaskID() (int, bool) { return e.taskID, e.hasTask }

// View returns the projection ("active", "history", ...) the error refers to.
func (e *Error) View() string { return e.view }

// Peer returns the relay callback name the error refers to.
func (e *Error) Peer() string { return e.peer }

// Metadata returns a copy of the free-form context.
func (e *Error) Metadata() map[string]string {
	out := make(map[string]string, len(e.meta))
	for k, v := range e.meta {
		out[k] = v
	}
	return out
}

// Is matches another *Error by code, so errors.Is(err, errors.New(code, ""))
// works through the standard library as well.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t != nil && t.code == e.code
}

// Detail renders the message followed by the identifying fields, for logs.
func (e *Error) Detail() string {
	var b strings.Builder
	b.WriteString(string(e.code))
	b.WriteString(" ")
	b.WriteString(e.Error())
	if e.hasTask {
		b.WriteString(" task=" + strconv.Itoa(e.taskID))
	}
	if e.view != "" {
		b.WriteString(" view=" + e.view)
	}
	if e.peer != "" {
		b.WriteString(" peer=" + e.peer)
	}
	return b.String()
}

// wireError is the JSON form relayed to remote peers.
type wireError struct {
	Code     ErrorCode         `json:"code"`
	Message  string            `json:"message"`
	Cause    string            `json:"cause,omitempty"`
	TaskID   *int              `json:"task_id,omitempty"`
	View     string            `json:"view,omitempty"`
	Peer     string            `json:"peer,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	w := wireError{
		Code:     e.code,
		Message:  e.message,
		View:     e.view,
		Peer:     e.peer,
		Metadata: e.meta,
	}
	if e.cause != nil {
		w.Cause = e.cause.Error()
	}
	if e.hasTask {
		id := e.taskID
		w.TaskID = &id
	}
	return json.Marshal(w)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	var w wireError
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Error{code: w.Code, message: w.Message, view: w.View, peer: w.Peer, meta: w.Metadata}
	if w.Cause != "" {
		e.cause = remoteCause(w.Cause)
	}
	if w.TaskID != nil {
		e.taskID, e.hasTask = *w.TaskID, true
	}
	return nil
}

// remoteCause stands in for a cause that only survived as text.
type remoteCause string

func (c remoteCause) Error() string { return string(c) }

// Option sets optional fields on an Error.
type Option func(*Error)

// WithTaskID names the task involved.
func WithTaskID(id int) Option {
	return func(e *Error) { e.taskID, e.hasTask = id, true }
}

// WithView names the projection involved.
func WithView(view string) Option {
	return func(e *Error) { e.view = view }
}

// WithPeer names the relay callback involved.
func WithPeer(name string) Option {
	return func(e *Error) { e.peer = name }
}

func WithMetadata(key, value string) Option {
	return func(e *Error) {
		if e.meta == nil {
			e.meta = make(map[string]string)
		}
		e.meta[key] = value
	}
}

func WithCause(cause error) Option {
	return func(e *Error) { e.cause = cause }
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string, opts ...Option) *Error {
	e := &Error{code: code, message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

func NotFound(message string, opts ...Option) *Error {
	return New(ErrCodeNotFound, message, opts...)
}

func InvalidInput(message string, opts ...Option) *Error {
	return New(ErrCodeInvalidInput, message, opts...)
}

// DuplicateTask reports a task list that carries the same identity twice.
func DuplicateTask(taskID int, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID)}, opts...)
	return New(ErrCodeDuplicateTask, "duplicate task "+strconv.Itoa(taskID), opts...)
}

// TaskNotVisible reports an operation addressed to a task through a
// projection that does not currently show it.
func TaskNotVisible(taskID int, view string, opts ...Option) *Error {
	opts = append([]Option{WithTaskID(taskID), WithView(view)}, opts...)
	return New(ErrCodeTaskNotVisible, fmt.Sprintf("task %d is not visible in %s", taskID, view), opts...)
}

// PeerGone reports a relay callback whose remote end has disconnected.
func PeerGone(message string, opts ...Option) *Error {
	return New(ErrCodePeerGone, message, opts...)
}
