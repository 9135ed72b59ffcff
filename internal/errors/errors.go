// Package errors defines the categorized error value returned across the
// rendering and printing boundaries. Every error carries a technical message
// for logs and a separately worded message meant for the person at the till.
package errors

import (
	"errors"
	"fmt"
	"time"

	"github.com/thereceipt/receipt-templater/internal/i18n"
)

// Category tags an error for callers deciding on retries or reporting.
type Category string

const (
	// Structural marks a malformed template or segment.
	Structural Category = "structural"
	// Data marks missing or invalid record fields and settings.
	Data Category = "data"
	// Timeout marks an I/O operation that exceeded its bound.
	Timeout Category = "timeout"
	// Transport marks a connection-level failure that may succeed on retry.
	Transport Category = "transport"
	// Device marks a non-retryable hardware or driver failure.
	Device Category = "device"
)

// Error is a categorized error with a user-facing message.
type Error struct {
	Category    Category               `json:"type"`
	Message     string                 `json:"message"`
	UserMessage string                 `json:"userMessage"`
	Timestamp   time.Time              `json:"timestamp"`
	Details     map[string]interface{} `json:"details,omitempty"`
	Wrapped     error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is matches another *Error of the same category.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Category == t.Category
	}
	return false
}

// New creates an error whose user message is the category default.
func New(category Category, message string) *Error {
	return &Error{
		Category:    category,
		Message:     message,
		UserMessage: i18n.T("error." + string(category)),
		Timestamp:   time.Now(),
	}
}

// Newf creates an error with a formatted technical message.
func Newf(category Category, format string, args ...interface{}) *Error {
	return New(category, fmt.Sprintf(format, args...))
}

// Wrap wraps err. It returns nil when err is nil.
func Wrap(err error, category Category, message string) *Error {
	if err == nil {
		return nil
	}
	e := New(category, message)
	e.Wrapped = err
	return e
}

// Wrapf wraps err with a formatted technical message.
func Wrapf(err error, category Category, format string, args ...interface{}) *Error {
	return Wrap(err, category, fmt.Sprintf(format, args...))
}

// WithUser replaces the user message with the catalog entry for key.
func (e *Error) WithUser(key string, args ...interface{}) *Error {
	e.UserMessage = i18n.T(key, args...)
	return e
}

// WithDetail attaches a detail value.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CategoryOf returns the category of the first *Error in err's chain, or
// the empty category.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ""
}

// UserMessage returns the user-facing message of err, falling back to the
// generic device message for uncategorized errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage
	}
	return i18n.T("error.device")
}

// IsRetryable reports whether err is a transport failure.
func IsRetryable(err error) bool {
	return CategoryOf(err) == Transport
}

// As is re-exported so callers importing this package do not also need the
// standard library one.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
