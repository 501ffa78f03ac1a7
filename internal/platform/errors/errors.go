// Package errors is the bridge's API error model. An *Error carries a type
// that fixes its HTTP status and log level, a message for the page, and
// context fields naming the theme, index or component involved.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

type ErrorType string

const (
	TypeValidation  ErrorType = "validation"   // bad index, order, screen or payload
	TypeNotFound    ErrorType = "not_found"    // route, asset, theme, entry or component
	TypeConflict    ErrorType = "conflict"     // duplicate component name
	TypeUnsupported ErrorType = "unsupported"  // no installed theme renders the screen
	TypeRateLimited ErrorType = "rate_limited" // too many connect attempts
	TypeInternal    ErrorType = "internal"     // handler failure or panic
)

type kind struct {
	status int
	level  slog.Level
}

var kinds = map[ErrorType]kind{
	TypeValidation:  {http.StatusBadRequest, slog.LevelInfo},
	TypeNotFound:    {http.StatusNotFound, slog.LevelInfo},
	TypeConflict:    {http.StatusConflict, slog.LevelWarn},
	TypeUnsupported: {http.StatusUnprocessableEntity, slog.LevelWarn},
	TypeRateLimited: {http.StatusTooManyRequests, slog.LevelWarn},
	TypeInternal:    {http.StatusInternalServerError, slog.LevelError},
}

func (t ErrorType) kind() kind {
	if k, ok := kinds[t]; ok {
		return k
	}
	return kinds[TypeInternal]
}

// Status is the HTTP status for t. Unknown types are internal errors.
func (t ErrorType) Status() int { return t.kind().status }

// LogLevel is the level the boundary logs errors of type t at.
func (t ErrorType) LogLevel() slog.Level { return t.kind().level }

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) HTTPStatus() int { return e.Type.Status() }

// WithField sets a context field and returns e.
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func New(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

func ValidationError(message string) *Error { return New(TypeValidation, message, nil) }
func NotFoundError(message string) *Error   { return New(TypeNotFound, message, nil) }
func ConflictError(message string) *Error   { return New(TypeConflict, message, nil) }
func RateLimitedError(message string) *Error {
	return New(TypeRateLimited, message, nil)
}

func UnsupportedError(message string, cause error) *Error {
	return New(TypeUnsupported, message, cause)
}

func InternalError(message string, cause error) *Error {
	return New(TypeInternal, message, cause)
}

// Rule maps a sentinel error onto a type. An empty Message keeps the
// matched error's own text.
type Rule struct {
	Target  error
	Type    ErrorType
	Message string
}

// Classify returns err unchanged when it already is, or wraps, an *Error.
// Otherwise the first rule whose Target matches via errors.Is decides its
// type. Unmatched errors are returned as they are.
func Classify(err error, rules []Rule) error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return err
	}
	for _, r := range rules {
		if !errors.Is(err, r.Target) {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = err.Error()
		}
		return New(r.Type, msg, err)
	}
	return err
}

// ErrorResponse is the JSON body of every error the bridge returns.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: e.Context}
}

// AsStructuredError finds the *Error in err's chain. Anything else becomes
// an internal error that keeps its message; the page is the only reader.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return InternalError(err.Error(), err)
}
