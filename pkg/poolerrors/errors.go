// Package poolerrors provides structured error handling for spawnpool with
// error categorization, key-value context, and captured stack traces.
//
// Every failure the pool or resolver reports is a *Error carrying an
// ErrorType. Callers branch on the category with IsType rather than string
// matching:
//
//	inst, err := p.Spawn(ctx, "enemy", asset.Transform{})
//	if poolerrors.IsType(err, poolerrors.ErrorTypeSpawn) {
//	    // definitive failure for this call; no retry happens below this layer
//	}
//
// Failures are never fatal to pool state and are never retried here; callers
// needing resilience retry at their own layer.
package poolerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType categorizes a failure for handling strategies, logging, and
// monitoring.
type ErrorType string

const (
	// ErrorTypeLoad indicates the asset backend failed to load a key.
	ErrorTypeLoad ErrorType = "load"
	// ErrorTypeInstantiate indicates the asset backend failed to create an instance.
	ErrorTypeInstantiate ErrorType = "instantiate"
	// ErrorTypeSpawn indicates a pool spawn could not produce an instance.
	ErrorTypeSpawn ErrorType = "spawn"
	// ErrorTypeDuplicateKey indicates a key was registered twice.
	ErrorTypeDuplicateKey ErrorType = "duplicate_key"
	// ErrorTypeUnknownKey indicates an operation targeted a key with no policy.
	ErrorTypeUnknownKey ErrorType = "unknown_key"
	// ErrorTypeConfig indicates invalid configuration.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeBackend indicates a backend-level failure (connection, protocol).
	ErrorTypeBackend ErrorType = "backend"
	// ErrorTypeClosed indicates an operation on a closed pool or resolver.
	ErrorTypeClosed ErrorType = "closed"
)

// Error is a structured error with a category, optional cause, key-value
// details, and the call stack captured at creation.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame of the call stack at error creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a key-value detail. Chainable.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given type, capturing the call stack.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates an error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a category and message, preserving the
// original as the cause. If the cause is already a *Error its stack is kept.
// Returns nil for a nil input.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType reports whether err (or anything it wraps) is a *Error of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// captureStack records up to maxFrames frames, skipping the given count.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
