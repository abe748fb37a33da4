// Package errors provides structured error types for gvbind.
//
// Every failure surfaced by the graph binding, the pipeline and the HTTP
// service carries a machine-readable [Code], so callers can branch on the
// failure category without string matching:
//
//   - CONTEXT_INIT_FAILED: the layout engine runtime could not be created
//   - GRAPH_CREATION_FAILED, NODE_CREATION_FAILED, EDGE_CREATION_FAILED:
//     the engine refused to allocate a graph object
//   - INVALID_REFERENCE: a node or edge handle is stale or foreign
//   - ATTRIBUTE_NOT_FOUND: a strict attribute read found nothing
//   - LAYOUT_FAILED, RENDER_FAILED: the engine rejected the request
//   - INVALID_CONTEXT: the engine context is closed or mismatched
//   - INVALID_*: input validation failures
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "attribute key cannot be empty")
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap native errors, naming the operation that failed
//	err := errors.Wrap(errors.ErrCodeLayoutFailed, origErr, "layout %q with %s", name, engine).WithOp("layout")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Engine lifecycle
	ErrCodeContextInit    Code = "CONTEXT_INIT_FAILED"
	ErrCodeInvalidContext Code = "INVALID_CONTEXT"

	// Graph construction
	ErrCodeGraphCreation Code = "GRAPH_CREATION_FAILED"
	ErrCodeNodeCreation  Code = "NODE_CREATION_FAILED"
	ErrCodeEdgeCreation  Code = "EDGE_CREATION_FAILED"
	ErrCodeInvalidRef    Code = "INVALID_REFERENCE"

	// Attributes
	ErrCodeAttrNotFound Code = "ATTRIBUTE_NOT_FOUND"

	// Engine operations
	ErrCodeLayoutFailed Code = "LAYOUT_FAILED"
	ErrCodeRenderFailed Code = "RENDER_FAILED"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidEngine Code = "INVALID_ENGINE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Op      string // Operation that failed (optional)
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Code)
	if e.Op != "" {
		prefix += " (" + e.Op + ")"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithOp records the failing operation and returns e for chaining.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
// Only the outermost *Error is consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetOp returns the operation recorded on the outermost *Error in the chain.
func GetOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
