// Package errors defines the error taxonomy shared by the persistence
// bridge: connectivity failures, query failures, decode failures, and
// document/config errors. Graph connectivity is fatal only during schema
// bootstrap; everywhere else these errors are logged and the current
// bind/write cycle is abandoned.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConnectivity represents an unreachable graph store
	ErrorTypeConnectivity ErrorType = "connectivity"
	// ErrorTypeQuery represents a malformed statement or constraint violation
	ErrorTypeQuery ErrorType = "query"
	// ErrorTypeDecode represents a failed property reconstruction
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeDocument represents replicated-document errors
	ErrorTypeDocument ErrorType = "document"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Classified reports whether err is already one of the bridge error
// types, so wrapping layers don't re-classify it.
func Classified(err error) bool {
	var c *ErrConnectivity
	var q *ErrQuery
	return errors.As(err, &c) || errors.As(err, &q)
}

// IsConnectivity reports whether err is a store-unreachable error.
func IsConnectivity(err error) bool {
	var c *ErrConnectivity
	return errors.As(err, &c)
}

// Connectivity errors

// ErrConnectivity wraps a failure to reach the graph store
type ErrConnectivity struct {
	*BaseError
	URI string
}

func NewConnectivity(uri string, err error) *ErrConnectivity {
	return &ErrConnectivity{
		BaseError: NewBaseError(ErrorTypeConnectivity, fmt.Sprintf("graph store unreachable: %s", uri), err),
		URI:       uri,
	}
}

// Query errors

// ErrQuery wraps a failed graph statement
type ErrQuery struct {
	*BaseError
}

func NewQuery(message string, err error) *ErrQuery {
	return &ErrQuery{
		BaseError: NewBaseError(ErrorTypeQuery, message, err),
	}
}

// Document errors

// ErrDocumentPopulated is returned when a bind targets a document that
// already holds replicated state and must not be overwritten
type ErrDocumentPopulated struct {
	*BaseError
	BoardID string
}

func NewDocumentPopulated(boardID string) *ErrDocumentPopulated {
	return &ErrDocumentPopulated{
		BaseError: NewBaseError(ErrorTypeDocument, fmt.Sprintf("document already populated: %s", boardID), nil),
		BoardID:   boardID,
	}
}
