package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStore represents in-memory graph store errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
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

// ErrorType returns the category of the error
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
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

// Store Errors

// ErrNodeNotFound is returned when an operation references a node id that
// has no adjacency entry in its node type.
type ErrNodeNotFound struct {
	*BaseError
	Op       string
	NodeType string
	ID       string
}

func NewNodeNotFound(op, nodeType, id string) *ErrNodeNotFound {
	return &ErrNodeNotFound{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("%s: %s node not found: %s", op, nodeType, id), nil),
		Op:        op,
		NodeType:  nodeType,
		ID:        id,
	}
}

// ErrDuplicateNodeID is returned when an explicit id is already taken
// within its node type.
type ErrDuplicateNodeID struct {
	*BaseError
	NodeType string
	ID       string
}

func NewDuplicateNodeID(nodeType, id string) *ErrDuplicateNodeID {
	return &ErrDuplicateNodeID{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("duplicate %s node id: %s", nodeType, id), nil),
		NodeType:  nodeType,
		ID:        id,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", query), err),
		Query:     query,
	}
}

// ErrInvalidTag is returned when a spacetime edge carries a tag name that
// is neither a point tag nor an area tag.
type ErrInvalidTag struct {
	*BaseError
	Name string
}

func NewInvalidTag(name string) *ErrInvalidTag {
	return &ErrInvalidTag{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("invalid tag relationship name: %q", name), nil),
		Name:      name,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type typedError interface {
	ErrorType() ErrorType
}

// IsErrorType checks if an error, or any error it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	var typed typedError
	if errors.As(err, &typed) {
		return typed.ErrorType() == errType
	}
	return false
}

// IsNotFound reports whether err is a missing-node error
func IsNotFound(err error) bool {
	var nf *ErrNodeNotFound
	return errors.As(err, &nf)
}

// IsDuplicate reports whether err is a duplicate-id error
func IsDuplicate(err error) bool {
	var dup *ErrDuplicateNodeID
	return errors.As(err, &dup)
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Store errors are programming errors, never transient
	if IsErrorType(err, ErrorTypeStore) {
		return false
	}
	// Connection errors are retryable, bad tags are not
	var conn *ErrGraphConnectionFailed
	if errors.As(err, &conn) {
		return true
	}
	var q *ErrGraphQueryFailed
	return errors.As(err, &q)
}
