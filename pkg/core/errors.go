package core

import (
	"errors"
	"fmt"
)

// Sentinels for classifying errors with errors.Is.
var (
	ErrConnection   = errors.New("connection failed")
	ErrInvalidInput = errors.New("invalid input")
	ErrStatement    = errors.New("statement execution failed")
	ErrNotFound     = errors.New("entity not found")
)

// ConnectionError is returned when a connection cannot be established or revalidated.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to connect to %s", e.Driver)
	}
	return fmt.Sprintf("failed to connect to %s: %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// InvalidInputError is returned for a malformed request or record.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// StatementError is returned when the database rejects a statement.
// The message stays opaque; the driver error is reachable through Unwrap.
type StatementError struct {
	Op  string
	Err error
}

func (e *StatementError) Error() string {
	return "statement execution failed: " + e.Op
}

func (e *StatementError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStatement.
func (e *StatementError) Is(target error) bool { return target == ErrStatement }

// NotFoundError is returned when an entity has no columns in the catalog.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entity %s not found", e.Entity)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
