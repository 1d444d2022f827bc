package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when arguments violate an entity invariant.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamDataSource is returned when a data source fetch fails.
	ErrUpstreamDataSource = errors.New("upstream data source failure")

	// ErrPersistence is returned when insights could not be stored.
	ErrPersistence = errors.New("persistence failure")
)

// InvalidInputError describes which field was rejected and why.
type InvalidInputError struct {
	Field   string
	Message string
}

// NewInvalidInputError creates an InvalidInputError.
func NewInvalidInputError(field, message string) *InvalidInputError {
	return &InvalidInputError{Field: field, Message: message}
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Message)
	}
	return fmt.Sprintf("invalid input on field '%s': %s", e.Field, e.Message)
}

// Is matches ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// UpstreamDataSourceError wraps a failed fetch from one named source.
type UpstreamDataSourceError struct {
	Source string
	Err    error
}

func (e *UpstreamDataSourceError) Error() string {
	return fmt.Sprintf("upstream data source %s: %v", e.Source, e.Err)
}

func (e *UpstreamDataSourceError) Unwrap() error {
	return e.Err
}

// Is matches ErrUpstreamDataSource.
func (e *UpstreamDataSourceError) Is(target error) bool {
	return target == ErrUpstreamDataSource
}

// PersistenceError wraps a failed write of generated insights.
type PersistenceError struct {
	Count int
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting %d insights: %v", e.Count, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is matches ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
