/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrPrecondition is returned when an operation is invoked in a state that does not allow it
	ErrPrecondition = errors.New("precondition violated")

	// ErrLifecycle is returned when a cache transition is not legal for the entity's current state
	ErrLifecycle = errors.New("lifecycle contract violated")

	// ErrSchema is returned when an entity reads or writes fields that do not match its registered schema
	ErrSchema = errors.New("schema violated")

	// ErrAmbiguous is returned when a lookup that must be unique matches more than one entity
	ErrAmbiguous = errors.New("ambiguous lookup")

	// ErrNoIndexMap is returned when no index map is found for an entity category
	ErrNoIndexMap = errors.New("no index map found for category")
)

// Precondition errors shared across the repository.
var (
	// ErrNotOpen is returned by operations that require an open repository
	ErrNotOpen = &PreconditionError{Condition: "repository is not open"}

	// ErrAlreadyOpen is returned by operations that require a closed repository
	ErrAlreadyOpen = &PreconditionError{Condition: "repository is already open"}

	// ErrNoStore is returned by operations that require an attached store
	ErrNoStore = &PreconditionError{Condition: "no store attached"}
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// PreconditionError represents an operation invoked in the wrong session state
type PreconditionError struct {
	Condition string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated: %s", e.Condition)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition || target == e
}

// LifecycleError represents an illegal state transition of a cached entity
type LifecycleError struct {
	Operation string
	Type      string
	Key       string
	State     string
}

func (e *LifecycleError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cannot %s %s in state %s", e.Operation, e.Type, e.State)
	}
	return fmt.Sprintf("cannot %s %s %q in state %s", e.Operation, e.Type, e.Key, e.State)
}

func (e *LifecycleError) Is(target error) bool {
	return target == ErrLifecycle
}

// SchemaError represents a mismatch between an entity's field stream and its registered schema
type SchemaError struct {
	Type    string
	Field   string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("schema violation in %s field %q: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("schema violation in %s: %s", e.Type, e.Message)
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// AmbiguousError represents a lookup that matched more than one entity
type AmbiguousError struct {
	Type  string
	Key   string
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%d %s entities match key %q", e.Count, e.Type, e.Key)
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewLifecycleError creates a new LifecycleError
func NewLifecycleError(operation, entityType, key, state string) error {
	return &LifecycleError{Operation: operation, Type: entityType, Key: key, State: state}
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(entityType, field, message string) error {
	return &SchemaError{Type: entityType, Field: field, Message: message}
}

// NewAmbiguousError creates a new AmbiguousError
func NewAmbiguousError(entityType, key string, count int) error {
	return &AmbiguousError{Type: entityType, Key: key, Count: count}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPrecondition checks if an error is a precondition error
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsLifecycle checks if an error is a lifecycle contract error
func IsLifecycle(err error) bool {
	return errors.Is(err, ErrLifecycle)
}

// IsSchema checks if an error is a schema error
func IsSchema(err error) bool {
	return errors.Is(err, ErrSchema)
}

// IsAmbiguous checks if an error is an ambiguous lookup error
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguous)
}
