/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Diagram", "123")
	
	// Test error message
	expected := `Diagram with key "123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	
	// Test Is method
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	
	// Test helper function
	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("EntityType", "Core.Design")
	
	// Test error message
	expected := `EntityType with key "Core.Design" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	
	// Test Is method
	if !errors.Is(err, ErrAlreadyExists) {
		t.Error("AlreadyExistsError should match ErrAlreadyExists")
	}
	
	// Test helper function
	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "owner",
			message:  "must not be nil",
			expected: `validation failed for field "owner": must not be nil`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}
	
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)
			
			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
			
			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestLifecycleError(t *testing.T) {
	err := NewLifecycleError("delete", "Design", "d-1", "Deleted")
	
	// Test error message
	expected := `cannot delete Design "d-1" in state Deleted`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	
	// Test Is method
	if !errors.Is(err, ErrLifecycle) {
		t.Error("LifecycleError should match ErrLifecycle")
	}
	
	// Test helper function
	if !IsLifecycle(err) {
		t.Error("IsLifecycle should return true for LifecycleError")
	}
	
	unidentified := NewLifecycleError("update", "Shape", "", "New")
	if unidentified.Error() != "cannot update Shape in state New" {
		t.Errorf("Unexpected message for unidentified entity: %q", unidentified.Error())
	}
}

func TestSchemaError(t *testing.T) {
	err := NewSchemaError("line_style", "color_style", "reference to unidentified entity")
	
	expected := `schema violation in line_style field "color_style": reference to unidentified entity`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsSchema(err) {
		t.Error("IsSchema should return true for SchemaError")
	}
}

func TestAmbiguousError(t *testing.T) {
	err := NewAmbiguousError("ProjectSettings", "Demo", 2)
	
	expected := `2 ProjectSettings entities match key "Demo"`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	if !IsAmbiguous(err) {
		t.Error("IsAmbiguous should return true for AmbiguousError")
	}
}

func TestPreconditionErrors(t *testing.T) {
	wrapped := fmt.Errorf("insert design: %w", ErrNotOpen)
	
	if !errors.Is(wrapped, ErrNotOpen) {
		t.Error("Wrapped ErrNotOpen should match itself")
	}
	if !IsPrecondition(wrapped) {
		t.Error("ErrNotOpen should match ErrPrecondition")
	}
	if errors.Is(wrapped, ErrNoStore) {
		t.Error("ErrNotOpen must not match ErrNoStore")
	}
}

func TestErrorWrapping(t *testing.T) {
	// Test that wrapped errors still match
	original := NewNotFoundError("Diagram", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)
	
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}
	
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	// Ensure sentinel errors are distinct
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrPrecondition,
		ErrLifecycle,
		ErrSchema,
		ErrAmbiguous,
		ErrNoIndexMap,
	}
	
	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}