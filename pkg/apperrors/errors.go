// Package apperrors defines the domain error kinds the chat pipeline
// distinguishes. Handlers branch on these with errors.As instead of matching
// substrings of error text.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage   = errors.New("message is required")
	ErrUnsafePipeline = errors.New("pipeline contains server-side javascript operators")
)

// MalformedIntentError means the model reply could not be parsed or validated
// as a query intent.
type MalformedIntentError struct {
	Raw   string // raw model output, truncated by the caller before logging
	Cause error
}

func (e *MalformedIntentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed query intent: %v", e.Cause)
	}
	return "malformed query intent"
}

func (e *MalformedIntentError) Unwrap() error { return e.Cause }

// StudentNotFoundError means a name lookup matched no student at all.
type StudentNotFoundError struct {
	Name string
}

func (e *StudentNotFoundError) Error() string {
	return fmt.Sprintf("student not found: %q", e.Name)
}

// NoCohortAttendanceError means the student exists but their stream+semester
// has no attendance records at all: no classes have been conducted yet.
type NoCohortAttendanceError struct {
	StudentName string
	Stream      string
	Semester    int
}

func (e *NoCohortAttendanceError) Error() string {
	return fmt.Sprintf("no attendance records for %s semester %d (student %s)",
		e.Stream, e.Semester, e.StudentName)
}

// StudentNoAttendanceError means the student exists and their cohort has
// attendance records, but this student appears in none of them.
type StudentNoAttendanceError struct {
	StudentName string
	StudentID   string
	Stream      string
	Semester    int
}

func (e *StudentNoAttendanceError) Error() string {
	return fmt.Sprintf("student %s (%s) has no attendance records", e.StudentName, e.StudentID)
}

// ExecutionError wraps any other database failure while running an intent.
type ExecutionError struct {
	Collection string
	Operation  string
	Cause      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execute %s on %s: %v", e.Operation, e.Collection, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
