package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("not found")
	ErrReaderNil  = errors.New("reader is nil")
	ErrForbidden  = errors.New("permission denied")

	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrTimeLogNotFound = fmt.Errorf("time log %w", ErrNotFound)
	ErrLeaveNotFound   = fmt.Errorf("leave request %w", ErrNotFound)
	ErrPolicyNotFound  = fmt.Errorf("policy %w", ErrNotFound)

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrSelfAction         = errors.New("cannot perform this action on your own account")

	ErrProjectClosed = errors.New("project is completed")
	ErrDailyLimit    = errors.New("hours logged for the day would exceed 24")

	ErrOverlappingLeave    = errors.New("leave overlaps an existing request")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrLeaveNotPending     = errors.New("leave request is not pending")
	ErrLeaveNotCancellable = errors.New("leave request can no longer be cancelled")
)

// FieldError is a validation failure on a single input field, keyed by its JSON name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects field errors for one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Map returns field -> message, convenient for JSON responses.
func (e *ValidationError) Map() map[string]string {
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Message
	}
	return m
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// orNil returns nil when no field failed so callers can return it directly.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	sort.SliceStable(e.Fields, func(i, j int) bool { return e.Fields[i].Field < e.Fields[j].Field })
	return e
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}
