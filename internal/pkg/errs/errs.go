// Package errs defines the error taxonomy shared by all API and engine
// code. Anything detectable before a job leaves draft is returned to the
// caller as one of these types; failures after queueing are recorded on
// the job itself and never surface here.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed or inconsistent input. It is
// rejected synchronously and never persisted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates a referenced record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource and id.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// PermissionError indicates the caller does not own the referenced
// record. Kept distinct from NotFoundError on purpose.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// Permissionf builds a PermissionError from a format string.
func Permissionf(format string, args ...any) error {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsPermission reports whether err is a PermissionError.
func IsPermission(err error) bool {
	var p *PermissionError
	return errors.As(err, &p)
}
