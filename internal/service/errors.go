package service

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule violation. The HTTP layer maps kinds to
// status codes; the service itself never deals in status codes.
type Kind string

const (
	KindDuplicateEmail Kind = "DUPLICATE_EMAIL"
	KindNotFound       Kind = "STUDENT_NOT_FOUND"
)

// Error is a caller-visible, non-retryable validation failure.
type Error struct {
	Kind    Kind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewDuplicateEmailError reports that email already belongs to a student.
func NewDuplicateEmailError(email string) *Error {
	return &Error{
		Kind:    KindDuplicateEmail,
		Message: fmt.Sprintf("Email %s is already taken", email),
	}
}

// NewNotFoundError reports that no student has the given id.
func NewNotFoundError(id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("Student with id %d does not exist.", id),
	}
}

// KindOf extracts the Kind from err. ok is false for errors that are not
// business-rule violations (storage failures and the like).
func KindOf(err error) (kind Kind, ok bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return "", false
}
