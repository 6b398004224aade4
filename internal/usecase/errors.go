package usecase

import "errors"

var (
	// ErrNotAuthenticated indicates an authenticated-only operation was
	// invoked with no current session. This is a caller bug the UI should
	// prevent, not a runtime condition to degrade from.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrCourseNotFound indicates the requested course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrAlreadyEnrolled indicates the user already holds an enrollment for the course.
	ErrAlreadyEnrolled = errors.New("already enrolled in course")
	// ErrForbidden indicates the current profile lacks the required role.
	ErrForbidden = errors.New("admin role required")
)

// AuthError reports a rejected identity operation. Message preserves the
// provider's original text so callers can map it to user-facing guidance
// (e.g. special-casing an "email not confirmed" response).
type AuthError struct {
	Op      string
	Message string
	Err     error
}

// Error implements error for AuthError.
func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "authentication failed"
}

// Unwrap exposes the underlying provider error.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed profile read or write against the
// provider's data store.
type PersistenceError struct {
	Op  string
	Err error
}

// Error implements error for PersistenceError.
func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op
}

// Unwrap exposes the underlying store error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
