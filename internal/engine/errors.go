package engine

import "fmt"

// ValidationError rejects malformed or rule-violating input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError signals a uniqueness collision, such as a duplicate case pin.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// NoAvailableManagerError means the active roster is empty, so a referral
// cannot be assigned. Not a caller input problem; the referral can be retried
// once managers are active again.
type NoAvailableManagerError struct {
	Msg string
}

func (e *NoAvailableManagerError) Error() string { return e.Msg }

// NotFoundError signals a missing entity.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func notFoundf(format string, args ...any) *NotFoundError {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// DependencyError wraps a failure in an external collaborator, such as the
// registry or the PDF tooling.
type DependencyError struct {
	Msg string
	Err error
}

func (e *DependencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DependencyError) Unwrap() error { return e.Err }
