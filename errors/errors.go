// Package errors provides standardized error handling patterns for the
// annotation core. It includes error classification, standard error
// variables for every failure mode the data model can report, and helper
// functions for consistent error wrapping across packages.
package errors

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorInvalid represents errors due to invalid input or state.
	// These are caller mistakes and must not be retried unchanged.
	ErrorInvalid ErrorClass = iota
	// ErrorTransient represents temporary errors that may be retried
	// (storage connectivity, revision races).
	ErrorTransient
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorInvalid:
		return "invalid"
	case ErrorTransient:
		return "transient"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Attribute store errors
	ErrInvalidAttribute  = errors.New("attribute requires at least one value")
	ErrAttributeNotFound = errors.New("attribute not found")

	// Feature graph errors
	ErrDuplicateID       = errors.New("feature id already present in graph")
	ErrDanglingReference = errors.New("parent reference cannot be resolved")
	ErrCycleDetected     = errors.New("feature is its own ancestor")
	ErrSetMismatch       = errors.New("feature set id does not match owning set")

	// Continuous-signal errors
	ErrInvalidRegion = errors.New("invalid region for bin evaluation")

	// Codec errors. ErrDecode is the umbrella; the others are
	// sub-reasons wrapped alongside it so callers can match either.
	ErrDecode          = errors.New("decode failed")
	ErrTruncated       = errors.New("truncated or malformed input")
	ErrUnknownKind     = errors.New("unknown record kind")
	ErrMissingRequired = errors.New("required field missing")
	ErrBadUnionTag     = errors.New("union tag out of range")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Storage errors
	ErrNotFound         = errors.New("record not found")
	ErrRevisionConflict = errors.New("record was modified concurrently")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsInvalid checks if an error is due to invalid input or state
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidAttribute) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrDanglingReference) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrSetMismatch) ||
		errors.Is(err, ErrInvalidRegion) ||
		errors.Is(err, ErrDecode) ||
		errors.Is(err, ErrInvalidConfig)
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	return errors.Is(err, ErrRevisionConflict)
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return false
}

// Classify returns the error class for an error. Unknown errors are
// classified invalid: this is a data-model library, so an unrecognized
// failure almost always means bad input rather than a flaky dependency.
func Classify(err error) ErrorClass {
	if IsTransient(err) {
		return ErrorTransient
	}
	if IsFatal(err) {
		return ErrorFatal
	}
	return ErrorInvalid
}

// newClassified creates a new classified error.
// This is an internal helper - use WrapInvalid(), WrapTransient(), or WrapFatal() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapDecode wraps a decode sub-reason so that both ErrDecode and the
// sub-reason match with errors.Is. Decode failures never partially
// populate a record, so callers only ever see the error, not the state.
func WrapDecode(subReason error, component, method, detail string) error {
	if subReason == nil {
		subReason = ErrTruncated
	}
	return WrapInvalid(fmt.Errorf("%w: %s: %w", ErrDecode, detail, subReason), component, method, "decode")
}
