package domain

import (
	"context"
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches sentinel domain errors by code and message so wrapped
// copies created with NewDomainErrorWithCause still compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeInvalidOperation    = "INVALID_OPERATION"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeConsistency         = "CONSISTENCY_ERROR"
	ErrCodeInvalidCombination  = "INVALID_SUBJECT_COMBINATION"
	ErrCodeParse               = "PARSE_ERROR"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyQuery           = NewDomainError(ErrCodeValidation, "query is required")
	ErrMissingRoomID        = NewDomainError(ErrCodeValidation, "room_id is required")
	ErrMissingPublicID      = NewDomainError(ErrCodeValidation, "public_id is required")
	ErrInvalidJobStatus     = NewDomainError(ErrCodeValidation, "invalid cleanup job status")
	ErrInvalidJobTarget     = NewDomainError(ErrCodeValidation, "invalid cleanup job target")
	ErrUnsupportedFileType  = NewDomainError(ErrCodeValidation, "unsupported file type")
	ErrEmptyDocument        = NewDomainError(ErrCodeValidation, "document has no text")
	ErrInvalidCursor        = NewDomainError(ErrCodeValidation, "invalid cursor")
)

// Not found errors
var (
	ErrFileNotFound       = NewDomainError(ErrCodeNotFound, "file not found")
	ErrCleanupJobNotFound = NewDomainError(ErrCodeNotFound, "cleanup job not found")
	ErrChunkNotFound      = NewDomainError(ErrCodeNotFound, "chunk not found")
	ErrRoomNotFound       = NewDomainError(ErrCodeNotFound, "conversation not found")
)

// Authorization errors
var (
	ErrInvalidAdminToken = NewDomainError(ErrCodeUnauthorized, "invalid admin token")
)

// Admission reasoning errors
var (
	ErrUnknownSubject         = NewDomainError(ErrCodeInvalidCombination, "unknown subject")
	ErrInvalidCombination     = NewDomainError(ErrCodeInvalidCombination, "subject combination is not recognized")
	ErrScoreOutOfRange        = NewDomainError(ErrCodeValidation, "subject score must be between 0 and 10")
	ErrSubjectCountMismatch   = NewDomainError(ErrCodeValidation, "exactly three subjects and three scores are required")
	ErrUnknownScoreMethod     = NewDomainError(ErrCodeValidation, "unknown admission method")
	ErrNoReferenceDataForYear = NewDomainError(ErrCodeNotFound, "no reference data for that year")
)

// Upstream and consistency errors
var (
	ErrUpstreamUnavailable = NewDomainError(ErrCodeUpstreamUnavailable, "upstream service unavailable")
	ErrUpstreamTimeout     = NewDomainError(ErrCodeUpstreamUnavailable, "upstream service timed out")
	ErrPartialWrite        = NewDomainError(ErrCodeConsistency, "knowledge stores diverged")
	ErrMalformedLLMOutput  = NewDomainError(ErrCodeParse, "malformed model output")
)

// Upstream wraps err as an UPSTREAM_UNAVAILABLE error. Deadline errors
// become ErrUpstreamTimeout so callers can tell the two apart.
func Upstream(operation string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) && de.Code == ErrCodeUpstreamUnavailable {
		return err
	}
	msg := ErrUpstreamUnavailable.Message
	if errors.Is(err, context.DeadlineExceeded) {
		msg = ErrUpstreamTimeout.Message
	}
	return NewDomainErrorWithCause(ErrCodeUpstreamUnavailable, msg, fmt.Errorf("%s: %w", operation, err))
}

// IsUpstream reports whether err is an upstream failure or timeout.
func IsUpstream(err error) bool {
	return HasCode(err, ErrCodeUpstreamUnavailable)
}

// HasCode reports whether err wraps a DomainError with the given code.
func HasCode(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
