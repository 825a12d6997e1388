package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a custom error type for API responses
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
	cause   error
}

// Error returns the error message
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, e.g. store.ErrNotFound.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is matches any APIError with the same code and message, so a sentinel still
// matches after WithCause has attached a cause to a copy of it.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// WithCause returns a copy of e carrying err as its cause and details.
func (e *APIError) WithCause(err error) *APIError {
	cp := *e
	cp.cause = err
	if err != nil {
		cp.Details = err.Error()
	}
	return &cp
}

func NewAPIError(code, message string, status int, details ...string) *APIError {
	err := &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

const codeInvalidTransition = "INVALID_TRANSITION"

var (
	ErrInvalidInput    = NewAPIError("INVALID_INPUT", "Invalid request data", http.StatusBadRequest)
	ErrUnauthorized    = NewAPIError("UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrForbidden       = NewAPIError("FORBIDDEN", "Not allowed", http.StatusForbidden)
	ErrNotFound        = NewAPIError("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrInternal        = NewAPIError("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
	ErrConflict        = NewAPIError("CONFLICT", "Resource conflict", http.StatusConflict)
	ErrTooManyRequests = NewAPIError("TOO_MANY_REQUESTS", "Too many requests, please try again later", http.StatusTooManyRequests)

	ErrUserNotFound       = NewAPIError("NOT_FOUND", "User not found", http.StatusNotFound)
	ErrActivityNotFound   = NewAPIError("NOT_FOUND", "Activity not found", http.StatusNotFound)
	ErrInvitationNotFound = NewAPIError("NOT_FOUND", "Invitation not found", http.StatusNotFound)

	ErrInvitationProcessed = NewAPIError(codeInvalidTransition, "This invitation has already been processed", http.StatusConflict)
	ErrCreatorCannotLeave  = NewAPIError(codeInvalidTransition, "The creator cannot leave the activity", http.StatusConflict)
	ErrSelfInvitation      = NewAPIError("INVALID_INPUT", "You cannot accept your own invitation", http.StatusBadRequest)
	ErrEmailTaken          = NewAPIError("CONFLICT", "Email is already registered", http.StatusConflict)
	ErrInvalidCredentials  = NewAPIError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized)
)

// IsInvalidTransition reports whether err is one of the state transition errors.
func IsInvalidTransition(err error) bool {
	var apiErr *APIError
	return stderrors.As(err, &apiErr) && apiErr.Code == codeInvalidTransition
}

func Wrap(err error, code, message string, status int) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return NewAPIError(code, message, status, err.Error()).WithCause(err)
}
