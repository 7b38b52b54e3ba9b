package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors
var (
	ErrNoIdentity = errors.New("no authenticated identity in context")
)

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// As returns the *APIError wrapped in err, if any.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// HasStatus reports whether err carries the given HTTP status.
func HasStatus(err error, status int) bool {
	apiErr, ok := As(err)
	return ok && apiErr.StatusCode == status
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func Validation(message string) *APIError {
	return NewAPIError("validation_error", message, http.StatusBadRequest)
}

func Forbidden(message string) *APIError {
	return NewAPIError("forbidden", message, http.StatusForbidden)
}

func Conflict(message string) *APIError {
	return NewAPIError("conflict", message, http.StatusConflict)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func TooManyRequests() *APIError {
	return NewAPIError("rate_limit_exceeded", "too many requests, please try again later", http.StatusTooManyRequests)
}

func IdempotencyConflict() *APIError {
	return NewAPIError("idempotency_conflict", "idempotency key already used with different request", http.StatusConflict)
}

func InsufficientSeats(available int) *APIError {
	return Validation(fmt.Sprintf("Only %d seat(s) available", available))
}

func SelfBooking() *APIError {
	return Validation("You cannot book your own offer")
}

func OfferInactive() *APIError {
	return Validation("Offer is not active")
}

func InvalidStatus(status string) *APIError {
	return Validation(fmt.Sprintf("invalid status: %s", status))
}

func InvalidTransition(from, to string) *APIError {
	return Validation(fmt.Sprintf("cannot transition from %s to %s", from, to))
}

func InvalidCredentials() *APIError {
	return Unauthorized("invalid email or password")
}
