package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrEmailAlreadyRegistered is returned when the email is already taken.
	ErrEmailAlreadyRegistered = errors.New("user with this email already exists")
	// ErrInvalidCredentials is returned for unknown email or wrong password.
	// Both cases share one error so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is returned for a malformed or badly signed token.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrRateLimited is returned when a throttling window cap is exceeded.
	ErrRateLimited = errors.New("too many requests")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unrecognized errors
// collapse to a generic 500 so internal detail never reaches the client.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, err.Error(), "DUPLICATE_EMAIL")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
	case errors.Is(err, ErrRateLimited):
		return NewHTTPError(http.StatusTooManyRequests, err.Error(), "RATE_LIMITED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
