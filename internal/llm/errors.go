package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidBaseURL = errors.New("invalid base URL")
	ErrNilContext     = errors.New("context cannot be nil")
	ErrMaxRetries     = errors.New("max retries exceeded")
)

type APIErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Type       string `json:"type"`
	Param      string `json:"param"`
	Code       any    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

type RateLimitError struct {
	APIError
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, e.Message)
}

type AuthenticationError struct {
	APIError
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s", e.StatusCode, e.Message)
}

type InvalidRequestError struct {
	APIError
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request (status %d): %s", e.StatusCode, e.Message)
}

func parseAPIError(statusCode int, body []byte) error {
	var resp APIErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return &APIError{
			StatusCode: statusCode,
			Message:    string(body),
		}
	}

	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    resp.Error.Message,
		Type:       resp.Error.Type,
		Param:      resp.Error.Param,
		Code:       resp.Error.Code,
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return &AuthenticationError{APIError: *apiErr}
	case http.StatusTooManyRequests:
		return &RateLimitError{APIError: *apiErr}
	case http.StatusBadRequest:
		return &InvalidRequestError{APIError: *apiErr}
	default:
		return apiErr
	}
}

func IsRateLimitError(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}

func IsAuthError(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
