package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

const (
	ErrorCodeRateLimited   = "RATE_LIMIT_EXCEEDED"
	ErrorCodeEmptyResponse = "EMPTY_RESPONSE"
	ErrorCodeUnknown       = "UNKNOWN_ERROR"
)

// LLMError is implemented by every error a Provider returns on its own account.
// Temporary errors are retried by Complete until the backoff gives up.
type LLMError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// APIError is a non-2xx answer from the completion endpoint.
type APIError struct {
	HTTPStatus int
	ErrorCode  string
	ErrorMsg   string
	Wrapped    error
}

func NewAPIError(httpStatus int, errorCode, message string, wrapped error) APIError {
	if errorCode == "" {
		errorCode = ErrorCodeUnknown
	}
	return APIError{HTTPStatus: httpStatus, ErrorCode: errorCode, ErrorMsg: message, Wrapped: wrapped}
}

func (e APIError) Error() string {
	return fmt.Sprintf("completion endpoint answered %d %s: %s", e.HTTPStatus, e.ErrorCode, e.ErrorMsg)
}

func (e APIError) Code() string    { return e.ErrorCode }
func (e APIError) Message() string { return e.ErrorMsg }
func (e APIError) Unwrap() error   { return e.Wrapped }

// Temporary covers request timeouts, throttling and upstream 5xx.
func (e APIError) Temporary() bool {
	switch e.HTTPStatus {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return e.HTTPStatus >= http.StatusInternalServerError && e.HTTPStatus != http.StatusNotImplemented
}

// NetworkError means the request never produced an HTTP answer.
type NetworkError struct {
	Operation string
	ErrorMsg  string
	Wrapped   error
}

func NewNetworkError(operation, message string, wrapped error) NetworkError {
	return NetworkError{Operation: operation, ErrorMsg: message, Wrapped: wrapped}
}

func (e NetworkError) Error() string {
	if e.Wrapped == nil {
		return fmt.Sprintf("%s: %s", e.Operation, e.ErrorMsg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.ErrorMsg, e.Wrapped)
}

func (e NetworkError) Code() string    { return "NETWORK_ERROR" }
func (e NetworkError) Message() string { return e.ErrorMsg }
func (e NetworkError) Temporary() bool { return true }
func (e NetworkError) Unwrap() error   { return e.Wrapped }

// ConfigurationError names a provider setting that makes every call fail.
type ConfigurationError struct {
	Field    string
	ErrorMsg string
}

func NewConfigurationError(field, message string) ConfigurationError {
	return ConfigurationError{Field: field, ErrorMsg: message}
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("llm config %s: %s", e.Field, e.ErrorMsg)
}

func (e ConfigurationError) Code() string    { return "CONFIGURATION_ERROR" }
func (e ConfigurationError) Message() string { return e.ErrorMsg }
func (e ConfigurationError) Temporary() bool { return false }

// RateLimitError is a 429 from the completion endpoint. RetryAfter is zero
// when the endpoint did not send a Retry-After header.
type RateLimitError struct {
	ErrorMsg   string
	RetryAfter time.Duration
	Wrapped    error
}

func (e RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("completion rate limited (retry after %s): %s", e.RetryAfter, e.ErrorMsg)
	}
	return "completion rate limited: " + e.ErrorMsg
}

func (e RateLimitError) Code() string    { return ErrorCodeRateLimited }
func (e RateLimitError) Message() string { return e.ErrorMsg }
func (e RateLimitError) Temporary() bool { return true }
func (e RateLimitError) Unwrap() error   { return e.Wrapped }

// EmptyResponseError is a 2xx completion without any choice.
type EmptyResponseError struct {
	Model string
}

func (e EmptyResponseError) Error() string {
	return fmt.Sprintf("model %s returned no choices", e.Model)
}

func (e EmptyResponseError) Code() string    { return ErrorCodeEmptyResponse }
func (e EmptyResponseError) Message() string { return "no choices in response" }
func (e EmptyResponseError) Temporary() bool { return false }

func IsRetryable(err error) bool {
	var llmErr LLMError
	return errors.As(err, &llmErr) && llmErr.Temporary()
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func isNetworkFailure(err error) bool {
	var netErr net.Error
	return errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr)
}
