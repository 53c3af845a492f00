package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode classifies every failure a route handler can surface. The UI
// branches on the code: the first two send the user to Settings, the last
// two render a transient-failure banner.
type ErrorCode string

const (
	CodeNotConfigured ErrorCode = "NOT_CONFIGURED"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeUnreachable   ErrorCode = "UNREACHABLE"
	CodeServiceError  ErrorCode = "SERVICE_ERROR"
)

// ServiceError is the single error type that crosses package boundaries.
// It is a tagged value, not a hierarchy: consumers match on Code.
type ServiceError struct {
	Code    ErrorCode `json:"error"`
	Status  int       `json:"-"`
	Message string    `json:"message"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// APIError is the wire shape every failed route responds with.
type APIError struct {
	Error   ErrorCode `json:"error"`
	Message string    `json:"message"`
}

// NotConfigured is the pre-flight short circuit: handlers return it before
// attempting any upstream call when resolved credentials are incomplete.
func NotConfigured(service string) *ServiceError {
	return &ServiceError{
		Code:    CodeNotConfigured,
		Status:  http.StatusServiceUnavailable,
		Message: fmt.Sprintf("%s is not connected. Go to Settings to add credentials.", service),
	}
}

func Unauthorized(service string) *ServiceError {
	return &ServiceError{
		Code:    CodeUnauthorized,
		Status:  http.StatusUnauthorized,
		Message: fmt.Sprintf("%s rejected the stored credentials. Reconnect in Settings.", service),
	}
}

func Unreachable(service string, err error) *ServiceError {
	return &ServiceError{
		Code:    CodeUnreachable,
		Status:  http.StatusServiceUnavailable,
		Message: fmt.Sprintf("%s is unreachable (%v). Check the URL in Settings.", service, err),
	}
}

// UpstreamError wraps a non-2xx upstream response. The body is truncated so
// diagnostics survive without flooding logs or the UI.
func UpstreamError(service string, status int, body string) *ServiceError {
	const maxBody = 512

	if len(body) > maxBody {
		body = body[:maxBody]
	}

	return &ServiceError{
		Code:    CodeServiceError,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("%s returned %d: %s", service, status, body),
	}
}

// networkSignatures are the substrings a raw transport error is sniffed for
// when it reaches Normalize unclassified.
var networkSignatures = []string{
	"connection refused",
	"no such host",
	"timeout",
	"deadline exceeded",
	"network is unreachable",
	"connection reset",
	"EOF",
}

// Normalize converts any error into a ServiceError. Already-classified
// errors pass through with status and message unchanged; everything else is
// sniffed for network failure signatures and falls back to SERVICE_ERROR.
func Normalize(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	msg := err.Error()
	for _, sig := range networkSignatures {
		if strings.Contains(msg, sig) {
			return &ServiceError{
				Code:    CodeUnreachable,
				Status:  http.StatusServiceUnavailable,
				Message: "Service is unreachable. Check the URL in Settings.",
			}
		}
	}

	return &ServiceError{
		Code:    CodeServiceError,
		Status:  http.StatusBadGateway,
		Message: msg,
	}
}
