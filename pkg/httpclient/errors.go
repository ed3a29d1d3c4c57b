package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/sony/gobreaker/v2"
)

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// APIError is a structured {"error": {"message", "type"}} body returned by
// a downstream service. Message is safe to show to end users.
type APIError struct {
	Service    string
	StatusCode int
	Type       string
	Message    string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned %d %s: %s", e.Service, e.StatusCode, e.Type, e.Message)
}

// StatusError is a non-2xx response whose body was not a structured error.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

type errorEnvelope struct {
	Error *struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns an *APIError when the body is structured, otherwise a *StatusError.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}
	return ParseErrorBody(resp.StatusCode, body, serviceName)
}

// ParseErrorBody is ParseResponseError for an already-read body.
func ParseErrorBody(status int, body []byte, serviceName string) error {
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil && env.Error.Message != "" {
		return &APIError{
			Service:    serviceName,
			StatusCode: status,
			Type:       env.Error.Type,
			Message:    env.Error.Message,
			RequestID:  env.Error.RequestID,
		}
	}
	return &StatusError{Service: serviceName, StatusCode: status, Body: string(body)}
}

// IsUnreachable reports whether err means the downstream service could not
// be reached at all: a transport failure or an open circuit. Cancellation by
// the caller is not counted.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

