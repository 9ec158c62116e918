package mpesa

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// GatewayAuthError is returned when no access token could be obtained.
type GatewayAuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mpesa: access token: %v", e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("mpesa: access token: status %d", e.StatusCode)
	}
	return fmt.Sprintf("mpesa: access token: status %d: %s", e.StatusCode, e.Body)
}

func (e *GatewayAuthError) Unwrap() error {
	return e.Err
}

// Detail is the most specific upstream message available.
func (e *GatewayAuthError) Detail() string {
	return detail(e.Body, e.Err, e.StatusCode)
}

// GatewayRequestError is returned when a push or query call fails. Body holds
// the gateway's error payload verbatim.
type GatewayRequestError struct {
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *GatewayRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mpesa: %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("mpesa: %s: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

func (e *GatewayRequestError) Unwrap() error {
	return e.Err
}

func (e *GatewayRequestError) Detail() string {
	return detail(e.Body, e.Err, e.StatusCode)
}

// retryable reports whether a token request may succeed when repeated:
// transport failures and 5xx/429 are, rejected credentials are not.
func (e *GatewayAuthError) retryable() bool {
	if e.Err != nil && e.StatusCode == 0 {
		return true
	}
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

func detail(body string, err error, status int) string {
	if body != "" {
		var reply struct {
			ErrorMessage string `json:"errorMessage"`
		}
		if json.Unmarshal([]byte(body), &reply) == nil && reply.ErrorMessage != "" {
			return reply.ErrorMessage
		}
		return body
	}
	if err != nil {
		return err.Error()
	}
	return http.StatusText(status)
}
