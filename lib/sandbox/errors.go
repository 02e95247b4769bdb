// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// APIError is the classified failure of a provisioning-API operation.
// Callers use errors.As to extract the structured information:
//
//	var apiErr *sandbox.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Code == sandbox.ErrCodeConflict { ... }
//	}
type APIError struct {
	// Code is the portal's error classification (e.g. "UNAUTHORIZED",
	// "CONFLICT").
	Code string `json:"code"`
	// Message is the human-readable description, from the server when
	// it sent one, otherwise synthesized from the classification.
	Message string `json:"message"`
	// StatusCode is the HTTP status of the response, or 0 when the
	// request never produced one (timeout, transport failure).
	StatusCode int `json:"-"`
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("sandbox: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("sandbox: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Error classification codes. Every failed operation maps to exactly
// one of these; callers branch on the code, never on HTTP status or
// transport error details.
const (
	// ErrCodeUnauthorized: credential invalid or expired. Always
	// clears the session and routes the visitor to sign-in, uniformly
	// from any caller.
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeConflict: the visitor's active lease limit is reached.
	ErrCodeConflict = "CONFLICT"
	// ErrCodeNotFound: the requested lease template no longer exists.
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeTimeout: the request exceeded its deadline.
	ErrCodeTimeout = "TIMEOUT"
	// ErrCodeNetwork: the request never reached the server.
	ErrCodeNetwork = "NETWORK_ERROR"
	// ErrCodeServer: the server answered with a 5xx.
	ErrCodeServer = "SERVER_ERROR"
)

// IsAPIError checks whether err carries the given classification code.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// Retryable reports whether the classification is transient: the UI
// shows these inline with a retry affordance and preserves the
// visitor's in-progress state (a checked acceptance box survives).
func (e *APIError) Retryable() bool {
	switch e.Code {
	case ErrCodeTimeout, ErrCodeNetwork, ErrCodeServer:
		return true
	}
	return false
}

// classifyStatus maps an HTTP status code to a classification code.
func classifyStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case statusCode == http.StatusConflict:
		return ErrCodeConflict
	case statusCode == http.StatusNotFound:
		return ErrCodeNotFound
	case statusCode == http.StatusGatewayTimeout:
		return ErrCodeTimeout
	case statusCode >= 500:
		return ErrCodeServer
	default:
		// 4xx values outside the taxonomy indicate a client bug; the
		// server classification is the closest honest signal.
		return ErrCodeServer
	}
}

// classifyTransport maps a transport-level error (no HTTP response) to
// TIMEOUT or NETWORK_ERROR.
func classifyTransport(err error) *APIError {
	code := ErrCodeNetwork
	message := "request failed before reaching the server"

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		code = ErrCodeTimeout
		message = "request timed out"
	}

	return &APIError{Code: code, Message: message}
}
