// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package clierr provides error classification and user-friendly error formatting for the CLI.
// It helps distinguish between different error types and provides actionable hints.
package clierr

import (
	"errors"
	"fmt"
	"strings"
)

// Common error types for CLI output.
const (
	TypeTransport  = "transport"  // Connection/network errors reaching a platform
	TypeAuth       = "auth"       // Token rejected or missing permissions
	TypeRemote     = "remote"     // Platform reached but it reported a failure
	TypeShape      = "shape"      // Platform reply could not be decoded
	TypeInternal   = "internal"   // Internal/unexpected errors
	TypeValidation = "validation" // Input validation errors
)

// IsTransport checks if the error is a connection/network error.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout") ||
		strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "context deadline exceeded")
}

// IsAuth checks if the error is a rejected token or missing permission.
func IsAuth(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "http 401") ||
		strings.Contains(msg, "http 403") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "invalid token")
}

// IsRemote checks if a platform was reached but answered with a failure.
func IsRemote(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "http 4") ||
		strings.Contains(msg, "http 5") ||
		strings.Contains(msg, "bad gateway") ||
		strings.Contains(msg, "service unavailable") ||
		strings.Contains(msg, "internal server error") ||
		strings.Contains(msg, "rate limit")
}

// IsShape checks if the error comes from an undecodable platform reply.
func IsShape(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unmarshal") ||
		strings.Contains(msg, "unexpected end of json") ||
		strings.Contains(msg, "invalid character") ||
		strings.Contains(msg, "undecodable reply")
}

// IsValidation checks if the error is a local input problem.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "is required") ||
		strings.Contains(msg, "invalid value") ||
		strings.Contains(msg, "unknown kind") ||
		strings.Contains(msg, "unknown platform") ||
		strings.Contains(msg, "invalid query")
}

// ClassifyError determines the type of error for appropriate handling.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if IsValidation(err) {
		return TypeValidation
	}
	if IsTransport(err) {
		return TypeTransport
	}
	if IsAuth(err) {
		return TypeAuth
	}
	if IsShape(err) {
		return TypeShape
	}
	if IsRemote(err) {
		return TypeRemote
	}
	return TypeInternal
}

// Pretty formats an error with a user-friendly message and actionable hints.
func Pretty(err error) string {
	if err == nil {
		return ""
	}

	baseMsg := err.Error()

	switch ClassifyError(err) {
	case TypeTransport:
		return fmt.Sprintf("Connection error: %s\n\nHint: Check platform connectivity:\n"+
			"  - intel-scout platforms --check probes every configured platform\n"+
			"  - Verify the url entries in your platforms.yaml", baseMsg)

	case TypeAuth:
		return fmt.Sprintf("Access denied: %s\n\nHint: Check the platform token:\n"+
			"  - Tokens are read from INTEL_SCOUT_TOKEN_<PLATFORM_ID>\n"+
			"  - Confirm the account behind the token has API access", baseMsg)

	case TypeShape:
		return fmt.Sprintf("Unreadable reply: %s\n\nHint: The platform returned data this version cannot read.\n"+
			"  - Check that the platform API version matches this tool", baseMsg)

	case TypeRemote:
		return fmt.Sprintf("Platform error: %s\n\nHint: The platform was reached but could not serve the request.\n"+
			"  - Retry in a moment\n"+
			"  - Check the platform's own logs if it persists", baseMsg)

	case TypeValidation:
		return fmt.Sprintf("Invalid input: %s", baseMsg)

	default:
		return fmt.Sprintf("Error: %s", baseMsg)
	}
}

// WrapWithHint wraps an error with an additional hint message.
func WrapWithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w\n\nHint: %s", err, hint)
}

// NothingFound returns a user-friendly message when a scan or query returns
// no results. This is different from an error - it's a valid "empty" result.
func NothingFound(resource string) string {
	return fmt.Sprintf("No %s found matching your criteria.\n\n"+
		"This might mean:\n"+
		"  - The page has no recognizable indicators\n"+
		"  - Your filter/query is too restrictive\n"+
		"  - No configured platform knows these entities", resource)
}

// Unwrap returns the underlying error, stripping any wrapper.
func Unwrap(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}
