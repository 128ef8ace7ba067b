// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package clierr

import (
	"errors"
	"testing"
)

func TestIsTransport(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:8080: connection refused"),
			expected: true,
		},
		{
			name:     "no such host",
			err:      errors.New("dial tcp: lookup octi.internal: no such host"),
			expected: true,
		},
		{
			name:     "context deadline exceeded",
			err:      errors.New("context deadline exceeded"),
			expected: true,
		},
		{
			name:     "i/o timeout",
			err:      errors.New("read tcp 192.168.1.1:443: i/o timeout"),
			expected: true,
		},
		{
			name:     "tls failure",
			err:      errors.New("tls: failed to verify certificate"),
			expected: true,
		},
		{
			name:     "regular error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsTransport(tt.err)
			if got != tt.expected {
				t.Errorf("IsTransport() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsAuth(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "bridge 401 status",
			err:      errors.New("HTTP 401 from octi-a: invalid credentials"),
			expected: true,
		},
		{
			name:     "forbidden in message",
			err:      errors.New("forbidden: user cannot create reports"),
			expected: true,
		},
		{
			name:     "access denied",
			err:      errors.New("access denied to scenario"),
			expected: true,
		},
		{
			name:     "regular error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsAuth(tt.err)
			if got != tt.expected {
				t.Errorf("IsAuth() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "bridge 502 status",
			err:      errors.New("HTTP 502 from octi-a: upstream down"),
			expected: true,
		},
		{
			name:     "service unavailable",
			err:      errors.New("service unavailable"),
			expected: true,
		},
		{
			name:     "rate limited",
			err:      errors.New("rate limit exceeded, retry later"),
			expected: true,
		},
		{
			name:     "regular error",
			err:      errors.New("something went wrong"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsRemote(tt.err)
			if got != tt.expected {
				t.Errorf("IsRemote() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "transport error",
			err:      errors.New("connection refused"),
			expected: TypeTransport,
		},
		{
			name:     "auth beats remote for 401",
			err:      errors.New("HTTP 401 from octi-a"),
			expected: TypeAuth,
		},
		{
			name:     "remote failure",
			err:      errors.New("HTTP 503 from obas-a: maintenance"),
			expected: TypeRemote,
		},
		{
			name:     "shape fault",
			err:      errors.New("json: cannot unmarshal object into Go value of type []bridge.Entity"),
			expected: TypeShape,
		},
		{
			name:     "validation error",
			err:      errors.New("platform url is required"),
			expected: TypeValidation,
		},
		{
			name:     "internal error",
			err:      errors.New("unexpected error"),
			expected: TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got != tt.expected {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantContain string
	}{
		{
			name:        "nil error",
			err:         nil,
			wantContain: "",
		},
		{
			name:        "auth error includes token hint",
			err:         errors.New("HTTP 403 from octi-a"),
			wantContain: "INTEL_SCOUT_TOKEN",
		},
		{
			name:        "transport error includes connectivity hint",
			err:         errors.New("connection refused"),
			wantContain: "platforms --check",
		},
		{
			name:        "remote error includes retry hint",
			err:         errors.New("HTTP 502 from octi-a"),
			wantContain: "Retry",
		},
		{
			name:        "shape error includes version hint",
			err:         errors.New("json: cannot unmarshal string"),
			wantContain: "API version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pretty(tt.err)
			if tt.wantContain != "" && !containsString(got, tt.wantContain) {
				t.Errorf("Pretty() = %q, want to contain %q", got, tt.wantContain)
			}
		})
	}
}

func containsString(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(substr) == 0 ||
		(len(s) > 0 && len(substr) > 0 && contains(s, substr)))
}

func contains(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestNothingFound(t *testing.T) {
	result := NothingFound("entities")
	if !containsString(result, "entities") {
		t.Errorf("NothingFound() should contain resource name")
	}
	if !containsString(result, "No ") {
		t.Errorf("NothingFound() should start with 'No '")
	}
}

func TestWrapWithHint(t *testing.T) {
	base := errors.New("HTTP 502 from octi-a")
	wrapped := WrapWithHint(base, "check the platform status page")
	if !errors.Is(wrapped, base) {
		t.Error("WrapWithHint() lost the underlying error")
	}
	if !containsString(wrapped.Error(), "Hint:") {
		t.Errorf("WrapWithHint() = %q, want hint appended", wrapped.Error())
	}
	if WrapWithHint(nil, "ignored") != nil {
		t.Error("WrapWithHint(nil) should stay nil")
	}
}
