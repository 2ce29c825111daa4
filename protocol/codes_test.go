package protocol

import "testing"

func TestResultCodeString(t *testing.T) {
	tests := []struct {
		code     ResultCode
		expected string
	}{
		{Success, "success"},
		{NoSuchObject, "no such object"},
		{InvalidCredentials, "invalid credentials"},
		{PartialResults, "partial results and referral received"},
		{ResultCode(999), "unknown result code (999)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.code.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResultCodeIsSuccess(t *testing.T) {
	tests := []struct {
		code     ResultCode
		expected bool
	}{
		{Success, true},
		{PartialResults, true},
		{NoSuchObject, false},
		{InvalidCredentials, false},
		{Busy, false},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.IsSuccess(); got != tt.expected {
				t.Errorf("IsSuccess(%d) = %v, expected %v", int(tt.code), got, tt.expected)
			}
		})
	}
}

func TestScope(t *testing.T) {
	if !ScopeWholeSubtree.Valid() {
		t.Error("expected subtree scope to be valid")
	}
	if ScopeUnspecified.Valid() {
		t.Error("expected unspecified scope to be invalid")
	}
	if Scope(7).Valid() {
		t.Error("expected out of range scope to be invalid")
	}
	if got := ScopeSingleLevel.String(); got != "one" {
		t.Errorf("expected \"one\", got %q", got)
	}
}
