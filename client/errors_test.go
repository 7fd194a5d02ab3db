package client

import (
	"fmt"
	"net/http"
	"testing"
)

func TestParseErrorShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		typ     string
		message string
	}{
		{"full shape", `{"type":"validation","message":"bad email"}`, 400, "validation", "bad email"},
		{"error field only", `{"error":"invalid_grant"}`, 400, ErrTypeServerError, "invalid_grant"},
		{"oauth description", `{"error_description":"expired code"}`, 401, ErrTypeServerError, "expired code"},
		{"empty body", ``, 502, ErrTypeServerError, http.StatusText(502)},
		{"html body", `<html>gateway error</html>`, 504, ErrTypeServerError, http.StatusText(504)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := parseError([]byte(tt.body), tt.status)
			if e.Type != tt.typ || e.Message != tt.message || e.StatusCode != tt.status {
				t.Fatalf("parseError() = %+v", e)
			}
		})
	}
}

func TestIsTypeUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("fetch account: %w", NoSessionError())
	if !IsType(wrapped, ErrTypeNoSession) {
		t.Fatal("IsType must match through wrapping")
	}
	if IsType(wrapped, ErrTypeTokenExpired) {
		t.Fatal("IsType must discriminate kinds")
	}
	if IsType(fmt.Errorf("plain"), ErrTypeNoSession) {
		t.Fatal("IsType must reject non-API errors")
	}
}
