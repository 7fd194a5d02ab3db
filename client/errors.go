package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Error kinds carried in Error.Type. The backend reports server_error
// taxonomy in response bodies; no_session, token_expired and not_found are
// synthesized locally without a server round-trip.
const (
	ErrTypeNoSession    = "no_session"
	ErrTypeTokenExpired = "token_expired"
	ErrTypeServerError  = "server_error"
	ErrTypeNotFound     = "not_found"
)

// Error is the error shape of the DriveDocs API: every non-2xx response body
// is `{type, message}`. StatusCode is zero for locally synthesized errors.
type Error struct {
	Type       string `json:"type"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

// Error implements error.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api error %s (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %s: %s", e.Type, e.Message)
}

// NoSessionError reports that no session exists; no network call was made.
func NoSessionError() *Error {
	return &Error{Type: ErrTypeNoSession, Message: "no active session"}
}

// TokenExpiredError reports that the refresh token was rejected and the
// session has been destroyed.
func TokenExpiredError() *Error {
	return &Error{Type: ErrTypeTokenExpired, Message: "token expired"}
}

// NotFoundError reports a local cache lookup miss.
func NotFoundError(what string) *Error {
	return &Error{Type: ErrTypeNotFound, Message: what + " not found"}
}

// IsType reports whether err is an *Error of the given kind.
func IsType(err error, kind string) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Type == kind
}

// parseError turns a non-2xx response body into an *Error. Bodies are
// normally `{type, message}` but proxies and older endpoints emit
// `{error}` or `{message}` alone, so the fields are probed leniently.
func parseError(body []byte, statusCode int) *Error {
	e := &Error{
		Type:       ErrTypeServerError,
		StatusCode: statusCode,
	}

	if gjson.ValidBytes(body) {
		if t := gjson.GetBytes(body, "type"); t.Exists() {
			e.Type = t.String()
		}
		for _, field := range []string{"message", "error", "error_description"} {
			if m := gjson.GetBytes(body, field); m.Exists() {
				e.Message = m.String()
				break
			}
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(statusCode)
	}
	return e
}
