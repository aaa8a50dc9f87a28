package graphql

import (
	"errors"
	"fmt"
	"strings"
)

// NetworkError means the request never produced an HTTP response: DNS, dial,
// reset or timeout. Callers treat it as "offline".
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("graphql http %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// GQLError is one entry of the response "errors" array.
type GQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code, or "".
func (e GQLError) Code() string {
	if e.Extensions == nil {
		return ""
	}
	code, _ := e.Extensions["code"].(string)
	return code
}

// ResponseError is a 2xx response carrying GraphQL errors.
type ResponseError struct {
	Errors []GQLError
}

func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return "graphql: unknown error"
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

// UserError is a validation error reported inside a mutation payload.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrors is returned when a mutation payload lists user errors.
// Error returns the first message only, which is what gets shown to shoppers.
type UserErrors struct {
	Errors []UserError
}

func (e *UserErrors) Error() string {
	if len(e.Errors) == 0 {
		return "unknown user error"
	}
	return e.Errors[0].Message
}

// CheckUserErrors converts a non-empty userErrors list into *UserErrors.
func CheckUserErrors(errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrors{Errors: errs}
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsAuthError reports whether err means the access token was rejected.
func IsAuthError(err error) bool {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == 401
	}
	var re *ResponseError
	if errors.As(err, &re) {
		for _, ge := range re.Errors {
			switch ge.Code() {
			case "UNAUTHORIZED", "UNAUTHENTICATED":
				return true
			}
			if strings.Contains(strings.ToLower(ge.Message), "access token") {
				return true
			}
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
