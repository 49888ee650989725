package attendance

import (
	"fmt"
	"strings"
)

// ParseError reports one malformed timestamp, clock value, or punch.
type ParseError struct {
	Item  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Item > 0 {
		fmt.Fprintf(&b, "entry %d: ", e.Item)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s ", e.Field)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, "%q: ", e.Value)
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("invalid value")
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError lists every structural problem of a profile.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation failed: " + e.Problems[0]
	}
	return fmt.Sprintf("validation failed with %d problems:\n- %s", len(e.Problems), strings.Join(e.Problems, "\n- "))
}

// AuthError means no usable session token is available.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RemoteRejection is a non-2xx answer of the remote service.
type RemoteRejection struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteRejection) Error() string {
	body := e.Body
	if body == "" {
		body = "No error message"
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// TransportError is a failure to reach the remote service at all.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
