package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned for 401 responses: the credential is missing or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned for 403 responses: the user lacks the staff role.
	ErrForbidden = errors.New("forbidden")
	// ErrClientError is returned for all other 4xx responses.
	ErrClientError = errors.New("client error")
	// ErrServerError is returned for 5xx responses.
	ErrServerError = errors.New("server error")
	// ErrNetwork is returned when the request could not be sent or its response not read.
	ErrNetwork = errors.New("network error")
	// ErrInvalidResponse is returned when a 2xx response body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid response")
)

// ResponseError describes a non-2xx response of the backend.
// It unwraps to the sentinel matching its status class.
type ResponseError struct {
	StatusCode int
	// Message is the reason reported by the backend, empty if none could be extracted
	Message string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}

	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func (e *ResponseError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrServerError
	default:
		return ErrClientError
	}
}

// Message returns the backend-supplied reason carried by err, if any.
func Message(err error) (string, bool) {
	var respErr *ResponseError
	if errors.As(err, &respErr) && respErr.Message != "" {
		return respErr.Message, true
	}

	return "", false
}

// extractMessage finds a human-readable reason in an error body.
// It understands {"message": ...}, {"detail": ...}, {"error": ...} and
// serializer field errors such as {"username": ["already exists"]}.
func extractMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		var list []string
		if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
			return list[0]
		}

		return ""
	}

	for _, key := range []string{"message", "detail", "error"} {
		if msg := firstString(fields[key]); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		msg := firstString(fields[key])
		if msg == "" {
			continue
		}

		if key == "non_field_errors" {
			return msg
		}

		return key + ": " + msg
	}

	return ""
}

func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}

	return ""
}
