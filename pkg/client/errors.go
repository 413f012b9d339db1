package client

import (
	"errors"
	"fmt"
)

// ErrNetwork marks failures to reach the API at all.
var ErrNetwork = errors.New("network error")

// NetworkMessage is shown to the user when the API cannot be reached.
const NetworkMessage = "Network error. Please try again."

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	// Message is the API's {"error": ...} text, if the body carried one.
	Message string
	// Body is the raw body when it was not an API error document.
	Body string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// Message returns the text to show a user for err. API rejections surface the
// server's message verbatim, transport failures get NetworkMessage, and
// everything else falls back to fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.Message != "" {
			return httpErr.Message
		}
		return fallback
	}
	if errors.Is(err, ErrNetwork) {
		return NetworkMessage
	}
	return fallback
}
