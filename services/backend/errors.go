package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool     { return statusOf(err) == http.StatusNotFound }
func IsUnauthorized(err error) bool { s := statusOf(err); return s == http.StatusUnauthorized || s == http.StatusForbidden }
func IsConflict(err error) bool     { return statusOf(err) == http.StatusConflict }

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int { return statusOf(err) }

// newAPIError extracts a message from a JSON error body of the shape
// {"message": "..."} or {"error": "..."}.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if json.Unmarshal(body, &payload) == nil {
		msg = payload.Message
		if msg == "" {
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 || msg == "" {
			msg = http.StatusText(status)
		}
	}
	return &APIError{Status: status, Message: msg}
}
