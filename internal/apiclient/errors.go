package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/odyssey-erp/backoffice/internal/platform/httpx"
)

// ErrSessionExpired reports that the access token was rejected and could not
// be refreshed. Stored credentials have been cleared.
var ErrSessionExpired = errors.New("apiclient: session expired")

// APIError is a non-2xx response from the REST backend.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap exposes the httpx sentinel matching the status code.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return httpx.ErrNotFound
	case http.StatusConflict:
		return httpx.ErrDuplicate
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return httpx.ErrValidation
	case http.StatusForbidden:
		return httpx.ErrForbidden
	case http.StatusUnauthorized:
		return httpx.ErrUnauthorized
	default:
		return nil
	}
}

// errorBody covers the error shapes the backend emits: {"error": "..."},
// {"message": "..."} and RFC 7807 problems.
type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Detail  string            `json:"detail"`
	Title   string            `json:"title"`
	Errors  map[string]string `json:"errors"`
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status}
	var payload errorBody
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.Error, payload.Message, payload.Detail, payload.Title} {
			if strings.TrimSpace(msg) != "" {
				apiErr.Message = strings.TrimSpace(msg)
				break
			}
		}
		apiErr.Fields = payload.Errors
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) < 256 {
		apiErr.Message = text
	}
	return apiErr
}
