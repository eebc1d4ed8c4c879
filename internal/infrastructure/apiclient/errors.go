package apiclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"
)

// ErrTransport marks failures where no HTTP response was received.
var ErrTransport = errors.New("transport failure")

// TransportError is a network-level failure of one request.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Transient is always true: the request may succeed on retry.
func (e *TransportError) Transient() bool { return true }

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	// FieldErrors holds per-field validation messages when the backend sent them.
	FieldErrors map[string][]string
	Body        []byte
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Transient reports whether the status is worth retrying: 408, 429 and 5xx.
func (e *APIError) Transient() bool {
	return e.Status == fasthttp.StatusRequestTimeout ||
		e.Status == fasthttp.StatusTooManyRequests ||
		e.Status >= 500
}

// FieldError returns the joined messages for one field.
func (e *APIError) FieldError(field string) string {
	return strings.Join(e.FieldErrors[field], "; ")
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// errorPayload is the JSON error body. message is a string or, for some validation
// failures, a list of strings. Handlers that fail outside validation send error instead.
type errorPayload struct {
	Message    any                 `json:"message"`
	Error      any                 `json:"error"`
	Errors     map[string][]string `json:"errors"`
	StatusCode int                 `json:"statusCode"`
}

func (p errorPayload) message() string {
	if m := joinMessage(p.Message); m != "" {
		return m
	}
	return joinMessage(p.Error)
}

func joinMessage(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case []any:
		parts := make([]string, 0, len(m))
		for _, v := range m {
			if s, ok := v.(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func newAPIError(status int, isJSON bool, body []byte) *APIError {
	apiErr := &APIError{Status: status, Body: append([]byte(nil), body...)}
	if isJSON {
		var payload errorPayload
		if err := json.Unmarshal(body, &payload); err == nil {
			apiErr.Message = payload.message()
			apiErr.FieldErrors = payload.Errors
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = fasthttp.StatusMessage(status)
	}
	return apiErr
}
