package port

import (
	"context"
	"io"
)

// FilePart is a file attached to a multipart request.
type FilePart struct {
	FieldName string
	FileName  string
	Content   io.Reader
}

// Request describes one backend call. Path is relative to the API base URL.
// Nil query values are omitted. Body is JSON encoded unless Files is set, in which case the
// request is sent as multipart/form-data with Fields as plain form values.
type Request struct {
	Method   string
	Path     string
	Query    map[string]any
	Body     any
	Fields   map[string]string
	Files    []FilePart
	SkipAuth bool
}

// Response is a successful (2xx) backend response.
type Response struct {
	StatusCode int
	JSON       bool
	Body       []byte
}

// NoContent reports a 204 or an empty body.
func (r *Response) NoContent() bool {
	return r == nil || r.StatusCode == 204 || len(r.Body) == 0
}

// Text returns the raw body of a non-JSON response.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// APIClient issues backend requests. Non-2xx responses are returned as errors.
type APIClient interface {
	Do(ctx context.Context, req Request) (*Response, error)
}
