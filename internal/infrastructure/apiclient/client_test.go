package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/app/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type countingNotifier struct{ calls atomic.Int32 }

func (n *countingNotifier) SessionExpired() { n.calls.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc, notifier port.SessionNotifier) port.APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL:  srv.URL + "/api/v1/",
		Timeout:  2 * time.Second,
		Tokens:   staticToken("secret"),
		Notifier: notifier,
	})
	require.NoError(t, err)
	return c
}

func TestBuildURL(t *testing.T) {
	limit := 10
	var offset *int
	got := BuildURL("http://x/api/v1/", "/transfers", map[string]any{
		"limit":  &limit,
		"offset": offset,
		"status": "active",
		"search": nil,
	})
	assert.Equal(t, "http://x/api/v1/transfers?limit=10&status=active", got)
	assert.Equal(t, "http://x/api/v1/treasury", BuildURL("http://x/api/v1", "treasury", nil))
}

func TestDoSendsAuthAndJSONBody(t *testing.T) {
	var gotAuth, gotType, gotBody, gotPath string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.RequestURI()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"id":"e1"}`))
	}, nil)

	resp, err := c.Do(context.Background(), port.Request{
		Method: "post",
		Path:   "expenses",
		Query:  map[string]any{"dryRun": false},
		Body:   map[string]any{"item": "Laptop"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "/api/v1/expenses?dryRun=false", gotPath)
	assert.JSONEq(t, `{"item":"Laptop"}`, gotBody)
	assert.True(t, resp.JSON)
	assert.JSONEq(t, `{"id":"e1"}`, string(resp.Body))
}

func TestDoSkipAuth(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	resp, err := c.Do(context.Background(), port.Request{Path: "auth/challenge/0xabc", SkipAuth: true})
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.True(t, resp.NoContent())
}

func TestDoReturnsTextForNonJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("Sign in to treasury"))
	}, nil)

	resp, err := c.Do(context.Background(), port.Request{Path: "auth/challenge/0xabc"})
	require.NoError(t, err)
	assert.False(t, resp.JSON)
	assert.Equal(t, "Sign in to treasury", resp.Text())
}

func TestDoStructuredError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Validation failed","errors":{"price":["must be positive"]},"statusCode":400}`))
	}, nil)

	_, err := c.Do(context.Background(), port.Request{Method: "POST", Path: "expenses"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, "must be positive", apiErr.FieldError("price"))
	assert.True(t, IsStatus(err, 400))
	assert.False(t, query.IsTransient(err))
}

func TestDoErrorFieldFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Grant already closed"}`))
	}, nil)

	_, err := c.Do(context.Background(), port.Request{Method: "POST", Path: "grants/g1/disbursements"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Grant already closed", apiErr.Message)

	both := newAPIError(http.StatusBadRequest, true, []byte(`{"message":"","error":"Bad Request"}`))
	assert.Equal(t, "Bad Request", both.Message)
	preferred := newAPIError(http.StatusBadRequest, true, []byte(`{"message":"price required","error":"Bad Request"}`))
	assert.Equal(t, "price required", preferred.Message)
}

func TestDoNonJSONErrorUsesStatusText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}, nil)

	_, err := c.Do(context.Background(), port.Request{Path: "treasury"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
	assert.True(t, query.IsTransient(err))
}

func TestDoForbiddenNotifiesEveryTime(t *testing.T) {
	notifier := &countingNotifier{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}, notifier)

	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), port.Request{Path: "admins"})
		assert.True(t, IsStatus(err, http.StatusForbidden))
	}
	assert.Equal(t, int32(3), notifier.calls.Load())
}

func TestDoMultipartUpload(t *testing.T) {
	var fileName, content, note string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		note = r.FormValue("note")
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		fileName, content = hdr.Filename, string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"r1","name":"receipt.pdf"}`))
	}, nil)

	_, err := c.Do(context.Background(), port.Request{
		Method: "POST",
		Path:   "expenses/e1/receipts",
		Fields: map[string]string{"note": "march"},
		Files:  []port.FilePart{{FileName: "receipt.pdf", Content: strings.NewReader("%PDF")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "receipt.pdf", fileName)
	assert.Equal(t, "%PDF", content)
	assert.Equal(t, "march", note)
}

func TestDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: base, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), port.Request{Path: "treasury"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.True(t, query.IsTransient(err))
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "  "})
	assert.Error(t, err)
}
