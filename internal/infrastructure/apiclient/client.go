package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"treasury_dashboard/internal/app/port"
	"treasury_dashboard/internal/pkg/metrics"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options configures the client. Only BaseURL is required.
type Options struct {
	BaseURL  string
	Timeout  time.Duration
	Tokens   port.TokenSource
	Notifier port.SessionNotifier
	// RateLimit caps outgoing requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// apiClientImpl is the only place backend requests are issued.
type apiClientImpl struct {
	client   *fasthttp.Client
	baseURL  string
	timeout  time.Duration
	tokens   port.TokenSource
	notifier port.SessionNotifier
	limiter  *rate.Limiter
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// New creates the backend client.
func New(opts Options) (port.APIClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("api base url is empty")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", base, err)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &apiClientImpl{
		client: &fasthttp.Client{
			Name:                "treasury-dashboard",
			MaxIdleConnDuration: time.Minute,
		},
		baseURL:  base,
		timeout:  opts.Timeout,
		tokens:   opts.Tokens,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   opts.Logger.Named("APIClient"),
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

// BuildURL joins base and path with a single slash and appends the non-nil query values in
// key order.
func BuildURL(base, path string, query map[string]any) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) == 0 {
		return u
	}
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		if s, ok := queryValue(query[k]); ok {
			values.Set(k, s)
		}
	}
	if len(values) == 0 {
		return u
	}
	return u + "?" + values.Encode()
}

// queryValue renders a primitive query value. Nil values and nil pointers are omitted.
func queryValue(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case *string:
		if t == nil {
			return "", false
		}
		return *t, true
	case int:
		return strconv.Itoa(t), true
	case *int:
		if t == nil {
			return "", false
		}
		return strconv.Itoa(*t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case *int64:
		if t == nil {
			return "", false
		}
		return strconv.FormatInt(*t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case *float64:
		if t == nil {
			return "", false
		}
		return strconv.FormatFloat(*t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case *bool:
		if t == nil {
			return "", false
		}
		return strconv.FormatBool(*t), true
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.UTC().Format(time.RFC3339), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return "", false
		}
		return t.UTC().Format(time.RFC3339), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}

func (c *apiClientImpl) writeBody(req *fasthttp.Request, in port.Request) error {
	if len(in.Files) > 0 || len(in.Fields) > 0 {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fieldNames := make([]string, 0, len(in.Fields))
		for k := range in.Fields {
			fieldNames = append(fieldNames, k)
		}
		sort.Strings(fieldNames)
		for _, k := range fieldNames {
			if err := w.WriteField(k, in.Fields[k]); err != nil {
				return fmt.Errorf("failed to write form field %s: %w", k, err)
			}
		}
		for _, f := range in.Files {
			field := f.FieldName
			if field == "" {
				field = "file"
			}
			part, err := w.CreateFormFile(field, f.FileName)
			if err != nil {
				return fmt.Errorf("failed to create form file %s: %w", f.FileName, err)
			}
			if _, err := io.Copy(part, f.Content); err != nil {
				return fmt.Errorf("failed to copy form file %s: %w", f.FileName, err)
			}
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close multipart body: %w", err)
		}
		req.Header.SetContentType(w.FormDataContentType())
		req.SetBody(buf.Bytes())
		return nil
	}

	req.Header.SetContentType("application/json")
	if in.Body == nil {
		return nil
	}
	body, err := json.Marshal(in.Body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req.SetBody(body)
	return nil
}

// Do implements port.APIClient.
func (c *apiClientImpl) Do(ctx context.Context, in port.Request) (*port.Response, error) {
	method := strings.ToUpper(in.Method)
	if method == "" {
		method = fasthttp.MethodGet
	}
	requestURL := BuildURL(c.baseURL, in.Path, in.Query)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if !in.SkipAuth && c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
		}
	}
	if err := c.writeBody(req, in); err != nil {
		return nil, err
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	c.logger.Debug("Sending backend request", zap.String("method", method), zap.String("url", requestURL))
	started := time.Now()

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.metrics.ObserveRequest(method, in.Path, 0, time.Since(started))
		c.logger.Error("Failed to execute backend request",
			zap.String("method", method),
			zap.String("url", requestURL),
			zap.Error(err))
		return nil, &TransportError{Method: method, URL: requestURL, Err: err}
	}

	status := resp.StatusCode()
	c.metrics.ObserveRequest(method, in.Path, status, time.Since(started))
	isJSON := bytes.Contains(resp.Header.ContentType(), []byte("application/json"))
	body := append([]byte(nil), resp.Body()...)

	if status < 200 || status > 299 {
		if status == fasthttp.StatusForbidden && c.notifier != nil {
			c.notifier.SessionExpired()
		}
		apiErr := newAPIError(status, isJSON, body)
		c.logger.Warn("Backend request failed",
			zap.String("method", method),
			zap.String("url", requestURL),
			zap.Int("statusCode", status),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}

	if status == fasthttp.StatusNoContent {
		return &port.Response{StatusCode: status}, nil
	}
	return &port.Response{StatusCode: status, JSON: isJSON, Body: body}, nil
}
