package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-studio-client/internal/errors"
	"github.com/jrsteele09/go-studio-client/notify"
	"github.com/rs/zerolog/log"
)

// AuthHeader carries the access token. The server does not accept a bearer scheme.
const AuthHeader = "x-auth-token"

// DefaultRateLimitMessage is used when a 429 response carries no message
const DefaultRateLimitMessage = "Daily API limit exceeded"

// Doer is satisfied by *http.Client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the single choke point for outbound calls to the studio API.
// It behaves like a plain HTTP client except for 429 responses, which are broadcast and returned as errors.
type Client struct {
	baseURL   string
	http      Doer
	publisher notify.Publisher
	metrics   *Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the transport. No client-side timeout is set by default.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		c.http = d
	}
}

// WithMetrics records request counts
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for baseURL that publishes rate limit events to publisher
func New(baseURL string, publisher notify.Publisher, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{},
		publisher: publisher,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends the request. On HTTP 429 it publishes exactly one RateLimitExceeded event,
// closes the body and returns an *APIError that matches errors.ErrRateLimited.
// Every other status is returned to the caller untouched.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(req.Method, "error")
		return nil, errors.Wrapf(err, "[apiclient Do] %s %s", req.Method, req.URL.Path)
	}
	c.metrics.observe(req.Method, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	defer resp.Body.Close()
	msg := readMessage(resp.Body)
	if msg == "" {
		msg = DefaultRateLimitMessage
	}
	c.metrics.rateLimited()
	log.Warn().Str("method", req.Method).Str("path", req.URL.Path).Msg("rate limit exceeded")
	if c.publisher != nil {
		c.publisher.Publish(notify.Event{Kind: notify.RateLimitExceeded, Message: msg})
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// NewRequest builds a request against the base URL, optionally carrying an access token
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient NewRequest] %w", err)
	}
	if accessToken != "" {
		req.Header.Set(AuthHeader, accessToken)
	}
	return req, nil
}

// PostJSON sends body as JSON and returns the raw response
func (c *Client) PostJSON(ctx context.Context, path string, body any, accessToken string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[apiclient PostJSON] failed to marshal request body: %w", err)
	}
	req, err := c.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), accessToken)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.Do(req)
}

// Get sends a GET request
func (c *Client) Get(ctx context.Context, path, accessToken string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodGet, path, nil, accessToken)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Delete sends a DELETE request
func (c *Client) Delete(ctx context.Context, path, accessToken string) (*http.Response, error) {
	req, err := c.NewRequest(ctx, http.MethodDelete, path, nil, accessToken)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// FilePart is a file field in a multipart upload. An empty ContentType is sent as application/octet-stream.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (f FilePart) header() textproto.MIMEHeader {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
	h.Set("Content-Type", contentType)
	return h
}

// PostMultipart uploads file with the extra form fields
func (c *Client) PostMultipart(ctx context.Context, path string, file FilePart, fields map[string]string, accessToken string) (*http.Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(file.header())
	if err != nil {
		return nil, fmt.Errorf("[apiclient PostMultipart] %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, fmt.Errorf("[apiclient PostMultipart] failed to copy %s: %w", file.Filename, err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("[apiclient PostMultipart] %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("[apiclient PostMultipart] %w", err)
	}

	req, err := c.NewRequest(ctx, http.MethodPost, path, &buf, accessToken)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.Do(req)
}
