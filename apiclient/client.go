package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds an in-flight request when no per-call timeout is
// given. A request that exceeds it resolves as KindNetworkUnavailable.
const DefaultTimeout = 10 * time.Second

// TokenSource exposes the current access token. The client reads it before
// every request and never writes it; the session store is the sole writer.
type TokenSource interface {
	CurrentAccessToken() (string, bool)
}

// Refresher re-authenticates the session after a 401. A successful call makes
// a new access token visible through the TokenSource; a failed call leaves
// the session fully cleared (see session.Store.Refresh).
type Refresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Client performs HTTP calls against a single base URL with consistent
// defaults and classifies every failure into a Kind before it reaches
// calling code.
//
// A Client is safe for concurrent use by multiple goroutines.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	headers    http.Header
	tokens     TokenSource
	refresher  Refresher
	logger     zerolog.Logger
}

// Option modifies a Client during construction.
type Option func(*Client)

// WithTimeout sets the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHeader adds a default header sent on every request. Per-call headers
// override it.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithTokenSource sets the source of the bearer credential.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithRefresher sets the re-authentication hook invoked on the first 401 of
// a logical call.
func WithRefresher(refresher Refresher) Option {
	return func(c *Client) {
		c.refresher = refresher
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying transport (primarily for testing).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a Client for the given base URL. The URL must be absolute and
// the configured timeout must be positive.
func New(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL %q: %w", baseURL, err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("base URL %q must be absolute", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		headers:    http.Header{},
		logger:     log.Logger,
	}
	c.headers.Set("Content-Type", "application/json")
	c.headers.Set("Accept", "application/json")

	for _, opt := range options {
		opt(c)
	}

	if c.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", c.timeout)
	}

	return c, nil
}

// RequestOptions carries the per-call knobs of Do. The zero value is valid.
type RequestOptions struct {
	// Headers override the client defaults for this call. A caller-supplied
	// Authorization header suppresses bearer injection.
	Headers http.Header

	// Body is JSON-encoded unless RawBody is set.
	Body any

	// RawBody is sent verbatim with ContentType. Used for multipart payloads.
	RawBody     []byte
	ContentType string

	// Timeout overrides the client default for this call.
	Timeout time.Duration

	// DisableReauth suppresses the 401 re-authentication cycle. The session
	// store sets it on its own login and refresh calls so a rejected
	// credential cannot trigger a nested refresh.
	DisableReauth bool
}

// Response is the raw outcome of a successful (2xx) call.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Do issues one logical request and returns either a 2xx response or a
// classified *Error. On the first 401 it invokes the configured Refresher
// and, if that succeeds, replays the request exactly once with the new
// token; a second 401, or a refresh failure, surfaces KindUnauthorized
// without another cycle.
func (c *Client) Do(ctx context.Context, method, path string, opts *RequestOptions) (*Response, error) {
	if opts == nil {
		opts = &RequestOptions{}
	}

	var payload []byte
	contentType := ""
	switch {
	case opts.RawBody != nil:
		payload = opts.RawBody
		contentType = opts.ContentType
	case opts.Body != nil:
		encoded, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = encoded
		contentType = "application/json"
	}

	timeout := c.timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	reauthed := false
	for {
		resp, err := c.send(ctx, method, path, opts.Headers, payload, contentType, timeout)
		if err != nil {
			return nil, err
		}
		if resp.Status >= 200 && resp.Status < 300 {
			return resp, nil
		}

		if resp.Status == http.StatusUnauthorized && !reauthed && !opts.DisableReauth && c.refresher != nil {
			reauthed = true
			c.logger.Debug().Str("method", method).Str("path", path).Msg("401 received, attempting re-authentication")
			if _, refreshErr := c.refresher.Refresh(ctx); refreshErr != nil {
				return nil, &Error{
					Kind:    KindUnauthorized,
					Status:  resp.Status,
					Message: serverMessage(resp.Body, "authentication required"),
					Err:     refreshErr,
				}
			}
			continue
		}

		return nil, classify(resp)
	}
}

// send performs a single HTTP exchange and converts transport failures into
// KindNetworkUnavailable.
func (c *Client) send(ctx context.Context, method, path string, extra http.Header, payload []byte, contentType string, timeout time.Duration) (*Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range c.headers {
		req.Header[key] = append([]string(nil), values...)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, values := range extra {
		req.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}

	if req.Header.Get("Authorization") == "" && c.tokens != nil {
		if token, ok := c.tokens.CurrentAccessToken(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Msg("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("request_id", requestID).Msg("request failed before a response was received")
		return nil, &Error{Kind: KindNetworkUnavailable, Message: msgNetworkUnavailable, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkUnavailable, Message: msgNetworkUnavailable, Err: err}
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, &RequestOptions{Body: body})
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, &RequestOptions{Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// GetJSON issues a GET request and decodes the raw response body into v. It
// does not unwrap `{data: ...}` envelopes; that is the caller's concern.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

// DownloadBinary issues a GET request for a binary payload and returns the
// raw bytes.
func (c *Client) DownloadBinary(ctx context.Context, path string) ([]byte, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/octet-stream")
	resp, err := c.Do(ctx, http.MethodGet, path, &RequestOptions{Headers: headers})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func classify(resp *Response) *Error {
	switch {
	case resp.Status == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Status: resp.Status, Message: serverMessage(resp.Body, "authentication required")}
	case resp.Status == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Status: resp.Status, Message: serverMessage(resp.Body, "access denied")}
	case resp.Status == http.StatusNotFound:
		return &Error{Kind: KindNotFound, Status: resp.Status, Message: msgNotFound}
	case resp.Status >= 500:
		return &Error{Kind: KindServerError, Status: resp.Status, Message: msgServerError}
	default:
		return &Error{Kind: KindRequestFailed, Status: resp.Status, Message: serverMessage(resp.Body, http.StatusText(resp.Status))}
	}
}

// serverMessage extracts a human-readable message from a JSON error body,
// falling back when the body carries none.
func serverMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return fallback
}
