// Package client talks to the CodeBin snippet API.
//
// THE CONTRACT:
//
//	POST {base}/api/snippets       {title, code, language} → 201 {id, ...}
//	GET  {base}/api/snippets/{id}                          → 200 {id, title, code, language, ...}
//
// Failures come back as one of two typed errors so callers can classify them
// by shape instead of by transport quirks:
//
//   - *APIError: the server answered with a non-2xx status. Body holds the
//     decoded {"error": "..."} or {"errors": [{"msg": "..."}]} payload, if any.
//   - *NoResponseError: the request never produced a response (DNS failure,
//     refused connection, reset, TLS error...).
//
// Credentials: every request goes through a cookie jar, so a visitor cookie set
// by the server is sent back on later calls, the way a browser would.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// maxResponseBytes caps how much of a response body we are willing to read.
const maxResponseBytes = 4 << 20

// ErrMalformedResponse is returned when a 2xx response cannot be decoded or
// lacks a field the contract guarantees.
var ErrMalformedResponse = errors.New("client: malformed response")

// Snippet is the response-shaped view of a snippet.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateRequest is the request-shaped subset the client sends.
type CreateRequest struct {
	Title    string `json:"title"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	noJar   bool
	cookies []*http.Cookie
	header  http.Header
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is kept if set,
// otherwise a fresh one is attached.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithoutJar stops the client from remembering cookies between requests.
// A server holding one Client on behalf of many browsers needs this, and
// forwards each browser's cookies with WithCookies instead.
func WithoutJar() Option {
	return func(c *Client) {
		c.noJar = true
	}
}

// New creates a client for the API at baseURL (scheme and host, optional path prefix).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("client: parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: base URL %q must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client: base URL %q has no host", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(u.String(), "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.http.Jar == nil && !c.noJar {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("client: creating cookie jar: %w", err)
		}
		// Copy so we never mutate a caller-owned http.Client.
		hc := *c.http
		hc.Jar = jar
		c.http = &hc
	}

	return c, nil
}

// BaseURL returns the normalised base URL (no trailing slash).
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithCookies returns a copy of c that also sends the given cookies on every
// request. The web UI uses it to forward the browser's own credentials.
func (c *Client) WithCookies(cookies ...*http.Cookie) *Client {
	cp := *c
	cp.cookies = append(append([]*http.Cookie(nil), c.cookies...), cookies...)
	return &cp
}

// WithHeader returns a copy of c that also sets key on every request. The web
// UI uses it to pass the browser's address along as X-Forwarded-For.
func (c *Client) WithHeader(key, value string) *Client {
	cp := *c
	cp.header = c.header.Clone()
	if cp.header == nil {
		cp.header = make(http.Header)
	}
	cp.header.Set(key, value)
	return &cp
}

// Create submits a new snippet and returns the server's view of it.
// The returned snippet always has a non-empty ID.
func (c *Client) Create(ctx context.Context, req CreateRequest) (*Snippet, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("client: encoding request: %w", err)
	}

	var out Snippet
	if err := c.do(ctx, http.MethodPost, "/api/snippets", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: create response has no id", ErrMalformedResponse)
	}
	return &out, nil
}

// Get fetches a snippet by id. A missing snippet is an *APIError with
// StatusCode 404 (see IsNotFound).
func (c *Client) Get(ctx context.Context, id string) (*Snippet, error) {
	var out Snippet
	if err := c.do(ctx, http.MethodGet, "/api/snippets/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one request. Any 2xx is decoded into out; other statuses become
// *APIError, with whatever body could be read.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// A cancelled or expired context is the caller's decision, not a network fault.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("client: %s %s: %w", method, path, ctxErr)
		}
		return &NoResponseError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	// The status line has arrived, so a body that breaks off from here on is a
	// bad response rather than no response.
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("client: %s %s: %w", method, path, ctxErr)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Error bodies are best effort: an HTML 502 page decodes to nothing.
		_ = json.Unmarshal(data, &apiErr.Body)
		return apiErr
	}

	if readErr != nil {
		return fmt.Errorf("%w: %s %s (status %d): reading body: %v",
			ErrMalformedResponse, method, path, resp.StatusCode, readErr)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s (status %d): %v",
			ErrMalformedResponse, method, path, resp.StatusCode, err)
	}
	return nil
}
