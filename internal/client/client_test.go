package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	return c, srv
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8080", "ftp://example.com", "http://"} {
		_, err := New(raw)
		assert.Error(t, err, "New(%q) should fail", raw)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c, err := New("https://api.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", c.BaseURL())
}

func TestCreate_SendsExactBody(t *testing.T) {
	var gotBody map[string]string
	calls := 0
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/snippets", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"abc123"}`)
	}))

	s, err := c.Create(context.Background(), CreateRequest{Title: "hello", Code: "print(1)", Language: "python"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]string{"title": "hello", "code": "print(1)", "language": "python"}, gotBody)
	assert.Equal(t, "abc123", s.ID)
}

func TestCreate_MissingIDIsMalformed(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"title":"no id here"}`)
	}))

	_, err := c.Create(context.Background(), CreateRequest{Title: "t", Code: "c", Language: "text"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestCreate_TruncatedBodyIsMalformed(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":"abc`)
	}))

	_, err := c.Create(context.Background(), CreateRequest{Title: "t", Code: "c"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	var noResp *NoResponseError
	assert.False(t, errors.As(err, &noResp), "headers arrived, so this is not a missing response")
}

func TestGet_TruncatedErrorBodyKeepsStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":`)
	}))

	_, err := c.Get(context.Background(), "abc123")
	assert.True(t, IsNotFound(err), "got %T: %v", err, err)
}

func TestCreate_ErrorBodies(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantBody ErrorBody
	}{
		{
			name:   "field errors",
			status: http.StatusBadRequest,
			body:   `{"errors":[{"msg":"Title is required","field":"title"},{"msg":"Code is required"}]}`,
			wantBody: ErrorBody{Errors: []FieldError{
				{Msg: "Title is required", Field: "title"},
				{Msg: "Code is required"},
			}},
		},
		{
			name:     "single error field",
			status:   http.StatusTooManyRequests,
			body:     `{"error":"rate limit exceeded"}`,
			wantBody: ErrorBody{Error: "rate limit exceeded"},
		},
		{
			name:     "non-JSON body",
			status:   http.StatusBadGateway,
			body:     `<html>bad gateway</html>`,
			wantBody: ErrorBody{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			_, err := c.Create(context.Background(), CreateRequest{Title: "t", Code: "c"})

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "want *APIError, got %T", err)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantBody, apiErr.Body)
		})
	}
}

func TestCreate_NoResponse(t *testing.T) {
	// Start and immediately stop a server so the port refuses connections.
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base)
	require.NoError(t, err)

	_, err = c.Create(context.Background(), CreateRequest{Title: "t", Code: "c"})
	var noResp *NoResponseError
	assert.True(t, errors.As(err, &noResp), "want *NoResponseError, got %T: %v", err, err)
}

func TestCreate_CancelledContextIsNotNoResponse(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Create(ctx, CreateRequest{Title: "t", Code: "c"})
	assert.ErrorIs(t, err, context.Canceled)
	var noResp *NoResponseError
	assert.False(t, errors.As(err, &noResp))
}

func TestGet_Success(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/snippets/abc123", r.URL.Path)
		io.WriteString(w, `{"id":"abc123","title":"hello","code":"print(1)","language":"python"}`)
	}))

	s, err := c.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, &Snippet{ID: "abc123", Title: "hello", Code: "print(1)", Language: "python"}, s)
}

func TestGet_EscapesID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/snippets/a%2Fb", r.URL.EscapedPath())
		io.WriteString(w, `{"id":"a/b"}`)
	}))

	_, err := c.Get(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"snippet not found with id doesnotexist"}`)
	}))

	_, err := c.Get(context.Background(), "doesnotexist")
	assert.True(t, IsNotFound(err))
}

func TestIsNotFound_OtherStatuses(t *testing.T) {
	assert.False(t, IsNotFound(&APIError{StatusCode: http.StatusInternalServerError}))
	assert.False(t, IsNotFound(&NoResponseError{Err: io.EOF}))
	assert.False(t, IsNotFound(nil))
}

func TestCredentials_CookieJarRoundTrip(t *testing.T) {
	var sawCookie string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("codebin_visitor"); err == nil {
			sawCookie = ck.Value
		}
		http.SetCookie(w, &http.Cookie{Name: "codebin_visitor", Value: "token-1", Path: "/"})
		io.WriteString(w, `{"id":"x"}`)
	}))

	_, err := c.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, sawCookie, "first request has no cookie yet")

	_, err = c.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "token-1", sawCookie, "second request should send the jar's cookie back")
}

func TestWithCookies_ForwardsCookies(t *testing.T) {
	var sawCookie string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ck, err := r.Cookie("codebin_visitor"); err == nil {
			sawCookie = ck.Value
		}
		io.WriteString(w, `{"id":"x"}`)
	}))

	scoped := c.WithCookies(&http.Cookie{Name: "codebin_visitor", Value: "from-browser"})
	_, err := scoped.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "from-browser", sawCookie)

	// The original client is unaffected.
	sawCookie = ""
	_, err = c.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, sawCookie)
}

func TestWithoutJar_ForgetsCookies(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := r.Cookie("codebin_visitor")
		sawCookie = err == nil
		http.SetCookie(w, &http.Cookie{Name: "codebin_visitor", Value: "token-1", Path: "/"})
		io.WriteString(w, `{"id":"x"}`)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, WithoutJar())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = c.Get(context.Background(), "x")
		require.NoError(t, err)
		assert.False(t, sawCookie, "request %d should carry no cookie", i+1)
	}
}

func TestWithHeader_SetsHeaderOnCopyOnly(t *testing.T) {
	var saw string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saw = r.Header.Get("X-Forwarded-For")
		io.WriteString(w, `{"id":"x"}`)
	}))

	_, err := c.WithHeader("X-Forwarded-For", "203.0.113.9").Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.9", saw)

	_, err = c.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, saw)
}
