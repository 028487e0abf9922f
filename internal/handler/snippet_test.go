package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/codebin/internal/apperror"
	"github.com/sakif/codebin/internal/handler"
	"github.com/sakif/codebin/internal/model"
	"github.com/sakif/codebin/internal/service"
	"github.com/sakif/codebin/internal/session"
)

// FakeService implements handler.SnippetService without a database.
type FakeService struct {
	mu        sync.Mutex
	Created   []service.CreateInput
	CreateErr error
	Snippets  map[string]*model.Snippet
	GetErr    error
}

func (f *FakeService) Create(ctx context.Context, in service.CreateInput) (*model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, in)
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	s := &model.Snippet{
		ID:        "abc123",
		Title:     in.Title,
		Code:      in.Code,
		Language:  model.Language(in.Language),
		VisitorID: in.VisitorID,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if f.Snippets == nil {
		f.Snippets = make(map[string]*model.Snippet)
	}
	f.Snippets[s.ID] = s
	return s, nil
}

func (f *FakeService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	if s, ok := f.Snippets[id]; ok {
		return s, nil
	}
	return nil, apperror.NotFound("snippet", id)
}

func (f *FakeService) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Created)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// apiRouter mounts the snippet endpoints the way the server does.
func apiRouter(svc handler.SnippetService) http.Handler {
	h := handler.NewSnippetHandler(svc, quietLogger())
	r := chi.NewRouter()
	r.Post("/api/snippets", h.HandleCreate)
	r.Get("/api/snippets/{id}", h.HandleGetByID)
	return r
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestSnippetHandler_HandleCreate(t *testing.T) {
	t.Run("valid snippet", func(t *testing.T) {
		svc := &FakeService{}
		req := httptest.NewRequest(http.MethodPost, "/api/snippets",
			strings.NewReader(`{"title":"hello","code":"print(1)","language":"python"}`))
		req = req.WithContext(session.WithVisitorID(req.Context(), "visitor-1"))
		rr := httptest.NewRecorder()

		apiRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		body := decode(t, rr.Body)
		assert.Equal(t, "abc123", body["id"])
		assert.Equal(t, "hello", body["title"])
		assert.Equal(t, "python", body["language"])
		assert.Equal(t, "2024-05-01T12:00:00Z", body["createdAt"])
		assert.NotContains(t, body, "visitorId", "visitor id never leaves the server")

		require.Len(t, svc.Created, 1)
		assert.Equal(t, service.CreateInput{
			Title: "hello", Code: "print(1)", Language: "python", VisitorID: "visitor-1",
		}, svc.Created[0])
	})

	t.Run("invalid JSON", func(t *testing.T) {
		svc := &FakeService{}
		req := httptest.NewRequest(http.MethodPost, "/api/snippets", strings.NewReader(`{"title":`))
		rr := httptest.NewRecorder()

		apiRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "invalid JSON body", decode(t, rr.Body)["error"])
		assert.Zero(t, svc.createCalls())
	})

	t.Run("body too large", func(t *testing.T) {
		svc := &FakeService{}
		big := `{"title":"t","code":"` + strings.Repeat("x", handler.MaxBodyBytes) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/snippets", strings.NewReader(big))
		rr := httptest.NewRecorder()

		apiRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Zero(t, svc.createCalls())
	})

	t.Run("field validation errors", func(t *testing.T) {
		verr := (&apperror.ValidationErrors{}).
			Add("title", "Title is required").
			Add("code", "Code is required")
		svc := &FakeService{CreateErr: verr}
		req := httptest.NewRequest(http.MethodPost, "/api/snippets", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()

		apiRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		var body handler.ValidationResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, []handler.FieldError{
			{Msg: "Title is required", Field: "title"},
			{Msg: "Code is required", Field: "code"},
		}, body.Errors)
	})

	t.Run("id collision is a conflict", func(t *testing.T) {
		svc := &FakeService{CreateErr: fmt.Errorf("creating snippet: %w", apperror.Conflict("snippet", "abc123"))}
		req := httptest.NewRequest(http.MethodPost, "/api/snippets",
			strings.NewReader(`{"title":"t","code":"c"}`))
		rr := httptest.NewRecorder()

		apiRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "snippet conflict with id abc123", decode(t, rr.Body)["error"])
	})

	t.Run("unexpected error hides details", func(t *testing.T) {
		svc := &FakeService{CreateErr: errors.New("sqlite: disk I/O error at /var/lib/x.db")}
		req := httptest.NewRequest(http.MethodPost, "/api/snippets",
			strings.NewReader(`{"title":"t","code":"c"}`))
		rr := httptest.NewRecorder()

		apiRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "An internal error occurred", decode(t, rr.Body)["error"])
	})
}

func TestSnippetHandler_HandleGetByID(t *testing.T) {
	svc := &FakeService{Snippets: map[string]*model.Snippet{
		"abc123": {ID: "abc123", Title: "hello", Code: "print(1)", Language: model.Python},
	}}

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		apiRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/snippets/abc123", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr.Body)
		assert.Equal(t, "abc123", body["id"])
		assert.Equal(t, "print(1)", body["code"])
	})

	t.Run("not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		apiRouter(svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/snippets/doesnotexist", nil))

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "snippet not found with id doesnotexist", decode(t, rr.Body)["error"])
	})
}

func TestRateLimited(t *testing.T) {
	rr := httptest.NewRecorder()
	handler.RateLimited(rr, httptest.NewRequest(http.MethodPost, "/api/snippets", nil))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate limit exceeded", decode(t, rr.Body)["error"])
}

func TestHandleHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	handler.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
