// Package handler contains the HTTP handlers: the JSON snippet API, the
// server-rendered pages and the health probe.
//
// Handlers only translate. They parse the request, call a service or a flow,
// and write the response. Validation rules live in internal/service; the
// submit and view behaviour lives in internal/flow.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codebin/internal/model"
	"github.com/sakif/codebin/internal/service"
	"github.com/sakif/codebin/internal/session"
)

// MaxBodyBytes caps a create request body.
const MaxBodyBytes = 1 << 20

// SnippetService is what the API needs from the service layer.
// *service.SnippetService satisfies it.
type SnippetService interface {
	Create(ctx context.Context, in service.CreateInput) (*model.Snippet, error)
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
}

// SnippetHandler serves /api/snippets.
type SnippetHandler struct {
	service SnippetService
	logger  *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(svc SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{service: svc, logger: logger}
}

// createRequest is the body of POST /api/snippets.
type createRequest struct {
	Title    string `json:"title"`
	Code     string `json:"code"`
	Language string `json:"language"`
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"title": "hello", "code": "print(1)", "language": "python"}
// RESPONSE: 201 with the stored snippet, including its server-assigned id.
//
// http.MaxBytesReader stops reading after MaxBodyBytes, so an oversized paste
// fails fast instead of being buffered whole.
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: fmt.Sprintf("request body must be %d bytes or less", MaxBodyBytes),
			})
			return
		}
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}

	visitorID, _ := session.VisitorIDFromContext(r.Context())

	snippet, err := h.service.Create(r.Context(), service.CreateInput{
		Title:     req.Title,
		Code:      req.Code,
		Language:  req.Language,
		VisitorID: visitorID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGetByID returns one snippet.
//
// HTTP: GET /api/snippets/{id}
// RESPONSE: 200 {"id", "title", "code", "language", "createdAt"}, or 404 {"error"}.
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	snippet, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}
