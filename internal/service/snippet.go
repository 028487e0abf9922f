// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// The service accepts plain Go values and returns domain errors from
// internal/apperror. It never sees an *http.Request or a status code, so the
// same rules apply whether the caller is the JSON API or the web form.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/codebin/internal/apperror"
	"github.com/sakif/codebin/internal/model"
	"github.com/sakif/codebin/internal/repository"
)

// Validation limits enforced by the server. The client only checks for emptiness.
const (
	MaxTitleLength = 200    // characters, after trimming
	MaxCodeLength  = 100000 // bytes
)

// SnippetCache is the read cache the service consults before the repository.
// *cache.SnippetCache satisfies it; nil disables caching.
type SnippetCache interface {
	Get(id string) (*model.Snippet, bool)
	Set(s *model.Snippet)
}

// CreateInput is what a caller supplies to create a snippet.
// Language is raw input; the service normalises and checks it.
type CreateInput struct {
	Title     string
	Code      string
	Language  string
	VisitorID string
}

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	cache  SnippetCache
	logger *slog.Logger
}

// NewSnippetService wires the service to its repository. cache may be nil.
func NewSnippetService(repo repository.SnippetRepository, cache SnippetCache, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Create validates and saves a new snippet.
//
// VALIDATION COLLECTS EVERYTHING:
// Every problem is gathered into one *apperror.ValidationErrors instead of
// returning on the first one, so the API can answer with the full list
// ({"errors":[{"msg":...},...]}) and the user fixes the form in one pass.
//
// Title is trimmed before storing. Code is stored exactly as sent: leading
// indentation and trailing newlines are part of the snippet, so only the
// emptiness check looks at the trimmed form.
func (s *SnippetService) Create(ctx context.Context, in CreateInput) (*model.Snippet, error) {
	title := strings.TrimSpace(in.Title)

	var verr apperror.ValidationErrors
	switch {
	case title == "":
		verr.Add("title", "Title is required")
	case utf8.RuneCountInString(title) > MaxTitleLength:
		verr.Add("title", fmt.Sprintf("Title must be %d characters or less", MaxTitleLength))
	}
	switch {
	case strings.TrimSpace(in.Code) == "":
		verr.Add("code", "Code is required")
	case len(in.Code) > MaxCodeLength:
		verr.Add("code", fmt.Sprintf("Code must be %d bytes or less", MaxCodeLength))
	}

	language := model.Text
	if strings.TrimSpace(in.Language) != "" {
		l, ok := model.ParseLanguage(in.Language)
		if !ok {
			verr.Add("language", fmt.Sprintf("Language %q is not supported", in.Language))
		}
		language = l
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:     title,
		Code:      in.Code,
		Language:  language,
		VisitorID: in.VisitorID,
	}

	if err := s.repo.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(snippet)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("language", string(snippet.Language)),
		slog.Int("bytes", len(snippet.Code)),
	)

	return snippet, nil
}

// GetByID retrieves a snippet by its ID.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
//
// Snippets are immutable, so a cache hit is always current.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	if s.cache != nil {
		if snippet, ok := s.cache.Get(id); ok {
			return snippet, nil
		}
	}

	snippet, err := s.repo.GetByID(ctx, id)
	if err != nil {
		// NotFound is an ordinary answer; it already carries the right apperror.
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(snippet)
	}
	return snippet, nil
}
