// Package repository declares the storage contracts the service layer depends on.
// Implementations live in sub-packages (see repository/sqlite).
package repository

import (
	"context"

	"github.com/sakif/codebin/internal/model"
)

// SnippetRepository persists snippets.
//
// There is no Update or Delete: a snippet is written once and then only read.
type SnippetRepository interface {
	// Create assigns ID and CreatedAt to snippet and stores it.
	Create(ctx context.Context, snippet *model.Snippet) error
	// GetByID returns apperror.ErrNotFound when no snippet has the given id.
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
}
