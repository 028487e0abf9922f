package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/codebin/internal/apperror"
	"github.com/sakif/codebin/internal/model"
	"github.com/sakif/codebin/internal/repository"
)

// Compile-time check that *DB satisfies the repository contract.
var _ repository.SnippetRepository = (*DB)(nil)

func newXID() string {
	return xid.New().String()
}

// Create inserts a new snippet, filling in its ID and CreatedAt.
//
// ID GENERATION WITH xid:
// xid ids are 20 URL-safe characters ("cv37rs3pp9olc6atsptg") and sort by
// creation time. They go straight into the share link, so URL safety matters
// more than the extra entropy of a UUID.
//
// An id that already exists is reported as apperror.ErrConflict rather than
// a bare driver error.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = db.newID()
	snippet.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, code, language, visitor_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Code,
		string(snippet.Language),
		snippet.VisitorID,
		snippet.CreatedAt,
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return apperror.Conflict("snippet", snippet.ID)
		}
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

func isPrimaryKeyViolation(err error) bool {
	var sqlErr *sqlitedrv.Error
	return errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated into apperror.NotFound so the handler can answer 404.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var (
		snippet  model.Snippet
		language string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, code, language, visitor_id, created_at
		 FROM snippets
		 WHERE id = ?`,
		id,
	).Scan(
		&snippet.ID,
		&snippet.Title,
		&snippet.Code,
		&language,
		&snippet.VisitorID,
		&snippet.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	snippet.Language = model.Language(language)
	return &snippet, nil
}
