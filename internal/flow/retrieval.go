package flow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sakif/codebin/internal/client"
	"github.com/sakif/codebin/internal/model"
)

// RetrievalState is the position of a Retrieval in its state machine.
type RetrievalState int

const (
	RetrievalLoading RetrievalState = iota
	RetrievalLoaded
	RetrievalNotFound
	RetrievalError
)

func (s RetrievalState) String() string {
	switch s {
	case RetrievalLoading:
		return "loading"
	case RetrievalLoaded:
		return "loaded"
	case RetrievalNotFound:
		return "not_found"
	case RetrievalError:
		return "error"
	default:
		return fmt.Sprintf("RetrievalState(%d)", int(s))
	}
}

// HomePath is where the NotFound and Error views link back to.
const HomePath = "/"

// Fetcher is the read half of the API. *client.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, id string) (*client.Snippet, error)
}

// Retrieval is the snippet viewer for one identifier at a time.
type Retrieval struct {
	fetcher Fetcher

	life   context.Context
	cancel context.CancelFunc

	// Copy backs the "Copy Code" button.
	Copy *Copier

	mu       sync.Mutex
	id       string
	started  bool
	gen      uint64
	inflight context.CancelFunc
	state    RetrievalState
	snippet  *client.Snippet
	errMsg   string
}

// RetrievalView is a point-in-time copy of a Retrieval for rendering.
type RetrievalView struct {
	State    RetrievalState
	ID       string
	Title    string
	Code     string
	Language model.Language
	Error    string
	// Home is set for NotFound and Error so the view can offer a way back.
	Home string
}

// NewRetrieval creates a viewer in the Loading state with no identifier yet.
func NewRetrieval(fetcher Fetcher, opts ...Option) *Retrieval {
	o := buildOptions(opts)
	life, cancel := context.WithCancel(context.Background())
	return &Retrieval{
		fetcher: fetcher,
		life:    life,
		cancel:  cancel,
		Copy:    NewCopier(o.clipboard, o.clock),
		state:   RetrievalLoading,
	}
}

// Navigate points the viewer at id and fetches it, blocking until it settles.
//
// Navigating to the id that is already loaded (or loading) is a no-op: no
// second request. A different id cancels the pending fetch for the old one; if
// that old fetch still returns, its result is discarded and its Navigate call
// returns ErrSuperseded.
//
// Cancelling ctx abandons the fetch and forgets the id, so navigating to it
// again fetches afresh.
func (r *Retrieval) Navigate(ctx context.Context, id string) error {
	r.mu.Lock()
	if r.life.Err() != nil {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.started && r.id == id {
		r.mu.Unlock()
		return nil
	}

	if r.inflight != nil {
		r.inflight()
	}
	r.gen++
	gen := r.gen
	r.id = id
	r.started = true
	r.state = RetrievalLoading
	r.snippet = nil
	r.errMsg = ""

	reqCtx, cancel := context.WithCancel(ctx)
	r.inflight = cancel
	r.mu.Unlock()

	defer cancel()
	stop := context.AfterFunc(r.life, cancel)
	defer stop()

	snippet, err := r.fetcher.Get(reqCtx, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.life.Err() != nil {
		return ErrClosed
	}
	if gen != r.gen {
		return ErrSuperseded
	}
	r.inflight = nil

	if ctxErr := ctx.Err(); ctxErr != nil {
		r.started = false
		r.id = ""
		return ctxErr
	}
	if err != nil {
		r.state, r.errMsg = ClassifyFetchError(err)
		return err
	}

	r.state = RetrievalLoaded
	r.snippet = snippet
	return nil
}

// Snapshot returns the current state for rendering.
func (r *Retrieval) Snapshot() RetrievalView {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := RetrievalView{
		State: r.state,
		ID:    r.id,
		Error: r.errMsg,
	}
	switch r.state {
	case RetrievalLoaded:
		v.Title = r.snippet.Title
		v.Code = r.snippet.Code
		// An unknown tag from the server still renders, as plain text.
		if l, ok := model.ParseLanguage(r.snippet.Language); ok {
			v.Language = l
		} else {
			v.Language = model.Text
		}
	case RetrievalNotFound, RetrievalError:
		v.Home = HomePath
	}
	return v
}

// CopyCode copies the loaded snippet's code.
func (r *Retrieval) CopyCode() error {
	v := r.Snapshot()
	if v.State != RetrievalLoaded {
		return errors.New("flow: no snippet loaded")
	}
	return r.Copy.Copy(v.Code)
}

// Close abandons any pending fetch and stops the copy acknowledgment.
func (r *Retrieval) Close() {
	r.cancel()
	r.Copy.Stop()
}
