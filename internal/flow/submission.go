package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sakif/codebin/internal/client"
	"github.com/sakif/codebin/internal/model"
)

// SubmissionState is the position of a Submission in its state machine.
type SubmissionState int

const (
	SubmissionIdle SubmissionState = iota
	// SubmissionValidating only exists while Submit holds the lock; a snapshot never shows it.
	SubmissionValidating
	SubmissionSubmitting
	SubmissionSuccess
	SubmissionFailed
)

func (s SubmissionState) String() string {
	switch s {
	case SubmissionIdle:
		return "idle"
	case SubmissionValidating:
		return "validating"
	case SubmissionSubmitting:
		return "submitting"
	case SubmissionSuccess:
		return "success"
	case SubmissionFailed:
		return "failed"
	default:
		return fmt.Sprintf("SubmissionState(%d)", int(s))
	}
}

// Creator is the create half of the API. *client.Client satisfies it.
type Creator interface {
	Create(ctx context.Context, req client.CreateRequest) (*client.Snippet, error)
}

// Submission is the paste form: editable fields plus the outcome of the last submit.
type Submission struct {
	creator Creator
	origin  string

	life   context.Context
	cancel context.CancelFunc

	// LinkCopy and CodeCopy back the "Copy Link" and "Copy Code" buttons.
	LinkCopy *Copier
	CodeCopy *Copier

	mu       sync.Mutex
	title    string
	code     string
	language model.Language
	state    SubmissionState
	link     string
	errMsg   string
}

// SubmissionView is a point-in-time copy of a Submission for rendering.
type SubmissionView struct {
	State    SubmissionState
	Title    string
	Code     string
	Language model.Language
	// Link is empty until a submit succeeds. A later failed submit keeps it.
	Link  string
	Error string
	// Busy mirrors the disabled submit control.
	Busy bool
}

// NewSubmission starts an idle form. origin is prepended to "/snippet/{id}"
// to build the share link.
func NewSubmission(creator Creator, origin string, opts ...Option) *Submission {
	o := buildOptions(opts)
	life, cancel := context.WithCancel(context.Background())
	return &Submission{
		creator:  creator,
		origin:   origin,
		life:     life,
		cancel:   cancel,
		LinkCopy: NewCopier(o.clipboard, o.clock),
		CodeCopy: NewCopier(o.clipboard, o.clock),
		language: model.DefaultLanguage,
		state:    SubmissionIdle,
	}
}

func (s *Submission) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *Submission) SetCode(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// SetLanguage accepts only the supported tags; the form cannot produce others.
func (s *Submission) SetLanguage(l model.Language) error {
	if !l.Valid() {
		return fmt.Errorf("flow: unsupported language %q", l)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = l
	return nil
}

// SetLanguageTag takes a language as typed, without checking it here.
// The server judges the tag on submit and reports an unsupported one as a
// field error. A blank tag leaves the current language in place.
func (s *Submission) SetLanguageTag(tag string) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = model.Language(tag)
}

// Preview is the code the preview pane renders. It follows the form, not the server.
func (s *Submission) Preview() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code
}

// Snapshot returns the current state for rendering.
func (s *Submission) Snapshot() SubmissionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SubmissionView{
		State:    s.state,
		Title:    s.title,
		Code:     s.code,
		Language: s.language,
		Link:     s.link,
		Error:    s.errMsg,
		Busy:     s.state == SubmissionSubmitting,
	}
}

// Submit runs one submit action and blocks until it settles.
//
// Outcomes:
//   - blank title or code: message MsgIncomplete, state Idle, ErrIncomplete, no request;
//   - a submit already pending: ErrInFlight, state untouched;
//   - success: state Success, share link set, error cleared, nil;
//   - failure: state Failed, classified message, the request error.
//
// If ctx is cancelled or the Submission is closed before the response arrives,
// the response is dropped: state returns to Idle (or stays put after Close) and
// the context error or ErrClosed is returned.
func (s *Submission) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.life.Err() != nil {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state == SubmissionSubmitting {
		s.mu.Unlock()
		return ErrInFlight
	}

	s.state = SubmissionValidating
	if strings.TrimSpace(s.title) == "" || strings.TrimSpace(s.code) == "" {
		s.errMsg = MsgIncomplete
		s.state = SubmissionIdle
		s.mu.Unlock()
		return ErrIncomplete
	}

	req := client.CreateRequest{
		Title:    s.title,
		Code:     s.code,
		Language: string(s.language),
	}
	s.state = SubmissionSubmitting
	s.errMsg = ""
	s.mu.Unlock()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.life, cancel)
	defer stop()

	created, err := s.creator.Create(reqCtx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.life.Err() != nil {
		return ErrClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.state = SubmissionIdle
		return ctxErr
	}
	if err != nil {
		s.state = SubmissionFailed
		s.errMsg = ClassifyCreateError(err)
		return err
	}

	s.state = SubmissionSuccess
	s.link = ShareLink(s.origin, created.ID)
	s.errMsg = ""
	return nil
}

// Close cancels a pending submit and stops both copy acknowledgments.
func (s *Submission) Close() {
	s.cancel()
	s.LinkCopy.Stop()
	s.CodeCopy.Stop()
}

// CopyLink copies the share link. It needs a successful submit first.
func (s *Submission) CopyLink() error {
	link := s.Snapshot().Link
	if link == "" {
		return fmt.Errorf("flow: no link to copy yet")
	}
	return s.LinkCopy.Copy(link)
}

// CopyCode copies the raw code as it currently stands in the form.
func (s *Submission) CopyCode() error {
	return s.CodeCopy.Copy(s.Preview())
}
