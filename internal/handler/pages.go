package handler

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codebin/internal/client"
	"github.com/sakif/codebin/internal/flow"
	"github.com/sakif/codebin/internal/highlight"
	"github.com/sakif/codebin/internal/middleware"
	"github.com/sakif/codebin/internal/model"
)

// TEMPLATE COMPOSITION:
// base.html defines the page shell and calls {{template "content" .}}.
// Each page file defines its own "content", so every page is parsed as
// base + page into its own *template.Template. Parsing happens once, at
// startup; the files are compiled into the binary with go:embed.

//go:embed templates/*.html
var templateFS embed.FS

// PageHandler serves the two browser routes: the paste form and the viewer.
//
// It does not touch the service directly. Each request builds a short-lived
// flow.Submission or flow.Retrieval backed by the API client, with the
// browser's own cookies and address forwarded, so the web UI exercises
// exactly the contract any other API client would.
type PageHandler struct {
	create *template.Template
	view   *template.Template

	api          *client.Client
	publicOrigin string
	highlighter  *highlight.Highlighter
	logger       *slog.Logger
}

// NewPageHandler parses the page templates. publicOrigin may be empty, in
// which case share links are built from each request's own origin.
func NewPageHandler(api *client.Client, hl *highlight.Highlighter, publicOrigin string, logger *slog.Logger) (*PageHandler, error) {
	create, err := template.ParseFS(templateFS, "templates/base.html", "templates/create.html")
	if err != nil {
		return nil, fmt.Errorf("parsing create page: %w", err)
	}
	view, err := template.ParseFS(templateFS, "templates/base.html", "templates/view.html")
	if err != nil {
		return nil, fmt.Errorf("parsing view page: %w", err)
	}

	return &PageHandler{
		create:       create,
		view:         view,
		api:          api,
		publicOrigin: strings.TrimRight(publicOrigin, "/"),
		highlighter:  hl,
		logger:       logger,
	}, nil
}

// page carries what base.html needs on every page.
type page struct {
	PageTitle   string
	CopyAckMs   int64
	CopiedLabel string
}

func newPage(title string) page {
	return page{
		PageTitle:   title,
		CopyAckMs:   flow.CopyAckDuration.Milliseconds(),
		CopiedLabel: flow.CopiedLabel,
	}
}

type languageOption struct {
	Value    string
	Label    string
	Selected bool
}

type createPage struct {
	page
	View      flow.SubmissionView
	Languages []languageOption
	Preview   template.HTML
}

type viewPage struct {
	page
	View        flow.RetrievalView
	Loaded      bool
	Highlighted template.HTML
	Language    string
}

// HandleCreateForm renders an empty paste form.
//
// HTTP: GET /
func (h *PageHandler) HandleCreateForm(w http.ResponseWriter, r *http.Request) {
	sub := flow.NewSubmission(nil, h.origin(r))
	defer sub.Close()

	h.renderCreate(w, http.StatusOK, sub)
}

// HandleCreateSubmit runs the submission flow for a posted form.
//
// HTTP: POST /
// FORM: title, code, language, action ("submit" or "preview")
//
// "preview" only re-renders the form with highlighted code; nothing is sent.
// "submit" sends one create request through the API. On success the page
// shows the share link; otherwise it shows the classified message and keeps
// what the user typed.
func (h *PageHandler) HandleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	sub := flow.NewSubmission(h.apiFor(r), h.origin(r))
	defer sub.Close()

	sub.SetTitle(r.PostFormValue("title"))
	sub.SetCode(r.PostFormValue("code"))
	sub.SetLanguageTag(r.PostFormValue("language"))

	if r.PostFormValue("action") == "preview" {
		h.renderCreate(w, http.StatusOK, sub)
		return
	}

	err := sub.Submit(r.Context())
	if errors.Is(err, context.Canceled) {
		// The browser went away; there is nobody left to render for.
		return
	}
	if err != nil && !errors.Is(err, flow.ErrIncomplete) {
		h.logger.Warn("snippet submit failed", slog.String("error", err.Error()))
	}

	h.renderCreate(w, submitStatus(err), sub)
}

// HandleView runs the retrieval flow for /snippet/{id}.
//
// HTTP: GET /snippet/{id}
// STATUS: 200 loaded, 404 not found, 502 any other failure.
func (h *PageHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	ret := flow.NewRetrieval(h.apiFor(r))
	defer ret.Close()

	err := ret.Navigate(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, context.Canceled) {
		return
	}

	v := ret.Snapshot()
	data := viewPage{page: newPage("CodeBin"), View: v}

	status := http.StatusOK
	switch v.State {
	case flow.RetrievalLoaded:
		data.Loaded = true
		data.PageTitle = v.Title + " - CodeBin"
		data.Language = v.Language.Label()
		data.Highlighted = h.highlight(v.Code, v.Language)
	case flow.RetrievalNotFound:
		status = http.StatusNotFound
	default:
		h.logger.Warn("snippet fetch failed",
			slog.String("id", v.ID),
			slog.String("error", errString(err)),
		)
		status = http.StatusBadGateway
	}

	h.render(w, h.view, status, data)
}

func (h *PageHandler) renderCreate(w http.ResponseWriter, status int, sub *flow.Submission) {
	v := sub.Snapshot()

	langs := make([]languageOption, 0, len(model.Languages()))
	for _, l := range model.Languages() {
		langs = append(langs, languageOption{
			Value:    string(l),
			Label:    l.Label(),
			Selected: l == v.Language,
		})
	}

	data := createPage{page: newPage("CodeBin"), View: v, Languages: langs}
	if code := sub.Preview(); strings.TrimSpace(code) != "" {
		data.Preview = h.highlight(code, v.Language)
	}

	h.render(w, h.create, status, data)
}

func (h *PageHandler) render(w http.ResponseWriter, tmpl *template.Template, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		// The status line is already out; all we can do is log it.
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
	}
}

// highlight never fails the page: a highlighter error degrades to escaped text.
func (h *PageHandler) highlight(code string, lang model.Language) template.HTML {
	out, err := h.highlighter.HTML(code, lang)
	if err != nil {
		h.logger.Warn("highlighting failed", slog.String("language", string(lang)), slog.String("error", err.Error()))
		return template.HTML("<pre>" + template.HTMLEscapeString(code) + "</pre>")
	}
	return out
}

// apiFor scopes the API client to one browser: its cookies are the
// credentials and its address is what the API rate limits on.
func (h *PageHandler) apiFor(r *http.Request) *client.Client {
	api := h.api.WithCookies(r.Cookies()...)
	if ip := middleware.ClientIP(r); ip != "" {
		api = api.WithHeader("X-Forwarded-For", ip)
	}
	return api
}

// origin is where share links point. Behind a proxy, X-Forwarded-Proto
// tells us the scheme the browser actually used.
func (h *PageHandler) origin(r *http.Request) string {
	if h.publicOrigin != "" {
		return h.publicOrigin
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p == "http" || p == "https" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

// submitStatus picks the page status for a submit outcome. API client errors
// keep their status so a 429 stays a 429 for the browser too.
func submitStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, flow.ErrIncomplete) {
		return http.StatusUnprocessableEntity
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
