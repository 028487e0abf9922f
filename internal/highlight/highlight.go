// Package highlight turns a snippet's code into highlighted output.
//
// A snippet's language tag only picks the grammar; everything else is chroma's
// job. Unknown or unsupported tags fall back to plain text rather than failing:
// a snippet must always render, highlighted or not.
package highlight

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/sakif/codebin/internal/model"
)

// DefaultStyle is a light theme that suits the white page background.
const DefaultStyle = "github"

// lexerNames maps our language tags to chroma lexer names.
var lexerNames = map[model.Language]string{
	model.Text:       "plaintext",
	model.JavaScript: "javascript",
	model.Python:     "python",
	model.Java:       "java",
	model.CSharp:     "csharp",
	model.PHP:        "php",
}

// Highlighter renders code with one chroma style. Safe for concurrent use.
type Highlighter struct {
	style    *chroma.Style
	html     *html.Formatter
	terminal chroma.Formatter
}

// New creates a Highlighter. An unknown style name falls back to chroma's default.
func New(styleName string) *Highlighter {
	return &Highlighter{
		style: styles.Get(styleName),
		html: html.New(
			html.WithLineNumbers(true),
			html.TabWidth(4),
			html.WrapLongLines(true),
		),
		terminal: formatters.Get("terminal256"),
	}
}

// StyleName reports the style actually in use (after any fallback).
func (h *Highlighter) StyleName() string {
	return h.style.Name
}

// LexerFor returns the chroma lexer for lang, plain text when there is none.
func LexerFor(lang model.Language) chroma.Lexer {
	var l chroma.Lexer
	if name, ok := lexerNames[lang]; ok {
		l = lexers.Get(name)
	}
	if l == nil {
		l = lexers.Fallback
	}
	return chroma.Coalesce(l)
}

// HTML returns code as a self-contained <pre> block with inline styles and
// line numbers. Every byte of code is escaped by the formatter.
func (h *Highlighter) HTML(code string, lang model.Language) (template.HTML, error) {
	var buf bytes.Buffer
	if err := h.format(&buf, h.html, code, lang); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Terminal writes code with 256-colour ANSI escapes.
func (h *Highlighter) Terminal(w io.Writer, code string, lang model.Language) error {
	return h.format(w, h.terminal, code, lang)
}

func (h *Highlighter) format(w io.Writer, f chroma.Formatter, code string, lang model.Language) error {
	it, err := LexerFor(lang).Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("highlight: tokenising %s: %w", lang, err)
	}
	if err := f.Format(w, h.style, it); err != nil {
		return fmt.Errorf("highlight: formatting %s: %w", lang, err)
	}
	return nil
}
