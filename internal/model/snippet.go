// Package model defines the snippet and its language tag, shared by every layer.
package model

import "time"

// Snippet is a stored paste. It never changes after creation.
//
// Its JSON form is exactly what GET /api/snippets/{id} returns:
//
//	{"id":"cv37rs3pp9olc6atsptg","title":"hello","code":"print(1)","language":"python","createdAt":"..."}
//
// VisitorID is tagged `json:"-"` so it never leaves the server. It records which
// browser session created the snippet, nothing more.
type Snippet struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Code      string    `json:"code"`
	Language  Language  `json:"language"`
	VisitorID string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}
