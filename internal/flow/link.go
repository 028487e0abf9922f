package flow

import "strings"

// SnippetPath is the route prefix of the viewer.
const SnippetPath = "/snippet/"

// ShareLink builds the public link for a snippet: origin + "/snippet/" + id.
// A trailing slash on origin is ignored so "https://x/" and "https://x" agree.
// The id is used verbatim; the server only hands out URL-safe ids.
func ShareLink(origin, id string) string {
	return strings.TrimSuffix(origin, "/") + SnippetPath + id
}
