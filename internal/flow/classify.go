package flow

import (
	"errors"
	"strings"

	"github.com/sakif/codebin/internal/client"
)

// Messages shown to the user. They are part of the contract, tests compare them verbatim.
const (
	MsgIncomplete   = "Please fill in both title and code fields."
	MsgNoResponse   = "No response received from the server. Please check your connection and try again."
	MsgCreateFailed = "An error occurred while creating the snippet."
	MsgNotFound     = "Snippet not found. It may have been removed or never existed."
	MsgFetchFailed  = "An error occurred while fetching the snippet. Please try again later."
)

// fieldSeparator joins server field-validation messages into one line.
const fieldSeparator = ", "

// rule inspects a failure and returns a message when it applies.
type rule func(err error) (string, bool)

// createRules are tried in order; the first match wins.
var createRules = []rule{
	fieldErrors,
	serverMessage,
	noResponse,
}

// ClassifyCreateError picks the message for a failed create request:
// field errors, then the server's error field, then "no response", then
// the generic fallback.
func ClassifyCreateError(err error) string {
	for _, r := range createRules {
		if msg, ok := r(err); ok {
			return msg
		}
	}
	return MsgCreateFailed
}

// ClassifyFetchError splits a failed fetch into NotFound or Error.
func ClassifyFetchError(err error) (RetrievalState, string) {
	if client.IsNotFound(err) {
		return RetrievalNotFound, MsgNotFound
	}
	return RetrievalError, MsgFetchFailed
}

func fieldErrors(err error) (string, bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "", false
	}
	msgs := make([]string, 0, len(apiErr.Body.Errors))
	for _, fe := range apiErr.Body.Errors {
		if m := strings.TrimSpace(fe.Msg); m != "" {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		return "", false
	}
	return strings.Join(msgs, fieldSeparator), true
}

func serverMessage(err error) (string, bool) {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Body.Error == "" {
		return "", false
	}
	return apiErr.Body.Error, true
}

func noResponse(err error) (string, bool) {
	var noResp *client.NoResponseError
	if !errors.As(err, &noResp) {
		return "", false
	}
	return MsgNoResponse, true
}
