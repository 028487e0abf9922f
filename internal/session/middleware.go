package session

import (
	"context"
	"log/slog"
	"net/http"
)

// CookieName is the cookie that carries the visitor token.
const CookieName = "codebin_visitor"

// contextKey is package-private so no other package can read or shadow our value.
type contextKey string

const visitorIDKey contextKey = "visitorID"

// Visitor makes sure every request has a visitor id in its context.
//
// A valid cookie is reused as is. A missing, expired or tampered cookie is
// replaced by a freshly issued one (Set-Cookie on the response). The request is
// never rejected: this is attribution, not access control.
//
// COOKIE FLAGS:
//   - HttpOnly: page scripts cannot read the token
//   - SameSite=Lax: sent on top-level navigation, not on cross-site subrequests
//   - Secure: only when the request itself arrived over TLS
func Visitor(tokens *Tokens, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(CookieName); err == nil {
				if id, err := tokens.Validate(c.Value); err == nil {
					next.ServeHTTP(w, r.WithContext(WithVisitorID(r.Context(), id)))
					return
				}
			}

			token, id, err := tokens.Issue()
			if err != nil {
				// Serve anonymously rather than fail the request.
				logger.Error("failed to issue visitor token", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			cookie := &http.Cookie{
				Name:     CookieName,
				Value:    token,
				Path:     "/",
				MaxAge:   int(tokens.lifetime.Seconds()),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			}
			http.SetCookie(w, cookie)

			// Downstream handlers that forward r.Cookies() to the API must see
			// the new cookie too, or the API would mint a second visitor.
			existing := r.Cookies()
			r = r.WithContext(WithVisitorID(r.Context(), id))
			r.Header = r.Header.Clone()
			r.Header.Del("Cookie")
			for _, c := range existing {
				if c.Name != CookieName {
					r.AddCookie(c)
				}
			}
			r.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			next.ServeHTTP(w, r)
		})
	}
}

// WithVisitorID returns a copy of ctx carrying the visitor id.
func WithVisitorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorIDKey, id)
}

// VisitorIDFromContext returns ("", false) for anonymous requests.
func VisitorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(visitorIDKey).(string)
	return id, ok && id != ""
}
