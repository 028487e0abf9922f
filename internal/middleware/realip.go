package middleware

import (
	"net"
	"net/http"
	"strings"
)

// TrustedRealIP rewrites RemoteAddr from X-Real-IP or X-Forwarded-For, but
// only when the connection comes from a loopback address. Those headers are
// written by whoever sends the request, so from any other peer they are
// ignored and the socket address stands.
//
// A reverse proxy on the same host, and the pages calling the API over
// localhost, are the loopback peers this is meant for.
func TrustedRealIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isLoopback(ClientIP(r)) {
			if ip := forwardedIP(r.Header); ip != "" {
				r.RemoteAddr = ip
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP is the host part of RemoteAddr, or RemoteAddr itself when it has
// no port (as after TrustedRealIP has rewritten it).
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// forwardedIP prefers X-Real-IP, then the leftmost X-Forwarded-For entry.
// Anything that does not parse as an IP is ignored.
func forwardedIP(h http.Header) string {
	candidates := []string{h.Get("X-Real-IP")}
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		candidates = append(candidates, first)
	}
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if ip := net.ParseIP(c); ip != nil {
			return ip.String()
		}
	}
	return ""
}
