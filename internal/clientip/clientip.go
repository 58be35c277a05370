package clientip

import (
	"net"
	"net/http"
	"strings"
)

// fallbackAddr is reported when no usable address can be extracted.
const fallbackAddr = "127.0.0.1"

// FromRequest resolves the originating client address of an HTTP request.
// Proxy headers are consulted in a fixed order before falling back to the
// transport peer address: X-Forwarded-For (first entry), X-Real-IP,
// X-Client-IP. The result is normalized so loopback and IPv4-mapped IPv6
// forms compare equal to their plain IPv4 spelling.
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return normalize(ip)
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return normalize(ip)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Client-IP")); ip != "" {
		return normalize(ip)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return fallbackAddr
	}
	return normalize(host)
}

// normalize maps the IPv6 loopback onto 127.0.0.1 and strips the
// IPv4-mapped IPv6 prefix, so downstream lookups see one canonical form.
func normalize(ip string) string {
	if ip == "::1" {
		return fallbackAddr
	}
	return strings.TrimPrefix(ip, "::ffff:")
}
