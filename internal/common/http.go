package common

import (
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ClientIP attempts to determine the real client IP address from the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		parts := strings.Split(ip, ",")
		if len(parts) > 0 {
			candidate := strings.TrimSpace(parts[0])
			if candidate != "" {
				return candidate
			}
		}
		return strings.TrimSpace(ip)
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// TruncateBody shortens a raw upstream response body for logs and error
// details. Full bodies are never surfaced to callers. The cut lands on a
// rune boundary so accented text is never split into invalid UTF-8.
func TruncateBody(body string, max int) string {
	if max <= 0 {
		max = 200
	}
	trimmed := strings.TrimSpace(body)
	if len(trimmed) <= max {
		return trimmed
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut] + "..."
}
