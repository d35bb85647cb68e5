package enrich

import (
	"net"
	"net/http"
	"strings"
)

// unknownAddress is returned when no signal identifies the peer
const unknownAddress = "unknown"

// ResolveAddress resolves the originating network address from layered proxy
// headers: the first comma-separated entry of X-Forwarded-For, else X-Real-IP,
// else the transport-layer peer address, else the literal "unknown". It is
// pure and total.
func ResolveAddress(headers http.Header, remoteAddr string) string {
	if forwarded := headers.Get("X-Forwarded-For"); forwarded != "" {
		first := forwarded
		if idx := strings.Index(forwarded, ","); idx >= 0 {
			first = forwarded[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(headers.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	if remoteAddr != "" {
		// Peer addresses usually carry a port; strip it when present.
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			return host
		}
		return remoteAddr
	}

	return unknownAddress
}
