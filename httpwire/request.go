// Package httpwire implements the HTTP/1.1 wire codec external collaborator
// named by the reactor core: an incremental request decoder that consumes
// bytes from a caller-owned slice without blocking, and small response
// encoding helpers for the status lines the core writes itself (413, 414).
//
// Grounded on the request-line/header handling of
// momentics-hioload-ws/core/protocol/handshake.go, adapted from a blocking
// bufio.Reader read into a pure byte-slice state machine — the reactor
// must never block waiting for more bytes.
package httpwire

import (
	"strconv"
	"strings"
)

// Request is a fully parsed HTTP/1.1 request.
type Request struct {
	Method     string
	Path       string
	Proto      string
	Header     map[string][]string
	Body       []byte
	KeepAlive  bool
	IsUpgrade  bool
	RemoteAddr string
}

// HeaderGet returns the first value for the given header, case-insensitively.
func (r *Request) HeaderGet(name string) string {
	vs := r.Header[canonicalHeader(name)]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func canonicalHeader(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// headerHasToken reports whether the header contains token, split on commas,
// case-insensitively. Grounded on handshake.go's headerContainsToken.
func headerHasToken(h map[string][]string, name, token string) bool {
	token = strings.ToLower(token)
	for _, v := range h[canonicalHeader(name)] {
		for _, part := range strings.Split(v, ",") {
			if strings.ToLower(strings.TrimSpace(part)) == token {
				return true
			}
		}
	}
	return false
}

func isWebSocketUpgrade(h map[string][]string) bool {
	return headerHasToken(h, "Connection", "Upgrade") && headerHasToken(h, "Upgrade", "websocket")
}

// contentLength returns the parsed Content-Length header, or 0 if absent
// or invalid.
func contentLength(h map[string][]string) int {
	v := h[canonicalHeader("Content-Length")]
	if len(v) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v[0]))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func defaultKeepAlive(proto string, h map[string][]string) bool {
	if headerHasToken(h, "Connection", "close") {
		return false
	}
	if headerHasToken(h, "Connection", "keep-alive") {
		return true
	}
	// HTTP/1.1 defaults to keep-alive; HTTP/1.0 defaults to close.
	return proto == "HTTP/1.1"
}
