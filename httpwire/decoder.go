package httpwire

import (
	"bytes"
	"strings"

	"github.com/riftio/reactorhttp/api"
)

// maxHeaderBlockSize bounds the request-line+headers block independent of
// MaxLineSize, mirroring the fixed handshake header cap used elsewhere in
// the corpus (momentics-hioload-ws/core/protocol/handshake.go's
// MaxHandshakeHeadersSize) so a client trickling headers one byte at a
// time can't grow the decoder's internal buffer without bound.
const maxHeaderBlockSize = 8192

// Decoder incrementally parses HTTP/1.1 requests from fed byte chunks. It
// owns a private accumulation buffer, so the caller (the reactor's read
// pipeline) may hand it a slice of the shared scratch buffer without
// retaining that slice past the call — Feed copies what it needs.
type Decoder struct {
	buf         []byte
	maxBody     int
	maxLine     int
}

// NewDecoder creates a Decoder enforcing the given resource limits.
func NewDecoder(maxBodySize, maxLineSize int) *Decoder {
	return &Decoder{maxBody: maxBodySize, maxLine: maxLineSize}
}

// Feed appends chunk to the decoder's internal buffer. Safe to call with a
// slice into a buffer the caller will reuse or overwrite immediately after.
func (d *Decoder) Feed(chunk []byte) {
	d.buf = append(d.buf, chunk...)
}

// Reset discards every buffered byte, including any not yet parsed. Next
// already drops the bytes of each request it returns, so the read pipeline
// does not call Reset between requests: bytes of a following request fed in
// the same chunk stay buffered for the next call to Next.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Next attempts to parse one complete request off the front of the internal
// buffer. Returns api.ErrNeedMore if more bytes are required,
// api.ErrLineTooLong if the request line exceeds the configured limit or
// the header block exceeds maxHeaderBlockSize, api.ErrBodyTooLarge if
// Content-Length exceeds the
// configured limit, or api.ErrMalformed for any other parse failure.
func (d *Decoder) Next() (*Request, error) {
	lineEnd := bytes.Index(d.buf, []byte("\r\n"))
	if lineEnd < 0 {
		if len(d.buf) > d.maxLine {
			return nil, api.ErrLineTooLong
		}
		return nil, api.ErrNeedMore
	}
	if lineEnd > d.maxLine {
		return nil, api.ErrLineTooLong
	}

	headerEnd := bytes.Index(d.buf, []byte("\r\n\r\n"))
	if headerEnd < 0 {
		if len(d.buf) > maxHeaderBlockSize {
			return nil, api.ErrLineTooLong
		}
		return nil, api.ErrNeedMore
	}

	requestLine := string(d.buf[:lineEnd])
	parts := strings.SplitN(requestLine, " ", 3)
	if len(parts) != 3 {
		return nil, api.ErrMalformed
	}
	method, path, proto := parts[0], parts[1], parts[2]
	if method == "" || path == "" || (proto != "HTTP/1.1" && proto != "HTTP/1.0") {
		return nil, api.ErrMalformed
	}

	header := make(map[string][]string)
	// With no header lines the request line's CRLF is the start of the
	// terminating CRLFCRLF, so headerEnd == lineEnd and the block is empty.
	var headerBlock []byte
	if headerEnd > lineEnd {
		headerBlock = d.buf[lineEnd+2 : headerEnd]
	}
	for _, line := range strings.Split(string(headerBlock), "\r\n") {
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, api.ErrMalformed
		}
		name := canonicalHeader(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		header[name] = append(header[name], value)
	}

	bodyStart := headerEnd + 4
	cl := contentLength(header)
	if cl > d.maxBody {
		return nil, api.ErrBodyTooLarge
	}
	if len(d.buf) < bodyStart+cl {
		return nil, api.ErrNeedMore
	}

	body := make([]byte, cl)
	copy(body, d.buf[bodyStart:bodyStart+cl])

	req := &Request{
		Method:    method,
		Path:      path,
		Proto:     proto,
		Header:    header,
		Body:      body,
		KeepAlive: defaultKeepAlive(proto, header),
		IsUpgrade: isWebSocketUpgrade(header),
	}

	consumed := bodyStart + cl
	remaining := len(d.buf) - consumed
	copy(d.buf, d.buf[consumed:])
	d.buf = d.buf[:remaining]

	return req, nil
}
