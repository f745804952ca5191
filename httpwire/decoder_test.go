package httpwire

import (
	"errors"
	"testing"

	"github.com/riftio/reactorhttp/api"
)

func TestDecoderNeedsMoreOnPartialRequestLine(t *testing.T) {
	d := NewDecoder(1<<20, 8192)
	d.Feed([]byte("GET / HT"))
	_, err := d.Next()
	if !errors.Is(err, api.ErrNeedMore) {
		t.Fatalf("expected ErrNeedMore, got %v", err)
	}
}

func TestDecoderParsesSimpleGet(t *testing.T) {
	d := NewDecoder(1<<20, 8192)
	d.Feed([]byte("GET /index.html HTTP/1.1\r\nHost: example.com\r\nConnection: keep-alive\r\n\r\n"))
	req, err := d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != "GET" || req.Path != "/index.html" || req.Proto != "HTTP/1.1" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.HeaderGet("Host") != "example.com" {
		t.Fatalf("expected Host header, got %q", req.HeaderGet("Host"))
	}
	if !req.KeepAlive {
		t.Fatal("expected keep-alive")
	}
}

func TestDecoderHandlesTwoRequestsInOneBuffer(t *testing.T) {
	d := NewDecoder(1<<20, 8192)
	d.Feed([]byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\nGET /b HTTP/1.1\r\nHost: x\r\n\r\n"))

	req1, err := d.Next()
	if err != nil || req1.Path != "/a" {
		t.Fatalf("first request: %v %+v", err, req1)
	}
	req2, err := d.Next()
	if err != nil || req2.Path != "/b" {
		t.Fatalf("second request: %v %+v", err, req2)
	}
	if _, err := d.Next(); !errors.Is(err, api.ErrNeedMore) {
		t.Fatalf("expected ErrNeedMore after draining buffer, got %v", err)
	}
}

func TestDecoderRequestLineTooLong(t *testing.T) {
	d := NewDecoder(1<<20, 16)
	d.Feed([]byte("GET /a-very-long-path-indeed HTTP/1.1\r\n"))
	_, err := d.Next()
	if !errors.Is(err, api.ErrLineTooLong) {
		t.Fatalf("expected ErrLineTooLong, got %v", err)
	}
}

func TestDecoderBodyTooLarge(t *testing.T) {
	d := NewDecoder(4, 8192)
	d.Feed([]byte("POST /upload HTTP/1.1\r\nContent-Length: 1000\r\n\r\n"))
	_, err := d.Next()
	if !errors.Is(err, api.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
}

func TestDecoderNeedsMoreBodyBytes(t *testing.T) {
	d := NewDecoder(1<<20, 8192)
	d.Feed([]byte("POST /upload HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"))
	_, err := d.Next()
	if !errors.Is(err, api.ErrNeedMore) {
		t.Fatalf("expected ErrNeedMore, got %v", err)
	}
	d.Feed([]byte("defghij"))
	req, err := d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(req.Body) != "abcdefghij" {
		t.Fatalf("unexpected body: %q", req.Body)
	}
}

func TestDecoderDetectsWebSocketUpgrade(t *testing.T) {
	d := NewDecoder(1<<20, 8192)
	d.Feed([]byte("GET /ws HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n"))
	req, err := d.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !req.IsUpgrade {
		t.Fatal("expected IsUpgrade true")
	}
}

func TestDecoderMalformedRequestLine(t *testing.T) {
	d := NewDecoder(1<<20, 8192)
	d.Feed([]byte("GET\r\n\r\n"))
	_, err := d.Next()
	if !errors.Is(err, api.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
