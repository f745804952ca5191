//go:build linux

package reactor

import (
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/riftio/reactorhttp/httpwire"
	"github.com/riftio/reactorhttp/wswire"
)

type echoHandler struct {
	closes chan int
}

func newEchoHandler() *echoHandler {
	return &echoHandler{closes: make(chan int, 16)}
}

func (h *echoHandler) HandleRequest(req *httpwire.Request, ch *Channel, respond func([]byte)) {
	body := req.Path
	resp := "HTTP/1.1 200 OK\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body
	respond([]byte(resp))
}

func (h *echoHandler) HandleFrame(ch *Channel, frame *wswire.Frame) {
	ch.TryWrite(wswire.EncodeFrame(frame.Opcode, frame.Payload))
}

func (h *echoHandler) ClientClose(ch *Channel, status int) {
	select {
	case h.closes <- status:
	default:
	}
}

func (h *echoHandler) Close() {}

func startTestServer(t *testing.T, handler Handler) *Server {
	t.Helper()
	srv, err := New(handler, WithAddr("127.0.0.1", 0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	// Give the reactor goroutine a moment to finish epoll setup.
	time.Sleep(10 * time.Millisecond)
	return srv
}

func TestHTTPKeepAliveTwoPipelinedRequests(t *testing.T) {
	h := newEchoHandler()
	srv := startTestServer(t, h)

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	_, err = conn.Write([]byte("GET /a HTTP/1.1\r\nHost: x\r\n\r\nGET /b HTTP/1.1\r\nHost: x\r\n\r\n"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	buf := make([]byte, 4096)
	total := 0
	deadline := time.Now().Add(2 * time.Second)
	for total < len("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n/a")+len("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\n/b") && time.Now().Before(deadline) {
		n, err := conn.Read(buf[total:])
		if err != nil {
			if err == io.EOF {
				break
			}
			break
		}
		total += n
	}

	got := string(buf[:total])
	idxA := strings.Index(got, "/a")
	idxB := strings.Index(got, "/b")
	if idxA < 0 || idxB < 0 || idxA > idxB {
		t.Fatalf("expected /a response before /b response, got %q", got)
	}
}

func TestHTTPConnectionCloseAfterHTTP10Response(t *testing.T) {
	h := newEchoHandler()
	srv := startTestServer(t, h)

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	if _, err := conn.Write([]byte("GET /a HTTP/1.0\r\nHost: x\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, _ := io.ReadAll(conn)
	if !strings.Contains(string(data), "/a") {
		t.Fatalf("expected echoed path in response, got %q", data)
	}

	select {
	case status := <-h.closes:
		if status != -1 {
			t.Fatalf("expected HTTP close status -1, got %d", status)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected ClientClose to be invoked")
	}
}

func TestWebSocketUpgradeAndTextEcho(t *testing.T) {
	h := newEchoHandler()
	srv := startTestServer(t, h)

	conn, err := net.DialTimeout("tcp", srv.Addr(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	req := "GET /ws HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\nSec-WebSocket-Version: 13\r\n\r\n"
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write handshake: %v", err)
	}

	handshakeBuf := make([]byte, 4096)
	n, err := conn.Read(handshakeBuf)
	if err != nil {
		t.Fatalf("read handshake response: %v", err)
	}
	resp := string(handshakeBuf[:n])
	if !strings.HasPrefix(resp, "HTTP/1.1 101") {
		t.Fatalf("expected 101 Switching Protocols, got %q", resp)
	}
	if !strings.Contains(resp, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=") {
		t.Fatalf("unexpected Sec-WebSocket-Accept in %q", resp)
	}

	masked := maskClientFrame(wswire.EncodeFrame(wswire.OpcodeText, []byte("abc")))
	if _, err := conn.Write(masked); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	echoBuf := make([]byte, 64)
	n, err = conn.Read(echoBuf)
	if err != nil {
		t.Fatalf("read echoed frame: %v", err)
	}
	dec := wswire.NewDecoder()
	dec.Feed(echoBuf[:n])
	frame, err := dec.Next()
	if err != nil {
		t.Fatalf("decode echoed frame: %v", err)
	}
	if string(frame.Payload) != "abc" {
		t.Fatalf("expected echoed payload 'abc', got %q", frame.Payload)
	}
}

// maskClientFrame re-masks a server-encoded (unmasked) frame as an RFC6455
// client frame would appear on the wire, since EncodeFrame always produces
// unmasked server frames.
func maskClientFrame(unmasked []byte) []byte {
	out := make([]byte, len(unmasked)+4)
	out[0] = unmasked[0]
	payloadLen := int(unmasked[1] & 0x7F)
	out[1] = unmasked[1] | 0x80
	var key = [4]byte{0xAA, 0xBB, 0xCC, 0xDD}
	copy(out[2:6], key[:])
	payload := unmasked[2:]
	masked := make([]byte, payloadLen)
	for i := 0; i < payloadLen; i++ {
		masked[i] = payload[i] ^ key[i%4]
	}
	copy(out[6:], masked)
	return out
}
