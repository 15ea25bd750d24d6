package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/rs/zerolog"

	"github.com/shapestone/shape-serve/pkg/http"
	"github.com/shapestone/shape-serve/pkg/router"
)

// mockConn scripts the bytes a connection yields and captures what the
// server writes back.
type mockConn struct {
	script io.Reader
	wrote  strings.Builder
	closed bool
}

func newMockConn(script string) *mockConn {
	return &mockConn{script: strings.NewReader(script)}
}

func (c *mockConn) Read(p []byte) (int, error)  { return c.script.Read(p) }
func (c *mockConn) Write(p []byte) (int, error) { return c.wrote.Write(p) }
func (c *mockConn) Close() error                { c.closed = true; return nil }

func (c *mockConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}
func (c *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 54321}
}
func (c *mockConn) SetDeadline(time.Time) error      { return nil }
func (c *mockConn) SetReadDeadline(time.Time) error  { return nil }
func (c *mockConn) SetWriteDeadline(time.Time) error { return nil }

func newTestServer() *Server {
	rt := router.New()
	rt.Handle("/hello", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		return http.NewResponse(http.StatusOK).
			WithContentType("text/plain").
			WithBodyString("Hello, World!"), nil
	})
	rt.Handle("/echo", []http.Method{http.MethodPost}, func(req *http.Request) (*http.Response, error) {
		return http.NewResponse(http.StatusOK).WithBody(req.Body), nil
	})
	rt.Handle("/boom", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("handler exploded")
	})
	rt.Handle("/nil", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		return nil, nil
	})
	return New(Config{}, rt, zerolog.Nop())
}

func TestHandleConn_OK(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("response = %q, want 200 status line", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\nHello, World!") {
		t.Errorf("response = %q, want Hello, World! body", out)
	}
	if !strings.Contains(out, "Server: shape-serve\r\n") {
		t.Errorf("response = %q, want Server header", out)
	}
	if !strings.Contains(out, "X-Request-Id: ") {
		t.Errorf("response = %q, want X-Request-Id header", out)
	}
	if !strings.Contains(out, "Content-Length: 13\r\n") {
		t.Errorf("response = %q, want Content-Length 13", out)
	}
	if !conn.closed {
		t.Error("connection left open after stream end")
	}
}

func TestHandleConn_EchoBody(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("POST /echo HTTP/1.1\r\nContent-Length: 7\r\n\r\npayload")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("response = %q, want 200", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\npayload") {
		t.Errorf("response = %q, want echoed body", out)
	}
}

func TestHandleConn_NotFound(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /missing HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 404 Not Found\r\n") {
		t.Errorf("response = %q, want 404", out)
	}
	if !strings.HasSuffix(out, "Not found: /missing") {
		t.Errorf("response = %q, want Not found body", out)
	}
}

func TestHandleConn_MethodNotAllowed(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("DELETE /hello HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 405 Method Not Allowed\r\n") {
		t.Errorf("response = %q, want 405", out)
	}
	if !strings.Contains(out, "Allow: GET\r\n") {
		t.Errorf("response = %q, want Allow: GET", out)
	}
	if !strings.HasSuffix(out, "Method DELETE not allowed for path: /hello. Allowed methods: GET") {
		t.Errorf("response = %q, want allowed-methods body", out)
	}
}

func TestHandleConn_ParseError(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("BREW /coffee HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 400 Bad Request\r\n") {
		t.Errorf("response = %q, want 400", out)
	}
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Errorf("response = %q, want Connection: close", out)
	}
	if !strings.Contains(out, "Error parsing request: ") {
		t.Errorf("response = %q, want parse error body", out)
	}
}

func TestHandleConn_UnsupportedVersion(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /hello HTTP/9.9\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 501 Not Implemented\r\n") {
		t.Errorf("response = %q, want 501", out)
	}
}

func TestHandleConn_OversizedRequestLine(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /" + strings.Repeat("a", http.DefaultMaxLineBytes+2) + " HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 431 Request Header Fields Too Large\r\n") {
		t.Errorf("response = %q, want 431", out)
	}
}

func TestHandleConn_Pipelined(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /hello HTTP/1.1\r\n\r\n" +
		"POST /echo HTTP/1.1\r\nContent-Length: 3\r\n\r\nabc")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if got := strings.Count(out, "HTTP/1.1 200 OK\r\n"); got != 2 {
		t.Fatalf("responses = %d, want 2 in %q", got, out)
	}
	first := strings.Index(out, "Hello, World!")
	second := strings.Index(out, "abc")
	if first < 0 || second < 0 || second < first {
		t.Errorf("responses out of order in %q", out)
	}
}

func TestHandleConn_ConnectionCloseStopsPipeline(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /hello HTTP/1.1\r\nConnection: close\r\n\r\n" +
		"GET /hello HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Errorf("response = %q, want Connection: close echoed", out)
	}
	if got := strings.Count(out, "HTTP/1.1 200 OK\r\n"); got != 1 {
		t.Errorf("responses = %d, want only the first request served", got)
	}
	if !conn.closed {
		t.Error("connection left open after Connection: close")
	}
}

func TestHandleConn_HTTP10Closes(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /hello HTTP/1.0\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("response = %q, want 200", out)
	}
	if !strings.Contains(out, "Connection: close\r\n") {
		t.Errorf("response = %q, want Connection: close for HTTP/1.0", out)
	}
}

func TestHandleConn_HandlerError(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /boom HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Errorf("response = %q, want 500", out)
	}
	if !strings.HasSuffix(out, "Internal server error") {
		t.Errorf("response = %q, want opaque error body", out)
	}
}

func TestHandleConn_NilHandlerResponse(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("GET /nil HTTP/1.1\r\n\r\n")

	srv.handleConn(conn)

	if !strings.HasPrefix(conn.wrote.String(), "HTTP/1.1 500 Internal Server Error\r\n") {
		t.Errorf("response = %q, want 500", conn.wrote.String())
	}
}

func TestHandleConn_ByteAtATime(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("")
	conn.script = iotest.OneByteReader(strings.NewReader("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n"))

	srv.handleConn(conn)

	out := conn.wrote.String()
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("response = %q, want 200 from dripped request", out)
	}
}

func TestHandleConn_SilentPeer(t *testing.T) {
	srv := newTestServer()
	conn := newMockConn("")

	srv.handleConn(conn)

	if conn.wrote.Len() != 0 {
		t.Errorf("wrote %q to a peer that sent nothing", conn.wrote.String())
	}
	if !conn.closed {
		t.Error("connection left open")
	}
}

func TestWantClose(t *testing.T) {
	tests := []struct {
		name string
		req  *http.Request
		want bool
	}{
		{"http10", &http.Request{Version: http.VersionHTTP10}, true},
		{"http11 default", &http.Request{Version: http.VersionHTTP11}, false},
		{"connection close", &http.Request{Headers: http.Headers{{Key: "Connection", Value: "close"}}}, true},
		{"connection close mixed case", &http.Request{Headers: http.Headers{{Key: "connection", Value: "Close"}}}, true},
		{"keep-alive", &http.Request{Headers: http.Headers{{Key: "Connection", Value: "keep-alive"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wantClose(tt.req); got != tt.want {
				t.Errorf("wantClose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q, want 127.0.0.1:8080", cfg.Addr)
	}
	if cfg.MaxConnections != 1024 {
		t.Errorf("MaxConnections = %d, want 1024", cfg.MaxConnections)
	}
	if cfg.ReadBufferSize != 8192 {
		t.Errorf("ReadBufferSize = %d, want 8192", cfg.ReadBufferSize)
	}

	cfg = Config{Addr: ":9000", MaxConnections: 2}.withDefaults()
	if cfg.Addr != ":9000" || cfg.MaxConnections != 2 {
		t.Errorf("explicit fields overwritten: %+v", cfg)
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("GET /hello HTTP/1.1\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(out), "HTTP/1.1 200 OK\r\n") {
		t.Errorf("response = %q, want 200", out)
	}
	if !strings.HasSuffix(string(out), "Hello, World!") {
		t.Errorf("response = %q, want Hello, World! body", out)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil on context cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_RejectsAtCapacity(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	rt := router.New()
	rt.Handle("/hello", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		return http.NewResponse(http.StatusOK).WithBodyString("hi"), nil
	})
	srv := New(Config{MaxConnections: 1}, rt, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	// First connection holds the only slot.
	held, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer held.Close()

	// Second connection must be turned away with a 503.
	turned, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer turned.Close()

	out, err := io.ReadAll(turned)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(out), "HTTP/1.1 503 Service Unavailable\r\n") {
		t.Errorf("response = %q, want 503", out)
	}
	if !strings.HasSuffix(string(out), "Server is at capacity, please try again later") {
		t.Errorf("response = %q, want capacity body", out)
	}

	cancel()
	held.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
