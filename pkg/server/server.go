// Package server runs the TCP layer: it accepts connections, feeds bytes
// through the incremental parser, dispatches to the router the moment a
// request completes, and writes marshaled responses back. Everything the
// parser deliberately leaves to its caller, reading, buffering, excising
// consumed bytes, timeouts, lives here.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shapestone/shape-serve/pkg/http"
	"github.com/shapestone/shape-serve/pkg/router"
)

// drainTimeout bounds how long Serve waits for in-flight connections
// after the context is canceled.
const drainTimeout = 30 * time.Second

// capacityBody is sent on connections rejected at MaxConnections.
const capacityBody = "Server is at capacity, please try again later"

// Server serves parsed requests from raw TCP connections.
type Server struct {
	cfg    Config
	router *router.Router
	log    zerolog.Logger
	sem    chan struct{}
	wg     sync.WaitGroup
}

// New returns a Server dispatching to rt. The logger is the root for
// connection- and request-scoped child loggers.
func New(cfg Config, rt *router.Router, logger zerolog.Logger) *Server {
	cfg = cfg.withDefaults()
	return &Server{
		cfg:    cfg,
		router: rt,
		log:    logger,
		sem:    make(chan struct{}, cfg.MaxConnections),
	}
}

// ListenAndServe binds cfg.Addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is canceled, then stops
// accepting and waits for in-flight connections up to drainTimeout. The
// listener is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Int("max_connections", s.cfg.MaxConnections).
		Msg("server listening")
	for _, r := range s.router.Routes() {
		s.log.Info().
			Str("methods", methodList(r.Methods)).
			Str("path", r.Path).
			Msg("route registered")
	}

	// Unblock Accept when the context ends.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var acceptErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn().Err(err).Msg("accept failed, retrying")
				time.Sleep(100 * time.Millisecond)
				continue
			}
			acceptErr = fmt.Errorf("server: accept: %w", err)
			break
		}

		select {
		case s.sem <- struct{}{}:
		default:
			s.rejectAtCapacity(conn)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.handleConn(conn)
		}()
	}

	s.drain()
	return acceptErr
}

// drain waits for in-flight connection goroutines, giving up after
// drainTimeout.
func (s *Server) drain() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("all connections drained")
	case <-time.After(drainTimeout):
		s.log.Warn().Dur("timeout", drainTimeout).Msg("drain timed out, abandoning connections")
	}
}

// rejectAtCapacity answers a connection that arrived past the
// MaxConnections cap and closes it without admitting it.
func (s *Server) rejectAtCapacity(conn net.Conn) {
	defer conn.Close()
	resp := http.NewResponse(http.StatusServiceUnavailable).
		WithHeader("Connection", "close").
		WithContentType("text/plain").
		WithBodyString(capacityBody)
	if b, err := http.Marshal(resp); err == nil {
		conn.Write(b)
	}
	s.log.Warn().
		Str("remote", conn.RemoteAddr().String()).
		Msg("connection rejected at capacity")
}

// handleConn owns one connection: read, parse, dispatch, respond,
// repeat. Pipelined requests already in the buffer are served before the
// next read. The connection closes on parse failure, on HTTP/1.0 or
// Connection: close requests, and when the peer goes away.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	logger := s.log.With().
		Str("conn_id", uuid.NewString()).
		Str("remote", conn.RemoteAddr().String()).
		Logger()
	logger.Debug().Msg("connection accepted")

	buf := make([]byte, 0, s.cfg.ReadBufferSize)
	chunk := make([]byte, s.cfg.ReadBufferSize)

	for {
		for len(buf) > 0 {
			req, n, err := http.ParseRequestWithLimits(buf, s.cfg.Limits)
			if err != nil {
				s.respondParseError(conn, logger, err)
				return
			}
			if req == nil {
				break
			}
			buf = buf[:copy(buf, buf[n:])]
			if closing := s.dispatch(conn, logger, req); closing {
				return
			}
		}

		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			continue
		}
		if err != nil {
			switch {
			case err == io.EOF && len(buf) == 0:
				logger.Debug().Msg("connection closed")
			case err == io.EOF:
				logger.Debug().Msg("connection closed mid-request")
			default:
				logger.Debug().Err(err).Msg("read failed")
			}
			return
		}
	}
}

// dispatch routes one request and writes its response, reporting whether
// the connection must close afterwards.
func (s *Server) dispatch(conn net.Conn, logger zerolog.Logger, req *http.Request) bool {
	start := time.Now()
	requestID := uuid.NewString()
	reqLog := logger.With().
		Str("request_id", requestID).
		Str("method", req.Method.String()).
		Str("path", req.Path).
		Logger()

	resp := s.respond(reqLog, req)
	resp.WithHeader("X-Request-Id", requestID)

	closing := wantClose(req)
	if closing {
		resp.WithHeader("Connection", "close")
	}

	b, err := http.Marshal(resp)
	if err != nil {
		reqLog.Error().Err(err).Msg("marshal response failed")
		return true
	}
	if _, err := conn.Write(b); err != nil {
		reqLog.Debug().Err(err).Msg("write response failed")
		return true
	}

	reqLog.Info().
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request handled")
	return closing
}

// respond runs the router and maps its errors onto responses: 404 for an
// unknown path, 405 with an Allow header for a known path with the wrong
// method, 500 when the handler fails.
func (s *Server) respond(logger zerolog.Logger, req *http.Request) *http.Response {
	handler, err := s.router.Lookup(req.Method, req.Path)
	if err != nil {
		var notAllowed *router.MethodNotAllowedError
		if errors.As(err, &notAllowed) {
			return http.NewResponse(http.StatusMethodNotAllowed).
				WithHeader("Allow", notAllowed.AllowHeader()).
				WithContentType("text/plain").
				WithBodyString(fmt.Sprintf("Method %s not allowed for path: %s. Allowed methods: %s",
					req.Method, req.Path, notAllowed.AllowHeader()))
		}
		return http.NewResponse(http.StatusNotFound).
			WithContentType("text/plain").
			WithBodyString("Not found: " + req.Path)
	}

	resp, err := handler(req)
	if err != nil {
		logger.Error().Err(err).Msg("handler failed")
		return http.NewResponse(http.StatusInternalServerError).
			WithContentType("text/plain").
			WithBodyString("Internal server error")
	}
	if resp == nil {
		logger.Error().Msg("handler returned nil response")
		return http.NewResponse(http.StatusInternalServerError).
			WithContentType("text/plain").
			WithBodyString("Internal server error")
	}
	return resp
}

// respondParseError answers a failed parse with the status its kind
// calls for and closes the conversation.
func (s *Server) respondParseError(conn net.Conn, logger zerolog.Logger, err error) {
	status := http.StatusBadRequest
	var perr *http.ParseError
	if errors.As(err, &perr) {
		status = perr.StatusCode()
		logger.Warn().
			Str("kind", perr.Kind.String()).
			Str("detail", perr.Message).
			Msg("request rejected")
	} else {
		logger.Warn().Err(err).Msg("request rejected")
	}
	resp := http.NewResponse(status).
		WithHeader("Connection", "close").
		WithContentType("text/plain").
		WithBodyString("Error parsing request: " + err.Error())
	if b, merr := http.Marshal(resp); merr == nil {
		conn.Write(b)
	}
}

// wantClose reports whether the connection closes after this request:
// HTTP/1.0 gets no keep-alive here, and Connection: close is honored for
// everyone.
func wantClose(req *http.Request) bool {
	if req.Version == http.VersionHTTP10 {
		return true
	}
	return strings.EqualFold(req.Headers.Get("Connection"), "close")
}

func methodList(methods []http.Method) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}
