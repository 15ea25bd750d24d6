// Command shapeserve runs a small demonstration server on the shape-serve
// stack: incremental request parsing, exact-match routing, JSON helpers,
// connection limiting, and graceful shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shapestone/shape-serve/pkg/http"
	"github.com/shapestone/shape-serve/pkg/router"
	"github.com/shapestone/shape-serve/pkg/server"
)

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	maxConns := flag.Int("max-conns", 1024, "maximum concurrent connections")
	readBuffer := flag.Int("read-buffer", 8192, "read buffer size in bytes")
	level := flag.String("log-level", "info", "log level: trace, debug, info, warn, error")
	pretty := flag.Bool("pretty", false, "human-readable console output")
	flag.Parse()

	lvl, err := zerolog.ParseLevel(*level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q\n", *level)
		os.Exit(2)
	}
	zerolog.SetGlobalLevel(lvl)
	logger := log.Logger
	if *pretty {
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	rt := router.New()
	registerRoutes(rt)

	cfg := server.Config{
		Addr:           *addr,
		MaxConnections: *maxConns,
		ReadBufferSize: *readBuffer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, rt, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("shutdown complete")
}

func registerRoutes(rt *router.Router) {
	var mu sync.Mutex
	users := []user{
		{ID: 1, Name: "Ada"},
		{ID: 2, Name: "Grace"},
	}

	rt.Handle("/", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		return http.NewResponse(http.StatusOK).
			WithContentType("text/html").
			WithBodyString("<h1>Welcome to shape-serve</h1>"), nil
	})

	rt.Handle("/hello", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		name := router.QueryParams(req)["name"]
		if name == "" {
			name = "world"
		}
		return http.NewResponse(http.StatusOK).
			WithContentType("text/plain").
			WithBodyString("Hello, " + name + "!"), nil
	})

	rt.Handle("/api/users", []http.Method{http.MethodGet, http.MethodPost}, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			var u user
			if err := router.DecodeJSON(req, &u); err != nil {
				return http.NewResponse(http.StatusBadRequest).
					WithContentType("text/plain").
					WithBodyString(err.Error()), nil
			}
			mu.Lock()
			u.ID = len(users) + 1
			users = append(users, u)
			mu.Unlock()
			return router.JSON(http.StatusCreated, u)
		}
		mu.Lock()
		snapshot := make([]user, len(users))
		copy(snapshot, users)
		mu.Unlock()
		return router.JSON(http.StatusOK, snapshot)
	})

	rt.Handle("/status", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		code := http.StatusOK
		if v := router.QueryParams(req)["code"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 100 || n > 599 {
				return http.NewResponse(http.StatusBadRequest).
					WithContentType("text/plain").
					WithBodyString("code must be a number between 100 and 599"), nil
			}
			code = n
		}
		return http.NewResponse(code).
			WithContentType("text/plain").
			WithBodyString(http.ReasonPhrase(code)), nil
	})

	rt.Handle("/headers", []http.Method{http.MethodGet}, func(req *http.Request) (*http.Response, error) {
		var b strings.Builder
		for _, h := range req.Headers {
			b.WriteString(h.Key)
			b.WriteString(": ")
			b.WriteString(h.Value)
			b.WriteByte('\n')
		}
		return http.NewResponse(http.StatusOK).
			WithContentType("text/plain").
			WithBodyString(b.String()), nil
	})
}
