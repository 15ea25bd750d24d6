// Package router dispatches parsed requests to handlers by exact path
// match and method set, and carries the request-side conveniences that
// sit above wire parsing: lazy query-string decomposition and JSON body
// mediation.
//
// Routes are registered once at startup and the table is immutable
// afterwards, so lookups from concurrent connection goroutines need no
// locking. Register everything before the first Lookup.
package router

import (
	"fmt"
	"strings"

	"github.com/shapestone/shape-serve/pkg/http"
)

// Handler produces a response for a parsed request. A returned error
// means the handler itself failed; servers translate that into a 500.
type Handler func(*http.Request) (*http.Response, error)

// Route pairs an exact path with the methods it accepts.
type Route struct {
	Path    string
	Methods []http.Method
	Handler Handler
}

// Router holds the route table.
type Router struct {
	routes []Route
}

// New returns an empty Router.
func New() *Router {
	return &Router{}
}

// Handle registers handler for the given exact path and method set.
// Handle is not safe to call concurrently with Lookup; registration
// belongs in startup code.
func (rt *Router) Handle(path string, methods []http.Method, handler Handler) {
	rt.routes = append(rt.routes, Route{
		Path:    path,
		Methods: methods,
		Handler: handler,
	})
}

// Routes returns a snapshot of the route table, for startup logging and
// introspection.
func (rt *Router) Routes() []Route {
	out := make([]Route, len(rt.routes))
	copy(out, rt.routes)
	return out
}

// Lookup resolves a method and path to a handler.
//
// The two miss cases stay distinct: *NotFoundError when no route carries
// the path at all, *MethodNotAllowedError when the path exists but none
// of its routes accept the method. The latter carries the union of
// methods the path does accept, in registration order, for the Allow
// header.
func (rt *Router) Lookup(method http.Method, path string) (Handler, error) {
	var allowed []http.Method
	pathSeen := false
	for _, r := range rt.routes {
		if r.Path != path {
			continue
		}
		pathSeen = true
		for _, m := range r.Methods {
			if m == method {
				return r.Handler, nil
			}
			allowed = appendMethod(allowed, m)
		}
	}
	if !pathSeen {
		return nil, &NotFoundError{Path: path}
	}
	return nil, &MethodNotAllowedError{Path: path, Method: method, Allowed: allowed}
}

func appendMethod(methods []http.Method, m http.Method) []http.Method {
	for _, have := range methods {
		if have == m {
			return methods
		}
	}
	return append(methods, m)
}

// NotFoundError reports a path with no registered route.
type NotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("router: not found: %s", e.Path)
}

// MethodNotAllowedError reports a registered path that does not accept
// the request method.
type MethodNotAllowedError struct {
	Path    string
	Method  http.Method
	Allowed []http.Method
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("router: method %s not allowed for path: %s. Allowed methods: %s",
		e.Method, e.Path, joinMethods(e.Allowed))
}

// AllowHeader renders the allowed methods for a 405 response's Allow
// header, e.g. "GET, POST".
func (e *MethodNotAllowedError) AllowHeader() string {
	return joinMethods(e.Allowed)
}

func joinMethods(methods []http.Method) string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}
