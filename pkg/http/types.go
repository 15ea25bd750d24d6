// Package http provides streaming HTTP/1.x request parsing and response
// serialization for use directly on top of TCP connections.
//
// The core entry point is ParseRequest, which inspects a byte buffer that
// may hold a partial request, a complete request, or a complete request
// followed by pipelined bytes, and reports exactly one of three outcomes:
//
//   - complete: a non-nil *Request plus the number of bytes it occupied,
//     so the caller can drop them from its buffer and parse the remainder
//   - incomplete: (nil, 0, nil) - the buffer is a valid prefix of some
//     request; read more bytes and call again
//   - failed: (nil, 0, *ParseError) - no further bytes can make the
//     buffer a valid request
//
// Parsing is pure: no I/O, no retained state. Calling ParseRequest twice
// on the same bytes yields the same outcome.
//
// # Thread Safety
//
// All functions in this package are safe for concurrent use by multiple
// goroutines. Each call operates only on its arguments.
//
// # Parsing APIs
//
//   - ParseRequest/ParseRequestWithLimits - incremental buffer parsing
//   - NewDecoder - streaming io.Reader-based parsing
//   - Parse/ParseReader - AST-based parsing via shape-core
package http

import (
	"strconv"
	"strings"
)

// Request is the product of a complete parse. It owns its fields: the
// body is copied out of the input buffer, so callers may compact or
// reuse their read buffers freely. A Request is never mutated by this
// package after construction.
type Request struct {
	Method  Method  // closed method set, see Method
	Path    string  // target before the first '?', percent-encoded as received
	Query   string  // raw query after the first '?', "" when none
	Version Version // closed version set, see Version
	Headers Headers // ordered, repeatable headers
	Body    []byte  // raw body (nil if none)
}

// Target reassembles the request-target as it appeared on the wire.
func (r *Request) Target() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}

// Response represents an HTTP/1.x response message. Responses are built
// with NewResponse and the With* helpers, then serialized with Marshal.
type Response struct {
	Version    Version // written as its wire token, HTTP/1.1 by default
	StatusCode int     // 200, 404, etc.
	Reason     string  // looked up from the status table when empty
	Headers    Headers // ordered, repeatable headers
	Body       []byte  // raw body (nil if none)
}

// Header represents a single HTTP header key-value pair.
type Header struct {
	Key   string
	Value string
}

// Headers is an ordered, repeatable list of HTTP headers. Lookups are
// case-insensitive; original casing, insertion order, and duplicates are
// preserved. Duplicates are never merged.
type Headers []Header

// Get returns the first header value for the given key (case-insensitive).
// Returns empty string if not found.
func (h Headers) Get(key string) string {
	for _, hdr := range h {
		if strings.EqualFold(hdr.Key, key) {
			return hdr.Value
		}
	}
	return ""
}

// Values returns all header values for the given key (case-insensitive).
func (h Headers) Values(key string) []string {
	var vals []string
	for _, hdr := range h {
		if strings.EqualFold(hdr.Key, key) {
			vals = append(vals, hdr.Value)
		}
	}
	return vals
}

// Set replaces the first header with the given key (case-insensitive) or appends if not found.
func (h *Headers) Set(key, value string) {
	for i, hdr := range *h {
		if strings.EqualFold(hdr.Key, key) {
			(*h)[i].Value = value
			// Remove any subsequent headers with same key
			j := i + 1
			for j < len(*h) {
				if strings.EqualFold((*h)[j].Key, key) {
					*h = append((*h)[:j], (*h)[j+1:]...)
				} else {
					j++
				}
			}
			return
		}
	}
	*h = append(*h, Header{Key: key, Value: value})
}

// Add appends a header without replacing existing ones.
func (h *Headers) Add(key, value string) {
	*h = append(*h, Header{Key: key, Value: value})
}

// Del removes all headers with the given key (case-insensitive).
func (h *Headers) Del(key string) {
	j := 0
	for _, hdr := range *h {
		if !strings.EqualFold(hdr.Key, key) {
			(*h)[j] = hdr
			j++
		}
	}
	*h = (*h)[:j]
}

// Clone returns a deep copy of the headers.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	clone := make(Headers, len(h))
	copy(clone, h)
	return clone
}

// ContentLength returns the Content-Length header value, or -1 if absent
// or invalid. This is a convenience for inspecting parsed messages; the
// parser itself distinguishes an absent header (zero-length body) from a
// malformed one (InvalidContentLength failure).
func (h Headers) ContentLength() int64 {
	v := h.Get("Content-Length")
	if v == "" {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
