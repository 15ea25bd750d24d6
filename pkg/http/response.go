package http

import (
	"encoding/json"
	"fmt"
)

// Common status codes.
const (
	StatusOK                          = 200
	StatusCreated                     = 201
	StatusAccepted                    = 202
	StatusNoContent                   = 204
	StatusMovedPermanently            = 301
	StatusFound                       = 302
	StatusNotModified                 = 304
	StatusBadRequest                  = 400
	StatusUnauthorized                = 401
	StatusForbidden                   = 403
	StatusNotFound                    = 404
	StatusMethodNotAllowed            = 405
	StatusRequestTimeout              = 408
	StatusConflict                    = 409
	StatusGone                        = 410
	StatusLengthRequired              = 411
	StatusPayloadTooLarge             = 413
	StatusURITooLong                  = 414
	StatusRequestHeaderFieldsTooLarge = 431
	StatusInternalServerError         = 500
	StatusNotImplemented              = 501
	StatusBadGateway                  = 502
	StatusServiceUnavailable          = 503
	StatusGatewayTimeout              = 504
)

// reasonPhrases is the fixed reason lookup used when Response.Reason is
// left empty.
var reasonPhrases = map[int]string{
	StatusOK:                          "OK",
	StatusCreated:                     "Created",
	StatusAccepted:                    "Accepted",
	StatusNoContent:                   "No Content",
	StatusMovedPermanently:            "Moved Permanently",
	StatusFound:                       "Found",
	StatusNotModified:                 "Not Modified",
	StatusBadRequest:                  "Bad Request",
	StatusUnauthorized:                "Unauthorized",
	StatusForbidden:                   "Forbidden",
	StatusNotFound:                    "Not Found",
	StatusMethodNotAllowed:            "Method Not Allowed",
	StatusRequestTimeout:              "Request Timeout",
	StatusConflict:                    "Conflict",
	StatusGone:                        "Gone",
	StatusLengthRequired:              "Length Required",
	StatusPayloadTooLarge:             "Payload Too Large",
	StatusURITooLong:                  "URI Too Long",
	StatusRequestHeaderFieldsTooLarge: "Request Header Fields Too Large",
	StatusInternalServerError:         "Internal Server Error",
	StatusNotImplemented:              "Not Implemented",
	StatusBadGateway:                  "Bad Gateway",
	StatusServiceUnavailable:          "Service Unavailable",
	StatusGatewayTimeout:              "Gateway Timeout",
}

// ReasonPhrase returns the canonical reason for code. Codes outside the
// table get a generic placeholder so serialization never fails on an
// exotic status.
func ReasonPhrase(code int) string {
	if r, ok := reasonPhrases[code]; ok {
		return r
	}
	return "Unknown Status"
}

// serverName is seeded into every response built with NewResponse.
const serverName = "shape-serve"

// NewResponse returns an HTTP/1.1 response with the given status code
// and the Server header preset. The reason phrase resolves from the
// status table at marshal time unless set explicitly; Content-Length is
// computed at marshal time when a body is present.
func NewResponse(status int) *Response {
	return &Response{
		Version:    VersionHTTP11,
		StatusCode: status,
		Headers:    Headers{{Key: "Server", Value: serverName}},
	}
}

// WithHeader sets a header, replacing any existing values for the key,
// and returns the response for chaining.
func (r *Response) WithHeader(key, value string) *Response {
	r.Headers.Set(key, value)
	return r
}

// WithContentType sets the Content-Type header.
func (r *Response) WithContentType(contentType string) *Response {
	return r.WithHeader("Content-Type", contentType)
}

// WithBody sets the raw body.
func (r *Response) WithBody(body []byte) *Response {
	r.Body = body
	return r
}

// WithBodyString sets the body from a string.
func (r *Response) WithBodyString(body string) *Response {
	return r.WithBody([]byte(body))
}

// WithJSON encodes v as the response body and sets the JSON content type.
func (r *Response) WithJSON(v interface{}) (*Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("http: encode json body: %w", err)
	}
	return r.WithContentType("application/json").WithBody(b), nil
}
