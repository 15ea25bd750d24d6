package router

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shapestone/shape-serve/pkg/http"
)

// DecodeJSON decodes the request body into v. The request must declare
// an application/json media type (parameters after ';' are ignored,
// matching is case-insensitive); otherwise DecodeJSON returns a
// *ContentTypeError without touching the body. Malformed bodies return a
// *DecodeError. Both translate naturally to a 400 response.
func DecodeJSON(req *http.Request, v interface{}) error {
	ct := req.Headers.Get("Content-Type")
	if !isJSONContentType(ct) {
		return &ContentTypeError{Got: ct}
	}
	if err := json.Unmarshal(req.Body, v); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

func isJSONContentType(ct string) bool {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.EqualFold(strings.TrimSpace(ct), "application/json")
}

// JSON builds a response carrying v encoded as a JSON body with the
// matching content type. Content-Length is computed when the response is
// marshaled.
func JSON(status int, v interface{}) (*http.Response, error) {
	return http.NewResponse(status).WithJSON(v)
}

// ContentTypeError reports a JSON decode attempt on a request that does
// not declare a JSON body.
type ContentTypeError struct {
	Got string
}

// Error implements the error interface.
func (e *ContentTypeError) Error() string {
	if e.Got == "" {
		return "router: request has no Content-Type, want application/json"
	}
	return fmt.Sprintf("router: content type %q, want application/json", e.Got)
}

// DecodeError wraps a JSON decoding failure.
type DecodeError struct {
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("router: decode json body: %v", e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
