package http

import (
	"errors"
	"fmt"
)

// ErrorKind classifies parse failures. The set is closed: every failure
// the parser can report carries exactly one of these kinds, so servers
// can map outcomes to responses with a plain switch.
type ErrorKind uint8

const (
	KindMalformedRequestLine ErrorKind = iota // wrong token count, bad target, broken framing
	KindUnsupportedMethod                     // token outside the closed method set
	KindUnsupportedVersion                    // token outside the closed version set
	KindLineTooLong                           // line exceeds Limits.MaxLineBytes
	KindHeaderBlockTooLarge                   // header section exceeds Limits.MaxHeaderBytes
	KindMalformedHeader                       // missing colon, bad name byte, whitespace before colon
	KindInvalidContentLength                  // Content-Length is not a plain non-negative decimal
)

var kindNames = [...]string{
	KindMalformedRequestLine: "malformed request line",
	KindUnsupportedMethod:    "unsupported method",
	KindUnsupportedVersion:   "unsupported version",
	KindLineTooLong:          "line too long",
	KindHeaderBlockTooLarge:  "header block too large",
	KindMalformedHeader:      "malformed header",
	KindInvalidContentLength: "invalid content length",
}

// String returns a short human-readable name for the kind.
func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// StatusCode returns the response status a server should send back for
// this kind of failure: 501 for an unsupported version, 431 for either
// size limit, 400 for everything else.
func (k ErrorKind) StatusCode() int {
	switch k {
	case KindUnsupportedVersion:
		return StatusNotImplemented
	case KindLineTooLong, KindHeaderBlockTooLarge:
		return StatusRequestHeaderFieldsTooLarge
	default:
		return StatusBadRequest
	}
}

// ParseError reports a failed parse: the buffer can never become a valid
// request no matter what bytes arrive later. An incomplete buffer is not
// an error; ParseRequest signals it with a nil error and a nil request.
type ParseError struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("http: %s: %s", e.Kind, e.Message)
}

// StatusCode returns the response status a server should send back.
func (e *ParseError) StatusCode() int {
	return e.Kind.StatusCode()
}

// errorf builds a *ParseError with a formatted message.
func errorf(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	// ErrIncomplete is returned by whole-input helpers (ValidateRequest,
	// Parse) when the input is a valid prefix of a request but not a
	// complete one. The incremental ParseRequest never returns it:
	// incompleteness there is the (nil, 0, nil) outcome.
	ErrIncomplete = errors.New("http: incomplete request")

	// ErrTrailingBytes is returned by whole-input helpers when a complete
	// request leaves unconsumed bytes behind it.
	ErrTrailingBytes = errors.New("http: trailing bytes after request")
)
