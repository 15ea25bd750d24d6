package http

import (
	"math"
	"strings"
)

// ParseRequest attempts to parse one complete request from the front of
// data using DefaultLimits. Exactly one of three outcomes is reported:
//
//   - complete: a non-nil *Request, the number of bytes the request
//     occupied, and a nil error. The caller should drop that many bytes
//     from its buffer; anything left is the start of the next request.
//   - incomplete: (nil, 0, nil). The buffer is a valid prefix; read more
//     bytes and call again.
//   - failed: (nil, 0, err) where err is a *ParseError. No bytes that
//     could arrive later can make the buffer a valid request.
//
// ParseRequest is pure and idempotent: it keeps no state between calls,
// performs no I/O, and identical input always yields identical results.
func ParseRequest(data []byte) (*Request, int, error) {
	return ParseRequestWithLimits(data, DefaultLimits())
}

// ParseRequestWithLimits is ParseRequest with caller-supplied limits.
// Zero-valued limit fields fall back to the defaults.
func ParseRequestWithLimits(data []byte, limits Limits) (*Request, int, error) {
	lim := limits.withDefaults()

	// Request line. Validation only ever runs on terminated lines: until
	// the CRLF shows up, any content, junk included, parses incomplete.
	line, n, err := scanLine(data, 0, lim.MaxLineBytes)
	if err != nil {
		return nil, 0, requestLineScanError(err, lim)
	}
	if n == 0 {
		return nil, 0, nil
	}
	rl, perr := parseRequestLine(line)
	if perr != nil {
		return nil, 0, perr
	}

	// Header section, until the empty line. The block cap counts every
	// byte from the first header byte through the terminating CRLF and
	// fires even while the section is unterminated.
	off := n
	headerStart := off
	var headers Headers
	for {
		line, n, err = scanLine(data, off, lim.MaxLineBytes)
		if err != nil {
			return nil, 0, headerScanError(err, lim)
		}
		if n == 0 {
			if len(data)-headerStart > lim.MaxHeaderBytes {
				return nil, 0, errorf(KindHeaderBlockTooLarge, "header section exceeds %d bytes", lim.MaxHeaderBytes)
			}
			return nil, 0, nil
		}
		off += n
		if off-headerStart > lim.MaxHeaderBytes {
			return nil, 0, errorf(KindHeaderBlockTooLarge, "header section exceeds %d bytes", lim.MaxHeaderBytes)
		}
		if len(line) == 0 {
			break
		}
		h, perr := parseHeaderLine(line)
		if perr != nil {
			return nil, 0, perr
		}
		headers = append(headers, h)
	}

	// Body framing by Content-Length alone. First occurrence wins;
	// duplicates stay visible in Headers but are not consulted.
	var bodyLen int64
	for _, h := range headers {
		if strings.EqualFold(h.Key, "Content-Length") {
			bodyLen, perr = parseContentLength(h.Value)
			if perr != nil {
				return nil, 0, perr
			}
			break
		}
	}

	bodyStart := off
	if int64(len(data)-bodyStart) < bodyLen {
		return nil, 0, nil
	}
	consumed := bodyStart + int(bodyLen)
	var body []byte
	if bodyLen > 0 {
		// Copied so the request survives the caller compacting its buffer.
		body = make([]byte, bodyLen)
		copy(body, data[bodyStart:consumed])
	}

	req := &Request{
		Method:  rl.method,
		Path:    rl.path,
		Query:   rl.query,
		Version: rl.version,
		Headers: headers,
		Body:    body,
	}
	return req, consumed, nil
}

func requestLineScanError(err error, lim Limits) *ParseError {
	if err == errLineTooLong {
		return errorf(KindLineTooLong, "request line exceeds %d bytes", lim.MaxLineBytes)
	}
	return errorf(KindMalformedRequestLine, "bare LF in request line")
}

func headerScanError(err error, lim Limits) *ParseError {
	if err == errLineTooLong {
		return errorf(KindLineTooLong, "header line exceeds %d bytes", lim.MaxLineBytes)
	}
	return errorf(KindMalformedHeader, "bare LF in header section")
}

// parseContentLength accepts plain non-negative decimals only: no signs,
// no blanks (the value arrives OWS-trimmed), no radix prefixes.
func parseContentLength(v string) (int64, *ParseError) {
	if v == "" {
		return 0, errorf(KindInvalidContentLength, "empty Content-Length")
	}
	var n int64
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c < '0' || c > '9' {
			return 0, errorf(KindInvalidContentLength, "Content-Length %q is not a non-negative integer", v)
		}
		if n > (math.MaxInt64-9)/10 {
			return 0, errorf(KindInvalidContentLength, "Content-Length %q overflows", v)
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

// ValidateRequest reports whether data holds exactly one complete
// request. Unlike ParseRequest it treats an incomplete buffer as an
// error (ErrIncomplete), and bytes left over after the request as
// ErrTrailingBytes, which makes it suitable for linting fixtures and
// hand-built messages.
func ValidateRequest(data []byte) error {
	req, n, err := ParseRequest(data)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrIncomplete
	}
	if n != len(data) {
		return ErrTrailingBytes
	}
	return nil
}
