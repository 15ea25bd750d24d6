package http

import (
	"fmt"
	"io"
	"strconv"
)

// appendCRLF appends \r\n to buf.
func appendCRLF(buf []byte) []byte {
	return append(buf, '\r', '\n')
}

// appendRequestLine appends "METHOD TARGET VERSION\r\n" to buf.
func appendRequestLine(buf []byte, method Method, target string, version Version) []byte {
	buf = append(buf, method.String()...)
	buf = append(buf, ' ')
	buf = append(buf, target...)
	buf = append(buf, ' ')
	buf = append(buf, version.String()...)
	return appendCRLF(buf)
}

// appendStatusLine appends "VERSION STATUS REASON\r\n" to buf. An empty
// reason resolves through the status table.
func appendStatusLine(buf []byte, version Version, statusCode int, reason string) []byte {
	buf = append(buf, version.String()...)
	buf = append(buf, ' ')
	buf = strconv.AppendInt(buf, int64(statusCode), 10)
	buf = append(buf, ' ')
	if reason == "" {
		reason = ReasonPhrase(statusCode)
	}
	buf = append(buf, reason...)
	return appendCRLF(buf)
}

// appendRequest serializes a Request to wire format: request line,
// headers, auto Content-Length, blank line, body.
func appendRequest(buf []byte, req *Request) ([]byte, error) {
	if req.Path == "" {
		return buf, fmt.Errorf("http: marshal request with empty path")
	}

	buf = appendRequestLine(buf, req.Method, req.Target(), req.Version)
	buf = appendHeaders(buf, req.Headers, len(req.Body))

	buf = appendCRLF(buf) // empty line before body
	if len(req.Body) > 0 {
		buf = append(buf, req.Body...)
	}
	return buf, nil
}

// appendResponse serializes a Response to wire format: status line,
// headers, auto Content-Length, blank line, body.
func appendResponse(buf []byte, resp *Response) []byte {
	buf = appendStatusLine(buf, resp.Version, resp.StatusCode, resp.Reason)
	buf = appendHeaders(buf, resp.Headers, len(resp.Body))

	buf = appendCRLF(buf) // empty line before body
	if len(resp.Body) > 0 {
		buf = append(buf, resp.Body...)
	}
	return buf
}

// appendHeaders appends all headers in "Key: Value\r\n" format, then a
// computed Content-Length when a body is present and none was set.
func appendHeaders(buf []byte, headers Headers, bodyLen int) []byte {
	for _, h := range headers {
		buf = append(buf, h.Key...)
		buf = append(buf, ':', ' ')
		buf = append(buf, h.Value...)
		buf = appendCRLF(buf)
	}
	if bodyLen > 0 && headers.Get("Content-Length") == "" {
		buf = append(buf, "Content-Length: "...)
		buf = strconv.AppendInt(buf, int64(bodyLen), 10)
		buf = appendCRLF(buf)
	}
	return buf
}

// Encoder writes HTTP messages to an output stream.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the HTTP wire-format encoding of v to the stream in a
// single Write call. v must be a *Request or *Response.
func (enc *Encoder) Encode(v interface{}) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	_, err = enc.w.Write(data)
	return err
}
