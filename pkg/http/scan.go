package http

import (
	"bytes"
	"errors"
)

// Scanner-level sentinels. Callers translate them into *ParseError values
// attributed to the section being scanned.
var (
	errBareLF      = errors.New("bare LF without preceding CR")
	errLineTooLong = errors.New("line exceeds limit")
)

// scanLine locates the CRLF-terminated line starting at data[off:].
//
// Following the bufio.SplitFunc convention, it returns the line content
// (CRLF excluded) and the byte count consumed including the CRLF; a zero
// count with a nil error means the terminator has not arrived yet. An
// empty line consumes two bytes, so zero is unambiguous.
//
// Framing is strict: only \r\n terminates a line. A \n with no \r before
// it is errBareLF. A lone \r at the end of the buffer is not an error;
// its \n may still be in flight. Content longer than maxLine, terminated
// or not, is errLineTooLong.
func scanLine(data []byte, off, maxLine int) (line []byte, n int, err error) {
	i := bytes.IndexByte(data[off:], '\n')
	if i < 0 {
		// No terminator yet. The eventual content is at least the bytes
		// already here minus a possible pending \r, so the limit can
		// already be beyond saving.
		if len(data)-off > maxLine+1 {
			return nil, 0, errLineTooLong
		}
		return nil, 0, nil
	}
	if i == 0 || data[off+i-1] != '\r' {
		return nil, 0, errBareLF
	}
	line = data[off : off+i-1]
	if len(line) > maxLine {
		return nil, 0, errLineTooLong
	}
	return line, i + 1, nil
}
