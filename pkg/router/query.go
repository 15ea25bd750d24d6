package router

import (
	"strings"

	"github.com/shapestone/shape-serve/pkg/http"
)

// QueryParams decomposes the request's raw query string. The parser
// leaves the query untouched; decomposition happens here, on demand.
func QueryParams(req *http.Request) map[string]string {
	return ParseQuery(req.Query)
}

// ParseQuery decomposes a raw query string into key/value pairs.
//
// Segments split on '&' (empty segments are skipped); each segment
// splits at its first '='; a segment with no '=' becomes a key with an
// empty value. Keys and values are percent-decoded here, the only place
// decoding happens. When a key repeats, the last value wins.
func ParseQuery(raw string) map[string]string {
	params := make(map[string]string)
	for raw != "" {
		var seg string
		seg, raw, _ = strings.Cut(raw, "&")
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		params[percentDecode(key)] = percentDecode(value)
	}
	return params
}

// percentDecode translates %XX escapes into raw bytes. Anything that is
// not a well-formed escape, a trailing '%' or a non-hex digit, passes
// through verbatim, and '+' stays '+': decomposition never fails a
// request over a sloppy query.
func percentDecode(s string) string {
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				b.WriteByte(hi<<4 | lo)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
