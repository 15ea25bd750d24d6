package http

// isTokenByte reports whether c may appear in a header field name
// (the RFC 7230 token alphabet).
func isTokenByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// trimOWS trims optional whitespace (SP / HTAB) from both ends.
func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

// parseHeaderLine validates one complete, non-empty header line (CRLF
// already removed) and returns the pair with the value OWS-trimmed.
//
// The name is everything before the first colon and must be a non-empty
// run of token bytes. Whitespace touching the colon from the left is
// rejected, which also rejects obs-fold continuation lines: those start
// with SP or HTAB, and SP/HTAB are not token bytes.
func parseHeaderLine(line []byte) (Header, *ParseError) {
	colon := -1
	for i := 0; i < len(line); i++ {
		if line[i] == ':' {
			colon = i
			break
		}
	}
	if colon < 0 {
		return Header{}, errorf(KindMalformedHeader, "no colon in header line %q", line)
	}
	if colon == 0 {
		return Header{}, errorf(KindMalformedHeader, "empty header name in %q", line)
	}
	name := line[:colon]
	if c := name[len(name)-1]; c == ' ' || c == '\t' {
		return Header{}, errorf(KindMalformedHeader, "whitespace before colon in %q", line)
	}
	for i := 0; i < len(name); i++ {
		if !isTokenByte(name[i]) {
			return Header{}, errorf(KindMalformedHeader, "invalid byte %q in header name %q", name[i], name)
		}
	}
	value := trimOWS(line[colon+1:])
	return Header{Key: string(name), Value: string(value)}, nil
}
