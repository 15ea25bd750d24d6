package http

import "bytes"

// requestLine holds the validated pieces of a request line.
type requestLine struct {
	method  Method
	path    string
	query   string
	version Version
}

// parseRequestLine validates one complete request line (CRLF already
// removed) and splits the target into path and query.
//
// The line must be exactly three tokens separated by single SP bytes.
// Doubled spaces produce an empty token and fail like any other wrong
// token count. Checks run in wire order: token shape, method, target,
// version.
func parseRequestLine(line []byte) (requestLine, *ParseError) {
	var rl requestLine

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return rl, errorf(KindMalformedRequestLine, "expected 3 space-separated tokens in %q", line)
	}
	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return rl, errorf(KindMalformedRequestLine, "expected 3 space-separated tokens in %q", line)
	}

	methodTok := line[:sp1]
	targetTok := rest[:sp2]
	versionTok := rest[sp2+1:]

	if len(methodTok) == 0 || len(targetTok) == 0 || len(versionTok) == 0 {
		return rl, errorf(KindMalformedRequestLine, "empty token in request line %q", line)
	}
	if bytes.IndexByte(versionTok, ' ') >= 0 {
		return rl, errorf(KindMalformedRequestLine, "expected 3 space-separated tokens in %q", line)
	}

	method, ok := ParseMethod(methodTok)
	if !ok {
		return rl, errorf(KindUnsupportedMethod, "method %q", methodTok)
	}

	if targetTok[0] != '/' && !bytes.Equal(targetTok, []byte("*")) {
		return rl, errorf(KindMalformedRequestLine, "target %q must start with '/' or be '*'", targetTok)
	}

	version, ok := ParseVersion(versionTok)
	if !ok {
		return rl, errorf(KindUnsupportedVersion, "version %q", versionTok)
	}

	rl.method = method
	rl.version = version
	// Path/query split happens here; percent-decoding does not. The raw
	// query travels on the Request for the router to decompose lazily.
	if q := bytes.IndexByte(targetTok, '?'); q >= 0 {
		rl.path = string(targetTok[:q])
		rl.query = string(targetTok[q+1:])
	} else {
		rl.path = string(targetTok)
	}
	return rl, nil
}
