package http

// Version identifies the protocol version of a message. The set is
// closed over the literal tokens HTTP/1.0, HTTP/1.1 and HTTP/2.0; any
// other token, "HTTP/2" and "http/1.1" included, fails the parse with
// KindUnsupportedVersion.
type Version uint8

const (
	// VersionHTTP11 is the zero value so hand-built messages default to
	// the version this package speaks.
	VersionHTTP11 Version = iota
	VersionHTTP10
	VersionHTTP20
)

var versionTokens = map[string]Version{
	"HTTP/1.0": VersionHTTP10,
	"HTTP/1.1": VersionHTTP11,
	"HTTP/2.0": VersionHTTP20,
}

var versionNames = [...]string{
	VersionHTTP11: "HTTP/1.1",
	VersionHTTP10: "HTTP/1.0",
	VersionHTTP20: "HTTP/2.0",
}

// String returns the wire token, e.g. "HTTP/1.1".
func (v Version) String() string {
	if int(v) < len(versionNames) {
		return versionNames[v]
	}
	return "UNKNOWN"
}

// ParseVersion maps a request-line token onto the closed version set.
// Matching is exact: no case folding, no "HTTP/2" shorthand.
func ParseVersion(token []byte) (Version, bool) {
	v, ok := versionTokens[string(token)]
	return v, ok
}
