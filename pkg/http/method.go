package http

// Method identifies the request method. The set is closed: a request
// line carrying any other token, including CONNECT, TRACE, or lowercase
// spellings, fails the parse with KindUnsupportedMethod instead of
// producing a new variant.
type Method uint8

const (
	MethodGet Method = iota
	MethodPost
	MethodPut
	MethodDelete
	MethodHead
	MethodOptions
	MethodPatch
)

// methodTokens maps wire tokens onto the closed set.
//
// Lookups use a string([]byte) key so the compiler elides the temporary
// string allocation (the mapaccess optimization).
var methodTokens = map[string]Method{
	"GET":     MethodGet,
	"POST":    MethodPost,
	"PUT":     MethodPut,
	"DELETE":  MethodDelete,
	"HEAD":    MethodHead,
	"OPTIONS": MethodOptions,
	"PATCH":   MethodPatch,
}

var methodNames = [...]string{
	MethodGet:     "GET",
	MethodPost:    "POST",
	MethodPut:     "PUT",
	MethodDelete:  "DELETE",
	MethodHead:    "HEAD",
	MethodOptions: "OPTIONS",
	MethodPatch:   "PATCH",
}

// String returns the wire token, e.g. "GET".
func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "UNKNOWN"
}

// ParseMethod maps a request-line token onto the closed method set.
// Matching is exact and case-sensitive per RFC 9112.
func ParseMethod(token []byte) (Method, bool) {
	m, ok := methodTokens[string(token)]
	return m, ok
}
