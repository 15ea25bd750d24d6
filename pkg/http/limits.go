package http

// Default parse limits. Exceeding either one fails the parse outright
// rather than reporting an incomplete buffer: a peer must not be able to
// grow server memory by drip-feeding an endless line or header block.
const (
	DefaultMaxLineBytes   = 8192
	DefaultMaxHeaderBytes = 65536
)

// Limits bounds the parser's appetite for a single request.
type Limits struct {
	MaxLineBytes   int // request line and each header line, CRLF excluded
	MaxHeaderBytes int // whole header section, terminating blank line included
}

// DefaultLimits returns the limits ParseRequest applies.
func DefaultLimits() Limits {
	return Limits{
		MaxLineBytes:   DefaultMaxLineBytes,
		MaxHeaderBytes: DefaultMaxHeaderBytes,
	}
}

// withDefaults fills zero or negative fields so a zero Limits behaves
// like DefaultLimits.
func (l Limits) withDefaults() Limits {
	if l.MaxLineBytes <= 0 {
		l.MaxLineBytes = DefaultMaxLineBytes
	}
	if l.MaxHeaderBytes <= 0 {
		l.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	return l
}
