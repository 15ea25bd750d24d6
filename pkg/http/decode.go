package http

import "io"

// decoderChunk is the read granularity while waiting out an incomplete
// request.
const decoderChunk = 4096

// Decoder reads requests from an input stream by feeding the incremental
// parser until each request completes, so it inherits the strict framing
// and limits of ParseRequest. Bytes past the end of a request stay
// buffered and surface as the next request on a later call (pipelining).
//
// A single Decoder is not safe for concurrent use; create one per
// goroutine or serialize access externally.
type Decoder struct {
	r       io.Reader
	buf     []byte
	scratch []byte
	limits  Limits
}

// NewDecoder returns a new decoder that reads from r with DefaultLimits.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       r,
		scratch: make([]byte, decoderChunk),
		limits:  DefaultLimits(),
	}
}

// SetLimits replaces the parse limits applied to subsequent
// DecodeRequest calls.
func (dec *Decoder) SetLimits(limits Limits) {
	dec.limits = limits
}

// DecodeRequest returns the next request from the stream.
//
// io.EOF reports a clean end of stream between requests.
// io.ErrUnexpectedEOF reports a stream that ended mid-request. Parse
// failures surface as the *ParseError from the incremental parser.
func (dec *Decoder) DecodeRequest() (*Request, error) {
	for {
		if len(dec.buf) > 0 {
			req, n, err := ParseRequestWithLimits(dec.buf, dec.limits)
			if err != nil {
				return nil, err
			}
			if req != nil {
				dec.buf = dec.buf[:copy(dec.buf, dec.buf[n:])]
				return req, nil
			}
		}

		n, err := dec.r.Read(dec.scratch)
		if n > 0 {
			dec.buf = append(dec.buf, dec.scratch[:n]...)
			continue
		}
		if err == io.EOF {
			if len(dec.buf) == 0 {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		}
		if err != nil {
			return nil, err
		}
	}
}
