package elements

import (
	"errors"
	"math"
)

var (
	// ErrSpanOverflow is returned when a tag or text extent does not fit into the 16-bit
	// length field of a Span.
	ErrSpanOverflow = errors.New("span length exceeds 65535 bytes")

	// ErrNegativeNameLength is returned by the factory for a negative tag name length.
	ErrNegativeNameLength = errors.New("negative name length")

	// ErrOutOfBounds is returned when a range does not lie within the source buffer.
	ErrOutOfBounds = errors.New("range out of source bounds")
)

// MaxSpanLength is the longest extent a single Span can describe.
const MaxSpanLength = math.MaxUint16

// Span is a packed source extent: an absolute start offset and the distance to the end.
// All range arithmetic of the package goes through NewSpan and ClampSpan.
type Span struct {
	start uint32
	delta uint16
}

// NewSpan packs [from, to). It fails with ErrOutOfBounds for a negative or reversed range
// and with ErrSpanOverflow when the extent is longer than MaxSpanLength.
func NewSpan(from, to int) (Span, error) {
	if from < 0 || to < from || uint64(from) > math.MaxUint32 {
		return Span{}, ErrOutOfBounds
	}
	if to-from > MaxSpanLength {
		return Span{}, ErrSpanOverflow
	}
	return Span{start: uint32(from), delta: uint16(to - from)}, nil
}

// ClampSpan is like NewSpan but never fails: an overlong extent saturates at
// MaxSpanLength and a reversed range becomes empty.
func ClampSpan(from, to int) Span {
	if from < 0 {
		from = 0
	}
	if to < from {
		to = from
	}
	if to-from > MaxSpanLength {
		to = from + MaxSpanLength
	}
	return Span{start: uint32(from), delta: uint16(to - from)}
}

// From returns the start offset.
func (s Span) From() int { return int(s.start) }

// To returns the end offset (exclusive).
func (s Span) To() int { return int(s.start) + int(s.delta) }

// Len returns the extent length.
func (s Span) Len() int { return int(s.delta) }
