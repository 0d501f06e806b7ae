// Package engine implements the reading position engine: a single
// fractional cursor over a tokenized word stream, advanced by one of
// three mutually exclusive drivers (autoplay clock, pointer gesture,
// narration callbacks) and rendered through a bounded window.
package engine

// Stream is an ordered, immutable sequence of word tokens. It is the
// only input the engine ever reads positions against.
type Stream struct {
	words []string
}

// NewStream wraps a token slice. The slice must not be mutated after
// being handed to the stream.
func NewStream(words []string) *Stream {
	return &Stream{words: words}
}

// Len returns the number of words in the stream.
func (s *Stream) Len() int {
	return len(s.words)
}

// Word returns the token at index i, or "" when out of range.
func (s *Stream) Word(i int) string {
	if i < 0 || i >= len(s.words) {
		return ""
	}
	return s.words[i]
}

// Slice returns the tokens in [start, end), clamped to the stream.
func (s *Stream) Slice(start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(s.words) {
		end = len(s.words)
	}
	if start >= end {
		return nil
	}
	return s.words[start:end]
}

// MaxCursor returns the largest legal cursor value: max(0, N-1).
func (s *Stream) MaxCursor() float64 {
	if len(s.words) <= 1 {
		return 0
	}
	return float64(len(s.words) - 1)
}

// clampCursor bounds a proposed cursor value to [0, MaxCursor].
func (s *Stream) clampCursor(c float64) float64 {
	if c < 0 {
		return 0
	}
	if m := s.MaxCursor(); c > m {
		return m
	}
	return c
}
