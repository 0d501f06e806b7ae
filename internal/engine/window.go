package engine

// Render window tuning. The buffer is asymmetric: readers scrub
// backward to re-read far more often than the cursor runs ahead of the
// window, so most of the slice trails the cursor. The margin is the
// inner safety band; recomputation only happens when the cursor leaves
// it, keeping cost bounded by window moves rather than frames.
const (
	windowWidth  = 240
	windowBack   = 140
	windowMargin = 32
)

// Window maintains a bounded, contiguous slice of the stream around
// the cursor, with per-word cumulative character offsets for sub-word
// interpolation. It is derived from the cursor, never the reverse, and
// tolerates one frame of staleness after a large jump.
type Window struct {
	stream  *Stream
	valid   bool
	start   int
	words   []string
	offsets []int // start char of each word in the joined text
	text    string

	width, back, margin int
}

// NewWindow builds an empty window over the stream. The first Ensure
// call populates it.
func NewWindow(stream *Stream) *Window {
	return &Window{
		stream: stream,
		width:  windowWidth,
		back:   windowBack,
		margin: windowMargin,
	}
}

// Ensure recomputes the window if center (a word index) has left the
// inner safety margin. Returns true when a recompute happened.
// Out-of-range centers are clamped before use.
func (w *Window) Ensure(center int) bool {
	n := w.stream.Len()
	if n == 0 {
		if w.valid {
			*w = *NewWindow(w.stream)
		}
		return false
	}
	if center < 0 {
		center = 0
	}
	if center >= n {
		center = n - 1
	}

	if w.valid {
		lo := w.start + w.margin
		if w.start == 0 {
			lo = 0
		}
		hi := w.start + len(w.words) - w.margin
		if w.start+len(w.words) >= n {
			hi = n
		}
		if center >= lo && center < hi {
			return false
		}
	}
	w.recompute(center)
	return true
}

func (w *Window) recompute(center int) {
	n := w.stream.Len()
	start := center - w.back
	if start < 0 {
		start = 0
	}
	end := start + w.width
	if end > n {
		end = n
	}

	w.start = start
	w.words = w.stream.Slice(start, end)
	w.offsets = cumulativeOffsets(w.words)

	total := 0
	for _, word := range w.words {
		total += len(word) + 1
	}
	buf := make([]byte, 0, total)
	for i, word := range w.words {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, word...)
	}
	w.text = string(buf)
	w.valid = true
}

// Start returns the stream index of the first word in the window.
func (w *Window) Start() int { return w.start }

// Words returns the windowed slice.
func (w *Window) Words() []string { return w.words }

// Text returns the window contents joined with single spaces.
func (w *Window) Text() string { return w.text }

// Render maps the cursor to a character offset in Text: the start of
// the current word plus its length scaled by the cursor fraction. When
// the cursor falls outside the window (possible for a frame right
// after a large jump, before the resync lands) it returns the window
// midpoint and ok=false instead of indexing out of range.
func (w *Window) Render(c float64) (offset float64, ok bool) {
	local := int(c) - w.start
	if !w.valid || local < 0 || local >= len(w.words) {
		return float64(len(w.text)) / 2, false
	}
	frac := c - float64(int(c))
	return float64(w.offsets[local]) + float64(len(w.words[local]))*frac, true
}

// Span returns the byte span of the cursor's word within Text.
func (w *Window) Span(c float64) (start, end int, ok bool) {
	local := int(c) - w.start
	if !w.valid || local < 0 || local >= len(w.words) {
		return 0, 0, false
	}
	s := w.offsets[local]
	return s, s + len(w.words[local]), true
}

// Window exposes a snapshot of the render window for the presentation
// layer. The copy is shallow: recomputes replace the backing slices
// wholesale, so a held snapshot stays internally consistent even if it
// goes a frame stale.
func (e *Engine) Window() Window {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.window.Ensure(int(e.cursor))
	return *e.window
}
