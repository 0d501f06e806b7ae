package engine

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

// Mode identifies which driver, if any, owns the cursor.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAutoplaying
	ModeScrubbing
	ModeNarrating
)

func (m Mode) String() string {
	switch m {
	case ModeAutoplaying:
		return "autoplaying"
	case ModeScrubbing:
		return "scrubbing"
	case ModeNarrating:
		return "narrating"
	default:
		return "idle"
	}
}

// Discipline selects how autoplay advances the cursor, matching the
// two visual presentations.
type Discipline int

const (
	// Discrete holds each word for a dwell period, then eases to the
	// next one (word-by-word / RSVP presentation).
	Discrete Discipline = iota
	// Continuous advances the cursor fractionally every frame
	// (horizontal ticker presentation).
	Continuous
)

const (
	maxFrameMs       = 50.0  // absorb app suspend/resume without a jump
	wordTransitionMs = 120.0 // visible eased advance in discrete mode
	settleDurationMs = 150.0 // snap-to-integer after a gesture

	snapVelocity = 0.5   // words/frame; below this a release settles
	decayFactor  = 0.992 // inertial velocity retained per tick

	columnSensitivity = 0.02 // cursor words per translation unit
	tickerSensitivity = columnSensitivity / 5

	progressThresholdDiscrete   = 2
	progressThresholdContinuous = 25

	defaultWPM = 300
	minWPM     = 100
	maxWPM     = 1500
)

// Config wires the engine's collaborators. Zero-value fields fall back
// to no-op implementations.
type Config struct {
	WPM        int
	Discipline Discipline
	ContentID  string
	Speaker    Speaker
	Haptics    Haptics
	Progress   ProgressSink
	Logger     *slog.Logger
}

// Engine is the reading position engine. It owns the cursor and the
// mode arbiter; drivers propose writes which are honored only while
// their ownership generation is current.
//
// All exported methods are safe for concurrent use: the frame tick
// arrives on the UI path while narration callbacks arrive from the
// speech goroutine.
type Engine struct {
	mu sync.Mutex

	stream   *Stream
	chapters []ChapterMarker
	window   *Window
	log      *slog.Logger

	mode Mode
	gen  uint64 // ownership generation, bumped on every mode change

	cursor     float64
	discipline Discipline
	wpm        int

	clock   clock
	gesture gesture
	settle  *anim

	speaker        Speaker
	narrationOn    bool
	voicePref      VoicePreference
	narration      *narration
	narrationTimer *time.Timer

	haptics   Haptics
	progress  ProgressSink
	mirror    int // low-frequency integer mirror of the cursor
	contentID string

	warning string
}

// New builds an engine over the stream. Chapter markers may come from
// the segmenter (format-derived) or from IndexChapters; when empty the
// default marker at index 0 is substituted so the list is never empty.
func New(stream *Stream, chapters []ChapterMarker, cfg Config) *Engine {
	if len(chapters) == 0 {
		chapters = []ChapterMarker{{Title: defaultChapterTitle, WordIndex: 0}}
	}
	if cfg.WPM == 0 {
		cfg.WPM = defaultWPM
	}
	if cfg.Haptics == nil {
		cfg.Haptics = NoopHaptics{}
	}
	if cfg.Progress == nil {
		cfg.Progress = NoopProgress{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		stream:     stream,
		chapters:   chapters,
		window:     NewWindow(stream),
		log:        cfg.Logger,
		discipline: cfg.Discipline,
		wpm:        cfg.WPM,
		speaker:    cfg.Speaker,
		haptics:    cfg.Haptics,
		progress:   cfg.Progress,
		contentID:  cfg.ContentID,
	}
}

// enterMode is the arbiter's single transition point. It cancels the
// outgoing driver's in-flight work before the new mode activates, and
// bumps the generation so writes from stale drivers are dropped.
// Callers must hold e.mu.
func (e *Engine) enterMode(m Mode) {
	e.gen++
	e.settle = nil
	e.clock.cancel()
	e.gesture.cancel()
	e.stopNarrationLocked()
	e.mode = m
	e.log.Debug("mode change", "mode", m.String(), "gen", e.gen)
}

// allows reports whether a driver holding gen may still write.
// Callers must hold e.mu.
func (e *Engine) allows(gen uint64) bool {
	return gen == e.gen
}

// Cursor returns the canonical fractional reading position.
func (e *Engine) Cursor() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Mode returns the currently active playback mode.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// WPM returns the configured reading rate.
func (e *Engine) WPM() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wpm
}

// SetWPM adjusts the reading rate, clamped to the supported range. A
// rate change while narrating restarts the session from the cursor.
func (e *Engine) SetWPM(wpm int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if wpm < minWPM {
		wpm = minWPM
	}
	if wpm > maxWPM {
		wpm = maxWPM
	}
	e.wpm = wpm
	if e.mode == ModeNarrating {
		e.scheduleNarrationRestartLocked()
	}
}

// Discipline returns the active advancement discipline.
func (e *Engine) Discipline() Discipline {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.discipline
}

// SetDiscipline switches between discrete and continuous advancement.
// Continuous mode is mutually exclusive with narration: switching into
// it forcibly disables narration.
func (e *Engine) SetDiscipline(d Discipline) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if d == e.discipline {
		return
	}
	wasPlaying := e.mode == ModeAutoplaying
	e.enterMode(ModeIdle)
	e.discipline = d
	if d == Continuous && e.narrationOn {
		e.narrationOn = false
		e.warning = "narration is unavailable in ticker mode"
	}
	if wasPlaying {
		e.startAutoplayLocked()
	}
}

// Play starts autoplay at the given rate (or the current rate when
// wpm <= 0). A no-op on an empty stream.
func (e *Engine) Play(wpm int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream.Len() == 0 {
		return
	}
	if wpm > 0 {
		e.wpm = wpm
	}
	e.enterMode(ModeAutoplaying)
	e.startAutoplayLocked()
}

func (e *Engine) startAutoplayLocked() {
	e.mode = ModeAutoplaying
	e.clock.reset(int(e.cursor))
}

// Pause cancels the active driver and returns to Idle. The cursor
// keeps its current value; a fractional cursor left by continuous
// autoplay is legal.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enterMode(ModeIdle)
	e.saveProgressLocked()
}

// Seek moves the cursor to a word index, cancelling any active driver.
// Out-of-range indices are clamped, never an error. A seek while
// narration is enabled restarts narration from the new position after
// a debounce.
func (e *Engine) Seek(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seekLocked(index)
}

func (e *Engine) seekLocked(index int) {
	restart := e.narrationOn && e.discipline != Continuous
	e.enterMode(ModeIdle)
	e.cursor = e.stream.clampCursor(float64(index))
	e.window.Ensure(int(e.cursor))
	e.saveProgressLocked()
	if restart {
		e.scheduleNarrationRestartLocked()
	}
}

// JumpToChapter seeks to the i-th chapter marker.
func (e *Engine) JumpToChapter(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.chapters) {
		return
	}
	e.seekLocked(e.chapters[i].WordIndex)
}

// Chapters returns the marker list. Never empty.
func (e *Engine) Chapters() []ChapterMarker {
	return e.chapters
}

// CurrentChapter returns the index of the marker the cursor is in.
func (e *Engine) CurrentChapter() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := int(e.cursor)
	for i := len(e.chapters) - 1; i >= 0; i-- {
		if idx >= e.chapters[i].WordIndex {
			return i
		}
	}
	return 0
}

// Warning returns and clears the last non-fatal warning.
func (e *Engine) Warning() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.warning
	e.warning = ""
	return w
}

// Tick advances the owning driver by one frame. dt is wall time since
// the previous frame; anomalously large deltas are clamped so a
// suspended app resumes without a visible jump. The return value
// reports whether the engine still needs frames.
func (e *Engine) Tick(dt time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	dtMs := float64(dt) / float64(time.Millisecond)
	if dtMs > maxFrameMs {
		dtMs = maxFrameMs
	}
	if dtMs < 0 {
		dtMs = 0
	}

	switch e.mode {
	case ModeAutoplaying:
		return e.tickAutoplayLocked(dtMs)
	case ModeScrubbing:
		return e.tickScrubLocked(dtMs)
	case ModeNarrating:
		// Cursor writes arrive via speech callbacks; frames are only
		// needed to keep the view current.
		return true
	default:
		return false
	}
}

// notifyCrossing fires the haptic pulse and the throttled progress
// mirror when the cursor crosses an integer boundary. Callers must
// hold e.mu.
func (e *Engine) notifyCrossing(prev, next float64) {
	if int(prev) == int(next) {
		return
	}
	e.haptics.Pulse(HapticLight)

	threshold := progressThresholdDiscrete
	if e.discipline == Continuous {
		threshold = progressThresholdContinuous
	}
	if abs := int(math.Abs(float64(int(next) - e.mirror))); abs > threshold {
		e.mirror = int(next)
		e.saveProgressLocked()
	}
}

// saveProgressLocked hands the current position to the persistence
// collaborator. Fire-and-forget: the sink must not block.
func (e *Engine) saveProgressLocked() {
	e.mirror = int(e.cursor)
	e.progress.Save(Progress{
		ContentID:    e.contentID,
		CurrentIndex: int(e.cursor),
		TotalWords:   e.stream.Len(),
		Timestamp:    time.Now(),
	})
}
