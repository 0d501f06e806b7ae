package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// makeWords builds a synthetic stream of n distinct tokens.
func makeWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return words
}

func newTestEngine(n int, cfg Config) *Engine {
	return New(NewStream(makeWords(n)), nil, cfg)
}

// pump delivers count frames of dt to the engine.
func pump(e *Engine, dt time.Duration, count int) {
	for i := 0; i < count; i++ {
		e.Tick(dt)
	}
}

// pumpUntilIdle ticks until the engine stops asking for frames.
func pumpUntilIdle(t *testing.T, e *Engine, dt time.Duration, max int) {
	t.Helper()
	for i := 0; i < max; i++ {
		if !e.Tick(dt) && e.Mode() == ModeIdle {
			return
		}
	}
	t.Fatalf("engine still active after %d frames (mode=%s)", max, e.Mode())
}

type recordingSink struct {
	mu    sync.Mutex
	saves []Progress
}

func (r *recordingSink) Save(p Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, p)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

type recordingHaptics struct {
	mu     sync.Mutex
	pulses int
}

func (r *recordingHaptics) Pulse(HapticStrength) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pulses++
}

func (r *recordingHaptics) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulses
}

type fakeHandle struct {
	mu      sync.Mutex
	stopped bool
}

func (h *fakeHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
}

func (h *fakeHandle) wasStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

type fakeSpeaker struct {
	voices  []Voice
	err     error
	texts   []string
	rates   []int
	cb      SpeechCallbacks
	handles []*fakeHandle
}

func (f *fakeSpeaker) Voices() []Voice { return f.voices }

func (f *fakeSpeaker) Speak(text string, _ Voice, wpm int, cb SpeechCallbacks) (SpeechHandle, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	f.rates = append(f.rates, wpm)
	f.cb = cb
	h := &fakeHandle{}
	f.handles = append(f.handles, h)
	return h, nil
}

func enVoices() []Voice {
	return []Voice{
		{ID: "en1", Locale: "en-GB", Gender: "male"},
		{ID: "en2", Locale: "en-US", Gender: "female"},
	}
}

func TestModeTransitionsAreExclusive(t *testing.T) {
	speaker := &fakeSpeaker{voices: enVoices()}
	e := newTestEngine(1000, Config{Speaker: speaker})

	if e.Mode() != ModeIdle {
		t.Fatalf("new engine mode = %s, want idle", e.Mode())
	}

	e.Play(300)
	if e.Mode() != ModeAutoplaying {
		t.Fatalf("after Play mode = %s, want autoplaying", e.Mode())
	}

	e.GestureBegin()
	if e.Mode() != ModeScrubbing {
		t.Fatalf("gesture should preempt autoplay, mode = %s", e.Mode())
	}

	e.SetNarrationEnabled(true, VoicePreference{})
	if e.Mode() != ModeNarrating {
		t.Fatalf("after enable narration mode = %s, want narrating", e.Mode())
	}

	e.Pause()
	if e.Mode() != ModeIdle {
		t.Fatalf("after Pause mode = %s, want idle", e.Mode())
	}
	if len(speaker.handles) != 1 || !speaker.handles[0].wasStopped() {
		t.Error("pause should stop the in-flight narration handle")
	}
}

func TestCursorStaysInBounds(t *testing.T) {
	e := newTestEngine(50, Config{})

	checkBounds := func(when string) {
		t.Helper()
		c := e.Cursor()
		if c < 0 || c > 49 {
			t.Fatalf("%s: cursor %v out of [0, 49]", when, c)
		}
	}

	e.Seek(-10)
	checkBounds("seek below zero")
	if e.Cursor() != 0 {
		t.Errorf("seek(-10) cursor = %v, want 0", e.Cursor())
	}

	e.Seek(10000)
	checkBounds("seek past end")
	if e.Cursor() != 49 {
		t.Errorf("seek(10000) cursor = %v, want 49", e.Cursor())
	}

	e.GestureBegin()
	e.GestureMove(-1e6)
	checkBounds("huge drag forward")
	e.GestureMove(1e6)
	checkBounds("huge drag backward")
	e.GestureEnd(50) // violent fling toward the start
	for i := 0; i < 5000; i++ {
		if !e.Tick(16 * time.Millisecond) {
			break
		}
		checkBounds("inertial decay")
	}
	checkBounds("after settling")
}

func TestSeekWhileAutoplaying(t *testing.T) {
	e := newTestEngine(200, Config{})
	e.Play(300)
	pump(e, 16*time.Millisecond, 20)

	e.Seek(100)
	if e.Mode() != ModeIdle {
		t.Errorf("seek should cancel autoplay, mode = %s", e.Mode())
	}
	if e.Cursor() != 100 {
		t.Errorf("cursor = %v, want 100", e.Cursor())
	}
}

func TestJumpToChapter(t *testing.T) {
	words := makeWords(200)
	words[57] = "CHAPTER"
	words[58] = "1"
	stream := NewStream(words)
	e := New(stream, IndexChapters(words), Config{})

	e.Play(300)
	e.JumpToChapter(0)
	if e.Mode() != ModeIdle {
		t.Errorf("jump should return to idle, mode = %s", e.Mode())
	}
	if e.Cursor() != 57 {
		t.Errorf("cursor = %v, want 57", e.Cursor())
	}
	if got := e.CurrentChapter(); got != 0 {
		t.Errorf("CurrentChapter() = %d, want 0", got)
	}

	// Out-of-range chapter indices are ignored.
	e.JumpToChapter(99)
	if e.Cursor() != 57 {
		t.Errorf("out-of-range jump moved the cursor to %v", e.Cursor())
	}
}

func TestEndOfStreamClampsAndIdles(t *testing.T) {
	e := newTestEngine(1000, Config{Discipline: Continuous})
	e.Seek(999)
	e.Play(300)

	if e.Tick(16 * time.Millisecond) {
		t.Error("tick past the end should report inactive")
	}
	if e.Cursor() != 999 {
		t.Errorf("cursor = %v, want clamp at 999", e.Cursor())
	}
	if e.Mode() != ModeIdle {
		t.Errorf("mode = %s, want idle terminal transition", e.Mode())
	}
}

func TestEmptyStreamIsInert(t *testing.T) {
	e := New(NewStream(nil), nil, Config{})

	e.Play(300)
	if e.Mode() != ModeIdle {
		t.Errorf("play on empty stream entered %s", e.Mode())
	}
	e.GestureBegin()
	if e.Mode() != ModeIdle {
		t.Errorf("gesture on empty stream entered %s", e.Mode())
	}
	e.Seek(5)
	if e.Cursor() != 0 {
		t.Errorf("cursor = %v, want 0", e.Cursor())
	}
	if e.Tick(16 * time.Millisecond) {
		t.Error("idle empty engine should not request frames")
	}
	if got := len(e.Chapters()); got != 1 {
		t.Errorf("empty stream should still carry the default marker, got %d", got)
	}
}

func TestWarningReadsOnce(t *testing.T) {
	speaker := &fakeSpeaker{voices: enVoices(), err: errors.New("device busy")}
	e := newTestEngine(100, Config{Speaker: speaker})

	e.SetNarrationEnabled(true, VoicePreference{})
	if w := e.Warning(); w == "" {
		t.Fatal("expected a non-fatal warning")
	}
	if w := e.Warning(); w != "" {
		t.Errorf("warning should clear after read, got %q", w)
	}
	if e.Mode() != ModeIdle {
		t.Errorf("narration failure should force idle, mode = %s", e.Mode())
	}
}

func TestPauseSavesProgress(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(500, Config{Progress: sink, ContentID: "abc123"})

	e.Seek(42)
	e.Pause()

	if sink.count() == 0 {
		t.Fatal("expected at least one progress save")
	}
	sink.mu.Lock()
	last := sink.saves[len(sink.saves)-1]
	sink.mu.Unlock()
	if last.ContentID != "abc123" || last.CurrentIndex != 42 || last.TotalWords != 500 {
		t.Errorf("save = %+v, want contentID=abc123 index=42 total=500", last)
	}
	if last.Timestamp.IsZero() {
		t.Error("save timestamp should be set")
	}
}
