package engine

import (
	"sort"
	"strings"
	"time"
)

const (
	narrationChunkWords = 100

	// Chaining the next chunk waits briefly so a user gesture landing
	// right at a chunk boundary wins the race for the cursor.
	narrationChainDebounce = 200 * time.Millisecond
	// Restarting after a seek, scrub, or rate change waits longer to
	// avoid restart storms during a drag.
	narrationRestartDebounce = 350 * time.Millisecond

	minNarrationWPM = 80
	maxNarrationWPM = 450
)

// narration is one active synthesis chunk: a forward span of words
// joined into a single utterance, plus the per-word cumulative char
// offsets used to map boundary events back onto the cursor.
type narration struct {
	gen        uint64
	chunkStart int
	words      []string
	offsets    []int
	handle     SpeechHandle
}

// SetNarrationEnabled turns narrated playback on or off. Narration is
// mutually exclusive with the continuous/ticker presentation; enabling
// it there fails with a non-fatal warning.
func (e *Engine) SetNarrationEnabled(on bool, pref VoicePreference) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !on {
		e.narrationOn = false
		if e.mode == ModeNarrating {
			e.enterMode(ModeIdle)
			e.saveProgressLocked()
		}
		return
	}

	if e.discipline == Continuous {
		e.warning = "narration is unavailable in ticker mode"
		return
	}
	if e.speaker == nil {
		e.warning = "no narration capability available"
		return
	}
	e.narrationOn = true
	e.voicePref = pref
	e.enterMode(ModeNarrating)
	e.startNarrationChunkLocked()
}

// SetVoicePreference changes the voice selection. A change while
// narrating restarts the session from the cursor, debounced.
func (e *Engine) SetVoicePreference(pref VoicePreference) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voicePref = pref
	if e.mode == ModeNarrating {
		e.scheduleNarrationRestartLocked()
	}
}

// NarrationEnabled reports whether narrated playback is requested.
func (e *Engine) NarrationEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.narrationOn
}

// startNarrationChunkLocked slices a forward chunk at the cursor and
// begins synthesis. Callers must hold e.mu with mode == ModeNarrating.
func (e *Engine) startNarrationChunkLocked() {
	start := int(e.cursor)
	words := e.stream.Slice(start, start+narrationChunkWords)
	if len(words) == 0 {
		e.narrationOn = false
		e.enterMode(ModeIdle)
		return
	}

	voice, ok := pickVoice(e.speaker.Voices(), e.voicePref)
	if !ok {
		e.failNarrationLocked("no narration voices installed")
		return
	}

	wpm := e.wpm
	if wpm < minNarrationWPM {
		wpm = minNarrationWPM
	}
	if wpm > maxNarrationWPM {
		wpm = maxNarrationWPM
	}

	sess := &narration{
		gen:        e.gen,
		chunkStart: start,
		words:      words,
		offsets:    cumulativeOffsets(words),
	}
	gen := e.gen
	cb := SpeechCallbacks{
		OnBoundary: func(ci int) { e.onNarrationBoundary(gen, ci) },
		OnDone:     func() { e.onNarrationDone(gen) },
		OnError:    func(err error) { e.onNarrationError(gen, err) },
	}

	handle, err := e.speaker.Speak(strings.Join(words, " "), voice, wpm, cb)
	if err != nil {
		e.failNarrationLocked("narration failed: " + err.Error())
		return
	}
	sess.handle = handle
	e.narration = sess
	e.window.Ensure(start)
	e.log.Debug("narration chunk started",
		"start", start, "words", len(words), "voice", voice.ID, "wpm", wpm)
}

// onNarrationBoundary maps a synthesis character offset back onto the
// cursor. Events from a superseded session are discarded: the user may
// have grabbed the cursor while synthesis was in flight.
func (e *Engine) onNarrationBoundary(gen uint64, charIndex int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.allows(gen) || e.mode != ModeNarrating || e.narration == nil {
		return
	}
	off := wordAtChar(e.narration.offsets, charIndex)
	prev := e.cursor
	e.cursor = e.stream.clampCursor(float64(e.narration.chunkStart + off))
	e.notifyCrossing(prev, e.cursor)
	e.window.Ensure(int(e.cursor))
}

// onNarrationDone chains the next chunk after a short debounce, or
// ends the session at the end of the stream.
func (e *Engine) onNarrationDone(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.allows(gen) || e.mode != ModeNarrating || e.narration == nil {
		return
	}
	next := e.narration.chunkStart + len(e.narration.words)
	if next >= e.stream.Len() {
		e.cursor = e.stream.MaxCursor()
		e.narrationOn = false
		e.enterMode(ModeIdle)
		e.saveProgressLocked()
		e.log.Info("narration finished", "words", e.stream.Len())
		return
	}
	e.cursor = float64(next)
	e.narration = nil
	e.narrationTimer = time.AfterFunc(narrationChainDebounce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.allows(gen) || e.mode != ModeNarrating {
			return
		}
		e.startNarrationChunkLocked()
	})
}

// onNarrationError aborts the session: mode is forced to Idle and a
// non-fatal warning is surfaced. Playback is not otherwise disrupted.
func (e *Engine) onNarrationError(gen uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.allows(gen) {
		return
	}
	e.failNarrationLocked("narration failed: " + err.Error())
}

func (e *Engine) failNarrationLocked(warning string) {
	e.warning = warning
	e.narrationOn = false
	e.enterMode(ModeIdle)
	e.log.Warn(warning)
}

// stopNarrationLocked cancels the active session and any pending
// debounce timer. Part of every mode transition; callers hold e.mu.
func (e *Engine) stopNarrationLocked() {
	if e.narrationTimer != nil {
		e.narrationTimer.Stop()
		e.narrationTimer = nil
	}
	if e.narration != nil {
		if e.narration.handle != nil {
			e.narration.handle.Stop()
		}
		e.narration = nil
	}
}

// scheduleNarrationRestartLocked restarts narration from the current
// cursor after the restart debounce. The generation captured here goes
// stale if anything else claims the cursor first, which cancels the
// restart. Callers hold e.mu.
func (e *Engine) scheduleNarrationRestartLocked() {
	if e.narrationTimer != nil {
		e.narrationTimer.Stop()
	}
	gen := e.gen
	e.narrationTimer = time.AfterFunc(narrationRestartDebounce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.allows(gen) || !e.narrationOn {
			return
		}
		e.enterMode(ModeNarrating)
		e.startNarrationChunkLocked()
	})
}

func (e *Engine) restartNarrationAfterScrubLocked() {
	if e.narrationOn && e.discipline != Continuous {
		e.scheduleNarrationRestartLocked()
	}
}

// cumulativeOffsets returns the start character of each word in the
// space-joined chunk text.
func cumulativeOffsets(words []string) []int {
	offsets := make([]int, len(words))
	total := 0
	for i, w := range words {
		offsets[i] = total
		total += len(w) + 1
	}
	return offsets
}

// wordAtChar returns the index of the word containing charIndex:
// the largest i with offsets[i] <= charIndex.
func wordAtChar(offsets []int, charIndex int) int {
	i := sort.Search(len(offsets), func(i int) bool {
		return offsets[i] > charIndex
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// RankVoices orders the installed voices by preference: exact locale
// beats a language-only match, a gender match breaks near-ties, and
// enumeration order is the final tie-break. Deterministic for a given
// voice list and preference.
func RankVoices(voices []Voice, pref VoicePreference) []Voice {
	ranked := make([]Voice, len(voices))
	copy(ranked, voices)
	score := func(v Voice) int {
		s := 0
		if pref.Locale != "" {
			switch {
			case strings.EqualFold(v.Locale, pref.Locale):
				s += 4
			case strings.EqualFold(langOf(v.Locale), langOf(pref.Locale)):
				s += 2
			}
		}
		if pref.Gender != "" && strings.EqualFold(v.Gender, pref.Gender) {
			s++
		}
		return s
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	return ranked
}

// pickVoice returns the best-ranked voice, falling back to the first
// available voice when nothing matches, and reports failure only when
// no voices are installed at all.
func pickVoice(voices []Voice, pref VoicePreference) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}
	return RankVoices(voices, pref)[0], true
}

func langOf(locale string) string {
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		return locale[:i]
	}
	return locale
}
