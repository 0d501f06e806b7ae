package engine

import "math"

// gesture is the pointer-drag driver state.
type gesture struct {
	active      bool
	startCursor float64
	velocity    float64 // words per frame, decaying after release
}

func (g *gesture) cancel() {
	g.active = false
	g.velocity = 0
}

// sensitivity converts drag translation units into cursor words. The
// ticker's horizontal metaphor covers far more distance per word, so
// its sensitivity is scaled down.
func (e *Engine) sensitivity() float64 {
	if e.discipline == Continuous {
		return tickerSensitivity
	}
	return columnSensitivity
}

// GestureBegin claims the cursor for the gesture driver, cancelling
// any in-flight autoplay, narration, or eased transition.
func (e *Engine) GestureBegin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream.Len() == 0 {
		return
	}
	e.enterMode(ModeScrubbing)
	e.gesture.active = true
	e.gesture.startCursor = e.cursor
}

// GestureMove applies a drag translation measured from the gesture
// start. translation is in the dominant axis for the active visual
// mode; the sign convention is drag-down/right moves the text, so the
// cursor moves opposite the translation.
func (e *Engine) GestureMove(translation float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeScrubbing || !e.gesture.active {
		return
	}
	delta := -translation * e.sensitivity()
	prev := e.cursor
	e.cursor = e.stream.clampCursor(e.gesture.startCursor + delta)
	e.notifyCrossing(prev, e.cursor)
	e.window.Ensure(int(e.cursor))
}

// GestureEnd releases the drag with an exit velocity in translation
// units per millisecond. Below the snap threshold the cursor settles
// straight to the nearest integer; above it, inertial decay runs until
// the velocity dies or a bound is hit, then the settle takes over.
func (e *Engine) GestureEnd(velocityPerMs float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != ModeScrubbing || !e.gesture.active {
		return
	}
	e.gesture.active = false

	// Words per nominal frame, sign flipped to cursor convention.
	v := -velocityPerMs * e.sensitivity() * (1000.0 / 60.0)
	if math.Abs(v) < snapVelocity {
		e.startSettleLocked()
		return
	}
	e.gesture.velocity = v
}

// tickScrubLocked advances post-release inertia or the settling
// animation. Ownership stays with the gesture driver until the settle
// completes. Callers must hold e.mu.
func (e *Engine) tickScrubLocked(dtMs float64) bool {
	if e.settle != nil {
		e.cursor = e.stream.clampCursor(e.settle.advance(dtMs))
		if e.settle.done() {
			e.settle = nil
			e.cursor = math.Round(e.cursor)
			e.enterMode(ModeIdle)
			e.saveProgressLocked()
			e.restartNarrationAfterScrubLocked()
			return false
		}
		return true
	}

	if e.gesture.velocity != 0 {
		prev := e.cursor
		next := e.cursor + e.gesture.velocity
		clamped := e.stream.clampCursor(next)
		e.cursor = clamped
		e.notifyCrossing(prev, clamped)
		e.window.Ensure(int(clamped))

		e.gesture.velocity *= decayFactor
		atBound := clamped != next
		if atBound || math.Abs(e.gesture.velocity) < snapVelocity {
			e.gesture.velocity = 0
			e.startSettleLocked()
		}
		return true
	}

	// A drag is in progress; moves arrive via GestureMove.
	return true
}

// startSettleLocked eases the cursor to the nearest integer over a
// fixed duration with an ease-out curve. Callers must hold e.mu.
func (e *Engine) startSettleLocked() {
	target := math.Round(e.cursor)
	if target == e.cursor {
		e.enterMode(ModeIdle)
		e.saveProgressLocked()
		e.restartNarrationAfterScrubLocked()
		return
	}
	e.settle = &anim{
		from:     e.cursor,
		to:       target,
		duration: settleDurationMs,
		curve:    easeOutQuad,
	}
}
