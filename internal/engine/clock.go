package engine

// clock is the autoplay driver state. Continuous advancement needs no
// state beyond the cursor itself; discrete advancement tracks an
// integer target and a dwell accumulator, plus the eased transition
// currently in flight.
type clock struct {
	target int     // discrete target word index
	accum  float64 // ms accumulated toward the next dwell expiry
	trans  *anim   // eased prev->target transition, nil when holding
}

func (c *clock) reset(target int) {
	c.target = target
	c.accum = 0
	c.trans = nil
}

func (c *clock) cancel() {
	c.accum = 0
	c.trans = nil
}

// tickAutoplayLocked advances the cursor by one frame of autoplay.
// Returns false when playback reached the end of the stream and the
// engine transitioned to Idle. Callers must hold e.mu.
func (e *Engine) tickAutoplayLocked(dtMs float64) bool {
	if e.discipline == Continuous {
		return e.tickContinuousLocked(dtMs)
	}
	return e.tickDiscreteLocked(dtMs)
}

func (e *Engine) tickContinuousLocked(dtMs float64) bool {
	max := e.stream.MaxCursor()
	prev := e.cursor
	c := e.cursor + float64(e.wpm)/60000.0*dtMs
	if c >= max {
		e.cursor = max
		e.notifyCrossing(prev, e.cursor)
		e.finishAutoplayLocked()
		return false
	}
	e.cursor = c
	e.notifyCrossing(prev, c)
	e.window.Ensure(int(c))
	return true
}

func (e *Engine) tickDiscreteLocked(dtMs float64) bool {
	if e.clock.trans != nil {
		e.cursor = e.stream.clampCursor(e.clock.trans.advance(dtMs))
		if e.clock.trans.done() {
			e.clock.trans = nil
		}
	}

	dwell := 60000.0 / float64(e.wpm)
	e.clock.accum += dtMs
	if e.clock.accum < dwell {
		return true
	}
	// Keep the remainder so long frames don't stretch the cadence.
	e.clock.accum -= dwell

	last := e.stream.Len() - 1
	if e.clock.target >= last {
		e.cursor = e.stream.MaxCursor()
		e.finishAutoplayLocked()
		return false
	}

	prev := e.cursor
	e.clock.target++
	e.clock.trans = &anim{
		from:     e.cursor,
		to:       float64(e.clock.target),
		duration: wordTransitionMs,
		curve:    easeInOutCosine,
	}
	e.notifyCrossing(prev, float64(e.clock.target))
	e.window.Ensure(e.clock.target)
	return true
}

// finishAutoplayLocked is the normal terminal transition at the end of
// the stream, not an error.
func (e *Engine) finishAutoplayLocked() {
	e.enterMode(ModeIdle)
	e.saveProgressLocked()
	e.log.Info("autoplay finished", "words", e.stream.Len())
}
