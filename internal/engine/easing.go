package engine

import "math"

// easeOutQuad decelerates toward the target. Used for snap settling.
func easeOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// easeInOutCosine accelerates then decelerates. Used for the visible
// word-to-word transition in discrete autoplay.
func easeInOutCosine(t float64) float64 {
	return (1 - math.Cos(math.Pi*t)) / 2
}

// anim is a one-shot eased transition between two cursor values. The
// arbiter guarantees at most one anim is in flight at any instant.
type anim struct {
	from, to float64
	elapsed  float64 // ms
	duration float64 // ms
	curve    func(float64) float64
}

// advance moves the animation forward by dt milliseconds and returns
// the interpolated value.
func (a *anim) advance(dt float64) float64 {
	a.elapsed += dt
	if a.done() {
		return a.to
	}
	t := a.elapsed / a.duration
	return a.from + (a.to-a.from)*a.curve(t)
}

func (a *anim) done() bool {
	return a.elapsed >= a.duration
}
