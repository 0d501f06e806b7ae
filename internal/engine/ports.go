package engine

import "time"

// Voice describes one installed narration voice.
type Voice struct {
	ID     string // synthesizer-specific identifier
	Name   string // human-readable name
	Locale string // BCP-47-ish language tag, e.g. "en-US" or "en"
	Gender string // "male", "female", or ""
}

// VoicePreference selects a narration voice from the installed set.
type VoicePreference struct {
	Locale string
	Gender string
}

// SpeechCallbacks receive asynchronous synthesis events. They may be
// invoked from any goroutine; the engine re-checks ownership before
// acting on each one.
type SpeechCallbacks struct {
	OnBoundary func(charIndex int)
	OnDone     func()
	OnError    func(err error)
}

// SpeechHandle controls one in-flight utterance.
type SpeechHandle interface {
	// Stop cancels synthesis and playback. Callbacks may still arrive
	// after Stop returns; the engine discards them by generation.
	Stop()
}

// Speaker is the narration capability. Speak must return promptly and
// deliver progress through the callbacks.
type Speaker interface {
	Voices() []Voice
	Speak(text string, voice Voice, wpm int, cb SpeechCallbacks) (SpeechHandle, error)
}

// HapticStrength grades a haptic pulse.
type HapticStrength int

const (
	HapticLight HapticStrength = iota
	HapticMedium
)

// Haptics is a fire-and-forget pulse emitter, triggered on integer
// cursor crossings during a drag.
type Haptics interface {
	Pulse(strength HapticStrength)
}

// Progress is a fire-and-forget save of the reading position.
type Progress struct {
	ContentID    string
	CurrentIndex int
	TotalWords   int
	Timestamp    time.Time
}

// ProgressSink receives throttled position updates. Implementations
// must not block the caller; the engine never waits on an ack.
type ProgressSink interface {
	Save(p Progress)
}

// NoopHaptics discards pulses. Used when the front end has no haptic
// channel.
type NoopHaptics struct{}

func (NoopHaptics) Pulse(HapticStrength) {}

// NoopProgress discards saves.
type NoopProgress struct{}

func (NoopProgress) Save(Progress) {}
