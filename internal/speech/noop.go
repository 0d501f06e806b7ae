package speech

import (
	"errors"

	"github.com/mcalder/skim/internal/engine"
)

// ErrUnavailable is returned by the no-op speaker for every utterance.
var ErrUnavailable = errors.New("narration unavailable")

var _ engine.Speaker = (*Noop)(nil)

// Noop is the speaker used when no synthesizer or audio device is
// present. Enabling narration with it surfaces a warning instead of
// crashing the reader.
type Noop struct{}

func (Noop) Voices() []engine.Voice { return nil }

func (Noop) Speak(string, engine.Voice, int, engine.SpeechCallbacks) (engine.SpeechHandle, error) {
	return nil, ErrUnavailable
}
