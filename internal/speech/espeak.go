// Package speech implements the engine's narration capability on top
// of the espeak-ng command line synthesizer and the system audio
// device.
package speech

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mcalder/skim/internal/engine"
)

// ESpeak synthesizes narration chunks with espeak-ng and plays the
// resulting audio. espeak's CLI reports no word boundaries, so
// boundary events are estimated: the audio duration is distributed
// over the chunk's words proportionally to their character weight.
// Close enough to keep the cursor visually in step with the voice.
type ESpeak struct {
	binary string
	player *Player
	log    *slog.Logger

	once   sync.Once
	voices []engine.Voice
}

var _ engine.Speaker = (*ESpeak)(nil)

// NewESpeak locates the synthesizer binary and opens the audio device.
func NewESpeak(log *slog.Logger) (*ESpeak, error) {
	binary, err := exec.LookPath("espeak-ng")
	if err != nil {
		if binary, err = exec.LookPath("espeak"); err != nil {
			return nil, fmt.Errorf("no espeak binary on PATH: %w", err)
		}
	}
	player, err := NewPlayer(log)
	if err != nil {
		return nil, fmt.Errorf("audio device unavailable: %w", err)
	}
	return &ESpeak{binary: binary, player: player, log: log}, nil
}

// Voices enumerates installed synthesizer voices. Enumerated once;
// voice installation does not change under a running process.
func (s *ESpeak) Voices() []engine.Voice {
	s.once.Do(func() {
		out, err := exec.Command(s.binary, "--voices").Output()
		if err != nil {
			s.log.Warn("voice enumeration failed", "err", err)
			return
		}
		s.voices = parseVoices(string(out))
		s.log.Debug("voices enumerated", "count", len(s.voices))
	})
	return s.voices
}

// parseVoices reads `espeak --voices` table output:
//
//	Pty Language Age/Gender VoiceName File Other
//	 5  en-gb    M  english  gmw/en ...
func parseVoices(out string) []engine.Voice {
	var voices []engine.Voice
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 { // header row
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		// The Age/Gender column shows up as "M", "F", or "--/M".
		g := fields[2]
		if i := strings.LastIndexByte(g, '/'); i >= 0 {
			g = g[i+1:]
		}
		gender := ""
		switch g {
		case "M":
			gender = "male"
		case "F":
			gender = "female"
		}
		voices = append(voices, engine.Voice{
			ID:     fields[4],
			Name:   fields[3],
			Locale: fields[1],
			Gender: gender,
		})
	}
	return voices
}

// Speak starts synthesis and playback of one chunk. Returns
// immediately; progress arrives through the callbacks from a
// background goroutine.
func (s *ESpeak) Speak(text string, voice engine.Voice, wpm int, cb engine.SpeechCallbacks) (engine.SpeechHandle, error) {
	u := &utterance{
		speaker: s,
		stop:    make(chan struct{}),
	}
	go u.run(text, voice, wpm, cb)
	return u, nil
}

// utterance is one in-flight chunk. Stop may race with synthesis or
// playback; the engine discards any callbacks that arrive after it has
// moved on.
type utterance struct {
	speaker  *ESpeak
	stopOnce sync.Once
	stop     chan struct{}
}

func (u *utterance) Stop() {
	u.stopOnce.Do(func() { close(u.stop) })
}

func (u *utterance) stopped() bool {
	select {
	case <-u.stop:
		return true
	default:
		return false
	}
}

func (u *utterance) run(text string, voice engine.Voice, wpm int, cb engine.SpeechCallbacks) {
	args := []string{"--stdout", "-s", strconv.Itoa(wpm)}
	if voice.ID != "" {
		args = append(args, "-v", voice.ID)
	}
	cmd := exec.Command(u.speaker.binary, args...)
	cmd.Stdin = strings.NewReader(text)

	wav, err := u.synthesize(cmd)
	if err != nil {
		if !u.stopped() {
			cb.OnError(fmt.Errorf("synthesis failed: %w", err))
		}
		return
	}
	if u.stopped() {
		return
	}
	pcm, err := wavPCM(wav)
	if err != nil {
		cb.OnError(err)
		return
	}

	done := make(chan error, 1)
	go func() { done <- u.speaker.player.Play(pcm, u.stop) }()

	u.emitBoundaries(text, pcmDuration(pcm), cb)

	select {
	case err := <-done:
		if u.stopped() {
			return
		}
		if err != nil {
			cb.OnError(err)
			return
		}
		cb.OnDone()
	case <-u.stop:
	}
}

// synthesize runs the synthesizer process, killing it if the utterance
// is stopped while it is still producing audio.
func (u *utterance) synthesize(cmd *exec.Cmd) ([]byte, error) {
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-u.stop:
			cmd.Process.Kill()
		case <-finished:
		}
	}()
	err := cmd.Wait()
	close(finished)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// emitBoundaries fires OnBoundary at each word's estimated start time.
// Words are weighted by character count plus their separator, mirroring
// how the engine maps character offsets back to words.
func (u *utterance) emitBoundaries(text string, total time.Duration, cb engine.SpeechCallbacks) {
	words := strings.Fields(text)
	if len(words) == 0 || total <= 0 {
		return
	}
	chars := len(text) + 1

	start := time.Now()
	offset := 0
	for _, word := range words {
		at := total * time.Duration(offset) / time.Duration(chars)
		wait := time.Until(start.Add(at))
		if wait > 0 {
			select {
			case <-time.After(wait):
			case <-u.stop:
				return
			}
		}
		if u.stopped() {
			return
		}
		cb.OnBoundary(offset)
		offset += len(word) + 1
	}
}
