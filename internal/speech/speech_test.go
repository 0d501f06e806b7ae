package speech

import (
	"encoding/binary"
	"errors"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/mcalder/skim/internal/engine"
)

func TestParseVoices(t *testing.T) {
	out := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  af              --/M      Afrikaans          gmw/af
 5  en-gb           --/M      English_(Great_Britain) gmw/en
 2  en-gb           M         english-mb-en1     mb/mb-en1
 5  en-us           --/F      English_(America)  gmw/en-US
malformed line
`
	voices := parseVoices(out)
	if len(voices) != 4 {
		t.Fatalf("parsed %d voices, want 4: %v", len(voices), voices)
	}

	en := voices[2]
	if en.Locale != "en-gb" || en.Gender != "male" || en.Name != "english-mb-en1" || en.ID != "mb/mb-en1" {
		t.Errorf("voice = %+v", en)
	}
	// The combined "--/M" age/gender form must parse too.
	if voices[0].Gender != "male" {
		t.Errorf("voices[0].Gender = %q, want male", voices[0].Gender)
	}
	if voices[3].Gender != "female" {
		t.Errorf("voices[3].Gender = %q, want female", voices[3].Gender)
	}
}

func makeWAV(t *testing.T, pcmBytes int) []byte {
	t.Helper()
	pcm := make([]byte, pcmBytes)
	wav := make([]byte, 0, 44+pcmBytes)
	wav = append(wav, "RIFF"...)
	wav = binary.LittleEndian.AppendUint32(wav, uint32(36+pcmBytes))
	wav = append(wav, "WAVE"...)
	wav = append(wav, "fmt "...)
	wav = binary.LittleEndian.AppendUint32(wav, 16)
	wav = append(wav, make([]byte, 16)...)
	wav = append(wav, "data"...)
	wav = binary.LittleEndian.AppendUint32(wav, uint32(pcmBytes))
	wav = append(wav, pcm...)
	return wav
}

func TestWavPCM(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		pcm, err := wavPCM(makeWAV(t, 1000))
		if err != nil {
			t.Fatalf("wavPCM: %v", err)
		}
		if len(pcm) != 1000 {
			t.Errorf("pcm length = %d, want 1000", len(pcm))
		}
	})

	t.Run("streamed size placeholder", func(t *testing.T) {
		wav := makeWAV(t, 1000)
		// espeak writes 0 (or -1) into the data size when piping.
		binary.LittleEndian.PutUint32(wav[40:], 0)
		pcm, err := wavPCM(wav)
		if err != nil {
			t.Fatalf("wavPCM: %v", err)
		}
		if len(pcm) != 1000 {
			t.Errorf("pcm length = %d, want the remaining bytes", len(pcm))
		}
	})

	t.Run("garbage input", func(t *testing.T) {
		if _, err := wavPCM([]byte("definitely not audio data, not even close")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestPCMDuration(t *testing.T) {
	// One second of 22050 Hz mono 16-bit audio.
	if got := pcmDuration(make([]byte, sampleRate*bytesPerSample)); got != time.Second {
		t.Errorf("duration = %v, want 1s", got)
	}
	if got := pcmDuration(nil); got != 0 {
		t.Errorf("empty pcm duration = %v, want 0", got)
	}
}

func TestEmitBoundariesOrderAndOffsets(t *testing.T) {
	u := &utterance{stop: make(chan struct{})}

	var mu sync.Mutex
	var offsets []int
	cb := engine.SpeechCallbacks{
		OnBoundary: func(ci int) {
			mu.Lock()
			offsets = append(offsets, ci)
			mu.Unlock()
		},
	}

	u.emitBoundaries("the quick brown fox", 40*time.Millisecond, cb)

	want := []int{0, 4, 10, 16}
	mu.Lock()
	defer mu.Unlock()
	if len(offsets) != len(want) {
		t.Fatalf("boundaries = %v, want %v", offsets, want)
	}
	for i := range want {
		if offsets[i] != want[i] {
			t.Errorf("boundary %d = %d, want %d", i, offsets[i], want[i])
		}
	}
}

func TestEmitBoundariesStops(t *testing.T) {
	u := &utterance{stop: make(chan struct{})}
	fired := make(chan int, 100)
	cb := engine.SpeechCallbacks{OnBoundary: func(ci int) { fired <- ci }}

	go u.emitBoundaries("one two three four five six seven eight", time.Minute, cb)

	<-fired // first boundary is immediate
	u.stopOnce.Do(func() { close(u.stop) })

	select {
	case ci := <-fired:
		t.Errorf("boundary %d fired after stop", ci)
	case <-time.After(50 * time.Millisecond):
	}
}

// fakePCMPlayer reports playing for a configured number of polls.
type fakePCMPlayer struct {
	mu     sync.Mutex
	polls  int
	limit  int
	paused bool
	closed bool
}

func (f *fakePCMPlayer) Play() {}

func (f *fakePCMPlayer) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paused {
		return false
	}
	f.polls++
	return f.polls < f.limit
}

func (f *fakePCMPlayer) Pause() {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
}

func (f *fakePCMPlayer) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakePCMPlayer) state() (paused, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused, f.closed
}

func TestPlayUntilDoneCompletes(t *testing.T) {
	p := &fakePCMPlayer{limit: 3}
	if err := playUntilDone(p, make(chan struct{})); err != nil {
		t.Fatalf("playUntilDone: %v", err)
	}
	paused, closed := p.state()
	if paused {
		t.Error("normal completion should not pause")
	}
	if !closed {
		t.Error("player not closed after completion")
	}
}

func TestPlayUntilDoneStopInterrupts(t *testing.T) {
	// Enough polls to outlive the test unless stop interrupts.
	p := &fakePCMPlayer{limit: 100000}
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- playUntilDone(p, stop) }()

	time.Sleep(30 * time.Millisecond)
	close(stop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("playUntilDone did not return after stop")
	}
	paused, closed := p.state()
	if !paused || !closed {
		t.Errorf("after stop paused=%v closed=%v, want both", paused, closed)
	}
}

func TestSynthesisKilledOnStop(t *testing.T) {
	u := &utterance{stop: make(chan struct{})}
	done := make(chan error, 1)
	go func() {
		_, err := u.synthesize(exec.Command("sleep", "30"))
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	u.Stop()

	select {
	case err := <-done:
		if err == nil {
			t.Error("killed synthesis should report an error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("synthesize still running after stop")
	}
}

func TestNoopSpeaker(t *testing.T) {
	var s engine.Speaker = Noop{}
	if v := s.Voices(); v != nil {
		t.Errorf("Voices() = %v, want nil", v)
	}
	_, err := s.Speak("hello", engine.Voice{}, 200, engine.SpeechCallbacks{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Speak error = %v, want ErrUnavailable", err)
	}
}
