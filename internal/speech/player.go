package speech

import (
	"bytes"
	"log/slog"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Player plays raw PCM through the system audio device.
type Player struct {
	ctx *oto.Context
	log *slog.Logger
}

// NewPlayer initializes the audio context. Fails when no audio device
// is available; the caller should fall back to silent narration-off.
func NewPlayer(log *slog.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channelCount,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("audio context ready", "rate", sampleRate, "channels", channelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play blocks until the PCM finishes or stop closes. Each call drives
// its own device player, so cancelling one utterance can never race
// with or silence another.
func (p *Player) Play(pcm []byte, stop <-chan struct{}) error {
	return playUntilDone(p.ctx.NewPlayer(bytes.NewReader(pcm)), stop)
}

// pcmPlayer is the part of oto.Player the wait loop needs.
type pcmPlayer interface {
	Play()
	IsPlaying() bool
	Pause()
	Close() error
}

func playUntilDone(player pcmPlayer, stop <-chan struct{}) error {
	player.Play()
	for player.IsPlaying() {
		select {
		case <-stop:
			player.Pause()
			return player.Close()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return player.Close()
}
