package speech

import (
	"encoding/binary"
	"errors"
	"time"
)

// Audio format produced by the synthesizer: 22050 Hz mono signed
// 16-bit PCM, espeak's default output.
const (
	sampleRate     = 22050
	channelCount   = 1
	bytesPerSample = 2
)

// wavPCM strips the RIFF container and returns the raw PCM samples.
func wavPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, errors.New("not a WAV stream")
	}

	pos := 12
	for pos < len(wav)-8 {
		chunkID := string(wav[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))

		if chunkID == "data" {
			start := pos + 8
			end := start + chunkSize
			// espeak streams to a pipe and leaves the RIFF sizes as
			// placeholders; trust the actual byte count instead.
			if chunkSize <= 0 || end > len(wav) {
				end = len(wav)
			}
			return wav[start:end], nil
		}

		pos += 8 + chunkSize
		if chunkSize%2 != 0 {
			pos++ // chunks are word-aligned
		}
	}
	return nil, errors.New("no data chunk in WAV")
}

// pcmDuration returns the playback duration of raw PCM at the fixed
// synthesis format.
func pcmDuration(pcm []byte) time.Duration {
	samples := len(pcm) / (channelCount * bytesPerSample)
	return time.Duration(samples) * time.Second / sampleRate
}
