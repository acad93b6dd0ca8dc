package audio

import (
	"fmt"
	"time"
)

// Buffer is a fixed-size, non-interleaved multi-channel sample store.
// Every channel holds exactly Frames() samples.
type Buffer struct {
	channels   [][]float32
	frames     int
	sampleRate float64
}

// NewBuffer allocates a silent buffer. It panics on a non-positive channel
// count or sample rate, which only a misconfigured call site can produce.
func NewBuffer(channels, frames int, sampleRate float64) *Buffer {
	if channels <= 0 {
		panic(fmt.Sprintf("audio: invalid channel count %d", channels))
	}
	if sampleRate <= 0 {
		panic(fmt.Sprintf("audio: invalid sample rate %v", sampleRate))
	}
	if frames < 0 {
		frames = 0
	}
	data := make([][]float32, channels)
	for c := range data {
		data[c] = make([]float32, frames)
	}
	return &Buffer{channels: data, frames: frames, sampleRate: sampleRate}
}

func (b *Buffer) Channels() int       { return len(b.channels) }
func (b *Buffer) Frames() int         { return b.frames }
func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// Channel returns the samples of channel c. The slice aliases the buffer.
func (b *Buffer) Channel(c int) []float32 {
	return b.channels[c]
}

// Duration is the playing time of one pass through the buffer.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(float64(b.frames) / b.sampleRate * float64(time.Second))
}
