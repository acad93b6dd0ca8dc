package audio

import (
	"fmt"
	"log"
	"math"
	"sync"
)

// Factory builds loop buffers. It is safe for concurrent use.
type Factory struct {
	mu   sync.Mutex
	rand Rand
}

// NewFactory returns a factory drawing from r. A nil r uses a randomly
// seeded generator.
func NewFactory(r Rand) *Factory {
	if r == nil {
		r = NewRandomRand()
	}
	return &Factory{rand: r}
}

// LoopFrames is the frame count of every buffer built at sampleRate.
func LoopFrames(sampleRate float64) int {
	return int(math.Round(LoopSeconds * sampleRate))
}

// Build generates a LoopSeconds buffer of sound type t, filling each channel
// independently. durationSeconds is the logical session length; it does not
// change the buffer size since the buffer is looped.
//
// Build panics if channels or sampleRate is not positive or t is unknown.
func (f *Factory) Build(t SoundType, sampleRate float64, channels int, durationSeconds float64) *Buffer {
	gen, ok := GeneratorFor(t)
	if !ok {
		panic(fmt.Sprintf("audio: %v: %d", ErrUnknownSoundType, int(t)))
	}
	buf := NewBuffer(channels, LoopFrames(sampleRate), sampleRate)

	f.mu.Lock()
	for c := range buf.channels {
		gen(buf.channels[c], sampleRate, f.rand)
	}
	f.mu.Unlock()

	for _, ch := range buf.channels {
		clip(ch)
	}
	session := "infinite"
	if durationSeconds > 0 && !math.IsInf(durationSeconds, 1) {
		session = fmt.Sprintf("%.0fs", durationSeconds)
	}
	log.Printf("Generated %s loop: %d frames x %d ch at %.0f Hz (%s session)", t, buf.frames, channels, sampleRate, session)
	return buf
}

func clip(samples []float32) {
	for i, s := range samples {
		if s > 1 {
			samples[i] = 1
		} else if s < -1 {
			samples[i] = -1
		}
	}
}
