package audio

import (
	"encoding/binary"
	"io"
	"math"
)

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Looper plays a Buffer end to end forever. Every (re)start ramps in over
// 10ms along a smoothstep curve so the first sample does not click.
//
// A Looper is not safe for concurrent use; each graph owns its own.
type Looper struct {
	buf        *Buffer
	pos        int
	ramped     int
	fadeFrames int
}

// NewLooper wraps b.
func NewLooper(b *Buffer) *Looper {
	return &Looper{
		buf:        b,
		fadeFrames: int(b.sampleRate / 100),
	}
}

// Buffer returns the looped buffer.
func (l *Looper) Buffer() *Buffer { return l.buf }

// Position is the current frame index inside the buffer.
func (l *Looper) Position() int { return l.pos }

// Reset rewinds to the first frame and re-arms the fade-in.
func (l *Looper) Reset() {
	l.pos = 0
	l.ramped = 0
}

// Rearm restarts the fade-in at the current position. Resuming paused
// playback calls it so the first resumed sample does not click.
func (l *Looper) Rearm() {
	l.ramped = 0
}

func (l *Looper) gain() float32 {
	if l.ramped >= l.fadeFrames {
		return 1
	}
	g := Smoothstep(float64(l.ramped) / float64(l.fadeFrames))
	l.ramped++
	return float32(g)
}

func (l *Looper) advance() {
	l.pos++
	if l.pos >= l.buf.frames {
		l.pos = 0
	}
}

// Read implements io.Reader over interleaved float32 little-endian samples
// in the buffer's own channel layout. Only whole frames are written; the
// stream never ends.
func (l *Looper) Read(p []byte) (int, error) {
	if l.buf.frames == 0 {
		return 0, io.EOF
	}
	channels := len(l.buf.channels)
	frameBytes := channels * 4
	frames := len(p) / frameBytes
	for f := 0; f < frames; f++ {
		g := l.gain()
		base := f * frameBytes
		for c, ch := range l.buf.channels {
			v := ch[l.pos] * g
			binary.LittleEndian.PutUint32(p[base+c*4:], math.Float32bits(v))
		}
		l.advance()
	}
	return frames * frameBytes, nil
}

// NextFrame fills dst with interleaved stereo int16 samples (len(dst)/2
// frames). Mono buffers are copied to both sides.
func (l *Looper) NextFrame(dst []int16) {
	if l.buf.frames == 0 {
		clear(dst)
		return
	}
	left := l.buf.channels[0]
	right := left
	if len(l.buf.channels) > 1 {
		right = l.buf.channels[1]
	}
	for f := 0; f+1 < len(dst); f += 2 {
		g := l.gain()
		dst[f] = FloatToInt16(left[l.pos] * g)
		dst[f+1] = FloatToInt16(right[l.pos] * g)
		l.advance()
	}
}
