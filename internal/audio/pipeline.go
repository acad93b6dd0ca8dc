package audio

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Pipeline loops a scheduled buffer and outputs 20ms stereo PCM frames at
// real-time rate. While nothing is playing it emits silence so downstream
// listeners keep their connections.
type Pipeline struct {
	frameCh chan []int16

	mu       sync.RWMutex
	looper   *Looper
	playing  bool
	rendered time.Duration
}

// NewPipeline creates an idle pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{
		frameCh: make(chan []int16, 100),
	}
}

// Frames returns the channel of outgoing PCM frames (20ms each).
func (p *Pipeline) Frames() <-chan []int16 {
	return p.frameCh
}

// Schedule replaces the looped buffer. The buffer must be at SampleRate
// with one or two channels.
func (p *Pipeline) Schedule(b *Buffer) error {
	if b.SampleRate() != SampleRate {
		return fmt.Errorf("pipeline needs %d Hz, got %.0f Hz", SampleRate, b.SampleRate())
	}
	if b.Channels() > Channels {
		return fmt.Errorf("pipeline carries at most %d channels, got %d", Channels, b.Channels())
	}
	p.mu.Lock()
	p.looper = NewLooper(b)
	p.mu.Unlock()
	return nil
}

// Start resumes rendering the scheduled buffer, fading in from the
// paused position.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.looper == nil {
		return ErrNotScheduled
	}
	if !p.playing {
		p.looper.Rearm()
	}
	p.playing = true
	return nil
}

// Pause keeps the buffer and position but emits silence.
func (p *Pipeline) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
}

// Stop drops the buffer.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	p.playing = false
	p.looper = nil
	p.rendered = 0
	p.mu.Unlock()
}

// Status reports whether audio is flowing and how much has been rendered
// since the last Stop.
func (p *Pipeline) Status() (playing bool, rendered time.Duration) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing, p.rendered
}

// Run paces frames onto Frames(). Blocks until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	defer close(p.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	log.Println("Pipeline running")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		select {
		case p.frameCh <- p.nextFrame():
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pipeline) nextFrame() []int16 {
	frame := make([]int16, FrameSamples)

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.looper == nil {
		return frame
	}
	p.looper.NextFrame(frame)
	p.rendered += FrameDuration
	return frame
}
