package output

import (
	"fmt"
	"log"
	"sync"

	"github.com/satindergrewal/soundscape/internal/audio"
	"github.com/satindergrewal/soundscape/internal/engine"
)

// StreamSession renders into a shared audio.Pipeline whose frames are
// broadcast to network listeners. The pipeline keeps running (emitting
// silence) between graphs.
type StreamSession struct {
	pipeline *audio.Pipeline

	mu       sync.Mutex
	active   bool
	category engine.Category
}

// NewStreamSession wraps p. The caller runs p.
func NewStreamSession(p *audio.Pipeline) *StreamSession {
	return &StreamSession{pipeline: p}
}

// Activate marks the session active. Every category is served the same way.
func (s *StreamSession) Activate(c engine.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.category = c
	return nil
}

// Open returns a graph feeding the pipeline with channels channels.
func (s *StreamSession) Open(channels int) (engine.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, ErrNotActive
	}
	if channels < 1 || channels > audio.Channels {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, channels)
	}
	log.Printf("Stream output open: %s, %d ch at %d Hz", s.category, channels, audio.SampleRate)
	return &streamGraph{pipeline: s.pipeline, channels: channels}, nil
}

// Deactivate stops the pipeline output and marks the session inactive.
func (s *StreamSession) Deactivate() error {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.pipeline.Stop()
	return nil
}

type streamGraph struct {
	pipeline *audio.Pipeline
	channels int

	mu     sync.Mutex
	closed bool
}

func (g *streamGraph) Channels() int       { return g.channels }
func (g *streamGraph) SampleRate() float64 { return audio.SampleRate }

func (g *streamGraph) Schedule(buf *audio.Buffer) error {
	if g.isClosed() {
		return ErrGraphClosed
	}
	if buf.Channels() != g.channels {
		return fmt.Errorf("%w: graph has %d, buffer %d", ErrChannelMismatch, g.channels, buf.Channels())
	}
	return g.pipeline.Schedule(buf)
}

func (g *streamGraph) Start() error {
	if g.isClosed() {
		return ErrGraphClosed
	}
	return g.pipeline.Start()
}

func (g *streamGraph) Pause() { g.pipeline.Pause() }
func (g *streamGraph) Stop()  { g.pipeline.Stop() }

func (g *streamGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		g.closed = true
		g.pipeline.Stop()
	}
	return nil
}

func (g *streamGraph) isClosed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
