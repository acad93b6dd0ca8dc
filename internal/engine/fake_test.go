package engine

import (
	"errors"
	"sync"

	"github.com/satindergrewal/soundscape/internal/audio"
)

var errDevice = errors.New("device busy")

// fakeSession fails the categories and channel counts it is told to.
type fakeSession struct {
	mu             sync.Mutex
	failCategory   map[Category]bool
	failChannels   map[int]bool
	sampleRate     float64
	activations    []Category
	opens          int
	deactivated    bool
	failNextStarts int
	graphs         []*fakeGraph
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		failCategory: map[Category]bool{},
		failChannels: map[int]bool{},
		sampleRate:   8000,
	}
}

func (s *fakeSession) Activate(c Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activations = append(s.activations, c)
	if s.failCategory[c] {
		return errDevice
	}
	return nil
}

func (s *fakeSession) Open(channels int) (Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.failChannels[channels] {
		return nil, errDevice
	}
	g := &fakeGraph{channels: channels, sampleRate: s.sampleRate, session: s}
	s.graphs = append(s.graphs, g)
	return g, nil
}

func (s *fakeSession) Deactivate() error {
	s.mu.Lock()
	s.deactivated = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) takeStartFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNextStarts > 0 {
		s.failNextStarts--
		return true
	}
	return false
}

type fakeGraph struct {
	session    *fakeSession
	channels   int
	sampleRate float64

	mu        sync.Mutex
	buffer    *audio.Buffer
	schedules int
	running   bool
	closed    bool
}

func (g *fakeGraph) Channels() int       { return g.channels }
func (g *fakeGraph) SampleRate() float64 { return g.sampleRate }

func (g *fakeGraph) Schedule(buf *audio.Buffer) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.buffer = buf
	g.schedules++
	return nil
}

func (g *fakeGraph) Start() error {
	if g.session.takeStartFailure() {
		return errDevice
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.buffer == nil {
		return audio.ErrNotScheduled
	}
	g.running = true
	return nil
}

func (g *fakeGraph) Pause() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
}

func (g *fakeGraph) Stop() {
	g.mu.Lock()
	g.running = false
	g.buffer = nil
	g.mu.Unlock()
}

func (g *fakeGraph) Close() error {
	g.mu.Lock()
	g.closed = true
	g.running = false
	g.mu.Unlock()
	return nil
}

func (g *fakeGraph) isRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
