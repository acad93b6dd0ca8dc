package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/satindergrewal/soundscape/internal/audio"
	"github.com/satindergrewal/soundscape/internal/engine"
)

// Device buffer sizes per category. Playback favours latency, ambient
// favours resilience against scheduling hiccups.
const (
	playbackBufferSize = 100 * time.Millisecond
	ambientBufferSize  = 250 * time.Millisecond
)

func bufferSizeFor(c engine.Category) time.Duration {
	if c == engine.CategoryAmbient {
		return ambientBufferSize
	}
	return playbackBufferSize
}

// DeviceSession plays through the system sound card. oto allows a single
// context per process, so the first successful Open fixes the channel
// layout for the lifetime of the session.
type DeviceSession struct {
	sampleRate int

	mu       sync.Mutex
	active   bool
	category engine.Category
	ctx      *oto.Context
	channels int
	ctxErr   error
}

// NewDeviceSession creates an inactive session at sampleRate.
func NewDeviceSession(sampleRate int) *DeviceSession {
	if sampleRate <= 0 {
		sampleRate = audio.SampleRate
	}
	return &DeviceSession{sampleRate: sampleRate}
}

// Activate claims the device, resuming it if an earlier Deactivate
// suspended it.
func (s *DeviceSession) Activate(c engine.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx != nil {
		if err := s.ctx.Resume(); err != nil {
			return fmt.Errorf("resume device: %w", err)
		}
	}
	s.active = true
	s.category = c
	return nil
}

// Open returns a graph on the device. The device context is created on the
// first call; later calls must ask for the same channel count.
func (s *DeviceSession) Open(channels int) (engine.Graph, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil, ErrNotActive
	}
	if channels < 1 || channels > audio.Channels {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedLayout, channels)
	}
	if s.ctx == nil {
		if s.ctxErr != nil {
			return nil, fmt.Errorf("device unusable: %w", s.ctxErr)
		}
		if err := s.createContextLocked(channels); err != nil {
			s.ctxErr = err
			return nil, err
		}
	}
	if channels != s.channels {
		return nil, fmt.Errorf("%w: device has %d, want %d", ErrChannelMismatch, s.channels, channels)
	}
	return &deviceGraph{ctx: s.ctx, channels: channels, sampleRate: float64(s.sampleRate)}, nil
}

func (s *DeviceSession) createContextLocked(channels int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   s.sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSizeFor(s.category),
	})
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	<-ready
	s.ctx = ctx
	s.channels = channels
	log.Printf("Device output open: %s, %d ch at %d Hz", s.category, channels, s.sampleRate)
	return nil
}

// Deactivate suspends the device so other processes can use it.
func (s *DeviceSession) Deactivate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
	if s.ctx == nil {
		return nil
	}
	return s.ctx.Suspend()
}

// deviceGraph owns a looper over the scheduled buffer and the oto player
// reading it. Pausing drops the player so the device buffer does not replay
// stale audio; resuming opens a new one and fades in from the looper's
// position.
type deviceGraph struct {
	ctx        *oto.Context
	channels   int
	sampleRate float64

	mu     sync.Mutex
	looper *audio.Looper
	player *oto.Player
	closed bool
}

func (g *deviceGraph) Channels() int       { return g.channels }
func (g *deviceGraph) SampleRate() float64 { return g.sampleRate }

func (g *deviceGraph) Schedule(buf *audio.Buffer) error {
	if buf.Channels() != g.channels {
		return fmt.Errorf("%w: graph has %d, buffer %d", ErrChannelMismatch, g.channels, buf.Channels())
	}
	if buf.SampleRate() != g.sampleRate {
		return fmt.Errorf("buffer at %.0f Hz, device at %.0f Hz", buf.SampleRate(), g.sampleRate)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGraphClosed
	}
	g.releaseLocked()
	g.looper = audio.NewLooper(buf)
	return nil
}

func (g *deviceGraph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrGraphClosed
	}
	if g.looper == nil {
		return audio.ErrNotScheduled
	}
	if err := g.ctx.Err(); err != nil {
		return fmt.Errorf("device: %w", err)
	}
	if g.player == nil {
		g.looper.Rearm()
		g.player = g.ctx.NewPlayer(g.looper)
	}
	g.player.Play()
	if err := g.player.Err(); err != nil {
		return fmt.Errorf("player: %w", err)
	}
	return nil
}

func (g *deviceGraph) Pause() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releaseLocked()
}

func (g *deviceGraph) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releaseLocked()
	g.looper = nil
}

func (g *deviceGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.looper = nil
	return g.releaseLocked()
}

func (g *deviceGraph) releaseLocked() error {
	if g.player == nil {
		return nil
	}
	err := g.player.Close()
	g.player = nil
	return err
}
