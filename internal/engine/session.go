package engine

import (
	"fmt"
	"log"

	"github.com/satindergrewal/soundscape/internal/audio"
)

// Category describes how the process's audio mixes with other sources.
type Category int

const (
	// CategoryPlayback claims the output for full-fidelity playback.
	CategoryPlayback Category = iota
	// CategoryAmbient is the minimal category that mixes with others.
	CategoryAmbient
)

func (c Category) String() string {
	switch c {
	case CategoryPlayback:
		return "playback"
	case CategoryAmbient:
		return "ambient"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Session is the process-wide audio configuration handle. The host creates
// one and hands it to the engine, which owns it until Close.
type Session interface {
	Activate(category Category) error
	Open(channels int) (Graph, error)
	Deactivate() error
}

// Graph is the output graph (source, mixer, output) built by a Session.
// Schedule loops a buffer forever; Stop releases it.
type Graph interface {
	Channels() int
	SampleRate() float64
	Schedule(buf *audio.Buffer) error
	Start() error
	Pause()
	Stop()
	Close() error
}

// Attempt is one rung of the setup ladder.
type Attempt struct {
	Category Category
	Channels int
}

// DefaultLadder tries a stereo playback graph, then a mono ambient one.
var DefaultLadder = []Attempt{
	{Category: CategoryPlayback, Channels: 2},
	{Category: CategoryAmbient, Channels: 1},
}

// SetupResult tags the outcome of the setup ladder.
type SetupResult int

const (
	SetupPending SetupResult = iota
	FullFidelity
	Degraded
	Unavailable
)

func (r SetupResult) String() string {
	switch r {
	case SetupPending:
		return "pending"
	case FullFidelity:
		return "full_fidelity"
	case Degraded:
		return "degraded"
	case Unavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("SetupResult(%d)", int(r))
	}
}

func (r SetupResult) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// setupGraph walks the ladder in order and returns the first graph that
// opens. Only the first rung counts as full fidelity.
func setupGraph(s Session, ladder []Attempt) (Graph, SetupResult) {
	for i, a := range ladder {
		g, err := tryAttempt(s, a)
		if err != nil {
			log.Printf("Audio setup %d/%d (%s, %d ch) failed: %v", i+1, len(ladder), a.Category, a.Channels, err)
			continue
		}
		result := FullFidelity
		if i > 0 {
			result = Degraded
		}
		log.Printf("Audio setup %s: %s, %d ch at %.0f Hz", result, a.Category, g.Channels(), g.SampleRate())
		return g, result
	}
	log.Println("Audio setup unavailable: every configuration failed, playback disabled")
	return nil, Unavailable
}

func tryAttempt(s Session, a Attempt) (Graph, error) {
	if err := s.Activate(a.Category); err != nil {
		return nil, fmt.Errorf("activate %s: %w", a.Category, err)
	}
	g, err := s.Open(a.Channels)
	if err != nil {
		return nil, fmt.Errorf("open %d ch graph: %w", a.Channels, err)
	}
	return g, nil
}
