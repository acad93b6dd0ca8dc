package drift

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/soundscape/internal/audio"
	"github.com/satindergrewal/soundscape/internal/engine"
)

// DefaultCheckInterval is how often Run looks at the dwell timer.
const DefaultCheckInterval = time.Second

// Player is the part of the engine the scheduler drives.
type Player interface {
	Status() engine.Status
	SetupAudio(d engine.Duration, t audio.SoundType)
	Seek(to float64)
	Play()
}

// Config holds drift parameters.
type Config struct {
	DwellMin time.Duration // min time per sound
	DwellMax time.Duration // max time per sound
	Check    time.Duration // DefaultCheckInterval when zero
}

// Status is the current state of the scheduler.
type Status struct {
	Enabled        bool    `json:"enabled"`
	DwellRemaining float64 `json:"dwell_remaining"` // seconds
	Transitions    int     `json:"transitions"`
}

// Scheduler moves a playing session to a neighbouring sound after a random
// dwell. The session keeps its length and time cursor across a drift.
type Scheduler struct {
	player Player
	cfg    Config

	mu          sync.Mutex
	rand        audio.Rand
	enabled     bool
	dwellEnd    time.Time
	transitions int
	onDrift     func(from, to audio.SoundType)
}

// NewScheduler creates a disabled scheduler. A nil r uses a randomly seeded
// generator.
func NewScheduler(p Player, cfg Config, r audio.Rand) *Scheduler {
	if cfg.DwellMin <= 0 {
		cfg.DwellMin = time.Minute
	}
	if cfg.DwellMax < cfg.DwellMin {
		cfg.DwellMax = cfg.DwellMin
	}
	if cfg.Check <= 0 {
		cfg.Check = DefaultCheckInterval
	}
	if r == nil {
		r = audio.NewRandomRand()
	}
	return &Scheduler{player: p, cfg: cfg, rand: r}
}

// OnDrift registers fn to be called after every transition.
func (s *Scheduler) OnDrift(fn func(from, to audio.SoundType)) {
	s.mu.Lock()
	s.onDrift = fn
	s.mu.Unlock()
}

// SetEnabled turns drifting on or off. Enabling starts a fresh dwell.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	if enabled {
		s.resetDwell(time.Now())
	}
	log.Printf("Auto-drift enabled: %v", enabled)
}

// Enabled reports whether drifting is on.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Status returns the current drift state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{Enabled: s.enabled, Transitions: s.transitions}
	if s.enabled {
		st.DwellRemaining = max(time.Until(s.dwellEnd).Seconds(), 0)
	}
	return st
}

// Run checks the dwell timer until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Check)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.step(now)
		}
	}
}

// step drifts if the dwell has expired at now. It reports whether a
// transition happened.
func (s *Scheduler) step(now time.Time) bool {
	s.mu.Lock()
	if !s.enabled || now.Before(s.dwellEnd) {
		s.mu.Unlock()
		return false
	}
	st := s.player.Status()
	if st.State != engine.StatePlaying {
		// only drift what the listener hears; wait a full dwell after resume
		s.resetDwell(now)
		s.mu.Unlock()
		return false
	}
	next, ok := s.pick(st.Sound)
	s.resetDwell(now)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.transitions++
	onDrift := s.onDrift
	s.mu.Unlock()

	d := engine.Infinite()
	if !st.Infinite {
		d = engine.Finite(st.Duration)
	}
	log.Printf("Auto-drift transition: %s -> %s at %.1fs", st.Sound, next, st.CurrentTime)
	s.player.SetupAudio(d, next)
	s.player.Seek(st.CurrentTime)
	s.player.Play()

	if onDrift != nil {
		onDrift(st.Sound, next)
	}
	return true
}

// pick chooses a random neighbour. Must be called with mu held.
func (s *Scheduler) pick(from audio.SoundType) (audio.SoundType, bool) {
	next := Adjacency[from]
	if len(next) == 0 {
		return from, false
	}
	return next[s.rand.IntN(len(next))], true
}

// resetDwell sets a new random dwell timer. Must be called with mu held.
func (s *Scheduler) resetDwell(now time.Time) {
	spread := float64(s.cfg.DwellMax - s.cfg.DwellMin)
	dwell := s.cfg.DwellMin + time.Duration(s.rand.Float64()*spread)
	s.dwellEnd = now.Add(dwell)
}
