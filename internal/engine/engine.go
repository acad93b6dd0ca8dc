package engine

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satindergrewal/soundscape/internal/audio"
)

// Fallback layout for buffers built while no graph is available.
const (
	fallbackChannels   = 2
	fallbackSampleRate = audio.SampleRate
)

// Callbacks are delivered through the engine's dispatcher.
type Callbacks struct {
	OnTimeUpdate       func(seconds float64)
	OnPlaybackFinished func()
}

// Options configure an Engine.
type Options struct {
	Session      Session
	Factory      *audio.Factory
	Ladder       []Attempt     // DefaultLadder when empty
	TickInterval time.Duration // DefaultTickInterval when zero
	Dispatch     Dispatcher    // Inline when nil
	Callbacks    Callbacks
}

// Status is a snapshot of the engine for the presentation layer.
type Status struct {
	SessionID   string          `json:"session_id,omitempty"`
	State       State           `json:"state"`
	Sound       audio.SoundType `json:"sound"`
	Duration    float64         `json:"duration"`
	Infinite    bool            `json:"infinite"`
	CurrentTime float64         `json:"current_time"`
	Progress    float64         `json:"progress"`
	Setup       SetupResult     `json:"setup"`
	Channels    int             `json:"channels"`
	SampleRate  float64         `json:"sample_rate"`
	Speed       float32         `json:"speed"`
}

// Engine owns the output graph, the looped buffer and the session clock.
// All transport calls are serialized; concurrent callers resolve in call
// order. Failures never surface as errors: they are logged and the engine
// stays inert.
type Engine struct {
	session Session
	factory *audio.Factory
	ladder  []Attempt
	cb      Callbacks
	clock   *Clock

	mu        sync.Mutex
	graph     Graph
	setup     SetupResult
	scheduled bool
	buffer    *audio.Buffer
	sound     audio.SoundType
	duration  Duration
	state     State
	sessionID string
	speed     float32
}

// New creates an engine in StateUninitialized. The graph is built on first use.
func New(opts Options) *Engine {
	if opts.Session == nil {
		panic("engine: nil Session")
	}
	if opts.Factory == nil {
		opts.Factory = audio.NewFactory(nil)
	}
	if len(opts.Ladder) == 0 {
		opts.Ladder = DefaultLadder
	}
	e := &Engine{
		session:  opts.Session,
		factory:  opts.Factory,
		ladder:   opts.Ladder,
		cb:       opts.Callbacks,
		duration: Infinite(),
		speed:    1,
	}
	e.clock = NewClock(opts.TickInterval, opts.Dispatch, e.handleTick)
	return e
}

// SetupAudio (re)configures the engine for a new session: it stops any
// current playback, builds a fresh buffer for soundType sized to the graph
// and installs it. Calling it again simply starts over.
func (e *Engine) SetupAudio(d Duration, soundType audio.SoundType) {
	e.Stop()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureGraphLocked()
	channels, sampleRate := fallbackChannels, float64(fallbackSampleRate)
	if e.graph != nil {
		channels, sampleRate = e.graph.Channels(), e.graph.SampleRate()
	}
	buf := e.factory.Build(soundType, sampleRate, channels, d.Seconds())

	e.sound = soundType
	e.duration = d
	e.sessionID = uuid.NewString()
	e.configureLocked(buf)
	e.state = StateConfigured
	log.Printf("Session %s configured: %s, %s", e.sessionID, soundType, d)
}

// Configure installs buf as the looped buffer, dropping the previous one.
func (e *Engine) Configure(buf *audio.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configureLocked(buf)
	if e.state == StateUninitialized || e.state == StateStopped {
		e.state = StateConfigured
	}
}

func (e *Engine) configureLocked(buf *audio.Buffer) {
	e.buffer = buf
	e.scheduled = false
	if e.graph != nil {
		e.scheduleLocked()
	}
}

// Play starts or resumes looping the configured buffer.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StatePlaying {
		return
	}
	if e.buffer == nil {
		log.Printf("Play ignored: no audio configured (state %s)", e.state)
		return
	}
	if !e.ensureGraphLocked() {
		log.Println("Play ignored: audio output unavailable")
		return
	}
	if !e.scheduled && !e.scheduleLocked() {
		return
	}
	if err := e.graph.Start(); err != nil {
		log.Printf("Audio graph failed to start, tearing down: %v", err)
		e.teardownLocked()
		return
	}

	e.clock.Start()
	e.state = StatePlaying
}

// Pause halts rendering but keeps the graph and buffer. The engine is
// Paused afterwards whatever state it was in.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.graph != nil {
		e.graph.Pause()
	}
	e.clock.Stop()
	e.state = StatePaused
}

// Stop halts playback, releases the buffer and rewinds the clock.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if e.graph != nil {
		e.graph.Stop()
	}
	e.buffer = nil
	e.scheduled = false
	e.clock.Reset()
	e.state = StateStopped
}

// Seek moves the logical time cursor. Finite sessions clamp to
// [0, duration]. The looping waveform is not repositioned.
func (e *Engine) Seek(to float64) {
	if math.IsNaN(to) {
		log.Println("Seek ignored: NaN target")
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock.Set(e.duration.Clamp(to))
}

// SetSpeed records the requested playback rate. The graph has no
// time-pitch node, so audio keeps playing at normal speed.
func (e *Engine) SetSpeed(rate float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rate <= 0 || math.IsNaN(float64(rate)) || math.IsInf(float64(rate), 0) {
		log.Printf("SetSpeed ignored: invalid rate %v", rate)
		return
	}
	e.speed = rate
	if rate != 1 {
		log.Printf("SetSpeed %.2fx accepted; output has no time-pitch node, playing at 1.0x", rate)
	}
}

// Close stops playback and releases the graph and the session.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.teardownLocked()
	return e.session.Deactivate()
}

// State returns the transport state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// CurrentTime is the logical session time in seconds.
func (e *Engine) CurrentTime() float64 {
	return e.clock.Current()
}

// Progress is the completion fraction for finite sessions and the cyclic
// 30s fraction for infinite ones.
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	d := e.duration
	e.mu.Unlock()
	return d.Progress(e.clock.Current())
}

// Status returns a snapshot of the engine.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clock.Current()
	st := Status{
		SessionID:   e.sessionID,
		State:       e.state,
		Sound:       e.sound,
		Infinite:    e.duration.IsInfinite(),
		CurrentTime: now,
		Progress:    e.duration.Progress(now),
		Setup:       e.setup,
		Speed:       e.speed,
	}
	if !st.Infinite {
		st.Duration = e.duration.Seconds()
	}
	if e.buffer != nil {
		st.Channels = e.buffer.Channels()
		st.SampleRate = e.buffer.SampleRate()
	}
	return st
}

// ensureGraphLocked builds the graph through the ladder when there is none.
func (e *Engine) ensureGraphLocked() bool {
	if e.graph != nil {
		return true
	}
	e.graph, e.setup = setupGraph(e.session, e.ladder)
	e.scheduled = false
	return e.graph != nil
}

func (e *Engine) scheduleLocked() bool {
	if e.buffer.Channels() != e.graph.Channels() || e.buffer.SampleRate() != e.graph.SampleRate() {
		// the graph was rebuilt with another layout; regenerate to match
		e.buffer = e.factory.Build(e.sound, e.graph.SampleRate(), e.graph.Channels(), e.duration.Seconds())
	}
	if err := e.graph.Schedule(e.buffer); err != nil {
		log.Printf("Audio graph rejected buffer, tearing down: %v", err)
		e.teardownLocked()
		return false
	}
	e.scheduled = true
	return true
}

func (e *Engine) teardownLocked() {
	if e.graph == nil {
		return
	}
	if err := e.graph.Close(); err != nil {
		log.Printf("Audio graph close: %v", err)
	}
	e.graph = nil
	e.scheduled = false
}

// handleTick runs on the dispatcher for every clock tick. The engine, as the
// clock's owner, ends finite sessions once their duration is reached. Ticks
// from an earlier run (queued before a Stop, Pause, Seek or new session)
// are dropped.
func (e *Engine) handleTick(epoch uint64, now float64) {
	e.mu.Lock()
	if e.state != StatePlaying || e.clock.Epoch() != epoch {
		e.mu.Unlock()
		return
	}
	finished := !e.duration.IsInfinite() && now >= e.duration.Seconds()
	if finished {
		e.stopLocked()
	}
	e.mu.Unlock()

	if e.cb.OnTimeUpdate != nil {
		e.cb.OnTimeUpdate(now)
	}
	if !finished {
		return
	}
	log.Printf("Session finished after %.1fs", now)
	if e.cb.OnPlaybackFinished != nil {
		e.cb.OnPlaybackFinished()
	}
}
