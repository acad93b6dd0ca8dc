package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/satindergrewal/soundscape/internal/audio"
)

func newTestEngine(t *testing.T, s *fakeSession, cb Callbacks) *Engine {
	t.Helper()
	e := New(Options{
		Session:      s,
		Factory:      audio.NewFactory(audio.NewRand(1)),
		TickInterval: time.Millisecond,
		Callbacks:    cb,
	})
	t.Cleanup(func() { e.Close() })
	return e
}

// timeRecorder collects OnTimeUpdate calls.
type timeRecorder struct {
	mu       sync.Mutex
	times    []float64
	finished int
	first    chan struct{}
	done     chan struct{}
	once     sync.Once
}

func newTimeRecorder() *timeRecorder {
	return &timeRecorder{first: make(chan struct{}), done: make(chan struct{})}
}

func (r *timeRecorder) callbacks() Callbacks {
	return Callbacks{
		OnTimeUpdate: func(s float64) {
			r.mu.Lock()
			r.times = append(r.times, s)
			r.mu.Unlock()
			r.once.Do(func() { close(r.first) })
		},
		OnPlaybackFinished: func() {
			r.mu.Lock()
			r.finished++
			r.mu.Unlock()
			close(r.done)
		},
	}
}

func (r *timeRecorder) snapshot() ([]float64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.times...), r.finished
}

func TestSetupAudioFullFidelity(t *testing.T) {
	s := newFakeSession()
	e := newTestEngine(t, s, Callbacks{})

	if e.State() != StateUninitialized {
		t.Fatalf("initial state = %v, want uninitialized", e.State())
	}

	e.SetupAudio(Infinite(), audio.Rain)

	st := e.Status()
	if st.State != StateConfigured {
		t.Errorf("state = %v, want configured", st.State)
	}
	if st.Setup != FullFidelity {
		t.Errorf("setup = %v, want full_fidelity", st.Setup)
	}
	if st.Channels != 2 {
		t.Errorf("channels = %d, want 2", st.Channels)
	}
	if st.SampleRate != 8000 {
		t.Errorf("sample rate = %v, want graph rate 8000", st.SampleRate)
	}
	if st.Sound != audio.Rain || !st.Infinite {
		t.Errorf("status = %+v, want infinite rain", st)
	}
	if st.SessionID == "" {
		t.Error("SetupAudio did not assign a session ID")
	}
	if len(s.graphs) != 1 || s.graphs[0].schedules != 1 {
		t.Errorf("buffer not scheduled on the graph")
	}
	if got := s.graphs[0].buffer.Frames(); got != audio.LoopFrames(8000) {
		t.Errorf("scheduled buffer has %d frames, want %d", got, audio.LoopFrames(8000))
	}
}

func TestMonoFallbackStillPlays(t *testing.T) {
	s := newFakeSession()
	s.failCategory[CategoryPlayback] = true
	rec := newTimeRecorder()
	e := newTestEngine(t, s, rec.callbacks())

	e.SetupAudio(Infinite(), audio.Ocean)
	if st := e.Status(); st.Setup != Degraded || st.Channels != 1 {
		t.Fatalf("status = %+v, want degraded mono", st)
	}

	e.Play()
	if e.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", e.State())
	}
	select {
	case <-rec.first:
	case <-time.After(time.Second):
		t.Fatal("OnTimeUpdate never fired on the mono fallback graph")
	}
}

func TestBothTiersFailedPlayIsNoop(t *testing.T) {
	s := newFakeSession()
	s.failCategory[CategoryPlayback] = true
	s.failChannels[1] = true
	rec := newTimeRecorder()
	e := newTestEngine(t, s, rec.callbacks())

	e.SetupAudio(Finite(60), audio.Fire)
	if st := e.Status(); st.Setup != Unavailable {
		t.Fatalf("setup = %v, want unavailable", st.Setup)
	}
	if e.State() != StateConfigured {
		t.Fatalf("state = %v, want configured", e.State())
	}

	e.Play()
	e.Play()

	if e.State() != StateConfigured {
		t.Errorf("state after Play = %v, want unchanged configured", e.State())
	}
	time.Sleep(30 * time.Millisecond)
	if times, _ := rec.snapshot(); len(times) != 0 {
		t.Errorf("OnTimeUpdate fired %d times on an unavailable engine", len(times))
	}
	// each Play retries the whole ladder
	if len(s.activations) != 6 {
		t.Errorf("activations = %d, want 6 (3 ladders x 2 rungs)", len(s.activations))
	}
}

func TestHardFailureRebuildsGraph(t *testing.T) {
	s := newFakeSession()
	s.failNextStarts = 1
	e := newTestEngine(t, s, Callbacks{})

	e.SetupAudio(Infinite(), audio.Stream)
	e.Play()
	if e.State() != StateConfigured {
		t.Fatalf("state after failed start = %v, want configured", e.State())
	}
	if !s.graphs[0].closed {
		t.Error("failed graph was not torn down")
	}

	e.Play()
	if e.State() != StatePlaying {
		t.Fatalf("state after rebuild = %v, want playing", e.State())
	}
	if len(s.graphs) != 2 || !s.graphs[1].isRunning() {
		t.Error("Play did not rebuild and start a new graph")
	}
}

func TestPauseFromAnyState(t *testing.T) {
	setups := map[string]func(e *Engine){
		"uninitialized": func(e *Engine) {},
		"configured":    func(e *Engine) { e.SetupAudio(Infinite(), audio.Rain) },
		"playing":       func(e *Engine) { e.SetupAudio(Infinite(), audio.Rain); e.Play() },
		"stopped":       func(e *Engine) { e.SetupAudio(Infinite(), audio.Rain); e.Stop() },
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t, newFakeSession(), Callbacks{})
			setup(e)
			e.Pause()
			if e.State() != StatePaused {
				t.Errorf("state = %v, want paused", e.State())
			}
		})
	}
}

func TestPauseKeepsGraphAndResumes(t *testing.T) {
	s := newFakeSession()
	e := newTestEngine(t, s, Callbacks{})
	e.SetupAudio(Infinite(), audio.PinkNoise)
	e.Play()
	e.Pause()

	g := s.graphs[0]
	if g.isRunning() || g.closed {
		t.Fatal("Pause should stop rendering without releasing the graph")
	}
	e.Play()
	if e.State() != StatePlaying || !g.isRunning() {
		t.Error("Play after Pause did not resume the same graph")
	}
	if len(s.graphs) != 1 {
		t.Errorf("graphs built = %d, want 1", len(s.graphs))
	}
}

func TestStopReleasesBufferAndResetsClock(t *testing.T) {
	s := newFakeSession()
	rec := newTimeRecorder()
	e := newTestEngine(t, s, rec.callbacks())
	e.SetupAudio(Infinite(), audio.BrownNoise)
	e.Play()
	<-rec.first

	e.Stop()
	st := e.Status()
	if st.State != StateStopped {
		t.Errorf("state = %v, want stopped", st.State)
	}
	if st.CurrentTime != 0 {
		t.Errorf("current time = %v, want 0", st.CurrentTime)
	}
	if st.Channels != 0 {
		t.Error("buffer still held after Stop")
	}

	e.Play()
	if e.State() != StateStopped {
		t.Errorf("Play without a buffer changed state to %v", e.State())
	}
}

func TestSeekClamps(t *testing.T) {
	e := newTestEngine(t, newFakeSession(), Callbacks{})
	e.SetupAudio(Finite(60), audio.WhiteNoise)

	tests := []struct {
		to   float64
		want float64
	}{
		{-5, 0},
		{1000, 60},
		{12.5, 12.5},
		{60, 60},
	}
	for _, tt := range tests {
		e.Seek(tt.to)
		if got := e.CurrentTime(); got != tt.want {
			t.Errorf("Seek(%v): current time = %v, want %v", tt.to, got, tt.want)
		}
	}

	e.Seek(math.NaN())
	if got := e.CurrentTime(); got != 60 {
		t.Errorf("Seek(NaN) moved the cursor to %v", got)
	}
}

func TestSeekInfiniteOnlyClampsBelow(t *testing.T) {
	e := newTestEngine(t, newFakeSession(), Callbacks{})
	e.SetupAudio(Infinite(), audio.Ocean)

	e.Seek(1000)
	if got := e.CurrentTime(); got != 1000 {
		t.Errorf("current time = %v, want 1000", got)
	}
	e.Seek(-1)
	if got := e.CurrentTime(); got != 0 {
		t.Errorf("current time = %v, want 0", got)
	}
}

func TestInfiniteSessionNeverFinishes(t *testing.T) {
	rec := newTimeRecorder()
	e := newTestEngine(t, newFakeSession(), rec.callbacks())
	e.SetupAudio(Infinite(), audio.Thunderstorm)
	e.Play()

	deadline := time.After(2 * time.Second)
	for e.CurrentTime() < 0.1 {
		select {
		case <-deadline:
			t.Fatal("clock did not advance")
		case <-time.After(5 * time.Millisecond):
		}
	}
	e.Pause()

	if _, finished := rec.snapshot(); finished != 0 {
		t.Errorf("OnPlaybackFinished fired %d times on an infinite session", finished)
	}

	e.Seek(75)
	if got := e.Progress(); got != 0.5 {
		t.Errorf("Progress at 75s = %v, want 0.5", got)
	}
}

func TestFiniteSessionFinishes(t *testing.T) {
	rec := newTimeRecorder()
	e := newTestEngine(t, newFakeSession(), rec.callbacks())
	e.SetupAudio(Finite(0.02), audio.Fire)
	e.Play()

	select {
	case <-rec.done:
	case <-time.After(2 * time.Second):
		t.Fatal("finite session never finished")
	}

	times, finished := rec.snapshot()
	if finished != 1 {
		t.Errorf("finished = %d, want 1", finished)
	}
	if len(times) != 20 {
		t.Errorf("time updates = %d, want 20", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			t.Fatalf("time not increasing at %d: %v <= %v", i, times[i], times[i-1])
		}
	}
	if last := times[len(times)-1]; last != 0.02 {
		t.Errorf("last update = %v, want 0.02", last)
	}
	if e.State() != StateStopped {
		t.Errorf("state after finish = %v, want stopped", e.State())
	}
}

func TestSetupAudioStopsFirst(t *testing.T) {
	s := newFakeSession()
	e := newTestEngine(t, s, Callbacks{})
	e.SetupAudio(Infinite(), audio.Rain)
	first := e.Status().SessionID
	e.Play()
	e.Seek(42)

	e.SetupAudio(Finite(300), audio.Ocean)
	st := e.Status()
	if st.State != StateConfigured {
		t.Errorf("state = %v, want configured", st.State)
	}
	if st.CurrentTime != 0 {
		t.Errorf("current time = %v, want 0", st.CurrentTime)
	}
	if st.SessionID == first {
		t.Error("session ID not renewed")
	}
	if st.Sound != audio.Ocean || st.Duration != 300 {
		t.Errorf("status = %+v, want 300s ocean", st)
	}
	if len(s.graphs) != 1 {
		t.Errorf("graph rebuilt on reconfigure: %d graphs", len(s.graphs))
	}
}

func TestSetSpeedIsRecordedNoop(t *testing.T) {
	e := newTestEngine(t, newFakeSession(), Callbacks{})
	e.SetupAudio(Infinite(), audio.Stream)
	e.Play()

	e.SetSpeed(1.5)
	e.SetSpeed(-1)
	e.SetSpeed(float32(math.NaN()))

	st := e.Status()
	if st.Speed != 1.5 {
		t.Errorf("speed = %v, want 1.5", st.Speed)
	}
	if st.State != StatePlaying {
		t.Errorf("SetSpeed changed state to %v", st.State)
	}
}

func TestConfigureReplacesBuffer(t *testing.T) {
	s := newFakeSession()
	e := newTestEngine(t, s, Callbacks{})
	e.SetupAudio(Infinite(), audio.Rain)

	buf := audio.NewFactory(audio.NewRand(2)).Build(audio.Rain, 8000, 2, 0)
	e.Configure(buf)
	if s.graphs[0].buffer != buf {
		t.Error("Configure did not hand the new buffer to the graph")
	}
}

func TestCloseReleasesSession(t *testing.T) {
	s := newFakeSession()
	e := New(Options{Session: s, TickInterval: time.Millisecond})
	e.SetupAudio(Infinite(), audio.WhiteNoise)
	e.Play()

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !s.deactivated || !s.graphs[0].closed {
		t.Error("Close did not release graph and session")
	}
	if e.State() != StateStopped {
		t.Errorf("state = %v, want stopped", e.State())
	}
}

func TestConcurrentTransportCalls(t *testing.T) {
	e := newTestEngine(t, newFakeSession(), Callbacks{})
	e.SetupAudio(Infinite(), audio.Rain)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); e.Play() }()
		go func() { defer wg.Done(); e.Pause() }()
		go func() { defer wg.Done(); e.Seek(float64(i)) }()
	}
	wg.Wait()
	e.Stop()

	if e.State() != StateStopped {
		t.Errorf("last writer lost: state = %v, want stopped", e.State())
	}
}

// queuedDispatch holds callbacks until drain is called.
type queuedDispatch struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queuedDispatch) dispatch(fn func()) {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
}

func (q *queuedDispatch) drain() {
	q.mu.Lock()
	fns := q.fns
	q.fns = nil
	q.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func TestQueuedTickFromPreviousSessionIsDropped(t *testing.T) {
	q := &queuedDispatch{}
	rec := newTimeRecorder()
	e := New(Options{
		Session:      newFakeSession(),
		Factory:      audio.NewFactory(audio.NewRand(1)),
		TickInterval: time.Hour,
		Dispatch:     q.dispatch,
		Callbacks:    rec.callbacks(),
	})
	t.Cleanup(func() { e.Close() })

	e.SetupAudio(Infinite(), audio.Rain)
	e.Play()
	e.Seek(9.9)
	e.clock.Tick()

	e.SetupAudio(Finite(5), audio.Ocean)
	e.Play()
	q.drain()

	times, finished := rec.snapshot()
	if finished != 0 || len(times) != 0 {
		t.Errorf("stale tick delivered: updates=%v finished=%d", times, finished)
	}
	if e.State() != StatePlaying {
		t.Errorf("state = %v, want playing", e.State())
	}

	// a tick of the current run still goes through
	e.clock.Tick()
	q.drain()
	if times, _ := rec.snapshot(); len(times) != 1 {
		t.Errorf("current tick: updates = %v, want one", times)
	}
}

func TestQueuedTickAfterPauseIsDropped(t *testing.T) {
	q := &queuedDispatch{}
	rec := newTimeRecorder()
	e := New(Options{
		Session:      newFakeSession(),
		Factory:      audio.NewFactory(audio.NewRand(1)),
		TickInterval: time.Hour,
		Dispatch:     q.dispatch,
		Callbacks:    rec.callbacks(),
	})
	t.Cleanup(func() { e.Close() })

	e.SetupAudio(Finite(1), audio.Fire)
	e.Play()
	e.Seek(5)
	e.clock.Tick()
	e.Pause()
	e.Play()
	q.drain()

	if _, finished := rec.snapshot(); finished != 0 {
		t.Errorf("tick from before the pause finished the session")
	}
	if e.State() != StatePlaying {
		t.Errorf("state = %v, want playing", e.State())
	}
}
