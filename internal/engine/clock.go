package engine

import (
	"context"
	"sync"
	"time"
)

// DefaultTickInterval is how often the clock advances while playing.
const DefaultTickInterval = 100 * time.Millisecond

// Dispatcher runs fn on the context that owns the UI callbacks.
type Dispatcher func(fn func())

// Inline runs callbacks directly on the calling goroutine.
func Inline(fn func()) { fn() }

// TickFunc receives each tick. epoch identifies the run the tick belongs
// to; a tick whose epoch no longer matches Epoch() is stale.
type TickFunc func(epoch uint64, seconds float64)

// Clock is the logical session time cursor. While started it advances by
// one interval per tick and reports the new time through the dispatcher.
// It only reports elapsed time; deciding completion is its owner's job.
type Clock struct {
	interval time.Duration
	dispatch Dispatcher
	onTick   TickFunc

	mu      sync.Mutex
	elapsed time.Duration
	epoch   uint64        // bumped by Start, Reset and Set
	stop    chan struct{} // nil while stopped
}

// NewClock creates a stopped clock at 0. A nil dispatch runs callbacks inline.
func NewClock(interval time.Duration, dispatch Dispatcher, onTick TickFunc) *Clock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if dispatch == nil {
		dispatch = Inline
	}
	return &Clock{interval: interval, dispatch: dispatch, onTick: onTick}
}

// Interval is the tick period.
func (c *Clock) Interval() time.Duration { return c.interval }

// Start begins ticking. Starting a running clock does nothing.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	c.epoch++
	go c.run(stop)
}

// Stop halts ticking without waiting for the tick goroutine, so it is safe
// to call from inside a tick callback.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

// Reset stops the clock and rewinds it to 0.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.elapsed = 0
	c.epoch++
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

// Epoch identifies the current run. Ticks emitted before the latest Start,
// Reset or Set carry an older epoch.
func (c *Clock) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Current is the elapsed time in seconds.
func (c *Clock) Current() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed.Seconds()
}

// Set moves the cursor without emitting a tick.
func (c *Clock) Set(seconds float64) {
	c.mu.Lock()
	c.elapsed = time.Duration(seconds * float64(time.Second))
	c.epoch++
	c.mu.Unlock()
}

// Tick advances one interval and reports the new time, regardless of
// whether the clock is running. It returns the new time in seconds.
func (c *Clock) Tick() float64 {
	c.mu.Lock()
	c.elapsed += c.interval
	now, epoch := c.elapsed.Seconds(), c.epoch
	c.mu.Unlock()

	c.emit(epoch, now)
	return now
}

func (c *Clock) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.stop != stop {
			// stopped (and maybe restarted) while the tick was pending
			c.mu.Unlock()
			return
		}
		c.elapsed += c.interval
		now, epoch := c.elapsed.Seconds(), c.epoch
		c.mu.Unlock()

		c.emit(epoch, now)
	}
}

func (c *Clock) emit(epoch uint64, now float64) {
	if c.onTick == nil {
		return
	}
	c.dispatch(func() { c.onTick(epoch, now) })
}

// Queue is a serial callback context: every dispatched function runs in
// order on the goroutine executing Run.
type Queue struct {
	fns  chan func()
	done chan struct{}
}

// NewQueue creates a queue holding up to size pending callbacks.
func NewQueue(size int) *Queue {
	return &Queue{
		fns:  make(chan func(), size),
		done: make(chan struct{}),
	}
}

// Dispatch enqueues fn. After Run has returned, fn is dropped.
func (q *Queue) Dispatch(fn func()) {
	select {
	case q.fns <- fn:
	case <-q.done:
	}
}

// Run executes callbacks until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-q.fns:
			fn()
		}
	}
}
