package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

// listenerBuffer holds ~3 seconds of 20ms frames per listener.
const listenerBuffer = 150

// Broadcaster fans out PCM frames from the pipeline to every connected
// listener. A listener that falls behind loses frames; the broadcast
// never waits for it.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}

	frames  atomic.Uint64
	dropped atomic.Uint64
}

// Listener receives PCM frames from the broadcaster.
type Listener struct {
	C       chan []int16 // buffered channel of 20ms PCM frames
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Done is closed once the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} { return l.done }

// Dropped is the number of frames this listener missed for being too slow.
func (l *Listener) Dropped() uint64 { return l.dropped.Load() }

// Stats is a snapshot of broadcaster counters.
type Stats struct {
	Listeners int    `json:"listeners"`
	Frames    uint64 `json:"frames"`
	Dropped   uint64 `json:"dropped"`
}

// NewBroadcaster creates a broadcaster with no listeners.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, listenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes l and closes its Done channel. Calling it twice is safe.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

// ListenerCount returns the number of active listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Stats returns the current counters.
func (b *Broadcaster) Stats() Stats {
	return Stats{
		Listeners: b.ListenerCount(),
		Frames:    b.frames.Load(),
		Dropped:   b.dropped.Load(),
	}
}

// Run reads frames from source and fans them out until ctx is cancelled or
// source is closed.
func (b *Broadcaster) Run(ctx context.Context, source <-chan []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-source:
			if !ok {
				return
			}
			b.publish(frame)
		}
	}
}

func (b *Broadcaster) publish(frame []int16) {
	b.frames.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.listeners {
		select {
		case l.C <- frame:
		default:
			l.dropped.Add(1)
			b.dropped.Add(1)
		}
	}
}
