package engine

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultResumeDelay leaves the OS time to reactivate its own audio
// session before playback restarts.
const DefaultResumeDelay = 500 * time.Millisecond

// InterruptionKind distinguishes the two edges of an interruption.
type InterruptionKind int

const (
	InterruptionBegan InterruptionKind = iota
	InterruptionEnded
)

func (k InterruptionKind) String() string {
	if k == InterruptionBegan {
		return "began"
	}
	return "ended"
}

// Interruption is a platform signal that another process took (or gave
// back) the audio device.
type Interruption struct {
	Kind         InterruptionKind
	ShouldResume bool
}

// Transport is the part of the engine the coordinator drives.
type Transport interface {
	State() State
	Play()
	Pause()
}

// Coordinator pauses the transport when an interruption begins and resumes
// it afterwards, but only if it was playing when the interruption began.
type Coordinator struct {
	transport   Transport
	resumeDelay time.Duration

	mu          sync.Mutex
	interrupted bool
	wasPlaying  bool
	pending     *time.Timer
}

// NewCoordinator drives t. A non-positive delay uses DefaultResumeDelay.
func NewCoordinator(t Transport, resumeDelay time.Duration) *Coordinator {
	if resumeDelay <= 0 {
		resumeDelay = DefaultResumeDelay
	}
	return &Coordinator{transport: t, resumeDelay: resumeDelay}
}

// Run handles interruptions from events until ctx is cancelled or events
// is closed.
func (c *Coordinator) Run(ctx context.Context, events <-chan Interruption) {
	defer c.cancelPending()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Handle(ev)
		}
	}
}

// Handle processes one interruption edge.
func (c *Coordinator) Handle(ev Interruption) {
	switch ev.Kind {
	case InterruptionBegan:
		c.began()
	case InterruptionEnded:
		c.ended(ev.ShouldResume)
	}
}

func (c *Coordinator) began() {
	c.mu.Lock()
	c.stopPendingLocked()
	if !c.interrupted {
		// a repeated begin must not overwrite what the user was doing
		c.interrupted = true
		c.wasPlaying = c.transport.State() == StatePlaying
	}
	wasPlaying := c.wasPlaying
	c.mu.Unlock()

	log.Printf("Audio interruption began (was playing: %v)", wasPlaying)
	c.transport.Pause()
}

func (c *Coordinator) ended(shouldResume bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	resume := shouldResume && c.interrupted && c.wasPlaying
	c.interrupted = false
	c.wasPlaying = false
	log.Printf("Audio interruption ended (resume: %v)", resume)
	if !resume {
		return
	}

	c.stopPendingLocked()
	var timer *time.Timer
	timer = time.AfterFunc(c.resumeDelay, func() {
		c.mu.Lock()
		current := c.pending == timer
		if current {
			c.pending = nil
		}
		c.mu.Unlock()

		// a transport call made during the delay wins over the resume
		if current && c.transport.State() == StatePaused {
			c.transport.Play()
		}
	})
	c.pending = timer
}

func (c *Coordinator) cancelPending() {
	c.mu.Lock()
	c.stopPendingLocked()
	c.mu.Unlock()
}

func (c *Coordinator) stopPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}
