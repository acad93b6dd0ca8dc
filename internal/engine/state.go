package engine

import (
	"fmt"
	"math"
)

// State is the transport state of the engine.
type State int

const (
	StateUninitialized State = iota
	StateConfigured
	StatePlaying
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CycleLength is the cosmetic progress cycle of infinite sessions, in seconds.
const CycleLength = 30.0

// Duration is the logical length of a session: a number of seconds, or
// infinite. The zero value is a finite session of zero seconds.
type Duration struct {
	seconds  float64
	infinite bool
}

// Finite returns a session of the given length. Negative lengths count as 0.
func Finite(seconds float64) Duration {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	return Duration{seconds: seconds}
}

// Infinite returns a session that loops until stopped.
func Infinite() Duration {
	return Duration{infinite: true}
}

func (d Duration) IsInfinite() bool { return d.infinite }

// Seconds is the finite length, or +Inf.
func (d Duration) Seconds() float64 {
	if d.infinite {
		return math.Inf(1)
	}
	return d.seconds
}

func (d Duration) String() string {
	if d.infinite {
		return "infinite"
	}
	return fmt.Sprintf("%gs", d.seconds)
}

// Clamp bounds a seek target to the session.
func (d Duration) Clamp(t float64) float64 {
	if t < 0 {
		return 0
	}
	if !d.infinite && t > d.seconds {
		return d.seconds
	}
	return t
}

// Progress maps elapsed time to a 0..1 fraction. Finite sessions report
// linear completion; infinite ones cycle every CycleLength seconds.
func (d Duration) Progress(current float64) float64 {
	if d.infinite {
		return math.Mod(math.Max(current, 0), CycleLength) / CycleLength
	}
	if d.seconds <= 0 {
		return 0
	}
	return math.Min(math.Max(current/d.seconds, 0), 1)
}
