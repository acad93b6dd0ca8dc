package main

import (
	"context"

	"github.com/satindergrewal/soundscape/internal/engine"
)

// forwardInterruptSignals is a no-op: Windows has no user signals. Use
// POST /api/interruption instead.
func forwardInterruptSignals(ctx context.Context, out chan<- engine.Interruption) {}
