//go:build !windows

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/satindergrewal/soundscape/internal/engine"
)

// forwardInterruptSignals maps SIGUSR1 to an interruption beginning and
// SIGUSR2 to one ending with a resume hint.
func forwardInterruptSignals(ctx context.Context, out chan<- engine.Interruption) {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	for {
		var ev engine.Interruption
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			if sig == syscall.SIGUSR1 {
				ev = engine.Interruption{Kind: engine.InterruptionBegan}
			} else {
				ev = engine.Interruption{Kind: engine.InterruptionEnded, ShouldResume: true}
			}
			log.Printf("Received %v: interruption %s", sig, ev.Kind)
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}
