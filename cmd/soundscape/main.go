package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/satindergrewal/soundscape/internal/api"
	"github.com/satindergrewal/soundscape/internal/audio"
	"github.com/satindergrewal/soundscape/internal/config"
	"github.com/satindergrewal/soundscape/internal/drift"
	"github.com/satindergrewal/soundscape/internal/engine"
	"github.com/satindergrewal/soundscape/internal/output"
	"github.com/satindergrewal/soundscape/internal/stream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Printf("soundscape starting up (output: %s)...", cfg.Output)
	gin.SetMode(cfg.GinMode)

	factory := audio.NewFactory(nil)
	hub := api.NewHub()

	// Output backend
	var (
		session     engine.Session
		broadcaster *stream.Broadcaster
		webrtc      *stream.WebRTCHandler
		streamH     http.Handler
	)
	switch cfg.Output {
	case config.OutputDevice:
		session = output.NewDeviceSession(cfg.SampleRate)
	default:
		pipeline := audio.NewPipeline()
		go pipeline.Run(ctx)

		broadcaster = stream.NewBroadcaster()
		go broadcaster.Run(ctx, pipeline.Frames())

		session = output.NewStreamSession(pipeline)
		webrtc = stream.NewWebRTCHandler(broadcaster, cfg.OpusBitrate)
		streamH = stream.NewHTTPHandler(broadcaster, stream.HTTPOptions{
			FFmpegPath: cfg.FFmpegPath,
			Bitrate:    cfg.MP3Bitrate,
		})
	}

	// Callbacks run in order on one goroutine, like a UI thread.
	callbacks := engine.NewQueue(256)
	go callbacks.Run(ctx)

	eng := engine.New(engine.Options{
		Session:      session,
		Factory:      factory,
		TickInterval: cfg.TickInterval(),
		Dispatch:     callbacks.Dispatch,
		Callbacks: engine.Callbacks{
			OnTimeUpdate: func(s float64) {
				hub.Publish(api.Event{Type: api.EventTime, Time: s})
			},
			OnPlaybackFinished: func() {
				hub.Publish(api.Event{Type: api.EventFinished})
			},
		},
	})

	// Interruptions from the host (signals) and the API
	interrupts := make(chan engine.Interruption, 4)
	go engine.NewCoordinator(eng, cfg.ResumeDelay()).Run(ctx, interrupts)
	go forwardInterruptSignals(ctx, interrupts)

	// Auto-drift
	dwellMin, dwellMax := cfg.DriftDwell()
	sched := drift.NewScheduler(eng, drift.Config{DwellMin: dwellMin, DwellMax: dwellMax}, nil)
	sched.OnDrift(func(from, to audio.SoundType) {
		hub.Publish(api.Event{Type: api.EventDrift, From: from.String(), To: to.String()})
	})
	if cfg.Drift {
		sched.SetEnabled(true)
	}
	go sched.Run(ctx)

	// Initial session
	d := engine.Infinite()
	if cfg.Duration > 0 {
		d = engine.Finite(cfg.Duration)
	}
	eng.SetupAudio(d, cfg.SoundType())
	if cfg.Autoplay {
		eng.Play()
	}

	deps := api.Deps{
		Player:      eng,
		Factory:     factory,
		Hub:         hub,
		Interrupts:  interrupts,
		Drift:       sched,
		Broadcaster: broadcaster,
		Stream:      streamH,
		ExportDir:   cfg.ExportDir,
		ExportRate:  cfg.SampleRate,
	}
	if webrtc != nil {
		deps.Offer = webrtc
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: api.NewRouter(deps)}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		hub.Close()
		if webrtc != nil {
			webrtc.Close()
		}
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("soundscape live on %s", addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}

	if err := eng.Close(); err != nil {
		log.Printf("Audio session close: %v", err)
	}
}
