// Package api exposes the engine over HTTP: a JSON control API, a websocket
// event feed and the audio streams.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/satindergrewal/soundscape/internal/audio"
	"github.com/satindergrewal/soundscape/internal/drift"
	"github.com/satindergrewal/soundscape/internal/engine"
	"github.com/satindergrewal/soundscape/internal/stream"
)

// Player is the engine surface the API drives.
type Player interface {
	Status() engine.Status
	SetupAudio(d engine.Duration, t audio.SoundType)
	Play()
	Pause()
	Stop()
	Seek(to float64)
	SetSpeed(rate float32)
}

// Deps are the components behind the routes. Drift, Broadcaster, Stream and
// Offer are optional.
type Deps struct {
	Player      Player
	Factory     *audio.Factory
	Hub         *Hub
	Interrupts  chan<- engine.Interruption
	Drift       *drift.Scheduler
	Broadcaster *stream.Broadcaster
	Stream      http.Handler
	Offer       http.Handler
	ExportDir   string
	ExportRate  int
}

// Handlers hold the route dependencies.
type Handlers struct {
	Deps
}

// NewRouter builds the gin engine with every route registered. The caller
// sets the gin mode.
func NewRouter(d Deps) *gin.Engine {
	if d.Factory == nil {
		d.Factory = audio.NewFactory(nil)
	}
	if d.Hub == nil {
		d.Hub = NewHub()
	}
	if d.ExportRate <= 0 {
		d.ExportRate = audio.SampleRate
	}
	h := &Handlers{Deps: d}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/status", h.status)
		api.GET("/sounds", h.sounds)
		api.POST("/setup", h.setup)
		api.POST("/play", h.transport(Player.Play))
		api.POST("/pause", h.transport(Player.Pause))
		api.POST("/stop", h.transport(Player.Stop))
		api.POST("/seek", h.seek)
		api.POST("/speed", h.speed)
		api.POST("/interruption", h.interruption)
		api.POST("/drift", h.setDrift)
		api.GET("/export", h.export)
		api.GET("/events", gin.WrapF(d.Hub.ServeWS))
	}

	if d.Stream != nil {
		r.GET("/stream", gin.WrapH(d.Stream))
	}
	if d.Offer != nil {
		r.POST("/offer", gin.WrapH(d.Offer))
		r.OPTIONS("/offer", gin.WrapH(d.Offer))
	}
	return r
}
