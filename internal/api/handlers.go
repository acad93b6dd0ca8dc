package api

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/satindergrewal/soundscape/internal/audio"
	"github.com/satindergrewal/soundscape/internal/drift"
	"github.com/satindergrewal/soundscape/internal/engine"
	"github.com/satindergrewal/soundscape/internal/export"
	"github.com/satindergrewal/soundscape/internal/stream"
)

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Engine engine.Status `json:"engine"`
	Drift  *drift.Status `json:"drift,omitempty"`
	Stream *stream.Stats `json:"stream,omitempty"`
	Events int           `json:"event_clients"`
}

// SoundInfo describes one sound type.
type SoundInfo struct {
	Name  audio.SoundType `json:"name"`
	Label string          `json:"label"`
}

type setupRequest struct {
	Sound    *audio.SoundType `json:"sound" binding:"required"`
	Duration float64          `json:"duration"` // seconds, 0 = infinite
}

type seekRequest struct {
	To *float64 `json:"to" binding:"required"`
}

type speedRequest struct {
	Rate *float32 `json:"rate" binding:"required"`
}

type interruptionRequest struct {
	Event        string `json:"event" binding:"required,oneof=began ended"`
	ShouldResume bool   `json:"should_resume"`
}

type driftRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handlers) status(c *gin.Context) {
	resp := StatusResponse{
		Engine: h.Player.Status(),
		Events: h.Hub.ClientCount(),
	}
	if h.Drift != nil {
		st := h.Drift.Status()
		resp.Drift = &st
	}
	if h.Broadcaster != nil {
		st := h.Broadcaster.Stats()
		resp.Stream = &st
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) sounds(c *gin.Context) {
	types := audio.SoundTypes()
	out := make([]SoundInfo, len(types))
	for i, t := range types {
		out[i] = SoundInfo{Name: t, Label: t.Label()}
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) setup(c *gin.Context) {
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	if req.Duration < 0 || math.IsNaN(req.Duration) {
		problemBadRequest(c, "duration must be 0 (infinite) or a positive number of seconds")
		return
	}
	d := engine.Infinite()
	if req.Duration > 0 {
		d = engine.Finite(req.Duration)
	}
	h.Player.SetupAudio(d, *req.Sound)
	h.respondState(c)
}

func (h *Handlers) transport(action func(Player)) gin.HandlerFunc {
	return func(c *gin.Context) {
		action(h.Player)
		h.respondState(c)
	}
}

func (h *Handlers) seek(c *gin.Context) {
	var req seekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	h.Player.Seek(*req.To)
	h.respondState(c)
}

func (h *Handlers) speed(c *gin.Context) {
	var req speedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	if *req.Rate <= 0 {
		problemBadRequest(c, "rate must be positive")
		return
	}
	h.Player.SetSpeed(*req.Rate)
	h.respondState(c)
}

func (h *Handlers) interruption(c *gin.Context) {
	if h.Interrupts == nil {
		problemUnavailable(c, "interruption handling disabled")
		return
	}
	var req interruptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	ev := engine.Interruption{Kind: engine.InterruptionBegan}
	if req.Event == "ended" {
		ev = engine.Interruption{Kind: engine.InterruptionEnded, ShouldResume: req.ShouldResume}
	}

	select {
	case h.Interrupts <- ev:
		c.JSON(http.StatusAccepted, MessageResponse{Message: "interruption " + req.Event})
	case <-c.Request.Context().Done():
	}
}

func (h *Handlers) setDrift(c *gin.Context) {
	if h.Drift == nil {
		problemUnavailable(c, "auto-drift not configured")
		return
	}
	var req driftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	h.Drift.SetEnabled(*req.Enabled)
	c.JSON(http.StatusOK, h.Drift.Status())
}

// export renders a loop to a WAV attachment. Query: sound (default: the
// current sound), channels (default 2), sample_rate (default ExportRate).
func (h *Handlers) export(c *gin.Context) {
	sound := h.Player.Status().Sound
	if s := c.Query("sound"); s != "" {
		t, err := audio.ParseSoundType(s)
		if err != nil {
			problemBadRequest(c, err.Error())
			return
		}
		sound = t
	}
	channels, err := queryInt(c, "channels", audio.Channels)
	if err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	rate, err := queryInt(c, "sample_rate", h.ExportRate)
	if err != nil {
		problemBadRequest(c, err.Error())
		return
	}
	if channels < 1 || channels > audio.Channels || rate < 8000 || rate > 192000 {
		problemBadRequest(c, fmt.Sprintf("unsupported layout: %d ch at %d Hz", channels, rate))
		return
	}

	path, err := export.RenderFile(h.Factory, h.ExportDir, sound, rate, channels)
	if err != nil {
		log.Printf("Export %s failed: %v", sound, err)
		problemInternal(c, "export failed")
		return
	}
	defer os.Remove(path)
	c.FileAttachment(path, sound.String()+".wav")
}

func (h *Handlers) respondState(c *gin.Context) {
	st := h.Player.Status()
	h.Hub.Publish(Event{Type: EventState, Status: &st})
	c.JSON(http.StatusOK, st)
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return n, nil
}
