package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/satindergrewal/soundscape/internal/audio"
	"gopkg.in/hraban/opus.v2"
)

// DefaultOpusBitrate is the Opus target bitrate for WebRTC peers.
const DefaultOpusBitrate = 128000

// WebRTCHandler negotiates WebRTC sessions (SDP offer in, answer out) and
// streams the soundscape to each peer as Opus.
type WebRTCHandler struct {
	broadcaster *Broadcaster
	bitrate     int

	mu    sync.Mutex
	peers []*webrtc.PeerConnection
}

// NewWebRTCHandler creates a WebRTC stream handler. A non-positive bitrate
// uses DefaultOpusBitrate.
func NewWebRTCHandler(b *Broadcaster, bitrate int) *WebRTCHandler {
	if bitrate <= 0 {
		bitrate = DefaultOpusBitrate
	}
	return &WebRTCHandler{broadcaster: b, bitrate: bitrate}
}

// PeerCount returns the number of active WebRTC peers.
func (h *WebRTCHandler) PeerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Close hangs up every peer.
func (h *WebRTCHandler) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = nil
	h.mu.Unlock()
	for _, pc := range peers {
		pc.Close()
	}
}

func (h *WebRTCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		http.Error(w, "invalid SDP offer", http.StatusBadRequest)
		return
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		http.Error(w, "create peer connection failed", http.StatusInternalServerError)
		return
	}

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: audio.SampleRate, Channels: audio.Channels},
		"audio",
		"soundscape",
	)
	if err != nil {
		pc.Close()
		http.Error(w, "create audio track failed", http.StatusInternalServerError)
		return
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		http.Error(w, "add track failed", http.StatusInternalServerError)
		return
	}

	if err := pc.SetRemoteDescription(offer); err != nil {
		pc.Close()
		http.Error(w, "set remote description failed", http.StatusBadRequest)
		return
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		http.Error(w, "create answer failed", http.StatusInternalServerError)
		return
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		http.Error(w, "set local description failed", http.StatusInternalServerError)
		return
	}

	// non-trickle: answer with every candidate gathered
	<-webrtc.GatheringCompletePromise(pc)

	h.mu.Lock()
	h.peers = append(h.peers, pc)
	h.mu.Unlock()
	log.Printf("WebRTC peer connected (total: %d)", h.PeerCount())

	hangup := make(chan struct{})
	var once sync.Once
	go h.streamToPeer(pc, track, hangup)

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		switch s {
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed, webrtc.PeerConnectionStateDisconnected:
			once.Do(func() { close(hangup) })
			if h.removePeer(pc) {
				pc.Close()
				log.Printf("WebRTC peer disconnected (remaining: %d)", h.PeerCount())
			}
		}
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pc.LocalDescription())
}

func (h *WebRTCHandler) streamToPeer(pc *webrtc.PeerConnection, track *webrtc.TrackLocalStaticSample, hangup <-chan struct{}) {
	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	enc, err := opus.NewEncoder(audio.SampleRate, audio.Channels, opus.AppAudio)
	if err != nil {
		log.Printf("WebRTC: opus encoder error: %v", err)
		pc.Close()
		return
	}
	if err := enc.SetBitrate(h.bitrate); err != nil {
		log.Printf("WebRTC: opus bitrate %d rejected: %v", h.bitrate, err)
	}

	opusBuf := make([]byte, 4000)
	for {
		select {
		case <-hangup:
			return
		case frame := <-listener.C:
			n, err := enc.Encode(frame, opusBuf)
			if err != nil {
				log.Printf("WebRTC: opus encode error: %v", err)
				continue
			}
			if err := track.WriteSample(media.Sample{
				Data:     opusBuf[:n],
				Duration: audio.FrameDuration,
			}); err != nil {
				return
			}
		}
	}
}

// removePeer reports whether pc was still registered.
func (h *WebRTCHandler) removePeer(pc *webrtc.PeerConnection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, p := range h.peers {
		if p == pc {
			h.peers = append(h.peers[:i], h.peers[i+1:]...)
			return true
		}
	}
	return false
}
