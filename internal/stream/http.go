package stream

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/exec"
	"strconv"

	"github.com/satindergrewal/soundscape/internal/audio"
)

// HTTPOptions configure the HTTP stream.
type HTTPOptions struct {
	FFmpegPath string // "ffmpeg" when empty
	Bitrate    string // MP3 bitrate, "192k" when empty
	Name       string // ICY station name
}

// HTTPHandler serves the soundscape as a chunked audio stream. The default
// format is MP3, encoded by one FFmpeg process per connection;
// ?format=pcm serves raw s16le stereo at audio.SampleRate.
type HTTPHandler struct {
	broadcaster *Broadcaster
	opts        HTTPOptions
}

// NewHTTPHandler creates an HTTP stream handler.
func NewHTTPHandler(b *Broadcaster, opts HTTPOptions) *HTTPHandler {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.Bitrate == "" {
		opts.Bitrate = "192k"
	}
	if opts.Name == "" {
		opts.Name = "soundscape"
	}
	return &HTTPHandler{broadcaster: b, opts: opts}
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("ICY-Name", h.opts.Name)

	if r.URL.Query().Get("format") == "pcm" {
		h.servePCM(r.Context(), w, flusher)
		return
	}
	h.serveMP3(r.Context(), w, flusher)
}

// servePCM writes listener frames straight to the response.
func (h *HTTPHandler) servePCM(ctx context.Context, w http.ResponseWriter, flusher http.Flusher) {
	w.Header().Set("Content-Type", "audio/L16;rate="+strconv.Itoa(audio.SampleRate)+";channels="+strconv.Itoa(audio.Channels))
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)
	log.Printf("PCM listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer log.Printf("PCM listener disconnected")

	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-listener.C:
			if _, err := w.Write(audio.SamplesToBytes(frame)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *HTTPHandler) serveMP3(ctx context.Context, w http.ResponseWriter, flusher http.Flusher) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// FFmpeg: PCM stdin -> MP3 stdout
	cmd := exec.CommandContext(ctx, h.opts.FFmpegPath,
		"-f", "s16le",
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", h.opts.Bitrate,
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		log.Printf("HTTP stream: stdin pipe error: %v", err)
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Printf("HTTP stream: stdout pipe error: %v", err)
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}
	if err := cmd.Start(); err != nil {
		log.Printf("HTTP stream: ffmpeg start error: %v", err)
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)

	log.Printf("MP3 listener connected (total: %d)", h.broadcaster.ListenerCount())
	defer log.Printf("MP3 listener disconnected")

	// Feed PCM frames to FFmpeg
	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Done():
				return
			case frame := <-listener.C:
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	// Read MP3 from FFmpeg and write to HTTP response
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("HTTP stream: ffmpeg read error: %v", err)
			}
			break
		}
	}

	cancel()
	cmd.Wait()
}
