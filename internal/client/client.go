// Package client talks to a running soundscape server's control API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Client calls the soundscape HTTP API.
type Client struct {
	apiURL string
	http   *http.Client
}

// New creates a client for the server at apiURL (e.g. http://localhost:8080).
func New(apiURL string) *Client {
	return &Client{
		apiURL: apiURL,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Status mirrors the engine status returned by the server.
type Status struct {
	SessionID   string  `json:"session_id"`
	State       string  `json:"state"`
	Sound       string  `json:"sound"`
	Duration    float64 `json:"duration"`
	Infinite    bool    `json:"infinite"`
	CurrentTime float64 `json:"current_time"`
	Progress    float64 `json:"progress"`
	Setup       string  `json:"setup"`
	Channels    int     `json:"channels"`
	SampleRate  float64 `json:"sample_rate"`
	Speed       float64 `json:"speed"`
}

// APIError is a problem response from the server.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Title)
}

// WaitForHealthy blocks until the server answers status requests.
func (c *Client) WaitForHealthy(ctx context.Context, interval time.Duration) error {
	for {
		if _, err := c.Status(ctx); err == nil {
			return nil
		} else if ctx.Err() == nil {
			log.Printf("soundscape not ready (%v), retrying in %v...", err, interval)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Status fetches the engine status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var resp struct {
		Engine Status `json:"engine"`
	}
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &resp)
	return resp.Engine, err
}

// Setup configures a session. A duration of 0 means infinite.
func (c *Client) Setup(ctx context.Context, sound string, duration float64) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodPost, "/api/setup", map[string]any{"sound": sound, "duration": duration}, &st)
	return st, err
}

func (c *Client) Play(ctx context.Context) (Status, error)  { return c.transport(ctx, "play") }
func (c *Client) Pause(ctx context.Context) (Status, error) { return c.transport(ctx, "pause") }
func (c *Client) Stop(ctx context.Context) (Status, error)  { return c.transport(ctx, "stop") }

func (c *Client) transport(ctx context.Context, action string) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodPost, "/api/"+action, nil, &st)
	return st, err
}

// Seek moves the session time cursor.
func (c *Client) Seek(ctx context.Context, to float64) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodPost, "/api/seek", map[string]float64{"to": to}, &st)
	return st, err
}

// Interrupt reports an interruption edge to the server.
func (c *Client) Interrupt(ctx context.Context, began, shouldResume bool) error {
	event := "ended"
	if began {
		event = "began"
	}
	return c.do(ctx, http.MethodPost, "/api/interruption",
		map[string]any{"event": event, "should_resume": shouldResume}, nil)
}

// Export downloads a rendered loop to a new WAV file in dir and returns its
// path. Empty sound means the current one; zero values use server defaults.
func (c *Client) Export(ctx context.Context, dir, sound string, channels, sampleRate int) (string, error) {
	q := url.Values{}
	if sound != "" {
		q.Set("sound", sound)
	}
	if channels > 0 {
		q.Set("channels", strconv.Itoa(channels))
	}
	if sampleRate > 0 {
		q.Set("sample_rate", strconv.Itoa(sampleRate))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/api/export?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", decodeProblem(resp)
	}

	name := sound
	if name == "" {
		name = "soundscape"
	}
	tmpFile, err := os.CreateTemp(dir, name+"-*.wav")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("write audio: %w", err)
	}
	return tmpFile.Name(), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, r)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeProblem(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeProblem(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil && !errors.Is(err, io.EOF) {
		log.Printf("Undecodable error body (%d): %v", resp.StatusCode, err)
	}
	return apiErr
}
