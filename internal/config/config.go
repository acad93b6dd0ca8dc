package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/satindergrewal/soundscape/internal/audio"
	"gopkg.in/yaml.v3"
)

// Output backends.
const (
	OutputStream = "stream"
	OutputDevice = "device"
)

// Config holds all runtime configuration. Values come from the defaults,
// then the YAML file named by SOUNDSCAPE_CONFIG, then the environment.
type Config struct {
	// Server
	Port    int    `yaml:"port"`
	GinMode string `yaml:"gin_mode"`

	// Output
	Output      string `yaml:"output"` // stream or device
	SampleRate  int    `yaml:"sample_rate"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	MP3Bitrate  string `yaml:"mp3_bitrate"`
	OpusBitrate int    `yaml:"opus_bitrate"`

	// Session
	Sound    string  `yaml:"sound"`
	Duration float64 `yaml:"duration"` // seconds, 0 = infinite
	Autoplay bool    `yaml:"autoplay"`
	TickMS   int     `yaml:"tick_ms"`
	ResumeMS int     `yaml:"resume_delay_ms"`

	// Export
	ExportDir string `yaml:"export_dir"`

	// Auto-drift
	Drift    bool `yaml:"drift"`
	DriftMin int  `yaml:"drift_min"` // min seconds per sound
	DriftMax int  `yaml:"drift_max"` // max seconds per sound
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:        8080,
		GinMode:     "release",
		Output:      OutputStream,
		SampleRate:  audio.SampleRate,
		FFmpegPath:  "ffmpeg",
		MP3Bitrate:  "192k",
		OpusBitrate: 128000,
		Sound:       audio.Rain.String(),
		TickMS:      100,
		ResumeMS:    500,
		ExportDir:   "/tmp/soundscape",
		DriftMin:    300,
		DriftMax:    900,
	}
}

// Load builds the configuration and validates it.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("SOUNDSCAPE_CONFIG"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.overlayEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.Port = envInt("SOUNDSCAPE_PORT", c.Port)
	c.GinMode = envStr("SOUNDSCAPE_GIN_MODE", c.GinMode)

	c.Output = strings.ToLower(envStr("SOUNDSCAPE_OUTPUT", c.Output))
	c.SampleRate = envInt("SOUNDSCAPE_SAMPLE_RATE", c.SampleRate)
	c.FFmpegPath = envStr("SOUNDSCAPE_FFMPEG", c.FFmpegPath)
	c.MP3Bitrate = envStr("SOUNDSCAPE_MP3_BITRATE", c.MP3Bitrate)
	c.OpusBitrate = envInt("SOUNDSCAPE_OPUS_BITRATE", c.OpusBitrate)

	c.Sound = envStr("SOUNDSCAPE_SOUND", c.Sound)
	c.Duration = envFloat("SOUNDSCAPE_DURATION", c.Duration)
	c.Autoplay = envBool("SOUNDSCAPE_AUTOPLAY", c.Autoplay)
	c.TickMS = envInt("SOUNDSCAPE_TICK_MS", c.TickMS)
	c.ResumeMS = envInt("SOUNDSCAPE_RESUME_DELAY_MS", c.ResumeMS)

	c.ExportDir = envStr("SOUNDSCAPE_EXPORT_DIR", c.ExportDir)

	c.Drift = envBool("SOUNDSCAPE_DRIFT", c.Drift)
	c.DriftMin = envInt("SOUNDSCAPE_DRIFT_MIN", c.DriftMin)
	c.DriftMax = envInt("SOUNDSCAPE_DRIFT_MAX", c.DriftMax)
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Output != OutputStream && c.Output != OutputDevice {
		errs = append(errs, fmt.Errorf("output %q: want %q or %q", c.Output, OutputStream, OutputDevice))
	}
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate %d must be positive", c.SampleRate))
	}
	if c.Output == OutputStream && c.SampleRate != audio.SampleRate {
		errs = append(errs, fmt.Errorf("stream output runs at %d Hz, got %d", audio.SampleRate, c.SampleRate))
	}
	if _, err := audio.ParseSoundType(c.Sound); err != nil {
		errs = append(errs, err)
	}
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration %v must not be negative", c.Duration))
	}
	if c.TickMS <= 0 {
		errs = append(errs, fmt.Errorf("tick %dms must be positive", c.TickMS))
	}
	if c.DriftMin <= 0 || c.DriftMax < c.DriftMin {
		errs = append(errs, fmt.Errorf("drift dwell %d..%ds invalid", c.DriftMin, c.DriftMax))
	}
	return errors.Join(errs...)
}

// SoundType is the parsed starting sound.
func (c Config) SoundType() audio.SoundType {
	t, err := audio.ParseSoundType(c.Sound)
	if err != nil {
		return audio.Rain
	}
	return t
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

func (c Config) ResumeDelay() time.Duration {
	return time.Duration(c.ResumeMS) * time.Millisecond
}

func (c Config) DriftDwell() (lo, hi time.Duration) {
	return time.Duration(c.DriftMin) * time.Second, time.Duration(c.DriftMax) * time.Second
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
