package audio

import (
	"fmt"
	"strings"
	"time"
)

const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)

	// LoopSeconds is the length of every generated buffer. Sessions of any
	// length loop it, so generation cost does not grow with listening time.
	LoopSeconds = 2.0
)

// SoundType selects one of the procedural soundscapes.
type SoundType int

const (
	WhiteNoise SoundType = iota
	BrownNoise
	PinkNoise
	Rain
	Ocean
	Thunderstorm
	Fire
	Stream
)

var soundNames = [...]string{
	WhiteNoise:   "white",
	BrownNoise:   "brown",
	PinkNoise:    "pink",
	Rain:         "rain",
	Ocean:        "ocean",
	Thunderstorm: "thunderstorm",
	Fire:         "fire",
	Stream:       "stream",
}

var soundLabels = [...]string{
	WhiteNoise:   "White Noise",
	BrownNoise:   "Brown Noise",
	PinkNoise:    "Pink Noise",
	Rain:         "Rain",
	Ocean:        "Ocean Waves",
	Thunderstorm: "Thunderstorm",
	Fire:         "Crackling Fire",
	Stream:       "Forest Stream",
}

// SoundTypes returns every sound type in declaration order.
func SoundTypes() []SoundType {
	types := make([]SoundType, len(soundNames))
	for i := range soundNames {
		types[i] = SoundType(i)
	}
	return types
}

// Valid reports whether t is one of the known sound types.
func (t SoundType) Valid() bool {
	return t >= 0 && int(t) < len(soundNames)
}

func (t SoundType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("SoundType(%d)", int(t))
	}
	return soundNames[t]
}

// Label is the display name shown to listeners.
func (t SoundType) Label() string {
	if !t.Valid() {
		return t.String()
	}
	return soundLabels[t]
}

// ParseSoundType accepts the short names ("rain", "pink") and the
// "<color>_noise" spellings, case-insensitively.
func ParseSoundType(s string) (SoundType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "_", " ", "_").Replace(name)
	name = strings.TrimSuffix(name, "_noise")
	for i, n := range soundNames {
		if n == name {
			return SoundType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSoundType, s)
}

func (t SoundType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSoundType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *SoundType) UnmarshalText(text []byte) error {
	parsed, err := ParseSoundType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
