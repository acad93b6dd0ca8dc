// Package export renders soundscape loops to WAV files.
package export

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/satindergrewal/soundscape/internal/audio"
)

const (
	bitDepth  = 16
	formatPCM = 1
)

// Write encodes b as 16-bit PCM WAV. The encoder seeks back to patch the
// header, hence the io.WriteSeeker.
func Write(w io.WriteSeeker, b *audio.Buffer) error {
	channels := b.Channels()
	frames := b.Frames()

	data := make([]int, frames*channels)
	for c := 0; c < channels; c++ {
		ch := b.Channel(c)
		for f, v := range ch {
			data[f*channels+c] = int(audio.FloatToInt16(v))
		}
	}

	enc := wav.NewEncoder(w, int(b.SampleRate()), bitDepth, channels, formatPCM)
	err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: int(b.SampleRate())},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finish wav: %w", err)
	}
	return nil
}

// RenderFile builds a loop of t with f and writes it to a new file in dir.
// It returns the file path.
func RenderFile(f *audio.Factory, dir string, t audio.SoundType, sampleRate, channels int) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: %d", audio.ErrUnknownSoundType, int(t))
	}
	if sampleRate <= 0 || channels < 1 || channels > audio.Channels {
		return "", fmt.Errorf("invalid layout: %d ch at %d Hz", channels, sampleRate)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	file, err := os.CreateTemp(dir, t.String()+"-*.wav")
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	buf := f.Build(t, float64(sampleRate), channels, 0)
	if err := Write(file, buf); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close export file: %w", err)
	}
	return file.Name(), nil
}
