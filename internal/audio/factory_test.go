package audio

import (
	"math"
	"sync"
	"testing"
)

func TestBuildFrameCountIgnoresSessionLength(t *testing.T) {
	f := NewFactory(NewRand(1))
	tests := []struct {
		sampleRate float64
		duration   float64
		want       int
	}{
		{44100, 60, 88200},
		{48000, 3600, 96000},
		{8000, 0, 16000},
		{11025.25, 5, 22051}, // round(22050.5)
		{22050, math.Inf(1), 44100},
	}
	for _, tt := range tests {
		buf := f.Build(Rain, tt.sampleRate, 2, tt.duration)
		if buf.Frames() != tt.want {
			t.Errorf("Build at %v Hz for %vs: frames = %d, want %d", tt.sampleRate, tt.duration, buf.Frames(), tt.want)
		}
		for c := 0; c < buf.Channels(); c++ {
			if len(buf.Channel(c)) != buf.Frames() {
				t.Errorf("channel %d length = %d, want %d", c, len(buf.Channel(c)), buf.Frames())
			}
		}
		if buf.SampleRate() != tt.sampleRate {
			t.Errorf("SampleRate = %v, want %v", buf.SampleRate(), tt.sampleRate)
		}
	}
}

func TestBuildChannelCount(t *testing.T) {
	f := NewFactory(NewRand(1))
	for _, ch := range []int{1, 2, 4} {
		if got := f.Build(PinkNoise, testRate, ch, 0).Channels(); got != ch {
			t.Errorf("Build with %d channels returned %d", ch, got)
		}
	}
}

func TestBuildPanicsOnInvalidParameters(t *testing.T) {
	f := NewFactory(NewRand(1))
	for _, tc := range []struct {
		name       string
		sound      SoundType
		sampleRate float64
		channels   int
	}{
		{"zero channels", WhiteNoise, 48000, 0},
		{"zero sample rate", WhiteNoise, 0, 2},
		{"unknown sound", SoundType(99), 48000, 2},
	} {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Build did not panic")
				}
			}()
			f.Build(tc.sound, tc.sampleRate, tc.channels, 0)
		})
	}
}

func TestBuildConcurrentUse(t *testing.T) {
	f := NewFactory(nil)
	var wg sync.WaitGroup
	for _, st := range SoundTypes() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Build(st, testRate, 2, 0)
		}()
	}
	wg.Wait()
}

func TestBuildReplacesRatherThanReuses(t *testing.T) {
	f := NewFactory(NewRand(4))
	a := f.Build(WhiteNoise, testRate, 1, 0)
	b := f.Build(WhiteNoise, testRate, 1, 0)
	if &a.Channel(0)[0] == &b.Channel(0)[0] {
		t.Error("two builds share sample storage")
	}
}
