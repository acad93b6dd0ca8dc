package audio

import (
	"math"
	"testing"
)

const testRate = 8000

// Per-type amplitude envelopes of the raw generators, before the factory
// clips. Thunderstorm is the sum of its term bounds (0.35 rumble + 0.8
// crack + 0.1 rain + 0.08 wind); pink is a measured bound with headroom.
// Rain's band-pass has no fixed bound, see TestRainIsClippedByFactory.
var envelopes = map[SoundType]float64{
	WhiteNoise:   0.3,
	BrownNoise:   0.2,
	PinkNoise:    0.7,
	Ocean:        0.6,
	Thunderstorm: 1.33,
	Fire:         0.35,
	Stream:       0.7,
}

func TestEveryTypeHasGenerator(t *testing.T) {
	for _, st := range SoundTypes() {
		if _, ok := GeneratorFor(st); !ok {
			t.Errorf("no generator for %v", st)
		}
		if _, ok := envelopes[st]; !ok && st != Rain {
			t.Errorf("no envelope for %v", st)
		}
	}
}

func TestGeneratorsWithinEnvelope(t *testing.T) {
	dst := make([]float32, 4*SampleRate)
	for st, envelope := range envelopes {
		t.Run(st.String(), func(t *testing.T) {
			gen, _ := GeneratorFor(st)
			limit := envelope + 1e-6
			for seed := uint64(1); seed <= 4; seed++ {
				gen(dst, SampleRate, NewRand(seed))
				for i, s := range dst {
					if math.IsNaN(float64(s)) || math.Abs(float64(s)) > limit {
						t.Fatalf("seed %d sample %d = %v outside ±%v", seed, i, s, envelope)
					}
				}
			}
		})
	}
}

func TestRainIsClippedByFactory(t *testing.T) {
	raw := make([]float32, LoopFrames(testRate))
	RainGen(raw, testRate, NewRand(7))
	var peak float64
	for _, s := range raw {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	if peak <= 1 {
		t.Fatalf("raw rain peak = %v, expected the band-pass to overshoot 1", peak)
	}

	buf := NewFactory(NewRand(7)).Build(Rain, testRate, 1, 0)
	clipped := 0
	for i, s := range buf.Channel(0) {
		if math.Abs(float64(s)) > 1 {
			t.Fatalf("sample %d = %v escaped the clip", i, s)
		}
		if math.Abs(float64(s)) == 1 {
			clipped++
		}
	}
	if clipped == 0 {
		t.Error("no rain sample sits at the clip limit")
	}
}

func TestBuiltSamplesWithinUnitRange(t *testing.T) {
	f := NewFactory(NewRand(7))
	for _, st := range SoundTypes() {
		buf := f.Build(st, testRate, 2, 0)
		for c := 0; c < buf.Channels(); c++ {
			for i, s := range buf.Channel(c) {
				if math.IsNaN(float64(s)) || math.Abs(float64(s)) > 1 {
					t.Fatalf("%v channel %d sample %d = %v outside [-1,1]", st, c, i, s)
				}
			}
		}
	}
}

func TestChannelsAreDecorrelated(t *testing.T) {
	f := NewFactory(NewRand(11))
	for _, st := range SoundTypes() {
		buf := f.Build(st, testRate, 2, 0)
		left, right := buf.Channel(0), buf.Channel(1)
		identical := true
		for i := range left {
			if left[i] != right[i] {
				identical = false
				break
			}
		}
		if identical {
			t.Errorf("%v: left and right channels are identical", st)
		}
	}
}

func TestSeededGenerationIsReproducible(t *testing.T) {
	for _, st := range SoundTypes() {
		a := NewFactory(NewRand(99)).Build(st, testRate, 1, 0)
		b := NewFactory(NewRand(99)).Build(st, testRate, 1, 0)
		for i, s := range a.Channel(0) {
			if b.Channel(0)[i] != s {
				t.Errorf("%v: sample %d differs between identically seeded runs", st, i)
				break
			}
		}
	}
}

func TestWhiteNoiseIsCentred(t *testing.T) {
	dst := make([]float32, 20000)
	White(dst, testRate, NewRand(3))
	var sum float64
	for _, s := range dst {
		sum += float64(s)
	}
	if mean := sum / float64(len(dst)); math.Abs(mean) > 0.01 {
		t.Errorf("white noise mean = %v, want ~0", mean)
	}
}

func TestBrownNoiseIsSmootherThanWhite(t *testing.T) {
	white := make([]float32, 10000)
	brown := make([]float32, 10000)
	White(white, testRate, NewRand(5))
	Brown(brown, testRate, NewRand(5))
	if d := meanAbsDelta(brown); d >= meanAbsDelta(white) {
		t.Errorf("brown mean |Δ| = %v, not below white %v", d, meanAbsDelta(white))
	}
}

func TestThunderstormCrackAtLoopStart(t *testing.T) {
	// The crack window covers the first 0.1s of every 20s; it is always
	// positive and at least 0.4 before rumble, rain and wind are added.
	dst := make([]float32, testRate/10)
	ThunderstormGen(dst, testRate, NewRand(1))
	for i, s := range dst {
		if s < 0.4-0.1-1e-6 {
			t.Fatalf("sample %d = %v, want crack-dominated value", i, s)
		}
	}
}

func TestFireIsMostlyQuiet(t *testing.T) {
	dst := make([]float32, 20000)
	FireGen(dst, testRate, NewRand(8))
	loud := 0
	for _, s := range dst {
		if s > (0.15+0.05+0.08)*0.35+1e-6 {
			loud++
		}
	}
	// pops happen on roughly 4 in 800 samples
	if loud == 0 || loud > len(dst)/50 {
		t.Errorf("%d samples above the crackle floor, want a sparse handful", loud)
	}
}

func meanAbsDelta(s []float32) float64 {
	var sum float64
	for i := 1; i < len(s); i++ {
		sum += math.Abs(float64(s[i] - s[i-1]))
	}
	return sum / float64(len(s)-1)
}
