package audio

import "math"

// Generator fills dst with one channel of a soundscape. Filter and
// integrator state lives inside a single call, so successive calls that
// share r produce independent, decorrelated channels.
type Generator func(dst []float32, sampleRate float64, r Rand)

var generators = map[SoundType]Generator{
	WhiteNoise:   White,
	BrownNoise:   Brown,
	PinkNoise:    Pink,
	Rain:         RainGen,
	Ocean:        OceanGen,
	Thunderstorm: ThunderstormGen,
	Fire:         FireGen,
	Stream:       StreamGen,
}

// GeneratorFor returns the generator of t.
func GeneratorFor(t SoundType) (Generator, bool) {
	g, ok := generators[t]
	return g, ok
}

// White is uniform noise in ±0.3.
func White(dst []float32, _ float64, r Rand) {
	for i := range dst {
		dst[i] = float32(uniform(r, -0.3, 0.3))
	}
}

// Brown is a leaky integrator over white noise.
func Brown(dst []float32, _ float64, r Rand) {
	var last float64
	for i := range dst {
		white := uniform(r, -1, 1)
		last = (last + 0.02*white) / 1.02
		dst[i] = float32(last * 0.2)
	}
}

// Pink uses Paul Kellet's economy 4-pole filter.
func Pink(dst []float32, _ float64, r Rand) {
	var b0, b1, b2, b3 float64
	for i := range dst {
		white := uniform(r, -1, 1)
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		dst[i] = float32((b0 + b1 + b2 + b3 + white*0.5362) * 0.08)
	}
}

// RainGen mixes band-passed hiss with random droplets, distant thunder and leaf noise.
func RainGen(dst []float32, _ float64, r Rand) {
	var hp1, bp2 float64
	for i := range dst {
		white := uniform(r, -1, 1)
		hp1 = 0.95*hp1 + white
		highPass := white - hp1
		bp2 = 0.85*bp2 + highPass*0.5

		var droplet float64
		switch {
		case oneIn(r, 150):
			droplet = uniform(r, 0.3, 0.6)
		case oneIn(r, 30):
			droplet = uniform(r, 0.1, 0.3)
		}

		thunder := math.Sin(float64(i)*0.00008) * 0.03
		leaves := uniform(r, -0.08, 0.08)
		dst[i] = float32((bp2*0.4 + droplet + thunder + leaves) * 0.25)
	}
}

// OceanGen layers three slow wave sinusoids with an occasional swell and foam.
func OceanGen(dst []float32, sampleRate float64, r Rand) {
	for i := range dst {
		t := float64(i) / sampleRate
		waves := math.Sin(t*0.3)*0.2 + math.Sin(t*0.47)*0.15 + math.Sin(t*0.71)*0.1
		swell := math.Max(0, math.Sin(t*0.08)-0.8) * 0.3
		foam := uniform(r, -0.08, 0.08) * math.Abs(math.Sin(t*2))
		dst[i] = float32(waves + swell + foam)
	}
}

// ThunderstormGen is a low rumble with a thunder crack at the start of every 20s cycle.
func ThunderstormGen(dst []float32, sampleRate float64, r Rand) {
	for i := range dst {
		t := float64(i) / sampleRate
		rumble := math.Sin(t*0.2)*0.2 + math.Sin(t*0.35)*0.15

		var crack float64
		switch k := int(t*10) % 200; k {
		case 0:
			crack = uniform(r, 0.4, 0.8)
		case 1, 2:
			crack = uniform(r, 0.2, 0.4) * float64(3-k) / 3
		}

		heavyRain := uniform(r, -0.1, 0.1)
		wind := math.Sin(t*1.5) * 0.08
		dst[i] = float32(rumble + crack + heavyRain + wind)
	}
}

// FireGen is soft crackle with sparse pops over a slow roar.
func FireGen(dst []float32, _ float64, r Rand) {
	for i := range dst {
		crackle := uniform(r, -0.15, 0.15)

		// one draw: 1 in 800 for a loud pop, 3 in 800 for a soft one
		var pop float64
		switch n := r.IntN(800); {
		case n == 0:
			pop = uniform(r, 0.3, 0.6)
		case n <= 3:
			pop = uniform(r, 0.15, 0.3)
		}

		sizzle := uniform(r, -0.05, 0.05) * r.Float64()
		roar := math.Sin(float64(i)*0.003) * 0.08
		dst[i] = float32((crackle + pop + sizzle + roar) * 0.35)
	}
}

// StreamGen is fast-moving water: sinusoidal flow, babble, ripples and rare splashes.
func StreamGen(dst []float32, sampleRate float64, r Rand) {
	for i := range dst {
		t := float64(i) / sampleRate
		flow := math.Sin(t*3.0)*0.15 + math.Sin(t*7.2)*0.1 + math.Sin(t*11.5)*0.06
		babble := uniform(r, -0.08, 0.08) * math.Abs(math.Sin(t*15))

		var splash float64
		if oneIn(r, 300) {
			splash = uniform(r, 0.1, 0.25)
		}

		ripple := uniform(r, -0.04, 0.04)
		dst[i] = float32(flow + babble + splash + ripple)
	}
}
