package drift

import (
	"slices"

	"github.com/satindergrewal/soundscape/internal/audio"
)

// Adjacency is the sound graph the scheduler walks. Edges join sounds that
// blend into each other, so a drift never jumps across the graph. Every
// edge is listed in both directions.
var Adjacency = map[audio.SoundType][]audio.SoundType{
	audio.WhiteNoise:   {audio.PinkNoise},
	audio.PinkNoise:    {audio.WhiteNoise, audio.BrownNoise},
	audio.BrownNoise:   {audio.PinkNoise, audio.Ocean, audio.Fire},
	audio.Ocean:        {audio.BrownNoise, audio.Stream, audio.Rain},
	audio.Stream:       {audio.Ocean, audio.Rain},
	audio.Rain:         {audio.Ocean, audio.Stream, audio.Thunderstorm, audio.Fire},
	audio.Thunderstorm: {audio.Rain},
	audio.Fire:         {audio.BrownNoise, audio.Rain},
}

// Neighbors returns the sounds reachable from t in one step.
func Neighbors(t audio.SoundType) []audio.SoundType {
	return slices.Clone(Adjacency[t])
}
