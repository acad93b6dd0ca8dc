package audio

import "errors"

var (
	ErrUnknownSoundType = errors.New("unknown sound type")
	ErrNotScheduled     = errors.New("no buffer scheduled")
)
