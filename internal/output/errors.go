package output

import "errors"

var (
	ErrNotActive         = errors.New("audio session not active")
	ErrChannelMismatch   = errors.New("channel layout differs from the open device")
	ErrUnsupportedLayout = errors.New("unsupported channel layout")
	ErrGraphClosed       = errors.New("audio graph closed")
)
