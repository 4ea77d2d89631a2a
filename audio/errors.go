package audio

import "errors"

var (
	ErrChannelDestroyed = errors.New("audio: channel has been destroyed")
	ErrNoClip           = errors.New("audio: channel has no clip")
)
