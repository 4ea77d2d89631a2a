package audio

import (
	"time"

	"github.com/achilleasa/soundzone/types"
)

// Distance attenuation curve applied by the channel backend.
type Rolloff uint8

const (
	LogarithmicRolloff Rolloff = iota
	LinearRolloff
)

func (r Rolloff) String() string {
	if r == LinearRolloff {
		return "linear"
	}
	return "logarithmic"
}

// A Clip is a piece of audio that can be assigned to a channel. Clips are
// compared by identity.
type Clip interface {
	Name() string
	Duration() time.Duration
}

// Playback properties shared by mirrored channels.
type Props struct {
	Clip Clip
	Loop bool

	// Base volume in [0, 1].
	Volume float32

	// 0 = fully 2D, 1 = fully 3D.
	SpatialBlend float32

	Rolloff     Rolloff
	MinDistance float32
	MaxDistance float32

	DopplerLevel float32

	// Output mixer group.
	Routing string
}

// Default channel properties.
func DefaultProps() Props {
	return Props{
		Loop:         true,
		Volume:       1,
		SpatialBlend: 1,
		Rolloff:      LogarithmicRolloff,
		MinDistance:  1,
		MaxDistance:  20,
		DopplerLevel: 1,
	}
}

// The Channel interface is implemented by audio backends. A channel plays a
// single clip at a world position; zones drive its position, volume and
// low-pass cutoff once per tick.
type Channel interface {
	// A unique channel id.
	ID() string

	// The properties the channel was created with, updated by SetClip.
	Props() Props

	SetPosition(types.Vec3)
	Position() types.Vec3

	// Volume scale in [0, 1].
	SetVolume(float32)
	Volume() float32

	// Low-pass filter cutoff in Hz.
	SetCutoff(float32)
	Cutoff() float32

	Clip() Clip
	SetClip(Clip)

	Play()
	Stop()
	IsPlaying() bool

	// Playback position within the current clip.
	Time() time.Duration
	SetTime(time.Duration)
}

// The Factory interface creates and destroys channels. The parent argument
// names the owning zone.
type Factory interface {
	NewChannel(props Props, parent string) (Channel, error)
	Destroy(Channel)
}

// Attenuate the volume of a channel playing at pos as heard from listener.
// The result is in [0, 1] and is blended towards 1 for non-spatial channels.
func (p Props) Attenuation(listener, pos types.Vec3) float32 {
	dist := listener.Distance(pos)
	minDist := p.MinDistance
	if minDist <= 0 {
		minDist = 1e-3
	}

	maxDist := p.MaxDistance
	if maxDist < minDist {
		maxDist = minDist
	}

	var gain float32
	switch {
	case dist <= minDist:
		gain = 1
	case p.Rolloff == LinearRolloff:
		if dist >= maxDist {
			gain = 0
		} else {
			gain = 1 - (dist-minDist)/(maxDist-minDist)
		}
	default:
		gain = minDist / types.Clamp(dist, minDist, maxDist)
	}

	return types.Lerp(1, gain, types.Clamp(p.SpatialBlend, 0, 1))
}
