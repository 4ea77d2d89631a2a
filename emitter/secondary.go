package emitter

import (
	"fmt"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/types"
)

// Playback drift between a secondary channel and its primary that triggers a
// resync.
const MaxDrift = 100 * time.Millisecond

type FadeState uint8

const (
	Idle FadeState = iota
	FadingIn
	Active
	FadingOut
)

func (s FadeState) String() string {
	switch s {
	case FadingIn:
		return "fading-in"
	case Active:
		return "active"
	case FadingOut:
		return "fading-out"
	}
	return "idle"
}

// Derive the properties of a secondary channel from its primary. Doppler is
// disabled so both channels stay pitch-aligned.
func SecondaryProps(primary audio.Props) audio.Props {
	props := primary
	props.DopplerLevel = 0
	return props
}

// A Secondary manages the lifecycle of a zone's second emission channel. The
// channel is created on Acquire, faded in, faded out after Release and
// destroyed once the fade-out completes.
type Secondary struct {
	logger  log.Logger
	factory audio.Factory
	parent  string

	FadeIn  time.Duration
	FadeOut time.Duration

	state   FadeState
	fade    float32
	channel audio.Channel
}

// Create a secondary emitter for the named zone.
func NewSecondary(factory audio.Factory, parent string, fadeIn, fadeOut time.Duration) *Secondary {
	return &Secondary{
		logger:  log.NewScoped("secondary", parent),
		factory: factory,
		parent:  parent,
		FadeIn:  fadeIn,
		FadeOut: fadeOut,
	}
}

func (s *Secondary) State() FadeState {
	return s.state
}

// The current fade factor in [0, 1].
func (s *Secondary) Fade() float32 {
	return s.fade
}

// The live channel or nil.
func (s *Secondary) Channel() audio.Channel {
	return s.channel
}

// Ensure the secondary channel exists and is fading in. A pending fade-out is
// reversed from the current fade factor.
func (s *Secondary) Acquire(primary audio.Channel) error {
	switch s.state {
	case FadingIn, Active:
		return nil
	case FadingOut:
		s.logger.Debugf("resuming fade-in from %.2f", s.fade)
		s.state = FadingIn
		return nil
	}

	ch, err := s.factory.NewChannel(SecondaryProps(primary.Props()), s.parent)
	if err != nil {
		return fmt.Errorf("emitter: could not create secondary channel for %q: %w", s.parent, err)
	}

	s.channel = ch
	s.fade = 0
	s.state = FadingIn
	ch.SetVolume(0)
	s.Sync(primary)
	s.logger.Debugf("acquired channel %s", ch.ID())
	return nil
}

// Start fading out. Calling Release while idle or already fading out is a
// no-op.
func (s *Secondary) Release() {
	if s.state == Idle || s.state == FadingOut {
		return
	}
	s.state = FadingOut
}

// Advance the fade by dt. Returns true if the channel was destroyed because
// the fade-out completed.
func (s *Secondary) Update(dt time.Duration) bool {
	switch s.state {
	case FadingIn:
		s.fade += fadeStep(dt, s.FadeIn)
		if s.fade >= 1 {
			s.fade = 1
			s.state = Active
		}
	case FadingOut:
		s.fade -= fadeStep(dt, s.FadeOut)
		if s.fade <= 0 {
			s.Destroy()
			return true
		}
	}
	return false
}

func fadeStep(dt, duration time.Duration) float32 {
	if duration <= 0 {
		return 1
	}
	return float32(dt.Seconds() / duration.Seconds())
}

// Keep the secondary channel aligned with primary. The channel is restarted if
// it stopped, plays a different clip or drifted by more than MaxDrift.
func (s *Secondary) Sync(primary audio.Channel) {
	if s.channel == nil || primary == nil {
		return
	}

	drift := s.channel.Time() - primary.Time()
	if drift < 0 {
		drift = -drift
	}
	if s.channel.IsPlaying() && s.channel.Clip() == primary.Clip() && drift <= MaxDrift {
		return
	}

	s.channel.Stop()
	s.channel.SetClip(primary.Clip())
	s.channel.SetTime(primary.Time())
	s.channel.Play()
}

// Place the secondary channel.
func (s *Secondary) SetPosition(pos types.Vec3) {
	if s.channel != nil {
		s.channel.SetPosition(pos)
	}
}

// Apply base volume scaled by the fade factor.
func (s *Secondary) ApplyVolume(base float32) {
	if s.channel != nil {
		s.channel.SetVolume(base * s.fade)
	}
}

// Destroy the secondary channel immediately. Subsequent calls are no-ops.
func (s *Secondary) Destroy() {
	if s.channel != nil {
		s.logger.Debugf("destroying channel %s", s.channel.ID())
		s.factory.Destroy(s.channel)
	}
	s.channel = nil
	s.fade = 0
	s.state = Idle
}
