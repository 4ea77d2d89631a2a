package beepchan

import (
	"math"
	"sync"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/types"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/google/uuid"
)

// Cutoff frequency used when a channel is not filtered.
const MaxCutoff float32 = 22000

// A Channel plays a Clip through a volume, low-pass, distance gain and pan
// chain. Channel implements both audio.Channel and beep.Streamer; all methods
// are safe to call while the channel is being streamed.
type Channel struct {
	mu sync.Mutex

	id     string
	parent string

	sampleRate beep.SampleRate
	props      audio.Props
	position   types.Vec3
	volume     float32
	cutoff     float32
	destroyed  bool

	src  *clipSource
	vol  *effects.Volume
	lp   *lowPass
	gain *effects.Gain
	pan  *effects.Pan
}

func newChannel(props audio.Props, parent string, sampleRate beep.SampleRate) *Channel {
	c := &Channel{
		id:         uuid.NewString(),
		parent:     parent,
		sampleRate: sampleRate,
		props:      props,
		volume:     1,
		cutoff:     MaxCutoff,
		src:        &clipSource{loop: props.Loop},
	}

	c.vol = &effects.Volume{Streamer: c.src, Base: 2}
	c.lp = &lowPass{Streamer: c.vol, sampleRate: sampleRate, cutoff: float64(MaxCutoff)}
	c.gain = &effects.Gain{Streamer: c.lp}
	c.pan = &effects.Pan{Streamer: c.gain}

	c.setClip(props.Clip)
	c.applyVolume()
	return c
}

func (c *Channel) ID() string {
	return c.id
}

// The name of the zone that owns this channel.
func (c *Channel) Parent() string {
	return c.parent
}

func (c *Channel) Props() audio.Props {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props
}

func (c *Channel) SetPosition(pos types.Vec3) {
	c.mu.Lock()
	c.position = pos
	c.mu.Unlock()
}

func (c *Channel) Position() types.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *Channel) SetVolume(v float32) {
	c.mu.Lock()
	c.volume = types.Clamp(v, 0, 1)
	c.applyVolume()
	c.mu.Unlock()
}

func (c *Channel) Volume() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Channel) SetCutoff(hz float32) {
	c.mu.Lock()
	c.cutoff = types.Clamp(hz, 10, MaxCutoff)
	c.lp.cutoff = float64(c.cutoff)
	c.mu.Unlock()
}

func (c *Channel) Cutoff() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cutoff
}

func (c *Channel) Clip() audio.Clip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.props.Clip
}

func (c *Channel) SetClip(clip audio.Clip) {
	c.mu.Lock()
	c.setClip(clip)
	c.mu.Unlock()
}

func (c *Channel) setClip(clip audio.Clip) {
	c.props.Clip = clip
	c.src.playing = false
	c.src.stream = nil

	if bc, ok := clip.(*Clip); ok && bc != nil {
		c.src.stream = bc.streamer()
	}
}

func (c *Channel) Play() {
	c.mu.Lock()
	c.src.playing = c.src.stream != nil && !c.destroyed
	c.mu.Unlock()
}

func (c *Channel) Stop() {
	c.mu.Lock()
	c.src.playing = false
	if c.src.stream != nil {
		c.src.seek(0)
	}
	c.mu.Unlock()
}

func (c *Channel) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src.playing
}

func (c *Channel) Time() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src.stream == nil {
		return 0
	}
	return c.sampleRate.D(c.src.stream.Position())
}

func (c *Channel) SetTime(t time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src.stream == nil || c.src.stream.Len() == 0 {
		return
	}

	pos := c.sampleRate.N(t)
	if pos < 0 {
		pos = 0
	}
	c.src.seek(pos % c.src.stream.Len())
}

// Returns true if the channel has been released by its mixer.
func (c *Channel) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Update the distance gain and stereo pan for a listener at the given position
// whose right-hand direction is right.
func (c *Channel) spatialize(listener, right types.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gain.Gain = float64(c.props.Attenuation(listener, c.position)) - 1
	dir := c.position.Sub(listener).Normalize()
	c.pan.Pan = float64(types.Clamp(dir.Dot(right)*c.props.SpatialBlend, -1, 1))
}

func (c *Channel) applyVolume() {
	v := c.volume * c.props.Volume
	if v <= 0 {
		c.vol.Silent = true
		c.vol.Volume = 0
		return
	}
	c.vol.Silent = false
	c.vol.Volume = math.Log2(float64(v))
}

// Stream implements beep.Streamer. A destroyed channel reports that it is
// drained so the mixer drops it.
func (c *Channel) Stream(samples [][2]float64) (n int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return 0, false
	}
	return c.pan.Stream(samples)
}

func (c *Channel) Err() error {
	return nil
}

// Streams the clip assigned to a channel or silence when nothing is playing.
type clipSource struct {
	stream  beep.StreamSeeker
	loop    bool
	playing bool
}

func (s *clipSource) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	for s.playing && filled < len(samples) {
		sn, sok := s.stream.Stream(samples[filled:])
		filled += sn
		if sok && sn > 0 {
			continue
		}

		if s.loop && s.stream.Len() > 0 {
			s.seek(0)
			continue
		}
		s.playing = false
	}

	for i := filled; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

// Clip streams come from a beep.Buffer, whose Seek only fails for positions
// outside [0, Len]. Every caller passes 0 or a position reduced modulo Len.
func (s *clipSource) seek(pos int) {
	_ = s.stream.Seek(pos)
}

func (s *clipSource) Err() error {
	return nil
}

// A one-pole low-pass filter.
type lowPass struct {
	Streamer   beep.Streamer
	sampleRate beep.SampleRate
	cutoff     float64
	prev       [2]float64
}

func (lp *lowPass) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = lp.Streamer.Stream(samples)

	if lp.cutoff >= float64(MaxCutoff) || lp.cutoff >= float64(lp.sampleRate)/2 {
		if n > 0 {
			lp.prev = samples[n-1]
		}
		return n, ok
	}

	alpha := 1 - math.Exp(-2*math.Pi*lp.cutoff/float64(lp.sampleRate))
	for i := 0; i < n; i++ {
		for ch := 0; ch < 2; ch++ {
			lp.prev[ch] += alpha * (samples[i][ch] - lp.prev[ch])
			samples[i][ch] = lp.prev[ch]
		}
	}
	return n, ok
}

func (lp *lowPass) Err() error {
	return lp.Streamer.Err()
}
