package beepchan

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/types"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

var ErrForeignChannel = errors.New("beepchan: channel was not created by this mixer")

// A Mixer creates beep-backed channels and mixes them into a single stream.
// It implements audio.Factory and beep.Streamer.
type Mixer struct {
	logger log.Logger

	mu       sync.Mutex
	format   beep.Format
	mixer    *beep.Mixer
	channels map[string]*Channel

	listener types.Vec3
	right    types.Vec3
}

// Create a new mixer for the given output format.
func NewMixer(format beep.Format) *Mixer {
	return &Mixer{
		logger:   log.New("mixer"),
		format:   format,
		mixer:    &beep.Mixer{},
		channels: make(map[string]*Channel),
		right:    types.Vec3{1, 0, 0},
	}
}

// The default output format: 44.1kHz, stereo, 16-bit.
func DefaultFormat() beep.Format {
	return beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
}

func (m *Mixer) Format() beep.Format {
	return m.format
}

// Create a new channel and attach it to the mix.
func (m *Mixer) NewChannel(props audio.Props, parent string) (audio.Channel, error) {
	if props.Clip != nil {
		if _, ok := props.Clip.(*Clip); !ok {
			return nil, fmt.Errorf("beepchan: unsupported clip type %T", props.Clip)
		}
	}

	ch := newChannel(props, parent, m.format.SampleRate)
	ch.spatialize(m.listener, m.right)

	m.mu.Lock()
	m.channels[ch.id] = ch
	m.mixer.Add(ch)
	m.mu.Unlock()

	m.logger.Debugf("created channel %s for %q", ch.id, parent)
	return ch, nil
}

// Detach a channel from the mix. Destroying a channel more than once is a
// no-op.
func (m *Mixer) Destroy(ac audio.Channel) {
	ch, ok := ac.(*Channel)
	if !ok || ch == nil {
		m.logger.Warningf("%v", ErrForeignChannel)
		return
	}

	m.mu.Lock()
	_, known := m.channels[ch.id]
	delete(m.channels, ch.id)
	m.mu.Unlock()

	ch.mu.Lock()
	ch.destroyed = true
	ch.src.playing = false
	ch.mu.Unlock()

	if known {
		m.logger.Debugf("destroyed channel %s for %q", ch.id, ch.parent)
	}
}

// Number of live channels.
func (m *Mixer) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.channels)
}

// Update the listener pose used for distance attenuation and panning.
func (m *Mixer) SetListener(pos, right types.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listener = pos
	if right.SqrLen() > 0 {
		m.right = right.Normalize()
	}
	for _, ch := range m.channels {
		ch.spatialize(m.listener, m.right)
	}
}

// Stream implements beep.Streamer.
func (m *Mixer) Stream(samples [][2]float64) (n int, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mixer.Stream(samples)
}

func (m *Mixer) Err() error {
	return nil
}

// Mix d worth of samples and append them to buf.
func (m *Mixer) Render(d time.Duration, buf *beep.Buffer) {
	n := m.format.SampleRate.N(d)
	if n <= 0 {
		return
	}
	buf.Append(beep.Take(n, m))
}

// Encode the contents of buf as a WAV stream.
func WriteWAV(w io.WriteSeeker, buf *beep.Buffer) error {
	if err := wav.Encode(w, buf.Streamer(0, buf.Len()), buf.Format()); err != nil {
		return fmt.Errorf("beepchan: could not encode wav: %w", err)
	}
	return nil
}
