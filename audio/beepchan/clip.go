package beepchan

import (
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/wav"
)

// A Clip holds decoded samples in memory so that any number of channels can
// play it from independent positions.
type Clip struct {
	name   string
	buffer *beep.Buffer
}

// Buffer the output of streamer into a new clip. The streamer is drained until
// it reports that it is exhausted.
func NewClip(name string, format beep.Format, streamer beep.Streamer) (*Clip, error) {
	buffer := beep.NewBuffer(format)
	buffer.Append(streamer)
	if err := streamer.Err(); err != nil {
		return nil, fmt.Errorf("beepchan: could not buffer clip %q: %w", name, err)
	}

	return &Clip{name: name, buffer: buffer}, nil
}

// Generate a sine tone clip.
func NewToneClip(name string, format beep.Format, freq float64, duration time.Duration) (*Clip, error) {
	tone, err := generators.SineTone(format.SampleRate, freq)
	if err != nil {
		return nil, fmt.Errorf("beepchan: could not generate tone for clip %q: %w", name, err)
	}

	return NewClip(name, format, beep.Take(format.SampleRate.N(duration), tone))
}

// Decode a WAV stream into a clip resampled to the given format.
func LoadWAV(name string, r io.Reader, format beep.Format) (*Clip, error) {
	streamer, srcFormat, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("beepchan: could not decode clip %q: %w", name, err)
	}
	defer streamer.Close()

	var src beep.Streamer = streamer
	if srcFormat.SampleRate != format.SampleRate {
		src = beep.Resample(4, srcFormat.SampleRate, format.SampleRate, streamer)
	}

	return NewClip(name, format, src)
}

func (c *Clip) Name() string {
	return c.name
}

func (c *Clip) Duration() time.Duration {
	return c.buffer.Format().SampleRate.D(c.buffer.Len())
}

// Number of buffered samples.
func (c *Clip) Len() int {
	return c.buffer.Len()
}

func (c *Clip) streamer() beep.StreamSeeker {
	return c.buffer.Streamer(0, c.buffer.Len())
}
