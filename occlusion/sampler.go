package occlusion

import (
	"math"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
)

// Smoothed occlusion state for a single channel.
type State struct {
	// The most recently sampled occlusion ratio.
	Ratio float32

	// Smoothed volume multiplier and cutoff.
	Volume float32
	Cutoff float32

	initialized bool
}

// Move the state towards the given targets using frame-rate independent
// exponential smoothing.
func (s *State) Step(volume, cutoff, speed float32, dt time.Duration) {
	k := float32(1)
	if speed > 0 {
		k = 1 - float32(math.Exp(-float64(speed)*dt.Seconds()))
	}
	s.Volume += (volume - s.Volume) * k
	s.Cutoff += (cutoff - s.Cutoff) * k
}

// A Sampler estimates how much of each channel's sightline to the listener is
// obstructed and applies the smoothed result to the channel's volume and
// low-pass cutoff.
type Sampler struct {
	logger  log.Logger
	rc      Raycaster
	exclude func(*scene.Occluder) bool
	states  map[string]*State
}

// Create a sampler that tests sightlines against rc. Occluders matched by
// exclude (which may be nil) never count as obstructions.
func NewSampler(name string, rc Raycaster, exclude func(*scene.Occluder) bool) *Sampler {
	return &Sampler{
		logger:  log.NewScoped("occlusion", name),
		rc:      rc,
		exclude: exclude,
		states:  make(map[string]*State),
	}
}

// Sample the sightline between listener and anchor and update ch. The
// smoothed volume multiplier is scaled by gain before being applied.
func (s *Sampler) Update(listener, anchor types.Vec3, ch audio.Channel, params Params, gain float32, dt time.Duration) State {
	state, exists := s.states[ch.ID()]
	if !exists {
		state = &State{}
		s.states[ch.ID()] = state
	}
	if !state.initialized {
		state.Volume, state.Cutoff = params.UnoccludedVolume, params.UnoccludedCutoff
		state.initialized = true
	}

	if s.rc != nil {
		samples := Samples(listener.Add(params.ListenerOffset), anchor.Add(params.AnchorOffset), params.Resolution, params.Radius)
		state.Ratio = Ratio(s.rc, samples, params.Mask, s.exclude)
	} else {
		state.Ratio = 0
	}

	targetVolume, targetCutoff := params.Target(state.Ratio)
	state.Step(targetVolume, targetCutoff, params.SmoothSpeed, dt)

	ch.SetVolume(gain * state.Volume)
	ch.SetCutoff(state.Cutoff)
	return *state
}

// Get the occlusion state tracked for ch.
func (s *Sampler) State(ch audio.Channel) (State, bool) {
	state, exists := s.states[ch.ID()]
	if !exists {
		return State{}, false
	}
	return *state, true
}

// Drop the state tracked for ch.
func (s *Sampler) Forget(ch audio.Channel) {
	if ch == nil {
		return
	}
	delete(s.states, ch.ID())
}

// Number of tracked channels.
func (s *Sampler) Len() int {
	return len(s.states)
}
