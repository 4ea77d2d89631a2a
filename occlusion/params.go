package occlusion

import (
	"errors"

	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
)

var (
	ErrInvalidResolution = errors.New("occlusion: resolution must not be negative")
	ErrInvalidRadius     = errors.New("occlusion: radius must not be negative")
	ErrInvalidCutoff     = errors.New("occlusion: cutoff frequencies must be positive")
)

// Occlusion settings for a zone.
type Params struct {
	Enabled bool

	// Layers tested for obstructions.
	Mask scene.LayerMask

	// Number of rays sampled on a circle around the direct sightline. The
	// direct line is always sampled.
	Resolution int

	// Radius of the sampling circle.
	Radius float32

	// Offsets applied to the listener and the emission anchor before
	// sampling.
	ListenerOffset types.Vec3
	AnchorOffset   types.Vec3

	// Volume multipliers for a clear and a fully blocked sightline.
	UnoccludedVolume float32
	OccludedVolume   float32

	// Low-pass cutoff (Hz) for a clear and a fully blocked sightline.
	UnoccludedCutoff float32
	OccludedCutoff   float32

	// Exponential smoothing rate (1/s). Zero or negative snaps to the
	// target immediately.
	SmoothSpeed float32
}

// Default occlusion parameters.
func DefaultParams() Params {
	return Params{
		Enabled:          false,
		Mask:             scene.AllLayers,
		Resolution:       4,
		Radius:           0.25,
		UnoccludedVolume: 1,
		OccludedVolume:   0.3,
		UnoccludedCutoff: 22000,
		OccludedCutoff:   1200,
		SmoothSpeed:      8,
	}
}

// Validate the parameters.
func (p Params) Validate() error {
	if p.Resolution < 0 {
		return ErrInvalidResolution
	}
	if p.Radius < 0 {
		return ErrInvalidRadius
	}
	if p.UnoccludedCutoff <= 0 || p.OccludedCutoff <= 0 {
		return ErrInvalidCutoff
	}
	return nil
}

// Map an occlusion ratio in [0, 1] to target volume and cutoff values.
func (p Params) Target(ratio float32) (volume, cutoff float32) {
	ratio = types.Clamp(ratio, 0, 1)
	return types.Lerp(p.UnoccludedVolume, p.OccludedVolume, ratio),
		types.Lerp(p.UnoccludedCutoff, p.OccludedCutoff, ratio)
}
