package zone

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/achilleasa/soundzone/occlusion"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
)

var (
	ErrUnknownMode      = errors.New("zone: unknown mode")
	ErrInvalidDualAngle = errors.New("zone: dual audio angle must be in [0, 180]")
	ErrInvalidFade      = errors.New("zone: fade durations must not be negative")
	ErrMissingMeshes    = errors.New("zone: mesh mode requires at least one mesh")
	ErrNonMeshOccluder  = errors.New("zone: mesh mode only accepts mesh occluders")
	ErrNoEmissionPoints = errors.New("zone: point-set mode requires at least one emission point")
	ErrNoPrimaryChannel = errors.New("zone: primary channel is required")
	ErrNoChannelFactory = errors.New("zone: channel factory is required")
)

// The way a zone derives its emission anchor.
type Mode uint8

const (
	PolylineMode Mode = iota
	MeshMode
	PointSetMode
)

func (m Mode) String() string {
	switch m {
	case MeshMode:
		return "mesh"
	case PointSetMode:
		return "points"
	}
	return "polyline"
}

// Parse a mode name.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "", "polyline":
		return PolylineMode, nil
	case "mesh":
		return MeshMode, nil
	case "points", "pointset":
		return PointSetMode, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownMode, name)
}

// A polyline in zone-local space. A closed shape with less than 3 points is
// treated as open.
type Shape struct {
	Points []types.Vec3
	Closed bool
}

// Zone configuration.
type Config struct {
	Name string
	Mode Mode

	Shape Shape

	// Local to world transform applied to Shape and EmissionPoints.
	Transform types.Mat4

	// Trigger distance override; values <= 0 inherit the primary channel's
	// max distance.
	TriggerOverride float32
	FlipTrigger     bool

	// Mesh mode surfaces and the world-space offset applied to the anchor.
	Meshes     []*scene.Occluder
	MeshOffset types.Vec3

	// Point-set mode emission points in zone-local space.
	EmissionPoints []types.Vec3

	DualAudio bool

	// Minimum angle (degrees) between the two dual anchors as seen from the
	// listener and minimum distance between them.
	DualMinAngle      float32
	DualMinSeparation float32

	FadeIn  time.Duration
	FadeOut time.Duration

	// Base volume applied to all channels of the zone.
	Volume float32

	Occlusion occlusion.Params
}

// Default zone configuration.
func DefaultConfig() Config {
	return Config{
		Mode:              PolylineMode,
		Transform:         types.Ident4(),
		DualMinAngle:      70,
		DualMinSeparation: 0.01,
		FadeIn:            500 * time.Millisecond,
		FadeOut:           500 * time.Millisecond,
		Volume:            1,
		Occlusion:         occlusion.DefaultParams(),
	}
}

// Validate the configuration.
func (c Config) Validate() error {
	switch c.Mode {
	case PolylineMode:
	case MeshMode:
		if len(c.Meshes) == 0 {
			return ErrMissingMeshes
		}
		for _, occ := range c.Meshes {
			if occ == nil || occ.Kind == scene.Collider2DOccluder || occ.Mesh == nil {
				return ErrNonMeshOccluder
			}
		}
	case PointSetMode:
		if len(c.EmissionPoints) == 0 {
			return ErrNoEmissionPoints
		}
	default:
		return fmt.Errorf("%w %d", ErrUnknownMode, c.Mode)
	}

	if c.DualMinAngle < 0 || c.DualMinAngle > 180 {
		return ErrInvalidDualAngle
	}
	if c.FadeIn < 0 || c.FadeOut < 0 {
		return ErrInvalidFade
	}
	return c.Occlusion.Validate()
}
