package simulator

import (
	"time"

	"github.com/achilleasa/soundzone/emitter"
	"github.com/achilleasa/soundzone/types"
)

type ZoneStat struct {
	// The zone name and evaluation mode.
	Name string
	Mode string

	InRange  bool
	Inside   bool
	Distance float32

	// Anchor positions; only valid when the matching Has flag is set.
	Primary      types.Vec3
	Secondary    types.Vec3
	HasPrimary   bool
	HasSecondary bool

	// Fade state of the secondary emitter.
	SecondaryState emitter.FadeState

	// Number of live point-set emitters.
	Emitters int

	// Occlusion ratio and the resulting primary channel volume/cutoff.
	Occlusion float32
	Volume    float32
	Cutoff    float32
}

type TickStats struct {
	// Tick index and simulated time.
	Tick int
	Time time.Duration

	Listener types.Vec3

	// Individual zone stats.
	Zones []ZoneStat

	// Wall time spent evaluating the tick.
	TickTime time.Duration
}
