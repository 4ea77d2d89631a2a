package zone

import (
	"time"

	"github.com/achilleasa/soundzone/types"
)

// The ListenerSource interface provides the current listener position. The
// second return value is false when no listener is available.
type ListenerSource interface {
	ListenerPosition() (types.Vec3, bool)
}

// Per-tick input for zone evaluation.
type TickContext struct {
	Listener    types.Vec3
	HasListener bool

	// Time elapsed since the previous tick.
	Dt time.Duration
}

// Build a tick context by querying src, which may be nil.
func NewTickContext(src ListenerSource, dt time.Duration) TickContext {
	ctx := TickContext{Dt: dt}
	if src != nil {
		ctx.Listener, ctx.HasListener = src.ListenerPosition()
	}
	return ctx
}

// Evaluate the zone and update its channels: position the primary and
// secondary channels, advance fades, keep the secondary in sync and apply
// occlusion. A tick without a listener is a no-op.
//
// Errors creating secondary or pooled channels are returned after the rest of
// the tick has been applied.
func (z *Zone) Tick(ctx TickContext) (Result, error) {
	if !ctx.HasListener || z.primary == nil {
		return Result{}, nil
	}

	if z.Mode == PointSetMode {
		return z.tickPoints(ctx)
	}

	res := z.Evaluate(ctx)
	if res.HasPrimary {
		z.primary.SetPosition(res.Primary)
	}

	var err error
	if res.HasSecondary {
		if err = z.secondary.Acquire(z.primary); err == nil {
			z.secondary.SetPosition(res.Secondary)
		}
	} else {
		z.secondary.Release()
	}

	if ch := z.secondary.Channel(); z.secondary.Update(ctx.Dt) {
		z.sampler.Forget(ch)
	}
	z.secondary.Sync(z.primary)

	z.applyVolume(ctx, res)
	return res, err
}

func (z *Zone) applyVolume(ctx TickContext, res Result) {
	params := z.Occlusion
	secondary := z.secondary.Channel()

	if !params.Enabled {
		z.primary.SetVolume(z.Volume)
		z.secondary.ApplyVolume(z.Volume)
		return
	}

	if res.HasPrimary {
		z.sampler.Update(ctx.Listener, res.Primary, z.primary, params, z.Volume, ctx.Dt)
	} else {
		// Without an anchor there is nothing to sample; fall back to the
		// unoccluded state instead of keeping the last occluded values.
		z.sampler.Forget(z.primary)
		z.primary.SetVolume(z.Volume * params.UnoccludedVolume)
		z.primary.SetCutoff(params.UnoccludedCutoff)
	}
	if secondary != nil {
		z.sampler.Update(ctx.Listener, secondary.Position(), secondary, params, z.Volume*z.secondary.Fade(), ctx.Dt)
	}
}

func (z *Zone) tickPoints(ctx TickContext) (Result, error) {
	points := z.WorldEmissionPoints()
	err := z.pool.Update(ctx.Listener, points, z.TriggerDistance(), z.primary)

	// The primary channel only acts as a template and playback clock
	z.primary.SetVolume(0)

	for _, idx := range z.pool.Indices() {
		ch, _ := z.pool.Channel(idx)
		if z.Occlusion.Enabled {
			z.sampler.Update(ctx.Listener, points[idx], ch, z.Occlusion, z.Volume, ctx.Dt)
		} else {
			ch.SetVolume(z.Volume)
		}
	}

	res := z.evaluatePoints(ctx.Listener)
	return res, err
}

// Destroy every channel created by the zone. The primary channel is owned by
// the caller and is left untouched.
func (z *Zone) Shutdown() {
	if ch := z.secondary.Channel(); ch != nil {
		z.sampler.Forget(ch)
	}
	z.secondary.Destroy()
	z.pool.CleanupAll()
}
