package zone

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/audio/beepchan"
	"github.com/achilleasa/soundzone/physics"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
	"github.com/stretchr/testify/require"
)

type countingFactory struct {
	*beepchan.Mixer
	created   int
	destroyed int
}

func (f *countingFactory) NewChannel(props audio.Props, parent string) (audio.Channel, error) {
	f.created++
	return f.Mixer.NewChannel(props, parent)
}

func (f *countingFactory) Destroy(ch audio.Channel) {
	f.destroyed++
	f.Mixer.Destroy(ch)
}

type fixedListener struct {
	pos types.Vec3
	ok  bool
}

func (l fixedListener) ListenerPosition() (types.Vec3, bool) {
	return l.pos, l.ok
}

func newZone(t *testing.T, cfg Config, rc *physics.World) (*Zone, *countingFactory) {
	mixer := beepchan.NewMixer(beepchan.DefaultFormat())
	clip, err := beepchan.NewToneClip("ambience", mixer.Format(), 220, time.Second)
	require.NoError(t, err)

	props := audio.DefaultProps()
	props.Clip = clip
	props.MaxDistance = 10
	primary, err := mixer.NewChannel(props, cfg.Name)
	require.NoError(t, err)
	primary.Play()

	factory := &countingFactory{Mixer: mixer}
	var z *Zone
	if rc == nil {
		z, err = New(cfg, primary, factory, nil)
	} else {
		z, err = New(cfg, primary, factory, rc)
	}
	require.NoError(t, err)
	return z, factory
}

func at(listener types.Vec3, dt time.Duration) TickContext {
	return TickContext{Listener: listener, HasListener: true, Dt: dt}
}

func square(size, height float32) Shape {
	return Shape{
		Points: []types.Vec3{{0, height, 0}, {size, height, 0}, {size, height, size}, {0, height, size}},
		Closed: true,
	}
}

func TestInsideClosedPolylineTracksListener(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = square(10, 0)
	z, _ := newZone(t, cfg, nil)

	res := z.Evaluate(at(types.Vec3{3, 1.7, 4}, 0))
	require.True(t, res.InRange)
	require.True(t, res.Inside)
	require.Equal(t, types.Vec3{3, 0, 4}, res.Primary)

	cfg.Shape = square(10, 2)
	cfg.Shape.Points[0][1] = 6
	z, _ = newZone(t, cfg, nil)
	res = z.Evaluate(at(types.Vec3{3, 0, 4}, 0))
	require.InDelta(t, 3, res.Primary[1], 1e-6, "expected anchor at the average vertex height")
}

func TestOpenPolylineTriggerDistance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = Shape{Points: []types.Vec3{{0, 0, 0}, {10, 0, 0}}}
	cfg.TriggerOverride = 3
	z, _ := newZone(t, cfg, nil)

	res := z.Evaluate(at(types.Vec3{5, 0, 5}, 0))
	require.True(t, res.HasPrimary)
	require.False(t, res.InRange)
	require.False(t, res.Inside)
	require.True(t, res.Primary.ApproxEqual(types.Vec3{5, 0, 0}, 1e-6))
	require.InDelta(t, 5, res.Distance, 1e-5)

	z.TriggerOverride = 6
	require.True(t, z.Evaluate(at(types.Vec3{5, 0, 5}, 0)).InRange)
}

func TestClosedShapeWithTwoPointsIsOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = Shape{Points: []types.Vec3{{0, 0, 0}, {10, 0, 0}}, Closed: true}
	z, _ := newZone(t, cfg, nil)

	res := z.Evaluate(at(types.Vec3{5, 0, 1}, 0))
	require.False(t, res.Inside)
	require.True(t, res.Primary.ApproxEqual(types.Vec3{5, 0, 0}, 1e-6))
}

func TestZoneTransform(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = square(2, 0)
	cfg.Transform = types.Translate4(types.Vec3{100, 0, 0})
	z, _ := newZone(t, cfg, nil)

	require.False(t, z.Evaluate(at(types.Vec3{1, 0, 1}, 0)).Inside)
	require.True(t, z.Evaluate(at(types.Vec3{101, 0, 1}, 0)).Inside)
}

func TestTriggerDistance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = square(2, 0)
	z, _ := newZone(t, cfg, nil)

	require.Equal(t, float32(10), z.TriggerDistance(), "expected primary max distance to be inherited")

	z.TriggerOverride = 4
	require.Equal(t, float32(4), z.TriggerDistance())

	z.FlipTrigger = true
	require.Equal(t, float32(-4), z.TriggerDistance())
	require.True(t, z.Evaluate(at(types.Vec3{5, 0, 1}, 0)).InRange, "expected range tests to use the magnitude")
}

func TestDualAnchorsAtCorner(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = Shape{Points: []types.Vec3{{0, 0, 10}, {0, 0, 0}, {10, 0, 0}}}
	cfg.DualAudio = true
	z, _ := newZone(t, cfg, nil)

	res := z.Evaluate(at(types.Vec3{2, 0, 3}, 0))
	require.True(t, res.HasSecondary)
	require.True(t, res.Primary.ApproxEqual(types.Vec3{0, 0, 3}, 1e-6))
	require.True(t, res.Secondary.ApproxEqual(types.Vec3{2, 0, 0}, 1e-6))

	// A straight line never yields two anchors
	cfg.Shape = Shape{Points: []types.Vec3{{0, 0, 0}, {5, 0, 0}, {10, 0, 0}}}
	z, _ = newZone(t, cfg, nil)
	require.False(t, z.Evaluate(at(types.Vec3{5, 0, 3}, 0)).HasSecondary)
}

func TestDualAnchorsRespectLimits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cfg := DefaultConfig()
	cfg.DualAudio = true
	cfg.TriggerOverride = 8

	pairs := 0
	for iter := 0; iter < 200; iter++ {
		points := make([]types.Vec3, 3+rng.Intn(6))
		for i := range points {
			points[i] = types.Vec3{rng.Float32()*20 - 10, 0, rng.Float32()*20 - 10}
		}
		cfg.Shape = Shape{Points: points, Closed: rng.Intn(2) == 0}
		z, _ := newZone(t, cfg, nil)

		listener := types.Vec3{rng.Float32()*20 - 10, 0, rng.Float32()*20 - 10}
		res := z.Evaluate(at(listener, 0))
		if !res.HasSecondary {
			continue
		}
		pairs++
		angle := res.Primary.Sub(listener).Angle(res.Secondary.Sub(listener))
		require.Greater(t, angle, cfg.DualMinAngle, "iteration %d", iter)
		require.Greater(t, res.Primary.Distance(res.Secondary), cfg.DualMinSeparation, "iteration %d", iter)
	}
	require.Greater(t, pairs, 0, "expected at least one dual pair")
}

func TestSelectDualAnchorsPrefersNearest(t *testing.T) {
	listener := types.Vec3{}
	candidates := []Candidate{
		{Position: types.Vec3{0, 0, 5}, SqrDist: 25, Source: 0},
		{Position: types.Vec3{1, 0, 0}, SqrDist: 1, Source: 1},
		{Position: types.Vec3{0, 0, -2}, SqrDist: 4, Source: 2},
		{Position: types.Vec3{1.001, 0, 0}, SqrDist: 1.002, Source: 3},
	}

	a, b, ok := SelectDualAnchors(listener, candidates, 70, 0.01)
	require.True(t, ok)
	require.Equal(t, 1, a.Source)
	require.Equal(t, 2, b.Source)

	collinear := []Candidate{
		{Position: types.Vec3{1, 0, 0}, SqrDist: 1},
		{Position: types.Vec3{3, 0, 0}, SqrDist: 9},
	}
	_, _, ok = SelectDualAnchors(listener, collinear, 70, 0.01)
	require.False(t, ok)

	tooClose := []Candidate{
		{Position: types.Vec3{0, 0, 0.001}, SqrDist: 1e-6},
		{Position: types.Vec3{0.001, 0, 0}, SqrDist: 1e-6},
	}
	_, _, ok = SelectDualAnchors(listener, tooClose, 70, 0.01)
	require.False(t, ok, "expected anchors closer than the minimum separation to be rejected")
}

func TestMeshModeUsesCachedGeometry(t *testing.T) {
	floor := scene.NewMeshOccluder("floor", scene.NewQuadMesh("floor", types.Vec2{4, 4}), types.Translate4(types.Vec3{5, 0, 0}), 0)
	cfg := DefaultConfig()
	cfg.Mode = MeshMode
	cfg.Meshes = []*scene.Occluder{floor}
	cfg.MeshOffset = types.Vec3{0, 0.5, 0}
	z, _ := newZone(t, cfg, nil)

	// Missing cache entries are rebuilt on demand
	res := z.Evaluate(at(types.Vec3{5.5, 3, 0.5}, 0))
	require.True(t, res.InRange)
	require.True(t, res.Primary.ApproxEqual(types.Vec3{5.5, 0.5, 0.5}, 1e-5))
	require.InDelta(t, 3, res.Distance, 1e-5)
	require.Equal(t, 1, z.MeshCache().Len())

	// Mesh edits are ignored until the cache is regenerated
	for i := range floor.Mesh.Vertices {
		floor.Mesh.Vertices[i][1] = -1
	}
	res = z.Evaluate(at(types.Vec3{5.5, 3, 0.5}, 0))
	require.InDelta(t, 0.5, res.Primary[1], 1e-5)

	require.Equal(t, 1, z.GenerateCachedMeshGeometry())
	res = z.Evaluate(at(types.Vec3{5.5, 3, 0.5}, 0))
	require.InDelta(t, -0.5, res.Primary[1], 1e-5)
}

func TestMeshModeSkipsDegenerateTriangles(t *testing.T) {
	mesh := scene.NewMesh("sliver")
	mesh.AddTriangle(types.Vec3{0, 0, 0}, types.Vec3{1, 0, 0}, types.Vec3{2, 0, 0})
	mesh.AddTriangle(types.Vec3{10, 0, 0}, types.Vec3{11, 0, 0}, types.Vec3{10, 0, 1})
	cfg := DefaultConfig()
	cfg.Mode = MeshMode
	cfg.Meshes = []*scene.Occluder{scene.NewMeshOccluder("sliver", mesh, types.Ident4(), 0)}
	z, _ := newZone(t, cfg, nil)

	res := z.Evaluate(at(types.Vec3{0, 0, 0}, 0))
	require.True(t, res.HasPrimary)
	require.True(t, res.Primary.ApproxEqual(types.Vec3{10, 0, 0}, 1e-5))
}

func TestNoListenerIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = square(10, 0)
	z, factory := newZone(t, cfg, nil)
	z.Primary().SetPosition(types.Vec3{-1, -1, -1})

	res, err := z.Tick(NewTickContext(fixedListener{ok: false}, 10*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, Result{}, res)
	require.Equal(t, types.Vec3{-1, -1, -1}, z.Primary().Position())
	require.Equal(t, 0, factory.created)

	res, err = z.Tick(NewTickContext(nil, 10*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, Result{}, res)

	ctx := NewTickContext(fixedListener{pos: types.Vec3{1, 2, 3}, ok: true}, time.Second)
	require.Equal(t, TickContext{Listener: types.Vec3{1, 2, 3}, HasListener: true, Dt: time.Second}, ctx)
}

func TestTickDrivesSecondaryLifecycle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = Shape{Points: []types.Vec3{{0, 0, 10}, {0, 0, 0}, {10, 0, 0}}}
	cfg.DualAudio = true
	cfg.TriggerOverride = 5
	cfg.FadeIn = 100 * time.Millisecond
	cfg.FadeOut = 100 * time.Millisecond
	cfg.Volume = 0.8
	z, factory := newZone(t, cfg, nil)

	corner := types.Vec3{2, 0, 3}
	for i := 0; i < 5; i++ {
		_, err := z.Tick(at(corner, 50*time.Millisecond))
		require.NoError(t, err)
	}
	sec := z.Secondary().Channel()
	require.NotNil(t, sec)
	require.Equal(t, 1, factory.created)
	require.Equal(t, float32(0), sec.Props().DopplerLevel)
	require.True(t, sec.Position().ApproxEqual(types.Vec3{2, 0, 0}, 1e-6))
	require.True(t, z.Primary().Position().ApproxEqual(types.Vec3{0, 0, 3}, 1e-6))
	require.InDelta(t, 0.8, sec.Volume(), 1e-6)
	require.InDelta(t, 0.8, z.Primary().Volume(), 1e-6)

	// Walk away; the secondary fades out and is destroyed exactly once
	far := types.Vec3{50, 0, 50}
	for i := 0; i < 10; i++ {
		res, err := z.Tick(at(far, 50*time.Millisecond))
		require.NoError(t, err)
		require.False(t, res.InRange)
	}
	require.Nil(t, z.Secondary().Channel())
	require.Equal(t, 1, factory.destroyed)
	require.InDelta(t, 0.8, z.Primary().Volume(), 1e-6)

	z.Shutdown()
	require.Equal(t, 1, factory.destroyed)
}

func TestTickAppliesOcclusion(t *testing.T) {
	world := physics.NewWorld()
	world.Add(scene.NewCollider2D("wall", types.Vec2{40, 40}, types.Translate4(types.Vec3{0, 0, 2}), 0))

	cfg := DefaultConfig()
	cfg.Shape = Shape{Points: []types.Vec3{{-10, 0, 5}, {10, 0, 5}}}
	cfg.Occlusion.Enabled = true
	z, _ := newZone(t, cfg, world)

	for i := 0; i < 100; i++ {
		_, err := z.Tick(at(types.Vec3{0, 0, 0}, 50*time.Millisecond))
		require.NoError(t, err)
	}

	state, tracked := z.Sampler().State(z.Primary())
	require.True(t, tracked)
	require.Equal(t, float32(1), state.Ratio)
	require.InDelta(t, cfg.Occlusion.OccludedVolume, z.Primary().Volume(), 1e-3)
	require.InDelta(t, cfg.Occlusion.OccludedCutoff, z.Primary().Cutoff(), 1)
}

func TestOwnMeshSurfacesDoNotOcclude(t *testing.T) {
	floor := scene.NewMeshOccluder("floor", scene.NewQuadMesh("floor", types.Vec2{10, 10}), types.Ident4(), 0)
	world := physics.NewWorld()
	world.Add(floor)

	cfg := DefaultConfig()
	cfg.Mode = MeshMode
	cfg.Meshes = []*scene.Occluder{floor}
	cfg.Occlusion.Enabled = true
	cfg.Occlusion.SmoothSpeed = 0
	z, _ := newZone(t, cfg, world)

	_, err := z.Tick(at(types.Vec3{0.3, 2, 0.4}, 50*time.Millisecond))
	require.NoError(t, err)

	state, _ := z.Sampler().State(z.Primary())
	require.Equal(t, float32(0), state.Ratio)
	require.InDelta(t, 1, z.Primary().Volume(), 1e-6)
}

func TestPointSetMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = PointSetMode
	cfg.EmissionPoints = []types.Vec3{{0, 0, 0}, {20, 0, 0}, {40, 0, 0}}
	cfg.TriggerOverride = 5
	z, factory := newZone(t, cfg, nil)

	res, err := z.Tick(at(types.Vec3{1, 0, 0}, 10*time.Millisecond))
	require.NoError(t, err)
	require.True(t, res.InRange)
	require.False(t, res.HasPrimary)
	require.Equal(t, 1, res.Emitters)
	require.Equal(t, float32(0), z.Primary().Volume())

	ch, exists := z.Pool().Channel(0)
	require.True(t, exists)
	require.InDelta(t, 1, ch.Volume(), 1e-6)

	res, err = z.Tick(at(types.Vec3{20, 0, 3}, 10*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, []int{1}, z.Pool().Indices())
	require.Equal(t, 1, res.Emitters)
	require.Equal(t, 1, factory.destroyed)

	res, err = z.Tick(at(types.Vec3{100, 0, 0}, 10*time.Millisecond))
	require.NoError(t, err)
	require.False(t, res.InRange)
	require.Equal(t, 0, z.Pool().Len())

	z.Tick(at(types.Vec3{40, 0, 0}, 10*time.Millisecond))
	z.Shutdown()
	require.Equal(t, 0, z.Pool().Len())
	require.Equal(t, factory.created, factory.destroyed)
}

func TestPointSetOcclusionPerChannel(t *testing.T) {
	world := physics.NewWorld()
	world.Add(scene.NewCollider2D("wall", types.Vec2{4, 4}, types.Translate4(types.Vec3{0, 0, 2}), 0))

	cfg := DefaultConfig()
	cfg.Mode = PointSetMode
	cfg.EmissionPoints = []types.Vec3{{0, 0, 5}, {-5, 0, 0}}
	cfg.TriggerOverride = 10
	cfg.Occlusion.Enabled = true
	cfg.Occlusion.SmoothSpeed = 0
	z, _ := newZone(t, cfg, world)

	res, err := z.Tick(at(types.Vec3{}, 50*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 2, res.Emitters)
	require.Equal(t, float32(0), z.Primary().Volume())

	blocked, exists := z.Pool().Channel(0)
	require.True(t, exists)
	state, tracked := z.Sampler().State(blocked)
	require.True(t, tracked)
	require.Equal(t, float32(1), state.Ratio)
	require.InDelta(t, cfg.Occlusion.OccludedVolume, blocked.Volume(), 1e-5)
	require.InDelta(t, cfg.Occlusion.OccludedCutoff, blocked.Cutoff(), 1e-2)

	visible, exists := z.Pool().Channel(1)
	require.True(t, exists)
	state, tracked = z.Sampler().State(visible)
	require.True(t, tracked)
	require.Equal(t, float32(0), state.Ratio)
	require.InDelta(t, 1, visible.Volume(), 1e-5)
	require.InDelta(t, cfg.Occlusion.UnoccludedCutoff, visible.Cutoff(), 1e-2)

	// Leaving range drops the sampler state of released channels
	_, err = z.Tick(at(types.Vec3{100, 0, 0}, 50*time.Millisecond))
	require.NoError(t, err)
	require.Equal(t, 0, z.Sampler().Len())
}

func TestOccludedSecondaryFollowsFade(t *testing.T) {
	// The wall blocks the sightline to the secondary anchor at (2, 0, 0) but
	// not the one to the primary anchor at (0, 0, 3).
	world := physics.NewWorld()
	world.Add(scene.NewCollider2D("wall", types.Vec2{2, 2}, types.Translate4(types.Vec3{2, 0, 1.5}), 0))

	cfg := DefaultConfig()
	cfg.Shape = Shape{Points: []types.Vec3{{0, 0, 10}, {0, 0, 0}, {10, 0, 0}}}
	cfg.DualAudio = true
	cfg.TriggerOverride = 5
	cfg.FadeIn = 200 * time.Millisecond
	cfg.Volume = 0.8
	cfg.Occlusion.Enabled = true
	cfg.Occlusion.SmoothSpeed = 0
	z, _ := newZone(t, cfg, world)

	corner := types.Vec3{2, 0, 3}
	for tick := 1; tick <= 4; tick++ {
		res, err := z.Tick(at(corner, 50*time.Millisecond))
		require.NoError(t, err)
		require.True(t, res.HasSecondary)

		sec := z.Secondary().Channel()
		require.NotNil(t, sec)
		fade := z.Secondary().Fade()
		require.InDelta(t, float32(tick)*0.25, fade, 1e-5)

		state, tracked := z.Sampler().State(sec)
		require.True(t, tracked)
		require.Equal(t, float32(1), state.Ratio)
		require.InDelta(t, cfg.Volume*state.Volume*fade, sec.Volume(), 1e-5)
		require.InDelta(t, cfg.Occlusion.OccludedCutoff, sec.Cutoff(), 1e-2)

		state, _ = z.Sampler().State(z.Primary())
		require.Equal(t, float32(0), state.Ratio)
		require.InDelta(t, cfg.Volume, z.Primary().Volume(), 1e-5)
	}
}

func TestPrimaryWithoutAnchorIsUnoccluded(t *testing.T) {
	world := physics.NewWorld()
	world.Add(scene.NewCollider2D("wall", types.Vec2{40, 40}, types.Translate4(types.Vec3{0, 0, 2}), 0))

	mesh := scene.NewMesh("sliver")
	mesh.AddTriangle(types.Vec3{0, 0, 5}, types.Vec3{1, 0, 5}, types.Vec3{2, 0, 5})
	cfg := DefaultConfig()
	cfg.Mode = MeshMode
	cfg.Meshes = []*scene.Occluder{scene.NewMeshOccluder("sliver", mesh, types.Ident4(), 0)}
	cfg.Volume = 0.6
	cfg.Occlusion.Enabled = true
	z, _ := newZone(t, cfg, world)

	// Leftover state from an earlier occluded anchor
	z.Primary().SetVolume(0.1)
	z.Primary().SetCutoff(500)

	res, err := z.Tick(at(types.Vec3{}, 50*time.Millisecond))
	require.NoError(t, err)
	require.False(t, res.HasPrimary)
	require.InDelta(t, cfg.Volume*cfg.Occlusion.UnoccludedVolume, z.Primary().Volume(), 1e-5)
	require.InDelta(t, cfg.Occlusion.UnoccludedCutoff, z.Primary().Cutoff(), 1e-2)
	_, tracked := z.Sampler().State(z.Primary())
	require.False(t, tracked)
}

func TestPreviewAndFill(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Shape = square(4, 0)
	cfg.TriggerOverride = 1
	z, _ := newZone(t, cfg, nil)

	rings := z.Preview()
	require.Len(t, rings, 1)
	require.Len(t, rings[0], 4)

	indices, err := z.Fill()
	require.NoError(t, err)
	require.Len(t, indices, 6)

	z.Shape.Closed = false
	require.Len(t, z.Preview(), 2)
	_, err = z.Fill()
	require.Error(t, err)
}

func TestConfigValidation(t *testing.T) {
	factory := &countingFactory{Mixer: beepchan.NewMixer(beepchan.DefaultFormat())}
	primary, err := factory.Mixer.NewChannel(audio.DefaultProps(), "zone")
	require.NoError(t, err)

	cfg := DefaultConfig()
	_, err = New(cfg, nil, factory, nil)
	require.ErrorIs(t, err, ErrNoPrimaryChannel)
	_, err = New(cfg, primary, nil, nil)
	require.ErrorIs(t, err, ErrNoChannelFactory)

	cfg.Mode = MeshMode
	_, err = New(cfg, primary, factory, nil)
	require.ErrorIs(t, err, ErrMissingMeshes)

	cfg.Meshes = []*scene.Occluder{scene.NewCollider2D("wall", types.Vec2{1, 1}, types.Ident4(), 0)}
	_, err = New(cfg, primary, factory, nil)
	require.ErrorIs(t, err, ErrNonMeshOccluder)

	cfg = DefaultConfig()
	cfg.Mode = PointSetMode
	_, err = New(cfg, primary, factory, nil)
	require.ErrorIs(t, err, ErrNoEmissionPoints)

	cfg = DefaultConfig()
	cfg.DualMinAngle = 200
	_, err = New(cfg, primary, factory, nil)
	require.ErrorIs(t, err, ErrInvalidDualAngle)

	cfg = DefaultConfig()
	cfg.FadeOut = -time.Second
	_, err = New(cfg, primary, factory, nil)
	require.ErrorIs(t, err, ErrInvalidFade)

	_, err = ParseMode("spiral")
	require.True(t, errors.Is(err, ErrUnknownMode))
	mode, err := ParseMode("Mesh")
	require.NoError(t, err)
	require.Equal(t, MeshMode, mode)
	require.Equal(t, "points", PointSetMode.String())
}
