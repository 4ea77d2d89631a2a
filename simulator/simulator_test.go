package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/scene/reader"
	"github.com/achilleasa/soundzone/types"
	"github.com/achilleasa/soundzone/zone"
)

func TestPathListener(t *testing.T) {
	l, err := NewPathListener([]types.Vec3{{0, 0, 0}, {0, 0, 4}, {3, 0, 4}}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if l.Length() != 7 {
		t.Fatalf("expected path length 7; got %f", l.Length())
	}
	if right := l.Right(); !right.ApproxEqual(types.Vec3{1, 0, 0}, 1e-6) {
		t.Fatalf("expected right vector +X while heading +Z; got %v", right)
	}

	l.Advance(1)
	if pos, _ := l.ListenerPosition(); !pos.ApproxEqual(types.Vec3{0, 0, 2}, 1e-5) {
		t.Fatalf("expected (0, 0, 2); got %v", pos)
	}

	// Crosses the corner
	l.Advance(1.5)
	if pos, _ := l.ListenerPosition(); !pos.ApproxEqual(types.Vec3{1, 0, 4}, 1e-5) {
		t.Fatalf("expected (1, 0, 4); got %v", pos)
	}
	if l.Done() {
		t.Fatal("expected listener to still be moving")
	}

	l.Advance(10)
	if pos, _ := l.ListenerPosition(); pos != (types.Vec3{3, 0, 4}) || !l.Done() {
		t.Fatalf("expected listener to stop at the last waypoint; got %v", pos)
	}

	if _, err = NewPathListener(nil, 1); err != ErrNoWaypoints {
		t.Fatalf("expected ErrNoWaypoints; got %v", err)
	}
}

func testScene() *reader.Scene {
	cfg := zone.DefaultConfig()
	cfg.Name = "stream"
	cfg.Shape.Points = []types.Vec3{{-10, 0, 10}, {10, 0, 10}}
	cfg.TriggerOverride = 5

	return &reader.Scene{
		TickRate: 10,
		Occluders: []*scene.Occluder{
			scene.NewCollider2D("wall", types.Vec2{4, 4}, types.Translate4(types.Vec3{0, 0, 30}), 0),
		},
		Zones: []reader.ZoneSpec{
			{
				Config: cfg,
				Props:  audio.DefaultProps(),
				Clip:   reader.ClipSpec{Tone: 440, Duration: 500 * time.Millisecond},
			},
		},
		Listener: reader.ListenerPath{
			Waypoints: []types.Vec3{{0, 0, 0}, {0, 0, 20}},
			Speed:     10,
		},
	}
}

func TestSimulatorRun(t *testing.T) {
	sim, err := New(testScene(), Options{RecordAudio: true})
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	if sim.TickInterval() != 100*time.Millisecond {
		t.Fatalf("expected the scene tick rate to be used; got interval %s", sim.TickInterval())
	}
	if sim.World().Index().Stats().Items != 1 {
		t.Fatal("expected the wall to be indexed")
	}

	var ticks []TickStats
	if err = sim.Run(context.Background(), func(stats TickStats) { ticks = append(ticks, stats) }); err != nil {
		t.Fatal(err)
	}

	if len(ticks) != 21 {
		t.Fatalf("expected 21 ticks; got %d", len(ticks))
	}
	if ticks[0].Zones[0].InRange {
		t.Fatal("expected listener to start out of range")
	}
	if !ticks[10].Zones[0].InRange || !ticks[10].Listener.ApproxEqual(types.Vec3{0, 0, 10}, 1e-3) {
		t.Fatalf("expected listener at (0, 0, 10) to be in range; got %v", ticks[10].Listener)
	}
	if got := ticks[10].Zones[0].Distance; got > 1e-3 {
		t.Fatalf("expected zero distance on the stream; got %f", got)
	}
	if ticks[20].Time != 2*time.Second {
		t.Fatalf("expected last tick at 2s; got %s", ticks[20].Time)
	}

	exp := 21 * sim.Mixer().Format().SampleRate.N(sim.TickInterval())
	if got := sim.Recording().Len(); got != exp {
		t.Fatalf("expected %d recorded samples; got %d", exp, got)
	}

	sim.Close()
	if sim.Mixer().Len() != 0 {
		t.Fatalf("expected all channels to be destroyed; got %d", sim.Mixer().Len())
	}
}

func TestSimulatorDurationAndInterrupt(t *testing.T) {
	sim, err := New(testScene(), Options{TickRate: 20, Duration: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()

	count := 0
	if err = sim.Run(context.Background(), func(TickStats) { count++ }); err != nil {
		t.Fatal(err)
	}
	if count != 21 || sim.Recording() != nil {
		t.Fatalf("expected 21 ticks without a recording; got %d", count)
	}

	sim2, err := New(testScene(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer sim2.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err = sim2.Run(ctx, nil); err != ErrInterrupted {
		t.Fatalf("expected ErrInterrupted; got %v", err)
	}
}

func TestSimulatorErrors(t *testing.T) {
	if _, err := New(nil, Options{}); err != ErrSceneNotDefined {
		t.Fatalf("expected ErrSceneNotDefined; got %v", err)
	}

	sc := testScene()
	sc.Zones = nil
	if _, err := New(sc, Options{}); err != ErrNoZones {
		t.Fatalf("expected ErrNoZones; got %v", err)
	}

	sc = testScene()
	sc.Listener.Waypoints = nil
	if _, err := New(sc, Options{}); err != ErrNoWaypoints {
		t.Fatalf("expected ErrNoWaypoints; got %v", err)
	}
}
