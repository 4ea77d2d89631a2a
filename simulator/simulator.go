package simulator

import (
	"context"
	"fmt"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/audio/beepchan"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/physics"
	"github.com/achilleasa/soundzone/scene/reader"
	"github.com/achilleasa/soundzone/zone"
	"github.com/gopxl/beep"
)

// A Simulator moves a listener through a scene and ticks every zone at a
// fixed rate, mixing the zone channels through a beepchan mixer.
type Simulator struct {
	logger log.Logger

	scene    *reader.Scene
	opts     Options
	dt       time.Duration
	world    *physics.World
	mixer    *beepchan.Mixer
	listener *PathListener

	zones     []*zone.Zone
	primaries []audio.Channel

	recording *beep.Buffer
	tick      int
	elapsed   time.Duration
}

// Create a simulator for sc. Zone clips are generated or loaded relative to
// the scene source and every primary channel starts playing immediately.
func New(sc *reader.Scene, opts Options) (*Simulator, error) {
	if sc == nil {
		return nil, ErrSceneNotDefined
	}
	if len(sc.Zones) == 0 {
		return nil, ErrNoZones
	}
	if opts.TickRate <= 0 {
		opts.TickRate = sc.TickRate
	}
	if opts.TickRate <= 0 {
		opts.TickRate = 30
	}
	if opts.Format.SampleRate == 0 {
		opts.Format = beepchan.DefaultFormat()
	}

	listener, err := NewPathListener(sc.Listener.Waypoints, sc.Listener.Speed)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		logger:   log.New("simulator"),
		scene:    sc,
		opts:     opts,
		dt:       time.Second / time.Duration(opts.TickRate),
		world:    physics.NewWorld(),
		mixer:    beepchan.NewMixer(opts.Format),
		listener: listener,
	}
	if opts.RecordAudio {
		s.recording = beep.NewBuffer(opts.Format)
	}

	s.world.Add(sc.Occluders...)
	stats := s.world.BuildIndex().Stats()
	s.logger.Infof("indexed %d occluder(s) into %d BVH nodes in %s", stats.Items, stats.Nodes, stats.BuildTime)

	for _, spec := range sc.Zones {
		if err = s.addZone(spec); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Simulator) addZone(spec reader.ZoneSpec) error {
	clip, err := s.loadClip(spec.Config.Name, spec.Clip)
	if err != nil {
		return err
	}

	props := spec.Props
	props.Clip = clip
	primary, err := s.mixer.NewChannel(props, spec.Config.Name)
	if err != nil {
		return fmt.Errorf("simulator: zone %q: %w", spec.Config.Name, err)
	}
	s.primaries = append(s.primaries, primary)

	z, err := zone.New(spec.Config, primary, s.mixer, s.world)
	if err != nil {
		return fmt.Errorf("simulator: zone %q: %w", spec.Config.Name, err)
	}
	if n := z.GenerateCachedMeshGeometry(); n != 0 {
		s.logger.Debugf("zone %q: cached geometry for %d mesh(es)", spec.Config.Name, n)
	}

	primary.Play()
	s.zones = append(s.zones, z)
	return nil
}

func (s *Simulator) loadClip(name string, spec reader.ClipSpec) (*beepchan.Clip, error) {
	if spec.File == "" {
		return beepchan.NewToneClip(fmt.Sprintf("%s-%.0fhz", name, spec.Tone), s.opts.Format, spec.Tone, spec.Duration)
	}

	res, err := reader.NewResource(spec.File, s.scene.Source)
	if err != nil {
		return nil, fmt.Errorf("simulator: zone %q: %w", name, err)
	}
	defer res.Close()

	return beepchan.LoadWAV(spec.File, res, s.opts.Format)
}

// Fixed tick interval.
func (s *Simulator) TickInterval() time.Duration {
	return s.dt
}

func (s *Simulator) World() *physics.World {
	return s.world
}

func (s *Simulator) Mixer() *beepchan.Mixer {
	return s.mixer
}

func (s *Simulator) Zones() []*zone.Zone {
	return s.zones
}

func (s *Simulator) Listener() *PathListener {
	return s.listener
}

// The recorded mix or nil if recording is disabled.
func (s *Simulator) Recording() *beep.Buffer {
	return s.recording
}

// Returns true when the configured duration has elapsed or, if no duration
// was set, the listener has reached the end of its path.
func (s *Simulator) Done() bool {
	if s.opts.Duration > 0 {
		return s.elapsed >= s.opts.Duration
	}
	return s.listener.Done()
}

// Advance the simulation by a single tick. Zone errors are logged and do not
// abort the tick.
func (s *Simulator) Step() TickStats {
	start := time.Now()
	if s.tick > 0 {
		s.listener.Advance(float32(s.dt.Seconds()))
		s.elapsed += s.dt
	}

	ctx := zone.NewTickContext(s.listener, s.dt)
	stats := TickStats{
		Tick:     s.tick,
		Time:     s.elapsed,
		Listener: ctx.Listener,
		Zones:    make([]ZoneStat, 0, len(s.zones)),
	}

	for _, z := range s.zones {
		res, err := z.Tick(ctx)
		if err != nil {
			s.logger.Warningf("zone %q: %s", z.Name, err)
		}
		stats.Zones = append(stats.Zones, zoneStat(z, res))
	}

	s.mixer.SetListener(ctx.Listener, s.listener.Right())
	if s.recording != nil {
		s.mixer.Render(s.dt, s.recording)
	}

	s.tick++
	stats.TickTime = time.Since(start)
	return stats
}

// Step the simulation until Done returns true, invoking onTick (which may be
// nil) after every tick.
func (s *Simulator) Run(ctx context.Context, onTick func(TickStats)) error {
	for !s.Done() {
		select {
		case <-ctx.Done():
			return ErrInterrupted
		default:
		}

		stats := s.Step()
		if onTick != nil {
			onTick(stats)
		}
	}
	return nil
}

// Shut down all zones and destroy their primary channels.
func (s *Simulator) Close() {
	for _, z := range s.zones {
		z.Shutdown()
	}
	for _, ch := range s.primaries {
		s.mixer.Destroy(ch)
	}
	s.zones = nil
	s.primaries = nil
}

func zoneStat(z *zone.Zone, res zone.Result) ZoneStat {
	primary := z.Primary()
	stat := ZoneStat{
		Name:           z.Name,
		Mode:           z.Mode.String(),
		InRange:        res.InRange,
		Inside:         res.Inside,
		Distance:       res.Distance,
		Primary:        res.Primary,
		Secondary:      res.Secondary,
		HasPrimary:     res.HasPrimary,
		HasSecondary:   res.HasSecondary,
		SecondaryState: z.Secondary().State(),
		Emitters:       res.Emitters,
		Volume:         primary.Volume(),
		Cutoff:         primary.Cutoff(),
	}
	if state, exists := z.Sampler().State(primary); exists {
		stat.Occlusion = state.Ratio
	}
	return stat
}
