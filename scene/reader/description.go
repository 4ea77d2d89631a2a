package reader

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/achilleasa/soundzone/audio"
	"github.com/achilleasa/soundzone/log"
	"github.com/achilleasa/soundzone/occlusion"
	"github.com/achilleasa/soundzone/scene"
	"github.com/achilleasa/soundzone/types"
	"github.com/achilleasa/soundzone/zone"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownMesh     = errors.New("reader: unknown mesh")
	ErrUnknownOccluder = errors.New("reader: unknown occluder")
	ErrUnsupportedKind = errors.New("reader: unsupported occluder kind")
	ErrInvalidVector   = errors.New("reader: invalid vector")
	ErrNoClip          = errors.New("reader: zone clip must define either a file or a tone")
)

type transformDesc struct {
	Translate []float32 `yaml:"translate,omitempty"`
	Rotate    []float32 `yaml:"rotate,omitempty"`
	Scale     []float32 `yaml:"scale,omitempty"`
}

type meshDesc struct {
	Name string    `yaml:"name"`
	File string    `yaml:"file,omitempty"`
	Box  []float32 `yaml:"box,omitempty"`
	Quad []float32 `yaml:"quad,omitempty"`
}

type occluderDesc struct {
	Name      string         `yaml:"name"`
	Kind      string         `yaml:"kind"`
	Mesh      string         `yaml:"mesh,omitempty"`
	Size      []float32      `yaml:"size,omitempty"`
	Layer     uint8          `yaml:"layer,omitempty"`
	Transform *transformDesc `yaml:"transform,omitempty"`
}

type clipDesc struct {
	File     string        `yaml:"file,omitempty"`
	Tone     float64       `yaml:"tone,omitempty"`
	Duration time.Duration `yaml:"duration,omitempty"`
}

type audioDesc struct {
	Loop         *bool    `yaml:"loop,omitempty"`
	Volume       *float32 `yaml:"volume,omitempty"`
	SpatialBlend *float32 `yaml:"spatial_blend,omitempty"`
	Rolloff      string   `yaml:"rolloff,omitempty"`
	MinDistance  *float32 `yaml:"min_distance,omitempty"`
	MaxDistance  *float32 `yaml:"max_distance,omitempty"`
	Doppler      *float32 `yaml:"doppler,omitempty"`
	Routing      string   `yaml:"routing,omitempty"`
}

type dualDesc struct {
	Enabled       bool     `yaml:"enabled"`
	MinAngle      *float32 `yaml:"min_angle,omitempty"`
	MinSeparation *float32 `yaml:"min_separation,omitempty"`
}

type occlusionDesc struct {
	Enabled          bool      `yaml:"enabled"`
	Layers           []uint8   `yaml:"layers,omitempty"`
	Resolution       *int      `yaml:"resolution,omitempty"`
	Radius           *float32  `yaml:"radius,omitempty"`
	ListenerOffset   []float32 `yaml:"listener_offset,omitempty"`
	AnchorOffset     []float32 `yaml:"anchor_offset,omitempty"`
	UnoccludedVolume *float32  `yaml:"unoccluded_volume,omitempty"`
	OccludedVolume   *float32  `yaml:"occluded_volume,omitempty"`
	UnoccludedCutoff *float32  `yaml:"unoccluded_cutoff,omitempty"`
	OccludedCutoff   *float32  `yaml:"occluded_cutoff,omitempty"`
	SmoothSpeed      *float32  `yaml:"smooth_speed,omitempty"`
}

type zoneDesc struct {
	Name           string         `yaml:"name"`
	Mode           string         `yaml:"mode,omitempty"`
	Points         [][]float32    `yaml:"points,omitempty"`
	Closed         bool           `yaml:"closed,omitempty"`
	Transform      *transformDesc `yaml:"transform,omitempty"`
	Trigger        float32        `yaml:"trigger,omitempty"`
	FlipTrigger    bool           `yaml:"flip_trigger,omitempty"`
	Meshes         []string       `yaml:"meshes,omitempty"`
	MeshOffset     []float32      `yaml:"mesh_offset,omitempty"`
	EmissionPoints [][]float32    `yaml:"emission_points,omitempty"`
	Dual           *dualDesc      `yaml:"dual_audio,omitempty"`
	FadeIn         *time.Duration `yaml:"fade_in,omitempty"`
	FadeOut        *time.Duration `yaml:"fade_out,omitempty"`
	Volume         *float32       `yaml:"volume,omitempty"`
	Clip           clipDesc       `yaml:"clip"`
	Audio          audioDesc      `yaml:"audio,omitempty"`
	Occlusion      *occlusionDesc `yaml:"occlusion,omitempty"`
}

type listenerDesc struct {
	Speed     float32     `yaml:"speed"`
	Waypoints [][]float32 `yaml:"waypoints"`
}

type sceneDesc struct {
	TickRate  int            `yaml:"tick_rate,omitempty"`
	LogLevel  string         `yaml:"log_level,omitempty"`
	Meshes    []meshDesc     `yaml:"meshes,omitempty"`
	Occluders []occluderDesc `yaml:"occluders,omitempty"`
	Zones     []zoneDesc     `yaml:"zones,omitempty"`
	Listener  listenerDesc   `yaml:"listener"`
}

// Audio source for a zone. Exactly one of File or Tone is set.
type ClipSpec struct {
	// Path to a WAV file resolved relative to the scene description.
	File string

	// Frequency (Hz) and length of a generated tone.
	Tone     float64
	Duration time.Duration
}

// A zone together with the channel it drives.
type ZoneSpec struct {
	Config zone.Config
	Props  audio.Props
	Clip   ClipSpec
}

// A listener moving along a polyline at constant speed.
type ListenerPath struct {
	Waypoints []types.Vec3
	Speed     float32
}

// A loaded scene description.
type Scene struct {
	// Path of the description; relative clip files resolve against it.
	Source *Resource

	TickRate int
	LogLevel log.Level

	Meshes    map[string]*scene.Mesh
	Occluders []*scene.Occluder
	Zones     []ZoneSpec
	Listener  ListenerPath
}

type descriptionReader struct {
	logger log.Logger
	res    *Resource
	scene  *Scene
	byName map[string]*scene.Occluder
}

// Read a YAML scene description. Mesh files referenced by the description are
// resolved relative to res.
func ReadScene(res *Resource) (*Scene, error) {
	data, err := io.ReadAll(res)
	if err != nil {
		return nil, fmt.Errorf("reader: could not read %s: %w", res.Path(), err)
	}

	var desc sceneDesc
	if err = yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("reader: invalid scene description %s: %w", res.Path(), err)
	}

	r := &descriptionReader{
		logger: log.New("scene reader"),
		res:    res,
		scene: &Scene{
			Source:   res,
			TickRate: 30,
			Meshes:   make(map[string]*scene.Mesh),
		},
		byName: make(map[string]*scene.Occluder),
	}

	if desc.TickRate > 0 {
		r.scene.TickRate = desc.TickRate
	}
	if r.scene.LogLevel, err = log.ParseLevel(desc.LogLevel); err != nil {
		return nil, fmt.Errorf("reader: %w", err)
	}

	if err = r.readMeshes(desc.Meshes); err != nil {
		return nil, err
	}
	if err = r.readOccluders(desc.Occluders); err != nil {
		return nil, err
	}
	for idx, zd := range desc.Zones {
		spec, err := r.readZone(idx, zd)
		if err != nil {
			return nil, err
		}
		r.scene.Zones = append(r.scene.Zones, spec)
	}
	if r.scene.Listener, err = readListener(desc.Listener); err != nil {
		return nil, err
	}

	r.logger.Noticef("loaded %d mesh(es), %d occluder(s) and %d zone(s) from %s", len(r.scene.Meshes), len(r.scene.Occluders), len(r.scene.Zones), res.Path())
	return r.scene, nil
}

func (r *descriptionReader) readMeshes(meshes []meshDesc) error {
	for idx, md := range meshes {
		switch {
		case md.File != "":
			if err := r.loadMeshFile(md); err != nil {
				return err
			}
		case md.Box != nil:
			size, err := vec3(md.Box)
			if err != nil {
				return fmt.Errorf("reader: mesh %d (%s): box: %w", idx, md.Name, err)
			}
			r.scene.Meshes[md.Name] = scene.NewBoxMesh(md.Name, size)
		case md.Quad != nil:
			size, err := vec2(md.Quad)
			if err != nil {
				return fmt.Errorf("reader: mesh %d (%s): quad: %w", idx, md.Name, err)
			}
			r.scene.Meshes[md.Name] = scene.NewQuadMesh(md.Name, size)
		default:
			return fmt.Errorf("reader: mesh %d (%s) must define a file, box or quad", idx, md.Name)
		}
	}
	return nil
}

// Load the meshes in an OBJ file. A file with a single mesh is registered
// under the description name; otherwise each mesh is registered as
// "name/object".
func (r *descriptionReader) loadMeshFile(md meshDesc) error {
	res, err := NewResource(md.File, r.res)
	if err != nil {
		return fmt.Errorf("reader: mesh %s: %w", md.Name, err)
	}
	defer res.Close()

	meshes, err := ReadMeshes(res)
	if err != nil {
		return err
	}
	if len(meshes) == 1 {
		meshes[0].Name = md.Name
		r.scene.Meshes[md.Name] = meshes[0]
		return nil
	}
	for _, mesh := range meshes {
		mesh.Name = md.Name + "/" + mesh.Name
		r.scene.Meshes[mesh.Name] = mesh
	}
	return nil
}

func (r *descriptionReader) readOccluders(occluders []occluderDesc) error {
	for idx, od := range occluders {
		transform, err := readTransform(od.Transform)
		if err != nil {
			return fmt.Errorf("reader: occluder %d (%s): %w", idx, od.Name, err)
		}

		var occ *scene.Occluder
		switch strings.ToLower(od.Kind) {
		case "collider2d", "2d":
			size, err := vec2(od.Size)
			if err != nil {
				return fmt.Errorf("reader: occluder %d (%s): size: %w", idx, od.Name, err)
			}
			occ = scene.NewCollider2D(od.Name, size, transform, od.Layer)
		case "mesh", "", "skinned":
			mesh, exists := r.scene.Meshes[od.Mesh]
			if !exists {
				return fmt.Errorf("%w %q referenced by occluder %d (%s)", ErrUnknownMesh, od.Mesh, idx, od.Name)
			}
			if strings.ToLower(od.Kind) == "skinned" {
				occ = scene.NewSkinnedMeshOccluder(od.Name, mesh, transform, od.Layer)
			} else {
				occ = scene.NewMeshOccluder(od.Name, mesh, transform, od.Layer)
			}
		default:
			return fmt.Errorf("%w %q for occluder %d (%s)", ErrUnsupportedKind, od.Kind, idx, od.Name)
		}

		if !occ.Usable() {
			r.logger.Warningf("occluder %q has no usable geometry", od.Name)
		}
		r.scene.Occluders = append(r.scene.Occluders, occ)
		r.byName[od.Name] = occ
	}
	return nil
}

func (r *descriptionReader) readZone(idx int, zd zoneDesc) (ZoneSpec, error) {
	wrap := func(err error) error {
		return fmt.Errorf("reader: zone %d (%s): %w", idx, zd.Name, err)
	}

	cfg := zone.DefaultConfig()
	cfg.Name = zd.Name

	var err error
	if cfg.Mode, err = zone.ParseMode(zd.Mode); err != nil {
		return ZoneSpec{}, wrap(err)
	}
	if cfg.Transform, err = readTransform(zd.Transform); err != nil {
		return ZoneSpec{}, wrap(err)
	}
	if cfg.Shape.Points, err = vec3List(zd.Points); err != nil {
		return ZoneSpec{}, wrap(err)
	}
	cfg.Shape.Closed = zd.Closed
	if cfg.EmissionPoints, err = vec3List(zd.EmissionPoints); err != nil {
		return ZoneSpec{}, wrap(err)
	}
	if zd.MeshOffset != nil {
		if cfg.MeshOffset, err = vec3(zd.MeshOffset); err != nil {
			return ZoneSpec{}, wrap(err)
		}
	}

	cfg.TriggerOverride = zd.Trigger
	if cfg.TriggerOverride < 0 {
		r.logger.Warningf("zone %q: clamping negative trigger distance %.2f to 0", zd.Name, zd.Trigger)
		cfg.TriggerOverride = 0
	}
	cfg.FlipTrigger = zd.FlipTrigger

	for _, name := range zd.Meshes {
		occ, exists := r.byName[name]
		if !exists {
			return ZoneSpec{}, wrap(fmt.Errorf("%w %q", ErrUnknownOccluder, name))
		}
		cfg.Meshes = append(cfg.Meshes, occ)
	}

	if zd.Dual != nil {
		cfg.DualAudio = zd.Dual.Enabled
		setFloat(&cfg.DualMinAngle, zd.Dual.MinAngle)
		setFloat(&cfg.DualMinSeparation, zd.Dual.MinSeparation)
	}
	if zd.FadeIn != nil {
		cfg.FadeIn = *zd.FadeIn
	}
	if zd.FadeOut != nil {
		cfg.FadeOut = *zd.FadeOut
	}
	setFloat(&cfg.Volume, zd.Volume)

	if zd.Occlusion != nil {
		if cfg.Occlusion, err = readOcclusion(*zd.Occlusion); err != nil {
			return ZoneSpec{}, wrap(err)
		}
	}

	props, err := readAudio(zd.Audio)
	if err != nil {
		return ZoneSpec{}, wrap(err)
	}

	if (zd.Clip.File == "") == (zd.Clip.Tone <= 0) {
		return ZoneSpec{}, wrap(ErrNoClip)
	}
	clip := ClipSpec{File: zd.Clip.File, Tone: zd.Clip.Tone, Duration: zd.Clip.Duration}
	if clip.Tone > 0 && clip.Duration <= 0 {
		clip.Duration = time.Second
	}

	if err = cfg.Validate(); err != nil {
		return ZoneSpec{}, wrap(err)
	}
	return ZoneSpec{Config: cfg, Props: props, Clip: clip}, nil
}

func readAudio(ad audioDesc) (audio.Props, error) {
	props := audio.DefaultProps()
	if ad.Loop != nil {
		props.Loop = *ad.Loop
	}
	setFloat(&props.Volume, ad.Volume)
	setFloat(&props.SpatialBlend, ad.SpatialBlend)
	setFloat(&props.MinDistance, ad.MinDistance)
	setFloat(&props.MaxDistance, ad.MaxDistance)
	setFloat(&props.DopplerLevel, ad.Doppler)
	props.Routing = ad.Routing

	switch strings.ToLower(ad.Rolloff) {
	case "", "logarithmic", "log":
		props.Rolloff = audio.LogarithmicRolloff
	case "linear":
		props.Rolloff = audio.LinearRolloff
	default:
		return props, fmt.Errorf("unknown rolloff %q", ad.Rolloff)
	}
	return props, nil
}

func readOcclusion(od occlusionDesc) (occlusion.Params, error) {
	params := occlusion.DefaultParams()
	params.Enabled = od.Enabled
	if len(od.Layers) != 0 {
		params.Mask = scene.Layers(od.Layers...)
	}
	if od.Resolution != nil {
		params.Resolution = *od.Resolution
	}
	setFloat(&params.Radius, od.Radius)
	setFloat(&params.UnoccludedVolume, od.UnoccludedVolume)
	setFloat(&params.OccludedVolume, od.OccludedVolume)
	setFloat(&params.UnoccludedCutoff, od.UnoccludedCutoff)
	setFloat(&params.OccludedCutoff, od.OccludedCutoff)
	setFloat(&params.SmoothSpeed, od.SmoothSpeed)

	var err error
	if od.ListenerOffset != nil {
		if params.ListenerOffset, err = vec3(od.ListenerOffset); err != nil {
			return params, fmt.Errorf("listener_offset: %w", err)
		}
	}
	if od.AnchorOffset != nil {
		if params.AnchorOffset, err = vec3(od.AnchorOffset); err != nil {
			return params, fmt.Errorf("anchor_offset: %w", err)
		}
	}
	return params, nil
}

func readListener(ld listenerDesc) (ListenerPath, error) {
	waypoints, err := vec3List(ld.Waypoints)
	if err != nil {
		return ListenerPath{}, fmt.Errorf("reader: listener: %w", err)
	}
	speed := ld.Speed
	if speed <= 0 {
		speed = 1
	}
	return ListenerPath{Waypoints: waypoints, Speed: speed}, nil
}

// Build a T * R * S matrix; rotation is given as euler angles in degrees.
func readTransform(td *transformDesc) (types.Mat4, error) {
	if td == nil {
		return types.Ident4(), nil
	}

	var (
		translation, rotation types.Vec3
		scale                 = types.Vec3{1, 1, 1}
		err                   error
	)
	if td.Translate != nil {
		if translation, err = vec3(td.Translate); err != nil {
			return types.Mat4{}, fmt.Errorf("translate: %w", err)
		}
	}
	if td.Rotate != nil {
		if rotation, err = vec3(td.Rotate); err != nil {
			return types.Mat4{}, fmt.Errorf("rotate: %w", err)
		}
	}
	if td.Scale != nil {
		if scale, err = vec3(td.Scale); err != nil {
			return types.Mat4{}, fmt.Errorf("scale: %w", err)
		}
	}
	return types.TRS(translation, types.QuatFromEuler(rotation), scale), nil
}

func setFloat(dst *float32, src *float32) {
	if src != nil {
		*dst = *src
	}
}

func vec3(v []float32) (types.Vec3, error) {
	if len(v) != 3 {
		return types.Vec3{}, fmt.Errorf("%w: expected 3 components; got %d", ErrInvalidVector, len(v))
	}
	return types.Vec3{v[0], v[1], v[2]}, nil
}

func vec2(v []float32) (types.Vec2, error) {
	if len(v) != 2 {
		return types.Vec2{}, fmt.Errorf("%w: expected 2 components; got %d", ErrInvalidVector, len(v))
	}
	return types.Vec2{v[0], v[1]}, nil
}

func vec3List(list [][]float32) ([]types.Vec3, error) {
	out := make([]types.Vec3, 0, len(list))
	for idx, v := range list {
		p, err := vec3(v)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", idx, err)
		}
		out = append(out, p)
	}
	return out, nil
}
