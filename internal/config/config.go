package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFrameDt   = 1.0 / 60.0
	DefaultSubsteps  = 8
	DefaultFrames    = 600
	DefaultWorldW    = 1600.0
	DefaultWorldH    = 1000.0
	DefaultWorldD    = 400.0
	DefaultTolerance = 0.15
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full run configuration. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	Scenario string  `yaml:"scenario"`
	Frames   int     `yaml:"frames"`
	Seed     int64   `yaml:"seed"`
	Tables   string  `yaml:"tables,omitempty"`
	World    World   `yaml:"world"`
	Physics  Physics `yaml:"physics"`
}

type World struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Depth  float64 `yaml:"depth"`
}

// Physics holds every tuning constant the solver, integrator and reaction
// rules read.
type Physics struct {
	FrameDt   float64 `yaml:"frame_dt"`
	Substeps  int     `yaml:"substeps"`
	TimeScale float64 `yaml:"time_scale"`

	BondStiffness   float64 `yaml:"bond_stiffness"`
	BondDamping     float64 `yaml:"bond_damping"`
	BondLengthScale float64 `yaml:"bond_length_scale"`
	BondOrderShrink float64 `yaml:"bond_order_shrink"`
	BreakStretch    float64 `yaml:"break_stretch"`
	MaxSpringForce  float64 `yaml:"max_spring_force"`
	MaxDampingForce float64 `yaml:"max_damping_force"`

	CoulombK        float64 `yaml:"coulomb_k"`
	CoulombRange    float64 `yaml:"coulomb_range"`
	Softening       float64 `yaml:"softening"`
	StrongForce     float64 `yaml:"strong_force"`
	StrongRange     float64 `yaml:"strong_range"`
	CollisionMargin float64 `yaml:"collision_margin"`
	HardCoreK       float64 `yaml:"hard_core_k"`

	GentleBondSpeed float64 `yaml:"gentle_bond_speed"`
	ForcedBondSpeed float64 `yaml:"forced_bond_speed"`
	BondCooldown    float64 `yaml:"bond_cooldown"`

	MaxAccel     float64 `yaml:"max_accel"`
	Drag         float64 `yaml:"drag"`
	CooldownDrag float64 `yaml:"cooldown_drag"`
	Restitution  float64 `yaml:"restitution"`
	ZSpring      float64 `yaml:"z_spring"`
	ZMassFloor   float64 `yaml:"z_mass_floor"`
	BosonSpeed   float64 `yaml:"boson_speed"`

	VSEPRStrength      float64 `yaml:"vsepr_strength"`
	VSEPRCooldownScale float64 `yaml:"vsepr_cooldown_scale"`
	DihedralStrength   float64 `yaml:"dihedral_strength"`

	AnnihilationFactor    float64 `yaml:"annihilation_factor"`
	CaptureRadius         float64 `yaml:"capture_radius"`
	MaxIonCharge          float64 `yaml:"max_ion_charge"`
	HadronizationRadius   float64 `yaml:"hadronization_radius"`
	HadronizationInterval int     `yaml:"hadronization_interval"`
	ResonanceTolerance    float64 `yaml:"resonance_tolerance"`
	PairSpeedBase         float64 `yaml:"pair_speed_base"`
	PairSpeedScale        float64 `yaml:"pair_speed_scale"`
	DecayEjectSpeed       float64 `yaml:"decay_eject_speed"`

	DragStiffness float64 `yaml:"drag_stiffness"`
	DragDamping   float64 `yaml:"drag_damping"`

	AssemblyHold      float64 `yaml:"assembly_hold"`
	AssemblyEase      float64 `yaml:"assembly_ease"`
	ReleaseImpulse    float64 `yaml:"release_impulse"`
	ReleaseCooldown   float64 `yaml:"release_cooldown"`
	ClearanceFrames   int     `yaml:"clearance_frames"`
	ClearanceRadius   float64 `yaml:"clearance_radius"`
	ClearanceSpeed    float64 `yaml:"clearance_speed"`
	CompressionFrames int     `yaml:"compression_frames"`
	CloudRadius       float64 `yaml:"cloud_radius"`
	MinCaptureRadius  float64 `yaml:"min_capture_radius"`
	WallStiffness     float64 `yaml:"wall_stiffness"`
	AssemblyMaxFrames int     `yaml:"assembly_max_frames"`

	ParticleLife      float64 `yaml:"particle_life"`
	LabelLife         float64 `yaml:"label_life"`
	DiscoveryInterval int     `yaml:"discovery_interval"`
}

func DefaultPhysics() Physics {
	return Physics{
		FrameDt:   DefaultFrameDt,
		Substeps:  DefaultSubsteps,
		TimeScale: 1.0,

		BondStiffness:   400,
		BondDamping:     8,
		BondLengthScale: 0.9,
		BondOrderShrink: 0.08,
		BreakStretch:    3.0,
		MaxSpringForce:  5000,
		MaxDampingForce: 2000,

		CoulombK:        20000,
		CoulombRange:    600,
		Softening:       5,
		StrongForce:     60,
		StrongRange:     150,
		CollisionMargin: 1.0,
		HardCoreK:       1500,

		GentleBondSpeed: 150,
		ForcedBondSpeed: 700,
		BondCooldown:    0.2,

		MaxAccel:     6000,
		Drag:         0.2,
		CooldownDrag: 2.0,
		Restitution:  0.8,
		ZSpring:      50,
		ZMassFloor:   1.0,
		BosonSpeed:   600,

		VSEPRStrength:      120,
		VSEPRCooldownScale: 0.25,
		DihedralStrength:   40,

		AnnihilationFactor:    1.4,
		CaptureRadius:         12,
		MaxIonCharge:          2,
		HadronizationRadius:   36,
		HadronizationInterval: 5,
		ResonanceTolerance:    DefaultTolerance,
		PairSpeedBase:         60,
		PairSpeedScale:        8,
		DecayEjectSpeed:       250,

		DragStiffness: 60,
		DragDamping:   12,

		AssemblyHold:      0.5,
		AssemblyEase:      12,
		ReleaseImpulse:    15,
		ReleaseCooldown:   1.0,
		ClearanceFrames:   20,
		ClearanceRadius:   220,
		ClearanceSpeed:    120,
		CompressionFrames: 45,
		CloudRadius:       120,
		MinCaptureRadius:  45,
		WallStiffness:     40,
		AssemblyMaxFrames: 240,

		ParticleLife:      0.6,
		LabelLife:         2.0,
		DiscoveryInterval: 30,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Scenario: "soup",
		Frames:   DefaultFrames,
		World: World{
			Width:  DefaultWorldW,
			Height: DefaultWorldH,
			Depth:  DefaultWorldD,
		},
		Physics: DefaultPhysics(),
	}
}

// SubstepDt is the integration step for one substep.
func (p Physics) SubstepDt() float64 {
	return p.FrameDt * p.TimeScale / float64(p.Substeps)
}

// FrameTime is the simulated time one frame advances.
func (p Physics) FrameTime() float64 {
	return p.FrameDt * p.TimeScale
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	p := c.Physics
	switch {
	case p.FrameDt <= 0:
		return fmt.Errorf("%w: frame_dt must be positive, got %f", ErrInvalidConfig, p.FrameDt)
	case p.Substeps <= 0:
		return fmt.Errorf("%w: substeps must be positive, got %d", ErrInvalidConfig, p.Substeps)
	case p.TimeScale <= 0:
		return fmt.Errorf("%w: time_scale must be positive, got %f", ErrInvalidConfig, p.TimeScale)
	case p.ForcedBondSpeed <= p.GentleBondSpeed:
		return fmt.Errorf("%w: forced_bond_speed must exceed gentle_bond_speed", ErrInvalidConfig)
	case p.ResonanceTolerance <= 0 || p.ResonanceTolerance >= 1:
		return fmt.Errorf("%w: resonance_tolerance must be in (0,1), got %f", ErrInvalidConfig, p.ResonanceTolerance)
	case p.HadronizationInterval <= 0 || p.DiscoveryInterval <= 0:
		return fmt.Errorf("%w: scan intervals must be positive", ErrInvalidConfig)
	case c.World.Width <= 0 || c.World.Height <= 0:
		return fmt.Errorf("%w: world size must be positive", ErrInvalidConfig)
	}
	return nil
}
