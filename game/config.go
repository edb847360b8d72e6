package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Offset positions the wingman relative to the escort's pose:
// Back along the reverse of the escort's facing, Side along its right,
// Up along the world up axis.
type Offset struct {
	Back float64 `yaml:"back"`
	Side float64 `yaml:"side"`
	Up   float64 `yaml:"up"`
}

// RapidBurstConfig tunes the projectile barrage variant.
type RapidBurstConfig struct {
	DisplayName     string  `yaml:"display_name"`
	Color           string  `yaml:"color"`
	ShotsPerTarget  int     `yaml:"shots_per_target"`
	FireCadenceMs   int     `yaml:"fire_cadence_ms"`   // delay between shots at one target
	TargetStaggerMs int     `yaml:"target_stagger_ms"` // extra delay per target index
	ProjectileSpeed float64 `yaml:"projectile_speed"`  // world units per second
	JitterRadius    float64 `yaml:"jitter_radius"`     // cosmetic muzzle scatter
	HitThreshold    float64 `yaml:"hit_threshold"`     // remaining distance that counts as a hit
}

// PrecisionBeamConfig tunes the target-lock beam variant.
type PrecisionBeamConfig struct {
	DisplayName    string `yaml:"display_name"`
	Color          string `yaml:"color"`
	BeamStaggerMs  int    `yaml:"beam_stagger_ms"` // delay per target index
	LockDurationMs int    `yaml:"lock_duration_ms"`
}

// ChainedArcConfig tunes the chained lightning variant.
type ChainedArcConfig struct {
	DisplayName     string `yaml:"display_name"`
	Color           string `yaml:"color"`
	ChainDurationMs int    `yaml:"chain_duration_ms"` // link phase
	BurstDurationMs int    `yaml:"burst_duration_ms"` // terminal burst phase
	ElimStrideMs    int    `yaml:"elim_stride_ms"`    // stagger between per-target impact events
}

// HomingSwarmConfig tunes the homing missile variant.
type HomingSwarmConfig struct {
	DisplayName  string  `yaml:"display_name"`
	Color        string  `yaml:"color"`
	FlightTimeMs int     `yaml:"flight_time_ms"`
	ImpactHoldMs int     `yaml:"impact_hold_ms"` // terminal impact sub-state
	GridSpacing  float64 `yaml:"grid_spacing"`   // launch grid cell size, 3 columns per row
	ArcHeight    float64 `yaml:"arc_height"`     // vertical lift at path midpoint
}

// Config is the full tuning surface for the wingman ability.
// All durations are integer milliseconds.
type Config struct {
	CooldownMs       int     `yaml:"cooldown_ms"`
	ApproachWindowMs int     `yaml:"approach_window_ms"`
	AttackDwellMs    int     `yaml:"attack_dwell_ms"`
	EscapeWindowMs   int     `yaml:"escape_window_ms"`
	EscapeClimbDeg   float64 `yaml:"escape_climb_deg"`

	SpawnOffset  Offset `yaml:"spawn_offset"`  // behind and above the escort
	AttackOffset Offset `yaml:"attack_offset"` // to the side of the escort
	EscapeOffset Offset `yaml:"escape_offset"` // receding climb path endpoint

	BurstLifetimeMs      int `yaml:"burst_lifetime_ms"`       // cosmetic burst lifetime
	BurstSweepIntervalMs int `yaml:"burst_sweep_interval_ms"` // sweeper poll interval

	RapidBurst    RapidBurstConfig    `yaml:"rapid_burst"`
	PrecisionBeam PrecisionBeamConfig `yaml:"precision_beam"`
	ChainedArc    ChainedArcConfig    `yaml:"chained_arc"`
	HomingSwarm   HomingSwarmConfig   `yaml:"homing_swarm"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() *Config {
	return &Config{
		CooldownMs:       10000,
		ApproachWindowMs: 1200,
		AttackDwellMs:    4000,
		EscapeWindowMs:   1500,
		EscapeClimbDeg:   25,

		SpawnOffset:  Offset{Back: 8, Up: 4},
		AttackOffset: Offset{Side: 6, Up: 1},
		EscapeOffset: Offset{Back: 20, Up: 10},

		BurstLifetimeMs:      800,
		BurstSweepIntervalMs: 250,

		RapidBurst: RapidBurstConfig{
			DisplayName:     "Rapid Burst",
			Color:           "#ffb347",
			ShotsPerTarget:  5,
			FireCadenceMs:   50,
			TargetStaggerMs: 30,
			ProjectileSpeed: 40,
			JitterRadius:    0.5,
			HitThreshold:    0.3,
		},
		PrecisionBeam: PrecisionBeamConfig{
			DisplayName:    "Precision Beam",
			Color:          "#66d9ff",
			BeamStaggerMs:  50,
			LockDurationMs: 600,
		},
		ChainedArc: ChainedArcConfig{
			DisplayName:     "Chained Arc",
			Color:           "#c77dff",
			ChainDurationMs: 900,
			BurstDurationMs: 400,
			ElimStrideMs:    80,
		},
		HomingSwarm: HomingSwarmConfig{
			DisplayName:  "Homing Swarm",
			Color:        "#7cfc00",
			FlightTimeMs: 1400,
			ImpactHoldMs: 200,
			GridSpacing:  1.5,
			ArcHeight:    3,
		},
	}
}

// LoadConfig reads a YAML file over the defaults. A missing file is an error;
// callers that want silent defaults should check os.IsNotExist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects tunings that break the sequencer's timing invariants.
// The attack dwell must outlast every fixed-duration effect so that all
// effects have completed before the escape phase begins.
func (c *Config) Validate() error {
	positives := []struct {
		name string
		v    int
	}{
		{"cooldown_ms", c.CooldownMs},
		{"approach_window_ms", c.ApproachWindowMs},
		{"attack_dwell_ms", c.AttackDwellMs},
		{"escape_window_ms", c.EscapeWindowMs},
		{"burst_lifetime_ms", c.BurstLifetimeMs},
		{"burst_sweep_interval_ms", c.BurstSweepIntervalMs},
		{"rapid_burst.shots_per_target", c.RapidBurst.ShotsPerTarget},
		{"precision_beam.lock_duration_ms", c.PrecisionBeam.LockDurationMs},
		{"chained_arc.chain_duration_ms", c.ChainedArc.ChainDurationMs},
		{"homing_swarm.flight_time_ms", c.HomingSwarm.FlightTimeMs},
	}
	for _, p := range positives {
		if p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.v)
		}
	}
	if c.RapidBurst.ProjectileSpeed <= 0 {
		return fmt.Errorf("rapid_burst.projectile_speed must be positive, got %g", c.RapidBurst.ProjectileSpeed)
	}
	if c.ChainedArc.ChainDurationMs+c.ChainedArc.BurstDurationMs >= c.AttackDwellMs {
		return fmt.Errorf("attack_dwell_ms %d must exceed chained arc total %d",
			c.AttackDwellMs, c.ChainedArc.ChainDurationMs+c.ChainedArc.BurstDurationMs)
	}
	if c.HomingSwarm.FlightTimeMs+c.HomingSwarm.ImpactHoldMs >= c.AttackDwellMs {
		return fmt.Errorf("attack_dwell_ms %d must exceed homing swarm total %d",
			c.AttackDwellMs, c.HomingSwarm.FlightTimeMs+c.HomingSwarm.ImpactHoldMs)
	}
	if c.PrecisionBeam.LockDurationMs >= c.AttackDwellMs {
		return fmt.Errorf("attack_dwell_ms %d must exceed beam lock duration %d",
			c.AttackDwellMs, c.PrecisionBeam.LockDurationMs)
	}
	return nil
}

// DisplayName returns the configured human-readable name for a variant.
func (c *Config) DisplayName(v Variant) string {
	switch v {
	case RapidBurst:
		return c.RapidBurst.DisplayName
	case PrecisionBeam:
		return c.PrecisionBeam.DisplayName
	case ChainedArc:
		return c.ChainedArc.DisplayName
	case HomingSwarm:
		return c.HomingSwarm.DisplayName
	}
	return v.String()
}

// ms converts an integer millisecond config value to a Duration.
func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
