package game

import (
	"encoding/json"
	"math/rand"
	"sort"
	"time"
)

// EffectKind tags the four sub-effect payload shapes.
type EffectKind int

const (
	EffectProjectile EffectKind = iota
	EffectBeam
	EffectChain
	EffectMissile
)

var effectKindNames = [...]string{
	EffectProjectile: "projectile",
	EffectBeam:       "beam",
	EffectChain:      "chain",
	EffectMissile:    "missile",
}

func (k EffectKind) String() string {
	if k < 0 || int(k) >= len(effectKindNames) {
		return "effect(?)"
	}
	return effectKindNames[k]
}

func (k EffectKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// EffectDescriptor is the generator's output: one scheduled sub-effect,
// not yet live. The tracker turns descriptors into live effects.
type EffectDescriptor struct {
	Kind       EffectKind
	Origin     Vec3
	Target     Vec3
	Path       []Vec3 // chain only: [origin, target1, ..., targetN]
	TargetID   string
	TargetIDs  []string // chain only, in path order
	StartDelay time.Duration
	Duration   time.Duration
	Speed      float64 // projectile only, world units per second
}

// GenerateAttack maps (variant, target snapshot, origin) to a time-ordered
// set of effect descriptors. Structure (count, kinds, targets, delays) is
// deterministic; rng only adds cosmetic spatial jitter and may be nil.
func GenerateAttack(v Variant, targets []Target, origin Vec3, cfg *Config, rng *rand.Rand) []EffectDescriptor {
	if len(targets) == 0 {
		return nil
	}

	switch v {
	case RapidBurst:
		return generateRapidBurst(targets, origin, cfg, rng)
	case PrecisionBeam:
		return generatePrecisionBeam(targets, origin, cfg)
	case ChainedArc:
		return generateChainedArc(targets, origin, cfg)
	case HomingSwarm:
		return generateHomingSwarm(targets, origin, cfg)
	}
	return nil
}

// generateRapidBurst emits a cascade of straight projectiles: several shots
// per target, staggered so eliminations read left to right.
func generateRapidBurst(targets []Target, origin Vec3, cfg *Config, rng *rand.Rand) []EffectDescriptor {
	rb := cfg.RapidBurst
	descs := make([]EffectDescriptor, 0, len(targets)*rb.ShotsPerTarget)
	for i, t := range targets {
		for j := 0; j < rb.ShotsPerTarget; j++ {
			descs = append(descs, EffectDescriptor{
				Kind:       EffectProjectile,
				Origin:     jitter(origin, rb.JitterRadius, rng),
				Target:     t.Pos,
				TargetID:   t.ID,
				StartDelay: time.Duration(j)*ms(rb.FireCadenceMs) + time.Duration(i)*ms(rb.TargetStaggerMs),
				Speed:      rb.ProjectileSpeed,
			})
		}
	}
	return descs
}

// generatePrecisionBeam emits one lock-on beam per target.
func generatePrecisionBeam(targets []Target, origin Vec3, cfg *Config) []EffectDescriptor {
	pb := cfg.PrecisionBeam
	descs := make([]EffectDescriptor, 0, len(targets))
	for i, t := range targets {
		descs = append(descs, EffectDescriptor{
			Kind:       EffectBeam,
			Origin:     origin,
			Target:     t.Pos,
			TargetID:   t.ID,
			StartDelay: time.Duration(i) * ms(pb.BeamStaggerMs),
			Duration:   ms(pb.LockDurationMs),
		})
	}
	return descs
}

// generateChainedArc emits a single arc walking all targets nearest-first.
// All targets die together on the one completion signal, so N collapses to
// one descriptor.
func generateChainedArc(targets []Target, origin Vec3, cfg *Config) []EffectDescriptor {
	ca := cfg.ChainedArc

	sorted := SnapshotTargets(targets)
	sort.SliceStable(sorted, func(a, b int) bool {
		return Distance(origin, sorted[a].Pos) < Distance(origin, sorted[b].Pos)
	})

	path := make([]Vec3, 0, len(sorted)+1)
	ids := make([]string, 0, len(sorted))
	path = append(path, origin)
	for _, t := range sorted {
		path = append(path, t.Pos)
		ids = append(ids, t.ID)
	}

	return []EffectDescriptor{{
		Kind:      EffectChain,
		Origin:    origin,
		Path:      path,
		TargetIDs: ids,
		Duration:  ms(ca.ChainDurationMs),
	}}
}

// generateHomingSwarm emits one missile per target, all launched at once
// from a 3-column grid behind the attack point.
func generateHomingSwarm(targets []Target, origin Vec3, cfg *Config) []EffectDescriptor {
	hs := cfg.HomingSwarm
	descs := make([]EffectDescriptor, 0, len(targets))
	for i, t := range targets {
		col := i % 3
		row := i / 3
		launch := origin.Add(Vec3{
			X: float64(col-1) * hs.GridSpacing,
			Y: float64(row) * hs.GridSpacing,
		})
		descs = append(descs, EffectDescriptor{
			Kind:       EffectMissile,
			Origin:     launch,
			Target:     t.Pos,
			TargetID:   t.ID,
			Duration:   ms(hs.FlightTimeMs),
			StartDelay: 0,
		})
	}
	return descs
}

// jitter offsets p by a random amount inside a cube of half-size r.
func jitter(p Vec3, r float64, rng *rand.Rand) Vec3 {
	if rng == nil || r <= 0 {
		return p
	}
	return p.Add(Vec3{
		X: (rng.Float64()*2 - 1) * r,
		Y: (rng.Float64()*2 - 1) * r,
		Z: (rng.Float64()*2 - 1) * r,
	})
}
