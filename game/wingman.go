package game

import (
	"encoding/json"
	"math"
	"math/rand"
	"time"
)

// Phase is the wingman's position in the ability cycle. Exactly one phase
// is active at a time; transitions are one-directional except the
// terminal Escaping -> Idle wrap.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseApproaching
	PhaseAttacking
	PhaseEscaping
)

var phaseNames = [...]string{
	PhaseIdle:        "idle",
	PhaseApproaching: "approaching",
	PhaseAttacking:   "attacking",
	PhaseEscaping:    "escaping",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "phase(?)"
	}
	return phaseNames[p]
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Events are the host's observer hooks. Any field may be nil. All
// callbacks fire synchronously inside Update or Activate, on the tick
// thread.
type Events struct {
	// Activated fires once per accepted activation.
	Activated func(v Variant, displayName string)
	// Eliminated fires once per activation at the Attack -> Escape
	// transition with every target id captured at activation.
	Eliminated func(ids []string)
	// Cooldown fires every tick while the cooldown is running.
	Cooldown func(remaining, max time.Duration)
	// Impact fires once per target as the effect that resolved it
	// completes, with the target's snapshot position.
	Impact func(targetID string, pos Vec3)
}

// Wingman is the support unit's ability state machine. It owns the phase,
// cooldown, unit pose, target snapshot, live effects, and cosmetic
// bursts for the current activation.
//
// Not safe for concurrent use; a multi-threaded host must serialize
// Activate, Update, and queries behind one tick boundary.
type Wingman struct {
	cfg     *Config
	variant Variant
	events  Events
	rng     *rand.Rand

	phase        Phase
	phaseElapsed time.Duration
	cooldown     time.Duration

	pose       Pose
	spawnPose  Pose
	attackPose Pose
	escapeFrom Vec3
	escapeTo   Vec3

	snapshot []Target
	tracker  *EffectTracker
	sweeper  *Sweeper
}

// NewWingman creates an idle wingman with no cooldown running.
func NewWingman(cfg *Config, events Events) *Wingman {
	w := &Wingman{
		cfg:    cfg,
		events: events,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	w.tracker = NewEffectTracker(w.handleImpact)
	w.sweeper = NewSweeper(ms(cfg.BurstSweepIntervalMs), ms(cfg.BurstLifetimeMs))
	return w
}

func (w *Wingman) handleImpact(targetID string, pos Vec3) {
	w.sweeper.Spawn(pos)
	if w.events.Impact != nil {
		w.events.Impact(targetID, pos)
	}
}

// Activate attempts to start the ability against the given targets,
// reading the escort's reference pose to place the approach. Returns
// false, leaving all state unchanged, if an activation is already in
// progress, the cooldown is running, or the target list is empty.
func (w *Wingman) Activate(ref Pose, targets []Target) bool {
	if w.phase != PhaseIdle || w.cooldown > 0 || len(targets) == 0 {
		return false
	}

	w.snapshot = SnapshotTargets(targets)
	w.spawnPose = Pose{Pos: offsetFrom(ref, w.cfg.SpawnOffset), Dir: ref.Dir}
	w.attackPose = Pose{Pos: offsetFrom(ref, w.cfg.AttackOffset), Dir: ref.Dir}
	w.pose = w.spawnPose
	w.phase = PhaseApproaching
	w.phaseElapsed = 0

	if w.events.Activated != nil {
		w.events.Activated(w.variant, w.cfg.DisplayName(w.variant))
	}
	return true
}

// Update advances the whole engine by one tick: cooldown first, then the
// phase state machine (invoking the attack generator exactly once per
// activation at the approach/attack boundary), then live effects and the
// burst sweeper.
func (w *Wingman) Update(dt time.Duration, ref Pose) {
	if w.cooldown > 0 {
		w.cooldown -= dt
		if w.cooldown < 0 {
			w.cooldown = 0
		}
		if w.events.Cooldown != nil {
			w.events.Cooldown(w.cooldown, ms(w.cfg.CooldownMs))
		}
	}

	switch w.phase {
	case PhaseApproaching:
		w.updateApproach(dt, ref)
	case PhaseAttacking:
		w.updateAttack(dt)
	case PhaseEscaping:
		w.updateEscape(dt)
	}

	w.tracker.Update(dt)
	w.sweeper.Update(dt)
}

// updateApproach eases the unit from its spawn pose toward the attack
// slot. The attack offset is fixed at activation but re-anchored to the
// escort each tick so the wingman tracks a moving escort until the
// attack phase freezes it.
func (w *Wingman) updateApproach(dt time.Duration, ref Pose) {
	w.attackPose = Pose{Pos: offsetFrom(ref, w.cfg.AttackOffset), Dir: ref.Dir}

	w.phaseElapsed += dt
	t := Clamp01(float64(w.phaseElapsed) / float64(ms(w.cfg.ApproachWindowMs)))
	w.moveAlong(w.spawnPose.Pos, w.attackPose.Pos, SmoothStep(t), 0)

	if t < 1 {
		return
	}

	descs := GenerateAttack(w.variant, w.snapshot, w.attackPose.Pos, w.cfg, w.rng)
	w.tracker.Spawn(descs, w.cfg)
	w.phase = PhaseAttacking
	w.phaseElapsed = 0
}

// updateAttack holds the unit at the attack pose for the fixed dwell
// window. The dwell is tuned to exceed the longest effect completion
// time, so elimination is guaranteed rather than effect-driven.
func (w *Wingman) updateAttack(dt time.Duration) {
	w.phaseElapsed += dt
	if w.phaseElapsed < ms(w.cfg.AttackDwellMs) {
		return
	}

	if w.events.Eliminated != nil {
		ids := make([]string, len(w.snapshot))
		for i, t := range w.snapshot {
			ids[i] = t.ID
		}
		w.events.Eliminated(ids)
	}

	w.escapeFrom = w.pose.Pos
	back := w.attackPose.Dir.Scale(-w.cfg.EscapeOffset.Back)
	side := w.attackPose.Right().Scale(w.cfg.EscapeOffset.Side)
	w.escapeTo = w.pose.Pos.Add(back).Add(side).Add(Up.Scale(w.cfg.EscapeOffset.Up))
	w.phase = PhaseEscaping
	w.phaseElapsed = 0
}

// updateEscape climbs away from the attack pose with a fixed upward
// pitch, then closes the cycle: snapshot cleared, any straggler effects
// swept, cooldown armed, back to idle.
func (w *Wingman) updateEscape(dt time.Duration) {
	w.phaseElapsed += dt
	t := Clamp01(float64(w.phaseElapsed) / float64(ms(w.cfg.EscapeWindowMs)))
	climb := w.cfg.EscapeClimbDeg * math.Pi / 180
	w.moveAlong(w.escapeFrom, w.escapeTo, SmoothStep(t), climb)

	if t < 1 {
		return
	}

	w.snapshot = nil
	w.tracker.Clear()
	w.cooldown = ms(w.cfg.CooldownMs)
	w.phase = PhaseIdle
}

// moveAlong blends the unit position between two points and faces it
// along its direction of travel, skipping the orientation update when
// the travel magnitude is degenerate. A nonzero pitch is applied on top
// of the travel heading.
func (w *Wingman) moveAlong(from, to Vec3, s, pitch float64) {
	next := Lerp(from, to, s)
	travel := next.Sub(w.pose.Pos)
	if travel.Length() > DirEpsilon {
		dir := travel.Normalized()
		if pitch != 0 {
			dir = PitchUp(dir, pitch)
		}
		w.pose.Dir = dir
	}
	w.pose.Pos = next
}

// offsetFrom resolves a configured offset against a reference pose.
func offsetFrom(ref Pose, o Offset) Vec3 {
	return ref.Pos.
		Add(ref.Dir.Scale(-o.Back)).
		Add(ref.Right().Scale(o.Side)).
		Add(Up.Scale(o.Up))
}

// SetVariant selects the attack pattern for the next activation. Only
// honored while idle; returns whether the change was applied.
func (w *Wingman) SetVariant(v Variant) bool {
	if w.phase != PhaseIdle || !v.Valid() {
		return false
	}
	w.variant = v
	return true
}

// SetConfig swaps the tuning for subsequent activations. Only honored
// while idle so in-flight phase math keeps a consistent view.
func (w *Wingman) SetConfig(cfg *Config) bool {
	if w.phase != PhaseIdle {
		return false
	}
	if err := cfg.Validate(); err != nil {
		return false
	}
	w.cfg = cfg
	w.sweeper = NewSweeper(ms(cfg.BurstSweepIntervalMs), ms(cfg.BurstLifetimeMs))
	return true
}

// Variant returns the currently selected attack pattern.
func (w *Wingman) Variant() Variant { return w.variant }

// Phase returns the current ability phase.
func (w *Wingman) Phase() Phase { return w.phase }

// Pose returns the unit's current position and facing.
func (w *Wingman) Pose() Pose { return w.pose }

// Cooldown returns the remaining and maximum cooldown.
func (w *Wingman) Cooldown() (remaining, max time.Duration) {
	return w.cooldown, ms(w.cfg.CooldownMs)
}

// Targets returns the target snapshot of the in-flight activation.
func (w *Wingman) Targets() []Target { return w.snapshot }

// Effects returns the live effects for the renderer.
func (w *Wingman) Effects() []*Effect { return w.tracker.Effects() }

// LiveEffects reports how many effects (pending impacts included) are
// still tracked.
func (w *Wingman) LiveEffects() int { return w.tracker.Len() }

// Bursts returns the live cosmetic burst artifacts.
func (w *Wingman) Bursts() []*Burst { return w.sweeper.Bursts() }

// Config returns the active tuning.
func (w *Wingman) Config() *Config { return w.cfg }
