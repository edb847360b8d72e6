package game

import "time"

// ImpactFunc receives one elimination-at-position event per target as the
// effect that resolved it completes. Used downstream to spawn cosmetic
// bursts and mark kills.
type ImpactFunc func(targetID string, pos Vec3)

// pendingImpact is a chain impact event waiting for its staggered deadline.
type pendingImpact struct {
	at       time.Duration
	targetID string
	pos      Vec3
}

// EffectTracker owns the live effect set for the current activation.
// It advances every effect each tick, removes completed ones, and raises
// impact events. Every spawned effect completes exactly once.
type EffectTracker struct {
	effects  []*Effect
	pending  []pendingImpact
	nextID   int
	now      time.Duration
	onImpact ImpactFunc
}

// NewEffectTracker creates an empty tracker. onImpact may be nil.
func NewEffectTracker(onImpact ImpactFunc) *EffectTracker {
	return &EffectTracker{onImpact: onImpact}
}

// Spawn instantiates live effects from generator descriptors.
func (t *EffectTracker) Spawn(descs []EffectDescriptor, cfg *Config) {
	for _, d := range descs {
		e := &Effect{
			ID:         t.nextID,
			Kind:       d.Kind,
			Origin:     d.Origin,
			Pos:        d.Origin,
			Target:     d.Target,
			Path:       d.Path,
			TargetID:   d.TargetID,
			TargetIDs:  d.TargetIDs,
			startDelay: d.StartDelay,
			duration:   d.Duration,
			speed:      d.Speed,
		}
		switch d.Kind {
		case EffectProjectile:
			e.hitThreshold = cfg.RapidBurst.HitThreshold
			e.dir = d.Target.Sub(d.Origin).Normalized()
		case EffectChain:
			e.hold = ms(cfg.ChainedArc.BurstDurationMs)
			e.elimStride = ms(cfg.ChainedArc.ElimStrideMs)
		case EffectMissile:
			e.hold = ms(cfg.HomingSwarm.ImpactHoldMs)
			e.arcHeight = cfg.HomingSwarm.ArcHeight
		}
		t.nextID++
		t.effects = append(t.effects, e)
	}
}

// Update advances all live effects, then reconciles completions, so a
// single tick can both advance and complete an effect. Uses in-place
// filtering to avoid a slice allocation every frame.
func (t *EffectTracker) Update(dt time.Duration) {
	t.now += dt

	writeIdx := 0
	for _, e := range t.effects {
		if e.advance(dt) {
			t.resolveCompletion(e)
			continue
		}
		t.effects[writeIdx] = e
		writeIdx++
	}
	// Zero the tail so removed effects can be collected.
	for i := writeIdx; i < len(t.effects); i++ {
		t.effects[i] = nil
	}
	t.effects = t.effects[:writeIdx]

	t.flushPending()
}

// resolveCompletion converts a completed effect into elimination events.
// Per-target kinds raise one event; a chain raises one event per target
// in its captured sequence, staggered by a small fixed stride.
func (t *EffectTracker) resolveCompletion(e *Effect) {
	if e.Kind != EffectChain {
		t.emit(e.TargetID, e.Target)
		return
	}
	for i, id := range e.TargetIDs {
		t.pending = append(t.pending, pendingImpact{
			at:       t.now + time.Duration(i)*e.elimStride,
			targetID: id,
			pos:      e.Path[i+1],
		})
	}
}

// flushPending raises every staggered impact whose deadline has passed.
func (t *EffectTracker) flushPending() {
	writeIdx := 0
	for _, p := range t.pending {
		if p.at <= t.now {
			t.emit(p.targetID, p.pos)
			continue
		}
		t.pending[writeIdx] = p
		writeIdx++
	}
	t.pending = t.pending[:writeIdx]
}

func (t *EffectTracker) emit(targetID string, pos Vec3) {
	if t.onImpact != nil {
		t.onImpact(targetID, pos)
	}
}

// Effects returns the live effect set for the renderer.
func (t *EffectTracker) Effects() []*Effect {
	return t.effects
}

// Len reports the number of live effects, pending staggered impacts
// included.
func (t *EffectTracker) Len() int {
	return len(t.effects) + len(t.pending)
}

// Clear drops all live effects and pending impacts without raising
// events. Used as a defensive sweep at escape exit.
func (t *EffectTracker) Clear() {
	t.effects = nil
	t.pending = nil
}
