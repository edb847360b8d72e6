package game

import (
	"math"
	"testing"
	"time"
)

type impactLog struct {
	ids  []string
	poss []Vec3
}

func (l *impactLog) record(id string, pos Vec3) {
	l.ids = append(l.ids, id)
	l.poss = append(l.poss, pos)
}

func TestProjectileCompletesOnProximity(t *testing.T) {
	cfg := DefaultConfig()
	log := &impactLog{}
	tr := NewEffectTracker(log.record)

	// 10 units at 40 units/sec: 4 units per 100ms tick, hit on tick 3.
	tr.Spawn([]EffectDescriptor{{
		Kind:     EffectProjectile,
		Origin:   Vec3{},
		Target:   Vec3{Z: -10},
		TargetID: "a",
		Speed:    40,
	}}, cfg)

	dt := 100 * time.Millisecond
	tr.Update(dt)
	tr.Update(dt)
	if len(log.ids) != 0 {
		t.Fatalf("projectile completed early after 2 ticks")
	}
	if got := tr.Effects()[0].Pos; math.Abs(got.Z+8) > 1e-9 || got.X != 0 || got.Y != 0 {
		t.Errorf("after 2 ticks pos = %v, expected (0,0,-8)", got)
	}

	tr.Update(dt)
	if len(log.ids) != 1 || log.ids[0] != "a" {
		t.Fatalf("expected 1 impact for %q, got %v", "a", log.ids)
	}
	if log.poss[0] != (Vec3{Z: -10}) {
		t.Errorf("impact position %v, expected target position", log.poss[0])
	}
	if tr.Len() != 0 {
		t.Errorf("completed projectile still tracked")
	}
}

func TestProjectileInertBeforeDelay(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewEffectTracker(nil)
	tr.Spawn([]EffectDescriptor{{
		Kind:       EffectProjectile,
		Target:     Vec3{Z: -10},
		Speed:      40,
		StartDelay: 230 * time.Millisecond,
	}}, cfg)

	tr.Update(100 * time.Millisecond)
	e := tr.Effects()[0]
	if e.Active {
		t.Errorf("projectile active before start delay elapsed")
	}
	if e.Pos != (Vec3{}) {
		t.Errorf("projectile moved before start delay elapsed: %v", e.Pos)
	}

	tr.Update(200 * time.Millisecond)
	if !tr.Effects()[0].Active {
		t.Errorf("projectile still inert after start delay elapsed")
	}
}

func TestBeamCompletesOnLockDuration(t *testing.T) {
	cfg := DefaultConfig()
	log := &impactLog{}
	tr := NewEffectTracker(log.record)

	tr.Spawn([]EffectDescriptor{{
		Kind:       EffectBeam,
		Target:     Vec3{Z: -20},
		TargetID:   "b",
		StartDelay: 100 * time.Millisecond,
		Duration:   600 * time.Millisecond,
	}}, cfg)

	dt := 100 * time.Millisecond
	for i := 0; i < 6; i++ {
		tr.Update(dt)
	}
	// 600ms elapsed: 100 delay + 500 of the 600ms lock.
	if len(log.ids) != 0 {
		t.Fatalf("beam completed before lock duration")
	}

	tr.Update(dt)
	if len(log.ids) != 1 || log.ids[0] != "b" {
		t.Fatalf("expected beam impact for %q, got %v", "b", log.ids)
	}
}

func TestChainRaisesStaggeredImpacts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChainedArc.ChainDurationMs = 900
	cfg.ChainedArc.BurstDurationMs = 400
	cfg.ChainedArc.ElimStrideMs = 80

	log := &impactLog{}
	tr := NewEffectTracker(log.record)

	p1, p2 := Vec3{Z: -5}, Vec3{Z: -9}
	tr.Spawn([]EffectDescriptor{{
		Kind:      EffectChain,
		Origin:    Vec3{},
		Path:      []Vec3{{}, p1, p2},
		TargetIDs: []string{"near", "far"},
		Duration:  900 * time.Millisecond,
	}}, cfg)

	dt := 100 * time.Millisecond
	// Chain completes at 1300ms (link 900 + burst 400): tick 13.
	for i := 0; i < 12; i++ {
		tr.Update(dt)
	}
	if len(log.ids) != 0 {
		t.Fatalf("chain raised impacts before completing: %v", log.ids)
	}

	tr.Update(dt)
	if len(log.ids) != 1 || log.ids[0] != "near" {
		t.Fatalf("after chain completion expected first staggered impact, got %v", log.ids)
	}
	if log.poss[0] != p1 {
		t.Errorf("first impact at %v, expected %v", log.poss[0], p1)
	}
	if tr.Len() != 1 {
		t.Errorf("pending staggered impact not tracked, Len = %d", tr.Len())
	}

	tr.Update(dt)
	if len(log.ids) != 2 || log.ids[1] != "far" {
		t.Fatalf("expected second staggered impact, got %v", log.ids)
	}
	if log.poss[1] != p2 {
		t.Errorf("second impact at %v, expected %v", log.poss[1], p2)
	}
	if tr.Len() != 0 {
		t.Errorf("chain fully resolved but tracker not empty")
	}
}

func TestMissileArcAndImpactHold(t *testing.T) {
	cfg := DefaultConfig()
	log := &impactLog{}
	tr := NewEffectTracker(log.record)

	target := Vec3{Z: -40}
	tr.Spawn([]EffectDescriptor{{
		Kind:     EffectMissile,
		Origin:   Vec3{},
		Target:   target,
		TargetID: "m",
		Duration: 1400 * time.Millisecond,
	}}, cfg)

	dt := 100 * time.Millisecond
	for i := 0; i < 7; i++ {
		tr.Update(dt)
	}
	// Half way through flight: sinusoidal lift peaks at the midpoint.
	e := tr.Effects()[0]
	if e.Progress != 0.5 {
		t.Fatalf("mid-flight progress %g, expected 0.5", e.Progress)
	}
	if diff := e.Pos.Y - cfg.HomingSwarm.ArcHeight; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("midpoint lift %g, expected arc height %g", e.Pos.Y, cfg.HomingSwarm.ArcHeight)
	}

	for i := 0; i < 7; i++ {
		tr.Update(dt)
	}
	// Flight done at 1400ms; impact hold keeps it alive until 1600ms.
	if len(log.ids) != 0 {
		t.Fatalf("missile completed before impact hold elapsed")
	}
	if e := tr.Effects()[0]; !e.Impacting || e.Pos != target {
		t.Errorf("missile not holding at target: impacting=%v pos=%v", e.Impacting, e.Pos)
	}

	tr.Update(dt)
	tr.Update(dt)
	if len(log.ids) != 1 || log.ids[0] != "m" {
		t.Fatalf("expected missile impact after hold, got %v", log.ids)
	}
}

func TestEveryEffectCompletesExactlyOnce(t *testing.T) {
	cfg := DefaultConfig()
	targets := testTargets(7)

	variants := []Variant{RapidBurst, PrecisionBeam, ChainedArc, HomingSwarm}
	for _, v := range variants {
		t.Run(v.String(), func(t *testing.T) {
			log := &impactLog{}
			tr := NewEffectTracker(log.record)
			tr.Spawn(GenerateAttack(v, targets, Vec3{Y: 1}, cfg, nil), cfg)

			// Run well past every variant's worst-case completion time.
			for i := 0; i < 200; i++ {
				tr.Update(50 * time.Millisecond)
			}

			counts := make(map[string]int)
			for _, id := range log.ids {
				counts[id]++
			}
			for _, target := range targets {
				if counts[target.ID] == 0 {
					t.Errorf("target %q never eliminated", target.ID)
				}
			}
			if tr.Len() != 0 {
				t.Errorf("tracker not empty after all effects resolved: %d", tr.Len())
			}
			// RapidBurst fires several projectiles per target but other
			// variants must eliminate each target exactly once.
			if v != RapidBurst {
				for id, n := range counts {
					if n != 1 {
						t.Errorf("target %q eliminated %d times", id, n)
					}
				}
			}
		})
	}
}

func TestTrackerClear(t *testing.T) {
	cfg := DefaultConfig()
	log := &impactLog{}
	tr := NewEffectTracker(log.record)
	tr.Spawn(GenerateAttack(PrecisionBeam, testTargets(3), Vec3{}, cfg, nil), cfg)

	if tr.Len() != 3 {
		t.Fatalf("expected 3 live effects, got %d", tr.Len())
	}
	tr.Clear()
	if tr.Len() != 0 {
		t.Errorf("tracker not empty after Clear")
	}
	tr.Update(time.Second)
	if len(log.ids) != 0 {
		t.Errorf("cleared effects raised impacts: %v", log.ids)
	}
}
