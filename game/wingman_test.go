package game

import (
	"fmt"
	"math"
	"testing"
	"time"
)

var testRef = Pose{Pos: Vec3{}, Dir: Vec3{Z: -1}}

// tick advances the wingman n times with a fixed 50ms delta.
func tick(w *Wingman, n int) {
	for i := 0; i < n; i++ {
		w.Update(50*time.Millisecond, testRef)
	}
}

// ticksFor converts a config window in ms to the number of 50ms ticks
// needed to exhaust it.
func ticksFor(windowMs int) int {
	return windowMs / 50
}

func TestActivateRejections(t *testing.T) {
	cfg := DefaultConfig()
	targets := testTargets(2)

	t.Run("empty target list", func(t *testing.T) {
		w := NewWingman(cfg, Events{})
		if w.Activate(testRef, nil) {
			t.Fatal("Activate accepted an empty target list")
		}
		if w.Phase() != PhaseIdle {
			t.Errorf("phase %s after rejected activation, expected idle", w.Phase())
		}
	})

	t.Run("already in progress", func(t *testing.T) {
		w := NewWingman(cfg, Events{})
		if !w.Activate(testRef, targets) {
			t.Fatal("first Activate rejected")
		}
		phase, pose := w.Phase(), w.Pose()
		if w.Activate(testRef, targets) {
			t.Fatal("Activate accepted while approaching")
		}
		if w.Phase() != phase || w.Pose() != pose {
			t.Errorf("rejected activation changed state")
		}

		// Still rejected during attack and escape.
		tick(w, ticksFor(cfg.ApproachWindowMs))
		if w.Phase() != PhaseAttacking {
			t.Fatalf("phase %s, expected attacking", w.Phase())
		}
		if w.Activate(testRef, targets) {
			t.Fatal("Activate accepted while attacking")
		}
		tick(w, ticksFor(cfg.AttackDwellMs))
		if w.Phase() != PhaseEscaping {
			t.Fatalf("phase %s, expected escaping", w.Phase())
		}
		if w.Activate(testRef, targets) {
			t.Fatal("Activate accepted while escaping")
		}
	})

	t.Run("during cooldown", func(t *testing.T) {
		w := NewWingman(cfg, Events{})
		runFullCycle(t, w, targets)
		if remaining, _ := w.Cooldown(); remaining <= 0 {
			t.Fatal("no cooldown after full cycle")
		}
		if w.Activate(testRef, targets) {
			t.Fatal("Activate accepted during cooldown")
		}
		if w.Phase() != PhaseIdle {
			t.Errorf("phase %s after rejected activation, expected idle", w.Phase())
		}
	})
}

// runFullCycle drives one activation from idle back to idle.
func runFullCycle(t *testing.T, w *Wingman, targets []Target) {
	t.Helper()
	cfg := w.Config()
	if !w.Activate(testRef, targets) {
		t.Fatal("Activate rejected")
	}
	tick(w, ticksFor(cfg.ApproachWindowMs))
	tick(w, ticksFor(cfg.AttackDwellMs))
	tick(w, ticksFor(cfg.EscapeWindowMs))
	if w.Phase() != PhaseIdle {
		t.Fatalf("phase %s after full cycle, expected idle", w.Phase())
	}
}

func TestPhaseCycleClosure(t *testing.T) {
	cfg := DefaultConfig()
	var eliminated [][]string
	w := NewWingman(cfg, Events{
		Eliminated: func(ids []string) {
			eliminated = append(eliminated, append([]string(nil), ids...))
		},
	})

	runFullCycle(t, w, testTargets(3))

	if w.Targets() != nil {
		t.Errorf("target snapshot not cleared after cycle: %v", w.Targets())
	}
	if w.LiveEffects() != 0 {
		t.Errorf("%d live effects remain after cycle", w.LiveEffects())
	}
	if len(eliminated) != 1 {
		t.Fatalf("elimination notification fired %d times, expected once", len(eliminated))
	}
	if remaining, max := w.Cooldown(); remaining != max {
		t.Errorf("cooldown %v after cycle, expected max %v", remaining, max)
	}
}

func TestFullElimination(t *testing.T) {
	for _, variant := range []Variant{RapidBurst, PrecisionBeam, ChainedArc, HomingSwarm} {
		for _, n := range []int{1, 2, 6} {
			t.Run(fmt.Sprintf("%s with %d targets", variant, n), func(t *testing.T) {
				var got []string
				w := NewWingman(DefaultConfig(), Events{
					Eliminated: func(ids []string) { got = append(got, ids...) },
				})
				w.SetVariant(variant)

				targets := testTargets(n)
				runFullCycle(t, w, targets)

				if len(got) != n {
					t.Fatalf("eliminated %d ids, expected %d: %v", len(got), n, got)
				}
				seen := make(map[string]bool)
				for _, id := range got {
					if seen[id] {
						t.Errorf("id %q eliminated twice", id)
					}
					seen[id] = true
				}
				for _, target := range targets {
					if !seen[target.ID] {
						t.Errorf("id %q missing from elimination notification", target.ID)
					}
				}
			})
		}
	}
}

func TestCooldownMonotonicity(t *testing.T) {
	cfg := DefaultConfig()
	var readings []time.Duration
	w := NewWingman(cfg, Events{
		Cooldown: func(remaining, max time.Duration) {
			readings = append(readings, remaining)
		},
	})

	runFullCycle(t, w, testTargets(1))

	// Drain the whole cooldown and then some.
	tick(w, ticksFor(cfg.CooldownMs)+10)

	if len(readings) != ticksFor(cfg.CooldownMs) {
		t.Fatalf("cooldown notification fired %d times, expected %d",
			len(readings), ticksFor(cfg.CooldownMs))
	}
	prev := ms(cfg.CooldownMs)
	for i, r := range readings {
		if r >= prev {
			t.Errorf("reading %d: cooldown %v did not decrease from %v", i, r, prev)
		}
		prev = r
	}
	if readings[len(readings)-1] != 0 {
		t.Errorf("final cooldown reading %v, expected 0", readings[len(readings)-1])
	}
	if remaining, _ := w.Cooldown(); remaining != 0 {
		t.Errorf("cooldown %v after drain, expected 0", remaining)
	}

	// Eligible again once the cooldown has drained.
	if !w.Activate(testRef, testTargets(1)) {
		t.Error("Activate rejected after cooldown drained")
	}
}

func TestGeneratorInvokedOncePerActivation(t *testing.T) {
	cfg := DefaultConfig()
	w := NewWingman(cfg, Events{})
	w.SetVariant(PrecisionBeam)

	targets := testTargets(4)
	if !w.Activate(testRef, targets) {
		t.Fatal("Activate rejected")
	}
	if w.LiveEffects() != 0 {
		t.Fatalf("effects spawned before attack phase entry")
	}

	tick(w, ticksFor(cfg.ApproachWindowMs))
	if w.Phase() != PhaseAttacking {
		t.Fatalf("phase %s, expected attacking", w.Phase())
	}
	// One beam per target, spawned exactly once. Beams complete during
	// the dwell, so the live count may only shrink from here.
	if w.LiveEffects() > len(targets) {
		t.Fatalf("%d live effects, expected at most %d", w.LiveEffects(), len(targets))
	}
	peak := w.LiveEffects()
	for i := 0; i < ticksFor(cfg.AttackDwellMs); i++ {
		w.Update(50*time.Millisecond, testRef)
		if w.LiveEffects() > peak {
			t.Fatalf("live effect count grew mid-dwell: generator ran again")
		}
		peak = w.LiveEffects()
	}
}

func TestApproachEasesSpawnToAttack(t *testing.T) {
	cfg := DefaultConfig()
	w := NewWingman(cfg, Events{})

	if !w.Activate(testRef, testTargets(1)) {
		t.Fatal("Activate rejected")
	}

	spawn := offsetFrom(testRef, cfg.SpawnOffset)
	attack := offsetFrom(testRef, cfg.AttackOffset)
	if w.Pose().Pos != spawn {
		t.Fatalf("activation pose %v, expected spawn pose %v", w.Pose().Pos, spawn)
	}

	// Monotonic progress toward the attack pose.
	prev := Distance(w.Pose().Pos, attack)
	for i := 0; i < ticksFor(cfg.ApproachWindowMs); i++ {
		w.Update(50*time.Millisecond, testRef)
		d := Distance(w.Pose().Pos, attack)
		if d > prev+1e-9 {
			t.Fatalf("tick %d: distance to attack pose grew from %g to %g", i, prev, d)
		}
		prev = d
	}
	if got := w.Pose().Pos; Distance(got, attack) > 1e-9 {
		t.Errorf("approach ended at %v, expected attack pose %v", got, attack)
	}
	if w.Phase() != PhaseAttacking {
		t.Errorf("phase %s after approach window, expected attacking", w.Phase())
	}
}

func TestEscapeClimbsAndRecedes(t *testing.T) {
	cfg := DefaultConfig()
	w := NewWingman(cfg, Events{})
	if !w.Activate(testRef, testTargets(1)) {
		t.Fatal("Activate rejected")
	}
	tick(w, ticksFor(cfg.ApproachWindowMs))
	tick(w, ticksFor(cfg.AttackDwellMs))
	if w.Phase() != PhaseEscaping {
		t.Fatalf("phase %s, expected escaping", w.Phase())
	}

	attackY := w.Pose().Pos.Y
	prevY := attackY
	for i := 0; i < ticksFor(cfg.EscapeWindowMs); i++ {
		w.Update(50*time.Millisecond, testRef)
		y := w.Pose().Pos.Y
		if y < prevY-1e-9 {
			t.Fatalf("tick %d: escape altitude dropped from %g to %g", i, prevY, y)
		}
		prevY = y
	}
	if w.Pose().Pos.Y-attackY < cfg.EscapeOffset.Up-1e-9 {
		t.Errorf("escape climbed %g, expected %g", w.Pose().Pos.Y-attackY, cfg.EscapeOffset.Up)
	}

	// Facing carries the configured upward pitch during the climb.
	wantPitch := math.Sin(cfg.EscapeClimbDeg * math.Pi / 180)
	// Dir.Y combines travel climb and the fixed pitch; it must at least
	// reach the configured pitch component.
	if w.Pose().Dir.Y < wantPitch-0.2 {
		t.Errorf("escape facing Y %g, expected upward pitch around %g", w.Pose().Dir.Y, wantPitch)
	}
}

func TestRapidBurstTwoTargetScenario(t *testing.T) {
	cfg := DefaultConfig()
	var eliminated []string
	w := NewWingman(cfg, Events{
		Eliminated: func(ids []string) { eliminated = append(eliminated, ids...) },
	})
	w.SetVariant(RapidBurst)

	targets := []Target{
		{ID: "a", Pos: Vec3{0, 0, -30}},
		{ID: "b", Pos: Vec3{5, 2, -35}},
	}
	if !w.Activate(testRef, targets) {
		t.Fatal("Activate rejected")
	}

	tick(w, ticksFor(cfg.ApproachWindowMs))
	if w.Phase() != PhaseAttacking {
		t.Fatalf("phase %s, expected attacking", w.Phase())
	}
	if got := len(w.Effects()); got != 10 {
		t.Fatalf("%d projectile effects at attack entry, expected 10", got)
	}

	tick(w, ticksFor(cfg.AttackDwellMs))
	tick(w, ticksFor(cfg.EscapeWindowMs))

	if len(eliminated) != 2 || eliminated[0] != "a" || eliminated[1] != "b" {
		t.Errorf("eliminated %v, expected [a b]", eliminated)
	}
}

func TestActivatedNotification(t *testing.T) {
	cfg := DefaultConfig()
	var gotVariant Variant
	var gotName string
	fired := 0
	w := NewWingman(cfg, Events{
		Activated: func(v Variant, name string) {
			gotVariant, gotName = v, name
			fired++
		},
	})
	w.SetVariant(ChainedArc)

	if !w.Activate(testRef, testTargets(1)) {
		t.Fatal("Activate rejected")
	}
	if fired != 1 {
		t.Fatalf("activation notification fired %d times, expected once", fired)
	}
	if gotVariant != ChainedArc || gotName != cfg.ChainedArc.DisplayName {
		t.Errorf("notification (%s, %q), expected (%s, %q)",
			gotVariant, gotName, ChainedArc, cfg.ChainedArc.DisplayName)
	}

	// Rejected attempts must not re-fire it.
	w.Activate(testRef, testTargets(1))
	if fired != 1 {
		t.Errorf("rejected activation fired the notification")
	}
}

func TestImpactEventsSpawnBursts(t *testing.T) {
	cfg := DefaultConfig()
	var impacts []string
	w := NewWingman(cfg, Events{
		Impact: func(id string, pos Vec3) { impacts = append(impacts, id) },
	})
	w.SetVariant(PrecisionBeam)

	if !w.Activate(testRef, testTargets(2)) {
		t.Fatal("Activate rejected")
	}
	tick(w, ticksFor(cfg.ApproachWindowMs))

	// Both beams complete inside the dwell; each impact leaves a burst.
	tick(w, ticksFor(cfg.PrecisionBeam.LockDurationMs)+ticksFor(cfg.PrecisionBeam.BeamStaggerMs)+1)
	if len(impacts) != 2 {
		t.Fatalf("%d impact events, expected 2", len(impacts))
	}
	if len(w.Bursts()) == 0 {
		t.Errorf("no cosmetic bursts after impacts")
	}
}

func TestSetVariantOnlyWhileIdle(t *testing.T) {
	w := NewWingman(DefaultConfig(), Events{})
	if !w.SetVariant(HomingSwarm) {
		t.Fatal("SetVariant rejected while idle")
	}
	if w.Variant() != HomingSwarm {
		t.Fatalf("variant %s, expected homing_swarm", w.Variant())
	}

	w.Activate(testRef, testTargets(1))
	if w.SetVariant(RapidBurst) {
		t.Error("SetVariant accepted mid-activation")
	}
	if w.Variant() != HomingSwarm {
		t.Errorf("variant changed mid-activation to %s", w.Variant())
	}
}
