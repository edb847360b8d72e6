package server

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/MushroomFleet/wingman-support/game"
)

// Demo arena tuning.
const (
	ArenaHalf          = 60.0 // half-extent of the square practice arena
	EscortOrbitRadius  = 40.0
	EscortAngularSpeed = 0.15 // rad/s
	DroneDriftSpeed    = 2.0  // units/s

	InitialDrones     = 5
	MaxDrones         = 24
	DroneRespawnDelay = 3 * time.Second
)

// Drone is a practice target drifting around the arena.
type Drone struct {
	ID  string    `json:"id"`
	Pos game.Vec3 `json:"pos"`

	drift game.Vec3
}

// Simulation is the demo world the server ticks: an escort flying a slow
// orbit, a field of practice drones, and the wingman ability engine.
// Not safe for concurrent use; the server serializes access.
type Simulation struct {
	cfg     *game.Config
	wingman *game.Wingman
	rng     *rand.Rand

	escortAngle float64
	escort      game.Pose

	drones      []*Drone
	nextDroneID int
	// respawns holds absolute clock deadlines for destroyed drones.
	respawns []time.Duration

	clock time.Duration
	frame int64

	// notices queues ability notifications raised during a tick for the
	// server to broadcast once the tick completes.
	notices []ServerMessage
}

// NewSimulation builds a demo world with the initial drone field.
func NewSimulation(cfg *game.Config) *Simulation {
	sim := &Simulation{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	sim.wingman = game.NewWingman(cfg, game.Events{
		Activated: func(v game.Variant, displayName string) {
			sim.notices = append(sim.notices, ServerMessage{
				Type: MsgTypeActivated,
				Data: map[string]any{
					"variant": v.String(),
					"name":    displayName,
					"targets": len(sim.drones),
				},
			})
		},
		Eliminated: sim.onEliminated,
		Cooldown: func(remaining, max time.Duration) {
			sim.notices = append(sim.notices, ServerMessage{
				Type: MsgTypeCooldown,
				Data: map[string]any{
					"remainingMs": remaining.Milliseconds(),
					"maxMs":       max.Milliseconds(),
				},
			})
		},
	})

	sim.updateEscort(0)
	for i := 0; i < InitialDrones; i++ {
		sim.spawnDrone()
	}
	return sim
}

// Update advances the world by one tick.
func (sim *Simulation) Update(dt time.Duration) {
	sim.clock += dt
	sim.frame++

	sim.updateEscort(dt)
	sim.updateDrones(dt)
	sim.processRespawns()
	sim.wingman.Update(dt, sim.escort)
}

// Trigger activates the wingman against the current drone field.
func (sim *Simulation) Trigger() bool {
	targets := make([]game.Target, len(sim.drones))
	for i, d := range sim.drones {
		targets[i] = game.Target{ID: d.ID, Pos: d.Pos}
	}
	return sim.wingman.Activate(sim.escort, targets)
}

// updateEscort flies the escort along a circular patrol, facing along
// the tangent of travel.
func (sim *Simulation) updateEscort(dt time.Duration) {
	sim.escortAngle += EscortAngularSpeed * dt.Seconds()
	sin, cos := math.Sincos(sim.escortAngle)
	sim.escort = game.Pose{
		Pos: game.Vec3{X: EscortOrbitRadius * cos, Y: 0, Z: EscortOrbitRadius * sin},
		Dir: game.Vec3{X: -sin, Y: 0, Z: cos},
	}
}

// updateDrones drifts each drone, reflecting off the arena bounds.
func (sim *Simulation) updateDrones(dt time.Duration) {
	for _, d := range sim.drones {
		d.Pos = d.Pos.Add(d.drift.Scale(dt.Seconds()))
		if d.Pos.X > ArenaHalf || d.Pos.X < -ArenaHalf {
			d.drift.X = -d.drift.X
		}
		if d.Pos.Z > ArenaHalf || d.Pos.Z < -ArenaHalf {
			d.drift.Z = -d.drift.Z
		}
	}
}

// spawnDrone adds one drone at a random arena position, up to the cap.
func (sim *Simulation) spawnDrone() {
	if len(sim.drones) >= MaxDrones {
		return
	}

	heading := sim.rng.Float64() * 2 * math.Pi
	sin, cos := math.Sincos(heading)
	d := &Drone{
		ID: fmt.Sprintf("drone-%d", sim.nextDroneID),
		Pos: game.Vec3{
			X: (sim.rng.Float64()*2 - 1) * ArenaHalf * 0.8,
			Y: 0,
			Z: (sim.rng.Float64()*2 - 1) * ArenaHalf * 0.8,
		},
		drift: game.Vec3{X: cos * DroneDriftSpeed, Z: sin * DroneDriftSpeed},
	}
	sim.nextDroneID++
	sim.drones = append(sim.drones, d)
}

// onEliminated removes the named drones from the field, schedules their
// replacements, and queues the elimination notification.
func (sim *Simulation) onEliminated(ids []string) {
	destroyed := make(map[string]bool, len(ids))
	for _, id := range ids {
		destroyed[id] = true
	}

	writeIdx := 0
	for _, d := range sim.drones {
		if destroyed[d.ID] {
			sim.respawns = append(sim.respawns, sim.clock+DroneRespawnDelay)
			continue
		}
		sim.drones[writeIdx] = d
		writeIdx++
	}
	for i := writeIdx; i < len(sim.drones); i++ {
		sim.drones[i] = nil
	}
	sim.drones = sim.drones[:writeIdx]

	sim.notices = append(sim.notices, ServerMessage{
		Type: MsgTypeEliminated,
		Data: map[string]any{"ids": ids},
	})
}

// processRespawns spawns replacement drones whose delay has elapsed.
func (sim *Simulation) processRespawns() {
	writeIdx := 0
	for _, deadline := range sim.respawns {
		if sim.clock >= deadline {
			sim.spawnDrone()
			continue
		}
		sim.respawns[writeIdx] = deadline
		writeIdx++
	}
	sim.respawns = sim.respawns[:writeIdx]
}

// drainNotices returns the notifications queued since the last drain.
func (sim *Simulation) drainNotices() []ServerMessage {
	if len(sim.notices) == 0 {
		return nil
	}
	out := sim.notices
	sim.notices = nil
	return out
}
