package game

import (
	"math"
	"time"
)

// Effect is a live sub-effect owned by the tracker. Exported fields are
// broadcast to the renderer; unexported state drives completion.
type Effect struct {
	ID        int        `json:"id"`
	Kind      EffectKind `json:"kind"`
	Origin    Vec3       `json:"origin"`
	Pos       Vec3       `json:"pos"`
	Target    Vec3       `json:"target"`
	Path      []Vec3     `json:"path,omitempty"`
	TargetID  string     `json:"targetId,omitempty"`
	TargetIDs []string   `json:"-"`

	// Active is false until the start delay elapses; inactive effects
	// are not rendered.
	Active bool `json:"active"`
	// Progress is the normalized 0..1 progress of the effect's main
	// phase, for renderer use (beam lock fill, chain head, missile arc).
	Progress float64 `json:"progress"`
	// Impacting marks the terminal sub-state (chain burst, missile hit).
	Impacting bool `json:"impacting"`

	startDelay   time.Duration
	duration     time.Duration
	hold         time.Duration
	speed        float64
	hitThreshold float64
	arcHeight    float64
	elimStride   time.Duration // chain only: stagger between per-target impacts
	dir          Vec3          // projectile flight direction, fixed at spawn
	elapsed      time.Duration
	done         bool
}

// advance moves the effect's local clock forward and reports completion.
// Completion is reported exactly once; further calls are no-ops.
func (e *Effect) advance(dt time.Duration) bool {
	if e.done {
		return false
	}

	e.elapsed += dt
	if e.elapsed < e.startDelay {
		return false
	}
	e.Active = true
	// Local progress clock starts once the delay has elapsed.
	local := e.elapsed - e.startDelay

	switch e.Kind {
	case EffectProjectile:
		e.advanceProjectile(dt)
	case EffectBeam:
		e.Progress = Clamp01(float64(local) / float64(e.duration))
		if local >= e.duration {
			e.done = true
		}
	case EffectChain:
		e.advanceChain(local)
	case EffectMissile:
		e.advanceMissile(local)
	}
	return e.done
}

// advanceProjectile flies straight at fixed speed along the direction
// captured at spawn. Completion is proximity-based rather than timed so
// frame-rate variance cannot leave a projectile short of its target.
func (e *Effect) advanceProjectile(dt time.Duration) {
	step := e.speed * dt.Seconds()
	remaining := Distance(e.Pos, e.Target)
	if remaining <= e.hitThreshold || step >= remaining {
		e.Pos = e.Target
		e.Progress = 1
		e.done = true
		return
	}
	e.Pos = e.Pos.Add(e.dir.Scale(step))
	total := Distance(e.Origin, e.Target)
	if total > DirEpsilon {
		e.Progress = Clamp01(1 - Distance(e.Pos, e.Target)/total)
	}
}

// advanceChain walks the chain head along the target path for the link
// phase, then holds a terminal burst before signaling the single
// completion for the whole chain.
func (e *Effect) advanceChain(local time.Duration) {
	if local < e.duration {
		e.Progress = Clamp01(float64(local) / float64(e.duration))
		e.Pos = pointAlongPath(e.Path, e.Progress)
		return
	}
	e.Progress = 1
	e.Impacting = true
	if len(e.Path) > 0 {
		e.Pos = e.Path[len(e.Path)-1]
	}
	if local >= e.duration+e.hold {
		e.done = true
	}
}

// advanceMissile blends a straight line to the target with a sinusoidal
// vertical lift peaking at the path midpoint, then holds a short impact
// state at the target.
func (e *Effect) advanceMissile(local time.Duration) {
	t := Clamp01(float64(local) / float64(e.duration))
	e.Progress = t
	if t < 1 {
		lift := math.Sin(t*math.Pi) * e.arcHeight
		e.Pos = Lerp(e.Origin, e.Target, t).Add(Up.Scale(lift))
		return
	}
	e.Pos = e.Target
	e.Impacting = true
	if local >= e.duration+e.hold {
		e.done = true
	}
}

// pointAlongPath returns the position at normalized arc-length t along a
// polyline.
func pointAlongPath(path []Vec3, t float64) Vec3 {
	if len(path) == 0 {
		return Vec3{}
	}
	if len(path) == 1 || t <= 0 {
		return path[0]
	}
	if t >= 1 {
		return path[len(path)-1]
	}

	total := 0.0
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	if total < DirEpsilon {
		return path[0]
	}

	want := t * total
	walked := 0.0
	for i := 1; i < len(path); i++ {
		seg := Distance(path[i-1], path[i])
		if walked+seg >= want {
			if seg < DirEpsilon {
				return path[i]
			}
			return Lerp(path[i-1], path[i], (want-walked)/seg)
		}
		walked += seg
	}
	return path[len(path)-1]
}
