package game

import "time"

// Burst is a cosmetic elimination flash spawned where a target died.
// CreatedAt is an explicit simulation timestamp; lifetime is never
// reconstructed from the identifier.
type Burst struct {
	ID        int           `json:"id"`
	Pos       Vec3          `json:"pos"`
	CreatedAt time.Duration `json:"-"`
}

// Sweeper is a time-windowed garbage collector for burst artifacts.
// It polls on a fixed interval and removes any burst older than the
// configured lifetime. Purely cosmetic; it never touches ability state.
type Sweeper struct {
	bursts    []*Burst
	nextID    int
	now       time.Duration
	lastSweep time.Duration
	interval  time.Duration
	lifetime  time.Duration
}

// NewSweeper creates a sweeper with the given poll interval and burst
// lifetime.
func NewSweeper(interval, lifetime time.Duration) *Sweeper {
	return &Sweeper{interval: interval, lifetime: lifetime}
}

// Spawn records a new burst at pos.
func (s *Sweeper) Spawn(pos Vec3) {
	s.bursts = append(s.bursts, &Burst{
		ID:        s.nextID,
		Pos:       pos,
		CreatedAt: s.now,
	})
	s.nextID++
}

// Update advances the sweeper clock and, once per poll interval,
// removes expired bursts.
func (s *Sweeper) Update(dt time.Duration) {
	s.now += dt
	if s.now-s.lastSweep < s.interval {
		return
	}
	s.lastSweep = s.now

	writeIdx := 0
	for _, b := range s.bursts {
		if s.now-b.CreatedAt > s.lifetime {
			continue
		}
		s.bursts[writeIdx] = b
		writeIdx++
	}
	for i := writeIdx; i < len(s.bursts); i++ {
		s.bursts[i] = nil
	}
	s.bursts = s.bursts[:writeIdx]
}

// Bursts returns the live artifacts for the renderer.
func (s *Sweeper) Bursts() []*Burst {
	return s.bursts
}
