package game

import "math"

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalized returns the unit vector pointing the same way as v.
// The zero vector is returned unchanged.
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < DirEpsilon {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Distance calculates distance between two points.
func Distance(a, b Vec3) float64 {
	return b.Sub(a).Length()
}

// Lerp linearly interpolates from a to b by t in [0,1].
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{
		a.X + (b.X-a.X)*t,
		a.Y + (b.Y-a.Y)*t,
		a.Z + (b.Z-a.Z)*t,
	}
}

// SmoothStep eases t in [0,1] with zero derivative at both endpoints.
func SmoothStep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// Clamp01 clamps t to [0,1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// Up is the world up axis.
var Up = Vec3{0, 1, 0}

// DirEpsilon is the minimum vector magnitude considered a usable direction.
// Below it, orientation updates are skipped to avoid degenerate facing.
const DirEpsilon = 1e-6

// Pose is a position plus a unit facing direction.
type Pose struct {
	Pos Vec3 `json:"pos"`
	Dir Vec3 `json:"dir"`
}

// Right returns the unit vector to the right of the pose's facing,
// projected on the horizontal plane.
func (p Pose) Right() Vec3 {
	r := p.Dir.Cross(Up)
	if r.Length() < DirEpsilon {
		// Facing straight up or down; pick an arbitrary horizontal right.
		return Vec3{1, 0, 0}
	}
	return r.Normalized()
}

// PitchUp rotates dir upward by the given angle in radians, preserving
// its horizontal heading.
func PitchUp(dir Vec3, angle float64) Vec3 {
	flat := Vec3{dir.X, 0, dir.Z}
	fl := flat.Length()
	if fl < DirEpsilon {
		return dir
	}
	flat = flat.Scale(1 / fl)
	return flat.Scale(math.Cos(angle)).Add(Up.Scale(math.Sin(angle))).Normalized()
}
