package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/garden/components"
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Bounds is the rectangular world [0, Width] x [0, Height].
type Bounds struct {
	Width, Height float64
}

// Clamp keeps p inside the bounds.
func (b Bounds) Clamp(p components.Position) components.Position {
	return components.Position{X: clamp(p.X, 0, b.Width), Y: clamp(p.Y, 0, b.Height)}
}

// MoveToward moves e up to speed units toward target, without overshooting.
// It returns the distance actually moved.
func MoveToward(e *components.Entity, target components.Position, speed float64, b Bounds) float64 {
	d := e.Position.DistanceTo(target)
	if d == 0 || speed <= 0 {
		return 0
	}
	step := math.Min(speed, d)
	return moveBy(e, (target.X-e.Position.X)/d*step, (target.Y-e.Position.Y)/d*step, b)
}

// MoveAway moves e up to speed units directly away from threat. When both
// share a position, e moves along +X.
func MoveAway(e *components.Entity, threat components.Position, speed float64, b Bounds) float64 {
	if speed <= 0 {
		return 0
	}
	dx, dy := e.Position.X-threat.X, e.Position.Y-threat.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		dx, dy, d = 1, 0, 1
	}
	return moveBy(e, dx/d*speed, dy/d*speed, b)
}

// moveBy applies a displacement clamped to the world and returns the distance covered.
func moveBy(e *components.Entity, dx, dy float64, b Bounds) float64 {
	from := e.Position
	e.Position = b.Clamp(components.Position{X: from.X + dx, Y: from.Y + dy})
	return from.DistanceTo(e.Position)
}

// DispersalOffset places a point uniformly within radius of origin, clamped to the world.
// It draws exactly two values from rng.
func DispersalOffset(rng *rand.Rand, origin components.Position, radius float64, b Bounds) components.Position {
	angle := rng.Float64() * 2 * math.Pi
	r := radius * math.Sqrt(rng.Float64())
	return b.Clamp(components.Position{
		X: origin.X + math.Cos(angle)*r,
		Y: origin.Y + math.Sin(angle)*r,
	})
}
