// Package place scatters 2D positions under a minimum-distance constraint
// using bounded rejection sampling. It is deliberately simple: candidates
// are drawn at random and checked against every accepted point, which is
// O(n^2) overall — fine for the hundreds of instances a meadow needs, not
// for tens of thousands. A spatial hash would slot in behind Plan without
// changing its contract if that ever changes.
package place

import (
	"math"
	"math/rand"
)

// RegionShape selects the sampling region.
type RegionShape string

const (
	RegionDisk   RegionShape = "disk"
	RegionSquare RegionShape = "square"
)

// Distribution selects how disk candidates are drawn.
type Distribution string

const (
	// DistCenterBiased draws the radius uniformly in [min, max), which
	// concentrates points toward the center. This matches the density
	// pattern the meadow was tuned around, so it is the default.
	DistCenterBiased Distribution = "centerBiased"
	// DistUniformArea corrects the radial density so points cover the
	// disk uniformly per unit area.
	DistUniformArea Distribution = "uniformArea"
)

// retryBudget caps the candidate draws per requested point.
const retryBudget = 50

// Request drives one planning run.
type Request struct {
	// Count is the number of positions wanted; Plan may deliver fewer.
	Count int
	// MinDistance is the pairwise exclusion radius between accepted
	// points.
	MinDistance float64
	// MaxDistance is the region extent: disk radius, or half the square's
	// side.
	MaxDistance float64
	// MinRadius optionally keeps a clear area around the origin (disk
	// regions only).
	MinRadius float64

	Shape        RegionShape
	Distribution Distribution
}

// Point is an accepted 2D ground position.
type Point struct {
	X float64
	Z float64
}

// Planner draws candidates from its own seeded source so runs are
// repeatable. A Planner is single-use per generation pass and is not safe
// for concurrent calls.
type Planner struct {
	rng *rand.Rand
}

// NewPlanner returns a planner seeded for deterministic output.
func NewPlanner(seed int64) *Planner {
	return &Planner{rng: rand.New(rand.NewSource(seed))}
}

// Plan returns up to req.Count positions whose pairwise distances are all
// at least req.MinDistance. When the region cannot fit the requested count
// at that spacing the result is simply shorter; Plan never fails.
func (p *Planner) Plan(req Request) []Point {
	if req.Count <= 0 || req.MaxDistance <= 0 {
		return nil
	}
	shape := req.Shape
	if shape == "" {
		shape = RegionDisk
	}
	dist := req.Distribution
	if dist == "" {
		dist = DistCenterBiased
	}

	accepted := make([]Point, 0, req.Count)
	for n := 0; n < req.Count; n++ {
		for attempt := 0; attempt < retryBudget; attempt++ {
			candidate := p.draw(req, shape, dist)
			if p.fits(accepted, candidate, req.MinDistance) {
				accepted = append(accepted, candidate)
				break
			}
		}
	}
	return accepted
}

func (p *Planner) draw(req Request, shape RegionShape, dist Distribution) Point {
	switch shape {
	case RegionSquare:
		return Point{
			X: (p.rng.Float64()*2 - 1) * req.MaxDistance,
			Z: (p.rng.Float64()*2 - 1) * req.MaxDistance,
		}
	default:
		angle := p.rng.Float64() * 2 * math.Pi
		var radius float64
		switch dist {
		case DistUniformArea:
			minSq := req.MinRadius * req.MinRadius
			maxSq := req.MaxDistance * req.MaxDistance
			radius = math.Sqrt(minSq + p.rng.Float64()*(maxSq-minSq))
		default:
			radius = req.MinRadius + p.rng.Float64()*(req.MaxDistance-req.MinRadius)
		}
		return Point{X: math.Cos(angle) * radius, Z: math.Sin(angle) * radius}
	}
}

func (p *Planner) fits(accepted []Point, c Point, minDistance float64) bool {
	if minDistance <= 0 {
		return true
	}
	for _, a := range accepted {
		if math.Hypot(c.X-a.X, c.Z-a.Z) < minDistance {
			return false
		}
	}
	return true
}
