package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"meadowgen/internal/gen/noise"
)

// Mode selects the direction rule applied to each vertex.
type Mode string

const (
	// ModeRadial pushes vertices along their direction from the local
	// origin. Used for rocks and organic blobs.
	ModeRadial Mode = "radial"
	// ModeHeightWeighted pushes vertices horizontally away from the Y
	// axis, strongest at the base and fading to nothing at the top, so
	// trunk bases flare while tips stay clean.
	ModeHeightWeighted Mode = "heightWeighted"
	// ModeSpherical perturbs the spherical-coordinate radius with 3D
	// noise, preserving sphere topology for small irregularities.
	ModeSpherical Mode = "spherical"
)

// Octave is one noise layer sampled at a coordinate scale and mixed in with
// a weight.
type Octave struct {
	Scale  float64
	Weight float64
}

// Policy describes how a base mesh is roughened. Irregularity is the
// displacement strength relative to the mesh's size; values above
// MaxIrregularity are clamped there, since larger values can fold the
// surface through itself.
type Policy struct {
	Octaves      []Octave
	Irregularity float64
	Mode         Mode
}

// MaxIrregularity caps Policy.Irregularity.
const MaxIrregularity = 0.5

// Displace returns a new mesh whose vertices have been pushed according to
// the policy, with normals recomputed. The input mesh is never modified. An
// irregularity of zero returns an exact copy.
func Displace(field *noise.Field, m *Mesh, p Policy) *Mesh {
	out := m.Clone()

	irregularity := p.Irregularity
	if irregularity < 0 {
		irregularity = 0
	}
	if irregularity > MaxIrregularity {
		irregularity = MaxIrregularity
	}
	if irregularity == 0 || len(p.Octaves) == 0 {
		return out
	}

	maxY, minY := math.Inf(-1), math.Inf(1)
	if p.Mode == ModeHeightWeighted {
		for _, v := range m.Positions {
			maxY = math.Max(maxY, v.Y())
			minY = math.Min(minY, v.Y())
		}
	}

	for i, v := range out.Positions {
		amount := sampleOctaves(field, v, p.Octaves) * irregularity

		switch p.Mode {
		case ModeRadial:
			dir := v
			l := dir.Len()
			if l < 1e-12 {
				// A vertex at the local origin has no radial
				// direction; leave it alone rather than emit NaN.
				continue
			}
			out.Positions[i] = v.Add(dir.Mul(amount / l))

		case ModeHeightWeighted:
			span := maxY - minY
			weight := 1.0
			if span > 1e-12 {
				weight = 1 - (v.Y()-minY)/span
			}
			dir := mgl64.Vec3{v.X(), 0, v.Z()}
			l := dir.Len()
			if l < 1e-12 {
				continue
			}
			out.Positions[i] = v.Add(dir.Mul(amount * weight / l))

		case ModeSpherical:
			r := v.Len()
			if r < 1e-12 {
				continue
			}
			theta := math.Acos(v.Y() / r)
			phi := math.Atan2(v.Z(), v.X())
			r += amount
			if r < 0 {
				r = 0
			}
			out.Positions[i] = mgl64.Vec3{
				r * math.Sin(theta) * math.Cos(phi),
				r * math.Cos(theta),
				r * math.Sin(theta) * math.Sin(phi),
			}
		}
	}

	out.RecomputeNormals()
	return out
}

func sampleOctaves(field *noise.Field, v mgl64.Vec3, octaves []Octave) float64 {
	sum := 0.0
	for _, o := range octaves {
		sum += field.Noise3D(v.X()*o.Scale, v.Y()*o.Scale, v.Z()*o.Scale) * o.Weight
	}
	return sum
}
