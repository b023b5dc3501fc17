// Package noise implements seedable gradient noise: classic Perlin noise in
// one, two and three dimensions, a 2D simplex variant, and normalized
// fractal composition. A Field is an explicitly constructed value passed to
// consumers; there is no process-global permutation table, so two Fields
// built from the same seed produce bit-identical output.
package noise

import (
	"math"
	"math/rand"
)

// Field holds a shuffled 256-entry permutation table, duplicated to 512
// entries so lattice lookups never need a modulo.
type Field struct {
	perm [512]int
}

// New builds a Field whose permutation table is shuffled by the given seed.
func New(seed int64) *Field {
	f := &Field{}
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 256; i++ {
		f.perm[i] = i
	}
	for i := 255; i > 0; i-- {
		j := rng.Intn(i + 1)
		f.perm[i], f.perm[j] = f.perm[j], f.perm[i]
	}
	for i := 0; i < 256; i++ {
		f.perm[256+i] = f.perm[i]
	}
	return f
}

// fade is the quintic smoothing curve 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func floorInt(x float64) int {
	fx := int(x)
	if x < float64(fx) {
		fx--
	}
	return fx
}

// grad1 selects a pseudo-random gradient of +1 or -1 for a 1D lattice point.
func grad1(hash int, x float64) float64 {
	if hash&1 == 0 {
		return x
	}
	return -x
}

// grad2 selects one of eight gradient directions for a 2D lattice corner and
// returns its dot product with the fractional offset.
func grad2(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}

// grad3 selects one of twelve cube-edge gradients for a 3D lattice corner.
func grad3(hash int, x, y, z float64) float64 {
	h := hash & 15
	u := x
	if h >= 8 {
		u = y
	}
	v := y
	if h >= 4 {
		if h == 12 || h == 14 {
			v = x
		} else {
			v = z
		}
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + v
}

// Noise1D returns gradient noise in approximately [-1, 1].
func (f *Field) Noise1D(x float64) float64 {
	x0 := floorInt(x)
	fx := x - float64(x0)
	u := fade(fx)

	xi := x0 & 255
	g0 := grad1(f.perm[xi], fx)
	g1 := grad1(f.perm[xi+1], fx-1)
	// Scale so the extremes reach roughly the unit range.
	return lerp(g0, g1, u) * 2
}

// Noise2D returns gradient noise in approximately [-1, 1]. The field is
// continuous everywhere, including across integer lattice boundaries.
func (f *Field) Noise2D(x, y float64) float64 {
	x0 := floorInt(x)
	y0 := floorInt(y)
	fx := x - float64(x0)
	fy := y - float64(y0)

	u := fade(fx)
	v := fade(fy)

	xi := x0 & 255
	yi := y0 & 255

	aa := f.perm[f.perm[xi]+yi]
	ab := f.perm[f.perm[xi]+yi+1]
	ba := f.perm[f.perm[xi+1]+yi]
	bb := f.perm[f.perm[xi+1]+yi+1]

	n0 := lerp(grad2(aa, fx, fy), grad2(ba, fx-1, fy), u)
	n1 := lerp(grad2(ab, fx, fy-1), grad2(bb, fx-1, fy-1), u)
	return lerp(n0, n1, v)
}

// Noise3D returns gradient noise in approximately [-1, 1].
func (f *Field) Noise3D(x, y, z float64) float64 {
	x0 := floorInt(x)
	y0 := floorInt(y)
	z0 := floorInt(z)
	fx := x - float64(x0)
	fy := y - float64(y0)
	fz := z - float64(z0)

	u := fade(fx)
	v := fade(fy)
	w := fade(fz)

	xi := x0 & 255
	yi := y0 & 255
	zi := z0 & 255

	a := f.perm[xi] + yi
	aa := f.perm[a] + zi
	ab := f.perm[a+1] + zi
	b := f.perm[xi+1] + yi
	ba := f.perm[b] + zi
	bb := f.perm[b+1] + zi

	n000 := grad3(f.perm[aa], fx, fy, fz)
	n100 := grad3(f.perm[ba], fx-1, fy, fz)
	n010 := grad3(f.perm[ab], fx, fy-1, fz)
	n110 := grad3(f.perm[bb], fx-1, fy-1, fz)
	n001 := grad3(f.perm[aa+1], fx, fy, fz-1)
	n101 := grad3(f.perm[ba+1], fx-1, fy, fz-1)
	n011 := grad3(f.perm[ab+1], fx, fy-1, fz-1)
	n111 := grad3(f.perm[bb+1], fx-1, fy-1, fz-1)

	nx00 := lerp(n000, n100, u)
	nx10 := lerp(n010, n110, u)
	nx01 := lerp(n001, n101, u)
	nx11 := lerp(n011, n111, u)

	nxy0 := lerp(nx00, nx10, v)
	nxy1 := lerp(nx01, nx11, v)
	return lerp(nxy0, nxy1, w)
}

// Skew factors for the 2D simplex lattice.
var (
	simplexF2 = 0.5 * (math.Sqrt(3) - 1)
	simplexG2 = (3 - math.Sqrt(3)) / 6
)

var simplexGrad = [8][2]float64{
	{1, 1}, {-1, 1}, {1, -1}, {-1, -1},
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
}

// Simplex2D returns skewed triangle-lattice noise in approximately [-1, 1].
// It evaluates three lattice corners per sample instead of four and has the
// same continuity contract as Noise2D.
func (f *Field) Simplex2D(x, y float64) float64 {
	s := (x + y) * simplexF2
	i := floorInt(x + s)
	j := floorInt(y + s)

	t := float64(i+j) * simplexG2
	x0 := x - (float64(i) - t)
	y0 := y - (float64(j) - t)

	// Lower or upper triangle of the skewed cell.
	var i1, j1 int
	if x0 > y0 {
		i1, j1 = 1, 0
	} else {
		i1, j1 = 0, 1
	}

	x1 := x0 - float64(i1) + simplexG2
	y1 := y0 - float64(j1) + simplexG2
	x2 := x0 - 1 + 2*simplexG2
	y2 := y0 - 1 + 2*simplexG2

	ii := i & 255
	jj := j & 255

	var n0, n1, n2 float64
	if t0 := 0.5 - x0*x0 - y0*y0; t0 > 0 {
		t0 *= t0
		g := simplexGrad[f.perm[ii+f.perm[jj]]&7]
		n0 = t0 * t0 * (g[0]*x0 + g[1]*y0)
	}
	if t1 := 0.5 - x1*x1 - y1*y1; t1 > 0 {
		t1 *= t1
		g := simplexGrad[f.perm[ii+i1+f.perm[jj+j1]]&7]
		n1 = t1 * t1 * (g[0]*x1 + g[1]*y1)
	}
	if t2 := 0.5 - x2*x2 - y2*y2; t2 > 0 {
		t2 *= t2
		g := simplexGrad[f.perm[ii+1+f.perm[jj+1]]&7]
		n2 = t2 * t2 * (g[0]*x2 + g[1]*y2)
	}

	return 70 * (n0 + n1 + n2)
}

// Fractal2D sums octaves of Noise2D at doubling frequency and amplitude
// decaying by persistence, normalized by the amplitude sum so the result
// stays in [-1, 1] regardless of octave count. Octave counts below one
// return zero.
func (f *Field) Fractal2D(x, y float64, octaves int, persistence float64) float64 {
	frequency := 1.0
	amplitude := 1.0
	sum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		sum += f.Noise2D(x*frequency, y*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	if maxAmplitude == 0 {
		return 0
	}
	return sum / maxAmplitude
}

// Fractal3D is the three-dimensional counterpart of Fractal2D.
func (f *Field) Fractal3D(x, y, z float64, octaves int, persistence float64) float64 {
	frequency := 1.0
	amplitude := 1.0
	sum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		sum += f.Noise3D(x*frequency, y*frequency, z*frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	if maxAmplitude == 0 {
		return 0
	}
	return sum / maxAmplitude
}
