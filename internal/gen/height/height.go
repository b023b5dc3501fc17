// Package height turns a noise field into terrain elevation queries. The
// sampler is the single ground-truth for terrain: mesh generation and
// object ground-snapping both go through HeightAt, so two calls with the
// same coordinates always return the same value.
package height

import "meadowgen/internal/gen/noise"

// Config are the terrain-shaping parameters applied on top of raw noise.
type Config struct {
	// BaseFrequency scales world coordinates into noise space.
	BaseFrequency float64
	// Amplitude scales the normalized fractal output into world units.
	Amplitude float64
	// Octaves and Persistence drive fractal composition.
	Octaves     int
	Persistence float64
}

// DefaultConfig matches a gently rolling meadow.
func DefaultConfig() Config {
	return Config{
		BaseFrequency: 0.035,
		Amplitude:     2.4,
		Octaves:       3,
		Persistence:   0.5,
	}
}

// Sampler answers elevation queries for any (x, z) ground position.
type Sampler struct {
	field *noise.Field
	cfg   Config
}

// NewSampler wraps the given noise field. The field is shared by reference;
// callers that need several agreeing samplers pass the same field.
func NewSampler(field *noise.Field, cfg Config) *Sampler {
	if cfg.Octaves <= 0 {
		cfg.Octaves = 3
	}
	if cfg.Persistence <= 0 {
		cfg.Persistence = 0.5
	}
	return &Sampler{field: field, cfg: cfg}
}

// Config returns the sampler's effective configuration.
func (s *Sampler) Config() Config {
	return s.cfg
}

// HeightAt returns the terrain elevation at (x, z). Pure: no state is read
// or written beyond the immutable permutation table.
func (s *Sampler) HeightAt(x, z float64) float64 {
	n := s.field.Fractal2D(x*s.cfg.BaseFrequency, z*s.cfg.BaseFrequency, s.cfg.Octaves, s.cfg.Persistence)
	return n * s.cfg.Amplitude
}
