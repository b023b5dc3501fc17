// Package compose orchestrates environment generation: it samples the
// terrain height field across a grid, scatters vegetation and rocks under
// spacing constraints, snaps every instance to the ground, and builds the
// displaced per-instance meshes. Generation is one-shot and synchronous;
// the returned assets are complete or the call fails, never partial.
package compose

import (
	"fmt"
	"log"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"meadowgen/internal/gen/height"
	"meadowgen/internal/gen/mesh"
	"meadowgen/internal/gen/noise"
	"meadowgen/internal/gen/place"
)

// Category names used in reports and configs.
const (
	CategoryTrees   = "trees"
	CategoryGrass   = "grass"
	CategoryFlowers = "flowers"
	CategoryRocks   = "rocks"
)

// Per-category seed offsets so each scatter pass draws from its own stream.
const (
	seedTrees   = 101
	seedGrass   = 102
	seedFlowers = 103
	seedRocks   = 104
	seedDetail  = 500
)

// TerrainConfig shapes the ground mesh.
type TerrainConfig struct {
	Size     float64
	Segments int
	Height   height.Config
}

// CategoryConfig drives one vegetation or rock scatter pass.
type CategoryConfig struct {
	Count       int
	MinDistance float64
	MaxDistance float64
	// MinRadius keeps a clearing around the spawn point.
	MinRadius    float64
	ScaleMin     float64
	ScaleMax     float64
	Variants     []string
	Distribution place.Distribution
}

// Config is the full generation-time configuration.
type Config struct {
	Seed    int64
	Terrain TerrainConfig
	Trees   CategoryConfig
	Grass   CategoryConfig
	Flowers CategoryConfig
	Rocks   CategoryConfig
}

// DefaultConfig is a meadow roughly matching the tuning the game shipped
// with: a 200-unit field, gentle hills, a treeline past a central clearing.
func DefaultConfig() Config {
	return Config{
		Seed: 1337,
		Terrain: TerrainConfig{
			Size:     200,
			Segments: 100,
			Height:   height.DefaultConfig(),
		},
		Trees: CategoryConfig{
			Count:       60,
			MinDistance: 7,
			MaxDistance: 95,
			MinRadius:   18,
			ScaleMin:    0.8,
			ScaleMax:    1.5,
			Variants:    []string{"broadleaf", "conifer", "willow"},
		},
		Grass: CategoryConfig{
			Count:       400,
			MinDistance: 0.6,
			MaxDistance: 95,
			ScaleMin:    0.7,
			ScaleMax:    1.3,
			Variants:    []string{"meadow"},
		},
		Flowers: CategoryConfig{
			Count:       140,
			MinDistance: 1.2,
			MaxDistance: 90,
			ScaleMin:    0.8,
			ScaleMax:    1.2,
			Variants:    []string{"poppy", "daisy", "cornflower"},
		},
		Rocks: CategoryConfig{
			Count:       24,
			MinDistance: 9,
			MaxDistance: 92,
			ScaleMin:    0.5,
			ScaleMax:    1.8,
			Variants:    []string{"granite", "limestone"},
		},
	}
}

// PlacedInstance is one scattered object, ground-snapped and immutable
// after generation. Y comes from the shared height sampler, so instances
// sit exactly on the terrain mesh.
type PlacedInstance struct {
	Position  mgl64.Vec3
	Scale     float64
	RotationY float64
	Variant   string
}

// TreeInstance pairs a trunk and crown mesh with its placement.
type TreeInstance struct {
	PlacedInstance
	Trunk *mesh.Mesh
	Crown *mesh.Mesh
}

// RockInstance carries the displaced boulder mesh.
type RockInstance struct {
	PlacedInstance
	Mesh *mesh.Mesh
}

// CategoryReport records requested versus delivered counts for one pass.
// Skipped instances are a degraded-but-valid outcome of infeasible
// placement density, never an error.
type CategoryReport struct {
	Requested int `json:"requested"`
	Placed    int `json:"placed"`
	Skipped   int `json:"skipped"`
}

// Report aggregates all category outcomes.
type Report struct {
	Categories map[string]CategoryReport `json:"categories"`
}

// Assets is everything a rendering collaborator needs. The composer owns
// these collections; consumers treat them as read-only.
type Assets struct {
	Terrain *mesh.Mesh
	Trees   []TreeInstance
	Grass   []PlacedInstance
	Flowers []PlacedInstance
	Rocks   []RockInstance
	Report  Report
}

// Composer runs generation for a validated configuration.
type Composer struct {
	cfg     Config
	log     *log.Logger
	field   *noise.Field
	sampler *height.Sampler
}

// NewComposer validates the configuration up front: a bad config is
// rejected here with a descriptive error rather than producing silently
// wrong terrain later.
func NewComposer(cfg Config, logger *log.Logger) (*Composer, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	field := noise.New(cfg.Seed)
	return &Composer{
		cfg:     cfg,
		log:     logger,
		field:   field,
		sampler: height.NewSampler(field, cfg.Terrain.Height),
	}, nil
}

func validate(cfg Config) error {
	t := cfg.Terrain
	if t.Size <= 0 {
		return fmt.Errorf("compose: terrain size %v must be positive", t.Size)
	}
	if t.Segments < 1 {
		return fmt.Errorf("compose: terrain segments %d must be at least 1", t.Segments)
	}
	if t.Height.Octaves < 0 {
		return fmt.Errorf("compose: terrain octaves %d is negative", t.Height.Octaves)
	}
	// Zero persistence/octaves mean "use the sampler default".
	if t.Height.Persistence < 0 || t.Height.Persistence > 1 {
		return fmt.Errorf("compose: terrain persistence %v outside (0, 1]", t.Height.Persistence)
	}
	for _, c := range []struct {
		name string
		cat  CategoryConfig
	}{
		{CategoryTrees, cfg.Trees},
		{CategoryGrass, cfg.Grass},
		{CategoryFlowers, cfg.Flowers},
		{CategoryRocks, cfg.Rocks},
	} {
		if err := validateCategory(c.name, c.cat); err != nil {
			return err
		}
	}
	return nil
}

func validateCategory(name string, c CategoryConfig) error {
	if c.Count < 0 {
		return fmt.Errorf("compose: %s: count %d is negative", name, c.Count)
	}
	if c.Count == 0 {
		return nil
	}
	if c.MinDistance < 0 {
		return fmt.Errorf("compose: %s: min distance %v is negative", name, c.MinDistance)
	}
	if c.MaxDistance <= 0 {
		return fmt.Errorf("compose: %s: max distance %v must be positive", name, c.MaxDistance)
	}
	if c.MinRadius < 0 || c.MinRadius >= c.MaxDistance {
		return fmt.Errorf("compose: %s: clearing radius %v outside [0, %v)", name, c.MinRadius, c.MaxDistance)
	}
	if c.ScaleMin <= 0 || c.ScaleMax < c.ScaleMin {
		return fmt.Errorf("compose: %s: scale range [%v, %v] invalid", name, c.ScaleMin, c.ScaleMax)
	}
	if len(c.Variants) == 0 {
		return fmt.Errorf("compose: %s: no variants configured", name)
	}
	return nil
}

// Config returns the composer's validated configuration.
func (c *Composer) Config() Config {
	return c.cfg
}

// HeightAt exposes the ground-truth elevation query used during
// generation, so consumers can snap dynamic objects to the same terrain.
func (c *Composer) HeightAt(x, z float64) float64 {
	return c.sampler.HeightAt(x, z)
}

// Generate builds the complete asset set. It is deterministic for a fixed
// configuration and safe to call again for a fresh, identical set.
func (c *Composer) Generate() (*Assets, error) {
	assets := &Assets{
		Report: Report{Categories: make(map[string]CategoryReport)},
	}

	assets.Terrain = c.buildTerrain()

	trees := c.scatter(c.cfg.Trees, seedTrees)
	assets.Trees = make([]TreeInstance, 0, len(trees))
	for i, inst := range trees {
		trunk, crown := c.buildTree(inst, int64(i))
		assets.Trees = append(assets.Trees, TreeInstance{PlacedInstance: inst, Trunk: trunk, Crown: crown})
	}
	c.report(assets, CategoryTrees, c.cfg.Trees.Count, len(trees))

	assets.Grass = c.scatter(c.cfg.Grass, seedGrass)
	c.report(assets, CategoryGrass, c.cfg.Grass.Count, len(assets.Grass))

	assets.Flowers = c.scatter(c.cfg.Flowers, seedFlowers)
	c.report(assets, CategoryFlowers, c.cfg.Flowers.Count, len(assets.Flowers))

	rocks := c.scatter(c.cfg.Rocks, seedRocks)
	assets.Rocks = make([]RockInstance, 0, len(rocks))
	for i, inst := range rocks {
		assets.Rocks = append(assets.Rocks, RockInstance{PlacedInstance: inst, Mesh: c.buildRock(inst, int64(i))})
	}
	c.report(assets, CategoryRocks, c.cfg.Rocks.Count, len(rocks))

	return assets, nil
}

func (c *Composer) report(assets *Assets, name string, requested, placed int) {
	skipped := requested - placed
	assets.Report.Categories[name] = CategoryReport{
		Requested: requested,
		Placed:    placed,
		Skipped:   skipped,
	}
	if skipped > 0 {
		c.log.Printf("compose: %s: placed %d of %d (%d skipped, placement exhausted)", name, placed, requested, skipped)
	}
}

// buildTerrain samples the height field across a regular grid. Every
// vertex height is an independent HeightAt call, so placement queries made
// later agree with the mesh exactly.
func (c *Composer) buildTerrain() *mesh.Mesh {
	m := mesh.Grid(c.cfg.Terrain.Size, c.cfg.Terrain.Segments)
	for i, v := range m.Positions {
		m.Positions[i] = mgl64.Vec3{v.X(), c.sampler.HeightAt(v.X(), v.Z()), v.Z()}
	}
	m.RecomputeNormals()
	return m
}

// scatter plans positions for one category and resolves each to a placed,
// ground-snapped instance with variant, scale and rotation drawn from the
// category's own deterministic stream.
func (c *Composer) scatter(cat CategoryConfig, seedOffset int64) []PlacedInstance {
	if cat.Count == 0 {
		return nil
	}

	planner := place.NewPlanner(c.cfg.Seed + seedOffset)
	points := planner.Plan(place.Request{
		Count:        cat.Count,
		MinDistance:  cat.MinDistance,
		MaxDistance:  cat.MaxDistance,
		MinRadius:    cat.MinRadius,
		Distribution: cat.Distribution,
	})

	rng := rand.New(rand.NewSource(c.cfg.Seed + seedOffset + seedDetail))
	instances := make([]PlacedInstance, 0, len(points))
	for _, pt := range points {
		instances = append(instances, PlacedInstance{
			Position:  mgl64.Vec3{pt.X, c.sampler.HeightAt(pt.X, pt.Z), pt.Z},
			Scale:     cat.ScaleMin + rng.Float64()*(cat.ScaleMax-cat.ScaleMin),
			RotationY: rng.Float64() * 2 * math.Pi,
			Variant:   cat.Variants[rng.Intn(len(cat.Variants))],
		})
	}
	return instances
}

// buildTree constructs the trunk and crown meshes for one placed tree.
// Each instance gets its own derived noise field so no two trees share the
// same irregularities.
func (c *Composer) buildTree(inst PlacedInstance, ordinal int64) (trunk, crown *mesh.Mesh) {
	detail := noise.New(c.cfg.Seed + seedTrees + ordinal*7919)

	trunkBase := mesh.Cylinder(0.16, 0.30, 2.4, 10, 6)
	trunk = mesh.Displace(detail, trunkBase, mesh.Policy{
		Mode:         mesh.ModeHeightWeighted,
		Irregularity: 0.22,
		Octaves:      []mesh.Octave{{Scale: 1.8, Weight: 0.7}, {Scale: 5.5, Weight: 0.3}},
	})

	switch inst.Variant {
	case "conifer":
		crownBase := mesh.Cone(1.3, 3.4, 12, 8)
		crown = mesh.Displace(detail, crownBase, mesh.Policy{
			Mode:         mesh.ModeHeightWeighted,
			Irregularity: 0.3,
			Octaves:      []mesh.Octave{{Scale: 1.2, Weight: 0.6}, {Scale: 3.5, Weight: 0.4}},
		})
	default:
		crownBase := mesh.Sphere(1.5, 14, 10)
		crown = mesh.Displace(detail, crownBase, mesh.Policy{
			Mode:         mesh.ModeSpherical,
			Irregularity: 0.35,
			Octaves:      []mesh.Octave{{Scale: 0.9, Weight: 0.55}, {Scale: 2.6, Weight: 0.45}},
		})
	}
	return trunk, crown
}

// buildRock displaces a sphere radially into an irregular boulder.
func (c *Composer) buildRock(inst PlacedInstance, ordinal int64) *mesh.Mesh {
	detail := noise.New(c.cfg.Seed + seedRocks + ordinal*7919)
	base := mesh.Sphere(0.9, 12, 9)
	return mesh.Displace(detail, base, mesh.Policy{
		Mode:         mesh.ModeRadial,
		Irregularity: 0.4,
		Octaves:      []mesh.Octave{{Scale: 1.6, Weight: 0.65}, {Scale: 4.2, Weight: 0.35}},
	})
}
