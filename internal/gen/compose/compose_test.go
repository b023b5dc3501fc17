package compose

import (
	"bytes"
	"log"
	"math"
	"strings"
	"testing"
)

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Terrain.Size = 100
	cfg.Terrain.Segments = 10
	cfg.Trees.Count = 8
	cfg.Grass.Count = 40
	cfg.Flowers.Count = 20
	cfg.Rocks.Count = 5
	return cfg
}

func TestNewComposer_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero size", func(c *Config) { c.Terrain.Size = 0 }},
		{"zero segments", func(c *Config) { c.Terrain.Segments = 0 }},
		{"negative count", func(c *Config) { c.Trees.Count = -1 }},
		{"negative min distance", func(c *Config) { c.Rocks.MinDistance = -2 }},
		{"zero max distance", func(c *Config) { c.Flowers.MaxDistance = 0 }},
		{"clearing beyond region", func(c *Config) { c.Trees.MinRadius = c.Trees.MaxDistance + 1 }},
		{"inverted scale range", func(c *Config) { c.Grass.ScaleMin = 2; c.Grass.ScaleMax = 1 }},
		{"no variants", func(c *Config) { c.Trees.Variants = nil }},
		{"persistence above one", func(c *Config) { c.Terrain.Height.Persistence = 1.5 }},
	}
	for _, tc := range cases {
		cfg := smallConfig()
		tc.mutate(&cfg)
		if _, err := NewComposer(cfg, quietLogger()); err == nil {
			t.Fatalf("%s: config accepted, want rejection", tc.name)
		}
	}
}

func TestGenerate_TerrainGridMatchesHeightField(t *testing.T) {
	cfg := smallConfig()
	c, err := NewComposer(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	assets, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	side := cfg.Terrain.Segments + 1
	if got, want := assets.Terrain.VertexCount(), side*side; got != want {
		t.Fatalf("terrain has %d vertices, want %d", got, want)
	}
	for i, v := range assets.Terrain.Positions {
		if v.Y() != c.HeightAt(v.X(), v.Z()) {
			t.Fatalf("vertex %d height %v disagrees with HeightAt(%v, %v) = %v",
				i, v.Y(), v.X(), v.Z(), c.HeightAt(v.X(), v.Z()))
		}
	}
}

func TestGenerate_InstancesSnapToGround(t *testing.T) {
	c, err := NewComposer(smallConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	assets, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	check := func(kind string, inst PlacedInstance) {
		t.Helper()
		want := c.HeightAt(inst.Position.X(), inst.Position.Z())
		if inst.Position.Y() != want {
			t.Fatalf("%s at (%v, %v): y = %v, ground = %v", kind,
				inst.Position.X(), inst.Position.Z(), inst.Position.Y(), want)
		}
	}
	for _, tr := range assets.Trees {
		check("tree", tr.PlacedInstance)
	}
	for _, g := range assets.Grass {
		check("grass", g)
	}
	for _, fl := range assets.Flowers {
		check("flower", fl)
	}
	for _, r := range assets.Rocks {
		check("rock", r.PlacedInstance)
	}
}

func TestGenerate_TreeSpacingAndMeshes(t *testing.T) {
	cfg := smallConfig()
	c, err := NewComposer(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	assets, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(assets.Trees) == 0 {
		t.Fatal("no trees placed")
	}
	for i := range assets.Trees {
		a := assets.Trees[i]
		if a.Trunk == nil || a.Crown == nil || a.Trunk.VertexCount() == 0 || a.Crown.VertexCount() == 0 {
			t.Fatalf("tree %d missing trunk or crown mesh", i)
		}
		if a.Scale < cfg.Trees.ScaleMin || a.Scale > cfg.Trees.ScaleMax {
			t.Fatalf("tree %d scale %v outside [%v, %v]", i, a.Scale, cfg.Trees.ScaleMin, cfg.Trees.ScaleMax)
		}
		for j := i + 1; j < len(assets.Trees); j++ {
			b := assets.Trees[j]
			d := math.Hypot(a.Position.X()-b.Position.X(), a.Position.Z()-b.Position.Z())
			if d < cfg.Trees.MinDistance {
				t.Fatalf("trees %d and %d only %v apart, want >= %v", i, j, d, cfg.Trees.MinDistance)
			}
		}
	}
}

func TestGenerate_PerInstanceMeshesDiffer(t *testing.T) {
	c, err := NewComposer(smallConfig(), quietLogger())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	assets, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(assets.Rocks) < 2 {
		t.Skip("not enough rocks to compare")
	}
	a, b := assets.Rocks[0].Mesh, assets.Rocks[1].Mesh
	identical := true
	for i := range a.Positions {
		if a.Positions[i] != b.Positions[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Fatal("two rocks share identical displaced geometry")
	}
}

func TestGenerate_ReportCountsAndInfeasibleSkips(t *testing.T) {
	cfg := smallConfig()
	// Ten trees spaced 20 apart cannot fit a disk of radius 15.
	cfg.Trees.Count = 10
	cfg.Trees.MinDistance = 20
	cfg.Trees.MaxDistance = 15
	cfg.Trees.MinRadius = 0

	var buf bytes.Buffer
	c, err := NewComposer(cfg, log.New(&buf, "", 0))
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	assets, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rep := assets.Report.Categories[CategoryTrees]
	if rep.Requested != 10 {
		t.Fatalf("requested = %d, want 10", rep.Requested)
	}
	if rep.Placed >= 10 || rep.Placed != len(assets.Trees) {
		t.Fatalf("placed = %d (trees %d), want fewer than 10", rep.Placed, len(assets.Trees))
	}
	if rep.Skipped != rep.Requested-rep.Placed {
		t.Fatalf("skipped = %d, want %d", rep.Skipped, rep.Requested-rep.Placed)
	}
	if !strings.Contains(buf.String(), "placement exhausted") {
		t.Fatalf("expected a skip log line, got: %s", buf.String())
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := smallConfig()
	gen := func() *Assets {
		c, err := NewComposer(cfg, quietLogger())
		if err != nil {
			t.Fatalf("NewComposer: %v", err)
		}
		assets, err := c.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		return assets
	}
	a, b := gen(), gen()
	if len(a.Trees) != len(b.Trees) || len(a.Grass) != len(b.Grass) ||
		len(a.Flowers) != len(b.Flowers) || len(a.Rocks) != len(b.Rocks) {
		t.Fatal("same config produced different instance counts")
	}
	for i := range a.Trees {
		if a.Trees[i].PlacedInstance != b.Trees[i].PlacedInstance {
			t.Fatalf("tree %d placement diverged", i)
		}
		if a.Trees[i].Trunk.Positions[0] != b.Trees[i].Trunk.Positions[0] {
			t.Fatalf("tree %d trunk geometry diverged", i)
		}
	}
	for i := range a.Terrain.Positions {
		if a.Terrain.Positions[i] != b.Terrain.Positions[i] {
			t.Fatalf("terrain vertex %d diverged", i)
		}
	}
}

func TestGenerate_VariantSelectionCoversSet(t *testing.T) {
	cfg := smallConfig()
	cfg.Trees.Count = 40
	cfg.Trees.MinDistance = 2
	c, err := NewComposer(cfg, quietLogger())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	assets, err := c.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	seen := map[string]bool{}
	for _, tr := range assets.Trees {
		seen[tr.Variant] = true
		valid := false
		for _, v := range cfg.Trees.Variants {
			if tr.Variant == v {
				valid = true
			}
		}
		if !valid {
			t.Fatalf("unknown variant %q", tr.Variant)
		}
	}
	if len(seen) < 2 {
		t.Fatalf("40 trees drew only %d variants, selection not uniform-ish", len(seen))
	}
}
