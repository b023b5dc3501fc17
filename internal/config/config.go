// Package config loads the server's YAML configuration: generation
// parameters, day-cycle tuning, and serving options. A missing file is
// not an error; defaults describe a complete meadow on their own.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"meadowgen/internal/gen/compose"
	"meadowgen/internal/gen/daycycle"
	"meadowgen/internal/gen/height"
	"meadowgen/internal/gen/place"
)

type Config struct {
	Seed     int64        `yaml:"seed"`
	Terrain  TerrainSpec  `yaml:"terrain"`
	Trees    CategorySpec `yaml:"trees"`
	Grass    CategorySpec `yaml:"grass"`
	Flowers  CategorySpec `yaml:"flowers"`
	Rocks    CategorySpec `yaml:"rocks"`
	DayCycle DayCycleSpec `yaml:"day_cycle"`
	Server   ServerSpec   `yaml:"server"`
}

type TerrainSpec struct {
	Size          float64 `yaml:"size"`
	Segments      int     `yaml:"segments"`
	BaseFrequency float64 `yaml:"base_frequency"`
	Amplitude     float64 `yaml:"amplitude"`
	Octaves       int     `yaml:"octaves"`
	Persistence   float64 `yaml:"persistence"`
}

type CategorySpec struct {
	Count        int      `yaml:"count"`
	MinDistance  float64  `yaml:"min_distance"`
	MaxDistance  float64  `yaml:"max_distance"`
	MinRadius    float64  `yaml:"min_radius"`
	ScaleMin     float64  `yaml:"scale_min"`
	ScaleMax     float64  `yaml:"scale_max"`
	Variants     []string `yaml:"variants,omitempty"`
	Distribution string   `yaml:"distribution,omitempty"`
}

type DayCycleSpec struct {
	DayLengthSeconds float64             `yaml:"day_length_seconds"`
	StartHour        float64             `yaml:"start_hour"`
	Keyframes        []daycycle.Keyframe `yaml:"keyframes,omitempty"`
}

type ServerSpec struct {
	Addr       string `yaml:"addr"`
	TickRateHz int    `yaml:"tick_rate_hz"`
}

func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	gen := compose.DefaultConfig()
	return Config{
		Seed: gen.Seed,
		Terrain: TerrainSpec{
			Size:          gen.Terrain.Size,
			Segments:      gen.Terrain.Segments,
			BaseFrequency: gen.Terrain.Height.BaseFrequency,
			Amplitude:     gen.Terrain.Height.Amplitude,
			Octaves:       gen.Terrain.Height.Octaves,
			Persistence:   gen.Terrain.Height.Persistence,
		},
		Trees:   categorySpec(gen.Trees),
		Grass:   categorySpec(gen.Grass),
		Flowers: categorySpec(gen.Flowers),
		Rocks:   categorySpec(gen.Rocks),
		DayCycle: DayCycleSpec{
			DayLengthSeconds: 1200,
			StartHour:        12,
		},
		Server: ServerSpec{
			Addr:       ":8794",
			TickRateHz: 5,
		},
	}
}

func categorySpec(c compose.CategoryConfig) CategorySpec {
	return CategorySpec{
		Count:       c.Count,
		MinDistance: c.MinDistance,
		MaxDistance: c.MaxDistance,
		MinRadius:   c.MinRadius,
		ScaleMin:    c.ScaleMin,
		ScaleMax:    c.ScaleMax,
		Variants:    c.Variants,
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8794"
	}
	if c.Server.TickRateHz <= 0 {
		c.Server.TickRateHz = 5
	}
	if c.DayCycle.DayLengthSeconds <= 0 {
		c.DayCycle.DayLengthSeconds = 1200
	}
	if len(c.DayCycle.Keyframes) == 0 {
		c.DayCycle.Keyframes = daycycle.DefaultKeyframes()
	}
	for _, cat := range []*CategorySpec{&c.Trees, &c.Grass, &c.Flowers, &c.Rocks} {
		if cat.Distribution == "" {
			cat.Distribution = string(place.DistCenterBiased)
		}
	}
}

func (c Config) Validate() error {
	for name, cat := range map[string]CategorySpec{
		"trees":   c.Trees,
		"grass":   c.Grass,
		"flowers": c.Flowers,
		"rocks":   c.Rocks,
	} {
		switch place.Distribution(cat.Distribution) {
		case place.DistCenterBiased, place.DistUniformArea:
		default:
			return fmt.Errorf("%s: unknown distribution %q", name, cat.Distribution)
		}
	}
	if c.DayCycle.StartHour < 0 || c.DayCycle.StartHour >= 24 {
		return fmt.Errorf("day_cycle: start_hour must be in [0, 24)")
	}
	for i, kf := range c.DayCycle.Keyframes {
		if kf.Hour < 0 || kf.Hour >= 24 {
			return fmt.Errorf("day_cycle: keyframes[%d] hour must be in [0, 24)", i)
		}
	}
	// Geometric constraints (counts, distances, scale ranges) are checked
	// by the composer, which owns their semantics.
	return nil
}

// ComposeConfig maps the file representation onto the generator's
// configuration.
func (c Config) ComposeConfig() compose.Config {
	return compose.Config{
		Seed: c.Seed,
		Terrain: compose.TerrainConfig{
			Size:     c.Terrain.Size,
			Segments: c.Terrain.Segments,
			Height: height.Config{
				BaseFrequency: c.Terrain.BaseFrequency,
				Amplitude:     c.Terrain.Amplitude,
				Octaves:       c.Terrain.Octaves,
				Persistence:   c.Terrain.Persistence,
			},
		},
		Trees:   c.categoryConfig(c.Trees),
		Grass:   c.categoryConfig(c.Grass),
		Flowers: c.categoryConfig(c.Flowers),
		Rocks:   c.categoryConfig(c.Rocks),
	}
}

func (c Config) categoryConfig(spec CategorySpec) compose.CategoryConfig {
	return compose.CategoryConfig{
		Count:        spec.Count,
		MinDistance:  spec.MinDistance,
		MaxDistance:  spec.MaxDistance,
		MinRadius:    spec.MinRadius,
		ScaleMin:     spec.ScaleMin,
		ScaleMax:     spec.ScaleMax,
		Variants:     spec.Variants,
		Distribution: place.Distribution(spec.Distribution),
	}
}

func (c Config) DayLength() time.Duration {
	return time.Duration(c.DayCycle.DayLengthSeconds * float64(time.Second))
}
