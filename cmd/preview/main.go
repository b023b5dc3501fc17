// Command preview renders a generated environment to a PNG: grayscale
// elevation with placed instances overlaid by category. Useful for tuning
// seeds and scatter densities without attaching a client.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"os"

	"meadowgen/internal/config"
	"meadowgen/internal/gen/compose"
)

var categoryColors = map[string]color.RGBA{
	compose.CategoryTrees:   {0x1e, 0x6b, 0x24, 0xff},
	compose.CategoryGrass:   {0x6a, 0xa8, 0x4f, 0xff},
	compose.CategoryFlowers: {0xd4, 0x4f, 0x7a, 0xff},
	compose.CategoryRocks:   {0x8a, 0x8a, 0x8a, 0xff},
}

func main() {
	var (
		configPath = flag.String("config", "./configs/meadow.yaml", "config path")
		seed       = flag.Int64("seed", 0, "override the config seed (0 keeps the config value)")
		out        = flag.String("out", "meadow.png", "output path")
		px         = flag.Int("px", 512, "image width and height in pixels")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[preview] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load config: %v", err)
		}
		cfg, _ = config.Load("")
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	genCfg := cfg.ComposeConfig()
	composer, err := compose.NewComposer(genCfg, logger)
	if err != nil {
		logger.Fatalf("composer: %v", err)
	}
	assets, err := composer.Generate()
	if err != nil {
		logger.Fatalf("generate: %v", err)
	}

	img := render(composer, assets, genCfg, *px)

	f, err := os.Create(*out)
	if err != nil {
		logger.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		logger.Fatalf("encode png: %v", err)
	}
	logger.Printf("wrote %s (seed=%d, %dx%d)", *out, genCfg.Seed, *px, *px)
}

func render(composer *compose.Composer, assets *compose.Assets, cfg compose.Config, px int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, px, px))
	half := cfg.Terrain.Size / 2
	amp := cfg.Terrain.Height.Amplitude
	if amp <= 0 {
		amp = 1
	}

	// Elevation underlay. World X maps to image X, world Z to image Y.
	for iy := 0; iy < px; iy++ {
		for ix := 0; ix < px; ix++ {
			wx := (float64(ix)/float64(px-1))*cfg.Terrain.Size - half
			wz := (float64(iy)/float64(px-1))*cfg.Terrain.Size - half
			h := composer.HeightAt(wx, wz)
			t := (h/amp + 1) / 2
			g := uint8(math.Round(255 * clamp01(t)))
			img.SetRGBA(ix, iy, color.RGBA{g, g, g, 0xff})
		}
	}

	plot := func(category string, inst compose.PlacedInstance) {
		c := categoryColors[category]
		ix := int(math.Round((inst.Position.X() + half) / cfg.Terrain.Size * float64(px-1)))
		iy := int(math.Round((inst.Position.Z() + half) / cfg.Terrain.Size * float64(px-1)))
		r := 1
		if category == compose.CategoryTrees || category == compose.CategoryRocks {
			r = 2
		}
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				x, y := ix+dx, iy+dy
				if x >= 0 && x < px && y >= 0 && y < px {
					img.SetRGBA(x, y, c)
				}
			}
		}
	}
	for _, g := range assets.Grass {
		plot(compose.CategoryGrass, g)
	}
	for _, fl := range assets.Flowers {
		plot(compose.CategoryFlowers, fl)
	}
	for _, r := range assets.Rocks {
		plot(compose.CategoryRocks, r.PlacedInstance)
	}
	for _, tr := range assets.Trees {
		plot(compose.CategoryTrees, tr.PlacedInstance)
	}
	return img
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
