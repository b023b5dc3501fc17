// Package snapshot persists a generated environment to disk. The format is
// a zstd stream holding a JSON header line followed by a gob body. The
// body records placements and terrain heights, not meshes: geometry is
// deterministic for a seed, so a resume regenerates it and verifies the
// result against the stored placements.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"meadowgen/internal/gen/compose"
)

type Header struct {
	Version     int    `json:"version"`
	Seed        int64  `json:"seed"`
	CreatedUnix int64  `json:"created_unix"`
	Note        string `json:"note,omitempty"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed            int64   `json:"seed"`
	TerrainSize     float64 `json:"terrain_size"`
	TerrainSegments int     `json:"terrain_segments"`

	// Heights holds the Y of each grid vertex in mesh order, row-major.
	Heights []float64 `json:"heights"`

	Instances []InstanceV1   `json:"instances"`
	Report    compose.Report `json:"report"`
}

type InstanceV1 struct {
	Category  string     `json:"category"`
	Variant   string     `json:"variant"`
	Position  [3]float64 `json:"position"`
	Scale     float64    `json:"scale"`
	RotationY float64    `json:"rotation_y"`
}

// FromAssets captures a generated environment.
func FromAssets(cfg compose.Config, assets *compose.Assets) SnapshotV1 {
	snap := SnapshotV1{
		Header: Header{
			Version:     1,
			Seed:        cfg.Seed,
			CreatedUnix: time.Now().Unix(),
		},
		Seed:            cfg.Seed,
		TerrainSize:     cfg.Terrain.Size,
		TerrainSegments: cfg.Terrain.Segments,
		Report:          assets.Report,
	}
	snap.Heights = make([]float64, 0, len(assets.Terrain.Positions))
	for _, v := range assets.Terrain.Positions {
		snap.Heights = append(snap.Heights, v.Y())
	}
	add := func(category string, inst compose.PlacedInstance) {
		snap.Instances = append(snap.Instances, InstanceV1{
			Category:  category,
			Variant:   inst.Variant,
			Position:  [3]float64{inst.Position.X(), inst.Position.Y(), inst.Position.Z()},
			Scale:     inst.Scale,
			RotationY: inst.RotationY,
		})
	}
	for _, tr := range assets.Trees {
		add(compose.CategoryTrees, tr.PlacedInstance)
	}
	for _, g := range assets.Grass {
		add(compose.CategoryGrass, g)
	}
	for _, fl := range assets.Flowers {
		add(compose.CategoryFlowers, fl)
	}
	for _, r := range assets.Rocks {
		add(compose.CategoryRocks, r.PlacedInstance)
	}
	return snap
}

// Verify checks that a freshly generated asset set matches the snapshot.
// Mismatch means the snapshot came from a different configuration or a
// changed generator, and the caller should not present it as a resume.
func (s SnapshotV1) Verify(assets *compose.Assets) error {
	want := len(s.Instances)
	got := len(assets.Trees) + len(assets.Grass) + len(assets.Flowers) + len(assets.Rocks)
	if got != want {
		return fmt.Errorf("snapshot: instance count mismatch: regenerated %d, snapshot has %d", got, want)
	}
	if len(s.Heights) != len(assets.Terrain.Positions) {
		return fmt.Errorf("snapshot: terrain vertex count mismatch: regenerated %d, snapshot has %d",
			len(assets.Terrain.Positions), len(s.Heights))
	}
	const eps = 1e-9
	for i, v := range assets.Terrain.Positions {
		if d := v.Y() - s.Heights[i]; d > eps || d < -eps {
			return fmt.Errorf("snapshot: terrain height mismatch at vertex %d", i)
		}
	}
	return nil
}

// Filename returns the canonical name for a snapshot of this seed,
// lexically sortable by creation time.
func Filename(seed int64, at time.Time) string {
	return fmt.Sprintf("snap_%d_%s.zst", seed, at.UTC().Format("20060102T150405"))
}

// Latest returns the newest snapshot file in dir by filename, or "" when
// the directory holds none.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "snap_") && strings.HasSuffix(name, ".zst") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is advisory; the gob body carries it too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
