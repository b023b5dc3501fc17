// Package indexdb keeps a queryable SQLite index of generation runs and
// written snapshots. Writes go through a single writer goroutine so the
// serving path never blocks on the database; the snapshot files remain
// the source of truth and a dropped index write is not an error.
package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"meadowgen/internal/gen/compose"
	"meadowgen/internal/persistence/snapshot"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	run   RunRow
	snap  snapshotRow
	flush chan struct{}
}

// RunRow summarizes one generation pass.
type RunRow struct {
	Seed            int64
	TerrainSize     float64
	TerrainSegments int
	Trees           int
	Grass           int
	Flowers         int
	Rocks           int
	Skipped         int
	ConfigDigest    string
	CreatedAt       string
}

type snapshotRow struct {
	Path      string
	Seed      int64
	Instances int
	Vertices  int
	CreatedAt string
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 1024),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			terrain_size REAL NOT NULL,
			terrain_segments INTEGER NOT NULL,
			trees INTEGER NOT NULL,
			grass INTEGER NOT NULL,
			flowers INTEGER NOT NULL,
			rocks INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			config_digest TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			path TEXT PRIMARY KEY,
			seed INTEGER NOT NULL,
			instances INTEGER NOT NULL,
			vertices INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_seed ON snapshots(seed);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// ConfigDigest is the canonical digest stored with each run, so two runs
// can be compared for config equality without diffing files.
func ConfigDigest(cfg compose.Config) string {
	b, _ := json.Marshal(cfg)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (s *SQLiteIndex) RecordRun(cfg compose.Config, report compose.Report) {
	if s == nil || s.closed.Load() {
		return
	}
	row := RunRow{
		Seed:            cfg.Seed,
		TerrainSize:     cfg.Terrain.Size,
		TerrainSegments: cfg.Terrain.Segments,
		ConfigDigest:    ConfigDigest(cfg),
		CreatedAt:       time.Now().UTC().Format(time.RFC3339Nano),
	}
	for name, cr := range report.Categories {
		switch name {
		case compose.CategoryTrees:
			row.Trees = cr.Placed
		case compose.CategoryGrass:
			row.Grass = cr.Placed
		case compose.CategoryFlowers:
			row.Flowers = cr.Placed
		case compose.CategoryRocks:
			row.Rocks = cr.Placed
		}
		row.Skipped += cr.Skipped
	}
	select {
	case s.ch <- req{kind: reqRun, run: row}:
	default:
		// Drop if the indexer falls behind; snapshots remain authoritative.
	}
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	segs := snap.TerrainSegments
	row := snapshotRow{
		Path:      path,
		Seed:      snap.Seed,
		Instances: len(snap.Instances),
		Vertices:  (segs + 1) * (segs + 1),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snap: row}:
	default:
	}
}

// Flush blocks until every write queued before the call has committed.
func (s *SQLiteIndex) Flush() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqFlush, flush: done}
	<-done
}

// LatestRun returns the most recent run, or ok=false when none exist.
func (s *SQLiteIndex) LatestRun() (RunRow, bool, error) {
	var row RunRow
	err := s.db.QueryRow(
		`SELECT seed, terrain_size, terrain_segments, trees, grass, flowers, rocks, skipped, config_digest, created_at
		 FROM runs ORDER BY id DESC LIMIT 1`,
	).Scan(&row.Seed, &row.TerrainSize, &row.TerrainSegments, &row.Trees, &row.Grass,
		&row.Flowers, &row.Rocks, &row.Skipped, &row.ConfigDigest, &row.CreatedAt)
	if err == sql.ErrNoRows {
		return row, false, nil
	}
	if err != nil {
		return row, false, err
	}
	return row, true, nil
}

// RunCount reports how many generation runs the index has recorded.
func (s *SQLiteIndex) RunCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&n)
	return n, err
}

// SnapshotsForSeed lists snapshot paths recorded for a seed, newest first.
func (s *SQLiteIndex) SnapshotsForSeed(seed int64) ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM snapshots WHERE seed = ? ORDER BY created_at DESC`, seed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT INTO runs(seed,terrain_size,terrain_segments,trees,grass,flowers,rocks,skipped,config_digest,created_at) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(path,seed,instances,vertices,created_at) VALUES(?,?,?,?,?)`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertSnapshot != nil {
			_ = insertSnapshot.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 64
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.flush)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			ru := r.run
			if insertRun != nil {
				if _, err := tx.Stmt(insertRun).Exec(
					ru.Seed,
					ru.TerrainSize,
					ru.TerrainSegments,
					ru.Trees,
					ru.Grass,
					ru.Flowers,
					ru.Rocks,
					ru.Skipped,
					ru.ConfigDigest,
					ru.CreatedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snap
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					sn.Path,
					sn.Seed,
					sn.Instances,
					sn.Vertices,
					sn.CreatedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		flushIfNeeded()
	}

	commit()
}
