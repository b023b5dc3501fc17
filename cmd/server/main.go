package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"meadowgen/internal/config"
	"meadowgen/internal/gen/compose"
	"meadowgen/internal/gen/daycycle"
	"meadowgen/internal/persistence/indexdb"
	"meadowgen/internal/persistence/snapshot"
	"meadowgen/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (default from config)")
		configPath = flag.String("config", "./configs/meadow.yaml", "config path (missing file falls back to defaults)")
		seed       = flag.Int64("seed", 0, "override the config seed (0 keeps the config value)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the generation index database")

		snapPath   = flag.String("snapshot", "", "path to snapshot to verify against (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "verify against the latest snapshot in the data dir (when -snapshot is empty)")
		writeSnap  = flag.Bool("write_snapshot", true, "write a snapshot of the generated environment")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := load(*configPath, logger)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	listenAddr := strings.TrimSpace(*addr)
	if listenAddr == "" {
		listenAddr = cfg.Server.Addr
	}

	snapDir := filepath.Join(*dataDir, "snapshots")
	_ = os.MkdirAll(snapDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index db: %v", err)
		}
		defer idx.Close()
	}

	// Generate. Determinism makes a resume a regeneration plus a check
	// against the stored placements.
	genCfg := cfg.ComposeConfig()
	composer, err := compose.NewComposer(genCfg, logger)
	if err != nil {
		logger.Fatalf("composer: %v", err)
	}
	start := time.Now()
	assets, err := composer.Generate()
	if err != nil {
		logger.Fatalf("generate: %v", err)
	}
	logger.Printf("generated seed=%d trees=%d grass=%d flowers=%d rocks=%d in %s",
		genCfg.Seed, len(assets.Trees), len(assets.Grass), len(assets.Flowers), len(assets.Rocks),
		time.Since(start).Round(time.Millisecond))

	snapshotToCheck := strings.TrimSpace(*snapPath)
	if snapshotToCheck == "" && *loadLatest {
		if p, err := snapshot.Latest(snapDir); err == nil {
			snapshotToCheck = p
		}
	}
	if snapshotToCheck != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToCheck)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Seed != genCfg.Seed {
			logger.Printf("snapshot %s is for seed %d, skipping verification", filepath.Base(snapshotToCheck), snap.Seed)
		} else if err := snap.Verify(assets); err != nil {
			logger.Fatalf("snapshot verify: %v", err)
		} else {
			logger.Printf("verified against snapshot=%s", filepath.Base(snapshotToCheck))
		}
	}

	if *writeSnap {
		snap := snapshot.FromAssets(genCfg, assets)
		path := filepath.Join(snapDir, snapshot.Filename(genCfg.Seed, time.Now()))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			logger.Printf("snapshot write: %v", err)
		} else {
			logger.Printf("snapshot written: %s", path)
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
	if idx != nil {
		idx.RecordRun(genCfg, assets.Report)
	}

	interp, err := daycycle.New(cfg.DayCycle.Keyframes)
	if err != nil {
		logger.Fatalf("day cycle: %v", err)
	}
	clock := daycycle.NewClock(cfg.DayLength(), cfg.DayCycle.StartHour)

	ctx, cancel := signalContext()
	defer cancel()

	wsSrv := ws.NewServer(assets, ws.Config{
		Seed:       genCfg.Seed,
		Terrain:    genCfg.Terrain,
		DayLength:  cfg.DayLength(),
		TickRateHz: cfg.Server.TickRateHz,
	}, interp, clock, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP meadowgen_seed Seed of the served environment.\n")
		fmt.Fprintf(rw, "# TYPE meadowgen_seed gauge\n")
		fmt.Fprintf(rw, "meadowgen_seed %d\n", genCfg.Seed)

		fmt.Fprintf(rw, "# HELP meadowgen_instances Placed instances by category.\n")
		fmt.Fprintf(rw, "# TYPE meadowgen_instances gauge\n")
		for name, cr := range assets.Report.Categories {
			fmt.Fprintf(rw, "meadowgen_instances{category=%q} %d\n", name, cr.Placed)
		}

		fmt.Fprintf(rw, "# HELP meadowgen_instances_skipped Requested instances dropped by placement exhaustion.\n")
		fmt.Fprintf(rw, "# TYPE meadowgen_instances_skipped gauge\n")
		for name, cr := range assets.Report.Categories {
			fmt.Fprintf(rw, "meadowgen_instances_skipped{category=%q} %d\n", name, cr.Skipped)
		}

		fmt.Fprintf(rw, "# HELP meadowgen_day_hour Current in-world hour.\n")
		fmt.Fprintf(rw, "# TYPE meadowgen_day_hour gauge\n")
		fmt.Fprintf(rw, "meadowgen_day_hour %.4f\n", clock.HourAt(time.Now()))
	})
	mux.HandleFunc("/v1/stats", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		params := wsSrv.ParamsAt(time.Now(), 0)
		resp := struct {
			Seed   int64               `json:"seed"`
			Report compose.Report      `json:"report"`
			Params daycycle.Parameters `json:"params"`
		}{
			Seed:   genCfg.Seed,
			Report: assets.Report,
			Params: params.Params,
		}
		_ = json.NewEncoder(rw).Encode(resp)
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", listenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// load reads the config, treating a missing file as defaults so the
// server can run with no setup at all.
func load(path string, logger *log.Logger) (config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Printf("config not found (%s); using defaults", path)
		return config.Load("")
	}
	return config.Load(path)
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
