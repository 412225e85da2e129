// Command navbuild drives the offline tile-build pipeline described by
// spec §6's CLI surface: build_map(data_dir, out_dir, map_name, log_level)
// and build_tile(map, x, y), each backed by internal/config's Config and
// internal/logging's zap logger.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/logging"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/tbo"
	"github.com/luke-gav/namigator/wgm"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build-map":
		err = runBuildMap(os.Args[2:])
	case "build-tile":
		err = runBuildTile(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "navbuild:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: navbuild build-map -map NAME [-config FILE] [flags]")
	fmt.Fprintln(os.Stderr, "       navbuild build-tile -map NAME -x N -y N [-config FILE] [flags]")
}

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, string, error) {
	configPath := fs.String("config", "", "path to a YAML config file overriding defaults")
	mapName := fs.String("map", "", "map name")
	dataDir := fs.String("data-dir", "", "override Paths.DataDir")
	outDir := fs.String("out-dir", "", "override Paths.OutputDir")
	logLevel := fs.String("log-level", "", "override Logging.Level")
	logFile := fs.String("log-file", "", "override Logging.LogFile")
	workers := fs.Int("workers", 0, "override Build.WorkerCount")
	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if *mapName == "" {
		return nil, "", xerr.New(xerr.Corrupt, "-map is required")
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg = config.Default()
	}
	if err != nil {
		return nil, "", err
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFile != "" {
		cfg.Logging.LogFile = *logFile
	}
	if *workers > 0 {
		cfg.Build.WorkerCount = *workers
	}

	if err := logging.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, "", err
	}
	return cfg, *mapName, nil
}

// runBuildMap implements build_map(data_dir, out_dir, map_name, log_level):
// it drains the orchestrator's work queue across Build.WorkerCount parallel
// workers (spec §5 "one worker per CPU core"), logging progress as tiles
// complete.
func runBuildMap(args []string) error {
	fs := flag.NewFlagSet("build-map", flag.ExitOnError)
	cfg, mapName, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	defer logging.Log.Sync()

	world, err := wgm.OpenMap(mapName, fsDataSource{DataDir: cfg.Paths.DataDir})
	if err != nil {
		return err
	}
	sink := fsArchive{OutDir: cfg.Paths.OutputDir, MapName: mapName}
	orch := tbo.New(world, cfg.Mesh, sink)

	logging.Log.Info("build starting",
		zap.String("map", mapName), zap.Int("workers", cfg.Build.WorkerCount))

	var g errgroup.Group
	for i := 0; i < cfg.Build.WorkerCount; i++ {
		g.Go(func() error {
			for {
				id, ok := orch.NextTile()
				if !ok {
					return nil
				}
				if err := orch.BuildTile(id); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logging.Log.Info("build complete",
		zap.String("map", mapName), zap.Float64("percent_complete", orch.PercentComplete()))
	return nil
}

// runBuildTile implements build_tile(map, x, y): builds every nav tile
// within the single ADT (x, y) and writes its archive, without touching any
// other ADT in the map.
func runBuildTile(args []string) error {
	fs := flag.NewFlagSet("build-tile", flag.ExitOnError)
	x := fs.Int("x", -1, "ADT x coordinate")
	y := fs.Int("y", -1, "ADT y coordinate")
	cfg, mapName, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	defer logging.Log.Sync()
	if *x < 0 || *y < 0 {
		return xerr.New(xerr.Corrupt, "-x and -y are required")
	}

	world, err := wgm.OpenMap(mapName, fsDataSource{DataDir: cfg.Paths.DataDir})
	if err != nil {
		return err
	}
	if !world.HasAdt(*x, *y) {
		return xerr.WithCoord(xerr.NotFound, xerr.AdtCoord(*x, *y), "adt not present in map")
	}

	sink := fsArchive{OutDir: cfg.Paths.OutputDir, MapName: mapName}
	orch := tbo.New(world, cfg.Mesh, sink)

	for {
		id, ok := orch.NextTile()
		if !ok {
			break
		}
		if id.AdtX != *x || id.AdtY != *y {
			continue
		}
		if err := orch.BuildTile(id); err != nil {
			return err
		}
	}

	logging.Log.Info("tile build complete", zap.Int("adtX", *x), zap.Int("adtY", *y))
	return nil
}
