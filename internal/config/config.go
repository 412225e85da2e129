// Package config handles navmesh-build and runtime configuration.
package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the build pipeline and runtime map.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Mesh    MeshConfig    `yaml:"mesh"`
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig names the two externally-provided directories (spec §6).
type PathsConfig struct {
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
}

// MeshConfig carries the voxel-pipeline tuning knobs of spec §4.3, plus the
// nav-tiles-per-ADT ratio that spec §9 Open Question (b) requires be exposed
// as configuration.
type MeshConfig struct {
	CellSize               float64 `yaml:"cell_size"`
	CellHeight              float64 `yaml:"cell_height"`
	WalkableSlopeAngle      float64 `yaml:"walkable_slope_angle"`
	WalkableClimb           int     `yaml:"walkable_climb"`
	WalkableHeight          int     `yaml:"walkable_height"`
	WalkableRadius          int     `yaml:"walkable_radius"`
	MaxSimplificationError  float64 `yaml:"max_simplification_error"`
	MaxEdgeLen              int     `yaml:"max_edge_len"`
	MinRegionArea           int     `yaml:"min_region_area"`
	MergeRegionArea         int     `yaml:"merge_region_area"`
	MaxVertsPerPoly         int     `yaml:"max_verts_per_poly"`
	TileVoxelSize           int     `yaml:"tile_voxel_size"`
	DetailSampleDist        float64 `yaml:"detail_sample_dist"`
	DetailSampleMaxError    float64 `yaml:"detail_sample_max_error"`
	NavTilesPerAdt          int     `yaml:"nav_tiles_per_adt"`
}

// BuildConfig controls the offline TBO worker pool.
type BuildConfig struct {
	WorkerCount int `yaml:"worker_count"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns the reference configuration. Mesh defaults are grounded
// in original_source/pathfind/Source/TemporaryObstacle.cpp's
// InitializeRecastConfig, which reads them from a MeshSettings header that
// was filtered out of the retrieved sources; the values below reproduce the
// magnitudes implied by that call site (documented further in DESIGN.md).
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:   "Data",
			OutputDir: "output",
		},
		Mesh: MeshConfig{
			CellSize:              0.3333333,
			CellHeight:            0.3333333,
			WalkableSlopeAngle:    60.0,
			WalkableClimb:         4,
			WalkableHeight:        6,
			WalkableRadius:        2,
			MaxSimplificationError: 2.0,
			MaxEdgeLen:            50,
			MinRegionArea:         64,
			MergeRegionArea:       400,
			MaxVertsPerPoly:       6,
			TileVoxelSize:         512,
			DetailSampleDist:      6.0,
			DetailSampleMaxError:  1.0,
			NavTilesPerAdt:        8,
		},
		Build: BuildConfig{
			WorkerCount: runtime.NumCPU(),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Load reads a YAML config file over top of Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
