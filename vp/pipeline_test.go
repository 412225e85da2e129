package vp

import (
	"testing"

	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/xerr"
)

func flatGroundGeometry(size float64) Geometry {
	verts := []float64{
		0, 0, 0,
		size, 0, 0,
		size, 0, size,
		0, 0, size,
	}
	tris := []int{0, 1, 2, 0, 2, 3}
	return Geometry{
		Verts: verts,
		Tris:  tris,
		Areas: []int{AreaADT, AreaADT},
	}
}

func testMeshConfig() config.MeshConfig {
	cfg := config.Default().Mesh
	cfg.TileVoxelSize = 64
	return cfg
}

func TestBuildTileFlatGroundProducesWalkableMesh(t *testing.T) {
	cfg := testMeshConfig()
	geom := flatGroundGeometry(20)

	blob, err := BuildTile(geom, cfg, 10, 20, [3]float64{0, 0, 0}, [3]float64{20, 0, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blob == nil {
		t.Fatal("expected a non-nil tile blob for flat walkable ground")
	}
	if blob.NavData == nil {
		t.Fatal("expected nav mesh data to be populated")
	}
	if blob.Heightfield == nil {
		t.Fatal("expected the heightfield to be retained for later incremental rebuilds")
	}
	if blob.TileX != 10 || blob.TileY != 20 {
		t.Fatalf("got tile (%d,%d), want (10,20)", blob.TileX, blob.TileY)
	}
}

func TestBuildTileEmptyGeometrySucceedsWithNoTile(t *testing.T) {
	cfg := testMeshConfig()
	blob, err := BuildTile(Geometry{}, cfg, 0, 0, [3]float64{0, 0, 0}, [3]float64{20, 0, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blob != nil {
		t.Fatal("expected no tile to be emitted for empty geometry")
	}
}

func TestBuildTileSteepSlopeIsNotWalkable(t *testing.T) {
	cfg := testMeshConfig()
	// A near-vertical wall: no triangle in it should survive
	// RcClearUnwalkableTriangles, so the tile ends up with no polygons.
	verts := []float64{
		0, 0, 0,
		0, 20, 0,
		0, 20, 20,
		0, 0, 20,
	}
	geom := Geometry{
		Verts: verts,
		Tris:  []int{0, 1, 2, 0, 2, 3},
		Areas: []int{AreaADT, AreaADT},
	}

	blob, err := BuildTile(geom, cfg, 0, 0, [3]float64{0, 0, 0}, [3]float64{20, 20, 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blob != nil {
		t.Fatal("expected a vertical wall to produce no walkable tile")
	}
}

func TestBuildTileTooManyVertsFails(t *testing.T) {
	cfg := testMeshConfig()
	cfg.CellSize = 1
	cfg.CellHeight = 1
	cfg.WalkableRadius = 0
	cfg.WalkableClimb = 10
	cfg.WalkableHeight = 1
	cfg.MinRegionArea = 0
	cfg.MergeRegionArea = 0

	// A checkerboard of thousands of isolated 1x1 platforms, spaced apart by
	// bare cells with no geometry at all: each rasterizes into its own
	// disconnected region rather than merging into a shared surface, so
	// their contour vertices never get deduplicated against each other.
	// Enough of them push the tile's total vertex count past Detour's
	// 65535-per-tile limit even though no single region is large.
	const grid = 130
	cfg.TileVoxelSize = grid * 2

	var verts []float64
	var tris []int
	var areas []int
	next := 0
	for i := 0; i < grid; i++ {
		for j := 0; j < grid; j++ {
			x := float64(i * 2)
			z := float64(j * 2)
			verts = append(verts, x, 0, z, x+1, 0, z, x+1, 0, z+1, x, 0, z+1)
			tris = append(tris, next, next+1, next+2, next, next+2, next+3)
			areas = append(areas, AreaADT, AreaADT)
			next += 4
		}
	}
	size := float64(grid * 2)
	geom := Geometry{Verts: verts, Tris: tris, Areas: areas}

	_, err := BuildTile(geom, cfg, 0, 0, [3]float64{0, 0, 0}, [3]float64{size, 0, size})
	if err == nil {
		t.Fatal("expected TooManyVerts for a tile with tens of thousands of disconnected 1-cell platforms")
	}
	if !xerr.Is(err, xerr.TooManyVerts) {
		t.Fatalf("got %v, want a TooManyVerts error", err)
	}
}

func TestRebuildTileAddsObstacleOntoRetainedHeightfield(t *testing.T) {
	cfg := testMeshConfig()
	ground := flatGroundGeometry(20)

	blob, err := BuildTile(ground, cfg, 0, 0, [3]float64{0, 0, 0}, [3]float64{20, 0, 20})
	if err != nil {
		t.Fatalf("unexpected error building initial tile: %v", err)
	}
	if blob == nil {
		t.Fatal("expected initial tile to build")
	}

	// A small platform sitting well above the ground and within the
	// walkable climb, tagged as a doodad obstacle.
	obstacle := Geometry{
		Verts: []float64{
			5, 1, 5,
			10, 1, 5,
			10, 1, 10,
			5, 1, 10,
		},
		Tris:  []int{0, 1, 2, 0, 2, 3},
		Areas: []int{AreaDoodad, AreaDoodad},
	}

	rebuilt, err := RebuildTile(blob.Heightfield, obstacle, cfg, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error rebuilding tile: %v", err)
	}
	if rebuilt == nil {
		t.Fatal("expected the rebuilt tile to still have walkable polygons")
	}
	if rebuilt.Heightfield != blob.Heightfield {
		t.Fatal("expected RebuildTile to reuse the same heightfield instance rather than discard it")
	}
}
