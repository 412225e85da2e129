package tbo

import (
	"encoding/binary"
	"math"
	"sync"
	"testing"

	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/wgm"
)

func assertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Fatal(msg)
	}
}

// fakeSource is a minimal wgm.DataSource that serves one flat, single-chunk
// ADT at (32, 32): the tile whose world-space AABB is exactly
// [-533.33, 0] x [-533.33, 0], per si.AdtBounds(32, 32).
type fakeSource struct{}

func chunkBytes(tag string, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	copy(out[0:4], tag)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(payload)))
	copy(out[8:], payload)
	return out
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func le32f(v float32) []byte {
	return le32(math.Float32bits(v))
}

// flatMcnkPayload builds one MCNK chunk's payload: no holes, a flat 9x9+8x8
// terrain grid at height z, spread evenly across [x0, x1] x [y0, y1] in
// WGM's (x, y, height) vertex convention.
func flatMcnkPayload(x0, x1, y0, y1, z float64) []byte {
	payload := append([]byte{}, le32(0)...)       // AreaID
	payload = append(payload, make([]byte, 8)...) // hole bitmap, all clear

	outer := func(r, c int) [3]float32 {
		fx := x0 + (x1-x0)*float64(c)/8
		fy := y0 + (y1-y0)*float64(r)/8
		return [3]float32{float32(fx), float32(fy), float32(z)}
	}
	inner := func(r, c int) [3]float32 {
		fx := x0 + (x1-x0)*(float64(c)+0.5)/8
		fy := y0 + (y1-y0)*(float64(r)+0.5)/8
		return [3]float32{float32(fx), float32(fy), float32(z)}
	}

	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			v := outer(r, c)
			payload = append(payload, le32f(v[0])...)
			payload = append(payload, le32f(v[1])...)
			payload = append(payload, le32f(v[2])...)
		}
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			v := inner(r, c)
			payload = append(payload, le32f(v[0])...)
			payload = append(payload, le32f(v[1])...)
			payload = append(payload, le32f(v[2])...)
		}
	}
	return payload
}

func (fakeSource) OpenWorldFile(mapName string) ([]byte, error) {
	var buf []byte
	buf = append(buf, chunkBytes("MVER", le32(18))...)

	// MAIN: 64x64 presence bitmap, only (32, 32) set.
	bitmap := make([]byte, 64*64/8)
	bit := 32*64 + 32
	bitmap[bit/8] |= 1 << uint(bit%8)
	buf = append(buf, chunkBytes("MAIN", bitmap)...)
	return buf, nil
}

func (fakeSource) OpenAdtFile(mapName string, x, y int) ([]byte, error) {
	if x != 32 || y != 32 {
		return nil, xerr.New(xerr.NotFound, "no such adt")
	}
	// A single MCNK occupying chunk (0,0), spanning most of the tile's
	// [-533.33, 0] x [-533.33, 0] world footprint at a constant height.
	payload := flatMcnkPayload(-520, -13, -520, -13, 10)
	return chunkBytes("MCNK", payload), nil
}

func (fakeSource) OpenModelFile(filename string) ([]byte, error) {
	return nil, xerr.New(xerr.NotFound, filename)
}

// countingSource wraps fakeSource, counting how many times OpenAdtFile is
// called so a test can tell whether the wgm.Map arena actually re-parses an
// ADT rather than serving a stale cache entry.
type countingSource struct {
	fakeSource
	mu    sync.Mutex
	calls int
}

func (c *countingSource) OpenAdtFile(mapName string, x, y int) ([]byte, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.fakeSource.OpenAdtFile(mapName, x, y)
}

type recordingArchive struct {
	mu    sync.Mutex
	calls map[[2]int][]byte
}

func newRecordingArchive() *recordingArchive {
	return &recordingArchive{calls: make(map[[2]int][]byte)}
}

func (r *recordingArchive) WriteAdt(x, y int, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[[2]int{x, y}] = data
	return nil
}

func testCfg() config.MeshConfig {
	cfg := config.Default().Mesh
	// A coarse cell size keeps the single nav tile (the whole 533-unit ADT,
	// since NavTilesPerAdt=1) inside a small voxel grid instead of requiring
	// thousands of columns per axis.
	cfg.CellSize = 10
	cfg.TileVoxelSize = 64
	cfg.NavTilesPerAdt = 1
	return cfg
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *recordingArchive) {
	t.Helper()
	world, err := wgm.OpenMap("TestWorld", fakeSource{})
	if err != nil {
		t.Fatalf("OpenMap failed: %v", err)
	}
	archive := newRecordingArchive()
	return New(world, testCfg(), archive), archive
}

func TestNewEnqueuesExactlyOneTilePerPresentAdt(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	assertTrue(t, o.totalTiles == 1, "expected exactly one nav tile for the one present ADT with NavTilesPerAdt=1")
}

func TestNextTileExhaustsAfterOnePop(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	id, ok := o.NextTile()
	assertTrue(t, ok, "expected a tile from a fresh orchestrator")
	assertTrue(t, id.AdtX == 32 && id.AdtY == 32, "expected the only present ADT's tile")

	_, ok = o.NextTile()
	assertTrue(t, !ok, "expected the work queue to be exhausted after its one tile")
}

func TestNextTileIncrementsChunkRefThenBuildTileReleasesIt(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	assertTrue(t, o.ChunkRefsZero(), "expected an untouched orchestrator to have every chunk reference at zero")

	id, ok := o.NextTile()
	assertTrue(t, ok, "expected a tile")

	o.refMu.Lock()
	claimed := o.chunkRefs[id.AdtX][id.AdtY]
	o.refMu.Unlock()
	assertTrue(t, claimed == 1, "expected NextTile to bump the claimed ADT's chunk reference to 1")
	assertTrue(t, !o.ChunkRefsZero(), "expected a claimed, unfinished tile to hold a nonzero chunk reference")

	if err := o.BuildTile(id); err != nil {
		t.Fatalf("BuildTile failed: %v", err)
	}
	assertTrue(t, o.ChunkRefsZero(), "expected every chunk reference counter to be zero once the queue drains")
}

// TestFinishTileReleasesWgmArenaOnceAdtCompletes covers spec §3/§4.4's
// resource-lifetime contract from the TBO side: once an ADT's chunk
// reference counter drains to zero, its WGM parse must actually be dropped,
// not merely the TBO-local adtState aggregator. A dropped wgm.AdtTile
// re-parses (and re-reads the data source) the next time it's requested.
func TestFinishTileReleasesWgmArenaOnceAdtCompletes(t *testing.T) {
	src := &countingSource{}
	world, err := wgm.OpenMap("TestWorld", src)
	if err != nil {
		t.Fatalf("OpenMap failed: %v", err)
	}
	o := New(world, testCfg(), newRecordingArchive())

	id, ok := o.NextTile()
	assertTrue(t, ok, "expected a tile")
	if err := o.BuildTile(id); err != nil {
		t.Fatalf("BuildTile failed: %v", err)
	}

	src.mu.Lock()
	afterBuild := src.calls
	src.mu.Unlock()
	assertTrue(t, afterBuild == 1, "expected exactly one parse of the ADT during the build")

	if _, err := world.GetAdt(32, 32); err != nil {
		t.Fatalf("GetAdt failed: %v", err)
	}

	src.mu.Lock()
	afterRefetch := src.calls
	src.mu.Unlock()
	assertTrue(t, afterRefetch == 2, "expected a second parse, proving BuildTile's completion released the cached wgm.AdtTile")
}

func TestPercentCompleteTracksBuildTile(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	assertTrue(t, o.PercentComplete() == 0, "expected 0% before any tile builds")

	id, ok := o.NextTile()
	assertTrue(t, ok, "expected a tile")
	if err := o.BuildTile(id); err != nil {
		t.Fatalf("BuildTile failed: %v", err)
	}
	assertTrue(t, o.PercentComplete() == 100, "expected 100% after the only tile builds")
}

func TestBuildTileSerializesAdtOnceAllLocalTilesComplete(t *testing.T) {
	o, archive := newTestOrchestrator(t)

	id, ok := o.NextTile()
	assertTrue(t, ok, "expected a tile")
	if err := o.BuildTile(id); err != nil {
		t.Fatalf("BuildTile failed: %v", err)
	}

	archive.mu.Lock()
	data, wrote := archive.calls[[2]int{32, 32}]
	archive.mu.Unlock()
	assertTrue(t, wrote, "expected the ADT archive to be written once its only local tile completed")
	assertTrue(t, len(data) > 12, "expected serialized bytes beyond the x/y/tileCount header")

	o.adtsMu.Lock()
	_, stillPending := o.adts[[2]int{32, 32}]
	o.adtsMu.Unlock()
	assertTrue(t, !stillPending, "expected the completed ADT to be removed from the in-progress map")
}

func TestToRcPointSwapsHeightAndHorizontalAxes(t *testing.T) {
	got := toRcPoint([3]float64{1, 2, 3})
	want := [3]float64{1, 3, 2}
	assertTrue(t, got == want, "expected WGM (x, y, height) to become Recast (x, height, z)")
}
