package rnm

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/tbo"
	"github.com/luke-gav/namigator/wgm"
)

func identityQuat() mgl64.Quat { return mgl64.QuatIdent() }

func assertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Fatal(msg)
	}
}

// fakeSource serves a single flat ADT at (32, 32): the tile whose
// world-space AABB is [-533.33, 0] x [-533.33, 0], per si.AdtBounds(32, 32).
// Grounded on tbo's own orchestrator_test.go fixture of the same shape.
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

func le32f(v float32) []byte { return le32(math.Float32bits(v)) }

func flatMcnkPayload(x0, x1, y0, y1, z float64) []byte {
	payload := append([]byte{}, le32(0)...)
	payload = append(payload, make([]byte, 8)...)

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
	payload := flatMcnkPayload(-520, -13, -520, -13, 10)
	return chunkBytes("MCNK", payload), nil
}

func (fakeSource) OpenModelFile(filename string) ([]byte, error) {
	return nil, xerr.New(xerr.NotFound, filename)
}

// wmoOnlySource serves a world file carrying only an MHDR chunk (no MAIN
// bitmap): every HasAdt(x, y) is false, matching spec S5's "global WMO
// only" map shape.
type wmoOnlySource struct{}

func (wmoOnlySource) OpenWorldFile(mapName string) ([]byte, error) {
	var buf []byte
	buf = append(buf, chunkBytes("MVER", le32(18))...)
	buf = append(buf, chunkBytes("MHDR", make([]byte, 4))...)
	return buf, nil
}

func (wmoOnlySource) OpenAdtFile(mapName string, x, y int) ([]byte, error) {
	return nil, xerr.New(xerr.NotFound, "wmo-only map has no adts")
}

func (wmoOnlySource) OpenModelFile(filename string) ([]byte, error) {
	return nil, xerr.New(xerr.NotFound, filename)
}

// memArchive is both a tbo.Archive sink and an rnm.ArchiveSource, letting a
// test build a world offline with tbo and immediately load it back with rnm
// in the same process.
type memArchive struct {
	data map[[2]int][]byte
}

func newMemArchive() *memArchive { return &memArchive{data: make(map[[2]int][]byte)} }

func (m *memArchive) WriteAdt(x, y int, data []byte) error {
	m.data[[2]int{x, y}] = data
	return nil
}

func (m *memArchive) ReadAdt(x, y int) ([]byte, error) {
	d, ok := m.data[[2]int{x, y}]
	if !ok {
		return nil, xerr.WithCoord(xerr.NotFound, xerr.AdtCoord(x, y), "no archive for adt")
	}
	return d, nil
}

func testCfg() config.MeshConfig {
	cfg := config.Default().Mesh
	cfg.CellSize = 10
	cfg.TileVoxelSize = 64
	cfg.NavTilesPerAdt = 1
	return cfg
}

func buildFlatWorldArchive(t *testing.T) (*memArchive, config.MeshConfig) {
	t.Helper()
	world, err := wgm.OpenMap("TestWorld", fakeSource{})
	if err != nil {
		t.Fatalf("OpenMap failed: %v", err)
	}
	cfg := testCfg()
	archive := newMemArchive()
	orch := tbo.New(world, cfg, archive)
	for {
		id, ok := orch.NextTile()
		if !ok {
			break
		}
		if err := orch.BuildTile(id); err != nil {
			t.Fatalf("BuildTile failed: %v", err)
		}
	}
	return archive, cfg
}

type nullResolver struct{}

func (nullResolver) Resolve(displayID uint32) (string, error) {
	return "", xerr.WithID(xerr.NotFound, "", "no resolver configured for this test")
}

func TestLoadAdtRefusesAbsentAdt(t *testing.T) {
	archive, cfg := buildFlatWorldArchive(t)
	m, err := Load("TestWorld", fakeSource{}, archive, nullResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ok, err := m.LoadAdt(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTrue(t, !ok, "expected load_adt to refuse an ADT absent from the world's table of contents")
}

// TestLoadAdtRefusesOnWmoOnlyMap covers spec S5: a WMO-only map refuses
// every load_adt call, since HasAdt is false for every coordinate.
func TestLoadAdtRefusesOnWmoOnlyMap(t *testing.T) {
	cfg := testCfg()
	m, err := Load("WmoOnly", wmoOnlySource{}, newMemArchive(), nullResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ok, err := m.LoadAdt(32, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTrue(t, !ok, "expected load_adt to refuse on a WMO-only map")
}

// TestFindPathAcrossFlatSquare covers spec S1: a path between two points on
// the fixture's flat square (about 507 units on a side) returns a path whose endpoints land near the
// requested points.
func TestFindPathAcrossFlatSquare(t *testing.T) {
	archive, cfg := buildFlatWorldArchive(t)
	m, err := Load("TestWorld", fakeSource{}, archive, nullResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	ok, err := m.LoadAdt(32, 32)
	if err != nil {
		t.Fatalf("LoadAdt failed: %v", err)
	}
	assertTrue(t, ok, "expected the flat ADT to load")

	start := [3]float64{-500, -500, 10}
	end := [3]float64{-30, -30, 10}
	path, ok, err := m.FindPath(start, end, false)
	if err != nil {
		t.Fatalf("FindPath failed: %v", err)
	}
	assertTrue(t, ok, "expected a path across the flat square")
	assertTrue(t, len(path) >= 2, "expected at least a start and end vertex")

	first, last := path[0], path[len(path)-1]
	const tolerance = 15.0 // coarse cell size (10) plus a margin
	assertTrue(t, dist2D(first, start) < tolerance, "expected path start near the requested start")
	assertTrue(t, dist2D(last, end) < tolerance, "expected path end near the requested end")

	for i := 1; i < len(path); i++ {
		assertTrue(t, path[i] != path[i-1], "expected no duplicate consecutive vertices (spec invariant 7)")
	}
}

func dist2D(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Sqrt(dx*dx + dy*dy)
}

func TestFindPathReturnsFalseWithNoLoadedTiles(t *testing.T) {
	cfg := testCfg()
	m, err := Load("TestWorld", fakeSource{}, newMemArchive(), nullResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	_, ok, err := m.FindPath([3]float64{-500, -500, 10}, [3]float64{-30, -30, 10}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTrue(t, !ok, "expected no path against an empty nav mesh")
}

func TestAddGameObjectRejectsDuplicateGuid(t *testing.T) {
	archive, cfg := buildFlatWorldArchive(t)
	m, err := Load("TestWorld", fakeSource{}, archive, dResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := m.LoadAdt(32, 32); err != nil {
		t.Fatalf("LoadAdt failed: %v", err)
	}

	// dResolver always fails model resolution past the prefix check, but
	// the duplicate-guid check (spec §4.5 step 1 / SUPPLEMENTED FEATURES 1)
	// must run before that, so seed m.objects directly to isolate it.
	m.objMu.Lock()
	m.objects[1] = &gameObject{guid: 1}
	m.objMu.Unlock()

	err = m.AddGameObject(1, 42, [3]float64{-100, -100, 10}, identityQuat(), 0)
	assertTrue(t, xerr.Is(err, xerr.AlreadyExists), "expected AlreadyExists for a duplicate guid")
}

func TestAddGameObjectRejectsWmoDisplayID(t *testing.T) {
	archive, cfg := buildFlatWorldArchive(t)
	m, err := Load("TestWorld", fakeSource{}, archive, wmoResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := m.LoadAdt(32, 32); err != nil {
		t.Fatalf("LoadAdt failed: %v", err)
	}

	err = m.AddGameObject(1, 42, [3]float64{-100, -100, 10}, identityQuat(), 0)
	assertTrue(t, xerr.Is(err, xerr.Unsupported), "expected Unsupported for a WMO display id")
}

type dResolver struct{}

func (dResolver) Resolve(displayID uint32) (string, error) { return "d_nonexistent.mdl", nil }

type wmoResolver struct{}

func (wmoResolver) Resolve(displayID uint32) (string, error) { return "wmo_building.wmo", nil }
