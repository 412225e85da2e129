package rnm

import (
	"bytes"
	"testing"

	"github.com/luke-gav/namigator/internal/xerr"
)

// obstacleModelSource layers a single small flat quad "d_box.mdl" on top of
// fakeSource's flat ADT, positioned well inside the loaded tile's bounds.
type obstacleModelSource struct{ fakeSource }

func (obstacleModelSource) OpenModelFile(filename string) ([]byte, error) {
	if filename != "d_box.mdl" {
		return nil, xerr.New(xerr.NotFound, filename)
	}
	verts := []float32{
		-1, -1, 0,
		1, -1, 0,
		1, 1, 0,
		-1, 1, 0,
	}
	var vertPayload []byte
	for _, v := range verts {
		vertPayload = append(vertPayload, le32f(v)...)
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	var indexPayload []byte
	for _, idx := range indices {
		indexPayload = append(indexPayload, le32(idx)...)
	}
	var buf []byte
	buf = append(buf, chunkBytes("MVRT", vertPayload)...)
	buf = append(buf, chunkBytes("MIND", indexPayload)...)
	return buf, nil
}

type boxResolver struct{}

func (boxResolver) Resolve(displayID uint32) (string, error) { return "d_box.mdl", nil }

// loadObstacleFixture builds the flat-square archive with plain fakeSource
// (terrain only) but loads it through obstacleModelSource, whose only
// addition is serving "d_box.mdl" for GetModel: LoadAdt itself never touches
// the data source, only World().HasAdt and, later, obstacle model lookups.
func loadObstacleFixture(t *testing.T) *Map {
	t.Helper()
	archive, cfg := buildFlatWorldArchive(t)
	m, err := Load("TestWorld", obstacleModelSource{}, archive, boxResolver{}, cfg)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ok, err := m.LoadAdt(32, 32)
	if err != nil {
		t.Fatalf("LoadAdt failed: %v", err)
	}
	assertTrue(t, ok, "expected the flat ADT to load")
	return m
}

func onlyLoadedTile(t *testing.T, m *Map) *loadedTile {
	t.Helper()
	m.tilesMu.Lock()
	defer m.tilesMu.Unlock()
	assertTrue(t, len(m.tiles) == 1, "expected exactly one loaded tile in this fixture")
	for _, lt := range m.tiles {
		return lt
	}
	return nil
}

// TestObstacleAddRemoveIsIdempotent covers spec §8 property 5: adding a
// temporary obstacle and then removing it restores the tile's heightfield to
// its pristine, byte-identical state.
func TestObstacleAddRemoveIsIdempotent(t *testing.T) {
	m := loadObstacleFixture(t)
	lt := onlyLoadedTile(t, m)

	before := lt.current.ToBin()

	pos := [3]float64{-100, -100, 10}
	err := m.AddGameObject(1, 42, pos, identityQuat(), 0)
	if err != nil {
		t.Fatalf("AddGameObject failed: %v", err)
	}

	mid := lt.current.ToBin()
	assertTrue(t, !bytes.Equal(before, mid), "expected the heightfield to change after adding an obstacle")

	if err := m.RemoveGameObject(1); err != nil {
		t.Fatalf("RemoveGameObject failed: %v", err)
	}

	after := lt.current.ToBin()
	assertTrue(t, bytes.Equal(before, after), "expected the heightfield to return to its pristine state after removal")
}

// TestObstacleAddCommutes covers spec §8 property 6: adding two obstacles in
// either order produces the same final heightfield.
func TestObstacleAddCommutes(t *testing.T) {
	posA := [3]float64{-100, -100, 10}
	posB := [3]float64{-200, -200, 10}

	m1 := loadObstacleFixture(t)
	if err := m1.AddGameObject(1, 42, posA, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(1) failed: %v", err)
	}
	if err := m1.AddGameObject(2, 42, posB, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(2) failed: %v", err)
	}
	final1 := onlyLoadedTile(t, m1).current.ToBin()

	m2 := loadObstacleFixture(t)
	if err := m2.AddGameObject(2, 42, posB, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(2) failed: %v", err)
	}
	if err := m2.AddGameObject(1, 42, posA, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(1) failed: %v", err)
	}
	final2 := onlyLoadedTile(t, m2).current.ToBin()

	assertTrue(t, bytes.Equal(final1, final2), "expected obstacle order to not affect the final heightfield")
}

// TestObstacleRemovalRebuildsFromRemainingObstacles covers spec §4.5's
// removal contract at N=2: removing one obstacle out of two rebuilds from
// the pristine field plus whatever remains, landing on the same heightfield
// as if only the surviving obstacle had ever been added.
func TestObstacleRemovalRebuildsFromRemainingObstacles(t *testing.T) {
	posA := [3]float64{-100, -100, 10}
	posB := [3]float64{-200, -200, 10}

	both := loadObstacleFixture(t)
	if err := both.AddGameObject(1, 42, posA, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(1) failed: %v", err)
	}
	if err := both.AddGameObject(2, 42, posB, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(2) failed: %v", err)
	}
	if err := both.RemoveGameObject(1); err != nil {
		t.Fatalf("RemoveGameObject(1) failed: %v", err)
	}
	afterRemoval := onlyLoadedTile(t, both).current.ToBin()

	onlyB := loadObstacleFixture(t)
	if err := onlyB.AddGameObject(2, 42, posB, identityQuat(), 0); err != nil {
		t.Fatalf("AddGameObject(2) failed: %v", err)
	}
	onlyBBytes := onlyLoadedTile(t, onlyB).current.ToBin()

	assertTrue(t, bytes.Equal(afterRemoval, onlyBBytes),
		"expected removing one of two obstacles to match a fixture that only ever had the surviving obstacle")
}
