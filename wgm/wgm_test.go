package wgm

import (
	"math"
	"testing"

	"github.com/luke-gav/namigator/internal/xerr"
)

func assertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Fatal(msg)
	}
}

func TestTriangulateGridSkipsHoles(t *testing.T) {
	verts := make([][3]float64, 9*9+8*8)
	for i := range verts {
		verts[i] = [3]float64{0, 0, float64(i)}
	}

	var holes [8][8]bool
	holes[3][4] = true

	indices, _, _ := triangulateGrid(verts, holes)

	// 63 non-holed quads * 4 triangles * 3 verts.
	want := 63 * 4 * 3
	assertTrue(t, len(indices) == want, "hole quad must be skipped")
}

func TestTriangulateGridFullMinMaxZ(t *testing.T) {
	verts := make([][3]float64, 9*9+8*8)
	for i := range verts {
		verts[i] = [3]float64{0, 0, float64(i) - 50}
	}
	_, minZ, maxZ := triangulateGrid(verts, [8][8]bool{})
	assertTrue(t, minZ == -50, "min z")
	assertTrue(t, maxZ == float64(len(verts)-1)-50, "max z")
}

type fakeData struct {
	world  map[string][]byte
	adts   map[[2]int][]byte
	models map[string][]byte
}

func (f *fakeData) OpenWorldFile(mapName string) ([]byte, error) {
	b, ok := f.world[mapName]
	if !ok {
		return nil, xerr.New(xerr.NotFound, mapName)
	}
	return b, nil
}
func (f *fakeData) OpenAdtFile(mapName string, x, y int) ([]byte, error) {
	b, ok := f.adts[[2]int{x, y}]
	if !ok {
		return nil, xerr.New(xerr.NotFound, "no adt")
	}
	return b, nil
}
func (f *fakeData) OpenModelFile(filename string) ([]byte, error) {
	b, ok := f.models[filename]
	if !ok {
		return nil, xerr.New(xerr.NotFound, filename)
	}
	return b, nil
}

func chunk(tag chunkTag, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	copy(out[0:4], tag[:])
	le32(out[4:8], uint32(len(payload)))
	copy(out[8:], payload)
	return out
}

func le32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func TestOpenMapRejectsTruncatedFile(t *testing.T) {
	// A well-formed MVER chunk followed by a chunk header claiming more
	// payload than exists must classify as Corrupt (spec §8 S6), not panic
	// or silently succeed.
	raw := chunk(tagMVER, []byte{18, 0, 0, 0})
	raw = append(raw, []byte{'M', 'H', 'D', 'R'}...)
	raw = append(raw, 0xFF, 0xFF, 0xFF, 0x7F) // claims ~2GB payload, none present

	data := &fakeData{world: map[string][]byte{"Azeroth": raw}}
	_, err := OpenMap("Azeroth", data)
	assertTrue(t, err != nil, "expected error")
	assertTrue(t, xerr.Is(err, xerr.Corrupt), "expected Corrupt, got "+err.Error())
}

func TestOpenMapRejectsUnknownVersion(t *testing.T) {
	raw := chunk(tagMVER, []byte{99, 0, 0, 0})
	data := &fakeData{world: map[string][]byte{"Azeroth": raw}}
	_, err := OpenMap("Azeroth", data)
	assertTrue(t, err != nil, "expected error")
	assertTrue(t, xerr.Is(err, xerr.UnsupportedVersion), "expected UnsupportedVersion")
}

func TestOpenMapMissingFileIsNotFound(t *testing.T) {
	data := &fakeData{world: map[string][]byte{}}
	_, err := OpenMap("Azeroth", data)
	assertTrue(t, err != nil, "expected error")
	assertTrue(t, xerr.Is(err, xerr.NotFound), "expected NotFound")
}

func le32fBytes(v float32) []byte {
	b := make([]byte, 4)
	le32(b, math.Float32bits(v))
	return b
}

// flatTerrainGridBytes builds one MCNK's 9x9+8x8 vertex grid, flat at height
// z across [0, size] x [0, size].
func flatTerrainGridBytes(size float64, z float32) []byte {
	var out []byte
	outer := func(r, c int) (float32, float32) {
		return float32(size * float64(c) / 8), float32(size * float64(r) / 8)
	}
	inner := func(r, c int) (float32, float32) {
		return float32(size * (float64(c) + 0.5) / 8), float32(size * (float64(r) + 0.5) / 8)
	}
	for r := 0; r < 9; r++ {
		for c := 0; c < 9; c++ {
			x, y := outer(r, c)
			out = append(out, le32fBytes(x)...)
			out = append(out, le32fBytes(y)...)
			out = append(out, le32fBytes(z)...)
		}
	}
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			x, y := inner(r, c)
			out = append(out, le32fBytes(x)...)
			out = append(out, le32fBytes(y)...)
			out = append(out, le32fBytes(z)...)
		}
	}
	return out
}

// identityMat4Bytes encodes a 4x4 identity transform in the row-major
// float64 layout decodeMat4 expects.
func identityMat4Bytes() []byte {
	rowMajor := [16]float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	out := make([]byte, 0, 16*8)
	for _, v := range rowMajor {
		b := make([]byte, 8)
		bits := math.Float64bits(v)
		for i := 0; i < 8; i++ {
			b[i] = byte(bits >> (8 * i))
		}
		out = append(out, b...)
	}
	return out
}

func nullTerminated(s string) []byte {
	return append([]byte(s), 0)
}

func modelBytes(verts [][3]float32, indices []uint32) []byte {
	var vb []byte
	for _, v := range verts {
		vb = append(vb, le32fBytes(v[0])...)
		vb = append(vb, le32fBytes(v[1])...)
		vb = append(vb, le32fBytes(v[2])...)
	}
	var ib []byte
	for _, idx := range indices {
		b := make([]byte, 4)
		le32(b, idx)
		ib = append(ib, b...)
	}
	out := chunk(chunkTag{'M', 'V', 'R', 'T'}, vb)
	out = append(out, chunk(chunkTag{'M', 'I', 'N', 'D'}, ib)...)
	return out
}

func setAdtPresent(bits []byte, x, y int) {
	bit := x*64 + y
	bits[bit/8] |= 1 << uint(bit%8)
}

// TestParseAdtDecodesWmoDoodadAndLiquidPlacements builds a single-chunk ADT
// carrying one MODF WMO placement, one MDDF doodad placement, and a nested
// MLIQ liquid layer, and checks that GetAdt resolves all three onto the
// chunk that contains them (spec §4.1's WmoInstances/DoodadInstances/
// LiquidVertices/LiquidIndices fields, previously left nil by stub parsing).
// placementFixture builds a single-chunk ADT carrying one MODF WMO
// placement, one MDDF doodad placement, and a nested MLIQ liquid layer, plus
// a world file marking that ADT present, wired into a fakeData ready for
// OpenMap.
func placementFixture() *fakeData {
	const chunkSize = 100.0

	mcnkPayload := append([]byte{}, le32Bytes(0)...)      // AreaID
	mcnkPayload = append(mcnkPayload, make([]byte, 8)...) // no holes
	mcnkPayload = append(mcnkPayload, flatTerrainGridBytes(chunkSize, 10)...)
	mcnkPayload = append(mcnkPayload, chunk(tagMLIQ, flatTerrainGridBytes(chunkSize, 5))...)

	modfPayload := append([]byte{}, nullTerminated("World/wmo/Tower.wmo")...)
	modfPayload = append(modfPayload, identityMat4Bytes()...)
	modfPayload = append(modfPayload, 0, 0) // doodad set 0

	mddfPayload := append([]byte{}, nullTerminated("World/doodad/Rock.mdx")...)
	mddfPayload = append(mddfPayload, identityMat4Bytes()...)

	adtRaw := chunk(tagMCNK, mcnkPayload)
	adtRaw = append(adtRaw, chunk(tagMODF, modfPayload)...)
	adtRaw = append(adtRaw, chunk(tagMDDF, mddfPayload)...)

	wmoModel := modelBytes([][3]float32{{10, 10, 10}, {20, 10, 10}, {10, 20, 10}}, []uint32{0, 1, 2})
	doodadModel := modelBytes([][3]float32{{30, 30, 10}, {40, 30, 10}, {30, 40, 10}}, []uint32{0, 1, 2})

	mainBits := make([]byte, 64*64/8)
	setAdtPresent(mainBits, 0, 0)

	worldRaw := chunk(tagMVER, le32Bytes(18))
	worldRaw = append(worldRaw, chunk(tagMAIN, mainBits)...)

	return &fakeData{
		world: map[string][]byte{"Azeroth": worldRaw},
		adts:  map[[2]int][]byte{{0, 0}: adtRaw},
		models: map[string][]byte{
			"World/wmo/Tower.wmo":   wmoModel,
			"World/doodad/Rock.mdx": doodadModel,
		},
	}
}

func TestParseAdtDecodesWmoDoodadAndLiquidPlacements(t *testing.T) {
	m, err := OpenMap("Azeroth", placementFixture())
	if err != nil {
		t.Fatalf("OpenMap failed: %v", err)
	}
	tile, err := m.GetAdt(0, 0)
	if err != nil {
		t.Fatalf("GetAdt failed: %v", err)
	}

	c := tile.Chunks[0][0]
	if c == nil {
		t.Fatal("expected the single MCNK to land at (0,0)")
	}

	assertTrue(t, len(c.WmoInstances) == 1, "expected the WMO placement to be assigned to the overlapping chunk")
	assertTrue(t, len(c.DoodadInstances) == 1, "expected the doodad placement to be assigned to the overlapping chunk")

	wmo, ok := m.GetWmoInstance(c.WmoInstances[0])
	assertTrue(t, ok, "expected the assigned WMO instance id to resolve")
	assertTrue(t, wmo.ModelFilename == "World/wmo/Tower.wmo", "expected the WMO instance's model filename to round-trip")

	doodad, ok := m.GetDoodadInstance(c.DoodadInstances[0])
	assertTrue(t, ok, "expected the assigned doodad instance id to resolve")
	assertTrue(t, doodad.ModelFilename == "World/doodad/Rock.mdx", "expected the doodad instance's model filename to round-trip")

	assertTrue(t, len(c.LiquidVertices) == 9*9+8*8, "expected the nested MLIQ chunk to populate a full liquid vertex grid")
	assertTrue(t, len(c.LiquidIndices) == 64*4*3, "expected a hole-free liquid grid to triangulate every quad")
}

// TestReleaseAdtDropsInstancesAndUnreferencedModels covers spec §3's "models
// are freed only when the count reaches 0" invariant: releasing the only ADT
// that placed a WMO/doodad instance must drop both the instances and their
// now-unreferenced models from the arena.
func TestReleaseAdtDropsInstancesAndUnreferencedModels(t *testing.T) {
	m, err := OpenMap("Azeroth", placementFixture())
	if err != nil {
		t.Fatalf("OpenMap failed: %v", err)
	}
	tile, err := m.GetAdt(0, 0)
	if err != nil {
		t.Fatalf("GetAdt failed: %v", err)
	}
	c := tile.Chunks[0][0]
	wmoID, doodadID := c.WmoInstances[0], c.DoodadInstances[0]

	assertTrue(t, len(m.adts) == 1, "expected the parsed ADT cached before release")
	assertTrue(t, len(m.models) == 2, "expected both instance models cached before release")

	m.ReleaseAdt(0, 0)

	assertTrue(t, len(m.adts) == 0, "expected the ADT dropped from the arena after release")
	_, ok := m.GetWmoInstance(wmoID)
	assertTrue(t, !ok, "expected the WMO instance dropped after its owning ADT released")
	_, ok = m.GetDoodadInstance(doodadID)
	assertTrue(t, !ok, "expected the doodad instance dropped after its owning ADT released")
	assertTrue(t, len(m.models) == 0, "expected both models evicted once their only referencing instances were dropped")

	// Releasing again, or releasing an ADT that was never parsed, must not
	// panic or double-decrement any refcount.
	m.ReleaseAdt(0, 0)
	m.ReleaseAdt(5, 5)
}

func le32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	le32(b, v)
	return b
}
