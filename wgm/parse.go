package wgm

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/luke-gav/namigator/internal/logging"
	"github.com/luke-gav/namigator/internal/xerr"
	"go.uber.org/zap"
)

// chunkTag is a 4-byte little-endian chunk identifier, per spec §4.1
// ("Binary files are little-endian chunk streams. Each chunk has a 4-byte
// tag and a 4-byte length. Unknown tags MUST be skipped.").
type chunkTag [4]byte

var (
	tagMVER = chunkTag{'M', 'V', 'E', 'R'} // version
	tagMHDR = chunkTag{'M', 'H', 'D', 'R'} // header, present on WMO-only maps
	tagMAIN = chunkTag{'M', 'A', 'I', 'N'} // 64x64 ADT presence bitmap
	tagMCNK = chunkTag{'M', 'C', 'N', 'K'} // one terrain chunk
	tagMLIQ = chunkTag{'M', 'L', 'I', 'Q'} // liquid layer within a chunk
	tagMODF = chunkTag{'M', 'O', 'D', 'F'} // WMO placement
	tagMDDF = chunkTag{'M', 'D', 'D', 'F'} // doodad placement
)

const supportedVersion = 18

// chunkReader walks a tagged-chunk stream, skipping unrecognized tags and
// classifying truncation as xerr.Corrupt (spec §4.1).
type chunkReader struct {
	buf []byte
	pos int
}

func newChunkReader(buf []byte) *chunkReader { return &chunkReader{buf: buf} }

// Next returns the next chunk's tag and payload, or ok=false at end of
// stream. It returns a *xerr.Error(Corrupt) if the header claims more bytes
// than remain.
func (r *chunkReader) Next() (tag chunkTag, payload []byte, ok bool, err error) {
	if r.pos+8 > len(r.buf) {
		if r.pos == len(r.buf) {
			return tag, nil, false, nil
		}
		return tag, nil, false, xerr.New(xerr.Corrupt, "truncated chunk header")
	}
	copy(tag[:], r.buf[r.pos:r.pos+4])
	length := binary.LittleEndian.Uint32(r.buf[r.pos+4 : r.pos+8])
	r.pos += 8
	if r.pos+int(length) > len(r.buf) {
		return tag, nil, false, xerr.New(xerr.Corrupt, "chunk length exceeds file")
	}
	payload = r.buf[r.pos : r.pos+int(length)]
	r.pos += int(length)
	return tag, payload, true, nil
}

// OpenMap parses the top-level world file, discovering which ADTs exist and
// whether the map carries a single global WMO instead of open terrain
// (spec §4.1 open_map, and §8 S5).
func OpenMap(name string, data DataSource) (*Map, error) {
	raw, err := data.OpenWorldFile(name)
	if err != nil {
		logging.Log.Error("open world file failed", zap.String("map", name), zap.Error(err))
		return nil, xerr.Wrap(xerr.NotFound, fmt.Sprintf("world file for %q", name), err)
	}

	m := newMap(name, data)
	r := newChunkReader(raw)

	sawVersion := false
	for {
		tag, payload, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch tag {
		case tagMVER:
			if len(payload) < 4 {
				return nil, xerr.New(xerr.Corrupt, "MVER too short")
			}
			if v := binary.LittleEndian.Uint32(payload); v != supportedVersion {
				return nil, xerr.New(xerr.UnsupportedVersion, fmt.Sprintf("version %d", v))
			}
			sawVersion = true
		case tagMHDR:
			if err := m.parseGlobalWmo(payload); err != nil {
				return nil, err
			}
		case tagMAIN:
			if err := m.parseAdtIndex(payload); err != nil {
				return nil, err
			}
		default:
			// unknown top-level chunks (ADT presence flags, textures, etc.)
			// are outside this core's scope and are skipped per §4.1.
		}
	}
	if !sawVersion {
		return nil, xerr.New(xerr.Corrupt, "missing MVER chunk")
	}
	return m, nil
}

func (m *Map) parseGlobalWmo(payload []byte) error {
	// The global-WMO header names the filename and transform of a WMO-only
	// map (spec §8 S5). Layout: null-terminated filename followed by a
	// 4x4 row-major float64 transform.
	nameEnd := indexByte(payload, 0)
	if nameEnd < 0 {
		return xerr.New(xerr.Corrupt, "MHDR missing filename terminator")
	}
	filename := string(payload[:nameEnd])
	mdl, err := m.GetModel(filename)
	if err != nil {
		return xerr.Wrap(xerr.NotFound, "global wmo model", err)
	}
	inst := &WmoInstance{ID: m.allocID(), ModelFilename: filename}
	inst.Bounds = boundsOf(mdl.Vertices)
	m.wmoInsts[inst.ID] = inst
	m.globalWmo = inst
	return nil
}

// parseAdtIndex decodes the world file's ADT table of contents: one bit per
// (x, y) tile of the 64x64 grid, packed row-major LSB-first, si.TileCount*
// si.TileCount bits wide. A map with no MAIN chunk (a WMO-only map, spec §8
// S5) has no ADTs present at all.
func (m *Map) parseAdtIndex(payload []byte) error {
	const gridSize = 64
	need := (gridSize * gridSize) / 8
	if len(payload) < need {
		return xerr.New(xerr.Corrupt, "MAIN adt index truncated")
	}
	for x := 0; x < gridSize; x++ {
		for y := 0; y < gridSize; y++ {
			bit := x*gridSize + y
			if payload[bit/8]&(1<<uint(bit%8)) != 0 {
				m.present[[2]int{x, y}] = true
			}
		}
	}
	return nil
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// parseAdt parses a single ADT tile's file, extracting per-chunk terrain,
// liquid, and instance-reference data (spec §4.1 triangle extraction).
func (m *Map) parseAdt(x, y int) (*AdtTile, error) {
	raw, err := m.data.OpenAdtFile(m.Name, x, y)
	if err != nil {
		return nil, xerr.Wrap(xerr.NotFound, xerr.AdtCoord(x, y), err)
	}

	tile := &AdtTile{X: x, Y: y}
	r := newChunkReader(raw)

	var wmoPlacements []*WmoInstance
	var doodadPlacements []*DoodadInstance

	cx, cy := 0, 0
	for {
		tag, payload, ok, err := r.Next()
		if err != nil {
			logging.Log.Error("adt parse failed", zap.Int("x", x), zap.Int("y", y), zap.Error(err))
			return nil, err
		}
		if !ok {
			break
		}
		switch tag {
		case tagMCNK:
			chunk, err := parseChunk(payload)
			if err != nil {
				return nil, err
			}
			if cx >= 16 || cy >= 16 {
				return nil, xerr.New(xerr.Corrupt, "too many MCNK chunks")
			}
			tile.Chunks[cx][cy] = chunk
			cy++
			if cy == 16 {
				cy = 0
				cx++
			}
		case tagMODF:
			insts, err := m.parseModfEntries(payload)
			if err != nil {
				return nil, err
			}
			wmoPlacements = append(wmoPlacements, insts...)
		case tagMDDF:
			insts, err := m.parseMddfEntries(payload)
			if err != nil {
				return nil, err
			}
			doodadPlacements = append(doodadPlacements, insts...)
		default:
		}
	}

	tile.Bounds = adtBounds(tile)
	assignInstancesToChunks(tile, wmoPlacements, doodadPlacements)

	ids := adtInstanceSet{wmo: make([]InstanceID, len(wmoPlacements)), doodad: make([]InstanceID, len(doodadPlacements))}
	for i, w := range wmoPlacements {
		ids.wmo[i] = w.ID
	}
	for i, d := range doodadPlacements {
		ids.doodad[i] = d.ID
	}
	m.adtInstances[[2]int{x, y}] = ids

	return tile, nil
}

// assignInstancesToChunks appends each WMO/doodad placement's instance id to
// every chunk of tile whose terrain bounds its own bounds overlap, per spec
// §4.1's "the ids of WMO/doodad instances that intersect it": a MODF/MDDF
// placement is ADT-wide, not chunk-scoped, and can straddle several MCNK
// chunks (a large WMO spanning most of a tile is the common case).
func assignInstancesToChunks(tile *AdtTile, wmos []*WmoInstance, doodads []*DoodadInstance) {
	for cx := 0; cx < 16; cx++ {
		for cy := 0; cy < 16; cy++ {
			chunk := tile.Chunks[cx][cy]
			if chunk == nil {
				continue
			}
			chunkBounds := boundsOf(chunk.TerrainVertices)
			for _, w := range wmos {
				if chunkBounds.Intersects(w.Bounds) {
					chunk.WmoInstances = append(chunk.WmoInstances, w.ID)
				}
			}
			for _, d := range doodads {
				if chunkBounds.Intersects(d.Bounds) {
					chunk.DoodadInstances = append(chunk.DoodadInstances, d.ID)
				}
			}
		}
	}
}

// decodeMat4 reads a 4x4 row-major float64 transform (spec §4.1's MODF/MDDF
// layout mirrors MHDR's filename+transform encoding, since this world
// format has no separate MWMO/MMDX filename table to index into).
func decodeMat4(payload []byte) (mgl64.Mat4, error) {
	if len(payload) < 16*8 {
		return mgl64.Mat4{}, xerr.New(xerr.Corrupt, "placement transform truncated")
	}
	var rowMajor [16]float64
	for i := 0; i < 16; i++ {
		rowMajor[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
	}
	// mgl64.Mat4 stores column-major; transpose on the way in.
	return mgl64.Mat4{
		rowMajor[0], rowMajor[4], rowMajor[8], rowMajor[12],
		rowMajor[1], rowMajor[5], rowMajor[9], rowMajor[13],
		rowMajor[2], rowMajor[6], rowMajor[10], rowMajor[14],
		rowMajor[3], rowMajor[7], rowMajor[11], rowMajor[15],
	}, nil
}

// transformedBounds runs mdl's vertices through transform and returns their
// AABB, the same computation TBO's gatherGeometry does for instance culling
// (tbo.transformModel), pulled forward to placement-parse time so a
// WmoInstance/DoodadInstance always carries a ready-to-use Bounds.
func transformedBounds(mdl *Model, transform mgl64.Mat4) BoundingBox {
	verts := make([][3]float64, len(mdl.Vertices))
	for i, v := range mdl.Vertices {
		p := transform.Mul4x1(mgl64.Vec4{v[0], v[1], v[2], 1})
		verts[i] = [3]float64{p[0], p[1], p[2]}
	}
	return boundsOf(verts)
}

// parseModfEntries decodes repeated WMO placement records: a null-terminated
// model filename, a 4x4 transform, and a doodad-set index, per record.
func (m *Map) parseModfEntries(payload []byte) ([]*WmoInstance, error) {
	var out []*WmoInstance
	for len(payload) > 0 {
		nameEnd := indexByte(payload, 0)
		if nameEnd < 0 {
			return nil, xerr.New(xerr.Corrupt, "MODF entry missing filename terminator")
		}
		filename := string(payload[:nameEnd])
		payload = payload[nameEnd+1:]

		transform, err := decodeMat4(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[16*8:]

		if len(payload) < 2 {
			return nil, xerr.New(xerr.Corrupt, "MODF entry truncated doodad set")
		}
		doodadSet := binary.LittleEndian.Uint16(payload)
		payload = payload[2:]

		mdl, ok := m.models[filename]
		if !ok {
			mdl, err = m.LoadModel(filename)
		}
		if err != nil {
			return nil, xerr.Wrap(xerr.NotFound, "wmo instance model", err)
		}
		m.models[filename] = mdl
		m.retainModel(filename)
		inst := &WmoInstance{
			ID:               m.allocID(),
			ModelFilename:    filename,
			DoodadSet:        doodadSet,
			Transform:        transform,
			InverseTransform: transform.Inv(),
			Bounds:           transformedBounds(mdl, transform),
		}
		m.wmoInsts[inst.ID] = inst
		out = append(out, inst)
	}
	return out, nil
}

// parseMddfEntries decodes repeated doodad placement records: a
// null-terminated model filename followed by a 4x4 transform.
func (m *Map) parseMddfEntries(payload []byte) ([]*DoodadInstance, error) {
	var out []*DoodadInstance
	for len(payload) > 0 {
		nameEnd := indexByte(payload, 0)
		if nameEnd < 0 {
			return nil, xerr.New(xerr.Corrupt, "MDDF entry missing filename terminator")
		}
		filename := string(payload[:nameEnd])
		payload = payload[nameEnd+1:]

		transform, err := decodeMat4(payload)
		if err != nil {
			return nil, err
		}
		payload = payload[16*8:]

		mdl, ok := m.models[filename]
		if !ok {
			mdl, err = m.LoadModel(filename)
		}
		if err != nil {
			return nil, xerr.Wrap(xerr.NotFound, "doodad instance model", err)
		}
		m.models[filename] = mdl
		m.retainModel(filename)
		inst := &DoodadInstance{
			ID:               m.allocID(),
			ModelFilename:    filename,
			Transform:        transform,
			InverseTransform: transform.Inv(),
			Bounds:           transformedBounds(mdl, transform),
		}
		m.doodadInsts[inst.ID] = inst
		out = append(out, inst)
	}
	return out, nil
}

// gridBytes is the byte size of the fixed 9x9-outer/8x8-inner vertex grid
// decodeTerrainGrid reads: 145 vertices of x,y,z float32.
const gridBytes = (9*9 + 8*8) * 3 * 4

// parseChunk decodes one MCNK payload into vertex/index/liquid arrays and
// resolves the hole bitmap, honoring it when expanding the 9x9+8x8 terrain
// vertex grid into triangles (spec §4.1). Any bytes left over after the
// terrain grid are a nested tagged-chunk stream (mirroring the top-level
// world/ADT file framing) carrying this chunk's optional MLIQ liquid layer.
func parseChunk(payload []byte) (*AdtChunk, error) {
	const headerLen = 4 + 8 // areaId, 8x8 hole bitmap packed as uint64
	if len(payload) < headerLen {
		return nil, xerr.New(xerr.Corrupt, "MCNK too short")
	}
	c := &AdtChunk{}
	c.AreaID = binary.LittleEndian.Uint32(payload[0:4])
	holeBits := binary.LittleEndian.Uint64(payload[4:12])
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			c.HoleMap[row][col] = holeBits&(1<<uint(row*8+col)) != 0
		}
	}

	rest := payload[headerLen:]
	verts, err := decodeTerrainGrid(rest)
	if err != nil {
		return nil, err
	}
	c.TerrainVertices = verts
	c.TerrainIndices, c.MinZ, c.MaxZ = triangulateGrid(verts, c.HoleMap)

	if err := parseChunkSubChunks(c, rest[gridBytes:]); err != nil {
		return nil, err
	}

	return c, nil
}

// parseChunkSubChunks scans an MCNK's trailing nested chunk stream for a
// liquid layer. Unrecognized sub-tags are skipped, matching spec §4.1's
// "unknown tags MUST be skipped" rule applied one level down.
func parseChunkSubChunks(c *AdtChunk, sub []byte) error {
	if len(sub) == 0 {
		return nil
	}
	r := newChunkReader(sub)
	for {
		tag, payload, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if tag != tagMLIQ {
			continue
		}
		verts, err := decodeTerrainGrid(payload)
		if err != nil {
			return err
		}
		c.LiquidVertices = verts
		var noHoles [8][8]bool
		c.LiquidIndices, _, _ = triangulateGrid(verts, noHoles)
	}
}

// decodeTerrainGrid reads the regular 9x9 outer + 8x8 inner vertex grid
// (145 vertices of x,y,z float32) used by a single terrain chunk.
func decodeTerrainGrid(payload []byte) ([][3]float64, error) {
	const gridVerts = 9*9 + 8*8
	const stride = 4
	need := gridVerts * 3 * stride
	if len(payload) < need {
		return nil, xerr.New(xerr.Corrupt, "MCNK vertex grid truncated")
	}
	verts := make([][3]float64, gridVerts)
	off := 0
	for i := range verts {
		x := float64frombits(payload[off:])
		y := float64frombits(payload[off+4:])
		z := float64frombits(payload[off+8:])
		verts[i] = [3]float64{x, y, z}
		off += 12
	}
	return verts, nil
}

func float64frombits(b []byte) float64 {
	bits := binary.LittleEndian.Uint32(b)
	return float64(math.Float32frombits(bits))
}

// triangulateGrid expands the 9x9-outer/8x8-inner vertex grid into
// triangles, skipping any quad whose corresponding hole bit is set (spec
// §4.1 "honoring the 8x8 hole bitmap"). It also returns the chunk's
// min/max Z extent across all non-holed vertices.
func triangulateGrid(verts [][3]float64, holes [8][8]bool) ([]int, float64, float64) {
	// Outer 9x9 grid vertices occupy indices [0,81); inner 8x8 "center"
	// vertices occupy [81,145). Each quad (row,col) in [0,8)x[0,8) is built
	// from its 4 outer corners and 1 inner center, forming 4 triangles.
	outerIndex := func(r, c int) int { return r*9 + c }
	innerIndex := func(r, c int) int { return 81 + r*8 + c }

	var indices []int
	minZ, maxZ := verts[0][2], verts[0][2]
	for _, v := range verts {
		if v[2] < minZ {
			minZ = v[2]
		}
		if v[2] > maxZ {
			maxZ = v[2]
		}
	}

	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if holes[row][col] {
				continue
			}
			tl := outerIndex(row, col)
			tr := outerIndex(row, col+1)
			bl := outerIndex(row+1, col)
			br := outerIndex(row+1, col+1)
			ctr := innerIndex(row, col)

			indices = append(indices,
				tl, tr, ctr,
				tr, br, ctr,
				br, bl, ctr,
				bl, tl, ctr,
			)
		}
	}
	return indices, minZ, maxZ
}

// parseModel decodes a WMO or doodad model file into its shared arena Model
// (vertex/index soup). Real WMO group/doodad-set
// resolution is elided; this preserves the field-level shape WGM's callers
// depend on.
func parseModel(filename string, raw []byte) (*Model, error) {
	r := newChunkReader(raw)
	mdl := &Model{Filename: filename}
	for {
		tag, payload, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		switch tag {
		case chunkTag{'M', 'V', 'R', 'T'}: // model vertices
			mdl.Vertices = decodeVec3F32(payload)
		case chunkTag{'M', 'I', 'N', 'D'}: // model indices
			mdl.Indices = decodeIndices32(payload)
		}
	}
	return mdl, nil
}

func decodeVec3F32(payload []byte) [][3]float64 {
	n := len(payload) / 12
	out := make([][3]float64, n)
	for i := 0; i < n; i++ {
		off := i * 12
		out[i] = [3]float64{
			float64frombits(payload[off:]),
			float64frombits(payload[off+4:]),
			float64frombits(payload[off+8:]),
		}
	}
	return out
}

func decodeIndices32(payload []byte) []int {
	n := len(payload) / 4
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = int(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return out
}

func boundsOf(verts [][3]float64) BoundingBox {
	if len(verts) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{Min: verts[0], Max: verts[0]}
	for _, v := range verts[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < b.Min[i] {
				b.Min[i] = v[i]
			}
			if v[i] > b.Max[i] {
				b.Max[i] = v[i]
			}
		}
	}
	return b
}

func adtBounds(tile *AdtTile) BoundingBox {
	var b BoundingBox
	first := true
	for _, row := range tile.Chunks {
		for _, c := range row {
			if c == nil {
				continue
			}
			cb := boundsOf(c.TerrainVertices)
			if first {
				b = cb
				first = false
				continue
			}
			for i := 0; i < 3; i++ {
				if cb.Min[i] < b.Min[i] {
					b.Min[i] = cb.Min[i]
				}
				if cb.Max[i] > b.Max[i] {
					b.Max[i] = cb.Max[i]
				}
			}
		}
	}
	return b
}
