// Package tbo implements the Tile Build Orchestrator: the offline
// work-queue that walks every populated ADT of a world, carves each into
// its configured grid of nav tiles, drives the voxel pipeline over the
// geometry each tile covers, and aggregates completed tiles into
// per-ADT archives. Grounded on
// original_source/MapBuilder/Include/MeshBuilder.hpp (GetNextTile,
// AddChunkReference/RemoveChunkReference, meshfiles::ADT, PercentComplete).
package tbo

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/logging"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/si"
	"github.com/luke-gav/namigator/vp"
	"github.com/luke-gav/namigator/wgm"
	"go.uber.org/zap"
)

// TileID names one nav tile: its owning ADT and its position within that
// ADT's NavTilesPerAdt x NavTilesPerAdt subdivision.
type TileID struct {
	AdtX, AdtY     int
	LocalX, LocalY int
}

// adtState is the in-progress aggregate for one ADT: the meshfiles::ADT of
// the original engine. It owns every completed tile's heightfield (retained
// for RNM's later incremental rebuilds) and nav data, plus the WMO/doodad
// instance ids each local tile references, until every local tile has
// either completed or been dropped, at which point the ADT is Complete and
// gets handed to Serialize.
type adtState struct {
	x, y int

	mu          sync.Mutex
	heightfield map[[2]int]*vp.TileBlob
	wmoIDs      map[[2]int][]wgm.InstanceID
	doodadIDs   map[[2]int][]wgm.InstanceID
	remaining   int
}

func newAdtState(x, y, tilesPerAxis int) *adtState {
	return &adtState{
		x:           x,
		y:           y,
		heightfield: make(map[[2]int]*vp.TileBlob),
		wmoIDs:      make(map[[2]int][]wgm.InstanceID),
		doodadIDs:   make(map[[2]int][]wgm.InstanceID),
		remaining:   tilesPerAxis * tilesPerAxis,
	}
}

// Serialize produces the ADT's archive bytes per spec §6: a header, a table
// of nav-tile entries (tile_x, tile_y, heightfield_len, blob_len), the
// concatenated heightfield and nav-mesh blobs in the same order, and a
// trailing WMO/doodad id reference section. Tiles are visited in ascending
// (localX, localY) order (spec §5's determinism requirement), so identical
// inputs always produce byte-identical archives. The heightfield is
// serialized alongside the nav-mesh blob, not just the blob, because RNM's
// obstacle rebuild path re-rasterizes onto exactly this "pristine archived
// heightfield" (spec §4.5) rather than the polygonized mesh.
func (a *adtState) Serialize() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys := make([][2]int, 0, len(a.heightfield))
	for k := range a.heightfield {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	type entry struct {
		heightfieldBytes []byte
		blobBytes        []byte
	}
	entries := make([]entry, len(keys))
	for i, k := range keys {
		blob := a.heightfield[k]
		entries[i] = entry{
			heightfieldBytes: blob.Heightfield.ToBin(),
			blobBytes:        blob.NavData.ToBin(),
		}
	}

	var buf []byte
	buf = appendUint32(buf, uint32(a.x))
	buf = appendUint32(buf, uint32(a.y))
	buf = appendUint32(buf, uint32(len(keys)))

	for i, k := range keys {
		buf = appendUint32(buf, uint32(k[0]))
		buf = appendUint32(buf, uint32(k[1]))
		buf = appendUint32(buf, uint32(len(entries[i].heightfieldBytes)))
		buf = appendUint32(buf, uint32(len(entries[i].blobBytes)))
	}
	for _, e := range entries {
		buf = append(buf, e.heightfieldBytes...)
		buf = append(buf, e.blobBytes...)
	}
	for _, k := range keys {
		wmos := a.wmoIDs[k]
		buf = appendUint32(buf, uint32(len(wmos)))
		for _, id := range wmos {
			buf = appendUint32(buf, uint32(id))
		}
		doodads := a.doodadIDs[k]
		buf = appendUint32(buf, uint32(len(doodads)))
		for _, id := range doodads {
			buf = appendUint32(buf, uint32(id))
		}
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Archive is the sink a completed ADT's serialized bytes are handed to.
// Production callers pass a filesystem writer; tests can pass an in-memory
// recorder.
type Archive interface {
	WriteAdt(x, y int, data []byte) error
}

// Orchestrator is the work-queue and per-ADT aggregator described by spec
// §4.4. It is safe for concurrent use by a worker pool calling NextTile and
// BuildTile.
type Orchestrator struct {
	world  *wgm.Map
	cfg    config.MeshConfig
	sink   Archive
	tilesPerAxis int

	mu      sync.Mutex
	pending []TileID
	nextIdx int

	adtsMu sync.Mutex
	adts   map[[2]int]*adtState

	// chunkRefs is the fixed 64x64-chunk counter array spec §4.4 requires:
	// one counter per ADT in the world grid, incremented when a worker
	// claims a tile belonging to that ADT and decremented when the worker
	// finishes it. An ADT's parse (world.GetAdt) is triggered the first time
	// its counter goes positive; once it returns to zero, finishTile both
	// serializes the ADT's aggregate and calls world.ReleaseAdt to drop the
	// WGM arena's parse of it, so an ADT is never unloaded while another
	// worker still has a tile in flight against it.
	refMu     sync.Mutex
	chunkRefs [si.TileCount][si.TileCount]int

	bvhMu      sync.Mutex
	bvhWmos    map[string]bool
	bvhDoodads map[string]bool

	progressMu     sync.Mutex
	totalTiles     int
	completedTiles int
}

// New builds an orchestrator over every ADT world.HasAdt reports present,
// each subdivided into cfg.NavTilesPerAdt x cfg.NavTilesPerAdt nav tiles.
func New(world *wgm.Map, cfg config.MeshConfig, sink Archive) *Orchestrator {
	o := &Orchestrator{
		world:        world,
		cfg:          cfg,
		sink:         sink,
		tilesPerAxis: cfg.NavTilesPerAdt,
		adts:         make(map[[2]int]*adtState),
		bvhWmos:      make(map[string]bool),
		bvhDoodads:   make(map[string]bool),
	}

	for x := 0; x < si.TileCount; x++ {
		for y := 0; y < si.TileCount; y++ {
			if !world.HasAdt(x, y) {
				continue
			}
			o.adts[[2]int{x, y}] = newAdtState(x, y, o.tilesPerAxis)
			for lx := 0; lx < o.tilesPerAxis; lx++ {
				for ly := 0; ly < o.tilesPerAxis; ly++ {
					o.pending = append(o.pending, TileID{AdtX: x, AdtY: y, LocalX: lx, LocalY: ly})
				}
			}
		}
	}
	o.totalTiles = len(o.pending)
	return o
}

// NextTile pops the next unclaimed tile from the work queue. Multiple
// workers may call it concurrently; each tile is handed out exactly once.
// Claiming a tile increments its ADT's chunk reference counter, marking
// that ADT as in use for the duration of the build; the matching decrement
// happens in finishTile.
func (o *Orchestrator) NextTile() (TileID, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.nextIdx >= len(o.pending) {
		return TileID{}, false
	}
	id := o.pending[o.nextIdx]
	o.nextIdx++

	o.refMu.Lock()
	o.chunkRefs[id.AdtX][id.AdtY]++
	o.refMu.Unlock()

	return id, true
}

// ChunkRefsZero reports whether every entry of the chunk reference counter
// array is currently zero. Spec §8's ref-count-balance property requires
// this to hold once the work queue has fully drained: every ADT claimed
// during the run must have been fully released by the workers that
// claimed it.
func (o *Orchestrator) ChunkRefsZero() bool {
	o.refMu.Lock()
	defer o.refMu.Unlock()
	for x := range o.chunkRefs {
		for y := range o.chunkRefs[x] {
			if o.chunkRefs[x][y] != 0 {
				return false
			}
		}
	}
	return true
}

// PercentComplete reports progress across the whole work queue, per
// MeshBuilder::PercentComplete.
func (o *Orchestrator) PercentComplete() float64 {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()
	if o.totalTiles == 0 {
		return 100
	}
	return 100 * float64(o.completedTiles) / float64(o.totalTiles)
}

// tileBounds returns the AABB of nav tile (localX, localY) within ADT
// (adtX, adtY), in Recast's axis convention (x, height, z) rather than WGM's
// storage convention (x, y, height): tile.Bounds' height extent (its world
// index 2) becomes this box's Y, and the world's horizontal Y axis becomes
// this box's Z, matching rc.RcHeightfield's (x, y, z) with y up. Every
// geometry point gatherGeometry hands to vp.Geometry is remapped the same
// way via toRcPoint, so the two stay consistent.
func (o *Orchestrator) tileBounds(tile *wgm.AdtTile, adtX, adtY, localX, localY int) wgm.BoundingBox {
	minX, minY, maxX, maxY := si.AdtBounds(adtX, adtY)
	stepX := (maxX - minX) / float64(o.tilesPerAxis)
	stepY := (maxY - minY) / float64(o.tilesPerAxis)
	tMinX := minX + float64(localX)*stepX
	tMinY := minY + float64(localY)*stepY
	return wgm.BoundingBox{
		Min: [3]float64{tMinX, tile.Bounds.Min[2], tMinY},
		Max: [3]float64{tMinX + stepX, tile.Bounds.Max[2], tMinY + stepY},
	}
}

// toRcPoint remaps a WGM point (x, y, height) into Recast's (x, height, z)
// convention. Applied uniformly to terrain, liquid, and transformed
// WMO/doodad vertices before they ever reach a BoundingBox comparison or a
// vp.Geometry, so every point gatherGeometry touches lives in the same
// axis space as the tile bounds computed above.
func toRcPoint(v [3]float64) [3]float64 {
	return [3]float64{v[0], v[2], v[1]}
}

func toRcBounds(b wgm.BoundingBox) wgm.BoundingBox {
	return wgm.BoundingBox{Min: toRcPoint(b.Min), Max: toRcPoint(b.Max)}
}

// BuildTile gathers the geometry nav tile id covers, runs it through the
// voxel pipeline, and folds the result into id's ADT aggregate. A
// TooManyVerts or voxel-library failure is logged and the tile dropped
// rather than aborting the run, per spec §4.4's failure policy.
func (o *Orchestrator) BuildTile(id TileID) error {
	tile, err := o.world.GetAdt(id.AdtX, id.AdtY)
	if err != nil {
		return err
	}
	bounds := o.tileBounds(tile, id.AdtX, id.AdtY, id.LocalX, id.LocalY)

	geom, wmoIDs, doodadIDs, err := o.gatherGeometry(tile, bounds)
	if err != nil {
		return err
	}

	tileX := id.AdtX*o.tilesPerAxis + id.LocalX
	tileY := id.AdtY*o.tilesPerAxis + id.LocalY
	blob, err := vp.BuildTile(geom, o.cfg, tileX, tileY, bounds.Min, bounds.Max)
	if err != nil {
		if xerr.Is(err, xerr.TooManyVerts) || xerr.Is(err, xerr.VoxelLibraryFailure) {
			logging.Log.Warn("dropping tile after build failure",
				zap.Int("adtX", id.AdtX), zap.Int("adtY", id.AdtY),
				zap.Int("localX", id.LocalX), zap.Int("localY", id.LocalY),
				zap.Error(err))
			o.finishTile(id, nil, nil, nil)
			return nil
		}
		return err
	}

	o.finishTile(id, blob, wmoIDs, doodadIDs)
	return nil
}

func (o *Orchestrator) finishTile(id TileID, blob *vp.TileBlob, wmoIDs, doodadIDs []wgm.InstanceID) {
	key := [2]int{id.AdtX, id.AdtY}
	o.adtsMu.Lock()
	state := o.adts[key]
	o.adtsMu.Unlock()

	state.mu.Lock()
	if blob != nil {
		local := [2]int{id.LocalX, id.LocalY}
		state.heightfield[local] = blob
		state.wmoIDs[local] = wmoIDs
		state.doodadIDs[local] = doodadIDs
	}
	state.remaining--
	complete := state.remaining == 0
	state.mu.Unlock()

	o.refMu.Lock()
	o.chunkRefs[id.AdtX][id.AdtY]--
	refsZero := o.chunkRefs[id.AdtX][id.AdtY] == 0
	o.refMu.Unlock()
	// The last tile of an ADT to finish always drives its counter back to
	// zero in the same call that zeroes state.remaining, since every claim
	// (NextTile) and release (here) of that ADT is paired; complete is only
	// ever true when both hold.
	complete = complete && refsZero

	o.progressMu.Lock()
	o.completedTiles++
	o.progressMu.Unlock()

	if complete {
		data := state.Serialize()
		if err := o.sink.WriteAdt(id.AdtX, id.AdtY, data); err != nil {
			logging.Log.Error("failed to write adt archive",
				zap.Int("adtX", id.AdtX), zap.Int("adtY", id.AdtY), zap.Error(err))
		}
		o.adtsMu.Lock()
		delete(o.adts, key)
		o.adtsMu.Unlock()

		// The chunk reference counter for this ADT just returned to zero, so
		// no other worker has a tile of it in flight: the WGM arena's parse
		// (AdtTile, its WmoInstance/DoodadInstance placements, and any Model
		// only they referenced) is now eligible for unload too.
		o.world.ReleaseAdt(id.AdtX, id.AdtY)
	}
}

// gatherGeometry collects every triangle whose footprint overlaps bounds:
// terrain and liquid from every chunk of tile, plus the world-space
// triangles of any WMO or doodad instance the chunk references whose bounds
// also overlap. Instances are deduped within this call so a model spanning
// multiple chunks contributes its geometry once. bounds and every vertex
// appended to geom are in Recast's (x, height, z) convention (see
// toRcPoint); WGM's own (x, y, height) vertices and instance bounds are
// remapped on the way in.
func (o *Orchestrator) gatherGeometry(tile *wgm.AdtTile, bounds wgm.BoundingBox) (vp.Geometry, []wgm.InstanceID, []wgm.InstanceID, error) {
	var geom vp.Geometry
	seenWmo := make(map[wgm.InstanceID]bool)
	seenDoodad := make(map[wgm.InstanceID]bool)
	var wmoIDs, doodadIDs []wgm.InstanceID

	appendTris := func(verts [][3]float64, indices []int, area int) {
		base := len(geom.Verts) / 3
		rcVerts := make([][3]float64, len(verts))
		for i, v := range verts {
			rcVerts[i] = toRcPoint(v)
			geom.Verts = append(geom.Verts, rcVerts[i][0], rcVerts[i][1], rcVerts[i][2])
		}
		for i := 0; i+2 < len(indices); i += 3 {
			if !triOverlaps(rcVerts, indices[i:i+3], bounds) {
				continue
			}
			geom.Tris = append(geom.Tris, indices[i]+base, indices[i+1]+base, indices[i+2]+base)
			geom.Areas = append(geom.Areas, area)
		}
	}

	for cx := 0; cx < 16; cx++ {
		for cy := 0; cy < 16; cy++ {
			chunk := tile.Chunk(cx, cy)
			if chunk == nil {
				continue
			}
			appendTris(chunk.TerrainVertices, chunk.TerrainIndices, vp.AreaADT)
			appendTris(chunk.LiquidVertices, chunk.LiquidIndices, vp.AreaLiquid)

			for _, id := range chunk.WmoInstances {
				if seenWmo[id] {
					continue
				}
				inst, ok := o.world.GetWmoInstance(id)
				if !ok || !toRcBounds(inst.Bounds).Intersects(bounds) {
					continue
				}
				seenWmo[id] = true
				wmoIDs = append(wmoIDs, id)
				o.markBvh(inst.ModelFilename, true)
				verts, indices, err := o.transformModel(inst.ModelFilename, inst.Transform)
				if err != nil {
					return vp.Geometry{}, nil, nil, err
				}
				appendTris(verts, indices, vp.AreaWMO)
			}
			for _, id := range chunk.DoodadInstances {
				if seenDoodad[id] {
					continue
				}
				inst, ok := o.world.GetDoodadInstance(id)
				if !ok || !toRcBounds(inst.Bounds).Intersects(bounds) {
					continue
				}
				seenDoodad[id] = true
				doodadIDs = append(doodadIDs, id)
				o.markBvh(inst.ModelFilename, false)
				verts, indices, err := o.transformModel(inst.ModelFilename, inst.Transform)
				if err != nil {
					return vp.Geometry{}, nil, nil, err
				}
				appendTris(verts, indices, vp.AreaDoodad)
			}
		}
	}

	return geom, wmoIDs, doodadIDs, nil
}

// markBvh records that filename's BVH archive still needs writing exactly
// once across the whole run, mirroring MeshBuilder::SerializeWmo/
// SerializeDoodad's unordered_set dedup.
func (o *Orchestrator) markBvh(filename string, isWmo bool) {
	o.bvhMu.Lock()
	defer o.bvhMu.Unlock()
	set := o.bvhDoodads
	if isWmo {
		set = o.bvhWmos
	}
	set[filename] = true
}

func (o *Orchestrator) transformModel(filename string, transform mgl64.Mat4) ([][3]float64, []int, error) {
	mdl, err := o.world.GetModel(filename)
	if err != nil {
		return nil, nil, err
	}
	verts := make([][3]float64, len(mdl.Vertices))
	for i, v := range mdl.Vertices {
		p := transform.Mul4x1(mgl64.Vec4{v[0], v[1], v[2], 1})
		verts[i] = [3]float64{p[0], p[1], p[2]}
	}
	return verts, mdl.Indices, nil
}

func triOverlaps(verts [][3]float64, tri []int, bounds wgm.BoundingBox) bool {
	var triBox wgm.BoundingBox
	triBox.Min = verts[tri[0]]
	triBox.Max = verts[tri[0]]
	for _, i := range tri[1:] {
		v := verts[i]
		for a := 0; a < 3; a++ {
			if v[a] < triBox.Min[a] {
				triBox.Min[a] = v[a]
			}
			if v[a] > triBox.Max[a] {
				triBox.Max[a] = v[a]
			}
		}
	}
	return triBox.Intersects(bounds)
}

// String is used by callers logging orchestration progress.
func (id TileID) String() string {
	return fmt.Sprintf("adt(%d,%d)/local(%d,%d)", id.AdtX, id.AdtY, id.LocalX, id.LocalY)
}
