// Package rnm implements the Runtime Navigation Map: the online half of the
// core described by spec §4.5. It loads archives TBO produced, holds a live
// tiled Detour nav-mesh, answers point-to-point path queries, and accepts
// AddGameObject/RemoveGameObject calls that incrementally rebuild the tiles
// a temporary obstacle touches without restarting the process. Grounded on
// the LoadADT/FindPath/AddGameObject call sites in
// original_source/MapViewer/Source/main.cpp and
// original_source/pathfind/Source/TemporaryObstacle.cpp (obstacle rebuild);
// no pathfind::Map implementation survived retrieval.
package rnm

import (
	"sync"

	"github.com/luke-gav/namigator/dt"
	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/logging"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/rc"
	"github.com/luke-gav/namigator/si"
	"github.com/luke-gav/namigator/tbo"
	"github.com/luke-gav/namigator/vp"
	"github.com/luke-gav/namigator/wgm"
	"go.uber.org/zap"
)

// DisplayResolver maps a game object's display id, as carried by
// add_game_object, to the model filename an external content database
// associates with it. Per spec §4.5 step 2, a leading 'd'/'D' byte names a
// doodad; anything else names a WMO, which add_game_object refuses.
type DisplayResolver interface {
	Resolve(displayID uint32) (filename string, err error)
}

// loadedTile is one nav tile currently resident in the live DT nav-mesh:
// its Recast-space bounds, the heightfield archived alongside it (retained
// across every obstacle rebuild, never discarded), and the temporary
// obstacles currently rasterized onto it.
type loadedTile struct {
	adtX, adtY, localX, localY int
	tileX, tileY               int
	bounds                     wgm.BoundingBox // Recast (x, height, z) convention

	mu            sync.Mutex
	archivedBytes []byte // rc.RcHeightfield.ToBin() of the pristine, obstacle-free field
	current       *rc.RcHeightfield
	ref           dt.DtTileRef
	wmoIDs        []wgm.InstanceID
	doodadIDs     []wgm.InstanceID
	obstacles     map[uint64]vp.Geometry // GUID -> this tile's slice of that obstacle's triangles
}

// gameObject is one live temporary obstacle: spec §3's TemporaryObstacle.
type gameObject struct {
	guid      uint64
	displayID uint32
	filename  string
	bounds    wgm.BoundingBox // Recast convention, world-space
	tiles     []*loadedTile   // every tile this obstacle is rasterized onto
}

// Map is a loaded runtime navigation map: a live tiled DT nav-mesh plus the
// WGM world it was built from, mutated in place as ADTs are loaded and
// temporary obstacles come and go. Safe for concurrent FindPath,
// AddGameObject, and RemoveGameObject calls.
type Map struct {
	name         string
	cfg          config.MeshConfig
	world        *wgm.Map
	archives     ArchiveSource
	resolver     DisplayResolver
	tilesPerAxis int
	models       *obstacleModelCache

	// navMu serializes every AddTile/RemoveTile pair against FindPath, per
	// spec §5's "DT nav-mesh: single-writer" rule. FindPath takes the read
	// side so concurrent queries don't block each other; a tile rebuild
	// takes the write side only for the swap itself.
	navMu sync.RWMutex
	nav   dt.IDtNavMesh

	tilesMu sync.Mutex
	tiles   map[[2]int]*loadedTile // keyed by (tileX, tileY)

	objMu   sync.Mutex
	objects map[uint64]*gameObject
}

// Load opens map_name's archives and constructs its tiled nav-mesh, per
// spec §4.5: no nav tiles are loaded until LoadAdt is called.
func Load(mapName string, dataSource wgm.DataSource, archives ArchiveSource, resolver DisplayResolver, cfg config.MeshConfig) (*Map, error) {
	world, err := wgm.OpenMap(mapName, dataSource)
	if err != nil {
		return nil, err
	}

	tilesPerAxis := cfg.NavTilesPerAdt
	if tilesPerAxis <= 0 {
		tilesPerAxis = 1
	}
	navTileSize := si.TileSize / float64(tilesPerAxis)

	// AdtBounds(TileCount-1, TileCount-1) names the ADT diagonally opposite
	// the world origin, whose min corner is exactly (-worldHalfExtent,
	// -worldHalfExtent): the tile grid's own origin, swapped into Recast's
	// (x, height, z) convention the same way tbo.toRcPoint does.
	minX, minY, _, _ := si.AdtBounds(si.TileCount-1, si.TileCount-1)

	params := &dt.NavMeshParams{
		Orig:       [3]float32{float32(minX), 0, float32(minY)},
		TileWidth:  float32(navTileSize),
		TileHeight: float32(navTileSize),
		MaxTiles:   int32(si.TileCount * si.TileCount * tilesPerAxis * tilesPerAxis),
		MaxPolys:   1 << 16,
	}
	nav, status := dt.NewDtNavMeshWithParams(params)
	if status.DtStatusFailed() {
		return nil, xerr.New(xerr.VoxelLibraryFailure, "initialize tiled nav mesh failed")
	}

	return &Map{
		name:         mapName,
		cfg:          cfg,
		world:        world,
		archives:     archives,
		resolver:     resolver,
		tilesPerAxis: tilesPerAxis,
		models:       newObstacleModelCache(world),
		nav:          nav,
		tiles:        make(map[[2]int]*loadedTile),
		objects:      make(map[uint64]*gameObject),
	}, nil
}

// World exposes the underlying WGM map, e.g. for GlobalWmoInstance queries
// on a WMO-only map (spec §8 S5).
func (m *Map) World() *wgm.Map { return m.world }

// LoadAdt loads every nav tile covering ADT (adtX, adtY) into the live
// nav-mesh. It refuses, returning (false, nil), if the ADT is absent from
// the world's table of contents -- the load_adt contract's answer for a
// WMO-only map, satisfying spec S5 without a special case.
func (m *Map) LoadAdt(adtX, adtY int) (bool, error) {
	if !m.world.HasAdt(adtX, adtY) {
		return false, nil
	}

	data, err := m.archives.ReadAdt(adtX, adtY)
	if err != nil {
		return false, err
	}
	archive, err := tbo.ParseAdtArchive(data)
	if err != nil {
		return false, err
	}

	m.navMu.Lock()
	defer m.navMu.Unlock()

	for _, t := range archive.Tiles {
		tileX := adtX*m.tilesPerAxis + t.LocalX
		tileY := adtY*m.tilesPerAxis + t.LocalY

		ref, status := m.nav.AddTile(t.NavData, 0, 0)
		if status.DtStatusFailed() {
			return false, xerr.WithCoord(xerr.VoxelLibraryFailure, xerr.TileCoord(tileX, tileY), "add tile to nav mesh failed")
		}

		lt := &loadedTile{
			adtX: adtX, adtY: adtY, localX: t.LocalX, localY: t.LocalY,
			tileX: tileX, tileY: tileY,
			bounds:        tileBoundsFromHeader(t.NavData.Header),
			archivedBytes: t.Heightfield.ToBin(),
			current:       t.Heightfield,
			ref:           ref,
			wmoIDs:        t.WmoIDs,
			doodadIDs:     t.DoodadIDs,
			obstacles:     make(map[uint64]vp.Geometry),
		}

		m.tilesMu.Lock()
		m.tiles[[2]int{tileX, tileY}] = lt
		m.tilesMu.Unlock()
	}

	logging.Log.Info("loaded adt",
		zap.Int("adtX", adtX), zap.Int("adtY", adtY), zap.Int("tiles", len(archive.Tiles)))
	return true, nil
}

func tileBoundsFromHeader(h *dt.DtMeshHeader) wgm.BoundingBox {
	return wgm.BoundingBox{
		Min: [3]float64{float64(h.Bmin[0]), float64(h.Bmin[1]), float64(h.Bmin[2])},
		Max: [3]float64{float64(h.Bmax[0]), float64(h.Bmax[1]), float64(h.Bmax[2])},
	}
}

// swapYZ remaps between WGM's (x, y, height) convention and Recast's
// (x, height, z) convention. The swap is its own inverse, matching
// tbo.toRcPoint; RNM duplicates the one-liner rather than exporting it from
// tbo, since importing tbo from rnm already pulls in ParseAdtArchive and
// nothing else in tbo is worth sharing a dependency edge for.
func swapYZ(v [3]float64) [3]float64 {
	return [3]float64{v[0], v[2], v[1]}
}

func newQueryFilter() *dt.DtQueryFilter {
	filter := &dt.DtQueryFilter{}
	filter.SetIncludeFlags(vp.FlagWalkable)
	filter.SetExcludeFlags(0)
	filter.SetAreaCost(vp.AreaADT, 1.0)
	filter.SetAreaCost(vp.AreaWMO, 1.0)
	filter.SetAreaCost(vp.AreaDoodad, 1.0)
	// Liquid is walkable but discouraged, mirroring the demo tool's
	// higher water cost (SAMPLE_POLYAREA_WATER = 10.0).
	filter.SetAreaCost(vp.AreaLiquid, 10.0)
	return filter
}

// findNearestPolyExtents is the half-extent box FindNearestPoly searches
// around a query point to find the closest polygon, generous enough to
// tolerate a start/end point resting a few voxels above or below the mesh.
var findNearestPolyExtents = []float32{4, 8, 4}

// FindPath resolves a path from start to end in world (x, y, height)
// coordinates, per spec §4.5: nearest-polygon resolution, A*-over-navmesh,
// straight-path vertex extraction. smooth requests
// DT_STRAIGHTPATH_ALL_CROSSINGS, which adds a vertex at every polygon edge
// the straight path crosses rather than only at direction changes -- a
// coarse stand-in for detail-mesh-aware smoothing (see DESIGN.md). It
// returns ok=false, with no error, when no path exists; it never returns a
// path containing a duplicate consecutive vertex (spec §8 invariant 7).
func (m *Map) FindPath(start, end [3]float64, smooth bool) (path [][3]float64, ok bool, err error) {
	m.navMu.RLock()
	defer m.navMu.RUnlock()

	query := dt.NewDtNavMeshQuery(m.nav, 2048)
	filter := newQueryFilter()

	startPt := toFloat32Point(swapYZ(start))
	endPt := toFloat32Point(swapYZ(end))

	startRef, status := query.FindNearestPoly(startPt[:], findNearestPolyExtents, filter, make([]float32, 3))
	if status.DtStatusFailed() || startRef == 0 {
		return nil, false, nil
	}
	endRef, status := query.FindNearestPoly(endPt[:], findNearestPolyExtents, filter, make([]float32, 3))
	if status.DtStatusFailed() || endRef == 0 {
		return nil, false, nil
	}

	const maxPolys = 256
	polys := make([]dt.DtPolyRef, maxPolys)
	polyCount, status := query.FindPath(startRef, endRef, startPt[:], endPt[:], filter, polys, maxPolys)
	if status.DtStatusFailed() || polyCount == 0 {
		return nil, false, nil
	}

	const maxStraight = 512
	straightPath := make([]float32, maxStraight*3)
	straightFlags := make([]int32, maxStraight)
	straightRefs := make([]dt.DtPolyRef, maxStraight)
	options := int32(0)
	if smooth {
		options = dt.DT_STRAIGHTPATH_ALL_CROSSINGS
	}
	straightCount, status := query.FindStraightPath(startPt[:], endPt[:], polys, polyCount,
		straightPath, straightFlags, straightRefs, maxStraight, options)
	if status.DtStatusFailed() || straightCount == 0 {
		return nil, false, nil
	}

	path = make([][3]float64, 0, straightCount)
	for i := int32(0); i < straightCount; i++ {
		p := straightPath[i*3 : i*3+3]
		v := swapYZ([3]float64{float64(p[0]), float64(p[1]), float64(p[2])})
		if len(path) > 0 && path[len(path)-1] == v {
			continue
		}
		path = append(path, v)
	}
	return path, true, nil
}

func toFloat32Point(v [3]float64) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
