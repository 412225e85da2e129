package rnm

import (
	"strconv"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/luke-gav/namigator/internal/logging"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/rc"
	"github.com/luke-gav/namigator/vp"
	"github.com/luke-gav/namigator/wgm"
	"go.uber.org/zap"
)

// AddGameObject inserts a temporary obstacle, per spec §4.5's five-step
// contract. doodadSet selects which of the model's embedded doodad sets
// (Model.DoodadSets) is active; it has no effect on a plain doodad model
// (only WMOs carry doodad sets), and WMO obstacles are refused before it
// would matter.
func (m *Map) AddGameObject(guid uint64, displayID uint32, pos [3]float64, rot mgl64.Quat, doodadSet int) error {
	m.objMu.Lock()
	if _, exists := m.objects[guid]; exists {
		m.objMu.Unlock()
		return xerr.WithID(xerr.AlreadyExists, strconv.FormatUint(guid, 10), "game object already inserted")
	}
	m.objMu.Unlock()

	filename, err := m.resolver.Resolve(displayID)
	if err != nil {
		return err
	}
	if len(filename) == 0 || (filename[0] != 'd' && filename[0] != 'D') {
		return xerr.WithID(xerr.Unsupported, filename, "WMO temporary obstacles are not supported")
	}

	model, err := m.models.get(filename)
	if err != nil {
		return err
	}

	transform := mgl64.Translate3D(pos[0], pos[1], pos[2]).Mul4(rot.Mat4())
	rcVerts := make([][3]float64, len(model.Vertices))
	var bounds wgm.BoundingBox
	for i, v := range model.Vertices {
		p := transform.Mul4x1(mgl64.Vec4{v[0], v[1], v[2], 1})
		rv := swapYZ([3]float64{p[0], p[1], p[2]})
		rcVerts[i] = rv
		if i == 0 {
			bounds.Min, bounds.Max = rv, rv
			continue
		}
		for a := 0; a < 3; a++ {
			if rv[a] < bounds.Min[a] {
				bounds.Min[a] = rv[a]
			}
			if rv[a] > bounds.Max[a] {
				bounds.Max[a] = rv[a]
			}
		}
	}

	touched := m.tilesIntersecting(bounds)
	geom := obstacleGeometry(rcVerts, model.Indices)

	for _, lt := range touched {
		if err := m.rebuildTileAdd(lt, guid, geom); err != nil {
			return err
		}
	}

	obj := &gameObject{guid: guid, displayID: displayID, filename: filename, bounds: bounds, tiles: touched}
	m.objMu.Lock()
	m.objects[guid] = obj
	m.objMu.Unlock()

	logging.Log.Info("added game object",
		zap.Uint64("guid", guid), zap.String("model", filename), zap.Int("tiles", len(touched)))
	return nil
}

// RemoveGameObject removes a previously-added temporary obstacle and
// rebuilds every tile it touched from that tile's pristine archived
// heightfield plus whatever obstacles remain, per spec §4.5's "obstacle
// removal" contract. Removing an unknown GUID is a no-op.
func (m *Map) RemoveGameObject(guid uint64) error {
	m.objMu.Lock()
	obj, exists := m.objects[guid]
	if exists {
		delete(m.objects, guid)
	}
	m.objMu.Unlock()
	if !exists {
		return nil
	}

	for _, lt := range obj.tiles {
		if err := m.rebuildTileRemove(lt, guid); err != nil {
			return err
		}
	}

	logging.Log.Info("removed game object", zap.Uint64("guid", guid))
	return nil
}

// tilesIntersecting returns every currently-loaded tile whose bounds
// overlap bounds (both in Recast's (x, height, z) convention).
func (m *Map) tilesIntersecting(bounds wgm.BoundingBox) []*loadedTile {
	m.tilesMu.Lock()
	defer m.tilesMu.Unlock()
	var touched []*loadedTile
	for _, lt := range m.tiles {
		if lt.bounds.Intersects(bounds) {
			touched = append(touched, lt)
		}
	}
	return touched
}

// obstacleGeometry packages an obstacle's already-transformed, already
// axis-swapped triangles as a self-contained vp.Geometry tagged AreaDoodad.
// The same geometry is handed to every tile the obstacle touches; only the
// tile's own heightfield differs.
func obstacleGeometry(verts [][3]float64, indices []int) vp.Geometry {
	var geom vp.Geometry
	geom.Verts = make([]float64, 0, len(verts)*3)
	for _, v := range verts {
		geom.Verts = append(geom.Verts, v[0], v[1], v[2])
	}
	geom.Tris = append(geom.Tris, indices...)
	geom.Areas = make([]int, len(indices)/3)
	for i := range geom.Areas {
		geom.Areas[i] = vp.AreaDoodad
	}
	return geom
}

// rebuildTileAdd rasterizes geom onto lt's retained, mutable heightfield and
// atomically swaps the resulting tile blob into the live nav-mesh. Readers
// see either the pre- or post-rebuild ref, never an intermediate state,
// because the swap happens entirely under navMu's write lock.
func (m *Map) rebuildTileAdd(lt *loadedTile, guid uint64, geom vp.Geometry) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	blob, err := vp.RebuildTile(lt.current, geom, m.cfg, lt.tileX, lt.tileY)
	if err != nil {
		return err
	}
	lt.obstacles[guid] = geom
	return m.swapTile(lt, blob)
}

// rebuildTileRemove drops guid from lt's obstacle set and rebuilds lt's
// heightfield from scratch: a fresh clone of the pristine archived field
// (never the mutated live one, which may still carry other obstacles'
// voxels there is no way to subtract) plus every remaining obstacle's
// geometry re-rasterized on top, per spec §4.5's explicit "MUST NOT attempt
// to subtract voxels in place".
func (m *Map) rebuildTileRemove(lt *loadedTile, guid uint64) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	delete(lt.obstacles, guid)
	fresh := rc.HeightfieldFromBin(lt.archivedBytes)

	remaining := mergeGeometry(lt.obstacles)
	blob, err := vp.RebuildTile(fresh, remaining, m.cfg, lt.tileX, lt.tileY)
	if err != nil {
		return err
	}
	lt.current = fresh
	return m.swapTile(lt, blob)
}

// mergeGeometry concatenates every obstacle geometry in obstacles into one
// Geometry with properly offset vertex indices, so rebuildTileRemove can
// re-rasterize every surviving obstacle in a single RebuildTile call.
func mergeGeometry(obstacles map[uint64]vp.Geometry) vp.Geometry {
	var merged vp.Geometry
	for _, g := range obstacles {
		base := len(merged.Verts) / 3
		merged.Verts = append(merged.Verts, g.Verts...)
		for _, idx := range g.Tris {
			merged.Tris = append(merged.Tris, idx+base)
		}
		merged.Areas = append(merged.Areas, g.Areas...)
	}
	return merged
}

// swapTile removes lt's current tile ref from the nav-mesh (if it has one)
// and adds the newly built one, under navMu's
// write lock. blob is nil when the rebuild produced no walkable geometry
// at all, in which case the tile is simply left absent from the nav-mesh.
func (m *Map) swapTile(lt *loadedTile, blob *vp.TileBlob) error {
	m.navMu.Lock()
	defer m.navMu.Unlock()

	if lt.ref != 0 {
		if _, status := m.nav.RemoveTile(lt.ref); status.DtStatusFailed() {
			return xerr.WithCoord(xerr.VoxelLibraryFailure, xerr.TileCoord(lt.tileX, lt.tileY), "remove tile from nav mesh failed")
		}
		lt.ref = 0
	}
	if blob == nil {
		return nil
	}

	ref, status := m.nav.AddTile(blob.NavData, 0, 0)
	if status.DtStatusFailed() {
		return xerr.WithCoord(xerr.VoxelLibraryFailure, xerr.TileCoord(lt.tileX, lt.tileY), "add rebuilt tile to nav mesh failed")
	}
	lt.ref = ref
	lt.bounds = tileBoundsFromHeader(blob.NavData.Header)
	return nil
}
