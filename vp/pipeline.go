// Package vp implements the Voxel Pipeline: turning a triangle soup for one
// nav tile into a Detour-ready tile blob by driving the vendored Recast
// (rc) and Detour (dt) libraries through the twelve-step build documented in
// spec §4.3. Grounded on original_source/pathfind/Source/TemporaryObstacle.cpp,
// which runs the same rasterize/filter/compact/climb/polygonize sequence
// both for a fresh tile build and for a temporary-obstacle rebuild.
package vp

import (
	"github.com/luke-gav/namigator/dt"
	"github.com/luke-gav/namigator/internal/config"
	"github.com/luke-gav/namigator/internal/xerr"
	"github.com/luke-gav/namigator/rc"
)

// Area ids a Geometry's triangles can be tagged with. These map directly
// onto the rc package's bit-flag area ids so a Geometry built by any caller
// (TBO's per-ADT aggregator, RNM's obstacle rebuild) can be fed straight
// into RcMarkWalkableTriangles/RcRasterizeTriangles without translation.
const (
	AreaADT    = rc.RC_AREA_ADT
	AreaLiquid = rc.RC_AREA_LIQUID
	AreaWMO    = rc.RC_AREA_WMO
	AreaDoodad = rc.RC_AREA_DOODAD
)

// Geometry is the flat triangle soup a build step rasterizes: one tile's
// worth of terrain, or terrain plus one newly-inserted obstacle. Areas has
// one entry per triangle (len(Areas) == len(Tris)/3).
type Geometry struct {
	Verts []float64 // (x, y, z) * N
	Tris  []int     // vertex index triples
	Areas []int
}

// TileBlob is the output of a successful tile build: the serialized
// Detour tile ready for DtNavMesh.AddTile, plus the heightfield the tile
// was rasterized into. RNM keeps Heightfield around and re-rasterizes onto
// it (never discarding it) when a game object is added or removed, per
// spec §4.5's incremental-rebuild requirement.
type TileBlob struct {
	NavData      *dt.NavMeshData
	Heightfield  *rc.RcHeightfield
	TileX, TileY int
}

// tileVoxelExtent computes the heightfield's width/height in voxels and its
// world-space bounds, expanded by the non-navigable border spec §4.3 step 1
// requires: borderSize = walkableRadius + 3, and the field is sized
// tileVoxelSize + 2*borderSize on each axis.
func tileVoxelExtent(cfg config.MeshConfig, tileMin, tileMax [3]float64) (sizeXZ, borderSize int, bmin, bmax [3]float64) {
	borderSize = cfg.WalkableRadius + 3
	sizeXZ = cfg.TileVoxelSize + 2*borderSize

	pad := float64(borderSize) * cfg.CellSize
	bmin = tileMin
	bmax = tileMax
	bmin[0] -= pad
	bmin[2] -= pad
	bmax[0] += pad
	bmax[2] += pad
	return sizeXZ, borderSize, bmin, bmax
}

// saveAdtSpans snapshots which spans in hf currently carry AreaADT, so the
// ADT-exempt ledge filter (step 4) can restore them afterward: RcFilterLedgeSpans
// has no notion of area exemption, so the exemption is implemented by
// filtering everything and then putting the ADT bit back on spans that had
// it, discarding whatever the filter decided about them.
func saveAdtSpans(hf *rc.RcHeightfield) []*rc.RcSpan {
	var saved []*rc.RcSpan
	for i := 0; i < hf.Width*hf.Height; i++ {
		for span := hf.Spans[i]; span != nil; span = span.Next {
			if span.Area == AreaADT {
				saved = append(saved, span)
			}
		}
	}
	return saved
}

func restoreAdtSpans(saved []*rc.RcSpan) {
	for _, span := range saved {
		span.Area = AreaADT
	}
}

// BuildTile runs the full spec §4.3 pipeline over geom and returns the
// resulting tile blob. A nil TileBlob with a nil error means the tile has
// no walkable geometry at all: no input triangles, an empty contour set, or
// a polygon mesh with zero polygons.
func BuildTile(geom Geometry, cfg config.MeshConfig, tileX, tileY int, tileMin, tileMax [3]float64) (*TileBlob, error) {
	sizeXZ, _, bmin, bmax := tileVoxelExtent(cfg, tileMin, tileMax)

	// Step 1: allocate the heightfield.
	hf := rc.RcCreateHeightfield(sizeXZ, sizeXZ, bmin[:], bmax[:], cfg.CellSize, cfg.CellHeight)

	numTris := len(geom.Tris) / 3
	if numTris == 0 {
		return nil, nil
	}

	// Step 2: mark triangles steeper than walkableSlope as non-walkable.
	// geom.Areas already carries each triangle's source area id; clearing an
	// area to RC_NULL_AREA here is exactly RcClearUnwalkableTriangles's job.
	areaIDs := make([]int, numTris)
	copy(areaIDs, geom.Areas)
	rc.RcClearUnwalkableTriangles(cfg.WalkableSlopeAngle, geom.Verts, len(geom.Verts)/3, geom.Tris, numTris, areaIDs)

	// Step 3: rasterize.
	if !rc.RcRasterizeTriangles(geom.Verts, len(geom.Verts)/3, geom.Tris, areaIDs, numTris, hf, 1) {
		return nil, xerr.New(xerr.VoxelLibraryFailure, "rasterize triangles failed")
	}

	// Step 4: ADT spans are exempt from ledge filtering.
	savedAdt := saveAdtSpans(hf)
	rc.RcFilterLedgeSpans(cfg.WalkableHeight, cfg.WalkableClimb, hf)
	restoreAdtSpans(savedAdt)

	// Step 5: low-height and low-hanging-obstacle filters over the full field.
	rc.RcFilterWalkableLowHeightSpans(cfg.WalkableHeight, hf)
	rc.RcFilterLowHangingWalkableObstacles(cfg.WalkableClimb, hf)

	return compactAndPolygonize(hf, cfg, tileX, tileY)
}

// compactAndPolygonize runs spec §4.3 steps 6-12 (compact, erode, selective
// climb enforcement, polygonize, flag-lift, tile-data build) against a
// heightfield that steps 1-5 have already been applied to. Shared by
// BuildTile's initial construction and RebuildTile's incremental
// re-polygonization, since both need this tail identically.
func compactAndPolygonize(hf *rc.RcHeightfield, cfg config.MeshConfig, tileX, tileY int) (*TileBlob, error) {
	// Step 6: compact.
	chf := &rc.RcCompactHeightfield{}
	if !rc.RcBuildCompactHeightfield(cfg.WalkableHeight, cfg.WalkableClimb, hf, chf) {
		return nil, xerr.New(xerr.VoxelLibraryFailure, "build compact heightfield failed")
	}
	rc.RcErodeWalkableArea(cfg.WalkableRadius, chf)

	// Step 7: selective walkable-climb enforcement.
	rc.RcSelectivelyEnforceWalkableClimb(chf, cfg.WalkableClimb)

	// Step 8: distance field + watershed region growing.
	if !rc.RcBuildDistanceField(chf) {
		return nil, xerr.New(xerr.VoxelLibraryFailure, "build distance field failed")
	}
	if !rc.RcBuildRegions(chf, 0, cfg.MinRegionArea, cfg.MergeRegionArea) {
		return nil, xerr.New(xerr.VoxelLibraryFailure, "build regions failed")
	}

	// Step 9: trace and simplify region contours.
	cset := &rc.RcContourSet{}
	if !rc.RcBuildContours(chf, cfg.MaxSimplificationError, cfg.MaxEdgeLen, cset, rc.RC_CONTOUR_TESS_WALL_EDGES) {
		return nil, xerr.New(xerr.VoxelLibraryFailure, "build contours failed")
	}
	if cset.NConts == 0 {
		return nil, nil
	}

	// Step 10: triangulate contours into a merged, simplified polygon mesh,
	// then sample real span heights into a detail mesh on top of it.
	pm := rc.RcBuildPolyMesh(cset, cfg.MaxVertsPerPoly)
	if pm.NPolys == 0 {
		return nil, nil
	}
	if pm.NVerts >= 65535 {
		return nil, xerr.WithCoord(xerr.TooManyVerts, xerr.TileCoord(tileX, tileY), "poly mesh exceeds 65535 vertices")
	}
	dm := rc.RcBuildPolyMeshDetail(pm, chf, cfg.DetailSampleDist, cfg.DetailSampleMaxError)

	// Step 11: lift area flags into the flags field, OR'd with Walkable.
	flags := make([]int, pm.NPolys)
	for i := range flags {
		flags[i] = FlagWalkable | pm.Areas[i]
	}

	// Step 12: build the nav-mesh tile blob.
	params := &dt.DtNavMeshCreateParams{
		Verts:            pm.Verts,
		VertCount:        pm.NVerts,
		Polys:            pm.Polys,
		PolyFlags:        flags,
		PolyAreas:        pm.Areas,
		PolyCount:        pm.NPolys,
		Nvp:              pm.Nvp,
		TileX:            tileX,
		TileY:            tileY,
		Bmin:             pm.Bmin,
		Bmax:             pm.Bmax,
		WalkableHeight:   float64(cfg.WalkableHeight) * cfg.CellHeight,
		WalkableRadius:   float64(cfg.WalkableRadius) * cfg.CellSize,
		WalkableClimb:    float64(cfg.WalkableClimb) * cfg.CellHeight,
		Cs:               pm.Cs,
		Ch:               pm.Ch,
		BuildBvTree:      true,
		DetailMeshes:     dm.Meshes,
		DetailVerts:      dm.Verts,
		DetailVertsCount: dm.NVerts,
		DetailTris:       dm.Tris,
		DetailTriCount:   dm.NTris,
	}

	navData, ok := dt.DtCreateNavMeshData(params)
	if !ok {
		return nil, xerr.WithCoord(xerr.VoxelLibraryFailure, xerr.TileCoord(tileX, tileY), "create nav mesh data failed")
	}

	return &TileBlob{NavData: navData, Heightfield: hf, TileX: tileX, TileY: tileY}, nil
}

// FlagWalkable is the sole polygon flag this pipeline assigns, mirroring
// TemporaryObstacle.cpp's PolyFlags::Walkable. It is ORed with a polygon's
// area id (step 11) rather than looked up per area, matching the original's
// `flags[i] = PolyFlags::Walkable | areas[i]`.
const FlagWalkable = 1 << 15

// RebuildTile re-rasterizes newGeom onto the tile's already-built
// heightfield and reruns steps 6-12. Step 1 is skipped: the heightfield
// already carries every triangle rasterized into it by prior builds
// (initial terrain plus any earlier obstacles). Steps 2-3 run for newGeom's
// triangles only, and when newGeom has any, the step 4-5 filters run again
// over the whole field before compaction, climb enforcement, and
// polygonization. Called from RNM's add_game_object and
// remove_game_object (spec §4.5), which rebuild exactly the tiles a
// changed obstacle intersects rather than the whole ADT.
func RebuildTile(hf *rc.RcHeightfield, newGeom Geometry, cfg config.MeshConfig, tileX, tileY int) (*TileBlob, error) {
	numTris := len(newGeom.Tris) / 3
	if numTris > 0 {
		areaIDs := make([]int, numTris)
		copy(areaIDs, newGeom.Areas)
		rc.RcClearUnwalkableTriangles(cfg.WalkableSlopeAngle, newGeom.Verts, len(newGeom.Verts)/3, newGeom.Tris, numTris, areaIDs)

		savedAdt := saveAdtSpans(hf)
		if !rc.RcRasterizeTriangles(newGeom.Verts, len(newGeom.Verts)/3, newGeom.Tris, areaIDs, numTris, hf, 1) {
			return nil, xerr.New(xerr.VoxelLibraryFailure, "rasterize triangles failed")
		}
		rc.RcFilterLedgeSpans(cfg.WalkableHeight, cfg.WalkableClimb, hf)
		restoreAdtSpans(savedAdt)
		rc.RcFilterWalkableLowHeightSpans(cfg.WalkableHeight, hf)
		rc.RcFilterLowHangingWalkableObstacles(cfg.WalkableClimb, hf)
	}

	return compactAndPolygonize(hf, cfg, tileX, tileY)
}
