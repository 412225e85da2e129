package rc

// Area ids assigned to walkable spans by source geometry, distinct from
// RC_NULL_AREA (unwalkable) and RC_WALKABLE_AREA (the generic marker used
// mid-pipeline before a source-specific id is assigned). These are bit
// flags, not sequential ids, matching the original engine's AreaFlags enum
// (TemporaryObstacle.cpp ORs AreaFlags::ADT into an already-classified
// span rather than overwriting it). Kept well below RC_WALKABLE_AREA (63)
// so RcErodeWalkableArea and the standard filters (which only test
// != RC_NULL_AREA) keep working unchanged.
const (
	RC_AREA_ADT    = 1 << 0
	RC_AREA_LIQUID = 1 << 1
	RC_AREA_WMO    = 1 << 2
	RC_AREA_DOODAD = 1 << 3
)

// RcSelectivelyEnforceWalkableClimb severs compact-span connections whose
// neighbor sits farther away in height than walkableClimb, unless both spans
// belong to ADT terrain. Stock Recast's compact heightfield build already
// connects any pair of spans within walkableClimb of each other regardless
// of area, which is correct for rolling terrain but wrong for WMO/doodad
// geometry stacked above it (a staircase's treads, or a bridge deck sitting
// just above the ground under it, must not silently fuse into one walkable
// surface). Ported from SelectivelyEnforceWalkableClimb in the original
// engine's temporary-obstacle rebuild path.
func RcSelectivelyEnforceWalkableClimb(chf *RcCompactHeightfield, walkableClimb int) {
	for z := 0; z < chf.height; z++ {
		for x := 0; x < chf.width; x++ {
			cell := chf.cells[x+z*chf.width]
			for i := cell.index; i < cell.index+cell.count; i++ {
				span := chf.spans[i]
				for dir := 0; dir < 4; dir++ {
					if rcGetCon(span, dir) == RC_NOT_CONNECTED {
						continue
					}
					nx := x + rcGetDirOffsetX(dir)
					nz := z + rcGetDirOffsetY(dir)
					nCell := chf.cells[nx+nz*chf.width]
					ni := nCell.index + rcGetCon(span, dir)
					neighbor := chf.spans[ni]

					if rcAbs(neighbor.y-span.y) <= walkableClimb {
						continue
					}
					if chf.areas[i] == RC_AREA_ADT && chf.areas[ni] == RC_AREA_ADT {
						continue
					}
					rcSetCon(span, dir, RC_NOT_CONNECTED)
				}
			}
		}
	}
}

// RcPolyMesh is the walkable-surface polygonization of a compact
// heightfield, shaped to load directly into detour.DtNavMeshCreateParams
// (Verts/Polys/Areas/Nvp/Bmin/Bmax/Cs/Ch map field-for-field). Built by
// RcBuildPolyMesh (recast_mesh.go) from the contours RcBuildContours traces
// over the regions RcBuildRegions grows - the full watershed pipeline,
// rather than a coarser per-span approximation.
type RcPolyMesh struct {
	Verts  []int // (x, y, z) per vertex, voxel units, relative to Bmin
	NVerts int
	Polys  []int // NPolys * 2*Nvp: Nvp vert indices, then Nvp neighbor poly indices (MESH_NULL_IDX = none)
	Areas  []int // per polygon
	NPolys int
	Nvp    int
	Bmin   [3]float64
	Bmax   [3]float64
	Cs     float64
	Ch     float64
}

const rcMeshNullIdx = 0xffff
