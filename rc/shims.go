package rc

import "math"

// rcCompactHeightfield is a historical lowercase alias kept around because
// several build-pipeline files (region growing, contour tracing, mesh
// building) were written against it before RcCompactHeightfield was
// exported. Keeping the alias avoids touching hundreds of call sites.
type rcCompactHeightfield = RcCompactHeightfield

// RcCompactSpan mirrors rcCompactSpan under its originally-intended exported
// name; rcSetCon was written against the exported spelling while every other
// compact-span helper uses the unexported one.
type RcCompactSpan = rcCompactSpan

func rcMax[T int | int32 | int64 | float32 | float64](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func rcMin[T int | int32 | int64 | float32 | float64](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func rcAbs[T int | int32 | int64 | float32 | float64](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

func rcSqr(a float64) float64 { return a * a }

func rcSqrt(a float64) float64 { return math.Sqrt(a) }

func rcVdistSqr(v1, v2 []float64) float64 {
	dx := v2[0] - v1[0]
	dy := v2[1] - v1[1]
	dz := v2[2] - v1[2]
	return dx*dx + dy*dy + dz*dz
}

func rcVdist(v1, v2 []float64) float64 { return rcSqrt(rcVdistSqr(v1, v2)) }

func rcVnormalize(v []float64) {
	d := 1.0 / rcSqrt(v[0]*v[0]+v[1]*v[1]+v[2]*v[2])
	v[0] *= d
	v[1] *= d
	v[2] *= d
}

// rcGetDirOffsetX/Y give the 2D grid offset of one of the four axis-aligned
// compact-heightfield neighbour directions (0=-x,1=+z,2=+x,3=-z).
func rcGetDirOffsetX(dir int) int {
	offset := [4]int{-1, 0, 1, 0}
	return offset[dir&0x03]
}

func rcGetDirOffsetY(dir int) int {
	offset := [4]int{0, 1, 0, -1}
	return offset[dir&0x03]
}

// rcGetVert returns the 3-component vector starting at vertex index i within
// a flat float64 vertex buffer.
func rcGetVert(verts []float64, i int) []float64 { return verts[i*3:] }

// rcGetVert2 returns the sub-slice of a flat int buffer starting at absolute
// offset i (callers pre-multiply by their own stride, e.g. vertsPerPoly).
func rcGetVert2(buf []int, i int) []int { return buf[i:] }

// rcGetVert4 returns the 4-component (x,y,z,region) vector starting at
// vertex index i within a flat contour-vertex buffer.
func rcGetVert4(verts []int, i int) []int { return verts[i*4:] }
