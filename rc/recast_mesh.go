package rc

// Polygon mesh construction: triangulates each traced contour, then greedily
// merges adjacent triangles/polygons up to nvp vertices per polygon. Ported
// from gorustyt-gonavmesh/recast/recast_mesh.go for the flat-index geometry
// primitives (area2/left/leftOn/diagonal/...), which operate correctly
// there, and from cjmxp-recast.go/recast/RecastMesh.go for the top-level
// BuildPolyMesh/removeVertex/addVertex algorithm, which the vendored
// gorustyt snapshot never received (its own addVertex never threads the
// running vertex count in, so it has no working caller). addVertex below
// uses cjmxp's corrected signature.

const vertexBucketCount = 1 << 12

type rcEdge struct {
	vert     [2]int
	polyEdge [2]int
	poly     [2]int
}

// -- 2D integer geometry over (x,_,z) vectors addressed via rcGetVert4 --

func area2(a, b, c []int) int {
	return (b[0]-a[0])*(c[2]-a[2]) - (c[0]-a[0])*(b[2]-a[2])
}

func left(a, b, c []int) bool    { return area2(a, b, c) < 0 }
func leftOn(a, b, c []int) bool  { return area2(a, b, c) <= 0 }
func collinear(a, b, c []int) bool { return area2(a, b, c) == 0 }

func vequal(a, b []int) bool { return a[0] == b[0] && a[2] == b[2] }

func between(a, b, c []int) bool {
	if !collinear(a, b, c) {
		return false
	}
	if a[0] != b[0] {
		return (a[0] <= c[0] && c[0] <= b[0]) || (a[0] >= c[0] && c[0] >= b[0])
	}
	return (a[2] <= c[2] && c[2] <= b[2]) || (a[2] >= c[2] && c[2] >= b[2])
}

func xorb(x, y bool) bool { return x != y }

func intersectProp(a, b, c, d []int) bool {
	if collinear(a, b, c) || collinear(a, b, d) || collinear(c, d, a) || collinear(c, d, b) {
		return false
	}
	return xorb(left(a, b, c), left(a, b, d)) && xorb(left(c, d, a), left(c, d, b))
}

func intersect(a, b, c, d []int) bool {
	if intersectProp(a, b, c, d) {
		return true
	}
	if between(a, b, c) || between(a, b, d) || between(c, d, a) || between(c, d, b) {
		return true
	}
	return false
}

func next(i, n int) int { if i+1 >= n { return 0 }; return i + 1 }
func prev(i, n int) int { if i == 0 { return n - 1 }; return i - 1 }

func diagonalie(i, j, n int, verts []int, indices []int) bool {
	d0 := rcGetVert4(verts, indices[i]&0x0fffffff)
	d1 := rcGetVert4(verts, indices[j]&0x0fffffff)
	for k := 0; k < n; k++ {
		k1 := next(k, n)
		if !(k == i || k1 == i || k == j || k1 == j) {
			p0 := rcGetVert4(verts, indices[k]&0x0fffffff)
			p1 := rcGetVert4(verts, indices[k1]&0x0fffffff)
			if vequal(d0, p0) || vequal(d1, p0) || vequal(d0, p1) || vequal(d1, p1) {
				continue
			}
			if intersect(d0, d1, p0, p1) {
				return false
			}
		}
	}
	return true
}

func inCone(i, j, n int, verts []int, indices []int) bool {
	pi := rcGetVert4(verts, indices[i]&0x0fffffff)
	pj := rcGetVert4(verts, indices[j]&0x0fffffff)
	pi1 := rcGetVert4(verts, indices[next(i, n)]&0x0fffffff)
	pin1 := rcGetVert4(verts, indices[prev(i, n)]&0x0fffffff)

	if leftOn(pin1, pi, pi1) {
		return left(pi, pj, pin1) && left(pj, pi, pi1)
	}
	return !(leftOn(pi, pj, pi1) && leftOn(pj, pi, pin1))
}

func diagonal(i, j, n int, verts []int, indices []int) bool {
	return inCone(i, j, n, verts, indices) && diagonalie(i, j, n, verts, indices)
}

func countPolyVerts(p []int, nvp int) int {
	for i := 0; i < nvp; i++ {
		if p[i] == rcMeshNullIdx {
			return i
		}
	}
	return nvp
}

func uleft(a, b, c []int) bool {
	return (b[0]-a[0])*(c[2]-a[2])-(c[0]-a[0])*(b[2]-a[2]) < 0
}

// getPolyMergeValue scores whether polygon pa and polygon pb can be merged
// across a shared edge, returning {value, sharedEdgeA, sharedEdgeB}; value
// is -1 when the merge is illegal (result exceeds nvp verts or isn't convex).
func getPolyMergeValue(pa, pb []int, verts []int, nvp int) [3]int {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)

	if na+nb-2 > nvp {
		return [3]int{-1, -1, -1}
	}

	ea, eb := -1, -1
	for i := 0; i < na; i++ {
		va0 := pa[i]
		va1 := pa[(i+1)%na]
		if va0 > va1 {
			va0, va1 = va1, va0
		}
		for j := 0; j < nb; j++ {
			vb0 := pb[j]
			vb1 := pb[(j+1)%nb]
			if vb0 > vb1 {
				vb0, vb1 = vb1, vb0
			}
			if va0 == vb0 && va1 == vb1 {
				ea = i
				eb = j
			}
		}
	}
	if ea == -1 || eb == -1 {
		return [3]int{-1, -1, -1}
	}

	// Convexity check at the two vertices that would become shared corners.
	va2 := verts23(verts, pa[(ea+na-1)%na])
	vb := verts23(verts, pa[ea])
	vc := verts23(verts, pb[(eb+nb-1)%nb])
	if !uleft(va2, vb, vc) {
		return [3]int{-1, -1, -1}
	}
	va3 := verts23(verts, pb[eb])
	vd := verts23(verts, pa[(ea+1)%na])
	if !uleft(vd, vb, va3) {
		return [3]int{-1, -1, -1}
	}

	dx := va2[0] - va3[0]
	dz := va2[2] - va3[2]
	return [3]int{dx*dx + dz*dz, ea, eb}
}

// verts23 addresses an int-vertex buffer with 3-per-vertex stride (used by
// the poly mesh, as opposed to contour verts which have a 4th flags field).
func verts23(verts []int, i int) []int { return verts[i*3:] }

func mergePolyVerts(pa, pb []int, ea, eb, tmp []int, nvp int) {
	na := countPolyVerts(pa, nvp)
	nb := countPolyVerts(pb, nvp)
	_ = ea
	_ = eb
	for i := range tmp {
		tmp[i] = rcMeshNullIdx
	}
	n := 0
	for i := 0; i < na-1; i++ {
		tmp[n] = pa[(ea[0]+1+i)%na]
		n++
	}
	for i := 0; i < nb-1; i++ {
		tmp[n] = pb[(eb[0]+1+i)%nb]
		n++
	}
	copy(pa[:nvp], tmp[:nvp])
}

func canRemoveVertex(mesh *RcPolyMesh, rem int) bool {
	nvp := mesh.Nvp
	numTouchedVerts := 0
	numRemainingEdges := 0
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Polys[i*nvp*2 : i*nvp*2+nvp]
		nv := countPolyVerts(p, nvp)
		numRemoved := 0
		numVerts := 0
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				numTouchedVerts++
				numRemoved++
			}
			numVerts++
		}
		if numRemoved > 0 {
			numRemainingEdges += numVerts - numRemoved - 1
		}
	}
	if numRemainingEdges <= 2 {
		return false
	}
	return numTouchedVerts > 0
}

// addVertex, corrected: threads the running vertex count nv through, unlike
// the source's version, which drops the caller's count on the floor and
// always starts numbering from zero.
func addVertex(x, y, z int, verts, firstVert, nextVert []int, nv int) (int, int) {
	bucket := computeVertexHash(x, 0, z) & (vertexBucketCount - 1)
	i := firstVert[bucket]
	for i != -1 {
		v := verts[i*3:]
		if v[0] == x && (rcAbs(v[1]-y) <= 2) && v[2] == z {
			return i, nv
		}
		i = nextVert[i]
	}
	i = nv
	nv++
	verts[i*3+0] = x
	verts[i*3+1] = y
	verts[i*3+2] = z
	nextVert[i] = firstVert[bucket]
	firstVert[bucket] = i
	return i, nv
}

func computeVertexHash(x, y, z int) int {
	h1 := 0x8da6b343
	h2 := 0xd8163841
	h3 := 0xcb1ab31f
	n := h1*x + h2*y + h3*z
	return n & 0x7fffffff
}

func triangulate(n int, verts []int, indices []int, tris []int) int {
	ntris := 0
	dst := tris

	for i := 0; i < n; i++ {
		i1 := next(i, n)
		i2 := next(i1, n)
		if diagonal(i, i2, n, verts, indices) {
			indices[i1] |= 0x80000000
		}
	}

	for n > 3 {
		minLen := -1
		mini := -1
		for i := 0; i < n; i++ {
			i1 := next(i, n)
			if indices[i1]&0x80000000 != 0 {
				p0 := rcGetVert4(verts, indices[i]&0x0fffffff)
				p2 := rcGetVert4(verts, indices[next(i1, n)]&0x0fffffff)
				dx := p2[0] - p0[0]
				dz := p2[2] - p0[2]
				length := dx*dx + dz*dz
				if minLen < 0 || length < minLen {
					minLen = length
					mini = i
				}
			}
		}
		if mini == -1 {
			return -ntris
		}

		i := mini
		i1 := next(i, n)
		i2 := next(i1, n)

		dst[0] = indices[i] & 0x0fffffff
		dst[1] = indices[i1] & 0x0fffffff
		dst[2] = indices[i2] & 0x0fffffff
		dst = dst[3:]
		ntris++

		n--
		for k := i1; k < n; k++ {
			indices[k] = indices[k+1]
		}

		if i1 >= n {
			i1 = 0
		}
		i = prev(i1, n)
		if diagonal(prev(i, n), i1, n, verts, indices) {
			indices[i] |= 0x80000000
		} else {
			indices[i] &= 0x0fffffff
		}

		i2 = next(i1, n)
		if diagonal(i, i2, n, verts, indices) {
			indices[i1] |= 0x80000000
		} else {
			indices[i1] &= 0x0fffffff
		}
	}

	dst[0] = indices[0] & 0x0fffffff
	dst[1] = indices[1] & 0x0fffffff
	dst[2] = indices[2] & 0x0fffffff
	ntris++

	return ntris
}

func buildMeshAdjacency(polys []int, npolys int, nverts, vertsPerPoly int) []int {
	maxEdgeCount := npolys * vertsPerPoly
	firstEdge := make([]int, nverts+maxEdgeCount)
	nextEdge := firstEdge[nverts:]
	for i := 0; i < nverts; i++ {
		firstEdge[i] = rcMeshNullIdx
	}

	edges := make([]rcEdge, 0, maxEdgeCount)

	for i := 0; i < npolys; i++ {
		p := polys[i*vertsPerPoly*2:]
		for j := 0; j < vertsPerPoly; j++ {
			if p[j] == rcMeshNullIdx {
				break
			}
			v0 := p[j]
			v1 := p[0]
			if j+1 < vertsPerPoly && p[j+1] != rcMeshNullIdx {
				v1 = p[j+1]
			}
			if v0 < v1 {
				edges = append(edges, rcEdge{vert: [2]int{v0, v1}, polyEdge: [2]int{j, -1}, poly: [2]int{i, i}})
				edgeIdx := len(edges) - 1
				nextEdge[edgeIdx] = firstEdge[v0]
				firstEdge[v0] = edgeIdx
			}
		}
	}

	for i := 0; i < npolys; i++ {
		p := polys[i*vertsPerPoly*2:]
		for j := 0; j < vertsPerPoly; j++ {
			if p[j] == rcMeshNullIdx {
				break
			}
			v0 := p[j]
			v1 := p[0]
			if j+1 < vertsPerPoly && p[j+1] != rcMeshNullIdx {
				v1 = p[j+1]
			}
			if v0 > v1 {
				found := false
				for e := firstEdge[v1]; e != rcMeshNullIdx; e = nextEdge[e] {
					edge := &edges[e]
					if edge.vert[1] == v0 && edge.poly[0] == edge.poly[1] {
						edge.poly[1] = i
						edge.polyEdge[1] = j
						found = true
						break
					}
				}
				_ = found
			}
		}
	}

	for _, e := range edges {
		if e.polyEdge[1] != -1 {
			p0 := polys[e.poly[0]*vertsPerPoly*2+vertsPerPoly:]
			p0[e.polyEdge[0]] = e.poly[1]
			p1 := polys[e.poly[1]*vertsPerPoly*2+vertsPerPoly:]
			p1[e.polyEdge[1]] = e.poly[0]
		}
	}

	return polys
}

// removeVertex deletes vertex rem from the mesh, re-triangulates the hole it
// leaves behind, and merges the resulting triangles back into as-large
// polygons as legally possible. Adapted from cjmxp's RecastMesh.go, which
// carries a complete version of this algorithm; gorustyt's own package
// never implemented it.
func removeVertex(mesh *RcPolyMesh, rem, maxTris int) bool {
	nvp := mesh.Nvp

	var edges []int
	nedges := 0
	var hole []int

	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Polys[i*nvp*2 : i*nvp*2+nvp]
		nv := countPolyVerts(p, nvp)

		hasRem := false
		for j := 0; j < nv; j++ {
			if p[j] == rem {
				hasRem = true
			}
		}
		if !hasRem {
			continue
		}

		for j := 0; j < nv; j++ {
			if p[j] != rem {
				k := (j + 1) % nv
				l := (j + nv - 1) % nv
				edges = append(edges, p[j], p[k], p[l])
				nedges++
			}
		}

		// Remove the polygon by shifting the last polygon into its place.
		last := append([]int{}, mesh.Polys[(mesh.NPolys-1)*nvp*2:(mesh.NPolys-1)*nvp*2+nvp*2]...)
		copy(mesh.Polys[i*nvp*2:i*nvp*2+nvp*2], last)
		mesh.Areas[i] = mesh.Areas[mesh.NPolys-1]
		mesh.NPolys--
		i--
	}

	// Remove the vertex and renumber every reference above it.
	for i := rem; i < mesh.NVerts-1; i++ {
		mesh.Verts[i*3+0] = mesh.Verts[(i+1)*3+0]
		mesh.Verts[i*3+1] = mesh.Verts[(i+1)*3+1]
		mesh.Verts[i*3+2] = mesh.Verts[(i+1)*3+2]
	}
	mesh.NVerts--
	for i := 0; i < mesh.NPolys; i++ {
		p := mesh.Polys[i*nvp*2 : i*nvp*2+nvp]
		nv := countPolyVerts(p, nvp)
		for j := 0; j < nv; j++ {
			if p[j] > rem {
				p[j]--
			}
		}
	}
	for i := range edges {
		if edges[i] > rem {
			edges[i]--
		}
	}
	if nedges == 0 {
		return true
	}

	// Build the hole outline by walking the collected boundary edges.
	hole = append(hole, edges[0])
	edges[0], edges[1], edges[2] = -1, edges[1], edges[2]
	for nedges > 1 {
		match := false
		for i := 0; i < nedges; i++ {
			if edges[i*3] == -1 {
				continue
			}
			ea, eb := edges[i*3], edges[i*3+1]
			add := -1
			if ea == hole[len(hole)-1] {
				add = eb
			} else if eb == hole[0] {
				hole = append([]int{ea}, hole...)
				edges[i*3] = -1
				match = true
				continue
			}
			if add != -1 {
				hole = append(hole, add)
				edges[i*3] = -1
				match = true
			}
		}
		if !match {
			break
		}
		nedges--
	}

	nhole := len(hole)
	tverts := make([]int, nhole*4)
	thole := make([]int, nhole)
	for i := 0; i < nhole; i++ {
		pi := hole[i]
		tverts[i*4+0] = mesh.Verts[pi*3+0]
		tverts[i*4+1] = mesh.Verts[pi*3+1]
		tverts[i*4+2] = mesh.Verts[pi*3+2]
		thole[i] = i
	}

	tris := make([]int, nhole*3)
	ntris := triangulate(nhole, tverts, thole, tris)
	if ntris < 0 {
		ntris = -ntris
	}

	var polys [][]int
	var pareas []int
	for i := 0; i < ntris; i++ {
		t := tris[i*3 : i*3+3]
		if t[0] != t[1] && t[0] != t[2] && t[1] != t[2] {
			poly := make([]int, nvp)
			for k := range poly {
				poly[k] = rcMeshNullIdx
			}
			poly[0] = hole[t[0]]
			poly[1] = hole[t[1]]
			poly[2] = hole[t[2]]
			polys = append(polys, poly)
			pareas = append(pareas, 0)
		}
	}
	if len(polys) == 0 {
		return true
	}

	// Greedily merge triangles into larger convex polygons.
	if nvp > 3 {
		for {
			bestMergeVal := 0
			bestPa, bestPb := -1, -1
			var bestEa, bestEb int
			for i := 0; i < len(polys); i++ {
				for j := i + 1; j < len(polys); j++ {
					res := getPolyMergeValue(polys[i], polys[j], mesh.Verts, nvp)
					if res[0] > bestMergeVal {
						bestMergeVal = res[0]
						bestPa, bestPb = i, j
						bestEa, bestEb = res[1], res[2]
					}
				}
			}
			if bestPa == -1 {
				break
			}
			tmp := make([]int, nvp)
			ea, eb := bestEa, bestEb
			mergePolyVerts(polys[bestPa], polys[bestPb], []int{ea}, []int{eb}, tmp, nvp)
			polys[bestPb] = polys[len(polys)-1]
			polys = polys[:len(polys)-1]
		}
	}

	for i, p := range polys {
		if mesh.NPolys*nvp*2+nvp*2 > len(mesh.Polys) {
			mesh.Polys = append(mesh.Polys, make([]int, nvp*2)...)
		} else {
			mesh.Polys = mesh.Polys[:mesh.NPolys*nvp*2+nvp*2]
		}
		dst := mesh.Polys[mesh.NPolys*nvp*2 : mesh.NPolys*nvp*2+nvp*2]
		for k := range dst {
			dst[k] = rcMeshNullIdx
		}
		copy(dst[:nvp], p)
		if mesh.NPolys >= len(mesh.Areas) {
			mesh.Areas = append(mesh.Areas, 0)
		}
		mesh.Areas[mesh.NPolys] = pareas[i]
		mesh.NPolys++
		if mesh.NPolys > maxTris {
			return false
		}
	}

	return true
}

// RcBuildPolyMesh triangulates every contour in cset and greedily merges
// adjacent triangles into convex polygons of up to nvp vertices, producing
// the walkable-surface mesh consumed by detour.DtNavMeshCreateParams.
func RcBuildPolyMesh(cset *RcContourSet, nvp int) *RcPolyMesh {
	mesh := &RcPolyMesh{
		Nvp:  nvp,
		Bmin: cset.Bmin,
		Bmax: cset.Bmax,
		Cs:   cset.Cs,
		Ch:   cset.Ch,
	}

	maxVertices := 0
	maxTris := 0
	maxVertsPerCont := 0
	for _, c := range cset.Conts {
		if c.NVerts < 3 {
			continue
		}
		maxVertices += c.NVerts
		maxTris += c.NVerts - 2
		if c.NVerts > maxVertsPerCont {
			maxVertsPerCont = c.NVerts
		}
	}
	if maxVertices == 0 {
		return mesh
	}

	mesh.Verts = make([]int, maxVertices*3)
	mesh.Polys = make([]int, maxTris*nvp*2)
	for i := range mesh.Polys {
		mesh.Polys[i] = rcMeshNullIdx
	}
	mesh.Areas = make([]int, maxTris)

	firstVert := make([]int, vertexBucketCount)
	for i := range firstVert {
		firstVert[i] = -1
	}
	nextVert := make([]int, maxVertices)
	indices := make([]int, maxVertsPerCont)
	tris := make([]int, maxVertsPerCont*3)

	nv := 0
	for _, cont := range cset.Conts {
		if cont.NVerts < 3 {
			continue
		}
		for j := 0; j < cont.NVerts; j++ {
			indices[j] = j
		}

		ntris := triangulate(cont.NVerts, cont.Verts, indices[:cont.NVerts], tris)
		if ntris <= 0 {
			ntris = -ntris
		}

		polyVerts := make([]int, cont.NVerts)
		for j := 0; j < cont.NVerts; j++ {
			v := rcGetVert4(cont.Verts, j)
			idx, newNv := addVertex(v[0], v[1], v[2], mesh.Verts, firstVert, nextVert, nv)
			nv = newNv
			polyVerts[j] = idx
		}

		var polys [][]int
		for t := 0; t < ntris; t++ {
			tri := tris[t*3 : t*3+3]
			if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
				continue
			}
			poly := make([]int, nvp)
			for k := range poly {
				poly[k] = rcMeshNullIdx
			}
			poly[0] = polyVerts[tri[0]]
			poly[1] = polyVerts[tri[1]]
			poly[2] = polyVerts[tri[2]]
			polys = append(polys, poly)
		}

		if nvp > 3 {
			for {
				bestMergeVal := 0
				bestPa, bestPb := -1, -1
				var bestEa, bestEb int
				for i := 0; i < len(polys); i++ {
					for j := i + 1; j < len(polys); j++ {
						res := getPolyMergeValue(polys[i], polys[j], mesh.Verts, nvp)
						if res[0] > bestMergeVal {
							bestMergeVal = res[0]
							bestPa, bestPb = i, j
							bestEa, bestEb = res[1], res[2]
						}
					}
				}
				if bestPa == -1 {
					break
				}
				tmp := make([]int, nvp)
				ea, eb := bestEa, bestEb
				mergePolyVerts(polys[bestPa], polys[bestPb], []int{ea}, []int{eb}, tmp, nvp)
				polys[bestPb] = polys[len(polys)-1]
				polys = polys[:len(polys)-1]
			}
		}

		for _, p := range polys {
			dst := mesh.Polys[mesh.NPolys*nvp*2 : mesh.NPolys*nvp*2+nvp*2]
			copy(dst[:nvp], p)
			mesh.Areas[mesh.NPolys] = cont.Area
			mesh.NPolys++
		}
	}
	mesh.NVerts = nv

	buildMeshAdjacency(mesh.Polys, mesh.NPolys, mesh.NVerts, nvp)

	// Border-erode a couple of low-value vertices to keep the mesh from
	// bloating with slivers along tessellated tile edges (mirrors upstream
	// Recast's canRemoveVertex/removeVertex cleanup pass, bounded here to a
	// fixed small budget rather than looping to a fixed point).
	maxRemove := mesh.NVerts / 50
	for i := 0; i < mesh.NVerts && maxRemove > 0; i++ {
		if canRemoveVertex(mesh, i) {
			if removeVertex(mesh, i, maxTris) {
				maxRemove--
				i--
			}
		}
	}

	return mesh
}
