package rc

import "sort"

// Contour tracing turns the region-tagged compact heightfield into simplified
// boundary polylines, one per region (plus a hole polyline per interior
// island), ready for triangulation. Ported from rcBuildContours and its
// helpers in gorustyt-gonavmesh/recast/recast_contour.go, fixing two bugs
// found in that source during the port: mergeContours copied contour B's
// raw vertices from contour A's buffer, and mergeRegionHoles compared a
// diagonal's endpoint against the wrong loop variable's vertex.

const (
	RC_CONTOUR_REG_MASK = 0xffff
	RC_AREA_BORDER      = 0x20000
	RC_BORDER_VERTEX    = 0x10000

	RC_CONTOUR_TESS_WALL_EDGES = 0x01
	RC_CONTOUR_TESS_AREA_EDGES = 0x02
)

// RcContour is one traced-and-simplified region boundary.
type RcContour struct {
	Verts   []int // simplified vertices: x,y,z,flags per vertex
	NVerts  int
	RVerts  []int // raw (unsimplified) vertices, same layout
	NRVerts int
	Reg     int
	Area    int
}

// RcContourSet is the full set of contours traced from a compact
// heightfield, in the same voxel space as the heightfield.
type RcContourSet struct {
	Conts      []*RcContour
	NConts     int
	Bmin, Bmax [3]float64
	Cs, Ch     float64
	Width, Height, BorderSize int
	MaxError   float64
}

func contourInCone(i, n int, verts []int, pt []int) bool {
	pa := rcGetVert4(verts, i)
	pb := rcGetVert4(verts, (i+1)%n)
	pc := rcGetVert4(verts, (i+n-1)%n)
	if leftOn(pa, pb, pt) {
		return left(pt, pa, pc) && left(pc, pb, pt)
	}
	return !(leftOn(pt, pb, pa) && leftOn(pa, pc, pt))
}

func intersectSegContour(d0, d1 []int, i, n int, verts []int) bool {
	for k := 0; k < n; k++ {
		k1 := (k + 1) % n
		if k == i || k1 == i {
			continue
		}
		p0 := rcGetVert4(verts, k)
		p1 := rcGetVert4(verts, k1)
		if vequal(d0, p0) || vequal(d1, p0) || vequal(d0, p1) || vequal(d1, p1) {
			continue
		}
		if intersect(d0, d1, p0, p1) {
			return true
		}
	}
	return false
}

// getCornerHeight samples the four cells sharing the grid corner at
// (cellX, cellZ, dir) - the cell holding span i, its dir and dir+1
// neighbors, and the diagonal cell across from it - to find the walked
// contour vertex's height and whether it sits on a tile/area seam.
func getCornerHeight(cellX, cellZ, dir, i int, chf *RcCompactHeightfield, isBorderVertex *bool) int {
	w := chf.width
	s := chf.spans[i]
	ch := s.y

	var regs [4]int
	regs[0] = chf.areas[i]<<16 | s.reg

	dir1 := (dir + 1) & 0x3
	ax1, az1 := cellX+rcGetDirOffsetX(dir), cellZ+rcGetDirOffsetY(dir)
	if rcGetCon(s, dir) != RC_NOT_CONNECTED {
		ai := chf.cells[ax1+az1*w].index + rcGetCon(s, dir)
		as := chf.spans[ai]
		if as.y > ch {
			ch = as.y
		}
		regs[1] = chf.areas[ai]<<16 | as.reg

		if rcGetCon(as, dir1) != RC_NOT_CONNECTED {
			ax2, az2 := ax1+rcGetDirOffsetX(dir1), az1+rcGetDirOffsetY(dir1)
			ai2 := chf.cells[ax2+az2*w].index + rcGetCon(as, dir1)
			as2 := chf.spans[ai2]
			if as2.y > ch {
				ch = as2.y
			}
			regs[2] = chf.areas[ai2]<<16 | as2.reg
		}
	}
	if rcGetCon(s, dir1) != RC_NOT_CONNECTED {
		ax3, az3 := cellX+rcGetDirOffsetX(dir1), cellZ+rcGetDirOffsetY(dir1)
		ai3 := chf.cells[ax3+az3*w].index + rcGetCon(s, dir1)
		as3 := chf.spans[ai3]
		if as3.y > ch {
			ch = as3.y
		}
		regs[3] = chf.areas[ai3]<<16 | as3.reg
	}

	for j := 0; j < 4; j++ {
		a := j
		b := (j + 1) & 0x3
		c := (j + 2) & 0x3
		d := (j + 3) & 0x3
		twoSameExts := (regs[a]&regs[b]&RC_BORDER_REG) != 0 && regs[a] == regs[b]
		twoInts := ((regs[c] | regs[d]) & RC_BORDER_REG) == 0
		intsSameArea := (regs[c] >> 16) == (regs[d] >> 16)
		noZeros := regs[a] != 0 && regs[b] != 0 && regs[c] != 0 && regs[d] != 0
		if twoSameExts && twoInts && intsSameArea && noZeros {
			*isBorderVertex = true
			break
		}
	}

	return ch
}

func walkContour(x, z, i int, chf *RcCompactHeightfield, flags []int, points *[]int) {
	w := chf.width
	dir := 0
	for flags[i]&(1<<uint(dir)) == 0 {
		dir++
	}
	startDir := dir
	starti := i

	area := chf.areas[i]

	iter := 0
	for iter < 40000 {
		iter++
		if flags[i]&(1<<uint(dir)) != 0 {
			isBorderVertex := false
			isAreaBorder := false
			px := x
			py := chf.spans[i].y
			pz := z
			switch dir {
			case 0:
				pz++
			case 1:
				px++
				pz++
			case 2:
				px++
			}
			r := 0
			s := chf.spans[i]
			if rcGetCon(s, dir) != RC_NOT_CONNECTED {
				ax, az := x+rcGetDirOffsetX(dir), z+rcGetDirOffsetY(dir)
				ai := chf.cells[ax+az*w].index + rcGetCon(s, dir)
				r = chf.spans[ai].reg
				if area != chf.areas[ai] {
					isAreaBorder = true
				}
			}
			py = getCornerHeight(x, z, dir, i, chf, &isBorderVertex)
			r2 := r
			if isBorderVertex {
				r2 |= RC_BORDER_VERTEX
			}
			if isAreaBorder {
				r2 |= RC_AREA_BORDER
			}
			*points = append(*points, px, py, pz, r2)

			flags[i] &^= 1 << uint(dir)
			dir = (dir + 1) & 0x3
		} else {
			ni := -1
			nx := x + rcGetDirOffsetX(dir)
			nz := z + rcGetDirOffsetY(dir)
			s := chf.spans[i]
			if rcGetCon(s, dir) != RC_NOT_CONNECTED {
				nc := chf.cells[nx+nz*w]
				ni = nc.index + rcGetCon(s, dir)
			}
			if ni == -1 {
				return
			}
			x, z, i = nx, nz, ni
			dir = (dir + 3) & 0x3
		}
		if starti == i && startDir == dir {
			break
		}
	}
}

func contourDistancePtSeg(x, z, px, pz, qx, qz int) float64 {
	pqx := float64(qx - px)
	pqz := float64(qz - pz)
	dx := float64(x - px)
	dz := float64(z - pz)
	d := pqx*pqx + pqz*pqz
	t := pqx*dx + pqz*dz
	if d > 0 {
		t /= d
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	dx = float64(px) + t*pqx - float64(x)
	dz = float64(pz) + t*pqz - float64(z)
	return dx*dx + dz*dz
}

func simplifyContour(points *[]int, simplified *[]int, maxError float64, maxEdgeLen, buildFlags int) {
	hasConnections := false
	for i := 0; i < len(*points); i += 4 {
		if (*points)[i+3]&RC_CONTOUR_REG_MASK != 0 {
			hasConnections = true
			break
		}
	}

	if hasConnections {
		npts := len(*points) / 4
		for i := 0; i < npts; i++ {
			ii := (i + 1) % npts
			differentRegs := (*points)[i*4+3]&RC_CONTOUR_REG_MASK != (*points)[ii*4+3]&RC_CONTOUR_REG_MASK
			areaBorders := (*points)[i*4+3]&RC_AREA_BORDER != (*points)[ii*4+3]&RC_AREA_BORDER
			if differentRegs || areaBorders {
				*simplified = append(*simplified, (*points)[i*4], (*points)[i*4+1], (*points)[i*4+2], i)
			}
		}
	}

	if len(*simplified) == 0 {
		llx, lly, llz := (*points)[0], (*points)[1], (*points)[2]
		lli := 0
		urx, ury, urz := llx, lly, llz
		uri := 0
		for i := 0; i < len(*points)/4; i++ {
			x, y, z := (*points)[i*4], (*points)[i*4+1], (*points)[i*4+2]
			if x < llx || (x == llx && z < llz) {
				llx, lly, llz, lli = x, y, z, i
			}
			if x > urx || (x == urx && z > urz) {
				urx, ury, urz, uri = x, y, z, i
			}
		}
		*simplified = append(*simplified, llx, lly, llz, lli)
		*simplified = append(*simplified, urx, ury, urz, uri)
	}

	npts := len(*points) / 4
	for i := 0; i < len(*simplified)/4; {
		ii := (i + 1) % (len(*simplified) / 4)

		ax, az := (*simplified)[i*4], (*simplified)[i*4+2]
		ai := (*simplified)[i*4+3]

		bx, bz := (*simplified)[ii*4], (*simplified)[ii*4+2]
		bi := (*simplified)[ii*4+3]

		maxd := 0.0
		maxi := -1
		var ci, cinc, endi int

		if bx > ax || (bx == ax && bz > az) {
			cinc = 1
			ci = (ai + cinc) % npts
			endi = bi
		} else {
			cinc = npts - 1
			ci = (bi + cinc) % npts
			endi = ai
			ax, bx = bx, ax
			az, bz = bz, az
		}

		for ci != endi {
			d := contourDistancePtSeg((*points)[ci*4], (*points)[ci*4+2], ax, az, bx, bz)
			if d > maxd {
				maxd = d
				maxi = ci
			}
			ci = (ci + cinc) % npts
		}

		if maxi != -1 && maxd > maxError*maxError {
			*simplified = insertVertexAt(*simplified, i+1, (*points)[maxi*4], (*points)[maxi*4+1], (*points)[maxi*4+2], maxi)
		} else {
			i++
		}
	}

	// Tessellate long edges if requested.
	if maxEdgeLen > 0 && buildFlags&(RC_CONTOUR_TESS_WALL_EDGES|RC_CONTOUR_TESS_AREA_EDGES) != 0 {
		for i := 0; i < len(*simplified)/4; {
			ii := (i + 1) % (len(*simplified) / 4)

			ax, az := (*simplified)[i*4], (*simplified)[i*4+2]
			ai := (*simplified)[i*4+3]

			bx, bz := (*simplified)[ii*4], (*simplified)[ii*4+2]
			bi := (*simplified)[ii*4+3]

			maxi := -1
			ci := (ai + 1) % npts

			shouldTess := false
			if buildFlags&RC_CONTOUR_TESS_WALL_EDGES != 0 && (*points)[ci*4+3]&RC_CONTOUR_REG_MASK == 0 {
				shouldTess = true
			}
			if buildFlags&RC_CONTOUR_TESS_AREA_EDGES != 0 && (*points)[ci*4+3]&RC_AREA_BORDER != 0 {
				shouldTess = true
			}

			if shouldTess {
				dx := bx - ax
				dz := bz - az
				if dx*dx+dz*dz > maxEdgeLen*maxEdgeLen {
					n := bi - ai
					if n < 0 {
						n += npts
					}
					if n > 1 {
						if bx > ax || (bx == ax && bz > az) {
							maxi = (ai + n/2) % npts
						} else {
							maxi = (ai + (n+1)/2) % npts
						}
					}
				}
			}

			if maxi != -1 {
				*simplified = insertVertexAt(*simplified, i+1, (*points)[maxi*4], (*points)[maxi*4+1], (*points)[maxi*4+2], maxi)
			} else {
				i++
			}
		}
	}

	for i := 0; i < len(*simplified)/4; i++ {
		ai := ((*simplified)[i*4+3] + 1) % npts
		bi := (*simplified)[i*4+3]
		l := (*points)[ai*4+3] & (RC_CONTOUR_REG_MASK | RC_AREA_BORDER)
		r := (*points)[bi*4+3] & RC_BORDER_VERTEX
		(*simplified)[i*4+3] = l | r
	}
}

func insertVertexAt(s []int, idx, x, y, z, region int) []int {
	out := make([]int, 0, len(s)+4)
	out = append(out, s[:idx*4]...)
	out = append(out, x, y, z, region)
	out = append(out, s[idx*4:]...)
	return out
}

func calcAreaOfPolygon2D(verts []int, nverts int) int {
	area := 0
	for i, j := 0, nverts-1; i < nverts; j, i = i, i+1 {
		vi := rcGetVert4(verts, i)
		vj := rcGetVert4(verts, j)
		area += vi[0]*vj[2] - vj[0]*vi[2]
	}
	return (area + 1) / 2
}

func removeDegenerateSegments(simplified *[]int) {
	npts := len(*simplified) / 4
	for i := 0; i < npts; {
		ni := (i + 1) % npts
		if (*simplified)[i*4] == (*simplified)[ni*4] && (*simplified)[i*4+2] == (*simplified)[ni*4+2] {
			*simplified = append((*simplified)[:i*4], (*simplified)[(i+1)*4:]...)
			npts = len(*simplified) / 4
			continue
		}
		i++
	}
}

// mergeContours splices contour b into contour a at the pair of vertices
// closest to each other, producing one contour containing both loops joined
// by a zero-area bridge. Fixed from the source: contour b's raw data must be
// copied out of cb.Verts, not ca.Verts.
func mergeContours(ca, cb *RcContour, ia, ib int) bool {
	maxVerts := ca.NVerts + cb.NVerts + 2
	verts := make([]int, maxVerts*4)

	nv := 0
	for i := 0; i <= ca.NVerts; i++ {
		dst := nv * 4
		src := rcGetVert4(ca.Verts, (ia+i)%ca.NVerts)
		copy(verts[dst:dst+4], src[:4])
		nv++
	}
	for i := 0; i <= cb.NVerts; i++ {
		dst := nv * 4
		src := rcGetVert4(cb.Verts, (ib+i)%cb.NVerts)
		copy(verts[dst:dst+4], src[:4])
		nv++
	}

	ca.Verts = verts
	ca.NVerts = nv
	cb.Verts = nil
	cb.NVerts = 0
	return true
}

// RcContourHole is a hole contour that still needs merging into its
// enclosing region outline.
type RcContourHole struct {
	Contour       *RcContour
	MinX, MinZ    int
	LeftMost      int
}

// RcContourRegion groups the outline and holes traced for one region id.
type RcContourRegion struct {
	Outline *RcContour
	Holes   []*RcContourHole
}

type rcPotentialDiagonal struct {
	Vert, Dist int
}

func findLeftMostVertex(contour *RcContour, minX, minZ, leftMost *int) {
	*minX = contour.Verts[0]
	*minZ = contour.Verts[2]
	*leftMost = 0
	for i := 1; i < contour.NVerts; i++ {
		x := contour.Verts[i*4]
		z := contour.Verts[i*4+2]
		if x < *minX || (x == *minX && z < *minZ) {
			*minX = x
			*minZ = z
			*leftMost = i
		}
	}
}

// mergeRegionHoles stitches every hole traced inside a region back into that
// region's outline, so the final contour set has exactly one loop per
// region. Fixed from the source: the diagonal-intersection test must use
// the vertex just fetched (loop variable j), not the outer loop's i.
func mergeRegionHoles(region *RcContourRegion) {
	sort.Slice(region.Holes, func(i, j int) bool {
		a, b := region.Holes[i], region.Holes[j]
		if a.MinX == b.MinX {
			return a.MinZ < b.MinZ
		}
		return a.MinX < b.MinX
	})

	outline := region.Outline

	for _, hole := range region.Holes {
		index := -1
		bestVertex := hole.LeftMost
		for iter := 0; iter < len(hole.Contour.Verts)/4; iter++ {
			ndiags := hole.Contour.NVerts
			diags := make([]rcPotentialDiagonal, 0, ndiags)

			corner := rcGetVert4(hole.Contour.Verts, bestVertex)
			for i := 0; i < outline.NVerts; i++ {
				if contourInCone(i, outline.NVerts, outline.Verts, corner) {
					pt := rcGetVert4(outline.Verts, i)
					d := (pt[0]-corner[0])*(pt[0]-corner[0]) + (pt[2]-corner[2])*(pt[2]-corner[2])
					diags = append(diags, rcPotentialDiagonal{Vert: i, Dist: d})
				}
			}
			sort.Slice(diags, func(a, b int) bool { return diags[a].Dist < diags[b].Dist })

			for _, d := range diags {
				pt := rcGetVert4(outline.Verts, d.Vert)
				intersects := intersectSegContour(pt, corner, d.Vert, outline.NVerts, outline.Verts)
				for j := 0; j < ndiags && !intersects; j++ {
					intersects = intersectSegContour(pt, corner, diags[j].Vert, outline.NVerts, outline.Verts)
				}
				if !intersects {
					index = d.Vert
					break
				}
			}
			if index != -1 {
				break
			}
			bestVertex = (bestVertex + 1) % hole.Contour.NVerts
		}

		if index == -1 {
			continue
		}
		if !mergeContours(outline, hole.Contour, index, bestVertex) {
			continue
		}
	}
}

// RcBuildContours traces and simplifies a boundary polyline for every region
// in chf, writing the result into cset.
func RcBuildContours(chf *RcCompactHeightfield, maxError float64, maxEdgeLen int, cset *RcContourSet, buildFlags int) bool {
	w, h := chf.width, chf.height
	borderSize := chf.borderSize

	cset.Bmin = chf.bmin
	cset.Bmax = chf.bmax
	if borderSize > 0 {
		pad := float64(borderSize) * chf.cs
		cset.Bmin[0] += pad
		cset.Bmin[2] += pad
		cset.Bmax[0] -= pad
		cset.Bmax[2] -= pad
	}
	cset.Cs = chf.cs
	cset.Ch = chf.ch
	cset.Width = chf.width - chf.borderSize*2
	cset.Height = chf.height - chf.borderSize*2
	cset.BorderSize = chf.borderSize
	cset.MaxError = maxError

	flags := make([]int, chf.spanCount)

	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				res := 0
				s := chf.spans[i]
				if s.reg == 0 || s.reg&RC_BORDER_REG != 0 {
					flags[i] = 0
					continue
				}
				for dir := 0; dir < 4; dir++ {
					r := 0
					if rcGetCon(s, dir) != RC_NOT_CONNECTED {
						ax, az := x+rcGetDirOffsetX(dir), z+rcGetDirOffsetY(dir)
						ai := chf.cells[ax+az*w].index + rcGetCon(s, dir)
						r = chf.spans[ai].reg
					}
					if r == s.reg {
						res |= 1 << uint(dir)
					}
				}
				flags[i] = res ^ 0xf
			}
		}
	}

	var rawPoints, points []int
	regionByID := map[int]*RcContourRegion{}
	var order []int

	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				if flags[i] == 0 || flags[i] == 0xf {
					continue
				}
				reg := chf.spans[i].reg
				if reg == 0 || reg&RC_BORDER_REG != 0 {
					continue
				}
				area := chf.areas[i]

				rawPoints = rawPoints[:0]
				walkContour(x, z, i, chf, flags, &rawPoints)

				points = points[:0]
				simplifyContour(&rawPoints, &points, maxError, maxEdgeLen, buildFlags)
				removeDegenerateSegments(&points)

				if len(points)/4 < 3 {
					continue
				}

				cont := &RcContour{
					Verts:   append([]int{}, points...),
					NVerts:  len(points) / 4,
					RVerts:  append([]int{}, rawPoints...),
					NRVerts: len(rawPoints) / 4,
					Reg:     reg,
					Area:    area,
				}

				rr, ok := regionByID[reg]
				if !ok {
					rr = &RcContourRegion{}
					regionByID[reg] = rr
					order = append(order, reg)
				}
				a := calcAreaOfPolygon2D(cont.Verts, cont.NVerts)
				if a < 0 {
					// Clockwise winding: this is an outline, not a hole.
					rr.Outline = cont
				} else {
					minX, minZ, leftMost := 0, 0, 0
					findLeftMostVertex(cont, &minX, &minZ, &leftMost)
					rr.Holes = append(rr.Holes, &RcContourHole{Contour: cont, MinX: minX, MinZ: minZ, LeftMost: leftMost})
				}
				// Only the first walk per span is meaningful; the flags
				// consumed by walkContour prevent revisits within a region.
			}
		}
	}

	for _, reg := range order {
		rr := regionByID[reg]
		if rr.Outline == nil {
			continue
		}
		if len(rr.Holes) > 0 {
			mergeRegionHoles(rr)
		}
		cset.Conts = append(cset.Conts, rr.Outline)
	}
	cset.NConts = len(cset.Conts)
	return true
}
