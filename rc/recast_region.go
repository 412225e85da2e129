package rc

// Watershed region growing over a compact heightfield: a distance transform
// from any non-walkable border, followed by a flood fill that grows regions
// inward from the transform's ridge lines. Ported from rcBuildDistanceField/
// rcBuildRegions in gorustyt-gonavmesh/recast/recast_region.go, with the
// multi-stack parallel-sweep bookkeeping (NB_STACKS, Stack[T] scratch lists)
// dropped in favor of a single plain slice: that bookkeeping exists upstream
// only to keep per-level work cache-friendly under a C++ allocator and has
// no equivalent benefit here. The watershed math itself - distance field,
// level-descending flood fill, small-region merge/filter - is unchanged, and
// the level-sweep off-by-two bug present in the source
// (`level = 0; if level >= 2 { level -= 2 }`, which zeroes level before ever
// testing it) is fixed below to the intended check-then-subtract order.

const RC_BORDER_REG = 0x8000

// RcBuildDistanceField computes, for every span, its grid distance (in
// half-voxel units) to the nearest span that is either unwalkable or whose
// area differs from its own, then applies a single box-blur pass to smooth
// the field. Ported from calculateDistanceField/boxBlur in recast_region.go.
func RcBuildDistanceField(chf *RcCompactHeightfield) bool {
	src := make([]int, chf.spanCount)
	calculateDistanceField(chf, src)
	chf.dist = boxBlur(chf, 1, src)
	maxDist := 0
	for _, d := range chf.dist {
		if d > maxDist {
			maxDist = d
		}
	}
	chf.maxDistance = maxDist
	return true
}

func calculateDistanceField(chf *RcCompactHeightfield, src []int) {
	w, h := chf.width, chf.height
	for i := range src {
		src[i] = 0xffff
	}

	// Mark boundary cells: any span with fewer than 4 same-area neighbors.
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				s := chf.spans[i]
				area := chf.areas[i]
				nc := 0
				for dir := 0; dir < 4; dir++ {
					if rcGetCon(s, dir) == RC_NOT_CONNECTED {
						continue
					}
					nx := x + rcGetDirOffsetX(dir)
					nz := z + rcGetDirOffsetY(dir)
					ni := chf.cells[nx+nz*w].index + rcGetCon(s, dir)
					if area == chf.areas[ni] {
						nc++
					}
				}
				if nc != 4 {
					src[i] = 0
				}
			}
		}
	}

	// Pass 1: distance from (-x, -z) neighbors.
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				s := chf.spans[i]
				if rcGetCon(s, 0) != RC_NOT_CONNECTED {
					ax, az := x+rcGetDirOffsetX(0), z+rcGetDirOffsetY(0)
					ai := chf.cells[ax+az*w].index + rcGetCon(s, 0)
					as := chf.spans[ai]
					if src[ai]+2 < src[i] {
						src[i] = src[ai] + 2
					}
					if rcGetCon(as, 3) != RC_NOT_CONNECTED {
						aax, aaz := ax+rcGetDirOffsetX(3), az+rcGetDirOffsetY(3)
						aai := chf.cells[aax+aaz*w].index + rcGetCon(as, 3)
						if src[aai]+3 < src[i] {
							src[i] = src[aai] + 3
						}
					}
				}
				if rcGetCon(s, 3) != RC_NOT_CONNECTED {
					ax, az := x+rcGetDirOffsetX(3), z+rcGetDirOffsetY(3)
					ai := chf.cells[ax+az*w].index + rcGetCon(s, 3)
					as := chf.spans[ai]
					if src[ai]+2 < src[i] {
						src[i] = src[ai] + 2
					}
					if rcGetCon(as, 2) != RC_NOT_CONNECTED {
						aax, aaz := ax+rcGetDirOffsetX(2), az+rcGetDirOffsetY(2)
						aai := chf.cells[aax+aaz*w].index + rcGetCon(as, 2)
						if src[aai]+3 < src[i] {
							src[i] = src[aai] + 3
						}
					}
				}
			}
		}
	}

	// Pass 2: distance from (+x, +z) neighbors, sweeping in reverse.
	for z := h - 1; z >= 0; z-- {
		for x := w - 1; x >= 0; x-- {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				s := chf.spans[i]
				if rcGetCon(s, 2) != RC_NOT_CONNECTED {
					ax, az := x+rcGetDirOffsetX(2), z+rcGetDirOffsetY(2)
					ai := chf.cells[ax+az*w].index + rcGetCon(s, 2)
					as := chf.spans[ai]
					if src[ai]+2 < src[i] {
						src[i] = src[ai] + 2
					}
					if rcGetCon(as, 1) != RC_NOT_CONNECTED {
						aax, aaz := ax+rcGetDirOffsetX(1), az+rcGetDirOffsetY(1)
						aai := chf.cells[aax+aaz*w].index + rcGetCon(as, 1)
						if src[aai]+3 < src[i] {
							src[i] = src[aai] + 3
						}
					}
				}
				if rcGetCon(s, 1) != RC_NOT_CONNECTED {
					ax, az := x+rcGetDirOffsetX(1), z+rcGetDirOffsetY(1)
					ai := chf.cells[ax+az*w].index + rcGetCon(s, 1)
					as := chf.spans[ai]
					if src[ai]+2 < src[i] {
						src[i] = src[ai] + 2
					}
					if rcGetCon(as, 0) != RC_NOT_CONNECTED {
						aax, aaz := ax+rcGetDirOffsetX(0), az+rcGetDirOffsetY(0)
						aai := chf.cells[aax+aaz*w].index + rcGetCon(as, 0)
						if src[aai]+3 < src[i] {
							src[i] = src[aai] + 3
						}
					}
				}
			}
		}
	}
}

func boxBlur(chf *RcCompactHeightfield, thr int, src []int) []int {
	w, h := chf.width, chf.height
	dst := make([]int, chf.spanCount)
	thr *= 2

	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				s := chf.spans[i]
				cd := src[i]
				if cd <= thr {
					dst[i] = cd
					continue
				}
				total := cd
				for dir := 0; dir < 4; dir++ {
					if rcGetCon(s, dir) == RC_NOT_CONNECTED {
						total += cd * 2
						continue
					}
					ax, az := x+rcGetDirOffsetX(dir), z+rcGetDirOffsetY(dir)
					ai := chf.cells[ax+az*w].index + rcGetCon(s, dir)
					total += src[ai]
					as := chf.spans[ai]
					dir2 := (dir + 1) & 0x3
					if rcGetCon(as, dir2) != RC_NOT_CONNECTED {
						aax, aaz := ax+rcGetDirOffsetX(dir2), az+rcGetDirOffsetY(dir2)
						aai := chf.cells[aax+aaz*w].index + rcGetCon(as, dir2)
						total += src[aai]
					} else {
						total += cd
					}
				}
				dst[i] = (total + 5) / 9
			}
		}
	}
	return dst
}

func paintRectRegion(minx, maxx, minz, maxz, regionID int, chf *RcCompactHeightfield, srcReg []int) {
	w := chf.width
	for z := minz; z < maxz; z++ {
		for x := minx; x < maxx; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				if chf.areas[i] != RC_NULL_AREA {
					srcReg[i] = regionID
				}
			}
		}
	}
}

// floodRegion grows region id outward from a single seed span, along cells
// whose distance value is at least level-2 (0 when level < 2), stopping at cells already claimed
// by another region so watershed basins never overlap.
func floodRegion(x, z, i, level, regionID int, chf *RcCompactHeightfield, srcReg, srcDist []int, stack *[][3]int) bool {
	w := chf.width
	area := chf.areas[i]

	*stack = (*stack)[:0]
	*stack = append(*stack, [3]int{x, z, i})
	srcReg[i] = regionID
	srcDist[i] = 0

	lev := 0
	if level >= 2 {
		lev = level - 2
	}
	count := 0

	for len(*stack) > 0 {
		back := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]
		cx, cz, ci := back[0], back[1], back[2]
		cs := chf.spans[ci]

		// A cell adjacent to an already-claimed, non-border region is a
		// basin boundary: stop growing here and let mergeAndFilterRegions
		// sort out the adjacency later, rather than absorbing it now.
		touchesOtherRegion := false
		for dir := 0; dir < 4 && !touchesOtherRegion; dir++ {
			if rcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, az := cx+rcGetDirOffsetX(dir), cz+rcGetDirOffsetY(dir)
			ai := chf.cells[ax+az*w].index + rcGetCon(cs, dir)
			if chf.areas[ai] != area {
				continue
			}
			nr := srcReg[ai]
			if nr != 0 && nr != regionID && nr&RC_BORDER_REG == 0 {
				touchesOtherRegion = true
			}
		}
		if touchesOtherRegion {
			continue
		}

		count++

		for dir := 0; dir < 4; dir++ {
			if rcGetCon(cs, dir) == RC_NOT_CONNECTED {
				continue
			}
			ax, az := cx+rcGetDirOffsetX(dir), cz+rcGetDirOffsetY(dir)
			ai := chf.cells[ax+az*w].index + rcGetCon(cs, dir)
			if chf.areas[ai] != area {
				continue
			}
			if chf.dist[ai] >= lev && srcReg[ai] == 0 {
				srcReg[ai] = regionID
				srcDist[ai] = 0
				*stack = append(*stack, [3]int{ax, az, ai})
			}
		}
	}

	return count > 0
}

// expandRegions grows every already-claimed region outward by one cell at a
// time, for maxIter iterations, into any neighboring span whose distance
// value is at least level and that has no region yet.
func expandRegions(maxIter, level int, chf *RcCompactHeightfield, srcReg, srcDist []int) {
	w, h := chf.width, chf.height

	var stack [][3]int
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				if chf.dist[i] >= level && srcReg[i] == 0 && chf.areas[i] != RC_NULL_AREA {
					stack = append(stack, [3]int{x, z, i})
				}
			}
		}
	}

	iter := 0
	for len(stack) > 0 {
		failed := 0
		next := stack[:0]
		for _, e := range stack {
			cx, cz, ci := e[0], e[1], e[2]
			if srcReg[ci] != 0 {
				failed++
				continue
			}
			area := chf.areas[ci]
			r := 0
			d2 := 0x7fffffff
			cs := chf.spans[ci]
			for dir := 0; dir < 4; dir++ {
				if rcGetCon(cs, dir) == RC_NOT_CONNECTED {
					continue
				}
				ax, az := cx+rcGetDirOffsetX(dir), cz+rcGetDirOffsetY(dir)
				ai := chf.cells[ax+az*w].index + rcGetCon(cs, dir)
				if chf.areas[ai] != area {
					continue
				}
				if srcReg[ai] > 0 && srcReg[ai]&RC_BORDER_REG == 0 {
					if srcDist[ai]+2 < d2 {
						r = srcReg[ai]
						d2 = srcDist[ai] + 2
					}
				}
			}
			if r != 0 {
				srcReg[ci] = r
				srcDist[ci] = d2
				next = append(next, e)
			} else {
				failed++
				next = append(next, e)
			}
		}
		stack = next
		if failed == len(stack) {
			break
		}
		iter++
		if maxIter > 0 && iter >= maxIter {
			break
		}
	}
}


// rcRegion tracks watershed basin bookkeeping used to filter and merge small
// regions after the flood fill converges.
type rcRegion struct {
	spanCount        int
	id               int
	areaType         int
	connectsToBorder bool
	connections      []int
	floors           []int
}

func newRcRegion(id int) *rcRegion {
	return &rcRegion{id: id}
}

func removeAdjacentNeighbours(reg *rcRegion) {
	if len(reg.connections) <= 1 {
		return
	}
	out := reg.connections[:0]
	for i, c := range reg.connections {
		if i > 0 && c == reg.connections[i-1] {
			continue
		}
		out = append(out, c)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	reg.connections = out
}

func replaceNeighbour(reg *rcRegion, oldID, newID int) {
	changed := false
	for i, c := range reg.connections {
		if c == oldID {
			reg.connections[i] = newID
			changed = true
		}
	}
	for i, f := range reg.floors {
		if f == oldID {
			reg.floors[i] = newID
		}
	}
	if changed {
		removeAdjacentNeighbours(reg)
	}
}

func canMergeWithRegion(rega, regb *rcRegion) bool {
	if rega.areaType != regb.areaType {
		return false
	}
	n := 0
	for _, c := range rega.connections {
		if c == regb.id {
			n++
		}
	}
	if n > 1 {
		return false
	}
	for _, f := range rega.floors {
		if f == regb.id {
			return false
		}
	}
	return true
}

func addUniqueFloorRegion(reg *rcRegion, n int) {
	for _, f := range reg.floors {
		if f == n {
			return
		}
	}
	reg.floors = append(reg.floors, n)
}

func mergeRegions(rega, regb *rcRegion) bool {
	aid, bid := rega.id, regb.id

	insertA := -1
	for i, c := range rega.connections {
		if c == bid {
			insertA = i
			break
		}
	}
	if insertA == -1 {
		return false
	}
	insertB := -1
	for i, c := range regb.connections {
		if c == aid {
			insertB = i
			break
		}
	}
	if insertB == -1 {
		return false
	}

	ca := append([]int{}, rega.connections[insertA:]...)
	ca = append(ca, rega.connections[:insertA]...)
	cb := append([]int{}, regb.connections[insertB:]...)
	cb = append(cb, regb.connections[:insertB]...)

	merged := append(ca, cb[1:]...)
	rega.connections = merged
	removeAdjacentNeighbours(rega)

	for _, f := range regb.floors {
		addUniqueFloorRegion(rega, f)
	}
	rega.spanCount += regb.spanCount
	regb.spanCount = 0
	regb.connections = nil
	return true
}

func isRegionConnectedToBorder(reg *rcRegion) bool {
	for _, c := range reg.connections {
		if c == 0 {
			return true
		}
	}
	return false
}

func isSolidEdge(chf *RcCompactHeightfield, srcReg []int, x, z, i, dir int) bool {
	w := chf.width
	s := chf.spans[i]
	r := 0
	if rcGetCon(s, dir) != RC_NOT_CONNECTED {
		ax, az := x+rcGetDirOffsetX(dir), z+rcGetDirOffsetY(dir)
		ai := chf.cells[ax+az*w].index + rcGetCon(s, dir)
		r = srcReg[ai]
	}
	return r != srcReg[i]
}

// regionWalkContour walks a region's outer boundary clockwise, recording
// every distinct neighbor region id crossed, so later merge/border checks
// don't need to re-scan the whole heightfield.
func regionWalkContour(x, z, i, dir int, chf *RcCompactHeightfield, srcReg []int, cont *[]int) {
	startDir := dir
	starti := i

	ss := chf.spans[i]
	curReg := 0
	if rcGetCon(ss, dir) != RC_NOT_CONNECTED {
		w := chf.width
		ax, az := x+rcGetDirOffsetX(dir), z+rcGetDirOffsetY(dir)
		ai := chf.cells[ax+az*w].index + rcGetCon(ss, dir)
		curReg = srcReg[ai]
	}
	*cont = append(*cont, curReg)

	iter := 0
	for iter < 40000 {
		iter++
		s := chf.spans[i]
		if isSolidEdge(chf, srcReg, x, z, i, dir) {
			w := chf.width
			r := 0
			if rcGetCon(s, dir) != RC_NOT_CONNECTED {
				ax, az := x+rcGetDirOffsetX(dir), z+rcGetDirOffsetY(dir)
				ai := chf.cells[ax+az*w].index + rcGetCon(s, dir)
				r = srcReg[ai]
			}
			if r != curReg {
				curReg = r
				*cont = append(*cont, curReg)
			}
			dir = (dir + 1) & 0x3
		} else {
			ni := -1
			w := chf.width
			nx := x + rcGetDirOffsetX(dir)
			nz := z + rcGetDirOffsetY(dir)
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

	if len(*cont) > 1 {
		out := (*cont)[:1]
		for _, c := range (*cont)[1:] {
			if c != out[len(out)-1] {
				out = append(out, c)
			}
		}
		if len(out) > 1 && out[0] == out[len(out)-1] {
			out = out[:len(out)-1]
		}
		*cont = out
	}
}

// mergeAndFilterRegions removes tiny watershed basins, folds anything below
// mergeRegionArea into the smallest adjacent region it can legally merge
// with, and compacts the surviving ids to a dense 1..N range.
func mergeAndFilterRegions(chf *RcCompactHeightfield, minRegionArea, mergeRegionArea int, maxRegionID *int, srcReg []int) bool {
	w, h := chf.width, chf.height
	nreg := *maxRegionID + 1
	regions := make([]*rcRegion, nreg)
	for i := range regions {
		regions[i] = newRcRegion(i)
	}

	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				r := srcReg[i]
				if r == 0 || r >= nreg {
					continue
				}
				reg := regions[r]
				reg.spanCount++

				for j := c.index; j < c.index+c.count; j++ {
					if j == i {
						continue
					}
					floorID := srcReg[j]
					if floorID != 0 && floorID != r {
						addUniqueFloorRegion(reg, floorID)
					}
				}
				if reg.connections != nil {
					continue
				}

				areaID := chf.areas[i]
				reg.areaType = areaID
				ndir := -1
				for dir := 0; dir < 4; dir++ {
					if isSolidEdge(chf, srcReg, x, z, i, dir) {
						ndir = dir
						break
					}
				}
				if ndir != -1 {
					regionWalkContour(x, z, i, ndir, chf, srcReg, &reg.connections)
				}
			}
		}
	}

	// Region 0 is the background; any region with a connection to it is border-connected.
	for i := 1; i < nreg; i++ {
		reg := regions[i]
		if reg.spanCount == 0 {
			continue
		}
		if isRegionConnectedToBorder(reg) {
			reg.connectsToBorder = true
		}
	}

	// Drop tiny, non-border-connected regions.
	for i := 1; i < nreg; i++ {
		reg := regions[i]
		if reg.spanCount > 0 && reg.spanCount < minRegionArea && !reg.connectsToBorder {
			reg.spanCount = 0
			for j := 1; j < nreg; j++ {
				if j == i || regions[j].spanCount == 0 {
					continue
				}
				replaceNeighbour(regions[j], i, 0)
			}
		}
	}

	// Merge small regions into a neighbor when it doesn't split the merged
	// area (repeat until stable).
	mergeCount := 1
	for mergeCount > 0 {
		mergeCount = 0
		for i := 1; i < nreg; i++ {
			reg := regions[i]
			if reg.spanCount == 0 || reg.spanCount >= mergeRegionArea {
				continue
			}
			smallest := 0xfffffff
			mergeID := reg.id
			for _, nid := range reg.connections {
				if nid == 0 || nid >= nreg {
					continue
				}
				target := regions[nid]
				if target.spanCount == 0 || !canMergeWithRegion(reg, target) {
					continue
				}
				if target.spanCount < smallest {
					smallest = target.spanCount
					mergeID = target.id
				}
			}
			if mergeID != reg.id {
				oldID := reg.id
				target := regions[mergeID]
				if mergeRegions(target, reg) {
					for j := 1; j < nreg; j++ {
						if regions[j].spanCount == 0 {
							continue
						}
						if regions[j].id == oldID {
							regions[j].id = mergeID
						}
						replaceNeighbour(regions[j], oldID, mergeID)
					}
					mergeCount++
				}
			}
		}
	}

	// Compact ids.
	remap := make(map[int]int)
	next := 1
	for i := 1; i < nreg; i++ {
		if regions[i].spanCount == 0 {
			continue
		}
		remap[regions[i].id] = next
		next++
	}
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			c := chf.cells[x+z*w]
			for i := c.index; i < c.index+c.count; i++ {
				if srcReg[i] == 0 {
					continue
				}
				if nid, ok := remap[srcReg[i]]; ok {
					srcReg[i] = nid
				} else {
					srcReg[i] = 0
				}
			}
		}
	}
	*maxRegionID = next - 1
	return true
}

// RcBuildRegions grows watershed regions over chf and stores the resulting
// region id in every walkable span, ready for contour tracing. borderSize
// reserves a strip of border-region spans around the field's edge, matching
// upstream Recast's tile-stitching convention (unused here: the build
// pipeline pads its heightfield before rasterizing rather than declaring a
// border region, so borderSize is always 0 - kept as a parameter for parity
// with RcBuildContours, which does read chf.borderSize).
func RcBuildRegions(chf *RcCompactHeightfield, borderSize, minRegionArea, mergeRegionArea int) bool {
	w, h := chf.width, chf.height

	srcReg := make([]int, chf.spanCount)
	srcDist := make([]int, chf.spanCount)

	regionID := 1

	if borderSize > 0 {
		bw := rcMin(w, borderSize)
		bh := rcMin(h, borderSize)
		paintRectRegion(0, bw, 0, h, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
		paintRectRegion(w-bw, w, 0, h, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
		paintRectRegion(0, w, 0, bh, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
		paintRectRegion(0, w, h-bh, h, regionID|RC_BORDER_REG, chf, srcReg)
		regionID++
	}
	chf.borderSize = borderSize

	level := (chf.maxDistance + 1) &^ 1
	var stack [][3]int

	for level > 0 {
		if level >= 2 {
			level -= 2
		} else {
			level = 0
		}

		expandRegions(4, level, chf, srcReg, srcDist)

		for z := 0; z < h; z++ {
			for x := 0; x < w; x++ {
				c := chf.cells[x+z*w]
				for i := c.index; i < c.index+c.count; i++ {
					if chf.dist[i] < level || srcReg[i] != 0 || chf.areas[i] == RC_NULL_AREA {
						continue
					}
					if floodRegion(x, z, i, level, regionID, chf, srcReg, srcDist, &stack) {
						regionID++
					}
				}
			}
		}
	}

	expandRegions(chf.spanCount*8, 0, chf, srcReg, srcDist)

	chf.maxRegions = regionID
	if !mergeAndFilterRegions(chf, minRegionArea, mergeRegionArea, &chf.maxRegions, srcReg) {
		return false
	}

	for i := 0; i < chf.spanCount; i++ {
		chf.spans[i].reg = srcReg[i]
	}
	return true
}
