package si

import "math"

// DefaultLeafSize is the maximum number of triangles held by a leaf node
// (spec §4.2 "leaves hold <= K triangles (K configurable, default 4)").
const DefaultLeafSize = 4

type AABB struct {
	Min, Max [3]float64
}

func (b AABB) union(o AABB) AABB {
	var r AABB
	for i := 0; i < 3; i++ {
		r.Min[i] = math.Min(b.Min[i], o.Min[i])
		r.Max[i] = math.Max(b.Max[i], o.Max[i])
	}
	return r
}

func (b AABB) surfaceArea() float64 {
	d := [3]float64{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

type Ray struct {
	Origin, Dir [3]float64
}

// Hit is the result of the nearest ray/triangle intersection, tie-broken
// toward the lowest triangle index (spec §4.2).
type Hit struct {
	T             float64
	TriangleIndex int
}

type node struct {
	bounds      AABB
	left, right *node
	triangles   []int // leaf only: indices into the tree's index buffer, one per triangle (i*3)
}

// AABBTree is a balanced binary tree over the triangle soup of one model,
// answering nearest-hit ray queries against it. Grounded on the "SpatialPartition" ray-cast contract sketched in
// other_examples/aukilabs-hagall (InsertQuad/IntersectQuad/GetRegion), here
// specialized to static triangle-soup construction per spec §4.2.
type AABBTree struct {
	root     *node
	vertices [][3]float64
	indices  []int
	leafSize int
}

// Build constructs a balanced AABB tree over the given triangle soup.
// leafSize <= 0 uses DefaultLeafSize.
func Build(vertices [][3]float64, indices []int, leafSize int) *AABBTree {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	t := &AABBTree{vertices: vertices, indices: indices, leafSize: leafSize}
	triCount := len(indices) / 3
	tris := make([]int, triCount)
	for i := range tris {
		tris[i] = i * 3
	}
	t.root = t.build(tris)
	return t
}

func (t *AABBTree) triBounds(triStart int) AABB {
	a := t.vertices[t.indices[triStart]]
	b := t.vertices[t.indices[triStart+1]]
	c := t.vertices[t.indices[triStart+2]]
	box := AABB{Min: a, Max: a}
	for _, v := range [][3]float64{b, c} {
		for i := 0; i < 3; i++ {
			if v[i] < box.Min[i] {
				box.Min[i] = v[i]
			}
			if v[i] > box.Max[i] {
				box.Max[i] = v[i]
			}
		}
	}
	return box
}

func (t *AABBTree) build(tris []int) *node {
	n := &node{}
	for i, tri := range tris {
		b := t.triBounds(tri)
		if i == 0 {
			n.bounds = b
		} else {
			n.bounds = n.bounds.union(b)
		}
	}
	if len(tris) <= t.leafSize {
		n.triangles = tris
		return n
	}

	// Split along the bounding box's longest axis at the median centroid,
	// a standard median-split AABB tree build.
	extent := [3]float64{
		n.bounds.Max[0] - n.bounds.Min[0],
		n.bounds.Max[1] - n.bounds.Min[1],
		n.bounds.Max[2] - n.bounds.Min[2],
	}
	axis := 0
	if extent[1] > extent[axis] {
		axis = 1
	}
	if extent[2] > extent[axis] {
		axis = 2
	}

	centroid := func(tri int) float64 {
		b := t.triBounds(tri)
		return (b.Min[axis] + b.Max[axis]) / 2
	}

	sorted := append([]int(nil), tris...)
	insertionSortByKey(sorted, centroid)

	mid := len(sorted) / 2
	n.left = t.build(sorted[:mid])
	n.right = t.build(sorted[mid:])
	return n
}

func insertionSortByKey(s []int, key func(int) float64) {
	for i := 1; i < len(s); i++ {
		v := s[i]
		kv := key(v)
		j := i - 1
		for j >= 0 && key(s[j]) > kv {
			s[j+1] = s[j]
			j--
		}
		s[j+1] = v
	}
}

func (t *AABBTree) Vertices() [][3]float64 { return t.vertices }
func (t *AABBTree) Indices() []int         { return t.indices }
func (t *AABBTree) Bounds() AABB {
	if t.root == nil {
		return AABB{}
	}
	return t.root.bounds
}

// RayCast returns the nearest ray/triangle hit, or ok=false if the ray
// misses every triangle. Ties on T are broken toward the lowest triangle
// index (spec §4.2).
func (t *AABBTree) RayCast(r Ray) (hit Hit, ok bool) {
	if t.root == nil {
		return Hit{}, false
	}
	best := Hit{T: math.Inf(1), TriangleIndex: -1}
	t.rayCastNode(t.root, r, &best)
	if best.TriangleIndex < 0 {
		return Hit{}, false
	}
	return best, true
}

func (t *AABBTree) rayCastNode(n *node, r Ray, best *Hit) {
	if !rayIntersectsAABB(r, n.bounds, best.T) {
		return
	}
	if n.triangles != nil {
		for _, triStart := range n.triangles {
			a := t.vertices[t.indices[triStart]]
			b := t.vertices[t.indices[triStart+1]]
			c := t.vertices[t.indices[triStart+2]]
			if dist, ok := rayIntersectsTriangle(r, a, b, c); ok {
				triIdx := triStart / 3
				if dist < best.T || (dist == best.T && triIdx < best.TriangleIndex) {
					best.T = dist
					best.TriangleIndex = triIdx
				}
			}
		}
		return
	}
	t.rayCastNode(n.left, r, best)
	t.rayCastNode(n.right, r, best)
}

func rayIntersectsAABB(r Ray, b AABB, tMax float64) bool {
	tMin := 0.0
	for i := 0; i < 3; i++ {
		if r.Dir[i] == 0 {
			if r.Origin[i] < b.Min[i] || r.Origin[i] > b.Max[i] {
				return false
			}
			continue
		}
		inv := 1.0 / r.Dir[i]
		t0 := (b.Min[i] - r.Origin[i]) * inv
		t1 := (b.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

// rayIntersectsTriangle is the standard Moller-Trumbore test.
func rayIntersectsTriangle(r Ray, a, b, c [3]float64) (float64, bool) {
	const eps = 1e-9
	e1 := sub(b, a)
	e2 := sub(c, a)
	pvec := cross(r.Dir, e2)
	det := dot(e1, pvec)
	if det > -eps && det < eps {
		return 0, false
	}
	invDet := 1 / det
	tvec := sub(r.Origin, a)
	u := dot(tvec, pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	qvec := cross(tvec, e1)
	v := dot(r.Dir, qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := dot(e2, qvec) * invDet
	if dist < eps {
		return 0, false
	}
	return dist, true
}

func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
func dot(a, b [3]float64) float64 { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
