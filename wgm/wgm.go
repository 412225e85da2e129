// Package wgm implements the World Geometry Model: the parsed, immutable
// representation of terrain tiles (ADTs), large obstacle models (WMOs), and
// prop models (doodads), plus their per-world placements.
//
// Types are grounded on original_source/parser/Include/Adt/Adt.hpp
// (AdtChunk/Adt) and original_source/pathfind/Model.hpp
// (WmoModel/DoodadModel/WmoInstance/DoodadInstance). Per spec §9's cyclic-
// reference design note, the C++ mix of owning and non-owning pointers
// (Map <-> Adt <-> Chunk <-> instances, weak_ptr<Model>) is replaced here by
// a central arena owned by Map: instances and models live in slices/maps
// keyed by stable integer ids, and chunks store id lists rather than
// pointers.
package wgm

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// AreaFlag classifies the origin of a triangle emitted by the World
// Geometry Model. The voxel pipeline does not read it: TBO and RNM tag
// triangles with vp's own area ids (vp.AreaADT and friends).
type AreaFlag uint8

const (
	AreaADT AreaFlag = iota
	AreaLiquid
	AreaWMO
	AreaDoodad
)

// InstanceID is a stable, arena-relative identifier for a WmoInstance or
// DoodadInstance. It never aliases a pointer and remains valid for the
// lifetime of the owning Map.
type InstanceID uint32

// AdtChunk is the atomic terrain parse unit: an 8x8 hole bitmap, terrain and
// liquid vertex/index arrays, and the ids of WMO/doodad instances that
// intersect it. Grounded on parser::AdtChunk.
type AdtChunk struct {
	HoleMap [8][8]bool

	TerrainVertices [][3]float64
	TerrainIndices  []int

	LiquidVertices [][3]float64
	LiquidIndices  []int

	WmoInstances    []InstanceID
	DoodadInstances []InstanceID

	AreaID     uint32
	MinZ, MaxZ float64
}

// AdtTile is a parsed, immutable 533.33-unit terrain tile: a 16x16 grid of
// chunks plus its bounding box. Grounded on parser::Adt.
type AdtTile struct {
	X, Y   int
	Bounds BoundingBox
	Chunks [16][16]*AdtChunk
}

func (a *AdtTile) Chunk(cx, cy int) *AdtChunk {
	if cx < 0 || cx >= 16 || cy < 0 || cy >= 16 {
		return nil
	}
	return a.Chunks[cx][cy]
}

type BoundingBox struct {
	Min, Max [3]float64
}

func (b BoundingBox) Intersects(o BoundingBox) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || b.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// Model is the shared, reference-counted triangle geometry behind
// one or more instances of the same model file. Grounded on
// pathfind::Model / DoodadModel / WmoModel.
type Model struct {
	Filename string
	Vertices [][3]float64
	Indices  []int
	// DoodadSets holds, for a WmoModel only, the per-set doodad instance ids
	// embedded in the WMO (pathfind::WmoModel::m_doodadSets).
	DoodadSets [][]InstanceID
}

// DoodadInstance is a placement of a DoodadModel: a stable id, model
// filename, world transform, and cached bounds. Grounded on
// pathfind::DoodadInstance.
type DoodadInstance struct {
	ID               InstanceID
	ModelFilename    string
	Transform        mgl64.Mat4
	InverseTransform mgl64.Mat4
	Bounds           BoundingBox
}

// WmoInstance is a placement of a WmoModel. Grounded on
// pathfind::WmoInstance.
type WmoInstance struct {
	ID               InstanceID
	ModelFilename    string
	DoodadSet        uint16
	Transform        mgl64.Mat4
	InverseTransform mgl64.Mat4
	Bounds           BoundingBox
}

// Map is the top-level parsed world: the WGM arena. It owns every parsed
// AdtTile, Model, and instance; nothing outside this package holds a
// pointer into another package's arena, satisfying spec §9's "forbid hidden
// singletons" note — a Map is constructed explicitly per open_map call, not
// vended from a process-global.
type Map struct {
	Name string
	data DataSource

	mu          sync.RWMutex
	present     map[[2]int]bool
	adts        map[[2]int]*AdtTile
	models      map[string]*Model
	wmoInsts    map[InstanceID]*WmoInstance
	doodadInsts map[InstanceID]*DoodadInstance
	nextID      InstanceID

	// adtInstances and modelRefs back ReleaseAdt's teardown: adtInstances
	// records which WmoInstance/DoodadInstance ids a given ADT's MODF/MDDF
	// placements allocated, and modelRefs counts how many still-live
	// instances (across every ADT) point at a given model filename. A model
	// is only ever dropped from models once its count reaches 0, per spec
	// §3's "models are freed only when the count reaches 0" invariant.
	adtInstances map[[2]int]adtInstanceSet
	modelRefs    map[string]int

	globalWmo *WmoInstance
}

// adtInstanceSet is the set of instance ids one ADT's parse produced.
type adtInstanceSet struct {
	wmo    []InstanceID
	doodad []InstanceID
}

// DataSource is the explicit, non-singleton context WGM parses through
// (spec §9 "Global state" note: the source's process-global archive reader
// is replaced by an injected context passed at construction).
type DataSource interface {
	// OpenWorldFile returns the raw bytes of the top-level world description
	// file for the named map.
	OpenWorldFile(mapName string) ([]byte, error)
	// OpenAdtFile returns the raw bytes of one ADT tile's file.
	OpenAdtFile(mapName string, x, y int) ([]byte, error)
	// OpenModelFile returns the raw bytes of a WMO or doodad model file.
	OpenModelFile(filename string) ([]byte, error)
}

func newMap(name string, data DataSource) *Map {
	return &Map{
		Name:         name,
		data:         data,
		present:      make(map[[2]int]bool),
		adts:         make(map[[2]int]*AdtTile),
		models:       make(map[string]*Model),
		wmoInsts:     make(map[InstanceID]*WmoInstance),
		doodadInsts:  make(map[InstanceID]*DoodadInstance),
		adtInstances: make(map[[2]int]adtInstanceSet),
		modelRefs:    make(map[string]int),
	}
}

func (m *Map) allocID() InstanceID {
	m.nextID++
	return m.nextID
}

// HasAdt reports whether (x,y) names an existing ADT tile in the world file
// table of contents, independent of whether it has been parsed yet.
func (m *Map) HasAdt(x, y int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.present[[2]int{x, y}]
}

// GetAdt returns the parsed AdtTile at (x,y), parsing it on first access.
// Parsing is idempotent: concurrent callers requesting the same tile
// observe exactly one parse.
func (m *Map) GetAdt(x, y int) (*AdtTile, error) {
	key := [2]int{x, y}

	m.mu.RLock()
	if t, ok := m.adts[key]; ok {
		m.mu.RUnlock()
		return t, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.adts[key]; ok {
		return t, nil
	}

	tile, err := m.parseAdt(x, y)
	if err != nil {
		return nil, err
	}
	m.adts[key] = tile
	return tile, nil
}

func (m *Map) GetWmoInstance(id InstanceID) (*WmoInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.wmoInsts[id]
	return inst, ok
}

func (m *Map) GetDoodadInstance(id InstanceID) (*DoodadInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.doodadInsts[id]
	return inst, ok
}

// GlobalWmoInstance returns the map's single global WMO, if this map is a
// WMO-only map (spec §8 S5) rather than open ADT terrain.
func (m *Map) GlobalWmoInstance() (*WmoInstance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.globalWmo == nil {
		return nil, false
	}
	return m.globalWmo, true
}

// GetModel returns the shared, arena-owned Model for filename, loading and
// caching it on first request. This cache is permanent and is meant for
// models referenced by parsed ADT placements (WmoInstance/DoodadInstance):
// ReleaseAdt is what eventually drops an entry, once nothing placed by any
// live ADT still needs it.
func (m *Map) GetModel(filename string) (*Model, error) {
	m.mu.RLock()
	if mdl, ok := m.models[filename]; ok {
		m.mu.RUnlock()
		return mdl, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if mdl, ok := m.models[filename]; ok {
		return mdl, nil
	}

	mdl, err := m.LoadModel(filename)
	if err != nil {
		return nil, err
	}
	m.models[filename] = mdl
	return mdl, nil
}

// LoadModel parses filename's model file without touching the permanent
// arena cache GetModel maintains. It exists for callers, like RNM's
// temporary-obstacle path, that keep their own bounded cache in front of the
// data source instead of pinning every model they ever look up in memory
// forever.
func (m *Map) LoadModel(filename string) (*Model, error) {
	raw, err := m.data.OpenModelFile(filename)
	if err != nil {
		return nil, err
	}
	return parseModel(filename, raw)
}

// retainModel counts one more live instance pointing at filename. Callers
// hold m.mu (either directly, or transitively through GetAdt's lock around
// parseAdt) whenever this runs.
func (m *Map) retainModel(filename string) {
	m.modelRefs[filename]++
}

// releaseModel drops one instance's reference to filename, evicting the
// model from the permanent cache once nothing references it anymore.
func (m *Map) releaseModel(filename string) {
	m.modelRefs[filename]--
	if m.modelRefs[filename] <= 0 {
		delete(m.modelRefs, filename)
		delete(m.models, filename)
	}
}

// ReleaseAdt drops (x, y)'s parsed AdtTile from the arena along with every
// WmoInstance/DoodadInstance its MODF/MDDF placements allocated, and any
// Model that was only referenced by those instances. It is the WGM half of
// spec §4.4's "an ADT may be unloaded only when all its chunk counters are
// zero" and §3's "models are freed only when the count reaches 0"
// invariants; TBO's Orchestrator calls it once an ADT's chunk reference
// counter returns to zero. Releasing an ADT that was never parsed, or has
// already been released, is a no-op.
func (m *Map) ReleaseAdt(x, y int) {
	key := [2]int{x, y}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.adts, key)

	ids, ok := m.adtInstances[key]
	if !ok {
		return
	}
	delete(m.adtInstances, key)

	for _, id := range ids.wmo {
		inst, ok := m.wmoInsts[id]
		if !ok {
			continue
		}
		delete(m.wmoInsts, id)
		m.releaseModel(inst.ModelFilename)
	}
	for _, id := range ids.doodad {
		inst, ok := m.doodadInsts[id]
		if !ok {
			continue
		}
		delete(m.doodadInsts, id)
		m.releaseModel(inst.ModelFilename)
	}
}
