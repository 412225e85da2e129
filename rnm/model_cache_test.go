package rnm

import (
	"testing"

	"github.com/luke-gav/namigator/wgm"
)

// countingModelSource serves a distinct one-triangle model per filename and
// counts how many times each filename was actually loaded, so a test can
// tell a cache hit apart from a reload.
type countingModelSource struct {
	fakeSource
	loads map[string]int
}

func newCountingModelSource() *countingModelSource {
	return &countingModelSource{loads: make(map[string]int)}
}

func (s *countingModelSource) OpenModelFile(filename string) ([]byte, error) {
	s.loads[filename]++
	vertPayload := append([]byte{}, le32f(0)...)
	vertPayload = append(vertPayload, le32f(0)...)
	vertPayload = append(vertPayload, le32f(0)...)
	vertPayload = append(vertPayload, le32f(1)...)
	vertPayload = append(vertPayload, le32f(0)...)
	vertPayload = append(vertPayload, le32f(0)...)
	vertPayload = append(vertPayload, le32f(0)...)
	vertPayload = append(vertPayload, le32f(1)...)
	vertPayload = append(vertPayload, le32f(0)...)
	indexPayload := append([]byte{}, le32(0)...)
	indexPayload = append(indexPayload, le32(1)...)
	indexPayload = append(indexPayload, le32(2)...)

	var buf []byte
	buf = append(buf, chunkBytes("MVRT", vertPayload)...)
	buf = append(buf, chunkBytes("MIND", indexPayload)...)
	return buf, nil
}

// TestObstacleModelCacheHitsSkipReload covers spec §4.5 step 3's shared
// model cache: resolving the same filename twice must load the underlying
// model file only once.
func TestObstacleModelCacheHitsSkipReload(t *testing.T) {
	src := newCountingModelSource()
	cache := newObstacleModelCacheOfSize(mustOpenWorld(t, src), 8)

	if _, err := cache.get("a.mdl"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, err := cache.get("a.mdl"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	assertTrue(t, src.loads["a.mdl"] == 1, "expected the second get to be served from the cache")
}

// TestObstacleModelCacheEvictsLeastRecentlyUsed covers the "LRU" half of
// spec §4.5 step 3: once the cache is at capacity, inserting one more
// distinct filename evicts the least-recently-used entry rather than
// growing without bound.
func TestObstacleModelCacheEvictsLeastRecentlyUsed(t *testing.T) {
	src := newCountingModelSource()
	cache := newObstacleModelCacheOfSize(mustOpenWorld(t, src), 2)

	mustGet(t, cache, "a.mdl")
	mustGet(t, cache, "b.mdl")
	// Touching "a.mdl" again makes "b.mdl" the least-recently-used entry.
	mustGet(t, cache, "a.mdl")
	mustGet(t, cache, "c.mdl") // evicts "b.mdl", the cache is full at size 2

	mustGet(t, cache, "b.mdl")
	assertTrue(t, src.loads["b.mdl"] == 2, "expected b.mdl evicted and reloaded once the cache exceeded capacity")
	assertTrue(t, src.loads["a.mdl"] == 1, "expected a.mdl, touched most recently before the eviction, to survive")
}

func mustGet(t *testing.T, cache *obstacleModelCache, filename string) {
	t.Helper()
	if _, err := cache.get(filename); err != nil {
		t.Fatalf("get(%q) failed: %v", filename, err)
	}
}

func mustOpenWorld(t *testing.T, src *countingModelSource) *wgm.Map {
	t.Helper()
	world, err := wgm.OpenMap("TestWorld", src)
	if err != nil {
		t.Fatalf("OpenMap failed: %v", err)
	}
	return world
}
