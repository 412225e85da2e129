package rnm

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/luke-gav/namigator/wgm"
)

// obstacleModelCacheSize bounds how many distinct temporary-obstacle model
// filenames are held in memory at once. It has no relationship to WGM's own
// per-ADT-instance model cache (wgm.Map.GetModel/ReleaseAdt): temporary
// obstacles come and go independently of ADT load/unload, so their models
// need their own eviction policy rather than piggybacking on ADT lifetime.
const obstacleModelCacheSize = 256

// obstacleModelCache is the LRU spec §4.5 step 3 requires for resolving a
// temporary obstacle's model. It sits in front of wgm.Map.LoadModel, which
// reparses the model file on every miss and never caches on its own.
type obstacleModelCache struct {
	world *wgm.Map
	cache *lru.Cache[string, *wgm.Model]
}

func newObstacleModelCache(world *wgm.Map) *obstacleModelCache {
	return newObstacleModelCacheOfSize(world, obstacleModelCacheSize)
}

func newObstacleModelCacheOfSize(world *wgm.Map, size int) *obstacleModelCache {
	cache, err := lru.New[string, *wgm.Model](size)
	if err != nil {
		// Only returns an error for a non-positive size.
		panic(err)
	}
	return &obstacleModelCache{world: world, cache: cache}
}

// get returns filename's model, serving it from the LRU when resident and
// otherwise loading and inserting it, evicting the least-recently-used entry
// if the cache is already at capacity.
func (c *obstacleModelCache) get(filename string) (*wgm.Model, error) {
	if mdl, ok := c.cache.Get(filename); ok {
		return mdl, nil
	}
	mdl, err := c.world.LoadModel(filename)
	if err != nil {
		return nil, err
	}
	c.cache.Add(filename, mdl)
	return mdl, nil
}
