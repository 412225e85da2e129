// Package si implements the Spatial Index: world<->tile<->chunk coordinate
// folding and an AABB tree over triangle soup that answers ray queries.
// The voxel pipeline does not go through the tree: TBO gathers each nav
// tile's triangles from the parsed chunks directly.
//
// Coordinate conventions are reproduced exactly from spec §4.2: the world
// is rotated 90 degrees in tile space (world Y decreases with tile x; world
// X decreases with tile y), and out-of-range lookups return xerr.Outside
// rather than clamping silently.
package si

import (
	"math"

	"github.com/luke-gav/namigator/internal/xerr"
)

// TileSize is the ADT edge length in world units: 533 + 1/3 (spec §3
// GLOSSARY).
const TileSize = 533.0 + 1.0/3.0

const ChunksPerTile = 16
const ChunkSize = TileSize / ChunksPerTile
const TileCount = 64

// worldHalfExtent is the world-space distance from the origin to the tile
// (0,0) corner: the world spans (-worldHalfExtent, +worldHalfExtent] on
// both axes.
const worldHalfExtent = (TileCount / 2.0) * TileSize

// WorldToAdt converts a world position into its containing ADT tile
// coordinate, honoring the source's axis rotation: world Y decreases with
// tile X, and world X decreases with tile Y.
func WorldToAdt(worldX, worldY float64) (tileX, tileY int, err error) {
	tileX = int(math.Floor((worldHalfExtent - worldY) / TileSize))
	tileY = int(math.Floor((worldHalfExtent - worldX) / TileSize))
	if tileX < 0 || tileX >= TileCount || tileY < 0 || tileY >= TileCount {
		return 0, 0, xerr.WithCoord(xerr.Outside, xerr.AdtCoord(tileX, tileY), "world position outside 64x64 grid")
	}
	return tileX, tileY, nil
}

// WorldToAdtChunk additionally resolves the chunk within the ADT, applying
// the same axis convention one level down.
func WorldToAdtChunk(worldX, worldY float64) (adtX, adtY, chunkX, chunkY int, err error) {
	adtX, adtY, err = WorldToAdt(worldX, worldY)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	localY := (worldHalfExtent - worldY) - float64(adtX)*TileSize
	localX := (worldHalfExtent - worldX) - float64(adtY)*TileSize
	chunkX = int(math.Floor(localY / ChunkSize))
	chunkY = int(math.Floor(localX / ChunkSize))
	if chunkX < 0 || chunkX >= ChunksPerTile || chunkY < 0 || chunkY >= ChunksPerTile {
		return 0, 0, 0, 0, xerr.WithCoord(xerr.Outside, xerr.AdtCoord(adtX, adtY), "chunk position outside 16x16 grid")
	}
	return adtX, adtY, chunkX, chunkY, nil
}

// ChunkCenterToWorld returns the world-space center of chunk (chunkX,
// chunkY) within ADT (adtX, adtY). Round-tripping this through
// WorldToAdtChunk must return the original quadruple (spec §8 invariant 1).
func ChunkCenterToWorld(adtX, adtY, chunkX, chunkY int) (worldX, worldY float64) {
	localY := (float64(chunkX) + 0.5) * ChunkSize
	localX := (float64(chunkY) + 0.5) * ChunkSize
	worldY = worldHalfExtent - float64(adtX)*TileSize - localY
	worldX = worldHalfExtent - float64(adtY)*TileSize - localX
	return worldX, worldY
}

// AdtBounds returns the world-space AABB (in the X/Y plane) of ADT tile
// (adtX, adtY).
func AdtBounds(adtX, adtY int) (minX, minY, maxX, maxY float64) {
	maxY = worldHalfExtent - float64(adtX)*TileSize
	minY = maxY - TileSize
	maxX = worldHalfExtent - float64(adtY)*TileSize
	minX = maxX - TileSize
	return minX, minY, maxX, maxY
}
