package si

import "testing"

func assertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Fatal(msg)
	}
}

func TestCoordRoundTrip(t *testing.T) {
	// Spec §8 invariant 1: for every (adt_x, adt_y, chunk_x, chunk_y),
	// converting chunk center to world then world->adt->chunk returns the
	// original quadruple.
	for adtX := 0; adtX < TileCount; adtX += 7 {
		for adtY := 0; adtY < TileCount; adtY += 11 {
			for chunkX := 0; chunkX < ChunksPerTile; chunkX++ {
				for chunkY := 0; chunkY < ChunksPerTile; chunkY++ {
					wx, wy := ChunkCenterToWorld(adtX, adtY, chunkX, chunkY)
					gotAdtX, gotAdtY, gotChunkX, gotChunkY, err := WorldToAdtChunk(wx, wy)
					if err != nil {
						t.Fatalf("unexpected error for adt(%d,%d) chunk(%d,%d): %v", adtX, adtY, chunkX, chunkY, err)
					}
					if gotAdtX != adtX || gotAdtY != adtY || gotChunkX != chunkX || gotChunkY != chunkY {
						t.Fatalf("round trip mismatch: got adt(%d,%d) chunk(%d,%d), want adt(%d,%d) chunk(%d,%d)",
							gotAdtX, gotAdtY, gotChunkX, gotChunkY, adtX, adtY, chunkX, chunkY)
					}
				}
			}
		}
	}
}

func TestWorldToAdtOutsideRange(t *testing.T) {
	_, _, err := WorldToAdt(1e9, 1e9)
	assertTrue(t, err != nil, "expected Outside error")
}

func TestAABBTreeRayCastFlatSquare(t *testing.T) {
	// A single flat quad (two triangles) at z=0, matching the S1 scenario
	// terrain shape.
	verts := [][3]float64{
		{0, 0, 0}, {100, 0, 0}, {100, 100, 0}, {0, 100, 0},
	}
	indices := []int{0, 1, 2, 0, 2, 3}
	tree := Build(verts, indices, 0)

	hit, ok := tree.RayCast(Ray{Origin: [3]float64{50, 50, 10}, Dir: [3]float64{0, 0, -1}})
	assertTrue(t, ok, "expected hit")
	assertTrue(t, hit.T > 9.9 && hit.T < 10.1, "expected hit distance ~10")
}

func TestAABBTreeRayCastMiss(t *testing.T) {
	verts := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	tree := Build(verts, []int{0, 1, 2}, 0)
	_, ok := tree.RayCast(Ray{Origin: [3]float64{100, 100, 10}, Dir: [3]float64{0, 0, -1}})
	assertTrue(t, !ok, "expected miss")
}
