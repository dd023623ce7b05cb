package physics

import (
	"math"

	"voxelscape/internal/world"
)

func cellIndex(v float32) int {
	return int(math.Floor(float64(v) / world.BlockWidth))
}

// Collides reports whether a box standing at pos (feet center) with the given
// half width and height overlaps any filled block. Unloaded chunks are empty.
func Collides(w *world.World, pos world.WorldPos, halfWidth, height float32) bool {
	minX, maxX := pos.X()-halfWidth, pos.X()+halfWidth
	minY, maxY := pos.Y(), pos.Y()+height
	minZ, maxZ := pos.Z()-halfWidth, pos.Z()+halfWidth

	for x := cellIndex(minX); x <= cellIndex(maxX); x++ {
		for y := cellIndex(minY); y <= cellIndex(maxY); y++ {
			for z := cellIndex(minZ); z <= cellIndex(maxZ); z++ {
				if !w.Block(world.GlobalGrid{X: x, Y: y, Z: z}).Filled() {
					continue
				}
				bx := float32(x) * world.BlockWidth
				by := float32(y) * world.BlockWidth
				bz := float32(z) * world.BlockWidth
				if minX < bx+world.BlockWidth && maxX > bx &&
					minY < by+world.BlockWidth && maxY > by &&
					minZ < bz+world.BlockWidth && maxZ > bz {
					return true
				}
			}
		}
	}
	return false
}

// GroundBelow finds the top of the highest filled block under a box at pos.
// It reports false when the column is empty or unloaded.
func GroundBelow(w *world.World, pos world.WorldPos, halfWidth float32) (float32, bool) {
	top := min(cellIndex(pos.Y()), world.ChunkHeight-1)
	best, found := float32(0), false
	for x := cellIndex(pos.X() - halfWidth); x <= cellIndex(pos.X()+halfWidth); x++ {
		for z := cellIndex(pos.Z() - halfWidth); z <= cellIndex(pos.Z()+halfWidth); z++ {
			for y := top; y >= 0; y-- {
				if w.Block(world.GlobalGrid{X: x, Y: y, Z: z}).Filled() {
					ground := float32(y+1) * world.BlockWidth
					if !found || ground > best {
						best, found = ground, true
					}
					break
				}
			}
		}
	}
	return best, found
}
