package world

import (
	"voxelscape/internal/profiling"
)

// lateral neighbors resolved once per exposure pass
type neighborhood struct {
	north, south, east, west *Chunk
}

func (c *Chunk) neighborhood() neighborhood {
	return neighborhood{
		north: c.NeighborNorth(),
		south: c.NeighborSouth(),
		east:  c.NeighborEast(),
		west:  c.NeighborWest(),
	}
}

// neighborType returns the type across face f of local cell (x, y, z).
// Unloaded chunks and cells above or below the column read as Air.
func (c *Chunk) neighborType(n *neighborhood, x, y, z int, f BlockFace) BlockType {
	dx, dy, dz := f.Offset()
	x, y, z = x+dx, y+dy, z+dz
	if y < 0 || y >= ChunkHeight {
		return BlockTypeAir
	}
	src := c
	switch {
	case x < 0:
		src, x = n.west, ChunkWidth-1
	case x >= ChunkWidth:
		src, x = n.east, 0
	case z < 0:
		src, z = n.south, ChunkWidth-1
	case z >= ChunkWidth:
		src, z = n.north, 0
	}
	if src == nil {
		return BlockTypeAir
	}
	return src.stripes[stripeIndex(x, y)][z].Type
}

// RecalcExposures rebuilds every face flag, the exposed-block set and the
// surface totals from scratch.
func (c *Chunk) RecalcExposures(surfaces *SurfaceTable) {
	defer profiling.Track("world.RecalcExposures")()

	n := c.neighborhood()
	c.exposed = c.exposed[:0]
	c.totals = SurfaceTotals{}

	for x := range ChunkWidth {
		for y := range ChunkHeight {
			s := &c.stripes[stripeIndex(x, y)]
			for z := range ChunkWidth {
				b := &s[z]
				b.Exposed = 0
				if !b.Type.Filled() {
					continue
				}
				eb := ExposedBlock{Local: LocalGrid{x, y, z}, Type: b.Type}
				for _, f := range AllFaces {
					nt := c.neighborType(&n, x, y, z, f)
					if nt.Filled() {
						continue
					}
					surf := surfaces.Surface(b.Type, f, nt)
					eb.Faces = eb.Faces.With(f)
					eb.Surfaces[f] = surf
					c.totals[surf]++
				}
				if eb.Faces != 0 {
					b.Exposed = eb.Faces
					c.exposed = append(c.exposed, eb)
				}
			}
		}
	}
	c.exposureStale = false
	c.meshStale = true
}
