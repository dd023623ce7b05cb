package world

// World is the resident landscape: the chunk table plus the surface rules
// used to classify exposed faces.
type World struct {
	*ChunkStore
	surfaces *SurfaceTable
}

// New creates an empty world. A nil table selects DefaultSurfaceTable.
func New(surfaces *SurfaceTable) *World {
	if surfaces == nil {
		surfaces = DefaultSurfaceTable()
	}
	return &World{ChunkStore: NewChunkStore(), surfaces: surfaces}
}

// Surfaces returns the surface rule table.
func (w *World) Surfaces() *SurfaceTable { return w.surfaces }

// Insert installs a freshly loaded chunk. Lateral neighbors read this chunk as
// Air until now, so their exposure is marked stale.
func (w *World) Insert(c *Chunk) {
	w.Put(c)
	for _, nb := range [4]*Chunk{c.NeighborNorth(), c.NeighborSouth(), c.NeighborEast(), c.NeighborWest()} {
		if nb != nil {
			nb.MarkExposureStale()
		}
	}
}

// Evict removes the chunk at o. Neighbors now see Air along the shared edge.
func (w *World) Evict(o ChunkOrigin) *Chunk {
	c := w.Remove(o)
	if c == nil {
		return nil
	}
	for _, d := range [4][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}} {
		if nb := w.Lookup(o.Offset(d[0], d[1])); nb != nil {
			nb.MarkExposureStale()
		}
	}
	return c
}

// Block returns the block type at g, Air when unloaded or outside the column.
func (w *World) Block(g GlobalGrid) BlockType {
	if !g.InHeight() {
		return BlockTypeAir
	}
	o := g.Origin()
	c := w.Lookup(o)
	if c == nil {
		return BlockTypeAir
	}
	return c.BlockType(GlobalGridToLocal(g, o))
}

// IsAir checks if the block at g is air
func (w *World) IsAir(g GlobalGrid) bool {
	return w.Block(g) == BlockTypeAir
}

// SetBlock edits the block at g. It reports false when the chunk is not
// loaded or the type is unchanged.
func (w *World) SetBlock(g GlobalGrid, t BlockType) bool {
	if !g.InHeight() {
		return false
	}
	o := g.Origin()
	c := w.Lookup(o)
	if c == nil {
		return false
	}
	l := GlobalGridToLocal(g, o)
	if !c.SetBlock(l, t) {
		return false
	}

	// Mark neighbor chunks stale if we touched a border block
	var nb *Chunk
	if l.X == 0 {
		nb = c.NeighborWest()
	} else if l.X == ChunkWidth-1 {
		nb = c.NeighborEast()
	}
	if nb != nil {
		nb.MarkExposureStale()
	}
	nb = nil
	if l.Z == 0 {
		nb = c.NeighborSouth()
	} else if l.Z == ChunkWidth-1 {
		nb = c.NeighborNorth()
	}
	if nb != nil {
		nb.MarkExposureStale()
	}
	return true
}

// RecalcExposures recomputes the exposure of c with this world's rules.
func (w *World) RecalcExposures(c *Chunk) {
	c.RecalcExposures(w.surfaces)
}
