package world

import (
	"voxelscape/internal/gpu"
)

// StripeCount is the number of stripes in a chunk.
const StripeCount = ChunkWidth * ChunkHeight

// Stripe is a run of blocks along z for one (x, y).
type Stripe [ChunkWidth]Block

// ChunkLookup resolves loaded chunks by origin. Absent chunks return nil.
type ChunkLookup interface {
	Lookup(o ChunkOrigin) *Chunk
}

// BlockRecord is one populated cell as delivered by persistence.
type BlockRecord struct {
	Local LocalGrid
	Type  BlockType
}

// ExposedBlock is a cell with at least one exposed face and the surface of
// each exposed face.
type ExposedBlock struct {
	Local    LocalGrid
	Type     BlockType
	Faces    FaceSet
	Surfaces [NumFaces]SurfaceType
}

// LandscapeList is a per-surface vertex list.
type LandscapeList = gpu.VertexList[gpu.LandscapeVertex]

// Chunk represents one full-height column of blocks.
type Chunk struct {
	origin  ChunkOrigin
	lookup  ChunkLookup
	stripes []Stripe // index x*ChunkHeight+y

	exposed []ExposedBlock
	totals  SurfaceTotals

	exposureStale bool
	meshStale     bool
	modified      bool
	placeholder   bool
	lastTouched   uint64

	// nil until the first mesh build
	surfaces [NumSurfaceTypes]*LandscapeList
}

// NewChunk creates an all-air chunk at origin o.
func NewChunk(o ChunkOrigin) *Chunk {
	return &Chunk{
		origin:        o,
		stripes:       make([]Stripe, StripeCount),
		exposureStale: true,
		meshStale:     true,
	}
}

// NewPlaceholderChunk creates an empty stand-in for a chunk that failed to load.
func NewPlaceholderChunk(o ChunkOrigin) *Chunk {
	c := NewChunk(o)
	c.placeholder = true
	return c
}

func stripeIndex(x, y int) int {
	return x*ChunkHeight + y
}

// Origin returns the chunk's origin.
func (c *Chunk) Origin() ChunkOrigin { return c.origin }

// Attach links the chunk to the table it is looked up from.
func (c *Chunk) Attach(l ChunkLookup) { c.lookup = l }

// Placeholder reports whether the chunk stands in for a failed load.
func (c *Chunk) Placeholder() bool { return c.placeholder }

// Stripe returns the stripe at (x, y).
func (c *Chunk) Stripe(x, y int) *Stripe {
	return &c.stripes[stripeIndex(x, y)]
}

// Block returns the block at l, Air when l is outside the chunk.
func (c *Chunk) Block(l LocalGrid) Block {
	if !l.InChunk() {
		return Block{}
	}
	return c.stripes[stripeIndex(l.X, l.Y)][l.Z]
}

// BlockType returns the type at l, Air when l is outside the chunk.
func (c *Chunk) BlockType(l LocalGrid) BlockType {
	return c.Block(l).Type
}

// SetBlock changes the block type at l and reports whether it changed.
func (c *Chunk) SetBlock(l LocalGrid, t BlockType) bool {
	if !c.setType(l, t) {
		return false
	}
	c.modified = true
	return true
}

func (c *Chunk) setType(l LocalGrid, t BlockType) bool {
	if !l.InChunk() {
		return false
	}
	b := &c.stripes[stripeIndex(l.X, l.Y)][l.Z]
	if b.Type == t {
		return false
	}
	b.Type = t
	if !t.Filled() {
		b.Exposed = 0
	}
	c.exposureStale = true
	return true
}

// Populate fills the chunk from persisted records without marking it modified.
func (c *Chunk) Populate(records []BlockRecord) {
	for _, r := range records {
		c.setType(r.Local, r.Type)
	}
	c.exposureStale = true
}

// Records lists every filled cell.
func (c *Chunk) Records() []BlockRecord {
	var out []BlockRecord
	for x := range ChunkWidth {
		for y := range ChunkHeight {
			s := &c.stripes[stripeIndex(x, y)]
			for z := range ChunkWidth {
				if s[z].Type.Filled() {
					out = append(out, BlockRecord{Local: LocalGrid{x, y, z}, Type: s[z].Type})
				}
			}
		}
	}
	return out
}

func (c *Chunk) neighbor(dx, dz int) *Chunk {
	if c.lookup == nil {
		return nil
	}
	return c.lookup.Lookup(c.origin.Offset(dx, dz))
}

// NeighborNorth returns the loaded chunk at +z, or nil.
func (c *Chunk) NeighborNorth() *Chunk { return c.neighbor(0, 1) }

// NeighborSouth returns the loaded chunk at -z, or nil.
func (c *Chunk) NeighborSouth() *Chunk { return c.neighbor(0, -1) }

// NeighborEast returns the loaded chunk at +x, or nil.
func (c *Chunk) NeighborEast() *Chunk { return c.neighbor(1, 0) }

// NeighborWest returns the loaded chunk at -x, or nil.
func (c *Chunk) NeighborWest() *Chunk { return c.neighbor(-1, 0) }

// ExposureStale reports whether face flags need recomputing.
func (c *Chunk) ExposureStale() bool { return c.exposureStale }

// MarkExposureStale forces the next pass to recompute exposure.
func (c *Chunk) MarkExposureStale() { c.exposureStale = true }

// MeshStale reports whether the surface lists lag behind exposure.
func (c *Chunk) MeshStale() bool { return c.meshStale }

// ClearMeshStale is called by the mesher after a rebuild.
func (c *Chunk) ClearMeshStale() { c.meshStale = false }

// Modified reports whether the chunk has edits that were not saved.
func (c *Chunk) Modified() bool { return c.modified }

// ClearModified marks the chunk as saved.
func (c *Chunk) ClearModified() { c.modified = false }

// Touch records the tick on which the chunk was last in the load region.
func (c *Chunk) Touch(tick uint64) { c.lastTouched = tick }

// LastTouched returns the tick recorded by Touch.
func (c *Chunk) LastTouched() uint64 { return c.lastTouched }

// ExposedBlocks is the exposed-block set from the last exposure pass.
func (c *Chunk) ExposedBlocks() []ExposedBlock { return c.exposed }

// SurfaceTotals returns exposed-face counts per surface from the last pass.
func (c *Chunk) SurfaceTotals() SurfaceTotals { return c.totals }

// SurfaceList returns the list for s, nil when no mesh was built yet.
func (c *Chunk) SurfaceList(s SurfaceType) *LandscapeList {
	return c.surfaces[s]
}

// SetSurfaceList installs the list for s.
func (c *Chunk) SetSurfaceList(s SurfaceType, l *LandscapeList) {
	c.surfaces[s] = l
}

// MeshBuilt reports whether surface lists exist.
func (c *Chunk) MeshBuilt() bool {
	for s := SurfaceType(1); s < NumSurfaceTypes; s++ {
		if c.surfaces[s] == nil {
			return false
		}
	}
	return true
}

// MeshRealized reports whether every list with data is realized.
func (c *Chunk) MeshRealized() bool {
	if !c.MeshBuilt() {
		return false
	}
	for s := SurfaceType(1); s < NumSurfaceTypes; s++ {
		l := c.surfaces[s]
		if l.HasData() && (!l.Realized() || l.Dirty()) {
			return false
		}
	}
	return true
}
