package world

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunkWith(o ChunkOrigin, t BlockType, cells ...LocalGrid) *Chunk {
	c := NewChunk(o)
	recs := make([]BlockRecord, 0, len(cells))
	for _, l := range cells {
		recs = append(recs, BlockRecord{Local: l, Type: t})
	}
	c.Populate(recs)
	return c
}

func TestIsolatedBlockFullyExposed(t *testing.T) {
	c := chunkWith(ChunkOrigin{}, BlockTypeStone, LocalGrid{10, 50, 10})
	c.RecalcExposures(DefaultSurfaceTable())

	b := c.Block(LocalGrid{10, 50, 10})
	assert.Equal(t, 6, b.Exposed.Count())
	require.Len(t, c.ExposedBlocks(), 1)
	assert.Equal(t, 6, c.SurfaceTotals()[SurfaceStone])
	assert.Equal(t, 6, c.SurfaceTotals().Sum())
	assert.False(t, c.ExposureStale())
	assert.True(t, c.MeshStale())
}

func TestEnclosedBlockHidden(t *testing.T) {
	var cells []LocalGrid
	for x := 4; x < 7; x++ {
		for y := 4; y < 7; y++ {
			for z := 4; z < 7; z++ {
				cells = append(cells, LocalGrid{x, y, z})
			}
		}
	}
	c := chunkWith(ChunkOrigin{}, BlockTypeStone, cells...)
	c.RecalcExposures(DefaultSurfaceTable())

	assert.Zero(t, c.Block(LocalGrid{5, 5, 5}).Exposed)
	assert.Len(t, c.ExposedBlocks(), 26)
	assert.Equal(t, 6*9, c.SurfaceTotals().Sum())
}

func TestExposureIdempotent(t *testing.T) {
	o := ChunkOrigin{X: -32, Z: 64}
	recs, err := NewGenerator(99).LoadChunkBlocks(context.Background(), o)
	require.NoError(t, err)
	c := NewChunk(o)
	c.Populate(recs)
	tbl := DefaultSurfaceTable()

	c.RecalcExposures(tbl)
	firstExposed := slices.Clone(c.ExposedBlocks())
	firstTotals := c.SurfaceTotals()
	firstStripes := slices.Clone(c.stripes)

	c.RecalcExposures(tbl)
	assert.Equal(t, firstExposed, c.ExposedBlocks())
	assert.Equal(t, firstTotals, c.SurfaceTotals())
	assert.True(t, slices.Equal(firstStripes, c.stripes), "face flags changed")
}

func TestColumnEndsReadAsAir(t *testing.T) {
	c := chunkWith(ChunkOrigin{}, BlockTypeStone, LocalGrid{3, 0, 3}, LocalGrid{3, ChunkHeight - 1, 3})
	c.RecalcExposures(DefaultSurfaceTable())
	assert.True(t, c.Block(LocalGrid{3, 0, 3}).Exposed.Has(FaceBottom))
	assert.True(t, c.Block(LocalGrid{3, ChunkHeight - 1, 3}).Exposed.Has(FaceTop))
}

func TestCrossChunkNeighbor(t *testing.T) {
	w := New(nil)
	a := chunkWith(ChunkOrigin{}, BlockTypeStone, LocalGrid{ChunkWidth - 1, 5, 7})
	w.Insert(a)
	w.RecalcExposures(a)
	require.True(t, a.Block(LocalGrid{ChunkWidth - 1, 5, 7}).Exposed.Has(FaceEast), "unloaded neighbor is air")

	b := chunkWith(ChunkOrigin{X: ChunkWidth}, BlockTypeStone, LocalGrid{0, 5, 7})
	w.Insert(b)
	assert.True(t, a.ExposureStale(), "neighbor load marks stale")

	w.RecalcExposures(a)
	w.RecalcExposures(b)
	assert.False(t, a.Block(LocalGrid{ChunkWidth - 1, 5, 7}).Exposed.Has(FaceEast))
	assert.False(t, b.Block(LocalGrid{0, 5, 7}).Exposed.Has(FaceWest))
	assert.Equal(t, 5, a.SurfaceTotals().Sum())

	w.Evict(b.Origin())
	assert.True(t, a.ExposureStale(), "eviction marks stale")
	assert.Nil(t, a.NeighborEast())
}

func TestGrassOnOpenDirtTop(t *testing.T) {
	c := chunkWith(ChunkOrigin{}, BlockTypeDirt, LocalGrid{8, 20, 8}, LocalGrid{8, 19, 8})
	c.RecalcExposures(DefaultSurfaceTable())

	var top ExposedBlock
	for _, eb := range c.ExposedBlocks() {
		if eb.Local == (LocalGrid{8, 20, 8}) {
			top = eb
		}
	}
	require.True(t, top.Faces.Has(FaceTop))
	assert.Equal(t, SurfaceGrass, top.Surfaces[FaceTop])
	assert.Equal(t, SurfaceDirt, top.Surfaces[FaceNorth])
	assert.False(t, c.Block(LocalGrid{8, 19, 8}).Exposed.Has(FaceTop))

	totals := c.SurfaceTotals()
	assert.Equal(t, 1, totals[SurfaceGrass])
	assert.Equal(t, 9, totals[SurfaceDirt])
}

func TestSurfaceRulesFirstMatch(t *testing.T) {
	top := FaceTop
	tbl := NewSurfaceTable([]SurfaceRule{
		{Block: BlockTypeStone, Face: &top, Surface: SurfaceCoal},
		{Block: BlockTypeStone, Surface: SurfaceStone},
		{Block: BlockTypeStone, Surface: SurfaceDirt},
	})
	assert.Equal(t, SurfaceCoal, tbl.Surface(BlockTypeStone, FaceTop, BlockTypeAir))
	assert.Equal(t, SurfaceStone, tbl.Surface(BlockTypeStone, FaceEast, BlockTypeAir))
	assert.Len(t, tbl.Rules(), 3)

	// no rule for dirt: falls back to stone
	assert.Equal(t, SurfaceStone, NewSurfaceTable(nil).Surface(BlockTypeDirt, FaceTop, BlockTypeAir))
}

func TestParseNames(t *testing.T) {
	b, err := ParseBlockType("coal")
	require.NoError(t, err)
	assert.Equal(t, BlockTypeCoal, b)
	f, err := ParseFace("bottom")
	require.NoError(t, err)
	assert.Equal(t, FaceBottom, f)
	s, err := ParseSurfaceType("grass")
	require.NoError(t, err)
	assert.Equal(t, SurfaceGrass, s)

	_, err = ParseBlockType("lava")
	assert.Error(t, err)
	_, err = ParseFace("up")
	assert.Error(t, err)
}
