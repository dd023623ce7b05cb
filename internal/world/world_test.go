package world

import (
	"testing"
)

func loadedWorld(radius int) *World {
	w := New(nil)
	for _, o := range OriginEvalRegion(ChunkOrigin{}, radius).Origins() {
		w.Insert(NewChunk(o))
	}
	return w
}

func TestSetBlockAndRead(t *testing.T) {
	w := loadedWorld(2)
	g := GlobalGrid{-5, 12, 40}

	if !w.IsAir(g) {
		t.Fatal("fresh world should be air")
	}
	if !w.SetBlock(g, BlockTypeCoal) {
		t.Fatal("SetBlock on loaded chunk failed")
	}
	if got := w.Block(g); got != BlockTypeCoal {
		t.Errorf("Block = %v, want coal", got)
	}
	if w.SetBlock(g, BlockTypeCoal) {
		t.Error("setting the same type should report no change")
	}
	c := w.Lookup(g.Origin())
	if !c.Modified() || !c.ExposureStale() {
		t.Error("edit should mark chunk modified and stale")
	}
}

func TestSetBlockOutsideLoadedWorld(t *testing.T) {
	w := loadedWorld(1)
	if w.SetBlock(GlobalGrid{100, 5, 0}, BlockTypeDirt) {
		t.Error("edit of unloaded chunk should fail")
	}
	if w.SetBlock(GlobalGrid{1, -1, 1}, BlockTypeDirt) || w.SetBlock(GlobalGrid{1, ChunkHeight, 1}, BlockTypeDirt) {
		t.Error("edit outside the column should fail")
	}
	if w.Block(GlobalGrid{100, 5, 0}) != BlockTypeAir {
		t.Error("unloaded reads as air")
	}
}

func TestEdgeEditMarksNeighborStale(t *testing.T) {
	w := loadedWorld(2)
	for _, c := range w.AppendInRegion(OriginEvalRegion(ChunkOrigin{}, 2), nil) {
		w.RecalcExposures(c)
	}

	w.SetBlock(GlobalGrid{0, 5, 10}, BlockTypeStone) // west edge of chunk 0,0
	if !w.Lookup(ChunkOrigin{-32, 0}).ExposureStale() {
		t.Error("west neighbor should be stale")
	}
	if w.Lookup(ChunkOrigin{32, 0}).ExposureStale() {
		t.Error("east neighbor should not be stale")
	}

	w.SetBlock(GlobalGrid{10, 5, 31}, BlockTypeStone) // north edge
	if !w.Lookup(ChunkOrigin{0, 32}).ExposureStale() {
		t.Error("north neighbor should be stale")
	}
	if w.Lookup(ChunkOrigin{0, -32}).ExposureStale() {
		t.Error("south neighbor should not be stale")
	}
}

func TestMustLookupPanicsWhenAbsent(t *testing.T) {
	w := loadedWorld(1)
	w.MustLookup(ChunkOrigin{})

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unloaded chunk")
		}
	}()
	w.MustLookup(ChunkOrigin{X: 320})
}

func TestChunkStoreBookkeeping(t *testing.T) {
	w := loadedWorld(2)
	if w.Len() != 9 {
		t.Fatalf("Len = %d", w.Len())
	}
	mc := w.ModCount()
	if w.Evict(ChunkOrigin{X: 320}) != nil {
		t.Error("evicting an absent chunk returns nil")
	}
	if w.Evict(ChunkOrigin{}) == nil || w.Has(ChunkOrigin{}) {
		t.Error("evict failed")
	}
	if w.ModCount() != mc+1 {
		t.Errorf("ModCount = %d, want %d", w.ModCount(), mc+1)
	}
	origins := w.Origins()
	if len(origins) != 8 {
		t.Errorf("got %d origins", len(origins))
	}
	if got := w.AppendInRegion(OriginEvalRegion(ChunkOrigin{}, 1), nil); len(got) != 0 {
		t.Errorf("evicted chunk still listed: %d", len(got))
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	c := NewChunk(ChunkOrigin{})
	c.Populate([]BlockRecord{
		{LocalGrid{0, 0, 0}, BlockTypeStone},
		{LocalGrid{31, 255, 31}, BlockTypeCoal},
		{LocalGrid{4, 4, 4}, BlockTypeAir},
	})
	if c.Modified() {
		t.Error("populate should not mark modified")
	}
	recs := c.Records()
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	d := NewChunk(ChunkOrigin{})
	d.Populate(recs)
	if d.BlockType(LocalGrid{31, 255, 31}) != BlockTypeCoal {
		t.Error("record lost")
	}
}

func TestClearingBlockDropsFlags(t *testing.T) {
	c := chunkWith(ChunkOrigin{}, BlockTypeDirt, LocalGrid{1, 1, 1})
	c.RecalcExposures(DefaultSurfaceTable())
	if !c.SetBlock(LocalGrid{1, 1, 1}, BlockTypeAir) {
		t.Fatal("SetBlock failed")
	}
	if c.Block(LocalGrid{1, 1, 1}).Exposed != 0 {
		t.Error("air keeps exposed flags")
	}
}
