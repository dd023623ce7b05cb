package physics

import (
	"context"
	"testing"

	"voxelscape/internal/config"
	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

func makeWorldForPhysics(b *testing.B) *world.World {
	b.Helper()
	w := world.New(nil)
	gen := world.NewGenerator(42)
	for _, o := range world.OriginEvalRegion(world.ChunkOrigin{}, 3).Origins() {
		recs, err := gen.LoadChunkBlocks(context.Background(), o)
		if err != nil {
			b.Fatal(err)
		}
		c := world.NewChunk(o)
		c.Populate(recs)
		w.Insert(c)
	}
	return w
}

func BenchmarkCollides(b *testing.B) {
	w := makeWorldForPhysics(b)
	pos := world.NewWorldPos(1650, 7000, 1650)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Collides(w, pos, 30, 180)
	}
}

func BenchmarkHitTest(b *testing.B) {
	w := makeWorldForPhysics(b)
	cfg := config.Default()
	r := NewResolver(&cfg, w, nil)
	start := world.NewWorldPos(1650, 7000, 1650)
	dir := mgl32.Vec3{1, -0.6, 0.3}.Normalize()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.HitTestWithin(start, dir, 10000)
	}
}
