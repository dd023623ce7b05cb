package streaming

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"voxelscape/internal/config"
	"voxelscape/internal/gpu"
	"voxelscape/internal/metrics"
	"voxelscape/internal/storage"
	"voxelscape/internal/world"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatLoader fills y 0..9 with stone.
type flatLoader struct{}

func (flatLoader) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	recs := make([]world.BlockRecord, 0, world.ChunkWidth*world.ChunkWidth*10)
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			for y := range 10 {
				recs = append(recs, world.BlockRecord{Local: world.LocalGrid{X: x, Y: y, Z: z}, Type: world.BlockTypeStone})
			}
		}
	}
	return recs, nil
}

type fakeAlloc struct {
	mu   sync.Mutex
	next gpu.Handle
	live map[gpu.Handle]int
}

func newFakeAlloc() *fakeAlloc {
	return &fakeAlloc{live: make(map[gpu.Handle]int)}
}

func (a *fakeAlloc) Upload(layout gpu.Layout, data []byte, vertexCount int) (gpu.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	a.live[a.next] = vertexCount
	return a.next, nil
}

func (a *fakeAlloc) Release(h gpu.Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.live[h]; !ok {
		panic(fmt.Sprintf("release of unknown handle %d", h))
	}
	delete(a.live, h)
}

func (a *fakeAlloc) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

type harness struct {
	cfg   config.Config
	mem   *storage.Memory
	alloc *fakeAlloc
	ctl   *Controller
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.World.EvalBlockRadius = 1
	cfg.Streaming.MaxResidentChunks = 9
	cfg.Streaming.EvictAfterTicks = 1000
	cfg.Storage = config.StorageConfig{Driver: "memory"}
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	h := &harness{cfg: cfg, mem: storage.NewMemory(), alloc: newFakeAlloc()}
	loader := storage.Fallback{Primary: h.mem, Generate: flatLoader{}}
	h.ctl = NewController(&h.cfg, world.New(nil), loader, h.mem, h.alloc, nil)
	t.Cleanup(func() { _ = h.ctl.Close(context.Background()) })
	return h
}

// chunkCenter is a camera position in the middle of the chunk at (cx, cz).
func chunkCenter(cx, cz int) world.WorldPos {
	return world.NewWorldPos(
		float32(cx*world.ChunkWidth+world.ChunkWidth/2)*world.BlockWidth,
		2000,
		float32(cz*world.ChunkWidth+world.ChunkWidth/2)*world.BlockWidth,
	)
}

func TestRadiusOneLoadsNineChunks(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))

	w := h.ctl.World()
	assert.Equal(t, 9, w.Len())
	assert.Equal(t, 1, h.ctl.DrawRegion().Len())
	assert.Equal(t, 9, h.ctl.LoadRegion().Len())
	assert.True(t, h.ctl.DrawRegion().Contains(world.ChunkOrigin{}))

	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			assert.True(t, w.Has(world.ChunkOrigin{}.Offset(dx, dz)), "chunk %d,%d", dx, dz)
		}
	}

	drawn := h.ctl.DrawnChunks()
	require.Len(t, drawn, 1)
	assert.Equal(t, world.ChunkOrigin{}, drawn[0].Origin())
	assert.True(t, drawn[0].MeshRealized())
}

func TestLoadBeforeMesh(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))

	// All four neighbors were resident when the center was exposed, so only
	// the top layer is visible: no side faces along the chunk edges.
	c := h.ctl.World().Lookup(world.ChunkOrigin{})
	totals := c.SurfaceTotals()
	assert.Equal(t, world.ChunkWidth*world.ChunkWidth*2, totals.Sum(), "top and bottom only")

	// Ring chunks are loaded but not meshed.
	ring := h.ctl.World().Lookup(world.ChunkOrigin{}.Offset(1, 0))
	assert.False(t, ring.MeshBuilt())
}

func TestTickWithoutMovementDoesNotReload(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))
	loads := h.mem.Loads()
	handles := h.alloc.Live()

	h.ctl.Tick(world.NewWorldPos(1900, 2500, 1300))
	assert.Equal(t, loads, h.mem.Loads())
	assert.Equal(t, handles, h.alloc.Live())
}

func TestEditRemeshesDrawnChunk(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))
	c := h.ctl.World().Lookup(world.ChunkOrigin{})
	before := c.SurfaceTotals()

	require.True(t, h.ctl.World().SetBlock(world.GlobalGrid{X: 10, Y: 9, Z: 10}, world.BlockTypeAir))
	h.ctl.Tick(chunkCenter(0, 0))

	after := c.SurfaceTotals()
	// top face moves down one cell and four sides open up
	assert.Equal(t, before[world.SurfaceStone]+4, after[world.SurfaceStone])
	assert.True(t, c.MeshRealized())
}

func TestMovingUnrealizesLeftChunk(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Streaming.MaxResidentChunks = 100 })
	h.ctl.Tick(chunkCenter(0, 0))
	old := h.ctl.World().Lookup(world.ChunkOrigin{})
	require.True(t, old.MeshRealized())

	h.ctl.Tick(chunkCenter(1, 0))
	assert.False(t, old.MeshRealized())
	assert.True(t, old.SurfaceList(world.SurfaceStone).HasData(), "vertex data kept")

	drawn := h.ctl.DrawnChunks()
	require.Len(t, drawn, 1)
	assert.Equal(t, world.ChunkOrigin{X: world.ChunkWidth}, drawn[0].Origin())

	// coming back re-realizes without a rebuild
	h.ctl.Tick(chunkCenter(0, 0))
	assert.True(t, old.MeshRealized())
}

func TestEvictsOverCapacity(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))

	west := world.ChunkOrigin{}.Offset(-1, 0)
	require.True(t, h.ctl.World().SetBlock(world.GlobalGrid{X: -5, Y: 9, Z: 3}, world.BlockTypeAir))

	h.ctl.Tick(chunkCenter(1, 0))
	w := h.ctl.World()
	assert.Equal(t, 9, w.Len())
	for dz := -1; dz <= 1; dz++ {
		assert.False(t, w.Has(west.Offset(0, dz)))
	}
	assert.True(t, h.mem.Has(west), "modified chunk saved on eviction")
	assert.False(t, h.mem.Has(west.Offset(0, 1)), "untouched chunk not saved")
}

func TestEvictsAfterIdleTicks(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Streaming.MaxResidentChunks = 100
		c.Streaming.EvictAfterTicks = 3
	})
	h.ctl.Tick(chunkCenter(0, 0))
	h.ctl.Tick(chunkCenter(1, 0))
	assert.Equal(t, 12, h.ctl.World().Len())

	h.ctl.Tick(chunkCenter(1, 0))
	assert.Equal(t, 12, h.ctl.World().Len())
	h.ctl.Tick(chunkCenter(1, 0))
	assert.Equal(t, 9, h.ctl.World().Len())
	assert.False(t, h.ctl.World().Has(world.ChunkOrigin{}.Offset(-1, 0)))
}

func TestLoadFailureInstallsPlaceholder(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Streaming.MaxResidentChunks = 100 })
	east := world.ChunkOrigin{}.Offset(1, 0)
	h.mem.FailLoads(east, errors.New("corrupt"))

	h.ctl.Tick(chunkCenter(0, 0))
	ph := h.ctl.World().Lookup(east)
	require.NotNil(t, ph)
	assert.True(t, ph.Placeholder())
	assert.Equal(t, 1, h.ctl.Stats().Placeholders)

	h.mem.FailLoads(east, nil)
	h.ctl.Tick(chunkCenter(0, 0))
	assert.True(t, h.ctl.World().Lookup(east).Placeholder(), "not retried without a region change")

	h.ctl.Tick(chunkCenter(0, 1))
	c := h.ctl.World().Lookup(east)
	require.NotNil(t, c)
	assert.False(t, c.Placeholder())
	assert.Equal(t, 0, h.ctl.Stats().Placeholders)
}

func TestCloseSavesAndReleases(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))
	require.Positive(t, h.alloc.Live())
	require.True(t, h.ctl.World().SetBlock(world.GlobalGrid{X: 1, Y: 1, Z: 1}, world.BlockTypeCoal))

	require.NoError(t, h.ctl.Close(context.Background()))
	assert.Zero(t, h.alloc.Live())
	assert.True(t, h.mem.Has(world.ChunkOrigin{}))
}

func TestStats(t *testing.T) {
	h := newHarness(t, nil)
	h.ctl.Tick(chunkCenter(0, 0))
	s := h.ctl.Stats()
	assert.Equal(t, uint64(1), s.Tick)
	assert.Equal(t, 9, s.Resident)
	assert.Equal(t, 1, s.Drawn)
	assert.Equal(t, 1, s.Realized)
	assert.Positive(t, s.VertexBytes)
	assert.Equal(t, world.ChunkWidth*world.ChunkWidth*2, s.Exposed.Sum())
}

func TestMetricsPublished(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	cfg := config.Default()
	cfg.World.EvalBlockRadius = 1
	cfg.Streaming.MaxResidentChunks = 9

	ctl := NewController(&cfg, world.New(nil), flatLoader{}, nil, newFakeAlloc(), m)
	defer ctl.Close(context.Background())
	ctl.Tick(chunkCenter(0, 0))

	assert.Equal(t, 9.0, gathered(t, reg, "voxelscape_chunks_loaded_total"))
	assert.Equal(t, 9.0, gathered(t, reg, "voxelscape_resident_chunks"))
	assert.Equal(t, 1.0, gathered(t, reg, "voxelscape_realized_chunks"))
	assert.Equal(t, 2048.0, gathered(t, reg, "voxelscape_draw_region_exposed_faces"))
}

// gathered sums every counter and gauge sample of the named family.
func gathered(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		sum := 0.0
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue() + m.GetGauge().GetValue()
		}
		return sum
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}

func TestAsyncLoading(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Streaming.Async = true
		c.Streaming.Workers = 3
	})

	pos := chunkCenter(0, 0)
	deadline := time.Now().Add(10 * time.Second)
	for h.ctl.Stats().Drawn == 0 {
		require.True(t, time.Now().Before(deadline), "async load did not finish")
		h.ctl.Tick(pos)
		time.Sleep(2 * time.Millisecond)
	}

	w := h.ctl.World()
	assert.Equal(t, 9, w.Len())
	c := w.Lookup(world.ChunkOrigin{})
	// meshed only after every neighbor arrived
	assert.Equal(t, world.ChunkWidth*world.ChunkWidth*2, c.SurfaceTotals().Sum())
	assert.Zero(t, h.ctl.Stats().Pending)
}

func TestAsyncRequestsOncePerOrigin(t *testing.T) {
	block := make(chan struct{})
	var mu sync.Mutex
	calls := map[world.ChunkOrigin]int{}
	loader := loaderFunc(func(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
		mu.Lock()
		calls[o]++
		mu.Unlock()
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return nil, nil
	})

	al := newAsyncLoader(loader, 2, 8)
	o := world.ChunkOrigin{X: 64}
	assert.True(t, al.request(o))
	assert.False(t, al.request(o))
	assert.True(t, al.inFlight(o))
	close(block)

	deadline := time.Now().Add(5 * time.Second)
	var got []loaded
	for len(got) == 0 && time.Now().Before(deadline) {
		got = al.drain()
		time.Sleep(time.Millisecond)
	}
	al.close()

	require.Len(t, got, 1)
	assert.Equal(t, o, got[0].origin)
	require.NoError(t, got[0].err)
	assert.False(t, al.inFlight(o))
	assert.Equal(t, 1, calls[o])
}

type loaderFunc func(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error)

func (f loaderFunc) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	return f(ctx, o)
}
