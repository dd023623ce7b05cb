// Package streaming keeps the chunks around the camera loaded, exposed,
// meshed and realized, and evicts the ones it left behind.
package streaming

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"voxelscape/internal/config"
	"voxelscape/internal/gpu"
	"voxelscape/internal/meshing"
	"voxelscape/internal/metrics"
	"voxelscape/internal/profiling"
	"voxelscape/internal/storage"
	"voxelscape/internal/world"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of the chunk table.
type Stats struct {
	Tick         uint64
	Resident     int
	Drawn        int
	Realized     int
	Placeholders int
	Pending      int
	VertexBytes  int
	Exposed      world.SurfaceTotals
}

// Controller owns the moving draw and load regions. All methods must be
// called from the thread holding the graphics context.
type Controller struct {
	radius      int
	maxResident int
	evictAfter  uint64

	world   *world.World
	loader  storage.Loader
	saver   storage.Saver
	alloc   gpu.Allocator
	metrics *metrics.Collector
	async   *asyncLoader

	ctx    context.Context
	cancel context.CancelFunc

	tick      uint64
	hasOrigin bool
	origin    world.ChunkOrigin
	draw      world.EvalRegion
	load      world.EvalRegion

	drawn []*world.Chunk
}

// NewController creates a controller over w. saver and m may be nil.
func NewController(cfg *config.Config, w *world.World, loader storage.Loader, saver storage.Saver, alloc gpu.Allocator, m *metrics.Collector) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		radius:      cfg.World.EvalBlockRadius,
		maxResident: cfg.Streaming.MaxResidentChunks,
		evictAfter:  cfg.Streaming.EvictAfterTicks,
		world:       w,
		loader:      loader,
		saver:       saver,
		alloc:       alloc,
		metrics:     m,
		ctx:         ctx,
		cancel:      cancel,
	}
	if c.maxResident < cfg.LoadRegionSize() {
		c.maxResident = cfg.LoadRegionSize()
	}
	if cfg.Streaming.Async {
		c.async = newAsyncLoader(loader, cfg.Streaming.Workers, 2*cfg.LoadRegionSize())
	}
	return c
}

// World returns the world the controller streams into.
func (c *Controller) World() *world.World { return c.world }

// DrawRegion is the region meshed and realized on the last tick.
func (c *Controller) DrawRegion() world.EvalRegion { return c.draw }

// LoadRegion is the draw region plus one ring of chunks.
func (c *Controller) LoadRegion() world.EvalRegion { return c.load }

// DrawnChunks lists the draw-region chunks with a realized mesh, in origin
// order. The slice is reused by the next Tick.
func (c *Controller) DrawnChunks() []*world.Chunk { return c.drawn }

// Tick advances streaming for a camera at pos.
func (c *Controller) Tick(pos world.WorldPos) {
	defer profiling.Track("streaming.Tick")()
	c.tick++

	if c.async != nil {
		c.integrate()
	}

	o := world.WorldPosToOrigin(pos)
	moved := !c.hasOrigin || o != c.origin
	if moved {
		c.hasOrigin = true
		c.origin = o
		c.draw = world.OriginEvalRegion(o, c.radius)
		c.load = c.draw.Expand()
	}
	switch {
	case c.async == nil && moved:
		c.loadSync()
	case c.async != nil:
		c.requestMissing(moved)
	}

	c.touch()
	c.refreshDrawRegion()
	c.evict()
	c.publish()
}

// loadSync loads every missing load-region chunk before anything is meshed.
// Placeholders are retried.
func (c *Controller) loadSync() {
	defer profiling.Track("streaming.loadSync")()
	for _, o := range c.load.Origins() {
		if ch := c.world.Lookup(o); ch != nil && !ch.Placeholder() {
			continue
		}
		recs, err := c.loader.LoadChunkBlocks(c.ctx, o)
		var ch *world.Chunk
		if err == nil {
			ch = world.NewChunk(o)
			ch.Populate(recs)
		}
		c.install(o, ch, err, "sync")
	}
}

// requestMissing queues loads for absent chunks. Placeholders are retried
// only when the region changed.
func (c *Controller) requestMissing(retry bool) {
	for _, o := range c.load.Origins() {
		ch := c.world.Lookup(o)
		if ch != nil && !(retry && ch.Placeholder()) {
			continue
		}
		c.async.request(o)
	}
}

func (c *Controller) integrate() {
	for _, res := range c.async.drain() {
		if !c.load.Contains(res.origin) {
			continue
		}
		if ch := c.world.Lookup(res.origin); ch != nil && !ch.Placeholder() {
			continue
		}
		c.install(res.origin, res.chunk, res.err, "async")
	}
}

// install puts a loaded chunk into the table. A failed load leaves an empty
// placeholder so the region stays complete.
func (c *Controller) install(o world.ChunkOrigin, ch *world.Chunk, err error, source string) {
	if err != nil {
		log.Printf("streaming: could not load chunk %d,%d: %v", o.X, o.Z, err)
		c.metrics.ChunkLoadFailed()
		if !c.world.Has(o) {
			c.world.Insert(world.NewPlaceholderChunk(o))
		}
		return
	}
	if old := c.world.Lookup(o); old != nil {
		meshing.Unrealize(old, c.alloc)
		c.world.Evict(o)
	}
	ch.Touch(c.tick)
	c.world.Insert(ch)
	c.metrics.ChunkLoaded(source)
}

func (c *Controller) touch() {
	for _, o := range c.load.Origins() {
		if ch := c.world.Lookup(o); ch != nil {
			ch.Touch(c.tick)
		}
	}
}

func (c *Controller) neighborsResident(o world.ChunkOrigin) bool {
	return c.world.Has(o.Offset(0, 1)) && c.world.Has(o.Offset(0, -1)) &&
		c.world.Has(o.Offset(1, 0)) && c.world.Has(o.Offset(-1, 0))
}

// refreshDrawRegion brings every draw-region chunk up to date: exposure,
// then surface lists, then device buffers. Chunks that left the draw region
// are unrealized.
func (c *Controller) refreshDrawRegion() {
	defer profiling.Track("streaming.refreshDrawRegion")()
	for _, ch := range c.drawn {
		if !c.draw.Contains(ch.Origin()) && c.world.Lookup(ch.Origin()) == ch {
			meshing.Unrealize(ch, c.alloc)
		}
	}

	c.drawn = c.drawn[:0]
	for _, o := range c.draw.Origins() {
		var ch *world.Chunk
		if c.async == nil {
			ch = c.world.MustLookup(o)
		} else {
			ch = c.world.Lookup(o)
			if ch == nil || !c.neighborsResident(o) {
				continue
			}
		}
		if ch.ExposureStale() {
			c.world.RecalcExposures(ch)
		}
		if ch.MeshStale() || !ch.MeshBuilt() {
			meshing.RebuildSurfaceLists(ch)
		}
		if !ch.MeshRealized() {
			if err := meshing.Realize(ch, c.alloc); err != nil {
				log.Printf("streaming: realize chunk %d,%d: %v", o.X, o.Z, err)
				continue
			}
		}
		c.drawn = append(c.drawn, ch)
	}
}

// evict drops chunks outside the load region, least recently touched first.
// A chunk goes once it has been untouched for evictAfter ticks, or earlier
// while the table is over maxResident.
func (c *Controller) evict() {
	var cands []*world.Chunk
	for _, o := range c.world.Origins() {
		if !c.load.Contains(o) {
			cands = append(cands, c.world.Lookup(o))
		}
	}
	if len(cands) == 0 {
		return
	}
	slices.SortStableFunc(cands, func(a, b *world.Chunk) int {
		return cmp.Compare(a.LastTouched(), b.LastTouched())
	})

	over := c.world.Len() - c.maxResident
	evicted, released := 0, 0
	for _, ch := range cands {
		expired := c.tick-ch.LastTouched() >= c.evictAfter
		if !expired && over <= 0 {
			break
		}
		if err := c.save(c.ctx, ch); err != nil {
			log.Printf("streaming: keeping chunk %d,%d: %v", ch.Origin().X, ch.Origin().Z, err)
			continue
		}
		released += meshing.VertexBytes(ch)
		meshing.Unrealize(ch, c.alloc)
		c.world.Evict(ch.Origin())
		c.metrics.ChunkEvicted()
		evicted++
		over--
	}
	if evicted > 0 {
		log.Printf("streaming: evicted %d chunks, released %s of vertex data (%d resident)",
			evicted, humanize.Bytes(uint64(released)), c.world.Len())
	}
}

func (c *Controller) save(ctx context.Context, ch *world.Chunk) error {
	if c.saver == nil || !ch.Modified() || ch.Placeholder() {
		return nil
	}
	o := ch.Origin()
	if err := c.saver.SaveChunk(ctx, o, ch.Records()); err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", o.X, o.Z, err)
	}
	ch.ClearModified()
	c.metrics.ChunkSaved()
	return nil
}

// Stats reports the current table state.
func (c *Controller) Stats() Stats {
	s := Stats{
		Tick:     c.tick,
		Resident: c.world.Len(),
		Drawn:    len(c.drawn),
	}
	if c.async != nil {
		s.Pending = len(c.async.pending)
	}
	for _, o := range c.world.Origins() {
		ch := c.world.Lookup(o)
		if ch.Placeholder() {
			s.Placeholders++
		}
		if ch.MeshRealized() {
			s.Realized++
		}
		s.VertexBytes += meshing.VertexBytes(ch)
	}
	for _, ch := range c.drawn {
		t := ch.SurfaceTotals()
		for i := range s.Exposed {
			s.Exposed[i] += t[i]
		}
	}
	return s
}

func (c *Controller) publish() {
	if c.metrics == nil {
		return
	}
	s := c.Stats()
	c.metrics.Residency(s.Resident, s.Realized, s.VertexBytes)
	for st := world.SurfaceType(1); st < world.NumSurfaceTypes; st++ {
		c.metrics.Exposed(st.String(), s.Exposed[st])
	}
}

// Close stops async loading, saves modified chunks and frees every device
// buffer. Chunks that fail to save are reported and stay resident.
func (c *Controller) Close(ctx context.Context) error {
	if c.async != nil {
		c.async.close()
		c.async = nil
	}
	var errs []error
	for _, o := range c.world.Origins() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ch := c.world.Lookup(o)
		if err := c.save(ctx, ch); err != nil {
			errs = append(errs, err)
		}
		meshing.Unrealize(ch, c.alloc)
	}
	c.drawn = c.drawn[:0]
	c.cancel()
	return errors.Join(errs...)
}
