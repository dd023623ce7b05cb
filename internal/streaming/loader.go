package streaming

import (
	"context"
	"sync"

	"voxelscape/internal/storage"
	"voxelscape/internal/world"
)

// loaded is a finished load. Chunk is fully populated and not yet attached to
// any store, so the main thread never sees it half built.
type loaded struct {
	origin world.ChunkOrigin
	chunk  *world.Chunk
	err    error
}

// asyncLoader runs chunk loads on a pool of workers. request and drain are
// called from the tick loop only.
type asyncLoader struct {
	jobs       chan world.ChunkOrigin
	results    chan loaded
	pending    map[world.ChunkOrigin]struct{}
	maxPending int

	loader storage.Loader
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newAsyncLoader(loader storage.Loader, workers, maxPending int) *asyncLoader {
	ctx, cancel := context.WithCancel(context.Background())
	al := &asyncLoader{
		jobs:       make(chan world.ChunkOrigin, maxPending),
		results:    make(chan loaded, maxPending),
		pending:    make(map[world.ChunkOrigin]struct{}),
		maxPending: maxPending,
		loader:     loader,
		ctx:        ctx,
		cancel:     cancel,
	}
	workers = max(workers, 1)
	al.wg.Add(workers)
	for range workers {
		go al.worker()
	}
	return al
}

func (al *asyncLoader) worker() {
	defer al.wg.Done()
	for o := range al.jobs {
		res := loaded{origin: o}
		recs, err := al.loader.LoadChunkBlocks(al.ctx, o)
		if err != nil {
			res.err = err
		} else {
			res.chunk = world.NewChunk(o)
			res.chunk.Populate(recs)
		}
		select {
		case al.results <- res:
		case <-al.ctx.Done():
			return
		}
	}
}

// request queues o unless it is already in flight. It reports whether a job
// was queued.
func (al *asyncLoader) request(o world.ChunkOrigin) bool {
	if _, ok := al.pending[o]; ok {
		return false
	}
	if len(al.pending) >= al.maxPending {
		return false
	}
	al.pending[o] = struct{}{}
	select {
	case al.jobs <- o:
		return true
	default:
		// queue full: rollback
		delete(al.pending, o)
		return false
	}
}

func (al *asyncLoader) inFlight(o world.ChunkOrigin) bool {
	_, ok := al.pending[o]
	return ok
}

// drain returns every finished load without blocking.
func (al *asyncLoader) drain() []loaded {
	var out []loaded
	for {
		select {
		case res := <-al.results:
			delete(al.pending, res.origin)
			out = append(out, res)
		default:
			return out
		}
	}
}

// close stops the workers. Loads still in flight are dropped.
func (al *asyncLoader) close() {
	al.cancel()
	close(al.jobs)
	al.wg.Wait()
}
