package storage

import (
	"context"
	"sync"

	"voxelscape/internal/world"
)

// Memory keeps encoded chunk blobs in a map. It is safe for concurrent use
// by async loaders.
type Memory struct {
	mu     sync.RWMutex
	blobs  map[world.ChunkOrigin][]byte
	fail   map[world.ChunkOrigin]error
	loads  int
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		blobs: make(map[world.ChunkOrigin][]byte),
		fail:  make(map[world.ChunkOrigin]error),
	}
}

// FailLoads makes every load of o return err until cleared with a nil err.
func (m *Memory) FailLoads(o world.ChunkOrigin, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, o)
		return
	}
	m.fail[o] = err
}

// Loads returns the number of LoadChunkBlocks calls.
func (m *Memory) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}

// Has reports whether o was saved.
func (m *Memory) Has(o world.ChunkOrigin) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[o]
	return ok
}

func (m *Memory) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	m.mu.Lock()
	m.loads++
	blob, ok := m.blobs[o]
	failErr := m.fail[o]
	closed := m.closed
	m.mu.Unlock()

	switch {
	case closed:
		return nil, ErrClosed
	case failErr != nil:
		return nil, failErr
	case !ok:
		return nil, ErrChunkNotFound
	}
	return DecodeChunk(blob)
}

func (m *Memory) SaveChunk(ctx context.Context, o world.ChunkOrigin, records []world.BlockRecord) error {
	blob, err := EncodeChunk(records)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.blobs[o] = blob
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
