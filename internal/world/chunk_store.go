package world

import (
	"fmt"
	"slices"
)

// ChunkStore owns every resident chunk, keyed by origin.
type ChunkStore struct {
	chunks   map[ChunkOrigin]*Chunk
	modCount uint64 // increases on any chunk add/remove
}

// NewChunkStore creates an empty store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[ChunkOrigin]*Chunk)}
}

// Lookup returns the chunk at o or nil when it is not loaded.
func (cs *ChunkStore) Lookup(o ChunkOrigin) *Chunk {
	return cs.chunks[o]
}

// MustLookup returns the chunk at o and panics when it is absent. Use it only
// where the streaming order guarantees residency.
func (cs *ChunkStore) MustLookup(o ChunkOrigin) *Chunk {
	c, ok := cs.chunks[o]
	if !ok {
		panic(fmt.Sprintf("world: chunk %+v expected to be loaded", o))
	}
	return c
}

// Has reports whether a chunk is resident at o.
func (cs *ChunkStore) Has(o ChunkOrigin) bool {
	_, ok := cs.chunks[o]
	return ok
}

// Put installs c, replacing any chunk at the same origin, and links it to
// the store for neighbor lookups.
func (cs *ChunkStore) Put(c *Chunk) {
	c.Attach(cs)
	cs.chunks[c.origin] = c
	cs.modCount++
}

// Remove drops the chunk at o and returns it.
func (cs *ChunkStore) Remove(o ChunkOrigin) *Chunk {
	c, ok := cs.chunks[o]
	if !ok {
		return nil
	}
	delete(cs.chunks, o)
	c.Attach(nil)
	cs.modCount++
	return c
}

// Len is the number of resident chunks.
func (cs *ChunkStore) Len() int { return len(cs.chunks) }

// ModCount increases on every add or remove.
func (cs *ChunkStore) ModCount() uint64 { return cs.modCount }

// Origins returns resident origins in x-then-z order.
func (cs *ChunkStore) Origins() []ChunkOrigin {
	out := make([]ChunkOrigin, 0, len(cs.chunks))
	for o := range cs.chunks {
		out = append(out, o)
	}
	slices.SortFunc(out, CompareOrigins)
	return out
}

// AppendInRegion appends the resident chunks inside r in origin order.
func (cs *ChunkStore) AppendInRegion(r EvalRegion, dst []*Chunk) []*Chunk {
	for _, o := range r.Origins() {
		if c := cs.chunks[o]; c != nil {
			dst = append(dst, c)
		}
	}
	return dst
}
