// Package storage persists chunk block data.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"voxelscape/internal/config"
	"voxelscape/internal/world"
)

var (
	// ErrChunkNotFound is returned when a chunk was never saved.
	ErrChunkNotFound = errors.New("chunk not found")
	// ErrDimensionMismatch is returned when a save was written with other chunk dimensions.
	ErrDimensionMismatch = errors.New("chunk dimensions do not match save")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("storage closed")
)

// Loader provides the blocks of a chunk.
type Loader interface {
	LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error)
}

// Saver writes the blocks of a chunk.
type Saver interface {
	SaveChunk(ctx context.Context, o world.ChunkOrigin, records []world.BlockRecord) error
}

// Store is a persistence backend.
type Store interface {
	Loader
	Saver
	Close() error
}

// Open creates the backend named by cfg.Driver.
func Open(cfg config.StorageConfig) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		s, err = OpenSQLite(cfg.Path)
	case "badger":
		s, err = OpenBadger(cfg.Path)
	case "memory":
		s = NewMemory()
	default:
		return nil, fmt.Errorf("storage driver %q unknown", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Driver, err)
	}
	log.Printf("storage: opened %s at %q", cfg.Driver, cfg.Path)
	return s, nil
}

// Fallback loads from Primary and asks Generate for chunks that were never
// saved. Other errors are returned unchanged.
type Fallback struct {
	Primary  Loader
	Generate Loader
}

func (f Fallback) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	recs, err := f.Primary.LoadChunkBlocks(ctx, o)
	if errors.Is(err, ErrChunkNotFound) && f.Generate != nil {
		return f.Generate.LoadChunkBlocks(ctx, o)
	}
	return recs, err
}
