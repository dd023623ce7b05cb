package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"voxelscape/internal/world"

	"github.com/dgraph-io/badger/v3"
)

const badgerDimsKey = "meta:dims"

// Badger stores chunk blobs in a key-value database under "chunk:x:z".
type Badger struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenBadger opens the database directory at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	b := &Badger{db: db}
	if err := b.checkDims(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Badger) checkDims() error {
	want := strconv.Itoa(world.ChunkWidth) + "x" + strconv.Itoa(world.ChunkHeight)
	return b.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerDimsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set([]byte(badgerDimsKey), []byte(want))
		}
		if err != nil {
			return err
		}
		have, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if string(have) != want {
			return fmt.Errorf("%w: save is %s, build uses %s", ErrDimensionMismatch, have, want)
		}
		return nil
	})
}

func chunkKey(o world.ChunkOrigin) []byte {
	return []byte(fmt.Sprintf("chunk:%d:%d", o.X, o.Z))
}

func (b *Badger) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var blob []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(chunkKey(o))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load chunk %d,%d: %w", o.X, o.Z, err)
	}
	recs, err := DecodeChunk(blob)
	if err != nil {
		return nil, fmt.Errorf("load chunk %d,%d: %w", o.X, o.Z, err)
	}
	return recs, nil
}

func (b *Badger) SaveChunk(ctx context.Context, o world.ChunkOrigin, records []world.BlockRecord) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	blob, err := EncodeChunk(records)
	if err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", o.X, o.Z, err)
	}
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(chunkKey(o), blob)
	})
	if err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", o.X, o.Z, err)
	}
	return nil
}

func (b *Badger) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.db.Close()
}
