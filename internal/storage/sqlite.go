package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"voxelscape/internal/world"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLite stores one compressed blob per chunk.
type SQLite struct {
	db      *sql.DB
	worldID string
	closed  atomic.Bool
}

// OpenSQLite opens or creates the save database at path. A database written
// with different chunk dimensions is refused.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQLite{db: db}
	if err := s.initMeta(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			blocks BLOB NOT NULL,
			PRIMARY KEY (x, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLite) initMeta() error {
	want := map[string]string{
		"chunk_width":  strconv.Itoa(world.ChunkWidth),
		"chunk_height": strconv.Itoa(world.ChunkHeight),
		"world_id":     uuid.NewString(),
	}
	for _, key := range []string{"chunk_width", "chunk_height", "world_id"} {
		var have string
		err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&have)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := s.db.Exec(`INSERT INTO meta(key, value) VALUES (?, ?)`, key, want[key]); err != nil {
				return fmt.Errorf("write meta %s: %w", key, err)
			}
			have = want[key]
		case err != nil:
			return fmt.Errorf("read meta %s: %w", key, err)
		}
		if key == "world_id" {
			s.worldID = have
			continue
		}
		if have != want[key] {
			return fmt.Errorf("%w: %s is %s, build uses %s", ErrDimensionMismatch, key, have, want[key])
		}
	}
	return nil
}

// WorldID identifies the save.
func (s *SQLite) WorldID() string { return s.worldID }

func (s *SQLite) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blocks FROM chunks WHERE x = ? AND z = ?`, o.X, o.Z).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *SQLite) SaveChunk(ctx context.Context, o world.ChunkOrigin, records []world.BlockRecord) error {
	if s.closed.Load() {
		return ErrClosed
	}
	blob, err := EncodeChunk(records)
	if err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", o.X, o.Z, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chunks(x, z, blocks) VALUES (?, ?, ?)
		 ON CONFLICT(x, z) DO UPDATE SET blocks = excluded.blocks`,
		o.X, o.Z, blob)
	if err != nil {
		return fmt.Errorf("save chunk %d,%d: %w", o.X, o.Z, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
