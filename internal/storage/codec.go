package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"voxelscape/internal/world"

	"github.com/klauspost/compress/zstd"
)

// Chunk blobs are zstd frames over a run-length encoding of the full chunk
// volume in stripe order (x, then y, then z):
//
//	magic "VXC1" | width u16 | height u16 | { run uvarint | type u8 }*
const chunkMagic = "VXC1"

var (
	encOnce  sync.Once
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	codecErr error
)

func codec() (*zstd.Encoder, *zstd.Decoder, error) {
	encOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
	})
	return encoder, decoder, codecErr
}

func volumeIndex(l world.LocalGrid) int {
	return (l.X*world.ChunkHeight+l.Y)*world.ChunkWidth + l.Z
}

const volume = world.ChunkWidth * world.ChunkHeight * world.ChunkWidth

// EncodeChunk serialises records into a compressed blob.
func EncodeChunk(records []world.BlockRecord) ([]byte, error) {
	enc, _, err := codec()
	if err != nil {
		return nil, err
	}
	cells := make([]world.BlockType, volume)
	for _, r := range records {
		if !r.Local.InChunk() {
			return nil, fmt.Errorf("record %+v outside chunk", r.Local)
		}
		cells[volumeIndex(r.Local)] = r.Type
	}

	raw := make([]byte, 0, 1024)
	raw = append(raw, chunkMagic...)
	raw = binary.LittleEndian.AppendUint16(raw, world.ChunkWidth)
	raw = binary.LittleEndian.AppendUint16(raw, world.ChunkHeight)
	for i := 0; i < len(cells); {
		j := i + 1
		for j < len(cells) && cells[j] == cells[i] {
			j++
		}
		raw = binary.AppendUvarint(raw, uint64(j-i))
		raw = append(raw, byte(cells[i]))
		i = j
	}
	return enc.EncodeAll(raw, nil), nil
}

// DecodeChunk restores the filled cells of a blob.
func DecodeChunk(blob []byte) ([]world.BlockRecord, error) {
	_, dec, err := codec()
	if err != nil {
		return nil, err
	}
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk: %w", err)
	}
	if len(raw) < 8 || string(raw[:4]) != chunkMagic {
		return nil, errors.New("chunk blob: bad header")
	}
	w := binary.LittleEndian.Uint16(raw[4:])
	h := binary.LittleEndian.Uint16(raw[6:])
	if w != world.ChunkWidth || h != world.ChunkHeight {
		return nil, fmt.Errorf("%w: blob is %dx%d", ErrDimensionMismatch, w, h)
	}

	var out []world.BlockRecord
	buf := raw[8:]
	idx := 0
	for len(buf) > 0 {
		run, n := binary.Uvarint(buf)
		if n <= 0 || len(buf) < n+1 {
			return nil, errors.New("chunk blob: truncated run")
		}
		t := world.BlockType(buf[n])
		buf = buf[n+1:]
		if idx+int(run) > volume {
			return nil, errors.New("chunk blob: runs exceed volume")
		}
		if t >= world.NumBlockTypes {
			return nil, fmt.Errorf("chunk blob: unknown block type %d", t)
		}
		if t.Filled() {
			for i := idx; i < idx+int(run); i++ {
				z := i % world.ChunkWidth
				xy := i / world.ChunkWidth
				out = append(out, world.BlockRecord{
					Local: world.LocalGrid{X: xy / world.ChunkHeight, Y: xy % world.ChunkHeight, Z: z},
					Type:  t,
				})
			}
		}
		idx += int(run)
	}
	if idx != volume {
		return nil, fmt.Errorf("chunk blob: covers %d of %d cells", idx, volume)
	}
	return out, nil
}
