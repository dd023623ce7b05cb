package world

import (
	"context"
	"math"

	"github.com/aquilax/go-perlin"
)

// Generator handles terrain generation for chunks that were never saved.
type Generator struct {
	seed       int64
	noise      *perlin.Perlin
	ore        *perlin.Perlin
	scale      float64
	baseHeight int
	amp        float64
	dirtDepth  int
	coalCutoff float64
}

// NewGenerator creates a new generator with default settings.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		seed:       seed,
		noise:      perlin.NewPerlin(2, 2, 3, seed),
		ore:        perlin.NewPerlin(2, 2, 2, seed+1),
		scale:      1.0 / 64.0,
		baseHeight: 40,
		amp:        24,
		dirtDepth:  3,
		coalCutoff: 0.35,
	}
}

// HeightAt computes the index of the topmost filled cell at global x,z.
func (g *Generator) HeightAt(x, z int) int {
	n := g.noise.Noise2D(float64(x)*g.scale, float64(z)*g.scale)
	h := int(math.Floor(float64(g.baseHeight) + n*g.amp))
	return min(max(h, 0), ChunkHeight-1)
}

func (g *Generator) blockAt(x, y, z, height int) BlockType {
	switch {
	case y > height:
		return BlockTypeAir
	case y > height-g.dirtDepth:
		return BlockTypeDirt
	}
	if g.ore.Noise3D(float64(x)*0.1, float64(y)*0.1, float64(z)*0.1) > g.coalCutoff {
		return BlockTypeCoal
	}
	return BlockTypeStone
}

// LoadChunkBlocks generates the records for the chunk at o.
func (g *Generator) LoadChunkBlocks(ctx context.Context, o ChunkOrigin) ([]BlockRecord, error) {
	var out []BlockRecord
	for lx := range ChunkWidth {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for lz := range ChunkWidth {
			gx, gz := o.X+lx, o.Z+lz
			height := g.HeightAt(gx, gz)
			for y := 0; y <= height; y++ {
				out = append(out, BlockRecord{
					Local: LocalGrid{lx, y, lz},
					Type:  g.blockAt(gx, y, gz, height),
				})
			}
		}
	}
	return out, nil
}

// PopulateChunk fills c from the height map.
func (g *Generator) PopulateChunk(c *Chunk) {
	recs, _ := g.LoadChunkBlocks(context.Background(), c.Origin())
	c.Populate(recs)
}
