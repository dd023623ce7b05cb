package world

// EvalRegion is a chunk-aligned rectangle of chunk origins.
// Bounds are half-open: West <= x < East, South <= z < North.
type EvalRegion struct {
	West, East, South, North int
}

// WorldPosToEvalRegion returns the square of chunks within radius-1 chunks of
// the chunk containing pos. A radius of 1 is the camera chunk alone.
func WorldPosToEvalRegion(pos WorldPos, radius int) EvalRegion {
	return OriginEvalRegion(WorldPosToOrigin(pos), radius)
}

// OriginEvalRegion is WorldPosToEvalRegion for a known chunk origin.
func OriginEvalRegion(o ChunkOrigin, radius int) EvalRegion {
	if radius < 1 {
		radius = 1
	}
	ring := (radius - 1) * ChunkWidth
	return EvalRegion{
		West:  o.X - ring,
		East:  o.X + ring + ChunkWidth,
		South: o.Z - ring,
		North: o.Z + ring + ChunkWidth,
	}
}

// Expand grows the region by one chunk on every side.
func (r EvalRegion) Expand() EvalRegion {
	return EvalRegion{
		West:  r.West - ChunkWidth,
		East:  r.East + ChunkWidth,
		South: r.South - ChunkWidth,
		North: r.North + ChunkWidth,
	}
}

// Contains reports whether origin o lies inside the region.
func (r EvalRegion) Contains(o ChunkOrigin) bool {
	return r.West <= o.X && o.X < r.East && r.South <= o.Z && o.Z < r.North
}

// Width is the number of chunks along x.
func (r EvalRegion) Width() int { return (r.East - r.West) / ChunkWidth }

// Depth is the number of chunks along z.
func (r EvalRegion) Depth() int { return (r.North - r.South) / ChunkWidth }

// Len is the number of chunk origins in the region.
func (r EvalRegion) Len() int { return r.Width() * r.Depth() }

// Origins lists the region's chunk origins in x-then-z order.
func (r EvalRegion) Origins() []ChunkOrigin {
	out := make([]ChunkOrigin, 0, max(r.Len(), 0))
	for x := r.West; x < r.East; x += ChunkWidth {
		for z := r.South; z < r.North; z += ChunkWidth {
			out = append(out, ChunkOrigin{X: x, Z: z})
		}
	}
	return out
}
