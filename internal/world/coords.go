package world

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Chunk dimensions in blocks. Persisted coordinates depend on these.
	ChunkWidth  = 32
	ChunkHeight = 256

	// BlockWidth is the edge length of one block in world units (centimeters).
	BlockWidth = 100.0

	// NudgeFraction of a block width applied by Nudge before floor conversion.
	NudgeFraction = 0.01
)

// WorldPos is a continuous world-space position in centimeters (w is implicitly 1).
type WorldPos mgl32.Vec3

// NewWorldPos builds a WorldPos from components.
func NewWorldPos(x, y, z float32) WorldPos {
	return WorldPos{x, y, z}
}

func (p WorldPos) X() float32 { return p[0] }
func (p WorldPos) Y() float32 { return p[1] }
func (p WorldPos) Z() float32 { return p[2] }

// Vec3 returns the position as a plain vector.
func (p WorldPos) Vec3() mgl32.Vec3 { return mgl32.Vec3(p) }

// Vec4 returns the homogeneous form of the position.
func (p WorldPos) Vec4() mgl32.Vec4 { return mgl32.Vec3(p).Vec4(1) }

// Nudge identifies a direction used to push a point just inside a cell.
type Nudge int

const (
	NudgeNone Nudge = iota
	NudgeEast
	NudgeWest
	NudgeUp
	NudgeDown
	NudgeNorth
	NudgeSouth
)

func (n Nudge) offset() mgl32.Vec3 {
	d := float32(BlockWidth * NudgeFraction)
	switch n {
	case NudgeEast:
		return mgl32.Vec3{d, 0, 0}
	case NudgeWest:
		return mgl32.Vec3{-d, 0, 0}
	case NudgeUp:
		return mgl32.Vec3{0, d, 0}
	case NudgeDown:
		return mgl32.Vec3{0, -d, 0}
	case NudgeNorth:
		return mgl32.Vec3{0, 0, d}
	case NudgeSouth:
		return mgl32.Vec3{0, 0, -d}
	}
	return mgl32.Vec3{}
}

// GlobalGrid is an integer cell address valid world-wide.
type GlobalGrid struct {
	X, Y, Z int
}

// LocalGrid is a chunk-relative cell address.
type LocalGrid struct {
	X, Y, Z int
}

// ChunkOrigin identifies a chunk; both components are multiples of ChunkWidth.
type ChunkOrigin struct {
	X, Z int
}

// WorldPosToGlobal quantises a world position to the cell that contains it.
func WorldPosToGlobal(p WorldPos) GlobalGrid {
	return WorldPosToGlobalNudged(p, NudgeNone)
}

// WorldPosToGlobalNudged perturbs p towards n before quantising.
func WorldPosToGlobalNudged(p WorldPos, n Nudge) GlobalGrid {
	v := mgl32.Vec3(p).Add(n.offset())
	return GlobalGrid{
		X: int(math.Floor(float64(v[0]) / BlockWidth)),
		Y: int(math.Floor(float64(v[1]) / BlockWidth)),
		Z: int(math.Floor(float64(v[2]) / BlockWidth)),
	}
}

// WorldPos returns the minimum corner of the cell.
func (g GlobalGrid) WorldPos() WorldPos {
	return WorldPos{float32(g.X) * BlockWidth, float32(g.Y) * BlockWidth, float32(g.Z) * BlockWidth}
}

// Center returns the center of the cell.
func (g GlobalGrid) Center() WorldPos {
	h := float32(BlockWidth / 2)
	c := g.WorldPos()
	return WorldPos{c[0] + h, c[1] + h, c[2] + h}
}

// InHeight reports whether Y lies inside the chunk column.
func (g GlobalGrid) InHeight() bool {
	return g.Y >= 0 && g.Y < ChunkHeight
}

// Add offsets the cell by the given deltas.
func (g GlobalGrid) Add(dx, dy, dz int) GlobalGrid {
	return GlobalGrid{g.X + dx, g.Y + dy, g.Z + dz}
}

// Origin returns the origin of the chunk holding g.
func (g GlobalGrid) Origin() ChunkOrigin {
	return ChunkOrigin{
		X: floorDiv(g.X, ChunkWidth) * ChunkWidth,
		Z: floorDiv(g.Z, ChunkWidth) * ChunkWidth,
	}
}

// GlobalGridToLocal converts g relative to origin o. o must be g.Origin().
func GlobalGridToLocal(g GlobalGrid, o ChunkOrigin) LocalGrid {
	return LocalGrid{X: g.X - o.X, Y: g.Y, Z: g.Z - o.Z}
}

// Global reconstructs the global cell address of l inside chunk o.
func (o ChunkOrigin) Global(l LocalGrid) GlobalGrid {
	return GlobalGrid{X: o.X + l.X, Y: l.Y, Z: o.Z + l.Z}
}

// WorldPos returns the world-space corner of the chunk at y=0.
func (o ChunkOrigin) WorldPos() WorldPos {
	return WorldPos{float32(o.X) * BlockWidth, 0, float32(o.Z) * BlockWidth}
}

// LocalToWorld is the transform from local cell units to world space.
func (o ChunkOrigin) LocalToWorld() mgl32.Mat4 {
	c := o.WorldPos()
	return mgl32.Translate3D(c[0], c[1], c[2]).Mul4(mgl32.Scale3D(BlockWidth, BlockWidth, BlockWidth))
}

// Offset moves the origin by whole chunks.
func (o ChunkOrigin) Offset(dx, dz int) ChunkOrigin {
	return ChunkOrigin{X: o.X + dx*ChunkWidth, Z: o.Z + dz*ChunkWidth}
}

// Aligned reports whether both components are chunk-aligned.
func (o ChunkOrigin) Aligned() bool {
	return mod(o.X, ChunkWidth) == 0 && mod(o.Z, ChunkWidth) == 0
}

// CompareOrigins orders origins by x then z.
func CompareOrigins(a, b ChunkOrigin) int {
	if c := cmp.Compare(a.X, b.X); c != 0 {
		return c
	}
	return cmp.Compare(a.Z, b.Z)
}

// Less reports whether o sorts before other.
func (o ChunkOrigin) Less(other ChunkOrigin) bool {
	return CompareOrigins(o, other) < 0
}

// WorldPosToOrigin returns the origin of the chunk containing p.
func WorldPosToOrigin(p WorldPos) ChunkOrigin {
	return WorldPosToGlobal(p).Origin()
}

// InChunk reports whether l addresses a cell inside a chunk.
func (l LocalGrid) InChunk() bool {
	return l.X >= 0 && l.X < ChunkWidth &&
		l.Y >= 0 && l.Y < ChunkHeight &&
		l.Z >= 0 && l.Z < ChunkWidth
}

// floorDiv performs floor division for possibly negative a.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod returns the non-negative remainder of a/b.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
