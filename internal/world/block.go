package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type BlockType uint8

const (
	BlockTypeAir BlockType = iota
	BlockTypeDirt
	BlockTypeStone
	BlockTypeCoal

	NumBlockTypes
)

var blockNames = [NumBlockTypes]string{"air", "dirt", "stone", "coal"}

func (b BlockType) String() string {
	if b < NumBlockTypes {
		return blockNames[b]
	}
	return fmt.Sprintf("block(%d)", uint8(b))
}

// Filled reports whether the block occupies its cell.
func (b BlockType) Filled() bool {
	return b != BlockTypeAir
}

// ParseBlockType resolves a block name.
func ParseBlockType(name string) (BlockType, error) {
	for i, n := range blockNames {
		if n == name {
			return BlockType(i), nil
		}
	}
	return BlockTypeAir, fmt.Errorf("unknown block type %q", name)
}

// BlockFace identifies a face of a block
type BlockFace uint8

// Faces are listed in hit-test evaluation order.
const (
	FaceSouth BlockFace = iota // -Z
	FaceNorth                  // +Z
	FaceWest                   // -X
	FaceEast                   // +X
	FaceTop                    // +Y
	FaceBottom                 // -Y

	NumFaces
)

// AllFaces in evaluation order.
var AllFaces = [NumFaces]BlockFace{FaceSouth, FaceNorth, FaceWest, FaceEast, FaceTop, FaceBottom}

var faceNames = [NumFaces]string{"south", "north", "west", "east", "top", "bottom"}

func (f BlockFace) String() string {
	if f < NumFaces {
		return faceNames[f]
	}
	return fmt.Sprintf("face(%d)", uint8(f))
}

// ParseFace resolves a face name.
func ParseFace(name string) (BlockFace, error) {
	for i, n := range faceNames {
		if n == name {
			return BlockFace(i), nil
		}
	}
	return 0, fmt.Errorf("unknown face %q", name)
}

type faceInfo struct {
	dx, dy, dz int
	normal     mgl32.Vec3
	inward     Nudge // towards the cell owning the face
	corners    [4]mgl32.Vec3
	uvs        [4]mgl32.Vec2
}

// faceTable holds, per face, the neighbor offset, outward normal and the
// unit-cell corners in counter-clockwise order seen from outside.
var faceTable = [NumFaces]faceInfo{
	FaceSouth: {
		dz: -1, normal: mgl32.Vec3{0, 0, -1}, inward: NudgeNorth,
		corners: [4]mgl32.Vec3{{1, 0, 0}, {0, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	},
	FaceNorth: {
		dz: 1, normal: mgl32.Vec3{0, 0, 1}, inward: NudgeSouth,
		corners: [4]mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	},
	FaceWest: {
		dx: -1, normal: mgl32.Vec3{-1, 0, 0}, inward: NudgeEast,
		corners: [4]mgl32.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	},
	FaceEast: {
		dx: 1, normal: mgl32.Vec3{1, 0, 0}, inward: NudgeWest,
		corners: [4]mgl32.Vec3{{1, 0, 1}, {1, 0, 0}, {1, 1, 0}, {1, 1, 1}},
	},
	FaceTop: {
		dy: 1, normal: mgl32.Vec3{0, 1, 0}, inward: NudgeDown,
		corners: [4]mgl32.Vec3{{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	},
	FaceBottom: {
		dy: -1, normal: mgl32.Vec3{0, -1, 0}, inward: NudgeUp,
		corners: [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
	},
}

func init() {
	for f := range faceTable {
		faceTable[f].uvs = [4]mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	}
}

// Offset returns the grid step from a cell to its neighbor across f.
func (f BlockFace) Offset() (dx, dy, dz int) {
	fi := &faceTable[f]
	return fi.dx, fi.dy, fi.dz
}

// Normal returns the outward unit normal of f.
func (f BlockFace) Normal() mgl32.Vec3 { return faceTable[f].normal }

// Inward returns the nudge that points from the face plane into its cell.
func (f BlockFace) Inward() Nudge { return faceTable[f].inward }

// Corners returns the unit-cell corners of f in winding order.
func (f BlockFace) Corners() [4]mgl32.Vec3 { return faceTable[f].corners }

// CornerUVs returns the texture coordinates matching Corners.
func (f BlockFace) CornerUVs() [4]mgl32.Vec2 { return faceTable[f].uvs }

// QuadIndices splits a quad into two triangles with the face winding.
var QuadIndices = [6]int{0, 1, 2, 2, 3, 0}

// FaceSet is a bitmask of exposed faces.
type FaceSet uint8

func (s FaceSet) Has(f BlockFace) bool { return s&(1<<f) != 0 }

func (s FaceSet) With(f BlockFace) FaceSet { return s | 1<<f }

func (s FaceSet) Count() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Block is the per-cell state. Exposed is derived from the neighborhood and
// only ever non-empty for filled blocks.
type Block struct {
	Type    BlockType
	Exposed FaceSet
}
