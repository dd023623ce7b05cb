package world

import "fmt"

// SurfaceType is the render material of an exposed face.
type SurfaceType uint8

const (
	SurfaceNone SurfaceType = iota
	SurfaceGrass
	SurfaceDirt
	SurfaceStone
	SurfaceCoal

	NumSurfaceTypes
)

var surfaceNames = [NumSurfaceTypes]string{"none", "grass", "dirt", "stone", "coal"}

func (s SurfaceType) String() string {
	if s < NumSurfaceTypes {
		return surfaceNames[s]
	}
	return fmt.Sprintf("surface(%d)", uint8(s))
}

// ParseSurfaceType resolves a surface name.
func ParseSurfaceType(name string) (SurfaceType, error) {
	for i, n := range surfaceNames {
		if n == name {
			return SurfaceType(i), nil
		}
	}
	return SurfaceNone, fmt.Errorf("unknown surface type %q", name)
}

// SurfaceTotals counts exposed faces per surface type.
type SurfaceTotals [NumSurfaceTypes]int

// Sum returns the number of exposed faces over all surfaces.
func (t SurfaceTotals) Sum() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// SurfaceRule maps a (block, face, neighbor) pattern to a surface. A nil
// Face or Neighbor matches anything.
type SurfaceRule struct {
	Block    BlockType
	Face     *BlockFace
	Neighbor *BlockType
	Surface  SurfaceType
}

// SurfaceTable resolves the surface of an exposed face. Rules are evaluated
// first-match and compiled into a dense lookup.
type SurfaceTable struct {
	rules  []SurfaceRule
	lookup [NumBlockTypes][NumFaces][NumBlockTypes]SurfaceType
}

// DefaultSurfaceRules renders grass on a dirt top open to air and the block's
// own material elsewhere.
func DefaultSurfaceRules() []SurfaceRule {
	top := FaceTop
	air := BlockTypeAir
	return []SurfaceRule{
		{Block: BlockTypeDirt, Face: &top, Neighbor: &air, Surface: SurfaceGrass},
		{Block: BlockTypeDirt, Surface: SurfaceDirt},
		{Block: BlockTypeStone, Surface: SurfaceStone},
		{Block: BlockTypeCoal, Surface: SurfaceCoal},
	}
}

// NewSurfaceTable compiles rules. Filled blocks with no matching rule fall
// back to SurfaceStone so no exposed face is left without a list.
func NewSurfaceTable(rules []SurfaceRule) *SurfaceTable {
	t := &SurfaceTable{rules: append([]SurfaceRule(nil), rules...)}
	for b := range NumBlockTypes {
		if !b.Filled() {
			continue
		}
		for f := range NumFaces {
			for n := range NumBlockTypes {
				t.lookup[b][f][n] = t.match(b, f, n)
			}
		}
	}
	return t
}

// DefaultSurfaceTable compiles DefaultSurfaceRules.
func DefaultSurfaceTable() *SurfaceTable {
	return NewSurfaceTable(DefaultSurfaceRules())
}

func (t *SurfaceTable) match(b BlockType, f BlockFace, n BlockType) SurfaceType {
	for _, r := range t.rules {
		if r.Block != b {
			continue
		}
		if r.Face != nil && *r.Face != f {
			continue
		}
		if r.Neighbor != nil && *r.Neighbor != n {
			continue
		}
		return r.Surface
	}
	return SurfaceStone
}

// Surface returns the surface for face f of block b whose neighbor is n.
func (t *SurfaceTable) Surface(b BlockType, f BlockFace, n BlockType) SurfaceType {
	return t.lookup[b][f][n]
}

// Rules returns a copy of the source rules.
func (t *SurfaceTable) Rules() []SurfaceRule {
	return append([]SurfaceRule(nil), t.rules...)
}
