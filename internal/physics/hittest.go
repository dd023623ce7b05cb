package physics

import (
	"math"

	"voxelscape/internal/config"
	"voxelscape/internal/gpu"
	"voxelscape/internal/metrics"
	"voxelscape/internal/profiling"
	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// parallelEpsilon rejects face families the ray runs along or away from.
	parallelEpsilon = 1e-6

	// overlayLift raises the hit overlay off the face, in world units.
	overlayLift = 0.5
)

// HitTestResult is the nearest filled face crossed by a ray.
type HitTestResult struct {
	Origin   world.ChunkOrigin
	Grid     world.GlobalGrid
	Face     world.BlockFace
	Impact   world.WorldPos
	Distance float32
}

// NoHit is returned when no face lies within reach.
var NoHit = HitTestResult{Distance: math.MaxFloat32}

// Hit reports whether the result names a block.
func (r HitTestResult) Hit() bool { return r.Distance != math.MaxFloat32 }

// Adjacent is the cell on the outside of the hit face.
func (r HitTestResult) Adjacent() world.GlobalGrid {
	return r.Grid.Add(r.Face.Offset())
}

// Quad returns the hit face as two triangles for an overlay draw. A miss
// yields nil.
func (r HitTestResult) Quad() []gpu.OverlayVertex {
	if !r.Hit() {
		return nil
	}
	base := r.Grid.WorldPos().Vec3()
	lift := r.Face.Normal().Mul(overlayLift)
	corners := r.Face.Corners()
	uvs := r.Face.CornerUVs()

	var quad [4]gpu.OverlayVertex
	for i, c := range corners {
		quad[i] = gpu.OverlayVertex{
			Pos: base.Add(c.Mul(world.BlockWidth)).Add(lift),
			UV:  uvs[i],
		}
	}
	out := make([]gpu.OverlayVertex, len(world.QuadIndices))
	for i, idx := range world.QuadIndices {
		out[i] = quad[idx]
	}
	return out
}

// Resolver answers "which block is the camera looking at".
type Resolver struct {
	world   *world.World
	maxDist float32
	metrics *metrics.Collector

	chunks []*world.Chunk
}

// NewResolver creates a resolver that reaches cfg's hit-test distance.
func NewResolver(cfg *config.Config, w *world.World, m *metrics.Collector) *Resolver {
	return &Resolver{world: w, maxDist: cfg.HitTestDistanceWorld(), metrics: m}
}

// MaxDistance is the reach in world units.
func (r *Resolver) MaxDistance() float32 { return r.maxDist }

// HitTest casts a ray from origin along dir up to the configured reach.
func (r *Resolver) HitTest(origin world.WorldPos, dir mgl32.Vec3) HitTestResult {
	res := r.HitTestWithin(origin, dir, r.maxDist)
	r.metrics.HitTest(res.Hit())
	return res
}

// HitTestWithin casts a ray from origin along dir and reports the nearest
// filled face no farther than maxDist.
func (r *Resolver) HitTestWithin(origin world.WorldPos, dir mgl32.Vec3, maxDist float32) HitTestResult {
	defer profiling.Track("physics.HitTest")()
	if dir.Len() == 0 || maxDist <= 0 {
		return NoHit
	}
	dir = dir.Normalize()

	span := float64(world.ChunkWidth * world.BlockWidth)
	radius := int(math.Ceil(float64(maxDist)/span)) + 1
	region := world.WorldPosToEvalRegion(origin, radius)
	r.chunks = r.world.AppendInRegion(region, r.chunks[:0])

	best := NoHit
	for _, c := range r.chunks {
		for _, f := range world.AllFaces {
			cand, ok := scanFamily(c, f, origin.Vec3(), dir, maxDist)
			if ok && cand.Distance < best.Distance {
				best = cand
			}
		}
	}
	if best.Distance > maxDist {
		return NoHit
	}
	return best
}

// scanFamily walks the grid planes of one face orientation inside c, nearest
// first, and stops at the first plane whose impact cell is filled.
func scanFamily(c *world.Chunk, f world.BlockFace, origin, dir mgl32.Vec3, maxDist float32) (HitTestResult, bool) {
	normal := f.Normal()
	if normal.Dot(dir) >= -parallelEpsilon {
		return HitTestResult{}, false
	}

	axis, positive := faceAxis(f)
	o := c.Origin()
	var lo, hi int
	switch axis {
	case 0:
		lo, hi = o.X, o.X+world.ChunkWidth
	case 1:
		lo, hi = 0, world.ChunkHeight
	default:
		lo, hi = o.Z, o.Z+world.ChunkWidth
	}

	// A face on the positive side of cell i lies on plane i+1. The ray moves
	// against the normal, so positive faces are met from the top index down.
	step, first, shift := 1, lo, 0
	if positive {
		step, first, shift = -1, hi-1, 1
	}
	for i := first; i >= lo && i < hi; i += step {
		plane := float32(i+shift) * world.BlockWidth
		t := (plane - origin[axis]) / dir[axis]
		if t < 0 {
			continue
		}
		if t > maxDist {
			break
		}
		p := origin.Add(dir.Mul(t))
		p[axis] = plane
		impact := world.WorldPos(p)

		g := world.WorldPosToGlobalNudged(impact, f.Inward())
		if !g.InHeight() || g.Origin() != o {
			continue
		}
		if !c.BlockType(world.GlobalGridToLocal(g, o)).Filled() {
			continue
		}
		return HitTestResult{Origin: o, Grid: g, Face: f, Impact: impact, Distance: t}, true
	}
	return HitTestResult{}, false
}

// faceAxis returns the axis a face is perpendicular to and whether its
// normal points along the positive axis.
func faceAxis(f world.BlockFace) (axis int, positive bool) {
	switch f {
	case world.FaceWest:
		return 0, false
	case world.FaceEast:
		return 0, true
	case world.FaceBottom:
		return 1, false
	case world.FaceTop:
		return 1, true
	case world.FaceSouth:
		return 2, false
	default:
		return 2, true
	}
}
