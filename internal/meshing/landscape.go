// Package meshing turns exposed block faces into per-surface triangle lists.
package meshing

import (
	"errors"
	"fmt"

	"voxelscape/internal/gpu"
	"voxelscape/internal/profiling"
	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// VerticesPerQuad is two triangles.
const VerticesPerQuad = 6

// RebuildSurfaceLists emits one quad per exposed face into the list of the
// face's surface. Lists are rebuilt wholesale; every surface gets a list even
// when it has no faces.
func RebuildSurfaceLists(c *world.Chunk) {
	defer profiling.Track("meshing.RebuildSurfaceLists")()

	totals := c.SurfaceTotals()
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		l := c.SurfaceList(s)
		if l == nil {
			l = gpu.NewVertexList[gpu.LandscapeVertex](totals[s] * VerticesPerQuad)
			c.SetSurfaceList(s, l)
		}
		l.Reset()
	}

	xf := c.Origin().LocalToWorld()
	for _, eb := range c.ExposedBlocks() {
		cell := mgl32.Vec3{float32(eb.Local.X), float32(eb.Local.Y), float32(eb.Local.Z)}
		for _, f := range world.AllFaces {
			if !eb.Faces.Has(f) {
				continue
			}
			surf := eb.Surfaces[f]
			if surf == world.SurfaceNone {
				continue
			}
			c.SurfaceList(surf).Append(FaceQuad(xf, cell, f)...)
		}
	}
	c.ClearMeshStale()
}

// FaceQuad returns the six world-space vertices for face f of the cell whose
// minimum corner is cell, in local units transformed by xf.
func FaceQuad(xf mgl32.Mat4, cell mgl32.Vec3, f world.BlockFace) []gpu.LandscapeVertex {
	corners := f.Corners()
	uvs := f.CornerUVs()
	normal := f.Normal()

	var quad [4]gpu.LandscapeVertex
	for i, corner := range corners {
		p := xf.Mul4x1(cell.Add(corner).Vec4(1))
		quad[i] = gpu.LandscapeVertex{Pos: p.Vec3(), Normal: normal, UV: uvs[i]}
	}
	out := make([]gpu.LandscapeVertex, VerticesPerQuad)
	for i, idx := range world.QuadIndices {
		out[i] = quad[idx]
	}
	return out
}

// Realize uploads every surface list with data. It is a no-op for lists that
// are already realized and unchanged.
func Realize(c *world.Chunk, a gpu.Allocator) error {
	defer profiling.Track("meshing.Realize")()
	if !c.MeshBuilt() {
		return fmt.Errorf("realize chunk %+v: mesh not built", c.Origin())
	}
	var errs []error
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		if err := c.SurfaceList(s).Realize(a); err != nil {
			errs = append(errs, fmt.Errorf("surface %s: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

// Unrealize frees device buffers and keeps vertex data for re-realization.
func Unrealize(c *world.Chunk, a gpu.Allocator) {
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		if l := c.SurfaceList(s); l != nil {
			l.Unrealize(a)
		}
	}
}

// QuadCounts returns the number of quads in each surface list.
func QuadCounts(c *world.Chunk) world.SurfaceTotals {
	var out world.SurfaceTotals
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		if l := c.SurfaceList(s); l != nil {
			out[s] = l.Len() / VerticesPerQuad
		}
	}
	return out
}

// VertexBytes is the CPU-side size of every surface list of c.
func VertexBytes(c *world.Chunk) int {
	n := 0
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		if l := c.SurfaceList(s); l != nil {
			n += l.SizeBytes()
		}
	}
	return n
}
