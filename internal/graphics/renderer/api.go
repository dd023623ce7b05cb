package renderer

import (
	"voxelscape/internal/graphics"
	"voxelscape/internal/physics"
	"voxelscape/internal/streaming"
	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// RenderContext provides shared context for all renderables
type RenderContext struct {
	Camera  *graphics.Camera
	Frustum *graphics.Frustum
	View    mgl32.Mat4
	Proj    mgl32.Mat4

	// Chunks are the realized chunks of the draw region.
	Chunks []*world.Chunk
	Hit    physics.HitTestResult
	Stats  streaming.Stats
	DT     float64
}

// Renderable interface defines the lifecycle for renderable features
type Renderable interface {
	Init() error
	Render(ctx RenderContext)
	Dispose()
	SetViewport(width, height int)
}
