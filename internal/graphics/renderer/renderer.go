package renderer

import (
	"fmt"

	"voxelscape/internal/graphics"
	"voxelscape/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// SkyColor clears the frame.
var SkyColor = mgl32.Vec4{0.53, 0.81, 0.92, 1.0}

// Renderer orchestrates rendering via renderable features
type Renderer struct {
	renderables []Renderable
	camera      *graphics.Camera
}

// NewRenderer configures GL state and initializes the renderables in order.
func NewRenderer(camera *graphics.Camera, rs ...Renderable) (*Renderer, error) {
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)

	for i, r := range rs {
		if err := r.Init(); err != nil {
			for _, done := range rs[:i] {
				done.Dispose()
			}
			return nil, fmt.Errorf("init renderable %T: %w", r, err)
		}
	}
	return &Renderer{renderables: rs, camera: camera}, nil
}

// Camera returns the camera every frame is drawn from.
func (r *Renderer) Camera() *graphics.Camera { return r.camera }

// Render clears the frame and draws every renderable. The camera, view,
// projection and frustum fields of ctx are filled in here.
func (r *Renderer) Render(ctx RenderContext) {
	defer profiling.Track("renderer.Render")()

	gl.ClearColor(SkyColor.X(), SkyColor.Y(), SkyColor.Z(), SkyColor.W())
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	ctx.Camera = r.camera
	ctx.View = r.camera.GetViewMatrix()
	ctx.Proj = r.camera.GetProjectionMatrix()
	frustum := graphics.NewFrustum(ctx.Proj.Mul4(ctx.View))
	ctx.Frustum = &frustum

	for _, rend := range r.renderables {
		rend.Render(ctx)
	}
}

// SetViewport resizes the GL viewport and every renderable.
func (r *Renderer) SetViewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	r.camera.SetViewport(width, height)
	for _, rend := range r.renderables {
		rend.SetViewport(width, height)
	}
}

// Dispose frees every renderable.
func (r *Renderer) Dispose() {
	for _, rend := range r.renderables {
		rend.Dispose()
	}
}
