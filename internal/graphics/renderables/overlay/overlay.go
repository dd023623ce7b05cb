// Package overlay highlights the block face under the crosshair.
package overlay

import (
	"log"

	"voxelscape/internal/gpu"
	"voxelscape/internal/graphics"
	renderer "voxelscape/internal/graphics/renderer"
	"voxelscape/internal/physics"
	"voxelscape/internal/profiling"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const vertSrc = `#version 410 core
layout (location = 0) in vec3 position;
layout (location = 1) in vec2 uv;
uniform mat4 view;
uniform mat4 proj;
out vec2 vUV;
void main() {
	gl_Position = proj * view * vec4(position, 1.0);
	vUV = uv;
}
`

// The quad is tinted and darkened toward its edges so the face outline reads.
const fragSrc = `#version 410 core
in vec2 vUV;
out vec4 color;
uniform vec4 tint;
void main() {
	vec2 d = min(vUV, 1.0 - vUV);
	float edge = 1.0 - smoothstep(0.0, 0.06, min(d.x, d.y));
	color = vec4(mix(tint.rgb, vec3(0.0), edge), tint.a + edge * 0.5);
}
`

var tint = mgl32.Vec4{1, 1, 1, 0.25}

// Overlay implements renderer.Renderable for the hit face.
type Overlay struct {
	alloc  *graphics.GLAllocator
	shader *graphics.Shader
	quad   *gpu.VertexList[gpu.OverlayVertex]
	last   physics.HitTestResult
}

// New draws the overlay quad through alloc.
func New(alloc *graphics.GLAllocator) *Overlay {
	return &Overlay{alloc: alloc, quad: gpu.NewVertexList[gpu.OverlayVertex](6)}
}

// Init compiles the shader.
func (o *Overlay) Init() error {
	var err error
	o.shader, err = graphics.NewShader(vertSrc, fragSrc)
	return err
}

// Render re-uploads the quad when the hit changes and draws it blended.
func (o *Overlay) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderOverlay")()

	if !ctx.Hit.Hit() {
		o.quad.Unrealize(o.alloc)
		o.last = physics.NoHit
		return
	}
	if ctx.Hit.Grid != o.last.Grid || ctx.Hit.Face != o.last.Face || !o.quad.Realized() {
		o.quad.Reset()
		o.quad.Append(ctx.Hit.Quad()...)
		o.last = ctx.Hit
	}
	if err := o.quad.Realize(o.alloc); err != nil {
		log.Printf("overlay: %v", err)
		o.last = physics.NoHit
		return
	}

	o.shader.Use()
	o.shader.SetMatrix4("view", ctx.View)
	o.shader.SetMatrix4("proj", ctx.Proj)
	o.shader.SetVector4("tint", tint)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.DepthMask(false)
	o.alloc.Draw(o.quad.Handle())
	gl.DepthMask(true)
	gl.Disable(gl.BLEND)
}

// SetViewport is a no-op.
func (o *Overlay) SetViewport(width, height int) {}

// Dispose frees the quad buffer and shader.
func (o *Overlay) Dispose() {
	o.quad.Unrealize(o.alloc)
	if o.shader != nil {
		o.shader.Delete()
	}
}
