// Package landscape draws the realized surface lists of the draw region.
package landscape

import (
	"voxelscape/internal/graphics"
	renderer "voxelscape/internal/graphics/renderer"
	"voxelscape/internal/profiling"
	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const vertSrc = `#version 410 core
layout (location = 0) in vec3 position;
layout (location = 1) in vec3 normal;
layout (location = 2) in vec2 uv;
uniform mat4 view;
uniform mat4 proj;
out vec3 vNormal;
out vec2 vUV;
void main() {
	gl_Position = proj * view * vec4(position, 1.0);
	vNormal = normal;
	vUV = uv;
}
`

const fragSrc = `#version 410 core
in vec3 vNormal;
in vec2 vUV;
out vec4 color;
uniform sampler2D surface;
uniform vec3 lightDir;
uniform float ambient;
void main() {
	vec4 base = texture(surface, vUV);
	float diffuse = max(dot(normalize(vNormal), lightDir), 0.0);
	color = vec4(base.rgb * (ambient + (1.0 - ambient) * diffuse), base.a);
}
`

var lightDir = mgl32.Vec3{0.3, 1.0, 0.45}.Normalize()

const ambient = 0.45

// Landscape implements renderer.Renderable for chunk surfaces.
type Landscape struct {
	alloc      *graphics.GLAllocator
	textureDir string

	shader   *graphics.Shader
	textures *graphics.SurfaceTextures
	visible  []*world.Chunk

	drawn, culled int
}

// New draws through alloc with surface textures read from textureDir.
func New(alloc *graphics.GLAllocator, textureDir string) *Landscape {
	return &Landscape{alloc: alloc, textureDir: textureDir}
}

// Init compiles the shader and uploads the surface textures.
func (l *Landscape) Init() error {
	var err error
	l.shader, err = graphics.NewShader(vertSrc, fragSrc)
	if err != nil {
		return err
	}
	l.textures = graphics.LoadSurfaceTextures(l.textureDir)
	return nil
}

// Render culls chunks against the frustum and draws each surface type with
// its texture bound once.
func (l *Landscape) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderLandscape")()

	l.visible = l.visible[:0]
	for _, c := range ctx.Chunks {
		if !c.MeshRealized() {
			continue
		}
		if ctx.Frustum != nil && !ctx.Frustum.ChunkVisible(c.Origin()) {
			continue
		}
		l.visible = append(l.visible, c)
	}
	l.drawn = len(l.visible)
	l.culled = len(ctx.Chunks) - l.drawn

	l.shader.Use()
	l.shader.SetMatrix4("view", ctx.View)
	l.shader.SetMatrix4("proj", ctx.Proj)
	l.shader.SetVector3("lightDir", lightDir)
	l.shader.SetFloat("ambient", ambient)
	l.shader.SetInt("surface", 0)

	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		l.textures.Bind(s)
		for _, c := range l.visible {
			list := c.SurfaceList(s)
			if list == nil || !list.Realized() {
				continue
			}
			l.alloc.Draw(list.Handle())
		}
	}
}

// Counts reports chunks drawn and culled in the last frame.
func (l *Landscape) Counts() (drawn, culled int) { return l.drawn, l.culled }

// SetViewport is a no-op; the camera carries the aspect ratio.
func (l *Landscape) SetViewport(width, height int) {}

// Dispose frees the shader and textures. Vertex buffers belong to the
// streaming controller.
func (l *Landscape) Dispose() {
	if l.textures != nil {
		l.textures.Delete()
	}
	if l.shader != nil {
		l.shader.Delete()
	}
}
