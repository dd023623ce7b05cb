package graphics

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font/gofont/gomono"
)

func TestCameraDirections(t *testing.T) {
	c := NewCamera(900, 600, 60, 3)
	assert.InDelta(t, 1.5, c.AspectRatio, 1e-6)

	f := c.Front()
	assert.InDelta(t, 0, f.X(), 1e-5)
	assert.InDelta(t, 0, f.Y(), 1e-5)
	assert.InDelta(t, -1, f.Z(), 1e-5)

	r := c.Right()
	assert.InDelta(t, 1, r.X(), 1e-5)
	assert.InDelta(t, 0, r.Z(), 1e-5)
}

func TestCameraMouseClampsPitch(t *testing.T) {
	c := NewCamera(900, 600, 60, 3)
	c.HandleMouseMovement(100, 100)
	assert.Zero(t, c.Pitch, "first sample only records the cursor")

	c.HandleMouseMovement(110, -5000)
	assert.Equal(t, float64(maxPitch), c.Pitch)
	assert.InDelta(t, -89, c.Yaw, 1e-9)

	c.HandleMouseMovement(110, 50000)
	assert.Equal(t, float64(-maxPitch), c.Pitch)
}

func TestCameraViewMovesEyeToOrigin(t *testing.T) {
	c := NewCamera(900, 600, 60, 3)
	c.Position = world.NewWorldPos(1600, 2000, -300)
	c.Yaw, c.Pitch = 30, -20
	p := c.GetViewMatrix().Mul4x1(c.Position.Vec4())
	assert.InDelta(t, 0, p.Vec3().Len(), 1e-2)
}

func TestFrustumCullsChunks(t *testing.T) {
	c := NewCamera(900, 600, 60, 3)
	c.Position = world.NewWorldPos(1600, 2000, 1600)
	fr := NewFrustum(c.GetProjectionMatrix().Mul4(c.GetViewMatrix()))

	assert.True(t, fr.ChunkVisible(world.ChunkOrigin{}), "chunk holding the camera")
	assert.True(t, fr.ChunkVisible(world.ChunkOrigin{Z: -64}), "ahead")
	assert.False(t, fr.ChunkVisible(world.ChunkOrigin{Z: 96}), "behind")
	assert.False(t, fr.ChunkVisible(world.ChunkOrigin{Z: -320}), "past the far plane")
	assert.False(t, fr.ChunkVisible(world.ChunkOrigin{X: 320, Z: -32}), "far to the side")
}

func TestChunkAABB(t *testing.T) {
	lo, hi := ChunkAABB(world.ChunkOrigin{X: -32, Z: 64})
	assert.Equal(t, mgl32.Vec3{-3300, -100, 6300}, lo)
	assert.Equal(t, mgl32.Vec3{100, 25700, 9700}, hi)
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := SolidImage(c, 4)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestSurfaceImage(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, SurfacePath(dir, world.SurfaceStone), colornames.Red)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dirt.png"), []byte("not a png"), 0o644))

	img, err := SurfaceImage(dir, world.SurfaceStone)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, SurfaceTextureSize, SurfaceTextureSize), img.Bounds())
	assert.Equal(t, colornames.Red, img.RGBAAt(SurfaceTextureSize-1, SurfaceTextureSize-1))

	img, err = SurfaceImage(dir, world.SurfaceGrass)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, colornames.Forestgreen, img.RGBAAt(0, 0))

	img, err = SurfaceImage(dir, world.SurfaceDirt)
	assert.Error(t, err)
	assert.Equal(t, colornames.Saddlebrown, img.RGBAAt(3, 3))
}

func TestBakeGlyphs(t *testing.T) {
	face, err := NewFace(gomono.TTF, 16)
	require.NoError(t, err)
	defer face.Close()

	img, chars := BakeGlyphs(face)
	h := img.Bounds().Dy()
	assert.Equal(t, atlasWidth, img.Bounds().Dx())
	assert.Positive(t, h)
	assert.Zero(t, h&(h-1), "height is a power of two")

	a, ok := chars['A']
	require.True(t, ok)
	assert.Positive(t, a.Width)
	assert.Positive(t, a.Advance)
	assert.LessOrEqual(t, a.AtlasX+a.Width, float32(atlasWidth))
	assert.LessOrEqual(t, a.AtlasY+a.Height, float32(h))

	space, ok := chars[' ']
	require.True(t, ok)
	assert.Zero(t, space.Width)
	assert.Positive(t, space.Advance)

	atlas := &FontAtlas{AtlasW: atlasWidth, AtlasH: h, Characters: chars}
	verts := AppendText(nil, atlas, "A B", 0, 20, 1)
	assert.Len(t, verts, 2*6*4, "space emits no triangles")
	assert.Empty(t, AppendText(nil, atlas, "é", 0, 20, 1))
}
