package graphics

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	atlasWidth   = 512
	atlasPadding = 1
)

// FontCharacter describes a single character's placement and metrics within the atlas
type FontCharacter struct {
	// Pixel coordinates of the glyph in the atlas texture (top-left origin)
	AtlasX float32
	AtlasY float32
	// Glyph bitmap size in pixels
	Width  float32
	Height float32
	// Bearing (offset from baseline) in pixels
	BearingX float32
	BearingY float32
	Advance  int
}

// FontAtlas is a baked glyph set and its texture.
type FontAtlas struct {
	TextureID  uint32
	AtlasW     int
	AtlasH     int
	Characters map[rune]FontCharacter
}

// NewFace parses a TrueType/OpenType font at the given pixel size.
func NewFace(ttf []byte, fontPixels int) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(fontPixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	return face, nil
}

// BakeGlyphs packs the printable ASCII glyphs of face into rows of an alpha
// image whose height is rounded up to a power of two.
func BakeGlyphs(face font.Face) (*image.Alpha, map[rune]FontCharacter) {
	type glyph struct {
		r       rune
		dr      image.Rectangle
		mask    image.Image
		maskp   image.Point
		advance fixed.Int26_6
	}
	var glyphs []glyph
	for r := rune(32); r <= 126; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok {
			continue
		}
		glyphs = append(glyphs, glyph{r, dr, mask, maskp, advance})
	}

	// First pass: place glyphs in rows
	type slot struct{ x, y int }
	slots := make([]slot, len(glyphs))
	x, y, rowH := 0, 0, 0
	for i, g := range glyphs {
		w, h := g.dr.Dx(), g.dr.Dy()
		if x+w > atlasWidth {
			x = 0
			y += rowH + atlasPadding
			rowH = 0
		}
		slots[i] = slot{x, y}
		x += w + atlasPadding
		rowH = max(rowH, h)
	}
	atlasH := 1
	for atlasH < y+rowH {
		atlasH <<= 1
	}

	atlas := image.NewAlpha(image.Rect(0, 0, atlasWidth, atlasH))
	characters := make(map[rune]FontCharacter, len(glyphs))
	for i, g := range glyphs {
		s := slots[i]
		w, h := g.dr.Dx(), g.dr.Dy()
		if w > 0 && h > 0 && g.mask != nil {
			draw.Draw(atlas, image.Rect(s.x, s.y, s.x+w, s.y+h), g.mask, g.maskp, draw.Src)
		}
		characters[g.r] = FontCharacter{
			AtlasX:   float32(s.x),
			AtlasY:   float32(s.y),
			Width:    float32(w),
			Height:   float32(h),
			BearingX: float32(g.dr.Min.X),
			BearingY: float32(-g.dr.Min.Y),
			Advance:  int(math.Round(float64(g.advance) / 64.0)),
		}
	}
	return atlas, characters
}

// BuildFontAtlas bakes a font into a GL_RED texture.
func BuildFontAtlas(ttf []byte, fontPixels int) (*FontAtlas, error) {
	face, err := NewFace(ttf, fontPixels)
	if err != nil {
		return nil, err
	}
	defer func() { _ = face.Close() }()

	img, characters := BakeGlyphs(face)
	size := img.Bounds().Size()

	var texture uint32
	gl.GenTextures(1, &texture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, texture)
	// Ensure tight byte alignment for single-channel (alpha) upload
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(size.X), int32(size.Y), 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return &FontAtlas{TextureID: texture, AtlasW: size.X, AtlasH: size.Y, Characters: characters}, nil
}

const fontVert = `#version 410 core
layout (location = 0) in vec4 vertex; // xy = pos, zw = uv
out vec2 uv;
uniform mat4 projection;
void main() {
	gl_Position = projection * vec4(vertex.xy, 0.0, 1.0);
	uv = vertex.zw;
}
`

const fontFrag = `#version 410 core
in vec2 uv;
out vec4 color;
uniform sampler2D text;
uniform vec3 textColor;
void main() {
	color = vec4(textColor, texture(text, uv).r);
}
`

// FontRenderer draws text lines in screen pixels with a top-left origin.
type FontRenderer struct {
	atlas      *FontAtlas
	shader     *Shader
	projection mgl32.Mat4
	vao        uint32
	vbo        uint32
	verts      []float32
}

// NewFontRenderer creates the text shader and a dynamic vertex buffer.
func NewFontRenderer(atlas *FontAtlas, width, height int) (*FontRenderer, error) {
	if atlas == nil || len(atlas.Characters) == 0 {
		return nil, fmt.Errorf("invalid font atlas")
	}
	shader, err := NewShader(fontVert, fontFrag)
	if err != nil {
		return nil, fmt.Errorf("font shader: %w", err)
	}
	fr := &FontRenderer{atlas: atlas, shader: shader}
	fr.SetViewport(width, height)

	gl.GenVertexArrays(1, &fr.vao)
	gl.GenBuffers(1, &fr.vbo)
	gl.BindVertexArray(fr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, fr.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 4, gl.FLOAT, false, 4*4, 0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return fr, nil
}

// SetViewport resets the pixel projection.
func (fr *FontRenderer) SetViewport(width, height int) {
	fr.projection = mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1)
}

// RenderLines draws lines starting at (x, yStart), each lineStep pixels
// below the previous, in a single draw call.
func (fr *FontRenderer) RenderLines(lines []string, x, yStart, lineStep, scale float32, color mgl32.Vec3) {
	fr.verts = fr.verts[:0]
	y := yStart
	for _, line := range lines {
		fr.verts = AppendText(fr.verts, fr.atlas, line, x, y, scale)
		y += lineStep
	}
	if len(fr.verts) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	fr.shader.Use()
	fr.shader.SetVector3("textColor", color)
	fr.shader.SetMatrix4("projection", fr.projection)
	fr.shader.SetInt("text", 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, fr.atlas.TextureID)
	gl.BindVertexArray(fr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, fr.vbo)
	size := len(fr.verts) * 4
	// orphan the previous buffer before refilling
	gl.BufferData(gl.ARRAY_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, size, gl.Ptr(fr.verts))
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(fr.verts)/4))

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

// AppendText appends two triangles per visible glyph of line as
// (x, y, u, v) floats. Missing glyphs advance like a space.
func AppendText(dst []float32, atlas *FontAtlas, line string, x, y, scale float32) []float32 {
	aw, ah := float32(atlas.AtlasW), float32(atlas.AtlasH)
	for _, r := range line {
		fc, ok := atlas.Characters[r]
		if !ok {
			x += float32(atlas.Characters[' '].Advance) * scale
			continue
		}
		if fc.Width > 0 && fc.Height > 0 {
			x0 := x + fc.BearingX*scale
			y0 := y - fc.BearingY*scale
			x1 := x0 + fc.Width*scale
			y1 := y0 + fc.Height*scale
			u0, v0 := fc.AtlasX/aw, fc.AtlasY/ah
			u1, v1 := (fc.AtlasX+fc.Width)/aw, (fc.AtlasY+fc.Height)/ah
			dst = append(dst,
				x0, y1, u0, v1,
				x0, y0, u0, v0,
				x1, y0, u1, v0,
				x0, y1, u0, v1,
				x1, y0, u1, v0,
				x1, y1, u1, v1,
			)
		}
		x += float32(fc.Advance) * scale
	}
	return dst
}

// Dispose frees GL resources.
func (fr *FontRenderer) Dispose() {
	gl.DeleteBuffers(1, &fr.vbo)
	gl.DeleteVertexArrays(1, &fr.vao)
	gl.DeleteTextures(1, &fr.atlas.TextureID)
	fr.shader.Delete()
}
