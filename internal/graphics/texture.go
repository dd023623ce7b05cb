package graphics

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"log"
	"os"
	"path/filepath"

	"voxelscape/internal/world"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/colornames"
	xdraw "golang.org/x/image/draw"
)

// SurfaceTextureSize is the edge length every surface texture is scaled to.
const SurfaceTextureSize = 16

// surfaceColors is used when a surface has no texture file.
var surfaceColors = [world.NumSurfaceTypes]color.RGBA{
	world.SurfaceNone:  colornames.Magenta,
	world.SurfaceGrass: colornames.Forestgreen,
	world.SurfaceDirt:  colornames.Saddlebrown,
	world.SurfaceStone: colornames.Gray,
	world.SurfaceCoal:  colornames.Darkslategray,
}

// SurfacePath is the PNG file read for surface s.
func SurfacePath(dir string, s world.SurfaceType) string {
	return filepath.Join(dir, s.String()+".png")
}

// LoadImage decodes an image file and scales it to size x size with nearest
// neighbor sampling.
func LoadImage(path string, size int) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(rgba, rgba.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return rgba, nil
}

// SolidImage is a size x size image of one color.
func SolidImage(c color.RGBA, size int) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(rgba, rgba.Bounds(), image.NewUniform(c), image.Point{}, xdraw.Src)
	return rgba
}

// SurfaceImage returns the texture image for s, falling back to a solid
// color when the file is missing or unreadable. The error reports the
// fallback reason.
func SurfaceImage(dir string, s world.SurfaceType) (*image.RGBA, error) {
	img, err := LoadImage(SurfacePath(dir, s), SurfaceTextureSize)
	if err != nil {
		return SolidImage(surfaceColors[s], SurfaceTextureSize), err
	}
	return img, nil
}

// UploadTexture creates a nearest-filtered, repeating 2D texture.
func UploadTexture(rgba *image.RGBA) uint32 {
	var texture uint32
	gl.GenTextures(1, &texture)
	gl.BindTexture(gl.TEXTURE_2D, texture)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)

	gl.TexImage2D(
		gl.TEXTURE_2D,
		0,
		gl.RGBA,
		int32(rgba.Rect.Size().X),
		int32(rgba.Rect.Size().Y),
		0,
		gl.RGBA,
		gl.UNSIGNED_BYTE,
		gl.Ptr(rgba.Pix),
	)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return texture
}

// SurfaceTextures holds one texture per surface type.
type SurfaceTextures struct {
	ids [world.NumSurfaceTypes]uint32
}

// LoadSurfaceTextures uploads a texture for every surface type found in dir.
// Missing files are logged and replaced by solid colors.
func LoadSurfaceTextures(dir string) *SurfaceTextures {
	st := &SurfaceTextures{}
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		img, err := SurfaceImage(dir, s)
		if err != nil {
			log.Printf("graphics: surface %s uses a solid color: %v", s, err)
		}
		st.ids[s] = UploadTexture(img)
	}
	return st
}

// Bind makes the texture of s current on unit 0.
func (st *SurfaceTextures) Bind(s world.SurfaceType) {
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, st.ids[s])
}

// Delete frees every texture.
func (st *SurfaceTextures) Delete() {
	for s, id := range st.ids {
		if id != 0 {
			gl.DeleteTextures(1, &id)
			st.ids[s] = 0
		}
	}
}
