// Package graphics holds the OpenGL building blocks shared by renderables:
// shaders, the vertex buffer allocator, textures, fonts, camera and culling.
package graphics

import (
	"fmt"
	"log"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// InitGL loads GL function pointers for the current context.
func InitGL() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("init gl: %w", err)
	}
	log.Printf("graphics: OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))
	return nil
}
