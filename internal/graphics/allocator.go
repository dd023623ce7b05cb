package graphics

import (
	"errors"
	"fmt"

	"voxelscape/internal/gpu"

	"github.com/go-gl/gl/v4.1-core/gl"
)

var errEmptyUpload = errors.New("empty vertex upload")

type buffer struct {
	vao, vbo uint32
	count    int32
	bytes    int
}

// GLAllocator backs gpu vertex lists with VAO/VBO pairs. Attribute i of the
// layout is bound to location i. It must only be used on the GL thread.
type GLAllocator struct {
	next    gpu.Handle
	buffers map[gpu.Handle]buffer
	bytes   int
}

// NewGLAllocator requires a current GL context.
func NewGLAllocator() *GLAllocator {
	return &GLAllocator{buffers: make(map[gpu.Handle]buffer)}
}

// Upload implements gpu.Allocator.
func (a *GLAllocator) Upload(layout gpu.Layout, data []byte, vertexCount int) (gpu.Handle, error) {
	if len(data) == 0 || vertexCount == 0 {
		return 0, errEmptyUpload
	}
	var b buffer
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.STATIC_DRAW)
	for i, attr := range layout.Attribs {
		gl.EnableVertexAttribArray(uint32(i))
		gl.VertexAttribPointerWithOffset(uint32(i), int32(attr.Components), gl.FLOAT, false, int32(layout.Stride), attr.Offset)
	}
	gl.BindVertexArray(0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteBuffers(1, &b.vbo)
		gl.DeleteVertexArrays(1, &b.vao)
		return 0, fmt.Errorf("gl error 0x%x uploading %d bytes", code, len(data))
	}

	b.count = int32(vertexCount)
	b.bytes = len(data)
	a.next++
	a.buffers[a.next] = b
	a.bytes += b.bytes
	return a.next, nil
}

// Release implements gpu.Allocator. Unknown handles are ignored.
func (a *GLAllocator) Release(h gpu.Handle) {
	b, ok := a.buffers[h]
	if !ok {
		return
	}
	gl.DeleteBuffers(1, &b.vbo)
	gl.DeleteVertexArrays(1, &b.vao)
	delete(a.buffers, h)
	a.bytes -= b.bytes
}

// Draw issues the triangles of h.
func (a *GLAllocator) Draw(h gpu.Handle) {
	b, ok := a.buffers[h]
	if !ok {
		return
	}
	gl.BindVertexArray(b.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, b.count)
}

// Live is the number of buffers currently allocated.
func (a *GLAllocator) Live() int { return len(a.buffers) }

// Bytes is the device memory held by live buffers.
func (a *GLAllocator) Bytes() int { return a.bytes }
