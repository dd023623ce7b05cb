// Package gpu holds CPU-side vertex lists and their GPU realization state.
package gpu

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// Handle identifies an uploaded buffer. Zero is never a valid handle.
type Handle uint64

// Attrib describes one float attribute of an interleaved vertex.
type Attrib struct {
	Name       string
	Components int
	Offset     uintptr
}

// Layout describes an interleaved vertex format.
type Layout struct {
	Stride  uintptr
	Attribs []Attrib
}

// Allocator uploads vertex data to the graphics device. Implementations must
// be called on the thread that owns the graphics context.
type Allocator interface {
	Upload(layout Layout, data []byte, vertexCount int) (Handle, error)
	Release(h Handle)
}

// Vertex is implemented by vertex structs that can be realized.
type Vertex interface {
	LandscapeVertex | OverlayVertex
}

// LandscapeVertex is a landscape surface vertex.
type LandscapeVertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
}

// OverlayVertex is a position/UV pair for the hit overlay.
type OverlayVertex struct {
	Pos mgl32.Vec3
	UV  mgl32.Vec2
}

var (
	LandscapeLayout = Layout{
		Stride: unsafe.Sizeof(LandscapeVertex{}),
		Attribs: []Attrib{
			{Name: "position", Components: 3, Offset: unsafe.Offsetof(LandscapeVertex{}.Pos)},
			{Name: "normal", Components: 3, Offset: unsafe.Offsetof(LandscapeVertex{}.Normal)},
			{Name: "uv", Components: 2, Offset: unsafe.Offsetof(LandscapeVertex{}.UV)},
		},
	}
	OverlayLayout = Layout{
		Stride: unsafe.Sizeof(OverlayVertex{}),
		Attribs: []Attrib{
			{Name: "position", Components: 3, Offset: unsafe.Offsetof(OverlayVertex{}.Pos)},
			{Name: "uv", Components: 2, Offset: unsafe.Offsetof(OverlayVertex{}.UV)},
		},
	}
)

func layoutOf[V Vertex]() Layout {
	var v V
	switch any(v).(type) {
	case LandscapeVertex:
		return LandscapeLayout
	default:
		return OverlayLayout
	}
}

// VertexList is a triangle list of V. Content (dirty) and realization
// (handle) are tracked separately so a list can be unrealized and realized
// again without being rebuilt.
type VertexList[V Vertex] struct {
	verts  []V
	handle Handle
	dirty  bool // content changed since last realize
}

// NewVertexList returns an empty, unrealized list.
func NewVertexList[V Vertex](capacity int) *VertexList[V] {
	return &VertexList[V]{verts: make([]V, 0, capacity)}
}

// Reset drops the content but keeps capacity. The realized buffer, if any,
// stays until the next Realize or Unrealize.
func (l *VertexList[V]) Reset() {
	l.verts = l.verts[:0]
	l.dirty = true
}

// Append adds vertices.
func (l *VertexList[V]) Append(vs ...V) {
	l.verts = append(l.verts, vs...)
	l.dirty = true
}

// Vertices returns the CPU-side data. Callers must not modify it.
func (l *VertexList[V]) Vertices() []V { return l.verts }

// Len is the number of vertices.
func (l *VertexList[V]) Len() int { return len(l.verts) }

// HasData reports whether the list holds any vertices.
func (l *VertexList[V]) HasData() bool { return len(l.verts) > 0 }

// Realized reports whether a device buffer currently backs the list.
func (l *VertexList[V]) Realized() bool { return l.handle != 0 }

// Dirty reports whether content changed since the last realize.
func (l *VertexList[V]) Dirty() bool { return l.dirty }

// Handle returns the device buffer, zero when unrealized.
func (l *VertexList[V]) Handle() Handle { return l.handle }

// SizeBytes is the CPU-side size of the vertex data.
func (l *VertexList[V]) SizeBytes() int {
	var v V
	return len(l.verts) * int(unsafe.Sizeof(v))
}

// Realize uploads the list. It is a no-op for an up-to-date realized list
// and for an empty list; a stale buffer is released before re-upload.
func (l *VertexList[V]) Realize(a Allocator) error {
	if l.handle != 0 && !l.dirty {
		return nil
	}
	if l.handle != 0 {
		a.Release(l.handle)
		l.handle = 0
	}
	if len(l.verts) == 0 {
		l.dirty = false
		return nil
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&l.verts[0])), l.SizeBytes())
	h, err := a.Upload(layoutOf[V](), data, len(l.verts))
	if err != nil {
		return fmt.Errorf("upload %d vertices: %w", len(l.verts), err)
	}
	if h == 0 {
		return fmt.Errorf("upload %d vertices: allocator returned zero handle", len(l.verts))
	}
	l.handle = h
	l.dirty = false
	return nil
}

// Unrealize frees the device buffer and keeps the CPU data.
func (l *VertexList[V]) Unrealize(a Allocator) {
	if l.handle == 0 {
		return
	}
	a.Release(l.handle)
	l.handle = 0
}
