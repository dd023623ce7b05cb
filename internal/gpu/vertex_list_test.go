package gpu

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAlloc struct {
	next    Handle
	live    map[Handle]Layout
	uploads int
}

func (a *recordingAlloc) Upload(layout Layout, data []byte, n int) (Handle, error) {
	if a.live == nil {
		a.live = map[Handle]Layout{}
	}
	a.next++
	a.live[a.next] = layout
	a.uploads++
	return a.next, nil
}

func (a *recordingAlloc) Release(h Handle) {
	if _, ok := a.live[h]; !ok {
		panic("release of unknown handle")
	}
	delete(a.live, h)
}

func TestVertexListStates(t *testing.T) {
	a := &recordingAlloc{}
	l := NewVertexList[OverlayVertex](6)
	assert.False(t, l.HasData())
	assert.False(t, l.Realized())

	require.NoError(t, l.Realize(a), "empty list")
	assert.Zero(t, a.uploads)
	assert.False(t, l.Realized())

	l.Append(OverlayVertex{Pos: mgl32.Vec3{1, 2, 3}}, OverlayVertex{UV: mgl32.Vec2{1, 1}})
	assert.True(t, l.Dirty())
	require.NoError(t, l.Realize(a))
	assert.True(t, l.Realized())
	assert.False(t, l.Dirty())
	assert.Equal(t, OverlayLayout.Stride, a.live[l.Handle()].Stride)

	require.NoError(t, l.Realize(a))
	assert.Equal(t, 1, a.uploads, "no re-upload of clean list")

	l.Unrealize(a)
	assert.False(t, l.Realized())
	assert.False(t, l.Dirty(), "unrealize keeps content state")
	assert.Equal(t, 2, l.Len())
	l.Unrealize(a)

	require.NoError(t, l.Realize(a))
	assert.Equal(t, 2, a.uploads)

	l.Reset()
	require.NoError(t, l.Realize(a))
	assert.False(t, l.Realized(), "emptied list drops its buffer")
	assert.Empty(t, a.live)
}

func TestLayouts(t *testing.T) {
	assert.Equal(t, uintptr(32), LandscapeLayout.Stride)
	assert.Equal(t, uintptr(20), OverlayLayout.Stride)
	assert.Equal(t, LandscapeLayout.Stride, layoutOf[LandscapeVertex]().Stride)
	l := NewVertexList[LandscapeVertex](0)
	l.Append(LandscapeVertex{})
	assert.Equal(t, 32, l.SizeBytes())
}
