package game

import (
	"context"
	"testing"
	"time"

	"voxelscape/internal/config"
	"voxelscape/internal/gpu"
	"voxelscape/internal/graphics"
	"voxelscape/internal/input"
	"voxelscape/internal/physics"
	"voxelscape/internal/storage"
	"voxelscape/internal/streaming"
	"voxelscape/internal/world"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// floorLoader fills y 0..9 with stone.
type floorLoader struct{}

func (floorLoader) LoadChunkBlocks(ctx context.Context, o world.ChunkOrigin) ([]world.BlockRecord, error) {
	var recs []world.BlockRecord
	for x := range world.ChunkWidth {
		for z := range world.ChunkWidth {
			for y := range 10 {
				recs = append(recs, world.BlockRecord{Local: world.LocalGrid{X: x, Y: y, Z: z}, Type: world.BlockTypeStone})
			}
		}
	}
	return recs, nil
}

type nopAlloc struct{ next gpu.Handle }

func (a *nopAlloc) Upload(gpu.Layout, []byte, int) (gpu.Handle, error) {
	a.next++
	return a.next, nil
}

func (a *nopAlloc) Release(gpu.Handle) {}

func newSession(t *testing.T) (*Session, *storage.Memory) {
	t.Helper()
	cfg := config.Default()
	cfg.World.EvalBlockRadius = 1
	cfg.Storage = config.StorageConfig{Driver: "memory"}
	require.NoError(t, cfg.Validate())

	mem := storage.NewMemory()
	w := world.New(nil)
	ctl := streaming.NewController(&cfg, w, storage.Fallback{Primary: mem, Generate: floorLoader{}}, mem, &nopAlloc{}, nil)
	t.Cleanup(func() { _ = ctl.Close(context.Background()) })

	cam := graphics.NewCamera(cfg.Render.Width, cfg.Render.Height, cfg.Render.FOV, cfg.World.EvalBlockRadius)
	s := NewSession(ctl, physics.NewResolver(&cfg, w, nil), cam, 1650, 1650)
	return s, mem
}

const tick = float64(16*time.Millisecond) / float64(time.Second)

func TestSpawnStandsOnGround(t *testing.T) {
	s, _ := newSession(t)
	assert.Equal(t, float32(1000+eyeHeight), s.Camera.Position.Y())
	assert.Equal(t, 9, s.Controller.World().Len())
}

func TestWalkingStaysOnFloor(t *testing.T) {
	s, _ := newSession(t)
	im := input.NewInputManager()
	s.Walking = true
	for range 30 {
		s.Update(tick, im)
		im.PostUpdate()
	}
	assert.Equal(t, float32(1000+eyeHeight), s.Camera.Position.Y())
	assert.True(t, s.grounded)
}

func TestFlyingMovesAlongView(t *testing.T) {
	s, _ := newSession(t)
	im := input.NewInputManager()
	start := s.Camera.Position
	im.HandleKeyEvent(glfw.KeyW, glfw.Press)
	s.Update(0.5, im)
	assert.InDelta(t, start.Z()-flySpeed*0.5, s.Camera.Position.Z(), 1e-2, "yaw -90 faces -Z")
	assert.InDelta(t, start.X(), s.Camera.Position.X(), 1e-2)
}

func TestMoveBlockedByWall(t *testing.T) {
	s, _ := newSession(t)
	w := s.Controller.World()
	for y := 10; y < 13; y++ {
		require.True(t, w.SetBlock(world.GlobalGrid{X: 17, Y: y, Z: 16}, world.BlockTypeStone))
	}
	start := s.Camera.Position
	blocked := s.Move(mgl32.Vec3{100, 0, 10})
	assert.True(t, blocked[0])
	assert.False(t, blocked[2])
	assert.Equal(t, start.X(), s.Camera.Position.X())
	assert.InDelta(t, start.Z()+10, s.Camera.Position.Z(), 1e-3)
}

func TestDigAndPlace(t *testing.T) {
	s, _ := newSession(t)
	w := s.Controller.World()
	im := input.NewInputManager()
	s.Camera.Pitch = -89

	s.Update(tick, im)
	require.True(t, s.Hit().Hit())
	assert.Equal(t, world.GlobalGrid{X: 16, Y: 9, Z: 16}, s.Hit().Grid)

	im.HandleMouseButtonEvent(glfw.MouseButtonLeft, glfw.Press)
	s.Update(tick, im)
	im.PostUpdate()
	assert.Equal(t, world.BlockTypeAir, w.Block(world.GlobalGrid{X: 16, Y: 9, Z: 16}))
	assert.True(t, w.Lookup(world.ChunkOrigin{}).Modified())

	im.HandleMouseButtonEvent(glfw.MouseButtonLeft, glfw.Release)
	s.Update(tick, im)
	im.PostUpdate()
	require.True(t, s.Hit().Hit())
	assert.Equal(t, world.GlobalGrid{X: 16, Y: 8, Z: 16}, s.Hit().Grid)

	assert.True(t, s.Place(world.BlockTypeCoal), "the hole is below the feet")
	assert.Equal(t, world.BlockTypeCoal, w.Block(world.GlobalGrid{X: 16, Y: 9, Z: 16}))
}

func TestPlaceRefusesBodyCells(t *testing.T) {
	s, _ := newSession(t)
	assert.True(t, s.overlapsBody(world.GlobalGrid{X: 16, Y: 10, Z: 16}))
	assert.True(t, s.overlapsBody(world.GlobalGrid{X: 16, Y: 11, Z: 16}))
	assert.False(t, s.overlapsBody(world.GlobalGrid{X: 16, Y: 9, Z: 16}))
	assert.False(t, s.overlapsBody(world.GlobalGrid{X: 18, Y: 10, Z: 16}))
	assert.False(t, s.Place(world.BlockTypeStone), "nothing targeted")
}

func TestReleasedCursorDoesNotEdit(t *testing.T) {
	s, _ := newSession(t)
	im := input.NewInputManager()
	s.Camera.Pitch = -89
	s.Captured = false

	im.HandleMouseButtonEvent(glfw.MouseButtonLeft, glfw.Press)
	s.Update(tick, im)
	assert.True(t, s.Hit().Hit())
	assert.Equal(t, world.BlockTypeStone, s.Controller.World().Block(world.GlobalGrid{X: 16, Y: 9, Z: 16}))
}
