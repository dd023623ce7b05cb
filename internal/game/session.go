package game

import (
	"log"

	"voxelscape/internal/graphics"
	"voxelscape/internal/input"
	"voxelscape/internal/physics"
	"voxelscape/internal/profiling"
	"voxelscape/internal/streaming"
	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Body dimensions and movement rates in world units per second.
const (
	eyeHeight   = 160
	bodyHeight  = 180
	halfWidth   = 30
	flySpeed    = 1000
	sprintScale = 3
	gravity     = 2500
	jumpSpeed   = 800
	maxFall     = 5000

	spawnHeight = world.ChunkHeight * world.BlockWidth
)

// PlaceType is the block right click places.
var PlaceType = world.BlockTypeStone

// Session is the per-tick game state: a camera moving through a streamed
// world and editing the block it looks at. It makes no GL calls itself;
// the streaming controller realizes meshes through its allocator.
type Session struct {
	Controller *streaming.Controller
	Resolver   *physics.Resolver
	Camera     *graphics.Camera

	Walking       bool
	ShowProfiling bool
	Captured      bool

	velocityY float32
	grounded  bool
	hit       physics.HitTestResult
}

// NewSession streams in the spawn area around (x, z) and stands the camera
// on the ground there.
func NewSession(ctl *streaming.Controller, res *physics.Resolver, cam *graphics.Camera, x, z float32) *Session {
	s := &Session{Controller: ctl, Resolver: res, Camera: cam, Captured: true, hit: physics.NoHit}
	cam.Position = world.NewWorldPos(x, spawnHeight, z)
	ctl.Tick(cam.Position)
	if ground, ok := physics.GroundBelow(ctl.World(), cam.Position, halfWidth); ok {
		cam.Position[1] = ground + eyeHeight
	} else {
		log.Printf("game: no ground at spawn %.0f,%.0f", x, z)
	}
	return s
}

// Hit is the block face targeted on the last update.
func (s *Session) Hit() physics.HitTestResult { return s.hit }

func feet(eye world.WorldPos) world.WorldPos {
	return world.NewWorldPos(eye.X(), eye.Y()-eyeHeight, eye.Z())
}

// Update applies one tick of input: look, move, stream, hit test, edit.
func (s *Session) Update(dt float64, im *input.InputManager) {
	defer profiling.Track("game.Update")()

	if im.JustPressed(input.ActionToggleWalk) {
		s.Walking = !s.Walking
		s.velocityY = 0
	}
	if im.JustPressed(input.ActionToggleProfiling) {
		s.ShowProfiling = !s.ShowProfiling
	}
	if x, y, moved := im.Cursor(); moved && s.Captured {
		s.Camera.HandleMouseMovement(x, y)
	}

	s.move(float32(dt), im)
	s.Controller.Tick(s.Camera.Position)
	s.hit = s.Resolver.HitTest(s.Camera.Position, s.Camera.Front())

	if !s.Captured {
		return
	}
	switch {
	case im.JustPressed(input.ActionDig):
		s.Dig()
	case im.JustPressed(input.ActionPlace):
		s.Place(PlaceType)
	}
}

func (s *Session) move(dt float32, im *input.InputManager) {
	var wish mgl32.Vec3
	if im.IsActive(input.ActionMoveForward) {
		wish = wish.Add(s.Camera.Flat())
	}
	if im.IsActive(input.ActionMoveBackward) {
		wish = wish.Sub(s.Camera.Flat())
	}
	if im.IsActive(input.ActionMoveRight) {
		wish = wish.Add(s.Camera.Right())
	}
	if im.IsActive(input.ActionMoveLeft) {
		wish = wish.Sub(s.Camera.Right())
	}
	if wish.Len() > 0 {
		wish = wish.Normalize()
	}
	speed := float32(flySpeed)
	if im.IsActive(input.ActionSprint) {
		speed *= sprintScale
	}
	delta := wish.Mul(speed * dt)

	if s.Walking {
		if s.grounded && im.IsActive(input.ActionMoveUp) {
			s.velocityY = jumpSpeed
		}
		s.velocityY = max(s.velocityY-gravity*dt, -maxFall)
		delta[1] = s.velocityY * dt
	} else {
		if im.IsActive(input.ActionMoveUp) {
			delta[1] += speed * dt
		}
		if im.IsActive(input.ActionMoveDown) {
			delta[1] -= speed * dt
		}
	}

	blocked := s.Move(delta)
	s.grounded = blocked[1] && delta[1] < 0
	if blocked[1] {
		s.velocityY = 0
	}
}

// Move displaces the camera one axis at a time, dropping the component along
// any axis whose move would put the body inside a block.
func (s *Session) Move(delta mgl32.Vec3) (blocked [3]bool) {
	w := s.Controller.World()
	for axis := range 3 {
		if delta[axis] == 0 {
			continue
		}
		next := s.Camera.Position
		next[axis] += delta[axis]
		if physics.Collides(w, feet(next), halfWidth, bodyHeight) {
			blocked[axis] = true
			continue
		}
		s.Camera.Position = next
	}
	return blocked
}

// Dig clears the targeted block.
func (s *Session) Dig() bool {
	if !s.hit.Hit() {
		return false
	}
	return s.edit(s.hit.Grid, world.BlockTypeAir)
}

// Place fills the cell in front of the targeted face unless the body is in
// the way.
func (s *Session) Place(t world.BlockType) bool {
	if !s.hit.Hit() {
		return false
	}
	g := s.hit.Adjacent()
	if s.overlapsBody(g) {
		return false
	}
	return s.edit(g, t)
}

func (s *Session) edit(g world.GlobalGrid, t world.BlockType) bool {
	w := s.Controller.World()
	if c := w.Lookup(g.Origin()); c == nil || c.Placeholder() {
		return false
	}
	return w.SetBlock(g, t)
}

func (s *Session) overlapsBody(g world.GlobalGrid) bool {
	f := feet(s.Camera.Position)
	lo := g.WorldPos()
	return f.X()-halfWidth < lo.X()+world.BlockWidth && f.X()+halfWidth > lo.X() &&
		f.Y() < lo.Y()+world.BlockWidth && f.Y()+bodyHeight > lo.Y() &&
		f.Z()-halfWidth < lo.Z()+world.BlockWidth && f.Z()+halfWidth > lo.Z()
}
