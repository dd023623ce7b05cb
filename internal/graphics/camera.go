package graphics

import (
	"math"

	"voxelscape/internal/world"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	mouseSensitivity = 0.1
	maxPitch         = 89.0
)

// Camera is a free-flying eye in world units. Yaw and Pitch are degrees;
// yaw -90 looks down -Z.
type Camera struct {
	Position    world.WorldPos
	Yaw         float64
	Pitch       float64
	AspectRatio float32
	FOV         float32
	NearPlane   float32
	FarPlane    float32

	lastX, lastY float64
	firstMouse   bool
}

// NewCamera sizes the far plane to see the whole draw region of the given
// eval radius.
func NewCamera(width, height int, fov float32, radius int) *Camera {
	span := float32(world.ChunkWidth * world.BlockWidth)
	return &Camera{
		Yaw:         -90,
		AspectRatio: float32(width) / float32(height),
		FOV:         fov,
		NearPlane:   10,
		FarPlane:    float32(radius+1) * span * 1.5,
		firstMouse:  true,
	}
}

// SetViewport updates the aspect ratio.
func (c *Camera) SetViewport(width, height int) {
	if height > 0 {
		c.AspectRatio = float32(width) / float32(height)
	}
}

// HandleMouseMovement turns the camera by the cursor delta.
func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}
	xoffset := (xpos - c.lastX) * mouseSensitivity
	yoffset := (c.lastY - ypos) * mouseSensitivity
	c.lastX, c.lastY = xpos, ypos

	c.Yaw += xoffset
	c.Pitch = max(-maxPitch, min(maxPitch, c.Pitch+yoffset))
}

// ResetMouse forgets the last cursor position, e.g. after the cursor was
// released and captured again.
func (c *Camera) ResetMouse() { c.firstMouse = true }

// Front is the unit view direction.
func (c *Camera) Front() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(c.Yaw))
	pt := mgl32.DegToRad(float32(c.Pitch))
	fx := float32(math.Cos(float64(y)) * math.Cos(float64(pt)))
	fy := float32(math.Sin(float64(pt)))
	fz := float32(math.Sin(float64(y)) * math.Cos(float64(pt)))
	return mgl32.Vec3{fx, fy, fz}.Normalize()
}

// Flat is the view direction projected onto the ground plane.
func (c *Camera) Flat() mgl32.Vec3 {
	y := mgl32.DegToRad(float32(c.Yaw))
	return mgl32.Vec3{float32(math.Cos(float64(y))), 0, float32(math.Sin(float64(y)))}
}

// Right is the unit strafe direction.
func (c *Camera) Right() mgl32.Vec3 {
	return c.Flat().Cross(mgl32.Vec3{0, 1, 0}).Normalize()
}

func (c *Camera) GetProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.AspectRatio, c.NearPlane, c.FarPlane)
}

func (c *Camera) GetViewMatrix() mgl32.Mat4 {
	eye := c.Position.Vec3()
	return mgl32.LookAtV(eye, eye.Add(c.Front()), mgl32.Vec3{0, 1, 0})
}
