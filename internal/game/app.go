package game

import (
	"log"
	"time"

	renderer "voxelscape/internal/graphics/renderer"
	"voxelscape/internal/graphics/renderables/hud"
	"voxelscape/internal/input"
	"voxelscape/internal/profiling"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// App drives the window loop: poll, update, render, swap, wait.
type App struct {
	window       *glfw.Window
	inputManager *input.InputManager
	renderer     *renderer.Renderer
	hud          *hud.HUD
	session      *Session

	fpsLimiter *FPSLimiter
	lastTime   time.Time
}

// NewApp wires input callbacks and viewport resizing to window.
func NewApp(window *glfw.Window, im *input.InputManager, r *renderer.Renderer, h *hud.HUD, s *Session, tick time.Duration) *App {
	a := &App{
		window:       window,
		inputManager: im,
		renderer:     r,
		hud:          h,
		session:      s,
		fpsLimiter:   NewFPSLimiter(tick),
		lastTime:     time.Now(),
	}
	im.Install(window)
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		a.renderer.SetViewport(width, height)
	})
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	width, height := window.GetFramebufferSize()
	r.SetViewport(width, height)
	return a
}

// Run ticks until the window is closed.
func (a *App) Run() {
	for !a.window.ShouldClose() {
		a.tick()
	}
}

func (a *App) tick() {
	profiling.ResetTick()
	startTick := time.Now()
	dt := startTick.Sub(a.lastTime).Seconds()
	a.lastTime = startTick

	glfw.PollEvents()
	if a.inputManager.JustPressed(input.ActionRelease) {
		a.setCaptured(!a.session.Captured)
	}

	a.session.Update(dt, a.inputManager)
	a.hud.ShowProfiling = a.session.ShowProfiling
	a.renderer.Render(renderer.RenderContext{
		Chunks: a.session.Controller.DrawnChunks(),
		Hit:    a.session.Hit(),
		Stats:  a.session.Controller.Stats(),
		DT:     dt,
	})
	a.window.SwapBuffers()

	if d := time.Since(startTick); a.fpsLimiter.Target() > 0 && d > a.fpsLimiter.Target() {
		log.Printf("game: slow tick %v. Top tasks: %s", d, profiling.TopN(5))
	}

	a.inputManager.PostUpdate()
	a.fpsLimiter.Wait()
}

func (a *App) setCaptured(captured bool) {
	a.session.Captured = captured
	if captured {
		a.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		a.session.Camera.ResetMouse()
		return
	}
	a.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	w, h := a.window.GetSize()
	a.window.SetCursorPos(float64(w)/2, float64(h)/2)
}
