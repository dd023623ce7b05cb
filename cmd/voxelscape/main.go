package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"runtime"
	"time"

	"voxelscape/internal/config"
	"voxelscape/internal/game"
	"voxelscape/internal/graphics"
	"voxelscape/internal/graphics/renderables/crosshair"
	"voxelscape/internal/graphics/renderables/hud"
	"voxelscape/internal/graphics/renderables/landscape"
	"voxelscape/internal/graphics/renderables/overlay"
	renderer "voxelscape/internal/graphics/renderer"
	"voxelscape/internal/input"
	"voxelscape/internal/metrics"
	"voxelscape/internal/physics"
	"voxelscape/internal/profiling"
	"voxelscape/internal/storage"
	"voxelscape/internal/streaming"
	"voxelscape/internal/world"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file (default $"+config.EnvPath+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := run(&cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	surfaces, err := cfg.SurfaceTable()
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("storage: close: %v", err)
		}
	}()
	if s, ok := store.(*storage.SQLite); ok {
		log.Printf("storage: world %s", s.WorldID())
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	profiling.SetObserver(m.Observe)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	window, err := setupWindow(cfg.Render.Width, cfg.Render.Height)
	if err != nil {
		return err
	}
	defer window.Destroy()

	alloc := graphics.NewGLAllocator()
	w := world.New(surfaces)
	loader := storage.Fallback{Primary: store, Generate: world.NewGenerator(cfg.World.Seed)}
	ctl := streaming.NewController(cfg, w, loader, store, alloc, m)
	resolver := physics.NewResolver(cfg, w, m)

	camera := graphics.NewCamera(cfg.Render.Width, cfg.Render.Height, cfg.Render.FOV, cfg.World.EvalBlockRadius)
	hudRenderer := hud.NewHUD(cfg.Render.Width, cfg.Render.Height)
	r, err := renderer.NewRenderer(camera,
		landscape.New(alloc, cfg.Render.TextureDir),
		overlay.New(alloc),
		crosshair.NewCrosshair(),
		hudRenderer,
	)
	if err != nil {
		return err
	}
	defer r.Dispose()

	session := game.NewSession(ctl, resolver, camera, 0, 0)
	app := game.NewApp(window, input.NewInputManager(), r, hudRenderer, session,
		time.Duration(cfg.Render.TickMillis)*time.Millisecond)
	app.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := ctl.Close(ctx); err != nil {
		return err
	}
	log.Printf("game: closed with %d buffers still live", alloc.Live())
	return nil
}

func setupWindow(width, height int) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, "voxelscape", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := graphics.InitGL(); err != nil {
		return nil, err
	}

	// Disable V-Sync; the tick limiter paces frames
	glfw.SwapInterval(0)
	return window, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("metrics: serving on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("metrics: %v", err)
	}
}
