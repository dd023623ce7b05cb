package config

import (
	"errors"
	"fmt"
	"os"

	"voxelscape/internal/world"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	MinEvalBlockRadius = 1
	MaxEvalBlockRadius = 7

	// EnvPath names the config file when Load gets an empty path.
	EnvPath = "VOXELSCAPE_CONFIG"
)

// Config is constructed once at startup and handed to the streaming
// controller, mesher and hit-test resolver.
type Config struct {
	World       WorldConfig     `yaml:"world"`
	Streaming   StreamingConfig `yaml:"streaming"`
	Storage     StorageConfig   `yaml:"storage"`
	Surfaces    []SurfaceRule   `yaml:"surfaces"`
	Render      RenderConfig    `yaml:"render"`
	MetricsAddr string          `yaml:"metrics_addr"`
}

type WorldConfig struct {
	Seed            int64   `yaml:"seed"`
	EvalBlockRadius int     `yaml:"eval_block_radius"`
	HitTestDistance float64 `yaml:"hit_test_distance"` // meters
}

type StreamingConfig struct {
	Async             bool   `yaml:"async"`
	Workers           int    `yaml:"workers"`
	MaxResidentChunks int    `yaml:"max_resident_chunks"`
	EvictAfterTicks   uint64 `yaml:"evict_after_ticks"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite, badger or memory
	Path   string `yaml:"path"`
}

// SurfaceRule is the YAML form of world.SurfaceRule. Empty Face or Neighbor
// matches anything.
type SurfaceRule struct {
	Block    string `yaml:"block"`
	Face     string `yaml:"face,omitempty"`
	Neighbor string `yaml:"neighbor,omitempty"`
	Surface  string `yaml:"surface"`
}

type RenderConfig struct {
	TextureDir string  `yaml:"texture_dir"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	FOV        float32 `yaml:"fov"`
	TickMillis int     `yaml:"tick_millis"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		World: WorldConfig{
			Seed:            1,
			EvalBlockRadius: 3,
			HitTestDistance: 8,
		},
		Streaming: StreamingConfig{
			Workers:           4,
			MaxResidentChunks: 128,
			EvictAfterTicks:   600,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "saves/world.db",
		},
		Render: RenderConfig{
			TextureDir: "assets/surfaces",
			Width:      900,
			Height:     600,
			FOV:        60,
			TickMillis: 16,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path falls back to the
// VOXELSCAPE_CONFIG environment variable, then to Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadRegionSize is the number of chunks kept resident by the load region.
func (c Config) LoadRegionSize() int {
	side := 2*c.World.EvalBlockRadius + 1
	return side * side
}

// HitTestDistanceWorld converts the hit-test distance to world units.
func (c Config) HitTestDistanceWorld() float32 {
	return float32(c.World.HitTestDistance * 100)
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if r := c.World.EvalBlockRadius; r < MinEvalBlockRadius || r > MaxEvalBlockRadius {
		errs = append(errs, fmt.Errorf("world.eval_block_radius %d outside [%d,%d]", r, MinEvalBlockRadius, MaxEvalBlockRadius))
	}
	if c.World.HitTestDistance <= 0 {
		errs = append(errs, fmt.Errorf("world.hit_test_distance must be positive, got %g", c.World.HitTestDistance))
	}
	if c.Streaming.Async && c.Streaming.Workers < 1 {
		errs = append(errs, fmt.Errorf("streaming.workers must be at least 1 when async, got %d", c.Streaming.Workers))
	}
	if c.Streaming.MaxResidentChunks > 0 && len(errs) == 0 && c.Streaming.MaxResidentChunks < c.LoadRegionSize() {
		errs = append(errs, fmt.Errorf("streaming.max_resident_chunks %d below load region size %d", c.Streaming.MaxResidentChunks, c.LoadRegionSize()))
	}
	switch c.Storage.Driver {
	case "sqlite", "badger":
		if c.Storage.Path == "" {
			errs = append(errs, fmt.Errorf("storage.path required for driver %q", c.Storage.Driver))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q unknown", c.Storage.Driver))
	}
	if _, err := c.SurfaceTable(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// SurfaceTable compiles the configured surface rules, or the defaults when
// none are configured.
func (c Config) SurfaceTable() (*world.SurfaceTable, error) {
	if len(c.Surfaces) == 0 {
		return world.DefaultSurfaceTable(), nil
	}
	rules := make([]world.SurfaceRule, 0, len(c.Surfaces))
	for i, r := range c.Surfaces {
		wr, err := r.compile()
		if err != nil {
			return nil, fmt.Errorf("surfaces[%d]: %w", i, err)
		}
		rules = append(rules, wr)
	}
	return world.NewSurfaceTable(rules), nil
}

func (r SurfaceRule) compile() (world.SurfaceRule, error) {
	var out world.SurfaceRule
	b, err := world.ParseBlockType(r.Block)
	if err != nil {
		return out, err
	}
	if !b.Filled() {
		return out, fmt.Errorf("air has no surfaces")
	}
	out.Block = b
	if r.Face != "" {
		f, err := world.ParseFace(r.Face)
		if err != nil {
			return out, err
		}
		out.Face = &f
	}
	if r.Neighbor != "" {
		n, err := world.ParseBlockType(r.Neighbor)
		if err != nil {
			return out, err
		}
		out.Neighbor = &n
	}
	s, err := world.ParseSurfaceType(r.Surface)
	if err != nil {
		return out, err
	}
	if s == world.SurfaceNone {
		return out, fmt.Errorf("surface %q cannot be assigned", r.Surface)
	}
	out.Surface = s
	return out, nil
}
