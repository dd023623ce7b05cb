// Package hud draws the debug text overlay.
package hud

import (
	"fmt"
	"strings"

	"voxelscape/internal/graphics"
	renderer "voxelscape/internal/graphics/renderer"
	"voxelscape/internal/profiling"
	"voxelscape/internal/world"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	fontPixels = 16
	lineStep   = 18
	margin     = 8
)

var textColor = mgl32.Vec3{1, 1, 1}

// HUD implements renderer.Renderable for the debug text.
type HUD struct {
	font           *graphics.FontRenderer
	width, height  int
	ShowProfiling  bool
	lines          []string
}

// NewHUD creates a HUD for a window of the given size.
func NewHUD(width, height int) *HUD {
	return &HUD{width: width, height: height}
}

// Init bakes the font atlas.
func (h *HUD) Init() error {
	atlas, err := graphics.BuildFontAtlas(gomono.TTF, fontPixels)
	if err != nil {
		return fmt.Errorf("hud font: %w", err)
	}
	h.font, err = graphics.NewFontRenderer(atlas, h.width, h.height)
	return err
}

// Render draws the status lines in the top-left corner.
func (h *HUD) Render(ctx renderer.RenderContext) {
	defer profiling.Track("renderer.renderHUD")()
	h.lines = Lines(h.lines[:0], ctx, h.ShowProfiling)
	h.font.RenderLines(h.lines, margin, margin+fontPixels, lineStep, 1, textColor)
}

// Lines formats the status text for ctx.
func Lines(dst []string, ctx renderer.RenderContext, withProfiling bool) []string {
	if ctx.Camera != nil {
		p := ctx.Camera.Position
		o := world.WorldPosToOrigin(p)
		dst = append(dst, fmt.Sprintf("pos %.0f %.0f %.0f  chunk %d,%d", p.X(), p.Y(), p.Z(), o.X, o.Z))
	}
	st := ctx.Stats
	dst = append(dst,
		fmt.Sprintf("tick %d  resident %d  drawn %d  realized %d  pending %d  placeholders %d",
			st.Tick, st.Resident, st.Drawn, st.Realized, st.Pending, st.Placeholders),
		fmt.Sprintf("vertices %s  exposed %s", humanize.Bytes(uint64(st.VertexBytes)), exposedSummary(st.Exposed)),
	)
	if ctx.Hit.Hit() {
		g := ctx.Hit.Grid
		dst = append(dst, fmt.Sprintf("target %d %d %d %s  %.2fm", g.X, g.Y, g.Z, ctx.Hit.Face, ctx.Hit.Distance/world.BlockWidth))
	} else {
		dst = append(dst, "target none")
	}
	if withProfiling {
		dst = append(dst, profiling.TopN(5))
	}
	return dst
}

func exposedSummary(t world.SurfaceTotals) string {
	parts := make([]string, 0, len(t))
	for s := world.SurfaceType(1); s < world.NumSurfaceTypes; s++ {
		parts = append(parts, fmt.Sprintf("%s:%s", s, humanize.Comma(int64(t[s]))))
	}
	return strings.Join(parts, " ")
}

// SetViewport resizes the text projection.
func (h *HUD) SetViewport(width, height int) {
	h.width, h.height = width, height
	if h.font != nil {
		h.font.SetViewport(width, height)
	}
}

// Dispose frees the font.
func (h *HUD) Dispose() {
	if h.font != nil {
		h.font.Dispose()
	}
}
