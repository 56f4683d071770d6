package term

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"glyphcast/internal/logger"
	"glyphcast/internal/shadermath"
	"glyphcast/pkg/engine"
	"glyphcast/pkg/glyph"
	"glyphcast/pkg/pattern"
)

func newTestRenderer(t *testing.T, cols, rows int) (*Renderer, tcell.SimulationScreen) {
	t.Helper()
	log := logger.NewLogger("error")
	log.SetOutput(io.Discard)

	screen := tcell.NewSimulationScreen("UTF-8")
	r, err := NewRenderer(screen, shadermath.Vec2{X: 8, Y: 14}, log)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	screen.SetSize(cols, rows)
	t.Cleanup(r.Close)
	return r, screen
}

func TestResolutionMatchesCellGrid(t *testing.T) {
	r, _ := newTestRenderer(t, 80, 24)
	w, h := r.Resolution()
	if w != 640 || h != 336 {
		t.Errorf("Resolution() = %dx%d, want 640x336", w, h)
	}
}

func TestRenderDrawsCellRunes(t *testing.T) {
	r, screen := newTestRenderer(t, 4, 2)

	cfg := engine.FrameConfig{
		CellSize:   shadermath.Vec2{X: 8, Y: 14},
		Resolution: shadermath.Vec2{X: 32, Y: 28},
	}
	grid := engine.NewCellGrid(4, 2)
	levels := []int{0, 3, 7, 9, 9, 1, 5, 2}
	for i := range grid.Cells {
		grid.Cells[i] = engine.Cell{
			Col:     i % 4,
			Row:     i / 4,
			Pattern: pattern.ID(glyph.Standard),
			Level:   levels[i],
			Glyph:   levels[i],
			Ink:     1,
			Average: engine.RGB{R: 0.5, G: 0.5, B: 0.5},
		}
	}
	grid.Cells[4].Pattern = pattern.ID(glyph.Blocks)

	if err := r.Render(context.Background(), &engine.Frame{Config: cfg, Cells: grid}); err != nil {
		t.Fatalf("Render: %v", err)
	}

	for i, c := range grid.Cells {
		got, _, _, _ := screen.GetContent(c.Col, c.Row)
		if want := c.Rune(); got != want {
			t.Errorf("cell (%d, %d) = %q, want %q", c.Col, c.Row, got, want)
		}
		if i == 3 && got != '@' {
			t.Errorf("densest standard cell = %q, want '@'", got)
		}
	}
	if got, _, _, _ := screen.GetContent(0, 1); got != glyph.Rune(glyph.Blocks, 9) {
		t.Errorf("blocks cell = %q, want %q", got, glyph.Rune(glyph.Blocks, 9))
	}
}

func TestRenderWithoutCells(t *testing.T) {
	r, _ := newTestRenderer(t, 4, 2)
	if err := r.Render(context.Background(), &engine.Frame{}); err == nil {
		t.Error("Render without a cell grid should fail")
	}
}

func TestRenderPipelineFrame(t *testing.T) {
	r, screen := newTestRenderer(t, 8, 4)

	cfg := engine.FrameConfig{
		CellSize:   shadermath.Vec2{X: 8, Y: 14},
		Resolution: shadermath.Vec2{X: 64, Y: 56},
	}
	scene := engine.NewSceneBuffer(64, 56)
	scene.Fill(engine.RGB{R: 1, G: 1, B: 1})

	log := logger.NewLogger("error")
	log.SetOutput(io.Discard)
	c := engine.NewCompositor(2, log)
	grid, err := c.Cells(context.Background(), scene, nil, cfg)
	if err != nil {
		t.Fatalf("Cells: %v", err)
	}
	if err := r.Render(context.Background(), &engine.Frame{Config: cfg, Cells: grid}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if got, _, _, _ := screen.GetContent(x, y); got != '@' {
				t.Fatalf("cell (%d, %d) = %q, want '@' for a white scene", x, y, got)
			}
		}
	}
}

func TestCellStyleFadesPartialInk(t *testing.T) {
	cfg := engine.FrameConfig{}
	full := engine.Cell{Ink: 1, Average: engine.RGB{R: 0.6, G: 0.6, B: 0.6}}
	none := full
	none.Ink = 0

	fgFull, bgFull, _ := CellStyle(full, cfg).Decompose()
	fgNone, bgNone, _ := CellStyle(none, cfg).Decompose()
	if bgFull != bgNone {
		t.Errorf("background changed with ink: %v vs %v", bgFull, bgNone)
	}
	if fgNone != bgNone {
		t.Errorf("zero ink foreground = %v, want background %v", fgNone, bgNone)
	}
	if fgFull == fgNone {
		t.Error("full ink foreground should differ from the background")
	}
}

func TestEscapeQuits(t *testing.T) {
	r, screen := newTestRenderer(t, 4, 2)
	if r.ShouldClose() {
		t.Fatal("renderer closed before any input")
	}

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)
	deadline := time.Now().Add(2 * time.Second)
	for !r.ShouldClose() && time.Now().Before(deadline) {
		r.PollEvents()
		time.Sleep(5 * time.Millisecond)
	}
	if !r.ShouldClose() {
		t.Error("Escape did not close the renderer")
	}
}
