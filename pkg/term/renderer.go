// Package term presents composited frames in a terminal: every glyph cell
// becomes one character cell coloured with its ink and background.
package term

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"glyphcast/internal/logger"
	"glyphcast/internal/shadermath"
	"glyphcast/pkg/engine"
)

// Renderer draws cell grids with tcell. It implements engine.Renderer.
type Renderer struct {
	screen   tcell.Screen
	cellSize shadermath.Vec2
	events   chan tcell.Event
	log      *logger.Logger

	quit  bool
	mutex sync.Mutex
}

// NewRenderer initialises screen and starts reading its events. cellSize is
// the pixel size of one glyph cell; the pipeline renders cols*cellSize.X by
// rows*cellSize.Y pixels so that glyph cells and terminal cells line up.
func NewRenderer(screen tcell.Screen, cellSize shadermath.Vec2, log *logger.Logger) (*Renderer, error) {
	if cellSize.X <= 0 || cellSize.Y <= 0 {
		return nil, fmt.Errorf("invalid cell size %vx%v", cellSize.X, cellSize.Y)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize terminal: %w", err)
	}
	screen.HideCursor()
	screen.Clear()

	r := &Renderer{
		screen:   screen,
		cellSize: cellSize,
		events:   make(chan tcell.Event, 64),
		log:      log.With("term"),
	}
	go r.readEvents()
	return r, nil
}

func (r *Renderer) readEvents() {
	for {
		ev := r.screen.PollEvent()
		if ev == nil {
			close(r.events)
			return
		}
		r.events <- ev
	}
}

// Resolution returns the pixel size that maps one glyph cell to one
// terminal cell.
func (r *Renderer) Resolution() (int, int) {
	cols, rows := r.screen.Size()
	return max(int(float32(cols)*r.cellSize.X), 1), max(int(float32(rows)*r.cellSize.Y), 1)
}

// Render draws the frame's cell grid
func (r *Renderer) Render(_ context.Context, frame *engine.Frame) error {
	if frame.Cells == nil {
		return errors.New("term: frame has no cell grid")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	cols, rows := r.screen.Size()
	cols = min(cols, frame.Cells.Cols)
	rows = min(rows, frame.Cells.Rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := frame.Cells.At(x, y)
			r.screen.SetContent(x, y, c.Rune(), nil, CellStyle(c, frame.Config))
		}
	}
	r.screen.Show()
	return nil
}

// CellStyle returns the terminal style of a cell. Partial ink, as on the
// falling trail, fades the foreground into the background.
func CellStyle(c engine.Cell, cfg engine.FrameConfig) tcell.Style {
	bg := toColorful(c.Background(cfg))
	fg := bg.BlendRgb(toColorful(c.Foreground(cfg)), float64(c.Ink)).Clamped()
	return tcell.StyleDefault.Foreground(toTcell(fg)).Background(toTcell(bg))
}

func toColorful(c engine.RGB) colorful.Color {
	return colorful.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B)}.Clamped()
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// PollEvents handles pending terminal events without blocking. Escape,
// Ctrl-C and q quit.
func (r *Renderer) PollEvents() {
	for {
		select {
		case ev, ok := <-r.events:
			if !ok {
				r.setQuit()
				return
			}
			r.handle(ev)
		default:
			return
		}
	}
}

func (r *Renderer) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			r.setQuit()
		}
	case *tcell.EventResize:
		cols, rows := ev.Size()
		r.log.Debugf("terminal resized to %dx%d", cols, rows)
		r.screen.Sync()
	}
}

func (r *Renderer) setQuit() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.quit = true
}

// ShouldClose reports whether the user asked to quit
func (r *Renderer) ShouldClose() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.quit
}

// Close restores the terminal
func (r *Renderer) Close() {
	r.screen.Fini()
}
