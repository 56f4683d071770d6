package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gdamore/tcell/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"glyphcast/internal/logger"
	"glyphcast/internal/shadermath"
	"glyphcast/pkg/config"
	"glyphcast/pkg/engine"
	"glyphcast/pkg/glrender"
	"glyphcast/pkg/term"
)

func init() {
	// GLFW requires the program to be running on the main thread
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	mode := flag.String("mode", "", "Display mode: window, term or snapshot (overrides the config)")
	out := flag.String("out", "glyphcast.png", "Output file in snapshot mode")
	input := flag.String("input", "", "Image to post-process instead of the demo scene (snapshot mode)")
	offset := flag.Float64("time", 0, "Scene time in seconds at the first frame")
	level := flag.String("log", "", "Log level (overrides the config)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	defaults := err != nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *mode != "" {
		cfg.Graphics.DisplayMode = *mode
	}
	if *level != "" {
		cfg.Log.Level = *level
	}
	if *input != "" {
		cfg.Graphics.DisplayMode = config.ModeSnapshot
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to open log: %v", err)
	}
	defer logger.Close()
	if defaults {
		logger.Warnf("%s not found, using defaults", *configPath)
	}
	logger.Infof("starting glyphcast in %s mode", cfg.Graphics.DisplayMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Graphics.DisplayMode {
	case config.ModeSnapshot:
		err = runSnapshot(ctx, cfg, *out, *input, float32(*offset), logger)
	case config.ModeTerminal:
		err = runTerminal(ctx, cfg, float32(*offset), logger)
	default:
		err = runWindow(ctx, cfg, float32(*offset), logger)
	}
	if err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
}

// newLogger keeps the terminal clean in term mode: output goes to the log
// file only, or nowhere.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.Graphics.DisplayMode == config.ModeTerminal {
		if cfg.Log.File != "" {
			return logger.NewFileLogger(cfg.Log.Level, cfg.Log.File)
		}
		l := logger.NewLogger(cfg.Log.Level)
		l.SetOutput(io.Discard)
		return l, nil
	}
	if cfg.Log.File != "" {
		return logger.NewMultiLogger(cfg.Log.Level, cfg.Log.File)
	}
	return logger.NewLogger(cfg.Log.Level), nil
}

func runSnapshot(ctx context.Context, cfg *config.Config, out, input string, t float32, log *logger.Logger) error {
	pipeline, err := engine.NewPipeline(cfg, engine.Options{}, log)
	if err != nil {
		return err
	}
	renderer := engine.NewSnapshotRenderer(out, cfg.Graphics.Width, cfg.Graphics.Height, log)

	if input == "" {
		return engine.NewEngine(cfg, pipeline, renderer, log).Step(ctx, t)
	}

	src, err := loadImage(input, log)
	if err != nil {
		return err
	}
	frame, err := pipeline.CompositeImage(ctx, src, t)
	if err != nil {
		return fmt.Errorf("failed to composite %s: %w", input, err)
	}
	return renderer.Render(ctx, frame)
}

func loadImage(path string, log *logger.Logger) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	log.Infof("decoded %s (%s, %dx%d)", path, format, img.Bounds().Dx(), img.Bounds().Dy())
	return img, nil
}

func runTerminal(ctx context.Context, cfg *config.Config, t float32, log *logger.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to open terminal: %w", err)
	}
	cellSize := shadermath.Vec2{X: cfg.Glyph.CellWidth, Y: cfg.Glyph.CellHeight}
	renderer, err := term.NewRenderer(screen, cellSize, log)
	if err != nil {
		return err
	}
	defer renderer.Close()

	pipeline, err := engine.NewPipeline(cfg, engine.Options{}, log)
	if err != nil {
		return err
	}
	return engine.NewEngine(cfg, pipeline, renderer, log).Run(ctx, t)
}

func runWindow(ctx context.Context, cfg *config.Config, t float32, log *logger.Logger) error {
	window, err := glrender.NewWindow(cfg.Graphics, "glyphcast", log)
	if err != nil {
		return err
	}
	renderer, err := glrender.NewRenderer(window, log)
	if err != nil {
		window.Close()
		return err
	}
	defer renderer.Close()

	pipeline, err := engine.NewPipeline(cfg, engine.Options{SceneOnly: true}, log)
	if err != nil {
		return err
	}
	return engine.NewEngine(cfg, pipeline, renderer, log).Run(ctx, t)
}
