// Command ls-starfly flies through a 3D star field in the terminal, a desktop
// window or headless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/litescript/ls-starfly/internal/config"
	"github.com/litescript/ls-starfly/internal/driver"
	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/starfield"
	"github.com/litescript/ls-starfly/internal/state"
	"github.com/litescript/ls-starfly/internal/ui"
	"github.com/litescript/ls-starfly/internal/version"
	"github.com/litescript/ls-starfly/internal/window"
)

// CLI flags for presenter selection and headless output
var (
	windowMode   bool
	fullscreen   bool
	saverMode    bool
	frameWidth   int
	frameHeight  int
	frameCount   int
	snapshotPath string
	asciiMode    bool
	summaryMode  bool
	jsonMode     bool
)

// Settings overrides; applied only when given on the command line
var (
	starsFlag int
	speedFlag float64
	seedFlag  int64
)

func main() {
	configPath := flag.String("config", "", "Settings file (default: <executable>.ini, then "+config.DefaultFileName+")")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Write logs to file (the terminal UI discards them otherwise)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.BoolVar(&windowMode, "window", false, "Open a desktop window instead of the terminal UI")
	flag.BoolVar(&fullscreen, "fullscreen", false, "Run the window fullscreen")
	flag.BoolVar(&saverMode, "saver", false, "Screen saver mode: any input exits")
	flag.IntVar(&frameWidth, "width", 0, "Frame width in pixels (window and headless)")
	flag.IntVar(&frameHeight, "height", 0, "Frame height in pixels (window and headless)")
	flag.IntVar(&frameCount, "frames", 0, "Render N frames headless, then exit")
	flag.StringVar(&snapshotPath, "snapshot", "", "Write the last headless frame as BMP (- for stdout, without -ascii/-summary/-json)")
	flag.BoolVar(&asciiMode, "ascii", false, "Print the last headless frame as ASCII art")
	flag.BoolVar(&summaryMode, "summary", false, "Print a text summary of the headless run")
	flag.BoolVar(&jsonMode, "json", false, "Print a JSON summary of the headless run")
	flag.IntVar(&starsFlag, "stars", 0, "Number of stars")
	flag.Float64Var(&speedFlag, "speed", 0, "Fly speed in units per ms")
	flag.Int64Var(&seedFlag, "seed", 0, "RNG seed (0 seeds from the clock)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up logging
	logger := logging.New(logging.ParseLevel(*logLevel))
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(&cfg)
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	headless := frameCount > 0 || snapshotPath != "" || asciiMode || summaryMode || jsonMode
	switch {
	case headless:
		err = runHeadless(os.Stdout, cfg, headlessOptions{
			Width:    frameWidth,
			Height:   frameHeight,
			Frames:   frameCount,
			Snapshot: snapshotPath,
			ASCII:    asciiMode,
			Summary:  summaryMode,
			JSON:     jsonMode,
		}, logger)
	case windowMode:
		err = runWindow(ctx, cfg, logger)
	default:
		if *logFile == "" {
			logger.SetOutput(io.Discard)
		}
		err = runTUI(ctx, cfg, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the settings file named by path, or the first default
// location that exists.
func loadConfig(path string, logger *logging.Logger) (config.Config, error) {
	base := config.DefaultConfig()
	if path != "" {
		cfg, err := config.LoadFile(path, base)
		if err != nil {
			return base, fmt.Errorf("load settings: %w", err)
		}
		logger.Debug("Settings loaded from %s", path)
		return cfg, nil
	}

	exe, err := os.Executable()
	if err != nil {
		logger.Debug("Executable path unavailable: %v", err)
	}
	cfg, found, err := config.LoadFirst(config.DefaultPaths(exe), base)
	if err != nil {
		return base, fmt.Errorf("load settings: %w", err)
	}
	if found != "" {
		logger.Debug("Settings loaded from %s", found)
	}
	return cfg, nil
}

// applyFlags copies explicitly given settings flags over cfg.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "stars":
			cfg.Stars = starsFlag
		case "speed":
			cfg.Speed = speedFlag
		case "seed":
			cfg.Seed = seedFlag
		}
	})
}

// newRunner builds the simulator and the runner that drives it.
func newRunner(cfg config.Config, width, height int, logger *logging.Logger, opts ...driver.Option) (*driver.Runner, *starfield.Simulator, error) {
	sim, err := starfield.New(cfg, width, height, starfield.WithLogger(logger.With("starfield")))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Star field %dx%d, %d stars, seed %d", width, height, cfg.Stars, sim.Seed())

	opts = append([]driver.Option{
		driver.WithInterval(cfg.FrameInterval),
		driver.WithLogger(logger.With("driver")),
	}, opts...)
	return driver.New(sim, state.NewManager(state.DefaultConfig()), opts...), sim, nil
}

func closeRunner(r *driver.Runner, logger *logging.Logger) {
	if err := r.Close(); err != nil && !errors.Is(err, driver.ErrCloseTimeout) {
		logger.Error("Close: %v", err)
	}
}

func runTUI(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdout is not a terminal; use -frames for headless output")
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return fmt.Errorf("terminal size: %w", err)
	}
	width, height := ui.FrameSize(cols, rows-ui.ChromeRows)

	runner, _, err := newRunner(cfg, width, height, logger)
	if err != nil {
		return err
	}
	defer closeRunner(runner, logger)

	// Create TUI model
	model := ui.New(runner, runner.Stats(),
		ui.WithSaver(saverMode),
		ui.WithLogger(logger.With("ui")),
	)

	// Create Bubble Tea program
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Start frame loop in background
	go func() {
		if err := runner.Run(ctx, ui.NewSink(p)); err != nil {
			p.Send(ui.ErrorMsg{Error: err})
		}
	}()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run TUI: %w", err)
	}
	return nil
}

func runWindow(ctx context.Context, cfg config.Config, logger *logging.Logger) error {
	opts := window.Options{
		Title:      version.String(),
		Width:      frameWidth,
		Height:     frameHeight,
		Interval:   cfg.FrameInterval,
		Fullscreen: fullscreen,
		Saver:      saverMode,
		Logger:     logger.With("window"),
	}
	width, height := opts.Size()

	runner, _, err := newRunner(cfg, width, height, logger)
	if err != nil {
		return err
	}
	defer closeRunner(runner, logger)

	return window.Run(ctx, runner, opts)
}
