package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/litescript/ls-starfly/internal/config"
	"github.com/litescript/ls-starfly/internal/driver"
	"github.com/litescript/ls-starfly/internal/export"
	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/version"
)

const (
	headlessWidth  = 320
	headlessHeight = 200
	asciiCols      = 80
	asciiRows      = 25
)

var errSnapshotStdout = errors.New("-snapshot - writes BMP to stdout and cannot be combined with -ascii, -summary or -json")

// headlessOptions selects what a headless run renders and writes.
type headlessOptions struct {
	Width    int
	Height   int
	Frames   int
	Snapshot string
	ASCII    bool
	Summary  bool
	JSON     bool
}

// runHeadless renders a fixed number of frames at the configured interval on
// a simulated clock, then writes the requested outputs to w. With no output
// selected it prints the summary.
func runHeadless(w io.Writer, cfg config.Config, opts headlessOptions, logger *logging.Logger) error {
	if opts.Snapshot == "-" && (opts.ASCII || opts.Summary || opts.JSON) {
		return errSnapshotStdout
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = headlessWidth
	}
	if height <= 0 {
		height = headlessHeight
	}
	frames := max(opts.Frames, 1)

	t0 := time.Unix(0, 0)
	runner, sim, err := newRunner(cfg, width, height, logger, driver.WithClock(func() time.Time { return t0 }))
	if err != nil {
		return err
	}
	defer closeRunner(runner, logger)

	for i := 1; i <= frames; i++ {
		if _, err := runner.Step(t0.Add(time.Duration(i) * cfg.FrameInterval)); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	logger.Debug("Rendered %d frames", frames)

	if opts.Snapshot != "" {
		path := opts.Snapshot
		err := runner.Capture(func(f *raster.Frame) error {
			if path == "-" {
				return export.WriteBMP(w, f)
			}
			return export.SaveBMP(path, f)
		})
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	if opts.ASCII {
		err := runner.Capture(func(f *raster.Frame) error {
			return export.WriteASCII(w, f, asciiCols, asciiRows)
		})
		if err != nil {
			return fmt.Errorf("write ASCII frame: %w", err)
		}
	}

	summary := export.ExportSummary(version.Version, cfg, width, height, sim.Seed(), runner.Stats().Snapshot())
	if opts.Summary || (opts.Snapshot == "" && !opts.ASCII && !opts.JSON) {
		if opts.ASCII {
			fmt.Fprintln(w)
		}
		export.WriteSummary(w, summary)
	}
	if opts.JSON {
		if err := summary.WriteJSON(w); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}
	return nil
}
