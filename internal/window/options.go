// Package window presents the star field in a desktop window.
package window

import (
	"time"

	"github.com/litescript/ls-starfly/internal/driver"
	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/raster"
)

const (
	// DefaultWidth and DefaultHeight size the window when none is given.
	DefaultWidth  = 1024
	DefaultHeight = 768

	// SettleTime is how long saver mode ignores input after start.
	SettleTime = 500 * time.Millisecond

	// MouseTolerance is how far the mouse may drift in saver mode, in pixels.
	MouseTolerance = 5
)

// Options configures the window.
type Options struct {
	Title       string
	Width       int
	Height      int
	Interval    time.Duration
	Fullscreen  bool
	Saver       bool
	SnapshotDir string
	Logger      *logging.Logger
}

// Runner is the frame loop the window drives.
type Runner interface {
	StepTo(now time.Time, sink driver.Sink) (bool, error)
	TogglePause() bool
	Capture(fn func(*raster.Frame) error) error
}

// exitDetector decides when saver mode should end.
type exitDetector struct {
	start    time.Time
	settled  bool
	originX  int
	originY  int
	hasMouse bool
}

func newExitDetector(start time.Time) *exitDetector {
	return &exitDetector{start: start}
}

// check reports whether input observed at now ends the saver. Input before the
// settling time is ignored; the first cursor position seen after it becomes
// the reference for mouse movement.
func (d *exitDetector) check(now time.Time, keyPressed, buttonPressed bool, x, y int) bool {
	if !d.settled {
		if now.Sub(d.start) < SettleTime {
			return false
		}
		d.settled = true
	}
	if !d.hasMouse {
		d.originX, d.originY = x, y
		d.hasMouse = true
	}
	if keyPressed || buttonPressed {
		return true
	}
	return abs(x-d.originX) > MouseTolerance || abs(y-d.originY) > MouseTolerance
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// tps converts a frame interval to ticks per second, at least one.
func tps(interval time.Duration) int {
	if interval <= 0 {
		return 60
	}
	return max(int(time.Second/interval), 1)
}

// Size returns the frame size, falling back to the defaults.
func (o Options) Size() (width, height int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}
