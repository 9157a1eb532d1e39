// Package driver runs a star field simulation on a timer and hands finished
// frames to a presenter.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/starfield"
	"github.com/litescript/ls-starfly/internal/state"
)

const (
	// DefaultCloseTimeout bounds how long Close waits for an in-flight frame.
	DefaultCloseTimeout = time.Second

	busyPoll = time.Millisecond
)

var (
	// ErrStop may be returned by a Sink to end Run without an error.
	ErrStop = errors.New("driver: stop requested")

	// ErrClosed is returned by operations on a closed Runner.
	ErrClosed = errors.New("driver: closed")

	// ErrCloseTimeout is returned by Close when a frame was still rendering
	// after the close timeout. The simulator is shut down once it finishes.
	ErrCloseTimeout = errors.New("driver: frame still rendering")

	// ErrBusy is returned by Capture when the frame could not be locked in
	// time.
	ErrBusy = errors.New("driver: frame busy")

	// ErrNoFrame is returned by Capture before the first frame.
	ErrNoFrame = errors.New("driver: no frame rendered yet")
)

// Simulator is the frame source driven by a Runner.
type Simulator interface {
	Tick(elapsed time.Duration) (*raster.Frame, starfield.FrameStats)
	Shutdown()
}

// Sink receives finished frames. The frame is only valid for the duration of
// the call.
type Sink interface {
	Present(frame *raster.Frame, stats state.FrameStats) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(frame *raster.Frame, stats state.FrameStats) error

// Present calls f.
func (f SinkFunc) Present(frame *raster.Frame, stats state.FrameStats) error {
	return f(frame, stats)
}

// Runner drives a Simulator. Ticks never overlap: a tick requested while
// another is in progress is skipped and counted.
type Runner struct {
	sim          Simulator
	stats        *state.Manager
	log          *logging.Logger
	sink         Sink
	interval     time.Duration
	closeTimeout time.Duration
	clock        func() time.Time

	busy     atomic.Bool
	paused   atomic.Bool
	closed   atomic.Bool
	stop     chan struct{}
	shutdown sync.Once

	// Guarded by busy
	prev time.Time
	last *raster.Frame
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithInterval sets the frame interval used by Run.
func WithInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithCloseTimeout sets how long Close waits for an in-flight frame.
func WithCloseTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.closeTimeout = d
	}
}

// WithClock sets the time source used by Run and for the start time.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.clock = now
	}
}

// WithSink sets the sink used by Step.
func WithSink(s Sink) Option {
	return func(r *Runner) {
		r.sink = s
	}
}

// New creates a Runner for sim. Statistics are recorded into stats; a nil
// manager gets a default one.
func New(sim Simulator, stats *state.Manager, opts ...Option) *Runner {
	if stats == nil {
		stats = state.NewManager(state.DefaultConfig())
	}
	r := &Runner{
		sim:          sim,
		stats:        stats,
		log:          logging.Discard(),
		interval:     40 * time.Millisecond,
		closeTimeout: DefaultCloseTimeout,
		clock:        time.Now,
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.prev = r.clock()
	return r
}

// Stats returns the statistics manager.
func (r *Runner) Stats() *state.Manager {
	return r.stats
}

// Interval returns the frame interval.
func (r *Runner) Interval() time.Duration {
	return r.interval
}

// Step renders one frame for the time now and presents it to the configured
// sink. It reports whether a frame was rendered.
func (r *Runner) Step(now time.Time) (bool, error) {
	return r.step(now, r.sink)
}

// StepTo is Step with an explicit sink, for presenters that own the render
// loop.
func (r *Runner) StepTo(now time.Time, sink Sink) (bool, error) {
	return r.step(now, sink)
}

func (r *Runner) step(now time.Time, sink Sink) (bool, error) {
	if r.closed.Load() {
		return false, ErrClosed
	}
	if !r.busy.CompareAndSwap(false, true) {
		r.stats.RecordSkip()
		r.log.Debug("tick skipped: frame in progress")
		return false, nil
	}
	if r.closed.Load() {
		r.busy.Store(false)
		return false, ErrClosed
	}
	defer r.release()

	elapsed := now.Sub(r.prev)
	if elapsed < 0 {
		elapsed = 0
	}
	r.prev = now

	if r.paused.Load() {
		return false, nil
	}

	start := time.Now()
	frame, fs := r.sim.Tick(elapsed)
	if frame == nil {
		return false, nil
	}
	rec := r.stats.Record(state.FrameStats{
		Timestamp:     now,
		Elapsed:       fs.Elapsed,
		Render:        time.Since(start),
		Regenerations: fs.Regenerations,
		Discs:         fs.Discs,
		Points:        fs.Points,
		Exhausted:     fs.Exhausted,
		Lit:           frame.Lit(),
	})
	r.last = frame

	if sink == nil {
		return true, nil
	}
	return true, sink.Present(frame, rec)
}

// release drops the in-progress flag and finishes a shutdown that Close could
// not complete in time.
func (r *Runner) release() {
	r.busy.Store(false)
	if r.closed.Load() {
		r.shutdown.Do(r.sim.Shutdown)
	}
}

// Run steps the simulation every interval until ctx is cancelled, Close is
// called or sink returns an error. ErrStop from the sink ends Run cleanly.
func (r *Runner) Run(ctx context.Context, sink Sink) error {
	r.stats.AddEvent(state.EventStart, r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("frame loop shutting down")
			return nil
		case <-r.stop:
			return nil
		case <-ticker.C:
		}

		_, err := r.step(r.clock(), sink)
		switch {
		case err == nil:
		case errors.Is(err, ErrStop), errors.Is(err, ErrClosed):
			return nil
		default:
			r.stats.SetError(err)
			r.log.Error("present frame: %v", err)
			return fmt.Errorf("present frame: %w", err)
		}
	}
}

// SetPaused pauses or resumes the simulation. Time spent paused is not
// simulated.
func (r *Runner) SetPaused(paused bool) {
	r.paused.Store(paused)
	r.stats.SetPaused(paused)
}

// TogglePause flips the pause state and returns the new state.
func (r *Runner) TogglePause() bool {
	paused := !r.paused.Load()
	r.SetPaused(paused)
	return paused
}

// Paused reports whether the simulation is paused.
func (r *Runner) Paused() bool {
	return r.paused.Load()
}

// Capture calls fn with the most recent frame while no tick can run.
func (r *Runner) Capture(fn func(*raster.Frame) error) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if !r.acquire(r.closeTimeout) {
		return ErrBusy
	}
	defer r.release()

	if r.last == nil {
		return ErrNoFrame
	}
	return fn(r.last)
}

// Close stops Run, waits up to the close timeout for an in-flight frame and
// shuts the simulator down. Further calls are no-ops.
func (r *Runner) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stop)

	if !r.acquire(r.closeTimeout) {
		r.log.Warn("frame still rendering after %v; shutdown deferred", r.closeTimeout)
		return ErrCloseTimeout
	}
	// busy stays set so no further tick can start
	r.shutdown.Do(r.sim.Shutdown)
	r.last = nil
	r.stats.AddEvent(state.EventStop, "")
	return nil
}

// acquire takes the in-progress flag, polling until timeout.
func (r *Runner) acquire(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if r.busy.CompareAndSwap(false, true) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(busyPoll)
	}
}
