// Package starfield simulates and rasterizes a field of stars flying toward
// the viewer.
package starfield

import (
	"fmt"
	"time"

	"github.com/litescript/ls-starfly/internal/config"
	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/rng"
)

// FrameStats describes one simulated frame.
type FrameStats struct {
	Elapsed       time.Duration
	Regenerations int // Placement attempts that failed and were re-randomized
	Discs         int // Stars drawn as filled circles
	Points        int // Stars drawn as single pixels
	Exhausted     int // Stars skipped after MaxRegenerations
}

// Simulator owns the star population and the frame it renders into.
// It is not safe for concurrent use.
type Simulator struct {
	cfg   config.Config
	view  View
	stars []Star
	frame *raster.Frame
	log   *logging.Logger
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used for non-fatal warnings.
func WithLogger(l *logging.Logger) Option {
	return func(s *Simulator) {
		s.log = l
	}
}

// WithSource sets the random source. By default a Source seeded from
// Config.Seed is used.
func WithSource(src *rng.Source) Option {
	return func(s *Simulator) {
		s.view.Source = src
	}
}

// New creates a simulator for a width x height viewport and places every
// star.
func New(cfg config.Config, width, height int, opts ...Option) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("starfield: %w", err)
	}
	if width <= 0 {
		return nil, fmt.Errorf("starfield: %w", &config.ValidationError{Field: "Width", Value: width, Reason: "must be positive"})
	}
	if height <= 0 {
		return nil, fmt.Errorf("starfield: %w", &config.ValidationError{Field: "Height", Value: height, Reason: "must be positive"})
	}

	s := &Simulator{
		cfg:  cfg,
		view: NewView(cfg, width, height, nil),
		log:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.view.Source == nil {
		s.view.Source = rng.New(cfg.Seed)
	}

	s.stars = make([]Star, cfg.Stars)
	s.frame = raster.New(width, height)

	for i := range s.stars {
		st := &s.stars[i]
		st.State = StateNew
		if _, err := st.Resolve(&s.view); err != nil {
			s.log.Warn("star %d: initial placement: %v", i, err)
		}
		st.State = StateGenerated
	}

	s.log.Debug("initialized %d stars on %dx%d (scale %.1f, seed %d)",
		len(s.stars), width, height, s.view.ScreenScale, s.view.Source.Seed())
	return s, nil
}

// Tick advances every star by elapsed and renders the frame. The returned
// frame is owned by the simulator and is overwritten by the next Tick.
// After Shutdown it returns a nil frame.
func (s *Simulator) Tick(elapsed time.Duration) (*raster.Frame, FrameStats) {
	elapsed = max(elapsed, 0)
	stats := FrameStats{Elapsed: elapsed}
	if s.frame == nil {
		return nil, stats
	}

	s.frame.Clear()
	for i := range s.stars {
		st := &s.stars[i]
		n, err := st.Advance(&s.view, elapsed)
		stats.Regenerations += n
		if err != nil {
			stats.Exhausted++
			s.log.Warn("star %d: %v", i, err)
			continue
		}
		if st.Render(s.frame) {
			stats.Discs++
		} else {
			stats.Points++
		}
	}
	return s.frame, stats
}

// Shutdown releases the stars and the frame.
func (s *Simulator) Shutdown() {
	s.stars = nil
	s.frame = nil
}

// Config returns the configuration the simulator was created with.
func (s *Simulator) Config() config.Config {
	return s.cfg
}

// Size returns the viewport dimensions.
func (s *Simulator) Size() (width, height int) {
	return s.view.Width, s.view.Height
}

// Len returns the number of live stars; zero after Shutdown.
func (s *Simulator) Len() int {
	return len(s.stars)
}

// Seed returns the seed of the simulator's random source.
func (s *Simulator) Seed() uint64 {
	return s.view.Source.Seed()
}
