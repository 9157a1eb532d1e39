// Package config holds the star field configuration and its settings loader.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// SizeType selects how star sizes are distributed.
type SizeType int

const (
	SizeEqual     SizeType = iota // All stars have StarSize
	SizeUniform                   // StarSize * [0.0, 2.0)
	SizeGammaLike                 // Gamma-like distribution with max at StarSize
)

// String returns the size type name.
func (s SizeType) String() string {
	switch s {
	case SizeEqual:
		return "equal"
	case SizeUniform:
		return "uniform"
	case SizeGammaLike:
		return "gamma"
	default:
		return "unknown"
	}
}

// ParseSizeType parses a size type name or its numeric form.
func ParseSizeType(s string) (SizeType, error) {
	switch s {
	case "equal", "0":
		return SizeEqual, nil
	case "uniform", "1":
		return SizeUniform, nil
	case "gamma", "2":
		return SizeGammaLike, nil
	default:
		return SizeEqual, fmt.Errorf("unknown size type %q", s)
	}
}

// ColorType selects how star colors are generated.
type ColorType int

const (
	ColorRandomRGB ColorType = iota // Each channel in [DarkestRGB, 256)
	ColorBlackBody                  // Black-body spectrum approximation
)

// String returns the color type name.
func (c ColorType) String() string {
	switch c {
	case ColorRandomRGB:
		return "rgb"
	case ColorBlackBody:
		return "blackbody"
	default:
		return "unknown"
	}
}

// ParseColorType parses a color type name or its numeric form.
func ParseColorType(s string) (ColorType, error) {
	switch s {
	case "rgb", "0":
		return ColorRandomRGB, nil
	case "blackbody", "1":
		return ColorBlackBody, nil
	default:
		return ColorRandomRGB, fmt.Errorf("unknown color type %q", s)
	}
}

// Config is the star field configuration. It is not modified once a run
// has started.
type Config struct {
	Stars         int           // Number of stars seen simultaneously
	Speed         float64       // Fly speed in distance units per ms; 1.0 crosses the far plane in 5s
	FrameInterval time.Duration // Interval between frames
	CenterX       float64       // Destination point, fraction of screen width
	CenterY       float64       // Destination point, fraction of screen height
	Zoom          float64       // 1.0 is ~90 degrees; >1 telescope, <1 fish-eye
	StarSize      float64       // Distance at which a star has a radius of 1 pixel
	SizeType      SizeType
	DarkestRGB    uint8 // Darkest value for a color channel
	ColorType     ColorType
	FadePower     float64       // 1.0 fades linearly with distance, 0.0 does not fade
	FadeInTime    time.Duration // Fade-in of newly generated stars
	Seed          int64         // RNG seed; 0 seeds from the clock
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		Stars:         4000,
		Speed:         0.005, // 1000s to the far plane
		FrameInterval: 40 * time.Millisecond,
		CenterX:       0.5,
		CenterY:       0.5,
		Zoom:          1.0,
		StarSize:      500,
		SizeType:      SizeGammaLike,
		DarkestRGB:    64,
		ColorType:     ColorBlackBody,
		FadePower:     1.0,
		FadeInTime:    2000 * time.Millisecond,
	}
}

const (
	minFrameInterval = 5 * time.Millisecond
	maxFrameInterval = 5 * time.Second
)

// Sanitize clamps out-of-range values into something renderable. Star count
// is left alone so Validate can report it.
func (c *Config) Sanitize() {
	if c.FrameInterval < minFrameInterval {
		c.FrameInterval = minFrameInterval
	} else if c.FrameInterval > maxFrameInterval {
		c.FrameInterval = maxFrameInterval
	}
	if c.Speed < 0 {
		c.Speed = 0
	}
	if c.StarSize < 0 {
		c.StarSize = 0
	}
	if c.FadePower < 0 {
		c.FadePower = 0
	}
	if c.FadeInTime < 0 {
		c.FadeInTime = 0
	}
	if c.SizeType < SizeEqual || c.SizeType > SizeGammaLike {
		c.SizeType = SizeGammaLike
	}
	if c.ColorType < ColorRandomRGB || c.ColorType > ColorBlackBody {
		c.ColorType = ColorBlackBody
	}
}

// Validate reports the first setting that makes a run impossible.
func (c Config) Validate() error {
	if c.Stars <= 0 {
		return &ValidationError{Field: "Stars", Value: c.Stars, Reason: "must be positive"}
	}
	if !(c.Zoom > 0) || math.IsInf(c.Zoom, 1) {
		return &ValidationError{Field: "Zoom", Value: c.Zoom, Reason: "must be positive and finite"}
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"Speed", c.Speed},
		{"CenterX", c.CenterX},
		{"CenterY", c.CenterY},
		{"StarSize", c.StarSize},
		{"FadePower", c.FadePower},
	} {
		if !isFinite(f.value) {
			return &ValidationError{Field: f.name, Value: f.value, Reason: "must be finite"}
		}
	}
	return nil
}

var errNotFinite = errors.New("not a finite number")

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ValidationError describes an unusable configuration value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
