package starfield

import (
	"errors"
	"math"
	"time"

	"github.com/litescript/ls-starfly/internal/config"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/rng"
)

const (
	// FarPlane is the depth at which regenerated stars appear.
	FarPlane = 5000.0

	// GiantFactor pushes stars with a size factor above it this many times
	// further away so they do not pop up as large discs.
	GiantFactor = 5.0

	// MaxRegenerations caps placement attempts in a single Resolve call.
	MaxRegenerations = 10000

	// Stars with a larger projected radius are drawn as discs.
	minDiscRadius = 0.8
)

// ErrRegenerationExhausted is returned when no visible placement was found
// within MaxRegenerations attempts.
var ErrRegenerationExhausted = errors.New("starfield: no visible placement found")

// State is the lifecycle state of a star.
type State int

const (
	StateNew       State = iota // Not yet placed; first placement fills the whole volume
	StateGenerated              // Placed; regenerates at the far plane
)

// View holds the per-run projection parameters shared by all stars.
type View struct {
	Width       int
	Height      int
	CenterX     float64
	CenterY     float64
	ScreenScale float64 // Pixels per unit at depth 1
	XSpan       float64 // Lateral range of generated X
	YSpan       float64 // Lateral range of generated Y
	Speed       float64 // Units per ms
	StarSize    float64
	FadePower   float64
	FadeInTime  time.Duration
	SizeType    config.SizeType
	ColorType   config.ColorType
	Darkest     uint8
	Source      *rng.Source
}

// NewView derives projection parameters for a width x height viewport.
func NewView(cfg config.Config, width, height int, src *rng.Source) View {
	scale := float64(min(width, height)) * cfg.Zoom
	return View{
		Width:       width,
		Height:      height,
		CenterX:     cfg.CenterX,
		CenterY:     cfg.CenterY,
		ScreenScale: scale,
		XSpan:       float64(width) * FarPlane / scale,
		YSpan:       float64(height) * FarPlane / scale,
		Speed:       cfg.Speed,
		StarSize:    cfg.StarSize,
		FadePower:   cfg.FadePower,
		FadeInTime:  cfg.FadeInTime,
		SizeType:    cfg.SizeType,
		ColorType:   cfg.ColorType,
		Darkest:     cfg.DarkestRGB,
		Source:      src,
	}
}

// Star is a single light source flying toward the viewer.
type Star struct {
	X, Y, Z float64 // Position in view space
	Size    float64 // Distance at which the star is one pixel in radius
	R, G, B uint8
	FadeIn  time.Duration // Time left until full brightness
	State   State

	// Recomputed by Resolve
	Xp, Yp     float64 // Screen position
	ViewRadius float64 // Projected radius in pixels
	Fade       float64 // Brightness in [0, 1]
}

// Advance moves the star toward the viewer by elapsed time, ticks its fade-in
// and re-projects it. Negative elapsed counts as zero. It returns the number
// of regenerations performed.
func (s *Star) Advance(v *View, elapsed time.Duration) (int, error) {
	elapsed = max(elapsed, 0)
	ms := float64(elapsed) / float64(time.Millisecond)
	s.Z -= v.Speed * ms
	if s.FadeIn > 0 {
		s.FadeIn -= elapsed
		if s.FadeIn < 0 {
			s.FadeIn = 0
		}
	}
	return s.Resolve(v)
}

// Resolve projects the star onto the screen, regenerating it until it is
// visible. It returns the number of regenerations performed.
func (s *Star) Resolve(v *View) (int, error) {
	for n := 0; n <= MaxRegenerations; n++ {
		if s.project(v) {
			return n, nil
		}
		if n == MaxRegenerations {
			break
		}
		s.regenerate(v)
	}
	return MaxRegenerations, ErrRegenerationExhausted
}

// project computes view state and reports whether the star is visible.
func (s *Star) project(v *View) bool {
	if s.Z <= 0 {
		return false
	}

	s.ViewRadius = s.Size / math.Sqrt(s.X*s.X+s.Y*s.Y+s.Z*s.Z)
	margin := float64(int(s.ViewRadius))

	k := v.ScreenScale / s.Z
	s.Xp = v.CenterX*float64(v.Width) + s.X*k
	if s.Xp < -margin || s.Xp >= float64(v.Width)+margin {
		return false
	}
	s.Yp = v.CenterY*float64(v.Height) + s.Y*k
	if s.Yp < -margin || s.Yp >= float64(v.Height)+margin {
		return false
	}

	if s.ViewRadius < 1 {
		s.Fade = math.Pow(s.ViewRadius, v.FadePower)
	} else {
		s.Fade = 1
	}

	if s.FadeIn > 0 && v.FadeInTime > 0 {
		ramp := 1 - float64(s.FadeIn)/float64(v.FadeInTime)
		if s.ViewRadius > 1 {
			// Grows to one pixel while brightening, then keeps growing
			s.ViewRadius *= ramp
			s.Fade = min(s.ViewRadius, 1)
		} else {
			s.ViewRadius *= ramp
			s.Fade *= ramp
		}
	}
	return true
}

// regenerate places the star at a new random position with a new size and
// color.
func (s *Star) regenerate(v *View) {
	src := v.Source
	if s.State == StateNew {
		s.Z = src.Float64() * FarPlane
		s.FadeIn = 0
	} else {
		s.Z = FarPlane
		s.FadeIn = v.FadeInTime
	}

	s.X = (src.Float64() - v.CenterX) * v.XSpan
	s.Y = (src.Float64() - v.CenterY) * v.YSpan

	factor := v.sizeFactor()
	if factor > GiantFactor {
		s.X *= GiantFactor
		s.Y *= GiantFactor
		s.Z *= GiantFactor
	}
	s.Size = v.StarSize * factor

	s.R, s.G, s.B = v.randomColor()
}

func (v *View) sizeFactor() float64 {
	switch v.SizeType {
	case config.SizeEqual:
		return 1
	case config.SizeUniform:
		return v.Source.Float64() * 2
	default:
		return v.Source.StarRadius()
	}
}

// Depth returns the star's quantized depth for the depth buffer.
func (s *Star) Depth() uint16 {
	switch {
	case s.Z <= 0:
		return 0
	case s.Z >= raster.MaxDepth:
		return raster.MaxDepth
	default:
		return uint16(s.Z)
	}
}

// Color returns the star color attenuated by its fade.
func (s *Star) Color() raster.Color {
	return raster.RGB(
		uint8(float64(s.R)*s.Fade),
		uint8(float64(s.G)*s.Fade),
		uint8(float64(s.B)*s.Fade),
	)
}

// Render draws the star into f, as a disc when its projected radius is large
// enough and as a single pixel otherwise. It reports whether a disc was drawn.
func (s *Star) Render(f *raster.Frame) bool {
	depth := s.Depth()
	c := s.Color()
	cx, cy := int(s.Xp), int(s.Yp)

	if s.ViewRadius > minDiscRadius {
		r := 1
		if s.ViewRadius > 1 {
			r = int(s.ViewRadius)
		}
		lim := s.ViewRadius * s.ViewRadius
		drawn := false

		for j := max(0, cy-r); j < min(cy+r+2, f.Height()); j++ {
			dy := float64(j) - s.Yp
			rowLim := lim - dy*dy
			if rowLim < 0 {
				continue
			}
			for k := max(0, cx-r); k < min(cx+r+2, f.Width()); k++ {
				dx := float64(k) - s.Xp
				if dx*dx > rowLim {
					continue
				}
				f.Put(k, j, c, depth)
				drawn = true
			}
		}
		if drawn {
			return true
		}
	}

	f.PutChecked(cx, cy, c, depth)
	return false
}
