package starfield

import "github.com/litescript/ls-starfly/internal/config"

// B-V color index range sampled for black-body stars.
const (
	minColorIndex  = -0.4
	colorIndexSpan = 2.4
)

// BlackBodyColor maps a B-V color index onto an approximate star color. Each
// channel starts at darkest and gains up to 255-darkest.
func BlackBodyColor(bv float64, darkest uint8) (r, g, b uint8) {
	span := float64(255 - darkest)
	channel := func(v float64) uint8 {
		return darkest + uint8(span*clamp01(v))
	}

	var t float64
	switch {
	case bv < 0:
		t = (bv + 0.4) / 0.4
		r = channel(0.61 + 0.11*t + 0.1*t*t)
	case bv < 0.4:
		t = bv / 0.4
		r = channel(0.83 + 0.17*t)
	default:
		r = channel(1)
	}

	switch {
	case bv < 0:
		t = (bv + 0.4) / 0.4
		g = channel(0.70 + 0.07*t + 0.1*t*t)
	case bv < 0.4:
		t = bv / 0.4
		g = channel(0.87 + 0.11*t)
	case bv < 1.6:
		t = (bv - 0.4) / 1.2
		g = channel(0.98 - 0.16*t)
	default:
		t = (bv - 1.6) / 0.4
		g = channel(0.82 - 0.5*t*t)
	}

	switch {
	case bv < 0.4:
		b = channel(1)
	case bv < 1.5:
		t = (bv - 0.4) / 1.1
		b = channel(1.00 - 0.47*t + 0.1*t*t)
	case bv < 1.94:
		t = (bv - 1.5) / 0.44
		b = channel(0.63 - 0.6*t*t)
	default:
		b = darkest
	}
	return r, g, b
}

// randomColor picks a star color according to the view's color policy.
func (v *View) randomColor() (r, g, b uint8) {
	switch v.ColorType {
	case config.ColorRandomRGB:
		// Channels in [darkest, 256); may give colors no real star has
		span := float64(256 - int(v.Darkest))
		r = v.Darkest + uint8(v.Source.Float64()*span)
		g = v.Darkest + uint8(v.Source.Float64()*span)
		b = v.Darkest + uint8(v.Source.Float64()*span)
		return r, g, b
	default:
		bv := minColorIndex + v.Source.Float64()*colorIndexSpan
		return BlackBodyColor(bv, v.Darkest)
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
