package export

import (
	"bufio"
	"io"

	"github.com/litescript/ls-starfly/internal/raster"
)

// asciiRamp orders glyphs from dark to bright.
const asciiRamp = " .:-=+*#%@"

// WriteASCII renders the frame as cols x rows characters. Each character
// shows the brightest pixel of its block so single-pixel stars survive the
// downsampling.
func WriteASCII(w io.Writer, f *raster.Frame, cols, rows int) error {
	if f == nil || cols <= 0 || rows <= 0 {
		return nil
	}

	bw := bufio.NewWriter(w)
	for r := 0; r < rows; r++ {
		y0, y1 := span(r, rows, f.Height())
		for c := 0; c < cols; c++ {
			x0, x1 := span(c, cols, f.Width())
			bw.WriteByte(Glyph(blockPeak(f, x0, y0, x1, y1)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// Glyph maps a luminance in [0, 255] to an ASCII character.
func Glyph(lum uint8) byte {
	i := int(lum) * len(asciiRamp) / 256
	return asciiRamp[i]
}

// Luminance returns the perceived brightness of c in [0, 255].
func Luminance(c raster.Color) uint8 {
	return uint8((299*int(c.R()) + 587*int(c.G()) + 114*int(c.B())) / 1000)
}

func blockPeak(f *raster.Frame, x0, y0, x1, y1 int) uint8 {
	var peak uint8
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if l := Luminance(f.At(x, y)); l > peak {
				peak = l
			}
		}
	}
	return peak
}

// span returns the pixel range covered by cell i of n over size pixels. Every
// cell covers at least one pixel when size > 0.
func span(i, n, size int) (lo, hi int) {
	lo = i * size / n
	hi = (i + 1) * size / n
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}
