// Package raster provides the color framebuffer and its paired 16-bit depth
// buffer with nearest-wins pixel writes.
package raster

import (
	"image"
	"math"
)

// MaxDepth is the depth of an empty pixel (farthest).
const MaxDepth = math.MaxUint16

// Color is a packed 0x00RRGGBB pixel.
type Color uint32

// Black is the cleared pixel color.
const Black Color = 0

// RGB packs three 8-bit channels.
func RGB(r, g, b uint8) Color {
	return Color(r)<<16 | Color(g)<<8 | Color(b)
}

// R returns the red channel.
func (c Color) R() uint8 { return uint8(c >> 16) }

// G returns the green channel.
func (c Color) G() uint8 { return uint8(c >> 8) }

// B returns the blue channel.
func (c Color) B() uint8 { return uint8(c) }

// Frame is a color raster with a parallel depth raster. A pixel's color always
// belongs to the write whose depth is stored for that pixel.
type Frame struct {
	width  int
	height int
	pix    []Color
	depth  []uint16
}

// New allocates a cleared width x height frame.
// Non-positive dimensions produce an empty frame.
func New(width, height int) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	f := &Frame{
		width:  width,
		height: height,
		pix:    make([]Color, width*height),
		depth:  make([]uint16, width*height),
	}
	f.Clear()
	return f
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in pixels.
func (f *Frame) Height() int { return f.height }

// Clear resets every pixel to black and every depth cell to MaxDepth.
func (f *Frame) Clear() {
	n := len(f.pix)
	if n == 0 {
		return
	}
	// Copy-doubling fill
	f.pix[0] = Black
	f.depth[0] = MaxDepth
	for i := 1; i < n; i *= 2 {
		copy(f.pix[i:], f.pix[:i])
		copy(f.depth[i:], f.depth[:i])
	}
}

// Put writes c at (x, y) when depth is not farther than the stored depth.
// Equal depth lets the later write win. The caller guarantees (x, y) is in
// bounds.
func (f *Frame) Put(x, y int, c Color, depth uint16) {
	i := x + y*f.width
	if f.depth[i] < depth {
		return
	}
	f.pix[i] = c
	f.depth[i] = depth
}

// PutChecked is Put with bounds checking; out-of-bounds writes are dropped.
// It reports whether (x, y) was inside the frame.
func (f *Frame) PutChecked(x, y int, c Color, depth uint16) bool {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return false
	}
	f.Put(x, y, c, depth)
	return true
}

// At returns the color at (x, y), or Black outside the frame.
func (f *Frame) At(x, y int) Color {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return Black
	}
	return f.pix[x+y*f.width]
}

// DepthAt returns the stored depth at (x, y), or MaxDepth outside the frame.
func (f *Frame) DepthAt(x, y int) uint16 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return MaxDepth
	}
	return f.depth[x+y*f.width]
}

// Pixels returns the color raster in row-major order. The slice aliases the
// frame and must not be modified.
func (f *Frame) Pixels() []Color {
	return f.pix
}

// Lit returns the number of non-black pixels.
func (f *Frame) Lit() int {
	n := 0
	for _, c := range f.pix {
		if c != Black {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	c := &Frame{
		width:  f.width,
		height: f.height,
		pix:    make([]Color, len(f.pix)),
		depth:  make([]uint16, len(f.depth)),
	}
	copy(c.pix, f.pix)
	copy(c.depth, f.depth)
	return c
}

// RGBA converts the color raster into a new opaque image.
func (f *Frame) RGBA() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	f.CopyRGBA(img.Pix)
	return img
}

// CopyRGBA writes the color raster into an RGBA byte slice of at least
// 4*width*height bytes.
func (f *Frame) CopyRGBA(dst []byte) {
	for i, c := range f.pix {
		j := i * 4
		if j+3 >= len(dst) {
			return
		}
		dst[j+0] = c.R()
		dst[j+1] = c.G()
		dst[j+2] = c.B()
		dst[j+3] = 0xFF
	}
}
