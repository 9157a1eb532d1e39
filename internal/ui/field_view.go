package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-starfly/internal/raster"
)

// halfBlock draws two stacked pixels in one cell: the foreground colors the
// top pixel and the background colors the bottom one.
const halfBlock = "▀"

type cellKey struct {
	top, bottom raster.Color
}

// RenderFrame draws f as text with one cell per column and pair of rows. An
// odd last row is drawn over an empty bottom half.
func RenderFrame(f *raster.Frame) string {
	if f == nil || f.Width() == 0 || f.Height() == 0 {
		return ""
	}

	cells := make(map[cellKey]string)
	var b strings.Builder
	for y := 0; y < f.Height(); y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < f.Width(); x++ {
			k := cellKey{top: f.At(x, y)}
			if y+1 < f.Height() {
				k.bottom = f.At(x, y+1)
			}
			s, ok := cells[k]
			if !ok {
				s = renderCell(k)
				cells[k] = s
			}
			b.WriteString(s)
		}
	}
	return b.String()
}

// FrameSize returns the pixel size that fills cols × rows cells.
func FrameSize(cols, rows int) (width, height int) {
	return max(cols, 0), max(rows, 0) * 2
}

func renderCell(k cellKey) string {
	if k.top == raster.Black && k.bottom == raster.Black {
		return " "
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(k.top)))
	if k.bottom != raster.Black {
		style = style.Background(lipgloss.Color(hexColor(k.bottom)))
	}
	return style.Render(halfBlock)
}

func hexColor(c raster.Color) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R(), c.G(), c.B())
}
