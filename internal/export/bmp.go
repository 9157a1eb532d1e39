// Package export writes frames and run summaries for headless use.
package export

import (
	"fmt"
	"image/png"
	"io"
	"os"
	"time"

	"golang.org/x/image/bmp"

	"github.com/litescript/ls-starfly/internal/raster"
)

// WriteBMP encodes the frame as a 24-bit BMP.
func WriteBMP(w io.Writer, f *raster.Frame) error {
	if f == nil || f.Width() == 0 || f.Height() == 0 {
		return fmt.Errorf("encode bmp: empty frame")
	}
	if err := bmp.Encode(w, f.RGBA()); err != nil {
		return fmt.Errorf("encode bmp: %w", err)
	}
	return nil
}

// WritePNG encodes the frame as PNG, the format clipboards accept.
func WritePNG(w io.Writer, f *raster.Frame) error {
	if f == nil || f.Width() == 0 || f.Height() == 0 {
		return fmt.Errorf("encode png: empty frame")
	}
	if err := png.Encode(w, f.RGBA()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SaveBMP writes the frame to path. A path of "-" writes to stdout.
func SaveBMP(path string, f *raster.Frame) error {
	if path == "-" {
		return WriteBMP(os.Stdout, f)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := WriteBMP(out, f); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close snapshot file: %w", err)
	}
	return nil
}

// SnapshotName returns a timestamped file name for an interactive snapshot.
func SnapshotName(t time.Time) string {
	return "starfly-" + t.Format("20060102-150405") + ".bmp"
}
