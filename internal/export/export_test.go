package export

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"

	"github.com/litescript/ls-starfly/internal/config"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/state"
)

func testFrame() *raster.Frame {
	f := raster.New(8, 4)
	f.Put(1, 1, raster.RGB(255, 255, 255), 10)
	f.Put(6, 2, raster.RGB(40, 80, 200), 20)
	return f
}

func TestWriteBMP_RoundTrip(t *testing.T) {
	f := testFrame()

	var buf bytes.Buffer
	if err := WriteBMP(&buf, f); err != nil {
		t.Fatalf("WriteBMP() error = %v", err)
	}

	img, err := bmp.Decode(&buf)
	if err != nil {
		t.Fatalf("bmp.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("bounds = %v, want 8x4", img.Bounds())
	}

	tests := []struct {
		x, y    int
		r, g, b uint8
	}{
		{1, 1, 255, 255, 255},
		{6, 2, 40, 80, 200},
		{0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, b, _ := img.At(tt.x, tt.y).RGBA()
		if uint8(r>>8) != tt.r || uint8(g>>8) != tt.g || uint8(b>>8) != tt.b {
			t.Errorf("pixel (%d,%d) = (%d, %d, %d), want (%d, %d, %d)",
				tt.x, tt.y, r>>8, g>>8, b>>8, tt.r, tt.g, tt.b)
		}
	}
}

func TestWriteBMP_EmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteBMP(&buf, raster.New(0, 0)); err == nil {
		t.Error("WriteBMP() on empty frame should fail")
	}
	if err := WriteBMP(&buf, nil); err == nil {
		t.Error("WriteBMP() on nil frame should fail")
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePNG(&buf, testFrame()); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if r, g, b, _ := img.At(6, 2).RGBA(); r>>8 != 40 || g>>8 != 80 || b>>8 != 200 {
		t.Errorf("pixel (6,2) = (%d, %d, %d), want (40, 80, 200)", r>>8, g>>8, b>>8)
	}
	if err := WritePNG(&buf, nil); err == nil {
		t.Error("WritePNG() on nil frame should fail")
	}
}

func TestSaveBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.bmp")
	if err := SaveBMP(path, testFrame()); err != nil {
		t.Fatalf("SaveBMP() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("BM")) {
		t.Error("file does not start with the BMP signature")
	}

	if err := SaveBMP(filepath.Join(t.TempDir(), "missing", "x.bmp"), testFrame()); err == nil {
		t.Error("SaveBMP() into a missing directory should fail")
	}
}

func TestSnapshotName(t *testing.T) {
	ts := time.Date(2024, 11, 27, 9, 5, 3, 0, time.UTC)
	if got := SnapshotName(ts); got != "starfly-20241127-090503.bmp" {
		t.Errorf("SnapshotName() = %q", got)
	}
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		lum  uint8
		want byte
	}{
		{0, ' '},
		{25, ' '},
		{26, '.'},
		{128, '+'},
		{255, '@'},
	}
	for _, tt := range tests {
		if got := Glyph(tt.lum); got != tt.want {
			t.Errorf("Glyph(%d) = %q, want %q", tt.lum, got, tt.want)
		}
	}
}

func TestLuminance(t *testing.T) {
	if got := Luminance(raster.RGB(255, 255, 255)); got != 255 {
		t.Errorf("Luminance(white) = %d, want 255", got)
	}
	if got := Luminance(raster.Black); got != 0 {
		t.Errorf("Luminance(black) = %d, want 0", got)
	}
	if Luminance(raster.RGB(0, 255, 0)) <= Luminance(raster.RGB(0, 0, 255)) {
		t.Error("green should be brighter than blue")
	}
}

func TestWriteASCII(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteASCII(&buf, testFrame(), 4, 2); err != nil {
		t.Fatalf("WriteASCII() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2:\n%s", len(lines), buf.String())
	}
	for i, l := range lines {
		if len(l) != 4 {
			t.Errorf("line %d width = %d, want 4", i, len(l))
		}
	}
	// White pixel (1,1) falls in cell (0,0); the blue one (6,2) in cell (3,1)
	if lines[0][0] != '@' {
		t.Errorf("cell (0,0) = %q, want '@'", lines[0][0])
	}
	if lines[1][3] == ' ' {
		t.Error("cell (3,1) lost the dim star")
	}
	if lines[0][2] != ' ' {
		t.Errorf("cell (2,0) = %q, want blank", lines[0][2])
	}
}

func TestWriteASCII_Upsample(t *testing.T) {
	var buf bytes.Buffer
	f := raster.New(2, 1)
	f.Put(0, 0, raster.RGB(255, 255, 255), 1)

	if err := WriteASCII(&buf, f, 4, 2); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "@@  \n@@  \n" {
		t.Errorf("WriteASCII() = %q", got)
	}
}

func testSnapshot() state.Snapshot {
	m := state.NewManager(state.DefaultConfig())
	for i := 0; i < 5; i++ {
		m.Record(state.FrameStats{
			Elapsed:       40 * time.Millisecond,
			Render:        2 * time.Millisecond,
			Regenerations: 3,
			Discs:         4,
			Points:        96,
			Lit:           140,
		})
	}
	return m.Snapshot()
}

func TestExportSummary(t *testing.T) {
	cfg := config.DefaultConfig()
	s := ExportSummary("v1.0.0", cfg, 320, 200, 42, testSnapshot())

	if s.Settings.Stars != 4000 || s.Settings.SizeType != "gamma" || s.Settings.ColorType != "blackbody" {
		t.Errorf("settings = %+v", s.Settings)
	}
	if s.Settings.FadeInTimeMs != 2000 || s.Settings.FrameIntervalMs != 40 {
		t.Errorf("durations = %d/%d ms", s.Settings.FadeInTimeMs, s.Settings.FrameIntervalMs)
	}
	if s.Run.Frames != 5 || s.Run.SimulatedMs != 200 || s.Run.Regenerations != 15 {
		t.Errorf("run = %+v", s.Run)
	}
	if s.Run.AvgRenderMs != 2 {
		t.Errorf("AvgRenderMs = %v, want 2", s.Run.AvgRenderMs)
	}
}

func TestSummaryExport_WriteJSON(t *testing.T) {
	s := ExportSummary("dev", config.DefaultConfig(), 64, 48, 7, testSnapshot())

	var buf bytes.Buffer
	if err := s.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	for _, key := range []string{"version", "width", "height", "seed", "settings", "run"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing %q", key)
		}
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, ExportSummary("dev", config.DefaultConfig(), 64, 48, 7, testSnapshot()))
	out := buf.String()

	for _, want := range []string{"StarFly dev  64x48  seed 7", "Stars", "4000", "Frames", "140 lit pixels"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Dropped") {
		t.Error("summary reports drops for a clean run")
	}

	buf.Reset()
	WriteSummary(&buf, ExportSummary("dev", config.DefaultConfig(), 64, 48, 7, state.Snapshot{}))
	if !strings.Contains(buf.String(), "No frames rendered") {
		t.Errorf("empty run summary = %q", buf.String())
	}
}
