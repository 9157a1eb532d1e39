package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-starfly/internal/config"
	"github.com/litescript/ls-starfly/internal/state"
)

// SummaryExport is the JSON-serializable description of a run.
type SummaryExport struct {
	Version  string         `json:"version"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Seed     uint64         `json:"seed"`
	Settings SettingsExport `json:"settings"`
	Run      RunExport      `json:"run"`
	Events   []state.Event  `json:"events,omitempty"`
}

// SettingsExport is a JSON-friendly configuration representation.
type SettingsExport struct {
	Stars           int     `json:"stars"`
	Speed           float64 `json:"speed"`
	FrameIntervalMs int64   `json:"frame_interval_ms"`
	CenterX         float64 `json:"center_x"`
	CenterY         float64 `json:"center_y"`
	Zoom            float64 `json:"zoom"`
	StarSize        float64 `json:"star_size"`
	SizeType        string  `json:"size_type"`
	DarkestRGB      uint8   `json:"darkest_rgb"`
	ColorType       string  `json:"color_type"`
	FadePower       float64 `json:"fade_power"`
	FadeInTimeMs    int64   `json:"fade_in_time_ms"`
}

// RunExport summarizes run statistics.
type RunExport struct {
	Frames        uint64  `json:"frames"`
	SimulatedMs   int64   `json:"simulated_ms"`
	Regenerations int     `json:"regenerations"`
	Skipped       int     `json:"skipped"`
	Exhausted     int     `json:"exhausted"`
	FPS           float64 `json:"fps"`
	AvgRenderMs   float64 `json:"avg_render_ms"`
	LastLit       int     `json:"last_lit"`
	LastDiscs     int     `json:"last_discs"`
	LastPoints    int     `json:"last_points"`
}

// ExportSummary builds a summary from the run configuration and a statistics
// snapshot.
func ExportSummary(version string, cfg config.Config, width, height int, seed uint64, snap state.Snapshot) *SummaryExport {
	var simulated time.Duration
	for _, fs := range snap.History {
		simulated += fs.Elapsed
	}

	return &SummaryExport{
		Version: version,
		Width:   width,
		Height:  height,
		Seed:    seed,
		Settings: SettingsExport{
			Stars:           cfg.Stars,
			Speed:           cfg.Speed,
			FrameIntervalMs: cfg.FrameInterval.Milliseconds(),
			CenterX:         cfg.CenterX,
			CenterY:         cfg.CenterY,
			Zoom:            cfg.Zoom,
			StarSize:        cfg.StarSize,
			SizeType:        cfg.SizeType.String(),
			DarkestRGB:      cfg.DarkestRGB,
			ColorType:       cfg.ColorType.String(),
			FadePower:       cfg.FadePower,
			FadeInTimeMs:    cfg.FadeInTime.Milliseconds(),
		},
		Run: RunExport{
			Frames:        snap.Frames,
			SimulatedMs:   simulated.Milliseconds(),
			Regenerations: snap.Regenerations,
			Skipped:       snap.Skipped,
			Exhausted:     snap.Exhausted,
			FPS:           snap.FPS,
			AvgRenderMs:   float64(snap.AvgRender) / float64(time.Millisecond),
			LastLit:       snap.Last.Lit,
			LastDiscs:     snap.Last.Discs,
			LastPoints:    snap.Last.Points,
		},
		Events: snap.Events,
	}
}

// WriteJSON writes the summary as JSON to the given writer.
func (s *SummaryExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteSummary writes a text summary to the given writer.
func WriteSummary(w io.Writer, s *SummaryExport) {
	fmt.Fprintf(w, "StarFly %s  %dx%d  seed %d\n", s.Version, s.Width, s.Height, s.Seed)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	st := s.Settings
	fmt.Fprintf(w, "%-14s %d\n", "Stars", st.Stars)
	fmt.Fprintf(w, "%-14s %g units/ms\n", "Speed", st.Speed)
	fmt.Fprintf(w, "%-14s %d ms\n", "Interval", st.FrameIntervalMs)
	fmt.Fprintf(w, "%-14s %.2f, %.2f\n", "Center", st.CenterX, st.CenterY)
	fmt.Fprintf(w, "%-14s %g\n", "Zoom", st.Zoom)
	fmt.Fprintf(w, "%-14s %g (%s)\n", "Star size", st.StarSize, st.SizeType)
	fmt.Fprintf(w, "%-14s %s, darkest %d\n", "Colors", st.ColorType, st.DarkestRGB)
	fmt.Fprintf(w, "%-14s power %g, fade-in %d ms\n", "Fade", st.FadePower, st.FadeInTimeMs)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	r := s.Run
	if r.Frames == 0 {
		fmt.Fprintln(w, "No frames rendered")
		return
	}
	fmt.Fprintf(w, "%-14s %d (%d ms simulated)\n", "Frames", r.Frames, r.SimulatedMs)
	fmt.Fprintf(w, "%-14s %d\n", "Regenerated", r.Regenerations)
	if r.Skipped > 0 || r.Exhausted > 0 {
		fmt.Fprintf(w, "%-14s %d skipped ticks, %d exhausted stars\n", "Dropped", r.Skipped, r.Exhausted)
	}
	fmt.Fprintf(w, "%-14s %.1f fps, %.2f ms render\n", "Rate", r.FPS, r.AvgRenderMs)
	fmt.Fprintf(w, "%-14s %d lit pixels, %d discs, %d points\n", "Last frame", r.LastLit, r.LastDiscs, r.LastPoints)
}
