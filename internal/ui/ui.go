// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-starfly/internal/driver"
	"github.com/litescript/ls-starfly/internal/export"
	"github.com/litescript/ls-starfly/internal/logging"
	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/state"
	"github.com/litescript/ls-starfly/internal/version"
)

// SettleTime is how long saver mode ignores input after start.
const SettleTime = 500 * time.Millisecond

// ChromeRows is the number of terminal rows used by the header and footer.
const ChromeRows = 2

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic status updates.
	TickMsg time.Time

	// FrameMsg carries a rendered frame from the frame loop.
	FrameMsg struct {
		View  string
		Stats state.FrameStats
	}

	// ErrorMsg signals a frame loop error.
	ErrorMsg struct {
		Error error
	}

	// snapshotMsg reports the outcome of a BMP snapshot.
	snapshotMsg struct {
		path string
		err  error
	}
)

// Controller is the part of the frame loop the UI drives.
type Controller interface {
	TogglePause() bool
	Capture(fn func(*raster.Frame) error) error
}

// Sender delivers messages to a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// NewSink returns a driver sink that renders each frame to text and sends it
// to the program as a FrameMsg.
func NewSink(p Sender) driver.Sink {
	return driver.SinkFunc(func(f *raster.Frame, fs state.FrameStats) error {
		p.Send(FrameMsg{View: RenderFrame(f), Stats: fs})
		return nil
	})
}

// Model is the root Bubble Tea model.
type Model struct {
	// Dependencies
	ctl   Controller
	stats *state.Manager
	log   *logging.Logger
	now   func() time.Time

	// UI state
	width       int
	height      int
	ready       bool
	paused      bool
	debug       bool
	saver       bool
	started     time.Time
	snapshotDir string
	statusMsg   string

	// Latest frame
	frame     string
	last      state.FrameStats
	snapshot  state.Snapshot
	lastError error
}

// Option configures a Model.
type Option func(*Model)

// WithSaver enables screen saver mode: any key quits once the settling time
// has passed.
func WithSaver(saver bool) Option {
	return func(m *Model) {
		m.saver = saver
	}
}

// WithSnapshotDir sets the directory BMP snapshots are written to.
func WithSnapshotDir(dir string) Option {
	return func(m *Model) {
		m.snapshotDir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(m *Model) {
		m.log = l
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// New creates a new root UI model.
func New(ctl Controller, stats *state.Manager, opts ...Option) Model {
	m := Model{
		ctl:   ctl,
		stats: stats,
		log:   logging.Discard(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.started = m.now()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		if m.stats != nil {
			m.snapshot = m.stats.Snapshot()
		}
		return m, tickCmd()

	case FrameMsg:
		m.frame = msg.View
		m.last = msg.Stats

	case snapshotMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Snapshot failed: %v", msg.err)
			m.log.Error("snapshot %s: %v", msg.path, msg.err)
		} else {
			m.statusMsg = "Saved " + msg.path
			m.log.Info("snapshot saved to %s", msg.path)
		}

	case ErrorMsg:
		m.lastError = msg.Error
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	if m.saver {
		if m.now().Sub(m.started) < SettleTime {
			return m, nil
		}
		return m, tea.Quit
	}

	switch key {
	case "q", "esc":
		return m, tea.Quit
	case " ", "space":
		if m.ctl != nil {
			m.paused = m.ctl.TogglePause()
		}
	case "d":
		m.debug = !m.debug
	case "b":
		if m.ctl != nil {
			m.statusMsg = "Saving snapshot..."
			return m, m.saveSnapshot()
		}
	}
	return m, nil
}

func (m Model) saveSnapshot() tea.Cmd {
	ctl := m.ctl
	path := filepath.Join(m.snapshotDir, export.SnapshotName(m.now()))
	return func() tea.Msg {
		err := ctl.Capture(func(f *raster.Frame) error {
			return export.SaveBMP(path, f)
		})
		return snapshotMsg{path: path, err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.frame == "" {
		return m.renderHeader() + "\n" + m.renderFooter()
	}
	return m.renderHeader() + "\n" + m.frame + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	var b strings.Builder
	title := []rune(" StarFly ")
	for col, r := range title {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(col, len(title))))
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render("v" + version.Version))

	if m.debug {
		accent := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
		b.WriteString("  ")
		b.WriteString(accent.Render(DebugLine(m.last)))
	}
	return b.String()
}

// DebugLine formats the per-frame debug counters.
func DebugLine(fs state.FrameStats) string {
	return fmt.Sprintf("ms:%d rnd:%d", fs.Elapsed.Milliseconds(), fs.Regenerations)
}

// gradientColor returns a hex color for a position in the title gradient.
// Blue -> purple -> pink.
func gradientColor(col, width int) string {
	t := 0.0
	if width > 1 {
		t = float64(col) / float64(width-1)
	}

	var r, g, b float64
	if t < 0.5 {
		u := t / 0.5
		r = 59 + u*(139-59)
		g = 130 + u*(92-130)
		b = 246
	} else {
		u := (t - 0.5) / 0.5
		r = 139 + u*(236-139)
		g = 92 + u*(72-92)
		b = 246 + u*(153-246)
	}
	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	return min(max(int(v), 0), 255)
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	var status string
	switch {
	case m.lastError != nil:
		status = errorStyle.Render("ERROR: " + m.lastError.Error())
	case m.paused:
		status = accentStyle.Render("❚❚ paused")
	case m.snapshot.Frames > 0:
		status = accentStyle.Render("▶") + dimStyle.Render(fmt.Sprintf(" %.1f fps  frame %d", m.snapshot.FPS, m.last.Frame))
	default:
		status = accentStyle.Render("▶") + dimStyle.Render(" starting")
	}

	var help string
	if m.saver {
		help = dimStyle.Render("any key: exit")
	} else {
		help = dimStyle.Render("space: pause | b: snapshot | d: debug | q: quit")
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help
	if m.statusMsg != "" {
		footer += "  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
