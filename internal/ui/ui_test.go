package ui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/litescript/ls-starfly/internal/raster"
	"github.com/litescript/ls-starfly/internal/state"
)

type fakeController struct {
	paused   bool
	frame    *raster.Frame
	err      error
	captures int
}

func (c *fakeController) TogglePause() bool {
	c.paused = !c.paused
	return c.paused
}

func (c *fakeController) Capture(fn func(*raster.Frame) error) error {
	c.captures++
	if c.err != nil {
		return c.err
	}
	return fn(c.frame)
}

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.msgs = append(s.msgs, msg)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return nm, cmd
}

func TestModel_Quit(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
	}{
		{"q", keyRunes("q")},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"esc", tea.KeyMsg{Type: tea.KeyEsc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cmd := update(t, New(&fakeController{}, nil), tt.key)
			if !isQuit(cmd) {
				t.Errorf("%s did not quit", tt.name)
			}
		})
	}
}

func TestModel_Pause(t *testing.T) {
	ctl := &fakeController{}
	m := New(ctl, nil)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !ctl.paused || !m.paused {
		t.Fatal("space did not pause")
	}
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	if !strings.Contains(m.View(), "paused") {
		t.Error("footer does not show the pause state")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if ctl.paused || m.paused {
		t.Error("second space did not resume")
	}
}

func TestModel_DebugLine(t *testing.T) {
	m := New(&fakeController{}, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	m, _ = update(t, m, FrameMsg{View: "*", Stats: state.FrameStats{Elapsed: 40 * time.Millisecond, Regenerations: 7}})

	if strings.Contains(m.View(), "rnd:") {
		t.Error("debug line shown before toggling")
	}
	m, _ = update(t, m, keyRunes("d"))
	if !strings.Contains(m.View(), "ms:40 rnd:7") {
		t.Errorf("View() missing debug line:\n%s", m.View())
	}
}

func TestDebugLine(t *testing.T) {
	got := DebugLine(state.FrameStats{Elapsed: 1500 * time.Microsecond, Regenerations: 12})
	if got != "ms:1 rnd:12" {
		t.Errorf("DebugLine() = %q", got)
	}
}

func TestModel_Snapshot(t *testing.T) {
	dir := t.TempDir()
	t0 := time.Date(2024, 11, 27, 9, 5, 3, 0, time.UTC)
	f := raster.New(4, 4)
	f.Put(1, 1, raster.RGB(255, 255, 255), 1)
	ctl := &fakeController{frame: f}

	m := New(ctl, nil, WithSnapshotDir(dir), WithClock(func() time.Time { return t0 }))
	m, cmd := update(t, m, keyRunes("b"))
	if cmd == nil {
		t.Fatal("b returned no command")
	}

	m, _ = update(t, m, cmd())
	want := filepath.Join(dir, "starfly-20241127-090503.bmp")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.Contains(m.statusMsg, want) {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}

	ctl.err = errors.New("frame busy")
	m, cmd = update(t, m, keyRunes("b"))
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.statusMsg, "frame busy") {
		t.Errorf("statusMsg = %q, want failure", m.statusMsg)
	}
}

func TestModel_SaverSettling(t *testing.T) {
	t0 := time.Now()
	now := t0
	clock := func() time.Time { return now }
	ctl := &fakeController{}
	m := New(ctl, nil, WithSaver(true), WithClock(clock))

	now = t0.Add(100 * time.Millisecond)
	if _, cmd := update(t, m, keyRunes("x")); cmd != nil {
		t.Error("key during settling time should be ignored")
	}

	now = t0.Add(SettleTime)
	if _, cmd := update(t, m, keyRunes("x")); !isQuit(cmd) {
		t.Error("key after settling time should quit")
	}
	if _, cmd := update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}); !isQuit(cmd) {
		t.Error("space in saver mode should quit")
	}
	if ctl.paused {
		t.Error("saver mode toggled pause")
	}
}

func TestModel_FrameAndError(t *testing.T) {
	m := New(&fakeController{}, nil)
	if m.View() != "Initializing..." {
		t.Errorf("View() before size = %q", m.View())
	}

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	m, _ = update(t, m, FrameMsg{View: "STARS", Stats: state.FrameStats{Frame: 3}})
	if !strings.Contains(m.View(), "STARS") {
		t.Error("frame not rendered")
	}

	m, _ = update(t, m, ErrorMsg{Error: errors.New("terminal gone")})
	if !strings.Contains(m.View(), "ERROR: terminal gone") {
		t.Error("error not shown in footer")
	}
}

func TestModel_LoopErrorThroughSender(t *testing.T) {
	s := &recordingSender{}
	s.Send(FrameMsg{View: "STARS"})
	s.Send(ErrorMsg{Error: errors.New("frame loop stopped")})
	s.Send(FrameMsg{View: "LATER"})

	m, _ := update(t, New(&fakeController{}, nil), tea.WindowSizeMsg{Width: 40, Height: 10})
	for _, msg := range s.msgs {
		m, _ = update(t, m, msg)
	}
	view := m.View()
	if !strings.Contains(view, "LATER") {
		t.Error("latest frame not rendered")
	}
	if !strings.Contains(view, "ERROR: frame loop stopped") {
		t.Error("loop error not kept in footer")
	}
}

func TestModel_TickRefreshesStats(t *testing.T) {
	stats := state.NewManager(state.DefaultConfig())
	stats.Record(state.FrameStats{Elapsed: 40 * time.Millisecond})
	stats.Record(state.FrameStats{Elapsed: 40 * time.Millisecond})

	m := New(&fakeController{}, stats)
	m, cmd := update(t, m, TickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick was not rescheduled")
	}
	if m.snapshot.Frames != 2 {
		t.Errorf("snapshot frames = %d, want 2", m.snapshot.Frames)
	}
}

func TestNewSink(t *testing.T) {
	s := &recordingSender{}
	sink := NewSink(s)

	f := raster.New(2, 2)
	f.Put(0, 0, raster.RGB(255, 0, 0), 1)
	if err := sink.Present(f, state.FrameStats{Frame: 9}); err != nil {
		t.Fatalf("Present() error = %v", err)
	}

	if len(s.msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(s.msgs))
	}
	msg, ok := s.msgs[0].(FrameMsg)
	if !ok {
		t.Fatalf("sent %T, want FrameMsg", s.msgs[0])
	}
	if msg.Stats.Frame != 9 || !strings.Contains(msg.View, halfBlock) {
		t.Errorf("FrameMsg = %+v", msg)
	}
}

func TestGradientColor(t *testing.T) {
	if got := gradientColor(0, 9); got != "#3B82F6" {
		t.Errorf("gradientColor(0) = %q, want #3B82F6", got)
	}
	if got := gradientColor(8, 9); got != "#EC4899" {
		t.Errorf("gradientColor(end) = %q, want #EC4899", got)
	}
}
