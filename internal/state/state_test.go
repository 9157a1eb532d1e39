package state

import (
	"sync"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	m := NewManager(DefaultConfig())

	if m == nil {
		t.Fatal("NewManager returned nil")
	}
	if m.HasData() {
		t.Error("HasData should be false initially")
	}
	if m.Paused() {
		t.Error("Paused should be false initially")
	}
}

func TestManager_Record(t *testing.T) {
	m := NewManager(DefaultConfig())

	rec := m.Record(FrameStats{
		Elapsed:       40 * time.Millisecond,
		Render:        3 * time.Millisecond,
		Regenerations: 7,
		Discs:         12,
		Points:        3988,
	})

	if rec.Frame != 1 {
		t.Errorf("Frame = %d, want 1", rec.Frame)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp should be filled in")
	}
	if !m.HasData() {
		t.Error("HasData should be true after Record")
	}

	m.Record(FrameStats{Elapsed: 40 * time.Millisecond, Regenerations: 3})
	snap := m.Snapshot()

	if snap.Frames != 2 {
		t.Errorf("Frames = %d, want 2", snap.Frames)
	}
	if snap.Regenerations != 10 {
		t.Errorf("Regenerations = %d, want 10", snap.Regenerations)
	}
	if snap.Last.Frame != 2 {
		t.Errorf("Last.Frame = %d, want 2", snap.Last.Frame)
	}
}

func TestManager_HistoryBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistoryLen = 3
	m := NewManager(cfg)

	for i := 0; i < 5; i++ {
		m.Record(FrameStats{Elapsed: 40 * time.Millisecond})
	}

	snap := m.Snapshot()
	if len(snap.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(snap.History))
	}
	// Oldest retained frame is the third one
	if snap.History[0].Frame != 3 || snap.History[2].Frame != 5 {
		t.Errorf("history frames = %d..%d, want 3..5", snap.History[0].Frame, snap.History[2].Frame)
	}
}

func TestManager_Rates(t *testing.T) {
	m := NewManager(DefaultConfig())

	if snap := m.Snapshot(); snap.FPS != 0 || snap.AvgRender != 0 {
		t.Errorf("empty rates = %v fps, %v render; want zero", snap.FPS, snap.AvgRender)
	}

	for i := 0; i < 4; i++ {
		m.Record(FrameStats{Elapsed: 40 * time.Millisecond, Render: time.Duration(i+1) * time.Millisecond})
	}
	snap := m.Snapshot()

	if snap.FPS < 24.99 || snap.FPS > 25.01 {
		t.Errorf("FPS = %v, want 25", snap.FPS)
	}
	if snap.AvgRender != 2500*time.Microsecond {
		t.Errorf("AvgRender = %v, want 2.5ms", snap.AvgRender)
	}
}

func TestManager_Snapshot_IsCopy(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Record(FrameStats{Discs: 1})
	m.AddEvent(EventStart, "")

	snap := m.Snapshot()
	snap.History[0].Discs = 999
	snap.Events[0].Detail = "changed"

	snap2 := m.Snapshot()
	if snap2.History[0].Discs == 999 {
		t.Error("Snapshot history modification affected manager state")
	}
	if snap2.Events[0].Detail == "changed" {
		t.Error("Snapshot event modification affected manager state")
	}
}

func TestManager_SkipAndExhausted(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordSkip()
	m.RecordSkip()
	m.Record(FrameStats{Exhausted: 2})
	m.Record(FrameStats{})

	snap := m.Snapshot()
	if snap.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", snap.Skipped)
	}
	if snap.Exhausted != 2 {
		t.Errorf("Exhausted = %d, want 2", snap.Exhausted)
	}

	var types []EventType
	for _, e := range snap.Events {
		types = append(types, e.Type)
	}
	want := []EventType{EventSkip, EventSkip, EventExhausted}
	if len(types) != len(want) {
		t.Fatalf("events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, types[i], want[i])
		}
	}
	if snap.Events[2].Frame != 1 {
		t.Errorf("exhausted event frame = %d, want 1", snap.Events[2].Frame)
	}
}

func TestManager_SetPaused(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.SetPaused(true)
	m.SetPaused(true) // no-op
	m.SetPaused(false)

	events := m.RecentEvents(10)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventPause || events[1].Type != EventResume {
		t.Errorf("events = %q, %q; want PAUSE, RESUME", events[0].Type, events[1].Type)
	}
	if m.Paused() {
		t.Error("Paused should be false after resume")
	}
}

func TestManager_SetError(t *testing.T) {
	m := NewManager(DefaultConfig())

	testErr := &testError{msg: "write failed"}
	m.SetError(testErr)

	snap := m.Snapshot()
	if snap.LastError != testErr {
		t.Errorf("LastError = %v, want %v", snap.LastError, testErr)
	}
	if len(snap.Events) != 1 || snap.Events[0].Detail != "write failed" {
		t.Errorf("error event = %+v", snap.Events)
	}

	m.SetError(nil)
	if m.Snapshot().LastError != nil {
		t.Error("SetError(nil) should clear the error")
	}
}

func TestManager_EventRingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 5
	m := NewManager(cfg)

	for i := 0; i < 10; i++ {
		m.Record(FrameStats{})
		m.AddEvent(EventSnapshot, string(rune('A'+i)))
	}

	events := m.RecentEvents(100)
	if len(events) != 5 {
		t.Fatalf("events count = %d, want 5 (max)", len(events))
	}

	// Oldest to newest: F..J
	for i, e := range events {
		want := string(rune('F' + i))
		if e.Detail != want {
			t.Errorf("event %d detail = %q, want %q", i, e.Detail, want)
		}
	}

	for i := 1; i < len(events); i++ {
		if events[i].Frame < events[i-1].Frame {
			t.Errorf("events not in chronological order at index %d", i)
		}
	}

	if got := m.RecentEvents(2); len(got) != 2 || got[1].Detail != "J" {
		t.Errorf("RecentEvents(2) = %+v", got)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup
	iterations := 100

	// Writer goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			m.Record(FrameStats{Elapsed: time.Duration(i) * time.Millisecond})
			if i%10 == 0 {
				m.RecordSkip()
				m.SetPaused(i%20 == 0)
			}
		}
	}()

	// Reader goroutines
	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				_ = m.Snapshot()
				_ = m.HasData()
				_ = m.Last()
				_ = m.RecentEvents(5)
			}
		}()
	}

	wg.Wait()

	if m.Snapshot().Frames != uint64(iterations) {
		t.Errorf("Frames = %d, want %d", m.Snapshot().Frames, iterations)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
