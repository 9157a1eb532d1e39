// Package state provides thread-safe run statistics shared between the frame
// driver and the presenters.
package state

import (
	"sync"
	"time"
)

// EventType represents the type of run event.
type EventType string

const (
	EventStart     EventType = "START"
	EventPause     EventType = "PAUSE"
	EventResume    EventType = "RESUME"
	EventSkip      EventType = "SKIP"      // Tick requested while a frame was still rendering
	EventExhausted EventType = "EXHAUSTED" // Stars skipped after too many placement attempts
	EventSnapshot  EventType = "SNAPSHOT"
	EventError     EventType = "ERROR"
	EventStop      EventType = "STOP"
)

// Event represents a notable moment in a run.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Frame     uint64    `json:"frame"`
	Detail    string    `json:"detail,omitempty"`
}

// FrameStats describes one presented frame.
type FrameStats struct {
	Frame         uint64        `json:"frame"`
	Timestamp     time.Time     `json:"timestamp"`
	Elapsed       time.Duration `json:"elapsed"` // Simulated time since the previous frame
	Render        time.Duration `json:"render"`  // Wall time spent in the simulator
	Regenerations int           `json:"regenerations"`
	Discs         int           `json:"discs"`
	Points        int           `json:"points"`
	Exhausted     int           `json:"exhausted,omitempty"`
	Lit           int           `json:"lit"`
}

// Manager holds run statistics with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Current state
	last      FrameStats
	hasFrame  bool
	started   time.Time
	paused    bool
	lastError error

	// Totals
	frames        uint64
	regenerations int
	skipped       int
	exhausted     int

	// History buffer
	history       []FrameStats
	maxHistoryLen int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen int
	MaxEvents     int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen: 125, // ~5s at 25 fps
		MaxEvents:     50,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	maxHistory := cfg.MaxHistoryLen
	if maxHistory <= 0 {
		maxHistory = 1
	}
	return &Manager{
		started:       time.Now(),
		maxHistoryLen: maxHistory,
		history:       make([]FrameStats, 0, maxHistory),
		maxEvents:     maxEvents,
		events:        make([]Event, 0, maxEvents),
	}
}

// Record stores the statistics of a finished frame and assigns its frame
// number. It returns the stored record.
func (m *Manager) Record(fs FrameStats) FrameStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.frames++
	fs.Frame = m.frames
	if fs.Timestamp.IsZero() {
		fs.Timestamp = time.Now()
	}

	m.last = fs
	m.hasFrame = true
	m.regenerations += fs.Regenerations
	m.exhausted += fs.Exhausted

	m.history = append(m.history, fs)
	if len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}

	if fs.Exhausted > 0 {
		m.addEvent(Event{
			Type:      EventExhausted,
			Timestamp: fs.Timestamp,
			Frame:     fs.Frame,
		})
	}
	return fs
}

// RecordSkip counts a tick that was dropped because a frame was in progress.
func (m *Manager) RecordSkip() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.skipped++
	m.addEvent(Event{Type: EventSkip, Timestamp: time.Now(), Frame: m.frames})
}

// SetPaused records a pause state change. Setting the current state again is
// a no-op.
func (m *Manager) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused == paused {
		return
	}
	m.paused = paused
	typ := EventResume
	if paused {
		typ = EventPause
	}
	m.addEvent(Event{Type: typ, Timestamp: time.Now(), Frame: m.frames})
}

// SetError records a presenter or exporter failure. A nil error clears it.
func (m *Manager) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastError = err
	if err != nil {
		m.addEvent(Event{Type: EventError, Timestamp: time.Now(), Frame: m.frames, Detail: err.Error()})
	}
}

// AddEvent appends a custom event stamped with the current frame.
func (m *Manager) AddEvent(typ EventType, detail string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addEvent(Event{Type: typ, Timestamp: time.Now(), Frame: m.frames, Detail: detail})
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of run statistics. FPS and
// AvgRender cover the history window.
type Snapshot struct {
	Last          FrameStats    `json:"last"`
	Frames        uint64        `json:"frames"`
	Regenerations int           `json:"regenerations"`
	Skipped       int           `json:"skipped"`
	Exhausted     int           `json:"exhausted"`
	Started       time.Time     `json:"started"`
	Uptime        time.Duration `json:"uptime"`
	Paused        bool          `json:"paused"`
	LastError     error         `json:"-"`
	FPS           float64       `json:"fps"`
	AvgRender     time.Duration `json:"avg_render"`
	History       []FrameStats  `json:"-"`
	Events        []Event       `json:"events,omitempty"`
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist := make([]FrameStats, len(m.history))
	copy(hist, m.history)

	fps, avgRender := rates(hist)

	return Snapshot{
		Last:          m.last,
		Frames:        m.frames,
		Regenerations: m.regenerations,
		Skipped:       m.skipped,
		Exhausted:     m.exhausted,
		Started:       m.started,
		Uptime:        time.Since(m.started),
		Paused:        m.paused,
		LastError:     m.lastError,
		FPS:           fps,
		AvgRender:     avgRender,
		History:       hist,
		Events:        m.getEventsOrdered(),
	}
}

// rates derives frame rate from simulated elapsed time and the mean render
// cost over hist.
func rates(hist []FrameStats) (fps float64, avgRender time.Duration) {
	if len(hist) == 0 {
		return 0, 0
	}
	var elapsed, render time.Duration
	for _, fs := range hist {
		elapsed += fs.Elapsed
		render += fs.Render
	}
	if elapsed > 0 {
		fps = float64(len(hist)) / elapsed.Seconds()
	}
	return fps, render / time.Duration(len(hist))
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// Last returns the most recent frame statistics.
func (m *Manager) Last() FrameStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Paused reports whether the run is paused.
func (m *Manager) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// HasData returns true once at least one frame has been recorded.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hasFrame
}
