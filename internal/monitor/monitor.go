package monitor

import (
	"fmt"
	"time"

	"github.com/sweeney/button-sensor/internal/button"
)

// Monitor owns a button Registry and the metadata of every button in it.
// It is not safe for concurrent use; drive it from the polling goroutine.
type Monitor struct {
	registry  *button.Registry
	entries   []*entry
	byName    map[string]*entry
	holdEvery int

	now     time.Time
	pending []Event

	counts        Counts
	startTime     time.Time
	lastHeartbeat time.Time
}

type entry struct {
	spec      Spec
	btn       button.Button
	counts    Counts
	holdFires int
	last      button.Event
	lastAt    time.Time
}

// New creates a Monitor. LONG_HOLD fires are emitted on the first fire of a
// hold and then every holdEvery-th fire; holdEvery <= 1 emits every fire.
func New(startTime time.Time, holdEvery int) *Monitor {
	return &Monitor{
		registry:      button.NewRegistry(),
		byName:        make(map[string]*entry),
		holdEvery:     holdEvery,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Add registers a button read through pin.
func (m *Monitor) Add(spec Spec, pin button.PinReader) error {
	if _, ok := m.byName[spec.Name]; ok {
		return fmt.Errorf("button %q: %w", spec.Name, button.ErrAlreadyRegistered)
	}

	e := &entry{spec: spec}
	if spec.LongPress != 0 {
		if err := e.btn.SetLongPressTime(spec.LongPress); err != nil {
			return fmt.Errorf("button %q: long press %v: %w", spec.Name, spec.LongPress, err)
		}
	}
	if err := m.registry.Create(&e.btn, pin, m, e); err != nil {
		return fmt.Errorf("button %q: %w", spec.Name, err)
	}

	m.entries = append(m.entries, e)
	m.byName[spec.Name] = e
	return nil
}

// Len returns the number of monitored buttons.
func (m *Monitor) Len() int {
	return len(m.entries)
}

// HandleEvent receives gestures from the registry during Tick.
func (m *Monitor) HandleEvent(ev button.Event, arg any) {
	e, ok := arg.(*entry)
	if !ok {
		return
	}

	e.counts.add(ev)
	m.counts.add(ev)
	e.last = ev
	e.lastAt = m.now

	repeat := 0
	if ev == button.LongHold {
		e.holdFires++
		repeat = e.holdFires
		if !m.emitHold(repeat) {
			return
		}
	}

	m.pending = append(m.pending, Event{
		Timestamp: m.now,
		Button:    e.spec.Name,
		Pin:       e.spec.Pin,
		Type:      ev,
		Repeat:    repeat,
	})
}

func (m *Monitor) emitHold(fire int) bool {
	if m.holdEvery <= 1 || fire == 1 {
		return true
	}
	return (fire-1)%m.holdEvery == 0
}

// Tick advances every button by one tick and returns the gestures fired.
// It must be called every button.TickInterval.
func (m *Monitor) Tick(now time.Time) []Event {
	m.now = now
	m.pending = nil

	m.registry.Tick(button.TickInterval)

	for _, e := range m.entries {
		if e.btn.Step() != button.StepHold {
			e.holdFires = 0
		}
	}

	events := m.pending
	m.pending = nil
	return events
}

// Counts returns gesture totals across all buttons.
func (m *Monitor) Counts() Counts {
	return m.counts
}

// Buttons returns the state of every button in registration order.
func (m *Monitor) Buttons() []ButtonState {
	out := make([]ButtonState, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, ButtonState{
			Name:        e.spec.Name,
			Pin:         e.spec.Pin,
			Pressed:     e.btn.Pressed(),
			Step:        e.btn.Step(),
			Counts:      e.counts,
			LastEvent:   e.last,
			LastEventAt: e.lastAt,
		})
	}
	return out
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.counts,
	}
}
