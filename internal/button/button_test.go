package button

import (
	"errors"
	"testing"
	"time"
)

// recorder collects fired events.
type recorder struct {
	events []Event
	args   []any
}

func (r *recorder) HandleEvent(ev Event, arg any) {
	r.events = append(r.events, ev)
	r.args = append(r.args, arg)
}

func (r *recorder) count(ev Event) int {
	n := 0
	for _, e := range r.events {
		if e == ev {
			n++
		}
	}
	return n
}

// harness drives a single registered button from a scripted pin level.
type harness struct {
	t   *testing.T
	reg *Registry
	btn *Button
	rec *recorder
	pin bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, reg: NewRegistry(), btn: &Button{}, rec: &recorder{}}
	if err := h.reg.Create(h.btn, PinFunc(func() bool { return h.pin }), h.rec, "arg"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return h
}

func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		h.reg.Tick(TickInterval)
	}
}

func (h *harness) press(n int) {
	h.pin = true
	h.tick(n)
}

func (h *harness) release(n int) {
	h.pin = false
	h.tick(n)
}

func (h *harness) expectStep(want Step) {
	h.t.Helper()
	if got := h.btn.Step(); got != want {
		h.t.Fatalf("step: got %s, want %s", got, want)
	}
}

func TestTickConstants(t *testing.T) {
	if DebounceTicks != 2 {
		t.Errorf("DebounceTicks: got %d, want 2", DebounceTicks)
	}
	if ShortPressTicks != 20 {
		t.Errorf("ShortPressTicks: got %d, want 20", ShortPressTicks)
	}
	if DoubleClickTicks != 50 {
		t.Errorf("DoubleClickTicks: got %d, want 50", DoubleClickTicks)
	}
	if LongPressTicks != 300 {
		t.Errorf("LongPressTicks: got %d, want 300", LongPressTicks)
	}
}

func TestDebounceRejectsShortGlitch(t *testing.T) {
	h := newHarness(t)

	// Glitches one tick shorter than the debounce window, repeated.
	for i := 0; i < 10; i++ {
		h.press(DebounceTicks - 1)
		if h.btn.Pressed() {
			t.Fatalf("iteration %d: glitch changed pressed state", i)
		}
		h.release(1)
	}

	h.expectStep(StepIdle)
	h.release(200)
	if len(h.rec.events) != 0 {
		t.Errorf("expected no events from glitches, got %v", h.rec.events)
	}
}

func TestDebounceCommitsAfterWindow(t *testing.T) {
	h := newHarness(t)

	h.press(DebounceTicks)
	if !h.btn.Pressed() {
		t.Fatal("expected pressed after debounce window")
	}
	h.expectStep(StepPressDown)
	if h.btn.TickCount() != 0 {
		t.Errorf("TickCount on entering PressDown: got %d, want 0", h.btn.TickCount())
	}
	if h.btn.RepeatCount() != 1 {
		t.Errorf("RepeatCount: got %d, want 1", h.btn.RepeatCount())
	}
}

func TestDebounceGlitchDuringHoldIgnored(t *testing.T) {
	h := newHarness(t)
	h.press(30)

	// One-tick dropout while held does not count as a release.
	h.release(1)
	h.press(1)
	if !h.btn.Pressed() {
		t.Error("one-tick dropout released the button")
	}
	h.expectStep(StepPressDown)
}

func TestSingleClick(t *testing.T) {
	h := newHarness(t)

	h.press(30)
	h.expectStep(StepPressDown)

	// Release is debounced, then the double click window must expire.
	h.release(52)
	h.expectStep(StepPressUp)
	if len(h.rec.events) != 0 {
		t.Fatalf("expected no events before window expires, got %v", h.rec.events)
	}

	h.release(1)
	if len(h.rec.events) != 1 || h.rec.events[0] != SingleClick {
		t.Fatalf("expected one SINGLE_CLICK, got %v", h.rec.events)
	}
	if h.rec.args[0] != "arg" {
		t.Errorf("arg: got %v, want arg", h.rec.args[0])
	}

	h.release(500)
	if len(h.rec.events) != 1 {
		t.Errorf("expected exactly one event, got %v", h.rec.events)
	}
}

func TestTapShorterThanShortPressStillClicks(t *testing.T) {
	h := newHarness(t)

	h.press(5)
	h.release(10)
	h.expectStep(StepPressDown)

	h.release(200)
	if len(h.rec.events) != 1 || h.rec.events[0] != SingleClick {
		t.Fatalf("expected one SINGLE_CLICK, got %v", h.rec.events)
	}
}

func TestDoubleClick(t *testing.T) {
	h := newHarness(t)

	h.press(30)
	h.release(10)
	h.expectStep(StepPressUp)

	h.press(30)
	h.expectStep(StepPressDown)
	if h.btn.RepeatCount() != 2 {
		t.Fatalf("RepeatCount: got %d, want 2", h.btn.RepeatCount())
	}

	h.release(2)
	if len(h.rec.events) != 1 || h.rec.events[0] != DoubleClick {
		t.Fatalf("expected one DOUBLE_CLICK, got %v", h.rec.events)
	}
	h.expectStep(StepIdle)

	h.release(500)
	if h.rec.count(SingleClick) != 0 {
		t.Errorf("expected no SINGLE_CLICK, got %d", h.rec.count(SingleClick))
	}
	if len(h.rec.events) != 1 {
		t.Errorf("expected exactly one event, got %v", h.rec.events)
	}
}

func TestSecondPressAfterWindowIsTwoSingleClicks(t *testing.T) {
	h := newHarness(t)

	h.press(30)
	h.release(100)
	h.press(30)
	h.release(100)

	if h.rec.count(SingleClick) != 2 {
		t.Errorf("expected 2 SINGLE_CLICK, got %v", h.rec.events)
	}
	if h.rec.count(DoubleClick) != 0 {
		t.Errorf("expected no DOUBLE_CLICK, got %v", h.rec.events)
	}
}

func TestLongHoldRepeatFire(t *testing.T) {
	h := newHarness(t)

	// Debounce (2 ticks) plus LongPressTicks+1 ticks in PressDown reaches Hold.
	h.press(DebounceTicks + LongPressTicks + 1)
	h.expectStep(StepHold)
	if len(h.rec.events) != 0 {
		t.Fatalf("expected no events on entering hold, got %v", h.rec.events)
	}

	const extra = 25
	h.press(extra)
	if got := h.rec.count(LongHold); got != extra {
		t.Errorf("LONG_HOLD fires: got %d, want %d", got, extra)
	}
	if h.btn.TickCount() != 0 {
		t.Errorf("TickCount after fire: got %d, want 0", h.btn.TickCount())
	}

	h.release(DebounceTicks)
	h.expectStep(StepIdle)
	if h.btn.TickCount() != 0 {
		t.Errorf("TickCount after release: got %d, want 0", h.btn.TickCount())
	}
	if h.rec.count(SingleClick) != 0 || h.rec.count(DoubleClick) != 0 {
		t.Errorf("hold produced click events: %v", h.rec.events)
	}
}

func TestLongPressOverrideThreshold(t *testing.T) {
	h := newHarness(t)
	if err := h.btn.SetLongPressTime(1500 * time.Millisecond); err != nil {
		t.Fatalf("SetLongPressTime: %v", err)
	}
	if h.btn.LongPressTicks() != 150 {
		t.Fatalf("LongPressTicks: got %d, want 150", h.btn.LongPressTicks())
	}

	h.press(DebounceTicks + 150)
	if h.btn.TickCount() != 150 {
		t.Fatalf("TickCount: got %d, want 150", h.btn.TickCount())
	}
	h.expectStep(StepPressDown)

	h.press(1)
	h.expectStep(StepHold)
}

func TestLongPressOverrideBeforeCreate(t *testing.T) {
	b := &Button{}
	if err := b.SetLongPressTime(2 * time.Second); err != nil {
		t.Fatalf("SetLongPressTime: %v", err)
	}
	reg := NewRegistry()
	if err := reg.Create(b, PinFunc(func() bool { return false }), &recorder{}, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.LongPressTicks() != 200 {
		t.Errorf("LongPressTicks after Create: got %d, want 200", b.LongPressTicks())
	}
}

func TestSetLongPressTimeKeepsStep(t *testing.T) {
	h := newHarness(t)
	h.press(40)
	h.expectStep(StepPressDown)
	tc := h.btn.TickCount()

	if err := h.btn.SetLongPressTime(MinLongPressTime); err != nil {
		t.Fatalf("SetLongPressTime: %v", err)
	}
	h.expectStep(StepPressDown)
	if h.btn.TickCount() != tc {
		t.Errorf("TickCount changed: got %d, want %d", h.btn.TickCount(), tc)
	}
}

func TestDefaultLongPressTicks(t *testing.T) {
	b := &Button{}
	if b.LongPressTicks() != LongPressTicks {
		t.Errorf("LongPressTicks: got %d, want %d", b.LongPressTicks(), LongPressTicks)
	}
}

func TestSetLongPressTimeRejectsShort(t *testing.T) {
	b := &Button{}
	tests := []struct {
		name string
		ms   int
	}{
		{"500ms", 500},
		{"999ms", 999},
		{"zero", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.SetLongPressTime(time.Duration(tt.ms) * time.Millisecond)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("got %v, want ErrInvalidArgument", err)
			}
		})
	}
	if b.LongPressTicks() != LongPressTicks {
		t.Error("rejected value armed the override")
	}

	var nilButton *Button
	if err := nilButton.SetLongPressTime(MinLongPressTime); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("nil button: got %v, want ErrInvalidArgument", err)
	}
}

func TestIdleRestartMatchesFreshButton(t *testing.T) {
	gestures := []struct {
		name string
		run  func(h *harness)
	}{
		{"single", func(h *harness) { h.press(30); h.release(100) }},
		{"double", func(h *harness) { h.press(30); h.release(10); h.press(30); h.release(2) }},
		{"hold", func(h *harness) { h.press(400); h.release(2) }},
	}

	for _, g := range gestures {
		t.Run(g.name, func(t *testing.T) {
			h := newHarness(t)
			g.run(h)

			h.expectStep(StepIdle)
			if h.btn.TickCount() != 0 {
				t.Errorf("TickCount: got %d, want 0", h.btn.TickCount())
			}
			if h.btn.RepeatCount() != 0 {
				t.Errorf("RepeatCount: got %d, want 0", h.btn.RepeatCount())
			}
			if h.btn.Pressed() {
				t.Error("expected released")
			}

			// A fresh single click behaves as on a new button.
			before := len(h.rec.events)
			h.press(30)
			h.release(100)
			if len(h.rec.events) != before+1 || h.rec.events[before] != SingleClick {
				t.Errorf("expected one SINGLE_CLICK after restart, got %v", h.rec.events[before:])
			}
		})
	}
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{SingleClick, "SINGLE_CLICK"},
		{DoubleClick, "DOUBLE_CLICK"},
		{LongHold, "LONG_HOLD"},
		{Event(0), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.ev.String(); got != tt.want {
			t.Errorf("Event(%d).String() = %s, want %s", tt.ev, got, tt.want)
		}
	}
}

func TestStepString(t *testing.T) {
	if StepPressUp.String() != "PRESS_UP" {
		t.Errorf("got %s", StepPressUp.String())
	}
	if Step(9).String() != "UNKNOWN" {
		t.Errorf("got %s", Step(9).String())
	}
}
