// Package button debounces polled button inputs and classifies presses into
// gestures: single click, double click and long hold.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Pins and event sinks are injected; time only advances through Tick.
package button

import (
	"errors"
	"time"
)

// Timing configuration. Thresholds are converted to ticks once, so Tick must
// be driven at TickInterval.
const (
	TickInterval     = 10 * time.Millisecond
	DebounceTime     = 20 * time.Millisecond
	ShortPressTime   = 200 * time.Millisecond
	DoubleClickTime  = 500 * time.Millisecond
	LongPressTime    = 3000 * time.Millisecond
	MinLongPressTime = 1000 * time.Millisecond
)

// Thresholds in tick units.
const (
	DebounceTicks    = int(DebounceTime / TickInterval)
	ShortPressTicks  = int(ShortPressTime / TickInterval)
	DoubleClickTicks = int(DoubleClickTime / TickInterval)
	LongPressTicks   = int(LongPressTime / TickInterval)
)

var (
	// ErrInvalidArgument is returned for a nil button or capability, or a
	// long press time below MinLongPressTime.
	ErrInvalidArgument = errors.New("button: invalid argument")

	// ErrAlreadyRegistered is returned when Create is called twice with the
	// same button.
	ErrAlreadyRegistered = errors.New("button: already registered")
)

// Event is a classified gesture.
type Event uint8

const (
	SingleClick Event = 0x01
	DoubleClick Event = 0x02
	LongHold    Event = 0x04
)

func (e Event) String() string {
	switch e {
	case SingleClick:
		return "SINGLE_CLICK"
	case DoubleClick:
		return "DOUBLE_CLICK"
	case LongHold:
		return "LONG_HOLD"
	}
	return "UNKNOWN"
}

// Step is the phase of the gesture state machine.
type Step uint8

const (
	StepIdle Step = iota
	StepPressDown
	StepPressUp
	StepHold
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "IDLE"
	case StepPressDown:
		return "PRESS_DOWN"
	case StepPressUp:
		return "PRESS_UP"
	case StepHold:
		return "HOLD"
	}
	return "UNKNOWN"
}

// PinReader reports whether the physical button is pressed.
// Polarity (active-low wiring) is normalised by the implementation.
type PinReader interface {
	Pressed() bool
}

// PinFunc adapts a plain function to PinReader.
type PinFunc func() bool

// Pressed calls f.
func (f PinFunc) Pressed() bool { return f() }

// Handler receives gestures. It is called synchronously from Tick and must
// not block or call Tick.
type Handler interface {
	HandleEvent(ev Event, arg any)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ev Event, arg any)

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ev Event, arg any) { f(ev, arg) }
