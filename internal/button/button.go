package button

import "time"

// Button is the debounce and gesture state of one physical button.
// The zero value is ready to be passed to Registry.Create.
type Button struct {
	pressed   bool
	longArmed bool
	step      Step

	tickCount     int
	debounceCount int
	repeatCount   int

	longPressTicks int

	readPin PinReader
	onEvent Handler
	arg     any

	registered bool
}

// SetLongPressTime overrides the hold threshold for this button.
// It may be called before or after Create and leaves the current step alone.
func (b *Button) SetLongPressTime(d time.Duration) error {
	if b == nil || d < MinLongPressTime {
		return ErrInvalidArgument
	}
	b.longPressTicks = int(d / TickInterval)
	b.longArmed = true
	return nil
}

// Pressed returns the debounced press state.
func (b *Button) Pressed() bool { return b.pressed }

// Step returns the current state machine phase.
func (b *Button) Step() Step { return b.step }

// TickCount returns ticks elapsed in the current phase.
func (b *Button) TickCount() int { return b.tickCount }

// RepeatCount returns presses seen in the current click sequence.
func (b *Button) RepeatCount() int { return b.repeatCount }

// LongPressTicks returns the active hold threshold in ticks.
func (b *Button) LongPressTicks() int {
	if b.longArmed {
		return b.longPressTicks
	}
	return LongPressTicks
}

// Registered reports whether the button has been added to a Registry.
func (b *Button) Registered() bool { return b.registered }

// reset clears runtime state. A long press override survives so it can be
// configured ahead of Create.
func (b *Button) reset() {
	b.pressed = false
	b.step = StepIdle
	b.tickCount = 0
	b.debounceCount = 0
	b.repeatCount = 0
}

func (b *Button) restart() {
	b.step = StepIdle
	b.tickCount = 0
	b.repeatCount = 0
}

func (b *Button) fire(ev Event) {
	b.onEvent.HandleEvent(ev, b.arg)
}

// debounce commits a raw reading only after it disagreed with the stable
// state for DebounceTicks consecutive ticks.
func (b *Button) debounce(raw bool) {
	if raw == b.pressed {
		b.debounceCount = 0
		return
	}
	b.debounceCount++
	if b.debounceCount >= DebounceTicks {
		b.pressed = raw
		b.debounceCount = 0
	}
}

// handle runs one tick of the state machine.
func (b *Button) handle() {
	if b.step != StepIdle {
		b.tickCount++
	}

	b.debounce(b.readPin.Pressed())

	switch b.step {
	case StepIdle:
		if b.pressed {
			b.step = StepPressDown
			b.tickCount = 0
			b.repeatCount = 1
		}

	case StepPressDown:
		if !b.pressed {
			if b.tickCount <= ShortPressTicks {
				return
			}
			if b.repeatCount == 2 {
				b.fire(DoubleClick)
				b.restart()
				return
			}
			b.step = StepPressUp
			b.tickCount = 0
			return
		}
		if b.tickCount > b.LongPressTicks() {
			b.step = StepHold
			b.tickCount = 0
		}

	case StepPressUp:
		if b.pressed {
			b.repeatCount = 2
			b.step = StepPressDown
			b.tickCount = 0
			return
		}
		if b.tickCount > DoubleClickTicks {
			b.fire(SingleClick)
			b.restart()
		}

	case StepHold:
		if b.pressed {
			// Repeat-fire: once per tick for as long as the button is held.
			b.tickCount = 0
			b.fire(LongHold)
			return
		}
		b.restart()
	}
}
