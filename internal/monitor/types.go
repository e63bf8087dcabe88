// Package monitor runs a set of named buttons on one polling loop and turns
// their gestures into timestamped events.
// Time is always injectable via time.Time parameters.
package monitor

import (
	"time"

	"github.com/sweeney/button-sensor/internal/button"
)

// Spec describes one button to monitor.
type Spec struct {
	Name string
	Pin  int
	// LongPress overrides the default hold threshold when non-zero.
	LongPress time.Duration
}

// Event is a gesture to be published.
type Event struct {
	Timestamp time.Time
	Button    string
	Pin       int
	Type      button.Event
	// Repeat is the fire index within a hold (1 for the first LONG_HOLD),
	// zero for clicks.
	Repeat int
}

// Counts tracks the number of each gesture since startup.
type Counts struct {
	SingleClick int
	DoubleClick int
	LongHold    int
}

func (c *Counts) add(ev button.Event) {
	switch ev {
	case button.SingleClick:
		c.SingleClick++
	case button.DoubleClick:
		c.DoubleClick++
	case button.LongHold:
		c.LongHold++
	}
}

// ButtonState is a point-in-time view of one button.
type ButtonState struct {
	Name        string
	Pin         int
	Pressed     bool
	Step        button.Step
	Counts      Counts
	LastEvent   button.Event // zero until the first gesture
	LastEventAt time.Time
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}
