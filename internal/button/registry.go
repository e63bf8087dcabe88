package button

import "time"

// Registry owns the dispatch order of a set of caller-owned buttons.
// Buttons stay registered for the life of the Registry.
//
// A Registry is not safe for concurrent use. Create and Tick must be called
// from the same goroutine, or serialized by the caller.
type Registry struct {
	buttons []*Button
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create resets b, stores its capabilities and registers it.
func (r *Registry) Create(b *Button, readPin PinReader, onEvent Handler, arg any) error {
	if b == nil || readPin == nil || onEvent == nil {
		return ErrInvalidArgument
	}
	for _, existing := range r.buttons {
		if existing == b {
			return ErrAlreadyRegistered
		}
	}

	b.reset()
	b.readPin = readPin
	b.onEvent = onEvent
	b.arg = arg
	b.registered = true

	r.buttons = append(r.buttons, b)
	return nil
}

// Len returns the number of registered buttons.
func (r *Registry) Len() int {
	return len(r.buttons)
}

// Tick advances every registered button by one tick, most recently created
// first. Thresholds are precomputed for TickInterval; period is not used to
// rescale them, so callers must tick at that interval.
func (r *Registry) Tick(period time.Duration) {
	for i := len(r.buttons) - 1; i >= 0; i-- {
		r.buttons[i].handle()
	}
}
