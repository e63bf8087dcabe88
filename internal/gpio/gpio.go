// Package gpio provides button line reading with hardware abstraction.
// The real implementations use the Linux GPIO character device or the
// Raspberry Pi memory-mapped registers.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads one button line.
type Reader interface {
	// Read returns the logical pressed state of the line.
	// Active-low wiring is already inverted: raw 0 = pressed.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendGPIOCDev = "gpiocdev"
	BackendRPIO     = "rpio"
)

// DefaultChip is the gpiochip used by the gpiocdev backend.
const DefaultChip = "gpiochip0"

// Line describes one button input.
type Line struct {
	Pin       int  // BCM numbering
	ActiveLow bool // pressed pulls the line to ground
}

// pressed converts a raw line level to a logical pressed state.
func pressed(raw int, activeLow bool) bool {
	if activeLow {
		return raw == 0
	}
	return raw != 0
}
