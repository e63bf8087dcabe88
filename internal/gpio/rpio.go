//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpio maps /dev/gpiomem once per process; readers share the mapping.
var (
	rpioMu   sync.Mutex
	rpioRefs int
)

func rpioAcquire() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if rpioRefs == 0 {
		if err := rpio.Open(); err != nil {
			return fmt.Errorf("open rpio: %w", err)
		}
	}
	rpioRefs++
	return nil
}

func rpioRelease() error {
	rpioMu.Lock()
	defer rpioMu.Unlock()
	if rpioRefs == 0 {
		return nil
	}
	rpioRefs--
	if rpioRefs == 0 {
		return rpio.Close()
	}
	return nil
}

// RpioReader reads a button through Raspberry Pi memory-mapped GPIO.
type RpioReader struct {
	pin       rpio.Pin
	activeLow bool
	closed    bool
}

// NewRpioReader configures line as a pulled input.
func NewRpioReader(line Line) (*RpioReader, error) {
	if err := rpioAcquire(); err != nil {
		return nil, err
	}

	pin := rpio.Pin(line.Pin)
	pin.Input()
	if line.ActiveLow {
		pin.PullUp()
	} else {
		pin.PullDown()
	}

	return &RpioReader{pin: pin, activeLow: line.ActiveLow}, nil
}

// Read returns whether the button is pressed.
func (r *RpioReader) Read() (bool, error) {
	if r.closed {
		return false, fmt.Errorf("read pin %d: reader closed", r.pin)
	}
	return pressed(int(r.pin.Read()), r.activeLow), nil
}

// Close restores the pull-down default and drops the shared mapping.
func (r *RpioReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.pin.PullDown()
	return rpioRelease()
}
