package gpio

import "fmt"

// Open returns a Reader for line on the named backend.
func Open(backend, chip string, line Line) (Reader, error) {
	switch backend {
	case BackendGPIOCDev, "":
		r, err := NewRealReader(chip, line)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendRPIO:
		r, err := NewRpioReader(line)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown gpio backend %q", backend)
}
