package gpio

import "log"

// Sampler adapts a Reader to the infallible pressed accessor the button
// state machine polls. A failed read repeats the last good value.
type Sampler struct {
	name   string
	reader Reader
	last   bool
	failed bool
	errs   int
}

// NewSampler wraps r. name is used in log messages.
func NewSampler(name string, r Reader) *Sampler {
	return &Sampler{name: name, reader: r}
}

// Pressed reads the line, falling back to the previous value on error.
// Only the first error of a failure streak is logged.
func (s *Sampler) Pressed() bool {
	v, err := s.reader.Read()
	if err != nil {
		s.errs++
		if !s.failed {
			log.Printf("gpio read error (%s): %v", s.name, err)
			s.failed = true
		}
		return s.last
	}
	if s.failed {
		log.Printf("gpio read recovered (%s) after %d errors", s.name, s.errs)
		s.failed = false
	}
	s.last = v
	return v
}

// Errors returns the total number of failed reads.
func (s *Sampler) Errors() int {
	return s.errs
}

// Close closes the underlying reader.
func (s *Sampler) Close() error {
	return s.reader.Close()
}
