package sim

import "fmt"

// StepError wraps a failure to apply part of an intent with the frame it
// happened in. The frame itself still ran.
type StepError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (t=%.3f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
