package totp

import "fmt"

// CounterAt returns floor(epoch / step).
func CounterAt(epoch, step int64) (uint64, error) {
	if step <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTimeStep, step)
	}
	if epoch < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidEpoch, epoch)
	}
	return uint64(epoch / step), nil
}

// Remaining returns the number of seconds left in the window containing
// epoch. The result is always in [1, step]: at a window boundary the whole
// step remains.
func Remaining(epoch, step int64) (int64, error) {
	if step <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTimeStep, step)
	}
	r := epoch % step
	if r < 0 {
		r += step
	}
	return step - r, nil
}
