package firmlock

import (
	"errors"
	"fmt"
	"time"
)

// TimeoutError reports that a firm's lock stayed held past the timeout.
// Holder is a best-effort description of whoever last acquired it.
type TimeoutError struct {
	Firm     string
	Path     string
	Waited   time.Duration
	Attempts int
	Timeout  time.Duration
	Retry    time.Duration
	Holder   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("could not lock firm %q after %s (%d attempts, timeout %s, retry %s): held by %s",
		e.Firm, e.Waited.Round(time.Millisecond), e.Attempts, e.Timeout, e.Retry, e.Holder)
}

// Is lets errors.Is(err, ErrLocked) match a timeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrLocked
}

// IsTimeout reports whether err is or wraps a *TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
