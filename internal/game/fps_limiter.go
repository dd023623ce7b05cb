package game

import "time"

// FPSLimiter paces the main loop to a fixed tick length.
type FPSLimiter struct {
	target time.Duration
	next   time.Time
}

// NewFPSLimiter paces ticks target apart. A non-positive target disables
// waiting.
func NewFPSLimiter(target time.Duration) *FPSLimiter {
	return &FPSLimiter{target: target}
}

// Target is the tick length.
func (f *FPSLimiter) Target() time.Duration { return f.target }

// Wait blocks until the next tick is due.
// Uses a hybrid sleep/spin approach for better precision on short ticks.
func (f *FPSLimiter) Wait() {
	if f.target <= 0 {
		f.next = time.Time{}
		return
	}

	if f.next.IsZero() {
		f.next = time.Now().Add(f.target)
	} else {
		f.next = f.next.Add(f.target)
	}

	for {
		remaining := time.Until(f.next)
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			time.Sleep(remaining - 200*time.Microsecond)
		}
	}

	// If we're significantly late (e.g., hitch), resync to avoid drift
	if late := -time.Until(f.next); late > f.target {
		f.next = time.Now().Add(f.target)
	}
}
