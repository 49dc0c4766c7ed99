package exchange

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads so expiry and deadline checks are
// testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// Sleeper abstracts the inter-poll delay so tests run without real waits.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type systemSleeper struct{}

func (systemSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SystemSleeper waits in real time and honors context cancellation.
var SystemSleeper Sleeper = systemSleeper{}

// PollPolicy bounds a polling phase by attempt count and wall-clock
// deadline, whichever is hit first.
type PollPolicy struct {
	MaxAttempts int
	Interval    time.Duration
	// Deadline bounds the whole phase in wall-clock time; zero disables it.
	Deadline time.Duration
}

// DefaultPollPolicy mirrors the protocol guidance: 30 attempts at 2s, with
// a deadline comfortably above MaxAttempts * Interval.
var DefaultPollPolicy = PollPolicy{
	MaxAttempts: 30,
	Interval:    2 * time.Second,
	Deadline:    90 * time.Second,
}
