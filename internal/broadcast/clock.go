package broadcast

import "time"

// Clock defines an interface for reading and waiting on time.
// This allows us to inject a fake time during unit tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

func (c RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// MockClock implements Clock for testing specific scenarios.
// e.g., "Pretend the stream has been up for thirteen hours."
// After fires immediately so tests never sleep.
type MockClock struct {
	MockTime time.Time
}

func (m MockClock) Now() time.Time {
	return m.MockTime
}

func (m MockClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- m.MockTime
	return ch
}
