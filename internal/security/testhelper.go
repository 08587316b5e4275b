package security

import "time"

// TestSecret signs tokens in unit tests only. Do not use in production.
const TestSecret = "test-only-signing-secret"

// NewTestTokenProvider returns a one-hour TokenProvider using TestSecret and the
// given clock. For unit tests only.
func NewTestTokenProvider(now func() time.Time) *TokenProvider {
	p, err := NewTokenProvider(TestSecret, time.Hour, WithClock(now))
	if err != nil {
		panic(err)
	}
	return p
}

// FixedClock is a settable time source for tests.
type FixedClock struct {
	T time.Time
}

// Now returns the current fixed time.
func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
