package clock

import "time"

// Clocker is the source of "now" for send timestamps, mailbox file names and
// archive keys.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock.
type TimeClocker struct{}

func New() *TimeClocker {
	return &TimeClocker{}
}

func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Fixed always reports the same instant. Previews and tests use it so
// rendered dates are stable.
type Fixed time.Time

func (f Fixed) Now() time.Time {
	return time.Time(f)
}
