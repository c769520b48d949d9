// Package system provides a real clock implementation.
package system

import "time"

// Clock implements run.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Today returns the current UTC date truncated to midnight. Parsers use
// this as the cutoff between past and upcoming seminars.
func (c Clock) Today() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
