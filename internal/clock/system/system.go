// Package system provides the wall clock used to stamp fetched_at.
package system

import (
	"time"

	"github.com/JakeFAU/webaudit360/internal/audit"
)

var _ audit.Clock = Clock{}

// Clock implements audit.Clock using time.Now.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is an audit.Clock frozen at a single instant.
type Fixed time.Time

// Now returns the frozen instant in UTC.
func (f Fixed) Now() time.Time {
	return time.Time(f).UTC()
}
