// Package period computes quota period keys. A period is one calendar day in
// an explicitly configured timezone; the timezone is configuration, never a
// hidden default, so midnight boundaries are unambiguous across regions.
package period

import (
	"fmt"
	"time"
)

const keyLayout = "2006-01-02"

// Clock produces the period key for "now". It is the single source of truth
// for which counter row is active.
type Clock struct {
	location *time.Location
	now      func() time.Time
}

type Option func(*Clock)

// WithNow overrides the time source for tests.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) {
		c.now = now
	}
}

func NewClock(location *time.Location, opts ...Option) (*Clock, error) {
	if location == nil {
		return nil, fmt.Errorf("quota timezone location is required")
	}

	c := &Clock{
		location: location,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CurrentKey returns the active period key, e.g. "2025-06-01".
func (c *Clock) CurrentKey() string {
	return KeyAt(c.now(), c.location)
}

// KeyAt returns the period key for an arbitrary instant.
func KeyAt(t time.Time, location *time.Location) string {
	return t.In(location).Format(keyLayout)
}
