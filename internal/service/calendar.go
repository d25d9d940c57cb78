package service

import (
	"time"

	"familyspace/internal/models"
)

// Calendar answers day-boundary questions in one configured zone. Instants
// it returns are UTC with microsecond precision so they round-trip through
// every supported database unchanged.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar creates a calendar for loc. A nil now uses time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// Location returns the calendar zone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current instant
func (c *Calendar) Now() time.Time {
	return c.now().UTC().Truncate(time.Microsecond)
}

// StartOfDay returns the first instant of t's calendar day
func (c *Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// Date formats t's calendar day
func (c *Calendar) Date(t time.Time) string {
	return t.In(c.loc).Format(models.DateLayout)
}

// Today returns [start of today, start of tomorrow)
func (c *Calendar) Today() (from, to time.Time) {
	start := c.StartOfDay(c.Now())
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// LastWeek returns the window from the start of the day one week ago up to
// the end of today. Nothing is recorded in the future, so the upper bound
// behaves as "now".
func (c *Calendar) LastWeek() (from, to time.Time) {
	start := c.StartOfDay(c.Now())
	return start.AddDate(0, 0, -7).UTC(), start.AddDate(0, 0, 1).UTC()
}
