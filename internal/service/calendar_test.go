package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalendar(t *testing.T) {
	now := time.Date(2024, 1, 3, 0, 30, 0, 123456789, seoul)
	cal := NewCalendar(seoul, func() time.Time { return now })

	assert.Equal(t, time.UTC, cal.Now().Location())
	assert.Equal(t, 123456000, cal.Now().Nanosecond())
	assert.Equal(t, "2024-01-03", cal.Date(cal.Now()))

	from, to := cal.Today()
	assert.Equal(t, time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), to)

	from, to = cal.LastWeek()
	assert.Equal(t, time.Date(2023, 12, 26, 15, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC), to)
}

func TestCalendarDefaults(t *testing.T) {
	cal := NewCalendar(nil, nil)
	assert.Equal(t, time.UTC, cal.Location())
	assert.WithinDuration(t, time.Now(), cal.Now(), time.Minute)
}
