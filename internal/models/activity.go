package models

import (
	"sort"
	"time"
)

// DateLayout formats calendar days
const DateLayout = "2006-01-02"

// Attendance is a daily check-in. AttendedOn is the calendar day in the
// configured zone.
type Attendance struct {
	ID         int64
	MemberID   int64
	AttendedAt time.Time
	AttendedOn string
	Nickname   string // Populated via JOIN
}

// DailyPost is a short text post
type DailyPost struct {
	ID        int64
	MemberID  int64
	Content   string
	CreatedAt time.Time
	Nickname  string // Populated via JOIN
}

// DailyGroup collects the records of one calendar day
type DailyGroup[T any] struct {
	Date    string
	Records []T
}

// GroupByDay buckets records by the calendar day of at in loc. Groups come
// back in ascending date order and keep the input order inside a day.
func GroupByDay[T any](records []T, at func(T) time.Time, loc *time.Location) []DailyGroup[T] {
	var groups []DailyGroup[T]
	index := make(map[string]int)
	for _, r := range records {
		day := at(r).In(loc).Format(DateLayout)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DailyGroup[T]{Date: day})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})
	return groups
}
